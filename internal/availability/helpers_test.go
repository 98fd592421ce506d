package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func mustClock(t *testing.T, s string) Clock {
	t.Helper()
	c, err := ParseClock(s)
	require.NoError(t, err)
	return c
}

func calendarOf(t *testing.T, checkIns []string, ranges ...TimeRange) *Calendar {
	t.Helper()
	dates := make([]time.Time, 0, len(checkIns))
	for _, s := range checkIns {
		dates = append(dates, mustDate(t, s))
	}
	return BuildCalendar(dates, ranges)
}

func slot(t *testing.T, date, start, end, status string) TimeRange {
	t.Helper()
	return TimeRange{Date: mustDate(t, date), Start: mustClock(t, start), End: mustClock(t, end), Status: status}
}
