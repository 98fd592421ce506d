package availability

import "time"

// DateRangesOverlap reports whether the whole-day ranges [aStart, aEnd) and
// [bStart, bEnd) share at least one night. Check-out dates are exclusive, so
// ranges that only touch never overlap. Stay and extension conflicts are
// checked with it, each blocked date as the one-night range [d, d+1).
func DateRangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	as, ae := Day(aStart), Day(aEnd)
	bs, be := Day(bStart), Day(bEnd)
	return as.Before(be) && bs.Before(ae)
}

// TimeRangesOverlap reports whether [aStart, aEnd) overlaps the existing range
// [bStart, bEnd+bufferMinutes). A negative buffer is treated as zero.
func TimeRangesOverlap(aStart, aEnd, bStart, bEnd Clock, bufferMinutes int) bool {
	if bufferMinutes < 0 {
		bufferMinutes = 0
	}
	bEnd = bEnd.Add(bufferMinutes)
	return aStart < bEnd && aEnd > bStart
}
