package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"innkeeper/internal/availability"
	"innkeeper/internal/models"

	"github.com/xuri/excelize/v2"
)

// SheetName is the only sheet of the availability workbook.
const SheetName = "Availability"

const (
	labelFree    = "free"
	labelBlocked = "blocked"
)

// FileName returns the attachment name for a room report.
func FileName(roomID string, from, to time.Time) string {
	return fmt.Sprintf("availability_%s_%s_to_%s.xlsx", roomID, availability.FormatDate(from), availability.FormatDate(to))
}

// Write renders one row per day: whether regular and hourly check-ins are
// blocked, plus the active hourly slots.
func Write(w io.Writer, room models.Room, from, to time.Time, days []availability.DayStatus) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	title := fmt.Sprintf("%s (%s), %s - %s", room.Name, room.ID, availability.FormatDate(from), availability.FormatDate(to))
	_ = f.SetCellValue(SheetName, "A1", title)
	_ = f.MergeCell(SheetName, "A1", "D1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(SheetName, "A1", "A1", titleStyle)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for col, header := range []string{"Date", "Regular", "Hourly", "Hourly slots"} {
		cell, _ := excelize.CoordinatesToCellName(col+1, 2)
		_ = f.SetCellValue(SheetName, cell, header)
		_ = f.SetCellStyle(SheetName, cell, cell, headerStyle)
	}

	freeStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
	})
	blockedStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#F8CBAD"}, Pattern: 1},
	})
	wrapStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})

	for i, day := range days {
		row := i + 3
		_ = f.SetCellValue(SheetName, cellName(1, row), availability.FormatDate(day.Date))
		writeFlag(f, cellName(2, row), day.RegularBlocked, freeStyle, blockedStyle)
		if room.HourlyEnabled {
			writeFlag(f, cellName(3, row), day.HourlyBlocked, freeStyle, blockedStyle)
		} else {
			_ = f.SetCellValue(SheetName, cellName(3, row), "n/a")
		}

		slots := make([]string, len(day.Ranges))
		for j, r := range day.Ranges {
			slots[j] = r.String()
		}
		_ = f.SetCellValue(SheetName, cellName(4, row), strings.Join(slots, "\n"))
		_ = f.SetCellStyle(SheetName, cellName(4, row), cellName(4, row), wrapStyle)
	}

	_ = f.SetColWidth(SheetName, "A", "C", 14)
	_ = f.SetColWidth(SheetName, "D", "D", 30)

	// Удаляем стандартный лист
	_ = f.DeleteSheet("Sheet1")

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

func writeFlag(f *excelize.File, cell string, blocked bool, freeStyle, blockedStyle int) {
	label, style := labelFree, freeStyle
	if blocked {
		label, style = labelBlocked, blockedStyle
	}
	_ = f.SetCellValue(SheetName, cell, label)
	_ = f.SetCellStyle(SheetName, cell, cell, style)
}

func cellName(col, row int) string {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	return cell
}
