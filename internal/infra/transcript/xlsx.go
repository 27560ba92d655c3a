// Package transcript exports chat records as spreadsheets.
package transcript

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/futurenavigators/pathpilot/internal/domain"
)

// SheetName is the worksheet holding the exported records.
const SheetName = "Chat"

// ContentType is the MIME type of the exported workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Header is the first row of every export.
var Header = []string{"user", "bot", "feedback", "matched_question", "degraded", "created_at"}

// WriteXLSX writes recs to w as a single-sheet workbook, one row per record
// in the order given.
func WriteXLSX(w io.Writer, recs []domain.ChatRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", toCells(Header)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range recs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			r.User,
			r.Bot,
			r.Feedback,
			r.MatchedQuestion,
			strconv.FormatBool(r.Degraded),
			r.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func toCells(ss []string) *[]any {
	row := make([]any, len(ss))
	for i, s := range ss {
		row[i] = s
	}
	return &row
}
