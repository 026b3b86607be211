package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/modmap/pkg/session"
)

const maxSheetName = 31

var sheetNameReplacer = strings.NewReplacer(
	":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")",
)

func sheetName(label string) string {
	name := sheetNameReplacer.Replace(label)
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	return name
}

// RenderXLSX writes the table view as a workbook with one sheet per level.
// Columns are Module, Title, Term, Group, Prerequisites and Required for;
// a level that could not be ordered holds its error notice instead.
func RenderXLSX(s *session.Session, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	levels := Table(s)
	if len(levels) == 0 {
		if _, err := f.WriteTo(w); err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}
		return nil
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"EEEEEE"}},
	})
	if err != nil {
		return fmt.Errorf("xlsx style: %w", err)
	}

	const defaultSheet = "Sheet1"
	for i, lv := range levels {
		name := sheetName(lv.Label)
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("new sheet %s: %w", name, err)
		}

		if lv.Err != nil {
			if err := f.SetCellValue(name, "A1", lv.Notice); err != nil {
				return err
			}
			continue
		}

		cols := []any{"Module", "Title", "Term", "Group", "Prerequisites", "Required for"}
		if err := f.SetSheetRow(name, "A1", &cols); err != nil {
			return fmt.Errorf("header row: %w", err)
		}
		if err := f.SetCellStyle(name, "A1", "F1", header); err != nil {
			return err
		}
		for r, row := range lv.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			values := []any{
				row.Code,
				row.Title,
				row.Term,
				strings.Join(row.Groups, ", "),
				row.Prereqs,
				strings.Join(row.RequiredFor, ", "),
			}
			if err := f.SetSheetRow(name, cell, &values); err != nil {
				return fmt.Errorf("row %s: %w", row.Code, err)
			}
		}
		if err := f.SetColWidth(name, "A", "A", 12); err != nil {
			return err
		}
		if err := f.SetColWidth(name, "B", "B", 40); err != nil {
			return err
		}
		if err := f.SetColWidth(name, "E", "F", 36); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
