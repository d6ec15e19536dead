// Package xlsx renders the unit tables as a spreadsheet.
package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/unit-converter/internal/core/domain"
)

// UnitCatalog is the read side of the converter needed for the export.
type UnitCatalog interface {
	Categories() []domain.Category
	Units(category domain.Category) ([]domain.Unit, error)
}

var header = []any{"Symbol", "Name", "Factor to base", "Aliases"}

// WriteUnitReference writes one sheet per category, in menu order.
func WriteUnitReference(w io.Writer, catalog UnitCatalog) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for _, category := range catalog.Categories() {
		units, err := catalog.Units(category)
		if err != nil {
			return fmt.Errorf("units for %s: %w", category, err)
		}
		sheet := category.Label()
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("new sheet %s: %w", sheet, err)
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return fmt.Errorf("write header %s: %w", sheet, err)
		}
		if err := f.SetCellStyle(sheet, "A1", "D1", bold); err != nil {
			return fmt.Errorf("style header %s: %w", sheet, err)
		}
		for i, unit := range units {
			row := []any{unit.Symbol, unit.Name, factorCell(category, unit), strings.Join(unit.Aliases, ", ")}
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
			}
		}
		if err := f.SetColWidth(sheet, "B", "B", 24); err != nil {
			return fmt.Errorf("column width %s: %w", sheet, err)
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Temperature units have no linear factor.
func factorCell(category domain.Category, unit domain.Unit) any {
	if !category.Linear() {
		return "formula"
	}
	return unit.Scale
}
