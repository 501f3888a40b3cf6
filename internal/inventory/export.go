package inventory

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Ventas"

var exportHeader = []any{"ID", "Fecha", "Producto", "Producto ID", "Cantidad", "Precio unitario", "Total", "Costo unitario", "Ganancia"}

// WriteSalesXLSX renders sales as a spreadsheet, one row per sale.
func WriteSalesXLSX(w io.Writer, sales []Sale) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), exportSheet); err != nil {
		return fmt.Errorf("inventory: export: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("inventory: export header: %w", err)
	}

	for i, s := range sales {
		var productID any
		if s.ProductID != nil {
			productID = *s.ProductID
		}
		var unitCost any
		if s.UnitCost.Valid {
			unitCost = s.UnitCost.Decimal.InexactFloat64()
		}
		row := []any{
			s.ID,
			s.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			s.ProductName,
			productID,
			s.Quantity,
			s.UnitPrice.InexactFloat64(),
			s.TotalAmount.InexactFloat64(),
			unitCost,
			s.Profit().InexactFloat64(),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("inventory: export: %w", err)
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("inventory: export row %d: %w", i+1, err)
		}
	}
	if err := f.SetColWidth(exportSheet, "C", "C", 32); err != nil {
		return fmt.Errorf("inventory: export: %w", err)
	}
	return f.Write(w)
}
