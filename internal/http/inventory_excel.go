package httpapi

import (
	"bytes"
	"fmt"

	"invwe-data/internal/service"

	"github.com/xuri/excelize/v2"
)

const inventorySheet = "Inventory"

// inventoryExportHeader 导出表头
var inventoryExportHeader = map[service.Lang][]string{
	service.LangES: {"SKU", "Producto", "Cantidad", "Stock Mínimo", "Porcentaje", "Estado"},
	service.LangEN: {"SKU", "Product", "Quantity", "Min Stock", "Percentage", "Status"},
}

var inventoryColumnWidths = []float64{16, 40, 12, 14, 12, 16}

// 状态列底色
var stockStatusFill = map[service.StockStatus]string{
	service.StockLow:    "#F8D7DA",
	service.StockNormal: "#FFF3CD",
	service.StockHigh:   "#D4EDDA",
}

// GenerateInventoryExport 生成门店库存 Excel（Inventory + Summary 两个工作表）
func GenerateInventoryExport(storeName string, list *service.InventoryList, lang service.Lang) ([]byte, error) {
	headers, ok := inventoryExportHeader[lang]
	if !ok {
		headers = inventoryExportHeader[service.LangES]
	}

	f := excelize.NewFile()
	// WriteTo 之前不能 Close

	index, err := f.NewSheet(inventorySheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	statusStyles := make(map[service.StockStatus]int, len(stockStatusFill))
	for st, color := range stockStatusFill {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create status style: %w", err)
		}
		statusStyles[st] = id
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(inventorySheet, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(inventorySheet, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
		colName, _ := excelize.ColumnNumberToName(col + 1)
		if err := f.SetColWidth(inventorySheet, colName, colName, inventoryColumnWidths[col]); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, item := range list.Items {
		row := i + 2
		values := []any{item.SKU, item.ProductName, item.Quantity, item.MinStock, nil, nil}
		if item.Stock != nil {
			values[4] = fmt.Sprintf("%d%%", item.Stock.Percentage)
			values[5] = item.Stock.Label
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(inventorySheet, start, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", row, err)
		}
		if item.Stock != nil {
			cell, _ := excelize.CoordinatesToCellName(6, row)
			if err := f.SetCellStyle(inventorySheet, cell, cell, statusStyles[item.Stock.Status]); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set status style: %w", err)
			}
		}
	}

	if err := f.SetPanes(inventorySheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	if err := writeInventorySummary(f, storeName, list.Summary, lang); err != nil {
		f.Close()
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

func writeInventorySummary(f *excelize.File, storeName string, s service.StockSummary, lang service.Lang) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	untracked := "Sin umbral"
	storeLabel := "Tienda"
	if lang == service.LangEN {
		untracked = "No threshold"
		storeLabel = "Store"
	}
	rows := [][]any{
		{storeLabel, storeName},
		{service.StockLow.Label(lang), s.Low},
		{service.StockNormal.Label(lang), s.Normal},
		{service.StockHigh.Label(lang), s.High},
		{untracked, s.Untracked},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}
	return f.SetColWidth(sheet, "A", "A", 18)
}
