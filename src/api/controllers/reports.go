package controllers

import (
	"bytes"
	"context"
	"fmt"

	"tracker/src/utils/render"

	"github.com/xuri/excelize/v2"
)

const transactionsSheet = "Transactions"

var transactionHeaders = []string{"#", "Date", "Ticker", "Type", "Shares", "Price", "Total"}

// GenerateTransactionsXLSX writes the transaction history, most recent first, to a single styled sheet.
func (c *Controller) GenerateTransactionsXLSX(ctx context.Context, tickerID *string) (*excelize.File, error) {
	entries, err := c.Portfolio.TransactionHistory(ctx, tickerID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", transactionsSheet); err != nil {
		return nil, err
	}

	for i, header := range transactionHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(transactionsSheet, cell, header); err != nil {
			return nil, err
		}
	}

	// Currency format for price and total
	currencyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 8})
	if err != nil {
		return nil, err
	}

	for rowIndex, entry := range entries {
		row := rowIndex + 2
		values := []interface{}{
			entry.TransactionNum,
			entry.Timestamp,
			entry.TickerID,
			entry.TransactionType,
			entry.NumShares,
			entry.PriceValue,
			entry.TotalValue,
		}
		for colIndex, value := range values {
			cell, err := excelize.CoordinatesToCellName(colIndex+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(transactionsSheet, cell, value); err != nil {
				return nil, err
			}
		}
		if err := f.SetCellStyle(transactionsSheet, fmt.Sprintf("F%d", row), fmt.Sprintf("G%d", row), currencyStyle); err != nil {
			return nil, err
		}
	}

	if err := applyHeaderStyle(f, transactionsSheet, len(transactionHeaders)); err != nil {
		return nil, err
	}
	return f, nil
}

func applyHeaderStyle(f *excelize.File, sheet string, columns int) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6E6E6"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return err
	}

	lastCol, err := excelize.ColumnNumberToName(columns)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", lastCol, 18)
}

// GeneratePortfolioPDF renders the dashboard page through wkhtmltopdf, which must be installed on the host.
func (c *Controller) GeneratePortfolioPDF(ctx context.Context) (*bytes.Buffer, error) {
	html, err := c.RenderDashboard(ctx)
	if err != nil {
		return nil, err
	}
	return render.GeneratePDF([]string{html.String()})
}
