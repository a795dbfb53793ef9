package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ExportDailyCashCloseXLSX renders the close of one date, plus the
// day's ledger rows, as a spreadsheet. The date must already be closed.
func ExportDailyCashCloseXLSX(db *gorm.DB, date time.Time) (*bytes.Buffer, error) {
	dayClose, err := GetDailyCashClose(db, date)
	if err != nil {
		return nil, err
	}
	payments, err := GetPaymentsByDate(db, date)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Arqueo"
	f.SetSheetName("Sheet1", sheet)

	titleStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})

	f.SetCellValue(sheet, "A1", fmt.Sprintf("Arqueo diario %s", dayClose.Date))
	f.SetCellStyle(sheet, "A1", "A1", titleStyle)

	summary := [][]interface{}{
		{"Ingresos en efectivo", dayClose.IngressCash.StringFixed(2)},
		{"Ingresos bancarios", dayClose.IngressBank.StringFixed(2)},
		{"Egresos en efectivo", dayClose.EgressCash.StringFixed(2)},
		{"Egresos bancarios", dayClose.EgressBank.StringFixed(2)},
		{"Saldo de cierre", dayClose.ClosingBalance.StringFixed(2)},
	}
	for i, row := range summary {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", i+3), row[0])
		f.SetCellValue(sheet, fmt.Sprintf("B%d", i+3), row[1])
	}
	f.SetCellStyle(sheet, "A7", "B7", headerStyle)

	// Detail rows start after the summary block
	detailStart := len(summary) + 4
	headers := []string{"Hora", "Ticket", "Monto", "Método", "Recibo"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, detailStart)
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}
	for i, p := range payments {
		row := detailStart + 1 + i
		ticket := ""
		if p.Service != nil {
			ticket = p.Service.TicketCode
		}
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), p.RegisteredAt.Format("15:04"))
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), ticket)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), p.Amount.StringFixed(2))
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), p.Method)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), fmt.Sprintf("%s %s", p.ReceiptType, p.ReceiptNumber))
	}
	f.SetColWidth(sheet, "A", "E", 20)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write spreadsheet: %w", err)
	}
	return &buf, nil
}
