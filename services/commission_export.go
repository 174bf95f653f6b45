package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/Govind-619/LinkSphere/models"
	"github.com/Govind-619/LinkSphere/utils"
	"github.com/jung-kurt/gofpdf"
	"github.com/tealeg/xlsx"
)

// Export formats
const (
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

// ExportFile is a rendered report
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
	Rows        int
}

var exportHeaders = []string{"ID", "Date", "Status", "Type", "Partner", "Customer", "Amount", "Earnings", "Currency"}

// ExportCommissions renders the filtered commission set as a spreadsheet or PDF
func (s *CommissionService) ExportCommissions(ctx context.Context, wctx utils.WorkspaceContext, q CommissionQuery, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatXLSX
	}
	if format != FormatXLSX && format != FormatPDF {
		return nil, utils.InvalidInputError("format must be xlsx or pdf", nil).
			WithDetails(map[string]string{"format": format})
	}

	parsed, rows, err := s.exportRows(ctx, wctx, q)
	if err != nil {
		return nil, err
	}

	period := parsed.Filter.Start.Format("2006-01-02") + " to " + parsed.Filter.End.Format("2006-01-02")
	base := fmt.Sprintf("commissions_%s_%s", parsed.Filter.ProgramID, s.now().Format("20060102"))

	var buf bytes.Buffer
	switch format {
	case FormatXLSX:
		if err := writeCommissionsXLSX(&buf, rows, period); err != nil {
			return nil, utils.InternalError("Failed to write Excel file", err)
		}
		utils.LogInfo("Generated commission spreadsheet for program %s (%d rows)", parsed.Filter.ProgramID, len(rows))
		return &ExportFile{
			Filename:    base + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        buf.Bytes(),
			Rows:        len(rows),
		}, nil
	default:
		if err := writeCommissionsPDF(&buf, rows, period); err != nil {
			return nil, utils.InternalError("Failed to write PDF file", err)
		}
		utils.LogInfo("Generated commission PDF for program %s (%d rows)", parsed.Filter.ProgramID, len(rows))
		return &ExportFile{
			Filename:    base + ".pdf",
			ContentType: "application/pdf",
			Data:        buf.Bytes(),
			Rows:        len(rows),
		}, nil
	}
}

func partnerName(r models.CommissionRow) string {
	if r.Partner == nil {
		return "-"
	}
	return r.Partner.Name
}

func customerName(r models.CommissionRow) string {
	if r.Customer == nil {
		return "-"
	}
	return r.Customer.Name
}

func cents(v int64) string {
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func writeCommissionsXLSX(buf *bytes.Buffer, rows []models.CommissionRow, period string) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Commissions")
	if err != nil {
		return err
	}

	titleRow := sheet.AddRow()
	titleRow.AddCell().SetString("LINKSPHERE - Commissions")
	periodRow := sheet.AddRow()
	periodRow.AddCell().SetString("Period: " + period)
	sheet.AddRow() // spacing

	headerRow := sheet.AddRow()
	for _, h := range exportHeaders {
		cell := headerRow.AddCell()
		cell.SetString(h)
		style := xlsx.NewStyle()
		font := xlsx.DefaultFont()
		font.Bold = true
		style.Font = *font
		cell.SetStyle(style)
	}

	var totalAmount, totalEarnings int64
	for _, r := range rows {
		row := sheet.AddRow()
		row.AddCell().SetString(r.ID)
		row.AddCell().SetString(r.CreatedAt.Format("2006-01-02 15:04"))
		row.AddCell().SetString(r.Status)
		row.AddCell().SetString(r.Type)
		row.AddCell().SetString(partnerName(r))
		row.AddCell().SetString(customerName(r))
		row.AddCell().SetFloat(float64(r.Amount) / 100)
		row.AddCell().SetFloat(float64(r.Earnings) / 100)
		row.AddCell().SetString(strings.ToUpper(r.Currency))
		totalAmount += r.Amount
		totalEarnings += r.Earnings
	}

	sheet.AddRow() // spacing
	summary := [][]string{
		{"Commissions", fmt.Sprintf("%d", len(rows))},
		{"Total Amount", cents(totalAmount)},
		{"Total Earnings", cents(totalEarnings)},
	}
	for _, data := range summary {
		row := sheet.AddRow()
		row.AddCell().SetString(data[0])
		row.AddCell().SetString(data[1])
	}

	return file.Write(buf)
}

func writeCommissionsPDF(buf *bytes.Buffer, rows []models.CommissionRow, period string) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 12, "LINKSPHERE - Commissions")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 8, "Period: "+period)
	pdf.Ln(10)

	colWidths := []float64{52, 30, 24, 18, 40, 40, 24, 24, 18}
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	for i, h := range exportHeaders {
		pdf.CellFormat(colWidths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	var totalAmount, totalEarnings int64
	for i, r := range rows {
		fill := i%2 == 1
		pdf.SetFillColor(245, 245, 245)
		pdf.CellFormat(colWidths[0], 7, r.ID, "1", 0, "L", fill, 0, "")
		pdf.CellFormat(colWidths[1], 7, r.CreatedAt.Format("2006-01-02 15:04"), "1", 0, "C", fill, 0, "")
		pdf.CellFormat(colWidths[2], 7, r.Status, "1", 0, "C", fill, 0, "")
		pdf.CellFormat(colWidths[3], 7, r.Type, "1", 0, "C", fill, 0, "")
		pdf.CellFormat(colWidths[4], 7, partnerName(r), "1", 0, "L", fill, 0, "")
		pdf.CellFormat(colWidths[5], 7, customerName(r), "1", 0, "L", fill, 0, "")
		pdf.CellFormat(colWidths[6], 7, cents(r.Amount), "1", 0, "R", fill, 0, "")
		pdf.CellFormat(colWidths[7], 7, cents(r.Earnings), "1", 0, "R", fill, 0, "")
		pdf.CellFormat(colWidths[8], 7, strings.ToUpper(r.Currency), "1", 0, "C", fill, 0, "")
		pdf.Ln(-1)
		totalAmount += r.Amount
		totalEarnings += r.Earnings
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(220, 230, 250)
	pdf.CellFormat(80, 9, "Summary", "1", 0, "C", true, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, line := range [][2]string{
		{"Commissions", fmt.Sprintf("%d", len(rows))},
		{"Total Amount", cents(totalAmount)},
		{"Total Earnings", cents(totalEarnings)},
	} {
		pdf.CellFormat(50, 8, line[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 8, line[1], "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	return pdf.Output(buf)
}
