package utils

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	models "github.com/phillip/event-ledger-go/models"
)

// InvoiceParty is what the PDF prints in the "Bill To" block.
type InvoiceParty struct {
	Name  string
	Email string
	Phone string
}

// RenderInvoicePDF lays out an invoice on a single A4 page. Core PDF fonts have
// no rupee glyph, so amounts are printed with the currency code.
func RenderInvoicePDF(inv *models.Invoice, billTo InvoiceParty) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(inv.InvoiceNumber, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Invoice "+inv.InvoiceNumber, "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, "Issue Date: "+inv.IssueDate.Format("02 Jan 2006"), "", 1, "L", false, 0, "")
	if inv.DueDate != nil {
		pdf.CellFormat(0, 6, "Due Date: "+inv.DueDate.Format("02 Jan 2006"), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, "Status: "+string(inv.Status), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, "Bill To", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	for _, line := range []string{billTo.Name, billTo.Email, billTo.Phone} {
		if line != "" {
			pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
		}
	}
	pdf.Ln(4)

	// line items
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(90, 8, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 8, "Qty", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 8, "Unit Price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(40, 8, "Amount", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, item := range inv.Items {
		pdf.CellFormat(90, 7, tr(item.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 7, item.Quantity.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, item.UnitPrice.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 7, item.Amount.StringFixed(2), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(2)

	totals := [][2]string{
		{"Subtotal", inv.Subtotal.StringFixed(2)},
		{"Discount", "-" + inv.DiscountAmount.StringFixed(2)},
		{fmt.Sprintf("Tax (%s%%)", inv.TaxRate.String()), inv.TaxAmount.StringFixed(2)},
		{"Total", inv.Total.StringFixed(2)},
		{"Paid", inv.PaidAmount.StringFixed(2)},
		{"Balance Due", inv.BalanceAmount.StringFixed(2)},
	}
	for _, row := range totals {
		style := ""
		if row[0] == "Total" || row[0] == "Balance Due" {
			style = "B"
		}
		pdf.SetFont("Arial", style, 10)
		pdf.CellFormat(150, 7, row[0], "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 7, inv.Currency+" "+row[1], "", 1, "R", false, 0, "")
	}

	if inv.Notes != "" || inv.Terms != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 9)
		if inv.Notes != "" {
			pdf.MultiCell(0, 5, tr("Notes: "+inv.Notes), "", "L", false)
		}
		if inv.Terms != "" {
			pdf.MultiCell(0, 5, tr("Terms: "+inv.Terms), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}
