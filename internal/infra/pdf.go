package infra

import (
	"fmt"
	"io"

	"backoffice/internal/model"

	"github.com/go-pdf/fpdf"
)

// RenderInvoicePDF writes an A4 invoice document for inv to w. The invoice
// must have its Items (and their Product) preloaded; Customer is optional.
func RenderInvoicePDF(w io.Writer, inv *model.Invoice, businessName string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetTitle("Invoice "+inv.Number, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// header
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, tr(businessName), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW/2, 6, "Invoice "+inv.Number, "", 0, "L", false, 0, "")
	pdf.CellFormat(contentW/2, 6, inv.Date.Format("2006-01-02"), "", 1, "R", false, 0, "")

	customer := "Walk-in customer"
	if inv.Customer != nil {
		customer = inv.Customer.Name
	}
	pdf.CellFormat(contentW/2, 6, tr("Bill to: "+customer), "", 0, "L", false, 0, "")
	pdf.CellFormat(contentW/2, 6, "Status: "+string(inv.Status), "", 1, "R", false, 0, "")
	if inv.Status == model.InvoiceCancelled {
		pdf.SetTextColor(200, 0, 0)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(contentW, 8, "CANCELLED", "", 1, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.Ln(4)

	colName := contentW * 0.46
	colQty := contentW * 0.12
	colPrice := contentW * 0.21
	colTotal := contentW * 0.21

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(colName, 7, "Product", "B", 0, "L", true, 0, "")
	pdf.CellFormat(colQty, 7, "Qty", "B", 0, "C", true, 0, "")
	pdf.CellFormat(colPrice, 7, "Unit price", "B", 0, "R", true, 0, "")
	pdf.CellFormat(colTotal, 7, "Line total", "B", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range inv.Items {
		name := item.ProductID.String()
		if item.Product != nil {
			name = item.Product.SKU + "  " + item.Product.Name
		}
		if len(name) > 48 {
			name = name[:47] + "..."
		}
		pdf.CellFormat(colName, 6, tr(name), "", 0, "L", false, 0, "")
		pdf.CellFormat(colQty, 6, fmt.Sprintf("%d", item.Quantity), "", 0, "C", false, 0, "")
		pdf.CellFormat(colPrice, 6, item.UnitPrice.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(colTotal, 6, item.LineTotal.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(2)

	labelW := colName + colQty + colPrice
	totals := []struct {
		label string
		value string
		bold  bool
	}{
		{"Subtotal", inv.SubTotal.StringFixed(2), false},
		{"Grand total", inv.GrandTotal.StringFixed(2), true},
		{"Paid", inv.PaidAmount.StringFixed(2), false},
		{"Balance due", inv.BalanceDue().StringFixed(2), true},
	}
	for _, row := range totals {
		style := ""
		if row.bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(labelW, 6, row.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(colTotal, 6, row.value, "", 1, "R", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: render invoice %s: %w", inv.Number, err)
	}
	return nil
}
