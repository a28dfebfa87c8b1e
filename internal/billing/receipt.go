package billing

import (
	"archive/zip" // Receipt archive packaging
	"bytes"       // In-memory buffers
	"fmt"         // Formatting
	"sort"        // Stable field order on the PDF
	"time"        // Receipt date

	"brainycode/internal/domain" // Importing domain models

	"github.com/go-pdf/fpdf" // PDF rendering
)

// receiptFields builds the substitution map for the order receipt.
func receiptFields(user *domain.User, order *domain.Order, credits float64) map[string]string {
	return map[string]string{
		"CustomerName": user.Name,                                               // Recipient
		"OrderID":      fmt.Sprintf("%d", order.ID),                             // Ledger entry
		"CreditUsed":   fmt.Sprintf("%g", credits),                              // Credits moved
		"Amount":       fmt.Sprintf("%.2f", order.Amount),                       // Monetary amount
		"Date":         time.UnixMilli(order.CreatedAt).Format("Jan 2, 2006"),   // Order date
		"Year":         fmt.Sprintf("%d", time.Now().Year()),                    // Footer year
	}
}

// renderReceiptPDF renders the order-confirmation receipt.
func renderReceiptPDF(fields map[string]string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 12, "Order Confirmation")
	pdf.Ln(16)
	pdf.SetFont("Helvetica", "", 12)
	// Stable key order so identical orders render identical receipts
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		pdf.CellFormat(50, 8, k, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 8, fields[k], "", 1, "L", false, 0, "")
	}
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.Cell(0, 8, "Thank you for your purchase.")
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// zipReceipt wraps the receipt PDF in a zip archive for the invoice
// bucket, mirroring how generated code bundles are stored.
func zipReceipt(pdfBytes []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("invoice.pdf")
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(pdfBytes); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
