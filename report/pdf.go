package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/paddock/billing-engine/billing"
)

// PDFGenerator renders the team's monthly statement layout: header block,
// financial summary table, detail tables per ledger kind, and a payment
// instructions footer.
type PDFGenerator struct {
	// TeamName appears in the header; PaymentInfo lines render in the
	// footer (payment key, deadline wording, etc.).
	TeamName    string
	PaymentInfo []string

	// Now supplies the issue date. Defaults to time.Now.
	Now func() time.Time
}

func NewPDFGenerator(teamName string, paymentInfo []string) *PDFGenerator {
	return &PDFGenerator{TeamName: teamName, PaymentInfo: paymentInfo, Now: time.Now}
}

func (g *PDFGenerator) Generate(pilot billing.PilotLedger, totals billing.Totals, month billing.MonthRef) ([]byte, error) {
	now := time.Now()
	if g.Now != nil {
		now = g.Now()
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Monthly Closing %s - %s", month, pilot.Name), false)
	pdf.AddPage()

	// Header
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, "Monthly Closing Statement", "", 1, "C", false, 0, "")
	if g.TeamName != "" {
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 6, g.TeamName, "", 1, "C", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 11)
	category := pilot.Category
	if category == "" {
		category = "N/A"
	}
	pdf.CellFormat(95, 6, "Pilot: "+pilot.Name, "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 6, "Reference month: "+month.String(), "", 1, "R", false, 0, "")
	pdf.CellFormat(95, 6, "Category: "+category, "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 6, "Issued: "+now.UTC().Format("2006-01-02"), "", 1, "R", false, 0, "")

	pdf.Ln(2)
	pdf.SetLineWidth(0.5)
	x, y := pdf.GetXY()
	pdf.Line(10, y, 200, y)
	pdf.SetXY(x, y+4)

	// Financial summary
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Financial Summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)

	summaryRow := func(label, value string, bold bool) {
		if bold {
			pdf.SetFont("Helvetica", "B", 12)
		}
		pdf.CellFormat(120, 7, label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(70, 7, value, "1", 1, "R", false, 0, "")
		if bold {
			pdf.SetFont("Helvetica", "", 11)
		}
	}
	summaryRow("Base monthly fee", money(pilot.BaseFee.StringFixed(2)), false)
	summaryRow("Extra expenses", money(totals.Expenses.StringFixed(2)), false)
	summaryRow("Reimbursements", "("+money(totals.Reimbursements.StringFixed(2))+")", false)
	summaryRow("Total due", money(totals.Total.StringFixed(2)), true)

	// Detail tables
	if len(pilot.Expenses) > 0 {
		g.entryTable(pdf, "Details: Extra Expenses", pilot.Expenses, totals.Expenses.StringFixed(2))
	}
	if len(pilot.Reimbursements) > 0 {
		g.entryTable(pdf, "Details: Reimbursements", pilot.Reimbursements, totals.Reimbursements.StringFixed(2))
	}

	// Payment instructions
	if len(g.PaymentInfo) > 0 {
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 7, "Payment Instructions", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, line := range g.PaymentInfo {
			pdf.CellFormat(0, 5, line, "", 1, "L", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render statement pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *PDFGenerator) entryTable(pdf *gofpdf.Fpdf, title string, entries []billing.Entry, total string) {
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(35, 6, "Date", "1", 0, "L", false, 0, "")
	pdf.CellFormat(110, 6, "Description", "1", 0, "L", false, 0, "")
	pdf.CellFormat(45, 6, "Amount", "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, e := range entries {
		desc := e.Description
		if desc == "" {
			desc = "N/A"
		}
		pdf.CellFormat(35, 6, e.CreatedAt.UTC().Format("2006-01-02"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(110, 6, desc, "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 6, e.Amount.StringFixed(2), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(145, 6, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(45, 6, total, "1", 1, "R", false, 0, "")
}

func money(fixed string) string { return "R$ " + fixed }
