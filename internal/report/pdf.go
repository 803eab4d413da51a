package report

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"
)

// RenderPDF lays the document out as a multi-section A4 report.
func RenderPDF(doc *Document) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Restaurant Report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Restaurant Report")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 6, "Generated: "+doc.GeneratedAt)
	pdf.Ln(5)
	if doc.Start != "" || doc.End != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Period: %s to %s", orOpen(doc.Start), orOpen(doc.End)))
		pdf.Ln(5)
	}
	pdf.Ln(3)

	sectionHeader(pdf, "Summary")
	summaryRow(pdf, "Total Expenses", doc.TotalExpenses)
	summaryRow(pdf, "Total Sales", doc.TotalSales)
	summaryRow(pdf, "Difference (Expenses - Sales)", doc.Difference)
	pdf.Ln(4)

	sectionHeader(pdf, "Inventory & Sales Ledger")
	tableHeader(pdf, []colSpec{{"Date", 24}, {"Item", 56}, {"Qty", 16}, {"Price", 24}, {"Account", 34}, {"Type", 18}})
	for _, group := range doc.Ledger {
		for _, r := range group.Records {
			kind := "Expense"
			if r.IsSale {
				kind = "Sale"
			}
			tableRow(pdf, []colVal{
				{group.Date, 24},
				{r.Label(), 56},
				{string(r.Quantity), 16},
				{money(float64(r.Price)), 24},
				{r.PaymentMode, 34},
				{kind, 18},
			})
		}
	}
	pdf.Ln(4)

	sectionHeader(pdf, "Staff & Salary")
	if doc.Salary != nil {
		tableHeader(pdf, []colSpec{{"Name", 44}, {"Role", 34}, {"Salary", 24}, {"Paid", 24}, {"Remaining", 24}, {"Last Paid", 22}})
		for _, s := range doc.Salary.Staff {
			tableRow(pdf, []colVal{
				{s.Staff.Name, 44},
				{s.Staff.Role, 34},
				{money(float64(s.Staff.Salary)), 24},
				{money(s.Paid), 24},
				{money(s.Remaining), 24},
				{s.Staff.LastPaidOn, 22},
			})
		}
		pdf.SetFont("Helvetica", "I", 8)
		pdf.Cell(0, 5, "Salary cycle: "+strconv.Itoa(doc.Salary.Cycle))
		pdf.Ln(6)
	}

	sectionHeader(pdf, "Attendance")
	tableHeader(pdf, []colSpec{{"Date", 26}, {"Staff", 52}, {"Status", 26}, {"Time", 24}, {"Notes", 44}})
	for _, a := range doc.Attendance {
		tableRow(pdf, []colVal{{a.Date, 26}, {a.StaffMember, 52}, {a.Status, 26}, {a.Time, 24}, {a.Notes, 44}})
	}
	pdf.Ln(4)

	sectionHeader(pdf, "Sales")
	tableHeader(pdf, []colSpec{{"Date", 28}, {"Entry", 70}, {"Amount", 30}, {"Account", 40}})
	for _, s := range doc.Sales {
		tableRow(pdf, []colVal{{s.Date, 28}, {s.Label(), 70}, {money(float64(s.Price)), 30}, {s.PaymentMode, 40}})
	}
	pdf.Ln(4)

	sectionHeader(pdf, "Notes")
	tableHeader(pdf, []colSpec{{"Title", 50}, {"Category", 28}, {"Priority", 24}, {"Content", 70}})
	for _, n := range doc.Notes {
		tableRow(pdf, []colVal{{n.Title, 50}, {n.Category, 28}, {n.Priority, 24}, {n.Content, 70}})
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type colSpec struct {
	label string
	width float64
}

type colVal struct {
	text  string
	width float64
}

func summaryRow(pdf *gofpdf.Fpdf, label string, v float64) {
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(70, 6, label, "", 0, "L", false, 0, "")
	pdf.CellFormat(30, 6, money(v), "", 0, "R", false, 0, "")
	pdf.Ln(-1)
}

func sectionHeader(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 7, title)
	pdf.Ln(7)
}

func tableHeader(pdf *gofpdf.Fpdf, cols []colSpec) {
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(230, 230, 230)
	for _, c := range cols {
		pdf.CellFormat(c.width, 6, c.label, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

func tableRow(pdf *gofpdf.Fpdf, cols []colVal) {
	pdf.SetFont("Helvetica", "", 8)
	for _, c := range cols {
		pdf.CellFormat(c.width, 6, clip(c.text, int(c.width/1.6)), "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
}

func clip(s string, max int) string {
	if max < 4 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func orOpen(s string) string {
	if s == "" {
		return "open"
	}
	return s
}
