package report

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// RenderXLSX writes the document as a workbook with one sheet per section.
func RenderXLSX(doc *Document) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	ledgerSheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetName(ledgerSheet, "Ledger"); err != nil {
		return nil, err
	}

	ledgerRows := [][]interface{}{}
	for _, group := range doc.Ledger {
		for _, r := range group.Records {
			kind := "Expense"
			if r.IsSale {
				kind = "Sale"
			}
			ledgerRows = append(ledgerRows, []interface{}{
				group.Date, r.Label(), string(r.Quantity), float64(r.Price), r.PaymentMode, kind, r.Notes,
			})
		}
	}
	if err := writeSheet(f, "Ledger",
		[]string{"Date", "Item", "Quantity", "Price", "Account", "Type", "Notes"}, ledgerRows); err != nil {
		return nil, err
	}

	summaryRows := [][]interface{}{
		{"Total Expenses", doc.TotalExpenses},
		{"Total Sales", doc.TotalSales},
		{"Difference (Expenses - Sales)", doc.Difference},
		{"Generated", doc.GeneratedAt},
	}
	if doc.Start != "" || doc.End != "" {
		summaryRows = append(summaryRows, []interface{}{"Period", orOpen(doc.Start) + " to " + orOpen(doc.End)})
	}
	if err := addSheet(f, "Summary", []string{"Figure", "Value"}, summaryRows); err != nil {
		return nil, err
	}

	if doc.Salary != nil {
		rows := [][]interface{}{}
		for _, s := range doc.Salary.Staff {
			rows = append(rows, []interface{}{
				s.Staff.Name, s.Staff.Role, float64(s.Staff.Salary), s.Paid, s.Remaining, s.Staff.LastPaidOn,
			})
		}
		rows = append(rows, []interface{}{"Cycle", strconv.Itoa(doc.Salary.Cycle)})
		if err := addSheet(f, "Staff", []string{"Name", "Role", "Salary", "Paid", "Remaining", "Last Paid"}, rows); err != nil {
			return nil, err
		}
	}

	attendanceRows := [][]interface{}{}
	for _, a := range doc.Attendance {
		attendanceRows = append(attendanceRows, []interface{}{a.Date, a.StaffMember, a.Status, a.Time, a.Notes})
	}
	if err := addSheet(f, "Attendance", []string{"Date", "Staff", "Status", "Time", "Notes"}, attendanceRows); err != nil {
		return nil, err
	}

	salesRows := [][]interface{}{}
	for _, s := range doc.Sales {
		salesRows = append(salesRows, []interface{}{s.Date, s.Label(), float64(s.Price), s.PaymentMode})
	}
	if err := addSheet(f, "Sales", []string{"Date", "Entry", "Amount", "Account"}, salesRows); err != nil {
		return nil, err
	}

	noteRows := [][]interface{}{}
	for _, n := range doc.Notes {
		noteRows = append(noteRows, []interface{}{n.Title, n.Category, n.Priority, n.Content})
	}
	if err := addSheet(f, "Notes", []string{"Title", "Category", "Priority", "Content"}, noteRows); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func addSheet(f *excelize.File, name string, headers []string, rows [][]interface{}) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	return writeSheet(f, name, headers, rows)
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]interface{}) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to set header cell: %w", err)
		}
	}
	for rowIdx, row := range rows {
		for colIdx, val := range row {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return fmt.Errorf("failed to set cell value: %w", err)
			}
		}
	}
	return nil
}
