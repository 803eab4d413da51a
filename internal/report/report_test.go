package report

import (
	"bytes"
	"context"
	"testing"

	"go.uber.org/zap"

	"restodash/backend/internal/aggregate"
	"restodash/backend/internal/domain"
	"restodash/backend/internal/kvstore/memory"
	"restodash/backend/internal/records"
	"restodash/backend/internal/salary"
)

func newComposer(t *testing.T) (*Composer, *records.Repo) {
	t.Helper()
	bus := memory.NewBus()
	t.Cleanup(bus.Close)
	repo := records.New(bus.Open(), zap.NewNop())
	engine := aggregate.New(zap.NewNop())
	ledger := salary.New(repo, zap.NewNop())
	return NewComposer(repo, engine, ledger), repo
}

func seed(t *testing.T, repo *records.Repo) {
	t.Helper()
	ctx := context.Background()
	err := repo.SaveRecords(ctx, []domain.Record{
		{ID: "1", Name: "Rice", Price: 700, Date: "01/03/2024"},
		{ID: "2", Name: "Sales - Cash", Price: 1500, Date: "2024-03-02", IsSale: true},
		{ID: "3", Name: "Oil", Price: 300, Date: "2024-04-10"},
	})
	if err != nil {
		t.Fatalf("seed records: %v", err)
	}
	err = repo.SaveStaff(ctx, []domain.StaffMember{{ID: "a", Name: "Ravi", Role: "Cook", Salary: 1000}})
	if err != nil {
		t.Fatalf("seed staff: %v", err)
	}
	err = repo.SaveAttendance(ctx, []domain.AttendanceRecord{
		{ID: "at1", StaffMember: "Ravi", Date: "2024-03-01", Status: domain.AttendancePresent},
		{ID: "at2", StaffMember: "Ravi", Date: "2024-04-10", Status: domain.AttendanceAbsent},
	})
	if err != nil {
		t.Fatalf("seed attendance: %v", err)
	}
	err = repo.SaveNotes(ctx, []domain.Note{{ID: "n1", Title: "Fix fridge", Category: domain.NoteCategoryIssue, Priority: domain.NotePriorityHigh}})
	if err != nil {
		t.Fatalf("seed notes: %v", err)
	}
}

func TestComposeScopesByRange(t *testing.T) {
	composer, repo := newComposer(t)
	seed(t, repo)

	doc, err := composer.Compose(context.Background(), "2024-03-01", "2024-03-31")
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if doc.TotalExpenses != 700 || doc.TotalSales != 1500 {
		t.Fatalf("unexpected totals %v / %v", doc.TotalExpenses, doc.TotalSales)
	}
	if doc.Difference != -800 {
		t.Fatalf("expected expenses-minus-sales -800, got %v", doc.Difference)
	}
	if len(doc.Ledger) != 2 {
		t.Fatalf("expected 2 date groups, got %d", len(doc.Ledger))
	}
	if len(doc.Attendance) != 1 || doc.Attendance[0].ID != "at1" {
		t.Fatalf("attendance must respect the range: %+v", doc.Attendance)
	}
	if len(doc.Notes) != 1 {
		t.Fatalf("notes are never range-scoped: %+v", doc.Notes)
	}
}

func TestComposeUnboundedIncludesEverything(t *testing.T) {
	composer, repo := newComposer(t)
	seed(t, repo)

	doc, err := composer.Compose(context.Background(), "", "")
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if doc.TotalExpenses != 1000 {
		t.Fatalf("expected all-time expenses 1000, got %v", doc.TotalExpenses)
	}
}

func TestFilename(t *testing.T) {
	generated := "2024-03-13T14:30:00Z"

	doc := &Document{Start: "2024-03-01", End: "2024-03-31", GeneratedAt: generated}
	if got := doc.Filename("pdf"); got != "RD_Report_2024-03-01_to_2024-03-31_2024-03-13.pdf" {
		t.Fatalf("unexpected filename %q", got)
	}
	doc = &Document{GeneratedAt: generated}
	if got := doc.Filename("xlsx"); got != "RD_Report_Full_2024-03-13.xlsx" {
		t.Fatalf("unexpected filename %q", got)
	}
	doc = &Document{Start: "2024-03-05", End: "2024-03-05", GeneratedAt: generated}
	if got := doc.Filename("pdf"); got != "RD_Report_2024-03-05.pdf" {
		t.Fatalf("unexpected filename %q", got)
	}
	doc = &Document{End: "2024-03-31", GeneratedAt: generated}
	if got := doc.Filename("pdf"); got != "RD_Report_start_to_2024-03-31_2024-03-13.pdf" {
		t.Fatalf("unexpected filename %q", got)
	}
}

func TestRenderPDFProducesDocument(t *testing.T) {
	composer, repo := newComposer(t)
	seed(t, repo)
	doc, err := composer.Compose(context.Background(), "", "")
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	out, err := RenderPDF(doc)
	if err != nil {
		t.Fatalf("render pdf: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("output does not look like a PDF: %q", out[:min(8, len(out))])
	}
}

func TestRenderXLSXProducesWorkbook(t *testing.T) {
	composer, repo := newComposer(t)
	seed(t, repo)
	doc, err := composer.Compose(context.Background(), "", "")
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	out, err := RenderXLSX(doc)
	if err != nil {
		t.Fatalf("render xlsx: %v", err)
	}
	// XLSX is a zip container.
	if !bytes.HasPrefix(out, []byte("PK")) {
		t.Fatalf("output does not look like a workbook: %q", out[:min(4, len(out))])
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
