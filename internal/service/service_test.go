package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"restodash/backend/internal/aggregate"
	"restodash/backend/internal/cache"
	"restodash/backend/internal/domain"
	"restodash/backend/internal/kvstore/memory"
	"restodash/backend/internal/mirror"
	"restodash/backend/internal/records"
	"restodash/backend/internal/report"
	"restodash/backend/internal/salary"
)

var testNow = time.Date(2024, 3, 13, 14, 30, 0, 0, time.UTC)

func newService(t *testing.T) (*Service, *records.Repo) {
	t.Helper()
	bus := memory.NewBus()
	t.Cleanup(bus.Close)
	repo := records.New(bus.Open(), zap.NewNop())
	clock := func() time.Time { return testNow }
	engine := aggregate.NewWithClock(zap.NewNop(), clock)
	ledger := salary.NewWithClock(repo, zap.NewNop(), clock)
	composer := report.NewComposer(repo, engine, ledger)
	svc := New(repo, engine, ledger, composer, mirror.Noop{}, cache.NoopStatsCache{}, time.Second, zap.NewNop())
	svc.now = clock
	return svc, repo
}

func TestCreateRecordFillsDefaults(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	rec, err := svc.CreateRecord(ctx, domain.Record{Name: "Tomatoes", Price: 45})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("id must be generated")
	}
	if rec.PaymentMode != "Cash" {
		t.Fatalf("expected default mode Cash, got %q", rec.PaymentMode)
	}
	if rec.Date != "13/03/2024" {
		t.Fatalf("expected today's display date, got %q", rec.Date)
	}
	if rec.Timestamp == "" {
		t.Fatal("timestamp must be stamped")
	}

	list, _ := repo.Records(ctx)
	if len(list) != 1 || list[0].ID != rec.ID {
		t.Fatalf("record not persisted at head: %+v", list)
	}
}

func TestListRecordsScopedByRange(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)
	err := repo.SaveRecords(ctx, []domain.Record{
		{ID: "1", Name: "Rice", Price: 100, Date: "10/03/2024"},
		{ID: "2", Name: "Oil", Price: 200, Date: "2024-03-12"},
		{ID: "3", Name: "Gas", Price: 300, Date: "15/03/2024"},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	list, err := svc.ListRecords(ctx, "", "11/03/2024", "2024-03-14")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != "2" {
		t.Fatalf("expected only the in-range record, got %+v", list)
	}

	if _, err := svc.ListRecords(ctx, "", "garbage", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad bound, got %v", err)
	}

	groups, err := svc.GroupedRecords(ctx, "", "", "")
	if err != nil {
		t.Fatalf("grouped: %v", err)
	}
	if len(groups) != 3 || groups[0].Date != "15/03/2024" {
		t.Fatalf("expected newest date group first, got %+v", groups)
	}
}

func TestListRecordsToleratesCorruptDocument(t *testing.T) {
	ctx := context.Background()
	bus := memory.NewBus()
	t.Cleanup(bus.Close)
	store := bus.Open()
	if err := store.Set(ctx, records.KeyRecords, []byte(`{"oops": true`)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	repo := records.New(store, zap.NewNop())
	clock := func() time.Time { return testNow }
	engine := aggregate.NewWithClock(zap.NewNop(), clock)
	ledger := salary.NewWithClock(repo, zap.NewNop(), clock)
	composer := report.NewComposer(repo, engine, ledger)
	svc := New(repo, engine, ledger, composer, mirror.Noop{}, cache.NoopStatsCache{}, time.Second, zap.NewNop())

	list, err := svc.ListRecords(ctx, "", "", "")
	if err != nil {
		t.Fatalf("corrupt ledger must degrade to empty, got error: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty ledger, got %+v", list)
	}

	groups, err := svc.GroupedRecords(ctx, "", "", "")
	if err != nil || len(groups) != 0 {
		t.Fatalf("expected empty grouping, got %+v err %v", groups, err)
	}
}

func TestCreateRecordRequiresName(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.CreateRecord(context.Background(), domain.Record{Price: 10}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCommitSalesDraft(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	draft := []domain.AccountSale{
		{Account: "Cash", Amount: "1500"},
		{Account: "Paytm", Amount: ""},
		{Account: "RS Account", Amount: "abc"},
		{Account: "B.H Account", Amount: "0"},
		{Account: "MS Account", Amount: "250.50"},
	}
	if err := svc.SaveSalesDraft(ctx, "2024-03-13", draft); err != nil {
		t.Fatalf("save draft: %v", err)
	}

	created, err := svc.CommitSalesDraft(ctx, "2024-03-13")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("only positive numeric amounts commit, got %d rows", len(created))
	}
	if created[0].Name != "Sales - Cash" || !created[0].IsSale || created[0].PaymentMode != "Cash" {
		t.Fatalf("unexpected sale record %+v", created[0])
	}
	if created[0].Date != "13/03/2024" || created[0].Notes != "Sales entry for 13/03/2024" {
		t.Fatalf("sale record must carry the display date: %+v", created[0])
	}

	list, _ := repo.Records(ctx)
	if len(list) != 2 {
		t.Fatalf("expected 2 ledger rows, got %d", len(list))
	}

	// Draft is cleared after commit; a re-read yields the blank template.
	fresh, err := svc.SalesDraft(ctx, "2024-03-13")
	if err != nil {
		t.Fatalf("draft after commit: %v", err)
	}
	for _, row := range fresh {
		if row.Amount != "" {
			t.Fatalf("draft must be cleared, got %+v", fresh)
		}
	}

	// Committing again with no draft creates nothing.
	again, err := svc.CommitSalesDraft(ctx, "2024-03-13")
	if err != nil || len(again) != 0 {
		t.Fatalf("empty commit must be a no-op, got %v rows err %v", len(again), err)
	}
}

func TestSaveSalesDraftRejectsUnknownAccount(t *testing.T) {
	svc, _ := newService(t)
	err := svc.SaveSalesDraft(context.Background(), "2024-03-13", []domain.AccountSale{{Account: "Crypto", Amount: "5"}})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSalesDraftTemplateListsAllAccounts(t *testing.T) {
	svc, _ := newService(t)
	draft, err := svc.SalesDraft(context.Background(), "13/03/2024")
	if err != nil {
		t.Fatalf("draft: %v", err)
	}
	if len(draft) != len(domain.PaymentAccounts) {
		t.Fatalf("expected %d template rows, got %d", len(domain.PaymentAccounts), len(draft))
	}
	if draft[0].Account != "Paytm" || draft[len(draft)-1].Account != "Cash Exchange" {
		t.Fatalf("template must follow the fixed account order: %+v", draft)
	}
}

func TestDashboardStats(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	err := repo.SaveRecords(ctx, []domain.Record{
		{ID: "1", Name: "Rice", Price: 700, Date: "2024-03-13"},
		{ID: "2", Name: "Sales - Cash", Price: 500, Date: "13/03/2024", IsSale: true},
		{ID: "3", Name: "Old purchase", Price: 100, Date: "2024-01-05"},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	err = repo.SaveAttendance(ctx, []domain.AttendanceRecord{
		{ID: "a1", StaffMember: "Ravi", Date: "2024-03-13", Status: domain.AttendancePresent},
		{ID: "a2", StaffMember: "Meena", Date: "2024-03-12", Status: domain.AttendancePresent},
	})
	if err != nil {
		t.Fatalf("seed attendance: %v", err)
	}

	stats, err := svc.Dashboard(ctx, domain.FilterToday)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if stats.FilteredExpenses != 700 || stats.FilteredSales != 500 {
		t.Fatalf("unexpected filtered totals %+v", stats)
	}
	if stats.TotalExpenses != 800 || stats.TotalSales != 500 {
		t.Fatalf("unexpected all-time totals %+v", stats)
	}
	if stats.Difference != 200 {
		t.Fatalf("expected difference 200, got %v", stats.Difference)
	}
	if stats.InventoryItems != 3 || stats.UniqueItems != 1 {
		t.Fatalf("unexpected counts %+v", stats)
	}
	if stats.Attendance.PresentToday != 1 {
		t.Fatalf("only today's attendance counts: %+v", stats.Attendance)
	}
}

func TestChartUsesLedger(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)
	err := repo.SaveRecords(ctx, []domain.Record{
		{ID: "1", Name: "Rice", Price: 300, Date: "2024-03-13", Timestamp: "2024-03-13T10:00:00Z"},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	points, err := svc.Chart(ctx, domain.FilterToday, "")
	if err != nil {
		t.Fatalf("chart: %v", err)
	}
	if len(points) != 12 {
		t.Fatalf("expected 12 slots, got %d", len(points))
	}
	if points[5].Time != "10:00" || points[5].Value != 300 {
		t.Fatalf("unexpected slot %+v", points[5])
	}
}

func TestStaffCRUD(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	created, err := svc.CreateStaff(ctx, domain.StaffMember{Name: "Ravi", Role: "Cook", Salary: 1000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("id must be generated")
	}

	created.Phone = "12345"
	if _, err := svc.UpdateStaff(ctx, created); err != nil {
		t.Fatalf("update: %v", err)
	}
	list, _ := svc.ListStaff(ctx)
	if len(list) != 1 || list[0].Phone != "12345" {
		t.Fatalf("update not applied: %+v", list)
	}

	if err := svc.DeleteStaff(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteStaff(ctx, created.ID); !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := svc.CreateStaff(ctx, domain.StaffMember{Name: "", Role: "Cook"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestMarkAttendanceValidatesStatus(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	if _, err := svc.MarkAttendance(ctx, domain.AttendanceRecord{StaffMember: "Ravi", Status: "Napping"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	rec, err := svc.MarkAttendance(ctx, domain.AttendanceRecord{StaffMember: "Ravi", Status: domain.AttendanceLate})
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if rec.Date != "2024-03-13" || rec.Time != "14:30" {
		t.Fatalf("defaults not filled: %+v", rec)
	}
}

func TestNoteLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	note, err := svc.CreateNote(ctx, domain.Note{Title: "Fix fridge"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if note.Category != domain.NoteCategoryGeneral || note.Priority != domain.NotePriorityMedium {
		t.Fatalf("defaults not applied: %+v", note)
	}
	if note.CreatedAt == "" || note.CreatedAt != note.UpdatedAt {
		t.Fatalf("timestamps not stamped: %+v", note)
	}

	note.Content = "Call the technician"
	updated, err := svc.UpdateNote(ctx, note)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.CreatedAt != note.CreatedAt {
		t.Fatalf("update must keep createdAt: %+v", updated)
	}

	if err := svc.DeleteNote(ctx, note.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, _ := svc.ListNotes(ctx)
	if len(list) != 0 {
		t.Fatalf("note should be gone: %+v", list)
	}
}

func TestSalaryPaymentThroughService(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)
	staff, err := svc.CreateStaff(ctx, domain.StaffMember{Name: "Ravi", Role: "Cook", Salary: 1000})
	if err != nil {
		t.Fatalf("staff: %v", err)
	}

	payment, err := svc.RecordSalaryPayment(ctx, staff.ID, domain.PaymentRequest{Amount: 400, Mode: "Paytm"})
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	if payment.SalaryCycle != 1 {
		t.Fatalf("unexpected cycle tag %d", payment.SalaryCycle)
	}

	mode, date, err := svc.LastUsed(ctx)
	if err != nil {
		t.Fatalf("last used: %v", err)
	}
	if mode != "Paytm" || date == "" {
		t.Fatalf("last-used not updated: %q %q", mode, date)
	}

	cycle, err := svc.ResetSalaryCycle(ctx)
	if err != nil || cycle != 2 {
		t.Fatalf("reset: cycle %d err %v", cycle, err)
	}

	summary, err := svc.SalarySummary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.PaidThisCycle != 0 {
		t.Fatalf("paid must reset, got %v", summary.PaidThisCycle)
	}

	// The payment still counts toward all-time expenses.
	list, _ := repo.Records(ctx)
	if len(list) != 1 || float64(list[0].Price) != 400 {
		t.Fatalf("payment history lost: %+v", list)
	}
}

func TestExportReportFormats(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)
	err := repo.SaveRecords(ctx, []domain.Record{{ID: "1", Name: "Rice", Price: 100, Date: "2024-03-13"}})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	payload, name, err := svc.ExportReport(ctx, "2024-03-01", "2024-03-31", "pdf")
	if err != nil {
		t.Fatalf("pdf export: %v", err)
	}
	if len(payload) == 0 || !strings.HasPrefix(name, "RD_Report_2024-03-01_to_2024-03-31_") || !strings.HasSuffix(name, ".pdf") {
		t.Fatalf("unexpected export %q (%d bytes)", name, len(payload))
	}

	if _, _, err := svc.ExportReport(ctx, "", "", "csv"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown format, got %v", err)
	}
	if _, _, err := svc.ExportReport(ctx, "bogus", "", "pdf"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for malformed start, got %v", err)
	}
}
