// Package service orchestrates the typed collections, the aggregation
// engine, the salary ledger, the mirror and the stats cache behind the
// HTTP surface.
package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"restodash/backend/internal/aggregate"
	"restodash/backend/internal/cache"
	"restodash/backend/internal/dates"
	"restodash/backend/internal/domain"
	"restodash/backend/internal/kvstore"
	"restodash/backend/internal/mirror"
	"restodash/backend/internal/records"
	"restodash/backend/internal/report"
	"restodash/backend/internal/salary"
	"restodash/backend/internal/xid"
)

var ErrInvalidInput = errors.New("invalid input")

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo     *records.Repo
	engine   *aggregate.Engine
	ledger   *salary.Ledger
	composer *report.Composer
	mirror   mirror.Mirror
	stats    cache.StatsCache
	statsTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func New(repo *records.Repo, engine *aggregate.Engine, ledger *salary.Ledger, composer *report.Composer, mir mirror.Mirror, stats cache.StatsCache, statsTTL time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mir == nil {
		mir = mirror.Noop{}
	}
	if stats == nil {
		stats = cache.NoopStatsCache{}
	}
	return &Service{
		repo:     repo,
		engine:   engine,
		ledger:   ledger,
		composer: composer,
		mirror:   mir,
		stats:    stats,
		statsTTL: statsTTL,
		logger:   logger.Named("service"),
		now:      time.Now,
	}
}

// afterMutation runs the write-behind work that follows any primary-store
// change: stats invalidation plus a best-effort mirror sync. Mirror failure
// never fails the mutation.
func (s *Service) afterMutation(collections ...string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := s.stats.Invalidate(ctx); err != nil {
			s.logger.Warn("stats cache invalidation failed", zap.Error(err))
		}
		for _, coll := range collections {
			if err := s.syncMirror(ctx, coll); err != nil {
				s.logger.Warn("mirror sync failed",
					zap.String("collection", coll),
					zap.Error(err))
			}
		}
	}()
}

func (s *Service) syncMirror(ctx context.Context, collection string) error {
	switch collection {
	case records.KeyRecords:
		list, err := s.repo.Records(ctx)
		if err != nil {
			return err
		}
		if err := s.mirror.SyncRecords(ctx, list); err != nil {
			return err
		}
		_, sales := s.engine.PartitionByType(list)
		return s.mirror.SyncSales(ctx, sales)
	case records.KeyStaff:
		list, err := s.repo.Staff(ctx)
		if err != nil {
			return err
		}
		return s.mirror.SyncStaff(ctx, list)
	case records.KeyAttendance:
		list, err := s.repo.Attendance(ctx)
		if err != nil {
			return err
		}
		return s.mirror.SyncAttendance(ctx, list)
	case records.KeyNotes:
		list, err := s.repo.Notes(ctx)
		if err != nil {
			return err
		}
		return s.mirror.SyncNotes(ctx, list)
	default:
		return nil
	}
}

// ResyncMirror pushes every collection to the mirror. Used by the nightly
// schedule to heal missed write-behind syncs.
func (s *Service) ResyncMirror(ctx context.Context) error {
	var firstErr error
	for _, coll := range []string{records.KeyRecords, records.KeyStaff, records.KeyAttendance, records.KeyNotes} {
		if err := s.syncMirror(ctx, coll); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// WatchStore consumes the cross-client change feed and drops cached stats
// whenever another writer touches the store. Returns when ctx ends.
func (s *Service) WatchStore(ctx context.Context, feed <-chan kvstore.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-feed:
			if !ok {
				return
			}
			s.logger.Debug("store changed elsewhere", zap.String("key", ev.Key))
			if err := s.stats.Invalidate(ctx); err != nil {
				s.logger.Warn("stats cache invalidation failed", zap.Error(err))
			}
		}
	}
}

// --- Ledger records ---

func (s *Service) ListRecords(ctx context.Context, filter, start, end string) ([]domain.Record, error) {
	return s.scopedRecords(ctx, filter, start, end)
}

// GroupedRecords returns the display grouping: newest date first, expenses
// before sales inside each date.
func (s *Service) GroupedRecords(ctx context.Context, filter, start, end string) ([]domain.DateGroup, error) {
	list, err := s.scopedRecords(ctx, filter, start, end)
	if err != nil {
		return nil, err
	}
	return s.engine.GroupAndOrderByDate(list), nil
}

// scopedRecords narrows the ledger by a named time filter and/or an inclusive
// date range. Bounds must normalize to real dates when given.
func (s *Service) scopedRecords(ctx context.Context, filter, start, end string) ([]domain.Record, error) {
	if start != "" && dates.Normalize(start) == "" {
		return nil, ErrInvalidInput
	}
	if end != "" && dates.Normalize(end) == "" {
		return nil, ErrInvalidInput
	}
	list, err := s.repo.Records(ctx)
	if err != nil {
		return nil, err
	}
	if filter != "" {
		list = s.engine.FilterByTime(list, filter)
	}
	if start != "" || end != "" {
		list = s.engine.FilterByDateRange(list, dates.Normalize(start), dates.Normalize(end))
	}
	return list, nil
}

func (s *Service) CreateRecord(ctx context.Context, rec domain.Record) (domain.Record, error) {
	rec.Name = strings.TrimSpace(rec.Name)
	rec.Item = strings.TrimSpace(rec.Item)
	if rec.Name == "" && rec.Item == "" {
		return domain.Record{}, ErrInvalidInput
	}

	now := s.now()
	if rec.ID == "" {
		rec.ID = domain.FlexID(xid.Millis(now))
	}
	if rec.PaymentMode == "" {
		rec.PaymentMode = domain.DefaultPaymentMode
	}
	if rec.Date == "" {
		rec.Date = dates.TodayDisplay(now)
	}
	if rec.Timestamp == "" {
		rec.Timestamp = now.Format(time.RFC3339)
	}

	if err := s.repo.PrependRecord(ctx, rec); err != nil {
		return domain.Record{}, err
	}
	s.afterMutation(records.KeyRecords)
	return rec, nil
}

func (s *Service) UpdateRecord(ctx context.Context, rec domain.Record) (domain.Record, error) {
	if rec.ID == "" {
		return domain.Record{}, ErrInvalidInput
	}
	if err := s.repo.UpdateRecord(ctx, rec); err != nil {
		return domain.Record{}, err
	}
	s.afterMutation(records.KeyRecords)
	return rec, nil
}

func (s *Service) DeleteRecord(ctx context.Context, id domain.FlexID) error {
	if id == "" {
		return ErrInvalidInput
	}
	if err := s.repo.DeleteRecord(ctx, id); err != nil {
		return err
	}
	s.afterMutation(records.KeyRecords)
	return nil
}

// --- Dashboard ---

// Dashboard derives the stats snapshot for a time filter, memoized through
// the stats cache. A failing section degrades to zeros instead of failing
// the snapshot.
func (s *Service) Dashboard(ctx context.Context, filter string) (domain.DashboardStats, error) {
	if filter == "" {
		filter = domain.FilterToday
	}

	if cached, ok, err := s.stats.Get(ctx, filter); err != nil {
		s.logger.Warn("stats cache read failed", zap.Error(err))
	} else if ok {
		return *cached, nil
	}

	list, err := s.repo.Records(ctx)
	if err != nil {
		s.logger.Error("dashboard ledger read failed", zap.Error(err))
		list = nil
	}

	filtered := s.engine.FilterByTime(list, filter)
	filteredExpenses, filteredSales := s.engine.PartitionByType(filtered)
	allExpenses, allSales := s.engine.PartitionByType(list)

	stats := domain.DashboardStats{
		Filter:           filter,
		FilteredExpenses: s.engine.SumPrice(filteredExpenses),
		FilteredSales:    s.engine.SumPrice(filteredSales),
		TotalExpenses:    s.engine.SumPrice(allExpenses),
		TotalSales:       s.engine.SumPrice(allSales),
		InventoryItems:   len(list),
		UniqueItems:      s.engine.UniqueItemCount(list, filter),
		Difference:       s.engine.ComputeDifference(list, filter),
		GeneratedAt:      s.now().Format(time.RFC3339),
	}

	if summary, err := s.ledger.Summary(ctx); err != nil {
		s.logger.Warn("dashboard salary summary failed", zap.Error(err))
	} else {
		stats.TotalStaff = len(summary.Staff)
		stats.TotalSalaries = summary.TotalSalaries
		stats.SalaryPaidThisCycle = summary.PaidThisCycle
		stats.SalaryDues = summary.DuesRemaining
	}

	today := dates.Today(s.now())
	if attendance, err := s.repo.Attendance(ctx); err != nil {
		s.logger.Warn("dashboard attendance read failed", zap.Error(err))
	} else {
		for _, a := range attendance {
			if dates.Normalize(a.Date) != today {
				continue
			}
			switch a.Status {
			case domain.AttendancePresent:
				stats.Attendance.PresentToday++
			case domain.AttendanceAbsent:
				stats.Attendance.AbsentToday++
			case domain.AttendanceLate:
				stats.Attendance.LateToday++
			case domain.AttendanceLeave:
				stats.Attendance.LeaveToday++
			}
		}
	}

	if notes, err := s.repo.Notes(ctx); err != nil {
		s.logger.Warn("dashboard notes read failed", zap.Error(err))
	} else {
		stats.Notes.Total = len(notes)
		for _, n := range notes {
			switch n.Category {
			case domain.NoteCategoryTask:
				stats.Notes.Tasks++
			case domain.NoteCategoryIssue:
				stats.Notes.Issues++
			case domain.NoteCategoryReminder:
				stats.Notes.Reminders++
			}
		}
	}

	if err := s.stats.Set(ctx, filter, &stats, s.statsTTL); err != nil {
		s.logger.Warn("stats cache write failed", zap.Error(err))
	}
	return stats, nil
}

// Chart buckets the filter-scoped ledger into the intra-day slots for the
// requested tab (expenses unless "sales"). If the primary store is unreadable
// the mirrored copy stands in.
func (s *Service) Chart(ctx context.Context, filter, tab string) ([]domain.ChartPoint, error) {
	list, err := s.repo.Records(ctx)
	if err != nil {
		s.logger.Warn("chart falling back to mirror", zap.Error(err))
		list, err = s.mirror.ChartRecords(ctx)
		if err != nil {
			s.logger.Error("chart mirror fallback failed", zap.Error(err))
			list = nil
		}
	}
	expenses, sales := s.engine.PartitionByType(s.engine.FilterByTime(list, filter))
	if tab == "sales" {
		return s.engine.BucketByTimeOfDay(sales), nil
	}
	return s.engine.BucketByTimeOfDay(expenses), nil
}

// --- Sales drafts ---

func (s *Service) SalesDraft(ctx context.Context, date string) ([]domain.AccountSale, error) {
	iso := dates.Normalize(date)
	if iso == "" {
		return nil, ErrInvalidInput
	}
	draft, err := s.repo.SalesDraft(ctx, iso)
	if err != nil {
		return nil, err
	}
	if len(draft) == 0 {
		// Fresh drafts list every account with a blank amount.
		draft = make([]domain.AccountSale, 0, len(domain.PaymentAccounts))
		for _, account := range domain.PaymentAccounts {
			draft = append(draft, domain.AccountSale{Account: account})
		}
	}
	return draft, nil
}

func (s *Service) SaveSalesDraft(ctx context.Context, date string, draft []domain.AccountSale) error {
	iso := dates.Normalize(date)
	if iso == "" {
		return ErrInvalidInput
	}
	for _, row := range draft {
		if !domain.IsKnownPaymentAccount(row.Account) {
			return ErrInvalidInput
		}
	}
	return s.repo.SaveSalesDraft(ctx, iso, draft)
}

// CommitSalesDraft turns every positive draft amount into a sale record,
// prepends them to the ledger and clears the draft key. Blank and
// non-positive rows are skipped.
func (s *Service) CommitSalesDraft(ctx context.Context, date string) ([]domain.Record, error) {
	iso := dates.Normalize(date)
	if iso == "" {
		return nil, ErrInvalidInput
	}
	draft, err := s.repo.SalesDraft(ctx, iso)
	if err != nil {
		return nil, err
	}

	now := s.now()
	display := dates.ToDisplay(iso)
	created := make([]domain.Record, 0, len(draft))
	for _, row := range draft {
		amount, err := strconv.ParseFloat(strings.TrimSpace(row.Amount), 64)
		if err != nil || amount <= 0 {
			continue
		}
		created = append(created, domain.Record{
			ID:          domain.FlexID("sale_" + xid.Millis(now)),
			Name:        "Sales - " + row.Account,
			Quantity:    "1",
			Price:       domain.FlexAmount(amount),
			PaymentMode: row.Account,
			Notes:       "Sales entry for " + display,
			Date:        display,
			IsSale:      true,
			Timestamp:   now.Format(time.RFC3339),
		})
		now = now.Add(time.Millisecond)
	}

	if len(created) > 0 {
		list, err := s.repo.Records(ctx)
		if err != nil {
			return nil, err
		}
		list = append(append([]domain.Record{}, created...), list...)
		if err := s.repo.SaveRecords(ctx, list); err != nil {
			return nil, err
		}
	}
	if err := s.repo.DeleteSalesDraft(ctx, iso); err != nil {
		return nil, err
	}
	s.afterMutation(records.KeyRecords)
	return created, nil
}

// --- Staff ---

func (s *Service) ListStaff(ctx context.Context) ([]domain.StaffMember, error) {
	return s.repo.Staff(ctx)
}

func (s *Service) CreateStaff(ctx context.Context, staff domain.StaffMember) (domain.StaffMember, error) {
	staff.Name = strings.TrimSpace(staff.Name)
	staff.Role = strings.TrimSpace(staff.Role)
	if staff.Name == "" || staff.Role == "" || staff.Salary < 0 {
		return domain.StaffMember{}, ErrInvalidInput
	}
	if staff.ID == "" {
		staff.ID = domain.FlexID(xid.New("staff"))
	}

	list, err := s.repo.Staff(ctx)
	if err != nil {
		return domain.StaffMember{}, err
	}
	list = append(list, staff)
	if err := s.repo.SaveStaff(ctx, list); err != nil {
		return domain.StaffMember{}, err
	}
	s.afterMutation(records.KeyStaff)
	return staff, nil
}

func (s *Service) UpdateStaff(ctx context.Context, staff domain.StaffMember) (domain.StaffMember, error) {
	if staff.ID == "" {
		return domain.StaffMember{}, ErrInvalidInput
	}
	list, err := s.repo.Staff(ctx)
	if err != nil {
		return domain.StaffMember{}, err
	}
	for i := range list {
		if list[i].ID == staff.ID {
			list[i] = staff
			if err := s.repo.SaveStaff(ctx, list); err != nil {
				return domain.StaffMember{}, err
			}
			s.afterMutation(records.KeyStaff)
			return staff, nil
		}
	}
	return domain.StaffMember{}, records.ErrNotFound
}

func (s *Service) DeleteStaff(ctx context.Context, id domain.FlexID) error {
	list, err := s.repo.Staff(ctx)
	if err != nil {
		return err
	}
	for i := range list {
		if list[i].ID == id {
			list = append(list[:i], list[i+1:]...)
			if err := s.repo.SaveStaff(ctx, list); err != nil {
				return err
			}
			s.afterMutation(records.KeyStaff)
			return nil
		}
	}
	return records.ErrNotFound
}

// --- Attendance ---

func (s *Service) ListAttendance(ctx context.Context) ([]domain.AttendanceRecord, error) {
	return s.repo.Attendance(ctx)
}

func (s *Service) MarkAttendance(ctx context.Context, rec domain.AttendanceRecord) (domain.AttendanceRecord, error) {
	rec.StaffMember = strings.TrimSpace(rec.StaffMember)
	if rec.StaffMember == "" && rec.StaffID == "" {
		return domain.AttendanceRecord{}, ErrInvalidInput
	}
	switch rec.Status {
	case domain.AttendancePresent, domain.AttendanceAbsent, domain.AttendanceLate, domain.AttendanceLeave:
	default:
		return domain.AttendanceRecord{}, ErrInvalidInput
	}
	now := s.now()
	if rec.ID == "" {
		rec.ID = domain.FlexID(xid.New("att"))
	}
	if rec.Date == "" {
		rec.Date = dates.Today(now)
	}
	if rec.Time == "" {
		rec.Time = now.Format("15:04")
	}

	list, err := s.repo.Attendance(ctx)
	if err != nil {
		return domain.AttendanceRecord{}, err
	}
	list = append(list, rec)
	if err := s.repo.SaveAttendance(ctx, list); err != nil {
		return domain.AttendanceRecord{}, err
	}
	s.afterMutation(records.KeyAttendance)
	return rec, nil
}

func (s *Service) DeleteAttendance(ctx context.Context, id domain.FlexID) error {
	list, err := s.repo.Attendance(ctx)
	if err != nil {
		return err
	}
	for i := range list {
		if list[i].ID == id {
			list = append(list[:i], list[i+1:]...)
			if err := s.repo.SaveAttendance(ctx, list); err != nil {
				return err
			}
			s.afterMutation(records.KeyAttendance)
			return nil
		}
	}
	return records.ErrNotFound
}

// --- Notes ---

func (s *Service) ListNotes(ctx context.Context) ([]domain.Note, error) {
	return s.repo.Notes(ctx)
}

func (s *Service) CreateNote(ctx context.Context, note domain.Note) (domain.Note, error) {
	note.Title = strings.TrimSpace(note.Title)
	if note.Title == "" {
		return domain.Note{}, ErrInvalidInput
	}
	if note.Category == "" {
		note.Category = domain.NoteCategoryGeneral
	}
	if note.Priority == "" {
		note.Priority = domain.NotePriorityMedium
	}
	now := s.now().Format(time.RFC3339)
	if note.ID == "" {
		note.ID = domain.FlexID(xid.New("note"))
	}
	note.CreatedAt = now
	note.UpdatedAt = now

	list, err := s.repo.Notes(ctx)
	if err != nil {
		return domain.Note{}, err
	}
	list = append([]domain.Note{note}, list...)
	if err := s.repo.SaveNotes(ctx, list); err != nil {
		return domain.Note{}, err
	}
	s.afterMutation(records.KeyNotes)
	return note, nil
}

func (s *Service) UpdateNote(ctx context.Context, note domain.Note) (domain.Note, error) {
	if note.ID == "" {
		return domain.Note{}, ErrInvalidInput
	}
	list, err := s.repo.Notes(ctx)
	if err != nil {
		return domain.Note{}, err
	}
	for i := range list {
		if list[i].ID == note.ID {
			note.CreatedAt = list[i].CreatedAt
			note.UpdatedAt = s.now().Format(time.RFC3339)
			list[i] = note
			if err := s.repo.SaveNotes(ctx, list); err != nil {
				return domain.Note{}, err
			}
			s.afterMutation(records.KeyNotes)
			return note, nil
		}
	}
	return domain.Note{}, records.ErrNotFound
}

func (s *Service) DeleteNote(ctx context.Context, id domain.FlexID) error {
	list, err := s.repo.Notes(ctx)
	if err != nil {
		return err
	}
	for i := range list {
		if list[i].ID == id {
			list = append(list[:i], list[i+1:]...)
			if err := s.repo.SaveNotes(ctx, list); err != nil {
				return err
			}
			s.afterMutation(records.KeyNotes)
			return nil
		}
	}
	return records.ErrNotFound
}

// --- Salary ---

func (s *Service) RecordSalaryPayment(ctx context.Context, staffID domain.FlexID, req domain.PaymentRequest) (domain.Record, error) {
	payment, err := s.ledger.RecordPayment(ctx, staffID, req)
	if err != nil {
		return domain.Record{}, err
	}
	s.afterMutation(records.KeyRecords, records.KeyStaff)
	return *payment, nil
}

func (s *Service) ResetSalaryCycle(ctx context.Context) (int, error) {
	cycle, err := s.ledger.ResetCycle(ctx)
	if err != nil {
		return 0, err
	}
	s.afterMutation()
	return cycle, nil
}

func (s *Service) SalarySummary(ctx context.Context) (domain.SalarySummary, error) {
	summary, err := s.ledger.Summary(ctx)
	if err != nil {
		return domain.SalarySummary{}, err
	}
	return *summary, nil
}

// --- Reports ---

// ExportReport renders the scoped report in the requested format and returns
// the payload plus its conventional filename.
func (s *Service) ExportReport(ctx context.Context, start, end, format string) ([]byte, string, error) {
	if start != "" && dates.Normalize(start) == "" {
		return nil, "", ErrInvalidInput
	}
	if end != "" && dates.Normalize(end) == "" {
		return nil, "", ErrInvalidInput
	}
	doc, err := s.composer.Compose(ctx, dates.Normalize(start), dates.Normalize(end))
	if err != nil {
		return nil, "", err
	}
	switch format {
	case "pdf", "":
		payload, err := report.RenderPDF(doc)
		if err != nil {
			return nil, "", err
		}
		return payload, doc.Filename("pdf"), nil
	case "xlsx":
		payload, err := report.RenderXLSX(doc)
		if err != nil {
			return nil, "", err
		}
		return payload, doc.Filename("xlsx"), nil
	default:
		return nil, "", ErrInvalidInput
	}
}

// LastUsed returns the remembered payment form defaults.
func (s *Service) LastUsed(ctx context.Context) (mode string, date string, err error) {
	mode, err = s.repo.LastPaymentMode(ctx)
	if err != nil {
		return "", "", err
	}
	date, err = s.repo.LastPaymentDate(ctx)
	if err != nil {
		return "", "", err
	}
	if mode == "" {
		mode = domain.DefaultPaymentMode
	}
	return mode, date, nil
}
