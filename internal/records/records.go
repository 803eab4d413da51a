// Package records maps the raw kvstore documents to typed collections and
// the small scalar settings that ride alongside them.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"restodash/backend/internal/domain"
	"restodash/backend/internal/kvstore"
)

var ErrNotFound = errors.New("not found")

// Document keys. The per-date sales drafts use KeySalesPrefix plus the
// canonical date, e.g. "sales_2024-03-05".
const (
	KeyRecords         = "inventoryItems"
	KeyStaff           = "staffMembers"
	KeyAttendance      = "attendanceRecords"
	KeyNotes           = "notes"
	KeySalaryCycle     = "salaryCycle"
	KeyLastPaymentMode = "lastPaymentMode"
	KeyLastPaymentDate = "lastPaymentDate"
	KeySalesPrefix     = "sales_"
)

type Repo struct {
	kv     kvstore.Store
	logger *zap.Logger
}

func New(kv kvstore.Store, logger *zap.Logger) *Repo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repo{kv: kv, logger: logger.Named("records")}
}

// getList reads a JSON array document. An absent key and an unreadable
// document both come back empty; only store failures are errors.
func getList[T any](ctx context.Context, r *Repo, key string) ([]T, error) {
	raw, err := r.kv.Get(ctx, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}
	var list []T
	if err := json.Unmarshal(raw, &list); err != nil {
		r.logger.Warn("stored document unreadable, treating as empty",
			zap.String("key", key),
			zap.Error(err))
		return []T{}, nil
	}
	if list == nil {
		list = []T{}
	}
	return list, nil
}

func setList[T any](ctx context.Context, kv kvstore.Store, key string, list []T) error {
	if list == nil {
		list = []T{}
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return kv.Set(ctx, key, raw)
}

// Records returns the unified expense/sales ledger, newest first.
func (r *Repo) Records(ctx context.Context) ([]domain.Record, error) {
	return getList[domain.Record](ctx, r, KeyRecords)
}

func (r *Repo) SaveRecords(ctx context.Context, list []domain.Record) error {
	return setList(ctx, r.kv, KeyRecords, list)
}

// PrependRecord inserts rec at the head of the ledger, keeping newest-first
// display order.
func (r *Repo) PrependRecord(ctx context.Context, rec domain.Record) error {
	list, err := r.Records(ctx)
	if err != nil {
		return err
	}
	list = append([]domain.Record{rec}, list...)
	return r.SaveRecords(ctx, list)
}

// UpdateRecord replaces the ledger row with the same id.
func (r *Repo) UpdateRecord(ctx context.Context, rec domain.Record) error {
	list, err := r.Records(ctx)
	if err != nil {
		return err
	}
	for i := range list {
		if list[i].ID == rec.ID {
			list[i] = rec
			return r.SaveRecords(ctx, list)
		}
	}
	return ErrNotFound
}

// DeleteRecord removes the ledger row with the given id.
func (r *Repo) DeleteRecord(ctx context.Context, id domain.FlexID) error {
	list, err := r.Records(ctx)
	if err != nil {
		return err
	}
	for i := range list {
		if list[i].ID == id {
			list = append(list[:i], list[i+1:]...)
			return r.SaveRecords(ctx, list)
		}
	}
	return ErrNotFound
}

func (r *Repo) Staff(ctx context.Context) ([]domain.StaffMember, error) {
	return getList[domain.StaffMember](ctx, r, KeyStaff)
}

func (r *Repo) SaveStaff(ctx context.Context, list []domain.StaffMember) error {
	return setList(ctx, r.kv, KeyStaff, list)
}

func (r *Repo) Attendance(ctx context.Context) ([]domain.AttendanceRecord, error) {
	return getList[domain.AttendanceRecord](ctx, r, KeyAttendance)
}

func (r *Repo) SaveAttendance(ctx context.Context, list []domain.AttendanceRecord) error {
	return setList(ctx, r.kv, KeyAttendance, list)
}

func (r *Repo) Notes(ctx context.Context) ([]domain.Note, error) {
	return getList[domain.Note](ctx, r, KeyNotes)
}

func (r *Repo) SaveNotes(ctx context.Context, list []domain.Note) error {
	return setList(ctx, r.kv, KeyNotes, list)
}

// SalesDraft returns the uncommitted per-account amounts for the given
// canonical date. Absent drafts come back empty.
func (r *Repo) SalesDraft(ctx context.Context, date string) ([]domain.AccountSale, error) {
	return getList[domain.AccountSale](ctx, r, KeySalesPrefix+date)
}

func (r *Repo) SaveSalesDraft(ctx context.Context, date string, draft []domain.AccountSale) error {
	return setList(ctx, r.kv, KeySalesPrefix+date, draft)
}

func (r *Repo) DeleteSalesDraft(ctx context.Context, date string) error {
	return r.kv.Delete(ctx, KeySalesPrefix+date)
}

// SalesDraftDates lists the canonical dates that still have an open draft.
func (r *Repo) SalesDraftDates(ctx context.Context) ([]string, error) {
	keys, err := r.kv.Keys(ctx, KeySalesPrefix)
	if err != nil {
		return nil, err
	}
	dates := make([]string, 0, len(keys))
	for _, k := range keys {
		dates = append(dates, strings.TrimPrefix(k, KeySalesPrefix))
	}
	return dates, nil
}

// SalaryCycle returns the current cycle counter. Cycles start at 1.
func (r *Repo) SalaryCycle(ctx context.Context) (int, error) {
	raw, err := r.kv.Get(ctx, KeySalaryCycle)
	if errors.Is(err, kvstore.ErrNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	n, convErr := strconv.Atoi(strings.Trim(strings.TrimSpace(string(raw)), `"`))
	if convErr != nil || n < 1 {
		return 1, nil
	}
	return n, nil
}

func (r *Repo) SetSalaryCycle(ctx context.Context, cycle int) error {
	return r.kv.Set(ctx, KeySalaryCycle, []byte(strconv.Itoa(cycle)))
}

func (r *Repo) LastPaymentMode(ctx context.Context) (string, error) {
	return r.getString(ctx, KeyLastPaymentMode)
}

func (r *Repo) SetLastPaymentMode(ctx context.Context, mode string) error {
	return r.setString(ctx, KeyLastPaymentMode, mode)
}

func (r *Repo) LastPaymentDate(ctx context.Context) (string, error) {
	return r.getString(ctx, KeyLastPaymentDate)
}

func (r *Repo) SetLastPaymentDate(ctx context.Context, date string) error {
	return r.setString(ctx, KeyLastPaymentDate, date)
}

func (r *Repo) getString(ctx context.Context, key string) (string, error) {
	raw, err := r.kv.Get(ctx, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s, nil
	}
	return string(raw), nil
}

func (r *Repo) setString(ctx context.Context, key string, value string) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, key, raw)
}
