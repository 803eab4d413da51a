// Package salary tracks staff salary obligations against advance payments
// recorded in the shared ledger. Payments are tagged with a generation
// counter so "paid this period" can reset without deleting history.
package salary

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"restodash/backend/internal/classify"
	"restodash/backend/internal/dates"
	"restodash/backend/internal/domain"
	"restodash/backend/internal/records"
	"restodash/backend/internal/xid"
)

var (
	ErrStaffNotFound    = errors.New("staff member not found")
	ErrInvalidAmount    = errors.New("payment amount must be positive")
	ErrFullyPaid        = errors.New("salary already fully paid this cycle")
	ErrExceedsRemaining = errors.New("payment exceeds remaining salary")
)

type Ledger struct {
	repo   *records.Repo
	logger *zap.Logger
	now    func() time.Time
}

func New(repo *records.Repo, logger *zap.Logger) *Ledger {
	return NewWithClock(repo, logger, time.Now)
}

func NewWithClock(repo *records.Repo, logger *zap.Logger, now func() time.Time) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{repo: repo, logger: logger, now: now}
}

// PaidThisCycle sums payments recorded for the staff member under the
// current cycle. Prior-cycle payments stay in the ledger but never count.
func (l *Ledger) PaidThisCycle(ctx context.Context, staff domain.StaffMember) (float64, error) {
	cycle, err := l.repo.SalaryCycle(ctx)
	if err != nil {
		return 0, err
	}
	list, err := l.repo.Records(ctx)
	if err != nil {
		return 0, err
	}
	return paidInCycle(list, staff.Name, cycle), nil
}

func paidInCycle(list []domain.Record, staffName string, cycle int) float64 {
	var paid float64
	for _, r := range list {
		if r.SalaryCycle == cycle && classify.IsSalaryPayment(r, staffName) {
			paid += float64(r.Price)
		}
	}
	return paid
}

// RecordPayment validates the advance against the staff member's remaining
// salary for the current cycle and, on success, prepends a tagged ledger row
// and stamps the member's lastPaidOn. The payment mode and date become the
// new last-used form defaults.
func (l *Ledger) RecordPayment(ctx context.Context, staffID domain.FlexID, req domain.PaymentRequest) (*domain.Record, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	staffList, err := l.repo.Staff(ctx)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i := range staffList {
		if staffList[i].ID == staffID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrStaffNotFound
	}
	staff := staffList[idx]

	cycle, err := l.repo.SalaryCycle(ctx)
	if err != nil {
		return nil, err
	}
	list, err := l.repo.Records(ctx)
	if err != nil {
		return nil, err
	}
	remaining := float64(staff.Salary) - paidInCycle(list, staff.Name, cycle)
	if remaining <= 0 {
		return nil, ErrFullyPaid
	}
	if req.Amount > remaining {
		return nil, ErrExceedsRemaining
	}

	now := l.now()
	mode := req.Mode
	if mode == "" {
		mode = domain.DefaultPaymentMode
	}
	date := req.Date
	if date == "" {
		date = dates.TodayDisplay(now)
	}

	payment := domain.Record{
		ID:          domain.FlexID(xid.New("pay")),
		Name:        domain.SalaryPaymentName(staff.Name),
		Quantity:    "1",
		Price:       domain.FlexAmount(req.Amount),
		PaymentMode: mode,
		Notes:       "Advance salary payment to " + staff.Name + " (Role: " + staff.Role + ")",
		Date:        date,
		Timestamp:   now.Format(time.RFC3339),
		SalaryCycle: cycle,
	}
	if err := l.repo.PrependRecord(ctx, payment); err != nil {
		return nil, err
	}

	staffList[idx].LastPaidOn = date
	if err := l.repo.SaveStaff(ctx, staffList); err != nil {
		return nil, err
	}

	// Last-used defaults are a convenience; their failure is not the
	// payment's failure.
	if err := l.repo.SetLastPaymentMode(ctx, mode); err != nil {
		l.logger.Warn("persist last payment mode", zap.Error(err))
	}
	if err := l.repo.SetLastPaymentDate(ctx, date); err != nil {
		l.logger.Warn("persist last payment date", zap.Error(err))
	}

	return &payment, nil
}

// ResetCycle bumps the generation counter. Stored payments keep their
// original tag, so every member's paid-this-cycle figure drops to zero
// while history and expense totals stay intact.
func (l *Ledger) ResetCycle(ctx context.Context) (int, error) {
	cycle, err := l.repo.SalaryCycle(ctx)
	if err != nil {
		return 0, err
	}
	next := cycle + 1
	if err := l.repo.SetSalaryCycle(ctx, next); err != nil {
		return 0, err
	}
	l.logger.Info("salary cycle reset", zap.Int("cycle", next))
	return next, nil
}

// Summary reports each member's standing in the current cycle plus the
// roster-wide totals.
func (l *Ledger) Summary(ctx context.Context) (*domain.SalarySummary, error) {
	cycle, err := l.repo.SalaryCycle(ctx)
	if err != nil {
		return nil, err
	}
	staffList, err := l.repo.Staff(ctx)
	if err != nil {
		return nil, err
	}
	list, err := l.repo.Records(ctx)
	if err != nil {
		return nil, err
	}

	summary := &domain.SalarySummary{Cycle: cycle, Staff: make([]domain.StaffSalaryStatus, 0, len(staffList))}
	for _, staff := range staffList {
		paid := paidInCycle(list, staff.Name, cycle)
		remaining := float64(staff.Salary) - paid
		if remaining < 0 {
			remaining = 0
		}
		summary.TotalSalaries += float64(staff.Salary)
		summary.PaidThisCycle += paid
		summary.DuesRemaining += remaining
		summary.Staff = append(summary.Staff, domain.StaffSalaryStatus{
			Staff:     staff,
			Paid:      paid,
			Remaining: remaining,
		})
	}
	return summary, nil
}
