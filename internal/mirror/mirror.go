// Package mirror maintains a best-effort secondary copy of the primary
// collections. It is written after every primary-store mutation and read
// back only as a chart-rendering fallback, never as a source of truth.
package mirror

import (
	"context"

	"restodash/backend/internal/domain"
)

// Mirror receives reshaped snapshots of the primary collections. Sync
// failures are swallowed by the caller and logged, never surfaced.
type Mirror interface {
	SyncRecords(ctx context.Context, list []domain.Record) error
	SyncStaff(ctx context.Context, list []domain.StaffMember) error
	SyncAttendance(ctx context.Context, list []domain.AttendanceRecord) error
	SyncNotes(ctx context.Context, list []domain.Note) error
	SyncSales(ctx context.Context, list []domain.Record) error
	// ChartRecords reads back the mirrored ledger for the chart fallback.
	ChartRecords(ctx context.Context) ([]domain.Record, error)
	Close(ctx context.Context) error
}

type Noop struct{}

func (Noop) SyncRecords(context.Context, []domain.Record) error              { return nil }
func (Noop) SyncStaff(context.Context, []domain.StaffMember) error           { return nil }
func (Noop) SyncAttendance(context.Context, []domain.AttendanceRecord) error { return nil }
func (Noop) SyncNotes(context.Context, []domain.Note) error                  { return nil }
func (Noop) SyncSales(context.Context, []domain.Record) error                { return nil }
func (Noop) ChartRecords(context.Context) ([]domain.Record, error)           { return nil, nil }
func (Noop) Close(context.Context) error                                     { return nil }
