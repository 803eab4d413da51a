// Package aggregate derives every dashboard and report figure from a ledger
// snapshot. All operations are pure over their inputs and degrade to zeros
// or empty results instead of failing; bad rows are logged and skipped.
package aggregate

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"restodash/backend/internal/classify"
	"restodash/backend/internal/dates"
	"restodash/backend/internal/domain"
)

// Engine computes derived figures. The clock is injectable because several
// operations depend on "now": time filters and the synthetic chart hour.
type Engine struct {
	logger *zap.Logger
	now    func() time.Time
}

func New(logger *zap.Logger) *Engine {
	return NewWithClock(logger, time.Now)
}

func NewWithClock(logger *zap.Logger, now func() time.Time) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger, now: now}
}

// PartitionByType splits records into expenses and sales. Every record lands
// in exactly one side.
func (e *Engine) PartitionByType(records []domain.Record) (expenses, sales []domain.Record) {
	expenses = make([]domain.Record, 0, len(records))
	sales = make([]domain.Record, 0)
	for _, r := range records {
		if classify.IsSale(r) {
			sales = append(sales, r)
		} else {
			expenses = append(expenses, r)
		}
	}
	return expenses, sales
}

// FilterByTime keeps records inside the named filter window. Records whose
// date does not normalize are excluded. Unknown filter names keep everything.
func (e *Engine) FilterByTime(records []domain.Record, filter string) []domain.Record {
	start, end := dates.FilterWindow(filter, e.now())
	if start == "" && end == "" {
		return records
	}
	return e.FilterByDateRange(records, start, end)
}

// FilterByDateRange keeps records inside the inclusive [start, end] window.
// Empty bounds are open-ended; with neither bound the input passes through.
func (e *Engine) FilterByDateRange(records []domain.Record, start, end string) []domain.Record {
	if start == "" && end == "" {
		return records
	}
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if dates.InRange(r.Date, start, end) {
			out = append(out, r)
		}
	}
	return out
}

// SumPrice totals prices. Decoding already coerced non-numeric prices to
// zero, so nothing here can fail.
func (e *Engine) SumPrice(records []domain.Record) float64 {
	var total float64
	for _, r := range records {
		total += float64(r.Price)
	}
	return total
}

// ComputeDifference returns expenses minus sales over the filter-scoped set.
// Positive means net loss. The figure depends only on the filter, never on
// which total the caller happens to be displaying.
func (e *Engine) ComputeDifference(records []domain.Record, filter string) float64 {
	filtered := e.FilterByTime(records, filter)
	expenses, sales := e.PartitionByType(filtered)
	return e.SumPrice(expenses) - e.SumPrice(sales)
}

// UniqueItemCount counts distinct display names among expense-classified
// records inside the filter window.
func (e *Engine) UniqueItemCount(records []domain.Record, filter string) int {
	expenses, _ := e.PartitionByType(e.FilterByTime(records, filter))
	seen := make(map[string]struct{}, len(expenses))
	for _, r := range expenses {
		seen[r.Label()] = struct{}{}
	}
	return len(seen)
}

// chartSlots is the fixed bucket layout: twelve 2-hour slots from midnight.
var chartSlots = func() []string {
	labels := make([]string, 12)
	for i := range labels {
		labels[i] = fmt.Sprintf("%02d:00", i*2)
	}
	return labels
}()

// BucketByTimeOfDay distributes prices across twelve 2-hour slots. The hour
// comes from the record's timestamp when present; otherwise the current
// wall-clock hour stands in, which skews back-dated entries toward the entry
// time. A derived hour more than one hour from every slot boundary drops
// the record from the chart.
func (e *Engine) BucketByTimeOfDay(records []domain.Record) []domain.ChartPoint {
	points := make([]domain.ChartPoint, len(chartSlots))
	for i, label := range chartSlots {
		points[i] = domain.ChartPoint{Time: label}
	}

	for _, r := range records {
		hour, ok := e.deriveHour(r)
		if !ok {
			continue
		}
		idx := slotFor(hour)
		if idx < 0 {
			e.logger.Debug("record outside every chart slot",
				zap.String("id", string(r.ID)),
				zap.Int("hour", hour))
			continue
		}
		points[idx].Value += float64(r.Price)
	}
	return points
}

func (e *Engine) deriveHour(r domain.Record) (int, bool) {
	if r.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, r.Timestamp); err == nil {
			return ts.Hour(), true
		}
		e.logger.Debug("unparseable record timestamp",
			zap.String("id", string(r.ID)),
			zap.String("timestamp", r.Timestamp))
	}
	return e.now().Hour(), true
}

// slotFor maps an hour to a slot index: exact boundary match first, then the
// first slot within one hour, otherwise -1.
func slotFor(hour int) int {
	if hour%2 == 0 && hour/2 < len(chartSlots) {
		return hour / 2
	}
	for i := range chartSlots {
		boundary := i * 2
		if hour-boundary == 1 || boundary-hour == 1 {
			return i
		}
	}
	return -1
}

// GroupAndOrderByDate buckets records by display date, newest group first.
// Within a group every expense precedes every sale, each side keeping its
// original insertion order. Groups whose date never normalizes sort last.
func (e *Engine) GroupAndOrderByDate(records []domain.Record) []domain.DateGroup {
	type bucket struct {
		display string
		sortKey string
		rows    []domain.Record
	}
	index := make(map[string]*bucket)
	order := make([]*bucket, 0)
	for _, r := range records {
		display := dates.ToDisplay(r.Date)
		b, ok := index[display]
		if !ok {
			b = &bucket{display: display, sortKey: dates.Normalize(r.Date)}
			index[display] = b
			order = append(order, b)
		}
		b.rows = append(b.rows, r)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].sortKey > order[j].sortKey
	})

	groups := make([]domain.DateGroup, 0, len(order))
	for _, b := range order {
		expenses, sales := e.PartitionByType(b.rows)
		groups = append(groups, domain.DateGroup{
			Date:    b.display,
			Records: append(expenses, sales...),
		})
	}
	return groups
}
