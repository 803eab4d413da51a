// Package report assembles the aggregation outputs and raw collections into
// an export document and renders it as PDF or XLSX.
package report

import (
	"context"
	"time"

	"restodash/backend/internal/aggregate"
	"restodash/backend/internal/dates"
	"restodash/backend/internal/domain"
	"restodash/backend/internal/records"
	"restodash/backend/internal/salary"
)

// Document is the assembled export: the date-grouped ledger plus the
// supporting collections, optionally scoped to an inclusive date range.
type Document struct {
	Start         string
	End           string
	GeneratedAt   string
	Ledger        []domain.DateGroup
	TotalExpenses float64
	TotalSales    float64
	Difference    float64
	Salary        *domain.SalarySummary
	Attendance    []domain.AttendanceRecord
	Sales         []domain.Record
	Notes         []domain.Note
}

// Filename builds the conventional export name for the chosen format:
// "RD_Report_Full_{today}" for the unscoped report, "RD_Report_{date}" when
// the range collapses to one day, and "RD_Report_{start}_to_{end}_{today}"
// otherwise, with open bounds spelled out.
func (d *Document) Filename(format string) string {
	today := d.GeneratedAt
	if len(today) > 10 {
		today = today[:10]
	}
	if d.Start == "" && d.End == "" {
		return "RD_Report_Full_" + today + "." + format
	}
	if d.Start != "" && d.Start == d.End {
		return "RD_Report_" + d.Start + "." + format
	}
	start := d.Start
	if start == "" {
		start = "start"
	}
	end := d.End
	if end == "" {
		end = "end"
	}
	return "RD_Report_" + start + "_to_" + end + "_" + today + "." + format
}

type Composer struct {
	repo   *records.Repo
	engine *aggregate.Engine
	ledger *salary.Ledger
	now    func() time.Time
}

func NewComposer(repo *records.Repo, engine *aggregate.Engine, ledger *salary.Ledger) *Composer {
	return &Composer{repo: repo, engine: engine, ledger: ledger, now: time.Now}
}

// Compose snapshots every collection and derives the report figures. Start
// and end are inclusive canonical dates; empty bounds are open-ended.
func (c *Composer) Compose(ctx context.Context, start, end string) (*Document, error) {
	list, err := c.repo.Records(ctx)
	if err != nil {
		return nil, err
	}
	scoped := c.engine.FilterByDateRange(list, start, end)
	expenses, sales := c.engine.PartitionByType(scoped)

	salarySummary, err := c.ledger.Summary(ctx)
	if err != nil {
		return nil, err
	}

	attendance, err := c.repo.Attendance(ctx)
	if err != nil {
		return nil, err
	}
	scopedAttendance := make([]domain.AttendanceRecord, 0, len(attendance))
	for _, a := range attendance {
		if dates.InRange(a.Date, start, end) {
			scopedAttendance = append(scopedAttendance, a)
		}
	}

	notes, err := c.repo.Notes(ctx)
	if err != nil {
		return nil, err
	}

	totalExpenses := c.engine.SumPrice(expenses)
	totalSales := c.engine.SumPrice(sales)

	return &Document{
		Start:         start,
		End:           end,
		GeneratedAt:   c.now().Format(time.RFC3339),
		Ledger:        c.engine.GroupAndOrderByDate(scoped),
		TotalExpenses: totalExpenses,
		TotalSales:    totalSales,
		Difference:    totalExpenses - totalSales,
		Salary:        salarySummary,
		Attendance:    scopedAttendance,
		Sales:         sales,
		Notes:         notes,
	}, nil
}
