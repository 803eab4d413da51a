// Package dates normalizes the two calendar formats that coexist in stored
// rows and evaluates time filters against them.
package dates

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ISO is the canonical storage/compare format, YYYY-MM-DD.
const ISO = "2006-01-02"

// Display is the human-facing format, DD/MM/YYYY.
const Display = "02/01/2006"

// Normalize converts a date in either DD/MM/YYYY or YYYY-MM-DD form to the
// canonical YYYY-MM-DD. Format is detected by separator: "/" means
// day-first, "-" means already canonical. Anything malformed normalizes to
// the empty string, which comparisons treat as out of any range.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	switch {
	case strings.Contains(raw, "/"):
		parts := strings.Split(raw, "/")
		if len(parts) != 3 {
			return ""
		}
		day, okD := atoiPart(parts[0])
		month, okM := atoiPart(parts[1])
		year, okY := atoiPart(parts[2])
		if !okD || !okM || !okY {
			return ""
		}
		if !plausible(year, month, day) {
			return ""
		}
		return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
	case strings.Contains(raw, "-"):
		parts := strings.Split(raw, "-")
		if len(parts) != 3 {
			return ""
		}
		year, okY := atoiPart(parts[0])
		month, okM := atoiPart(parts[1])
		day, okD := atoiPart(parts[2])
		if !okY || !okM || !okD {
			return ""
		}
		if !plausible(year, month, day) {
			return ""
		}
		return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
	default:
		return ""
	}
}

func atoiPart(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	return n, err == nil
}

func plausible(year, month, day int) bool {
	return year >= 1 && year <= 9999 && month >= 1 && month <= 12 && day >= 1 && day <= 31
}

// ToDisplay converts a canonical YYYY-MM-DD date to DD/MM/YYYY. Inputs that
// fail to normalize come back unchanged so bad rows stay identifiable.
func ToDisplay(raw string) string {
	iso := Normalize(raw)
	if iso == "" {
		return raw
	}
	return iso[8:10] + "/" + iso[5:7] + "/" + iso[0:4]
}

// InRange reports whether the record date falls inside [start, end]. Bounds
// are inclusive; an empty bound means unbounded on that side. Comparison is
// lexicographic over normalized dates, which orders correctly for the
// canonical form. A date that normalizes to "" is excluded whenever either
// bound is set.
func InRange(date, start, end string) bool {
	if start == "" && end == "" {
		return true
	}
	d := Normalize(date)
	if d == "" {
		return false
	}
	if s := Normalize(start); s != "" && d < s {
		return false
	}
	if e := Normalize(end); e != "" && d > e {
		return false
	}
	return true
}

// FilterWindow returns the inclusive [start, end] canonical date bounds for a
// named time filter relative to now (local time). Weeks start on Sunday.
// Unknown filter names return unbounded.
func FilterWindow(filter string, now time.Time) (start, end string) {
	end = now.Format(ISO)
	switch filter {
	case "Today":
		return end, end
	case "This Week":
		weekStart := now.AddDate(0, 0, -int(now.Weekday()))
		return weekStart.Format(ISO), end
	case "This Month":
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return monthStart.Format(ISO), end
	default:
		return "", ""
	}
}

// Today returns the current local date in canonical form.
func Today(now time.Time) string {
	return now.Format(ISO)
}

// TodayDisplay returns the current local date in display form.
func TodayDisplay(now time.Time) string {
	return now.Format(Display)
}
