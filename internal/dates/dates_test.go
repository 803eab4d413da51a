package dates

import (
	"testing"
	"time"
)

func TestNormalizeDayFirst(t *testing.T) {
	got := Normalize("05/03/2024")
	if got != "2024-03-05" {
		t.Fatalf("expected 2024-03-05, got %q", got)
	}
}

func TestNormalizeAlreadyCanonical(t *testing.T) {
	got := Normalize("2024-03-05")
	if got != "2024-03-05" {
		t.Fatalf("expected 2024-03-05, got %q", got)
	}
}

func TestNormalizePadsSingleDigits(t *testing.T) {
	got := Normalize("7/1/2024")
	if got != "2024-01-07" {
		t.Fatalf("expected 2024-01-07, got %q", got)
	}
}

func TestNormalizeMalformed(t *testing.T) {
	for _, raw := range []string{"", "garbage", "05/03", "2024/03/05/01", "aa/bb/cccc", "2024-13-05", "32/01/2024"} {
		if got := Normalize(raw); got != "" {
			t.Fatalf("expected empty for %q, got %q", raw, got)
		}
	}
}

func TestToDisplayRoundTrip(t *testing.T) {
	if got := ToDisplay("2024-03-05"); got != "05/03/2024" {
		t.Fatalf("expected 05/03/2024, got %q", got)
	}
	if got := ToDisplay("05/03/2024"); got != "05/03/2024" {
		t.Fatalf("expected display form unchanged, got %q", got)
	}
}

func TestInRangeInclusiveBounds(t *testing.T) {
	if !InRange("2024-03-05", "2024-03-05", "2024-03-05") {
		t.Fatal("date equal to both bounds should be in range")
	}
	if !InRange("05/03/2024", "2024-03-01", "2024-03-31") {
		t.Fatal("display-format date should normalize before comparison")
	}
	if InRange("2024-04-01", "", "2024-03-31") {
		t.Fatal("date past end bound should be out of range")
	}
	if InRange("2024-02-28", "2024-03-01", "") {
		t.Fatal("date before start bound should be out of range")
	}
}

func TestInRangeMalformedExcludedWhenBounded(t *testing.T) {
	if InRange("garbage", "2024-03-01", "") {
		t.Fatal("malformed date must not match a bounded range")
	}
	if InRange("garbage", "", "2024-03-31") {
		t.Fatal("malformed date must not match a bounded range")
	}
	if !InRange("garbage", "", "") {
		t.Fatal("unbounded range includes everything")
	}
}

func TestFilterWindowToday(t *testing.T) {
	now := time.Date(2024, 3, 13, 15, 4, 5, 0, time.UTC)
	start, end := FilterWindow("Today", now)
	if start != "2024-03-13" || end != "2024-03-13" {
		t.Fatalf("unexpected window %q..%q", start, end)
	}
}

func TestFilterWindowThisWeekStartsSunday(t *testing.T) {
	// 2024-03-13 is a Wednesday; the week began Sunday 2024-03-10.
	now := time.Date(2024, 3, 13, 15, 4, 5, 0, time.UTC)
	start, end := FilterWindow("This Week", now)
	if start != "2024-03-10" || end != "2024-03-13" {
		t.Fatalf("unexpected window %q..%q", start, end)
	}

	// On a Sunday the window collapses to that single day.
	sunday := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	start, end = FilterWindow("This Week", sunday)
	if start != "2024-03-10" || end != "2024-03-10" {
		t.Fatalf("unexpected window %q..%q", start, end)
	}
}

func TestFilterWindowThisMonth(t *testing.T) {
	now := time.Date(2024, 3, 13, 15, 4, 5, 0, time.UTC)
	start, end := FilterWindow("This Month", now)
	if start != "2024-03-01" || end != "2024-03-13" {
		t.Fatalf("unexpected window %q..%q", start, end)
	}
}

func TestFilterWindowUnknownIsUnbounded(t *testing.T) {
	start, end := FilterWindow("All Time", time.Now())
	if start != "" || end != "" {
		t.Fatalf("unexpected window %q..%q", start, end)
	}
}
