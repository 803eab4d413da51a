package classify

import (
	"testing"

	"restodash/backend/internal/domain"
)

func TestExplicitFlagWins(t *testing.T) {
	r := domain.Record{Name: "Vegetables", IsSale: true}
	if !IsSale(r) {
		t.Fatal("flagged record must classify as sale regardless of name")
	}
}

func TestNameHeuristic(t *testing.T) {
	if !IsSale(domain.Record{Name: "Sales - Cash"}) {
		t.Fatal("name containing sale should classify as sale")
	}
	if !IsSale(domain.Record{Name: "WHOLESALE ORDER"}) {
		t.Fatal("match is case-insensitive and substring-based")
	}
	if IsSale(domain.Record{Name: "Vegetables"}) {
		t.Fatal("plain expense name must not classify as sale")
	}
}

func TestItemAliasFallback(t *testing.T) {
	if !IsSale(domain.Record{Item: "Daily sales"}) {
		t.Fatal("item alias containing sale should classify as sale")
	}
	if IsSale(domain.Record{Item: "Rice bag"}) {
		t.Fatal("item alias without sale must not classify as sale")
	}
}

func TestNameTakesPrecedenceOverItem(t *testing.T) {
	// Name present but without "sale": the item alias is still consulted.
	if !IsSale(domain.Record{Name: "Counter", Item: "sales entry"}) {
		t.Fatal("item alias is checked even when name is present")
	}
}

func TestSalaryPaymentMatching(t *testing.T) {
	r := domain.Record{Name: "Advance Salary Payment - Ravi"}
	if !IsSalaryPayment(r, "Ravi") {
		t.Fatal("exact conventional name should match")
	}
	if IsSalaryPayment(r, "Rav") {
		t.Fatal("prefix of the staff name must not match")
	}
	if !IsAnySalaryPayment(r) {
		t.Fatal("conventional prefix should match any-staff check")
	}
	if IsAnySalaryPayment(domain.Record{Name: "Salary discussion notes"}) {
		t.Fatal("records without the conventional prefix must not match")
	}
}
