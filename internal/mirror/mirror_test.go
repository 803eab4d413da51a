package mirror

import (
	"testing"
	"time"

	"restodash/backend/internal/domain"
)

func TestReshapeForcesNumericShape(t *testing.T) {
	now := time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)
	m := &MongoMirror{now: func() time.Time { return now }}

	got := m.reshape(domain.Record{
		ID:       "sale_1721900001000",
		Item:     "Tomatoes",
		Quantity: "2kg",
		Price:    45.5,
		Date:     "13/03/2024",
	})
	if got.ID != now.UnixMilli() {
		t.Fatalf("non-numeric id must fall back to millis, got %d", got.ID)
	}
	if got.Name != "Tomatoes" {
		t.Fatalf("name must fall back to item alias, got %q", got.Name)
	}
	if got.Quantity != 1 {
		t.Fatalf("non-numeric quantity must coerce to 1, got %v", got.Quantity)
	}
	if got.PaymentMode != "Cash" {
		t.Fatalf("missing payment mode must default to Cash, got %q", got.PaymentMode)
	}
	if got.Timestamp != now.Format(time.RFC3339) {
		t.Fatalf("missing timestamp must be stamped, got %q", got.Timestamp)
	}
	if got.IsSale {
		t.Fatal("plain expense must mirror as expense")
	}
}

func TestReshapeKeepsNumericFields(t *testing.T) {
	m := &MongoMirror{now: time.Now}
	got := m.reshape(domain.Record{
		ID:          "1721900000000",
		Name:        "Sales - Cash",
		Quantity:    "3",
		Price:       1200,
		PaymentMode: "Paytm",
		Timestamp:   "2024-03-13T09:00:00Z",
	})
	if got.ID != 1721900000000 {
		t.Fatalf("numeric id must pass through, got %d", got.ID)
	}
	if got.Quantity != 3 {
		t.Fatalf("numeric quantity must pass through, got %v", got.Quantity)
	}
	if !got.IsSale {
		t.Fatal("classifier must resolve sale-ness for the mirror")
	}
}
