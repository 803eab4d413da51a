// Package classify decides whether a ledger record counts as a sale or an
// expense. The stored rows come from several generations of entry forms, so
// classification layers an explicit flag over name-based heuristics.
package classify

import (
	"strings"

	"restodash/backend/internal/domain"
)

// IsSale classifies a record. Precedence: the explicit flag wins; otherwise
// a name containing "sale" (case-insensitive) marks a sale; otherwise the
// legacy item alias is checked the same way; everything else is an expense.
func IsSale(r domain.Record) bool {
	if r.IsSale {
		return true
	}
	if strings.Contains(strings.ToLower(r.Name), "sale") {
		return true
	}
	if strings.Contains(strings.ToLower(r.Item), "sale") {
		return true
	}
	return false
}

// IsExpense is the complement of IsSale.
func IsExpense(r domain.Record) bool {
	return !IsSale(r)
}

// IsSalaryPayment reports whether the record is a salary advance created for
// the named staff member. Matching is exact on the conventional name.
func IsSalaryPayment(r domain.Record, staffName string) bool {
	return r.Label() == domain.SalaryPaymentName(staffName)
}

// IsAnySalaryPayment reports whether the record is a salary advance for any
// staff member.
func IsAnySalaryPayment(r domain.Record) bool {
	return strings.HasPrefix(r.Label(), domain.SalaryPaymentPrefix)
}
