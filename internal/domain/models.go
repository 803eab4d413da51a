package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexID accepts either a JSON string or a JSON number. Historical rows carry
// numeric millisecond ids while newer entry paths generate string ids.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

func (f FlexID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(f))
}

// Numeric parses the id as an integer, reporting whether it was numeric.
func (f FlexID) Numeric() (int64, bool) {
	n, err := strconv.ParseInt(string(f), 10, 64)
	return n, err == nil
}

// FlexString accepts a JSON string or number and keeps it as display text.
// Quantities like "2kg" live here; aggregations never do arithmetic on it.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(f))
}

// FlexAmount is a monetary amount that never fails to decode: numbers and
// numeric strings parse, everything else coerces to zero.
type FlexAmount float64

func (f *FlexAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = FlexAmount(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		*f = 0
		return nil
	}
	*f = FlexAmount(v)
	return nil
}

func (f FlexAmount) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(f))
}

// Record is the unified ledger entry: either an expense or a sale,
// disambiguated by the classifier. Dates arrive in either DD/MM/YYYY or
// YYYY-MM-DD depending on the entry path.
type Record struct {
	ID          FlexID     `json:"id"`
	Name        string     `json:"name,omitempty"`
	Item        string     `json:"item,omitempty"`
	Quantity    FlexString `json:"quantity,omitempty"`
	Price       FlexAmount `json:"price"`
	PaymentMode string     `json:"paymentMode,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	Date        string     `json:"date"`
	IsSale      bool       `json:"isSale,omitempty"`
	Timestamp   string     `json:"timestamp,omitempty"`
	SalaryCycle int        `json:"salaryCycle,omitempty"`
}

// Label returns the display name, falling back to the legacy item alias.
func (r Record) Label() string {
	if r.Name != "" {
		return r.Name
	}
	if r.Item != "" {
		return r.Item
	}
	if r.IsSale {
		return "Sales"
	}
	return "Unknown"
}

type StaffMember struct {
	ID           FlexID     `json:"id"`
	Name         string     `json:"name"`
	Role         string     `json:"role"`
	Phone        string     `json:"phone,omitempty"`
	Email        string     `json:"email,omitempty"`
	Address      string     `json:"address,omitempty"`
	EmployeeID   string     `json:"employeeId,omitempty"`
	StartDate    string     `json:"startDate,omitempty"`
	WorkingHours string     `json:"workingHours,omitempty"`
	Salary       FlexAmount `json:"salary"`
	PaymentType  string     `json:"paymentType,omitempty"`
	LastPaidOn   string     `json:"lastPaidOn,omitempty"`
	Notes        string     `json:"notes,omitempty"`
}

type AttendanceRecord struct {
	ID          FlexID `json:"id"`
	StaffID     FlexID `json:"staffId,omitempty"`
	StaffMember string `json:"staffMember,omitempty"`
	Date        string `json:"date"`
	Status      string `json:"status"`
	Time        string `json:"time,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

type Note struct {
	ID        FlexID `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Category  string `json:"category"`
	Priority  string `json:"priority"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	IsPinned  bool   `json:"isPinned,omitempty"`
}

// AccountSale is one row of a per-date sales draft: a payment account and the
// amount entered so far. The amount stays free text until the draft commits.
type AccountSale struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

// PaymentAccounts is the fixed set of accounts money moves through. Order
// matters: sales drafts and report breakdowns list accounts in this order.
var PaymentAccounts = []string{
	"Paytm",
	"B.H Account",
	"C.H Account",
	"RS Account",
	"RH Account",
	"MS Account",
	"SS Account",
	"Cash",
	"Cash Exchange",
}

const DefaultPaymentMode = "Cash"

// IsKnownPaymentAccount reports whether mode is one of the fixed accounts.
func IsKnownPaymentAccount(mode string) bool {
	for _, account := range PaymentAccounts {
		if account == mode {
			return true
		}
	}
	return false
}

const (
	AttendancePresent = "Present"
	AttendanceAbsent  = "Absent"
	AttendanceLate    = "Late"
	AttendanceLeave   = "Leave"
)

const (
	NoteCategoryTask     = "Task"
	NoteCategoryIssue    = "Issue"
	NoteCategoryReminder = "Reminder"
	NoteCategoryGeneral  = "General"
)

const (
	NotePriorityLow    = "Low"
	NotePriorityMedium = "Medium"
	NotePriorityHigh   = "High"
)

// Time filter values accepted by the dashboard aggregations.
const (
	FilterToday     = "Today"
	FilterThisWeek  = "This Week"
	FilterThisMonth = "This Month"
)

// SalaryPaymentPrefix cross-references salary payment records to staff
// members by naming convention: the prefix plus the member's exact name.
const SalaryPaymentPrefix = "Advance Salary Payment - "

// SalaryPaymentName builds the conventional record name for a staff member.
func SalaryPaymentName(staffName string) string {
	return SalaryPaymentPrefix + staffName
}

type LoginRequest struct {
	PIN string `json:"pin"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Subject string
}

// ChartPoint is one two-hour slot of the intra-day activity chart.
type ChartPoint struct {
	Time  string  `json:"time"`
	Value float64 `json:"value"`
}

// DashboardStats is the derived snapshot the dashboard renders. Filtered
// totals are scoped by the active time filter; all-time totals ignore it.
type DashboardStats struct {
	Filter              string            `json:"filter"`
	FilteredExpenses    float64           `json:"filtered_expenses"`
	FilteredSales       float64           `json:"filtered_sales"`
	TotalExpenses       float64           `json:"total_expenses"`
	TotalSales          float64           `json:"total_sales"`
	InventoryItems      int               `json:"inventory_items"`
	UniqueItems         int               `json:"unique_items"`
	Difference          float64           `json:"difference"`
	TotalStaff          int               `json:"total_staff"`
	TotalSalaries       float64           `json:"total_salaries"`
	SalaryPaidThisCycle float64           `json:"salary_paid_this_cycle"`
	SalaryDues          float64           `json:"salary_dues"`
	Attendance          AttendanceSummary `json:"attendance"`
	Notes               NotesSummary      `json:"notes"`
	GeneratedAt         string            `json:"generated_at"`
}

type AttendanceSummary struct {
	PresentToday int `json:"present_today"`
	AbsentToday  int `json:"absent_today"`
	LateToday    int `json:"late_today"`
	LeaveToday   int `json:"leave_today"`
}

type NotesSummary struct {
	Total     int `json:"total"`
	Tasks     int `json:"tasks"`
	Issues    int `json:"issues"`
	Reminders int `json:"reminders"`
}

type SalarySummary struct {
	Cycle         int                 `json:"cycle"`
	TotalSalaries float64             `json:"total_salaries"`
	PaidThisCycle float64             `json:"paid_this_cycle"`
	DuesRemaining float64             `json:"dues_remaining"`
	Staff         []StaffSalaryStatus `json:"staff"`
}

type StaffSalaryStatus struct {
	Staff     StaffMember `json:"staff"`
	Paid      float64     `json:"paid"`
	Remaining float64     `json:"remaining"`
}

type PaymentRequest struct {
	Amount float64 `json:"amount"`
	Mode   string  `json:"mode"`
	Date   string  `json:"date"`
}

// DateGroup is one display-date bucket of the grouped transaction list.
// Expenses sort before sales inside a group; groups sort newest first.
type DateGroup struct {
	Date    string   `json:"date"`
	Records []Record `json:"records"`
}
