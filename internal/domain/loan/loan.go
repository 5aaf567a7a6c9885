package loan

import (
	"fmt"
	"math"
	"time"

	"lending-engine/internal/pkg/apperrors"
)

// ContractNumberBase is the contract number assigned to the very first loan.
// Subsequent contracts are numbered max(existing)+1 by the repository inside
// the insert transaction.
const ContractNumberBase = 1000

type Money = float64

type Frequency string

const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
)

type InterestMethod string

const (
	MethodFlat      InterestMethod = "FLAT"
	MethodAmortized InterestMethod = "AMORTIZED"
)

// ParseFrequency maps a wire value to a Frequency, or "" when unknown.
func ParseFrequency(s string) Frequency {
	switch Frequency(s) {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return Frequency(s)
	default:
		return ""
	}
}

// ParseInterestMethod maps a wire value to an InterestMethod, or "" when unknown.
func ParseInterestMethod(s string) InterestMethod {
	switch InterestMethod(s) {
	case MethodFlat, MethodAmortized:
		return InterestMethod(s)
	default:
		return ""
	}
}

type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "PENDING"
	InstallmentPaid    InstallmentStatus = "PAID"
)

type LoanStatus string

const (
	StatusActive  LoanStatus = "ACTIVE"
	StatusOverdue LoanStatus = "OVERDUE"
	StatusSettled LoanStatus = "SETTLED"
)

// Terms is the contract input: everything needed to compute a schedule.
// InterestRate is a percentage (5 means 5%). For FLAT it is a single charge
// over the whole term; for AMORTIZED it applies once per installment period.
type Terms struct {
	Principal    Money
	InterestRate Money
	Installments int
	Frequency    Frequency
	Method       InterestMethod
	StartDate    time.Time
}

type ScheduleEntry struct {
	DueDate time.Time
	Value   Money
}

type Schedule struct {
	TotalToReturn    Money
	InstallmentValue Money
	TotalInterest    Money
	Entries          []ScheduleEntry
}

// PaymentRecord is one payment applied to an installment, full or partial.
type PaymentRecord struct {
	Amount Money
	PaidAt time.Time
}

type Installment struct {
	ID      int64
	LoanID  int64
	Number  int
	DueDate time.Time

	// Value is fixed at schedule generation time and never mutated.
	Value Money

	Status InstallmentStatus

	// PaidAt is set when the installment transitions to PAID.
	PaidAt *time.Time

	// PaidAmount accumulates across partial payments; once PAID it is frozen.
	PaidAmount Money

	// PenaltyPaid is the penalty snapshot taken at the moment of settlement.
	PenaltyPaid Money

	Payments []PaymentRecord

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Loan struct {
	ID               int64
	ContractNumber   int64
	CustomerID       int64
	Principal        Money
	InterestRate     Money
	InstallmentCount int
	Frequency        Frequency
	Method           InterestMethod
	TotalToReturn    Money
	InstallmentValue Money
	StartDate        time.Time
	Notes            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Installments     []Installment
}

// ComputeSchedule turns contract terms into an installment schedule plus
// totals. It refuses degenerate input instead of emitting NaN or Inf.
func ComputeSchedule(t Terms) (*Schedule, error) {
	if t.Principal <= 0 {
		return nil, fmt.Errorf("%w: principal must be greater than zero", apperrors.ErrInvalidArgument)
	}
	if t.InterestRate < 0 {
		return nil, fmt.Errorf("%w: interest rate cannot be negative", apperrors.ErrInvalidArgument)
	}
	if t.Installments < 1 {
		return nil, fmt.Errorf("%w: installment count must be at least 1", apperrors.ErrInvalidArgument)
	}
	if t.StartDate.IsZero() {
		return nil, fmt.Errorf("%w: start date is missing or unparseable", apperrors.ErrInvalidArgument)
	}
	switch t.Frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
	default:
		return nil, fmt.Errorf("%w: unknown frequency %q", apperrors.ErrInvalidArgument, t.Frequency)
	}

	n := t.Installments
	var total, value Money

	switch t.Method {
	case MethodFlat:
		// The rate is a flat charge over the whole term, not per period.
		total = t.Principal * (1 + t.InterestRate/100)
		value = total / float64(n)
	case MethodAmortized:
		i := t.InterestRate / 100
		if i == 0 {
			value = t.Principal / float64(n)
			total = t.Principal
		} else {
			factor := math.Pow(1+i, float64(n))
			value = t.Principal * i * factor / (factor - 1)
			total = value * float64(n)
		}
	default:
		return nil, fmt.Errorf("%w: unknown interest method %q", apperrors.ErrInvalidArgument, t.Method)
	}

	total = roundTo(total, 2)
	value = roundTo(value, 2)

	entries := make([]ScheduleEntry, 0, n)
	dueDate := t.StartDate
	accumulated := 0.0
	for k := 1; k <= n; k++ {
		dueDate = advanceDueDate(dueDate, t.Frequency)

		entryValue := value
		if k == n {
			// Absorb rounding drift into the final installment.
			entryValue = roundTo(total-accumulated, 2)
			if entryValue < 0 {
				entryValue = 0
			}
		}

		entries = append(entries, ScheduleEntry{DueDate: dueDate, Value: entryValue})
		accumulated += entryValue
	}

	return &Schedule{
		TotalToReturn:    total,
		InstallmentValue: value,
		TotalInterest:    roundTo(total-t.Principal, 2),
		Entries:          entries,
	}, nil
}

// NewLoan builds a Loan with its full installment schedule materialized,
// every installment PENDING. The contract number is assigned later, at save
// time, by the repository.
func NewLoan(customerID int64, t Terms, notes string) (*Loan, error) {
	if customerID <= 0 {
		return nil, fmt.Errorf("%w: customerID must be positive", apperrors.ErrInvalidArgument)
	}

	schedule, err := ComputeSchedule(t)
	if err != nil {
		return nil, err
	}

	l := &Loan{
		CustomerID:       customerID,
		Principal:        t.Principal,
		InterestRate:     t.InterestRate,
		InstallmentCount: t.Installments,
		Frequency:        t.Frequency,
		Method:           t.Method,
		TotalToReturn:    schedule.TotalToReturn,
		InstallmentValue: schedule.InstallmentValue,
		StartDate:        t.StartDate,
		Notes:            notes,
		Installments:     make([]Installment, 0, len(schedule.Entries)),
	}

	for k, entry := range schedule.Entries {
		l.Installments = append(l.Installments, Installment{
			Number:  k + 1,
			DueDate: entry.DueDate,
			Value:   entry.Value,
			Status:  InstallmentPending,
		})
	}

	return l, nil
}

func advanceDueDate(d time.Time, f Frequency) time.Time {
	switch f {
	case FrequencyDaily:
		return d.AddDate(0, 0, 1)
	case FrequencyWeekly:
		return d.AddDate(0, 0, 7)
	default:
		return d.AddDate(0, 1, 0)
	}
}

func roundTo(n float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(n*pow) / pow
}
