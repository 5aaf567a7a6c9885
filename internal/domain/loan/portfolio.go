package loan

import (
	"sort"
	"time"
)

// StatusAsOf classifies a loan with a single scan of its installments:
// SETTLED when everything is paid, OVERDUE when anything is past due,
// ACTIVE otherwise. Like installment overdue, this is derived, never stored.
func (l *Loan) StatusAsOf(asOf time.Time) LoanStatus {
	allPaid := true
	anyOverdue := false
	for _, inst := range l.Installments {
		if inst.Status != InstallmentPaid {
			allPaid = false
			if IsOverdue(inst, asOf) {
				anyOverdue = true
			}
		}
	}
	if allPaid {
		return StatusSettled
	}
	if anyOverdue {
		return StatusOverdue
	}
	return StatusActive
}

type MonthlyFlow struct {
	Month    string
	MoneyOut Money
	MoneyIn  Money
}

type PortfolioStats struct {
	TotalLent   Money
	Outstanding Money
	Received    Money
	ByStatus    map[LoanStatus]int
	Monthly     []MonthlyFlow
}

// AggregatePortfolio derives portfolio-level figures from a snapshot of
// loans. Received is filtered by the actual payment date, not the due date;
// the monthly series pairs money out (principal of loans originated that
// month) against money in (payments landed that month). A zero from/to
// leaves that end of the window open.
func AggregatePortfolio(loans []Loan, from, to, asOf time.Time) PortfolioStats {
	stats := PortfolioStats{
		ByStatus: map[LoanStatus]int{},
	}
	monthly := map[string]*MonthlyFlow{}

	for li := range loans {
		l := &loans[li]
		stats.TotalLent += l.Principal
		stats.ByStatus[l.StatusAsOf(asOf)]++

		if inWindow(l.StartDate, from, to) {
			flowFor(monthly, l.StartDate).MoneyOut += l.Principal
		}

		for _, inst := range l.Installments {
			if inst.Status != InstallmentPaid {
				remaining := inst.Value - inst.PaidAmount
				if remaining > 0 {
					stats.Outstanding += remaining
				}
			}
			for _, p := range paymentsOf(inst) {
				if !inWindow(p.PaidAt, from, to) {
					continue
				}
				stats.Received += p.Amount
				flowFor(monthly, p.PaidAt).MoneyIn += p.Amount
			}
		}
	}

	stats.TotalLent = roundTo(stats.TotalLent, 2)
	stats.Outstanding = roundTo(stats.Outstanding, 2)
	stats.Received = roundTo(stats.Received, 2)

	months := make([]string, 0, len(monthly))
	for m := range monthly {
		months = append(months, m)
	}
	sort.Strings(months)
	for _, m := range months {
		f := monthly[m]
		f.MoneyOut = roundTo(f.MoneyOut, 2)
		f.MoneyIn = roundTo(f.MoneyIn, 2)
		stats.Monthly = append(stats.Monthly, *f)
	}

	return stats
}

// paymentsOf prefers the per-payment history; older records persisted before
// history was kept fall back to the settlement timestamp and cumulative paid.
func paymentsOf(inst Installment) []PaymentRecord {
	if len(inst.Payments) > 0 {
		return inst.Payments
	}
	if inst.PaidAt != nil && inst.PaidAmount > 0 {
		return []PaymentRecord{{Amount: inst.PaidAmount, PaidAt: *inst.PaidAt}}
	}
	return nil
}

// inWindow compares calendar days so a payment carrying a time of day still
// counts on the window's end date. A zero bound leaves that end open.
func inWindow(t, from, to time.Time) bool {
	day := calendarDay(t)
	if !from.IsZero() && day.Before(calendarDay(from)) {
		return false
	}
	if !to.IsZero() && day.After(calendarDay(to)) {
		return false
	}
	return true
}

func flowFor(monthly map[string]*MonthlyFlow, t time.Time) *MonthlyFlow {
	key := t.Format("2006-01")
	f, ok := monthly[key]
	if !ok {
		f = &MonthlyFlow{Month: key}
		monthly[key] = f
	}
	return f
}
