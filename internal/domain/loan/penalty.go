package loan

import "time"

// DailyPenaltyRate is the linear late fee: 1.5% of the installment's
// original value per calendar day overdue, uncapped and non-compounding.
const DailyPenaltyRate = 0.015

// DaysOverdue counts whole calendar days between the due date and asOf.
// Both sides are truncated to their calendar day first, so an installment
// is never overdue on its own due date regardless of time of day. Zero
// when asOf's day is on or before the due day.
func DaysOverdue(dueDate, asOf time.Time) int {
	due := calendarDay(dueDate)
	day := calendarDay(asOf)
	if !day.After(due) {
		return 0
	}
	return int(day.Sub(due).Hours() / 24)
}

// PenaltyAsOf returns the accrued late fee for an installment at a point in
// time. PAID installments never accrue: their penalty was frozen at
// settlement and lives in PenaltyPaid.
func PenaltyAsOf(inst Installment, asOf time.Time) Money {
	if inst.Status == InstallmentPaid {
		return 0
	}
	days := DaysOverdue(inst.DueDate, asOf)
	if days == 0 {
		return 0
	}
	return roundTo(inst.Value*DailyPenaltyRate*float64(days), 2)
}

// AmountDueAsOf is the total a PENDING installment requires to settle at
// asOf: original value plus accrued penalty, minus nothing already paid.
func AmountDueAsOf(inst Installment, asOf time.Time) Money {
	if inst.Status == InstallmentPaid {
		return 0
	}
	return roundTo(inst.Value+PenaltyAsOf(inst, asOf), 2)
}

// IsOverdue reports the derived overdue state: PENDING and past due.
// Overdue is never stored; it is recomputed on every read.
func IsOverdue(inst Installment, asOf time.Time) bool {
	return inst.Status == InstallmentPending && DaysOverdue(inst.DueDate, asOf) > 0
}
