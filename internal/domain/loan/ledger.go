package loan

import (
	"fmt"
	"time"

	"lending-engine/internal/pkg/apperrors"
)

// The installment payment lifecycle. PENDING is the only non-terminal state;
// PAID freezes every amount field so a settled installment never re-accrues
// penalty. Callers load a loan, apply one transition, and persist the
// mutated installment as a unit.

func (l *Loan) Installment(number int) (*Installment, error) {
	for idx := range l.Installments {
		if l.Installments[idx].Number == number {
			return &l.Installments[idx], nil
		}
	}
	return nil, fmt.Errorf("%w: installment %d not found on loan %d", apperrors.ErrNotFound, number, l.ID)
}

// Settle marks a PENDING installment fully paid at asOf. The penalty is
// recomputed at that moment and frozen; the cumulative paid amount becomes
// original value plus penalty. Only the outstanding remainder is recorded
// as the settling payment, so the payment history keeps summing to the
// cash actually collected when partial payments preceded the settlement.
func (l *Loan) Settle(number int, asOf time.Time) error {
	inst, err := l.Installment(number)
	if err != nil {
		return err
	}
	if inst.Status == InstallmentPaid {
		return fmt.Errorf("%w: installment %d of loan %d", apperrors.ErrAlreadySettled, number, l.ID)
	}

	penalty := PenaltyAsOf(*inst, asOf)
	paidAt := asOf
	total := roundTo(inst.Value+penalty, 2)
	remainder := roundTo(total-inst.PaidAmount, 2)

	inst.Status = InstallmentPaid
	inst.PaidAt = &paidAt
	inst.PenaltyPaid = penalty
	inst.PaidAmount = total
	if remainder > 0 {
		inst.Payments = append(inst.Payments, PaymentRecord{Amount: remainder, PaidAt: asOf})
	}
	inst.UpdatedAt = asOf
	l.UpdatedAt = asOf
	return nil
}

// Reverse undoes a settlement: PAID back to PENDING with paid-at, penalty
// and cumulative paid cleared. Reversing a PENDING installment is refused so
// the caller can treat it as a no-op.
func (l *Loan) Reverse(number int, asOf time.Time) error {
	inst, err := l.Installment(number)
	if err != nil {
		return err
	}
	if inst.Status != InstallmentPaid {
		return fmt.Errorf("%w: installment %d of loan %d", apperrors.ErrNotSettled, number, l.ID)
	}

	inst.Status = InstallmentPending
	inst.PaidAt = nil
	inst.PaidAmount = 0
	inst.PenaltyPaid = 0
	inst.Payments = nil
	inst.UpdatedAt = asOf
	l.UpdatedAt = asOf
	return nil
}

// ApplyPartialPayment adds amount to the installment's cumulative paid
// total. The amount due (original value plus penalty) is recomputed at
// this payment's moment, not reused from an earlier partial payment; when
// the cumulative total reaches it the installment transitions to PAID on
// this exact call.
func (l *Loan) ApplyPartialPayment(number int, amount Money, asOf time.Time) error {
	if amount <= 0 {
		return fmt.Errorf("%w: partial payment must be greater than zero", apperrors.ErrInvalidPaymentAmount)
	}
	inst, err := l.Installment(number)
	if err != nil {
		return err
	}
	if inst.Status == InstallmentPaid {
		return fmt.Errorf("%w: installment %d of loan %d", apperrors.ErrAlreadySettled, number, l.ID)
	}

	penalty := PenaltyAsOf(*inst, asOf)
	dueNow := roundTo(inst.Value+penalty, 2)

	inst.PaidAmount = roundTo(inst.PaidAmount+amount, 2)
	inst.Payments = append(inst.Payments, PaymentRecord{Amount: amount, PaidAt: asOf})
	inst.UpdatedAt = asOf
	l.UpdatedAt = asOf

	if inst.PaidAmount >= dueNow {
		paidAt := asOf
		inst.Status = InstallmentPaid
		inst.PaidAt = &paidAt
		inst.PenaltyPaid = penalty
	}
	return nil
}
