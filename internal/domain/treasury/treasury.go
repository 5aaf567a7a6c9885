package treasury

import (
	"math"

	"lending-engine/internal/domain/loan"
)

// Balance breaks the available cash figure into its four live terms:
// balance = (contributions + received) - (withdrawals + lent). Treasury
// holds no stored state of its own; every term is a sum over the current
// movement and loan collections.
type Balance struct {
	Contributions float64 `json:"contributions"`
	Withdrawals   float64 `json:"withdrawals"`
	PrincipalLent float64 `json:"principalLent"`
	TotalReceived float64 `json:"totalReceived"`
	Available     float64 `json:"available"`
}

func ComputeBalance(movements []CashMovement, loans []loan.Loan) Balance {
	var b Balance

	for _, m := range movements {
		switch m.Kind {
		case KindContribution:
			b.Contributions += m.Amount
		case KindWithdrawal:
			b.Withdrawals += m.Amount
		}
	}

	for li := range loans {
		b.PrincipalLent += loans[li].Principal
		for _, inst := range loans[li].Installments {
			// PaidAmount covers both settled installments and partials
			// still pending, so every unit actually received counts.
			b.TotalReceived += inst.PaidAmount
		}
	}

	b.Contributions = round2(b.Contributions)
	b.Withdrawals = round2(b.Withdrawals)
	b.PrincipalLent = round2(b.PrincipalLent)
	b.TotalReceived = round2(b.TotalReceived)
	b.Available = round2((b.Contributions + b.TotalReceived) - (b.Withdrawals + b.PrincipalLent))
	return b
}

func round2(n float64) float64 {
	return math.Round(n*100) / 100
}
