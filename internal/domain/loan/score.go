package loan

import "time"

type ScoreBand string

const (
	BandExcellent ScoreBand = "Excellent"
	BandGood      ScoreBand = "Good"
	BandFair      ScoreBand = "Fair"
	BandCritical  ScoreBand = "Critical"
)

const (
	scoreBase          = 500
	scoreOnTime        = 15
	scorePaidLate      = 2
	scoreOverdue       = -40
	scoreVolumeDivisor = 2000
	scoreMin           = 0
	scoreMax           = 1000
)

// CreditScore is derived on demand from a customer's full installment
// history and is never stored.
type CreditScore struct {
	Score int
	Band  ScoreBand
}

// ComputeCreditScore scores one customer's loans in [0,1000]. A customer
// with no history scores the neutral base. The walk is a plain summation
// over every installment, so the result is order-independent.
func ComputeCreditScore(loans []Loan, asOf time.Time) CreditScore {
	if len(loans) == 0 {
		return CreditScore{Score: scoreBase, Band: BandFor(scoreBase)}
	}

	score := scoreBase
	var totalPrincipal Money

	for li := range loans {
		totalPrincipal += loans[li].Principal
		for _, inst := range loans[li].Installments {
			switch {
			case inst.Status == InstallmentPaid && inst.PaidAt != nil && calendarDay(*inst.PaidAt).After(calendarDay(inst.DueDate)):
				score += scorePaidLate
			case inst.Status == InstallmentPaid:
				score += scoreOnTime
			case IsOverdue(inst, asOf):
				score += scoreOverdue
			}
		}
	}

	score += int(totalPrincipal / scoreVolumeDivisor)

	if score < scoreMin {
		score = scoreMin
	}
	if score > scoreMax {
		score = scoreMax
	}
	return CreditScore{Score: score, Band: BandFor(score)}
}

func BandFor(score int) ScoreBand {
	switch {
	case score >= 800:
		return BandExcellent
	case score >= 600:
		return BandGood
	case score >= 400:
		return BandFair
	default:
		return BandCritical
	}
}

func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
