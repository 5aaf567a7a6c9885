package loan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func paidLoan(t *testing.T, principal Money, installments int, payDelayDays int) Loan {
	t.Helper()
	terms := Terms{
		Principal:    principal,
		InterestRate: 0,
		Installments: installments,
		Frequency:    FrequencyWeekly,
		Method:       MethodFlat,
		StartDate:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	l, err := NewLoan(1, terms, "")
	assert.NoError(t, err)
	for i := range l.Installments {
		asOf := l.Installments[i].DueDate.AddDate(0, 0, payDelayDays)
		assert.NoError(t, l.Settle(l.Installments[i].Number, asOf))
	}
	return *l
}

func TestComputeCreditScore(t *testing.T) {
	asOf := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)

	t.Run("no history scores the neutral base", func(t *testing.T) {
		score := ComputeCreditScore(nil, asOf)
		assert.Equal(t, 500, score.Score)
		assert.Equal(t, BandFair, score.Band)
	})

	t.Run("ten on-time installments of a 2000 loan", func(t *testing.T) {
		loans := []Loan{paidLoan(t, 2000, 10, 0)}
		score := ComputeCreditScore(loans, asOf)
		// 500 + 10*15 + 2000/2000
		assert.Equal(t, 651, score.Score)
		assert.Equal(t, BandGood, score.Band)
	})

	t.Run("paying late earns less than paying on time", func(t *testing.T) {
		onTime := ComputeCreditScore([]Loan{paidLoan(t, 1000, 4, 0)}, asOf)
		late := ComputeCreditScore([]Loan{paidLoan(t, 1000, 4, 3)}, asOf)
		assert.Greater(t, onTime.Score, late.Score)
		// 500 + 4*2 + 0
		assert.Equal(t, 508, late.Score)
	})

	t.Run("overdue installments pull the score down", func(t *testing.T) {
		terms := Terms{
			Principal:    1000,
			InterestRate: 0,
			Installments: 4,
			Frequency:    FrequencyWeekly,
			Method:       MethodFlat,
			StartDate:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		}
		l, err := NewLoan(1, terms, "")
		assert.NoError(t, err)

		score := ComputeCreditScore([]Loan{*l}, asOf)
		// 500 - 4*40 + 0
		assert.Equal(t, 340, score.Score)
		assert.Equal(t, BandCritical, score.Band)
	})

	t.Run("pending but not yet due installments are neutral", func(t *testing.T) {
		terms := Terms{
			Principal:    1000,
			InterestRate: 0,
			Installments: 4,
			Frequency:    FrequencyMonthly,
			Method:       MethodFlat,
			StartDate:    time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC),
		}
		l, err := NewLoan(1, terms, "")
		assert.NoError(t, err)

		score := ComputeCreditScore([]Loan{*l}, asOf)
		assert.Equal(t, 500, score.Score)
	})

	t.Run("score is clamped to the valid range", func(t *testing.T) {
		var loans []Loan
		for range [20]struct{}{} {
			loans = append(loans, paidLoan(t, 10000, 10, 0))
		}
		score := ComputeCreditScore(loans, asOf)
		assert.Equal(t, 1000, score.Score)
		assert.Equal(t, BandExcellent, score.Band)
	})
}

func TestBandFor(t *testing.T) {
	assert.Equal(t, BandExcellent, BandFor(800))
	assert.Equal(t, BandGood, BandFor(799))
	assert.Equal(t, BandGood, BandFor(600))
	assert.Equal(t, BandFair, BandFor(599))
	assert.Equal(t, BandFair, BandFor(400))
	assert.Equal(t, BandCritical, BandFor(399))
	assert.Equal(t, BandCritical, BandFor(0))
}
