package loan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func baseTerms() Terms {
	return Terms{
		Principal:    1000,
		InterestRate: 5,
		Installments: 4,
		Frequency:    FrequencyWeekly,
		Method:       MethodFlat,
		StartDate:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestComputeSchedule(t *testing.T) {
	t.Run("flat interest is a single charge over the whole term", func(t *testing.T) {
		schedule, err := ComputeSchedule(baseTerms())
		assert.NoError(t, err)
		assert.Equal(t, 1050.0, schedule.TotalToReturn)
		assert.Equal(t, 262.5, schedule.InstallmentValue)
		assert.Equal(t, 50.0, schedule.TotalInterest)
		assert.Len(t, schedule.Entries, 4)
	})

	t.Run("amortized uses the annuity formula per period", func(t *testing.T) {
		terms := baseTerms()
		terms.Method = MethodAmortized
		terms.InterestRate = 1
		terms.Installments = 12
		terms.Frequency = FrequencyMonthly

		schedule, err := ComputeSchedule(terms)
		assert.NoError(t, err)
		// 1000 * 0.01 * 1.01^12 / (1.01^12 - 1)
		assert.InDelta(t, 88.85, schedule.InstallmentValue, 0.01)
		assert.InDelta(t, schedule.InstallmentValue*12, schedule.TotalToReturn, 0.05)
	})

	t.Run("zero rate yields principal over n for both methods", func(t *testing.T) {
		for _, method := range []InterestMethod{MethodFlat, MethodAmortized} {
			terms := baseTerms()
			terms.InterestRate = 0
			terms.Method = method

			schedule, err := ComputeSchedule(terms)
			assert.NoError(t, err)
			assert.Equal(t, 1000.0, schedule.TotalToReturn)
			assert.Equal(t, 250.0, schedule.InstallmentValue)
			assert.Equal(t, 0.0, schedule.TotalInterest)
		}
	})

	t.Run("single installment makes the methods agree", func(t *testing.T) {
		flat := baseTerms()
		flat.Installments = 1

		amortized := flat
		amortized.Method = MethodAmortized

		flatSchedule, err := ComputeSchedule(flat)
		assert.NoError(t, err)
		amortizedSchedule, err := ComputeSchedule(amortized)
		assert.NoError(t, err)

		assert.InDelta(t, flatSchedule.TotalToReturn, amortizedSchedule.TotalToReturn, 0.01)
		assert.InDelta(t, flatSchedule.InstallmentValue, amortizedSchedule.InstallmentValue, 0.01)
	})

	t.Run("entries sum exactly to the total", func(t *testing.T) {
		terms := baseTerms()
		terms.Principal = 1000.03
		terms.InterestRate = 0
		terms.Installments = 3

		schedule, err := ComputeSchedule(terms)
		assert.NoError(t, err)

		sum := 0.0
		for _, entry := range schedule.Entries {
			sum += entry.Value
		}
		assert.InDelta(t, schedule.TotalToReturn, sum, 0.001)
		// last entry absorbs the drift
		assert.NotEqual(t, schedule.Entries[0].Value, schedule.Entries[2].Value)
	})

	t.Run("due dates advance by the chosen frequency", func(t *testing.T) {
		start := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

		daily := baseTerms()
		daily.StartDate = start
		daily.Frequency = FrequencyDaily
		schedule, err := ComputeSchedule(daily)
		assert.NoError(t, err)
		assert.Equal(t, start.AddDate(0, 0, 1), schedule.Entries[0].DueDate)
		assert.Equal(t, start.AddDate(0, 0, 4), schedule.Entries[3].DueDate)

		weekly := baseTerms()
		weekly.StartDate = start
		schedule, err = ComputeSchedule(weekly)
		assert.NoError(t, err)
		assert.Equal(t, start.AddDate(0, 0, 7), schedule.Entries[0].DueDate)

		monthly := baseTerms()
		monthly.StartDate = start
		monthly.Frequency = FrequencyMonthly
		schedule, err = ComputeSchedule(monthly)
		assert.NoError(t, err)
		// Jan 31 + 1 month normalizes per time.AddDate
		assert.Equal(t, start.AddDate(0, 1, 0), schedule.Entries[0].DueDate)
	})

	t.Run("rejects degenerate terms", func(t *testing.T) {
		cases := []func(*Terms){
			func(terms *Terms) { terms.Principal = 0 },
			func(terms *Terms) { terms.Principal = -5 },
			func(terms *Terms) { terms.InterestRate = -1 },
			func(terms *Terms) { terms.Installments = 0 },
			func(terms *Terms) { terms.StartDate = time.Time{} },
			func(terms *Terms) { terms.Frequency = "FORTNIGHTLY" },
			func(terms *Terms) { terms.Method = "COMPOUND" },
		}
		for _, mutate := range cases {
			terms := baseTerms()
			mutate(&terms)
			_, err := ComputeSchedule(terms)
			assert.Error(t, err)
		}
	})
}

func TestNewLoan(t *testing.T) {
	t.Run("materializes a pending installment per entry", func(t *testing.T) {
		l, err := NewLoan(7, baseTerms(), "first contract")
		assert.NoError(t, err)
		assert.Equal(t, int64(7), l.CustomerID)
		assert.Equal(t, "first contract", l.Notes)
		assert.Len(t, l.Installments, 4)
		for i, inst := range l.Installments {
			assert.Equal(t, i+1, inst.Number)
			assert.Equal(t, InstallmentPending, inst.Status)
			assert.Nil(t, inst.PaidAt)
		}
	})

	t.Run("rejects a non-positive customer", func(t *testing.T) {
		_, err := NewLoan(0, baseTerms(), "")
		assert.Error(t, err)
	})
}

func TestParseFrequency(t *testing.T) {
	assert.Equal(t, FrequencyDaily, ParseFrequency("DAILY"))
	assert.Equal(t, FrequencyWeekly, ParseFrequency("WEEKLY"))
	assert.Equal(t, FrequencyMonthly, ParseFrequency("MONTHLY"))
	assert.Equal(t, Frequency(""), ParseFrequency("weekly"))
	assert.Equal(t, Frequency(""), ParseFrequency(""))
}

func TestParseInterestMethod(t *testing.T) {
	assert.Equal(t, MethodFlat, ParseInterestMethod("FLAT"))
	assert.Equal(t, MethodAmortized, ParseInterestMethod("AMORTIZED"))
	assert.Equal(t, InterestMethod(""), ParseInterestMethod("flat"))
}
