package loan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func portfolioLoan(t *testing.T, customerID int64, start time.Time) *Loan {
	t.Helper()
	terms := Terms{
		Principal:    1000,
		InterestRate: 0,
		Installments: 4,
		Frequency:    FrequencyMonthly,
		Method:       MethodFlat,
		StartDate:    start,
	}
	l, err := NewLoan(customerID, terms, "")
	assert.NoError(t, err)
	return l
}

func TestStatusAsOf(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("all installments paid is settled", func(t *testing.T) {
		l := portfolioLoan(t, 1, start)
		for _, inst := range l.Installments {
			assert.NoError(t, l.Settle(inst.Number, inst.DueDate))
		}
		assert.Equal(t, StatusSettled, l.StatusAsOf(start.AddDate(1, 0, 0)))
	})

	t.Run("any past-due installment is overdue", func(t *testing.T) {
		l := portfolioLoan(t, 1, start)
		asOf := l.Installments[0].DueDate.AddDate(0, 0, 1)
		assert.Equal(t, StatusOverdue, l.StatusAsOf(asOf))
	})

	t.Run("pending but current is active", func(t *testing.T) {
		l := portfolioLoan(t, 1, start)
		assert.Equal(t, StatusActive, l.StatusAsOf(start))

		// settling the overdue one clears the flag even with later pending
		asOf := l.Installments[0].DueDate.AddDate(0, 0, 1)
		assert.NoError(t, l.Settle(1, asOf))
		assert.Equal(t, StatusActive, l.StatusAsOf(asOf))
	})
}

func TestAggregatePortfolio(t *testing.T) {
	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	var open time.Time

	t.Run("empty snapshot", func(t *testing.T) {
		stats := AggregatePortfolio(nil, open, open, jan)
		assert.Equal(t, Money(0), stats.TotalLent)
		assert.Equal(t, Money(0), stats.Outstanding)
		assert.Equal(t, Money(0), stats.Received)
		assert.Empty(t, stats.ByStatus)
		assert.Empty(t, stats.Monthly)
	})

	t.Run("totals and status counts", func(t *testing.T) {
		settled := portfolioLoan(t, 1, jan)
		for _, inst := range settled.Installments {
			assert.NoError(t, settled.Settle(inst.Number, inst.DueDate))
		}
		active := portfolioLoan(t, 2, feb)

		asOf := feb.AddDate(0, 0, 10)
		stats := AggregatePortfolio([]Loan{*settled, *active}, open, open, asOf)

		assert.Equal(t, Money(2000), stats.TotalLent)
		assert.Equal(t, Money(1000), stats.Outstanding)
		assert.Equal(t, Money(1000), stats.Received)
		assert.Equal(t, 1, stats.ByStatus[StatusSettled])
		assert.Equal(t, 1, stats.ByStatus[StatusActive])
	})

	t.Run("outstanding nets out partial payments", func(t *testing.T) {
		l := portfolioLoan(t, 1, jan)
		assert.NoError(t, l.ApplyPartialPayment(1, 100, jan.AddDate(0, 0, 2)))

		stats := AggregatePortfolio([]Loan{*l}, open, open, jan.AddDate(0, 0, 3))
		assert.Equal(t, Money(900), stats.Outstanding)
		assert.Equal(t, Money(100), stats.Received)
	})

	t.Run("received is filtered by payment date", func(t *testing.T) {
		l := portfolioLoan(t, 1, jan)
		// installment 1 due in February, paid early in January
		assert.NoError(t, l.Settle(1, jan.AddDate(0, 0, 20)))

		stats := AggregatePortfolio([]Loan{*l}, feb, open, feb.AddDate(1, 0, 0))
		assert.Equal(t, Money(0), stats.Received)

		stats = AggregatePortfolio([]Loan{*l}, jan, feb, feb.AddDate(1, 0, 0))
		assert.Equal(t, Money(250), stats.Received)
	})

	t.Run("payment during the day still counts on the window end date", func(t *testing.T) {
		l := portfolioLoan(t, 1, jan)
		paidAt := time.Date(2025, 1, 30, 10, 30, 0, 0, time.UTC)
		assert.NoError(t, l.ApplyPartialPayment(1, 100, paidAt))

		to := time.Date(2025, 1, 30, 0, 0, 0, 0, time.UTC)
		stats := AggregatePortfolio([]Loan{*l}, jan, to, feb)
		assert.Equal(t, Money(100), stats.Received)
	})

	t.Run("window filters origination too", func(t *testing.T) {
		early := portfolioLoan(t, 1, jan)
		late := portfolioLoan(t, 2, feb)

		stats := AggregatePortfolio([]Loan{*early, *late}, feb, open, feb)
		assert.Len(t, stats.Monthly, 1)
		assert.Equal(t, "2025-02", stats.Monthly[0].Month)
		assert.Equal(t, Money(1000), stats.Monthly[0].MoneyOut)
	})

	t.Run("monthly series pairs flows and sorts by month", func(t *testing.T) {
		l := portfolioLoan(t, 1, jan)
		assert.NoError(t, l.Settle(1, l.Installments[0].DueDate))             // Feb
		assert.NoError(t, l.ApplyPartialPayment(2, 50, jan.AddDate(0, 0, 5))) // Jan

		stats := AggregatePortfolio([]Loan{*l}, open, open, feb)

		assert.Len(t, stats.Monthly, 2)
		assert.Equal(t, "2025-01", stats.Monthly[0].Month)
		assert.Equal(t, Money(1000), stats.Monthly[0].MoneyOut)
		assert.Equal(t, Money(50), stats.Monthly[0].MoneyIn)
		assert.Equal(t, "2025-02", stats.Monthly[1].Month)
		assert.Equal(t, Money(0), stats.Monthly[1].MoneyOut)
		assert.Equal(t, Money(250), stats.Monthly[1].MoneyIn)
	})

	t.Run("records without payment history fall back to settlement fields", func(t *testing.T) {
		l := portfolioLoan(t, 1, jan)
		paidAt := jan.AddDate(0, 0, 10)
		l.Installments[0].Status = InstallmentPaid
		l.Installments[0].PaidAt = &paidAt
		l.Installments[0].PaidAmount = 250

		stats := AggregatePortfolio([]Loan{*l}, open, open, feb)
		assert.Equal(t, Money(250), stats.Received)
	})
}
