package loan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysOverdue(t *testing.T) {
	due := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("zero on or before the due date", func(t *testing.T) {
		assert.Equal(t, 0, DaysOverdue(due, due))
		assert.Equal(t, 0, DaysOverdue(due, due.AddDate(0, 0, -3)))
	})

	t.Run("time of day on the due date does not count", func(t *testing.T) {
		assert.Equal(t, 0, DaysOverdue(due, due.Add(10*time.Hour)))
		assert.Equal(t, 0, DaysOverdue(due, due.Add(23*time.Hour+59*time.Minute)))
	})

	t.Run("calendar days count from midnight", func(t *testing.T) {
		assert.Equal(t, 1, DaysOverdue(due, due.Add(24*time.Hour)))
		assert.Equal(t, 1, DaysOverdue(due, due.Add(25*time.Hour)))
		assert.Equal(t, 2, DaysOverdue(due, due.AddDate(0, 0, 2)))
	})

	t.Run("whole days count exactly", func(t *testing.T) {
		assert.Equal(t, 10, DaysOverdue(due, due.AddDate(0, 0, 10)))
	})
}

func TestPenaltyAsOf(t *testing.T) {
	due := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	inst := Installment{Number: 1, DueDate: due, Value: 100, Status: InstallmentPending}

	t.Run("accrues linearly and never compounds", func(t *testing.T) {
		assert.Equal(t, 1.5, PenaltyAsOf(inst, due.AddDate(0, 0, 1)))
		assert.Equal(t, 15.0, PenaltyAsOf(inst, due.AddDate(0, 0, 10)))
		assert.Equal(t, 150.0, PenaltyAsOf(inst, due.AddDate(0, 0, 100)))
	})

	t.Run("zero before due", func(t *testing.T) {
		assert.Equal(t, 0.0, PenaltyAsOf(inst, due))
	})

	t.Run("settling during business hours on the due day is free", func(t *testing.T) {
		assert.Equal(t, 0.0, PenaltyAsOf(inst, due.Add(10*time.Hour)))
		assert.Equal(t, 1.5, PenaltyAsOf(inst, due.AddDate(0, 0, 1).Add(10*time.Hour)))
	})

	t.Run("paid installments never accrue", func(t *testing.T) {
		paid := inst
		paid.Status = InstallmentPaid
		paid.PenaltyPaid = 3.0
		assert.Equal(t, 0.0, PenaltyAsOf(paid, due.AddDate(0, 0, 30)))
	})
}

func TestAmountDueAsOf(t *testing.T) {
	due := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	inst := Installment{Number: 1, DueDate: due, Value: 100, Status: InstallmentPending}

	assert.Equal(t, 100.0, AmountDueAsOf(inst, due))
	assert.Equal(t, 115.0, AmountDueAsOf(inst, due.AddDate(0, 0, 10)))

	paid := inst
	paid.Status = InstallmentPaid
	assert.Equal(t, 0.0, AmountDueAsOf(paid, due.AddDate(0, 0, 10)))
}

func TestIsOverdue(t *testing.T) {
	due := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	inst := Installment{Number: 1, DueDate: due, Value: 100, Status: InstallmentPending}

	assert.False(t, IsOverdue(inst, due))
	assert.False(t, IsOverdue(inst, due.Add(10*time.Hour)))
	assert.True(t, IsOverdue(inst, due.AddDate(0, 0, 1)))

	paid := inst
	paid.Status = InstallmentPaid
	assert.False(t, IsOverdue(paid, due.AddDate(0, 0, 5)))
}
