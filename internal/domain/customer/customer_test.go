package customer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCustomer(t *testing.T) {
	cust := NewCustomer("Maria Souza", "52998224725", "+55 11 99999-0000", "maria@example.com")

	assert.Equal(t, "Maria Souza", cust.Name)
	assert.Equal(t, "52998224725", cust.NationalID)
	assert.True(t, cust.Active)
	assert.False(t, cust.IsDelinquent)
	assert.False(t, cust.CreateDate.IsZero())
	assert.Equal(t, cust.CreateDate, cust.UpdatedAt)
}

func TestUpdateProfile(t *testing.T) {
	cust := NewCustomer("Maria Souza", "52998224725", "", "")
	createdAt := cust.CreateDate

	cust.UpdateProfile("Maria S. Lima", "+55 11 98888-0000", "lima@example.com", "moved")

	assert.Equal(t, "Maria S. Lima", cust.Name)
	assert.Equal(t, "+55 11 98888-0000", cust.Phone)
	assert.Equal(t, "lima@example.com", cust.Email)
	assert.Equal(t, "moved", cust.Notes)
	assert.Equal(t, "52998224725", cust.NationalID)
	assert.Equal(t, createdAt, cust.CreateDate)
}

func TestSetDelinquencyStatus(t *testing.T) {
	cust := NewCustomer("Maria Souza", "52998224725", "", "")
	before := cust.UpdatedAt

	cust.SetDelinquencyStatus(false)
	assert.Equal(t, before, cust.UpdatedAt)

	cust.SetDelinquencyStatus(true)
	assert.True(t, cust.IsDelinquent)
}

func TestDeactivate(t *testing.T) {
	cust := NewCustomer("Maria Souza", "52998224725", "", "")

	cust.Deactivate()
	assert.False(t, cust.Active)

	updatedAt := cust.UpdatedAt
	cust.Deactivate()
	assert.Equal(t, updatedAt, cust.UpdatedAt)
}
