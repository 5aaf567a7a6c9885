package customer

import "time"

type Customer struct {
	CustomerID   int64     `json:"customerId"`
	Name         string    `json:"name"`
	NationalID   string    `json:"nationalId"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	Notes        string    `json:"notes"`
	IsDelinquent bool      `json:"isDelinquent"`
	Active       bool      `json:"active"`
	CreateDate   time.Time `json:"createDate"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func NewCustomer(name, nationalID, phone, email string) *Customer {
	now := time.Now()
	return &Customer{
		Name:         name,
		NationalID:   nationalID,
		Phone:        phone,
		Email:        email,
		IsDelinquent: false,
		Active:       true,
		CreateDate:   now,
		UpdatedAt:    now,
	}
}

func (c *Customer) UpdateProfile(name, phone, email, notes string) {
	c.Name = name
	c.Phone = phone
	c.Email = email
	c.Notes = notes
	c.UpdatedAt = time.Now()
}

func (c *Customer) SetDelinquencyStatus(isDelinquent bool) {
	if c.IsDelinquent != isDelinquent {
		c.IsDelinquent = isDelinquent
		c.UpdatedAt = time.Now()
	}
}

func (c *Customer) Deactivate() {
	if c.Active {
		c.Active = false
		c.UpdatedAt = time.Now()
	}
}
