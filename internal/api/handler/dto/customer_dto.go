package dto

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"lending-engine/internal/domain/customer"
)

type CreateCustomerRequest struct {
	Name       string `json:"name"`
	NationalID string `json:"nationalId"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

func (r *CreateCustomerRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if strings.TrimSpace(r.NationalID) == "" {
		return fmt.Errorf("nationalId cannot be empty")
	}
	return nil
}

type UpdateCustomerProfileRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	Notes string `json:"notes"`
}

func (r *UpdateCustomerProfileRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name cannot be empty")
	}
	return nil
}

type UpdateDelinquencyRequest struct {
	IsDelinquent bool `json:"isDelinquent"`
}

type CustomerResponse struct {
	CustomerID   string    `json:"customerId"`
	Name         string    `json:"name"`
	NationalID   string    `json:"nationalId"`
	Phone        string    `json:"phone,omitempty"`
	Email        string    `json:"email,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	IsDelinquent bool      `json:"isDelinquent"`
	Active       bool      `json:"active"`
	CreateDate   time.Time `json:"createDate"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func NewCustomerResponse(cust *customer.Customer) CustomerResponse {
	if cust == nil {
		return CustomerResponse{}
	}

	return CustomerResponse{
		CustomerID:   strconv.FormatInt(cust.CustomerID, 10),
		Name:         cust.Name,
		NationalID:   cust.NationalID,
		Phone:        cust.Phone,
		Email:        cust.Email,
		Notes:        cust.Notes,
		IsDelinquent: cust.IsDelinquent,
		Active:       cust.Active,
		CreateDate:   cust.CreateDate,
		UpdatedAt:    cust.UpdatedAt,
	}
}
