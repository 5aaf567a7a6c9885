package customer

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("customer not found")

	ErrDuplicateNationalID = errors.New("national ID already registered")

	ErrCannotDeactivateWithOpenLoans = errors.New("cannot deactivate customer with open loans")
)

type CustomerRepository interface {
	Save(ctx context.Context, customer *Customer) error

	FindByID(ctx context.Context, customerID int64) (*Customer, error)

	FindByNationalID(ctx context.Context, nationalID string) (*Customer, error)

	FindAll(ctx context.Context, activeOnly bool) ([]*Customer, error)

	UpdateProfile(ctx context.Context, customer *Customer) error

	SetDelinquencyStatus(ctx context.Context, customerID int64, isDelinquent bool) error

	SetActiveStatus(ctx context.Context, customerID int64, isActive bool) error
}
