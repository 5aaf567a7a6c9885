package treasury

import (
	"context"
	"errors"
)

var ErrMovementNotFound = errors.New("cash movement not found")

type Repository interface {
	SaveMovement(ctx context.Context, movement *CashMovement) error

	FindMovementByID(ctx context.Context, movementID int64) (*CashMovement, error)

	FindAllMovements(ctx context.Context) ([]CashMovement, error)

	UpdateMovement(ctx context.Context, movement *CashMovement) error

	DeleteMovement(ctx context.Context, movementID int64) error
}
