package treasury

import (
	"fmt"
	"strings"
	"time"

	"lending-engine/internal/pkg/apperrors"
)

type MovementKind string

const (
	KindContribution MovementKind = "CONTRIBUTION"
	KindWithdrawal   MovementKind = "WITHDRAWAL"
)

// ParseMovementKind maps a wire value to a MovementKind, or "" when unknown.
func ParseMovementKind(s string) MovementKind {
	switch MovementKind(s) {
	case KindContribution, KindWithdrawal:
		return MovementKind(s)
	default:
		return ""
	}
}

// CashMovement is one manual cash entry: money put into or taken out of the
// till. The list is append-only except for user-initiated edit or delete of
// a single record.
type CashMovement struct {
	ID          int64        `json:"id"`
	Kind        MovementKind `json:"kind"`
	Amount      float64      `json:"amount"`
	Description string       `json:"description"`
	OccurredAt  time.Time    `json:"occurredAt"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

func NewCashMovement(kind MovementKind, amount float64, description string, occurredAt time.Time) (*CashMovement, error) {
	if kind != KindContribution && kind != KindWithdrawal {
		return nil, fmt.Errorf("%w: unknown movement kind %q", apperrors.ErrInvalidArgument, kind)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: movement amount must be greater than zero", apperrors.ErrInvalidArgument)
	}
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	now := time.Now()
	return &CashMovement{
		Kind:        kind,
		Amount:      amount,
		Description: strings.TrimSpace(description),
		OccurredAt:  occurredAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
