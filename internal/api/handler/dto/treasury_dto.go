package dto

import (
	"fmt"
	"strconv"
	"time"

	"lending-engine/internal/domain/treasury"

	"github.com/shopspring/decimal"
)

type RecordMovementRequest struct {
	Kind        string `json:"kind"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
	OccurredAt  string `json:"occurredAt,omitempty"`
}

func (r *RecordMovementRequest) Validate() error {
	if treasury.ParseMovementKind(r.Kind) == "" {
		return fmt.Errorf("kind must be CONTRIBUTION or WITHDRAWAL")
	}
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil || r.Amount == "" {
		return fmt.Errorf("invalid amount: %w", err)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be greater than zero")
	}
	if r.OccurredAt != "" {
		if _, err := time.Parse(dateLayout, r.OccurredAt); err != nil {
			return fmt.Errorf("invalid occurredAt format (use YYYY-MM-DD): %w", err)
		}
	}
	return nil
}

// OccurredAtOrNow resolves the movement date, defaulting to the current time.
func (r *RecordMovementRequest) OccurredAtOrNow() time.Time {
	if r.OccurredAt == "" {
		return time.Now()
	}
	t, _ := time.Parse(dateLayout, r.OccurredAt)
	return t
}

func (r *RecordMovementRequest) AmountFloat() float64 {
	d, _ := decimal.NewFromString(r.Amount)
	f, _ := d.Float64()
	return f
}

type UpdateMovementRequest struct {
	Kind        string `json:"kind"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
}

func (r *UpdateMovementRequest) Validate() error {
	if treasury.ParseMovementKind(r.Kind) == "" {
		return fmt.Errorf("kind must be CONTRIBUTION or WITHDRAWAL")
	}
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil || r.Amount == "" {
		return fmt.Errorf("invalid amount: %w", err)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be greater than zero")
	}
	return nil
}

func (r *UpdateMovementRequest) AmountFloat() float64 {
	d, _ := decimal.NewFromString(r.Amount)
	f, _ := d.Float64()
	return f
}

type MovementResponse struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Amount      string    `json:"amount"`
	Description string    `json:"description,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type BalanceResponse struct {
	Contributions string `json:"contributions"`
	Withdrawals   string `json:"withdrawals"`
	PrincipalLent string `json:"principalLent"`
	TotalReceived string `json:"totalReceived"`
	Available     string `json:"available"`
}

func NewMovementResponse(m *treasury.CashMovement) MovementResponse {
	return MovementResponse{
		ID:          strconv.FormatInt(m.ID, 10),
		Kind:        string(m.Kind),
		Amount:      formatMoney(m.Amount),
		Description: m.Description,
		OccurredAt:  m.OccurredAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func NewBalanceResponse(b treasury.Balance) BalanceResponse {
	return BalanceResponse{
		Contributions: formatMoney(b.Contributions),
		Withdrawals:   formatMoney(b.Withdrawals),
		PrincipalLent: formatMoney(b.PrincipalLent),
		TotalReceived: formatMoney(b.TotalReceived),
		Available:     formatMoney(b.Available),
	}
}
