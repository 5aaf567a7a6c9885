package treasury

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"lending-engine/internal/domain/loan"
	"lending-engine/internal/infrastructure/monitoring"
	"lending-engine/internal/pkg/apperrors"
)

type TreasuryService interface {
	RecordMovement(ctx context.Context, kind MovementKind, amount float64, description string, occurredAt time.Time) (*CashMovement, error)
	ListMovements(ctx context.Context) ([]CashMovement, error)
	UpdateMovement(ctx context.Context, movementID int64, kind MovementKind, amount float64, description string) (*CashMovement, error)
	DeleteMovement(ctx context.Context, movementID int64) error
	ComputeBalance(ctx context.Context) (Balance, error)
	RecordReceipt(ctx context.Context, amount float64, description string, receivedAt time.Time) error
}

// LoanLister supplies the loan snapshot the balance terms are summed over.
type LoanLister interface {
	ListLoans(ctx context.Context) ([]loan.Loan, error)
}

var _ TreasuryService = (*treasuryService)(nil)

type treasuryService struct {
	repo   Repository
	loans  LoanLister
	logger *slog.Logger
}

func NewTreasuryService(repo Repository, loans LoanLister, logger *slog.Logger) TreasuryService {
	if repo == nil {
		panic("treasury repository cannot be nil")
	}
	if loans == nil {
		panic("loan lister cannot be nil")
	}
	return &treasuryService{
		repo:   repo,
		loans:  loans,
		logger: logger.With(slog.String("component", "treasuryService")),
	}
}

func (s *treasuryService) RecordMovement(ctx context.Context, kind MovementKind, amount float64, description string, occurredAt time.Time) (*CashMovement, error) {
	movement, err := NewCashMovement(kind, amount, description, occurredAt)
	if err != nil {
		s.logger.WarnContext(ctx, "Rejected cash movement", slog.Any("error", err))
		return nil, err
	}

	if err := s.repo.SaveMovement(ctx, movement); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save cash movement", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save cash movement: %w", err)
	}

	monitoring.RecordCashMovement(string(movement.Kind))
	s.logger.InfoContext(ctx, "Cash movement recorded",
		slog.Int64("movementID", movement.ID), slog.String("kind", string(movement.Kind)))
	return movement, nil
}

func (s *treasuryService) ListMovements(ctx context.Context) ([]CashMovement, error) {
	movements, err := s.repo.FindAllMovements(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list cash movements", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list cash movements: %w", err)
	}
	return movements, nil
}

func (s *treasuryService) UpdateMovement(ctx context.Context, movementID int64, kind MovementKind, amount float64, description string) (*CashMovement, error) {
	existing, err := s.repo.FindMovementByID(ctx, movementID)
	if err != nil {
		if errors.Is(err, ErrMovementNotFound) || errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: cash movement %d", apperrors.ErrNotFound, movementID)
		}
		s.logger.ErrorContext(ctx, "Failed to load cash movement", slog.Int64("movementID", movementID), slog.Any("error", err))
		return nil, fmt.Errorf("failed to load cash movement %d: %w", movementID, err)
	}

	if kind != KindContribution && kind != KindWithdrawal {
		return nil, fmt.Errorf("%w: unknown movement kind %q", apperrors.ErrInvalidArgument, kind)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: movement amount must be greater than zero", apperrors.ErrInvalidArgument)
	}

	existing.Kind = kind
	existing.Amount = amount
	existing.Description = strings.TrimSpace(description)
	existing.UpdatedAt = time.Now()

	if err := s.repo.UpdateMovement(ctx, existing); err != nil {
		s.logger.ErrorContext(ctx, "Failed to update cash movement", slog.Int64("movementID", movementID), slog.Any("error", err))
		return nil, fmt.Errorf("failed to update cash movement %d: %w", movementID, err)
	}

	s.logger.InfoContext(ctx, "Cash movement updated", slog.Int64("movementID", movementID))
	return existing, nil
}

func (s *treasuryService) DeleteMovement(ctx context.Context, movementID int64) error {
	if err := s.repo.DeleteMovement(ctx, movementID); err != nil {
		if errors.Is(err, ErrMovementNotFound) || errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: cash movement %d", apperrors.ErrNotFound, movementID)
		}
		s.logger.ErrorContext(ctx, "Failed to delete cash movement", slog.Int64("movementID", movementID), slog.Any("error", err))
		return fmt.Errorf("failed to delete cash movement %d: %w", movementID, err)
	}

	s.logger.InfoContext(ctx, "Cash movement deleted", slog.Int64("movementID", movementID))
	return nil
}

func (s *treasuryService) ComputeBalance(ctx context.Context) (Balance, error) {
	movements, err := s.repo.FindAllMovements(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load cash movements for balance", slog.Any("error", err))
		return Balance{}, fmt.Errorf("failed to load cash movements: %w", err)
	}

	loans, err := s.loans.ListLoans(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load loans for balance", slog.Any("error", err))
		return Balance{}, fmt.Errorf("failed to load loans: %w", err)
	}

	return ComputeBalance(movements, loans), nil
}

// RecordReceipt logs an installment receipt as a contribution. The loan
// service calls this only when treasury.autoLogReceipts is enabled.
func (s *treasuryService) RecordReceipt(ctx context.Context, amount float64, description string, receivedAt time.Time) error {
	_, err := s.RecordMovement(ctx, KindContribution, amount, description, receivedAt)
	return err
}
