package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"lending-engine/internal/domain/treasury"
	"lending-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
)

type TreasuryRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ treasury.Repository = (*TreasuryRepository)(nil)

func NewTreasuryRepository(db DBPool, logger *slog.Logger) *TreasuryRepository {
	if db == nil {
		panic("DBPool cannot be nil for TreasuryRepository")
	}
	return &TreasuryRepository{
		db:     db,
		logger: logger.With("component", "TreasuryRepository"),
	}
}

func (r *TreasuryRepository) SaveMovement(ctx context.Context, m *treasury.CashMovement) error {
	query := `
        INSERT INTO cash_movements (kind, amount, description, occurred_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, m.Kind, m.Amount, m.Description, m.OccurredAt).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert cash movement", slog.Any("error", err))
		return fmt.Errorf("%w: failed to insert cash movement: %w", apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *TreasuryRepository) FindMovementByID(ctx context.Context, movementID int64) (*treasury.CashMovement, error) {
	query := `
        SELECT id, kind, amount, description, occurred_at, created_at, updated_at
        FROM cash_movements WHERE id = $1`

	var m treasury.CashMovement
	err := r.db.QueryRow(ctx, query, movementID).Scan(
		&m.ID, &m.Kind, &m.Amount, &m.Description, &m.OccurredAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, treasury.ErrMovementNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query cash movement", slog.Int64("movementID", movementID), slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query cash movement: %w", apperrors.ErrDatabase, err)
	}
	return &m, nil
}

func (r *TreasuryRepository) FindAllMovements(ctx context.Context) ([]treasury.CashMovement, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, kind, amount, description, occurred_at, created_at, updated_at
        FROM cash_movements ORDER BY occurred_at, id`)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query cash movements", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query cash movements: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	var movements []treasury.CashMovement
	for rows.Next() {
		var m treasury.CashMovement
		err := rows.Scan(&m.ID, &m.Kind, &m.Amount, &m.Description, &m.OccurredAt, &m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan cash movement row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed to scan cash movement: %w", apperrors.ErrDatabase, err)
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: cash movement rows error: %w", apperrors.ErrDatabase, err)
	}
	return movements, nil
}

func (r *TreasuryRepository) UpdateMovement(ctx context.Context, m *treasury.CashMovement) error {
	query := `
        UPDATE cash_movements
        SET kind = $1, amount = $2, description = $3, updated_at = NOW()
        WHERE id = $4`

	cmdTag, err := r.db.Exec(ctx, query, m.Kind, m.Amount, m.Description, m.ID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update cash movement", slog.Int64("movementID", m.ID), slog.Any("error", err))
		return fmt.Errorf("%w: failed to update cash movement: %w", apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return treasury.ErrMovementNotFound
	}
	return nil
}

func (r *TreasuryRepository) DeleteMovement(ctx context.Context, movementID int64) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM cash_movements WHERE id = $1`, movementID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete cash movement", slog.Int64("movementID", movementID), slog.Any("error", err))
		return fmt.Errorf("%w: failed to delete cash movement: %w", apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return treasury.ErrMovementNotFound
	}
	return nil
}
