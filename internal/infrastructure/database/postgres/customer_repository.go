package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"lending-engine/internal/domain/customer"
	"lending-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
)

type CustomerRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ customer.CustomerRepository = (*CustomerRepository)(nil)

func NewCustomerRepository(db DBPool, logger *slog.Logger) *CustomerRepository {
	if db == nil {
		panic("DBPool cannot be nil for CustomerRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerRepository, using default stderr handler")
	}
	return &CustomerRepository{
		db:     db,
		logger: logger.With("component", "CustomerRepository"),
	}
}

func (r *CustomerRepository) Save(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	r.logger.InfoContext(ctx, "Attempting to insert new customer", slog.String("name", cust.Name))

	query := `
        INSERT INTO customers (name, national_id, phone, email, notes, is_delinquent, active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		cust.Name,
		cust.NationalID,
		cust.Phone,
		cust.Email,
		cust.Notes,
		cust.IsDelinquent,
		cust.Active,
	).Scan(
		&cust.CustomerID,
		&cust.CreateDate,
		&cust.UpdatedAt,
	)
	if err != nil {
		translatedErr := translateDBError(err, r.logger)
		if errors.Is(translatedErr, apperrors.ErrAlreadyExists) {
			r.logger.WarnContext(ctx, "Failed to insert customer due to unique constraint violation", slog.String("national_id", cust.NationalID))
			return fmt.Errorf("%w: %w", translatedErr, customer.ErrDuplicateNationalID)
		}
		r.logger.ErrorContext(ctx, "Failed to insert customer", slog.Any("error", err))
		return fmt.Errorf("%w: failed to insert customer: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Customer inserted successfully", slog.Int64("customerID", cust.CustomerID))
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, customerID int64) (*customer.Customer, error) {
	query := `
        SELECT id, name, national_id, phone, email, notes, is_delinquent, active, created_at, updated_at
        FROM customers WHERE id = $1`

	var cust customer.Customer
	err := r.db.QueryRow(ctx, query, customerID).Scan(
		&cust.CustomerID, &cust.Name, &cust.NationalID, &cust.Phone, &cust.Email,
		&cust.Notes, &cust.IsDelinquent, &cust.Active, &cust.CreateDate, &cust.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query customer", slog.Int64("customerID", customerID), slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query customer: %w", apperrors.ErrDatabase, err)
	}
	return &cust, nil
}

func (r *CustomerRepository) FindByNationalID(ctx context.Context, nationalID string) (*customer.Customer, error) {
	query := `
        SELECT id, name, national_id, phone, email, notes, is_delinquent, active, created_at, updated_at
        FROM customers WHERE national_id = $1`

	var cust customer.Customer
	err := r.db.QueryRow(ctx, query, nationalID).Scan(
		&cust.CustomerID, &cust.Name, &cust.NationalID, &cust.Phone, &cust.Email,
		&cust.Notes, &cust.IsDelinquent, &cust.Active, &cust.CreateDate, &cust.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query customer by national ID", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query customer: %w", apperrors.ErrDatabase, err)
	}
	return &cust, nil
}

func (r *CustomerRepository) FindAll(ctx context.Context, activeOnly bool) ([]*customer.Customer, error) {
	query := `
        SELECT id, name, national_id, phone, email, notes, is_delinquent, active, created_at, updated_at
        FROM customers`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query customers", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query customers: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	var customers []*customer.Customer
	for rows.Next() {
		var cust customer.Customer
		err := rows.Scan(
			&cust.CustomerID, &cust.Name, &cust.NationalID, &cust.Phone, &cust.Email,
			&cust.Notes, &cust.IsDelinquent, &cust.Active, &cust.CreateDate, &cust.UpdatedAt,
		)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan customer row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed to scan customer: %w", apperrors.ErrDatabase, err)
		}
		customers = append(customers, &cust)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: customer rows error: %w", apperrors.ErrDatabase, err)
	}
	return customers, nil
}

func (r *CustomerRepository) UpdateProfile(ctx context.Context, cust *customer.Customer) error {
	query := `
        UPDATE customers
        SET name = $1, phone = $2, email = $3, notes = $4, updated_at = NOW()
        WHERE id = $5`

	cmdTag, err := r.db.Exec(ctx, query, cust.Name, cust.Phone, cust.Email, cust.Notes, cust.CustomerID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update customer profile", slog.Any("error", err))
		return fmt.Errorf("%w: failed to update customer: %w", apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Update affected zero rows, customer likely not found", slog.Int64("customerID", cust.CustomerID))
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *CustomerRepository) SetDelinquencyStatus(ctx context.Context, customerID int64, isDelinquent bool) error {
	return r.setFlag(ctx, `UPDATE customers SET is_delinquent = $1, updated_at = NOW() WHERE id = $2`, isDelinquent, customerID)
}

func (r *CustomerRepository) SetActiveStatus(ctx context.Context, customerID int64, isActive bool) error {
	return r.setFlag(ctx, `UPDATE customers SET active = $1, updated_at = NOW() WHERE id = $2`, isActive, customerID)
}

func (r *CustomerRepository) setFlag(ctx context.Context, query string, value bool, customerID int64) error {
	cmdTag, err := r.db.Exec(ctx, query, value, customerID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update customer flag", slog.Int64("customerID", customerID), slog.Any("error", err))
		return fmt.Errorf("%w: failed to update customer: %w", apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
