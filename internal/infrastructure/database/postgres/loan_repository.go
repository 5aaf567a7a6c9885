package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lending-engine/internal/domain/loan"
	"lending-engine/internal/infrastructure/monitoring"
	"lending-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v4"
)

type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
	Close()
}

var _ DBPool = (*pgxpool.Pool)(nil)

var _ DBPool = (pgxmock.PgxPoolIface)(nil)

var errMsgFormat = "%w: %w"

// contractNumberLockKey serializes contract number issuance across sessions.
// Issuance is max(existing)+1, which would race without the advisory lock;
// the unique constraint on loans.contract_number is the backstop.
const contractNumberLockKey int64 = 7_441_001

type LoanRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	return &LoanRepository{db: db, logger: logger.With("component", "LoanRepository")}
}

func (r *LoanRepository) CreateLoan(ctx context.Context, newLoan *loan.Loan) (*loan.Loan, error) {
	start := time.Now()
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer r.rollback(ctx, tx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, contractNumberLockKey); err != nil {
		r.logger.ErrorContext(ctx, "Failed to take contract number lock", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	var contractNumber int64
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(contract_number) + 1, $1) FROM loans`, int64(loan.ContractNumberBase),
	).Scan(&contractNumber)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to compute next contract number", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	loanSQL := `
        INSERT INTO loans (contract_number, customer_id, principal, interest_rate, installment_count,
                           frequency, method, total_to_return, installment_value, start_date, notes,
                           created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	created := *newLoan
	created.ContractNumber = contractNumber
	err = tx.QueryRow(ctx, loanSQL,
		contractNumber, newLoan.CustomerID, newLoan.Principal, newLoan.InterestRate,
		newLoan.InstallmentCount, newLoan.Frequency, newLoan.Method,
		newLoan.TotalToReturn, newLoan.InstallmentValue, newLoan.StartDate, newLoan.Notes,
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		translated := translateDBError(err, r.logger)
		r.logger.ErrorContext(ctx, "Failed to insert loan", "error", err)
		if errors.Is(translated, apperrors.ErrAlreadyExists) {
			return nil, translated
		}
		return nil, fmt.Errorf("%w: failed to insert loan: %w", apperrors.ErrDatabase, err)
	}

	instSQL := `
        INSERT INTO installments (loan_id, number, due_date, value, status, paid_amount, penalty_paid, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, 0, 0, NOW(), NOW())
        RETURNING id`

	batch := &pgx.Batch{}
	for _, inst := range newLoan.Installments {
		batch.Queue(instSQL, created.ID, inst.Number, inst.DueDate, inst.Value, inst.Status)
	}
	results := tx.SendBatch(ctx, batch)
	for i := range created.Installments {
		if err := results.QueryRow().Scan(&created.Installments[i].ID); err != nil {
			results.Close()
			r.logger.ErrorContext(ctx, "Failed executing installment batch insert", "error", err, "entry_index", i, "loan_id", created.ID)
			return nil, fmt.Errorf("%w: failed inserting installment %d: %w", apperrors.ErrDatabase, i+1, err)
		}
		created.Installments[i].LoanID = created.ID
	}
	if err := results.Close(); err != nil {
		r.logger.ErrorContext(ctx, "Failed closing installment batch", "error", err, "loan_id", created.ID)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit loan creation", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	monitoring.RecordDBQuery("create_loan", "success", time.Since(start))
	r.logger.InfoContext(ctx, "Loan created in DB", "loan_id", created.ID, "contract_number", contractNumber)
	return &created, nil
}

func (r *LoanRepository) GetLoanByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	query := `
        SELECT id, contract_number, customer_id, principal, interest_rate, installment_count,
               frequency, method, total_to_return, installment_value, start_date, notes,
               created_at, updated_at
        FROM loans WHERE id = $1`

	var l loan.Loan
	err := r.db.QueryRow(ctx, query, loanID).Scan(
		&l.ID, &l.ContractNumber, &l.CustomerID, &l.Principal, &l.InterestRate,
		&l.InstallmentCount, &l.Frequency, &l.Method, &l.TotalToReturn,
		&l.InstallmentValue, &l.StartDate, &l.Notes, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: loan %d", apperrors.ErrNotFound, loanID)
		}
		r.logger.ErrorContext(ctx, "Failed to query loan", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	installments, err := r.loadInstallments(ctx, []int64{l.ID})
	if err != nil {
		return nil, err
	}
	l.Installments = installments[l.ID]
	return &l, nil
}

func (r *LoanRepository) ListLoans(ctx context.Context) ([]loan.Loan, error) {
	return r.listLoans(ctx, `
        SELECT id, contract_number, customer_id, principal, interest_rate, installment_count,
               frequency, method, total_to_return, installment_value, start_date, notes,
               created_at, updated_at
        FROM loans ORDER BY contract_number`)
}

func (r *LoanRepository) ListLoansByCustomer(ctx context.Context, customerID int64) ([]loan.Loan, error) {
	return r.listLoans(ctx, `
        SELECT id, contract_number, customer_id, principal, interest_rate, installment_count,
               frequency, method, total_to_return, installment_value, start_date, notes,
               created_at, updated_at
        FROM loans WHERE customer_id = $1 ORDER BY contract_number`, customerID)
}

func (r *LoanRepository) listLoans(ctx context.Context, query string, args ...any) ([]loan.Loan, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query loans", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	var loans []loan.Loan
	var loanIDs []int64
	for rows.Next() {
		var l loan.Loan
		err := rows.Scan(
			&l.ID, &l.ContractNumber, &l.CustomerID, &l.Principal, &l.InterestRate,
			&l.InstallmentCount, &l.Frequency, &l.Method, &l.TotalToReturn,
			&l.InstallmentValue, &l.StartDate, &l.Notes, &l.CreatedAt, &l.UpdatedAt,
		)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan loan row", "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		loans = append(loans, l)
		loanIDs = append(loanIDs, l.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if len(loans) == 0 {
		return loans, nil
	}

	installments, err := r.loadInstallments(ctx, loanIDs)
	if err != nil {
		return nil, err
	}
	for i := range loans {
		loans[i].Installments = installments[loans[i].ID]
	}
	return loans, nil
}

func (r *LoanRepository) loadInstallments(ctx context.Context, loanIDs []int64) (map[int64][]loan.Installment, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, loan_id, number, due_date, value, status, paid_at, paid_amount, penalty_paid, created_at, updated_at
        FROM installments WHERE loan_id = ANY($1) ORDER BY loan_id, number`, loanIDs)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query installments", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	byLoan := make(map[int64][]loan.Installment, len(loanIDs))
	byInstallment := make(map[int64]*loan.Installment)
	var instIDs []int64
	for rows.Next() {
		var inst loan.Installment
		err := rows.Scan(
			&inst.ID, &inst.LoanID, &inst.Number, &inst.DueDate, &inst.Value,
			&inst.Status, &inst.PaidAt, &inst.PaidAmount, &inst.PenaltyPaid,
			&inst.CreatedAt, &inst.UpdatedAt,
		)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan installment row", "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		byLoan[inst.LoanID] = append(byLoan[inst.LoanID], inst)
		instIDs = append(instIDs, inst.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	for loanID := range byLoan {
		for i := range byLoan[loanID] {
			byInstallment[byLoan[loanID][i].ID] = &byLoan[loanID][i]
		}
	}
	if len(instIDs) == 0 {
		return byLoan, nil
	}

	payRows, err := r.db.Query(ctx, `
        SELECT installment_id, amount, paid_at
        FROM installment_payments WHERE installment_id = ANY($1) ORDER BY paid_at, id`, instIDs)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query installment payments", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer payRows.Close()

	for payRows.Next() {
		var instID int64
		var rec loan.PaymentRecord
		if err := payRows.Scan(&instID, &rec.Amount, &rec.PaidAt); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan payment row", "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		if inst, ok := byInstallment[instID]; ok {
			inst.Payments = append(inst.Payments, rec)
		}
	}
	if err := payRows.Err(); err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	return byLoan, nil
}

// UpdateInstallment rewrites one installment and its payment history in a
// single transaction so readers never see the fields torn mid-update.
func (r *LoanRepository) UpdateInstallment(ctx context.Context, loanID int64, inst *loan.Installment) error {
	start := time.Now()
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer r.rollback(ctx, tx)

	var instID int64
	err = tx.QueryRow(ctx, `
        UPDATE installments
        SET status = $1, paid_at = $2, paid_amount = $3, penalty_paid = $4, updated_at = NOW()
        WHERE loan_id = $5 AND number = $6
        RETURNING id`,
		inst.Status, inst.PaidAt, inst.PaidAmount, inst.PenaltyPaid, loanID, inst.Number,
	).Scan(&instID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: installment %d of loan %d", apperrors.ErrNotFound, inst.Number, loanID)
		}
		r.logger.ErrorContext(ctx, "Failed to update installment", "loan_id", loanID, "number", inst.Number, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM installment_payments WHERE installment_id = $1`, instID); err != nil {
		r.logger.ErrorContext(ctx, "Failed to clear payment records", "installment_id", instID, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	if len(inst.Payments) > 0 {
		batch := &pgx.Batch{}
		for _, rec := range inst.Payments {
			batch.Queue(`INSERT INTO installment_payments (installment_id, amount, paid_at) VALUES ($1, $2, $3)`,
				instID, rec.Amount, rec.PaidAt)
		}
		results := tx.SendBatch(ctx, batch)
		for i := 0; i < len(inst.Payments); i++ {
			if _, err := results.Exec(); err != nil {
				results.Close()
				r.logger.ErrorContext(ctx, "Failed inserting payment record", "installment_id", instID, "error", err)
				return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
			}
		}
		if err := results.Close(); err != nil {
			return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit installment update", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	monitoring.RecordDBQuery("update_installment", "success", time.Since(start))
	return nil
}

func (r *LoanRepository) HasOpenLoans(ctx context.Context, customerID int64) (bool, error) {
	var hasOpen bool
	err := r.db.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM loans l
            JOIN installments i ON i.loan_id = l.id
            WHERE l.customer_id = $1 AND i.status = 'PENDING'
        )`, customerID).Scan(&hasOpen)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to check open loans", "customer_id", customerID, "error", err)
		return false, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return hasOpen, nil
}

func (r *LoanRepository) rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		r.logger.ErrorContext(ctx, "Failed to rollback transaction", "error", err)
	}
}

func translateDBError(err error, contextLogger *slog.Logger) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			contextLogger.Warn("Database unique constraint violation", "detail", pgErr.Detail, "constraint", pgErr.ConstraintName)
			return fmt.Errorf("%w: %s", apperrors.ErrAlreadyExists, pgErr.ConstraintName)
		}

		contextLogger.Error("PostgreSQL specific error", "code", pgErr.Code, "message", pgErr.Message, "detail", pgErr.Detail)
		return fmt.Errorf("%w: db error code %s", apperrors.ErrDatabase, pgErr.Code)
	}

	contextLogger.Error("Generic database error", "error", err)
	return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
}
