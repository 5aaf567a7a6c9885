package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lending-engine/internal/domain/customer"
	"lending-engine/internal/event"
	"lending-engine/internal/infrastructure/monitoring"
	"lending-engine/internal/pkg/apperrors"
)

type LoanService interface {
	PreviewSchedule(ctx context.Context, terms Terms) (*Schedule, error)

	CreateLoan(ctx context.Context, customerID int64, terms Terms, notes string) (*Loan, error)

	GetLoan(ctx context.Context, loanID int64) (*Loan, error)

	ListLoans(ctx context.Context, status LoanStatus) ([]Loan, error)

	SettleInstallment(ctx context.Context, loanID int64, number int, asOf time.Time) (*Loan, error)

	ReverseInstallment(ctx context.Context, loanID int64, number int) (*Loan, error)

	ApplyPartialPayment(ctx context.Context, loanID int64, number int, amount Money, asOf time.Time) (*Loan, error)

	ScoreCustomer(ctx context.Context, customerID int64) (CreditScore, error)

	PortfolioReport(ctx context.Context, from, to time.Time) (*PortfolioStats, error)
}

// ReceiptRecorder mirrors the one treasury method this service may call
// when auto-logging receipts is enabled, without depending on that package.
type ReceiptRecorder interface {
	RecordReceipt(ctx context.Context, amount float64, description string, receivedAt time.Time) error
}

var _ LoanService = (*loanServiceImpl)(nil)

type loanServiceImpl struct {
	repo            Repository
	customerService customer.CustomerService
	receipts        ReceiptRecorder
	autoLogReceipts bool
	pub             event.Publisher
	logger          *slog.Logger
}

func NewLoanService(r Repository, cs customer.CustomerService, receipts ReceiptRecorder, autoLogReceipts bool, pub event.Publisher, logger *slog.Logger) LoanService {
	if pub == nil {
		pub = event.NoopPublisher{}
	}
	return &loanServiceImpl{
		repo:            r,
		customerService: cs,
		receipts:        receipts,
		autoLogReceipts: autoLogReceipts,
		pub:             pub,
		logger:          logger.With("component", "loanService"),
	}
}

func (s *loanServiceImpl) PreviewSchedule(ctx context.Context, terms Terms) (*Schedule, error) {
	schedule, err := ComputeSchedule(terms)
	if err != nil {
		s.logger.WarnContext(ctx, "Schedule computation refused", slog.Any("error", err))
		return nil, err
	}
	return schedule, nil
}

func (s *loanServiceImpl) CreateLoan(ctx context.Context, customerID int64, terms Terms, notes string) (*Loan, error) {
	s.logger.InfoContext(ctx, "Creating new loan", "customerID", customerID)

	cust, err := s.customerService.GetCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) || errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Customer not found", slog.Any("error", err))
			return nil, fmt.Errorf("%w: customer %d not found", apperrors.ErrValidation, customerID)
		}
		s.logger.ErrorContext(ctx, "Failed to get customer details", slog.Any("error", err))
		return nil, fmt.Errorf("failed to verify customer: %w", err)
	}
	if !cust.Active {
		s.logger.WarnContext(ctx, "Attempted to create loan for inactive customer", "customerID", customerID)
		return nil, fmt.Errorf("%w: customer %d is not active", apperrors.ErrValidation, customerID)
	}

	newLoan, err := NewLoan(customerID, terms, notes)
	if err != nil {
		s.logger.WarnContext(ctx, "Loan refused", slog.Any("error", err))
		return nil, err
	}

	createdLoan, err := s.repo.CreateLoan(ctx, newLoan)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to save loan and schedule", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to save loan and schedule: %v", apperrors.ErrInternalServer, err)
	}

	monitoring.RecordLoanCreated()
	evt := event.LoanCreatedEvent{
		LoanID:         createdLoan.ID,
		ContractNumber: createdLoan.ContractNumber,
		CustomerID:     customerID,
		Principal:      createdLoan.Principal,
		Installments:   createdLoan.InstallmentCount,
		Timestamp:      time.Now(),
	}
	if err := s.pub.PublishLoanCreated(ctx, evt); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish loan created event", slog.Any("error", err))
	}

	s.logger.InfoContext(ctx, "Loan created successfully",
		"loanID", createdLoan.ID, "contractNumber", createdLoan.ContractNumber, "customerID", customerID)
	return createdLoan, nil
}

func (s *loanServiceImpl) GetLoan(ctx context.Context, loanID int64) (*Loan, error) {
	l, err := s.repo.GetLoanByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Loan not found", "loanID", loanID)
			return nil, fmt.Errorf("%w: loan %d", apperrors.ErrNotFound, loanID)
		}
		s.logger.ErrorContext(ctx, "Failed to get loan", "loanID", loanID, slog.Any("error", err))
		return nil, fmt.Errorf("failed to get loan %d: %w", loanID, err)
	}
	return l, nil
}

func (s *loanServiceImpl) ListLoans(ctx context.Context, status LoanStatus) ([]Loan, error) {
	loans, err := s.repo.ListLoans(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list loans", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	if status == "" {
		return loans, nil
	}

	now := time.Now()
	filtered := make([]Loan, 0, len(loans))
	for i := range loans {
		if loans[i].StatusAsOf(now) == status {
			filtered = append(filtered, loans[i])
		}
	}
	return filtered, nil
}

func (s *loanServiceImpl) SettleInstallment(ctx context.Context, loanID int64, number int, asOf time.Time) (*Loan, error) {
	l, err := s.GetLoan(ctx, loanID)
	if err != nil {
		monitoring.RecordPayment("failure_not_found")
		return nil, err
	}
	if asOf.IsZero() {
		asOf = time.Now()
	}

	if err := l.Settle(number, asOf); err != nil {
		monitoring.RecordPayment(paymentFailureStatus(err))
		s.logger.WarnContext(ctx, "Settlement rejected", "loanID", loanID, "installment", number, slog.Any("error", err))
		return nil, err
	}

	inst, _ := l.Installment(number)
	if err := s.repo.UpdateInstallment(ctx, loanID, inst); err != nil {
		monitoring.RecordPayment("failure_internal")
		s.logger.ErrorContext(ctx, "Failed to persist settlement", "loanID", loanID, "installment", number, slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to persist settlement: %v", apperrors.ErrInternalServer, err)
	}

	monitoring.RecordPayment("success")
	s.afterPayment(ctx, l, inst, inst.PaidAmount, false)
	s.logger.InfoContext(ctx, "Installment settled",
		"loanID", loanID, "installment", number, "amount", inst.PaidAmount, "penalty", inst.PenaltyPaid)
	return l, nil
}

func (s *loanServiceImpl) ReverseInstallment(ctx context.Context, loanID int64, number int) (*Loan, error) {
	l, err := s.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if err := l.Reverse(number, time.Now()); err != nil {
		s.logger.WarnContext(ctx, "Reversal rejected", "loanID", loanID, "installment", number, slog.Any("error", err))
		return nil, err
	}

	inst, _ := l.Installment(number)
	if err := s.repo.UpdateInstallment(ctx, loanID, inst); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist reversal", "loanID", loanID, "installment", number, slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to persist reversal: %v", apperrors.ErrInternalServer, err)
	}

	monitoring.RecordReversal()
	evt := event.InstallmentReversedEvent{
		LoanID:            loanID,
		InstallmentNumber: number,
		Timestamp:         time.Now(),
	}
	if err := s.pub.PublishInstallmentReversed(ctx, evt); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish reversal event", slog.Any("error", err))
	}

	s.logger.InfoContext(ctx, "Installment settlement reversed", "loanID", loanID, "installment", number)
	return l, nil
}

func (s *loanServiceImpl) ApplyPartialPayment(ctx context.Context, loanID int64, number int, amount Money, asOf time.Time) (*Loan, error) {
	l, err := s.GetLoan(ctx, loanID)
	if err != nil {
		monitoring.RecordPayment("failure_not_found")
		return nil, err
	}
	if asOf.IsZero() {
		asOf = time.Now()
	}

	if err := l.ApplyPartialPayment(number, amount, asOf); err != nil {
		monitoring.RecordPayment(paymentFailureStatus(err))
		s.logger.WarnContext(ctx, "Partial payment rejected", "loanID", loanID, "installment", number, slog.Any("error", err))
		return nil, err
	}

	inst, _ := l.Installment(number)
	if err := s.repo.UpdateInstallment(ctx, loanID, inst); err != nil {
		monitoring.RecordPayment("failure_internal")
		s.logger.ErrorContext(ctx, "Failed to persist partial payment", "loanID", loanID, "installment", number, slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to persist partial payment: %v", apperrors.ErrInternalServer, err)
	}

	monitoring.RecordPayment("success")
	s.afterPayment(ctx, l, inst, amount, inst.Status != InstallmentPaid)
	s.logger.InfoContext(ctx, "Partial payment applied",
		"loanID", loanID, "installment", number, "amount", amount, "status", inst.Status)
	return l, nil
}

func (s *loanServiceImpl) ScoreCustomer(ctx context.Context, customerID int64) (CreditScore, error) {
	if _, err := s.customerService.GetCustomer(ctx, customerID); err != nil {
		return CreditScore{}, err
	}

	loans, err := s.repo.ListLoansByCustomer(ctx, customerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load loans for scoring", "customerID", customerID, slog.Any("error", err))
		return CreditScore{}, fmt.Errorf("failed to load loans for customer %d: %w", customerID, err)
	}

	return ComputeCreditScore(loans, time.Now()), nil
}

func (s *loanServiceImpl) PortfolioReport(ctx context.Context, from, to time.Time) (*PortfolioStats, error) {
	loans, err := s.repo.ListLoans(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load loans for portfolio report", slog.Any("error", err))
		return nil, fmt.Errorf("failed to load loans: %w", err)
	}

	stats := AggregatePortfolio(loans, from, to, time.Now())
	return &stats, nil
}

// afterPayment handles the side channels of a successful payment: the
// installment paid event and, when enabled, the treasury receipt entry.
func (s *loanServiceImpl) afterPayment(ctx context.Context, l *Loan, inst *Installment, amount Money, partial bool) {
	paidAt := time.Now()
	if inst.PaidAt != nil {
		paidAt = *inst.PaidAt
	}

	evt := event.InstallmentPaidEvent{
		LoanID:            l.ID,
		InstallmentNumber: inst.Number,
		Amount:            amount,
		Penalty:           inst.PenaltyPaid,
		Partial:           partial,
		PaidAt:            paidAt,
		Timestamp:         time.Now(),
	}
	if err := s.pub.PublishInstallmentPaid(ctx, evt); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish installment paid event", slog.Any("error", err))
	}

	if s.autoLogReceipts && s.receipts != nil {
		desc := fmt.Sprintf("Receipt: contract %d installment %d", l.ContractNumber, inst.Number)
		if err := s.receipts.RecordReceipt(ctx, amount, desc, paidAt); err != nil {
			s.logger.ErrorContext(ctx, "Failed to auto-log receipt", slog.Any("error", err))
		}
	}
}

func paymentFailureStatus(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrInvalidPaymentAmount):
		return "failure_amount"
	case errors.Is(err, apperrors.ErrAlreadySettled):
		return "failure_already_settled"
	case errors.Is(err, apperrors.ErrNotFound):
		return "failure_not_found"
	default:
		return "failure_internal"
	}
}
