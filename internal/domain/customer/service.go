package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"lending-engine/internal/event"
	"lending-engine/internal/pkg/apperrors"
)

type CustomerService interface {
	CreateNewCustomer(ctx context.Context, name, nationalID, phone, email string) (*Customer, error)
	GetCustomer(ctx context.Context, customerID int64) (*Customer, error)
	ListCustomers(ctx context.Context, activeOnly bool) ([]*Customer, error)
	UpdateCustomerProfile(ctx context.Context, customerID int64, name, phone, email, notes string) (*Customer, error)
	UpdateDelinquency(ctx context.Context, customerID int64, isDelinquent bool) error
	DeactivateCustomer(ctx context.Context, customerID int64) error
}

// OpenLoanChecker answers whether a customer still has a loan that is not
// fully settled. The loan aggregate implements it; declaring it here keeps
// this package free of a dependency on that one.
type OpenLoanChecker interface {
	HasOpenLoans(ctx context.Context, customerID int64) (bool, error)
}

var _ CustomerService = (*customerService)(nil)

type customerService struct {
	repo      CustomerRepository
	loanCheck OpenLoanChecker
	pub       event.Publisher
	logger    *slog.Logger
}

func NewCustomerService(repo CustomerRepository, loanCheck OpenLoanChecker, pub event.Publisher, logger *slog.Logger) CustomerService {
	if repo == nil {
		panic("customer repository cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerService, using default stderr handler")
	}
	if pub == nil {
		pub = event.NoopPublisher{}
	}

	return &customerService{
		repo:      repo,
		loanCheck: loanCheck,
		pub:       pub,
		logger:    logger.With(slog.String("component", "customerService")),
	}
}

func (s *customerService) CreateNewCustomer(ctx context.Context, name, nationalID, phone, email string) (*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to create new customer")

	name = strings.TrimSpace(name)
	if name == "" {
		s.logger.WarnContext(ctx, "Validation failed: name is empty")
		return nil, apperrors.NewValidationError("name", "cannot be empty")
	}
	if !ValidateNationalID(nationalID) {
		s.logger.WarnContext(ctx, "Validation failed: national ID checksum rejected")
		return nil, apperrors.NewValidationError("nationalId", "invalid national identity number")
	}
	nationalID = NormalizeNationalID(nationalID)

	existing, err := s.repo.FindByNationalID(ctx, nationalID)
	if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, apperrors.ErrNotFound) {
		s.logger.ErrorContext(ctx, "Failed to check for duplicate national ID", slog.Any("error", err))
		return nil, fmt.Errorf("failed to check for duplicate national ID: %w", err)
	}
	if existing != nil {
		s.logger.WarnContext(ctx, "Duplicate national ID", slog.Int64("existingCustomerID", existing.CustomerID))
		return nil, fmt.Errorf("%w: %w", apperrors.ErrAlreadyExists, ErrDuplicateNationalID)
	}

	cust := NewCustomer(name, nationalID, strings.TrimSpace(phone), strings.TrimSpace(email))
	if err := s.repo.Save(ctx, cust); err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to save new customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save new customer: %w", err)
	}

	s.logger.InfoContext(ctx, "Successfully saved new customer", slog.Int64("customerID", cust.CustomerID))
	return cust, nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	if customerID <= 0 {
		return nil, fmt.Errorf("%w: customerID must be positive", apperrors.ErrInvalidArgument)
	}

	cust, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Customer not found", slog.Int64("customerID", customerID))
			return nil, fmt.Errorf("%w: customer %d", apperrors.ErrNotFound, customerID)
		}
		s.logger.ErrorContext(ctx, "Failed to get customer", slog.Int64("customerID", customerID), slog.Any("error", err))
		return nil, fmt.Errorf("failed to get customer %d: %w", customerID, err)
	}
	return cust, nil
}

func (s *customerService) ListCustomers(ctx context.Context, activeOnly bool) ([]*Customer, error) {
	customers, err := s.repo.FindAll(ctx, activeOnly)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list customers", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}

func (s *customerService) UpdateCustomerProfile(ctx context.Context, customerID int64, name, phone, email, notes string) (*Customer, error) {
	cust, err := s.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name", "cannot be empty")
	}

	// The national ID is never editable once the customer is referenced by
	// a loan; profile fields are.
	cust.UpdateProfile(name, strings.TrimSpace(phone), strings.TrimSpace(email), notes)
	if err := s.repo.UpdateProfile(ctx, cust); err != nil {
		s.logger.ErrorContext(ctx, "Failed to update customer profile", slog.Int64("customerID", customerID), slog.Any("error", err))
		return nil, fmt.Errorf("failed to update customer profile: %w", err)
	}

	s.logger.InfoContext(ctx, "Customer profile updated", slog.Int64("customerID", customerID))
	return cust, nil
}

func (s *customerService) UpdateDelinquency(ctx context.Context, customerID int64, isDelinquent bool) error {
	cust, err := s.GetCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	if cust.IsDelinquent == isDelinquent {
		return nil
	}

	if err := s.repo.SetDelinquencyStatus(ctx, customerID, isDelinquent); err != nil {
		s.logger.ErrorContext(ctx, "Failed to update delinquency status", slog.Int64("customerID", customerID), slog.Any("error", err))
		return fmt.Errorf("failed to update delinquency status: %w", err)
	}

	evt := event.CustomerDelinquencyChangedEvent{
		CustomerID: customerID,
		NewStatus:  isDelinquent,
		OldStatus:  cust.IsDelinquent,
		Timestamp:  time.Now(),
	}
	if err := s.pub.PublishCustomerDelinquencyChanged(ctx, evt); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish delinquency change event", slog.Any("error", err))
	}

	s.logger.InfoContext(ctx, "Customer delinquency updated",
		slog.Int64("customerID", customerID), slog.Bool("isDelinquent", isDelinquent))
	return nil
}

func (s *customerService) DeactivateCustomer(ctx context.Context, customerID int64) error {
	cust, err := s.GetCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	if !cust.Active {
		return nil
	}

	if s.loanCheck != nil {
		hasOpen, err := s.loanCheck.HasOpenLoans(ctx, customerID)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to check open loans before deactivation", slog.Any("error", err))
			return fmt.Errorf("failed to check open loans: %w", err)
		}
		if hasOpen {
			s.logger.WarnContext(ctx, "Refusing to deactivate customer with open loans", slog.Int64("customerID", customerID))
			return fmt.Errorf("%w: %w", apperrors.ErrConflict, ErrCannotDeactivateWithOpenLoans)
		}
	}

	if err := s.repo.SetActiveStatus(ctx, customerID, false); err != nil {
		s.logger.ErrorContext(ctx, "Failed to deactivate customer", slog.Int64("customerID", customerID), slog.Any("error", err))
		return fmt.Errorf("failed to deactivate customer: %w", err)
	}

	s.logger.InfoContext(ctx, "Customer deactivated", slog.Int64("customerID", customerID))
	return nil
}
