package loan

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"lending-engine/internal/domain/customer"
	"lending-engine/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, nil))

type MockRepository struct {
	mock.Mock
}

func (_m *MockRepository) CreateLoan(ctx context.Context, newLoan *Loan) (*Loan, error) {
	ret := _m.Called(ctx, newLoan)

	var r0 *Loan
	if rf, ok := ret.Get(0).(func(context.Context, *Loan) *Loan); ok {
		r0 = rf(ctx, newLoan)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*Loan)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, *Loan) error); ok {
		r1 = rf(ctx, newLoan)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

func (_m *MockRepository) GetLoanByID(ctx context.Context, loanID int64) (*Loan, error) {
	ret := _m.Called(ctx, loanID)

	var r0 *Loan
	if rf, ok := ret.Get(0).(func(context.Context, int64) *Loan); ok {
		r0 = rf(ctx, loanID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*Loan)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, int64) error); ok {
		r1 = rf(ctx, loanID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

func (_m *MockRepository) ListLoans(ctx context.Context) ([]Loan, error) {
	ret := _m.Called(ctx)

	var r0 []Loan
	if rf, ok := ret.Get(0).(func(context.Context) []Loan); ok {
		r0 = rf(ctx)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]Loan)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context) error); ok {
		r1 = rf(ctx)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

func (_m *MockRepository) ListLoansByCustomer(ctx context.Context, customerID int64) ([]Loan, error) {
	ret := _m.Called(ctx, customerID)

	var r0 []Loan
	if rf, ok := ret.Get(0).(func(context.Context, int64) []Loan); ok {
		r0 = rf(ctx, customerID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]Loan)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, int64) error); ok {
		r1 = rf(ctx, customerID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

func (_m *MockRepository) UpdateInstallment(ctx context.Context, loanID int64, inst *Installment) error {
	ret := _m.Called(ctx, loanID, inst)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, int64, *Installment) error); ok {
		r0 = rf(ctx, loanID, inst)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

func (_m *MockRepository) HasOpenLoans(ctx context.Context, customerID int64) (bool, error) {
	ret := _m.Called(ctx, customerID)

	var r0 bool
	if rf, ok := ret.Get(0).(func(context.Context, int64) bool); ok {
		r0 = rf(ctx, customerID)
	} else {
		r0 = ret.Bool(0)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, int64) error); ok {
		r1 = rf(ctx, customerID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

type MockCustomerService struct {
	mock.Mock
}

func (_m *MockCustomerService) CreateNewCustomer(ctx context.Context, name string, nationalID string, phone string, email string) (*customer.Customer, error) {
	ret := _m.Called(ctx, name, nationalID, phone, email)

	var r0 *customer.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*customer.Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerService) GetCustomer(ctx context.Context, customerID int64) (*customer.Customer, error) {
	ret := _m.Called(ctx, customerID)

	var r0 *customer.Customer
	if rf, ok := ret.Get(0).(func(context.Context, int64) *customer.Customer); ok {
		r0 = rf(ctx, customerID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*customer.Customer)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, int64) error); ok {
		r1 = rf(ctx, customerID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

func (_m *MockCustomerService) ListCustomers(ctx context.Context, activeOnly bool) ([]*customer.Customer, error) {
	ret := _m.Called(ctx, activeOnly)

	var r0 []*customer.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*customer.Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerService) UpdateCustomerProfile(ctx context.Context, customerID int64, name string, phone string, email string, notes string) (*customer.Customer, error) {
	ret := _m.Called(ctx, customerID, name, phone, email, notes)

	var r0 *customer.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*customer.Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerService) UpdateDelinquency(ctx context.Context, customerID int64, isDelinquent bool) error {
	ret := _m.Called(ctx, customerID, isDelinquent)
	return ret.Error(0)
}

func (_m *MockCustomerService) DeactivateCustomer(ctx context.Context, customerID int64) error {
	ret := _m.Called(ctx, customerID)
	return ret.Error(0)
}

type MockReceiptRecorder struct {
	mock.Mock
}

func (_m *MockReceiptRecorder) RecordReceipt(ctx context.Context, amount float64, description string, receivedAt time.Time) error {
	ret := _m.Called(ctx, amount, description, receivedAt)
	return ret.Error(0)
}

func newTestService(repo *MockRepository, cs *MockCustomerService) LoanService {
	return NewLoanService(repo, cs, nil, false, nil, logger)
}

func serviceLoan(t *testing.T, id int64) *Loan {
	t.Helper()
	l, err := NewLoan(1, baseTerms(), "")
	assert.NoError(t, err)
	l.ID = id
	l.ContractNumber = 1000 + id
	return l
}

func TestCreateLoan(t *testing.T) {
	ctx := context.Background()
	customerID := int64(1)

	t.Run("creates loan for active customer", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockCustomerService := new(MockCustomerService)
		service := newTestService(mockRepo, mockCustomerService)

		created := serviceLoan(t, 7)
		mockCustomerService.On("GetCustomer", ctx, customerID).Return(&customer.Customer{CustomerID: customerID, Active: true}, nil)
		mockRepo.On("CreateLoan", ctx, mock.Anything).Return(created, nil)

		result, err := service.CreateLoan(ctx, customerID, baseTerms(), "first loan")

		assert.NoError(t, err)
		assert.Equal(t, created, result)
		mockRepo.AssertExpectations(t)
		mockCustomerService.AssertExpectations(t)
	})

	t.Run("rejects inactive customer", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockCustomerService := new(MockCustomerService)
		service := newTestService(mockRepo, mockCustomerService)

		mockCustomerService.On("GetCustomer", ctx, customerID).Return(&customer.Customer{CustomerID: customerID, Active: false}, nil)

		result, err := service.CreateLoan(ctx, customerID, baseTerms(), "")

		assert.Nil(t, result)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		mockRepo.AssertNotCalled(t, "CreateLoan", mock.Anything, mock.Anything)
	})

	t.Run("unknown customer becomes a validation error", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockCustomerService := new(MockCustomerService)
		service := newTestService(mockRepo, mockCustomerService)

		mockCustomerService.On("GetCustomer", ctx, customerID).Return(nil, apperrors.ErrNotFound)

		result, err := service.CreateLoan(ctx, customerID, baseTerms(), "")

		assert.Nil(t, result)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("degenerate terms are refused before the repository", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockCustomerService := new(MockCustomerService)
		service := newTestService(mockRepo, mockCustomerService)

		mockCustomerService.On("GetCustomer", ctx, customerID).Return(&customer.Customer{CustomerID: customerID, Active: true}, nil)

		terms := baseTerms()
		terms.Principal = 0
		result, err := service.CreateLoan(ctx, customerID, terms, "")

		assert.Nil(t, result)
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
		mockRepo.AssertNotCalled(t, "CreateLoan", mock.Anything, mock.Anything)
	})

	t.Run("repository failure surfaces as internal error", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockCustomerService := new(MockCustomerService)
		service := newTestService(mockRepo, mockCustomerService)

		mockCustomerService.On("GetCustomer", ctx, customerID).Return(&customer.Customer{CustomerID: customerID, Active: true}, nil)
		mockRepo.On("CreateLoan", ctx, mock.Anything).Return(nil, assert.AnError)

		result, err := service.CreateLoan(ctx, customerID, baseTerms(), "")

		assert.Nil(t, result)
		assert.ErrorIs(t, err, apperrors.ErrInternalServer)
	})
}

func TestGetLoanService(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the stored loan", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo, new(MockCustomerService))

		expected := serviceLoan(t, 7)
		mockRepo.On("GetLoanByID", ctx, int64(7)).Return(expected, nil)

		result, err := service.GetLoan(ctx, 7)

		assert.NoError(t, err)
		assert.Equal(t, expected, result)
		mockRepo.AssertExpectations(t)
	})

	t.Run("not found passes through", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo, new(MockCustomerService))

		mockRepo.On("GetLoanByID", ctx, int64(404)).Return(nil, apperrors.ErrNotFound)

		result, err := service.GetLoan(ctx, 404)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestListLoansService(t *testing.T) {
	ctx := context.Background()

	settled := serviceLoan(t, 1)
	for _, inst := range settled.Installments {
		assert.NoError(t, settled.Settle(inst.Number, inst.DueDate))
	}
	active := serviceLoan(t, 2)
	active.StartDate = time.Now()
	for i := range active.Installments {
		active.Installments[i].DueDate = time.Now().AddDate(0, 0, 7*(i+1))
	}

	t.Run("empty status returns everything", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo, new(MockCustomerService))

		mockRepo.On("ListLoans", ctx).Return([]Loan{*settled, *active}, nil)

		result, err := service.ListLoans(ctx, "")

		assert.NoError(t, err)
		assert.Len(t, result, 2)
	})

	t.Run("filters by derived status", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo, new(MockCustomerService))

		mockRepo.On("ListLoans", ctx).Return([]Loan{*settled, *active}, nil)

		result, err := service.ListLoans(ctx, StatusSettled)

		assert.NoError(t, err)
		assert.Len(t, result, 1)
		assert.Equal(t, int64(1), result[0].ID)
	})
}

func TestSettleInstallmentService(t *testing.T) {
	ctx := context.Background()

	t.Run("settles and persists the installment", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo, new(MockCustomerService))

		l := serviceLoan(t, 7)
		asOf := l.Installments[0].DueDate
		mockRepo.On("GetLoanByID", ctx, int64(7)).Return(l, nil)
		mockRepo.On("UpdateInstallment", ctx, int64(7), mock.Anything).Return(nil)

		result, err := service.SettleInstallment(ctx, 7, 1, asOf)

		assert.NoError(t, err)
		inst, _ := result.Installment(1)
		assert.Equal(t, InstallmentPaid, inst.Status)
		assert.Equal(t, Money(262.5), inst.PaidAmount)
		mockRepo.AssertExpectations(t)
	})

	t.Run("double settlement is rejected without persisting", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo, new(MockCustomerService))

		l := serviceLoan(t, 7)
		assert.NoError(t, l.Settle(1, l.Installments[0].DueDate))
		mockRepo.On("GetLoanByID", ctx, int64(7)).Return(l, nil)

		result, err := service.SettleInstallment(ctx, 7, 1, time.Now())

		assert.Nil(t, result)
		assert.ErrorIs(t, err, apperrors.ErrAlreadySettled)
		mockRepo.AssertNotCalled(t, "UpdateInstallment", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("auto-logs a treasury receipt when enabled", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockReceipts := new(MockReceiptRecorder)
		service := NewLoanService(mockRepo, new(MockCustomerService), mockReceipts, true, nil, logger)

		l := serviceLoan(t, 7)
		asOf := l.Installments[0].DueDate
		mockRepo.On("GetLoanByID", ctx, int64(7)).Return(l, nil)
		mockRepo.On("UpdateInstallment", ctx, int64(7), mock.Anything).Return(nil)
		mockReceipts.On("RecordReceipt", ctx, 262.5, mock.Anything, asOf).Return(nil)

		_, err := service.SettleInstallment(ctx, 7, 1, asOf)

		assert.NoError(t, err)
		mockReceipts.AssertExpectations(t)
	})
}

func TestReverseInstallmentService(t *testing.T) {
	ctx := context.Background()

	t.Run("reverses a settled installment", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo, new(MockCustomerService))

		l := serviceLoan(t, 7)
		assert.NoError(t, l.Settle(1, l.Installments[0].DueDate))
		mockRepo.On("GetLoanByID", ctx, int64(7)).Return(l, nil)
		mockRepo.On("UpdateInstallment", ctx, int64(7), mock.Anything).Return(nil)

		result, err := service.ReverseInstallment(ctx, 7, 1)

		assert.NoError(t, err)
		inst, _ := result.Installment(1)
		assert.Equal(t, InstallmentPending, inst.Status)
		assert.Nil(t, inst.PaidAt)
		mockRepo.AssertExpectations(t)
	})

	t.Run("reversing a pending installment is refused", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo, new(MockCustomerService))

		l := serviceLoan(t, 7)
		mockRepo.On("GetLoanByID", ctx, int64(7)).Return(l, nil)

		result, err := service.ReverseInstallment(ctx, 7, 1)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, apperrors.ErrNotSettled)
	})
}

func TestApplyPartialPaymentService(t *testing.T) {
	ctx := context.Background()

	t.Run("records the payment and keeps the installment pending", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo, new(MockCustomerService))

		l := serviceLoan(t, 7)
		asOf := l.StartDate.AddDate(0, 0, 1)
		mockRepo.On("GetLoanByID", ctx, int64(7)).Return(l, nil)
		mockRepo.On("UpdateInstallment", ctx, int64(7), mock.Anything).Return(nil)

		result, err := service.ApplyPartialPayment(ctx, 7, 1, 100, asOf)

		assert.NoError(t, err)
		inst, _ := result.Installment(1)
		assert.Equal(t, InstallmentPending, inst.Status)
		assert.Equal(t, Money(100), inst.PaidAmount)
		mockRepo.AssertExpectations(t)
	})

	t.Run("non-positive amount is rejected", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo, new(MockCustomerService))

		l := serviceLoan(t, 7)
		mockRepo.On("GetLoanByID", ctx, int64(7)).Return(l, nil)

		result, err := service.ApplyPartialPayment(ctx, 7, 1, 0, time.Now())

		assert.Nil(t, result)
		assert.ErrorIs(t, err, apperrors.ErrInvalidPaymentAmount)
		mockRepo.AssertNotCalled(t, "UpdateInstallment", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestScoreCustomer(t *testing.T) {
	ctx := context.Background()
	customerID := int64(1)

	t.Run("scores the customer's loan history", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockCustomerService := new(MockCustomerService)
		service := newTestService(mockRepo, mockCustomerService)

		mockCustomerService.On("GetCustomer", ctx, customerID).Return(&customer.Customer{CustomerID: customerID, Active: true}, nil)
		mockRepo.On("ListLoansByCustomer", ctx, customerID).Return([]Loan{}, nil)

		score, err := service.ScoreCustomer(ctx, customerID)

		assert.NoError(t, err)
		assert.Equal(t, 500, score.Score)
		assert.Equal(t, BandFair, score.Band)
	})

	t.Run("unknown customer fails", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockCustomerService := new(MockCustomerService)
		service := newTestService(mockRepo, mockCustomerService)

		mockCustomerService.On("GetCustomer", ctx, customerID).Return(nil, apperrors.ErrNotFound)

		_, err := service.ScoreCustomer(ctx, customerID)

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		mockRepo.AssertNotCalled(t, "ListLoansByCustomer", mock.Anything, mock.Anything)
	})
}

func TestPortfolioReport(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo, new(MockCustomerService))

	l := serviceLoan(t, 1)
	mockRepo.On("ListLoans", ctx).Return([]Loan{*l}, nil)

	stats, err := service.PortfolioReport(ctx, time.Time{}, time.Time{})

	assert.NoError(t, err)
	assert.Equal(t, Money(1000), stats.TotalLent)
	assert.Equal(t, Money(1050), stats.Outstanding)
	mockRepo.AssertExpectations(t)
}
