package loan

import "context"

type Repository interface {
	// CreateLoan persists the loan with its full schedule and assigns the
	// contract number inside the insert transaction, serializing issuance
	// so concurrent creations cannot collide.
	CreateLoan(ctx context.Context, newLoan *Loan) (*Loan, error)

	GetLoanByID(ctx context.Context, loanID int64) (*Loan, error)

	ListLoans(ctx context.Context) ([]Loan, error)

	ListLoansByCustomer(ctx context.Context, customerID int64) ([]Loan, error)

	// UpdateInstallment writes one installment's fields plus its payment
	// records atomically, as a unit.
	UpdateInstallment(ctx context.Context, loanID int64, inst *Installment) error

	HasOpenLoans(ctx context.Context, customerID int64) (bool, error)
}
