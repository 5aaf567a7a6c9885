package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lending-engine/internal/domain/customer"
	"lending-engine/internal/domain/loan"
	"lending-engine/internal/infrastructure/monitoring"
)

// OverdueSweepJob walks every loan once a day, refreshes the overdue
// gauges, and flips the per-customer delinquency flag to match the
// derived state of their installments. Installment and loan status are
// never written; only the customer flag is stored.
type OverdueSweepJob struct {
	loanRepo        loan.Repository
	customerService customer.CustomerService
	logger          *slog.Logger
}

func NewOverdueSweepJob(
	loanRepo loan.Repository,
	customerSvc customer.CustomerService,
	logger *slog.Logger,
) *OverdueSweepJob {
	if loanRepo == nil || customerSvc == nil || logger == nil {
		panic("OverdueSweepJob dependencies cannot be nil")
	}
	return &OverdueSweepJob{
		loanRepo:        loanRepo,
		customerService: customerSvc,
		logger:          logger.With("job", "OverdueSweep"),
	}
}

func (j *OverdueSweepJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting daily overdue sweep job.")

	loans, err := j.loanRepo.ListLoans(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to list loans, aborting job.", slog.Any("error", err))
		return fmt.Errorf("cannot run job, failed to list loans: %w", err)
	}
	j.logger.InfoContext(ctx, "Fetched loans.", slog.Int("count", len(loans)))

	now := time.Now()
	overdueInstallments := 0
	customerOverdue := map[int64]bool{}

	for li := range loans {
		l := &loans[li]
		if _, seen := customerOverdue[l.CustomerID]; !seen {
			customerOverdue[l.CustomerID] = false
		}
		for _, inst := range l.Installments {
			if loan.IsOverdue(inst, now) {
				overdueInstallments++
				customerOverdue[l.CustomerID] = true
			}
		}
	}

	var updatedCount, errorCount, delinquentCount int

	for customerID, isOverdue := range customerOverdue {
		if isOverdue {
			delinquentCount++
		}

		logCtx := j.logger.With(slog.Int64("customerID", customerID))

		cust, custErr := j.customerService.GetCustomer(ctx, customerID)
		if custErr != nil {
			if errors.Is(custErr, customer.ErrNotFound) {
				logCtx.WarnContext(ctx, "No customer found for loan (data inconsistency?)", slog.Any("error", custErr))
			} else {
				logCtx.ErrorContext(ctx, "Failed to fetch customer", slog.Any("error", custErr))
				errorCount++
			}
			continue
		}

		if cust.IsDelinquent == isOverdue {
			logCtx.DebugContext(ctx, "Customer delinquency flag already correct.", slog.Bool("status", isOverdue))
			continue
		}

		logCtx.InfoContext(ctx, "Updating customer delinquency flag.", slog.Bool("new_status", isOverdue))
		if updateErr := j.customerService.UpdateDelinquency(ctx, customerID, isOverdue); updateErr != nil {
			logCtx.ErrorContext(ctx, "Failed to update customer delinquency flag", slog.Any("error", updateErr))
			errorCount++
			continue
		}
		updatedCount++
	}

	monitoring.SetOverdueInstallments(overdueInstallments)
	monitoring.SetDelinquentCustomers(delinquentCount)

	summaryLog := j.logger.With(
		slog.Duration("duration", time.Since(startTime)),
		slog.Int("loans_scanned", len(loans)),
		slog.Int("overdue_installments", overdueInstallments),
		slog.Int("delinquent_customers", delinquentCount),
		slog.Int("customers_updated", updatedCount),
		slog.Int("errors_encountered", errorCount),
	)
	if errorCount > 0 {
		summaryLog.WarnContext(ctx, "Overdue sweep job finished with errors.")
		return fmt.Errorf("job completed with %d errors", errorCount)
	}
	summaryLog.InfoContext(ctx, "Overdue sweep job finished successfully.")
	return nil
}
