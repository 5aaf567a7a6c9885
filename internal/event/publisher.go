package event

import "context"

type Publisher interface {
	PublishLoanCreated(ctx context.Context, event LoanCreatedEvent) error
	PublishInstallmentPaid(ctx context.Context, event InstallmentPaidEvent) error
	PublishInstallmentReversed(ctx context.Context, event InstallmentReversedEvent) error
	PublishCustomerDelinquencyChanged(ctx context.Context, event CustomerDelinquencyChangedEvent) error
}

// NoopPublisher stands in when the broker is disabled in configuration.
type NoopPublisher struct{}

func (NoopPublisher) PublishLoanCreated(context.Context, LoanCreatedEvent) error { return nil }

func (NoopPublisher) PublishInstallmentPaid(context.Context, InstallmentPaidEvent) error { return nil }

func (NoopPublisher) PublishInstallmentReversed(context.Context, InstallmentReversedEvent) error {
	return nil
}

func (NoopPublisher) PublishCustomerDelinquencyChanged(context.Context, CustomerDelinquencyChangedEvent) error {
	return nil
}
