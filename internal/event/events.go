package event

import "time"

type LoanCreatedEvent struct {
	LoanID         int64     `json:"loanId"`
	ContractNumber int64     `json:"contractNumber"`
	CustomerID     int64     `json:"customerId"`
	Principal      float64   `json:"principal"`
	Installments   int       `json:"installments"`
	Timestamp      time.Time `json:"timestamp"`
}

type InstallmentPaidEvent struct {
	LoanID            int64     `json:"loanId"`
	InstallmentNumber int       `json:"installmentNumber"`
	Amount            float64   `json:"amount"`
	Penalty           float64   `json:"penalty"`
	Partial           bool      `json:"partial"`
	PaidAt            time.Time `json:"paidAt"`
	Timestamp         time.Time `json:"timestamp"`
}

type InstallmentReversedEvent struct {
	LoanID            int64     `json:"loanId"`
	InstallmentNumber int       `json:"installmentNumber"`
	Timestamp         time.Time `json:"timestamp"`
}

type CustomerDelinquencyChangedEvent struct {
	CustomerID int64     `json:"customerId"`
	NewStatus  bool      `json:"newStatus"`
	OldStatus  bool      `json:"oldStatus"`
	Timestamp  time.Time `json:"timestamp"`
}
