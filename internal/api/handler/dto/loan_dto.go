package dto

import (
	"fmt"
	"strconv"
	"time"

	"lending-engine/internal/domain/loan"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type CreateLoanRequest struct {
	CustomerID   int64   `json:"customerId"`
	Principal    float64 `json:"principal"`
	InterestRate float64 `json:"interestRate"`
	Installments int     `json:"installments"`
	Frequency    string  `json:"frequency"`
	Method       string  `json:"method"`
	StartDate    string  `json:"startDate"`
	Notes        string  `json:"notes,omitempty"`
}

func (r *CreateLoanRequest) Validate() error {
	if r.CustomerID <= 0 {
		return fmt.Errorf("customerId must be positive")
	}
	return validateTerms(r.Principal, r.InterestRate, r.Installments, r.Frequency, r.Method, r.StartDate)
}

func (r *CreateLoanRequest) Terms() loan.Terms {
	return termsOf(r.Principal, r.InterestRate, r.Installments, r.Frequency, r.Method, r.StartDate)
}

type PreviewScheduleRequest struct {
	Principal    float64 `json:"principal"`
	InterestRate float64 `json:"interestRate"`
	Installments int     `json:"installments"`
	Frequency    string  `json:"frequency"`
	Method       string  `json:"method"`
	StartDate    string  `json:"startDate"`
}

func (r *PreviewScheduleRequest) Validate() error {
	return validateTerms(r.Principal, r.InterestRate, r.Installments, r.Frequency, r.Method, r.StartDate)
}

func (r *PreviewScheduleRequest) Terms() loan.Terms {
	return termsOf(r.Principal, r.InterestRate, r.Installments, r.Frequency, r.Method, r.StartDate)
}

func validateTerms(principal, rate float64, installments int, frequency, method, startDate string) error {
	if principal <= 0 {
		return fmt.Errorf("principal must be greater than zero")
	}
	if rate < 0 {
		return fmt.Errorf("interestRate cannot be negative")
	}
	if installments <= 0 {
		return fmt.Errorf("installments must be positive")
	}
	if loan.ParseFrequency(frequency) == "" {
		return fmt.Errorf("frequency must be one of DAILY, WEEKLY, MONTHLY")
	}
	if loan.ParseInterestMethod(method) == "" {
		return fmt.Errorf("method must be FLAT or AMORTIZED")
	}
	if _, err := time.Parse(dateLayout, startDate); err != nil {
		return fmt.Errorf("invalid startDate format (use YYYY-MM-DD): %w", err)
	}
	return nil
}

func termsOf(principal, rate float64, installments int, frequency, method, startDate string) loan.Terms {
	start, _ := time.Parse(dateLayout, startDate)
	return loan.Terms{
		Principal:    principal,
		InterestRate: rate,
		Installments: installments,
		Frequency:    loan.ParseFrequency(frequency),
		Method:       loan.ParseInterestMethod(method),
		StartDate:    start,
	}
}

type PartialPaymentRequest struct {
	Amount string `json:"amount"`
}

func (r *PartialPaymentRequest) Validate() error {
	if _, err := decimal.NewFromString(r.Amount); err != nil || r.Amount == "" {
		return fmt.Errorf("invalid payment amount: %w", err)
	}
	return nil
}

type LoanResponse struct {
	ID               string                `json:"id"`
	ContractNumber   int64                 `json:"contractNumber"`
	CustomerID       string                `json:"customerId"`
	Principal        string                `json:"principal"`
	InterestRate     string                `json:"interestRate"`
	Installments     int                   `json:"installments"`
	Frequency        string                `json:"frequency"`
	Method           string                `json:"method"`
	TotalToReturn    string                `json:"totalToReturn"`
	InstallmentValue string                `json:"installmentValue"`
	StartDate        string                `json:"startDate"`
	Status           string                `json:"status"`
	Notes            string                `json:"notes,omitempty"`
	CreatedAt        time.Time             `json:"createdAt"`
	UpdatedAt        time.Time             `json:"updatedAt"`
	Schedule         []InstallmentResponse `json:"schedule,omitempty"`
}

type InstallmentResponse struct {
	Number      int        `json:"number"`
	DueDate     string     `json:"dueDate"`
	Value       string     `json:"value"`
	Status      string     `json:"status"`
	Overdue     bool       `json:"overdue"`
	Penalty     string     `json:"penalty"`
	AmountDue   *string    `json:"amountDue,omitempty"`
	PaidAt      *time.Time `json:"paidAt,omitempty"`
	PaidAmount  *string    `json:"paidAmount,omitempty"`
	PenaltyPaid *string    `json:"penaltyPaid,omitempty"`
}

type ScheduleResponse struct {
	TotalToReturn    string                  `json:"totalToReturn"`
	InstallmentValue string                  `json:"installmentValue"`
	TotalInterest    string                  `json:"totalInterest"`
	Entries          []ScheduleEntryResponse `json:"entries"`
}

type ScheduleEntryResponse struct {
	Number  int    `json:"number"`
	DueDate string `json:"dueDate"`
	Value   string `json:"value"`
}

type CreditScoreResponse struct {
	CustomerID string `json:"customerId"`
	Score      int    `json:"score"`
	Band       string `json:"band"`
}

type MonthlyFlowResponse struct {
	Month    string `json:"month"`
	MoneyOut string `json:"moneyOut"`
	MoneyIn  string `json:"moneyIn"`
}

type PortfolioResponse struct {
	TotalLent   string                `json:"totalLent"`
	Outstanding string                `json:"outstanding"`
	Received    string                `json:"received"`
	ByStatus    map[string]int        `json:"byStatus"`
	Monthly     []MonthlyFlowResponse `json:"monthly"`
}

type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type TokenRequest struct {
	Username string `json:"username"`
}

func formatMoney(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func NewLoanResponse(domainLoan *loan.Loan, asOf time.Time, includeSchedule bool) LoanResponse {
	resp := LoanResponse{
		ID:               strconv.FormatInt(domainLoan.ID, 10),
		ContractNumber:   domainLoan.ContractNumber,
		CustomerID:       strconv.FormatInt(domainLoan.CustomerID, 10),
		Principal:        formatMoney(domainLoan.Principal),
		InterestRate:     decimal.NewFromFloat(domainLoan.InterestRate).String(),
		Installments:     domainLoan.InstallmentCount,
		Frequency:        string(domainLoan.Frequency),
		Method:           string(domainLoan.Method),
		TotalToReturn:    formatMoney(domainLoan.TotalToReturn),
		InstallmentValue: formatMoney(domainLoan.InstallmentValue),
		StartDate:        domainLoan.StartDate.Format(dateLayout),
		Status:           string(domainLoan.StatusAsOf(asOf)),
		Notes:            domainLoan.Notes,
		CreatedAt:        domainLoan.CreatedAt,
		UpdatedAt:        domainLoan.UpdatedAt,
	}

	if includeSchedule {
		resp.Schedule = make([]InstallmentResponse, len(domainLoan.Installments))
		for i, inst := range domainLoan.Installments {
			resp.Schedule[i] = NewInstallmentResponse(&inst, asOf)
		}
	}

	return resp
}

func NewInstallmentResponse(inst *loan.Installment, asOf time.Time) InstallmentResponse {
	resp := InstallmentResponse{
		Number:  inst.Number,
		DueDate: inst.DueDate.Format(dateLayout),
		Value:   formatMoney(inst.Value),
		Status:  string(inst.Status),
		Overdue: loan.IsOverdue(*inst, asOf),
		Penalty: formatMoney(loan.PenaltyAsOf(*inst, asOf)),
	}

	if inst.Status == loan.InstallmentPaid {
		resp.PaidAt = inst.PaidAt
		paid := formatMoney(inst.PaidAmount)
		resp.PaidAmount = &paid
		penalty := formatMoney(inst.PenaltyPaid)
		resp.PenaltyPaid = &penalty
		return resp
	}

	due := formatMoney(loan.AmountDueAsOf(*inst, asOf))
	resp.AmountDue = &due
	if inst.PaidAmount != 0 {
		paid := formatMoney(inst.PaidAmount)
		resp.PaidAmount = &paid
	}
	return resp
}

func NewScheduleResponse(s *loan.Schedule) ScheduleResponse {
	resp := ScheduleResponse{
		TotalToReturn:    formatMoney(s.TotalToReturn),
		InstallmentValue: formatMoney(s.InstallmentValue),
		TotalInterest:    formatMoney(s.TotalInterest),
		Entries:          make([]ScheduleEntryResponse, len(s.Entries)),
	}
	for i, e := range s.Entries {
		resp.Entries[i] = ScheduleEntryResponse{
			Number:  i + 1,
			DueDate: e.DueDate.Format(dateLayout),
			Value:   formatMoney(e.Value),
		}
	}
	return resp
}

func NewPortfolioResponse(stats *loan.PortfolioStats) PortfolioResponse {
	resp := PortfolioResponse{
		TotalLent:   formatMoney(stats.TotalLent),
		Outstanding: formatMoney(stats.Outstanding),
		Received:    formatMoney(stats.Received),
		ByStatus:    make(map[string]int, len(stats.ByStatus)),
		Monthly:     make([]MonthlyFlowResponse, len(stats.Monthly)),
	}
	for status, count := range stats.ByStatus {
		resp.ByStatus[string(status)] = count
	}
	for i, m := range stats.Monthly {
		resp.Monthly[i] = MonthlyFlowResponse{
			Month:    m.Month,
			MoneyOut: formatMoney(m.MoneyOut),
			MoneyIn:  formatMoney(m.MoneyIn),
		}
	}
	return resp
}
