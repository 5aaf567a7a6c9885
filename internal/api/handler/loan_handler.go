package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"lending-engine/internal/api/handler/dto"
	"lending-engine/internal/domain/customer"
	"lending-engine/internal/domain/loan"
	"lending-engine/internal/pkg/apperrors"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type LoanHandler struct {
	service loan.LoanService
	logger  *slog.Logger
}

func NewLoanHandler(s loan.LoanService, l *slog.Logger) *LoanHandler {
	return &LoanHandler{
		service: s,
		logger:  l.With("component", "LoanHandler"),
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("no request body")
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	if payload == nil {
		w.WriteHeader(status)
		return
	}
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":{"message":"Internal server error"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondError(w http.ResponseWriter, err error) {
	status, message, field := http.StatusInternalServerError, "An unexpected error occurred.", ""
	var validationError *apperrors.ValidationError
	var appErr *apperrors.AppError

	switch {
	case errors.Is(err, apperrors.ErrNotFound),
		errors.Is(err, customer.ErrNotFound):
		status, message = http.StatusNotFound, "Resource not found."
	case errors.Is(err, apperrors.ErrInvalidArgument),
		errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrInvalidPaymentAmount):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, apperrors.ErrAlreadySettled),
		errors.Is(err, apperrors.ErrNotSettled),
		errors.Is(err, apperrors.ErrLoanSettled),
		errors.Is(err, apperrors.ErrAlreadyExists),
		errors.Is(err, apperrors.ErrConflict):
		status, message = http.StatusConflict, err.Error()
	case errors.As(err, &validationError):
		status, message, field = http.StatusBadRequest, validationError.Message, validationError.Field
	case errors.As(err, &appErr):
		message = appErr.Error()
	default:
		slog.Default().Error("Unhandled internal error", "error", err)
	}

	resp := dto.ErrorResponse{
		Error: dto.ErrorDetail{
			Message: message,
			Field:   field,
		},
	}
	respondJSON(w, status, resp)
}

func getLoanIDFromURL(r *http.Request) (int64, error) {
	idStr := chi.URLParam(r, "loanID")
	if idStr == "" {
		return 0, fmt.Errorf("loanID not found in URL path")
	}
	return strconv.ParseInt(idStr, 10, 64)
}

func getInstallmentNumberFromURL(r *http.Request) (int, error) {
	numStr := chi.URLParam(r, "number")
	if numStr == "" {
		return 0, fmt.Errorf("installment number not found in URL path")
	}
	number, err := strconv.Atoi(numStr)
	if err != nil || number <= 0 {
		return 0, fmt.Errorf("invalid installment number: %s", numStr)
	}
	return number, nil
}

// CreateLoan handles the creation of a new loan contract.
//
// @Summary Create a new loan
// @Description Creates a loan for a customer from its terms (principal, rate, installment count, frequency, interest method, start date) and materializes the full installment schedule.
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.CreateLoanRequest true "Loan creation request payload"
// @Success 201 {object} dto.LoanResponse "Loan successfully created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload or validation error"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans [post]
// @Security BearerAuth
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	createdLoan, err := h.service.CreateLoan(r.Context(), req.CustomerID, req.Terms(), req.Notes)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to create loan", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Loan created",
		slog.Int64("loanID", createdLoan.ID),
		slog.Int64("contractNumber", createdLoan.ContractNumber))
	respondJSON(w, http.StatusCreated, dto.NewLoanResponse(createdLoan, time.Now(), true))
}

// PreviewSchedule computes a schedule without persisting anything.
//
// @Summary Preview a repayment schedule
// @Description Computes totals and per-installment values for the given terms. Nothing is stored.
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.PreviewScheduleRequest true "Schedule terms"
// @Success 200 {object} dto.ScheduleResponse "Computed schedule"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload or validation error"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/preview [post]
// @Security BearerAuth
func (h *LoanHandler) PreviewSchedule(w http.ResponseWriter, r *http.Request) {
	var req dto.PreviewScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	schedule, err := h.service.PreviewSchedule(r.Context(), req.Terms())
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewScheduleResponse(schedule))
}

// GetLoan retrieves the details of a specific loan.
//
// @Summary Retrieve loan details
// @Description Retrieves a loan by its ID. The repayment schedule is included by adding the query parameter `include=schedule`.
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID"
// @Param include query string false "Optional parameter to include the installment schedule (use 'schedule')"
// @Success 200 {object} dto.LoanResponse "Loan details successfully retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID} [get]
// @Security BearerAuth
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	domainLoan, err := h.service.GetLoan(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	includeSchedule := r.URL.Query().Get("include") == "schedule"
	respondJSON(w, http.StatusOK, dto.NewLoanResponse(domainLoan, time.Now(), includeSchedule))
}

// ListLoans lists loans, optionally filtered by derived status.
//
// @Summary List loans
// @Description Lists all loans. An optional status filter (ACTIVE, OVERDUE, SETTLED) keeps only loans whose derived status matches.
// @Tags Loans
// @Produce json
// @Param status query string false "Derived status filter" Enums(ACTIVE, OVERDUE, SETTLED)
// @Success 200 {array} dto.LoanResponse "List of loans"
// @Failure 400 {object} dto.ErrorResponse "Unknown status value"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans [get]
// @Security BearerAuth
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	var status loan.LoanStatus
	if s := r.URL.Query().Get("status"); s != "" {
		status = loan.LoanStatus(s)
		if status != loan.StatusActive && status != loan.StatusOverdue && status != loan.StatusSettled {
			respondError(w, fmt.Errorf("%w: unknown status %q", apperrors.ErrInvalidArgument, s))
			return
		}
	}

	loans, err := h.service.ListLoans(r.Context(), status)
	if err != nil {
		respondError(w, err)
		return
	}

	now := time.Now()
	resp := make([]dto.LoanResponse, len(loans))
	for i := range loans {
		resp[i] = dto.NewLoanResponse(&loans[i], now, false)
	}
	respondJSON(w, http.StatusOK, resp)
}

// SettleInstallment pays off a single installment in full.
//
// @Summary Settle an installment
// @Description Marks an installment as paid in full, charging any overdue penalty accrued up to now.
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID"
// @Param number path int true "Installment number (1-based)"
// @Success 200 {object} dto.LoanResponse "Loan state after settlement"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID or installment number"
// @Failure 404 {object} dto.ErrorResponse "Loan or installment not found"
// @Failure 409 {object} dto.ErrorResponse "Installment already settled"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/installments/{number}/settle [post]
// @Security BearerAuth
func (h *LoanHandler) SettleInstallment(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	number, err := getInstallmentNumberFromURL(r)
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	updated, err := h.service.SettleInstallment(r.Context(), loanID, number, time.Now())
	if err != nil {
		h.logger.WarnContext(r.Context(), "Settlement failed",
			slog.Int64("loanID", loanID), slog.Int("number", number), slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Installment settled",
		slog.Int64("loanID", loanID), slog.Int("number", number))
	respondJSON(w, http.StatusOK, dto.NewLoanResponse(updated, time.Now(), true))
}

// ReverseInstallment undoes a settled installment.
//
// @Summary Reverse an installment settlement
// @Description Returns a PAID installment to PENDING and clears its payment record. Used to correct data-entry mistakes.
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID"
// @Param number path int true "Installment number (1-based)"
// @Success 200 {object} dto.LoanResponse "Loan state after reversal"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID or installment number"
// @Failure 404 {object} dto.ErrorResponse "Loan or installment not found"
// @Failure 409 {object} dto.ErrorResponse "Installment is not settled"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/installments/{number}/reverse [post]
// @Security BearerAuth
func (h *LoanHandler) ReverseInstallment(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	number, err := getInstallmentNumberFromURL(r)
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	updated, err := h.service.ReverseInstallment(r.Context(), loanID, number)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Reversal failed",
			slog.Int64("loanID", loanID), slog.Int("number", number), slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Installment reversed",
		slog.Int64("loanID", loanID), slog.Int("number", number))
	respondJSON(w, http.StatusOK, dto.NewLoanResponse(updated, time.Now(), true))
}

// ApplyPartialPayment records a partial payment against an installment.
//
// @Summary Apply a partial payment
// @Description Adds a payment toward an installment. The installment flips to PAID once accumulated payments cover its value plus the penalty accrued at this moment.
// @Tags Loans
// @Accept json
// @Produce json
// @Param loanID path int true "Loan ID"
// @Param number path int true "Installment number (1-based)"
// @Param request body dto.PartialPaymentRequest true "Payment amount payload"
// @Success 200 {object} dto.LoanResponse "Loan state after the payment"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID, installment number, or amount"
// @Failure 404 {object} dto.ErrorResponse "Loan or installment not found"
// @Failure 409 {object} dto.ErrorResponse "Installment already settled"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/installments/{number}/payments [post]
// @Security BearerAuth
func (h *LoanHandler) ApplyPartialPayment(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	number, err := getInstallmentNumberFromURL(r)
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	var req dto.PartialPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	amountDecimal, err := decimal.NewFromString(req.Amount)
	if err != nil {
		respondError(w, fmt.Errorf("%w: invalid numeric format for amount", apperrors.ErrInvalidArgument))
		return
	}
	amountFloat, _ := amountDecimal.Float64()

	updated, err := h.service.ApplyPartialPayment(r.Context(), loanID, number, amountFloat, time.Now())
	if err != nil {
		h.logger.WarnContext(r.Context(), "Partial payment failed",
			slog.Int64("loanID", loanID), slog.Int("number", number), slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Partial payment applied",
		slog.Int64("loanID", loanID), slog.Int("number", number))
	respondJSON(w, http.StatusOK, dto.NewLoanResponse(updated, time.Now(), true))
}

// GetCustomerScore computes a customer's credit score on demand.
//
// @Summary Compute a customer's credit score
// @Description Derives the credit score (0-1000) and qualitative band from the customer's full installment history. Nothing is stored.
// @Tags Customers
// @Produce json
// @Param customerID path int true "Customer ID" Minimum(1)
// @Success 200 {object} dto.CreditScoreResponse "Computed score"
// @Failure 400 {object} dto.ErrorResponse "Invalid customer ID"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers/{customerID}/score [get]
// @Security BearerAuth
func (h *LoanHandler) GetCustomerScore(w http.ResponseWriter, r *http.Request) {
	customerID, err := getCustomerIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	score, err := h.service.ScoreCustomer(r.Context(), customerID)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := dto.CreditScoreResponse{
		CustomerID: strconv.FormatInt(customerID, 10),
		Score:      score.Score,
		Band:       string(score.Band),
	}
	respondJSON(w, http.StatusOK, resp)
}
