package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"lending-engine/internal/api/handler/dto"
	"lending-engine/internal/domain/loan"
	"lending-engine/internal/pkg/apperrors"
)

type ReportHandler struct {
	service loan.LoanService
	logger  *slog.Logger
}

func NewReportHandler(s loan.LoanService, l *slog.Logger) *ReportHandler {
	return &ReportHandler{
		service: s,
		logger:  l.With("component", "ReportHandler"),
	}
}

// GetPortfolio handles GET /reports/portfolio
// @Summary Portfolio-level report
// @Description Totals, derived status counts, and a monthly money-out/money-in series across all loans. Optional from/to dates (YYYY-MM-DD) bound the window; either end may be omitted.
// @Tags Reports
// @Produce json
// @Param from query string false "Window start (YYYY-MM-DD)"
// @Param to query string false "Window end (YYYY-MM-DD)"
// @Success 200 {object} dto.PortfolioResponse "Portfolio statistics"
// @Failure 400 {object} dto.ErrorResponse "Malformed date parameter"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /reports/portfolio [get]
// @Security BearerAuth
func (h *ReportHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	from, err := parseDateParam(r, "from")
	if err != nil {
		respondError(w, err)
		return
	}
	to, err := parseDateParam(r, "to")
	if err != nil {
		respondError(w, err)
		return
	}

	stats, err := h.service.PortfolioReport(r.Context(), from, to)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to build portfolio report", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewPortfolioResponse(stats))
}

func parseDateParam(r *http.Request, name string) (time.Time, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid %s date format (use YYYY-MM-DD): %s", apperrors.ErrInvalidArgument, name, value)
	}
	return t, nil
}
