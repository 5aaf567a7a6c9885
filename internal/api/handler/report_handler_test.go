package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lending-engine/internal/api/handler"
	"lending-engine/internal/api/handler/dto"
	"lending-engine/internal/domain/loan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestGetPortfolio(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockService := new(MockLoanService)
		h := handler.NewReportHandler(mockService, newTestLogger())

		stats := &loan.PortfolioStats{
			TotalLent:   2000,
			Outstanding: 1000,
			Received:    1000,
			ByStatus: map[loan.LoanStatus]int{
				loan.StatusActive:  1,
				loan.StatusSettled: 1,
			},
			Monthly: []loan.MonthlyFlow{
				{Month: "2025-01", MoneyOut: 2000, MoneyIn: 250},
				{Month: "2025-02", MoneyIn: 750},
			},
		}
		mockService.On("PortfolioReport", mock.Anything, time.Time{}, time.Time{}).Return(stats, nil)

		req := httptest.NewRequest(http.MethodGet, "/reports/portfolio", nil)
		rec := httptest.NewRecorder()

		h.GetPortfolio(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp dto.PortfolioResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "2000.00", resp.TotalLent)
		assert.Equal(t, "1000.00", resp.Outstanding)
		assert.Equal(t, 1, resp.ByStatus["ACTIVE"])
		assert.Len(t, resp.Monthly, 2)
		assert.Equal(t, "2025-01", resp.Monthly[0].Month)
		assert.Equal(t, "250.00", resp.Monthly[0].MoneyIn)
		mockService.AssertExpectations(t)
	})

	t.Run("window bounds are forwarded", func(t *testing.T) {
		mockService := new(MockLoanService)
		h := handler.NewReportHandler(mockService, newTestLogger())

		from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
		mockService.On("PortfolioReport", mock.Anything, from, to).
			Return(&loan.PortfolioStats{ByStatus: map[loan.LoanStatus]int{}}, nil)

		req := httptest.NewRequest(http.MethodGet, "/reports/portfolio?from=2025-01-01&to=2025-06-30", nil)
		rec := httptest.NewRecorder()

		h.GetPortfolio(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("malformed date is rejected", func(t *testing.T) {
		mockService := new(MockLoanService)
		h := handler.NewReportHandler(mockService, newTestLogger())

		req := httptest.NewRequest(http.MethodGet, "/reports/portfolio?from=January", nil)
		rec := httptest.NewRecorder()

		h.GetPortfolio(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "PortfolioReport")
	})
}
