package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"lending-engine/internal/api/handler/dto"
	"lending-engine/internal/domain/treasury"
	"lending-engine/internal/pkg/apperrors"

	"github.com/go-chi/chi/v5"
)

type TreasuryHandler struct {
	service treasury.TreasuryService
	logger  *slog.Logger
}

func NewTreasuryHandler(s treasury.TreasuryService, l *slog.Logger) *TreasuryHandler {
	return &TreasuryHandler{
		service: s,
		logger:  l.With("component", "TreasuryHandler"),
	}
}

func getMovementIDFromURL(r *http.Request) (int64, error) {
	idStr := chi.URLParam(r, "movementID")
	if idStr == "" {
		return 0, fmt.Errorf("%w: movementID not found in URL path", apperrors.ErrInvalidArgument)
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid movementID format in URL path: %s", apperrors.ErrInvalidArgument, idStr)
	}
	return id, nil
}

// RecordMovement handles POST /treasury/movements
// @Summary Record a cash movement
// @Description Adds a manual CONTRIBUTION or WITHDRAWAL to the treasury ledger. occurredAt defaults to now when omitted.
// @Tags Treasury
// @Accept json
// @Produce json
// @Param request body dto.RecordMovementRequest true "Movement payload"
// @Success 201 {object} dto.MovementResponse "Movement recorded"
// @Failure 400 {object} dto.ErrorResponse "Invalid kind, amount, or date"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /treasury/movements [post]
// @Security BearerAuth
func (h *TreasuryHandler) RecordMovement(w http.ResponseWriter, r *http.Request) {
	var req dto.RecordMovementRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	movement, err := h.service.RecordMovement(r.Context(),
		treasury.ParseMovementKind(req.Kind), req.AmountFloat(), req.Description, req.OccurredAtOrNow())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to record movement", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Cash movement recorded",
		slog.Int64("movementID", movement.ID), slog.String("kind", string(movement.Kind)))
	respondJSON(w, http.StatusCreated, dto.NewMovementResponse(movement))
}

// ListMovements handles GET /treasury/movements
// @Summary List cash movements
// @Description Lists every recorded cash movement ordered by occurrence date.
// @Tags Treasury
// @Produce json
// @Success 200 {array} dto.MovementResponse "List of movements"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /treasury/movements [get]
// @Security BearerAuth
func (h *TreasuryHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	movements, err := h.service.ListMovements(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to list movements", slog.Any("error", err))
		respondError(w, err)
		return
	}

	resp := make([]dto.MovementResponse, len(movements))
	for i := range movements {
		resp[i] = dto.NewMovementResponse(&movements[i])
	}
	respondJSON(w, http.StatusOK, resp)
}

// UpdateMovement handles PUT /treasury/movements/{movementID}
// @Summary Update a cash movement
// @Description Rewrites the kind, amount, and description of an existing movement.
// @Tags Treasury
// @Accept json
// @Produce json
// @Param movementID path int true "Movement ID" Minimum(1)
// @Param request body dto.UpdateMovementRequest true "New movement payload"
// @Success 200 {object} dto.MovementResponse "Updated movement"
// @Failure 400 {object} dto.ErrorResponse "Invalid movement ID or payload"
// @Failure 404 {object} dto.ErrorResponse "Movement not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /treasury/movements/{movementID} [put]
// @Security BearerAuth
func (h *TreasuryHandler) UpdateMovement(w http.ResponseWriter, r *http.Request) {
	movementID, err := getMovementIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.UpdateMovementRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	movement, err := h.service.UpdateMovement(r.Context(), movementID,
		treasury.ParseMovementKind(req.Kind), req.AmountFloat(), req.Description)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, treasury.ErrMovementNotFound) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to update movement", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Cash movement updated", slog.Int64("movementID", movementID))
	respondJSON(w, http.StatusOK, dto.NewMovementResponse(movement))
}

// DeleteMovement handles DELETE /treasury/movements/{movementID}
// @Summary Delete a cash movement
// @Description Removes a movement from the ledger.
// @Tags Treasury
// @Produce json
// @Param movementID path int true "Movement ID" Minimum(1)
// @Success 204 "Movement deleted"
// @Failure 400 {object} dto.ErrorResponse "Invalid movement ID"
// @Failure 404 {object} dto.ErrorResponse "Movement not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /treasury/movements/{movementID} [delete]
// @Security BearerAuth
func (h *TreasuryHandler) DeleteMovement(w http.ResponseWriter, r *http.Request) {
	movementID, err := getMovementIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.service.DeleteMovement(r.Context(), movementID); err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, treasury.ErrMovementNotFound) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to delete movement", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Cash movement deleted", slog.Int64("movementID", movementID))
	respondJSON(w, http.StatusNoContent, nil)
}

// GetBalance handles GET /treasury/balance
// @Summary Current treasury balance
// @Description Derives the available balance from manual movements, principal lent, and payments received.
// @Tags Treasury
// @Produce json
// @Success 200 {object} dto.BalanceResponse "Balance breakdown"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /treasury/balance [get]
// @Security BearerAuth
func (h *TreasuryHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.service.ComputeBalance(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to compute balance", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewBalanceResponse(balance))
}
