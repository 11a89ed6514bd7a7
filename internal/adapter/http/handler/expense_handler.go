package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/iho/expensetracker/internal/adapter/http/dto"
	"github.com/iho/expensetracker/internal/domain"
)

// Ledger defines the behavior needed by ExpenseHandler.
type Ledger interface {
	Record(ctx context.Context, fields map[string]any) (domain.RecordResult, error)
	ExpensesOn(ctx context.Context, date string) ([]*domain.Expense, error)
}

// ExpenseHandler handles expense-related HTTP requests.
type ExpenseHandler struct {
	ledger Ledger
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(ledger Ledger) *ExpenseHandler {
	return &ExpenseHandler{ledger: ledger}
}

// Create records the expense in the request body.
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fields, err := domain.DecodeFields(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	result, err := h.ledger.Record(r.Context(), fields)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to record expense")
		writeError(w, http.StatusInternalServerError, "failed to record expense")
		return
	}

	if !result.Success {
		writeError(w, http.StatusUnprocessableEntity, result.ErrorMessage)
		return
	}

	writeJSON(w, http.StatusOK, dto.RecordExpenseResponse{ExpenseID: result.ExpenseID})
}

// ListByDate returns the expenses recorded on the date in the URL.
func (h *ExpenseHandler) ListByDate(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")

	expenses, err := h.ledger.ExpensesOn(r.Context(), date)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidDate) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Str("date", date).Msg("failed to list expenses")
		writeError(w, http.StatusInternalServerError, "failed to list expenses")
		return
	}

	if expenses == nil {
		expenses = []*domain.Expense{}
	}

	writeJSON(w, http.StatusOK, expenses)
}
