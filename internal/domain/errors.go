package domain

import "errors"

var (
	// Recording errors. Each of these ends up in RecordResult.ErrorMessage.
	ErrNotAnObject       = errors.New("expense must be a JSON object")
	ErrExpenseIncomplete = errors.New("expense incomplete")
	ErrInvalidExpense    = errors.New("invalid expense")

	// Field errors, wrapped together with ErrInvalidExpense.
	ErrInvalidPayee  = errors.New("payee must be a non-empty string")
	ErrInvalidAmount = errors.New("amount must be a positive number")
	ErrInvalidDate   = errors.New("invalid date")
	ErrExtraTooLarge = errors.New("extra fields size exceeds limit")
	ErrInvalidExtra  = errors.New("extra fields must not contain NUL characters")
	ErrReservedField = errors.New("id is assigned by the ledger and cannot be submitted")
)
