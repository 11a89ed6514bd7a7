package dto

// RecordExpenseResponse is returned when an expense was recorded.
type RecordExpenseResponse struct {
	ExpenseID int64 `json:"expense_id"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	ErrorMessage string `json:"error_message"`
}

// HealthResponse reports the state of the service and its backends.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
