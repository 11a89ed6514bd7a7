package handler

import (
	"encoding/json"
	"net/http"

	"github.com/iho/expensetracker/internal/adapter/http/dto"
)

// maxBodyBytes bounds request bodies; extra fields alone are capped far below this.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, dto.ErrorResponse{ErrorMessage: message})
}
