package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/application"
)

type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// BuildErrorResponse maps application errors to a status code and response body.
// Internal failures never leak their cause to the client.
func BuildErrorResponse(err error) (int, ErrorResponse) {
	statusCode := application.ToHTTPStatus(err)
	message := err.Error()
	if statusCode >= http.StatusInternalServerError {
		message = "An internal error occurred"
	}

	return statusCode, ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Code:    application.ToErrorCode(err),
			Message: message,
		},
	}
}

// WriteError maps application errors to HTTP responses
func WriteError(w http.ResponseWriter, err error, logger *slog.Logger) {
	statusCode, response := BuildErrorResponse(err)

	if statusCode >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed",
			"code", response.Error.Code,
			"category", application.CategorizeError(err),
			"retryable", application.IsRetryable(err),
			"error", err,
		)
	}

	WriteJSON(w, statusCode, response)
}

type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

func WriteSuccess(w http.ResponseWriter, statusCode int, data any) {
	WriteJSON(w, statusCode, SuccessResponse{Success: true, Data: data})
}

func WriteJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}
