package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"dating-api/internal/application/dto"
	domainErrors "dating-api/internal/domain/errors"
	"dating-api/internal/infrastructure/telemetry"
)

// writeJSONResponse writes a JSON response
func writeJSONResponse(ctx context.Context, w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log error but don't change response since headers are already written
		telemetry.Log(ctx, telemetry.LevelError, "Failed to encode JSON response", err)
	}
}

// writeErrorResponse writes an error response
func writeErrorResponse(ctx context.Context, w http.ResponseWriter, message string, statusCode int, code string) {
	writeJSONResponse(ctx, w, dto.ErrorResponse{
		Error:   message,
		Code:    code,
		Message: message,
	}, statusCode)
}

// statusForCode maps a domain error code to an HTTP status code
func statusForCode(code domainErrors.ErrorCode) int {
	switch code {
	case domainErrors.ErrCodeUserNotFound, domainErrors.ErrCodePhotoNotFound, domainErrors.ErrCodeLikeNotFound:
		return http.StatusNotFound
	case domainErrors.ErrCodeUserAlreadyExists, domainErrors.ErrCodeLikeAlreadyExists, domainErrors.ErrCodeRestrictedDelete:
		return http.StatusConflict
	case domainErrors.ErrCodeValidationFailed, domainErrors.ErrCodeInvalidArgument, domainErrors.ErrCodeMainPhoto:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeErrorResponseFromDomainError writes an error response from a domain error
func writeErrorResponseFromDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	var domainErr *domainErrors.DomainError
	if !errors.As(err, &domainErr) {
		writeJSONResponse(ctx, w, dto.ErrorResponse{
			Error:   err.Error(),
			Code:    string(domainErrors.ErrCodeInternalError),
			Message: "An internal error occurred",
		}, http.StatusInternalServerError)
		return
	}

	statusCode := statusForCode(domainErr.Code)
	resp := dto.ErrorResponse{
		Error:   domainErr.Error(),
		Code:    string(domainErr.Code),
		Message: domainErr.Message,
		Context: domainErr.Context,
	}
	// Store internals stay in the logs.
	if statusCode == http.StatusInternalServerError {
		resp.Error = domainErr.Message
	}
	writeJSONResponse(ctx, w, resp, statusCode)
}

// decodeJSON decodes the request body into dst, writing a 400 on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeErrorResponse(r.Context(), w, "Invalid JSON", http.StatusBadRequest, "INVALID_JSON")
		return false
	}
	return true
}
