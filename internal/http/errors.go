package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"invoice-system/internal/domain/auth"
	"invoice-system/internal/domain/invoice"
	"invoice-system/internal/domain/user"
	"invoice-system/internal/platform/apperr"
	jwtpkg "invoice-system/internal/platform/jwt"
	"invoice-system/internal/platform/validate"
)

func errorResponse(w http.ResponseWriter, err error) {
	appErr := mapError(err)
	writeJSON(w, appErr.StatusCode(), appErr)
}

// fail writes the mapped error and logs anything that ends up as a 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	appErr := mapError(err)
	if appErr.StatusCode() >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, appErr.StatusCode(), appErr)
}

func mapError(err error) *apperr.AppError {
	if err == nil {
		return apperr.Internal("internal_error", "Internal server error", nil)
	}

	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var verr *validate.Error
	if errors.As(err, &verr) {
		return apperr.BadRequest("validation_error", verr.Error(), err)
	}

	switch {
	case errors.Is(err, user.ErrEmailTaken):
		return apperr.BadRequest("email_taken", "Email already registered", err)
	case errors.Is(err, auth.ErrInvalidCredentials):
		return apperr.Unauthorized("invalid_credentials", "Invalid email or password", err)
	case errors.Is(err, auth.ErrAccountInactive):
		return apperr.Forbidden("account_inactive", "Account is inactive", err)
	case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, user.ErrNotFound):
		return apperr.NotFound("user_not_found", "User not found", err)
	case errors.Is(err, jwtpkg.ErrMissingToken):
		return apperr.Unauthorized("missing_token", "Missing authorization header", err)
	case errors.Is(err, jwtpkg.ErrExpiredToken):
		return apperr.Unauthorized("token_expired", "Token has expired", err)
	case errors.Is(err, jwtpkg.ErrInvalidToken):
		return apperr.Unauthorized("invalid_token", "Invalid token", err)
	case errors.Is(err, invoice.ErrNotFound):
		return apperr.NotFound("not_found", "Invoice not found", err)
	case errors.Is(err, invoice.ErrDuplicateSerial):
		return apperr.BadRequest("duplicate_serial", "Serial number already exists", err)
	case errors.Is(err, invoice.ErrInvalidDate):
		return apperr.BadRequest("invalid_date", "Invalid invoice_date, expected YYYY-MM-DD", err)
	case errors.Is(err, invoice.ErrInvalidAmount):
		return apperr.BadRequest("invalid_amount", "Invalid amount, expected a non-negative number", err)
	default:
		return apperr.Internal("internal_error", "Internal server error", err)
	}
}
