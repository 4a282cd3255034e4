package middleware

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"poi-explorer/utils/errors"
)

// RecoveryMiddleware turns handler panics into a 500 JSON error.
func RecoveryMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rec),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
					)
					WriteError(w, errors.ErrInternal)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// WriteError writes err as a JSON APIError. Errors that are not APIErrors
// become a 500.
func WriteError(w http.ResponseWriter, err error) {
	apiErr := errors.Wrap(err, "UNKNOWN_ERROR", "Unexpected error", errors.ErrInternal.Status)
	if apiErr.Status >= 500 {
		zap.L().Error("server error", zap.String("code", apiErr.Code), zap.String("details", apiErr.Details))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Status)
	json.NewEncoder(w).Encode(apiErr)
}
