package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/forkline/forkline-backend/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID trusts a caller-supplied X-Request-Id only if it parses as a
// UUID; anything else is replaced so log correlation keys stay uniform.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(requestIDHeader)
			if _, err := uuid.Parse(reqID); err != nil {
				reqID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
