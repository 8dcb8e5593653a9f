package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/helixml/textclassifier/internal/log"
)

// CorrelationHeader carries the correlation id across services.
const CorrelationHeader = "X-Correlation-ID"

// CorrelationID stores the request and correlation ids in the request
// context. An incoming X-Correlation-ID header is reused, otherwise a new id
// is generated. The id is echoed in the response.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationHeader)
		if id == "" {
			id = uuid.NewString()
		}

		ctx := log.WithCorrelationID(r.Context(), id)
		if reqID := middleware.GetReqID(ctx); reqID != "" {
			ctx = log.WithRequestID(ctx, reqID)
		}

		w.Header().Set(CorrelationHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
