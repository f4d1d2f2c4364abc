package middleware

import (
	"net/http"

	"github.com/google/uuid"

	appCtx "github.com/baechuer/wholesale-catalog/internal/pkg/context"
)

const HeaderXRequestID = "X-Request-Id"

func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderXRequestID)
		if reqID == "" || len(reqID) > 128 {
			reqID = uuid.NewString()
		}
		w.Header().Set(HeaderXRequestID, reqID)
		next.ServeHTTP(w, r.WithContext(appCtx.WithRequestID(r.Context(), reqID)))
	})
}
