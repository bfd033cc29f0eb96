package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/api"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// RequestIDMiddleware echoes the request id and scopes a logger to it.
// It expects chi's middleware.RequestID to have run first.
func RequestIDMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := middleware.GetReqID(r.Context())
			if requestID == "" {
				requestID = r.Header.Get(middleware.RequestIDHeader)
			}
			if requestID != "" {
				w.Header().Set(middleware.RequestIDHeader, requestID)
			}

			ctx := logger.WithContext(r.Context(), log.With(zap.String("request_id", requestID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger logs one line per request.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			logger.FromContext(r.Context(), nil).Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

// RequireLogin rejects requests while no session token is stored.
func RequireLogin(tokens api.TokenSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := tokens.Token(r.Context())
			if err != nil {
				handleError(w, r, err)
				return
			}
			if token == "" {
				respondError(w, http.StatusUnauthorized, "unauthorized", "login required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func withTimeout(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), d)
}
