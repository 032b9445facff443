package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/KotFed0t/portfolio_tracker/data/session"
	"github.com/KotFed0t/portfolio_tracker/internal/metrics"
	"github.com/KotFed0t/portfolio_tracker/internal/model/httpModel"
	"github.com/KotFed0t/portfolio_tracker/utils"
	chiMW "github.com/go-chi/chi/v5/middleware"
)

const RequestIDHeader = "X-Request-ID"

type Sessions interface {
	GetOwnerID(ctx context.Context, token string) (string, error)
}

// RequestID puts the caller's X-Request-ID (or a fresh one) into the request context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := utils.CreateCtxWithRqID(r.Context(), r.Header.Get(RequestIDHeader))
		w.Header().Set(RequestIDHeader, utils.GetRequestIDFromCtx(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func Logger(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			rqID := utils.GetRequestIDFromCtx(r.Context())

			slog.Info(
				"start request",
				slog.String("rqID", rqID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)

			ww := chiMW.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				m.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()

				slog.Info(
					"request finished",
					slog.String("rqID", rqID),
					slog.Int("status", status),
					slog.Int("bytes", ww.BytesWritten()),
					slog.String("request duration", fmt.Sprintf("%.2fs", time.Since(now).Seconds())),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// Auth resolves the bearer token to an owner id through the session store.
func Auth(sessions Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rqID := utils.GetRequestIDFromCtx(r.Context())

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			token = strings.TrimSpace(token)
			if !ok || token == "" {
				unauthorized(w)
				return
			}

			ownerID, err := sessions.GetOwnerID(r.Context(), token)
			if err != nil {
				if errors.Is(err, session.ErrUnknownToken) {
					unauthorized(w)
					return
				}
				slog.Error("got error from sessions.GetOwnerID", slog.String("rqID", rqID), slog.String("err", err.Error()))
				writeJSON(w, http.StatusInternalServerError, httpModel.ErrorResponse{Error: "internal server error"})
				return
			}

			next.ServeHTTP(w, r.WithContext(utils.CtxWithOwnerID(r.Context(), ownerID)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeJSON(w, http.StatusUnauthorized, httpModel.ErrorResponse{Error: "unauthorized"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
