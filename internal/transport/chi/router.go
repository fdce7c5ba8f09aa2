package chi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	logpkg "github.com/kailas-cloud/prdrag/internal/logger"
	"github.com/kailas-cloud/prdrag/internal/metrics"
)

// NewRouter mounts the API routes. Middleware order: request id, access log,
// panic recovery, auth, metrics. The access log wraps recovery so panics are logged as 500s.
func NewRouter(s *Server, apiKeys []string, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(accessLog(logger))
	r.Use(recoverJSON)
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorResponse{Code: ErrorResponseCodeNotFound, Message: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorResponse{
			Code: ErrorResponseCodeBadRequest, Message: "method not allowed",
		})
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/prd", s.GeneratePRD)
		r.Post("/prompt", s.AssemblePrompt)
		r.Post("/retrieve", s.RetrievePassages)
		r.Get("/corpus", s.ListCorpus)
		r.Get("/usage", s.GetUsage)
	})
	return r
}

// recoverJSON turns a handler panic into a JSON 500. http.ErrAbortHandler is re-raised.
func recoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler { //nolint:errorlint // sentinel panic value
				panic(rvr)
			}
			logpkg.FromContext(r.Context()).Error("panic recovered",
				zap.Any("panic", rvr),
				zap.Stack("stacktrace"),
			)
			writeError(w, http.StatusInternalServerError, ErrorResponse{
				Code:    ErrorResponseCodeInternalError,
				Message: "internal error",
			})
		}()
		next.ServeHTTP(w, r)
	})
}

// accessLog stores a request-scoped logger in the context, echoes X-Request-ID and
// emits one "http_request" line per request: error level for 5xx, warn for 4xx.
func accessLog(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}
			reqLogger := logger.With(zap.String("request_id", requestID))

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(logpkg.ContextWithLogger(r.Context(), reqLogger)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}

			level := zapcore.InfoLevel
			switch {
			case status >= http.StatusInternalServerError:
				level = zapcore.ErrorLevel
			case status >= http.StatusBadRequest:
				level = zapcore.WarnLevel
			}
			if ce := reqLogger.Check(level, "http_request"); ce != nil {
				ce.Write(
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("route", route),
					zap.Int("status", status),
					zap.Duration("latency", time.Since(start)),
					zap.String("ip", r.RemoteAddr),
					zap.String("user_agent", r.UserAgent()),
					zap.Int("response_bytes", ww.BytesWritten()),
					zap.String("embedding_tokens", ww.Header().Get("X-Embedding-Tokens")),
					zap.String("generation_tokens", ww.Header().Get("X-Generation-Tokens")),
				)
			}
		})
	}
}
