package httpadapter

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillkom/unit-converter/internal/config"
	"github.com/kirillkom/unit-converter/internal/core/domain"
	"github.com/kirillkom/unit-converter/internal/core/ports"
	"github.com/kirillkom/unit-converter/internal/observability/metrics"
)

//go:embed templates/*.html
var templateFS embed.FS

type Router struct {
	converter ports.UnitConverter
	accounts  ports.AccountService
	logs      ports.ConversionLogReader
	metrics   *metrics.HTTPServerMetrics

	validator   *requestValidator
	sessions    *sessionStore
	authLimiter *rate.Limiter
	pages       *template.Template

	service     string
	authEnabled bool
	precision   int
	sessionTTL  time.Duration
}

// NewRouter wires the web form and the JSON API. accounts may be nil when
// the auth gate is disabled; m may be nil to skip metrics.
func NewRouter(
	cfg config.Config,
	converter ports.UnitConverter,
	accounts ports.AccountService,
	logs ports.ConversionLogReader,
	m *metrics.HTTPServerMetrics,
) (*Router, error) {
	if converter == nil {
		return nil, errors.New("converter is required")
	}
	if cfg.AuthEnabled && accounts == nil {
		return nil, errors.New("account service is required when auth is enabled")
	}
	validator, err := newRequestValidator(context.Background())
	if err != nil {
		return nil, err
	}
	pages, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	ttl := time.Duration(cfg.SessionTTLMinutes) * time.Minute
	return &Router{
		converter:   converter,
		accounts:    accounts,
		logs:        logs,
		metrics:     m,
		validator:   validator,
		sessions:    newSessionStore(ttl),
		authLimiter: newAuthLimiter(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst),
		pages:       pages,
		service:     "unit-converter-api",
		authEnabled: cfg.AuthEnabled,
		precision:   cfg.DisplayPrecision,
		sessionTTL:  ttl,
	}, nil
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	mux.HandleFunc("/", rt.index)
	mux.HandleFunc("/convert", rt.convertForm)
	mux.HandleFunc("/logs", rt.logsPage)
	mux.Handle("/signup", rt.rateLimitMiddleware(http.HandlerFunc(rt.signupPage)))
	mux.Handle("/login", rt.rateLimitMiddleware(http.HandlerFunc(rt.loginPage)))
	mux.HandleFunc("/logout", rt.logoutForm)

	mux.HandleFunc("/openapi.json", rt.openAPIDocument)
	mux.HandleFunc("/v1/categories", rt.listCategories)
	mux.HandleFunc("/v1/conversions", rt.convertAPI)
	mux.Handle("/v1/accounts", rt.rateLimitMiddleware(http.HandlerFunc(rt.registerAPI)))
	mux.Handle("/v1/sessions", rt.rateLimitMiddleware(http.HandlerFunc(rt.sessionsAPI)))
	mux.HandleFunc("/v1/units.xlsx", rt.exportUnits)

	var handler http.Handler = rt.validator.middleware(mux)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	return handler
}

// RunSessionJanitor evicts expired sessions until ctx is done.
func (rt *Router) RunSessionJanitor(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rt.sessions.sweep(); n > 0 {
				slog.Debug("sessions_expired", "count", n)
			}
		}
	}
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) currentUser(r *http.Request) string {
	return rt.sessions.get(sessionIDFromRequest(r))
}

func (rt *Router) recordConversion(category string, err error) {
	if rt.metrics == nil {
		return
	}
	label := "unknown"
	if c, parseErr := domain.ParseCategory(category); parseErr == nil {
		label = string(c)
	}
	rt.metrics.RecordConversion(rt.service, label, outcomeLabel(err))
}

func (rt *Router) recordAuth(action string, err error) {
	if rt.metrics == nil {
		return
	}
	rt.metrics.RecordAuthAttempt(rt.service, action, outcomeLabel(err))
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes before writing the header so an encoding failure still
// reaches the client as a 500.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		slog.Error("json_encode_failed", "error", err)
		status = http.StatusInternalServerError
		buf.Reset()
		buf.WriteString(`{"error":"Unexpected error, please try again."}` + "\n")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), errorResponse{Error: domain.UserMessage(err)})
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}
