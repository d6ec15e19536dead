package httpadapter

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/kirillkom/unit-converter/internal/adapters/http/openapi"
	"github.com/kirillkom/unit-converter/internal/core/domain"
	"github.com/kirillkom/unit-converter/internal/infrastructure/export/xlsx"
)

const maxJSONBody = 1 << 20

type categoryResponse struct {
	Name  string        `json:"name"`
	Label string        `json:"label"`
	Units []domain.Unit `json:"units"`
}

type conversionRequest struct {
	Category string `json:"category"`
	Value    any    `json:"value"`
	FromUnit string `json:"from_unit"`
	ToUnit   string `json:"to_unit"`
}

type conversionResponse struct {
	Category  string  `json:"category"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
	Formatted string  `json:"formatted"`
	Display   string  `json:"display"`
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (rt *Router) openAPIDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(openapi.Spec)
}

func (rt *Router) listCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	categories := rt.converter.Categories()
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		units, err := rt.converter.Units(c)
		if err != nil {
			writeError(w, err)
			return
		}
		out = append(out, categoryResponse{Name: string(c), Label: c.Label(), Units: units})
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": out})
}

func (rt *Router) convertAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	user := rt.currentUser(r)
	if rt.authEnabled && user == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "login required"})
		return
	}

	var req conversionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	input := domain.ConversionInput{
		Category: req.Category,
		Value:    valueText(req.Value),
		FromUnit: req.FromUnit,
		ToUnit:   req.ToUnit,
		Username: user,
	}
	res, err := rt.converter.Convert(r.Context(), input)
	rt.recordConversion(req.Category, err)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, conversionResponse{
		Category:  string(res.Category),
		Value:     res.Value,
		Unit:      res.Unit,
		Formatted: res.Format(rt.precision),
		Display:   displayLine(strings.TrimSpace(input.Value), strings.TrimSpace(input.FromUnit), res, rt.precision),
	})
}

func (rt *Router) registerAPI(w http.ResponseWriter, r *http.Request) {
	if !rt.authEnabled {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	account, err := rt.accounts.Register(r.Context(), req.Username, req.Password)
	rt.recordAuth("register", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (rt *Router) sessionsAPI(w http.ResponseWriter, r *http.Request) {
	if !rt.authEnabled {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodPost:
		var req credentialsRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		account, err := rt.accounts.Authenticate(r.Context(), req.Username, req.Password)
		rt.recordAuth("login", err)
		if err != nil {
			writeError(w, err)
			return
		}
		setSessionCookie(w, rt.sessions.create(account.Username), rt.sessionTTL)
		writeJSON(w, http.StatusOK, account)
	case http.MethodDelete:
		rt.endSession(w, r)
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, "POST, DELETE")
	}
}

func (rt *Router) exportUnits(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	var buf bytes.Buffer
	if err := xlsx.WriteUnitReference(&buf, rt.converter); err != nil {
		slog.Error("export_units_failed", "error", err, "request_id", requestIDFromContext(r.Context()))
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="units.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return false
	}
	return true
}

// valueText keeps the raw text for string values so the conversion log shows
// what the caller sent; numbers use the shortest exact form.
func valueText(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	default:
		return ""
	}
}
