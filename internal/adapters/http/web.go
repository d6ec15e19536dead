package httpadapter

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kirillkom/unit-converter/internal/core/domain"
)

const recentLogLines = 10

type categoryView struct {
	Name  string
	Label string
}

type pageData struct {
	Title       string
	Username    string
	AuthEnabled bool

	Categories []categoryView
	Category   string
	Units      []domain.Unit
	FromUnit   string
	ToUnit     string
	Value      string
	Result     string

	Action string
	Notice string
	Error  string
	Lines  []string
}

func (rt *Router) render(w http.ResponseWriter, status int, name string, data pageData) {
	var buf bytes.Buffer
	if err := rt.pages.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("render_page_failed", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// requireUser redirects to the login page when the gate is on and the
// request carries no live session. It reports whether handling may go on.
func (rt *Router) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	user := rt.currentUser(r)
	if rt.authEnabled && user == "" {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return "", false
	}
	return user, true
}

// converterPage fills the selectors for category. An unknown category falls
// back to the first one and reports the error.
func (rt *Router) converterPage(category, username string) (pageData, error) {
	categories := rt.converter.Categories()
	data := pageData{
		Title:       "Engineering Unit Converter",
		Username:    username,
		AuthEnabled: rt.authEnabled,
		Categories:  make([]categoryView, 0, len(categories)),
	}
	for _, c := range categories {
		data.Categories = append(data.Categories, categoryView{Name: string(c), Label: c.Label()})
	}

	selected := categories[0]
	var parseErr error
	if strings.TrimSpace(category) != "" {
		c, err := domain.ParseCategory(category)
		if err != nil {
			parseErr = err
		} else {
			selected = c
		}
	}
	units, err := rt.converter.Units(selected)
	if err != nil {
		return data, err
	}
	data.Category = string(selected)
	data.Units = units
	data.FromUnit = units[0].Symbol
	data.ToUnit = units[min(1, len(units)-1)].Symbol
	return data, parseErr
}

func (rt *Router) index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, "GET, HEAD")
		return
	}
	user, ok := rt.requireUser(w, r)
	if !ok {
		return
	}

	data, err := rt.converterPage(r.URL.Query().Get("category"), user)
	status := http.StatusOK
	if err != nil {
		data.Error = domain.UserMessage(err)
		status = mapErrorToHTTPStatus(err)
	}
	rt.render(w, status, "index.html", data)
}

func (rt *Router) convertForm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	user, ok := rt.requireUser(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	input := domain.ConversionInput{
		Category: r.PostFormValue("category"),
		Value:    r.PostFormValue("value"),
		FromUnit: r.PostFormValue("from_unit"),
		ToUnit:   r.PostFormValue("to_unit"),
		Username: user,
	}
	res, convErr := rt.converter.Convert(r.Context(), input)
	rt.recordConversion(input.Category, convErr)

	data, pageErr := rt.converterPage(input.Category, user)
	data.Value = strings.TrimSpace(input.Value)
	if pageErr == nil {
		data.FromUnit = strings.TrimSpace(input.FromUnit)
		data.ToUnit = strings.TrimSpace(input.ToUnit)
	}

	if convErr != nil {
		data.Error = domain.UserMessage(convErr)
		rt.render(w, mapErrorToHTTPStatus(convErr), "index.html", data)
		return
	}
	data.ToUnit = res.Unit
	data.Result = displayLine(data.Value, data.FromUnit, res, rt.precision)
	rt.render(w, http.StatusOK, "index.html", data)
}

func (rt *Router) logsPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	user, ok := rt.requireUser(w, r)
	if !ok {
		return
	}
	data := pageData{Title: "Recent conversion logs", Username: user, AuthEnabled: rt.authEnabled}
	if rt.logs != nil {
		lines, err := rt.logs.Recent(recentLogLines)
		if err != nil {
			slog.Warn("read_conversion_log_failed", "error", err)
			data.Error = "Could not read the conversion log."
		}
		data.Lines = lines
	}
	rt.render(w, http.StatusOK, "logs.html", data)
}

func (rt *Router) signupPage(w http.ResponseWriter, r *http.Request) {
	if !rt.authEnabled {
		http.NotFound(w, r)
		return
	}
	data := pageData{Title: "Sign up", Action: "/signup", AuthEnabled: true}
	switch r.Method {
	case http.MethodGet:
		rt.render(w, http.StatusOK, "auth.html", data)
	case http.MethodPost:
		username := r.PostFormValue("username")
		_, err := rt.accounts.Register(r.Context(), username, r.PostFormValue("password"))
		rt.recordAuth("register", err)
		if err != nil {
			data.Error = domain.UserMessage(err)
			data.Value = username
			rt.render(w, mapErrorToHTTPStatus(err), "auth.html", data)
			return
		}
		login := pageData{
			Title:       "Log in",
			Action:      "/login",
			AuthEnabled: true,
			Value:       strings.TrimSpace(username),
			Notice:      "Account created successfully! Log in to continue.",
		}
		rt.render(w, http.StatusCreated, "auth.html", login)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (rt *Router) loginPage(w http.ResponseWriter, r *http.Request) {
	if !rt.authEnabled {
		http.NotFound(w, r)
		return
	}
	data := pageData{Title: "Log in", Action: "/login", AuthEnabled: true}
	switch r.Method {
	case http.MethodGet:
		rt.render(w, http.StatusOK, "auth.html", data)
	case http.MethodPost:
		username := r.PostFormValue("username")
		account, err := rt.accounts.Authenticate(r.Context(), username, r.PostFormValue("password"))
		rt.recordAuth("login", err)
		if err != nil {
			data.Error = domain.UserMessage(err)
			data.Value = username
			rt.render(w, mapErrorToHTTPStatus(err), "auth.html", data)
			return
		}
		setSessionCookie(w, rt.sessions.create(account.Username), rt.sessionTTL)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (rt *Router) logoutForm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	rt.endSession(w, r)
	target := "/"
	if rt.authEnabled {
		target = "/login"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (rt *Router) endSession(w http.ResponseWriter, r *http.Request) {
	id := sessionIDFromRequest(r)
	if user := rt.sessions.get(id); user != "" && rt.accounts != nil {
		rt.accounts.Logout(r.Context(), user)
	}
	rt.sessions.delete(id)
	clearSessionCookie(w)
}

func displayLine(value, fromUnit string, res *domain.ConversionResult, precision int) string {
	return fmt.Sprintf("%s %s = %s %s", value, fromUnit, res.Format(precision), res.Unit)
}
