package httpadapter

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/kirillkom/unit-converter/internal/config"
	"github.com/kirillkom/unit-converter/internal/core/converter"
	"github.com/kirillkom/unit-converter/internal/core/usecase"
	"github.com/kirillkom/unit-converter/internal/infrastructure/auditlog"
	"github.com/kirillkom/unit-converter/internal/infrastructure/repository/memory"
	"github.com/kirillkom/unit-converter/internal/infrastructure/security/hashing"
	"github.com/kirillkom/unit-converter/internal/observability/metrics"
)

type testServer struct {
	handler http.Handler
	sink    *auditlog.Sink
}

func testConfig(authEnabled bool) config.Config {
	cfg := config.Default()
	cfg.AuthEnabled = authEnabled
	cfg.AuthRateLimitRPS = 100
	cfg.AuthRateLimitBurst = 100
	return cfg
}

func newTestServer(t *testing.T, cfg config.Config, m *metrics.HTTPServerMetrics) *testServer {
	t.Helper()
	sink, err := auditlog.Open(filepath.Join(t.TempDir(), "unit_converter.log"))
	if err != nil {
		t.Fatalf("auditlog.Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = sink.Close()
	})

	convertUC := usecase.NewConvertUseCase(converter.New(), sink.Logger(), usecase.WithPrecision(cfg.DisplayPrecision))
	accountUC := usecase.NewAccountUseCase(memory.NewStore(), hashing.NewBcryptHasher(bcrypt.MinCost), sink.Logger())

	router, err := NewRouter(cfg, convertUC, accountUC, sink, m)
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	return &testServer{handler: router.Handler(), sink: sink}
}

func (s *testServer) do(t *testing.T, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	res := httptest.NewRecorder()
	s.handler.ServeHTTP(res, req)
	return res
}

func (s *testServer) postForm(t *testing.T, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	res := httptest.NewRecorder()
	s.handler.ServeHTTP(res, req)
	return res
}

func sessionCookie(t *testing.T, res *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range res.Result().Cookies() {
		if c.Name == sessionCookieName && c.Value != "" {
			return c
		}
	}
	t.Fatalf("expected session cookie in response")
	return nil
}

func decodeBody(t *testing.T, res *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(bytes.NewReader(res.Body.Bytes())).Decode(&out); err != nil {
		t.Fatalf("decode response: %v (body=%q)", err, res.Body.String())
	}
	return out
}

func TestConvertAPIReturnsResult(t *testing.T) {
	srv := newTestServer(t, testConfig(false), nil)

	res := srv.do(t, http.MethodPost, "/v1/conversions", `{"category":"length","value":1,"from_unit":"km","to_unit":"m"}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	body := decodeBody(t, res)
	if body["formatted"] != "1000.000000" || body["display"] != "1 km = 1000.000000 m" {
		t.Fatalf("unexpected response: %v", body)
	}

	res = srv.do(t, http.MethodPost, "/v1/conversions", `{"category":"Temperature","value":"-40","from_unit":"c","to_unit":"F"}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if body := decodeBody(t, res); body["value"] != -40.0 || body["unit"] != "F" {
		t.Fatalf("unexpected response: %v", body)
	}
}

func TestConvertAPIMapsInputErrorsTo400(t *testing.T) {
	srv := newTestServer(t, testConfig(false), nil)

	cases := map[string]string{
		`{"category":"length","value":1,"from_unit":"parsec","to_unit":"m"}`: "Unknown unit.",
		`{"category":"length","value":"abc","from_unit":"km","to_unit":"m"}`: "Please enter a numeric value.",
		`{"category":"torque","value":1,"from_unit":"Nm","to_unit":"m"}`:     "Unknown category.",
	}
	for payload, prefix := range cases {
		res := srv.do(t, http.MethodPost, "/v1/conversions", payload)
		if res.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", payload, res.Code)
		}
		if msg, _ := decodeBody(t, res)["error"].(string); !strings.HasPrefix(msg, prefix) {
			t.Fatalf("%s: expected %q, got %q", payload, prefix, msg)
		}
	}

	lines, err := srv.sink.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected one log line per attempt, got %d", len(lines))
	}
	for _, line := range lines {
		if !strings.Contains(line, " - WARNING - Conversion error in ") {
			t.Fatalf("unexpected log line %q", line)
		}
	}
}

func TestConvertAPIRejectsRequestsOutsideContract(t *testing.T) {
	srv := newTestServer(t, testConfig(false), nil)

	for _, payload := range []string{
		`{"category":"length","value":1,"from_unit":"km"}`,
		`{"category":"length","value":true,"from_unit":"km","to_unit":"m"}`,
	} {
		res := srv.do(t, http.MethodPost, "/v1/conversions", payload)
		if res.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", payload, res.Code)
		}
		if msg, _ := decodeBody(t, res)["error"].(string); !strings.HasPrefix(msg, "invalid request body") {
			t.Fatalf("%s: unexpected error %q", payload, msg)
		}
	}

	res := srv.do(t, http.MethodGet, "/v1/conversions", "")
	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", res.Code)
	}
}

func TestListCategoriesInMenuOrder(t *testing.T) {
	srv := newTestServer(t, testConfig(false), nil)

	res := srv.do(t, http.MethodGet, "/v1/categories", "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var body struct {
		Categories []categoryResponse `json:"categories"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Categories) != 8 || body.Categories[0].Name != "length" || body.Categories[7].Label != "Temperature" {
		t.Fatalf("unexpected categories: %+v", body.Categories)
	}
}

func TestAccountAndSessionFlow(t *testing.T) {
	srv := newTestServer(t, testConfig(true), nil)
	convert := `{"category":"mass","value":2,"from_unit":"kg","to_unit":"g"}`

	if res := srv.do(t, http.MethodPost, "/v1/conversions", convert); res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 before login, got %d", res.Code)
	}

	if res := srv.do(t, http.MethodPost, "/v1/accounts", `{"username":"alice","password":"pw"}`); res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
	if res := srv.do(t, http.MethodPost, "/v1/accounts", `{"username":"alice","password":"other"}`); res.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", res.Code)
	}
	if res := srv.do(t, http.MethodPost, "/v1/sessions", `{"username":"alice","password":"wrong"}`); res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}

	login := srv.do(t, http.MethodPost, "/v1/sessions", `{"username":"alice","password":"pw"}`)
	if login.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", login.Code)
	}
	cookie := sessionCookie(t, login)

	if res := srv.do(t, http.MethodPost, "/v1/conversions", convert, cookie); res.Code != http.StatusOK {
		t.Fatalf("expected 200 after login, got %d", res.Code)
	}
	lines, err := srv.sink.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if last := lines[len(lines)-1]; !strings.HasSuffix(last, "Mass: 2 kg → 2000.000000 g by alice") {
		t.Fatalf("unexpected log line %q", last)
	}

	if res := srv.do(t, http.MethodDelete, "/v1/sessions", "", cookie); res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
	if res := srv.do(t, http.MethodPost, "/v1/conversions", convert, cookie); res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", res.Code)
	}
}

func TestAccountRoutesHiddenWhenAuthDisabled(t *testing.T) {
	srv := newTestServer(t, testConfig(false), nil)
	if res := srv.do(t, http.MethodPost, "/v1/accounts", `{"username":"a","password":"b"}`); res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
	if res := srv.do(t, http.MethodGet, "/login", ""); res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestRateLimitReturns429(t *testing.T) {
	cfg := testConfig(true)
	cfg.AuthRateLimitRPS = 0.001
	cfg.AuthRateLimitBurst = 1
	srv := newTestServer(t, cfg, nil)

	first := srv.do(t, http.MethodPost, "/v1/sessions", `{"username":"a","password":"b"}`)
	if first.Code == http.StatusTooManyRequests {
		t.Fatalf("first request must not be limited")
	}
	second := srv.do(t, http.MethodPost, "/v1/sessions", `{"username":"a","password":"b"}`)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header for 429 response")
	}
	if res := srv.do(t, http.MethodGet, "/login", ""); res.Code != http.StatusOK {
		t.Fatalf("page loads must not be limited, got %d", res.Code)
	}
}

func TestIndexRendersUnitsForSelectedCategory(t *testing.T) {
	srv := newTestServer(t, testConfig(false), nil)

	res := srv.do(t, http.MethodGet, "/?category=temperature", "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	body := res.Body.String()
	if !strings.Contains(body, `<option value="K"`) || strings.Contains(body, `<option value="km"`) {
		t.Fatalf("expected temperature units only:\n%s", body)
	}

	if res := srv.do(t, http.MethodGet, "/?category=torque", ""); res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown category, got %d", res.Code)
	}
	if res := srv.do(t, http.MethodGet, "/missing", ""); res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestConvertFormShowsResultOrError(t *testing.T) {
	srv := newTestServer(t, testConfig(false), nil)

	res := srv.postForm(t, "/convert", url.Values{
		"category": {"length"}, "value": {"1"}, "from_unit": {"km"}, "to_unit": {"m"},
	})
	if res.Code != http.StatusOK || !strings.Contains(res.Body.String(), "1 km = 1000.000000 m") {
		t.Fatalf("unexpected response %d:\n%s", res.Code, res.Body.String())
	}

	res = srv.postForm(t, "/convert", url.Values{
		"category": {"length"}, "value": {"abc"}, "from_unit": {"km"}, "to_unit": {"m"},
	})
	if res.Code != http.StatusBadRequest || !strings.Contains(res.Body.String(), "Please enter a numeric value.") {
		t.Fatalf("unexpected response %d:\n%s", res.Code, res.Body.String())
	}
}

func TestWebLoginFlow(t *testing.T) {
	srv := newTestServer(t, testConfig(true), nil)

	res := srv.do(t, http.MethodGet, "/", "")
	if res.Code != http.StatusSeeOther || res.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login, got %d %q", res.Code, res.Header().Get("Location"))
	}

	res = srv.postForm(t, "/signup", url.Values{"username": {"bob"}, "password": {""}})
	if res.Code != http.StatusBadRequest || !strings.Contains(res.Body.String(), "Please fill all fields.") {
		t.Fatalf("expected empty field rejection, got %d", res.Code)
	}
	res = srv.postForm(t, "/signup", url.Values{"username": {"bob"}, "password": {"pw"}})
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", res.Code)
	}

	res = srv.postForm(t, "/login", url.Values{"username": {"bob"}, "password": {"nope"}})
	if res.Code != http.StatusUnauthorized || !strings.Contains(res.Body.String(), "Invalid username or password.") {
		t.Fatalf("expected login failure, got %d", res.Code)
	}
	res = srv.postForm(t, "/login", url.Values{"username": {"bob"}, "password": {"pw"}})
	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect after login, got %d", res.Code)
	}
	cookie := sessionCookie(t, res)

	res = srv.do(t, http.MethodGet, "/", "", cookie)
	if res.Code != http.StatusOK || !strings.Contains(res.Body.String(), "Hello, bob!") {
		t.Fatalf("expected greeting, got %d", res.Code)
	}

	res = srv.postForm(t, "/logout", url.Values{}, cookie)
	if res.Code != http.StatusSeeOther || res.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login after logout, got %d", res.Code)
	}
	if res := srv.do(t, http.MethodGet, "/", "", cookie); res.Code != http.StatusSeeOther {
		t.Fatalf("session must be gone after logout, got %d", res.Code)
	}
}

func TestLogsPageShowsRecentLines(t *testing.T) {
	srv := newTestServer(t, testConfig(false), nil)

	res := srv.do(t, http.MethodGet, "/logs", "")
	if !strings.Contains(res.Body.String(), "No logs available yet.") {
		t.Fatalf("expected empty state:\n%s", res.Body.String())
	}

	for i := 0; i < 12; i++ {
		srv.do(t, http.MethodPost, "/v1/conversions", `{"category":"power","value":1,"from_unit":"kW","to_unit":"W"}`)
	}
	res = srv.do(t, http.MethodGet, "/logs", "")
	if got := strings.Count(res.Body.String(), "Power: 1 kW → 1000.000000 W"); got != recentLogLines {
		t.Fatalf("expected %d log lines, got %d", recentLogLines, got)
	}
}

func TestExportUnitsWorkbook(t *testing.T) {
	srv := newTestServer(t, testConfig(false), nil)

	res := srv.do(t, http.MethodGet, "/v1/units.xlsx", "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if !strings.Contains(res.Header().Get("Content-Disposition"), "units.xlsx") {
		t.Fatalf("missing attachment header")
	}
	f, err := excelize.OpenReader(bytes.NewReader(res.Body.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()
	if got := len(f.GetSheetList()); got != 8 {
		t.Fatalf("expected 8 sheets, got %d", got)
	}
}

func TestOpenAPIDocumentAndRequestID(t *testing.T) {
	srv := newTestServer(t, testConfig(false), nil)

	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	req.Header.Set(requestIDHeader, "req-42")
	res := httptest.NewRecorder()
	srv.handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get(requestIDHeader) != "req-42" {
		t.Fatalf("expected request id to be echoed")
	}
	if body := decodeBody(t, res); body["openapi"] != "3.0.3" {
		t.Fatalf("unexpected document: %v", body["openapi"])
	}

	res = srv.do(t, http.MethodGet, "/healthz", "")
	if res.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected generated request id")
	}
}

func TestMetricsCountConversions(t *testing.T) {
	m := metrics.NewHTTPServerMetrics("unit-converter-api")
	srv := newTestServer(t, testConfig(false), m)

	srv.do(t, http.MethodPost, "/v1/conversions", `{"category":"length","value":1,"from_unit":"km","to_unit":"m"}`)
	srv.do(t, http.MethodPost, "/v1/conversions", `{"category":"nope","value":1,"from_unit":"km","to_unit":"m"}`)

	res := srv.do(t, http.MethodGet, "/metrics", "")
	body := res.Body.String()
	for _, want := range []string{
		`unitconv_converter_conversions_total{category="length",outcome="success",service="unit-converter-api"} 1`,
		`unitconv_converter_conversions_total{category="unknown",outcome="rejected",service="unit-converter-api"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q:\n%s", want, body)
		}
	}
}

func TestConvertAPIRejectsOverflowingResult(t *testing.T) {
	srv := newTestServer(t, testConfig(false), nil)

	res := srv.do(t, http.MethodPost, "/v1/conversions", `{"category":"length","value":1e308,"from_unit":"km","to_unit":"mm"}`)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %q", res.Code, res.Body.String())
	}
	if body := decodeBody(t, res); body["error"] != "Result is out of range. Try a smaller value." {
		t.Fatalf("unexpected body: %v", body)
	}
	lines, err := srv.sink.Recent(1)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(lines) != 1 || !strings.Contains(lines[0], " - WARNING - ") || strings.Contains(lines[0], "Inf") {
		t.Fatalf("unexpected log: %q", lines)
	}
}

func TestWriteJSONEncodingFailureIs500(t *testing.T) {
	res := httptest.NewRecorder()
	writeJSON(res, http.StatusOK, map[string]float64{"value": math.Inf(1)})

	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
	if body := decodeBody(t, res); body["error"] == "" {
		t.Fatalf("expected error body, got %q", res.Body.String())
	}
}

func TestLogsPageSurvivesOversizedInput(t *testing.T) {
	srv := newTestServer(t, testConfig(false), nil)

	res := srv.postForm(t, "/convert", url.Values{
		"category": {"length"}, "value": {strings.Repeat("x", 70000)}, "from_unit": {"km"}, "to_unit": {"m"},
	})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	srv.postForm(t, "/convert", url.Values{
		"category": {"mass"}, "value": {"3"}, "from_unit": {"kg"}, "to_unit": {"g"},
	})

	res = srv.do(t, http.MethodGet, "/logs", "")
	body := res.Body.String()
	if strings.Contains(body, "Could not read the conversion log.") || !strings.Contains(body, "Mass: 3 kg → 3000.000000 g") {
		t.Fatalf("expected latest line on logs page:\n%.2000s", body)
	}
	lines, err := srv.sink.Recent(2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(lines[0]) > 512 {
		t.Fatalf("warning line keeps raw input: %d bytes", len(lines[0]))
	}
}

func TestRegisterAPIRejectsOverlongPassword(t *testing.T) {
	srv := newTestServer(t, testConfig(true), nil)

	res := srv.do(t, http.MethodPost, "/v1/accounts", `{"username":"alice","password":"`+strings.Repeat("p", 80)+`"}`)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", res.Code, res.Body.String())
	}
	if body := decodeBody(t, res); body["error"] != "Password is too long (at most 72 bytes)." {
		t.Fatalf("unexpected body: %v", body)
	}
	lines, err := srv.sink.Recent(1)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(lines) != 1 || !strings.Contains(lines[0], " - WARNING - ") {
		t.Fatalf("expected a warning line, got %q", lines)
	}
}
