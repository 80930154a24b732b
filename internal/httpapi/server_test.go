package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	anthropic "github.com/anthropics/anthropic-sdk-go"

	"github.com/joelkehle/elasticity-lab/internal/advisor"
	"github.com/joelkehle/elasticity-lab/internal/fixtures"
	"github.com/joelkehle/elasticity-lab/internal/scenario"
	"github.com/joelkehle/elasticity-lab/internal/store"
)

func newTestServer(t *testing.T, a *advisor.Advisor) http.Handler {
	t.Helper()
	set := fixtures.Demo()
	session := scenario.NewSession(set.Table, set.Weekly, set.Scenarios)
	return NewServer(Config{Session: session, Segments: set.Segments, Advisor: a})
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestListScenarios(t *testing.T) {
	h := newTestServer(t, nil)
	rec := doJSON(t, h, http.MethodGet, "/v1/scenarios", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Scenarios []scenario.Scenario `json:"scenarios"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Scenarios) == 0 {
		t.Fatal("demo scenarios should be listed")
	}
}

func TestCreateScenario(t *testing.T) {
	h := newTestServer(t, nil)
	rec := doJSON(t, h, http.MethodPost, "/v1/scenarios",
		`{"tier": "ad_free", "current_price": 9.99, "new_price": 8.99}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var sc scenario.Scenario
	if err := json.Unmarshal(rec.Body.Bytes(), &sc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(sc.ID, "custom-") {
		t.Fatalf("expected generated ID, got %q", sc.ID)
	}

	get := doJSON(t, h, http.MethodGet, "/v1/scenarios/"+sc.ID, "")
	if get.Code != http.StatusOK {
		t.Fatalf("created scenario should be fetchable, got %d", get.Code)
	}
}

func TestPatchPrice(t *testing.T) {
	h := newTestServer(t, nil)
	rec := doJSON(t, h, http.MethodPatch, "/v1/scenarios/ads-modest-increase/price",
		`{"new_price": 7.49}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var sc scenario.Scenario
	if err := json.Unmarshal(rec.Body.Bytes(), &sc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sc.Config.NewPrice != 7.49 {
		t.Fatalf("price not applied: %+v", sc.Config)
	}
}

func TestPatchPriceConstraintViolation(t *testing.T) {
	h := newTestServer(t, nil)
	rec := doJSON(t, h, http.MethodPatch, "/v1/scenarios/ads-modest-increase/price",
		`{"new_price": 19.99}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSimulate(t *testing.T) {
	h := newTestServer(t, nil)
	rec := doJSON(t, h, http.MethodPost, "/v1/simulate", `{"scenario_id": "ads-modest-increase"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var result scenario.SimulationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Forecasted.Subscribers <= 0 || len(result.TimeSeries) != 13 {
		t.Fatalf("incomplete result: %+v", result)
	}
}

func TestSimulateUnknownScenario(t *testing.T) {
	h := newTestServer(t, nil)
	rec := doJSON(t, h, http.MethodPost, "/v1/simulate", `{"scenario_id": "nope"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSimulateSegment(t *testing.T) {
	h := newTestServer(t, nil)
	rec := doJSON(t, h, http.MethodPost, "/v1/simulate/segment",
		`{"tier": "ad_free", "target_segment": "heavy", "current_price": 9.99, "new_price": 10.99}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["target_segment"] != "heavy" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestSimulateSegmentBadInput(t *testing.T) {
	h := newTestServer(t, nil)
	rec := doJSON(t, h, http.MethodPost, "/v1/simulate/segment",
		`{"tier": "ad_free", "current_price": 9.99, "new_price": 10.99}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCompare(t *testing.T) {
	h := newTestServer(t, nil)
	rec := doJSON(t, h, http.MethodPost, "/v1/compare",
		`{"scenario_ids": ["ads-modest-increase", "missing", "adfree-increase"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Items []scenario.CompareItem `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(resp.Items))
	}
	if resp.Items[1].Error == "" {
		t.Fatal("missing scenario should carry an error placeholder")
	}
}

func TestSimulateNarrowedResultNotPersisted(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "lab.db")
	db, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	set := fixtures.Demo()
	session := scenario.NewSession(set.Table, set.Weekly, set.Scenarios)
	h := NewServer(Config{Session: session, Segments: set.Segments, Store: db})

	rec := doJSON(t, h, http.MethodPost, "/v1/simulate",
		`{"scenario_id": "ads-modest-increase", "segment": "price_sensitive", "months": 2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, h, http.MethodPost, "/v1/simulate", `{"scenario_id": "adfree-increase"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	reopened, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()
	fresh := scenario.NewSession(set.Table, set.Weekly, set.Scenarios)
	if err := reopened.Restore(fresh); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if _, ok := fresh.Result("ads-modest-increase"); ok {
		t.Fatal("narrowed result must not survive a restart")
	}
	restored, ok := fresh.Result("adfree-increase")
	if !ok {
		t.Fatal("default result should survive a restart")
	}
	if len(restored.TimeSeries) != 13 {
		t.Fatalf("restored result should be the full-horizon run, got %d points", len(restored.TimeSeries))
	}
}

func TestResultsAfterSimulate(t *testing.T) {
	h := newTestServer(t, nil)
	doJSON(t, h, http.MethodPost, "/v1/simulate", `{"scenario_id": "ads-modest-increase"}`)
	rec := doJSON(t, h, http.MethodGet, "/v1/results", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "ads-modest-increase") {
		t.Fatal("results should include the simulated scenario")
	}
}

func TestSaveScenario(t *testing.T) {
	h := newTestServer(t, nil)
	rec := doJSON(t, h, http.MethodPost, "/v1/scenarios/adfree-increase/save", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "adfree-increase") {
		t.Fatal("saved list should include the scenario")
	}
	if rec := doJSON(t, h, http.MethodPost, "/v1/scenarios/nope/save", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown scenario, got %d", rec.Code)
	}
}

func TestReportMarkdownAndHTML(t *testing.T) {
	h := newTestServer(t, nil)
	rec := doJSON(t, h, http.MethodGet, "/v1/report/ads-modest-increase", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "# Price Elasticity Scenario Report") {
		t.Fatal("default report should be markdown")
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/report/ads-modest-increase", nil)
	req.Header.Set("Accept", "text/html")
	htmlRec := httptest.NewRecorder()
	h.ServeHTTP(htmlRec, req)
	if !strings.Contains(htmlRec.Body.String(), "<table>") {
		t.Fatal("Accept: text/html should yield rendered HTML")
	}
}

func TestReportPDFUnconfigured(t *testing.T) {
	h := newTestServer(t, nil)
	rec := doJSON(t, h, http.MethodGet, "/v1/report-pdf/ads-modest-increase", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a renderer, got %d", rec.Code)
	}
}

func TestChatUnconfigured(t *testing.T) {
	h := newTestServer(t, nil)
	rec := doJSON(t, h, http.MethodPost, "/v1/chat", `{"message": "hi"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without an advisor, got %d", rec.Code)
	}
}

type fixedCaller struct {
	response string
}

func (c *fixedCaller) Generate(_ context.Context, _ []anthropic.MessageParam) (string, error) {
	return c.response, nil
}

func (c *fixedCaller) ModelName() string { return "fixed" }

func TestChatEndpoint(t *testing.T) {
	set := fixtures.Demo()
	session := scenario.NewSession(set.Table, set.Weekly, set.Scenarios)
	a := advisor.New(&fixedCaller{response: `{"reply": "looks reasonable"}`},
		advisor.NewToolkit(session, set.Segments))
	h := NewServer(Config{Session: session, Segments: set.Segments, Advisor: a})

	rec := doJSON(t, h, http.MethodPost, "/v1/chat", `{"message": "thoughts on the modest increase?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp advisor.ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Reply != "looks reasonable" {
		t.Fatalf("unexpected reply: %q", resp.Reply)
	}
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, nil)
	rec := doJSON(t, h, http.MethodGet, "/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["ok"] != true || body["chat_enabled"] != false {
		t.Fatalf("unexpected health payload: %v", body)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestServer(t, nil)
	if rec := doJSON(t, h, http.MethodDelete, "/v1/scenarios", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodGet, "/v1/simulate", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
