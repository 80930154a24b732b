package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/joelkehle/elasticity-lab/internal/advisor"
	"github.com/joelkehle/elasticity-lab/internal/elasticity"
	"github.com/joelkehle/elasticity-lab/internal/forecast"
	"github.com/joelkehle/elasticity-lab/internal/report"
	"github.com/joelkehle/elasticity-lab/internal/scenario"
	"github.com/joelkehle/elasticity-lab/internal/segment"
	"github.com/joelkehle/elasticity-lab/internal/store"
)

// Server exposes the simulation session over HTTP. The advisor, the
// store, and the PDF renderer are optional; endpoints depending on them
// answer 503 when absent.
type Server struct {
	session  *scenario.Session
	segments []segment.Record
	advisor  *advisor.Advisor
	store    *store.Store
	pdf      *report.ChromiumPDFRenderer
}

type Config struct {
	Session  *scenario.Session
	Segments []segment.Record
	Advisor  *advisor.Advisor
	Store    *store.Store
	PDF      *report.ChromiumPDFRenderer
}

func NewServer(cfg Config) http.Handler {
	s := &Server{
		session:  cfg.Session,
		segments: cfg.Segments,
		advisor:  cfg.Advisor,
		store:    cfg.Store,
		pdf:      cfg.PDF,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/scenarios", s.handleScenarios)
	mux.HandleFunc("/v1/scenarios/", s.handleScenarioSubpath)
	mux.HandleFunc("/v1/simulate", s.handleSimulate)
	mux.HandleFunc("/v1/simulate/segment", s.handleSimulateSegment)
	mux.HandleFunc("/v1/compare", s.handleCompare)
	mux.HandleFunc("/v1/results", s.handleResults)
	mux.HandleFunc("/v1/chat", s.handleChat)
	mux.HandleFunc("/v1/report/", s.handleReport)
	mux.HandleFunc("/v1/report-pdf/", s.handleReportPDF)
	mux.HandleFunc("/v1/health", s.handleHealth)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]any{
		"ok":    false,
		"error": err.Error(),
	})
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	var nfe *scenario.NotFoundError
	var mde *scenario.MissingDataError
	var nde *segment.NoDataError
	var ute *elasticity.UnknownTierError
	var cve *scenario.ConstraintViolationError
	var mpe *forecast.MissingParameterError
	var iie *segment.InvalidInputError
	var bae *advisor.BadArgumentsError
	switch {
	case errors.As(err, &nfe), errors.As(err, &mde), errors.As(err, &nde), errors.As(err, &ute):
		return http.StatusNotFound
	case errors.As(err, &cve):
		return http.StatusUnprocessableEntity
	case errors.As(err, &mpe), errors.As(err, &iie), errors.As(err, &bae):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func readBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	blob, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if len(blob) == 0 {
		blob = []byte("{}")
	}
	return json.Unmarshal(blob, dst)
}

func methodOnly(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"ok": false, "error": "method not allowed"})
		return false
	}
	return true
}

func (s *Server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"scenarios": s.session.Scenarios()})
	case http.MethodPost:
		var req struct {
			Tier         string  `json:"tier"`
			CurrentPrice float64 `json:"current_price"`
			NewPrice     float64 `json:"new_price"`
			Category     string  `json:"category,omitempty"`
			Promotion    string  `json:"promotion,omitempty"`
		}
		if err := readBody(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
			return
		}
		sc, err := s.session.CreateScenario(scenario.CustomScenarioParams{
			Tier:         elasticity.Tier(req.Tier),
			CurrentPrice: req.CurrentPrice,
			NewPrice:     req.NewPrice,
			Category:     req.Category,
			Promotion:    req.Promotion,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		s.persistScenario(sc)
		writeJSON(w, http.StatusCreated, sc)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"ok": false, "error": "method not allowed"})
	}
}

// handleScenarioSubpath routes /v1/scenarios/{id}, /{id}/price and
// /{id}/save.
func (s *Server) handleScenarioSubpath(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/scenarios/")
	parts := strings.Split(rest, "/")
	if len(parts) == 1 && parts[0] != "" {
		if !methodOnly(w, r, http.MethodGet) {
			return
		}
		sc, err := s.session.Scenario(parts[0])
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sc)
		return
	}
	if len(parts) != 2 {
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "not found"})
		return
	}
	id := parts[0]
	switch parts[1] {
	case "price":
		if !methodOnly(w, r, http.MethodPatch) {
			return
		}
		var req struct {
			NewPrice float64 `json:"new_price"`
		}
		if err := readBody(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
			return
		}
		sc, err := s.session.UpdatePrice(id, req.NewPrice)
		if err != nil {
			writeError(w, err)
			return
		}
		s.persistScenario(sc)
		writeJSON(w, http.StatusOK, sc)
	case "save":
		if !methodOnly(w, r, http.MethodPost) {
			return
		}
		if err := s.session.SaveScenario(id); err != nil {
			writeError(w, err)
			return
		}
		if s.store != nil {
			if err := s.store.MarkSaved(id); err != nil {
				log.Printf("httpapi persist_saved_error scenario=%s err=%q", id, err.Error())
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "saved": s.session.SavedScenarios()})
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "not found"})
	}
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	var req struct {
		ScenarioID  string             `json:"scenario_id"`
		Months      int                `json:"months,omitempty"`
		Segment     string             `json:"segment,omitempty"`
		Cohort      *elasticity.Cohort `json:"cohort,omitempty"`
		TimeHorizon string             `json:"time_horizon,omitempty"`
		Force       bool               `json:"force,omitempty"`
	}
	if err := readBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	opts := scenario.SimulateOptions{
		Months:      req.Months,
		Segment:     req.Segment,
		Cohort:      req.Cohort,
		TimeHorizon: elasticity.TimeHorizon(req.TimeHorizon),
		Force:       req.Force,
	}
	result, err := s.session.Simulate(r.Context(), req.ScenarioID, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	// Persist only what the session itself caches; a narrowed result
	// replayed on restart would shadow the default one.
	if !opts.Narrowed() {
		s.persistResult(result)
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSimulateSegment(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	var in segment.Input
	if err := readBody(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	result, err := segment.Estimate(s.session.Table(), s.segments, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	var req struct {
		ScenarioIDs []string `json:"scenario_ids"`
	}
	if err := readBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	if len(req.ScenarioIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "scenario_ids is required"})
		return
	}
	items := s.session.Compare(r.Context(), req.ScenarioIDs)
	for _, it := range items {
		if it.Result != nil {
			s.persistResult(*it.Result)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": s.session.Results()})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	if s.advisor == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": "chat is not configured"})
		return
	}
	var req advisor.ChatRequest
	if err := readBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	resp, err := s.advisor.Chat(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	result, err := s.resultFor(r, "/v1/report/")
	if err != nil {
		writeError(w, err)
		return
	}
	md := report.BuildMarkdown(result)
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		html, herr := report.ToHTML(md)
		if herr != nil {
			writeError(w, herr)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(md))
}

func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	if s.pdf == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": "pdf rendering is not configured"})
		return
	}
	result, err := s.resultFor(r, "/v1/report-pdf/")
	if err != nil {
		writeError(w, err)
		return
	}
	pdf, err := s.pdf.Render(r.Context(), report.BuildMarkdown(result), result.ScenarioName)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	_, _ = w.Write(pdf)
}

// resultFor resolves the scenario id in the path to a result, simulating
// on demand when none is cached.
func (s *Server) resultFor(r *http.Request, prefix string) (scenario.SimulationResult, error) {
	id := strings.TrimPrefix(r.URL.Path, prefix)
	if id == "" || strings.Contains(id, "/") {
		return scenario.SimulationResult{}, &scenario.NotFoundError{Kind: "scenario", ID: id}
	}
	if cached, ok := s.session.Result(id); ok {
		return cached, nil
	}
	return s.session.Simulate(r.Context(), id, scenario.SimulateOptions{})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":              true,
		"scenarios":       len(s.session.Scenarios()),
		"results":         len(s.session.Results()),
		"segment_records": len(s.segments),
		"chat_enabled":    s.advisor != nil,
	})
}

func (s *Server) persistResult(result scenario.SimulationResult) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveResult(result); err != nil {
		log.Printf("httpapi persist_result_error scenario=%s err=%q", result.ScenarioID, err.Error())
	}
}

func (s *Server) persistScenario(sc scenario.Scenario) {
	if s.store == nil {
		return
	}
	if !strings.HasPrefix(sc.ID, "custom-") {
		return
	}
	if err := s.store.SaveCustomScenario(sc); err != nil {
		log.Printf("httpapi persist_scenario_error scenario=%s err=%q", sc.ID, err.Error())
	}
}
