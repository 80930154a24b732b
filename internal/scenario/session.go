package scenario

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/joelkehle/elasticity-lab/internal/elasticity"
)

// Session owns all mutable state for one exploration session: the loaded
// scenarios, accumulated simulation results, and the saved-scenario list.
// It replaces the ambient module-level caches of earlier prototypes with
// explicit create/read/append operations.
type Session struct {
	table  *elasticity.Table
	weekly []WeeklyRecord

	mu        sync.Mutex
	scenarios map[string]*Scenario
	order     []string
	results   map[string]*SimulationResult
	saved     []string
}

func NewSession(table *elasticity.Table, weekly []WeeklyRecord, scenarios []Scenario) *Session {
	if table == nil {
		table = elasticity.DefaultTable()
	}
	s := &Session{
		table:     table,
		weekly:    weekly,
		scenarios: map[string]*Scenario{},
		results:   map[string]*SimulationResult{},
	}
	for i := range scenarios {
		sc := scenarios[i]
		s.scenarios[sc.ID] = &sc
		s.order = append(s.order, sc.ID)
	}
	return s
}

// Table exposes the immutable elasticity reference set.
func (s *Session) Table() *elasticity.Table { return s.table }

// Weekly exposes the tier-level fixture rows.
func (s *Session) Weekly() []WeeklyRecord { return s.weekly }

func (s *Session) Scenario(id string) (Scenario, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.scenarios[id]
	if !ok {
		return Scenario{}, &NotFoundError{Kind: "scenario", ID: id}
	}
	return *sc, nil
}

func (s *Session) Scenarios() []Scenario {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Scenario, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.scenarios[id])
	}
	return out
}

// CustomScenarioParams are the inputs for a runtime-created scenario
// (custom editor or the advisor's create_scenario tool).
type CustomScenarioParams struct {
	Tier         elasticity.Tier
	CurrentPrice float64
	NewPrice     float64
	Category     string
	Promotion    string
}

// CreateScenario synthesizes a scenario with a generated identifier and
// derived name/description, registers it, and returns it.
func (s *Session) CreateScenario(params CustomScenarioParams) (Scenario, error) {
	if params.CurrentPrice <= 0 || params.NewPrice <= 0 {
		return Scenario{}, &ConstraintViolationError{Price: params.NewPrice, Min: 0.01, Max: 0}
	}
	category := params.Category
	if category == "" {
		category = "custom"
	}
	sc := &Scenario{
		ID:       "custom-" + uuid.NewString()[:8],
		Category: category,
		Config: Config{
			Tier:         params.Tier,
			CurrentPrice: params.CurrentPrice,
			NewPrice:     params.NewPrice,
			Promotion:    params.Promotion,
		},
	}
	sc.regenerate()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenarios[sc.ID] = sc
	s.order = append(s.order, sc.ID)
	return *sc, nil
}

// UpdatePrice edits a scenario's new price, bounded by its constraints.
// A rejected edit leaves the scenario untouched; an accepted edit
// regenerates name and description and invalidates any cached result.
func (s *Session) UpdatePrice(id string, newPrice float64) (Scenario, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.scenarios[id]
	if !ok {
		return Scenario{}, &NotFoundError{Kind: "scenario", ID: id}
	}
	if c := sc.Constraints; c != nil {
		if (c.MinPrice > 0 && newPrice < c.MinPrice) || (c.MaxPrice > 0 && newPrice > c.MaxPrice) {
			return Scenario{}, &ConstraintViolationError{
				ScenarioID: id, Price: newPrice, Min: c.MinPrice, Max: c.MaxPrice,
			}
		}
	}
	if newPrice <= 0 {
		return Scenario{}, &ConstraintViolationError{ScenarioID: id, Price: newPrice, Min: 0.01, Max: 0}
	}
	sc.Config.NewPrice = newPrice
	sc.regenerate()
	delete(s.results, id)
	return *sc, nil
}

func (s *Session) Result(scenarioID string) (SimulationResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[scenarioID]
	if !ok {
		return SimulationResult{}, false
	}
	return *r, true
}

func (s *Session) Results() []SimulationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SimulationResult, 0, len(s.results))
	for _, r := range s.results {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScenarioID < out[j].ScenarioID })
	return out
}

func (s *Session) storeResult(r SimulationResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[r.ScenarioID] = &r
}

// SaveScenario appends a scenario to the saved list for later comparison.
func (s *Session) SaveScenario(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scenarios[id]; !ok {
		return &NotFoundError{Kind: "scenario", ID: id}
	}
	for _, existing := range s.saved {
		if existing == id {
			return nil
		}
	}
	s.saved = append(s.saved, id)
	return nil
}

func (s *Session) SavedScenarios() []Scenario {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Scenario, 0, len(s.saved))
	for _, id := range s.saved {
		if sc, ok := s.scenarios[id]; ok {
			out = append(out, *sc)
		}
	}
	return out
}

// RestoreResult reinstates a previously persisted result (store replay on
// startup). It does not overwrite a fresher in-memory result.
func (s *Session) RestoreResult(r SimulationResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.results[r.ScenarioID]; ok && existing.GeneratedAt.After(r.GeneratedAt) {
		return
	}
	s.results[r.ScenarioID] = &r
}

// RestoreScenario reinstates a persisted runtime-created scenario.
func (s *Session) RestoreScenario(sc Scenario) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scenarios[sc.ID]; ok {
		return
	}
	copied := sc
	s.scenarios[sc.ID] = &copied
	s.order = append(s.order, sc.ID)
}

func (s *Session) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("session scenarios=%d results=%d saved=%d", len(s.scenarios), len(s.results), len(s.saved))
}
