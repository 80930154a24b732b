package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/joelkehle/elasticity-lab/internal/elasticity"
	"github.com/joelkehle/elasticity-lab/internal/scenario"
	"github.com/joelkehle/elasticity-lab/internal/segment"
)

// Tool names the chat model may invoke.
const (
	ToolInterpretScenario = "interpret_scenario"
	ToolSuggestScenario   = "suggest_scenario"
	ToolAnalyzeChart      = "analyze_chart"
	ToolCompareOutcomes   = "compare_outcomes"
	ToolCreateScenario    = "create_scenario"
)

// Goal enumerates the business objectives suggest_scenario understands.
type Goal string

const (
	GoalReduceChurn     Goal = "reduce_churn"
	GoalGrowRevenue     Goal = "grow_revenue"
	GoalGrowSubscribers Goal = "grow_subscribers"
	GoalTestPremium     Goal = "test_premium"
)

// UnknownToolError reports a tool name outside the registry.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}

// BadArgumentsError reports tool arguments that failed validation.
type BadArgumentsError struct {
	Tool   string
	Reason string
}

func (e *BadArgumentsError) Error() string {
	return fmt.Sprintf("tool %s: bad arguments: %s", e.Tool, e.Reason)
}

// Toolkit executes chat tool calls against a session. All tools are
// deterministic; only the model deciding which to call is not.
type Toolkit struct {
	session  *scenario.Session
	segments []segment.Record
}

func NewToolkit(session *scenario.Session, segments []segment.Record) *Toolkit {
	return &Toolkit{session: session, segments: segments}
}

// Execute dispatches one tool call. The result is JSON-marshalable data
// that is fed back to the model verbatim.
func (t *Toolkit) Execute(ctx context.Context, name string, args json.RawMessage) (any, error) {
	switch name {
	case ToolInterpretScenario:
		return t.interpretScenario(ctx, args)
	case ToolSuggestScenario:
		return t.suggestScenario(args)
	case ToolAnalyzeChart:
		return t.analyzeChart(ctx, args)
	case ToolCompareOutcomes:
		return t.compareOutcomes(ctx, args)
	case ToolCreateScenario:
		return t.createScenario(args)
	default:
		return nil, &UnknownToolError{Name: name}
	}
}

type interpretArgs struct {
	ScenarioID  string `json:"scenario_id"`
	Segment     string `json:"segment,omitempty"`
	TimeHorizon string `json:"time_horizon,omitempty"`
}

type interpretOutput struct {
	Result   scenario.SimulationResult `json:"result"`
	Headline string                    `json:"headline"`
}

func (t *Toolkit) interpretScenario(ctx context.Context, raw json.RawMessage) (any, error) {
	var args interpretArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, &BadArgumentsError{Tool: ToolInterpretScenario, Reason: err.Error()}
	}
	if args.ScenarioID == "" {
		return nil, &BadArgumentsError{Tool: ToolInterpretScenario, Reason: "scenario_id is required"}
	}
	result, err := t.session.Simulate(ctx, args.ScenarioID, scenario.SimulateOptions{
		Segment:     args.Segment,
		TimeHorizon: elasticity.TimeHorizon(args.TimeHorizon),
	})
	if err != nil {
		return nil, err
	}
	return interpretOutput{Result: result, Headline: headline(result)}, nil
}

func headline(r scenario.SimulationResult) string {
	direction := "gains"
	delta := r.Delta.Revenue
	if delta < 0 {
		direction = "loses"
		delta = -delta
	}
	return fmt.Sprintf("%s %s $%.0f/week in revenue with %+d subscribers", r.ScenarioName, direction, delta, r.Delta.Subscribers)
}

type suggestArgs struct {
	Goal Goal `json:"goal"`
}

// Suggestion is a concrete scenario proposal for a business goal. The
// caller decides whether to materialize it via create_scenario.
type Suggestion struct {
	Goal         Goal            `json:"goal"`
	Tier         elasticity.Tier `json:"tier"`
	CurrentPrice float64         `json:"current_price"`
	NewPrice     float64         `json:"new_price"`
	Rationale    string          `json:"rationale"`
}

func (t *Toolkit) suggestScenario(raw json.RawMessage) (any, error) {
	var args suggestArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, &BadArgumentsError{Tool: ToolSuggestScenario, Reason: err.Error()}
	}
	s, err := t.suggestForGoal(args.Goal)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (t *Toolkit) suggestForGoal(goal Goal) (Suggestion, error) {
	table := t.session.Table()
	switch goal {
	case GoalReduceChurn:
		rec, ok := t.extremeTier(func(a, b scenario.WeeklyRecord) bool { return a.ChurnRate > b.ChurnRate })
		if !ok {
			return Suggestion{}, &BadArgumentsError{Tool: ToolSuggestScenario, Reason: "no weekly data"}
		}
		return Suggestion{
			Goal: goal, Tier: rec.Tier,
			CurrentPrice: rec.ARPU,
			NewPrice:     roundPrice(rec.ARPU * 0.90),
			Rationale:    fmt.Sprintf("%s has the highest churn (%.1f%%); a 10%% cut eases price pressure on the most churn-prone base", rec.Tier, rec.ChurnRate*100),
		}, nil
	case GoalGrowRevenue:
		tier, eps, ok := t.tierByElasticity(table, false)
		if !ok {
			return Suggestion{}, &BadArgumentsError{Tool: ToolSuggestScenario, Reason: "no tier data"}
		}
		rec, _ := t.latestFor(tier)
		return Suggestion{
			Goal: goal, Tier: tier,
			CurrentPrice: rec.ARPU,
			NewPrice:     roundPrice(rec.ARPU * 1.10),
			Rationale:    fmt.Sprintf("%s is the least price-sensitive tier (elasticity %.1f); a 10%% increase should be revenue-accretive", tier, eps),
		}, nil
	case GoalGrowSubscribers:
		tier, eps, ok := t.tierByElasticity(table, true)
		if !ok {
			return Suggestion{}, &BadArgumentsError{Tool: ToolSuggestScenario, Reason: "no tier data"}
		}
		rec, _ := t.latestFor(tier)
		return Suggestion{
			Goal: goal, Tier: tier,
			CurrentPrice: rec.ARPU,
			NewPrice:     roundPrice(rec.ARPU * 0.85),
			Rationale:    fmt.Sprintf("%s is the most price-sensitive tier (elasticity %.1f); a 15%% cut buys the most volume per dollar", tier, eps),
		}, nil
	case GoalTestPremium:
		rec, ok := t.latestFor(elasticity.TierAdFree)
		if !ok {
			return Suggestion{}, &BadArgumentsError{Tool: ToolSuggestScenario, Reason: "no ad_free data"}
		}
		newPrice := roundPrice(rec.ARPU * 1.20)
		if wtp, ok := table.WillingnessToPay[elasticity.TierAdFree]; ok && wtp.P75Price > 0 {
			newPrice = wtp.P75Price
		}
		return Suggestion{
			Goal: goal, Tier: elasticity.TierAdFree,
			CurrentPrice: rec.ARPU,
			NewPrice:     newPrice,
			Rationale:    "prices the ad-free tier at the 75th percentile of measured willingness to pay",
		}, nil
	default:
		return Suggestion{}, &BadArgumentsError{
			Tool:   ToolSuggestScenario,
			Reason: fmt.Sprintf("unknown goal %q (want reduce_churn, grow_revenue, grow_subscribers or test_premium)", goal),
		}
	}
}

// extremeTier picks the latest weekly record per tier, then the one
// winning the comparison.
func (t *Toolkit) extremeTier(better func(a, b scenario.WeeklyRecord) bool) (scenario.WeeklyRecord, bool) {
	latest := map[elasticity.Tier]scenario.WeeklyRecord{}
	for _, r := range t.session.Weekly() {
		if cur, ok := latest[r.Tier]; !ok || r.Date.After(cur.Date) {
			latest[r.Tier] = r
		}
	}
	var best scenario.WeeklyRecord
	found := false
	for _, r := range latest {
		if !found || better(r, best) {
			best = r
			found = true
		}
	}
	return best, found
}

// tierByElasticity picks, among tiers that have weekly data, the most or
// least elastic one. Ties break on tier name for determinism.
func (t *Toolkit) tierByElasticity(table *elasticity.Table, mostElastic bool) (elasticity.Tier, float64, bool) {
	type cand struct {
		tier elasticity.Tier
		eps  float64
	}
	var cands []cand
	for tier, entry := range table.Tiers {
		if _, ok := t.latestFor(tier); !ok {
			continue
		}
		cands = append(cands, cand{tier: tier, eps: entry.BaseElasticity})
	}
	if len(cands) == 0 {
		return "", 0, false
	}
	sort.Slice(cands, func(i, j int) bool {
		ai, aj := math.Abs(cands[i].eps), math.Abs(cands[j].eps)
		if ai != aj {
			if mostElastic {
				return ai > aj
			}
			return ai < aj
		}
		return cands[i].tier < cands[j].tier
	})
	return cands[0].tier, cands[0].eps, true
}

func (t *Toolkit) latestFor(tier elasticity.Tier) (scenario.WeeklyRecord, bool) {
	var latest scenario.WeeklyRecord
	found := false
	for _, r := range t.session.Weekly() {
		if r.Tier != tier {
			continue
		}
		if !found || r.Date.After(latest.Date) {
			latest = r
			found = true
		}
	}
	return latest, found
}

func roundPrice(p float64) float64 {
	return math.Round(p*100) / 100
}

type analyzeArgs struct {
	ScenarioID string `json:"scenario_id"`
	Chart      string `json:"chart"`
}

type chartAnalysis struct {
	ScenarioID string   `json:"scenario_id"`
	Chart      string   `json:"chart"`
	Insights   []string `json:"insights"`
}

func (t *Toolkit) analyzeChart(ctx context.Context, raw json.RawMessage) (any, error) {
	var args analyzeArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, &BadArgumentsError{Tool: ToolAnalyzeChart, Reason: err.Error()}
	}
	if args.ScenarioID == "" {
		return nil, &BadArgumentsError{Tool: ToolAnalyzeChart, Reason: "scenario_id is required"}
	}
	result, err := t.session.Simulate(ctx, args.ScenarioID, scenario.SimulateOptions{})
	if err != nil {
		return nil, err
	}

	analysis := chartAnalysis{ScenarioID: args.ScenarioID, Chart: args.Chart}
	switch args.Chart {
	case "time_series", "":
		analysis.Chart = "time_series"
		last := result.TimeSeries[len(result.TimeSeries)-1]
		analysis.Insights = append(analysis.Insights,
			fmt.Sprintf("the full price effect is reached by month 3 and holds through month %d", last.Month),
			fmt.Sprintf("subscribers settle at %d (from %d)", last.Subscribers, result.Baseline.Subscribers),
			fmt.Sprintf("steady-state revenue is $%.0f/week", last.Revenue),
		)
	case "revenue":
		analysis.Insights = append(analysis.Insights,
			fmt.Sprintf("revenue moves from $%.0f to $%.0f/week", result.Baseline.Revenue, result.Forecasted.Revenue))
		if result.Delta.RevenuePct != nil {
			analysis.Insights = append(analysis.Insights,
				fmt.Sprintf("a %.1f%% change against baseline", *result.Delta.RevenuePct))
		}
	case "churn":
		analysis.Insights = append(analysis.Insights,
			fmt.Sprintf("churn moves from %.2f%% to %.2f%% (%+.2f points)",
				result.Baseline.ChurnRate*100, result.Forecasted.ChurnRate*100, result.Delta.ChurnRatePts*100))
	default:
		return nil, &BadArgumentsError{Tool: ToolAnalyzeChart, Reason: fmt.Sprintf("unknown chart %q (want time_series, revenue or churn)", args.Chart)}
	}
	for _, w := range result.Warnings {
		analysis.Insights = append(analysis.Insights, "warning: "+w)
	}
	return analysis, nil
}

type compareArgs struct {
	ScenarioIDs []string `json:"scenario_ids"`
}

type compareOutput struct {
	Items         []scenario.CompareItem `json:"items"`
	BestByRevenue string                 `json:"best_by_revenue,omitempty"`
}

func (t *Toolkit) compareOutcomes(ctx context.Context, raw json.RawMessage) (any, error) {
	var args compareArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, &BadArgumentsError{Tool: ToolCompareOutcomes, Reason: err.Error()}
	}
	if len(args.ScenarioIDs) < 2 {
		return nil, &BadArgumentsError{Tool: ToolCompareOutcomes, Reason: "at least two scenario_ids are required"}
	}
	items := t.session.Compare(ctx, args.ScenarioIDs)
	out := compareOutput{Items: items}
	best := math.Inf(-1)
	for _, it := range items {
		if it.Result != nil && it.Result.Delta.Revenue > best {
			best = it.Result.Delta.Revenue
			out.BestByRevenue = it.ScenarioID
		}
	}
	return out, nil
}

type createArgs struct {
	Tier         string  `json:"tier"`
	CurrentPrice float64 `json:"current_price"`
	NewPrice     float64 `json:"new_price"`
	Category     string  `json:"category,omitempty"`
	Promotion    string  `json:"promotion,omitempty"`
}

func (t *Toolkit) createScenario(raw json.RawMessage) (any, error) {
	var args createArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, &BadArgumentsError{Tool: ToolCreateScenario, Reason: err.Error()}
	}
	if args.Tier == "" {
		return nil, &BadArgumentsError{Tool: ToolCreateScenario, Reason: "tier is required"}
	}
	sc, err := t.session.CreateScenario(scenario.CustomScenarioParams{
		Tier:         elasticity.Tier(args.Tier),
		CurrentPrice: args.CurrentPrice,
		NewPrice:     args.NewPrice,
		Category:     args.Category,
		Promotion:    args.Promotion,
	})
	if err != nil {
		return nil, err
	}
	return sc, nil
}
