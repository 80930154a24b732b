package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/joelkehle/elasticity-lab/internal/elasticity"
	"github.com/joelkehle/elasticity-lab/internal/fixtures"
	"github.com/joelkehle/elasticity-lab/internal/report"
	"github.com/joelkehle/elasticity-lab/internal/scenario"
	"github.com/joelkehle/elasticity-lab/internal/segment"
)

// simulate runs one scenario (or segment estimate) from the command line
// and prints the result as JSON or a markdown report.
func main() {
	var (
		dataDir       = flag.String("data-dir", "", "fixture directory (default: built-in demo data)")
		scenarioID    = flag.String("scenario", "", "scenario ID to simulate")
		listFlag      = flag.Bool("list", false, "list available scenarios and exit")
		months        = flag.Int("months", 0, "projection horizon in months (default 12)")
		seg           = flag.String("segment", "", "elasticity segment override (e.g. price_sensitive)")
		horizon       = flag.String("horizon", "", "time horizon: short_term, medium_term or long_term")
		targetSegment = flag.String("target-segment", "", "run the segment-targeted path for this segment")
		tier          = flag.String("tier", "", "tier for the segment-targeted path")
		currentPrice  = flag.Float64("current-price", 0, "current price for the segment-targeted path")
		newPrice      = flag.Float64("new-price", 0, "new price for the segment-targeted path")
		asMarkdown    = flag.Bool("markdown", false, "print a markdown report instead of JSON")
	)
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	set, err := loadFixtures(*dataDir)
	if err != nil {
		log.Fatalf("failed to load fixtures: %v", err)
	}
	session := scenario.NewSession(set.Table, set.Weekly, set.Scenarios)

	if *listFlag {
		for _, sc := range session.Scenarios() {
			fmt.Printf("%-24s %s\n", sc.ID, sc.Name)
		}
		return
	}

	if *targetSegment != "" {
		result, err := segment.Estimate(set.Table, set.Segments, segment.Input{
			Tier:          elasticity.Tier(*tier),
			TargetSegment: *targetSegment,
			CurrentPrice:  *currentPrice,
			NewPrice:      *newPrice,
		})
		if err != nil {
			log.Fatalf("segment estimate failed: %v", err)
		}
		printJSON(result)
		return
	}

	if strings.TrimSpace(*scenarioID) == "" {
		log.Fatal("--scenario is required (or --list to see options)")
	}
	result, err := session.Simulate(ctx, *scenarioID, scenario.SimulateOptions{
		Months:      *months,
		Segment:     *seg,
		TimeHorizon: elasticity.TimeHorizon(*horizon),
	})
	if err != nil {
		log.Fatalf("simulation failed: %v", err)
	}
	if *asMarkdown {
		fmt.Println(report.BuildMarkdown(result))
		return
	}
	printJSON(result)
}

func printJSON(v any) {
	blob, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("marshal result: %v", err)
	}
	fmt.Println(string(blob))
}

func loadFixtures(dir string) (*fixtures.Set, error) {
	if strings.TrimSpace(dir) == "" {
		return fixtures.Demo(), nil
	}
	return fixtures.Load(dir)
}
