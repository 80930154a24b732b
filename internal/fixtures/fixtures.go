package fixtures

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/joelkehle/elasticity-lab/internal/elasticity"
	"github.com/joelkehle/elasticity-lab/internal/scenario"
	"github.com/joelkehle/elasticity-lab/internal/segment"
)

// Fixture file names, relative to the data directory.
const (
	ElasticityFile = "elasticity_table.json"
	ScenariosFile  = "scenarios.json"
	WeeklyFile     = "weekly_metrics.csv"
	SegmentsFile   = "segment_metrics.csv"
)

// Set is the full reference-data bundle a session runs against. Loaded
// once at startup and treated as read-only afterwards.
type Set struct {
	Table     *elasticity.Table
	Scenarios []scenario.Scenario
	Weekly    []scenario.WeeklyRecord
	Segments  []segment.Record
}

var (
	cacheMu sync.Mutex
	cache   = map[string]*Set{}
)

// Load reads the fixture set from dir, caching per directory so repeated
// calls return the same set without touching disk again. A missing
// elasticity table falls back to the built-in defaults; a missing
// scenarios or segments file yields an empty slice. The weekly metrics
// file is required since no simulation can run without a baseline.
func Load(dir string) (*Set, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if set, ok := cache[dir]; ok {
		return set, nil
	}
	set, err := load(dir)
	if err != nil {
		return nil, err
	}
	cache[dir] = set
	return set, nil
}

func load(dir string) (*Set, error) {
	set := &Set{}

	table, err := loadTable(filepath.Join(dir, ElasticityFile))
	if err != nil {
		return nil, err
	}
	set.Table = table

	set.Scenarios, err = loadScenarios(filepath.Join(dir, ScenariosFile))
	if err != nil {
		return nil, err
	}

	set.Weekly, err = LoadWeekly(filepath.Join(dir, WeeklyFile))
	if err != nil {
		return nil, err
	}

	set.Segments, err = LoadSegments(filepath.Join(dir, SegmentsFile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return set, nil
}

func loadTable(path string) (*elasticity.Table, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return elasticity.DefaultTable(), nil
		}
		return nil, err
	}
	var table elasticity.Table
	if err := json.Unmarshal(blob, &table); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &table, nil
}

func loadScenarios(path string) ([]scenario.Scenario, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var scenarios []scenario.Scenario
	if err := json.Unmarshal(blob, &scenarios); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return scenarios, nil
}

// LoadWeekly parses the tier-level weekly metrics CSV. Expected header:
// date,tier,active_subscribers,churn_rate,new_subscribers,revenue,arpu.
func LoadWeekly(path string) ([]scenario.WeeklyRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 7
	if _, err := r.Read(); err != nil {
		return nil, fmt.Errorf("read %s header: %w", path, err)
	}

	var out []scenario.WeeklyRecord
	line := 1
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		line++
		rec, err := parseWeeklyRow(row)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseWeeklyRow(row []string) (scenario.WeeklyRecord, error) {
	date, err := time.Parse("2006-01-02", row[0])
	if err != nil {
		return scenario.WeeklyRecord{}, fmt.Errorf("date %q: %w", row[0], err)
	}
	subs, err := strconv.ParseInt(row[2], 10, 64)
	if err != nil {
		return scenario.WeeklyRecord{}, fmt.Errorf("active_subscribers %q: %w", row[2], err)
	}
	churn, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return scenario.WeeklyRecord{}, fmt.Errorf("churn_rate %q: %w", row[3], err)
	}
	newSubs, err := strconv.ParseInt(row[4], 10, 64)
	if err != nil {
		return scenario.WeeklyRecord{}, fmt.Errorf("new_subscribers %q: %w", row[4], err)
	}
	revenue, err := strconv.ParseFloat(row[5], 64)
	if err != nil {
		return scenario.WeeklyRecord{}, fmt.Errorf("revenue %q: %w", row[5], err)
	}
	arpu, err := strconv.ParseFloat(row[6], 64)
	if err != nil {
		return scenario.WeeklyRecord{}, fmt.Errorf("arpu %q: %w", row[6], err)
	}
	return scenario.WeeklyRecord{
		Date:              date,
		Tier:              elasticity.Tier(row[1]),
		ActiveSubscribers: subs,
		ChurnRate:         churn,
		NewSubscribers:    newSubs,
		Revenue:           revenue,
		ARPU:              arpu,
	}, nil
}

// LoadSegments parses the per-segment metrics CSV. Expected header:
// composite_key,tier,subscriber_count,avg_churn_rate,avg_arpu.
func LoadSegments(path string) ([]segment.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 5
	if _, err := r.Read(); err != nil {
		return nil, fmt.Errorf("read %s header: %w", path, err)
	}

	var out []segment.Record
	line := 1
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		line++
		count, err := strconv.ParseInt(row[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: subscriber_count %q: %w", path, line, row[2], err)
		}
		churn, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: avg_churn_rate %q: %w", path, line, row[3], err)
		}
		arpu, err := strconv.ParseFloat(row[4], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: avg_arpu %q: %w", path, line, row[4], err)
		}
		out = append(out, segment.Record{
			CompositeKey:    row[0],
			Tier:            elasticity.Tier(row[1]),
			SubscriberCount: count,
			AvgChurnRate:    churn,
			AvgARPU:         arpu,
		})
	}
	return out, nil
}
