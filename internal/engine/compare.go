package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/piwi3910/blockpaint/internal/model"
)

// ComparisonScenario defines a named set of search settings to compare.
type ComparisonScenario struct {
	Name     string
	Settings model.SearchSettings
}

// ComparisonResult holds the optimization outcome and summary figures for a
// single scenario.
type ComparisonResult struct {
	Scenario     ComparisonScenario
	Outcome      Outcome
	TotalCost    int64
	Saved        int64
	Improvements int
	Evaluations  int
}

// CompareScenarios optimizes the same program under each scenario and returns
// the results in scenario order. This enables side-by-side comparison of
// search parameters (radius, color search, rounds).
func CompareScenarios(ctx context.Context, exec *Executor, scenarios []ComparisonScenario, prog model.Program, logger *slog.Logger) ([]ComparisonResult, error) {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		var l *slog.Logger
		if logger != nil {
			l = logger.With("scenario", scenario.Name)
		}
		outcome, err := New(exec, scenario.Settings, l).Optimize(ctx, prog)
		if err != nil {
			return results, fmt.Errorf("scenario %q: %w", scenario.Name, err)
		}

		results = append(results, ComparisonResult{
			Scenario:     scenario,
			Outcome:      outcome,
			TotalCost:    outcome.Best.TotalCost,
			Saved:        outcome.Saved(),
			Improvements: len(outcome.Improvements),
			Evaluations:  outcome.Evaluations,
		})
	}

	return results, nil
}

// BuildDefaultScenarios generates a set of comparison scenarios based on
// the current settings, varying key parameters to show what-if alternatives.
func BuildDefaultScenarios(base model.SearchSettings) []ComparisonScenario {
	base = base.Normalized()
	scenarios := []ComparisonScenario{
		{
			Name:     "Current Settings",
			Settings: base,
		},
	}

	// Scenario: Double the offset radius
	wide := base
	wide.Radius = max(base.Radius*2, 1)
	scenarios = append(scenarios, ComparisonScenario{
		Name:     fmt.Sprintf("Radius %d", wide.Radius),
		Settings: wide,
	})

	// Scenario: Toggle the color neighbourhood
	toggled := base
	toggled.ColorSearch = !base.ColorSearch
	name := "With Color Search"
	if base.ColorSearch {
		name = "Without Color Search"
	}
	scenarios = append(scenarios, ComparisonScenario{
		Name:     name,
		Settings: toggled,
	})

	// Scenario: Repeat the scan until it converges
	if base.Rounds < 3 {
		multi := base
		multi.Rounds = 3
		scenarios = append(scenarios, ComparisonScenario{
			Name:     "3 Rounds",
			Settings: multi,
		})
	}

	return scenarios
}
