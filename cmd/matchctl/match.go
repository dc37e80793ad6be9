// cmd/matchctl/match.go
package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"school-match-workers/internal/catalog"
	"school-match-workers/internal/matching"
	"school-match-workers/internal/models"
	"school-match-workers/internal/plans"
	"school-match-workers/internal/report"
)

type matchOutput struct {
	Plan        *models.QuickMatchPlan    `json:"plan"`
	PairsScored int                       `json:"pairsScored"`
	Candidates  map[models.SchoolType]int `json:"candidates"`
	TierCounts  map[models.SchoolType]int `json:"tierCounts"`
	DurationMs  int64                     `json:"durationMs"`
}

func newMatchCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Build a tier-balanced shortlist from a catalog snapshot",
		Long: `Scores every school/program pair of the snapshot that passes the country
filter, classifies each into reach, target or safety and prints the shortlist
in group order.`,
		Example: `  matchctl match --catalog catalog.yaml --criteria criteria.yaml
  matchctl match --catalog catalog.json --strategy aggressive --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(cmd, v); err != nil {
				return err
			}
			return runMatch(cmd, v)
		},
	}
	addCatalogFlags(cmd)
	cmd.Flags().String("name", "", "Plan name (defaults to 智选方案 <date>)")
	cmd.Flags().Int("parallelism", 1, "Goroutines used for scoring")
	return cmd
}

func runMatch(cmd *cobra.Command, v *viper.Viper) error {
	format, err := outputFormat(v)
	if err != nil {
		return err
	}
	strategy, err := parseStrategy(v.GetString("strategy"))
	if err != nil {
		return err
	}
	criteria, err := loadCriteria(v.GetString("criteria"))
	if err != nil {
		return err
	}
	provider, err := snapshotProvider(v.GetString("catalog"))
	if err != nil {
		return err
	}

	schools, programs, err := catalog.Load(context.Background(), provider, matching.NormalizeCriteria(criteria).Countries)
	if err != nil {
		return err
	}

	engine, err := matching.NewEngine(matching.WithParallelism(v.GetInt("parallelism")))
	if err != nil {
		return err
	}
	started := time.Now()
	outcome := engine.Run(schools, programs, criteria, strategy)
	elapsed := time.Since(started)

	plan := plans.New(v.GetString("name"), strategy, criteria, outcome.Results, time.Now())
	out := matchOutput{
		Plan:        plan,
		PairsScored: outcome.PairsScored,
		Candidates:  outcome.Candidates,
		TierCounts:  models.TierCounts(outcome.Results),
		DurationMs:  elapsed.Milliseconds(),
	}

	switch format {
	case formatJSON:
		return writeJSON(cmd, out)
	case formatMarkdown:
		_, err := fmt.Fprint(cmd.OutOrStdout(), report.Render(plan, report.DefaultConfig(), plan.CreatedAt))
		return err
	default:
		return newConsole(cmd.OutOrStdout()).Plan(out)
	}
}

func snapshotProvider(path string) (*catalog.MemoryProvider, error) {
	if path == "" {
		return nil, errors.New("--catalog is required")
	}
	snap, err := catalog.LoadSnapshot(path)
	if err != nil {
		return nil, err
	}
	return catalog.NewMemoryProvider(snap), nil
}
