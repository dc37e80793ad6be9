// cmd/matchctl/explain.go
package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"school-match-workers/internal/matching"
)

func newExplainCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Score and explain a single school/program pair",
		Long: `Prints the five dimension scores, the weighted total, the tier and the
generated rationale for one pair. The country filter is not applied, so a pair
outside the candidate's countries is still scored (with a location veto).`,
		Example: `  matchctl explain --catalog catalog.yaml --school s-ucl --program p-ucl-cs`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(cmd, v); err != nil {
				return err
			}
			return runExplain(cmd, v)
		},
	}
	addCatalogFlags(cmd)
	cmd.Flags().String("school", "", "School ID")
	cmd.Flags().String("program", "", "Program ID")
	return cmd
}

func runExplain(cmd *cobra.Command, v *viper.Viper) error {
	schoolID, programID := v.GetString("school"), v.GetString("program")
	if schoolID == "" || programID == "" {
		return errors.New("--school and --program are required")
	}

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

	ctx := context.Background()
	school, err := provider.School(ctx, schoolID)
	if err != nil {
		return err
	}
	program, err := provider.Program(ctx, programID)
	if err != nil {
		return err
	}
	if program.SchoolID != school.ID {
		return fmt.Errorf("program %s belongs to school %s, not %s", program.ID, program.SchoolID, school.ID)
	}

	engine, err := matching.NewEngine()
	if err != nil {
		return err
	}
	result := engine.Evaluate(*school, *program, criteria, strategy)
	if format == formatJSON {
		return writeJSON(cmd, result)
	}
	return newConsole(cmd.OutOrStdout()).Explain(result)
}
