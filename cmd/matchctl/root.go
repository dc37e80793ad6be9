// cmd/matchctl/root.go
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"school-match-workers/internal/models"
)

const (
	formatConsole  = "console"
	formatJSON     = "json"
	formatMarkdown = "markdown"
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("MATCHCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "matchctl",
		Short: "Offline school matching and registry tooling",
		Long: `matchctl scores a catalog snapshot against candidate criteria with the same
engine the quick-match worker uses, explains single school/program pairs, and
validates activity registries before they are deployed.

Flags can also be set through MATCHCTL_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("format", "f", formatConsole, "Output format (console|json|markdown)")

	root.AddCommand(newMatchCmd(v), newExplainCmd(v), newRegistryCmd())
	return root
}

func outputFormat(v *viper.Viper) (string, error) {
	switch f := strings.ToLower(v.GetString("format")); f {
	case formatConsole, formatJSON, formatMarkdown:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (console|json|markdown)", f)
	}
}

// loadCriteria reads a YAML or JSON criteria file. An empty path yields the
// advisor console's default criteria.
func loadCriteria(path string) (models.UserCriteria, error) {
	if path == "" {
		return models.DefaultCriteria(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return models.UserCriteria{}, fmt.Errorf("read criteria: %w", err)
	}

	var c models.UserCriteria
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &c)
	} else {
		err = yaml.Unmarshal(data, &c)
	}
	if err != nil {
		return models.UserCriteria{}, fmt.Errorf("decode criteria %s: %w", path, err)
	}
	return c, nil
}

func parseStrategy(s string) (models.MatchStrategy, error) {
	strategy, ok := models.ParseMatchStrategy(strings.ToLower(strings.TrimSpace(s)))
	if !ok {
		return "", fmt.Errorf("unknown strategy %q (conservative|balanced|aggressive)", s)
	}
	return strategy, nil
}

// bindFlags binds the running command's flags, inherited ones included.
// Call it from RunE: match and explain share flag names.
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	return v.BindPFlags(cmd.Flags())
}

func addCatalogFlags(cmd *cobra.Command) {
	cmd.Flags().String("catalog", "", "Catalog snapshot file (.yaml or .json)")
	cmd.Flags().String("criteria", "", "Criteria file (.yaml or .json); defaults to the console's initial form")
	cmd.Flags().String("strategy", string(models.StrategyBalanced), "Match strategy (conservative|balanced|aggressive)")
}

func writeJSON(cmd *cobra.Command, value interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
