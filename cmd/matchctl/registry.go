// cmd/matchctl/registry.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"school-match-workers/pkg/registry"
)

func newRegistryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect activity registries",
	}

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Check an activity registry for structural problems",
		Long: `Parses the registry and reports every problem found: malformed ids,
duplicate ids or task types, missing input schemas and bad timeouts. Without
--path the registry compiled into the workers is checked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("path")
			return runRegistryValidate(cmd, path)
		},
	}
	validate.Flags().String("path", "", "Registry JSON file")

	cmd.AddCommand(validate)
	return cmd
}

func runRegistryValidate(cmd *cobra.Command, path string) error {
	reg := registry.Default()
	source := "embedded registry"
	if path != "" {
		loaded, err := registry.LoadRegistry(path)
		if err != nil {
			return fmt.Errorf("load registry: %w", err)
		}
		reg, source = loaded, path
	}

	errs := reg.Validate()
	c := newConsole(cmd.OutOrStdout())
	c.RegistryReport(source, len(reg.Activities), errs)
	if len(errs) > 0 {
		return fmt.Errorf("%d problem(s) in %s", len(errs), source)
	}
	return nil
}
