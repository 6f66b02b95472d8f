package cli

import (
	"context"
	"fmt"

	"github.com/carlmjohnson/versioninfo"
	"github.com/spf13/cobra"
)

// Execute runs the discovery2go CLI.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discovery2go [flags] <input> <output>",
		Short: "Generate a typed Go client from a discovery document",
		Long: "discovery2go compiles a Google-style discovery document (file path or http/https URL) " +
			"into a single Go source file: one struct per schema, one handle per resource, and one " +
			"call type per method. With --format openapi-json or openapi-yaml it writes the same " +
			"model as an OpenAPI 3.0 document instead.",
		Example: `  discovery2go arvados-v1-discovery.json arvados/client.go
  discovery2go --package arvados --prune-schemas https://example.org/discovery/v1/apis/arvados/v1/rest client.go
  discovery2go --config discovery2go.yaml --format openapi-yaml arvados.json arvados.yaml`,
		Version:       versioninfo.Short(),
		SilenceErrors: true,
		SilenceUsage:  true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 2 {
				return newUsageError(fmt.Sprintf("accepts at most 2 arguments, received %d\n\n%s", len(args), cmd.UsageString()))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				return cmd.Help()
			}
			cfg, err := resolveGenerateConfig(cmd, args)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg)
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	// Convert Cobra flag errors (like unknown flags) into friendly usage errors
	// that also show the command's help text.
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
	})

	cmd.PersistentFlags().StringP("config", "c", "", "Config file path (YAML or JSON)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging output")
	addGenerateFlags(cmd.Flags())

	i := newInitCmd()
	i.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
	})
	cmd.AddCommand(i)

	return cmd
}
