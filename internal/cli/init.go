package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/discovery2go/internal/fsutil"
)

const defaultConfigName = "discovery2go.yaml"

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool

	stdout io.Writer
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample discovery2go configuration file",
		Long:  "Scaffold a commented discovery2go configuration file that documents available options.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			return initRunner(cmd.Context(), &InitConfig{
				OutputPath: out,
				Force:      force,
				stdout:     cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().String("out", defaultConfigName, "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

func runInit(ctx context.Context, cfg *InitConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stdout := cfg.stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = defaultConfigName
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !cfg.Force {
		if st.Mode().IsRegular() {
			return newUsageError(fmt.Sprintf("init: %q already exists (use --force to overwrite)", absPath))
		}
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot create parent directory: %v", err))
	}

	content := strings.TrimSpace(sampleConfigYAML) + "\n"
	if err := fsutil.WriteFileAtomic(absPath, []byte(content), 0o644); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot write %s: %v\nHint: choose a different --out or check directory permissions.", absPath, err))
	}
	fmt.Fprintf(stdout, "Wrote sample config to %s\n", absPath)
	return nil
}

// sampleConfigYAML is a commented example config documenting available options.
const sampleConfigYAML = `# discovery2go configuration (YAML)
# All fields are optional. Command-line flags override config values.
# The input document and output file are always given as arguments:
#   discovery2go --config discovery2go.yaml <input> <output>

# Output format (go|openapi-json|openapi-yaml). Defaults to go.
# format: go

# Package clause of the generated Go file. Derived from the API name when omitted.
# package: arvados

# Resources removed before generation, at any depth. Setting either exclude
# list replaces the built-in Arvados v1 deprecation list; use [] to disable it.
# excludeResources: [jobs, job_tasks, pipeline_instances]

# Methods removed before generation: a method name (index), a qualified name
# (collections.index), or a method id (arvados.collections.index).
# excludeMethods: [index, show, destroy]

# Only emit schemas reachable from generated methods.
# pruneSchemas: false

# Report the planned output without writing it.
# dryRun: false

# Enable verbose logging.
# verbose: false
`
