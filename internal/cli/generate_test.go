package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/discovery2go/internal/discovery"
)

// captureConfig swaps the generate runner for one that records the resolved
// config. Tests using it must not run in parallel.
func captureConfig(t *testing.T) **GenerateConfig {
	t.Helper()
	var captured *GenerateConfig
	generateRunner = func(ctx context.Context, cfg *GenerateConfig) error {
		captured = cfg
		return nil
	}
	t.Cleanup(func() { generateRunner = runGenerate })
	return &captured
}

func TestGenerateConfigFromFlags(t *testing.T) {
	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	captured := captureConfig(t)

	root.SetArgs([]string{
		"--verbose",
		"--format", "openapi-yaml",
		"--package", "arvados",
		"--exclude-resources", "jobs,nodes",
		"--exclude-methods", "index",
		"--prune-schemas",
		"--dry-run",
		"discovery.json",
		"out/client.yaml",
	})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	cfg := *captured
	if cfg == nil {
		t.Fatalf("expected config to be captured")
	}

	if cfg.Input != "discovery.json" {
		t.Errorf("input mismatch: got %q", cfg.Input)
	}
	if cfg.Output != "out/client.yaml" {
		t.Errorf("output mismatch: got %q", cfg.Output)
	}
	if cfg.Format != FormatOpenAPIYAML {
		t.Errorf("format mismatch: got %q", cfg.Format)
	}
	if cfg.Package != "arvados" {
		t.Errorf("package mismatch: got %q", cfg.Package)
	}
	if want := []string{"jobs", "nodes"}; !equalStringSlices(cfg.ExcludeResources, want) {
		t.Errorf("exclude resources mismatch: got %v", cfg.ExcludeResources)
	}
	if want := []string{"index"}; !equalStringSlices(cfg.ExcludeMethods, want) {
		t.Errorf("exclude methods mismatch: got %v", cfg.ExcludeMethods)
	}
	if !cfg.PruneSchemas || !cfg.DryRun || !cfg.Verbose {
		t.Errorf("expected prune, dry-run and verbose: %+v", cfg)
	}
}

func TestGenerateConfigPrecedence(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	configContent := strings.TrimSpace(`
format: openapi-json
package: cfgpkg
exclude_resources:
  - jobs
excludeMethods: destroy, show
pruneSchemas: true
dryRun: true
verbose: "yes"
`) + "\n"
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	captured := captureConfig(t)

	root.SetArgs([]string{
		"--config", configPath,
		"--format", "go",
		"--dry-run=false",
		"in.json", "out.go",
	})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	cfg := *captured
	if cfg == nil {
		t.Fatalf("expected config to be captured")
	}

	if cfg.Format != FormatGo {
		t.Errorf("format: want go got %q", cfg.Format)
	}
	if cfg.Package != "cfgpkg" {
		t.Errorf("package: want cfgpkg got %q", cfg.Package)
	}
	if want := []string{"jobs"}; !equalStringSlices(cfg.ExcludeResources, want) {
		t.Errorf("exclude resources: want %v got %v", want, cfg.ExcludeResources)
	}
	if want := []string{"destroy", "show"}; !equalStringSlices(cfg.ExcludeMethods, want) {
		t.Errorf("exclude methods: want %v got %v", want, cfg.ExcludeMethods)
	}
	if !cfg.PruneSchemas {
		t.Errorf("expected prune-schemas from config file")
	}
	if cfg.DryRun {
		t.Errorf("expected dry-run false after flag override")
	}
	if !cfg.Verbose {
		t.Errorf("expected verbose true from config file")
	}
	if cfg.ConfigPath != configPath {
		t.Errorf("config path mismatch: got %q", cfg.ConfigPath)
	}
}

func TestGenerateConfigUnknownKey(t *testing.T) {
	t.Parallel()

	// input and output are positional arguments, never config keys.
	for _, content := range []string{"lang: go\n", "input: in.json\n", "output: out.go\n"} {
		configPath := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
			t.Fatalf("write config: %v", err)
		}

		root := NewRootCmd()
		root.SetOut(io.Discard)
		root.SetErr(io.Discard)
		root.SetArgs([]string{"--config", configPath, "in.json", "out.go"})

		err := root.Execute()
		if err == nil {
			t.Fatalf("%q: expected an error", content)
		}
		if !errors.Is(err, ErrUsage) {
			t.Fatalf("%q: expected usage error, got %v", content, err)
		}
		if !strings.Contains(err.Error(), "unknown field") {
			t.Fatalf("%q: unexpected error message: %v", content, err)
		}
	}
}

func TestGenerateConfigValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		args []string
		want string
	}{
		{"format", []string{"--format", "rust", "in.json", "out.go"}, `unsupported format "rust" (allowed: go, openapi-json, openapi-yaml)`},
		{"package digit", []string{"--package", "1st", "in.json", "out.go"}, `package "1st" is not a valid lowercase Go package name`},
		{"package keyword", []string{"--package", "func", "in.json", "out.go"}, "not a valid lowercase Go package name"},
		{"package upper", []string{"--package", "Arvados", "in.json", "out.go"}, "not a valid lowercase Go package name"},
		{"blank output", []string{"in.json", "  "}, "output path is required"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			root := NewRootCmd()
			root.SetOut(io.Discard)
			root.SetErr(io.Discard)
			root.SetArgs(tc.args)

			err := root.Execute()
			if !errors.Is(err, ErrUsage) {
				t.Fatalf("expected usage error, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestGenerateConfigExclusions(t *testing.T) {
	t.Parallel()

	var unset GenerateConfig
	if got := unset.Exclusions(); !equalStringSlices(got.Resources, discovery.ArvadosV1Exclusions().Resources) {
		t.Errorf("expected built-in resource exclusions, got %v", got.Resources)
	}

	disabled := GenerateConfig{ExcludeResources: []string{}}
	if got := disabled.Exclusions(); !got.Empty() {
		t.Errorf("expected no exclusions, got %+v", got)
	}

	custom := GenerateConfig{ExcludeMethods: []string{"index"}}
	got := custom.Exclusions()
	if len(got.Resources) != 0 || !equalStringSlices(got.Methods, []string{"index"}) {
		t.Errorf("unexpected exclusions %+v", got)
	}
}

func TestCleanList(t *testing.T) {
	t.Parallel()
	if got := cleanList(nil); got != nil {
		t.Errorf("nil input: got %v", got)
	}
	if got := cleanList([]string{" ", ""}); got == nil || len(got) != 0 {
		t.Errorf("blank input should stay non-nil and empty, got %#v", got)
	}
	if got := cleanList([]string{" a", "b", "a "}); !equalStringSlices(got, []string{"a", "b"}) {
		t.Errorf("dedupe: got %v", got)
	}
}

func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
