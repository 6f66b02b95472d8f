package cli

import (
	"context"
	"errors"
	"fmt"
	"go/token"
	"io"
	"log/slog"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/discovery2go/internal/discovery"
	"github.com/mark3labs/discovery2go/internal/emitter/goemitter"
	"github.com/mark3labs/discovery2go/internal/emitter/oasemitter"
	"github.com/mark3labs/discovery2go/internal/ir"
)

// Output formats.
const (
	FormatGo          = "go"
	FormatOpenAPIJSON = "openapi-json"
	FormatOpenAPIYAML = "openapi-yaml"
)

// GenerateConfig captures all inputs that influence generation after merging
// defaults, config file values, and CLI overrides.
type GenerateConfig struct {
	Input            string   `yaml:"-" validate:"required"` // positional only
	Output           string   `yaml:"-" validate:"required"` // positional only
	Format           string   `yaml:"format" validate:"oneof=go openapi-json openapi-yaml"`
	Package          string   `yaml:"package" validate:"omitempty,gopkg"`
	ExcludeResources []string `yaml:"excludeResources" validate:"dive,required"`
	ExcludeMethods   []string `yaml:"excludeMethods" validate:"dive,required"`
	PruneSchemas     bool     `yaml:"pruneSchemas"`
	DryRun           bool     `yaml:"dryRun"`
	Verbose          bool     `yaml:"verbose"`
	ConfigPath       string   `yaml:"-"`

	stdout io.Writer
	stderr io.Writer
}

func defaultGenerateConfig() GenerateConfig {
	return GenerateConfig{Format: FormatGo}
}

// Exclusions returns the configured filter. When neither list was set the
// Arvados v1 defaults apply; an explicitly empty list disables them.
func (c *GenerateConfig) Exclusions() discovery.Exclusions {
	if c.ExcludeResources == nil && c.ExcludeMethods == nil {
		return discovery.ArvadosV1Exclusions()
	}
	return discovery.Exclusions{Resources: c.ExcludeResources, Methods: c.ExcludeMethods}
}

var generateRunner = runGenerate

func addGenerateFlags(flags *pflag.FlagSet) {
	flags.StringP("format", "f", "", "Output format (go|openapi-json|openapi-yaml); defaults to go")
	flags.StringP("package", "p", "", "Package name of the generated Go file (derived from the API name when omitted)")
	flags.StringSlice("exclude-resources", nil, "Resources to drop before generation (replaces the built-in list)")
	flags.StringSlice("exclude-methods", nil, "Methods to drop before generation (replaces the built-in list)")
	flags.Bool("prune-schemas", false, "Only emit schemas reachable from generated methods")
	flags.Bool("dry-run", false, "Report the planned output without writing it")
}

func resolveGenerateConfig(cmd *cobra.Command, args []string) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}
	if len(args) > 0 {
		cfg.Input = args[0]
	}
	if len(args) > 1 {
		cfg.Output = args[1]
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.stdout = cmd.OutOrStdout()
	cfg.stderr = cmd.ErrOrStderr()
	return &cfg, nil
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	if flags.Changed("format") {
		value, err := flags.GetString("format")
		if err != nil {
			return err
		}
		cfg.Format = value
	}
	if flags.Changed("package") {
		value, err := flags.GetString("package")
		if err != nil {
			return err
		}
		cfg.Package = value
	}
	if flags.Changed("exclude-resources") {
		value, err := flags.GetStringSlice("exclude-resources")
		if err != nil {
			return err
		}
		cfg.ExcludeResources = cleanList(value)
	}
	if flags.Changed("exclude-methods") {
		value, err := flags.GetStringSlice("exclude-methods")
		if err != nil {
			return err
		}
		cfg.ExcludeMethods = cleanList(value)
	}
	if flags.Changed("prune-schemas") {
		value, err := flags.GetBool("prune-schemas")
		if err != nil {
			return err
		}
		cfg.PruneSchemas = value
	}
	if flags.Changed("dry-run") {
		value, err := flags.GetBool("dry-run")
		if err != nil {
			return err
		}
		cfg.DryRun = value
	}
	if flags.Changed("verbose") {
		value, err := flags.GetBool("verbose")
		if err != nil {
			return err
		}
		cfg.Verbose = value
	}
	return nil
}

func (c *GenerateConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Output = strings.TrimSpace(c.Output)
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	if c.Format == "" {
		c.Format = FormatGo
	}
	c.Package = strings.TrimSpace(c.Package)
	c.ExcludeResources = cleanList(c.ExcludeResources)
	c.ExcludeMethods = cleanList(c.ExcludeMethods)
}

var configValidator = newConfigValidator()

func newConfigValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return strings.ToLower(f.Name)
		}
		return name
	})
	_ = v.RegisterValidation("gopkg", func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		return token.IsIdentifier(name) && !token.IsKeyword(name) && name != "_" && strings.ToLower(name) == name
	})
	return v
}

func (c *GenerateConfig) validate() error {
	err := configValidator.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return newUsageError("generate: " + strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if fe.Field() == "input" || fe.Field() == "output" {
			return fmt.Sprintf("%s path is required", fe.Field())
		}
		return fmt.Sprintf("%s must not contain empty entries", strings.SplitN(fe.Field(), "[", 2)[0])
	case "oneof":
		return fmt.Sprintf("unsupported %s %q (allowed: %s)", fe.Field(), fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gopkg":
		return fmt.Sprintf("%s %q is not a valid lowercase Go package name", fe.Field(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag())
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	stdout, stderr := cfg.stdout, cfg.stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := newLogger(stderr, cfg.Verbose)

	doc, err := discovery.Load(ctx, cfg.Input, discovery.WithLogger(logger))
	if err != nil {
		return err
	}
	ex := cfg.Exclusions()
	doc = discovery.Filter(doc, ex)
	logger.Debug("filtered document", "excluded_resources", len(ex.Resources), "excluded_methods", len(ex.Methods))

	api, err := ir.Build(doc, ir.WithPruneSchemas(cfg.PruneSchemas), ir.WithLogger(logger))
	if err != nil {
		return err
	}

	var planned []string
	switch cfg.Format {
	case FormatGo:
		res, err := goemitter.Emit(ctx, api, goemitter.Options{
			Output:      cfg.Output,
			PackageName: cfg.Package,
			DryRun:      cfg.DryRun,
			Logger:      logger,
		})
		if err != nil {
			return err
		}
		for _, p := range res.Planned {
			planned = append(planned, fmt.Sprintf("%s (%d bytes, package %s)", p.Path, p.Size, res.PackageName))
		}
	case FormatOpenAPIJSON, FormatOpenAPIYAML:
		format := oasemitter.JSON
		if cfg.Format == FormatOpenAPIYAML {
			format = oasemitter.YAML
		}
		res, err := oasemitter.Emit(ctx, api, oasemitter.Options{
			Output: cfg.Output,
			Format: format,
			DryRun: cfg.DryRun,
			Logger: logger,
		})
		if err != nil {
			return err
		}
		for _, p := range res.Planned {
			planned = append(planned, fmt.Sprintf("%s (%d bytes, %s)", p.Path, p.Size, cfg.Format))
		}
	default:
		return newUsageError(fmt.Sprintf("generate: unsupported format %q", cfg.Format))
	}

	if cfg.DryRun {
		printPlan(stdout, api, planned)
	}
	logger.Info("generated client",
		"input", cfg.Input,
		"output", cfg.Output,
		"format", cfg.Format,
		"types", len(api.Types),
		"methods", api.MethodCount(),
	)
	return nil
}

// cleanList trims entries and drops blanks and duplicates. A non-nil input
// stays non-nil so an explicitly empty list is distinguishable from unset.
func cleanList(items []string) []string {
	if items == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}

func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	for key, value := range raw {
		var ferr error
		switch normalizeKey(key) {
		case "format":
			cfg.Format, ferr = valueAsString(value)
		case "package":
			cfg.Package, ferr = valueAsString(value)
		case "excluderesources":
			cfg.ExcludeResources, ferr = valueAsStringSlice(value)
		case "excludemethods":
			cfg.ExcludeMethods, ferr = valueAsStringSlice(value)
		case "pruneschemas":
			cfg.PruneSchemas, ferr = valueAsBool(value)
		case "dryrun":
			cfg.DryRun, ferr = valueAsBool(value)
		case "verbose":
			cfg.Verbose, ferr = valueAsBool(value)
		default:
			return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
		}
		if ferr != nil {
			return newUsageError(fmt.Sprintf("config field %q: %v", key, ferr))
		}
	}
	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

// valueAsStringSlice accepts a list or a comma-separated string. An explicit
// empty list yields an empty, non-nil slice.
func valueAsStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return splitAndTrim(val), nil
	case []any:
		items := make([]string, 0, len(val))
		for idx, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			if str != "" {
				items = append(items, str)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n", "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
