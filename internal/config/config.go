package config

import (
	"fmt"
	"os"
	"strings"

	"suitecompare/domain/metrics"
	"suitecompare/domain/stats"
	"suitecompare/internal/errors"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g. SUITECOMPARE_ALPHA
const EnvPrefix = "SUITECOMPARE"

// Missing-source handling modes
const (
	Strict  = "strict"
	Lenient = "lenient"
)

// Config represents the complete pipeline configuration
type Config struct {
	Sources            []SourceConfig `mapstructure:"sources" yaml:"sources"`
	Metrics            []string       `mapstructure:"metrics" yaml:"metrics"`
	GroupPrefixes      []PrefixRule   `mapstructure:"group_prefixes" yaml:"group_prefixes"`
	DefaultGroup       string         `mapstructure:"default_group" yaml:"default_group"`
	Alpha              float64        `mapstructure:"alpha" yaml:"alpha"`
	Granularities      []string       `mapstructure:"granularities" yaml:"granularities"`
	PrimaryGranularity string         `mapstructure:"primary_granularity" yaml:"primary_granularity"`
	CachePath          string         `mapstructure:"cache_path" yaml:"cache_path"`
	OutputDir          string         `mapstructure:"output_dir" yaml:"output_dir"`
	MissingSources     string         `mapstructure:"missing_sources" yaml:"missing_sources"`
	Charts             bool           `mapstructure:"charts" yaml:"charts"`
	LogLevel           string         `mapstructure:"log_level" yaml:"log_level"`
	LogFormat          string         `mapstructure:"log_format" yaml:"log_format"`
}

// SourceConfig describes one collection of per-test-case files. Path may be
// a directory, scanned with Pattern, or a single file.
type SourceConfig struct {
	Path     string `mapstructure:"path" yaml:"path"`
	Pattern  string `mapstructure:"pattern" yaml:"pattern,omitempty"`
	Category string `mapstructure:"category" yaml:"category"`
	// Group overrides prefix-based detection for every file in the collection.
	Group string `mapstructure:"group" yaml:"group,omitempty"`
	// Sheet selects the worksheet for .xlsx sources; the first sheet otherwise.
	Sheet string `mapstructure:"sheet" yaml:"sheet,omitempty"`
}

// PrefixRule assigns a group to every file whose name starts with Prefix
type PrefixRule struct {
	Prefix string `mapstructure:"prefix" yaml:"prefix"`
	Group  string `mapstructure:"group" yaml:"group"`
}

// Default returns the configuration of the reference study layout
func Default() *Config {
	ms := make([]string, len(metrics.AllMetrics))
	for i, m := range metrics.AllMetrics {
		ms[i] = string(m)
	}
	return &Config{
		Sources: []SourceConfig{
			{Path: "data/unitarias", Pattern: "*.csv", Category: string(metrics.CategoryUnit)},
			{Path: "data/funcionales", Pattern: "*.csv", Category: string(metrics.CategoryFunctional)},
		},
		Metrics: ms,
		GroupPrefixes: []PrefixRule{
			{Prefix: "IA_", Group: string(metrics.GroupIA)},
			{Prefix: "Manual_", Group: string(metrics.GroupManual)},
		},
		DefaultGroup:       string(metrics.GroupManual),
		Alpha:              stats.DefaultAlpha,
		Granularities:      []string{string(stats.Aggregated), string(stats.Raw)},
		PrimaryGranularity: string(stats.Aggregated),
		CachePath:          "results/datos_consolidados.csv",
		OutputDir:          "results",
		MissingSources:     Strict,
		Charts:             true,
		LogLevel:           "info",
		LogFormat:          "text",
	}
}

// Load reads configuration from defaults, an optional YAML file, a .env file
// and SUITECOMPARE_* environment variables, in increasing precedence, and
// validates it. An empty path looks for suitecompare.yaml in the working
// directory.
func Load(path string) (*Config, error) {
	loadDotEnv()

	v := viper.New()
	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("suitecompare")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("error reading config file: %w", err))
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("unable to unmarshal config: %w", err))
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("sources", d.Sources)
	v.SetDefault("metrics", d.Metrics)
	v.SetDefault("group_prefixes", d.GroupPrefixes)
	v.SetDefault("default_group", d.DefaultGroup)
	v.SetDefault("alpha", d.Alpha)
	v.SetDefault("granularities", d.Granularities)
	v.SetDefault("primary_granularity", d.PrimaryGranularity)
	v.SetDefault("cache_path", d.CachePath)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("missing_sources", d.MissingSources)
	v.SetDefault("charts", d.Charts)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
}

// loadDotEnv loads .env when present so SUITECOMPARE_* values can live there
func loadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
}

func validateConfig(config *Config) error {
	if len(config.Sources) == 0 {
		return errors.ConfigInvalid("at least one source collection is required")
	}
	for i, src := range config.Sources {
		if src.Path == "" {
			return errors.ConfigInvalid(fmt.Sprintf("sources[%d]: path is required", i))
		}
		if _, err := metrics.ParseCategory(src.Category); err != nil {
			return errors.ConfigInvalid(fmt.Sprintf("sources[%d]: %v", i, err))
		}
		if src.Group != "" {
			if _, err := metrics.ParseGroup(src.Group); err != nil {
				return errors.ConfigInvalid(fmt.Sprintf("sources[%d]: %v", i, err))
			}
		}
	}
	if _, err := config.MetricList(); err != nil {
		return err
	}
	for _, rule := range config.GroupPrefixes {
		if rule.Prefix == "" {
			return errors.ConfigInvalid("group prefix must not be empty")
		}
		if _, err := metrics.ParseGroup(rule.Group); err != nil {
			return errors.ConfigInvalid(fmt.Sprintf("group prefix %q: %v", rule.Prefix, err))
		}
	}
	if config.DefaultGroup != "" {
		if _, err := metrics.ParseGroup(config.DefaultGroup); err != nil {
			return errors.ConfigInvalid(fmt.Sprintf("default_group: %v", err))
		}
	}
	if config.Alpha <= 0 || config.Alpha >= 1 {
		return errors.ConfigInvalid(fmt.Sprintf("alpha must be in (0, 1), got %g", config.Alpha))
	}
	grans, err := config.GranularityList()
	if err != nil {
		return err
	}
	primary, err := config.Primary()
	if err != nil {
		return err
	}
	found := false
	for _, g := range grans {
		found = found || g == primary
	}
	if !found {
		return errors.ConfigInvalid(fmt.Sprintf("primary_granularity %q is not among granularities", primary))
	}
	if config.OutputDir == "" {
		return errors.ConfigInvalid("output_dir is required")
	}
	switch config.MissingSources {
	case Strict, Lenient:
	default:
		return errors.ConfigInvalid(fmt.Sprintf("missing_sources must be %q or %q, got %q", Strict, Lenient, config.MissingSources))
	}
	return nil
}

// MetricList returns the configured metrics in order
func (c *Config) MetricList() ([]metrics.Metric, error) {
	if len(c.Metrics) == 0 {
		return nil, errors.ConfigInvalid("at least one metric is required")
	}
	out := make([]metrics.Metric, 0, len(c.Metrics))
	seen := make(map[metrics.Metric]bool)
	for _, name := range c.Metrics {
		m, err := metrics.ParseMetric(name)
		if err != nil {
			return nil, errors.ConfigInvalid(err.Error())
		}
		if seen[m] {
			return nil, errors.ConfigInvalid(fmt.Sprintf("metric %q listed twice", m))
		}
		seen[m] = true
		out = append(out, m)
	}
	return out, nil
}

// GranularityList returns the granularities to analyse, in order
func (c *Config) GranularityList() ([]stats.Granularity, error) {
	if len(c.Granularities) == 0 {
		return nil, errors.ConfigInvalid("at least one granularity is required")
	}
	out := make([]stats.Granularity, 0, len(c.Granularities))
	for _, name := range c.Granularities {
		g, err := stats.ParseGranularity(name)
		if err != nil {
			return nil, errors.ConfigInvalid(err.Error())
		}
		out = append(out, g)
	}
	return out, nil
}

// Primary returns the granularity whose location results drive conclusions
func (c *Config) Primary() (stats.Granularity, error) {
	g, err := stats.ParseGranularity(c.PrimaryGranularity)
	if err != nil {
		return "", errors.ConfigInvalid(err.Error())
	}
	return g, nil
}

// IsStrict reports whether a missing source aborts consolidation
func (c *Config) IsStrict() bool {
	return c.MissingSources != Lenient
}

// YAML renders the effective configuration
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
