// Package config defines the data structures related to configuration and
// includes functions for loading and validating it.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/stewardship-forecast/internal/catalog"
	"github.com/iwvelando/stewardship-forecast/internal/monitor"
	"github.com/iwvelando/stewardship-forecast/internal/projection"
	"github.com/iwvelando/stewardship-forecast/pkg/constants"
	"github.com/iwvelando/stewardship-forecast/pkg/validation"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. STEWARDSHIP_PROJECTION_HORIZON.
const EnvPrefix = "STEWARDSHIP"

// Configuration holds all configuration for stewardship-forecast.
type Configuration struct {
	Logging    LoggingConfig    `yaml:"logging,omitempty"`
	Output     OutputConfig     `yaml:"output,omitempty"`
	Projection ProjectionConfig `yaml:"projection,omitempty"`
	Monitor    MonitorConfig    `yaml:"monitor,omitempty"`
	Catalog    CatalogConfig    `yaml:"catalog,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, json
}

// ProjectionConfig describes the multi-domain projection to run.
type ProjectionConfig struct {
	Horizon int                 `yaml:"horizon"`
	Preset  string              `yaml:"preset,omitempty"` // overrides domain rates when set
	Domains []projection.Domain `yaml:"domains,omitempty"`
}

// MonitorConfig holds the current score and return vector to evaluate.
type MonitorConfig struct {
	QualityScore float64            `yaml:"qualityScore" mapstructure:"qualityScore"`
	Returns      []float64          `yaml:"returns"`
	Thresholds   monitor.Thresholds `yaml:"thresholds"`
}

// CatalogConfig lists the presets, projects and mandates to load. Empty
// preset and mandate lists fall back to the built-in catalogs.
type CatalogConfig struct {
	Presets  []catalog.Preset  `yaml:"presets,omitempty"`
	Projects []catalog.Project `yaml:"projects,omitempty"`
	Mandates []catalog.Mandate `yaml:"mandates,omitempty"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := monitor.DefaultThresholds()
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("projection.horizon", constants.DefaultHorizon)
	v.SetDefault("monitor.thresholds.critical", defaults.Critical)
	v.SetDefault("monitor.thresholds.warning", defaults.Warning)
	v.SetDefault("monitor.thresholds.minimumReturn", defaults.MinimumReturn)
	return v
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %s", err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	if n := len(configuration.Projection.Domains); n != 0 && n != constants.DomainCount {
		return nil, fmt.Errorf("projection expects %d domains, got %d", constants.DomainCount, n)
	}

	return &configuration, nil
}

// Domains returns the configured domains in order, or the defaults when none
// are configured. Preset rates are not applied; see ProjectionDomains.
func (c *Configuration) Domains() [constants.DomainCount]projection.Domain {
	if len(c.Projection.Domains) != constants.DomainCount {
		return projection.DefaultDomains()
	}
	var out [constants.DomainCount]projection.Domain
	copy(out[:], c.Projection.Domains)
	return out
}

// ProjectionDomains returns the domains with the configured preset's rates
// applied. An unknown preset resolves to the catalog default.
func (c *Configuration) ProjectionDomains(cat *catalog.Catalog) [constants.DomainCount]projection.Domain {
	domains := c.Domains()
	if c.Projection.Preset == "" || cat == nil {
		return domains
	}
	preset, _ := cat.Preset(c.Projection.Preset)
	return projection.WithRates(domains, preset.Rates())
}

// BuildCatalog constructs the immutable catalog from configuration.
func (c *Configuration) BuildCatalog() (*catalog.Catalog, error) {
	cat, err := catalog.New(c.Catalog.Presets, c.Catalog.Projects, c.Catalog.Mandates)
	if err != nil {
		return nil, fmt.Errorf("building catalog: %w", err)
	}
	return cat, nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if c.Output.Format != "" {
		if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
			warnings = append(warnings, err.Error())
		}
	}

	warnings = append(warnings, projection.Validate(c.Domains(), c.Projection.Horizon)...)

	if c.Projection.Preset != "" && !c.presetKnown(c.Projection.Preset) {
		warnings = append(warnings, fmt.Sprintf("preset %s not found, falling back to %s",
			c.Projection.Preset, constants.DefaultPresetID))
	}

	if w := validation.ValidateThresholds(c.Monitor.Thresholds.Critical, c.Monitor.Thresholds.Warning); w != "" {
		warnings = append(warnings, w)
	}
	if len(c.Monitor.Returns) > 0 {
		warnings = append(warnings, validation.ValidateReturnVector("monitor", c.Monitor.Returns)...)
		if w := validation.ValidateQualityScore("monitor", c.Monitor.QualityScore); w != "" {
			warnings = append(warnings, w)
		}
	}

	seenProjects := make(map[int]bool, len(c.Catalog.Projects))
	for _, p := range c.Catalog.Projects {
		owner := fmt.Sprintf("project %d (%s)", p.ID, p.Name)
		if seenProjects[p.ID] {
			warnings = append(warnings, fmt.Sprintf("duplicate project id %d", p.ID))
		}
		seenProjects[p.ID] = true
		warnings = append(warnings, validation.ValidateReturnVector(owner, p.Returns)...)
		if w := validation.ValidateQualityScore(owner, p.QualityScore); w != "" {
			warnings = append(warnings, w)
		}
	}

	seenPresets := make(map[string]bool, len(c.Catalog.Presets))
	for _, p := range c.Catalog.Presets {
		if seenPresets[p.ID] {
			warnings = append(warnings, fmt.Sprintf("duplicate preset id %s", p.ID))
		}
		seenPresets[p.ID] = true
	}

	seenMandates := make(map[string]bool, len(c.Catalog.Mandates))
	for _, m := range c.Catalog.Mandates {
		if seenMandates[m.ID] {
			warnings = append(warnings, fmt.Sprintf("duplicate mandate id %s", m.ID))
		}
		seenMandates[m.ID] = true
	}

	return warnings
}

func (c *Configuration) presetKnown(id string) bool {
	presets := c.Catalog.Presets
	if len(presets) == 0 {
		presets = catalog.DefaultPresets()
	}
	for _, p := range presets {
		if p.ID == id {
			return true
		}
	}
	return false
}
