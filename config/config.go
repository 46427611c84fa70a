package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cloudtrim/rightsizer/types"
)

// Config is the full configuration surface. Constructed and validated once
// at startup, then passed by value into each component; decision logic
// never reads ambient settings.
type Config struct {
	AWS       AWSConfig       `yaml:"aws"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	EC2       SizingConfig    `yaml:"ec2"`
	Reserved  ReservedConfig  `yaml:"reserved_instances"`
	Pricing   PricingConfig   `yaml:"pricing"`
	Reporting ReportingConfig `yaml:"reporting"`
}

// AWSConfig selects the regions to analyze
type AWSConfig struct {
	Regions []string `yaml:"regions"`
}

// AnalysisConfig controls the utilization analyzer and the fetch pool
type AnalysisConfig struct {
	LookbackDays      int     `yaml:"lookback_days"`
	CPUPercentile     float64 `yaml:"cpu_percentile"`
	MinDatapoints     int     `yaml:"min_datapoints"`
	Workers           int     `yaml:"workers"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// SizingConfig holds the right-sizing decision thresholds
type SizingConfig struct {
	CPUUnderutilizedThreshold float64  `yaml:"cpu_underutilized_threshold"`
	MinSavingsThreshold       float64  `yaml:"min_savings_threshold"`
	SafetyMargin              float64  `yaml:"safety_margin"`
	AllowedFamilies           []string `yaml:"allowed_families"`
}

// AllowsFamily checks allowed-family membership
func (s SizingConfig) AllowsFamily(family string) bool {
	for _, f := range s.AllowedFamilies {
		if f == family {
			return true
		}
	}
	return false
}

// ReservedConfig holds the reservation purchase policy knobs
type ReservedConfig struct {
	MinUtilization float64 `yaml:"min_utilization"`
	MinGroupSize   int     `yaml:"min_group_size"`
	TermYears      int     `yaml:"term_years"`
	PaymentOption  string  `yaml:"payment_option"`
}

// PricingConfig configures the price book
type PricingConfig struct {
	// CachePath is a bbolt file for cached Pricing API lookups; empty
	// disables the cache
	CachePath string `yaml:"cache_path"`
	// Static maps instance type name to on-demand hourly USD; used as a
	// fallback when the Pricing API is unavailable
	Static map[string]float64 `yaml:"static"`
}

// ReportingConfig controls output rendering
type ReportingConfig struct {
	Format    string `yaml:"format"`
	OutputDir string `yaml:"output_dir"`
	// HistoryPath is a bbolt file archiving past runs; empty disables
	// the archive
	HistoryPath string `yaml:"history_path"`
}

// Defaults applied before validation
const (
	defaultLookbackDays  = 30
	defaultCPUPercentile = 95
	defaultMinDatapoints = 20
	defaultWorkers       = 4
	defaultRPS           = 5
	defaultSafetyMargin  = 1.2
	defaultFormat        = "console"
)

var validFormats = map[string]bool{
	"console": true,
	"json":    true,
	"csv":     true,
	"html":    true,
}

var validPaymentOptions = map[string]bool{
	types.PaymentNoUpfront:      true,
	types.PaymentPartialUpfront: true,
	types.PaymentAllUpfront:     true,
}

// Load reads, defaults and validates configuration from a YAML file.
// A validation failure here is fatal by design: the run must not proceed
// with ambiguous decision rules.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Analysis.LookbackDays == 0 {
		c.Analysis.LookbackDays = defaultLookbackDays
	}
	if c.Analysis.CPUPercentile == 0 {
		c.Analysis.CPUPercentile = defaultCPUPercentile
	}
	if c.Analysis.MinDatapoints == 0 {
		c.Analysis.MinDatapoints = defaultMinDatapoints
	}
	if c.Analysis.Workers == 0 {
		c.Analysis.Workers = defaultWorkers
	}
	if c.Analysis.RequestsPerSecond == 0 {
		c.Analysis.RequestsPerSecond = defaultRPS
	}
	if c.EC2.SafetyMargin == 0 {
		c.EC2.SafetyMargin = defaultSafetyMargin
	}
	if c.Reserved.TermYears == 0 {
		c.Reserved.TermYears = 1
	}
	if c.Reserved.PaymentOption == "" {
		c.Reserved.PaymentOption = types.PaymentPartialUpfront
	}
	if c.Reserved.MinGroupSize == 0 {
		c.Reserved.MinGroupSize = 2
	}
	if c.Reporting.Format == "" {
		c.Reporting.Format = defaultFormat
	}
}

// Validate ensures every decision threshold is well formed
func (c *Config) Validate() error {
	if len(c.AWS.Regions) == 0 {
		return fmt.Errorf("aws.regions is required")
	}
	if err := c.Analysis.validate(); err != nil {
		return err
	}
	if err := c.EC2.validate(); err != nil {
		return err
	}
	if err := c.Reserved.validate(); err != nil {
		return err
	}
	if !validFormats[c.Reporting.Format] {
		return fmt.Errorf("reporting.format must be one of console|json|csv|html, got %q", c.Reporting.Format)
	}
	return nil
}

func (a AnalysisConfig) validate() error {
	if a.LookbackDays < 1 {
		return fmt.Errorf("analysis.lookback_days must be positive, got %d", a.LookbackDays)
	}
	if a.CPUPercentile <= 0 || a.CPUPercentile > 100 {
		return fmt.Errorf("analysis.cpu_percentile must be in (0, 100], got %v", a.CPUPercentile)
	}
	if a.MinDatapoints < 1 {
		return fmt.Errorf("analysis.min_datapoints must be positive, got %d", a.MinDatapoints)
	}
	if a.Workers < 1 {
		return fmt.Errorf("analysis.workers must be positive, got %d", a.Workers)
	}
	if a.RequestsPerSecond <= 0 {
		return fmt.Errorf("analysis.requests_per_second must be positive, got %v", a.RequestsPerSecond)
	}
	return nil
}

func (s SizingConfig) validate() error {
	if s.CPUUnderutilizedThreshold <= 0 || s.CPUUnderutilizedThreshold >= 100 {
		return fmt.Errorf("ec2.cpu_underutilized_threshold must be in (0, 100), got %v", s.CPUUnderutilizedThreshold)
	}
	if s.MinSavingsThreshold < 0 {
		return fmt.Errorf("ec2.min_savings_threshold cannot be negative, got %v", s.MinSavingsThreshold)
	}
	if s.SafetyMargin < 1 {
		return fmt.Errorf("ec2.safety_margin must be >= 1, got %v", s.SafetyMargin)
	}
	return nil
}

func (r ReservedConfig) validate() error {
	if r.MinUtilization <= 0 || r.MinUtilization >= 100 {
		return fmt.Errorf("reserved_instances.min_utilization must be in (0, 100), got %v", r.MinUtilization)
	}
	if r.TermYears != 1 && r.TermYears != 3 {
		return fmt.Errorf("reserved_instances.term_years must be 1 or 3, got %d", r.TermYears)
	}
	if !validPaymentOptions[r.PaymentOption] {
		return fmt.Errorf("unknown payment option %q", r.PaymentOption)
	}
	if r.MinGroupSize < 1 {
		return fmt.Errorf("reserved_instances.min_group_size must be positive, got %d", r.MinGroupSize)
	}
	return nil
}
