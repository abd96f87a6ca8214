// Package scorer implements the pain scoring engine: a pure, rule-based
// mapping from a normalized posting to an integer score and an audit
// trail of contributing factors.
package scorer

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// AgeTier awards a delta once a posting has been open longer than
// MinDays. Tiers are exclusive: only the matching tier with the largest
// magnitude applies.
type AgeTier struct {
	MinDays int `yaml:"min_days"`
	Delta   int `yaml:"delta"`
}

// Config holds the rule weights and thresholds of the scoring engine.
// Penalty deltas are stored signed (negative).
type Config struct {
	Base                  int `yaml:"base"`
	KeepThreshold         int `yaml:"keep_threshold"`
	HighPriorityThreshold int `yaml:"high_priority_threshold"`

	AgeTiers []AgeTier `yaml:"age_tiers"`

	SeniorityDelta    int `yaml:"seniority_delta"`
	TechnicalDelta    int `yaml:"technical_delta"`
	ComplexityDelta   int `yaml:"complexity_delta"`
	IndustryDelta     int `yaml:"industry_delta"`
	ApplicationsDelta int `yaml:"applications_delta"`
	ApplicationsMin   int `yaml:"applications_min"`
	RepostDelta       int `yaml:"repost_delta"`

	InsideSalesDelta int `yaml:"inside_sales_delta"`
	SDRDelta         int `yaml:"sdr_delta"`
	JuniorDelta      int `yaml:"junior_delta"`

	SeniorityKeywords   []string `yaml:"seniority_keywords"`
	TechnicalKeywords   []string `yaml:"technical_keywords"`
	ComplexityKeywords  []string `yaml:"complexity_keywords"`
	PainIndustries      []string `yaml:"pain_industries"`
	InsideSalesKeywords []string `yaml:"inside_sales_keywords"`
	SDRKeywords         []string `yaml:"sdr_keywords"`
	JuniorKeywords      []string `yaml:"junior_keywords"`
}

// DefaultConfig returns the stock rule table for the DACH sales-role
// market.
func DefaultConfig() Config {
	return Config{
		Base:                  50,
		KeepThreshold:         60,
		HighPriorityThreshold: 80,

		// Exclusive tiers, larger magnitude for older postings.
		AgeTiers: []AgeTier{
			{MinDays: 30, Delta: 15},
			{MinDays: 60, Delta: 20},
		},

		SeniorityDelta:    10,
		TechnicalDelta:    10,
		ComplexityDelta:   10,
		IndustryDelta:     5,
		ApplicationsDelta: 10,
		ApplicationsMin:   100,
		RepostDelta:       5,

		InsideSalesDelta: -30,
		SDRDelta:         -20,
		JuniorDelta:      -25,

		SeniorityKeywords: []string{"senior", "lead", "principal", "sr.", "sr "},
		TechnicalKeywords: []string{
			"sap", "security", "cybersecurity", "cyber security",
			"cloud", "enterprise",
		},
		ComplexityKeywords: []string{"consultative", "enterprise", "b2b", "solution"},
		PainIndustries: []string{
			"it-services", "it services", "it", "software", "saas",
			"cybersecurity", "it-beratung", "consulting",
		},
		InsideSalesKeywords: []string{"inside sales", "innendienst"},
		SDRKeywords:         []string{"sdr", "bdr"},
		JuniorKeywords: []string{
			"junior", "trainee", "intern", "entry",
			"praktikant", "werkstudent", "azubi",
		},
	}
}

// LoadConfig reads a rule table from a YAML file. Missing fields fall
// back to defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, eris.Wrapf(err, "scorer: read config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, eris.Wrap(err, "scorer: parse config")
	}
	return cfg, nil
}

// Validate checks that a Config is internally consistent.
func Validate(c Config) error {
	var errs []string

	if c.Base < 0 {
		errs = append(errs, "base must be >= 0")
	}
	if c.KeepThreshold < 0 {
		errs = append(errs, "keep_threshold must be >= 0")
	}
	if c.HighPriorityThreshold < c.KeepThreshold {
		errs = append(errs, "high_priority_threshold must be >= keep_threshold")
	}
	for i, tier := range c.AgeTiers {
		if tier.MinDays < 0 {
			errs = append(errs, fmt.Sprintf("age_tiers[%d].min_days must be >= 0", i))
		}
		if tier.Delta < 0 {
			errs = append(errs, fmt.Sprintf("age_tiers[%d].delta must be >= 0", i))
		}
	}
	for name, delta := range map[string]int{
		"inside_sales_delta": c.InsideSalesDelta,
		"sdr_delta":          c.SDRDelta,
		"junior_delta":       c.JuniorDelta,
	} {
		if delta > 0 {
			errs = append(errs, fmt.Sprintf("%s must be <= 0", name))
		}
	}
	if c.ApplicationsMin < 0 {
		errs = append(errs, "applications_min must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
