package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"energy-mix-pipeline/internal/model"
)

// Source describes one upstream columnar dataset: where to fetch it and how
// its CSV headers map onto the canonical quantity fields.
type Source struct {
	ID           string            `mapstructure:"id"`
	URL          string            `mapstructure:"url"`
	EntityColumn string            `mapstructure:"entity_column"`
	YearColumn   string            `mapstructure:"year_column"`
	Columns      map[string]string `mapstructure:"columns"`
}

// Trend bounds for the endpoint comparison.
type Trend struct {
	StartYear int `mapstructure:"start_year"`
	EndYear   int `mapstructure:"end_year"`
}

// Break configures the structural-break comparison.
type Break struct {
	PivotYear   int `mapstructure:"pivot_year"`
	WindowYears int `mapstructure:"window_years"`
	ModernFloor int `mapstructure:"modern_floor"`
}

// Groups holds the membership lists for the two comparison groups.
type Groups struct {
	EU27 []string `mapstructure:"eu27"`
	USA  []string `mapstructure:"usa"`
}

// Config is the full run configuration.
type Config struct {
	CacheDir   string `mapstructure:"cache_dir"`
	OutputDir  string `mapstructure:"output_dir"`
	DBPath     string `mapstructure:"db_path"`
	ListenAddr string `mapstructure:"listen_addr"`

	Energy    Source `mapstructure:"energy"`
	Emissions Source `mapstructure:"emissions"`

	Groups Groups `mapstructure:"groups"`
	Trend  Trend  `mapstructure:"trend"`
	Break  Break  `mapstructure:"break"`

	// CoverageThreshold is the minimum fraction of expected member
	// entities a group-year aggregate needs before it escapes a
	// coverage-gap flag. 1.0 flags any missing member.
	CoverageThreshold float64 `mapstructure:"coverage_threshold"`
}

// Membership builds the immutable membership value passed to the resolver.
func (c *Config) Membership() (model.Membership, error) {
	return model.NewMembership(map[model.Group][]string{
		model.GroupEU27: c.Groups.EU27,
		model.GroupUSA:  c.Groups.USA,
	})
}

// Load reads configuration from an optional YAML file with environment
// overrides (ENERGY_PIPELINE_* keys). Missing file with a non-empty path is
// an error; an empty path yields pure defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ENERGY_PIPELINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Trend.StartYear >= cfg.Trend.EndYear {
		return nil, fmt.Errorf("trend period %d-%d is not a valid range", cfg.Trend.StartYear, cfg.Trend.EndYear)
	}
	if cfg.Break.WindowYears < 1 {
		return nil, fmt.Errorf("break window must be at least 1 year, got %d", cfg.Break.WindowYears)
	}
	if cfg.CoverageThreshold <= 0 || cfg.CoverageThreshold > 1 {
		return nil, fmt.Errorf("coverage threshold must be in (0,1], got %v", cfg.CoverageThreshold)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("cache_dir", "data/raw")
	v.SetDefault("output_dir", "data/processed")
	v.SetDefault("db_path", "pipeline.db")
	v.SetDefault("listen_addr", ":8080")

	v.SetDefault("energy.id", "owid-energy")
	v.SetDefault("energy.url", "https://raw.githubusercontent.com/owid/energy-data/master/owid-energy-data.csv")
	v.SetDefault("energy.entity_column", "country")
	v.SetDefault("energy.year_column", "year")
	v.SetDefault("energy.columns", map[string]string{
		model.QtyCoal:            "coal_consumption",
		model.QtyOil:             "oil_consumption",
		model.QtyGas:             "gas_consumption",
		model.QtyNuclear:         "nuclear_consumption",
		model.QtyWind:            "wind_consumption",
		model.QtySolar:           "solar_consumption",
		model.QtyHydro:           "hydro_consumption",
		model.QtyOtherRenewables: "other_renewable_consumption",
	})

	v.SetDefault("emissions.id", "owid-co2")
	v.SetDefault("emissions.url", "https://raw.githubusercontent.com/owid/co2-data/master/owid-co2-data.csv")
	v.SetDefault("emissions.entity_column", "country")
	v.SetDefault("emissions.year_column", "year")
	v.SetDefault("emissions.columns", map[string]string{
		"co2":            "co2",
		"co2_per_capita": "co2_per_capita",
	})

	v.SetDefault("groups.eu27", model.EU27Members)
	v.SetDefault("groups.usa", model.USAMembers)

	v.SetDefault("trend.start_year", 2015)
	v.SetDefault("trend.end_year", 2024)

	v.SetDefault("break.pivot_year", 2008)
	v.SetDefault("break.window_years", 5)
	v.SetDefault("break.modern_floor", 1990)

	v.SetDefault("coverage_threshold", 1.0)
}
