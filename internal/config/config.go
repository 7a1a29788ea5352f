package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	ingestapp "capacity-planner/internal/ingest/application"
	planningapp "capacity-planner/internal/planning/application"
	planning "capacity-planner/internal/planning/domain"
)

// Inputs names the five input files.
type Inputs struct {
	Demand          string `yaml:"demand"`
	DataCenter      string `yaml:"data_center"`
	Capacity        string `yaml:"capacity"`
	Technologies    string `yaml:"technologies"`
	CapacityFactors string `yaml:"capacity_factors"`
}

// Paths converts to the loader's path set.
func (i Inputs) Paths() ingestapp.Paths {
	return ingestapp.Paths{
		Demand:          i.Demand,
		DataCenter:      i.DataCenter,
		Capacity:        i.Capacity,
		Technologies:    i.Technologies,
		CapacityFactors: i.CapacityFactors,
	}
}

// Ingest controls loading.
type Ingest struct {
	RequireTimestamps bool `yaml:"require_timestamps"`
}

// Model controls assembly and solving.
type Model struct {
	CapexUnitScale float64 `yaml:"capex_unit_scale"`
	Annualize      bool    `yaml:"annualize"`
	DiscountRate   float64 `yaml:"discount_rate"`
	HorizonHours   int     `yaml:"horizon_hours"`
	Tolerance      float64 `yaml:"tolerance"`
	// MaxCells caps rows×columns of the constraint matrix.
	MaxCells int `yaml:"max_cells"`
}

// CostOptions returns the objective settings.
func (m Model) CostOptions() planning.CostOptions {
	return planning.CostOptions{
		CapexUnitScale: m.CapexUnitScale,
		Annualize:      m.Annualize,
		DiscountRate:   m.DiscountRate,
	}
}

// Output names the report artifacts. Empty names skip that artifact;
// relative names resolve under Dir.
type Output struct {
	Dir             string `yaml:"dir"`
	GenerationCSV   string `yaml:"generation_csv"`
	InvestmentCSV   string `yaml:"investment_csv"`
	XLSX            string `yaml:"xlsx"`
	PDF             string `yaml:"pdf"`
	MetricsTextfile string `yaml:"metrics_textfile"`
}

// Config is the planner configuration.
type Config struct {
	Inputs      Inputs `yaml:"inputs"`
	Ingest      Ingest `yaml:"ingest"`
	Model       Model  `yaml:"model"`
	Output      Output `yaml:"output"`
	DatabaseURL string `yaml:"database_url"`
	LogLevel    string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	paths := ingestapp.DefaultPaths()
	return Config{
		Inputs: Inputs{
			Demand:          paths.Demand,
			DataCenter:      paths.DataCenter,
			Capacity:        paths.Capacity,
			Technologies:    paths.Technologies,
			CapacityFactors: paths.CapacityFactors,
		},
		Ingest: Ingest{RequireTimestamps: true},
		Model: Model{
			CapexUnitScale: planning.DefaultCostOptions().CapexUnitScale,
			Tolerance:      1e-9,
			MaxCells:       planningapp.DefaultMaxCells,
		},
		Output: Output{
			Dir:           ".",
			GenerationCSV: "hw4_results_generation.csv",
			InvestmentCSV: "hw4_results_investment.csv",
		},
		LogLevel: "info",
	}
}

// Load builds the configuration from defaults, the yaml file at path (or
// PLANNER_CONFIG when path is empty) and environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("PLANNER_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.DatabaseURL = getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", cfg.DatabaseURL))
	cfg.Output.Dir = getenvDefault("PLANNER_OUTPUT_DIR", cfg.Output.Dir)
	cfg.LogLevel = getenvDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.Model.HorizonHours = getenvIntDefault("PLANNER_HORIZON_HOURS", cfg.Model.HorizonHours)
	cfg.Model.MaxCells = getenvIntDefault("PLANNER_MAX_CELLS", cfg.Model.MaxCells)

	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	m := c.Model
	switch {
	case !(m.CapexUnitScale > 0) || math.IsInf(m.CapexUnitScale, 0):
		return errors.New("config: model.capex_unit_scale must be positive")
	case m.DiscountRate < 0 || math.IsNaN(m.DiscountRate):
		return errors.New("config: model.discount_rate must not be negative")
	case m.HorizonHours < 0:
		return errors.New("config: model.horizon_hours must not be negative")
	case !(m.Tolerance > 0):
		return errors.New("config: model.tolerance must be positive")
	case m.MaxCells <= 0:
		return errors.New("config: model.max_cells must be positive")
	}
	i := c.Inputs
	if i.Demand == "" || i.DataCenter == "" || i.Capacity == "" || i.Technologies == "" || i.CapacityFactors == "" {
		return errors.New("config: every input path is required")
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
