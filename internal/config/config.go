package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"plrcli/internal/plr"
)

// Config represents the complete application configuration
type Config struct {
	Analysis       AnalysisConfig       `yaml:"analysis" envconfig:"ANALYSIS"`
	Blink          BlinkConfig          `yaml:"blink" envconfig:"BLINK"`
	NoiseReduction NoiseReductionConfig `yaml:"noise_reduction" envconfig:"NOISE_REDUCTION"`
	Constriction   ConstrictionConfig   `yaml:"constriction" envconfig:"CONSTRICTION"`
	Dataloss       DatalossConfig       `yaml:"dataloss" envconfig:"DATALOSS"`
	Processing     ProcessingConfig     `yaml:"processing" envconfig:"PROCESSING"`
	Logging        LoggingConfig        `yaml:"logging" envconfig:"LOGGING"`
	Paths          PathsConfig          `yaml:"paths" envconfig:"PATHS"`
}

// AnalysisConfig controls time alignment and iris calibration
type AnalysisConfig struct {
	NominalIrisMM float64 `yaml:"nominal_iris_size_mm" envconfig:"NOMINAL_IRIS_SIZE_MM" validate:"gt=0"`
	TimeUnit      string  `yaml:"time_unit" envconfig:"TIME_UNIT" validate:"oneof=seconds milliseconds"`
}

// BlinkConfig controls eyelid-based blink detection
type BlinkConfig struct {
	SGWindow          int     `yaml:"sg_window" envconfig:"SG_WINDOW" validate:"gte=3"`
	SGPolyOrder       int     `yaml:"sg_poly_order" envconfig:"SG_POLY_ORDER" validate:"gte=1"`
	OpennessThreshold float64 `yaml:"openness_threshold" envconfig:"OPENNESS_THRESHOLD" validate:"gte=0,lte=1"`
	SpeedThreshold    float64 `yaml:"speed_threshold" envconfig:"SPEED_THRESHOLD" validate:"gt=0"`
	IntervalWindow    int     `yaml:"blink_interval_window" envconfig:"BLINK_INTERVAL_WINDOW" validate:"gte=1"`
}

// NoiseReductionConfig controls pupil-trace smoothing and the stable
// interval used for signal quality scoring
type NoiseReductionConfig struct {
	Window      int     `yaml:"smoothing_window" envconfig:"SMOOTHING_WINDOW" validate:"gte=1"`
	WindowShape string  `yaml:"smoothing_window_type" envconfig:"SMOOTHING_WINDOW_TYPE" validate:"oneof=uniform triangular gaussian"`
	StableStart float64 `yaml:"stable_interval_start" envconfig:"STABLE_INTERVAL_START"`
	StableEnd   float64 `yaml:"stable_interval_end" envconfig:"STABLE_INTERVAL_END" validate:"gtfield=StableStart"`
}

// ConstrictionConfig controls biomarker extraction
type ConstrictionConfig struct {
	VelocityThreshold float64 `yaml:"ctn_start_velocity_threshold_mms" envconfig:"CTN_START_VELOCITY_THRESHOLD_MMS" validate:"lt=0"`
	SGWindow          int     `yaml:"sg_window" envconfig:"SG_WINDOW" validate:"gte=3"`
	SGPolyOrder       int     `yaml:"sg_poly_order" envconfig:"SG_POLY_ORDER" validate:"gte=1"`
}

// DatalossConfig sets the recording rejection thresholds
type DatalossConfig struct {
	WarningRatio float64 `yaml:"warning" envconfig:"WARNING" validate:"gte=0,lte=1"`
	ErrorRatio   float64 `yaml:"error" envconfig:"ERROR" validate:"gte=0,lte=1,gtefield=WarningRatio"`
}

// ProcessingConfig controls batch execution
type ProcessingConfig struct {
	Workers int `yaml:"workers" envconfig:"WORKERS" validate:"gte=1"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir   string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	LogsDir   string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// Load builds the effective configuration: defaults, overlaid by the
// YAML file (when one exists), overlaid by PLR_* environment variables.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		if err := cfg.applyFile(configFile); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process("PLR", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// Validate checks the configuration against its struct tags plus the
// cross-field rules the tags cannot express.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return err
	}

	for name, f := range map[string]struct{ window, order int }{
		"blink":        {c.Blink.SGWindow, c.Blink.SGPolyOrder},
		"constriction": {c.Constriction.SGWindow, c.Constriction.SGPolyOrder},
	} {
		if f.window%2 == 0 {
			return fmt.Errorf("%s filter window must be odd, got %d", name, f.window)
		}
		if f.window < f.order+1 {
			return fmt.Errorf("%s filter window %d too small for polynomial order %d", name, f.window, f.order)
		}
	}
	return nil
}

// ToEngine maps the application configuration onto the analysis
// engine's own configuration type.
func (c *Config) ToEngine() plr.Config {
	unit := plr.UnitSeconds
	if c.Analysis.TimeUnit == "milliseconds" {
		unit = plr.UnitMilliseconds
	}
	return plr.Config{
		NominalIrisMM: c.Analysis.NominalIrisMM,
		Unit:          unit,
		Blink: plr.BlinkConfig{
			SGWindow:          c.Blink.SGWindow,
			SGPolyOrder:       c.Blink.SGPolyOrder,
			OpennessThreshold: c.Blink.OpennessThreshold,
			SpeedThreshold:    c.Blink.SpeedThreshold,
			IntervalWindow:    c.Blink.IntervalWindow,
		},
		Smoothing: plr.SmoothingConfig{
			Window: c.NoiseReduction.Window,
			Shape:  plr.WindowShape(c.NoiseReduction.WindowShape),
			Stable: plr.StableInterval{
				Start: c.NoiseReduction.StableStart,
				End:   c.NoiseReduction.StableEnd,
			},
		},
		Constriction: plr.ConstrictionConfig{
			VelocityThreshold: c.Constriction.VelocityThreshold,
			SGWindow:          c.Constriction.SGWindow,
			SGPolyOrder:       c.Constriction.SGPolyOrder,
		},
		DataLossWarning: c.Dataloss.WarningRatio,
		DataLossError:   c.Dataloss.ErrorRatio,
	}
}

// GetDataDir returns the resolved recording input directory.
func (c *Config) GetDataDir() string {
	return absOrSelf(c.Paths.DataDir)
}

// GetOutputDir returns the resolved report output directory.
func (c *Config) GetOutputDir() string {
	return absOrSelf(c.Paths.OutputDir)
}

// GetLogsDir returns the resolved logs directory.
func (c *Config) GetLogsDir() string {
	return absOrSelf(c.Paths.LogsDir)
}

func absOrSelf(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// findConfigFile returns the first config file found in common locations
func findConfigFile() string {
	locations := []string{
		"plr.yaml",
		"configs/plr.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			NominalIrisMM: 11.7,
			TimeUnit:      "seconds",
		},
		Blink: BlinkConfig{
			SGWindow:          11,
			SGPolyOrder:       3,
			OpennessThreshold: 0.4,
			SpeedThreshold:    0.1,
			IntervalWindow:    7,
		},
		NoiseReduction: NoiseReductionConfig{
			Window:      7,
			WindowShape: "uniform",
			StableStart: -1.5,
			StableEnd:   -0.5,
		},
		Constriction: ConstrictionConfig{
			VelocityThreshold: -0.5,
			SGWindow:          11,
			SGPolyOrder:       3,
		},
		Dataloss: DatalossConfig{
			WarningRatio: 0.05,
			ErrorRatio:   0.25,
		},
		Processing: ProcessingConfig{
			Workers: 4,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/plr.log",
		},
		Paths: PathsConfig{
			DataDir:   "data",
			OutputDir: "reports",
			LogsDir:   "logs",
		},
	}
}
