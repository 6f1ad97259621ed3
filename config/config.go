// Package config loads the hfprop YAML configuration and applies HFPROP_
// environment overrides.
package config

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"

	"hfprop/antenna"
	"hfprop/engine"
	"hfprop/geo"
	"hfprop/mathutil"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "HFPROP_"

// Config represents the complete hfprop configuration
type Config struct {
	Data       DataConfig       `yaml:"data"`
	Logging    LoggingConfig    `yaml:"logging"`
	Prediction PredictionConfig `yaml:"prediction"`
	Antennas   AntennaConfig    `yaml:"antennas"`
	Sweep      SweepConfig      `yaml:"sweep"`
	Metrics    MetricsConfig    `yaml:"metrics"`

	// LoadedFrom is the file or directory the configuration came from.
	LoadedFrom string `yaml:"-"`
}

// DataConfig locates the coefficient tables.
type DataConfig struct {
	CoeffDir     string `yaml:"coeff_dir"`      // directory of COEFFxx.DAT/AUXxx.DAT
	StorePath    string `yaml:"store_path"`     // Pebble store, preferred when set
	CacheMonths  int    `yaml:"cache_months"`   // month tables kept in memory
	StoreCacheMB int    `yaml:"store_cache_mb"` // Pebble block cache
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `yaml:"level"` // debug or info
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// PredictionConfig holds the circuit defaults.
type PredictionConfig struct {
	TxPowerW             float64 `yaml:"tx_power_w"`
	MinTakeoffDeg        float64 `yaml:"min_takeoff_deg"`
	ManMadeNoise         float64 `yaml:"man_made_noise"` // dBW/Hz at 3 MHz
	RequiredSNR          float64 `yaml:"required_snr"`   // dB-Hz
	RequiredReliability  float64 `yaml:"required_reliability"`
	MultipathDelayMs     float64 `yaml:"multipath_delay_ms"`
	MultipathToleranceDB float64 `yaml:"multipath_tolerance_db"`
	LongPath             bool    `yaml:"long_path"`
}

// AntennaSpec describes one antenna of a farm.
type AntennaSpec struct {
	Name         string  `yaml:"name"`
	Type         string  `yaml:"type"`
	FreqLo       float64 `yaml:"freq_lo"`
	FreqHi       float64 `yaml:"freq_hi"`
	GainDBi      float64 `yaml:"gain_dbi"`
	ElevationDeg float64 `yaml:"elevation_deg"`
	BeamwidthDeg float64 `yaml:"beamwidth_deg"`
}

// AntennaConfig lists the transmit and receive farms in selection order.
type AntennaConfig struct {
	Tx []AntennaSpec `yaml:"tx"`
	Rx []AntennaSpec `yaml:"rx"`
}

// SweepConfig bounds grid sweeps.
type SweepConfig struct {
	Workers        int `yaml:"workers"` // 0 = GOMAXPROCS
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// MetricsConfig enables the Prometheus textfile export.
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path"`
}

// env holds the overrides read from HFPROP_* variables.
type env struct {
	CoeffDir    string `env:"COEFF_DIR"`
	StorePath   string `env:"STORE_PATH"`
	LogLevel    string `env:"LOG_LEVEL"`
	LogFile     string `env:"LOG_FILE"`
	Workers     int    `env:"SWEEP_WORKERS"`
	MetricsFile string `env:"METRICS_FILE"`
	// nil unless the variable is set.
	ManMadeNoise *float64 `env:"MAN_MADE_NOISE, noinit"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Data: DataConfig{
			CacheMonths:  3,
			StoreCacheMB: 16,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		Prediction: PredictionConfig{
			TxPowerW:             1000,
			MinTakeoffDeg:        3,
			ManMadeNoise:         -145,
			RequiredSNR:          73,
			RequiredReliability:  0.9,
			MultipathDelayMs:     0.1,
			MultipathToleranceDB: 3,
		},
		Sweep: SweepConfig{
			TimeoutSeconds: 600,
		},
	}
}

// Load reads path, a YAML file or a directory whose *.yaml files are
// merged in name order, then applies environment overrides. An empty path
// yields the defaults plus overrides.
func Load(path string) (*Config, error) {
	return LoadWith(path, envconfig.OsLookuper())
}

// LoadWith is Load with an explicit environment source.
func LoadWith(path string, lookuper envconfig.Lookuper) (*Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) != "" {
		files, err := configFiles(path)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			data, err := os.ReadFile(f)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", filepath.Base(f), err)
			}
		}
		cfg.LoadedFrom = path
	}
	if err := cfg.applyEnv(lookuper); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.normalize()
	return &cfg, nil
}

func configFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(path, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no YAML files in config directory %s", path)
	}
	sort.Strings(files)
	return files, nil
}

func (c *Config) applyEnv(lookuper envconfig.Lookuper) error {
	var e env
	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   &e,
		Lookuper: envconfig.PrefixLookuper(EnvPrefix, lookuper),
	}); err != nil {
		return fmt.Errorf("failed to process environment: %w", err)
	}
	if e.CoeffDir != "" {
		c.Data.CoeffDir = e.CoeffDir
	}
	if e.StorePath != "" {
		c.Data.StorePath = e.StorePath
	}
	if e.LogLevel != "" {
		c.Logging.Level = e.LogLevel
	}
	if e.LogFile != "" {
		c.Logging.File = e.LogFile
	}
	if e.Workers != 0 {
		c.Sweep.Workers = e.Workers
	}
	if e.MetricsFile != "" {
		c.Metrics.TextfilePath = e.MetricsFile
	}
	if e.ManMadeNoise != nil {
		c.Prediction.ManMadeNoise = *e.ManMadeNoise
	}
	return nil
}

// validate rejects values that have no sensible repair.
func (c *Config) validate() error {
	p := c.Prediction
	if p.RequiredReliability < 0 || p.RequiredReliability >= 1 {
		return fmt.Errorf("prediction.required_reliability %v outside [0, 1)", p.RequiredReliability)
	}
	if p.MultipathDelayMs < 0 || p.MultipathToleranceDB < 0 {
		return fmt.Errorf("prediction multipath limits must not be negative")
	}
	if c.Sweep.Workers < 0 {
		return fmt.Errorf("sweep.workers %d must not be negative", c.Sweep.Workers)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "info", "debug":
	default:
		return fmt.Errorf("logging.level %q is not info or debug", c.Logging.Level)
	}
	if _, _, err := c.Antennas.Farms(); err != nil {
		return err
	}
	return nil
}

// normalize repairs out-of-range values with defaults.
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.Data.CacheMonths <= 0 || c.Data.CacheMonths > 12 {
		c.Data.CacheMonths = def.Data.CacheMonths
	}
	if c.Data.StoreCacheMB <= 0 {
		c.Data.StoreCacheMB = def.Data.StoreCacheMB
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = def.Logging.MaxSizeMB
	}
	if c.Prediction.TxPowerW <= 0 {
		c.Prediction.TxPowerW = def.Prediction.TxPowerW
	}
	if c.Prediction.MinTakeoffDeg < 0 || c.Prediction.MinTakeoffDeg >= 90 {
		c.Prediction.MinTakeoffDeg = def.Prediction.MinTakeoffDeg
	}
	if c.Prediction.RequiredReliability == 0 {
		c.Prediction.RequiredReliability = def.Prediction.RequiredReliability
	}
	if math.IsNaN(c.Prediction.ManMadeNoise) || c.Prediction.ManMadeNoise == 0 {
		c.Prediction.ManMadeNoise = def.Prediction.ManMadeNoise
	}
	if c.Sweep.TimeoutSeconds <= 0 {
		c.Sweep.TimeoutSeconds = def.Sweep.TimeoutSeconds
	}
}

// Farms builds the transmit and receive antenna farms.
func (a AntennaConfig) Farms() (tx, rx antenna.Farm, err error) {
	if tx, err = buildFarm("tx", a.Tx); err != nil {
		return nil, nil, err
	}
	if rx, err = buildFarm("rx", a.Rx); err != nil {
		return nil, nil, err
	}
	return tx, rx, nil
}

func buildFarm(side string, specs []AntennaSpec) (antenna.Farm, error) {
	farm := make(antenna.Farm, 0, len(specs))
	for i, s := range specs {
		typ, err := antenna.ParseType(s.Type)
		if err != nil {
			return nil, fmt.Errorf("antennas.%s[%d]: %w", side, i, err)
		}
		if s.FreqHi < s.FreqLo {
			return nil, fmt.Errorf("antennas.%s[%d]: freq_hi %v below freq_lo %v", side, i, s.FreqHi, s.FreqLo)
		}
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("%s-%d", typ, i)
		}
		farm = append(farm, antenna.Antenna{
			Name:      name,
			Type:      typ,
			FreqLo:    s.FreqLo,
			FreqHi:    s.FreqHi,
			MaxGain:   s.GainDBi,
			Elevation: mathutil.DegToRad(s.ElevationDeg),
			Beamwidth: mathutil.DegToRad(s.BeamwidthDeg),
		})
	}
	return farm, nil
}

// Params builds engine parameters from the prediction and antenna blocks.
func (c *Config) Params(tx geo.Point, month int, ssn float64) (engine.Params, error) {
	txFarm, rxFarm, err := c.Antennas.Farms()
	if err != nil {
		return engine.Params{}, err
	}
	p := c.Prediction
	params := engine.Params{
		Tx:                  tx,
		Month:               month,
		SSN:                 ssn,
		TxPower:             p.TxPowerW,
		MinTakeoff:          mathutil.DegToRad(p.MinTakeoffDeg),
		ManMadeNoise:        p.ManMadeNoise,
		RequiredSNR:         p.RequiredSNR,
		RequiredReliability: p.RequiredReliability,
		MultipathDelay:      p.MultipathDelayMs,
		MultipathTolerance:  p.MultipathToleranceDB,
		LongPath:            p.LongPath,
		TxAntennas:          txFarm,
		RxAntennas:          rxFarm,
	}
	return params, params.Validate()
}

// Print displays the configuration
func (c *Config) Print(w io.Writer) {
	fmt.Fprintf(w, "Config: %s\n", orDefault(c.LoadedFrom, "(built-in)"))
	fmt.Fprintf(w, "Coefficients: dir=%s store=%s cache=%d months\n",
		orDefault(c.Data.CoeffDir, "-"), orDefault(c.Data.StorePath, "-"), c.Data.CacheMonths)
	p := c.Prediction
	fmt.Fprintf(w, "Prediction: %.0f W, min takeoff %.1f deg, man-made %.1f dBW/Hz, SNR %.0f dB-Hz at %.0f%%\n",
		p.TxPowerW, p.MinTakeoffDeg, p.ManMadeNoise, p.RequiredSNR, p.RequiredReliability*100)
	fmt.Fprintf(w, "Antennas: %d tx, %d rx\n", len(c.Antennas.Tx), len(c.Antennas.Rx))
	workerDesc := "auto"
	if c.Sweep.Workers > 0 {
		workerDesc = fmt.Sprintf("%d", c.Sweep.Workers)
	}
	fmt.Fprintf(w, "Sweep: workers=%s timeout=%ds\n", workerDesc, c.Sweep.TimeoutSeconds)
	if c.Logging.File != "" {
		fmt.Fprintf(w, "Logging: %s to %s\n", c.Logging.Level, c.Logging.File)
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
