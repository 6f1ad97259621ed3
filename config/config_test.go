package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sethvargo/go-envconfig"

	"hfprop/antenna"
	"hfprop/geo"
)

func noEnv() envconfig.Lookuper {
	return envconfig.MapLookuper(map[string]string{})
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadDirectoryMergesFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.yaml", `data:
  coeff_dir: "/srv/voacap"
prediction:
  tx_power_w: 100
`)
	writeFile(t, dir, "antennas.yaml", `antennas:
  tx:
    - name: "40m dipole"
      type: dipole
      freq_lo: 6
      freq_hi: 8
      gain_dbi: 2.1
      elevation_deg: 30
`)
	writeFile(t, dir, "notes.txt", "ignored")

	cfg, err := LoadWith(dir, noEnv())
	if err != nil {
		t.Fatalf("LoadWith() error: %v", err)
	}
	if got := filepath.Clean(cfg.LoadedFrom); got != filepath.Clean(dir) {
		t.Fatalf("expected LoadedFrom=%s, got %s", dir, got)
	}
	if cfg.Data.CoeffDir != "/srv/voacap" {
		t.Fatalf("expected data.coeff_dir from app.yaml, got %q", cfg.Data.CoeffDir)
	}
	if cfg.Prediction.TxPowerW != 100 {
		t.Fatalf("expected tx_power_w=100, got %v", cfg.Prediction.TxPowerW)
	}
	if cfg.Prediction.RequiredSNR != 73 {
		t.Fatalf("expected the default required SNR to survive the merge, got %v", cfg.Prediction.RequiredSNR)
	}
	if len(cfg.Antennas.Tx) != 1 || cfg.Antennas.Tx[0].Name != "40m dipole" {
		t.Fatalf("expected one tx antenna from antennas.yaml, got %+v", cfg.Antennas.Tx)
	}
}

func TestLoadSingleFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "hfprop.yaml", "sweep:\n  workers: 3\n")
	cfg, err := LoadWith(path, noEnv())
	if err != nil {
		t.Fatalf("LoadWith() error: %v", err)
	}
	if cfg.Sweep.Workers != 3 {
		t.Fatalf("expected 3 workers, got %d", cfg.Sweep.Workers)
	}
	if cfg.Sweep.TimeoutSeconds != 600 {
		t.Fatalf("expected the default timeout, got %d", cfg.Sweep.TimeoutSeconds)
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := LoadWith("", noEnv())
	if err != nil {
		t.Fatalf("LoadWith() error: %v", err)
	}
	if cfg.LoadedFrom != "" {
		t.Fatalf("expected no LoadedFrom, got %q", cfg.LoadedFrom)
	}
	if cfg.Logging.Level != "info" || cfg.Data.CacheMonths != 3 {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadWith(dir, noEnv()); err == nil {
		t.Fatalf("expected an error for a directory without YAML files")
	}
	if _, err := LoadWith(filepath.Join(dir, "missing.yaml"), noEnv()); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
	bad := writeFile(t, dir, "bad.yaml", "prediction: [1, 2\n")
	if _, err := LoadWith(bad, noEnv()); err == nil {
		t.Fatalf("expected a parse error")
	}
	rel := writeFile(t, t.TempDir(), "rel.yaml", "prediction:\n  required_reliability: 1.5\n")
	if _, err := LoadWith(rel, noEnv()); err == nil {
		t.Fatalf("expected required_reliability 1.5 to be rejected")
	}
	lvl := writeFile(t, t.TempDir(), "lvl.yaml", "logging:\n  level: verbose\n")
	if _, err := LoadWith(lvl, noEnv()); err == nil {
		t.Fatalf("expected logging.level verbose to be rejected")
	}
}

func TestUnknownAntennaTypeSuggests(t *testing.T) {
	path := writeFile(t, t.TempDir(), "ant.yaml", `antennas:
  rx:
    - type: dipol
      freq_lo: 3
      freq_hi: 30
`)
	_, err := LoadWith(path, noEnv())
	if !errors.Is(err, antenna.ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
	if !strings.Contains(err.Error(), `"dipole"`) {
		t.Fatalf("expected a suggestion in %q", err)
	}
}

func TestNormalizeRepairsValues(t *testing.T) {
	path := writeFile(t, t.TempDir(), "n.yaml", `data:
  cache_months: 40
logging:
  level: DEBUG
prediction:
  tx_power_w: -5
  min_takeoff_deg: 95
sweep:
  timeout_seconds: 0
`)
	cfg, err := LoadWith(path, noEnv())
	if err != nil {
		t.Fatalf("LoadWith() error: %v", err)
	}
	if cfg.Data.CacheMonths != 3 {
		t.Fatalf("expected cache_months repaired to 3, got %d", cfg.Data.CacheMonths)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected level lowered to debug, got %q", cfg.Logging.Level)
	}
	if cfg.Prediction.TxPowerW != 1000 || cfg.Prediction.MinTakeoffDeg != 3 {
		t.Fatalf("expected power and takeoff repaired, got %+v", cfg.Prediction)
	}
	if cfg.Sweep.TimeoutSeconds != 600 {
		t.Fatalf("expected timeout repaired, got %d", cfg.Sweep.TimeoutSeconds)
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeFile(t, t.TempDir(), "e.yaml", "data:\n  coeff_dir: /from/file\n")
	env := envconfig.MapLookuper(map[string]string{
		"HFPROP_COEFF_DIR":      "/from/env",
		"HFPROP_SWEEP_WORKERS":  "6",
		"HFPROP_LOG_LEVEL":      "debug",
		"HFPROP_METRICS_FILE":   "/tmp/hfprop.prom",
		"HFPROP_MAN_MADE_NOISE": "-136",
		"COEFF_DIR":             "/unprefixed",
	})
	cfg, err := LoadWith(path, env)
	if err != nil {
		t.Fatalf("LoadWith() error: %v", err)
	}
	if cfg.Data.CoeffDir != "/from/env" {
		t.Fatalf("expected the env coeff dir, got %q", cfg.Data.CoeffDir)
	}
	if cfg.Sweep.Workers != 6 || cfg.Logging.Level != "debug" || cfg.Metrics.TextfilePath != "/tmp/hfprop.prom" {
		t.Fatalf("expected env overrides applied, got %+v", cfg)
	}
	if cfg.Prediction.ManMadeNoise != -136 {
		t.Fatalf("expected man-made noise -136, got %v", cfg.Prediction.ManMadeNoise)
	}

	bad := envconfig.MapLookuper(map[string]string{"HFPROP_MAN_MADE_NOISE": "quiet"})
	if _, err := LoadWith("", bad); err == nil {
		t.Fatalf("expected an invalid man-made noise override to fail")
	}

	unset, err := LoadWith("", envconfig.MapLookuper(nil))
	if err != nil {
		t.Fatalf("LoadWith() error: %v", err)
	}
	if want := DefaultConfig().Prediction.ManMadeNoise; unset.Prediction.ManMadeNoise != want {
		t.Fatalf("expected the default man-made noise %v without an override, got %v", want, unset.Prediction.ManMadeNoise)
	}
	quiet, err := LoadWith("", envconfig.MapLookuper(map[string]string{"HFPROP_MAN_MADE_NOISE": "-150.5"}))
	if err != nil {
		t.Fatalf("LoadWith() error: %v", err)
	}
	if quiet.Prediction.ManMadeNoise != -150.5 {
		t.Fatalf("expected a fractional override -150.5, got %v", quiet.Prediction.ManMadeNoise)
	}
}

func TestParams(t *testing.T) {
	path := writeFile(t, t.TempDir(), "p.yaml", `prediction:
  tx_power_w: 400
  min_takeoff_deg: 5
  long_path: true
antennas:
  tx:
    - type: yagi
      freq_lo: 13
      freq_hi: 15
      gain_dbi: 9
      elevation_deg: 12
      beamwidth_deg: 20
`)
	cfg, err := LoadWith(path, noEnv())
	if err != nil {
		t.Fatalf("LoadWith() error: %v", err)
	}
	p, err := cfg.Params(geo.PointFromDegrees(44.9, 20.5), 6, 100)
	if err != nil {
		t.Fatalf("Params() error: %v", err)
	}
	if p.TxPower != 400 || !p.LongPath || p.Month != 6 {
		t.Fatalf("unexpected params %+v", p)
	}
	if math.Abs(p.MinTakeoff-5*math.Pi/180) > 1e-12 {
		t.Fatalf("expected min takeoff in radians, got %v", p.MinTakeoff)
	}
	ant := p.TxAntennas.Select(14.1)
	if ant.Type != antenna.Yagi || ant.Name != "yagi-0" {
		t.Fatalf("expected the named yagi to cover 14.1 MHz, got %+v", ant)
	}
	if p.RxAntennas.Select(14.1).Type != antenna.Isotropic {
		t.Fatalf("expected the isotropic fallback on receive")
	}
	if _, err := cfg.Params(geo.PointFromDegrees(44.9, 20.5), 13, 100); err == nil {
		t.Fatalf("expected month 13 to be rejected")
	}
}
