package main

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hfprop/coeffs"
)

// writeTestConfig writes a month-6 synthetic table and a config pointing at
// it, returning the config path.
func writeTestConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "coeffs")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := coeffs.Uniform(6, coeffs.DefaultSynthetic()).WriteDir(dataDir); err != nil {
		t.Fatalf("WriteDir: %v", err)
	}
	body := "data:\n  coeff_dir: " + dataDir + "\n" + extra
	path := filepath.Join(dir, "hfprop.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func jsonLines(t *testing.T, data string) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(strings.NewReader(data))
	sc.Buffer(make([]byte, 1<<20), 1<<20)
	for sc.Scan() {
		var rec map[string]any
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("decode %q: %v", sc.Text(), err)
		}
		out = append(out, rec)
	}
	return out
}

func TestPredictCommandJSON(t *testing.T) {
	cfg := writeTestConfig(t, "")
	out, _, err := runCLI(t, "--config", cfg, "predict",
		"--tx", "35.80,-5.90", "--rx", "KN04", "--month", "6", "--utc", "1",
		"--freqs", "7.1,11.85", "--json")
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	recs := jsonLines(t, out)
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d:\n%s", len(recs), out)
	}
	if recs[0]["freq_mhz"] != 7.1 || recs[1]["freq_mhz"] != 11.85 {
		t.Fatalf("expected records in frequency order, got %v and %v", recs[0]["freq_mhz"], recs[1]["freq_mhz"])
	}
	for _, key := range []string{"mode", "snr_db", "reliability", "muf_mhz", "service_probability"} {
		if _, ok := recs[1][key]; !ok {
			t.Fatalf("expected key %q in %v", key, recs[1])
		}
	}
}

func TestPredictCommandErrors(t *testing.T) {
	cfg := writeTestConfig(t, "")
	if _, _, err := runCLI(t, "--config", cfg, "predict", "--tx", "nowhere", "--rx", "KN04", "--month", "6"); err == nil {
		t.Fatalf("expected an invalid --tx to fail")
	}
	if _, _, err := runCLI(t, "--config", cfg, "predict", "--tx", "IM75", "--rx", "KN04", "--month", "7"); err == nil {
		t.Fatalf("expected a month without coefficients to fail")
	}
	if _, _, err := runCLI(t, "--config", cfg, "predict", "--tx", "IM75", "--rx", "KN04", "--month", "6",
		"--freqs", "14.1,7.1"); err == nil {
		t.Fatalf("expected descending frequencies to fail")
	}
}

func TestSweepCommandWritesRecordsAndMetrics(t *testing.T) {
	dir := t.TempDir()
	prom := filepath.Join(dir, "hfprop.prom")
	cfg := writeTestConfig(t, "metrics:\n  textfile_path: "+prom+"\n")
	outPath := filepath.Join(dir, "grid.jsonl")

	_, stderr, err := runCLI(t, "--config", cfg, "sweep",
		"--tx", "35.80,-5.90", "--month", "6", "--box", "40,45,0,5", "--step", "5",
		"--hours", "1,13", "--freqs", "14.1", "--workers", "2", "--out", outPath)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	recs := jsonLines(t, string(data))
	if len(recs) != 8 {
		t.Fatalf("expected 4 receivers x 2 hours = 8 records, got %d", len(recs))
	}
	if recs[0]["lat"] != 40.0 || recs[0]["hour"] != 1.0 {
		t.Fatalf("expected the south-west corner at hour 1 first, got %v", recs[0])
	}
	if !strings.Contains(stderr, "Sweep: wrote 8 records") {
		t.Fatalf("expected a sweep summary in the log, got %q", stderr)
	}
	metrics, err := os.ReadFile(prom)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(metrics), "hfprop_sweep_jobs_total 8") {
		t.Fatalf("expected 8 jobs in the textfile, got:\n%s", metrics)
	}
}

func TestParseBox(t *testing.T) {
	latMin, latMax, lonMin, lonMax, err := parseBox("30, 60,-20,40")
	if err != nil {
		t.Fatalf("parseBox: %v", err)
	}
	if latMin != 30 || latMax != 60 || lonMin != -20 || lonMax != 40 {
		t.Fatalf("unexpected box %v %v %v %v", latMin, latMax, lonMin, lonMax)
	}
	for _, bad := range []string{"", "1,2,3", "60,30,0,1", "0,91,0,1", "a,b,c,d"} {
		if _, _, _, _, err := parseBox(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestCoeffsImportAndInfo(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "store")
	cfg := writeTestConfig(t, "")
	out, _, err := runCLI(t, "--config", cfg, "coeffs", "import", "--store", storePath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "imported 1 months") {
		t.Fatalf("expected one imported month, got %q", out)
	}

	storeCfg := filepath.Join(t.TempDir(), "store.yaml")
	if err := os.WriteFile(storeCfg, []byte("data:\n  store_path: "+storePath+"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	out, _, err = runCLI(t, "--config", storeCfg, "coeffs", "info")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	status := map[string]string{}
	for _, line := range strings.Split(out, "\n") {
		if f := strings.Fields(line); len(f) >= 2 {
			status[f[0]] = f[1]
		}
	}
	if status["06"] != "ok" || status["07"] != "missing" {
		t.Fatalf("expected month 6 ok and 7 missing, got:\n%s", out)
	}

	out, _, err = runCLI(t, "--config", storeCfg, "predict", "--tx", "IM75", "--rx", "KN04",
		"--month", "6", "--utc", "1", "--freqs", "11.85", "--json")
	if err != nil {
		t.Fatalf("predict from store: %v", err)
	}
	if len(jsonLines(t, out)) != 1 {
		t.Fatalf("expected one record from the store-backed prediction, got %q", out)
	}
}

func TestConfigCommandPrints(t *testing.T) {
	cfg := writeTestConfig(t, "prediction:\n  tx_power_w: 250\n")
	out, _, err := runCLI(t, "--config", cfg, "config")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if !strings.Contains(out, "Prediction: 250 W") {
		t.Fatalf("expected the configured power, got:\n%s", out)
	}
}

func TestDebugFlagTracesStages(t *testing.T) {
	cfg := writeTestConfig(t, "")
	_, stderr, err := runCLI(t, "--config", cfg, "--debug", "predict",
		"--tx", "IM75", "--rx", "KN04", "--month", "6", "--utc", "1", "--freqs", "11.85", "--json")
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if !strings.Contains(stderr, "Engine: control point 0") {
		t.Fatalf("expected stage traces with --debug, got %q", stderr)
	}
}

func TestFailedCommandStillWritesLogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "hfprop.log")
	cfg := writeTestConfig(t, "logging:\n  file: "+logPath+"\n")
	if _, _, err := runCLI(t, "--config", cfg, "predict", "--tx", "IM75", "--rx", "KN04", "--month", "7"); err == nil {
		t.Fatalf("expected a month without coefficients to fail")
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "Loaded configuration from") {
		t.Fatalf("expected the setup line in the log file, got %q", data)
	}
}
