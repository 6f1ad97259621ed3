// Program hfprop predicts HF sky-wave circuit performance from monthly
// ionospheric coefficient tables: single circuits, receiver grid sweeps and
// coefficient store maintenance.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"hfprop/coeffs"
	"hfprop/config"
	"hfprop/engine"
)

const (
	defaultConfigPath = "hfprop.yaml"
	envConfigPath     = "HFPROP_CONFIG"
)

// Version is set at build time.
var Version = "dev"

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	debug      bool

	cfg    *config.Config
	logs   *logWriter
	logger *log.Logger
	stderr io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		stop()
		os.Exit(1)
	}
}

// run executes one command line. The log is flushed and closed on every
// exit path, including failed commands.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{stderr: stderr}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	err := root.ExecuteContext(ctx)
	if cerr := a.logs.Close(); err == nil && cerr != nil {
		err = cerr
		fmt.Fprintf(stderr, "Error: %v\n", cerr)
	}
	return err
}

// Purpose: Build the command tree.
// Key aspects: Config and logging are set up once in PersistentPreRunE;
// run closes the log afterwards.
// Upstream: run.
// Downstream: predict, sweep, coeffs and config subcommands.
func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hfprop",
		Short:         "HF sky-wave propagation predictions",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file or directory (default $"+envConfigPath+" or "+defaultConfigPath+")")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "log every engine stage")
	root.SetErr(a.stderr)

	root.AddCommand(newPredictCmd(a), newSweepCmd(a), newCoeffsCmd(a), newConfigCmd(a))
	return root
}

// Purpose: Load configuration and wire logging.
// Key aspects: A file logging failure is reported and logging continues on
// the console.
// Upstream: root PersistentPreRunE.
// Downstream: loadConfig, setupLogging.
func (a *app) setup() error {
	cfg, err := loadConfig(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	if a.debug {
		a.cfg.Logging.Level = "debug"
	}
	logs, err := setupLogging(cfg.Logging, a.stderr)
	a.logs = logs
	a.logger = log.New(logs, "", 0)
	if err != nil {
		a.logger.Printf("Logging: file logging disabled: %v", err)
	}
	if cfg.LoadedFrom != "" {
		a.logger.Printf("Loaded configuration from %s", cfg.LoadedFrom)
	}
	return nil
}

// Purpose: Resolve the config source.
// Key aspects: An explicit path must exist; the env and default candidates
// fall back to built-in defaults when absent.
// Upstream: app.setup.
// Downstream: config.Load.
func loadConfig(explicit string) (*config.Config, error) {
	if strings.TrimSpace(explicit) != "" {
		return config.Load(explicit)
	}
	candidates := make([]string, 0, 2)
	if envPath := strings.TrimSpace(os.Getenv(envConfigPath)); envPath != "" {
		candidates = append(candidates, envPath)
	}
	candidates = append(candidates, defaultConfigPath)
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		return config.Load(path)
	}
	return config.Load("")
}

func (a *app) debugEnabled() bool {
	return a.cfg != nil && a.cfg.Logging.Level == "debug"
}

// Purpose: Open the configured coefficient source behind a month cache.
// Key aspects: A Pebble store wins over a directory of .DAT files.
// Upstream: predict, sweep and coeffs info.
// Downstream: coeffs.OpenStore, coeffs.DirProvider, coeffs.NewCache.
func (a *app) provider() (coeffs.Provider, func() error, error) {
	data := a.cfg.Data
	var src coeffs.Provider
	closer := func() error { return nil }
	switch {
	case strings.TrimSpace(data.StorePath) != "":
		store, err := coeffs.OpenStore(data.StorePath, coeffs.StoreOptions{
			CacheBytes: int64(data.StoreCacheMB) << 20,
			ReadOnly:   true,
			Logger:     a.logger,
		})
		if err != nil {
			return nil, nil, err
		}
		src, closer = store, store.Close
	case strings.TrimSpace(data.CoeffDir) != "":
		src = coeffs.DirProvider{Dir: data.CoeffDir}
	default:
		return nil, nil, errors.New("no coefficient source: set data.coeff_dir or data.store_path")
	}
	cache, err := coeffs.NewCache(src, data.CacheMonths, a.logger)
	if err != nil {
		_ = closer()
		return nil, nil, err
	}
	return cache, closer, nil
}

// Purpose: Build an engine for one month.
// Key aspects: Debug logging attaches the stage-trace observer.
// Upstream: predict and sweep.
// Downstream: coeffs.Provider.LoadMonth, engine.New.
func (a *app) engine(ctx context.Context, month int) (*engine.Engine, func() error, error) {
	src, closer, err := a.provider()
	if err != nil {
		return nil, nil, err
	}
	table, err := src.LoadMonth(ctx, month)
	if err != nil {
		_ = closer()
		return nil, nil, fmt.Errorf("load coefficients for month %d: %w", month, err)
	}
	opts := engine.Options{Logger: a.logger}
	if a.debugEnabled() {
		opts.Observer = engine.LogObserver{Logger: a.logger}
	}
	e, err := engine.New(table, opts)
	if err != nil {
		_ = closer()
		return nil, nil, err
	}
	return e, closer, nil
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.cfg.Print(cmd.OutOrStdout())
			return nil
		},
	}
}
