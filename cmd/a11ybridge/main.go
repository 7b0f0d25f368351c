package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danmuck/a11ybridge/internal/config"
	"github.com/danmuck/a11ybridge/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "bridge config path (built-in defaults when empty)")
	runtimePath := flag.String("runtime", "", "runtime config path (log level, reconnect, shutdown)")
	flag.Parse()

	logging.ConfigureRuntime()
	if err := run(*configPath, *runtimePath); err != nil {
		fmt.Fprintf(os.Stderr, "a11ybridge: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, runtimePath string) error {
	cfg, err := loadBridgeConfig(configPath)
	if err != nil {
		return err
	}
	rt, err := loadRuntimeConfig(runtimePath)
	if err != nil {
		return err
	}
	closeLog := applyRuntimeLogging(rt)
	defer closeLog()

	svc, err := newService(cfg, rt)
	if err != nil {
		return err
	}
	log.Info().
		Str("bridge", cfg.Name).
		Str("engine", cfg.EngineAddress).
		Str("inspect", cfg.InspectAddr).
		Bool("reconnect", rt.Reconnect).
		Msg("a11ybridge: starting")
	return svc.Run()
}

func loadBridgeConfig(path string) (config.BridgeConfig, error) {
	if path == "" {
		cfg := config.Defaults()
		return cfg, config.ValidateBridgeConfig(cfg)
	}
	return config.LoadBridgeConfig(path)
}

// applyRuntimeLogging applies the runtime file's log settings and returns a
// func that closes the log file, if any. trace_nodes only lifts the global
// gate; the bridge logger opts in itself.
func applyRuntimeLogging(rt runtimeConfig) func() {
	if rt.LogLevelSet {
		log.Logger = log.Logger.Level(rt.LogLevel)
		zerolog.SetGlobalLevel(rt.LogLevel)
	}
	if rt.TraceNodes {
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}
	if rt.LogFile == "" {
		return func() {}
	}
	w := logging.FileWriter(rt.LogFile, rt.LogMaxSizeMB, rt.LogMaxBackups)
	logging.RedirectToFile(w)
	return func() { _ = w.Close() }
}
