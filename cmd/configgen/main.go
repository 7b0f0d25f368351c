package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/a11ybridge/internal/config"
	"github.com/danmuck/a11ybridge/internal/logging"
	"github.com/rs/zerolog/log"
)

type kindSpec struct {
	path     string
	validate func(path string) error
}

var kinds = map[string]kindSpec{
	"bridge": {
		path: "cmd/a11ybridge/config.toml",
		validate: func(path string) error {
			_, err := config.LoadBridgeConfig(path)
			return err
		},
	},
	"runtime": {
		path:     "cmd/a11ybridge/runtime.toml",
		validate: validateRuntimeFile,
	},
}

var runtimeKeys = map[string]bool{
	"log_level":        true,
	"reconnect":        true,
	"shutdown_timeout": true,
	"trace_nodes":      true,
	"log_file":         true,
	"log_max_size_mb":  true,
	"log_max_backups":  true,
}

func main() {
	kind := flag.String("kind", "bridge", "config kind: bridge|runtime")
	output := flag.String("output", "", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "", "config path for validation (defaults to per-kind cmd path)")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	logging.ConfigureRuntime()
	if err := run(*kind, *output, *input, *validate, *force); err != nil {
		log.Error().Err(err).Str("kind", *kind).Msg("configgen failed")
		os.Exit(1)
	}
}

func run(kind, output, input string, validate, force bool) error {
	entry, ok := kinds[strings.ToLower(strings.TrimSpace(kind))]
	if !ok {
		return fmt.Errorf("unknown kind %q", kind)
	}
	if validate {
		path := firstNonEmpty(input, entry.path)
		if err := entry.validate(path); err != nil {
			return err
		}
		log.Info().Str("kind", kind).Str("path", path).Msg("config valid")
		return nil
	}

	target := firstNonEmpty(output, entry.path)
	if err := config.WriteTemplate(target, kind, force); err != nil {
		return err
	}
	log.Info().Str("kind", kind).Str("path", target).Msg("wrote config template")
	return nil
}

// validateRuntimeFile checks TOML syntax and rejects keys the process would
// ignore. Value checks happen when cmd/a11ybridge loads the file.
func validateRuntimeFile(path string) error {
	var raw map[string]any
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return err
	}
	var unknown []string
	for key := range raw {
		if !runtimeKeys[key] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%s: unknown runtime keys: %s", path, strings.Join(unknown, ", "))
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
