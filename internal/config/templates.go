package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "bridge":
		return bridgeTemplate, nil
	case "runtime":
		return runtimeTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const bridgeTemplate = `name = "a11ybridge"
engine_address = "127.0.0.1:7400"
channel = "flutter/accessibility"
inspect_addr = "127.0.0.1:9400"
cors_origins = ["http://localhost:3000"]
# inspect_token = "change-me"
max_payload_bytes = 8388608
max_connect_attempts = 0
read_timeout_ms = 0

[backoff]
initial_ms = 250
multiplier = 2.0
max_ms = 5000
jitter = true

[tls]
enabled = false
`

const runtimeTemplate = `log_level = "info"
reconnect = true
shutdown_timeout = "5s"
trace_nodes = false
# log_file = "a11ybridge.log"
log_max_size_mb = 50
log_max_backups = 3
`
