package config

import (
	"fmt"
	"os"

	"github.com/titanous/json5"
)

// Load reads a JSON5 configuration document from path. A missing file is not
// an error: Default() is returned so uuship can run against compiled-in
// defaults the way Taylor UUCP falls back to its compiled CONFIGFILE.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.Reindex()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.Reindex()
	return cfg, nil
}

// PostgresDSN reads the stats-mirror Postgres DSN from the environment. It
// is never persisted in the JSON5 config file, matching the teacher's own
// handling of its Postgres DSN secret.
func PostgresDSN() string {
	return os.Getenv("UUSHIP_POSTGRES_DSN")
}
