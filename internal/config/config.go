package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dostini/dist-sys-runtime/internal/logging"
)

// EnvConfigPath names an optional TOML file with binary settings.
const EnvConfigPath = "NODE_CONFIG"

type Config struct {
	Log logging.Config
}

// node config.toml key mapping.
type fileConfig struct {
	Log struct {
		Level     string `toml:"level"`
		Timestamp bool   `toml:"timestamp"`
		NoColor   bool   `toml:"no_color"`
	} `toml:"log"`
}

func Default() Config {
	return Config{Log: logging.DefaultConfig()}
}

// Load overlays the file at path onto the defaults. Keys absent from the file
// keep their default value.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load node config: %w", err)
	}

	if meta.IsDefined("log", "level") {
		lvl, ok := logging.ParseLevel(raw.Log.Level)
		if !ok {
			return Config{}, fmt.Errorf("load node config: invalid log level %q", strings.TrimSpace(raw.Log.Level))
		}
		cfg.Log.Level = lvl
	}
	if meta.IsDefined("log", "timestamp") {
		cfg.Log.Timestamp = raw.Log.Timestamp
	}
	if meta.IsDefined("log", "no_color") {
		cfg.Log.NoColor = raw.Log.NoColor
	}

	return cfg, nil
}

// FromEnv loads the file named by NODE_CONFIG when set, then applies the
// NODE_LOG_* overrides.
func FromEnv() (Config, error) {
	cfg := Default()
	if path := strings.TrimSpace(os.Getenv(EnvConfigPath)); path != "" {
		loaded, err := Load(path)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}
	logging.ApplyEnv(&cfg.Log)
	return cfg, nil
}
