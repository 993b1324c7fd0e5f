package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// Load loads config from the default path (~/.editorbridge/config.json).
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return LoadFromFile(filepath.Join(home, ".editorbridge", "config.json"))
}

// LoadFromFile loads config from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader loads config from an io.Reader, applying defaults and env
// overrides.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()

	if err := json.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides applies EDITORBRIDGE_-prefixed environment variable
// overrides.
func applyEnvOverrides(cfg *Config) {
	strMap := map[string]*string{
		"EDITORBRIDGE_BRIDGE_PREFIX":         &cfg.Bridge.Prefix,
		"EDITORBRIDGE_BRIDGE_READYSIGNALKEY": &cfg.Bridge.ReadySignalKey,
		"EDITORBRIDGE_TRANSPORT_LISTENADDR":  &cfg.Transport.ListenAddr,
		"EDITORBRIDGE_TRANSPORT_PATH":        &cfg.Transport.Path,
	}
	for env, ptr := range strMap {
		if val := os.Getenv(env); val != "" {
			*ptr = val
		}
	}

	intMap := map[string]*int{
		"EDITORBRIDGE_BRIDGE_HEIGHTTHROTTLEMS":  &cfg.Bridge.HeightThrottleMS,
		"EDITORBRIDGE_BRIDGE_FOCUSACKTIMEOUTMS": &cfg.Bridge.FocusAckTimeoutMS,
		"EDITORBRIDGE_UPLOAD_MAXCHUNKSIZE":      &cfg.Upload.MaxChunkSize,
		"EDITORBRIDGE_UPLOAD_REMOVEDELAYMS":     &cfg.Upload.RemoveDelayMS,
	}
	for env, ptr := range intMap {
		if val := os.Getenv(env); val != "" {
			if n, err := strconv.Atoi(val); err == nil {
				*ptr = n
			}
		}
	}
}
