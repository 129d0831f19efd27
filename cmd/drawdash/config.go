package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Server struct {
		API string `yaml:"api"`
		WS  string `yaml:"ws"`
	} `yaml:"server"`
	Username string `yaml:"username"`
}

func DefaultConfig() AppConfig {
	var cfg AppConfig
	cfg.Server.API = "http://localhost:3001"
	cfg.Server.WS = "ws://localhost:3001/ws"
	return cfg
}

// LoadConfig resolves the config file: DRAWDASH_CONFIG wins, then candidate
// paths next to the executable and under the user config dir. Non-empty file
// values overlay the defaults.
func LoadConfig() (cfg AppConfig, path string, err error) {
	cfg = DefaultConfig()

	envPath := strings.TrimSpace(os.Getenv("DRAWDASH_CONFIG"))
	if envPath != "" {
		b, readErr := os.ReadFile(envPath)
		if readErr != nil {
			if errors.Is(readErr, os.ErrNotExist) {
				return cfg, "", nil
			}
			return cfg, envPath, readErr
		}
		return overlay(cfg, envPath, b)
	}

	for _, p := range candidateConfigPaths() {
		if strings.TrimSpace(p) == "" {
			continue
		}
		b, readErr := os.ReadFile(p)
		if readErr != nil {
			if errors.Is(readErr, os.ErrNotExist) {
				continue
			}
			return cfg, p, readErr
		}
		return overlay(cfg, p, b)
	}

	return cfg, "", nil
}

func overlay(cfg AppConfig, path string, b []byte) (AppConfig, string, error) {
	var raw AppConfig
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return cfg, path, err
	}
	if strings.TrimSpace(raw.Server.API) != "" {
		cfg.Server.API = strings.TrimSpace(raw.Server.API)
	}
	if strings.TrimSpace(raw.Server.WS) != "" {
		cfg.Server.WS = strings.TrimSpace(raw.Server.WS)
	}
	if strings.TrimSpace(raw.Username) != "" {
		cfg.Username = strings.TrimSpace(raw.Username)
	}
	return cfg, path, nil
}

func candidateConfigPaths() []string {
	var out []string
	if exe, err := os.Executable(); err == nil {
		out = append(out, filepath.Join(filepath.Dir(exe), "drawdash.yaml"))
	}
	if base, err := os.UserConfigDir(); err == nil {
		out = append(out, filepath.Join(base, "drawdash", "drawdash.yaml"))
	}
	return out
}
