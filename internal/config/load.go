// Package config loads the service configuration from per-environment YAML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// DirEnv overrides the directory searched for <env>.yaml.
const DirEnv = "PRDRAG_CONFIG_DIR"

// GetEnv returns the environment named by $ENV, or "local".
func GetEnv() string {
	if env := strings.TrimSpace(os.Getenv("ENV")); env != "" {
		return env
	}
	return "local"
}

// Load reads <env>.yaml from the first config directory that has it.
func Load(env string) (Config, error) {
	path, err := locate(env + ".yaml")
	if err != nil {
		return Config{}, err
	}
	return LoadFile(path)
}

// LoadFile reads configuration from an explicit path.
func LoadFile(path string) (Config, error) {
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(raw)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse expands environment references in raw, decodes it, applies defaults
// and validates the result. Unknown keys are rejected so typos do not pass
// silently as defaults.
func Parse(raw []byte) (Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(expandEnv(raw)))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// searchDirs lists where Load looks, in order: $PRDRAG_CONFIG_DIR, ./config,
// then the repository config directory next to this source file.
func searchDirs() []string {
	var dirs []string
	if dir := os.Getenv(DirEnv); dir != "" {
		dirs = append(dirs, dir)
	}
	dirs = append(dirs, "config")
	if _, file, _, ok := runtime.Caller(0); ok {
		// internal/config/load.go -> <root>/config
		dirs = append(dirs, filepath.Join(filepath.Dir(file), "..", "..", "config"))
	}
	return dirs
}

func locate(name string) (string, error) {
	dirs := searchDirs()
	for _, dir := range dirs {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("config %s not found in %s", name, strings.Join(dirs, ", "))
}

// expandEnv substitutes $VAR, ${VAR} and ${VAR:-default}. An unset variable
// without a default becomes empty; "$$" yields a literal "$".
func expandEnv(raw []byte) []byte {
	return []byte(os.Expand(string(raw), func(ref string) string {
		if ref == "$" {
			return "$"
		}
		name, fallback, hasDefault := strings.Cut(ref, ":-")
		if v := os.Getenv(name); v != "" || !hasDefault {
			return v
		}
		return fallback
	}))
}
