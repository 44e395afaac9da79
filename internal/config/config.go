// Package config loads the demo binary's settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/casualjim/evbroker/internal/registry"
	"github.com/casualjim/evbroker/pkg/convx"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every variable name read by Load.
const EnvPrefix = "EVBROKER_"

type Config struct {
	// LogLevel is read from EVBROKER_LOG_LEVEL (debug, info, warn, error).
	LogLevel slog.Level
	// LogJSON switches from console output to JSON lines (EVBROKER_LOG_JSON).
	LogJSON bool
	// DemoEvents is the number of jobs the demo simulates (EVBROKER_DEMO_EVENTS).
	DemoEvents int
	// Subscribers lists "module:name" references of callbacks to subscribe
	// (EVBROKER_SUBSCRIBERS, comma separated).
	Subscribers []string
}

func Default() Config {
	return Config{
		LogLevel:    slog.LevelInfo,
		DemoEvents:  5,
		Subscribers: []string{"demo:printer"},
	}
}

// Load reads the given .env files (".env" when none are given, silently
// skipped if missing) into the process environment and builds a Config from it.
// Variables already set in the environment win over the files.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load env files: %w", err)
	}

	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return FromEnv(env)
}

// FromEnv builds a Config from a snapshot of environment variables.
func FromEnv(env map[string]string) (Config, error) {
	vars := convx.SubConfig(env, EnvPrefix)
	cfg := Default()

	if v, ok := vars["LOG_LEVEL"]; ok && v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
			return Config{}, fmt.Errorf("invalid %sLOG_LEVEL: %w", EnvPrefix, err)
		}
	}

	if v, ok := vars["LOG_JSON"]; ok && v != "" {
		b, err := convx.AsBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %sLOG_JSON: %w", EnvPrefix, err)
		}
		cfg.LogJSON = b
	}

	if v, ok := vars["DEMO_EVENTS"]; ok && v != "" {
		n, err := convx.AsInt(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %sDEMO_EVENTS: %w", EnvPrefix, err)
		}
		if n < 0 {
			return Config{}, fmt.Errorf("invalid %sDEMO_EVENTS: must not be negative, got %d", EnvPrefix, n)
		}
		cfg.DemoEvents = n
	}

	if v, ok := vars["SUBSCRIBERS"]; ok {
		refs, err := parseRefs(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %sSUBSCRIBERS: %w", EnvPrefix, err)
		}
		cfg.Subscribers = refs
	}

	return cfg, nil
}

func parseRefs(v string) ([]string, error) {
	var refs []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, _, err := registry.ParseRef(part); err != nil {
			return nil, err
		}
		refs = append(refs, part)
	}
	return refs, nil
}
