package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override the config file.
const (
	EnvSourceURL = "STUDYBOARD_SOURCE_URL"
	EnvCacheTTL  = "STUDYBOARD_CACHE_TTL"
	EnvTimeout   = "STUDYBOARD_TIMEOUT"
	EnvLogLevel  = "STUDYBOARD_LOG_LEVEL"
)

// LookupFunc resolves an environment variable.
type LookupFunc func(key string) (string, bool)

// EnvLookup returns a lookup over the process environment that falls back to
// the dotenv files in paths. Missing files are skipped; earlier files win.
func EnvLookup(paths ...string) (LookupFunc, error) {
	fromFiles := map[string]string{}
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to stat env file: %w", err)
		}
		values, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
		}
		for k, v := range values {
			if _, ok := fromFiles[k]; !ok {
				fromFiles[k] = v
			}
		}
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fromFiles[key]
		return v, ok
	}, nil
}

// ApplyEnv overrides file values with non-empty environment variables.
func ApplyEnv(cfg *FileConfig, lookup LookupFunc) {
	if lookup == nil {
		return
	}
	overrideString(&cfg.Source.URL, lookup, EnvSourceURL)
	overrideString(&cfg.Source.CacheTTL, lookup, EnvCacheTTL)
	overrideString(&cfg.Source.Timeout, lookup, EnvTimeout)
	overrideString(&cfg.Log.Level, lookup, EnvLogLevel)
}

func overrideString(target **string, lookup LookupFunc, key string) {
	v, ok := lookup(key)
	if !ok {
		return
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	*target = &v
}
