package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/studyboard/internal/model"
)

// Defaults for every setting.
const (
	DefaultSourceURL   = "https://docs.google.com/spreadsheets/d/e/2PACX-1vTIz3YX4UyzZfg6d03AiQ-EyHifW1ezl8gh-3jJUKZjnBLhi0bYEYTVjtu-ag0QnW0QyzCkhgsKs467/pub?gid=1785346654&single=true&output=csv"
	DefaultFormURL     = "https://forms.gle/zMyh8ZWvZ4mYSxmu7"
	DefaultCacheTTL    = 30 * time.Second
	DefaultTimeout     = 60 * time.Second
	DefaultCurveWindow = 1
	DefaultLogLevel    = "info"
)

// Settings are the effective values after defaults, file and environment.
type Settings struct {
	Source      model.SourceConfig
	FormURL     string
	Activity    string
	CurveWindow int
	LogLevel    string
	LogFile     string
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Source: model.SourceConfig{
			URL:      DefaultSourceURL,
			CacheTTL: DefaultCacheTTL,
			Timeout:  DefaultTimeout,
		},
		FormURL:     DefaultFormURL,
		CurveWindow: DefaultCurveWindow,
		LogLevel:    DefaultLogLevel,
		LogFile:     DefaultLogPath(),
	}
}

// Resolve layers the file values over Defaults and validates the result.
func Resolve(file FileConfig) (Settings, error) {
	s := Defaults()
	applyString(&s.Source.URL, file.Source.URL)
	applyString(&s.FormURL, file.Source.FormURL)
	if err := applyDuration(&s.Source.CacheTTL, file.Source.CacheTTL, "source.cache-ttl"); err != nil {
		return Settings{}, err
	}
	if err := applyDuration(&s.Source.Timeout, file.Source.Timeout, "source.timeout"); err != nil {
		return Settings{}, err
	}
	applyString(&s.Activity, file.Dashboard.Activity)
	if file.Dashboard.CurveWindow != nil {
		s.CurveWindow = *file.Dashboard.CurveWindow
	}
	applyString(&s.LogLevel, file.Log.Level)
	applyString(&s.LogFile, file.Log.File)
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks the settings are usable.
func (s Settings) Validate() error {
	if err := validateHTTPURL(s.Source.URL); err != nil {
		return fmt.Errorf("source.url: %w", err)
	}
	if s.FormURL != "" {
		if err := validateHTTPURL(s.FormURL); err != nil {
			return fmt.Errorf("source.form-url: %w", err)
		}
	}
	if s.Source.CacheTTL <= 0 {
		return fmt.Errorf("source.cache-ttl must be > 0")
	}
	if s.Source.Timeout <= 0 {
		return fmt.Errorf("source.timeout must be > 0")
	}
	if s.CurveWindow < 1 {
		return fmt.Errorf("dashboard.curve-window must be >= 1")
	}
	if _, err := logrus.ParseLevel(s.LogLevel); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// ParseDuration accepts Go durations ("45s", "2m") and bare seconds ("30").
func ParseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d, nil
	}
	d, err := time.ParseDuration(value + "s")
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", value)
	}
	return d, nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must be an http(s) URL, got %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}

func applyString(target, value *string) {
	if value == nil {
		return
	}
	*target = strings.TrimSpace(*value)
}

func applyDuration(target *time.Duration, value *string, key string) error {
	if value == nil {
		return nil
	}
	d, err := ParseDuration(*value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*target = d
	return nil
}
