package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// Config captures the environment driven settings of the booking service.
type Config struct {
	Port        int
	DatabaseURL string
	LogLevel    string
	Location    *time.Location

	CalendarID         string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	GoogleRefreshToken string
	CalendarTimeout    time.Duration

	SweepInterval time.Duration

	StaticTokens  []string
	JWTHMACSecret string

	PostmarkToken string
	NotifyFrom    string
	NotifyTo      string
	BaseURL       string
}

// CalendarEnabled reports whether every Google credential is present.
func (c Config) CalendarEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != "" && c.GoogleRefreshToken != ""
}

// Load parses configuration from the process environment.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	env := func(key string) string { return strings.TrimSpace(getenv(key)) }

	cfg := Config{
		Port:            8080,
		LogLevel:        "info",
		CalendarID:      "primary",
		CalendarTimeout: 10 * time.Second,
		SweepInterval:   15 * time.Minute,
		BaseURL:         "http://localhost:8080",
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 2)

	if v := env("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "PORT")
		} else {
			cfg.Port = port
		}
	}

	cfg.DatabaseURL = env("DATABASE_URL")
	if v := env("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	tz := env("PROPERTY_TIMEZONE")
	if tz == "" {
		tz = "Europe/Berlin"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		invalid = append(invalid, "PROPERTY_TIMEZONE")
	} else {
		cfg.Location = loc
	}

	if v := env("GOOGLE_CALENDAR_ID"); v != "" {
		cfg.CalendarID = v
	}
	cfg.GoogleClientID = env("GOOGLE_CLIENT_ID")
	cfg.GoogleClientSecret = env("GOOGLE_CLIENT_SECRET")
	cfg.GoogleRedirectURL = env("GOOGLE_REDIRECT_URL")
	cfg.GoogleRefreshToken = env("GOOGLE_REFRESH_TOKEN")

	// A partial OAuth client is a mistake; the refresh token alone may be
	// missing while the admin completes the consent flow.
	oauth := map[string]string{
		"GOOGLE_CLIENT_ID":     cfg.GoogleClientID,
		"GOOGLE_CLIENT_SECRET": cfg.GoogleClientSecret,
		"GOOGLE_REDIRECT_URL":  cfg.GoogleRedirectURL,
	}
	missing = append(missing, partial(oauth, "GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "GOOGLE_REDIRECT_URL")...)

	if v := env("CALENDAR_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			invalid = append(invalid, "CALENDAR_TIMEOUT")
		} else {
			cfg.CalendarTimeout = d
		}
	}

	if v := env("CONFLICT_SWEEP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			invalid = append(invalid, "CONFLICT_SWEEP_INTERVAL")
		} else {
			cfg.SweepInterval = d
		}
	}

	for _, t := range strings.Split(env("STATIC_TOKENS"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			cfg.StaticTokens = append(cfg.StaticTokens, t)
		}
	}
	cfg.JWTHMACSecret = env("JWT_HMAC_SECRET")

	cfg.PostmarkToken = env("POSTMARK_TOKEN")
	cfg.NotifyFrom = env("NOTIFY_FROM_EMAIL")
	cfg.NotifyTo = env("NOTIFY_TO_EMAIL")
	mail := map[string]string{
		"POSTMARK_TOKEN":    cfg.PostmarkToken,
		"NOTIFY_FROM_EMAIL": cfg.NotifyFrom,
		"NOTIFY_TO_EMAIL":   cfg.NotifyTo,
	}
	missing = append(missing, partial(mail, "POSTMARK_TOKEN", "NOTIFY_FROM_EMAIL", "NOTIFY_TO_EMAIL")...)
	if v := env("BASE_URL"); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing environment variables: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

// partial returns the unset keys of a group that is set only in part.
func partial(values map[string]string, keys ...string) []string {
	var set, unset []string
	for _, k := range keys {
		if values[k] == "" {
			unset = append(unset, k)
		} else {
			set = append(set, k)
		}
	}
	if len(set) == 0 {
		return nil
	}
	return unset
}
