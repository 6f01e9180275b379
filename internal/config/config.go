// Package config loads every recognised option named in the external
// interfaces table from the environment, in the getenv/parseDuration/
// parseBool shape used by execution-hub's internal/config/config.go.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds every option a running core needs, sourced from the
// environment with sensible defaults for local/dev use.
type Config struct {
	RomPath  string
	BiosPath string
	SaveDir  string

	DefaultMode             string
	DemocracyWindowSecs     time.Duration
	RateLimitMs             time.Duration
	StartThrottleSecs       time.Duration
	ModeSwitchThreshold     float64
	ModeSwitchCooldownSecs  time.Duration

	WSHost string
	WSPort string

	AdminPort  string
	AdminToken string

	// OverlayCapabilityToken gates the fabric's back-channel (§4.5 step 2-3).
	// Not separately named in the configuration table, so it defaults to
	// AdminToken — one shared operator secret unless a distinct overlay
	// token is explicitly set.
	OverlayCapabilityToken string

	AutoRestore            bool
	AllowAnonymousKeyboard bool

	ChatURL   string
	ChatToken string

	LogLevel       string
	WavDumpPath    string
	StatsDashboard bool
}

// Load reads configuration from the environment, falling back to the
// defaults named alongside each option below.
func Load() *Config {
	return &Config{
		RomPath:  getenv("ROM_PATH", ""),
		BiosPath: getenv("BIOS_PATH", ""),
		SaveDir:  getenv("SAVE_DIR", "./saves"),

		DefaultMode:            getenv("DEFAULT_MODE", "anarchy"),
		DemocracyWindowSecs:    parseDuration(getenv("DEMOCRACY_WINDOW_SECS", "10s"), 10*time.Second),
		RateLimitMs:            parseDuration(getenv("RATE_LIMIT_MS", "200ms"), 200*time.Millisecond),
		StartThrottleSecs:      parseDuration(getenv("START_THROTTLE_SECS", "5s"), 5*time.Second),
		ModeSwitchThreshold:    parseFloat(getenv("MODE_SWITCH_THRESHOLD", "0.75"), 0.75),
		ModeSwitchCooldownSecs: parseDuration(getenv("MODE_SWITCH_COOLDOWN_SECS", "300s"), 300*time.Second),

		WSHost: getenv("WS_HOST", "0.0.0.0"),
		WSPort: getenv("WS_PORT", "8081"),

		AdminPort:  getenv("ADMIN_PORT", "8082"),
		AdminToken: getenv("ADMIN_TOKEN", ""),

		OverlayCapabilityToken: getenv("OVERLAY_CAPABILITY_TOKEN", getenv("ADMIN_TOKEN", "")),

		AutoRestore:            parseBool(getenv("AUTO_RESTORE", "true"), true),
		AllowAnonymousKeyboard: parseBool(getenv("ALLOW_ANONYMOUS_KEYBOARD", "false"), false),

		ChatURL:   getenv("CHAT_URL", ""),
		ChatToken: getenv("CHAT_TOKEN", ""),

		LogLevel:       getenv("LOG_LEVEL", "info"),
		WavDumpPath:    getenv("WAV_DUMP_PATH", ""),
		StatsDashboard: parseBool(getenv("STATS_DASHBOARD", "false"), false),
	}
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}

func parseBool(val string, def bool) bool {
	if val == "" {
		return def
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return def
	}
	return b
}

func parseFloat(val string, def float64) float64 {
	if val == "" {
		return def
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return def
	}
	return f
}
