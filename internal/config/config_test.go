package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jetsetilly/crowdcade/internal/config"
)

func TestLoadAppliesDefaultsWhenUnset(t *testing.T) {
	clearCrowdcadeEnv(t)

	cfg := config.Load()
	assert.Equal(t, "anarchy", cfg.DefaultMode)
	assert.Equal(t, "./saves", cfg.SaveDir)
	assert.Equal(t, 10*time.Second, cfg.DemocracyWindowSecs)
	assert.Equal(t, 200*time.Millisecond, cfg.RateLimitMs)
	assert.Equal(t, 0.75, cfg.ModeSwitchThreshold)
	assert.True(t, cfg.AutoRestore)
	assert.False(t, cfg.AllowAnonymousKeyboard)
	assert.False(t, cfg.StatsDashboard)
}

func TestLoadReadsOverridesFromEnvironment(t *testing.T) {
	clearCrowdcadeEnv(t)

	t.Setenv("DEFAULT_MODE", "democracy")
	t.Setenv("RATE_LIMIT_MS", "50ms")
	t.Setenv("MODE_SWITCH_THRESHOLD", "0.9")
	t.Setenv("ALLOW_ANONYMOUS_KEYBOARD", "true")
	t.Setenv("ADMIN_TOKEN", "shh")

	cfg := config.Load()
	assert.Equal(t, "democracy", cfg.DefaultMode)
	assert.Equal(t, 50*time.Millisecond, cfg.RateLimitMs)
	assert.Equal(t, 0.9, cfg.ModeSwitchThreshold)
	assert.True(t, cfg.AllowAnonymousKeyboard)
	assert.Equal(t, "shh", cfg.AdminToken)
	assert.Equal(t, "shh", cfg.OverlayCapabilityToken, "overlay token defaults to the admin token when unset")
}

func TestOverlayCapabilityTokenCanDifferFromAdminToken(t *testing.T) {
	clearCrowdcadeEnv(t)

	t.Setenv("ADMIN_TOKEN", "admin-secret")
	t.Setenv("OVERLAY_CAPABILITY_TOKEN", "overlay-secret")

	cfg := config.Load()
	assert.Equal(t, "admin-secret", cfg.AdminToken)
	assert.Equal(t, "overlay-secret", cfg.OverlayCapabilityToken)
}

func TestLoadFallsBackOnUnparsableValues(t *testing.T) {
	clearCrowdcadeEnv(t)

	t.Setenv("RATE_LIMIT_MS", "not-a-duration")
	t.Setenv("MODE_SWITCH_THRESHOLD", "not-a-float")
	t.Setenv("AUTO_RESTORE", "not-a-bool")

	cfg := config.Load()
	assert.Equal(t, 200*time.Millisecond, cfg.RateLimitMs)
	assert.Equal(t, 0.75, cfg.ModeSwitchThreshold)
	assert.True(t, cfg.AutoRestore)
}

func clearCrowdcadeEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"ROM_PATH", "BIOS_PATH", "SAVE_DIR", "DEFAULT_MODE", "DEMOCRACY_WINDOW_SECS",
		"RATE_LIMIT_MS", "START_THROTTLE_SECS", "MODE_SWITCH_THRESHOLD", "MODE_SWITCH_COOLDOWN_SECS",
		"WS_HOST", "WS_PORT", "ADMIN_PORT", "ADMIN_TOKEN", "OVERLAY_CAPABILITY_TOKEN", "AUTO_RESTORE",
		"ALLOW_ANONYMOUS_KEYBOARD", "CHAT_URL", "CHAT_TOKEN", "LOG_LEVEL", "WAV_DUMP_PATH",
		"STATS_DASHBOARD",
	}
	for _, k := range keys {
		old, had := os.LookupEnv(k)
		os.Unsetenv(k)
		if had {
			t.Cleanup(func() { os.Setenv(k, old) })
		}
	}
}
