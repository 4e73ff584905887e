package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal9000y/gmail-scheduler/internal/config"
	"github.com/hal9000y/gmail-scheduler/internal/types"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "UTC", cfg.Timezone)
	assert.False(t, cfg.AutoMode)
	assert.Equal(t, "primary", cfg.CalendarID)
	assert.Equal(t, "gemini-2.5-flash", cfg.Classifier.Model)
	assert.Equal(t, 20, cfg.Capture.MaxThreads)
	assert.Equal(t, 72*time.Hour, cfg.Capture.RecencyWindow)
	assert.Equal(t, 30, cfg.Resolution.MaxThreads)
	assert.Equal(t, 150, cfg.Ledger.Capacity)
	assert.Equal(t, 3*time.Second, cfg.LockWait)
	assert.Equal(t, 21, cfg.Availability.HorizonDays)
	assert.Equal(t, 9, cfg.Availability.OpenHour)
	assert.Equal(t, 17, cfg.Availability.CloseHour)
	assert.Equal(t, 15, cfg.Availability.SameDayCutoffHour)
	assert.Equal(t, 3*time.Hour, cfg.Availability.MaxSlotSpan)
	assert.Equal(t, "scheduler.db", filepath.Base(cfg.DBPath))
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
timezone: America/New_York
auto_mode: true
sign_off_name: Sam
poll_interval: 2m
capture:
  max_threads: 5
availability:
  open_hour: 10
  max_slot_span: 90m
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", cfg.Timezone)
	assert.True(t, cfg.AutoMode)
	assert.Equal(t, "Sam", cfg.SignOffName)
	assert.Equal(t, 2*time.Minute, cfg.PollInterval)
	assert.Equal(t, 5, cfg.Capture.MaxThreads)
	assert.Equal(t, 72*time.Hour, cfg.Capture.RecencyWindow, "unset keys keep defaults")

	av := cfg.AvailabilityOptions()
	assert.Equal(t, 10, av.OpenHour)
	assert.Equal(t, 90*time.Minute, av.MaxSlotSpan)
	assert.Equal(t, "America/New_York", av.Timezone)

	po := cfg.ProcessorOptions()
	assert.Equal(t, 5, po.CaptureMaxThreads)
	assert.Equal(t, 3, po.SlotCount)
	assert.Equal(t, "America/New_York", po.Timezone)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "auto_mode: false\n")
	t.Setenv("GMAIL_SCHEDULER_AUTO_MODE", "true")
	t.Setenv("GMAIL_SCHEDULER_CAPTURE_MAX_THREADS", "7")
	t.Setenv("GMAIL_SCHEDULER_POLL_INTERVAL", "30s")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.AutoMode)
	assert.Equal(t, 7, cfg.Capture.MaxThreads)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
}

func TestLoadInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown timezone": "timezone: Mars/Olympus\n",
		"inverted hours":   "availability:\n  open_hour: 17\n  close_hour: 9\n",
		"zero poll":        "poll_interval: 0s\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, body))
			require.ErrorIs(t, err, types.ErrConfiguration)
		})
	}

	_, err := config.Load(writeConfig(t, "timezone: [unterminated\n"))
	require.Error(t, err)
}

func TestSettingsSourceRereads(t *testing.T) {
	path := writeConfig(t, "auto_mode: false\n")
	src := config.NewSettingsSource(path)

	s, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, s.AutoModeEnabled)

	require.NoError(t, os.WriteFile(path, []byte("auto_mode: true\nsign_off_name: Sam\n"), 0o600))

	s, err = src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.Settings{AutoModeEnabled: true, SignOffName: "Sam"}, s)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("GMAIL_SCHEDULER_TEST_VALUE=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("GMAIL_SCHEDULER_TEST_VALUE") })

	require.NoError(t, config.LoadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("GMAIL_SCHEDULER_TEST_VALUE"))

	require.Error(t, config.LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}
