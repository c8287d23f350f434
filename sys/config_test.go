package sys

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func TestConfigFromEnvDefaults(t *testing.T) {
	cfg, err := ConfigFromEnv(envFrom(map[string]string{
		"DISCORD_TOKEN":    "token",
		"GUILD_ID":         "123",
		"QUOTE_CHANNEL_ID": "456",
	}))
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.Token)
	assert.Equal(t, snowflake.ID(123), cfg.GuildID)
	assert.Equal(t, snowflake.ID(456), cfg.QuoteChannelID)
	assert.Equal(t, snowflake.ID(0), cfg.IconChannelID)
	assert.True(t, cfg.EnableDailyQuote)
	assert.True(t, cfg.EnableDailySong)
	assert.Equal(t, TimeOfDay{Hour: 4}, cfg.QuoteTime)
	assert.Equal(t, TimeOfDay{Hour: 10}, cfg.SongTime)
	assert.Equal(t, "America/New_York", cfg.Location.String())
	assert.Equal(t, "!rename", cfg.RenamePrefix)
	assert.Equal(t, "!song", cfg.SongPrefix)
	assert.False(t, cfg.IconNoRepeat)
	assert.NotEmpty(t, cfg.DatabasePath)
}

func TestConfigFromEnvOverrides(t *testing.T) {
	cfg, err := ConfigFromEnv(envFrom(map[string]string{
		"ENABLE_DAILY_QUOTE": "False",
		"ENABLE_DAILY_SONG":  "nope",
		"QUOTE_TIME":         "06:30",
		"SONG_TIME":          "23:05",
		"TIMEZONE":           "UTC",
		"RENAME_PREFIX":      "?Rename",
		"ICON_NO_REPEAT":     "true",
		"DATABASE_PATH":      "/tmp/x.db",
	}))
	require.NoError(t, err)

	assert.False(t, cfg.EnableDailyQuote)
	assert.False(t, cfg.EnableDailySong)
	assert.Equal(t, TimeOfDay{Hour: 6, Minute: 30}, cfg.QuoteTime)
	assert.Equal(t, TimeOfDay{Hour: 23, Minute: 5}, cfg.SongTime)
	assert.Equal(t, "UTC", cfg.Location.String())
	assert.Equal(t, "?rename", cfg.RenamePrefix)
	assert.True(t, cfg.IconNoRepeat)
	assert.Equal(t, "/tmp/x.db", cfg.DatabasePath)
}

func TestConfigFromEnvErrors(t *testing.T) {
	for key, value := range map[string]string{
		"GUILD_ID":   "not-a-number",
		"QUOTE_TIME": "25:00",
		"TIMEZONE":   "Mars/Olympus",
	} {
		_, err := ConfigFromEnv(envFrom(map[string]string{key: value}))
		assert.Error(t, err, key)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.Validate())

	cfg.Token = "token"
	assert.NoError(t, cfg.Validate())

	cfg.EnableDailyQuote = true
	assert.Error(t, cfg.Validate())
	cfg.GuildID, cfg.QuoteChannelID, cfg.IconChannelID = 1, 2, 3
	assert.NoError(t, cfg.Validate())

	cfg.EnableDailySong = true
	assert.Error(t, cfg.Validate())
	cfg.MusicChannelID, cfg.SongPostChannelID = 4, 5
	assert.NoError(t, cfg.Validate())
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in   string
		want TimeOfDay
	}{
		{"4:00", TimeOfDay{4, 0}},
		{" 10:00 ", TimeOfDay{10, 0}},
		{"00:59", TimeOfDay{0, 59}},
		{"23:59", TimeOfDay{23, 59}},
	}
	for _, tt := range tests {
		got, err := ParseTimeOfDay(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"24:00", "12:60", "-1:00"} {
		_, err := ParseTimeOfDay(bad)
		assert.Error(t, err, bad)
	}
}

func TestTimeOfDayString(t *testing.T) {
	assert.Equal(t, "4:00", TimeOfDay{Hour: 4}.String())
	assert.Equal(t, "13:05", TimeOfDay{Hour: 13, Minute: 5}.String())
}

func TestConfigFromEnvRejectsBadFlags(t *testing.T) {
	for _, key := range []string{"ICON_NO_REPEAT", "SONG_LOOKUP_TITLES", "SILENT"} {
		t.Run(key, func(t *testing.T) {
			_, err := ConfigFromEnv(envFrom(map[string]string{key: "ture"}))
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}

	cfg, err := ConfigFromEnv(envFrom(map[string]string{"ICON_NO_REPEAT": "1", "SONG_LOOKUP_TITLES": "TRUE"}))
	require.NoError(t, err)
	assert.True(t, cfg.IconNoRepeat)
	assert.True(t, cfg.SongLookupTitles)
}

func TestLoadEnvConfigAppliesDebugFromDotenv(t *testing.T) {
	prev, hadPrev := os.LookupEnv("DEBUG")
	require.NoError(t, os.Unsetenv("DEBUG"))
	prevConfig := GlobalConfig
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv("DEBUG", prev)
		} else {
			_ = os.Unsetenv("DEBUG")
		}
		GlobalConfig = prevConfig
		InitLogger(false, false)
	})

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DEBUG=true\n"), 0644))
	t.Chdir(dir)

	InitLogger(false, false)
	require.False(t, Logger.Enabled(context.Background(), slog.LevelDebug))

	_, err := LoadEnvConfig()
	require.NoError(t, err)

	assert.True(t, Logger.Enabled(context.Background(), slog.LevelDebug))
}
