package sys

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"emperror.dev/errors"
	"github.com/disgoorg/snowflake/v2"
	"github.com/joho/godotenv"
	"github.com/sho0pi/naturaltime"
)

// --- Configuration & Environment ---

// TimeOfDay is a wall-clock hour and minute.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%d:%02d", t.Hour, t.Minute)
}

type Config struct {
	Token             string
	GuildID           snowflake.ID
	QuoteChannelID    snowflake.ID
	IconChannelID     snowflake.ID
	PostChannelID     snowflake.ID
	MusicChannelID    snowflake.ID
	SongPostChannelID snowflake.ID

	EnableDailyQuote bool
	EnableDailySong  bool
	QuoteTime        TimeOfDay
	SongTime         TimeOfDay
	Location         *time.Location

	RenamePrefix     string
	SongPrefix       string
	FontDir          string
	DatabasePath     string
	IconNoRepeat     bool
	SongLookupTitles bool
	Silent           bool
}

var GlobalConfig *Config

// LoadConfig initializes the configuration from environment variables and
// checks it has everything the bot needs to run.
func LoadConfig() (*Config, error) {
	cfg, err := LoadEnvConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvConfig reads .env and the environment without validating, for the
// offline subcommands.
func LoadEnvConfig() (*Config, error) {
	_ = godotenv.Load()
	cfg, err := ConfigFromEnv(os.Getenv)
	if err != nil {
		return nil, err
	}

	// DEBUG and SILENT may come from .env, which was not loaded when the
	// logger was first set up.
	InitLogger(IsSilent || cfg.Silent, LogToFile)

	GlobalConfig = cfg
	return cfg, nil
}

// ConfigFromEnv builds a Config from a lookup function shaped like os.Getenv.
func ConfigFromEnv(getenv func(string) string) (*Config, error) {
	env := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		Token:            env("DISCORD_TOKEN", ""),
		EnableDailyQuote: strings.ToLower(env("ENABLE_DAILY_QUOTE", "true")) == "true",
		EnableDailySong:  strings.ToLower(env("ENABLE_DAILY_SONG", "true")) == "true",
		RenamePrefix:     strings.ToLower(env("RENAME_PREFIX", "!rename")),
		SongPrefix:       strings.ToLower(env("SONG_PREFIX", "!song")),
		FontDir:          env("FONT_DIR", "."),
	}
	flags := []struct {
		key string
		dst *bool
	}{
		{"ICON_NO_REPEAT", &cfg.IconNoRepeat},
		{"SONG_LOOKUP_TITLES", &cfg.SongLookupTitles},
		{"SILENT", &cfg.Silent},
	}
	for _, flag := range flags {
		parsed, err := strconv.ParseBool(env(flag.key, "false"))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s", flag.key)
		}
		*flag.dst = parsed
	}

	ids := []struct {
		key string
		dst *snowflake.ID
	}{
		{"GUILD_ID", &cfg.GuildID},
		{"QUOTE_CHANNEL_ID", &cfg.QuoteChannelID},
		{"ICON_CHANNEL_ID", &cfg.IconChannelID},
		{"POST_CHANNEL_ID", &cfg.PostChannelID},
		{"MUSIC_CHANNEL_ID", &cfg.MusicChannelID},
		{"SONG_POST_CHANNEL_ID", &cfg.SongPostChannelID},
	}
	for _, id := range ids {
		raw := env(id.key, "0")
		parsed, err := snowflake.Parse(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s", id.key)
		}
		*id.dst = parsed
	}

	loc, err := time.LoadLocation(env("TIMEZONE", "America/New_York"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid TIMEZONE")
	}
	cfg.Location = loc

	if cfg.QuoteTime, err = ParseTimeOfDay(env("QUOTE_TIME", "4:00")); err != nil {
		return nil, errors.Wrap(err, "invalid QUOTE_TIME")
	}
	if cfg.SongTime, err = ParseTimeOfDay(env("SONG_TIME", "10:00")); err != nil {
		return nil, errors.Wrap(err, "invalid SONG_TIME")
	}

	dbPath := env("DATABASE_PATH", "")
	if dbPath == "" {
		folder := "."
		if info, err := os.Stat("data"); err == nil && info.IsDir() {
			folder = "./data"
		}
		dbPath = filepath.Join(folder, GetProjectName()+".db")
	}
	cfg.DatabasePath = dbPath

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Token == "" {
		return errors.New(MsgConfigMissingToken)
	}
	if c.EnableDailyQuote && (c.GuildID == 0 || c.QuoteChannelID == 0 || c.IconChannelID == 0) {
		return errors.New("ENABLE_DAILY_QUOTE requires GUILD_ID, QUOTE_CHANNEL_ID and ICON_CHANNEL_ID")
	}
	if c.EnableDailySong && (c.MusicChannelID == 0 || c.SongPostChannelID == 0) {
		return errors.New("ENABLE_DAILY_SONG requires MUSIC_CHANNEL_ID and SONG_POST_CHANNEL_ID")
	}
	return nil
}

// ParseTimeOfDay reads "H:MM" or "HH:MM". Anything else is handed to the
// natural language parser ("4am", "noon", "10:30 pm").
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	if hh, mm, ok := strings.Cut(s, ":"); ok {
		h, errH := strconv.Atoi(hh)
		m, errM := strconv.Atoi(mm)
		if errH == nil && errM == nil {
			if h < 0 || h > 23 || m < 0 || m > 59 {
				return TimeOfDay{}, errors.Errorf("time of day out of range: %q", s)
			}
			return TimeOfDay{Hour: h, Minute: m}, nil
		}
	}

	parser, err := naturaltime.New()
	if err != nil {
		return TimeOfDay{}, errors.Wrap(err, "initializing naturaltime parser")
	}
	ref := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	res, err := parser.ParseDate(s, ref)
	if err != nil || res == nil {
		return TimeOfDay{}, errors.Errorf("unrecognised time of day: %q", s)
	}
	return TimeOfDay{Hour: res.Hour(), Minute: res.Minute()}, nil
}

func GetProjectName() string {
	exePath, err := os.Executable()
	projectName := "qotd"
	if err == nil {
		projectName = filepath.Base(exePath)
		projectName = strings.TrimSuffix(projectName, ".exe")

		if projectName == "main" || strings.HasPrefix(projectName, "go_build_") || strings.HasSuffix(projectName, ".test") {
			projectName = "qotd"
		}
	}
	return projectName
}
