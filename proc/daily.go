package proc

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/leeineian/qotd/card"
	"github.com/leeineian/qotd/history"
	"github.com/leeineian/qotd/sys"
)

const (
	QuoteJobName = "Quote of the Day"
	SongJobName  = "Song of the Day"
)

var active atomic.Pointer[Actions]

// Get returns the actions bound to the running client, or nil before the
// client is ready.
func Get() *Actions {
	return active.Load()
}

func init() {
	sys.OnClientReady(func(ctx context.Context, client *bot.Client) {
		cfg := sys.GlobalConfig
		actions := NewActions(cfg, client.Rest)
		active.Store(actions)

		sys.RegisterDaemon(sys.LogScheduler, func(ctx context.Context) (bool, func(), func()) {
			return StartDailySchedules(ctx, cfg, actions)
		})
	})
}

// NewActions wires the actions to a REST client and the default
// collaborators.
func NewActions(cfg *sys.Config, d Discord) *Actions {
	a := &Actions{
		Config:   cfg,
		Discord:  d,
		Sampler:  history.NewSampler(d),
		Fetcher:  sys.NewFetcher(30 * time.Second),
		Renderer: card.NewRenderer(cfg.FontDir),
		Store:    sys.DBStore{},
	}
	if cfg.SongLookupTitles {
		a.Titles = NewYouTubeTitles()
	}
	return a
}

// Schedule describes one daily job.
type Schedule struct {
	Name    string
	At      sys.TimeOfDay
	Enabled bool
	Run     Action
}

// Schedules lists the daily jobs for cfg. Run is nil when actions is nil.
func Schedules(cfg *sys.Config, actions *Actions) []Schedule {
	schedules := []Schedule{
		{Name: QuoteJobName, At: cfg.QuoteTime, Enabled: cfg.EnableDailyQuote},
		{Name: SongJobName, At: cfg.SongTime, Enabled: cfg.EnableDailySong},
	}
	if actions != nil {
		schedules[0].Run = func(ctx context.Context) error {
			actions.Rename(ctx, cfg.QuoteChannelID, TriggerSchedule)
			return nil
		}
		schedules[1].Run = func(ctx context.Context) error {
			actions.Song(ctx, TriggerSchedule)
			return nil
		}
	}
	return schedules
}

// StartDailySchedules is the daemon starter for the enabled daily jobs.
func StartDailySchedules(ctx context.Context, cfg *sys.Config, actions *Actions) (bool, func(), func()) {
	sched, err := NewScheduler(cfg.Location)
	if err != nil {
		sys.LogError(sys.MsgGenericError, err)
		return false, nil, nil
	}

	registered := 0
	for _, s := range Schedules(cfg, actions) {
		if !s.Enabled {
			sys.LogScheduler(sys.MsgSchedulerDisabled, s.Name)
			continue
		}
		if _, err := sched.Daily(ctx, s.Name, s.At, s.Run); err != nil {
			sys.LogError(sys.MsgGenericError, err)
			continue
		}
		registered++
	}

	if registered == 0 {
		_ = sched.Shutdown()
		return false, nil, nil
	}

	return true, sched.Start, func() {
		if err := sched.Shutdown(); err != nil {
			sys.LogError(sys.MsgGenericError, err)
		}
	}
}
