package proc

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/gateway"
	"github.com/leeineian/qotd/sys"
)

const statusInterval = time.Minute

var statusRotatorRunning int32

func init() {
	sys.OnClientReady(func(ctx context.Context, client *bot.Client) {
		sys.RegisterDaemon(sys.LogScheduler, func(ctx context.Context) (bool, func(), func()) {
			return StartStatusRotator(ctx, client, sys.GlobalConfig)
		})
	})
}

// StatusLines lists the countdowns shown in the bot's presence, one per
// enabled daily job.
func StatusLines(now time.Time, cfg *sys.Config) []string {
	var lines []string
	for _, s := range Schedules(cfg, nil) {
		if !s.Enabled {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s in %s", s.Name, FormatCountdown(Until(now, s.At, cfg.Location))))
	}
	return lines
}

// FormatCountdown renders d as "3h 12m", or "12m" under an hour.
func FormatCountdown(d time.Duration) string {
	d = d.Round(time.Minute)
	h, m := int(d.Hours()), int(d.Minutes())%60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

// StartStatusRotator cycles the presence through the job countdowns.
func StartStatusRotator(ctx context.Context, client *bot.Client, cfg *sys.Config) (bool, func(), func()) {
	if cfg == nil || len(StatusLines(time.Now(), cfg)) == 0 {
		return false, nil, nil
	}
	if !atomic.CompareAndSwapInt32(&statusRotatorRunning, 0, 1) {
		return false, nil, nil
	}

	tick := 0
	return true, func() {
			ticker := time.NewTicker(statusInterval)
			defer ticker.Stop()

			for {
				updateStatus(ctx, client, cfg, tick)
				tick++
				select {
				case <-ticker.C:
				case <-ctx.Done():
					return
				}
			}
		}, func() {
			atomic.StoreInt32(&statusRotatorRunning, 0)
		}
}

func updateStatus(ctx context.Context, client *bot.Client, cfg *sys.Config, tick int) {
	lines := StatusLines(time.Now(), cfg)
	if len(lines) == 0 {
		return
	}
	err := client.SetPresence(ctx,
		gateway.WithOnlineStatus(discord.OnlineStatusOnline),
		gateway.WithWatchingActivity(lines[tick%len(lines)]),
	)
	if err != nil {
		sys.LogDebug("Failed to update presence: %v", err)
	}
}
