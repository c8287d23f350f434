package proc

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"emperror.dev/errors"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/omit"
	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/qotd/history"
	"github.com/leeineian/qotd/sys"
)

const (
	maxGuildName = 100
	cardFilename = "update.png"

	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

// Discord is the part of the REST API the actions use. rest.Rest satisfies it.
type Discord interface {
	history.MessageFetcher
	CreateMessage(channelID snowflake.ID, messageCreate discord.MessageCreate, opts ...rest.RequestOpt) (*discord.Message, error)
	UpdateGuild(guildID snowflake.ID, guildUpdate discord.GuildUpdate, opts ...rest.RequestOpt) (*discord.RestGuild, error)
	GetChannel(channelID snowflake.ID, opts ...rest.RequestOpt) (discord.Channel, error)
}

type IconFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type CardRenderer interface {
	Render(title, quoteBy, iconBy string, icon []byte) ([]byte, error)
}

// RunStore persists icon usage and the run log.
type RunStore interface {
	UsedIcons(ctx context.Context) (map[snowflake.ID]bool, error)
	MarkIconUsed(ctx context.Context, attachmentID, messageID snowflake.ID) error
	ResetUsedIcons(ctx context.Context) error
	RecordRun(ctx context.Context, run sys.ActionRun) error
}

// TitleLookup resolves a music link to a display title. An empty title with
// no error means the link is not supported.
type TitleLookup interface {
	Title(ctx context.Context, link string) (string, error)
}

// Actions holds the quote-of-the-day and song-of-the-day procedures.
// Store and Titles are optional.
type Actions struct {
	Config   *sys.Config
	Discord  Discord
	Sampler  *history.Sampler
	Fetcher  IconFetcher
	Renderer CardRenderer
	Store    RunStore
	Titles   TitleLookup

	songRunning atomic.Bool
}

// TruncateName shortens s to fit a guild name. Long text is cut at the last
// space within the first 97 runes and ends in "...".
func TruncateName(s string) string {
	runes := []rune(s)
	if len(runes) <= maxGuildName {
		return s
	}
	head := string(runes[:maxGuildName-3])
	if i := strings.LastIndex(head, " "); i >= 0 {
		head = head[:i]
	}
	return head + "..."
}

// Rename picks a quote and an icon, applies both to the guild and posts the
// announcement card to triggerChannel and the post channel. Failures are
// logged; a rename already applied is not rolled back.
func (a *Actions) Rename(ctx context.Context, triggerChannel snowflake.ID, trigger string) {
	if err := a.rename(ctx, triggerChannel, trigger); err != nil {
		sys.ComponentError("quote", sys.MsgQuoteFailed, err)
	}
}

func (a *Actions) rename(ctx context.Context, triggerChannel snowflake.ID, trigger string) error {
	quote, ok, err := a.Sampler.RandomQuote(ctx, a.Config.QuoteChannelID)
	if err != nil {
		return errors.Wrap(err, "sampling quote")
	}
	icon, iconOK, err := a.pickIcon(ctx)
	if err != nil {
		return errors.Wrap(err, "sampling icon")
	}
	if !ok {
		sys.ComponentWarn("quote", sys.MsgQuoteNoQuote)
		return nil
	}
	if !iconOK {
		sys.ComponentWarn("quote", sys.MsgQuoteNoImage)
		return nil
	}

	iconBytes, err := a.Fetcher.Fetch(ctx, icon.Payload)
	if err != nil {
		return err
	}

	name := TruncateName(quote.Payload)
	_, err = a.Discord.UpdateGuild(a.Config.GuildID, discord.GuildUpdate{
		Name: &name,
		Icon: omit.New(discord.NewIconRaw(iconType(iconBytes), iconBytes)),
	}, rest.WithCtx(ctx))
	if err != nil {
		return errors.Wrap(err, "updating guild")
	}
	sys.LogQuote(sys.MsgQuoteRenamed, quote.Payload)

	a.markIconUsed(ctx, icon)
	a.recordRun(ctx, "rename", name, quote.Author, trigger)

	card, err := a.Renderer.Render(quote.Payload, orUnknown(quote.Author), orUnknown(icon.Author), iconBytes)
	if err != nil {
		sys.ComponentWarn("card", sys.MsgCardRenderFailed, err)
		return nil
	}

	targets := []snowflake.ID{triggerChannel}
	if a.Config.PostChannelID != 0 && a.Config.PostChannelID != triggerChannel {
		targets = append(targets, a.Config.PostChannelID)
	}
	for _, channelID := range targets {
		msg := discord.NewMessageCreate().
			AddFiles(discord.NewFile(cardFilename, "", bytes.NewReader(card)))
		if _, err := a.Discord.CreateMessage(channelID, msg, rest.WithCtx(ctx)); err != nil {
			sys.ComponentError("quote", sys.MsgQuoteCardPostFail, channelID, err)
		}
	}
	return nil
}

// pickIcon samples an icon. With icon de-duplication on, icons used before
// are skipped until all of them have been used once.
func (a *Actions) pickIcon(ctx context.Context) (history.Candidate, bool, error) {
	channelID := a.Config.IconChannelID
	if !a.Config.IconNoRepeat || a.Store == nil {
		return a.Sampler.RandomIcon(ctx, channelID, nil)
	}

	used, err := a.Store.UsedIcons(ctx)
	if err != nil {
		sys.ComponentWarn("quote", sys.MsgQuoteIconStateFail, "load", err)
		used = nil
	}

	icon, ok, err := a.Sampler.RandomIcon(ctx, channelID, func(c history.Candidate) bool {
		return !used[c.AttachmentID]
	})
	if err != nil || ok || len(used) == 0 {
		return icon, ok, err
	}

	sys.LogQuote(sys.MsgQuoteIconsReset)
	if err := a.Store.ResetUsedIcons(ctx); err != nil {
		sys.ComponentWarn("quote", sys.MsgQuoteIconStateFail, "reset", err)
	}
	return a.Sampler.RandomIcon(ctx, channelID, nil)
}

func (a *Actions) markIconUsed(ctx context.Context, icon history.Candidate) {
	if !a.Config.IconNoRepeat || a.Store == nil {
		return
	}
	if err := a.Store.MarkIconUsed(ctx, icon.AttachmentID, icon.MessageID); err != nil {
		sys.ComponentWarn("quote", sys.MsgQuoteIconMarkFail, icon.AttachmentID, err)
	}
}

func (a *Actions) recordRun(ctx context.Context, action, payload, author, trigger string) {
	if a.Store == nil {
		return
	}
	run := sys.ActionRun{Action: action, Payload: payload, Author: author, Trigger: trigger}
	if err := a.Store.RecordRun(ctx, run); err != nil {
		sys.ComponentWarn(action, sys.MsgQuoteRunRecordFail, err)
	}
}

// SongRunning reports whether a song post is in flight.
func (a *Actions) SongRunning() bool {
	return a.songRunning.Load()
}

// Song posts a random music link from the music channel. Only one Song runs
// at a time; a call made while another is in flight posts a busy notice and
// returns.
func (a *Actions) Song(ctx context.Context, trigger string) {
	if !a.songRunning.CompareAndSwap(false, true) {
		sys.ComponentWarn("song", sys.MsgSongBusyLog)
		a.send(ctx, a.Config.SongPostChannelID, sys.MsgSongBusy)
		return
	}
	defer a.songRunning.Store(false)

	if err := a.song(ctx, trigger); err != nil {
		sys.ComponentError("song", sys.MsgSongFailed, err)
	}
}

func (a *Actions) song(ctx context.Context, trigger string) error {
	if _, err := a.Discord.GetChannel(a.Config.MusicChannelID, rest.WithCtx(ctx)); err != nil {
		sys.ComponentError("song", sys.MsgSongMusicNotFound, err)
		return nil
	}
	if _, err := a.Discord.GetChannel(a.Config.SongPostChannelID, rest.WithCtx(ctx)); err != nil {
		sys.ComponentError("song", sys.MsgSongPostNotFound, err)
		return nil
	}

	song, ok, err := a.Sampler.RandomSong(ctx, a.Config.MusicChannelID)
	if err != nil {
		return errors.Wrap(err, "sampling song")
	}
	if !ok {
		sys.ComponentWarn("song", sys.MsgSongNoLinkLog)
		a.send(ctx, a.Config.SongPostChannelID, sys.MsgSongNoLink)
		return nil
	}

	content := fmt.Sprintf(sys.MsgSongAnnouncement, song.Author, song.Payload)
	if a.Titles != nil {
		link := history.MusicLinkPattern.FindString(song.Payload)
		title, err := a.Titles.Title(ctx, link)
		switch {
		case err != nil:
			sys.ComponentWarn("song", sys.MsgSongLookupFail, link, err)
		case title != "":
			content = fmt.Sprintf(sys.MsgSongAnnouncementName, song.Author, title, song.Payload)
		}
	}

	if _, err := a.Discord.CreateMessage(a.Config.SongPostChannelID, discord.MessageCreate{Content: content}, rest.WithCtx(ctx)); err != nil {
		return errors.Wrap(err, "posting song")
	}
	sys.LogSong(sys.MsgSongPosted, song.Payload)
	a.recordRun(ctx, "song", song.Payload, song.Author, trigger)
	return nil
}

func (a *Actions) send(ctx context.Context, channelID snowflake.ID, content string) {
	if _, err := a.Discord.CreateMessage(channelID, discord.MessageCreate{Content: content}, rest.WithCtx(ctx)); err != nil {
		sys.ComponentError("song", sys.MsgGenericError, err)
	}
}

func iconType(data []byte) discord.IconType {
	switch http.DetectContentType(data) {
	case "image/png":
		return discord.IconTypePNG
	case "image/gif":
		return discord.IconTypeGIF
	case "image/webp":
		return discord.IconTypeWEBP
	default:
		return discord.IconTypeJPEG
	}
}

func orUnknown(name string) string {
	if name == "" {
		return "Unknown"
	}
	return name
}
