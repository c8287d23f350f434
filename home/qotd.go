package home

import (
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/omit"
	"github.com/leeineian/qotd/proc"
	"github.com/leeineian/qotd/sys"
)

func init() {
	manageGuild := discord.PermissionManageGuild
	sys.RegisterCommand(discord.SlashCommandCreate{
		Name:                     "qotd",
		Description:              "Pick a new quote of the day and server icon now",
		DefaultMemberPermissions: omit.New(&manageGuild),
	}, handleQuoteCommand)

	sys.RegisterCommand(discord.SlashCommandCreate{
		Name:        "sotd",
		Description: "Post a song of the day now",
	}, handleSongCommand)

	sys.RegisterMessageHandler(onTriggerMessage)
}

// MatchTriggers reports which actions a message asks for, by its leading
// prefix.
func MatchTriggers(content string, cfg *sys.Config) (rename, song bool) {
	return sys.HasPrefixFold(content, cfg.RenamePrefix), sys.HasPrefixFold(content, cfg.SongPrefix)
}

func onTriggerMessage(event *events.MessageCreate) {
	actions := proc.Get()
	if actions == nil {
		return
	}

	rename, song := MatchTriggers(event.Message.Content, actions.Config)
	author := event.Message.Author.EffectiveName()
	if rename {
		sys.LogQuote(sys.MsgCommandRenameStart, author, event.ChannelID)
		actions.Rename(sys.AppContext, event.ChannelID, proc.TriggerManual)
	}
	if song {
		sys.LogSong(sys.MsgCommandSongStart, author, event.ChannelID)
		actions.Song(sys.AppContext, proc.TriggerManual)
	}
}

func handleQuoteCommand(event *events.ApplicationCommandInteractionCreate) {
	actions := proc.Get()
	if !respond(event, actions != nil) {
		return
	}
	channelID := event.Channel().ID()
	sys.LogQuote(sys.MsgCommandRenameStart, event.User().EffectiveName(), channelID)
	actions.Rename(sys.AppContext, channelID, proc.TriggerManual)
}

func handleSongCommand(event *events.ApplicationCommandInteractionCreate) {
	actions := proc.Get()
	if !respond(event, actions != nil) {
		return
	}
	sys.LogSong(sys.MsgCommandSongStart, event.User().EffectiveName(), event.Channel().ID())
	actions.Song(sys.AppContext, proc.TriggerManual)
}

// respond acknowledges the interaction ephemerally and reports whether the
// action should go ahead.
func respond(event *events.ApplicationCommandInteractionCreate, ready bool) bool {
	if err := event.CreateMessage(ackMessage(ready)); err != nil {
		sys.LogWarn(sys.MsgGenericError, err)
	}
	return ready
}

func ackMessage(ready bool) discord.MessageCreate {
	content := sys.MsgCommandWorking
	if !ready {
		content = sys.MsgCommandNotReady
	}
	return discord.NewMessageCreate().
		WithContent(content).
		WithEphemeral(true)
}
