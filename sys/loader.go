package sys

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
)

// SafeGo runs a function in a new goroutine with panic recovery
func SafeGo(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				LogError(MsgLoaderPanicRecovered, r)
				fmt.Printf("%s\n", debug.Stack())
			}
		}()
		f()
	}()
}

// --- Global State & Setup ---

var AppContext = context.Background()
var daemonsOnce sync.Once
var StartupTime = time.Now()

var (
	registryMu             sync.RWMutex
	commands               = []discord.ApplicationCommandCreate{}
	commandHandlers        = map[string]func(event *events.ApplicationCommandInteractionCreate){}
	messageHandlers        []func(event *events.MessageCreate)
	onClientReadyCallbacks []func(ctx context.Context, client *bot.Client)
)

func SetAppContext(ctx context.Context) {
	AppContext = ctx
}

// --- Bot Initialization ---

// CreateClient creates and configures a disgo client
func CreateClient(ctx context.Context, cfg *Config) (*bot.Client, error) {
	client, err := disgo.New(cfg.Token,
		bot.WithGatewayConfigOpts(
			gateway.WithIntents(
				gateway.IntentGuilds,
				gateway.IntentGuildMessages,
				gateway.IntentMessageContent,
			),
			gateway.WithPresenceOpts(
				gateway.WithListeningActivity("the quote channel"),
				gateway.WithOnlineStatus(discord.OnlineStatusOnline),
			),
		),
		bot.WithEventListenerFunc(onApplicationCommandInteraction),
		bot.WithEventListenerFunc(onMessageCreate),
		bot.WithEventListenerFunc(onReady),
		bot.WithLogger(slog.Default()),
		bot.WithRestClientConfigOpts(
			rest.WithHTTPClient(&http.Client{
				Timeout: 60 * time.Second,
			}),
		),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Discord client")
	}

	return client, nil
}

// --- Command & Handler Registration ---

func RegisterCommand(cmd discord.SlashCommandCreate, handler func(event *events.ApplicationCommandInteractionCreate)) {
	registryMu.Lock()
	defer registryMu.Unlock()
	commands = append(commands, cmd)
	commandHandlers[cmd.CommandName()] = handler
}

// RegisterMessageHandler adds a handler that sees every message not sent by
// this bot.
func RegisterMessageHandler(handler func(event *events.MessageCreate)) {
	registryMu.Lock()
	defer registryMu.Unlock()
	messageHandlers = append(messageHandlers, handler)
}

func OnClientReady(cb func(ctx context.Context, client *bot.Client)) {
	registryMu.Lock()
	defer registryMu.Unlock()
	onClientReadyCallbacks = append(onClientReadyCallbacks, cb)
}

// HasPrefixFold reports whether content starts with prefix, ignoring case.
func HasPrefixFold(content, prefix string) bool {
	if prefix == "" || len(content) < len(prefix) {
		return false
	}
	return strings.EqualFold(content[:len(prefix)], prefix)
}

// --- Command Syncing Logic ---

// calculateCommandHash generates a SHA256 hash of the commands slice
func calculateCommandHash(cmds []discord.ApplicationCommandCreate) string {
	data, err := json.Marshal(cmds)
	if err != nil {
		return ""
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// RegisterCommands pushes the slash commands to the configured guild, or
// globally when no guild is set. Unchanged command sets are skipped.
func RegisterCommands(ctx context.Context, client *bot.Client, guildID snowflake.ID, force bool) error {
	registryMu.RLock()
	cmds := append([]discord.ApplicationCommandCreate(nil), commands...)
	registryMu.RUnlock()

	currentMode := "guild:" + guildID.String()
	if guildID == 0 {
		currentMode = "global"
	}

	LogInfo(MsgLoaderSyncCommands, strings.ToUpper(strings.Split(currentMode, ":")[0]))

	currentHash := calculateCommandHash(cmds)
	lastHash, _ := GetBotConfig(ctx, "last_cmd_hash")
	lastMode, _ := GetBotConfig(ctx, "last_reg_mode")

	if !force && currentHash != "" && currentHash == lastHash && currentMode == lastMode {
		LogInfo(MsgLoaderUpToDate, currentHash[:8])
		return nil
	}

	if guildID == 0 {
		LogInfo(MsgLoaderProdStarting)
		created, err := client.Rest.SetGlobalCommands(client.ApplicationID, cmds, rest.WithCtx(ctx))
		if err != nil {
			return errors.Wrap(err, MsgLoaderProdFail)
		}
		for _, cmd := range created {
			LogInfo(MsgLoaderProdRegistered, cmd.Name())
		}
	} else {
		LogInfo(MsgLoaderDevStarting, guildID.String())
		created, err := client.Rest.SetGuildCommands(client.ApplicationID, guildID, cmds, rest.WithCtx(ctx))
		if err != nil {
			LogWarn(MsgLoaderDevFail, err)
			return errors.WithStack(err)
		}
		for _, cmd := range created {
			LogInfo(MsgLoaderDevRegistered, cmd.Name())
		}
	}

	_ = SetBotConfig(ctx, "last_reg_mode", currentMode)
	if currentHash != "" {
		_ = SetBotConfig(ctx, "last_cmd_hash", currentHash)
	}
	return nil
}

// --- Event Handlers ---

func onReady(event *events.Ready) {
	client := event.Client()
	botUser := event.User

	duration := time.Since(StartupTime)
	LogInfo(MsgBotReady, botUser.Username, botUser.ID.String(), os.Getpid(), duration.Milliseconds())

	TriggerClientReady(AppContext, client)
	StartDaemons(AppContext)
}

// TriggerClientReady runs the OnClientReady callbacks once per process;
// gateway reconnects fire Ready again.
var clientReadyOnce sync.Once

func TriggerClientReady(ctx context.Context, client *bot.Client) {
	clientReadyOnce.Do(func() {
		registryMu.RLock()
		cbs := append([]func(context.Context, *bot.Client){}, onClientReadyCallbacks...)
		registryMu.RUnlock()
		for _, cb := range cbs {
			cb(ctx, client)
		}
	})
}

func onApplicationCommandInteraction(event *events.ApplicationCommandInteractionCreate) {
	registryMu.RLock()
	h, ok := commandHandlers[event.Data.CommandName()]
	registryMu.RUnlock()
	if ok {
		SafeGo(func() { h(event) })
	}
}

func onMessageCreate(event *events.MessageCreate) {
	if isOwnMessage(event.Message, event.Client().ID()) {
		return
	}
	registryMu.RLock()
	hs := append([]func(*events.MessageCreate){}, messageHandlers...)
	registryMu.RUnlock()
	for _, h := range hs {
		SafeGo(func() { h(event) })
	}
}

func isOwnMessage(msg discord.Message, selfID snowflake.ID) bool {
	return msg.Author.ID == selfID
}

// --- Daemon System ---

type daemonEntry struct {
	starter func(ctx context.Context) (bool, func(), func())
	logger  func(format string, v ...any)
}

var registeredDaemons []daemonEntry
var activeShutdownHooks []func()
var activeShutdownMu sync.Mutex

// RegisterDaemon registers a background daemon with a logger and start function
func RegisterDaemon(logger func(format string, v ...any), starter func(ctx context.Context) (bool, func(), func())) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registeredDaemons = append(registeredDaemons, daemonEntry{starter: starter, logger: logger})
}

// StartDaemons starts all registered daemons with their individual colored logging
func StartDaemons(ctx context.Context) {
	daemonsOnce.Do(func() {
		type activeDaemon struct {
			entry daemonEntry
			run   func()
		}
		var active []activeDaemon

		registryMu.RLock()
		daemons := append([]daemonEntry(nil), registeredDaemons...)
		registryMu.RUnlock()

		// 1. Evaluate starters sequentially to determine active daemons
		for _, daemon := range daemons {
			if ok, run, shutdown := daemon.starter(ctx); ok && run != nil {
				if shutdown != nil {
					activeShutdownMu.Lock()
					activeShutdownHooks = append(activeShutdownHooks, shutdown)
					activeShutdownMu.Unlock()
				}
				active = append(active, activeDaemon{daemon, run})
			}
		}

		// 2. Log all "Starting..." messages sequentially
		for _, ad := range active {
			ad.entry.logger(MsgDaemonStarting)
		}

		// 3. Launch the actual daemon loops in parallel
		for _, ad := range active {
			SafeGo(ad.run)
		}
	})
}

// ShutdownDaemons gracefully stops all active daemons
func ShutdownDaemons(ctx context.Context) {
	activeShutdownMu.Lock()
	defer activeShutdownMu.Unlock()

	var wg sync.WaitGroup
	for _, shutdown := range activeShutdownHooks {
		if shutdown != nil {
			wg.Add(1)
			go func(s func()) {
				defer wg.Done()
				s()
			}(shutdown)
		}
	}
	wg.Wait()
}
