package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"emperror.dev/errors"
	_ "github.com/leeineian/qotd/home"
	_ "github.com/leeineian/qotd/proc"
	"github.com/leeineian/qotd/sys"
	"github.com/urfave/cli/v2"
)

var app = &cli.App{
	Name:  "qotd",
	Usage: "Quote of the day and song of the day for a Discord server",

	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "silent", Usage: "Disable all log output"},
		&cli.BoolFlag{Name: "log-file", Usage: "Also write logs to <name>.log"},
	},
	Before: func(c *cli.Context) error {
		sys.InitLogger(c.Bool("silent"), c.Bool("log-file"))
		return nil
	},
	Action: runBot,

	Commands: []*cli.Command{
		{
			Name:   "run",
			Usage:  "Run the bot (default)",
			Action: runBot,
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "skip-reg", Usage: "Skip slash command registration"},
				&cli.BoolFlag{Name: "force-reg", Usage: "Register slash commands even if unchanged"},
			},
		},
		cardCommand,
		nextCommand,
		historyCommand,
	},
}

func main() {
	// LogFatal panics so that deferred cleanup runs first.
	defer func() {
		if r := recover(); r != nil {
			if msg, ok := r.(string); ok {
				fmt.Fprintf(os.Stderr, "\n[FATAL] %s\n", msg)
				os.Exit(1)
			}
			panic(r)
		}
	}()

	if err := app.Run(os.Args); err != nil {
		sys.LogFatal(sys.MsgGenericError, err)
	}
}

func runBot(c *cli.Context) error {
	cfg, err := sys.LoadConfig()
	if err != nil {
		sys.LogFatal(sys.MsgConfigFailedToLoad, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()
	sys.SetAppContext(ctx)

	if err := sys.InitDatabase(ctx, cfg.DatabasePath); err != nil {
		return errors.Wrap(err, "initializing database")
	}
	defer sys.CloseDatabase()

	sys.LogInfo(sys.MsgBotStarting, sys.GetProjectName())

	client, err := sys.CreateClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close(context.Background())

	if !c.Bool("skip-reg") {
		if err := sys.RegisterCommands(ctx, client, cfg.GuildID, c.Bool("force-reg")); err != nil {
			sys.LogError(sys.MsgBotRegisterFail, err)
		}
	}

	if err := client.OpenGateway(ctx); err != nil {
		return errors.Wrap(err, "failed to open gateway")
	}

	<-ctx.Done()
	if !c.Bool("silent") {
		fmt.Println()
	}

	sys.LogInfo("Shutting down all daemons...")
	sys.ShutdownDaemons(context.Background())

	if botUser, ok := client.Caches.SelfUser(); ok {
		sys.LogInfo(sys.MsgBotShutdown, botUser.Username)
	} else {
		sys.LogInfo(sys.MsgBotShutdown, sys.GetProjectName())
	}
	return nil
}
