// The enclosure command runs the interactive control shell for the
// observatory enclosure's sensors and power relays.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/edaniels/golog"
	"github.com/urfave/cli/v2"
	goutils "go.viam.com/utils"

	"github.com/openobs/enclosure/board"
	"github.com/openobs/enclosure/config"
	"github.com/openobs/enclosure/messaging"
	"github.com/openobs/enclosure/shell"
	"github.com/openobs/enclosure/store"
)

// Version is set at link time.
var Version = "dev"

func main() {
	goutils.ContextualMain(mainWithArgs, golog.NewDevelopmentLogger("enclosure"))
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	app := &cli.App{
		Name:    "enclosure",
		Usage:   "control the observatory enclosure's sensors and power relays",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "/etc/enclosure.yaml",
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "simulate",
				Usage: "run with fabricated sensors instead of hardware",
			},
			&cli.StringFlag{
				Name:  "history-file",
				Usage: "command history `FILE`",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "shell",
				Usage: "run the interactive control shell (the default)",
				Action: func(c *cli.Context) error {
					return runShell(c.Context, c, logger)
				},
			},
			{
				Name:  "version",
				Usage: "print the version and exit",
				Action: func(c *cli.Context) error {
					fmt.Fprintln(c.App.Writer, c.App.Version)
					return nil
				},
			},
		},
		Action: func(c *cli.Context) error {
			return runShell(c.Context, c, logger)
		},
	}
	return app.RunContext(ctx, args)
}

func runShell(ctx context.Context, c *cli.Context, logger golog.Logger) error {
	if c.Bool("debug") {
		logger = golog.NewDebugLogger("enclosure")
	}

	cfg, err := config.Read(c.String("config"))
	if err != nil {
		return err
	}

	var st store.Store = store.NewMemory()
	if cfg.DB.URI != "" {
		mongoStore, err := store.NewMongo(ctx, cfg.DB, logger)
		if err != nil {
			return err
		}
		st = mongoStore
	} else {
		logger.Warn("no database configured; readings will not survive this session")
	}

	var pub messaging.Publisher = messaging.Noop{}
	if cfg.MQTT.Broker != "" {
		mqttPub, err := messaging.NewMQTT(cfg.MQTT, logger)
		if err != nil {
			return err
		}
		pub = mqttPub
	}

	conns := board.NewConns(logger)
	historyPath := c.String("history-file")
	if historyPath == "" && cfg.HistoryFile == "" {
		historyPath = shell.DefaultHistoryPath()
	}

	sh, err := shell.New(shell.Params{
		Config:      cfg,
		Conns:       conns,
		Relays:      board.NewRelays(conns, logger),
		Store:       st,
		Publisher:   pub,
		Logger:      logger,
		Out:         os.Stdout,
		Simulate:    c.Bool("simulate"),
		HistoryPath: historyPath,
	})
	if err != nil {
		return err
	}
	return sh.Run(ctx, os.Stdin)
}
