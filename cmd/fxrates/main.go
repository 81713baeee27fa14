package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/Armin-kho/fx-crossrates/internal/app"
	"github.com/Armin-kho/fx-crossrates/internal/config"
	"github.com/Armin-kho/fx-crossrates/internal/notify"
)

const appVersion = "1.0.0"

func main() {
	cliApp := &cli.App{
		Name:    "fxrates",
		Usage:   "fetch reference rates, derive cross-rates, store them and notify operators",
		Version: appVersion,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   config.DefaultConfigPath(),
				Usage:   "path to config.json",
				EnvVars: []string{"FXR_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "perform one update (call this from the external scheduler)",
				Action: func(cCtx *cli.Context) error {
					cfg, err := config.Load(cCtx.String("config"))
					if err != nil {
						return fmt.Errorf("config error: %w", err)
					}
					n, err := app.NewNotifier(cfg)
					if err != nil {
						// Still run; the failure is reported through the log.
						log.Printf("notifier unavailable: %v", err)
						n = notify.Log{}
					}
					a, err := app.New(cfg, n)
					if err != nil {
						return fmt.Errorf("init error: %w", err)
					}
					defer a.Close()

					res := a.RunOnce(cCtx.Context)
					fmt.Fprintf(cCtx.App.Writer, "%d %s\n", res.StatusCode, res.Body)
					if !res.OK() {
						return cli.Exit("", 1)
					}
					return nil
				},
			},
			{
				Name:  "show",
				Usage: "print the stored rates record",
				Action: func(cCtx *cli.Context) error {
					a, err := openApp(cCtx)
					if err != nil {
						return err
					}
					defer a.Close()
					return a.Show(cCtx.Context, cCtx.App.Writer)
				},
			},
			{
				Name:  "backup",
				Usage: "write a consistent snapshot of the store",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "out",
						Usage:    "destination file (must not exist)",
						Required: true,
					},
				},
				Action: func(cCtx *cli.Context) error {
					a, err := openApp(cCtx)
					if err != nil {
						return err
					}
					defer a.Close()
					if err := a.Backup(cCtx.Context, cCtx.String("out")); err != nil {
						return fmt.Errorf("backup: %w", err)
					}
					log.Printf("Backup written to %s", cCtx.String("out"))
					return nil
				},
			},
		},
	}

	// Graceful stop
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cliApp.RunContext(ctx, os.Args); err != nil {
		log.Fatalf("%v", err)
	}
}

func openApp(cCtx *cli.Context) (*app.App, error) {
	cfg, err := config.Load(cCtx.String("config"))
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	a, err := app.New(cfg, notify.Log{})
	if err != nil {
		return nil, fmt.Errorf("init error: %w", err)
	}
	return a, nil
}
