// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/urfave/cli/v3"

	hub "github.com/streamhub/server"
	"github.com/streamhub/server/config"
	"github.com/streamhub/server/listeners"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
)

func main() {
	var (
		configPath string
		wsAddr     string
		eventsAddr string
		hcAddr     string
		adminToken string
		logLevel   string
	)

	app := &cli.Command{
		Name:    "streamhub",
		Usage:   "Multi-protocol publish/subscribe broker",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to a yaml or json config file",
				Sources:     cli.EnvVars("STREAMHUB_CONFIG"),
				Destination: &configPath,
			},
			&cli.StringFlag{
				Name:        "ws",
				Usage:       "websocket listener address",
				Sources:     cli.EnvVars("STREAMHUB_WS"),
				Value:       ":1882",
				Destination: &wsAddr,
			},
			&cli.StringFlag{
				Name:        "events",
				Usage:       "events http api listener address",
				Sources:     cli.EnvVars("STREAMHUB_EVENTS"),
				Value:       ":8080",
				Destination: &eventsAddr,
			},
			&cli.StringFlag{
				Name:        "healthcheck",
				Usage:       "healthcheck listener address (disabled if empty)",
				Sources:     cli.EnvVars("STREAMHUB_HEALTHCHECK"),
				Destination: &hcAddr,
			},
			&cli.StringFlag{
				Name:        "admin-token",
				Usage:       "platform credential for signing key provisioning",
				Sources:     cli.EnvVars("STREAMHUB_ADMIN_TOKEN"),
				Destination: &adminToken,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Sources:     cli.EnvVars("STREAMHUB_LOG_LEVEL"),
				Value:       "info",
				Destination: &logLevel,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts := new(hub.Options)

			if configPath != "" {
				data, err := os.ReadFile(configPath)
				if err != nil {
					return fmt.Errorf("read config: %w", err)
				}

				opts, err = config.FromBytes(data)
				if err != nil {
					return fmt.Errorf("parse config: %w", err)
				}
			} else {
				opts.Listeners = []listeners.Config{
					{Type: listeners.TypeWS, ID: "ws1", Address: wsAddr},
					{Type: listeners.TypeEvents, ID: "events1", Address: eventsAddr},
				}
				if hcAddr != "" {
					opts.Listeners = append(opts.Listeners, listeners.Config{
						Type: listeners.TypeHealthCheck, ID: "hc1", Address: hcAddr,
					})
				}
			}

			if adminToken != "" {
				opts.AdminToken = adminToken
			}

			opts.Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: parseLevel(logLevel),
			}))

			server := hub.New(opts)
			if err := server.Serve(); err != nil {
				return err
			}

			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

			select {
			case <-ctx.Done():
			case <-sigs:
			}

			server.Log.Warn("caught signal, stopping...")
			return server.Close()
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		slog.Default().Error(err.Error())
		os.Exit(1)
	}
}

// parseLevel maps a level name onto a slog level, defaulting to info.
func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
