package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/hookyard/internal/config"
	"github.com/zulandar/hookyard/internal/dispatch"
	"github.com/zulandar/hookyard/internal/messaging"
	"github.com/zulandar/hookyard/internal/scheduler"
	"github.com/zulandar/hookyard/internal/settings"
	"github.com/zulandar/hookyard/internal/telegraph"
	"github.com/zulandar/hookyard/internal/telegraph/discord"
	"github.com/zulandar/hookyard/internal/telegraph/slack"
)

const notifyTitle = "Scheduled GitHub webhook"

func newScheduleCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run scheduled webhook triggers",
		Long: `Triggers registered repositories on the cron schedules in the config file
until interrupted. Outcomes are printed and sent to any configured notifiers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchedule(cmd, configPath)
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func runSchedule(cmd *cobra.Command, configPath string) error {
	cfg, gormDB, err := connectFromConfig(cmd, configPath)
	if err != nil {
		return err
	}
	if len(cfg.Schedules) == 0 {
		return fmt.Errorf("no schedules configured in %s", configPath)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink, err := buildNotifySink(ctx, cmd, cfg.Notify)
	if err != nil {
		return err
	}

	s, err := scheduler.New(scheduler.Opts{
		Store:      settings.NewGormStore(gormDB),
		Dispatcher: dispatch.New(dispatch.Opts{BaseURL: cfg.GitHub.APIURL}),
		Schedules:  cfg.Schedules,
		Sink:       sink,
		Out:        cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return s.Run(ctx)
}

// buildNotifySink fans trigger messages out to stdout and every notifier
// enabled in cfg.
func buildNotifySink(ctx context.Context, cmd *cobra.Command, cfg config.NotifyConfig) (messaging.Sink, error) {
	sinks := []messaging.Sink{messaging.WriterSink{W: cmd.OutOrStdout()}}
	if cfg.Command != "" {
		sinks = append(sinks, messaging.CommandSink{Command: cfg.Command})
	}

	var adapters []telegraph.Adapter
	if cfg.SlackWebhookURL != "" {
		a, err := slack.New(slack.AdapterOpts{WebhookURL: cfg.SlackWebhookURL})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	if cfg.DiscordWebhookID != "" {
		a, err := discord.New(discord.AdapterOpts{
			WebhookID:    cfg.DiscordWebhookID,
			WebhookToken: cfg.DiscordWebhookToken,
		})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	if len(adapters) > 0 {
		sinks = append(sinks, telegraph.Sink(ctx, notifyTitle, adapters...))
	}
	return messaging.Multi(sinks...), nil
}
