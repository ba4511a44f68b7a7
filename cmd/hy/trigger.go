package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/hookyard/internal/dispatch"
	"github.com/zulandar/hookyard/internal/messaging"
	"github.com/zulandar/hookyard/internal/settings"
)

func newTriggerCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "trigger <index>",
		Short: "Trigger the webhook of a registered repository",
		Long:  "Sends a repository_dispatch event for the repository at <index> (see `hy repo list`).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrigger(cmd, configPath, args[0])
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func runTrigger(cmd *cobra.Command, configPath, selected string) error {
	cfg, gormDB, err := connectFromConfig(cmd, configPath)
	if err != nil {
		return err
	}
	list, err := settings.LoadRepositories(cmd.Context(), settings.NewGormStore(gormDB))
	if err != nil {
		return err
	}

	d := dispatch.New(dispatch.Opts{BaseURL: cfg.GitHub.APIURL})
	res := d.Trigger(cmd.Context(), list, selected, messaging.WriterSink{W: cmd.OutOrStdout()})
	if !res.OK() {
		cmd.SilenceUsage = true
		return fmt.Errorf("trigger: %s", res.Kind)
	}
	return nil
}
