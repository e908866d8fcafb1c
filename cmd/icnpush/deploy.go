package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/islo-labs/icn-push/internal/config"
	"github.com/islo-labs/icn-push/internal/task"
)

func (a *app) deployCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "deploy [target...]",
		Short: "Push the built plugin jar to ICN targets",
		Long: `Finds the single jar under <working_dir>/target and pushes it to each named
target in order, stopping at the first failure. With no arguments every
target in the config file is deployed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := a.logger()
			if err != nil {
				return err
			}
			cfg, err := config.Load(a.configFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			targets, err := selectTargets(cfg, args)
			if err != nil {
				return err
			}

			r := &task.Runner{Logger: log}
			if creds, err := a.openCredentials(); err != nil {
				log.Warn("keyring unavailable, stored passwords will not be used", "error", err)
			} else {
				r.Credentials = creds
			}
			return r.RunAll(cmd.Context(), targets)
		},
	}
}

func selectTargets(cfg *config.Config, names []string) ([]config.Target, error) {
	if len(names) == 0 {
		if len(cfg.Targets) == 0 {
			return nil, errors.New("no targets defined in config")
		}
		return cfg.Targets, nil
	}
	targets := make([]config.Target, 0, len(names))
	for _, name := range names {
		t, err := cfg.Target(name)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}
