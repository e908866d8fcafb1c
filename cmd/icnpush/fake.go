package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/islo-labs/icn-push/internal/config"
	"github.com/islo-labs/icn-push/internal/engine"
)

func (a *app) fakeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fake",
		Short: "Run the fake ICN servers declared in the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := a.logger()
			if err != nil {
				return err
			}
			cfg, err := config.Load(a.configFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if len(cfg.Services) == 0 {
				return fmt.Errorf("no services defined in %s", a.configFile)
			}
			eng, err := engine.New(cfg, log.Named("fake"))
			if err != nil {
				return err
			}
			log.Info("starting fake servers", "count", len(cfg.Services))
			return eng.Run(cmd.Context())
		},
	}
}
