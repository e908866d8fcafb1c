// Command icnpush deploys IBM Content Navigator plugin jars.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/islo-labs/icn-push/internal/credential"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	a := &app{
		stdin:           os.Stdin,
		stderr:          os.Stderr,
		openCredentials: openKeyring,
	}
	return a.rootCommand().ExecuteContext(ctx)
}

// app holds the state shared by all subcommands.
type app struct {
	configFile string
	logLevel   string

	stdin           io.Reader
	stderr          io.Writer
	openCredentials func() (*credential.Store, error)
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "icnpush",
		Short: "Deploy plugin jars to IBM Content Navigator",
		Long: `icnpush uploads the jar produced by a build to one or more IBM Content
Navigator servers: it logs on, reloads the plugin from the server file system
and saves the plugin configuration.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.SetIn(a.stdin)
	root.SetErr(a.stderr)
	root.PersistentFlags().StringVar(&a.configFile, "config", "icnpush.hcl", "path to config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")

	root.AddCommand(a.deployCommand(), a.fakeCommand(), a.credentialsCommand())
	return root
}

func (a *app) logger() (hclog.Logger, error) {
	level := hclog.LevelFromString(a.logLevel)
	if level == hclog.NoLevel {
		return nil, fmt.Errorf("invalid log level %q", a.logLevel)
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "icnpush",
		Level:  level,
		Output: a.stderr,
	}), nil
}

func openKeyring() (*credential.Store, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("locating config directory: %w", err)
	}
	return credential.Open(filepath.Join(dir, "icnpush", "credentials"))
}
