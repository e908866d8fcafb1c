package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (a *app) credentialsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage target passwords stored in the system keyring",
	}

	set := &cobra.Command{
		Use:   "set <target>",
		Short: "Store the password for a target, read from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("reading password: %w", err)
			}
			password := strings.TrimRight(line, "\r\n")
			if password == "" {
				return errors.New("password can't be empty")
			}
			store, err := a.openCredentials()
			if err != nil {
				return err
			}
			return store.Set(args[0], password)
		},
	}

	del := &cobra.Command{
		Use:   "delete <target>",
		Short: "Remove the stored password for a target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openCredentials()
			if err != nil {
				return err
			}
			return store.Delete(args[0])
		},
	}

	cmd.AddCommand(set, del)
	return cmd
}
