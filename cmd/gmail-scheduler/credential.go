package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hal9000y/gmail-scheduler/internal/config"
	"github.com/hal9000y/gmail-scheduler/internal/credential"
	"github.com/hal9000y/gmail-scheduler/internal/display"
)

var credentialCmd = &cobra.Command{
	Use:   "credential",
	Short: "Manage secrets stored in the OS keyring",
	Long: fmt.Sprintf("Keys: %s. Environment variables %s and %s take precedence.",
		strings.Join(credential.Keys(), ", "),
		credential.EnvName(credential.GeminiAPIKey),
		credential.EnvName(credential.OAuthClientSecret)),
}

var credentialSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Store a secret; reads the value from stdin when omitted",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(_ *cobra.Command, args []string) error {
		value := ""
		if len(args) == 2 {
			value = args[1]
		} else {
			fmt.Fprintf(os.Stderr, "%s: ", args[0])
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("reading value: %w", err)
			}
			value = strings.TrimSpace(line)
		}

		if err := credential.New(config.Dir()).Set(args[0], value); err != nil {
			return err
		}
		display.SuccessMsg(os.Stdout, "stored %s", args[0])
		return nil
	},
}

var credentialDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Remove a secret from the keyring",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		if err := credential.New(config.Dir()).Delete(args[0]); err != nil {
			return err
		}
		display.SuccessMsg(os.Stdout, "deleted %s", args[0])
		return nil
	},
}

func init() {
	credentialCmd.AddCommand(credentialSetCmd, credentialDeleteCmd)
}
