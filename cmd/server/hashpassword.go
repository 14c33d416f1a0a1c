package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Simplici0/quickestimate/internal/auth"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password <password>",
	Short: "Print an ADMIN_PASSWORD_HASH line for the given password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if args[0] == "" {
			return fmt.Errorf("password must not be empty")
		}
		hash, err := auth.HashPassword(args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "ADMIN_PASSWORD_HASH=%s\n", hash)
		return err
	},
}

func init() {
	rootCmd.AddCommand(hashPasswordCmd)
}
