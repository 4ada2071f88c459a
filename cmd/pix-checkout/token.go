package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Exchange the configured credentials for a token and show its expiry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			gateway, err := newGateway(cfg)
			if err != nil {
				return err
			}

			if _, err := gateway.Tokens().Token(cmd.Context()); err != nil {
				return fmt.Errorf("token exchange failed: %w", err)
			}
			expiresAt, _ := gateway.Tokens().Expiry()
			fmt.Fprintf(cmd.OutOrStdout(), "token ok, expires at %s (in %s)\n",
				expiresAt.UTC().Format(time.RFC3339), time.Until(expiresAt).Round(time.Second))
			return nil
		},
	}
}
