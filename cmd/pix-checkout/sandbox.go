package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/illenko/pix-checkout/sandbox"
)

func sandboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Run a local fake of the Pix gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			addr, _ := cmd.Flags().GetString("addr")
			ttl, _ := cmd.Flags().GetDuration("token-ttl")

			clientID, clientSecret := cfg.ClientID, cfg.ClientSecret
			if clientID == "" {
				clientID = "sandbox"
			}
			if clientSecret == "" {
				clientSecret = "sandbox"
			}

			gin.SetMode(gin.ReleaseMode)
			gw := sandbox.New(clientID, clientSecret, ttl)
			return listen(cmd.Context(), addr, gw.Handler())
		},
	}

	cmd.Flags().String("addr", ":8082", "Listen address")
	cmd.Flags().Duration("token-ttl", time.Hour, "Lifetime of issued tokens")

	return cmd
}
