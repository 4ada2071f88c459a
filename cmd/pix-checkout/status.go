package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/illenko/pix-checkout/model"
	"github.com/illenko/pix-checkout/service"
)

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [identifier]",
		Short: "Look up a transaction, optionally polling until it is paid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			gateway, err := newGateway(cfg)
			if err != nil {
				return err
			}

			watch, _ := cmd.Flags().GetBool("watch")
			interval, _ := cmd.Flags().GetDuration("interval")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			ctx := cmd.Context()
			if !watch {
				result, err := gateway.Transaction(ctx, args[0])
				if err != nil {
					return err
				}
				return printTransaction(cmd.OutOrStdout(), result)
			}

			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			result, err := service.WaitForPayment(ctx, gateway, args[0], interval, func(r model.TransactionResult) {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s status=%q\n", time.Now().Format(time.TimeOnly), r.Status())
			})
			if err != nil {
				return err
			}
			return printTransaction(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().BoolP("watch", "w", false, "Poll until the transaction is paid")
	cmd.Flags().Duration("interval", service.DefaultPollInterval, "Polling interval with --watch")
	cmd.Flags().Duration("timeout", 30*time.Minute, "Give up polling after this long")

	return cmd
}

func printTransaction(w io.Writer, result model.TransactionResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
