package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/illenko/pix-checkout/config"
	"github.com/illenko/pix-checkout/observability"
	"github.com/illenko/pix-checkout/service"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "pix-checkout",
		Short:         "Checkout proxy for the Pix payment gateway",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(sandboxCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(statusCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// loadConfig reads configuration and installs the default logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	observability.SetupLogging(os.Stdout, cfg.LogLevel)
	return cfg, nil
}

func newGateway(cfg *config.Config) (*service.Gateway, error) {
	if err := cfg.ValidateCredentials(); err != nil {
		return nil, err
	}
	client := service.NewHTTPClient(cfg.APIBaseURL)
	tokens := service.NewTokenProvider(client,
		service.Credentials{ClientID: cfg.ClientID, ClientSecret: cfg.ClientSecret},
		service.WithSafetyMargin(cfg.TokenSafetyMargin),
		service.WithFallbackTTL(cfg.TokenFallbackTTL),
		service.WithRefreshTimeout(cfg.UpstreamTimeout),
	)
	return service.NewGateway(client, tokens, cfg.UpstreamTimeout), nil
}

// startTelemetry is a no-op unless OTEL_ENABLED is set.
func startTelemetry(ctx context.Context, cfg *config.Config) func() {
	if !cfg.OTelEnabled {
		return func() {}
	}
	shutdown, err := observability.SetupOpenTelemetry(ctx, cfg.OTelServiceName)
	if err != nil {
		slog.ErrorContext(ctx, "error setting up OpenTelemetry", slog.Any("error", err))
	}
	if shutdown == nil {
		return func() {}
	}
	return func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			slog.ErrorContext(ctx, "error during telemetry shutdown", slog.Any("error", err))
		}
	}
}
