package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/illenko/pix-checkout/config"
	"github.com/illenko/pix-checkout/handler"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the checkout proxy",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.HTTPAddr = addr
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (overrides HTTP_ADDR)")

	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	defer startTelemetry(ctx, cfg)()

	gateway, err := newGateway(cfg)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	normalizer := handler.Normalizer{
		Units:      cfg.AmountUnits,
		WebhookURL: cfg.WebhookURL,
		Defaults:   handler.DefaultOrder(cfg.AmountUnits),
	}
	router := handler.NewRouter(
		handler.NewPaymentHandler(gateway, normalizer),
		handler.NewTransactionHandler(gateway),
		handler.RouterConfig{ServiceName: cfg.OTelServiceName, AllowedOrigins: cfg.CORSAllowedOrigins},
	)

	return listen(ctx, cfg.HTTPAddr, router, slog.String("api_base_url", cfg.APIBaseURL), slog.String("amount_units", string(cfg.AmountUnits)))
}

// listen serves h on addr until ctx is cancelled, then drains in-flight requests.
func listen(ctx context.Context, addr string, h http.Handler, attrs ...any) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "Listening", append([]any{slog.String("addr", addr)}, attrs...)...)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.InfoContext(ctx, "Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
