package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/illenko/pix-checkout/model"
)

// DefaultPollInterval matches how often the checkout page re-checks a pending payment.
const DefaultPollInterval = 5 * time.Second

type TransactionFetcher interface {
	Transaction(ctx context.Context, identifier string) (model.TransactionResult, error)
}

// WaitForPayment polls a transaction every interval until its status is paid
// or ctx ends. Lookup failures are logged and retried on the next tick,
// except credential failures, which are returned immediately.
func WaitForPayment(ctx context.Context, gateway TransactionFetcher, identifier string, interval time.Duration, onPoll func(model.TransactionResult)) (model.TransactionResult, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	for {
		result, err := gateway.Transaction(ctx, identifier)
		switch {
		case err == nil:
			lastErr = nil
			if onPoll != nil {
				onPoll(result)
			}
			if result.Paid() {
				return result, nil
			}
		case isAuthError(err):
			return model.TransactionResult{}, err
		default:
			lastErr = err
			slog.WarnContext(ctx, "Error checking payment", slog.String("identifier", identifier), slog.Any("error", err))
		}

		select {
		case <-ctx.Done():
			if lastErr != nil {
				return model.TransactionResult{}, fmt.Errorf("stopped waiting for %s: %w", identifier, errors.Join(ctx.Err(), lastErr))
			}
			return model.TransactionResult{}, fmt.Errorf("stopped waiting for %s: %w", identifier, ctx.Err())
		case <-ticker.C:
		}
	}
}

func isAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}
