package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/illenko/pix-checkout/metrics"
	"github.com/illenko/pix-checkout/model"
)

const (
	cashInPath      = "/api/partner/v1/cash-in"
	transactionPath = "/api/partner/v1/transaction/"

	OpCashIn      = "cash-in"
	OpTransaction = "transaction"
)

var tracer = otel.Tracer("github.com/illenko/pix-checkout/service")

// NewHTTPClient returns a resty client for the gateway at baseURL with
// tracing on the transport. Calls are bounded through their context, so a
// timeout surfaces as context.DeadlineExceeded.
func NewHTTPClient(baseURL string) *resty.Client {
	return resty.NewWithClient(&http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}).
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json")
}

// Gateway talks to the Pix gateway's cash-in and transaction endpoints.
type Gateway struct {
	client  *resty.Client
	tokens  *TokenProvider
	timeout time.Duration
}

// NewGateway bounds each cash-in and lookup call by timeout. Zero means the
// caller's context is the only bound.
func NewGateway(client *resty.Client, tokens *TokenProvider, timeout time.Duration) *Gateway {
	return &Gateway{client: client, tokens: tokens, timeout: timeout}
}

func (g *Gateway) Tokens() *TokenProvider {
	return g.tokens
}

// CreatePayment opens a cash-in. Amount in req must already be in centavos.
func (g *Gateway) CreatePayment(ctx context.Context, req model.CashInRequest) (model.PaymentResult, error) {
	payload, err := g.do(ctx, OpCashIn, http.MethodPost, cashInPath, req)
	if err != nil {
		return model.PaymentResult{}, err
	}
	return model.PaymentResult{Payload: payload}, nil
}

// Transaction fetches the current state of a cash-in by its gateway identifier.
func (g *Gateway) Transaction(ctx context.Context, identifier string) (model.TransactionResult, error) {
	payload, err := g.do(ctx, OpTransaction, http.MethodGet, transactionPath+url.PathEscape(identifier), nil)
	if err != nil {
		return model.TransactionResult{}, err
	}
	return model.TransactionResult{Payload: payload}, nil
}

// do runs one authenticated call. Bodies that are not JSON come back wrapped
// as {"raw": ...}; any non-2xx status is an *UpstreamError on every path.
func (g *Gateway) do(ctx context.Context, op, method, path string, body any) (model.Payload, error) {
	ctx, span := tracer.Start(ctx, "Gateway."+op, trace.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("pix.operation", op),
	))
	defer span.End()

	token, err := g.tokens.Token(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "token unavailable")
		return model.Payload{}, err
	}

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	req := g.client.R().
		SetContext(callCtx).
		SetAuthToken(token)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	slog.InfoContext(ctx, "Gateway call started", slog.String("op", op), slog.String("path", path))
	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		metrics.ObserveUpstream(op, 0, time.Since(start).Seconds())
		span.SetStatus(codes.Error, "request failed")
		return model.Payload{}, &UpstreamError{Op: op, Err: fmt.Errorf("failed to call %s: %w", path, err)}
	}
	metrics.ObserveUpstream(op, resp.StatusCode(), time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode()))
	slog.InfoContext(ctx, "Gateway call completed", slog.String("op", op), slog.Int("status", resp.StatusCode()))

	if !resp.IsSuccess() {
		if resp.StatusCode() == http.StatusUnauthorized {
			g.tokens.Invalidate(token)
		}
		span.SetStatus(codes.Error, resp.Status())
		slog.WarnContext(ctx, "Gateway returned an error",
			slog.String("op", op),
			slog.Int("status", resp.StatusCode()),
			slog.String("body", resp.String()),
		)
		return model.Payload{}, &UpstreamError{Op: op, StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	payload := model.NewPayload(resp.Body())
	if payload.IsRaw() {
		slog.WarnContext(ctx, "Gateway response was not JSON", slog.String("op", op))
	}
	return payload, nil
}
