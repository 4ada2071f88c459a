package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/illenko/pix-checkout/config"
	"github.com/illenko/pix-checkout/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockGateway implements PaymentCreator and TransactionFetcher for testing.
type MockGateway struct {
	CreatePaymentFunc func(ctx context.Context, req model.CashInRequest) (model.PaymentResult, error)
	TransactionFunc   func(ctx context.Context, identifier string) (model.TransactionResult, error)

	createCalls      int
	transactionCalls int
	lastCashIn       model.CashInRequest
	lastIdentifier   string
}

func (m *MockGateway) CreatePayment(ctx context.Context, req model.CashInRequest) (model.PaymentResult, error) {
	m.createCalls++
	m.lastCashIn = req
	if m.CreatePaymentFunc != nil {
		return m.CreatePaymentFunc(ctx, req)
	}
	return model.PaymentResult{Payload: model.NewPayload([]byte(`{"identifier":"tx-1"}`))}, nil
}

func (m *MockGateway) Transaction(ctx context.Context, identifier string) (model.TransactionResult, error) {
	m.transactionCalls++
	m.lastIdentifier = identifier
	if m.TransactionFunc != nil {
		return m.TransactionFunc(ctx, identifier)
	}
	return model.TransactionResult{Payload: model.NewPayload([]byte(`{"status":"pending"}`))}, nil
}

func setupRouter(gateway *MockGateway) http.Handler {
	normalizer := Normalizer{
		Units:      config.AmountMajor,
		WebhookURL: "https://example.com/hook",
		Defaults:   DefaultOrder(config.AmountMajor),
	}
	return NewRouter(
		NewPaymentHandler(gateway, normalizer),
		NewTransactionHandler(gateway),
		RouterConfig{ServiceName: "pix-checkout-test"},
	)
}

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") != "" && bytes.HasPrefix(w.Body.Bytes(), []byte("{")) {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}
