package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// PaymentRequest is the order the landing page submits.
type PaymentRequest struct {
	Amount      *decimal.Decimal  `json:"amount,omitempty"`
	Description string            `json:"description,omitempty"`
	Client      *Client           `json:"client,omitempty"`
	Split       []json.RawMessage `json:"split,omitempty"`
}

type Client struct {
	Name  string `json:"name"`
	CPF   string `json:"cpf"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// CashInRequest is the normalized body sent to the gateway cash-in endpoint.
// Amount is always in centavos.
type CashInRequest struct {
	Amount      int64             `json:"amount"`
	Description string            `json:"description"`
	WebhookURL  string            `json:"webhook_url"`
	Client      Client            `json:"client"`
	Split       []json.RawMessage `json:"split"`
}

// Masked returns a copy that is safe to log.
func (r CashInRequest) Masked() CashInRequest {
	r.Client.CPF = "***"
	return r
}

// PaymentResult is the opaque gateway response to a cash-in.
type PaymentResult struct {
	Payload
}

// PaymentSummary holds the fields the checkout page renders, when the gateway sends them.
type PaymentSummary struct {
	Identifier string `json:"identifier,omitempty"`
	PixCode    string `json:"pix_code,omitempty"`
	QRBase64   string `json:"qr_code_base64,omitempty"`
}

func (r PaymentResult) Summary() PaymentSummary {
	return PaymentSummary{
		Identifier: r.firstString("identifier", "id"),
		PixCode:    r.firstString("pix_code", "paymentCode", "payment_code", "pixCode"),
		QRBase64:   r.firstString("qr_code_base64", "qrCodeBase64", "qr_code", "qrCode"),
	}
}

// TransactionResult is the opaque gateway response to a status lookup.
type TransactionResult struct {
	Payload
}

const StatusPaid = "paid"

func (r TransactionResult) Status() string {
	return r.firstString("status")
}

func (r TransactionResult) Paid() bool {
	return r.Status() == StatusPaid
}
