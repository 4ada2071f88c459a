package handler

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/illenko/pix-checkout/config"
	"github.com/illenko/pix-checkout/model"
	"github.com/illenko/pix-checkout/service"
)

const (
	msgContactRequired = "E-mail e telefone são obrigatórios"
	msgInvalidAmount   = "Valor do pagamento inválido"
	msgInvalidBody     = "Dados do pedido inválidos"
)

var hundred = decimal.NewFromInt(100)

// OrderDefaults fills in whatever the landing page leaves out.
type OrderDefaults struct {
	// Amount is in the same units the handler is configured to accept.
	Amount      decimal.Decimal
	Description string
	Client      model.Client
}

// DefaultOrder is the single product sold by the landing page, priced in units.
func DefaultOrder(units config.AmountUnits) OrderDefaults {
	price := decimal.RequireFromString("29.90")
	if units == config.AmountMinor {
		price = price.Mul(hundred)
	}
	return OrderDefaults{
		Amount:      price,
		Description: "Missão 13º no Pix - Acesso Vitalício",
		Client: model.Client{
			Name:  "Cliente",
			CPF:   "00000000000",
			Email: "cliente@exemplo.com",
			Phone: "51999999999",
		},
	}
}

// Normalizer turns a submitted order into the cash-in body the gateway expects.
type Normalizer struct {
	Units      config.AmountUnits
	WebhookURL string
	Defaults   OrderDefaults
}

func (n Normalizer) Normalize(req model.PaymentRequest) (model.CashInRequest, error) {
	client := n.Defaults.Client
	if req.Client != nil {
		client = *req.Client
		client.Email = strings.TrimSpace(client.Email)
		client.Phone = strings.TrimSpace(client.Phone)
		if client.Email == "" || client.Phone == "" {
			return model.CashInRequest{}, &service.ValidationError{Message: msgContactRequired}
		}
		if strings.TrimSpace(client.Name) == "" {
			client.Name = n.Defaults.Client.Name
		}
		if strings.TrimSpace(client.CPF) == "" {
			client.CPF = n.Defaults.Client.CPF
		}
	}
	client.Phone = digitsOnly(client.Phone)
	client.CPF = digitsOnly(client.CPF)
	if client.Phone == "" {
		return model.CashInRequest{}, &service.ValidationError{Message: msgContactRequired}
	}

	amount := n.Defaults.Amount
	if req.Amount != nil {
		amount = *req.Amount
	}
	cents, err := n.toCents(amount)
	if err != nil {
		return model.CashInRequest{}, err
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = n.Defaults.Description
	}

	split := req.Split
	if split == nil {
		split = []json.RawMessage{}
	}

	return model.CashInRequest{
		Amount:      cents,
		Description: description,
		WebhookURL:  n.WebhookURL,
		Client:      client,
		Split:       split,
	}, nil
}

// toCents applies the configured unit policy: major amounts are reais and get
// rounded to the nearest centavo, minor amounts must already be whole centavos.
func (n Normalizer) toCents(amount decimal.Decimal) (int64, error) {
	if n.Units == config.AmountMajor {
		amount = amount.Mul(hundred).Round(0)
	} else if !amount.Equal(amount.Truncate(0)) {
		return 0, &service.ValidationError{Message: msgInvalidAmount}
	}
	if !amount.IsPositive() || !amount.BigInt().IsInt64() {
		return 0, &service.ValidationError{Message: msgInvalidAmount}
	}
	return amount.IntPart(), nil
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
