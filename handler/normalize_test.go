package handler

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illenko/pix-checkout/config"
	"github.com/illenko/pix-checkout/model"
	"github.com/illenko/pix-checkout/service"
)

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func majorNormalizer() Normalizer {
	return Normalizer{Units: config.AmountMajor, WebhookURL: "https://example.com/hook", Defaults: DefaultOrder(config.AmountMajor)}
}

func TestNormalize_ScenarioFromLandingPage(t *testing.T) {
	got, err := majorNormalizer().Normalize(model.PaymentRequest{
		Amount: amount("29.9"),
		Client: &model.Client{Email: "a@b.com", Phone: "(51) 99999-9999"},
	})

	require.NoError(t, err)
	assert.EqualValues(t, 2990, got.Amount)
	assert.Equal(t, "5199999999", got.Client.Phone)
	assert.Equal(t, "a@b.com", got.Client.Email)
	assert.Equal(t, "Cliente", got.Client.Name)
	assert.Equal(t, "00000000000", got.Client.CPF)
	assert.Equal(t, "Missão 13º no Pix - Acesso Vitalício", got.Description)
	assert.Equal(t, "https://example.com/hook", got.WebhookURL)
	assert.NotNil(t, got.Split)
	assert.Empty(t, got.Split)
}

func TestNormalize_Defaults(t *testing.T) {
	got, err := majorNormalizer().Normalize(model.PaymentRequest{})

	require.NoError(t, err)
	assert.EqualValues(t, 2990, got.Amount)
	assert.Equal(t, DefaultOrder(config.AmountMajor).Client, got.Client)
}

func TestNormalize_Amounts(t *testing.T) {
	tests := []struct {
		name    string
		units   config.AmountUnits
		amount  string
		want    int64
		invalid bool
	}{
		{name: "major rounds to centavos", units: config.AmountMajor, amount: "19.999", want: 2000},
		{name: "major float drift", units: config.AmountMajor, amount: "0.29", want: 29},
		{name: "major whole reais", units: config.AmountMajor, amount: "50", want: 5000},
		{name: "major zero", units: config.AmountMajor, amount: "0", invalid: true},
		{name: "major negative", units: config.AmountMajor, amount: "-1.50", invalid: true},
		{name: "minor pass-through", units: config.AmountMinor, amount: "2990", want: 2990},
		{name: "minor fractional", units: config.AmountMinor, amount: "29.9", invalid: true},
		{name: "minor zero", units: config.AmountMinor, amount: "0", invalid: true},
		{name: "major largest representable", units: config.AmountMajor, amount: "92233720368547758.07", want: 9223372036854775807},
		{name: "major past int64", units: config.AmountMajor, amount: "92233720368547758.08", invalid: true},
		{name: "major wraps to negative", units: config.AmountMajor, amount: "1e17", invalid: true},
		{name: "major wraps to positive", units: config.AmountMajor, amount: "1e20", invalid: true},
		{name: "major wraps to one centavo", units: config.AmountMajor, amount: "184467440737095516.17", invalid: true},
		{name: "minor past int64", units: config.AmountMinor, amount: "9223372036854775808", invalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Normalizer{Units: tt.units, Defaults: DefaultOrder(tt.units)}
			got, err := n.Normalize(model.PaymentRequest{Amount: amount(tt.amount)})
			if tt.invalid {
				var validationErr *service.ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Equal(t, msgInvalidAmount, validationErr.Message)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Amount)
		})
	}
}

func TestNormalize_MinorDefaultPrice(t *testing.T) {
	n := Normalizer{Units: config.AmountMinor, Defaults: DefaultOrder(config.AmountMinor)}
	got, err := n.Normalize(model.PaymentRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 2990, got.Amount)
}

func TestNormalize_RequiresEmailAndPhone(t *testing.T) {
	clients := map[string]model.Client{
		"no email":             {Phone: "51999999999"},
		"no phone":             {Email: "a@b.com"},
		"blank email":          {Email: "   ", Phone: "51999999999"},
		"phone with no digits": {Email: "a@b.com", Phone: "(--)"},
	}
	for name, client := range clients {
		t.Run(name, func(t *testing.T) {
			_, err := majorNormalizer().Normalize(model.PaymentRequest{Client: &client})
			var validationErr *service.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, msgContactRequired, validationErr.Message)
		})
	}
}

func TestNormalize_BlankDescriptionTakesDefault(t *testing.T) {
	for _, description := range []string{"", "   "} {
		got, err := majorNormalizer().Normalize(model.PaymentRequest{Description: description})
		require.NoError(t, err)
		assert.Equal(t, DefaultOrder(config.AmountMajor).Description, got.Description)
	}
}

func TestNormalize_KeepsSplitAndDescription(t *testing.T) {
	split := []json.RawMessage{json.RawMessage(`{"user_id":"u1","percentage":10}`)}
	got, err := majorNormalizer().Normalize(model.PaymentRequest{
		Description: "  Ebook  ",
		Client:      &model.Client{Name: "Ana", CPF: "123.456.789-00", Email: "a@b.com", Phone: "51 9 8888 7777"},
		Split:       split,
	})

	require.NoError(t, err)
	assert.Equal(t, "Ebook", got.Description)
	assert.Equal(t, split, got.Split)
	assert.Equal(t, "Ana", got.Client.Name)
	assert.Equal(t, "12345678900", got.Client.CPF)
	assert.Equal(t, "51988887777", got.Client.Phone)
}
