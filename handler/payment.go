package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/illenko/pix-checkout/model"
	"github.com/illenko/pix-checkout/service"
)

type PaymentCreator interface {
	CreatePayment(ctx context.Context, req model.CashInRequest) (model.PaymentResult, error)
}

type PaymentHandler struct {
	gateway    PaymentCreator
	normalizer Normalizer
}

func NewPaymentHandler(gateway PaymentCreator, normalizer Normalizer) *PaymentHandler {
	return &PaymentHandler{gateway: gateway, normalizer: normalizer}
}

// CreatePayment handles POST /api/create-payment.
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	ctx := c.Request.Context()

	var req model.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.InfoContext(ctx, "Invalid checkout body", slog.Any("error", err))
		WriteValidationError(c, msgInvalidBody)
		return
	}

	cashIn, err := h.normalizer.Normalize(req)
	if err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			WriteValidationError(c, validationErr.Message)
			return
		}
		WriteErrorResponse(c, msgPaymentFailed, err)
		return
	}
	slog.InfoContext(ctx, "Creating payment",
		slog.String("request_id", RequestIDFrom(c)),
		slog.Any("payload", cashIn.Masked()),
	)

	result, err := h.gateway.CreatePayment(ctx, cashIn)
	if err != nil {
		WriteErrorResponse(c, msgPaymentFailed, err)
		return
	}

	summary := result.Summary()
	slog.InfoContext(ctx, "Payment created",
		slog.String("request_id", RequestIDFrom(c)),
		slog.String("identifier", summary.Identifier),
		slog.Bool("has_pix_code", summary.PixCode != ""),
		slog.Bool("has_qr_code", summary.QRBase64 != ""),
	)
	WriteSuccessResponse(c, result)
}
