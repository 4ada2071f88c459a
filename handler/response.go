package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/illenko/pix-checkout/model"
	"github.com/illenko/pix-checkout/service"
)

const (
	msgCredentials     = "Credenciais da API inválidas. Verifique CLIENT_ID e CLIENT_SECRET."
	msgInvalidPayment  = "Dados do pagamento inválidos. Verifique o formato dos dados enviados."
	msgGatewayDown     = "Erro no servidor de pagamentos. Verifique suas credenciais da API ou tente novamente em alguns minutos."
	msgNotFound        = "Transação não encontrada."
	msgPaymentFailed   = "Não foi possível processar o pagamento. Tente novamente."
	msgLookupFailed    = "Não foi possível consultar o pagamento. Tente novamente."
	msgGatewayTimedOut = "O servidor de pagamentos demorou para responder. Tente novamente."
)

// failureMessage picks the user-facing text for a gateway failure from the
// typed error and its upstream status code.
func failureMessage(err error, fallback string) string {
	var authErr *service.AuthError
	if errors.As(err, &authErr) {
		return msgCredentials
	}

	var upErr *service.UpstreamError
	if errors.As(err, &upErr) {
		switch code := upErr.StatusCode; {
		case upErr.Unauthorized():
			return msgCredentials
		case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
			return msgInvalidPayment
		case code == http.StatusNotFound:
			return msgNotFound
		case code >= http.StatusInternalServerError:
			return msgGatewayDown
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return msgGatewayTimedOut
	}
	return fallback
}

func WriteSuccessResponse(c *gin.Context, data any) {
	c.JSON(http.StatusOK, model.Envelope{OK: true, Data: data})
}

func WriteValidationError(c *gin.Context, message string) {
	slog.InfoContext(c.Request.Context(), "Rejected checkout request",
		slog.String("request_id", RequestIDFrom(c)),
		slog.String("reason", message),
	)
	c.JSON(http.StatusBadRequest, model.Envelope{OK: false, Error: message})
}

// WriteErrorResponse logs err in full and answers with a generic message only.
func WriteErrorResponse(c *gin.Context, message string, err error) {
	slog.ErrorContext(c.Request.Context(), message,
		slog.String("request_id", RequestIDFrom(c)),
		slog.Int("upstream_status", service.StatusCode(err)),
		slog.Any("error", err),
	)
	c.JSON(http.StatusInternalServerError, model.Envelope{OK: false, Error: failureMessage(err, message)})
}
