package handler

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/illenko/pix-checkout/model"
)

const msgIdentifierRequired = "Identificador da transação é obrigatório"

type TransactionFetcher interface {
	Transaction(ctx context.Context, identifier string) (model.TransactionResult, error)
}

type TransactionHandler struct {
	gateway TransactionFetcher
}

func NewTransactionHandler(gateway TransactionFetcher) *TransactionHandler {
	return &TransactionHandler{gateway: gateway}
}

// Transaction handles GET /api/transaction/:id. The upstream status is passed through untouched.
func (h *TransactionHandler) Transaction(c *gin.Context) {
	ctx := c.Request.Context()

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		WriteValidationError(c, msgIdentifierRequired)
		return
	}

	result, err := h.gateway.Transaction(ctx, id)
	if err != nil {
		WriteErrorResponse(c, msgLookupFailed, err)
		return
	}

	slog.DebugContext(ctx, "Transaction fetched",
		slog.String("request_id", RequestIDFrom(c)),
		slog.String("identifier", id),
		slog.String("status", result.Status()),
	)
	WriteSuccessResponse(c, result)
}
