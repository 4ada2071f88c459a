package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/illenko/pix-checkout/metrics"
)

type RouterConfig struct {
	ServiceName string
	// AllowedOrigins limits which sites may call the API from a browser. Empty allows any.
	AllowedOrigins []string
}

// NewRouter wires the checkout endpoints, health and metrics behind CORS.
func NewRouter(payments *PaymentHandler, transactions *TransactionHandler, cfg RouterConfig) http.Handler {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		otelgin.Middleware(cfg.ServiceName),
		RequestID(),
		AccessLog(),
	)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ok":      true,
			"service": cfg.ServiceName,
			"ts":      time.Now().UTC(),
		})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api")
	api.POST("/create-payment", payments.CreatePayment)
	api.GET("/transaction/:id", transactions.Transaction)

	return corsFor(cfg.AllowedOrigins).Handler(router)
}

func corsFor(origins []string) *cors.Cors {
	if len(origins) == 0 {
		return cors.AllowAll()
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	})
}
