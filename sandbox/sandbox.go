// Package sandbox is a local stand-in for the Pix gateway. It speaks the same
// auth-token, cash-in and transaction endpoints so the proxy can be run and
// tested without real credentials.
package sandbox

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type authRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type cashInRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	WebhookURL  string `json:"webhook_url"`
	Client      struct {
		Name  string `json:"name"`
		CPF   string `json:"cpf"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	} `json:"client"`
}

type Transaction struct {
	Identifier  string    `json:"identifier"`
	Status      string    `json:"status"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description"`
	PixCode     string    `json:"pix_code"`
	CreatedAt   time.Time `json:"created_at"`
}

type Server struct {
	clientID     string
	clientSecret string
	tokenTTL     time.Duration

	authCalls atomic.Int64

	mu           sync.Mutex
	tokens       map[string]time.Time
	transactions map[string]*Transaction
}

func New(clientID, clientSecret string, tokenTTL time.Duration) *Server {
	return &Server{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenTTL:     tokenTTL,
		tokens:       make(map[string]time.Time),
		transactions: make(map[string]*Transaction),
	}
}

// Handler returns the gin engine serving the gateway routes.
func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api/partner/v1")
	api.POST("/auth-token", s.authToken)
	api.POST("/cash-in", s.requireBearer, s.cashIn)
	api.GET("/transaction/:id", s.requireBearer, s.transaction)

	router.POST("/sandbox/transaction/:id/pay", s.pay)
	return router
}

// AuthCalls is how many credential exchanges have been served.
func (s *Server) AuthCalls() int64 {
	return s.authCalls.Load()
}

// MarkPaid flips a pending transaction to paid.
func (s *Server) MarkPaid(identifier string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[identifier]
	if !ok {
		return false
	}
	tx.Status = "paid"
	return true
}

// RevokeTokens forgets every issued token, as if they all expired upstream.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]time.Time)
}

func (s *Server) authToken(c *gin.Context) {
	s.authCalls.Add(1)

	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request"})
		return
	}
	if req.ClientID != s.clientID || req.ClientSecret != s.clientSecret {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid client credentials"})
		return
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = time.Now().Add(s.tokenTTL)
	s.mu.Unlock()

	slog.InfoContext(c.Request.Context(), "Sandbox token issued")
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int64(s.tokenTTL / time.Second),
	})
}

func (s *Server) requireBearer(c *gin.Context) {
	token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token"})
		return
	}
	s.mu.Lock()
	expiresAt, known := s.tokens[token]
	s.mu.Unlock()
	if !known || time.Now().After(expiresAt) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid or expired token"})
		return
	}
	c.Next()
}

func (s *Server) cashIn(c *gin.Context) {
	var req cashInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request"})
		return
	}
	if req.Amount <= 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "amount must be a positive number of cents"})
		return
	}
	if req.Client.Email == "" || req.Client.Phone == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "client email and phone are required"})
		return
	}

	id := uuid.NewString()
	pixCode := fmt.Sprintf("00020126580014br.gov.bcb.pix0136%s5204000053039865404%d5802BR", id, req.Amount)
	tx := &Transaction{
		Identifier:  id,
		Status:      "pending",
		Amount:      req.Amount,
		Description: req.Description,
		PixCode:     pixCode,
		CreatedAt:   time.Now().UTC(),
	}
	s.mu.Lock()
	s.transactions[id] = tx
	s.mu.Unlock()

	slog.InfoContext(c.Request.Context(), "Sandbox cash-in created", slog.String("identifier", id), slog.Int64("amount", req.Amount))
	c.JSON(http.StatusOK, gin.H{
		"identifier":     id,
		"status":         tx.Status,
		"pix_code":       pixCode,
		"qr_code_base64": base64.StdEncoding.EncodeToString([]byte(pixCode)),
	})
}

func (s *Server) transaction(c *gin.Context) {
	s.mu.Lock()
	tx, ok := s.transactions[c.Param("id")]
	var snapshot Transaction
	if ok {
		snapshot = *tx
	}
	s.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "transaction not found"})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (s *Server) pay(c *gin.Context) {
	if !s.MarkPaid(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"message": "transaction not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"identifier": c.Param("id"), "status": "paid"})
}
