package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// server bundles the seeded store with the HTTP surface. Error payloads
// use a {"detail": ...} envelope, matching what the production gateway
// returns.
type server struct {
	store     *memStore
	jwtSecret []byte
	log       zerolog.Logger
}

func (s *server) setupRoutes(r *gin.Engine) {
	r.POST("/api/v1/auth/login", s.loginHandler)

	api := r.Group("/api/v1")
	api.Use(s.jwtAuthMiddleware())
	api.GET("/user/transactions/:userId", s.listTransactionsHandler)
	api.PUT("/transaction/review/:txId", s.reviewHandler)
	api.POST("/user/transaction/:txId/authenticate", s.authenticateHandler)
}

// requestLogger is the zerolog access log middleware.
func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("remote_addr", c.ClientIP()).
			Msg("HTTP request")
	}
}

func (s *server) jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return s.jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "invalid token"})
			return
		}
		c.Next()
	}
}

func (s *server) loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	// Dev backend accepts any credentials; the token carries the username
	// so logs are attributable.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": req.Username,
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": tokenString})
}

func (s *server) listTransactionsHandler(c *gin.Context) {
	userID := c.Param("userId")
	c.JSON(http.StatusOK, s.store.listForUser(userID))
}

func (s *server) reviewHandler(c *gin.Context) {
	txID := c.Param("txId")

	var req struct {
		Decision       string `json:"decision" binding:"required"`
		AnalystComment string `json:"analyst_comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if req.Decision != "APPROVED" && req.Decision != "REJECTED" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "decision must be APPROVED or REJECTED"})
		return
	}

	analystID := c.GetHeader("X-Analyst-ID")
	if analystID == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "X-Analyst-ID header is required"})
		return
	}

	err := s.store.review(txID, req.Decision, req.AnalystComment, analystID)
	switch {
	case errors.Is(err, errNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "transaction not found"})
	case errors.Is(err, errAlreadyReviewed):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "transaction has already been reviewed"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
	default:
		s.log.Info().
			Str("tx_id", txID).
			Str("decision", req.Decision).
			Str("analyst_id", analystID).
			Msg("Transaction reviewed")
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func (s *server) authenticateHandler(c *gin.Context) {
	txID := c.Param("txId")

	var req struct {
		Confirmed *bool `json:"confirmed" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	err := s.store.authenticate(txID, *req.Confirmed)
	switch {
	case errors.Is(err, errNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "transaction not found"})
	case errors.Is(err, errNotSuspicious):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "transaction is not under review"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
	default:
		s.log.Info().
			Str("tx_id", txID).
			Bool("confirmed", *req.Confirmed).
			Msg("Account holder answered verification")
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
