package main

import (
	"flag"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/fintechbank/txwatch/internal/logger"
)

func main() {
	var (
		addr    = flag.String("addr", envOr("TXWATCH_DEV_ADDR", ":8000"), "Listen address")
		account = flag.String("seed-account", envOr("TXWATCH_ACCOUNT_ID", "user-1"), "Account id to seed transactions for")
		secret  = flag.String("jwt-secret", envOr("TXWATCH_JWT_SECRET", "dev-insecure-secret"), "HMAC secret for session tokens")
	)
	flag.Parse()

	log := logger.New()

	store := newMemStore()
	store.seed(*account)

	srv := &server{
		store:     store,
		jwtSecret: []byte(*secret),
		log:       log,
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(requestLogger(log), gin.Recovery())
	srv.setupRoutes(r)

	log.Info().
		Str("addr", *addr).
		Str("seed_account", *account).
		Msg("Starting dev gateway")

	if err := r.Run(*addr); err != nil {
		log.Fatal().Err(err).Msg("Server exited")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
