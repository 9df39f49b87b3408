package main // Entry point package

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"    // .env loading for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/loan-ledger/internal/config"
	"github.com/iliyamo/loan-ledger/internal/database"
	"github.com/iliyamo/loan-ledger/internal/handler"
	"github.com/iliyamo/loan-ledger/internal/queue"
	"github.com/iliyamo/loan-ledger/internal/repository"
	"github.com/iliyamo/loan-ledger/internal/router"
	queue_publisher "github.com/iliyamo/loan-ledger/internal/service"
)

func main() {
	// Load .env when present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database open failed: %v", err)
	}
	defer db.Close()

	// Redis backs OAuth state nonces; a nil client degrades to signed states.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; oauth state falls back to signed values")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	loans := repository.NewLoanRepo(db)
	states := repository.NewOAuthStateRepo(rdb, cfg.JWTSecret)

	authHandler := handler.NewAuthHandler(cfg, users, tokens)
	var oauthHandler *handler.OAuthHandler
	if cfg.DiscordEnabled() {
		oauthHandler = handler.NewOAuthHandler(cfg, users, states, authHandler)
	} else {
		log.Printf("discord oauth not configured; only local accounts available")
	}

	loanHandler := handler.NewLoanHandler(loans)
	if os.Getenv("RABBITMQ_URL") != "" || os.Getenv("AMQP_URL") != "" {
		loanHandler.Events = func(ctx context.Context, ev queue.LoanCreatedEvent) {
			_ = queue_publisher.PublishLoanCreated(ctx, ev) // best effort, logged inside
		}
		go func() {
			if err := queue.StartLoanAuditConsumer(); err != nil {
				log.Printf("loan-audit consumer stopped: %v", err)
			}
		}()
	}

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, oauthHandler, cfg.JWTSecret)
	router.RegisterLoans(e, loanHandler, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
