package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/auth-api-nosql/internal/config"
	"github.com/auth-api-nosql/internal/infrastructure/dynamo"
	jwtinfra "github.com/auth-api-nosql/internal/infrastructure/jwt"
	"github.com/auth-api-nosql/internal/infrastructure/memory"
	"github.com/auth-api-nosql/internal/infrastructure/smtp"
	"github.com/auth-api-nosql/internal/infrastructure/sns"
	"github.com/auth-api-nosql/internal/pkg/otp"
	transporthttp "github.com/auth-api-nosql/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Token forgery resistance rests entirely on this key pair; refusing to
	// start without it beats issuing unverifiable sessions.
	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("JWT provider not available: %v", err)
	}

	deps := &transporthttp.Deps{
		Mailer:      smtp.NewMailer(cfg),
		Codes:       otp.NewGenerator(cfg.OTPTTL),
		JWTProvider: jwtProvider,
	}

	switch cfg.StoreBackend {
	case "memory":
		log.Println("WARN: using in-memory credential store; all accounts are lost on restart")
		store := memory.NewStore()
		deps.AccountRepo = store
		deps.VerificationRepo = store
	default:
		// Bootstrap DynamoDB tables (creates them if they don't exist).
		dynamoClient := dynamo.NewClient(cfg)
		dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)
		deps.AccountRepo = dynamo.NewAccountRepo(dynamoClient, cfg.DynamoTables.Accounts)
		deps.VerificationRepo = dynamo.NewVerificationRepo(dynamoClient, cfg.DynamoTables.Verifications)
	}

	// SNS SMS sender (optional — graceful fallback to email-only delivery).
	if sender, err := sns.NewSender(cfg); err == nil {
		deps.SMSSender = sender
	} else {
		log.Printf("WARN: SNS sender not available: %v", err)
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
