// Command rentauthd serves the authentication API of the bike rental
// platform. Configuration comes from the environment, optionally seeded
// from a .env file.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	rentauth "github.com/raananp/bike-rent-docer-v3-sub000"
	"github.com/raananp/bike-rent-docer-v3-sub000/httpapi"
	"github.com/raananp/bike-rent-docer-v3-sub000/mail"
	"github.com/raananp/bike-rent-docer-v3-sub000/store"
)

func main() {
	_ = godotenv.Load()

	log, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Fatal("rentauthd exited", zap.Error(err))
	}
}

func run(log *zap.Logger) error {
	cfg := rentauth.DefaultConfig()
	cfg.Token.Issuer = envOr("TOKEN_ISSUER", cfg.Token.Issuer)
	cfg.Token.AccessSecret = []byte(os.Getenv("ACCESS_TOKEN_SECRET"))
	cfg.Token.RefreshSecret = []byte(os.Getenv("REFRESH_TOKEN_SECRET"))
	cfg.Token.MFASecret = []byte(os.Getenv("MFA_TOKEN_SECRET"))
	cfg.Verification.LinkBase = envOr("VERIFY_LINK_BASE", "http://localhost:8080/api/auth/verify-email")
	cfg.TOTP.Issuer = envOr("TOTP_ISSUER", cfg.TOTP.Issuer)
	cfg.Audit.Enabled = os.Getenv("AUDIT_ENABLED") == "true"

	db, err := store.OpenSQLite(envOr("DB_PATH", "rentauth.db"))
	if err != nil {
		return err
	}
	accounts, err := store.NewAccounts(db)
	if err != nil {
		return err
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     envOr("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		return err
	}
	verifications, err := store.NewVerifications(redisClient)
	if err != nil {
		return err
	}

	var mailer rentauth.Mailer
	if os.Getenv("SMTP_HOST") != "" {
		mailer, err = mail.NewSMTP(mail.SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     envOr("SMTP_PORT", "587"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
		})
		if err != nil {
			return err
		}
	} else {
		log.Warn("SMTP_HOST not set, logging verification links instead of mailing them")
		mailer = mail.NewLogMailer(log)
	}

	engine, err := rentauth.New().
		WithConfig(cfg).
		WithAccountStore(accounts).
		WithVerificationStore(verifications).
		WithMailer(mailer).
		WithAuditSink(rentauth.NewZapSink(log)).
		WithLogger(log).
		Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	cookies := httpapi.NewCookieManager(httpapi.CookieConfig{
		Domain: os.Getenv("COOKIE_DOMAIN"),
		Secure: os.Getenv("COOKIE_SECURE") == "true",
		MaxAge: cfg.Token.RefreshTTL,
	})

	server, err := httpapi.NewServer(engine, cookies, log)
	if err != nil {
		return err
	}

	addr := ":" + envOr("PORT", "8080")
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr))
		errCh <- httpServer.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-stop:
		log.Info("shutting down", zap.String("signal", sig.String()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}

	return nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
