package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/octobees/personalizer/internal/config"
	"github.com/octobees/personalizer/internal/database"
	"github.com/octobees/personalizer/internal/handler"
	"github.com/octobees/personalizer/internal/mailer"
	"github.com/octobees/personalizer/internal/otp"
	"github.com/octobees/personalizer/internal/prompt"
	"github.com/octobees/personalizer/internal/repository"
	"github.com/octobees/personalizer/internal/router"
	"github.com/octobees/personalizer/internal/service"
	"github.com/octobees/personalizer/internal/store"
	"github.com/octobees/personalizer/internal/store/mongostore"
	"github.com/octobees/personalizer/internal/store/pgstore"
	"github.com/octobees/personalizer/internal/store/sqlitestore"
	"github.com/octobees/personalizer/pkg/llm"
	"github.com/octobees/personalizer/pkg/reversecontact"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = zap.L().Sync() }()

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	docs := store.NewLazy(openStore(cfg.Store))

	builder, err := prompt.NewBuilder(cfg.PromptVersion)
	if err != nil {
		zap.L().Fatal("failed to load prompt", zap.Error(err))
	}

	generator, err := newGenerator(rootCtx, cfg)
	if err != nil {
		zap.L().Fatal("failed to create llm client", zap.Error(err))
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	enrichment := reversecontact.NewClient(cfg.ReverseContactAPIKey,
		reversecontact.WithBaseURL(cfg.ReverseContactBaseURL),
		reversecontact.WithHTTPClient(httpClient),
	)

	contactsRepo := repository.NewDocumentContactsRepository(docs)
	pitchesRepo := repository.NewDocumentPitchesRepository(docs)

	personalizeService := service.NewPersonalizeService(service.PersonalizeDeps{
		Pitches:   pitchesRepo,
		Contacts:  contactsRepo,
		Client:    enrichment,
		Generator: generator,
		Builder:   builder,
		Mode:      prompt.Mode(cfg.GenerationMode),
	})
	enrichmentService := service.NewEnrichmentService(enrichment, contactsRepo)

	codes := otp.NewMemoryStore()
	go codes.RunSweeper(rootCtx, time.Minute)
	otpService := service.NewOTPService(codes, newMailer(cfg.SMTP), cfg.OTPTTL)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	router.Register(e, cfg, router.Handlers{
		Personalize: handler.NewPersonalizeHandler(personalizeService),
		Enrichment:  handler.NewEnrichmentHandler(enrichmentService),
		OTP:         handler.NewOTPHandler(otpService),
		Health:      handler.NewHealthHandler(docs),
	})

	serverErr := make(chan error, 1)
	go func() {
		zap.L().Info("http server starting",
			zap.String("port", cfg.Port),
			zap.String("store", cfg.Store.Driver),
			zap.String("llm_provider", cfg.LLM.Provider),
			zap.String("generation_mode", cfg.GenerationMode),
		)
		serverErr <- e.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		zap.L().Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("server error", zap.Error(err))
		}
		return
	}

	stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("graceful shutdown failed", zap.Error(err))
	}
	if err := docs.Close(shutdownCtx); err != nil {
		zap.L().Error("closing store failed", zap.Error(err))
	}
}

// openStore returns the dial function for the configured backend.
func openStore(cfg config.StoreConfig) store.OpenFunc {
	return func(ctx context.Context) (store.Store, error) {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		switch cfg.Driver {
		case config.DriverPostgres:
			pool, err := database.ConnectPostgres(ctx, cfg.PostgresURL)
			if err != nil {
				return nil, err
			}
			s := pgstore.New(pool)
			if err := s.Migrate(ctx); err != nil {
				pool.Close()
				return nil, err
			}
			return s, nil
		case config.DriverSQLite:
			db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
			if err != nil {
				return nil, err
			}
			s := sqlitestore.New(db)
			if err := s.Migrate(ctx); err != nil {
				_ = db.Close()
				return nil, err
			}
			return s, nil
		default:
			client, err := database.ConnectMongo(ctx, cfg.MongoURI)
			if err != nil {
				return nil, err
			}
			s := mongostore.New(client, cfg.MongoDatabase)
			if err := s.EnsureIndexes(ctx); err != nil {
				_ = client.Disconnect(context.Background())
				return nil, err
			}
			return s, nil
		}
	}
}

func newGenerator(ctx context.Context, cfg *config.Config) (llm.Generator, error) {
	params := llm.Params{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		TopP:        cfg.LLM.TopP,
	}

	var opts []llm.Option
	if cfg.LLM.BaseURL != "" {
		opts = append(opts, llm.WithBaseURL(cfg.LLM.BaseURL))
	}

	switch cfg.LLM.Provider {
	case config.ProviderAnthropic:
		return llm.NewAnthropic(cfg.LLM.APIKey, params, opts...), nil
	case config.ProviderGemini:
		return llm.NewGemini(ctx, cfg.LLM.APIKey, params, opts...)
	default:
		return llm.NewOpenAI(cfg.LLM.APIKey, params, opts...), nil
	}
}

func newMailer(cfg config.SMTPConfig) mailer.Mailer {
	if cfg.Host == "" {
		zap.L().Warn("SMTP_HOST not set; OTP mail will be logged instead of sent")
		return mailer.NewLogMailer(zap.L())
	}
	return mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
	})
}
