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

	"fintrack/internal/config"
	"fintrack/internal/database"
	"fintrack/internal/logger"
	"fintrack/internal/middleware"
	"fintrack/internal/notify"
	"fintrack/internal/otp"
	"fintrack/internal/router"
	"fintrack/internal/validator"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// @title           Fintrack API
// @version         1.0
// @description     Fintrack is a personal finance tracker: record income and expenses and chart where the money goes.

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

const sweepInterval = time.Minute

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()

	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, sweeper, closeStore, err := openOTPStore(ctx, appConfig, dbManager.DB())
	if err != nil {
		return err
	}
	defer closeStore()

	notifier, closeNotifier, err := openNotifier(appConfig)
	if err != nil {
		return err
	}
	defer closeNotifier()

	tokens := middleware.NewTokenManager(appConfig.JWTSecret, appConfig.JWTExpirationDur,
		middleware.WithLegacyFailureStatus(appConfig.AuthLegacyFailureStatus))

	handler := router.SetupRouter(router.Deps{
		DB:             dbManager.DB(),
		Tokens:         tokens,
		OTPStore:       store,
		Notifier:       notifier,
		OTPTTL:         appConfig.OTPTTL,
		CORSOrigin:     appConfig.CORSOrigin,
		ReportLocation: appConfig.ReportLocation(),
	})

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infof("Starting Fintrack backend server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if sweeper != nil {
		g.Go(func() error {
			otp.RunSweeper(gctx, sweeper, sweepInterval)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Server stopped gracefully")
	return nil
}

// openOTPStore builds the store selected by OTP_STORE. The returned sweeper
// is nil for mongo, which expires records with a TTL index.
func openOTPStore(ctx context.Context, cfg *config.Config, db *gorm.DB) (otp.Store, otp.Sweeper, func(), error) {
	log := logger.Named("otp")

	switch cfg.OTPStore {
	case "database":
		store := otp.NewGormStore(db)
		log.Info("Using database OTP store")
		return store, store, func() {}, nil

	case "mongo":
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		store, err := otp.NewMongoStore(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open mongo OTP store: %w", err)
		}
		log.Infow("Using mongo OTP store", "database", cfg.MongoDatabase)
		return store, nil, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := store.Close(closeCtx); err != nil {
				log.Warnf("mongo close error: %v", err)
			}
		}, nil

	case "memory":
		store := otp.NewMemoryStore()
		log.Info("Using in-memory OTP store")
		return store, store, func() {}, nil

	default:
		return nil, nil, nil, fmt.Errorf("unsupported OTP_STORE %q (use memory, database or mongo)", cfg.OTPStore)
	}
}

// openNotifier builds the OTP notifier selected by NOTIFIER.
func openNotifier(cfg *config.Config) (notify.Notifier, func(), error) {
	log := logger.Named("notify")

	switch cfg.Notifier {
	case "amqp":
		n, err := notify.NewAMQPNotifier(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect notifier: %w", err)
		}
		log.Infow("Publishing OTP deliveries to AMQP", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		return n, func() {
			if err := n.Close(); err != nil {
				log.Warnf("amqp close error: %v", err)
			}
		}, nil

	case "log":
		reveal := !logger.IsProduction()
		if reveal {
			log.Warn("OTP codes will be written to the log; set ENV=production to hide them")
		}
		return notify.NewLogNotifier(log, reveal), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported NOTIFIER %q (use log or amqp)", cfg.Notifier)
	}
}
