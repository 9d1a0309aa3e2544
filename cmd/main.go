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

	"github.com/Zlatonn/mern-auth/internal/config"
	"github.com/Zlatonn/mern-auth/internal/handler"
	"github.com/Zlatonn/mern-auth/internal/mailer"
	"github.com/Zlatonn/mern-auth/internal/middleware"
	"github.com/Zlatonn/mern-auth/internal/repository"
	"github.com/Zlatonn/mern-auth/internal/router"
	"github.com/Zlatonn/mern-auth/internal/token"
	"github.com/Zlatonn/mern-auth/internal/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Connect to MongoDB
	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	if err := mongoClient.Ping(context.Background(), nil); err != nil {
		logger.Fatal("Failed to ping MongoDB", zap.Error(err))
	}
	db := mongoClient.Database(cfg.MongoDatabase)

	// Connect to Redis (session revocation store)
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	userRepo := repository.NewUserRepository(db, logger)
	sessionRepo := repository.NewSessionRepository(redisClient, logger)
	tokenService := token.NewService(cfg.JWTSecret)

	var mailService mailer.Mailer
	if cfg.MailerSendAPIKey != "" {
		mailService = mailer.NewMailerSendService(cfg.MailerSendAPIKey, cfg.SenderEmail, cfg.SenderName, logger)
	} else {
		mailService = mailer.NewSMTPMailerService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SenderEmail, cfg.SenderName, logger)
	}

	authUsecase := usecase.NewAuthUsecase(userRepo, sessionRepo, mailService, tokenService, logger)
	authHandler := handler.NewAuthHandler(authUsecase, tokenService, cfg.IsProduction(), logger)
	userHandler := handler.NewUserHandler(authUsecase, logger)
	guard := middleware.SessionGuard(tokenService, sessionRepo, logger)

	r := chi.NewRouter()
	r.Use(middleware.Logger(logger))
	router.SetupRoutes(r, authHandler, userHandler, guard)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logger.Info("Starting auth server", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := mongoClient.Disconnect(ctx); err != nil {
		logger.Error("Failed to disconnect MongoDB", zap.Error(err))
	}

	logger.Info("Server exited")
}
