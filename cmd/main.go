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

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/weiawesome/wes-io-live/post-service/internal/config"
	"github.com/weiawesome/wes-io-live/post-service/internal/consumer"
	"github.com/weiawesome/wes-io-live/post-service/internal/domain"
	"github.com/weiawesome/wes-io-live/post-service/internal/gate"
	"github.com/weiawesome/wes-io-live/post-service/internal/handler"
	"github.com/weiawesome/wes-io-live/post-service/internal/publisher"
	"github.com/weiawesome/wes-io-live/post-service/internal/repository"
	"github.com/weiawesome/wes-io-live/post-service/internal/service"
	"github.com/weiawesome/wes-io-live/post-service/internal/store"
	"github.com/weiawesome/wes-io-live/post-service/pkg/database"
	"github.com/weiawesome/wes-io-live/post-service/pkg/jwt"
	pkglog "github.com/weiawesome/wes-io-live/post-service/pkg/log"
	"github.com/weiawesome/wes-io-live/post-service/pkg/middleware"
	"github.com/weiawesome/wes-io-live/post-service/pkg/pubsub"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// 2. Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Level == "debug",
		ServiceName: "post-service",
	})
	logger := pkglog.L()

	// 3. Init DB and migrate posts, likes and cached_valid_users
	db, err := database.New(&database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		FilePath:        cfg.Database.FilePath,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to get underlying sql.DB")
	}

	if err := database.AutoMigrate(db, &domain.PostModel{}, &domain.LikeModel{}, &domain.CachedUserModel{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("database migration completed")

	// 4. Redis, only when a component is configured to use it
	var redisClient *redis.Client
	if cfg.UserCache.Driver == "redis" || cfg.Publisher.Driver == "redis" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Fatal().Err(err).Str("addr", cfg.Redis.Address).Msg("failed to connect to redis")
		}
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	}

	// 5. User cache store and validation gate
	userCache, err := store.New(cfg.UserCache.Driver, db, redisClient, cfg.UserCache.RedisKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create user cache store")
	}
	if n, err := userCache.Count(context.Background()); err == nil {
		logger.Info().Str("driver", cfg.UserCache.Driver).Int64("cached_users", n).Msg("user cache ready")
	}
	authorGate := gate.New(userCache, cfg.Gate.Coalesce)

	// 6. Outbound post event publisher
	driver, err := pubsub.NewPublisher(pubsub.Config{
		Driver: cfg.Publisher.Driver,
		Kafka: pubsub.KafkaConfig{
			Brokers:    cfg.Kafka.Brokers,
			Partitions: cfg.Kafka.Partitions,
			Topics:     []string{cfg.Kafka.PostEventsTopic},
		},
	}, redisClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create post event publisher")
	}
	topic := cfg.Kafka.PostEventsTopic
	if cfg.Publisher.Driver == "redis" {
		topic = cfg.Publisher.RedisChannel
	}
	postPublisher := publisher.NewAsyncPublisher(driver, topic, cfg.Publisher.BufferSize)

	// 7. Repos and services
	postRepo := repository.NewGormPostRepository(db)
	likeRepo := repository.NewGormLikeRepository(db)
	postSvc := service.NewPostService(postRepo, likeRepo, authorGate, postPublisher)
	userSync := service.NewUserSyncService(userCache)

	// 8. Auth
	verifier, err := newVerifier(cfg.Auth)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create token verifier")
	}
	authMiddleware := middleware.NewAuthMiddleware(verifier)

	// 9. Start the user event ingestor. The service does not serve without it.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ingestor := consumer.NewConfluentConsumer(consumer.Config{
		Brokers:         cfg.Kafka.Brokers,
		Topic:           cfg.Kafka.UserEventsTopic,
		GroupID:         cfg.Kafka.GroupID,
		AutoOffsetReset: cfg.Kafka.AutoOffsetReset,
		PollTimeout:     cfg.Kafka.PollTimeout,
		ConnectAttempts: cfg.Kafka.ConnectAttempts,
		ConnectBackoff:  cfg.Kafka.ConnectBackoff,
	}, userSync)
	if err := ingestor.Start(ctx); err != nil {
		logger.Fatal().Err(err).Str("topic", cfg.Kafka.UserEventsTopic).Msg("failed to start user event consumer")
	}

	// 10. Setup Gin router + HTTP server
	httpHandler := handler.NewHandler(postSvc, authMiddleware, ingestor)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))
	httpHandler.RegisterRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logger.Info().Str("addr", addr).Msg("post-service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// 11. Wait for a shutdown signal or for the ingestor to die
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case <-quit:
		logger.Info().Msg("shutdown signal received")
	case <-ingestor.Done():
		logger.Error().Err(ingestor.Err()).Msg("user event consumer stopped, shutting down")
		exitCode = 1
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		// 1. stop pulling user events; the in-flight one finishes
		cancel()
		if err := ingestor.Close(); err != nil {
			logger.Warn().Err(err).Msg("error closing kafka consumer")
		}

		// 2. drain HTTP
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("HTTP server forced to shutdown")
		}

		// 3. flush queued post events
		if err := postPublisher.Close(); err != nil {
			logger.Warn().Err(err).Msg("error closing post event publisher")
		}

		// 4. release storage
		if redisClient != nil {
			redisClient.Close()
		}
		sqlDB.Close()
	}()

	select {
	case <-shutdownDone:
		logger.Info().Msg("post-service stopped")
	case <-time.After(30 * time.Second):
		logger.Warn().Msg("shutdown timed out after 30s")
		exitCode = 1
	}
	os.Exit(exitCode)
}

// newVerifier prefers an RSA public key file and falls back to a shared secret.
func newVerifier(cfg config.AuthConfig) (*jwt.Verifier, error) {
	if cfg.PublicKeyFile != "" {
		pem, err := os.ReadFile(cfg.PublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read public key: %w", err)
		}
		return jwt.NewRSAVerifier(pem, cfg.Issuer)
	}
	return jwt.NewHMACVerifier([]byte(cfg.JWTSecret), cfg.Issuer)
}
