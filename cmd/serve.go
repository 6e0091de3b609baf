package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/sync/errgroup"

	_ "github.com/shenikar/saferoute/docs"
	"github.com/shenikar/saferoute/internal/auth"
	"github.com/shenikar/saferoute/internal/config"
	v1 "github.com/shenikar/saferoute/internal/handler/http/v1"
	"github.com/shenikar/saferoute/internal/handler/ws"
	"github.com/shenikar/saferoute/internal/presence"
	"github.com/shenikar/saferoute/internal/repository"
	"github.com/shenikar/saferoute/internal/service"
	"github.com/shenikar/saferoute/internal/sweeper"
	"github.com/shenikar/saferoute/internal/webhook"
	"github.com/shenikar/saferoute/pkg/logger"
	"github.com/shenikar/saferoute/pkg/postgres"
	redisclient "github.com/shenikar/saferoute/pkg/redis"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, realtime channel and background workers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context(), skipMigrations)
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Do not apply database migrations on startup")
	return cmd
}

func runServer(parent context.Context, skipMigrations bool) error {
	// Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Инициализация логгера
	log := logger.New(cfg.LogLevel)

	// Контекст для graceful shutdown
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Запуск миграций
	if !skipMigrations {
		if err := runMigrations(cfg, log, defaultMigrationsPath, migrateUp, 0); err != nil {
			return err
		}
	}

	// Подключение к PostgreSQL
	dbpool, err := postgres.NewPostgresDB(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer dbpool.Close()
	log.Info("Successfully connected to PostgreSQL")

	// Инициализация Redis клиента
	redisClient, err := redisclient.NewRedisClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redisClient.Close()
	log.Info("Successfully connected to Redis")

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		return err
	}

	// Инициализация репозиториев
	incidentRepo := repository.NewIncidentRepository(dbpool)
	userRepo := repository.NewUserRepository(dbpool)
	voteRepo := repository.NewVoteRepository(dbpool)
	alertRepo := repository.NewAlertRepository(dbpool)

	// Присутствие и реестр соединений живут в памяти процесса
	tracker := presence.NewTracker()
	hub := ws.NewHub()

	webhookPublisher := webhook.NewRedisWebhookPublisher(redisClient)
	webhookWorker := webhook.NewWebhookWorker(redisClient, log, cfg)

	// Инициализация сервисов
	incidentService := service.NewIncidentService(incidentRepo, userRepo, log, cfg)
	voteService := service.NewVoteService(voteRepo, log)
	userService := service.NewUserService(userRepo, log)
	alertService := service.NewAlertService(alertRepo, tracker, hub, webhookPublisher, log)

	incidentSweeper := sweeper.New(incidentRepo, cfg.SweepInterval, log)

	// Инициализация хэндлеров
	handler := v1.NewHandler(incidentService, voteService, userService, tokens, log, cfg)
	wsHandler := ws.NewHandler(hub, tracker, alertService, tokens, log, cfg)

	router := newRouter(cfg, log, handler, wsHandler)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infof("HTTP server started on port %s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Received shutdown signal, shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return incidentSweeper.Run(gctx)
	})

	g.Go(func() error {
		return webhookWorker.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Server gracefully stopped")
	return nil
}

func newRouter(cfg *config.Config, log *logrus.Logger, handler *v1.Handler, wsHandler *ws.Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), logger.GinMiddleware(log))
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)
	api.GET("/ws", wsHandler.Serve)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Добавление маршрута для Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	return router
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}
