package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/zoo/api/handler"
	"github.com/fastygo/zoo/internal/infrastructure/buffer"
	"github.com/fastygo/zoo/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/zoo/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/zoo/internal/infrastructure/redis"
	"github.com/fastygo/zoo/internal/middleware"
	"github.com/fastygo/zoo/internal/router"
	"github.com/fastygo/zoo/internal/services"
	"github.com/fastygo/zoo/internal/services/lifecycle"
	"github.com/fastygo/zoo/pkg/httpcontext"
	"github.com/fastygo/zoo/pkg/token"
	"github.com/fastygo/zoo/repository/postgres"
	redisRepo "github.com/fastygo/zoo/repository/redis"
	authUC "github.com/fastygo/zoo/usecase/auth"
	enclosureUC "github.com/fastygo/zoo/usecase/enclosure"
	gestationUC "github.com/fastygo/zoo/usecase/gestation"
	inviteUC "github.com/fastygo/zoo/usecase/invite"
	profileUC "github.com/fastygo/zoo/usecase/profile"
	taskUC "github.com/fastygo/zoo/usecase/task"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background jobs",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, zapLogger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = zapLogger.Sync() }()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	appCtx, stop := manager.Context(cmd.Context())
	defer stop()

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Error("migrations failed", zap.Error(err))
		return err
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Error("postgres connection failed", zap.Error(err))
		return err
	}
	manager.RegisterFunc("postgres", func() { pgInfra.Close(pool, zapLogger) })

	redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis, zapLogger)
	if err != nil {
		zapLogger.Error("redis connection failed", zap.Error(err))
		_ = manager.Shutdown(context.Background())
		return err
	}
	manager.Register("redis", func(context.Context) error {
		return redisClient.Close()
	})

	bufferStore, err := buffer.Open(buffer.Options{Path: cfg.Buffer.Path, MaxSize: cfg.Buffer.MaxSize})
	if err != nil {
		zapLogger.Error("failed to open buffer store", zap.Error(err))
		_ = manager.Shutdown(context.Background())
		return err
	}
	manager.Register("buffer", func(context.Context) error {
		return bufferStore.Close()
	})

	mon := monitor.New(pool, monitor.RedisPinger{Client: redisClient}, bufferStore, cfg.Monitor.Interval, zapLogger)

	userRepo := postgres.NewUserRepository(pool)
	taskRepo := postgres.NewTaskRepository(pool)
	prerequisiteRepo := postgres.NewPrerequisiteRepository(pool)
	enclosureRepo := postgres.NewEnclosureRepository(pool)
	gestationRepo := postgres.NewGestationRepository(pool)
	inviteRepo := postgres.NewInviteRepository(pool)
	sessionRepo := redisRepo.NewSessionRepository(redisClient, cfg.Session.TTL)

	bufferProcessor := services.NewBufferProcessor(
		bufferStore,
		mon,
		gestationRepo,
		zapLogger,
		services.ProcessorConfig{
			Interval:   cfg.Buffer.SyncInterval,
			BatchSize:  cfg.Buffer.BatchSize,
			MaxRetries: cfg.Buffer.MaxRetry,
			Retention:  time.Duration(cfg.Buffer.RetentionHours) * time.Hour,
		},
	)
	mon.OnReconnect(func() {
		drainCtx, cancel := context.WithTimeout(appCtx, cfg.Buffer.SyncInterval)
		defer cancel()
		if _, err := bufferProcessor.Drain(drainCtx); err != nil {
			zapLogger.Warn("buffer drain after reconnect failed", zap.Error(err))
		}
	})
	bufferProcessor.Start()
	manager.Register("buffer_processor", func(ctx context.Context) error {
		bufferProcessor.Stop(ctx)
		return nil
	})
	mon.Start()
	manager.RegisterFunc("monitor", mon.Stop)

	simulator := services.NewSimulator(
		gestationRepo,
		services.NewBufferBridge(bufferProcessor),
		zapLogger,
		services.SimulatorConfig{
			Interval:        cfg.Simulator.Interval,
			RefreshInterval: cfg.Simulator.RefreshInterval,
			GestationPeriod: cfg.Simulator.GestationPeriod,
		},
	)
	if cfg.Simulator.Enabled {
		if err := simulator.Start(appCtx); err != nil {
			zapLogger.Error("simulator failed to start", zap.Error(err))
			_ = manager.Shutdown(context.Background())
			return err
		}
		manager.Register("simulator", func(ctx context.Context) error {
			simulator.Stop(ctx)
			return nil
		})
	}

	tokens := token.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.Session.TTL)
	authUseCase := authUC.New(userRepo, sessionRepo, enclosureRepo, tokens, zapLogger)
	profileUseCase := profileUC.New(userRepo, zapLogger)
	taskUseCase := taskUC.New(taskRepo, prerequisiteRepo, zapLogger, taskUC.Config{RejectCycles: cfg.Tasks.RejectCycles})
	enclosureUseCase := enclosureUC.New(enclosureRepo, zapLogger)
	gestationUseCase := gestationUC.New(gestationRepo, enclosureRepo, simulator, zapLogger)
	inviteUseCase := inviteUC.New(inviteRepo, userRepo, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:    apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		Profile: apiHandler.NewProfileHandler(profileUseCase, ctxAdapter, zapLogger),
		Task:    apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Zoo:     apiHandler.NewZooHandler(enclosureUseCase, gestationUseCase, ctxAdapter, zapLogger),
		Invite:  apiHandler.NewInviteHandler(inviteUseCase, ctxAdapter, zapLogger),
		Health:  apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	handler := router.New(
		handlers,
		middleware.JWTAuth(authUseCase, zapLogger),
		middleware.CORS(cfg.CORS.AllowedOrigin),
	)

	server := &fasthttp.Server{
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	serveErr := make(chan error, 1)
	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()), zap.String("version", version))
		serveErr <- server.ListenAndServe(cfg.Address())
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	select {
	case <-appCtx.Done():
	case err = <-serveErr:
		zapLogger.Error("server stopped unexpectedly", zap.Error(err))
	}

	if shutdownErr := manager.Shutdown(context.Background()); shutdownErr != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(shutdownErr))
	}
	return err
}
