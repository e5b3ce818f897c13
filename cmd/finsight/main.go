package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"finsight/internal/amqp"
	"finsight/internal/analytics"
	"finsight/internal/auth"
	"finsight/internal/cache"
	"finsight/internal/cli"
	"finsight/internal/core"
	apphttp "finsight/internal/http"
	"finsight/internal/insights"
	"finsight/internal/llm"
	applog "finsight/internal/log"
	"finsight/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentApp)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	var publisher services.EventPublisher
	if cfg.AMQPEnabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("Publishing expense events", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - expense events will not be published")
	}

	llmClient := llm.New(llm.Config{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
	})
	if llmClient == nil {
		logger.Warn("OPENAI_API_KEY not set - insights will use the built-in fallback text")
	}

	insightCache := insights.NewCache(repo, insights.Policies{
		core.InsightSpendingAnalysis:   {MaxAge: cfg.SpendingMaxAge, TTL: cfg.SpendingTTL},
		core.InsightBudgetOptimization: {MaxAge: cfg.TipsMaxAge, TTL: cfg.TipsTTL},
		core.InsightPrediction:         {MaxAge: cfg.PredictionMaxAge, TTL: cfg.PredictionTTL},
		core.InsightGeneral:            {MaxAge: cfg.SpendingMaxAge, TTL: cfg.SpendingTTL},
	})

	engine := analytics.NewEngine(repo)
	dashboard := services.NewAnalyticsService(engine, repo, cfg.DashboardCacheTTL)
	tokens := auth.NewTokens(auth.TokenConfig{
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.JWTAccessTTL,
		RefreshTTL:    cfg.JWTRefreshTTL,
	})

	cleanup := cache.NewManager()
	cleanup.Register("insights", insights.NewReaper(insightCache))
	if c := dashboard.Cache(); c != nil {
		cleanup.Register("dashboard", c)
	}
	if err := cleanup.Start(cfg.ReaperSchedule); err != nil {
		logger.Error("Failed to start cache cleanup", applog.FieldError, err, "schedule", cfg.ReaperSchedule)
		os.Exit(1)
	}
	defer cleanup.Stop()

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Logger:             logger,
		Auth:               auth.NewService(repo, tokens, cfg.BcryptCost),
		Expenses:           services.NewExpenseService(repo, publisher, dashboard),
		Budgets:            services.NewBudgetService(repo, engine, dashboard),
		Analytics:          dashboard,
		Engine:             engine,
		Insights:           insights.NewService(engine, repo, insightCache, insights.NewGenerator(llmClient.Generator(), cfg.AITimeout)),
		DB:                 repo,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", applog.FieldError, err)
		os.Exit(1)
	}
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(context.Background(), logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
	})

	logger.Info("Starting finsight server",
		applog.FieldOperation, applog.OpStartup,
		"port", cfg.Port,
		"ai_enabled", llmClient != nil,
		"amqp_enabled", cfg.AMQPEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
