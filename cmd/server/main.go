package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stockfolio/internal/client/quote"
	"stockfolio/internal/config"
	cronrunner "stockfolio/internal/cron"
	"stockfolio/internal/db"
	"stockfolio/internal/handler"
	"stockfolio/internal/logger"
	"stockfolio/internal/pricing"
	gormrepository "stockfolio/internal/repository/gorm"
	"stockfolio/internal/service"
)

func main() {
	cfgPath := os.Getenv("SF_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("SF_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)

	quoteHTTP := &http.Client{Timeout: cfg.Quote.Timeout}
	quoteClient := quote.NewClient(quoteHTTP, cfg.Quote.BaseURL)
	resolver := &pricing.Resolver{
		Quotes:  quoteClient,
		History: store,
		Logger:  logger,
	}

	ledgerSvc := &service.LedgerService{
		Repo:   store,
		Logger: logger,
	}
	valuationSvc := &service.ValuationService{
		Repo:              store,
		Resolver:          resolver,
		Logger:            logger,
		HistoryDays:       cfg.Valuation.HistoryDays,
		LookupConcurrency: cfg.Valuation.LookupConcurrency,
	}
	historySyncSvc := &service.HistorySyncService{
		Repo:        store,
		History:     store,
		Quotes:      quoteClient,
		Logger:      logger,
		PortfolioID: cfg.Portfolio.DefaultID,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn}
	healthHandler.Register(engine)
	portfolioHandler := &handler.PortfolioHandler{
		Valuation:          valuationSvc,
		DefaultPortfolioID: cfg.Portfolio.DefaultID,
	}
	portfolioHandler.Register(engine)
	ledgerHandler := &handler.LedgerHandler{
		Ledger:             ledgerSvc,
		DefaultPortfolioID: cfg.Portfolio.DefaultID,
	}
	ledgerHandler.Register(engine)
	transactionsHandler := &handler.TransactionsHandler{
		Repo:               store,
		DefaultPortfolioID: cfg.Portfolio.DefaultID,
	}
	transactionsHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		_, err := cronRunner.Add(cfg.Cron.HistorySync, func(ctx context.Context) {
			result, err := historySyncSvc.RunOnce(ctx)
			if err != nil {
				logger.Warn("cron history sync failed", zap.Error(err))
				return
			}
			logger.Info("cron history sync ok",
				zap.Int("symbols", result.Symbols),
				zap.Int("stored", result.Stored),
				zap.Int("failed", result.Failed),
			)
		})
		if err != nil {
			logger.Warn("cron register history sync failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
