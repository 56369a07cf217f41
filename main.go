package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/seo-optimizer/auditor/analyzer"
	"github.com/seo-optimizer/auditor/config"
	"github.com/seo-optimizer/auditor/logging"
	"github.com/seo-optimizer/auditor/middleware"
	"github.com/seo-optimizer/auditor/stats"
)

const (
	statsRetainMonths = 12
	shutdownTimeout   = 10 * time.Second
)

// server holds the services behind the HTTP handlers
type server struct {
	auditor *analyzer.Analyzer
	storage *stats.Storage
	logger  *zap.Logger
}

type urlRequest struct {
	URL string `json:"url" binding:"required"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}

	logger, err := logging.New(cfg.LogLevel, cfg.DevMode)
	if err != nil {
		zap.NewExample().Fatal("failed to build logger", zap.Error(err))
	}
	defer logger.Sync()

	if !cfg.EnvFileLoaded {
		logger.Info("no .env file found, using environment variables")
	}

	gin.SetMode(cfg.GinMode)

	storage, err := stats.NewStorage(cfg.DataDir)
	if err != nil {
		logger.Fatal("failed to open statistics storage", zap.String("dir", cfg.DataDir), zap.Error(err))
	}
	storage.Cleanup(statsRetainMonths)

	auditor := analyzer.New(
		analyzer.WithLogger(logger),
		analyzer.WithHTTPClient(analyzer.NewFetcher(cfg.FetchTimeout, cfg.UserAgent).Client),
		analyzer.WithUserAgent(cfg.UserAgent),
		analyzer.WithSafeBrowsing(cfg.SafeBrowsingAPIKey, cfg.SafeBrowsingEndpoint),
		analyzer.WithTimeouts(cfg.AuxFetchTimeout, cfg.ReputationTimeout),
		analyzer.WithRecorder(storage),
	)

	srv := &server{auditor: auditor, storage: storage, logger: logger}
	router := srv.routes(
		middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		middleware.NewQuotaStore(cfg.DailyAuditQuota, nil),
	)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server starting",
			zap.String("addr", "http://localhost:"+cfg.Port),
			zap.String("safe_browsing_mode", auditor.SafeBrowsingMode()),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	if err := storage.Shutdown(); err != nil {
		logger.Error("failed to flush statistics", zap.Error(err))
	}
}

// routes builds the gin engine
func (s *server) routes(limiter *middleware.RateLimiter, quota *middleware.QuotaStore) *gin.Engine {
	r := gin.New()

	r.Use(middleware.ErrorHandler(s.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(s.logger))
	r.Use(cors())
	r.Use(limiter.RateLimit())

	api := r.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/statistics", s.statistics)

		audits := api.Group("", quota.Quota(), middleware.Stats(s.storage))
		audits.POST("/audit", s.audit)
		audits.POST("/keywords", s.keywords)
	}
	return r
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, X-Requested-With, "+middleware.RequestIDHeader)
		c.Writer.Header().Set("Access-Control-Expose-Headers", middleware.RequestIDHeader+", X-Quota-Remaining, Retry-After")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (s *server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"safeBrowsingMode": s.auditor.SafeBrowsingMode(),
	})
}

func (s *server) audit(c *gin.Context) {
	var req urlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid URL provided"})
		return
	}

	report, err := s.auditor.AuditURL(c.Request.Context(), req.URL)
	if err != nil {
		s.fetchError(c, req.URL, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *server) keywords(c *gin.Context) {
	var req urlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid URL provided"})
		return
	}

	page, err := s.auditor.Fetch(c.Request.Context(), req.URL)
	if err != nil {
		s.fetchError(c, req.URL, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"url":      page.URL,
		"keywords": s.auditor.DiscoverKeywords(page),
	})
}

// statistics returns the current month, or ?month=YYYY-MM when given
func (s *server) statistics(c *gin.Context) {
	month := c.Query("month")
	if month == "" {
		c.JSON(http.StatusOK, gin.H{
			"month":  s.storage.CurrentMonth(),
			"stats":  s.storage.GetCurrentStats(),
			"months": s.storage.GetAllMonths(),
		})
		return
	}

	ms, ok := s.storage.GetMonthlyStats(month)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No statistics for " + month})
		return
	}
	c.JSON(http.StatusOK, gin.H{"month": month, "stats": ms})
}

// fetchError maps page fetch failures to status codes
func (s *server) fetchError(c *gin.Context, rawURL string, err error) {
	status := http.StatusBadGateway
	msg := "Failed to fetch URL"
	switch {
	case errors.Is(err, analyzer.ErrInvalidURL):
		status, msg = http.StatusBadRequest, "Invalid URL provided"
	case errors.Is(err, analyzer.ErrUnsupportedContent):
		status, msg = http.StatusUnprocessableEntity, "URL did not return an HTML page"
	case errors.Is(err, context.DeadlineExceeded):
		status, msg = http.StatusGatewayTimeout, "Timed out fetching URL"
	}

	s.logger.Warn("fetch failed",
		zap.String("url", rawURL),
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.Int("status", status),
		zap.Error(err),
	)
	c.JSON(status, gin.H{"error": msg})
}
