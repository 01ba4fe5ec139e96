package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/cohapparel/coherp_backend/config"
	"github.com/cohapparel/coherp_backend/handlers"
	"github.com/cohapparel/coherp_backend/middlewares"
	"github.com/cohapparel/coherp_backend/models"
	"github.com/cohapparel/coherp_backend/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// RateLimitMiddleware caps requests per client IP using a fixed redis window.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	key := "ratelimit:" + c.ClientIP()

	exists, err := rl.client.Exists(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if exists == 0 {
		err := rl.client.Set(c.Request.Context(), key, 1, rl.window).Err()
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Next()
		return
	}

	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}

// customErrorLogger logs only requests that attached errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func registerRoutes(r *gin.Engine) {
	r.POST("/customers", handlers.CreateCustomer)
	r.PUT("/customers/:id", handlers.UpdateCustomer)
	r.DELETE("/customers/:id", handlers.DeleteCustomer)
	r.GET("/customers/:id", handlers.GetCustomer)
	r.GET("/customers", handlers.ListCustomers)

	r.POST("/orders", handlers.CreateOrder)
	r.PUT("/orders/:id/status", handlers.UpdateOrderStatus)
	r.GET("/orders/:id", handlers.GetOrder)
	r.GET("/orders", handlers.ListOrders)

	r.POST("/products", handlers.CreateProduct)
	r.GET("/products/:id", handlers.GetProduct)
	r.GET("/products", handlers.ListProducts)
	r.POST("/bom/roles", handlers.CreateBomRole)
	r.GET("/bom/roles", handlers.ListBomRoles)
	r.PUT("/bom/variation-lines", handlers.SetVariationBomLine)
	r.PUT("/bom/sku-lines", handlers.SetSkuBomLine)

	r.POST("/fabrics", handlers.CreateFabric)
	r.PUT("/fabrics/:id", handlers.UpdateFabric)
	r.DELETE("/fabrics/:id", handlers.DeleteFabric)
	r.GET("/fabrics/:id", handlers.GetFabric)
	r.GET("/fabrics", handlers.ListFabrics)
	r.POST("/fabric-colours", handlers.CreateFabricColour)
	r.PUT("/fabric-colours/:id", handlers.UpdateFabricColour)
	r.DELETE("/fabric-colours/:id", handlers.DeleteFabricColour)
	r.GET("/fabric-colours/:id", handlers.GetFabricColour)
	r.GET("/fabric-colours", handlers.ListFabricColours)

	r.POST("/fabric-transactions", handlers.CreateFabricColourTransaction)
	r.DELETE("/fabric-transactions/:id", handlers.DeleteFabricColourTransaction)
	r.GET("/fabric-transactions", handlers.ListFabricColourTransactions)

	r.POST("/reconciliations", handlers.CreateReconciliation)
	r.PUT("/reconciliations/:id", handlers.UpdateReconciliation)
	r.DELETE("/reconciliations/:id", handlers.DeleteReconciliation)
	r.POST("/reconciliations/:id/submit", handlers.SubmitReconciliation)
	r.GET("/reconciliations/:id", handlers.GetReconciliation)
	r.GET("/reconciliations", handlers.ListReconciliations)

	r.GET("/stock/analysis", handlers.GetStockAnalysis)
	r.GET("/stock/analysis/export", handlers.ExportStockAnalysis)
	r.POST("/internal/ops/stock/rebuild", handlers.RebuildStockBalances)

	r.POST("/audiences", handlers.CreateAudience)
	r.PUT("/audiences/:id", handlers.UpdateAudience)
	r.DELETE("/audiences/:id", handlers.DeleteAudience)
	r.GET("/audiences/:id", handlers.GetAudience)
	r.GET("/audiences", handlers.ListAudiences)
	r.POST("/audiences/preview", handlers.PreviewAudience)
	r.POST("/audiences/:id/refresh-count", handlers.RefreshAudienceCount)

	r.POST("/campaigns", handlers.CreateEmailCampaign)
	r.PUT("/campaigns/:id", handlers.UpdateEmailCampaign)
	r.DELETE("/campaigns/:id", handlers.DeleteEmailCampaign)
	r.GET("/campaigns/:id", handlers.GetEmailCampaign)
	r.GET("/campaigns", handlers.ListEmailCampaigns)
	r.POST("/campaigns/:id/send", handlers.SendEmailCampaign)
	r.GET("/campaigns/:id/sends", handlers.ListCampaignSends)
	r.POST("/pubsub/delivery-status", handlers.DeliveryStatusWebhook)

	r.GET("/dashboard", handlers.GetDashboard)
	r.GET("/forecast", handlers.GetForecastReport)

	r.POST("/uploads", handlers.UploadImage)
	r.DELETE("/uploads", handlers.DeleteImage)
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until DB/Redis are ready, app endpoints return 503.
	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	corsConfig := cors.DefaultConfig()
	// In production require an explicit allowlist; allow all elsewhere.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	// Optional rate limiting.
	// Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=600
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		client := redis.NewClient(&redis.Options{Addr: os.Getenv("REDIS_ADDRESS")})
		limit := int64(600)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				limit = n
			}
		}
		windowSec := int64(60)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				windowSec = n
			}
		}
		rateLimiter := NewRateLimiter(client, limit, time.Duration(windowSec)*time.Second)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(middlewares.MetricsMiddleware())
	r.Use(middlewares.LoaderMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	registerRoutes(r)
	r.NoRoute(customNotFoundHandler)

	// Start listening immediately (Cloud Run startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can run DDL that blocks tables; allow running it as a
	// separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Outbox workers: Pub/Sub dispatcher when configured, otherwise the
	// in-process fallback marks sends dispatched directly.
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	if config.PubSubConfigured() {
		// Dev/staging projects may not have the topic provisioned yet.
		if client, err := config.GetClient(workerCtx); err != nil {
			logger.Error("pubsub client init failed, outbox dispatcher not started: " + err.Error())
		} else if _, err := config.CreateTopicIfNotExists(client, os.Getenv("PUBSUB_EMAIL_TOPIC")); err != nil {
			logger.Error("pubsub topic check failed, outbox dispatcher not started: " + err.Error())
		} else {
			go workflow.NewOutboxDispatcher(db, logger).Run(workerCtx)
		}
	}
	if workflow.ShouldRunDirectOutboxProcessor() {
		go workflow.NewOutboxDirectProcessor(db, logger).Run(workerCtx)
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port)
	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Stop background workers before draining so they don't claim new rows.
	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}
