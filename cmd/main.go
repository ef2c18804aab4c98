// cmd/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"legaldoc-pipeline/internal/anonymizer"
	"legaldoc-pipeline/internal/config"
	"legaldoc-pipeline/internal/factcheck"
	"legaldoc-pipeline/internal/generation"
	"legaldoc-pipeline/internal/logger"
	"legaldoc-pipeline/internal/ocr"
	"legaldoc-pipeline/internal/orchestrator"
	"legaldoc-pipeline/internal/store"
	"legaldoc-pipeline/internal/telemetry"
	"legaldoc-pipeline/internal/vectorstore"
	"legaldoc-pipeline/middleware"
	"legaldoc-pipeline/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()

	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	pgCtx, pgCancel := context.WithTimeout(context.Background(), 10*time.Second)
	relational, err := store.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	pgCancel()
	if err != nil {
		log.Fatal("Failed to connect to Postgres:", err)
	}
	defer relational.Close()

	if err := relational.InitSchema(context.Background()); err != nil {
		log.Fatal("Failed to initialize Postgres schema:", err)
	}

	shutdownTracer, err := telemetry.InitTracer("legaldoc-pipeline")
	if err != nil {
		log.Printf("failed to initialize tracing: %v", err)
	} else {
		defer shutdownTracer()
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Printf("failed to initialize metrics: %v", err)
	}

	logger.InitLogger(cfg)
	logger.Info("Application starting", "gin_mode", cfg.GinMode, "port", cfg.Port)

	kv := store.NewKV(rdb)
	anon := anonymizer.New(kv, cfg.PIIConfidenceThreshold, cfg.PIIMappingTTL)
	vectors := vectorstore.New(mongoClient, cfg, kv)
	ocrClient := ocr.NewClient(cfg.OCRServiceURL, cfg.OCRTimeout)

	genCtx, genCancel := context.WithTimeout(context.Background(), 30*time.Second)
	genClient, err := generation.NewClient(genCtx, cfg)
	genCancel()
	if err != nil {
		log.Fatal("Failed to initialize generation client:", err)
	}
	defer genClient.Close()

	factcheckClient := factcheck.NewClient(cfg.LocalVerifierEndpoint, cfg.LocalVerifierModel, cfg.LocalVerifierTimeout)

	orch := orchestrator.New(cfg, relational, kv, vectors, anon, ocrClient, genClient, factcheckClient)

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered", "error", recovered, "path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error_code": "internal_error",
			"message":    "An unexpected error occurred",
		})
		c.Abort()
	}))

	router.MaxMultipartMemory = 100 << 20

	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.EnrichTrace())
	router.Use(middleware.ManualTracing())

	if metrics != nil {
		router.Use(middleware.MetricsMiddleware(metrics))
	}

	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RequestSizeLimit(10 << 20))
	router.Use(middleware.RateLimitMiddleware(rdb, cfg))
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	router.GET("/health", func(c *gin.Context) {
		health := gin.H{"status": "healthy", "timestamp": time.Now()}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := mongoClient.Ping(ctx, nil); err != nil {
			health["status"] = "unhealthy"
			health["mongodb_error"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, health)
			return
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			health["status"] = "unhealthy"
			health["redis_error"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, health)
			return
		}
		c.JSON(http.StatusOK, health)
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := mongoClient.Ping(ctx, nil); err != nil {
			c.Status(http.StatusServiceUnavailable)
			return
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			c.Status(http.StatusServiceUnavailable)
			return
		}
		c.Status(http.StatusOK)
	})

	authMiddleware := middleware.NewAuthMiddleware()
	routes.SetupDocumentRoutes(router, orch, authMiddleware)
	routes.SetupQueryRoutes(router, orch, authMiddleware)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
