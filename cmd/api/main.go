package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pagecanvas/imagerank"
	"github.com/pagecanvas/imagerank/api"
	"github.com/pagecanvas/imagerank/db"
	"github.com/pagecanvas/imagerank/scan"
	"github.com/pagecanvas/imagerank/storage"
)

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	// Setup structured logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("imagerank service initializing", "version", "1.0.0")

	// Default values
	defaultPort := getEnv("PORT", "8080")
	defaultStoragePath := getEnv("STORAGE_BASE_PATH", "./storage")
	defaultCacheTTL := getEnv("CACHE_TTL_SECONDS", "86400")
	defaultThreshold := getEnv("SIMILARITY_THRESHOLD", "0.75")
	defaultMaxImages := getEnv("MAX_IMAGES", "50")

	cacheTTLSeconds, err := strconv.ParseInt(defaultCacheTTL, 10, 64)
	if err != nil || cacheTTLSeconds <= 0 {
		logger.Warn("invalid CACHE_TTL_SECONDS value, using default",
			"provided", defaultCacheTTL,
			"default", 86400,
		)
		cacheTTLSeconds = 86400
	}

	threshold, err := strconv.ParseFloat(defaultThreshold, 64)
	if err != nil || threshold <= 0 || threshold > 1 {
		logger.Warn("invalid SIMILARITY_THRESHOLD value, using default",
			"provided", defaultThreshold,
			"default", imagerank.DefaultSimilarityThreshold,
		)
		threshold = imagerank.DefaultSimilarityThreshold
	}

	maxImages, err := strconv.Atoi(defaultMaxImages)
	if err != nil || maxImages < 0 {
		logger.Warn("invalid MAX_IMAGES value, using default", "provided", defaultMaxImages, "default", 50)
		maxImages = 50
	}

	// Command-line flags (override environment variables)
	port := flag.String("port", defaultPort, "Server port")
	similarityThreshold := flag.Float64("similarity-threshold", threshold, "Near-duplicate grouping threshold (0.0-1.0)")
	disableCORS := flag.Bool("disable-cors", false, "Disable CORS")
	disableProbe := flag.Bool("disable-image-probe", false, "Disable image dimension probing during scans")
	flag.Parse()

	// PostgreSQL is optional: without it the engine memoizes in memory only
	// and run history endpoints are unavailable
	var dbConfig db.Config
	if dbHost := getEnv("DB_HOST", ""); dbHost != "" {
		dbPort := getEnv("DB_PORT", "5432")
		dbUser := getEnv("DB_USER", "imagerank")
		dbPassword := getEnv("DB_PASSWORD", "imagerank_dev_pass")
		dbName := getEnv("DB_NAME", "imagerank")
		dbConfig.DSN = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			dbHost, dbPort, dbUser, dbPassword, dbName)
		logger.Info("using PostgreSQL result store", "host", dbHost, "port", dbPort, "database", dbName)
	} else {
		logger.Info("DB_HOST not set, using in-memory result cache")
	}

	// S3 export is optional
	var s3Config *storage.S3Config
	if bucket := getEnv("S3_BUCKET", ""); bucket != "" {
		s3Config = &storage.S3Config{
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Bucket:          bucket,
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			UsePathStyle:    getEnv("S3_USE_PATH_STYLE", "") == "true",
		}
		logger.Info("S3 report export enabled", "bucket", bucket, "region", s3Config.Region)
	}

	scanConfig := scan.DefaultConfig()
	scanConfig.ProbeImages = !*disableProbe
	scanConfig.MaxImages = maxImages

	config := api.Config{
		Addr: ":" + *port,
		EngineConfig: imagerank.Config{
			CacheTTL:            time.Duration(cacheTTLSeconds) * time.Second,
			SimilarityThreshold: *similarityThreshold,
		},
		ScanConfig:    scanConfig,
		StorageConfig: storage.Config{BasePath: defaultStoragePath},
		DBConfig:      dbConfig,
		S3Config:      s3Config,
		CORSEnabled:   !*disableCORS,
	}

	server, err := api.NewServer(config)
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	// Sweep expired cache rows when backed by Postgres
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	if server.DB() != nil {
		go func() {
			ticker := time.NewTicker(time.Hour)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					deleted, err := server.DB().DeleteExpired(sweepCtx)
					if err != nil {
						logger.Warn("expired entry sweep failed", "error", err)
					} else if deleted > 0 {
						logger.Info("swept expired cache entries", "deleted", deleted)
					}
				case <-sweepCtx.Done():
					return
				}
			}
		}()
		logger.Info("expiry sweep initialized")
	}

	// Start server in a goroutine
	go func() {
		logger.Info("imagerank service starting",
			"port", *port,
			"storage_path", defaultStoragePath,
			"cache_ttl_seconds", cacheTTLSeconds,
			"similarity_threshold", *similarityThreshold,
			"max_images", maxImages,
			"image_probe_enabled", !*disableProbe,
		)

		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	logger.Info("shutting down gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
