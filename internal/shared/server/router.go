package server

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"blanknote-backend/internal/funnel"
	"blanknote-backend/internal/llm"
	openai "blanknote-backend/internal/llm/openai"
	"blanknote-backend/internal/results"
	"blanknote-backend/internal/shared/config"
	"blanknote-backend/internal/shared/metrics"
	"blanknote-backend/internal/shared/ratelimit"
	"blanknote-backend/internal/shared/server/middleware"
	"blanknote-backend/internal/shared/server/respond"
	"blanknote-backend/internal/shared/storage/db"
	"blanknote-backend/internal/shared/storage/object"
	localstore "blanknote-backend/internal/shared/storage/object/local"
	s3store "blanknote-backend/internal/shared/storage/object/s3"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
	)

	// Dependencies
	sqlDB := connectDB(cfg)
	repo := buildRepo(sqlDB, cfg.Env)
	blobs := buildBlobStore(cfg)
	analyzer, images := buildAnalysis(cfg)

	limiter := ratelimit.New(
		time.Duration(cfg.RateLimitWindowSeconds)*time.Second,
		cfg.RateLimitMaxRequests,
		nil,
	)
	startSweeper(limiter, time.Minute)

	svc := &funnel.Service{
		Repo:     repo,
		Analyzer: analyzer,
		Images:   images,
		Blobs:    blobs,
		Limiter:  limiter,
	}
	funnelHandler := funnel.NewHandler(svc, cfg.ReportPriceDisplay)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	funnelHandler.RegisterRoutes(api)

	r.GET("/metrics", metrics.Handler())
	if cfg.ObjectStoreType == "local" {
		if local, ok := blobs.(*localstore.Store); ok {
			r.Static("/images", local.ImagesDir())
		}
	}

	return r
}

func connectDB(cfg config.Config) *sql.DB {
	if cfg.DatabaseURL == "" {
		return nil
	}
	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	dbConn, err := db.Connect(context.Background(), cfg.DatabaseURL, opts)
	if err != nil {
		log.Printf("failed to connect database, falling back to memory: %v", err)
		return nil
	}
	if err := db.RunMigrations(context.Background(), dbConn); err != nil {
		log.Printf("failed to run migrations, falling back to memory: %v", err)
		return nil
	}
	return dbConn
}

func buildRepo(sqlDB *sql.DB, env string) results.Repo {
	if sqlDB != nil {
		return &results.PGRepo{DB: sqlDB}
	}
	if env != "dev" {
		log.Printf("no database configured in %s; results are held in memory", env)
	}
	return results.NewMemoryRepo()
}

func buildBlobStore(cfg config.Config) object.BlobStore {
	if cfg.ObjectStoreType == "s3" {
		store, err := s3store.New(context.Background(), cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			log.Printf("failed to init s3 store, falling back to local: %v", err)
		} else {
			return store
		}
	}
	return localstore.New(cfg.LocalStoreDir, cfg.PublicBaseURL)
}

func buildAnalysis(cfg config.Config) (llm.Analyzer, llm.ImageSynthesizer) {
	analyzer, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel)
	if err != nil {
		log.Printf("analyzer unavailable: %v", err)
		return nil, nil
	}
	images, err := openai.NewImageClient(cfg.OpenAIAPIKey, cfg.ImageModel)
	if err != nil {
		log.Printf("image synthesizer unavailable: %v", err)
		return analyzer, nil
	}
	return analyzer, images
}

// startSweeper drops expired rate-limit windows in the background.
func startSweeper(l *ratelimit.Limiter, every time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for range ticker.C {
			l.Sweep()
		}
	}()
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
