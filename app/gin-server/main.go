package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/callscribe/callscribe/config"
	"github.com/callscribe/callscribe/internal/api/handlers"
	"github.com/callscribe/callscribe/internal/api/middleware"
	"github.com/callscribe/callscribe/internal/api/routes"
	"github.com/callscribe/callscribe/internal/cache"
	"github.com/callscribe/callscribe/internal/costing"
	"github.com/callscribe/callscribe/internal/logger"
	"github.com/callscribe/callscribe/internal/models"
	"github.com/callscribe/callscribe/internal/providers/stt"
	mongorepo "github.com/callscribe/callscribe/internal/repositories/mongo"
	pgrepo "github.com/callscribe/callscribe/internal/repositories/postgres"
	"github.com/callscribe/callscribe/internal/services"
	"github.com/callscribe/callscribe/internal/storage"
	"github.com/callscribe/callscribe/internal/workers"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()
	ctx := context.Background()

	if err := config.InitMongo(); err != nil {
		log.WithError(err).Fatal("MongoDB init failed")
	}
	log.Info("MongoDB connected")

	if err := config.EnsureMongoIndexes(); err != nil {
		log.WithError(err).Fatal("MongoDB index creation failed")
	}

	if err := config.InitPostgres(); err != nil {
		log.WithError(err).Fatal("PostgreSQL init failed")
	}
	log.Info("PostgreSQL connected")

	if err := config.PostgresDB.AutoMigrate(&models.UsageRecord{}, &models.User{}); err != nil {
		log.WithError(err).Fatal("PostgreSQL migration failed")
	}

	if err := config.InitRedis(); err != nil {
		log.WithError(err).Fatal("Redis init failed")
	}
	log.Info("Redis connected")

	// Repositories
	mongoDB := config.MongoClient.Database(config.MongoDBName())
	convos := mongorepo.NewConversationRepo(mongoDB)
	usage := pgrepo.NewUsageRepo(config.PostgresDB)
	users := pgrepo.NewUserRepo(config.PostgresDB)

	// Audio object store
	var store storage.Store
	if os.Getenv("STORAGE_BACKEND") == "local" {
		path := os.Getenv("LOCAL_STORAGE_PATH")
		if path == "" {
			path = "./data/audio"
		}
		local, err := storage.NewLocalStore(path)
		if err != nil {
			log.WithError(err).Fatal("local storage init failed")
		}
		store = local
	} else {
		bucket := os.Getenv("GCS_BUCKET")
		if bucket == "" {
			log.Fatal("GCS_BUCKET environment variable is not set")
		}
		gcs, err := storage.NewGCSStore(ctx, bucket)
		if err != nil {
			log.WithError(err).Fatal("GCS init failed")
		}
		store = gcs
	}
	defer store.Close()

	recognizer, err := stt.NewGoogleSpeech(ctx)
	if err != nil {
		log.WithError(err).Fatal("speech client init failed")
	}
	defer recognizer.Close()

	// Cost monitor, seeded from the persisted usage ledger so restarts keep
	// the month's discount band and cap state.
	monitor := costing.NewMonitor(costing.MonitorConfig{
		MonthlyCapUSD:     envFloat("COST_MONTHLY_CAP_USD", 0),
		AlertThresholdPct: envFloat("COST_ALERT_THRESHOLD", 0.8),
	})
	monthKey := costing.MonthKey(time.Now())
	if minutes, merr := usage.MonthlyMinutes(ctx, monthKey); merr == nil {
		if spend, serr := usage.MonthlySpend(ctx, monthKey); serr == nil {
			monitor.Reset(monthKey)
			monitor.Record(minutes, spend)
		}
	}

	tier := costing.Tier(os.Getenv("PROCESSING_TIER"))
	if tier == "" {
		tier = costing.TierBalanced
	}

	// Services
	progressCache := cache.NewRedisCache(config.RedisClient)
	pipeline := services.NewPipelineService(services.PipelineDeps{
		Conversations: convos,
		Usage:         usage,
		Recognizer:    recognizer,
		Monitor:       monitor,
		Cache:         progressCache,
		Redis:         config.RedisClient,
		Logger:        log,
		Tier:          tier,
	})
	uploads := services.NewUploadService(convos, store, log)
	userSvc := services.NewUserService(users)

	// Background workers for fire-and-forget processing
	pool := &workers.PipelineWorkerPool{
		Redis:      config.RedisClient,
		Pipeline:   pipeline,
		NumWorkers: envInt("PIPELINE_WORKERS", 3),
		Logger:     log,
	}
	if err := pool.Start(ctx); err != nil {
		log.WithError(err).Fatal("worker pool start failed")
	}

	// HTTP
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

	routes.RegisterRoutes(r, routes.Deps{
		Auth:         handlers.NewAuthHandler(userSvc),
		Conversation: handlers.NewConversationHandler(uploads, pipeline, convos),
		Cost:         handlers.NewCostHandler(monitor, tier),
		WS:           handlers.NewWSHandler(pipeline, config.RedisClient),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

func envFloat(key string, def float64) float64 {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
	}
	return def
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	}
	return def
}
