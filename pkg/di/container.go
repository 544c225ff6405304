package di

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"eventphoto-api/application/serviceimpl"
	"eventphoto-api/domain/repositories"
	"eventphoto-api/domain/services"
	"eventphoto-api/infrastructure/faceapi"
	"eventphoto-api/infrastructure/postgres"
	"eventphoto-api/infrastructure/redis"
	"eventphoto-api/infrastructure/storage"
	"eventphoto-api/infrastructure/websocket"
	"eventphoto-api/infrastructure/worker"
	"eventphoto-api/interfaces/api/handlers"
	"eventphoto-api/pkg/config"
	"eventphoto-api/pkg/facematch"
	"eventphoto-api/pkg/logger"
	"eventphoto-api/pkg/scheduler"
)

const backfillJobID = "backfill-embeddings"

type Container struct {
	// Configuration
	Config *config.Config

	// Infrastructure
	DB           *gorm.DB
	RedisClient  *redis.RedisClient
	RunLock      *redis.RunLock
	FaceClient   *faceapi.FaceClient
	URLResolver  *storage.PublicURLResolver
	WSManager    *websocket.Manager
	JobScheduler scheduler.JobScheduler

	// Repositories
	PhotoRepository repositories.PhotoRepository

	// Workers
	BackfillWorker *worker.BackfillWorker

	// Services
	FaceService     services.FaceService
	PhotoService    services.PhotoService
	BackfillService services.BackfillService
}

func NewContainer() *Container {
	return &Container{}
}

func (c *Container) Initialize() error {
	if err := c.initConfig(); err != nil {
		return err
	}

	if err := c.initInfrastructure(); err != nil {
		return err
	}

	if err := c.initRepositories(); err != nil {
		return err
	}

	if err := c.initServices(); err != nil {
		return err
	}

	if err := c.initScheduler(); err != nil {
		return err
	}

	return nil
}

func (c *Container) initConfig() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	c.Config = cfg
	logger.Startup("config_loaded", "Configuration loaded", map[string]interface{}{
		"env":          cfg.App.Env,
		"face_enabled": cfg.FaceAPI.Enabled,
		"redis":        cfg.Redis.Enabled,
	})
	return nil
}

func (c *Container) initInfrastructure() error {
	dbConfig := postgres.DatabaseConfig{
		Host:     c.Config.Database.Host,
		Port:     c.Config.Database.Port,
		User:     c.Config.Database.User,
		Password: c.Config.Database.Password,
		DBName:   c.Config.Database.DBName,
		SSLMode:  c.Config.Database.SSLMode,
		Debug:    c.Config.App.Env == "development",
	}

	db, err := postgres.NewDatabase(dbConfig)
	if err != nil {
		return err
	}
	c.DB = db
	logger.Startup("db_connected", "Database connected", nil)

	if err := postgres.Migrate(db); err != nil {
		return err
	}
	logger.Startup("db_migrated", "Database migrated", nil)

	// Redis only coordinates backfill runs across instances; without it
	// each process still guards itself
	if c.Config.Redis.Enabled {
		c.RedisClient = redis.NewRedisClient(redis.RedisConfig{
			Host:     c.Config.Redis.Host,
			Port:     c.Config.Redis.Port,
			Password: c.Config.Redis.Password,
			DB:       c.Config.Redis.DB,
		})
		if err := c.RedisClient.Ping(context.Background()); err != nil {
			logger.StartupWarn("redis_connection_failed", "Redis connection failed", map[string]interface{}{"error": err.Error()})
		} else {
			logger.Startup("redis_connected", "Redis connected", nil)
		}
		c.RunLock = redis.NewRunLock(c.RedisClient)
	} else {
		logger.Startup("redis_disabled", "Redis disabled, backfill lock is process-local", nil)
	}

	if c.Config.FaceAPI.Enabled {
		c.FaceClient = faceapi.NewFaceClient(c.Config.FaceAPI.BaseURL, c.Config.FaceAPI.Timeout)
		if c.FaceClient.IsAvailable(context.Background()) {
			logger.Startup("face_api_connected", "Face embedding service available", map[string]interface{}{"url": c.Config.FaceAPI.BaseURL})
		} else {
			logger.StartupWarn("face_api_unavailable", "Face embedding service not reachable yet", map[string]interface{}{"url": c.Config.FaceAPI.BaseURL})
		}
	} else {
		logger.Startup("face_api_disabled", "Face API is disabled, embedding generation is off", nil)
	}

	c.URLResolver = storage.NewPublicURLResolver(storage.URLConfig{
		PublicBaseURL: c.Config.Storage.PublicBaseURL,
		Bucket:        c.Config.Storage.Bucket,
	})
	if c.Config.Storage.PublicBaseURL == "" {
		logger.StartupWarn("storage_url_missing", "No public storage URL, photos without a stored URL cannot be embedded", nil)
	}

	c.WSManager = websocket.NewManager()

	return nil
}

func (c *Container) initRepositories() error {
	c.PhotoRepository = postgres.NewPhotoRepository(c.DB)
	logger.Startup("repositories_initialized", "Repositories initialized", nil)
	return nil
}

func (c *Container) initServices() error {
	engine := facematch.NewEngine(c.Config.Match.CosineThreshold, c.Config.Match.EuclideanThreshold)

	// Leave the interfaces nil rather than holding a nil pointer
	var generator services.EmbeddingGenerator
	if c.FaceClient != nil {
		generator = c.FaceClient
	}
	var lock services.RunLock
	if c.RunLock != nil {
		lock = c.RunLock
	}

	c.FaceService = serviceimpl.NewFaceService(c.PhotoRepository, generator, engine)
	c.PhotoService = serviceimpl.NewPhotoService(c.PhotoRepository, generator, c.URLResolver)

	if generator != nil {
		c.BackfillWorker = worker.NewBackfillWorker(generator, c.PhotoRepository, c.URLResolver, c.WSManager, worker.BackfillOptions{
			Concurrency:      c.Config.Backfill.Concurrency,
			BreakerThreshold: c.Config.Backfill.BreakerThreshold,
		})
		c.BackfillService = serviceimpl.NewBackfillService(c.PhotoRepository, c.BackfillWorker, lock, c.WSManager, serviceimpl.BackfillConfig{
			DefaultLimit: c.Config.Backfill.DefaultLimit,
			MaxLimit:     c.Config.Backfill.MaxLimit,
			LockTTL:      c.Config.Backfill.LockTTL,
		})
	}

	logger.Startup("services_initialized", "Services initialized", map[string]interface{}{
		"cosine_threshold":    c.Config.Match.CosineThreshold,
		"euclidean_threshold": c.Config.Match.EuclideanThreshold,
		"backfill":            c.BackfillService != nil,
	})
	return nil
}

// initScheduler runs the backfill on BACKFILL_CRON. An invalid expression is
// a startup error; an empty one disables the job.
func (c *Container) initScheduler() error {
	cronExpr := c.Config.Backfill.Cron
	if cronExpr == "" || c.BackfillService == nil {
		return nil
	}

	if err := scheduler.ValidateCronExpression(cronExpr); err != nil {
		return err
	}

	c.JobScheduler = scheduler.NewJobScheduler()
	err := c.JobScheduler.AddJob(backfillJobID, cronExpr, func(ctx context.Context) error {
		_, err := c.BackfillService.BackfillMissingEmbeddings(ctx, 0)
		if errors.Is(err, services.ErrBackfillInProgress) {
			logger.SchedulerWarn("backfill_skipped", "Backfill already running, skipping scheduled run", nil)
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}

	c.JobScheduler.Start()
	logger.Startup("scheduler_started", "Scheduled backfill enabled", map[string]interface{}{"cron": cronExpr})
	return nil
}

func (c *Container) Cleanup() error {
	logger.Startup("cleanup_started", "Starting cleanup...", nil)

	if c.JobScheduler != nil && c.JobScheduler.IsRunning() {
		c.JobScheduler.Stop()
		logger.Startup("scheduler_stopped", "Job scheduler stopped", nil)
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			logger.StartupWarn("redis_close_failed", "Failed to close Redis connection", map[string]interface{}{"error": err.Error()})
		} else {
			logger.Startup("redis_closed", "Redis connection closed", nil)
		}
	}

	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.StartupWarn("db_close_failed", "Failed to close database connection", map[string]interface{}{"error": err.Error()})
			} else {
				logger.Startup("db_closed", "Database connection closed", nil)
			}
		}
	}

	logger.Startup("cleanup_completed", "Cleanup completed", nil)
	return nil
}

func (c *Container) GetConfig() *config.Config {
	return c.Config
}

func (c *Container) GetHandlerServices() *handlers.Services {
	return &handlers.Services{
		FaceService:     c.FaceService,
		PhotoService:    c.PhotoService,
		BackfillService: c.BackfillService,
	}
}

func (c *Container) GetHandlerInfrastructure() *handlers.Infrastructure {
	return &handlers.Infrastructure{
		DB:              c.DB,
		RedisClient:     c.RedisClient,
		FaceClient:      c.FaceClient,
		PhotoRepository: c.PhotoRepository,
	}
}
