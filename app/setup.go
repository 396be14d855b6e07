package app

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sahilchouksey/learning-center-api/api"
	"github.com/sahilchouksey/learning-center-api/config"
	"github.com/sahilchouksey/learning-center-api/database"
	"github.com/sahilchouksey/learning-center-api/router"
	"github.com/sahilchouksey/learning-center-api/services/cron"
	"github.com/sahilchouksey/learning-center-api/services/storage"
	"github.com/sahilchouksey/learning-center-api/utils/cache"
)

func SetupAndRunServer() error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		log.Printf("Warning: .env not loaded: %v", err)
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}
	if getEnv.JWT_SECRET == "" {
		return fmt.Errorf("JWT_SECRET environment variable is not set")
	}

	// Initialize GORM database connection
	store, err := database.StartGORM()
	if err != nil {
		print("Check whether the Postgres is running or not\n")
		print("If not running, run the following command:\n")
		print("  make docker-up   (for Docker setup)\n")
		print("  make db-up       (for local PostgreSQL)\n")
		return err
	}

	if err := store.Init(); err != nil {
		print("Failed to initialize database tables\n")
		print("Error running migrations:\n")
		return err
	}
	db := store.DB()

	if err := database.NewSeeder(db).SeedSuperAdmin(database.SuperAdmin{
		Login:    getEnv.SUPER_ADMIN_LOGIN,
		Email:    getEnv.SUPER_ADMIN_EMAIL,
		Password: getEnv.SUPER_ADMIN_PASSWORD,
	}); err != nil {
		return fmt.Errorf("seed super admin: %w", err)
	}

	// Redis backs brute force protection, the token blacklist cache and cron locks
	var redisCache *cache.RedisCache
	if getEnv.REDIS_URL != "" {
		redisCache, err = cache.NewRedisCache(getEnv.REDIS_URL)
		if err != nil {
			log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection will be disabled.", err)
			redisCache = nil
		}
	}

	// Logo storage is optional
	var objectStorage storage.ObjectStorage
	storageConfig := storage.Config{
		AccessKey: getEnv.STORAGE_ACCESS_KEY,
		SecretKey: getEnv.STORAGE_SECRET_KEY,
		Bucket:    getEnv.STORAGE_BUCKET,
		Region:    getEnv.STORAGE_REGION,
		Endpoint:  getEnv.STORAGE_ENDPOINT,
		CDNURL:    getEnv.STORAGE_CDN_URL,
	}
	if storageConfig.Enabled() {
		s3Storage, err := storage.NewS3Storage(storageConfig)
		if err != nil {
			log.Printf("Warning: object storage disabled: %v", err)
		} else {
			objectStorage = s3Storage
		}
	}

	svc := router.NewServices(db, getEnv, redisCache, objectStorage)

	// Initialize Cron Manager (only if enabled via environment variable)
	var cronManager *cron.CronManager
	if getEnv.CRON_ENABLED {
		cronManager = cron.NewCronManager(db, cron.Dependencies{
			Enrollment:          svc.Enrollment,
			Groups:              svc.Group,
			Notifications:       svc.Notification,
			Admin:               svc.Admin,
			Blacklist:           svc.Blacklist,
			Locker:              redisCache,
			RequestLogRetention: time.Duration(getEnv.REQUEST_LOG_RETENTION_DAYS) * 24 * time.Hour,
		})
		if err := cronManager.Start(); err != nil {
			print("Warning: Failed to start cron jobs\n")
			print("Error: ", err.Error(), "\n")
			// Don't fail the app, just log the warning
			cronManager = nil
		}
	}

	// Defer Closing DB and stopping cron jobs
	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		if redisCache != nil {
			redisCache.Close()
		}
		store.Close()
	}()

	// Init API
	var server *api.APIServer = api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT))
	app := server.GetEngine()

	// Setup Routes (security, logger and recover middleware included)
	router.SetupRoutes(app, store, db, getEnv, svc, redisCache)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down API Server")
		if err := server.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	// Get the PORT & Start the Server
	return server.Run()
}
