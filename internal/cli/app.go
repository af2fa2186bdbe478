package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/framelab/annotation-service/internal/blob"
	"github.com/framelab/annotation-service/internal/cache"
	"github.com/framelab/annotation-service/internal/config"
	"github.com/framelab/annotation-service/internal/events"
	"github.com/framelab/annotation-service/internal/repositories"
	"github.com/framelab/annotation-service/internal/repositories/casdoor"
	"github.com/framelab/annotation-service/internal/repositories/postgres"
	"github.com/framelab/annotation-service/internal/services"
	"github.com/framelab/annotation-service/internal/validator"
	"github.com/framelab/annotation-service/pkg"
)

// app is the fully wired server side: database, cache, storage, events and services.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	db        *gorm.DB
	validator *validator.Validator
	services  services.ServiceManager
	closers   []func() error
}

func bootstrap(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return nil, err
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, caching disabled", "error", err)
			redisClient = nil
		}
	}

	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{DB: db, RedisClient: redisClient})
	if err := repoManager.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, db: db, validator: validator.New()}
	cm := cache.NewCacheManager(redisClient)

	blobs, closeBlobs := openBlobStore(ctx, cfg, cm, logger)
	if closeBlobs != nil {
		a.closers = append(a.closers, closeBlobs)
	}

	publisher, err := openPublisher(cfg, logger)
	if err != nil {
		return nil, err
	}

	var directory repositories.UserDirectory
	if cfg.Casdoor.Enabled() {
		directory = casdoor.NewUserCasdoor(casdoor.CasdoorConfig{
			Endpoint:         cfg.Casdoor.Endpoint,
			ClientID:         cfg.Casdoor.ClientID,
			ClientSecret:     cfg.Casdoor.ClientSecret,
			Certificate:      cfg.Casdoor.Cert,
			OrganizationName: cfg.Casdoor.Organization,
			ApplicationName:  cfg.Casdoor.Application,
		})
	}

	a.services = services.NewServiceManager(db, repoManager.GetRepository(), logger, a.validator, services.ServiceManagerConfig{
		SharedPassword:        cfg.SharedPassword,
		Bucket:                cfg.Blob.Bucket,
		FrameFetchConcurrency: cfg.FrameFetchConcurrency,
		Blobs:                 blobs,
		DefaultFillTimeout:    cfg.DefaultFillTimeout,
		Events:                publisher,
		Cache:                 cm,
		Directory:             directory,
	})
	if err := a.services.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	return a, nil
}

// Close shuts the services down (events, database, redis) and then the blob client.
func (a *app) Close(ctx context.Context) {
	if err := a.services.Shutdown(ctx); err != nil {
		a.logger.Error("Failed to shutdown services", "error", err)
	}
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.logger.Error("Failed to close resource", "error", err)
		}
	}
}

// openBlobStore prefers a local directory, then GCS. A GCS client that cannot
// be created leaves frames served by URL only.
func openBlobStore(ctx context.Context, cfg *config.Config, cm *cache.CacheManager, logger *slog.Logger) (blob.Store, func() error) {
	if cfg.Blob.Dir != "" {
		logger.Info("Serving frame images from directory", "dir", cfg.Blob.Dir)
		return blob.NewCachedStore(blob.NewDirStore(cfg.Blob.Dir), cm.Blobs, cfg.Blob.CacheTTL), nil
	}
	if cfg.Blob.Bucket == "" {
		return nil, nil
	}

	gcs, err := blob.NewGCSStore(ctx, cfg.Blob.Bucket, cfg.Blob.CredentialsFile)
	if err != nil {
		logger.Warn("GCS unavailable, images will not be inlined", "error", err, "bucket", cfg.Blob.Bucket)
		return nil, nil
	}
	return blob.NewCachedStore(gcs, cm.Blobs, cfg.Blob.CacheTTL), gcs.Close
}

func openPublisher(cfg *config.Config, logger *slog.Logger) (events.EventPublisher, error) {
	if len(cfg.Kafka.Brokers) > 0 {
		pub, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("Publishing events to Kafka", "brokers", cfg.Kafka.Brokers)
		return pub, nil
	}
	pub, _ := events.NewInProcessPublisher(logger)
	return pub, nil
}
