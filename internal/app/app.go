package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"bookgenre/internal/artifacts"
	"bookgenre/internal/config"
	"bookgenre/internal/inference"
	"bookgenre/internal/services"
	"bookgenre/internal/store"
	"bookgenre/internal/store/primary"
	"bookgenre/pkg/genre"
)

type App struct {
	Config *config.Config

	BookStore store.BookStore
	JobStore  store.JobStore
	JobClient store.JobClient // nil unless redis.enabled
	Redis     *redis.Client   // nil unless redis.enabled

	// Artifacts caches the loaded model artifacts. Archive is set only for
	// the archive source.
	Artifacts *artifacts.Lazy
	Archive   *artifacts.Archive
	Predictor *genre.Predictor

	PredictionService *services.PredictionService
	BookService       *services.BookService

	db *primary.StoreImpl
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}
	setupLogging(cfg)

	if err := app.initPrimaryStore(ctx); err != nil {
		return nil, err
	}
	if err := app.initJobClient(); err != nil {
		app.Close()
		return nil, err
	}
	if err := app.initModel(ctx); err != nil {
		app.Close()
		return nil, err
	}
	app.initServices()

	log.Debug("Application initialization complete.")
	return app, nil
}

// setupLogging applies the log level and format from config.
func setupLogging(cfg *config.Config) {
	if lvl, err := log.ParseLevel(cfg.Log.Level); err == nil {
		log.SetLevel(lvl)
	} else if cfg.Log.Level != "" {
		log.Warnf("Unknown log level %q, keeping %s", cfg.Log.Level, log.GetLevel())
	}
	if strings.EqualFold(cfg.Log.Format, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	log.SetOutput(os.Stderr)
}

// --- Private Helper Methods ---

func (a *App) initPrimaryStore(ctx context.Context) error {
	ps, err := primary.NewPrimaryStore(ctx, a.Config.Database.Driver, a.Config.Database.DSN)
	if err != nil {
		return fmt.Errorf("init primary store: %w", err)
	}
	a.db = ps
	a.BookStore = ps
	a.JobStore = ps
	return nil
}

func (a *App) initJobClient() error {
	cfg := a.Config
	if !cfg.Redis.Enabled {
		log.Debug("Redis disabled, reclassification runs inline")
		return nil
	}
	jc, err := store.NewAsynqJobClient(RedisOpt(cfg), a.JobStore)
	if err != nil {
		return fmt.Errorf("init job client: %w", err)
	}
	a.JobClient = jc
	a.Redis = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return nil
}

// RedisOpt returns the asynq connection options from config.
func RedisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
}

func (a *App) initModel(ctx context.Context) error {
	cfg := a.Config
	dir, err := config.ResolveModelDir(cfg.Model.Dir, cfg.Model.Source)
	if err != nil {
		return fmt.Errorf("resolve model dir: %w", err)
	}

	client := inference.NewClient(inference.Options{
		Endpoint: cfg.Model.Endpoint,
		Timeout:  cfg.Timeout(),
		Retry:    &inference.ExponentialBackoff{MaxRetries: cfg.Model.MaxRetries, BaseDelayMs: 200},
	})
	opts := artifacts.DirOptions{
		Dir:         dir,
		ModelSubdir: cfg.Model.ModelSubdir,
		LabelsFile:  cfg.Model.LabelsFile,
		MaxLength:   cfg.Model.MaxLength,
		Model:       client,
	}

	var provider genre.Loader
	switch cfg.Model.Source {
	case config.SourceArchive:
		objects, key, err := newObjectStore(ctx, cfg)
		if err != nil {
			return err
		}
		a.Archive = artifacts.NewArchive(objects, key, opts)
		provider = a.Archive
	default:
		provider = artifacts.NewDir(opts)
	}

	a.Artifacts = artifacts.NewLazy(provider)
	a.Predictor = genre.NewPredictor(a.Artifacts)

	log.WithFields(log.Fields{
		"source":   cfg.Model.Source,
		"dir":      dir,
		"endpoint": cfg.Model.Endpoint,
	}).Info("Model configured")

	if cfg.Model.Eager {
		if _, err := a.Artifacts.Load(ctx); err != nil {
			return fmt.Errorf("load model artifacts: %w", err)
		}
	}
	return nil
}

// newObjectStore builds the store holding the model bundle and the key of
// the bundle within it.
func newObjectStore(ctx context.Context, cfg *config.Config) (artifacts.ObjectStore, string, error) {
	key := cfg.Model.Archive.Key
	switch cfg.Model.Archive.Store {
	case config.StoreS3:
		s3cfg := cfg.Storage.S3
		client, err := artifacts.NewS3Client(ctx, artifacts.S3Options{
			Region:       s3cfg.Region,
			Endpoint:     s3cfg.Endpoint,
			UsePathStyle: s3cfg.UsePathStyle,
		})
		if err != nil {
			return nil, "", fmt.Errorf("init s3 client: %w", err)
		}
		return artifacts.NewS3(client, s3cfg.Bucket, s3cfg.Prefix), key, nil
	case config.StoreAzure:
		az := cfg.Storage.Azure
		st, err := artifacts.NewAzureFromConnectionString(az.ConnectionString, az.Container)
		if err != nil {
			return nil, "", fmt.Errorf("init azure blob client: %w", err)
		}
		return st, key, nil
	case config.StoreFile:
		st, err := artifacts.NewLocal(filepath.Dir(key))
		if err != nil {
			return nil, "", fmt.Errorf("init local bundle store: %w", err)
		}
		return st, filepath.Base(key), nil
	}
	return nil, "", fmt.Errorf("unknown archive store %q", cfg.Model.Archive.Store)
}

func (a *App) initServices() {
	a.PredictionService = services.NewPredictionService(a.Predictor, a.Artifacts)
	a.BookService = services.NewBookService(a.BookStore, a.PredictionService, a.JobClient)
}

// Close releases the job client, Redis connection and database.
func (a *App) Close() {
	if a.JobClient != nil {
		if err := a.JobClient.Close(); err != nil {
			log.WithError(err).Warn("Error closing job client")
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			log.WithError(err).Warn("Error closing redis client")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.WithError(err).Warn("Error closing database")
		}
	}
}

// Ping checks the database connection.
func (a *App) Ping(ctx context.Context) error {
	return a.BookStore.Ping(ctx)
}
