package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Model source kinds.
const (
	SourceDir     = "dir"
	SourceArchive = "archive"
)

// Archive store kinds.
const (
	StoreS3    = "s3"
	StoreAzure = "azure"
	StoreFile  = "file"
)

type Config struct {
	Server struct {
		Addr        string   `mapstructure:"addr"`
		Port        string   `mapstructure:"port"`
		Mode        string   `mapstructure:"mode"` // gin mode: debug, release, test
		CORSOrigins []string `mapstructure:"cors_origins"`
	} `mapstructure:"server"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"` // text or json
	} `mapstructure:"log"`

	Model struct {
		Source         string `mapstructure:"source"` // "dir" or "archive"
		Dir            string `mapstructure:"dir"`
		ModelSubdir    string `mapstructure:"model_subdir"`
		LabelsFile     string `mapstructure:"labels_file"`
		MaxLength      int    `mapstructure:"max_length"`
		Eager          bool   `mapstructure:"eager"`
		Endpoint       string `mapstructure:"endpoint"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds"`
		MaxRetries     int    `mapstructure:"max_retries"`
		Archive        struct {
			Store string `mapstructure:"store"` // "s3", "azure" or "file"
			Key   string `mapstructure:"key"`
		} `mapstructure:"archive"`
	} `mapstructure:"model"`

	Storage struct {
		S3 struct {
			Bucket       string `mapstructure:"bucket"`
			Region       string `mapstructure:"region"`
			Endpoint     string `mapstructure:"endpoint"` // MinIO, R2, etc.
			Prefix       string `mapstructure:"prefix"`
			UsePathStyle bool   `mapstructure:"use_path_style"`
		} `mapstructure:"s3"`
		Azure struct {
			ConnectionString string `mapstructure:"connection_string"`
			Container        string `mapstructure:"container"`
		} `mapstructure:"azure"`
	} `mapstructure:"storage"`

	Database struct {
		Driver string `mapstructure:"driver"` // sqlite3 or pgx
		DSN    string `mapstructure:"dsn"`
	} `mapstructure:"database"`

	Redis struct {
		Enabled  bool   `mapstructure:"enabled"` // background reclassification via the worker
		Address  string `mapstructure:"address"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Worker struct {
		Concurrency int            `mapstructure:"concurrency"`
		Queues      map[string]int `mapstructure:"queues"`
	} `mapstructure:"worker"`
}

// Timeout returns the model backend request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Model.TimeoutSeconds) * time.Second
}

// ListenAddr returns the host:port the API server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Addr, c.Server.Port)
}

// setDefaults registers every key, zero values included: Unmarshal only
// consults the environment for keys viper already knows about.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "0.0.0.0")
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("model.source", SourceDir)
	v.SetDefault("model.dir", "model")
	v.SetDefault("model.model_subdir", "final_model")
	v.SetDefault("model.labels_file", "label_encoder.json")
	v.SetDefault("model.max_length", 256)
	v.SetDefault("model.endpoint", "http://127.0.0.1:8080/predictions/book-genre")
	v.SetDefault("model.timeout_seconds", 30)
	v.SetDefault("model.max_retries", 2)
	v.SetDefault("model.eager", false)
	v.SetDefault("model.archive.store", StoreS3)
	v.SetDefault("model.archive.key", "")

	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.prefix", "")
	v.SetDefault("storage.s3.use_path_style", false)
	v.SetDefault("storage.azure.connection_string", "")
	v.SetDefault("storage.azure.container", "")

	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "books.sqlite")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("worker.concurrency", 4)
	v.SetDefault("worker.queues", map[string]int{"classify": 1})
}

// LoadConfig reads config.yaml (or cfgFile when set) and overlays environment
// variables. Every key can be set as BOOKGENRE_<SECTION>_<KEY>; the variables
// S3_BUCKET, S3_TARBALL_KEY, PORT and AZURE_STORAGE_CONNECTION_STRING are bound too.
func LoadConfig(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("BOOKGENRE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("storage.s3.bucket", "BOOKGENRE_STORAGE_S3_BUCKET", "S3_BUCKET")
	v.BindEnv("model.archive.key", "BOOKGENRE_MODEL_ARCHIVE_KEY", "S3_TARBALL_KEY")
	v.BindEnv("server.port", "BOOKGENRE_SERVER_PORT", "PORT")
	v.BindEnv("storage.azure.connection_string", "BOOKGENRE_STORAGE_AZURE_CONNECTION_STRING", "AZURE_STORAGE_CONNECTION_STRING")

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; defaults and env vars still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	return &config, nil
}
