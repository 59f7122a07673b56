package config

import (
	"errors"
	"fmt"
	"net/url"
)

/*
Validate checks the settings every command relies on:
- Model source and the store backing an archive source
- Model backend endpoint, tokenizer length, timeout and retries
- Database driver and DSN
- Worker concurrency and queues
*/
func (c *Config) Validate() error {
	// Model source
	switch c.Model.Source {
	case SourceDir:
		if c.Model.Dir == "" {
			return errors.New("model.dir is required when model.source is \"dir\"")
		}
	case SourceArchive:
		if c.Model.Archive.Key == "" {
			return errors.New("model.archive.key (or S3_TARBALL_KEY) is required when model.source is \"archive\"")
		}
		switch c.Model.Archive.Store {
		case StoreS3:
			if c.Storage.S3.Bucket == "" {
				return errors.New("storage.s3.bucket (or S3_BUCKET) is required for the s3 archive store")
			}
		case StoreAzure:
			if c.Storage.Azure.ConnectionString == "" || c.Storage.Azure.Container == "" {
				return errors.New("storage.azure.connection_string and storage.azure.container are required for the azure archive store")
			}
		case StoreFile:
		default:
			return fmt.Errorf("model.archive.store must be one of s3, azure, file (got %q)", c.Model.Archive.Store)
		}
	default:
		return fmt.Errorf("model.source must be \"dir\" or \"archive\" (got %q)", c.Model.Source)
	}

	if c.Model.LabelsFile == "" {
		return errors.New("model.labels_file is required")
	}

	// Model backend
	if c.Model.Endpoint == "" {
		return errors.New("model.endpoint is required")
	}
	if u, err := url.Parse(c.Model.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("model.endpoint %q is not an absolute URL", c.Model.Endpoint)
	}
	if c.Model.MaxLength <= 0 {
		return errors.New("model.max_length must be a positive integer")
	}
	if c.Model.TimeoutSeconds <= 0 {
		return errors.New("model.timeout_seconds must be a positive integer")
	}
	if c.Model.MaxRetries < 0 {
		return errors.New("model.max_retries must not be negative")
	}

	// Database
	switch c.Database.Driver {
	case "sqlite3", "pgx":
	default:
		return fmt.Errorf("database.driver must be \"sqlite3\" or \"pgx\" (got %q)", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}

	if c.Redis.Enabled && c.Redis.Address == "" {
		return errors.New("redis.address is required when redis.enabled is true")
	}

	// Worker config
	if c.Worker.Concurrency <= 0 {
		return errors.New("worker.concurrency must be a positive integer")
	}
	for name, priority := range c.Worker.Queues {
		if name == "" {
			return errors.New("worker.queues contains an empty queue name")
		}
		if priority <= 0 {
			return fmt.Errorf("worker.queues priority for queue '%s' must be positive", name)
		}
	}

	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be \"text\" or \"json\" (got %q)", c.Log.Format)
	}

	return nil
}
