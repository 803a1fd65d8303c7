package blob

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Config selects and parameterises a blob driver.
type Config struct {
	Driver Driver
	FSRoot string
	S3     S3Config
	GCS    GCSConfig
}

// ConfigFromEnv overlays environment variables on base.
//
//	LEGFED_BLOB_DRIVER: fs|s3|gs|memory (default fs)
//	LEGFED_BLOB_FS_ROOT: directory root when driver=fs (default .)
//	LEGFED_BLOB_S3_BUCKET, LEGFED_BLOB_S3_REGION, LEGFED_BLOB_S3_ENDPOINT,
//	LEGFED_BLOB_S3_PATH_STYLE: S3 / MinIO settings
//	LEGFED_BLOB_GS_BUCKET, LEGFED_BLOB_GS_ENDPOINT: Cloud Storage settings
func ConfigFromEnv(base Config) Config {
	cfg := base
	if v := os.Getenv("LEGFED_BLOB_DRIVER"); v != "" {
		cfg.Driver = Driver(strings.ToLower(v))
	}
	if v := os.Getenv("LEGFED_BLOB_FS_ROOT"); v != "" {
		cfg.FSRoot = v
	}
	if v := os.Getenv("LEGFED_BLOB_S3_BUCKET"); v != "" {
		cfg.S3.Bucket = v
	}
	if v := os.Getenv("LEGFED_BLOB_S3_REGION"); v != "" {
		cfg.S3.Region = v
	}
	if v := os.Getenv("LEGFED_BLOB_S3_ENDPOINT"); v != "" {
		cfg.S3.Endpoint = v
	}
	if v := os.Getenv("LEGFED_BLOB_S3_PATH_STYLE"); v != "" {
		cfg.S3.PathStyle = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("LEGFED_BLOB_GS_BUCKET"); v != "" {
		cfg.GCS.Bucket = v
	}
	if v := os.Getenv("LEGFED_BLOB_GS_ENDPOINT"); v != "" {
		cfg.GCS.Endpoint = v
	}
	return cfg
}

// Open constructs the store selected by cfg.
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return NewFilesystem(cfg.FSRoot)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	case DriverGCS:
		return NewGCS(ctx, cfg.GCS)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
