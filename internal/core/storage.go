package core

import (
	"fmt"
	"os"

	"legfed/internal/infra/persistence/memory"
	"legfed/internal/infra/persistence/postgres"
	"legfed/internal/infra/persistence/sqlite"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / dry runs)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// StorageConfig selects and parameterises a backend.
type StorageConfig struct {
	Driver      StorageDriver
	SQLitePath  string
	PostgresDSN string
}

// StorageConfigFromEnv applies environment overrides to base.
//
//	LEGFED_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	LEGFED_SQLITE_PATH: path to sqlite file (default ./legfed.db)
//	LEGFED_POSTGRES_DSN: postgres DSN when driver=postgres
func StorageConfigFromEnv(base StorageConfig) StorageConfig {
	if v := os.Getenv("LEGFED_STORAGE_DRIVER"); v != "" {
		base.Driver = StorageDriver(v)
	}
	if v := os.Getenv("LEGFED_SQLITE_PATH"); v != "" {
		base.SQLitePath = v
	}
	if v := os.Getenv("LEGFED_POSTGRES_DSN"); v != "" {
		base.PostgresDSN = v
	}
	return base
}

// OpenPersistentStore selects a backend using environment variables only.
func OpenPersistentStore(engine *RulesEngine) (PersistentStore, error) {
	return OpenStore(StorageConfigFromEnv(StorageConfig{}), engine)
}

// OpenStore opens the backend described by cfg. Defaults to sqlite.
func OpenStore(cfg StorageConfig, engine *RulesEngine) (PersistentStore, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = StorageSQLite
	}
	switch driver {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		return sqlite.NewStore(cfg.SQLitePath, engine)
	case StoragePostgres:
		return postgres.NewStore(cfg.PostgresDSN, engine)
	default:
		return nil, ConfigError{Msg: fmt.Sprintf("unknown storage driver %s", driver)}
	}
}
