package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"KrishiMitra/internal/logger"
)

// DB is the process-wide handle used by the repos.
var DB *gorm.DB

// Config selects the backing database.
type Config struct {
	Driver      string `json:"driver"`       // sqlite | postgres
	SQLitePath  string `json:"sqlite_path"`  // ":memory:" for throwaway stores
	PostgresDSN string `json:"postgres_dsn"` // used when Driver is postgres
}

// Open connects and migrates without touching DB.
func Open(cfg Config, debug bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite":
		path := cfg.SQLitePath
		if path == "" {
			path = ":memory:"
		}
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
			path += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
		}
		dialector = sqlite.Open(path)
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres driver selected but postgres_dsn is empty")
		}
		dialector = postgres.Open(cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	level := gormlogger.Silent
	if debug {
		level = gormlogger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  gormlogger.Default.LogMode(level),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if sqlDB, err := db.DB(); err == nil && dialector.Name() == "sqlite" {
		// one writer; also keeps ":memory:" on a single connection
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&Setting{}, &Activity{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Init opens the database and installs it as DB.
func Init(cfg Config, debug bool) error {
	db, err := Open(cfg, debug)
	if err != nil {
		return err
	}
	DB = db
	logger.Log.Info().Str("driver", db.Dialector.Name()).Msg("database ready")
	return nil
}

// Close releases DB.
func Close() {
	if DB == nil {
		return
	}
	if sqlDB, err := DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
