package database

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/opencourselab/lecture-api/internal/models"
	"github.com/opencourselab/lecture-api/pkg/config"
)

type DB struct {
	*gorm.DB
}

// Options configures the database connection pool
type Options struct {
	MaxConnections        int
	MaxIdleConnections    int
	ConnectionMaxLifetime time.Duration
	Verbose               bool
}

func (o *Options) withDefaults() Options {
	opts := Options{
		MaxConnections:        100,
		MaxIdleConnections:    10,
		ConnectionMaxLifetime: time.Hour,
	}
	if o == nil {
		return opts
	}
	if o.MaxConnections > 0 {
		opts.MaxConnections = o.MaxConnections
	}
	if o.MaxIdleConnections > 0 {
		opts.MaxIdleConnections = o.MaxIdleConnections
	}
	if o.ConnectionMaxLifetime > 0 {
		opts.ConnectionMaxLifetime = o.ConnectionMaxLifetime
	}
	opts.Verbose = o.Verbose
	return opts
}

// Initialize opens a connection to the configured database. A postgres:// URL
// gets the postgres driver; anything else is treated as a sqlite path, which
// keeps local development and tests on the same code path.
func Initialize(url string, options *Options) (*DB, error) {
	opts := options.withDefaults()

	logLevel := logger.Error
	if opts.Verbose {
		logLevel = logger.Info
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var (
		db  *gorm.DB
		err error
	)
	if isPostgresURL(url) {
		db, err = gorm.Open(postgres.Open(url), gormConfig)
	} else {
		db, err = gorm.Open(sqlite.Open(url), gormConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL database: %w", err)
	}

	sqlDB.SetMaxIdleConns(opts.MaxIdleConnections)
	sqlDB.SetMaxOpenConns(opts.MaxConnections)
	sqlDB.SetConnMaxLifetime(opts.ConnectionMaxLifetime)

	return &DB{DB: db}, nil
}

func isPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://")
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL database: %w", err)
	}
	return sqlDB.Close()
}

// HealthCheck verifies the database connection is working
func (db *DB) HealthCheck() error {
	if db == nil || db.DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

// Migrate creates the vector extension when running on postgres and then
// auto-migrates every table this service owns
func (db *DB) Migrate() error {
	if db.DB.Dialector.Name() == "postgres" {
		if err := db.DB.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
			return fmt.Errorf("failed to create vector extension: %w", err)
		}
	}

	return db.AutoMigrate(
		&models.IngestionJob{},
		&models.LectureChunk{},
		&models.LectureChunkVector{},
		&models.LectureSummaryEmbedding{},
		&models.LectureQuiz{},
	)
}

// InitializeWithMigrations opens the database named by the configuration and
// migrates the schema. Used by every entry point that needs storage.
func InitializeWithMigrations() (*DB, error) {
	url := config.GetString("database.url")
	if url == "" {
		return nil, fmt.Errorf("database url is not configured")
	}

	db, err := Initialize(url, &Options{
		MaxConnections:        config.GetInt("database.max_connections"),
		MaxIdleConnections:    config.GetInt("database.max_idle_connections"),
		ConnectionMaxLifetime: config.GetDuration("database.connection_max_lifetime"),
		Verbose:               config.GetBool("database.verbose"),
	})
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// AutoMigrate runs GORM auto migration for the provided models
func (db *DB) AutoMigrate(tables ...any) error {
	if err := db.DB.AutoMigrate(tables...); err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}
	log.Printf("Successfully migrated %d model(s)", len(tables))
	return nil
}
