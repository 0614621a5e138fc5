package persistence

import (
	"fmt"
	"time"

	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Database holds the database connection
type Database struct {
	DB *gorm.DB
}

// Options tunes the GORM logger
type Options struct {
	Logger        *zap.Logger
	LogLevel      string
	SlowThreshold time.Duration
}

func (o Options) gormConfig() *gorm.Config {
	zl := o.Logger
	if zl == nil {
		zl = zap.NewNop()
	}
	return &gorm.Config{
		Logger:                 logger.NewGormLogger(zl, logger.MapGormLogLevel(o.LogLevel), o.SlowThreshold),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}
}

// NewDatabase connects to PostgreSQL and configures the pool
func NewDatabase(cfg *config.DatabaseConfig, opts Options) (*Database, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), opts.gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Database{DB: db}, nil
}

// NewSQLiteDatabase opens a SQLite database and creates the ledger tables.
// It backs ledgerctl's local mode and tests; SQLite serialises writers, so
// the pool is limited to one connection.
func NewSQLiteDatabase(path string, opts Options) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(path), opts.gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	d := &Database{DB: db}
	if err := d.AutoMigrate(); err != nil {
		return nil, err
	}
	return d, nil
}

// AutoMigrate creates or updates the ledger tables from the models.
// PostgreSQL deployments use the SQL migrations instead.
func (d *Database) AutoMigrate() error {
	if err := d.DB.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate ledger tables: %w", err)
	}
	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}
