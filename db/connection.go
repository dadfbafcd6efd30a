package db

import (
	"database/sql"
	"errors"
	"fmt"
	stdlog "log"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrUnknownDatabaseType = errors.New("unknown database type")

// Config selects the database backend findings are persisted to
type Config struct {
	Type        string `validate:"oneof=sqlite postgres"`
	SQLitePath  string `validate:"required_if=Type sqlite"`
	PostgresDSN string `validate:"required_if=Type postgres"`
}

type DatabaseConnection struct {
	db    *gorm.DB
	sqlDb *sql.DB
}

func dialectorFor(config Config) (gorm.Dialector, error) {
	switch config.Type {
	case "", "sqlite":
		path := config.SQLitePath
		if path == "" {
			path = "upload-scanner.db"
		}
		return sqlite.Open(path), nil
	case "postgres":
		if config.PostgresDSN == "" {
			return nil, errors.New("postgres dsn not set")
		}
		return postgres.Open(config.PostgresDSN), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDatabaseType, config.Type)
	}
}

// NewConnection opens the configured database and migrates the schema
func NewConnection(config Config) (*DatabaseConnection, error) {
	dialector, err := dialectorFor(config)
	if err != nil {
		return nil, err
	}

	newLogger := logger.New(
		stdlog.New(os.Stdout, "\r\n", stdlog.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Silent,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&Issue{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database connection: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(80)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Debug().Str("type", config.Type).Msg("Database connection established")
	return &DatabaseConnection{
		db:    db,
		sqlDb: sqlDB,
	}, nil
}

// Close releases the underlying connection pool
func (d *DatabaseConnection) Close() error {
	return d.sqlDb.Close()
}
