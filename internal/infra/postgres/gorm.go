package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/symph-co/shorturl/config"
	"github.com/symph-co/shorturl/internal/infra/logger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	gormMaxOpenConns    = 10
	gormMaxIdleConns    = 5
	gormConnMaxLifetime = 5 * time.Minute
)

// NewGorm opens the link store's database using application config.
func NewGorm(cfg config.PostgresConfig, log *zap.Logger) (*gorm.DB, error) {
	return OpenGorm(ConnString(cfg), log)
}

// OpenGorm opens dsn with the settings the link store relies on. TranslateError
// turns unique violations into gorm.ErrDuplicatedKey. log may be nil.
func OpenGorm(dsn string, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                                   logger.Gorm(log),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: open gorm connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres: retrieve sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(gormMaxOpenConns)
	sqlDB.SetMaxIdleConns(gormMaxIdleConns)
	sqlDB.SetConnMaxLifetime(gormConnMaxLifetime)

	return db, nil
}

// AutoMigrate creates or alters the tables behind models, including the
// unique slug index.
func AutoMigrate(ctx context.Context, db *gorm.DB, models ...interface{}) error {
	if db == nil || len(models) == 0 {
		return nil
	}
	if err := db.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("postgres: auto migrate: %w", err)
	}
	return nil
}
