package database

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mroshb/friendly/internal/config"
	"github.com/mroshb/friendly/internal/models"
	"github.com/mroshb/friendly/internal/repositories"
	"github.com/mroshb/friendly/pkg/friendly"
	"github.com/mroshb/friendly/pkg/logger"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	var logLevel gormlogger.LogLevel
	if cfg.AppEnv == "development" {
		logLevel = gormlogger.Info
	} else {
		logLevel = gormlogger.Error
	}

	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.GetDSN())
	default:
		dialector = postgres.Open(cfg.GetDSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		// Unique violations surface as gorm.ErrDuplicatedKey
		TranslateError:         true,
		SkipDefaultTransaction: true,
		PrepareStmt:            cfg.DBDriver == config.DriverPostgres,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if cfg.DBDriver == config.DriverSQLite {
		// one writer at a time; concurrent transactions would hit SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
		sqlDB.SetConnMaxIdleTime(10 * time.Minute)
	}

	logger.Info("Database connected", "driver", cfg.DBDriver)
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	if err := db.AutoMigrate(&models.Person{}); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// SetupFriendship makes Person friendly on db and returns the registry and
// store the rest of the application works with. AutoMigrate must run first:
// the edge table references people.
func SetupFriendship(ctx context.Context, db *gorm.DB, cfg *config.Config) (*friendly.Registry, *repositories.FriendshipStore, error) {
	models.UsePersonNamespace(cfg.FriendshipNamespace)

	store := repositories.NewFriendshipStore(db)
	reg := friendly.NewRegistry()

	friendshipCfg, err := friendly.Declare(ctx, reg, store, models.PersonType,
		friendly.WithEdgeType(cfg.FriendshipTypeName),
		friendly.WithAcceptance(cfg.FriendshipRequireAcceptance),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to declare friendship: %w", err)
	}

	edge, err := friendshipCfg.ResolveEdgeType()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve friendship type: %w", err)
	}

	logger.Info("Friendship ready",
		"subject", models.PersonType.QualifiedName(),
		"edge", friendshipCfg.EdgeTypeName(),
		"table", edge.Table,
		"require_acceptance", friendshipCfg.RequireAcceptance(),
	)
	return reg, store, nil
}
