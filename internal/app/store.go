package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Eswarhead/handcrafted-marketplace/internal/config"
	"github.com/Eswarhead/handcrafted-marketplace/internal/models"
	"github.com/Eswarhead/handcrafted-marketplace/internal/repositories"
	"github.com/Eswarhead/handcrafted-marketplace/pkg/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// stores bundles the repositories selected by DATABASE_DRIVER.
type stores struct {
	products repositories.ProductRepository
	users    repositories.UserRepository
	close    func(context.Context) error
}

func openStores(ctx context.Context, cfg config.DatabaseConfig, lg *zap.Logger) (*stores, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return openGORM(sqlite.Open(cfg.DSN), lg)
	case config.DriverPostgres:
		return openGORM(postgres.Open(cfg.DSN), lg)
	case config.DriverMongo:
		return openMongo(ctx, cfg, lg)
	case config.DriverMemory:
		lg.Warn("using in-memory store, data is lost on restart")
		return &stores{
			products: repositories.NewMemoryProductRepository(),
			users:    repositories.NewMemoryUserRepository(),
			close:    func(context.Context) error { return nil },
		}, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// connectGORM opens a relational database and migrates the catalog schema.
func connectGORM(dialector gorm.Dialector, lg *zap.Logger) (*gorm.DB, error) {
	level := gormlogger.Warn
	if lg.Core().Enabled(zap.DebugLevel) {
		level = gormlogger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.NewGormLogger(lg, level, slowQueryThreshold),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.User{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return db, nil
}

func openGORM(dialector gorm.Dialector, lg *zap.Logger) (*stores, error) {
	db, err := connectGORM(dialector, lg)
	if err != nil {
		return nil, err
	}
	lg.Info("database connected", zap.String("dialect", dialector.Name()))
	return &stores{
		products: repositories.NewGORMProductRepository(db),
		users:    repositories.NewGORMUserRepository(db),
		close: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}, nil
}

func openMongo(ctx context.Context, cfg config.DatabaseConfig, lg *zap.Logger) (*stores, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(cfg.MongoDatabase)
	products := repositories.NewMongoProductRepository(db)
	users := repositories.NewMongoUserRepository(db)
	if err := products.EnsureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	if err := users.EnsureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	lg.Info("mongo connected", zap.String("database", cfg.MongoDatabase))
	return &stores{products: products, users: users, close: client.Disconnect}, nil
}
