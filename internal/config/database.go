package config

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront-service/internal/models"
)

// InitDB opens the postgres connection and runs schema migration
func InitDB(cfg *Config) (*gorm.DB, error) {
	logLevel := logger.Info
	if cfg.IsProduction() {
		logLevel = logger.Error
	}

	db, err := gorm.Open(postgres.Open(cfg.GetDatabaseDSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.Product{},
		&models.ShippingRule{},
		&models.Bundle{},
		&models.BundleProduct{},
		&models.Coupon{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderCounter{},
	); err != nil {
		return nil, fmt.Errorf("auto-migration failed: %w", err)
	}

	return db, nil
}

// InitRedis connects to redis. A nil client is returned when redis is
// unreachable; callers treat that as cache-disabled rather than fatal.
func InitRedis(cfg *Config, log *logrus.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without cache")
		return nil
	}

	log.Info("Connected to Redis")
	return client
}
