// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/medinotify/portal/internal/app/events"
	"github.com/medinotify/portal/internal/app/system/indexes"
	"github.com/medinotify/portal/internal/app/system/timeouts"
)

// ConnectDB dials MongoDB and the optional backends (RabbitMQ, Redis).
// Mongo is required; the optional backends fail startup only when they are
// configured but unreachable, so a typo'd AMQP URL is caught immediately
// rather than silently dropping events.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(appCfg.MongoURI))
	if err != nil {
		return DBDeps{}, fmt.Errorf("connect mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("ping mongodb: %w", err)
	}

	deps := DBDeps{
		MongoClient: client,
		MongoDB:     client.Database(appCfg.MongoDatabase),
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	if appCfg.AMQPURL != "" {
		broker, err := events.NewBroker(appCfg.AMQPURL, logger)
		if err != nil {
			_ = client.Disconnect(ctx)
			return DBDeps{}, fmt.Errorf("connect rabbitmq: %w", err)
		}
		deps.Broker = broker
		logger.Info("connected to RabbitMQ")
	}

	if appCfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     appCfg.RedisAddr,
			Password: appCfg.RedisPassword,
		})
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = client.Disconnect(ctx)
			if deps.Broker != nil {
				_ = deps.Broker.Close()
			}
			return DBDeps{}, fmt.Errorf("ping redis: %w", err)
		}
		deps.Redis = rdb
		logger.Info("connected to Redis", zap.String("addr", appCfg.RedisAddr))
	}

	return deps, nil
}

// EnsureSchema creates the MongoDB indexes the stores rely on. Safe to run
// on every startup; index creation is idempotent.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := indexes.EnsureAll(ctx, deps.MongoDB); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	logger.Info("indexes ensured")
	return nil
}
