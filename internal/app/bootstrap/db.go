// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	workspacestore "github.com/dalemusser/channelhub/internal/app/store/workspaces"
	"github.com/dalemusser/channelhub/internal/app/system/indexes"
	"github.com/dalemusser/channelhub/internal/app/system/timeouts"
	"github.com/dalemusser/channelhub/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens the MongoDB client and checks that the primary answers.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize).
		SetAppName("channelhub")

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("ping mongo: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool", appCfg.MongoMaxPoolSize))

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema reconciles indexes and collection validators, then makes
// sure a default workspace exists.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	if err := validators.EnsureAll(ctx, db); err != nil {
		logger.Error("collection validators failed", zap.Error(err))
		return err
	}
	if err := indexes.EnsureAll(ctx, db, logger); err != nil {
		logger.Error("index setup failed", zap.Error(err))
		return err
	}

	ws, err := workspacestore.New(db).EnsureDefault(ctx, appCfg.DefaultWorkspaceName, appCfg.DefaultWorkspaceSubdomain)
	if err != nil {
		return fmt.Errorf("default workspace: %w", err)
	}
	logger.Info("default workspace ready",
		zap.String("workspace_id", ws.ID.Hex()),
		zap.String("subdomain", ws.Subdomain))
	return nil
}
