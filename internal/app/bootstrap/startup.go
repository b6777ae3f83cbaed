// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dalemusser/channelhub/internal/app/features/dashboards"
	metricsstore "github.com/dalemusser/channelhub/internal/app/store/metrics"
	userstore "github.com/dalemusser/channelhub/internal/app/store/users"
	"github.com/dalemusser/channelhub/internal/app/system/dashsession"
	"github.com/dalemusser/channelhub/internal/app/system/ratelimit"
	"github.com/dalemusser/channelhub/internal/app/system/statsclient"
	"github.com/dalemusser/channelhub/internal/app/system/status"
	"github.com/dalemusser/channelhub/internal/app/system/timeouts"
	"github.com/dalemusser/channelhub/internal/app/system/workers"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// services are the long-lived pieces built in Startup and shared by
// BuildHandler and Shutdown.
type services struct {
	stats    *metricsstore.Service
	registry *dashsession.Registry
	guard    *ratelimit.LoginGuard
	sweeper  *workers.SessionSweeper
}

var (
	runMu sync.Mutex
	run   *services
)

func current() *services {
	runMu.Lock()
	defer runMu.Unlock()
	return run
}

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It applies
// timeouts, bootstraps the superadmin and starts the dashboard session
// registry with its idle sweeper.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
	})

	if appCfg.SuperAdminLogin != "" {
		if err := ensureSuperAdmin(ctx, deps, appCfg.SuperAdminLogin, appCfg.SuperAdminPassword, logger); err != nil {
			return fmt.Errorf("superadmin bootstrap: %w", err)
		}
	}

	// Counters come from the remote endpoints when configured; otherwise
	// the assembler counts locally.
	var remote metricsstore.Remote
	if appCfg.StatsAPIBaseURL != "" {
		c := statsclient.New(appCfg.StatsAPIBaseURL, &http.Client{Timeout: timeouts.Short()}, logger)
		c.APIKey = appCfg.StatsAPIKey
		remote = c
		logger.Info("reading counters remotely", zap.String("base_url", appCfg.StatsAPIBaseURL))
	}
	stats := metricsstore.NewService(deps.MongoDatabase, remote, logger)

	fetchers := dashboards.NewFetchers(deps.MongoDatabase, stats, logger)
	reg := dashsession.NewRegistry(fetchers.Build, logger)
	guard := ratelimit.NewLoginGuard()

	sweeper := workers.NewSessionSweeper(reg, logger, appCfg.DashboardSweepInterval, appCfg.DashboardSessionIdle)
	sweeper.AlsoPrune(guard)
	sweeper.Start()

	runMu.Lock()
	run = &services{stats: stats, registry: reg, guard: guard, sweeper: sweeper}
	runMu.Unlock()

	logger.Info("dashboard sessions ready",
		zap.Duration("idle", appCfg.DashboardSessionIdle),
		zap.Duration("sweep_interval", appCfg.DashboardSweepInterval))
	return nil
}

// ensureSuperAdmin makes loginID a superadmin. An existing user is promoted
// and detached from any workspace; a missing one is created with password,
// which must then be set.
func ensureSuperAdmin(ctx context.Context, deps DBDeps, loginID, password string, logger *zap.Logger) error {
	users := userstore.New(deps.MongoDatabase)

	u, err := users.GetByLoginID(ctx, loginID)
	switch {
	case err == nil:
		if u.Role == models.RoleSuperAdmin && u.WorkspaceID == nil {
			return nil
		}
		_, err := deps.MongoDatabase.Collection("users").UpdateOne(ctx,
			bson.M{"_id": u.ID},
			bson.M{
				"$set":   bson.M{"role": models.RoleSuperAdmin, "status": status.Active, "updated_at": time.Now().UTC()},
				"$unset": bson.M{"workspace_id": ""},
			})
		if err != nil {
			return err
		}
		logger.Info("promoted user to superadmin",
			zap.String("user_id", u.ID.Hex()),
			zap.String("previous_role", u.Role))
		return nil

	case errors.Is(err, userstore.ErrNotFound):
		if password == "" {
			return errors.New("superadmin_password is required to create " + loginID)
		}
		created, err := users.Create(ctx, models.User{
			FullName: "Super Admin",
			LoginID:  loginID,
			Role:     models.RoleSuperAdmin,
		}, password)
		if err != nil {
			return err
		}
		logger.Info("created superadmin", zap.String("user_id", created.ID.Hex()))
		return nil

	default:
		return err
	}
}
