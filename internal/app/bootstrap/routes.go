// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	agentsfeature "github.com/dalemusser/channelhub/internal/app/features/agents"
	channelfeature "github.com/dalemusser/channelhub/internal/app/features/channel"
	dashboardsfeature "github.com/dalemusser/channelhub/internal/app/features/dashboards"
	errorsfeature "github.com/dalemusser/channelhub/internal/app/features/errors"
	flagsfeature "github.com/dalemusser/channelhub/internal/app/features/flags"
	healthfeature "github.com/dalemusser/channelhub/internal/app/features/health"
	heartbeatfeature "github.com/dalemusser/channelhub/internal/app/features/heartbeat"
	jobsfeature "github.com/dalemusser/channelhub/internal/app/features/jobs"
	loginfeature "github.com/dalemusser/channelhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/channelhub/internal/app/features/logout"
	ordersfeature "github.com/dalemusser/channelhub/internal/app/features/orders"
	referralsfeature "github.com/dalemusser/channelhub/internal/app/features/referrals"
	statsfeature "github.com/dalemusser/channelhub/internal/app/features/stats"
	withdrawalsfeature "github.com/dalemusser/channelhub/internal/app/features/withdrawals"
	userstore "github.com/dalemusser/channelhub/internal/app/store/users"
	"github.com/dalemusser/channelhub/internal/app/system/auth"
	"github.com/dalemusser/channelhub/internal/app/system/flags"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. Everything under /api speaks JSON; the dashboard
// session registry built in Startup is shared by login, logout, heartbeat,
// the tab API and every feature that invalidates tabs.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	svc := current()
	if svc == nil {
		return nil, errors.New("startup has not run")
	}
	db := deps.MongoDatabase
	reg := svc.registry

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// LoadSessionUser fetches fresh user data on each request, so role
	// changes and disabled accounts take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	flagStore := flags.NewStore([]byte(appCfg.FlagsKey), appCfg.FlagsName, secure)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, reg, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(db, sessionMgr, reg, svc.guard, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, reg, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	// Error responses
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	r.Route("/api", func(api chi.Router) {
		// Dashboard session keep-alive
		heartbeatHandler := heartbeatfeature.NewHandler(reg, logger)
		api.Mount("/heartbeat", heartbeatfeature.Routes(heartbeatHandler, sessionMgr))

		// Tab API for the four dashboards
		dashHandler := dashboardsfeature.NewHandler(reg, sessionMgr, appCfg.PageSize, logger)
		api.Mount("/dashboards", dashboardsfeature.Routes(dashHandler, sessionMgr))

		// Commerce administration
		agentsHandler := agentsfeature.NewHandler(db, reg, logger)
		api.Mount("/agents", agentsfeature.Routes(agentsHandler, sessionMgr))

		ordersHandler := ordersfeature.NewHandler(db, reg, logger)
		api.Mount("/orders", ordersfeature.Routes(ordersHandler, sessionMgr))

		withdrawalsHandler := withdrawalsfeature.NewHandler(db, reg, logger)
		api.Mount("/withdrawals", withdrawalsfeature.Routes(withdrawalsHandler, sessionMgr))

		referralsHandler := referralsfeature.NewHandler(db, reg, logger)
		api.Mount("/referrals", referralsfeature.Routes(referralsHandler, sessionMgr))

		jobsHandler := jobsfeature.NewHandler(db, reg, logger)
		api.Mount("/jobs", jobsfeature.Routes(jobsHandler, sessionMgr))

		// Teaching channels
		channelHandler := channelfeature.NewHandler(db, reg, logger)
		api.Mount("/channel", channelfeature.Routes(channelHandler, sessionMgr))

		// Client flags
		flagsHandler := flagsfeature.NewHandler(flagStore, logger)
		api.Mount("/flags", flagsfeature.Routes(flagsHandler))

		// Counter endpoints (/api/stats/wholesale, /api/alerts/pending)
		statsHandler := statsfeature.NewHandler(svc.stats, appCfg.StatsAPIKey, logger)
		api.Mount("/", statsfeature.Routes(statsHandler))
	})

	return r, nil
}
