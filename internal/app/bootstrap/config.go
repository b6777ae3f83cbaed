// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"net/url"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// minProdKeyLen is the shortest signing key accepted outside dev.
const minProdKeyLen = 32

// appConfigKeys defines the configuration keys for ChannelHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: CHANNELHUB_MONGO_URI, CHANNELHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "channelhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "channelhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session cookie lifetime (e.g., 24h, 30m)"},

	// Client flags cookie
	{Name: "flags_key", Default: "dev-only-flags-key-0123456789ABCDEF", Desc: "Signing key for the client flags cookie"},
	{Name: "flags_name", Default: "channelhub-flags", Desc: "Client flags cookie name"},

	// Counter endpoints
	{Name: "stats_api_base_url", Default: "", Desc: "Base URL of the counter endpoints (blank reads counters locally)"},
	{Name: "stats_api_key", Default: "", Desc: "Bearer token for the counter endpoints"},

	// Dashboard sessions
	{Name: "dashboard_session_idle", Default: "30m", Desc: "End a dashboard session after this long without a request"},
	{Name: "dashboard_sweep_interval", Default: "1m", Desc: "How often idle dashboard sessions are swept"},

	// Timeouts
	{Name: "timeout_short", Default: "", Desc: "Timeout for single-document operations (blank keeps default)"},
	{Name: "timeout_medium", Default: "", Desc: "Timeout for tab fetches and list queries (blank keeps default)"},

	{Name: "page_size", Default: 20, Desc: "Default rows per tab page"},

	// Default workspace configuration
	{Name: "default_workspace_name", Default: "Default", Desc: "Display name for default workspace"},
	{Name: "default_workspace_subdomain", Default: "app", Desc: "Subdomain for default workspace"},

	// SuperAdmin bootstrap
	{Name: "superadmin_login", Default: "", Desc: "Login id of the superadmin user (promotes/creates on startup)"},
	{Name: "superadmin_password", Default: "", Desc: "Initial password when the superadmin is created"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, CHANNELHUB_* for app) and
// command-line flags, merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CHANNELHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 24*time.Hour),

		FlagsKey:  appValues.String("flags_key"),
		FlagsName: appValues.String("flags_name"),

		StatsAPIBaseURL: appValues.String("stats_api_base_url"),
		StatsAPIKey:     appValues.String("stats_api_key"),

		DashboardSessionIdle:   appValues.Duration("dashboard_session_idle", 30*time.Minute),
		DashboardSweepInterval: appValues.Duration("dashboard_sweep_interval", time.Minute),

		TimeoutShort:  appValues.Duration("timeout_short", 0),
		TimeoutMedium: appValues.Duration("timeout_medium", 0),

		PageSize: appValues.Int("page_size"),

		DefaultWorkspaceName:      appValues.String("default_workspace_name"),
		DefaultWorkspaceSubdomain: appValues.String("default_workspace_subdomain"),

		SuperAdminLogin:    appValues.String("superadmin_login"),
		SuperAdminPassword: appValues.String("superadmin_password"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The MongoDB URI is checked before any connection is attempted.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if coreCfg.Env == "prod" {
		if len(appCfg.SessionKey) < minProdKeyLen {
			return fmt.Errorf("session_key must be at least %d characters in prod", minProdKeyLen)
		}
		if len(appCfg.FlagsKey) < minProdKeyLen {
			return fmt.Errorf("flags_key must be at least %d characters in prod", minProdKeyLen)
		}
	}

	if appCfg.StatsAPIBaseURL != "" {
		u, err := url.Parse(appCfg.StatsAPIBaseURL)
		if err != nil || !u.IsAbs() || u.Host == "" {
			return fmt.Errorf("stats_api_base_url must be an absolute URL, got %q", appCfg.StatsAPIBaseURL)
		}
	}

	if appCfg.DashboardSessionIdle <= 0 || appCfg.DashboardSweepInterval <= 0 {
		return fmt.Errorf("dashboard_session_idle and dashboard_sweep_interval must be positive")
	}

	if appCfg.PageSize < 1 {
		return fmt.Errorf("page_size must be at least 1, got %d", appCfg.PageSize)
	}

	return nil
}
