// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// ports, TLS, logging and CORS; everything specific to the dashboards
// lives here and is passed to every lifecycle hook.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: channelhub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Client flags cookie (seen markers, dismissed banners)
	FlagsKey  string
	FlagsName string

	// Counter endpoints on another instance. Blank reads counters locally.
	StatsAPIBaseURL string
	StatsAPIKey     string

	// Dashboard sessions
	DashboardSessionIdle   time.Duration // end a dashboard session after this much silence
	DashboardSweepInterval time.Duration // how often idle sessions are swept

	// Operation timeouts; zero keeps the built-in default.
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration

	PageSize int // default rows per tab page

	// Default workspace, created when none exists
	DefaultWorkspaceName      string
	DefaultWorkspaceSubdomain string

	// SuperAdmin bootstrap
	SuperAdminLogin    string
	SuperAdminPassword string
}
