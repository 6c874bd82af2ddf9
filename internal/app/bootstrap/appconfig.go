// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS, logging,
// CORS). AppConfig is everything specific to the portal: backend connection
// strings, session settings, and the credentials for the inbound surfaces.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI      string
	MongoDatabase string

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions
	SessionDomain string // Cookie domain (blank means current host)

	// Shared secret the identity provider presents on webhook calls.
	// Blank disables the webhook surface entirely.
	HookSecret string

	// RabbitMQ connection string for the event pipeline. Blank disables the
	// queue consumer; events then only arrive via webhooks.
	AMQPURL string

	// Redis address for the role-claim cache. Blank disables caching.
	RedisAddr     string
	RedisPassword string

	// Identity provider claims endpoint. Blank means no remote role lookup:
	// every new account provisions as a patient unless created via webhook
	// by an operator-driven flow.
	ClaimsBaseURL string

	// HMAC secret for signed role tokens carried on account-created
	// payloads. Blank disables token verification; roles then come only
	// from the claims endpoint.
	ClaimsTokenSecret string

	// Google OAuth configuration
	GoogleClientID     string
	GoogleClientSecret string

	// Base URL for OAuth callbacks (e.g., "https://portal.example.com")
	BaseURL string
}
