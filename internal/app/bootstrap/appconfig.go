// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS,
// logging, CORS); AppConfig is everything specific to this application.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Bearer token configuration
	JWTSecret string        // Secret for signing API tokens (must be strong in production)
	JWTTTL    time.Duration // Token lifetime

	// Invitation and password reset link expiry
	InviteExpiry time.Duration
	ResetExpiry  time.Duration

	// File storage configuration
	StorageLocalPath string // Local storage path (e.g., "./uploads")
	StorageLocalURL  string // URL prefix for serving local files (e.g., "/files")

	// Email/SMTP configuration
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string

	// Site identity used in emails and the public API
	SiteName string
	BaseURL  string // e.g., "https://iedc.example.edu" or "http://localhost:3000"

	// Admin bootstrap: an invited admin account is created for this email
	// on startup if no admin exists yet.
	AdminEmail string
}
