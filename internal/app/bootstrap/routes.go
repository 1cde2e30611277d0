// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	eventsfeature "github.com/sarithdm/iedc-website-sub000/internal/app/features/events"
	healthfeature "github.com/sarithdm/iedc-website-sub000/internal/app/features/health"
	loginfeature "github.com/sarithdm/iedc-website-sub000/internal/app/features/login"
	proposalsfeature "github.com/sarithdm/iedc-website-sub000/internal/app/features/proposals"
	registrationsfeature "github.com/sarithdm/iedc-website-sub000/internal/app/features/registrations"
	usersfeature "github.com/sarithdm/iedc-website-sub000/internal/app/features/users"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/auth"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/mailer"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. The router mounts:
//   - /health for load balancers and orchestrators
//   - /files/* serving locally stored uploads
//   - /api/* feature routers: auth, users, registrations, events, proposals
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	tokens, err := auth.NewTokenManager(appCfg.JWTSecret, appCfg.JWTTTL, logger)
	if err != nil {
		logger.Error("token manager init failed", zap.Error(err))
		return nil, err
	}

	store, err := storage.NewLocal(storage.LocalConfig{
		BasePath: appCfg.StorageLocalPath,
		BaseURL:  appCfg.StorageLocalURL,
	})
	if err != nil {
		logger.Error("local storage init failed", zap.Error(err))
		return nil, err
	}

	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		User:     appCfg.MailSMTPUser,
		Pass:     appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)

	r := chi.NewRouter()

	// Global auth middleware: loads the bearer-token user into context so
	// auth.CurrentUser(r) works in every handler.
	r.Use(tokens.LoadTokenUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Get("/health", healthHandler.Serve)

	// Locally stored uploads (member photos, event media)
	r.Handle(appCfg.StorageLocalURL+"/*", fileserver.Handler(appCfg.StorageLocalURL, appCfg.StorageLocalPath))

	// Authentication
	loginHandler := loginfeature.NewHandler(deps.MongoDatabase, tokens, mail, appCfg.SiteName, appCfg.BaseURL, appCfg.ResetExpiry, logger)
	r.Mount("/api/auth", loginfeature.Routes(loginHandler))

	// Member accounts and the public team directory
	usersHandler := usersfeature.NewHandler(deps.MongoDatabase, mail, appCfg.SiteName, appCfg.BaseURL, appCfg.InviteExpiry, logger)
	r.Mount("/api/users", usersfeature.Routes(usersHandler))

	// Membership applications
	regHandler := registrationsfeature.NewHandler(deps.MongoDatabase, store, logger)
	r.Mount("/api/registrations", registrationsfeature.Routes(regHandler))

	// Events
	eventsHandler := eventsfeature.NewHandler(deps.MongoDatabase, store, logger)
	r.Mount("/api/events", eventsfeature.Routes(eventsHandler))

	// Event proposals
	proposalsHandler := proposalsfeature.NewHandler(deps.MongoDatabase, logger)
	r.Mount("/api/proposals", proposalsfeature.Routes(proposalsHandler))

	return r, nil
}
