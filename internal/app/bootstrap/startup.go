// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	userstore "github.com/sarithdm/iedc-website-sub000/internal/app/store/users"
	"github.com/sarithdm/iedc-website-sub000/internal/domain/models"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
//
// If admin_email is configured and no admin account exists yet, an invited
// admin is created so a fresh deployment is reachable. The invite token is
// logged once; there is no mailer configured this early.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.AdminEmail == "" {
		return nil
	}

	users := userstore.New(deps.MongoDatabase)
	existing, err := users.List(ctx, string(models.RoleAdmin), "")
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	admin := models.User{
		FullName: "Administrator",
		Email:    appCfg.AdminEmail,
		Role:     models.RoleAdmin,
	}
	created, token, err := users.CreateInvited(ctx, admin, appCfg.InviteExpiry)
	if err != nil {
		if err == userstore.ErrDuplicateEmail {
			logger.Warn("admin bootstrap skipped: email already registered with another role",
				zap.String("email", appCfg.AdminEmail))
			return nil
		}
		return err
	}

	logger.Info("bootstrap admin invited",
		zap.String("email", created.Email),
		zap.String("accept_invite_token", token))
	return nil
}
