// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	"github.com/medinotify/portal/internal/app/claims"
	"github.com/medinotify/portal/internal/app/events"
	"github.com/medinotify/portal/internal/app/provision"
	accountstore "github.com/medinotify/portal/internal/app/store/accounts"
	notificationstore "github.com/medinotify/portal/internal/app/store/notifications"
	auditstore "github.com/medinotify/portal/internal/app/store/provisionaudit"
	settingsstore "github.com/medinotify/portal/internal/app/store/usersettings"
)

// newProvisioner assembles the provisioning handler from the shared
// backends. Stores are thin stateless wrappers, so building a fresh set for
// the consumer and for the HTTP surfaces is fine; they share the database.
func newProvisioner(appCfg AppConfig, deps DBDeps, logger *zap.Logger) *provision.Provisioner {
	var source claims.RoleSource
	if appCfg.ClaimsBaseURL != "" {
		source = claims.NewHTTPSource(appCfg.ClaimsBaseURL, deps.Redis, logger)
	} else {
		// No claims endpoint: every account resolves to no role claim and
		// provisions as a patient.
		source = claims.Static{}
	}

	p := provision.New(
		accountstore.New(deps.MongoDB),
		settingsstore.New(deps.MongoDB),
		notificationstore.New(deps.MongoDB),
		auditstore.New(deps.MongoDB),
		source,
		provision.DefaultRouting(),
		logger,
	)
	if appCfg.ClaimsTokenSecret != "" {
		p.UseRoleTokens([]byte(appCfg.ClaimsTokenSecret))
	}
	return p
}

// Startup launches the queue consumer when RabbitMQ is configured. The
// consumer runs for the life of the process; Shutdown closes the broker,
// which ends the delivery channels and stops the consumer loop.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Broker == nil {
		logger.Info("no AMQP URL configured; queue consumer disabled")
		return nil
	}

	consumer := events.NewConsumer(deps.Broker, newProvisioner(appCfg, deps, logger), logger)
	go func() {
		err := consumer.Run(context.Background())
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("event consumer stopped", zap.Error(err))
		}
	}()
	return nil
}
