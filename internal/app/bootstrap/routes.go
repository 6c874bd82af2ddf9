// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	appointmentsfeature "github.com/medinotify/portal/internal/app/features/appointments"
	authgooglefeature "github.com/medinotify/portal/internal/app/features/authgoogle"
	directoryfeature "github.com/medinotify/portal/internal/app/features/directory"
	doctorsfeature "github.com/medinotify/portal/internal/app/features/doctors"
	healthfeature "github.com/medinotify/portal/internal/app/features/health"
	homefeature "github.com/medinotify/portal/internal/app/features/home"
	hooksfeature "github.com/medinotify/portal/internal/app/features/hooks"
	loginfeature "github.com/medinotify/portal/internal/app/features/login"
	logoutfeature "github.com/medinotify/portal/internal/app/features/logout"
	notificationsfeature "github.com/medinotify/portal/internal/app/features/notifications"
	profilefeature "github.com/medinotify/portal/internal/app/features/profile"
	registerfeature "github.com/medinotify/portal/internal/app/features/register"
	resultsfeature "github.com/medinotify/portal/internal/app/features/results"
	settingsfeature "github.com/medinotify/portal/internal/app/features/settings"
	userinfofeature "github.com/medinotify/portal/internal/app/features/userinfo"
	accountstore "github.com/medinotify/portal/internal/app/store/accounts"
	appointmentstore "github.com/medinotify/portal/internal/app/store/appointments"
	doctorstore "github.com/medinotify/portal/internal/app/store/doctors"
	notificationstore "github.com/medinotify/portal/internal/app/store/notifications"
	"github.com/medinotify/portal/internal/app/store/oauthstate"
	auditstore "github.com/medinotify/portal/internal/app/store/provisionaudit"
	resultstore "github.com/medinotify/portal/internal/app/store/results"
	settingsstore "github.com/medinotify/portal/internal/app/store/usersettings"
	"github.com/medinotify/portal/internal/app/system/auth"
	"github.com/medinotify/portal/internal/app/system/limits"
	"github.com/medinotify/portal/internal/app/system/ratelimit"
)

// BuildHandler constructs the root HTTP handler for the portal.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. It wires the stores and the provisioning handler
// into feature routers and mounts them.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"
	sessionMgr := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)

	accounts := accountstore.New(deps.MongoDB)
	settings := settingsstore.New(deps.MongoDB)
	notifications := notificationstore.New(deps.MongoDB)
	results := resultstore.New(deps.MongoDB)
	appointments := appointmentstore.New(deps.MongoDB)
	doctors := doctorstore.New(deps.MongoDB)
	audit := auditstore.New(deps.MongoDB)
	states := oauthstate.New(deps.MongoDB)

	provisioner := newProvisioner(appCfg, deps, logger)

	// Result uploads go through the queue when RabbitMQ is connected and
	// run in-process otherwise.
	var notifier resultsfeature.Notifier = resultsfeature.DirectNotifier{Provisioner: provisioner}
	if deps.Broker != nil {
		notifier = deps.Broker
	}

	r := chi.NewRouter()

	r.Use(limits.MaxBody(limits.MaxJSONBody))

	// Loads the SessionUser into context on every request; handlers read it
	// via auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)

	r.Mount("/", homefeature.Routes(homefeature.NewHandler()))
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(deps.MongoClient, deps.Broker, logger)))
	r.Handle("/metrics", promhttp.Handler())

	// Identity provider webhooks. Disabled entirely without a shared secret
	// so a blank config can never mean an open provisioning endpoint.
	if appCfg.HookSecret != "" {
		r.Mount("/hooks", hooksfeature.Routes(hooksfeature.NewHandler(provisioner, appCfg.HookSecret, logger)))
	} else {
		logger.Warn("hook_secret not set; webhook surface disabled")
	}

	// Authentication
	r.Mount("/register", registerfeature.Routes(registerfeature.NewHandler(accounts, provisioner, logger)))
	r.Mount("/login", loginfeature.Routes(loginfeature.NewHandler(accounts, sessionMgr, ratelimit.NewLoginLimiter(), logger)))
	r.Mount("/logout", logoutfeature.Routes(logoutfeature.NewHandler(sessionMgr, logger)))
	r.Mount("/userinfo", userinfofeature.Routes(userinfofeature.NewHandler()))

	if appCfg.GoogleClientID != "" {
		googleHandler := authgooglefeature.NewHandler(accounts, provisioner, sessionMgr, states,
			appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
		r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))
	}

	// Portal features
	r.Mount("/notifications", notificationsfeature.Routes(notificationsfeature.NewHandler(notifications, logger)))
	r.Mount("/settings", settingsfeature.Routes(settingsfeature.NewHandler(settings, logger)))
	r.Mount("/profile", profilefeature.Routes(profilefeature.NewHandler(accounts, settings, logger)))
	r.Mount("/results", resultsfeature.Routes(resultsfeature.NewHandler(results, accounts, notifier, logger)))
	r.Mount("/appointments", appointmentsfeature.Routes(appointmentsfeature.NewHandler(appointments, notifications, logger)))
	r.Mount("/doctors", doctorsfeature.Routes(doctorsfeature.NewHandler(doctors, logger)))

	// Admin
	r.Mount("/directory", directoryfeature.Routes(directoryfeature.NewHandler(accounts, audit, logger)))

	return r, nil
}
