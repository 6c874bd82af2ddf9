// Package provision implements the event handlers behind account creation
// and lab-result creation. Both handlers are invoked from the webhook
// endpoints and the AMQP consumer, and both assume at-least-once delivery:
// every write is either idempotent or deliberately allowed to repeat.
package provision

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medinotify/portal/internal/app/claims"
	accountstore "github.com/medinotify/portal/internal/app/store/accounts"
	notificationstore "github.com/medinotify/portal/internal/app/store/notifications"
	auditstore "github.com/medinotify/portal/internal/app/store/provisionaudit"
	settingsstore "github.com/medinotify/portal/internal/app/store/usersettings"
	"github.com/medinotify/portal/internal/app/system/metrics"
	"github.com/medinotify/portal/internal/app/system/normalize"
	"github.com/medinotify/portal/internal/domain/models"
)

// ErrInvalidEvent marks a payload that can never succeed (missing required
// fields). Webhooks map it to 400; the AMQP consumer drops the message
// instead of requeueing it.
var ErrInvalidEvent = errors.New("invalid event payload")

// welcomeNamespace is the fixed UUID namespace for welcome dedupe keys.
// Changing it would re-welcome every redelivered account.
var welcomeNamespace = uuid.MustParse("9f2c1b6e-4a3d-4d89-9e71-2c5b8f0a6d41")

// WelcomeDedupeKey returns the deterministic dedupe key for an account's
// welcome notification. The same account always produces the same key, so
// the unique index makes the welcome write idempotent across redeliveries.
func WelcomeDedupeKey(accountID string) string {
	return uuid.NewSHA1(welcomeNamespace, []byte("welcome:"+accountID)).String()
}

// AccountCreated is the payload of an account-created event.
//
// RoleToken optionally carries an IdP-signed JWT asserting the account's
// role. A verified token saves the remote claims lookup.
type AccountCreated struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	AuthMethod  string `json:"authMethod,omitempty"`
	RoleToken   string `json:"roleToken,omitempty"`
}

// ResultCreated is the payload of a result-created event.
type ResultCreated struct {
	PatientID string `json:"patientId"`
	TestName  string `json:"testName"`
}

// Provisioner fans provisioning events out to the directory, settings,
// notification, and audit collections.
type Provisioner struct {
	accounts      *accountstore.Store
	settings      *settingsstore.Store
	notifications *notificationstore.Store
	audit         *auditstore.Store
	roles         claims.RoleSource
	routing       RoutingTable
	tokenSecret   []byte
	logger        *zap.Logger
}

func New(
	accounts *accountstore.Store,
	settings *settingsstore.Store,
	notifications *notificationstore.Store,
	audit *auditstore.Store,
	roles claims.RoleSource,
	routing RoutingTable,
	logger *zap.Logger,
) *Provisioner {
	return &Provisioner{
		accounts:      accounts,
		settings:      settings,
		notifications: notifications,
		audit:         audit,
		roles:         roles,
		routing:       routing,
		logger:        logger,
	}
}

// UseRoleTokens enables verification of signed role tokens carried on
// account-created payloads. A token that verifies against the shared secret
// supplies the role directly; an invalid token is logged and the lookup
// falls back to the RoleSource.
func (p *Provisioner) UseRoleTokens(secret []byte) {
	p.tokenSecret = secret
}

// HandleAccountCreated provisions a newly created account.
//
// The role lookup is advisory: a lookup failure defaults the role to patient
// and the account is provisioned anyway, because a new user locked out of
// the portal is worse than a staff member temporarily filed as a patient.
// The default is recorded in the audit trail so admins can correct it.
//
// Returning an error requeues the event, so each write below is safe to
// repeat: the account upsert converges, the settings seed is insert-only,
// and the welcome notification carries a dedupe key.
func (p *Provisioner) HandleAccountCreated(ctx context.Context, evt AccountCreated) error {
	if evt.ID == "" {
		metrics.ProvisionFailures.WithLabelValues("validation").Inc()
		return ErrInvalidEvent
	}

	role, lookupErr := p.resolveRole(ctx, evt)
	defaulted := lookupErr != nil
	if defaulted {
		metrics.ProvisionFailures.WithLabelValues("role_lookup").Inc()
		p.logger.Warn("role lookup failed; defaulting to patient",
			zap.String("account_id", evt.ID),
			zap.Error(lookupErr))
		role = models.RolePatient
	}
	role = normalize.Role(role)
	if role == "" {
		role = models.RolePatient
	}

	route, known := p.routing.Route(role)
	if !known {
		p.logger.Warn("unknown role; routing as patient",
			zap.String("account_id", evt.ID),
			zap.String("role", role))
	}

	acct := models.Account{
		ID:          evt.ID,
		Email:       evt.Email,
		DisplayName: evt.DisplayName,
		Role:        role,
		AuthMethod:  evt.AuthMethod,
		Status:      "active",
	}
	if _, err := p.accounts.Upsert(ctx, route.Collection, acct); err != nil {
		metrics.ProvisionFailures.WithLabelValues("account_write").Inc()
		p.recordAudit(ctx, evt, role, defaulted, lookupErr, route.Collection, models.ProvisionFailed, "account_write")
		return err
	}
	metrics.ProvisionedAccounts.WithLabelValues(role, route.Collection).Inc()

	if route.FanOut {
		if err := p.fanOutPatient(ctx, evt); err != nil {
			p.recordAudit(ctx, evt, role, defaulted, lookupErr, route.Collection, models.ProvisionFailed, "fan_out")
			return err
		}
	}

	p.recordAudit(ctx, evt, role, defaulted, lookupErr, route.Collection, models.ProvisionOK, "")
	p.logger.Info("account provisioned",
		zap.String("account_id", evt.ID),
		zap.String("role", role),
		zap.String("collection", route.Collection),
		zap.Bool("defaulted", defaulted))
	return nil
}

// resolveRole prefers a signed role token on the payload over the remote
// claims lookup. Token failures never fail provisioning; they fall through
// to the RoleSource, whose error the caller treats as advisory.
func (p *Provisioner) resolveRole(ctx context.Context, evt AccountCreated) (string, error) {
	if evt.RoleToken != "" && len(p.tokenSecret) > 0 {
		role, err := claims.ParseRoleToken(evt.RoleToken, evt.ID, p.tokenSecret)
		if err == nil {
			return role, nil
		}
		metrics.ProvisionFailures.WithLabelValues("role_token").Inc()
		p.logger.Warn("role token rejected; falling back to claims lookup",
			zap.String("account_id", evt.ID),
			zap.Error(err))
	}
	return p.roles.Resolve(ctx, evt.ID)
}

// fanOutPatient seeds default settings and the welcome notification.
func (p *Provisioner) fanOutPatient(ctx context.Context, evt AccountCreated) error {
	if err := p.settings.EnsureDefaults(ctx, evt.ID, time.Now().UTC()); err != nil {
		metrics.ProvisionFailures.WithLabelValues("settings_write").Inc()
		return err
	}

	welcome := models.Notification{
		UserID:    evt.ID,
		DedupeKey: WelcomeDedupeKey(evt.ID),
		Title:     "Welcome to MediNotify",
		Message:   "Your account has been created. You will be notified here when your lab results are ready.",
		Type:      models.NotificationTypeWelcome,
	}
	_, err := p.notifications.Insert(ctx, welcome)
	if errors.Is(err, notificationstore.ErrDuplicate) {
		// Redelivery; the welcome already exists.
		p.logger.Debug("welcome notification already exists", zap.String("account_id", evt.ID))
		return nil
	}
	if err != nil {
		metrics.ProvisionFailures.WithLabelValues("notification_write").Inc()
		return err
	}
	metrics.NotificationsWritten.WithLabelValues(models.NotificationTypeWelcome).Inc()
	return nil
}

// HandleResultCreated writes the patient-facing notification for a new lab
// result. Deliberately not deduplicated: the result record is the source of
// truth, and a rare duplicate notification is acceptable while a missed one
// is not.
func (p *Provisioner) HandleResultCreated(ctx context.Context, evt ResultCreated) error {
	if evt.PatientID == "" || evt.TestName == "" {
		metrics.ProvisionFailures.WithLabelValues("validation").Inc()
		p.logger.Warn("result event missing required fields",
			zap.String("patient_id", evt.PatientID),
			zap.String("test_name", evt.TestName))
		return ErrInvalidEvent
	}

	n := models.Notification{
		UserID:  evt.PatientID,
		Title:   "Lab Result Available",
		Message: evt.TestName + " result has been uploaded.",
		Type:    models.NotificationTypeResult,
	}
	if _, err := p.notifications.Insert(ctx, n); err != nil {
		metrics.ProvisionFailures.WithLabelValues("notification_write").Inc()
		return err
	}
	metrics.NotificationsWritten.WithLabelValues(models.NotificationTypeResult).Inc()

	p.logger.Info("result notification written",
		zap.String("patient_id", evt.PatientID),
		zap.String("test_name", evt.TestName))
	return nil
}

// recordAudit appends to the audit trail. Best effort: an audit failure is
// logged but never fails the provisioning path.
func (p *Provisioner) recordAudit(ctx context.Context, evt AccountCreated, role string, defaulted bool, lookupErr error, collection, outcome, stage string) {
	entry := models.ProvisionAudit{
		AccountID:  evt.ID,
		Email:      normalize.Email(evt.Email),
		Role:       role,
		Defaulted:  defaulted,
		Collection: collection,
		Outcome:    outcome,
		Stage:      stage,
	}
	if lookupErr != nil {
		entry.LookupErr = lookupErr.Error()
	}
	if err := p.audit.Record(ctx, entry); err != nil {
		p.logger.Warn("provision audit write failed",
			zap.String("account_id", evt.ID),
			zap.Error(err))
	}
}
