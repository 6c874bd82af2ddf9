// Package metrics holds the Prometheus instruments for the portal's
// provisioning and notification paths.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProvisionedAccounts counts directory records written by the account
	// provisioning handler, labeled by resolved role and target collection.
	ProvisionedAccounts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medinotify_provisioned_accounts_total",
		Help: "Accounts provisioned into role collections.",
	}, []string{"role", "collection"})

	// NotificationsWritten counts notification records written by the
	// fan-out handlers, labeled by notification type.
	NotificationsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medinotify_notifications_total",
		Help: "Notifications written by the fan-out handlers.",
	}, []string{"type"})

	// ProvisionFailures counts handler failures by stage (role_lookup,
	// account_write, settings_write, notification_write, validation).
	ProvisionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medinotify_provision_failures_total",
		Help: "Failures in the provisioning and result fan-out handlers.",
	}, []string{"stage"})

	// TriggerDeliveries counts trigger invocations by surface (hook, amqp)
	// and event, regardless of outcome.
	TriggerDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medinotify_trigger_deliveries_total",
		Help: "Trigger deliveries received, by surface and event.",
	}, []string{"surface", "event"})
)
