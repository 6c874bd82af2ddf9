// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	for _, coll := range []string{"users", "admins", "medical_technologists", "pathologists"} {
		if err := ensureDirectory(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
		}
	}
	if err := ensureNotifications(ctx, db); err != nil {
		problems = append(problems, "notifications: "+err.Error())
	}
	if err := ensureResults(ctx, db); err != nil {
		problems = append(problems, "results: "+err.Error())
	}
	if err := ensureAppointments(ctx, db); err != nil {
		problems = append(problems, "appointments: "+err.Error())
	}
	if err := ensureProvisionAudit(ctx, db); err != nil {
		problems = append(problems, "provision_audit: "+err.Error())
	}
	if err := ensureOAuthStates(ctx, db); err != nil {
		problems = append(problems, "oauth_states: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// Directory collections are keyed by the IdP account id (_id), so the only
// secondary index is the email lookup used by login and Google sign-in.
// Partial on non-empty email: provisioning accepts events without one, and
// two email-less accounts must not collide on the unique index.
func ensureDirectory(ctx context.Context, db *mongo.Database, name string) error {
	c := db.Collection(name)
	_, err := c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "email", Value: bson.D{{Key: "$gt", Value: ""}}}}).
				SetName("uniq_" + name + "_email"),
		},
	})
	return err
}

func ensureNotifications(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("notifications")
	_, err := c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		// Per-recipient feed, latest first (the UI read contract).
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_notifications_user_ts"),
		},
		// Unread badge counts.
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_notifications_user_status"),
		},
		// Idempotency for deduplicated notification kinds. Sparse so
		// result notifications (no dedupe key) are unaffected.
		{
			Keys:    bson.D{{Key: "dedupe_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("uniq_notifications_dedupe"),
		},
	})
	return err
}

func ensureResults(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("results")
	_, err := c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		// Patient's own results, latest first.
		{
			Keys:    bson.D{{Key: "patient_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_results_patient_created"),
		},
		// Staff listing, latest first.
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_results_created"),
		},
	})
	return err
}

func ensureAppointments(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("appointments")
	_, err := c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "patient_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_appointments_patient_created"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_appointments_status_created"),
		},
	})
	return err
}

func ensureProvisionAudit(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("provision_audit")
	_, err := c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_provision_audit_ts"),
		},
		{
			Keys:    bson.D{{Key: "account_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_provision_audit_account_ts"),
		},
	})
	return err
}

func ensureOAuthStates(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("oauth_states")
	_, err := c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "state", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_oauth_state"),
		},
		// TTL cleanup of abandoned flows.
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_oauth_ttl"),
		},
	})
	return err
}
