// internal/app/store/provisionaudit/auditstore.go
package auditstore

import (
	"context"
	"time"

	"github.com/medinotify/portal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to the provision_audit collection.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("provision_audit")}
}

// Record appends one provisioning attempt to the audit trail. Audit writes
// never fail the provisioning path; callers log and continue on error.
func (s *Store) Record(ctx context.Context, entry models.ProvisionAudit) error {
	entry.ID = primitive.NewObjectID()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, entry)
	return err
}

// ListRecent returns the latest audit entries, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int64) ([]models.ProvisionAudit, error) {
	return s.list(ctx, bson.M{}, limit)
}

// ListByAccount returns the audit trail for one account, newest first.
func (s *Store) ListByAccount(ctx context.Context, accountID string, limit int64) ([]models.ProvisionAudit, error) {
	return s.list(ctx, bson.M{"account_id": accountID}, limit)
}

// ListDefaulted returns entries where the role lookup failed and the account
// was provisioned as a patient by default. Admins review these.
func (s *Store) ListDefaulted(ctx context.Context, limit int64) ([]models.ProvisionAudit, error) {
	return s.list(ctx, bson.M{"defaulted": true}, limit)
}

func (s *Store) list(ctx context.Context, filter bson.M, limit int64) ([]models.ProvisionAudit, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.ProvisionAudit
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
