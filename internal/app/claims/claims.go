// Package claims resolves an account's role from the identity provider.
//
// The provisioning handler treats role resolution as advisory: a lookup
// error never blocks provisioning. The caller sees the error explicitly and
// applies the patient default itself, so the decision is visible in logs and
// in the audit trail rather than buried in a silent fallback.
package claims

import (
	"context"

	"github.com/medinotify/portal/internal/app/system/normalize"
)

// RoleSource resolves the role claim for an account id.
//
// An account with no role claim resolves to ("", nil); the caller routes it
// as a patient without flagging a lookup failure. A non-nil error means the
// lookup itself failed (provider down, token invalid) and the caller should
// default the role and record that it did so.
type RoleSource interface {
	Resolve(ctx context.Context, accountID string) (string, error)
}

// Static is a fixed role table. Used in tests and in single-tenant
// deployments where roles are assigned out of band.
type Static struct {
	Roles map[string]string
}

func (s Static) Resolve(_ context.Context, accountID string) (string, error) {
	return normalize.Role(s.Roles[accountID]), nil
}

// Failing always returns the given error. Test double for exercising the
// patient-default path.
type Failing struct {
	Err error
}

func (f Failing) Resolve(context.Context, string) (string, error) {
	return "", f.Err
}
