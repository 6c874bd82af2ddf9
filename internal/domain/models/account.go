// internal/domain/models/account.go
package models

import "time"

// Roles an account can hold. The role decides which collection the
// directory record lives in and what default setup happens at
// provisioning time.
const (
	RolePatient             = "patient"
	RoleAdmin               = "admin"
	RoleMedicalTechnologist = "medical_technologist"
	RolePathologist         = "pathologist"
)

// Account statuses. An empty status counts as active.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// Account represents a registered identity in one of the role-partitioned
// directory collections (users, admins, medical_technologists, pathologists).
//
// NOTE:
//   - The ID is the opaque account id assigned by the identity provider,
//     not an ObjectID. It is stable across re-provisioning.
//   - PasswordHash is only set for internally-authenticated accounts;
//     Google/IdP accounts leave it empty.
type Account struct {
	ID           string `bson:"_id" json:"id"`
	Email        string `bson:"email" json:"email"`
	DisplayName  string `bson:"display_name" json:"display_name"`
	Role         string `bson:"role" json:"role"`
	AuthMethod   string `bson:"auth_method,omitempty" json:"auth_method,omitempty"`
	PasswordHash string `bson:"password_hash,omitempty" json:"-"`
	Status       string `bson:"status,omitempty" json:"status,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
