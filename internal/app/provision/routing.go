// internal/app/provision/routing.go
package provision

import (
	accountstore "github.com/medinotify/portal/internal/app/store/accounts"
	"github.com/medinotify/portal/internal/domain/models"
)

// Route describes where accounts with a given role land and whether they
// receive the patient fan-out (default settings + welcome notification).
type Route struct {
	Collection string
	FanOut     bool
}

// RoutingTable maps resolved roles to directory routes. Roles not in the
// table take the fallback route: an unrecognized role means the provider
// sent something we don't know yet, and the safest landing place is the
// patient collection, where the account gets the least privilege. The
// fallback does not carry the fan-out; settings and the welcome notification
// are reserved for accounts whose resolved role is exactly patient.
type RoutingTable struct {
	routes   map[string]Route
	fallback Route
}

// DefaultRouting returns the portal's role routing.
func DefaultRouting() RoutingTable {
	return RoutingTable{
		routes: map[string]Route{
			models.RolePatient:             {Collection: accountstore.CollUsers, FanOut: true},
			models.RoleAdmin:               {Collection: accountstore.CollAdmins},
			models.RoleMedicalTechnologist: {Collection: accountstore.CollMedicalTechnologists},
			models.RolePathologist:         {Collection: accountstore.CollPathologists},
		},
		fallback: Route{Collection: accountstore.CollUsers},
	}
}

// Route returns the route for a role. known is false when the role fell
// through to the fallback, so callers can log and audit the miss.
func (t RoutingTable) Route(role string) (r Route, known bool) {
	if r, ok := t.routes[role]; ok {
		return r, true
	}
	return t.fallback, false
}
