// Package rolegate decides whether the current operator may reach a scanner
// route. The decision is advisory: the backend re-validates the role on
// every check-in call.
package rolegate

import (
	"fmt"
	"strings"
	"time"

	"symposium/internal/auth"
	"symposium/internal/model"
)

// Route names a gated scanner screen.
type Route string

const (
	RouteBuildingScanner Route = "checkin/building"
	RouteSessionScanner  Route = "checkin/session"
)

// Decision is the gate's verdict.
type Decision int

const (
	// DecisionAllow renders the scanner.
	DecisionAllow Decision = iota
	// DecisionLogin redirects to authentication; no valid session token.
	DecisionLogin
	// DecisionDenied renders an in-place access-denied view with a path
	// back to the dashboard. Credentials stay intact.
	DecisionDenied
)

// RequiredRoles lists the roles that may open a route, superadmin always
// included.
func RequiredRoles(route Route) []model.Role {
	switch route {
	case RouteBuildingScanner:
		return []model.Role{model.RoleRegistrationTeam, model.RoleSuperadmin}
	case RouteSessionScanner:
		return []model.Role{model.RoleEventManager, model.RoleSuperadmin}
	}
	return nil
}

// Allowed reports whether role may open route.
func Allowed(route Route, role model.Role) bool {
	for _, r := range RequiredRoles(route) {
		if r == role {
			return true
		}
	}
	return false
}

// Evaluate gates a route for the given token and freshly fetched profile.
// An absent or locally expired token routes to login; an authenticated but
// under-privileged operator gets an in-place denial. A cached profile must
// never be passed here: display fallbacks are not authorization inputs.
func Evaluate(route Route, token string, profile *model.UserProfile) Decision {
	if token == "" {
		return DecisionLogin
	}
	if exp, ok := auth.PeekExpiry(token); ok && time.Now().After(exp) {
		return DecisionLogin
	}
	if profile == nil {
		return DecisionLogin
	}
	if !Allowed(route, profile.Role) {
		return DecisionDenied
	}
	return DecisionAllow
}

// DeniedMessage explains an in-place denial and points back to the
// dashboard.
func DeniedMessage(route Route) string {
	roles := RequiredRoles(route)
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return fmt.Sprintf("Access denied. You need the %s role to use this scanner. Return to the dashboard to continue.",
		strings.Join(names, " or "))
}
