package rolegate

import (
	"strings"
	"testing"
	"time"

	"symposium/internal/auth"
	"symposium/internal/model"
)

func issue(t *testing.T, role model.Role, ttl time.Duration) string {
	t.Helper()
	tok, _, err := auth.Issue("u1", "Asha", "asha@nitdgp.ac.in", role, "symposium", "test-key", ttl)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func TestAllowedMatrix(t *testing.T) {
	tests := []struct {
		route Route
		role  model.Role
		want  bool
	}{
		{RouteBuildingScanner, model.RoleRegistrationTeam, true},
		{RouteBuildingScanner, model.RoleSuperadmin, true},
		{RouteBuildingScanner, model.RoleEventManager, false},
		{RouteBuildingScanner, model.RoleUser, false},
		{RouteSessionScanner, model.RoleEventManager, true},
		{RouteSessionScanner, model.RoleSuperadmin, true},
		{RouteSessionScanner, model.RoleRegistrationTeam, false},
		{RouteSessionScanner, model.RoleUser, false},
	}
	for _, tc := range tests {
		if got := Allowed(tc.route, tc.role); got != tc.want {
			t.Errorf("Allowed(%s, %s) = %v, want %v", tc.route, tc.role, got, tc.want)
		}
	}
}

func TestEvaluateRoutesToLogin(t *testing.T) {
	profile := &model.UserProfile{ID: "u1", Role: model.RoleSuperadmin}

	if d := Evaluate(RouteBuildingScanner, "", profile); d != DecisionLogin {
		t.Fatalf("empty token: decision = %v, want login", d)
	}

	expired := issue(t, model.RoleSuperadmin, -time.Minute)
	if d := Evaluate(RouteBuildingScanner, expired, profile); d != DecisionLogin {
		t.Fatalf("expired token: decision = %v, want login", d)
	}

	fresh := issue(t, model.RoleSuperadmin, time.Hour)
	if d := Evaluate(RouteBuildingScanner, fresh, nil); d != DecisionLogin {
		t.Fatalf("missing profile: decision = %v, want login", d)
	}
}

func TestEvaluateDeniesWrongRoleInPlace(t *testing.T) {
	tok := issue(t, model.RoleEventManager, time.Hour)
	profile := &model.UserProfile{ID: "u1", Role: model.RoleEventManager}

	if d := Evaluate(RouteBuildingScanner, tok, profile); d != DecisionDenied {
		t.Fatalf("building scanner for event_manager: decision = %v, want denied", d)
	}
	if d := Evaluate(RouteSessionScanner, tok, profile); d != DecisionAllow {
		t.Fatalf("session scanner for event_manager: decision = %v, want allow", d)
	}
}

func TestDeniedMessageNamesRolesAndDashboard(t *testing.T) {
	msg := DeniedMessage(RouteSessionScanner)
	for _, want := range []string{"event_manager", "superadmin", "dashboard"} {
		if !strings.Contains(msg, want) {
			t.Errorf("DeniedMessage missing %q: %s", want, msg)
		}
	}
}
