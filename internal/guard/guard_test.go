package guard

import (
	"testing"

	"github.com/hitoshi/internlink/internal/model"
	"github.com/hitoshi/internlink/internal/session"
)

func studentIdentity() *model.Identity {
	return &model.Identity{
		ID:       1,
		Username: "alice",
		Profile:  model.Profile{Role: model.RoleStudent},
	}
}

func TestDecide_Unauthenticated_RedirectsToLogin(t *testing.T) {
	s := session.Snapshot{State: session.StateUnauthenticated}

	if got := Decide(s, nil); got != RedirectToLogin {
		t.Errorf("Decide(unauthenticated) = %v, want %v", got, RedirectToLogin)
	}
}

func TestDecide_Authenticating_RedirectsToLogin(t *testing.T) {
	// 認証進行中はまだ保護された画面を表示しない
	s := session.Snapshot{State: session.StateAuthenticating}

	if got := Decide(s, nil); got != RedirectToLogin {
		t.Errorf("Decide(authenticating) = %v, want %v", got, RedirectToLogin)
	}
}

func TestDecide_AuthenticatedWithoutIdentity_RedirectsToLogin(t *testing.T) {
	s := session.Snapshot{State: session.StateAuthenticated, Identity: nil}

	if got := Decide(s, nil); got != RedirectToLogin {
		t.Errorf("Decide(authenticated, nil identity) = %v, want %v", got, RedirectToLogin)
	}
}

func TestDecide_NoRoleRestriction_Allows(t *testing.T) {
	s := session.Snapshot{State: session.StateAuthenticated, Identity: studentIdentity()}

	if got := Decide(s, nil); got != Allow {
		t.Errorf("Decide(authenticated, no roles) = %v, want %v", got, Allow)
	}
}

func TestDecide_MatchingRole_Allows(t *testing.T) {
	s := session.Snapshot{State: session.StateAuthenticated, Identity: studentIdentity()}

	if got := Decide(s, []model.Role{model.RoleStudent}); got != Allow {
		t.Errorf("Decide(student, [student]) = %v, want %v", got, Allow)
	}
}

func TestDecide_WrongRole_RedirectsToHome(t *testing.T) {
	s := session.Snapshot{State: session.StateAuthenticated, Identity: studentIdentity()}

	if got := Decide(s, []model.Role{model.RoleRecruiter}); got != RedirectToHome {
		t.Errorf("Decide(student, [recruiter]) = %v, want %v", got, RedirectToHome)
	}
}

func TestDecide_Idempotent(t *testing.T) {
	s := session.Snapshot{State: session.StateAuthenticated, Identity: studentIdentity()}
	roles := []model.Role{model.RoleRecruiter}

	first := Decide(s, roles)
	for i := 0; i < 10; i++ {
		if got := Decide(s, roles); got != first {
			t.Fatalf("Decide returned %v after %v for the same input", got, first)
		}
	}
}

func TestDecisionString(t *testing.T) {
	tests := []struct {
		decision Decision
		want     string
	}{
		{Allow, "allow"},
		{RedirectToLogin, "redirect_to_login"},
		{RedirectToHome, "redirect_to_home"},
	}

	for _, tt := range tests {
		if got := tt.decision.String(); got != tt.want {
			t.Errorf("Decision(%d).String() = %q, want %q", tt.decision, got, tt.want)
		}
	}
}
