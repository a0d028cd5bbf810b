package session

import (
	"testing"

	"symposium/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestTokenRoundTrip(t *testing.T) {
	s := openTestStore(t)

	tok, err := s.Token()
	if err != nil {
		t.Fatalf("Token() failed: %v", err)
	}
	if tok != "" {
		t.Fatalf("fresh store has token %q", tok)
	}

	if err := s.SetToken("tok-1"); err != nil {
		t.Fatalf("SetToken() failed: %v", err)
	}
	if tok, _ = s.Token(); tok != "tok-1" {
		t.Fatalf("token = %q, want tok-1", tok)
	}

	// Overwrite, not append.
	if err := s.SetToken("tok-2"); err != nil {
		t.Fatalf("SetToken() overwrite failed: %v", err)
	}
	if tok, _ = s.Token(); tok != "tok-2" {
		t.Fatalf("token = %q, want tok-2", tok)
	}

	if err := s.ClearToken(); err != nil {
		t.Fatalf("ClearToken() failed: %v", err)
	}
	if tok, _ = s.Token(); tok != "" {
		t.Fatalf("token survived clear: %q", tok)
	}
}

func TestSetTokenRejectsEmpty(t *testing.T) {
	s := openTestStore(t)
	if err := s.SetToken(""); err == nil {
		t.Fatalf("empty token accepted")
	}
}

func TestCachedProfileRoundTrip(t *testing.T) {
	s := openTestStore(t)

	p, _, err := s.CachedProfile()
	if err != nil {
		t.Fatalf("CachedProfile() failed: %v", err)
	}
	if p != nil {
		t.Fatalf("fresh store has cached profile %+v", p)
	}

	want := model.UserProfile{ID: "u1", Name: "Asha", Email: "asha@nitdgp.ac.in", Role: model.RoleEventManager}
	if err := s.SetCachedProfile(want); err != nil {
		t.Fatalf("SetCachedProfile() failed: %v", err)
	}

	p, at, err := s.CachedProfile()
	if err != nil {
		t.Fatalf("CachedProfile() failed: %v", err)
	}
	if p == nil || p.ID != want.ID || p.Role != want.Role {
		t.Fatalf("profile = %+v, want %+v", p, want)
	}
	if at.IsZero() {
		t.Fatalf("cached profile has no timestamp")
	}
}

func TestClearTokenKeepsCachedProfile(t *testing.T) {
	s := openTestStore(t)
	if err := s.SetToken("tok"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetCachedProfile(model.UserProfile{ID: "u1"}); err != nil {
		t.Fatal(err)
	}

	if err := s.ClearToken(); err != nil {
		t.Fatalf("ClearToken() failed: %v", err)
	}
	p, _, err := s.CachedProfile()
	if err != nil || p == nil {
		t.Fatalf("cached profile gone after token clear: %+v, %v", p, err)
	}
}

func TestInvalidateDropsEverything(t *testing.T) {
	s := openTestStore(t)
	if err := s.SetToken("tok"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetCachedProfile(model.UserProfile{ID: "u1"}); err != nil {
		t.Fatal(err)
	}

	if err := s.Invalidate(); err != nil {
		t.Fatalf("Invalidate() failed: %v", err)
	}
	if tok, _ := s.Token(); tok != "" {
		t.Fatalf("token survived invalidate: %q", tok)
	}
	if p, _, _ := s.CachedProfile(); p != nil {
		t.Fatalf("profile survived invalidate: %+v", p)
	}
}
