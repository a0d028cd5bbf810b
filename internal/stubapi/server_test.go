package stubapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"symposium/internal/api"
	"symposium/internal/checkin"
	"symposium/internal/model"
)

const (
	testKey    = "test-signing-key"
	testIssuer = "symposium"
)

type fixture struct {
	srv       *httptest.Server
	store     *Store
	ticketDir string
	tokens    map[string]string // email -> bearer token
}

// newFixture seeds a staff roster, two attendees and two events, then exposes
// the stub over httptest.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := OpenStore(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	users := []struct {
		profile model.UserProfile
		qr      string
	}{
		{model.UserProfile{ID: "u-desk", Name: "Desk", Email: "desk@symposium.test", Role: model.RoleRegistrationTeam}, "STAFF:desk"},
		{model.UserProfile{ID: "u-mgr", Name: "Manager", Email: "mgr@symposium.test", Role: model.RoleEventManager}, "STAFF:mgr"},
		{model.UserProfile{ID: "u-admin", Name: "Admin", Email: "admin@symposium.test", Role: model.RoleSuperadmin}, "STAFF:admin"},
		{model.UserProfile{ID: "u-asha", Name: "Asha", Email: "asha@nitdgp.ac.in", Role: model.RoleUser}, "REG:asha"},
		{model.UserProfile{ID: "u-ravi", Name: "Ravi", Email: "ravi@nitdgp.ac.in", Role: model.RoleUser}, "REG:ravi"},
	}
	for _, u := range users {
		if err := store.SeedUser(ctx, u.profile, u.qr); err != nil {
			t.Fatalf("seed user %s: %v", u.profile.Email, err)
		}
	}
	events := []model.Event{
		{ID: "e-talk", Title: "Keynote", Status: model.StatusOngoing, Capacity: 100, Venue: "Main Hall"},
		{ID: "e-team", Title: "RoboWars", Status: model.StatusUpcoming, Capacity: 1, IsTeamEvent: true,
			TeamSize: &model.TeamSize{Min: 2, Max: 4}},
	}
	for _, e := range events {
		if err := store.SeedEvent(ctx, e); err != nil {
			t.Fatalf("seed event %s: %v", e.ID, err)
		}
	}

	ticketDir := t.TempDir()
	server := NewServer(store, Config{
		SigningKey: testKey, Issuer: testIssuer, AccessTTL: time.Hour, TicketDir: ticketDir,
	}, zerolog.Nop())
	srv := httptest.NewServer(server.Router(0))
	t.Cleanup(srv.Close)

	f := &fixture{srv: srv, store: store, ticketDir: ticketDir, tokens: map[string]string{}}
	for _, u := range users {
		f.tokens[u.profile.Email] = f.devLogin(t, u.profile.Email)
	}
	return f
}

func (f *fixture) devLogin(t *testing.T, email string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email})
	resp, err := http.Post(f.srv.URL+"/api/auth/dev-login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("dev-login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dev-login status = %d", resp.StatusCode)
	}
	var env struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return env.Data.Token
}

func (f *fixture) client(email string) *api.Client {
	tok := f.tokens[email]
	return api.New(f.srv.URL, func() string { return tok }, time.Minute)
}

func TestProfileEndpoint(t *testing.T) {
	f := newFixture(t)

	p, err := f.client("desk@symposium.test").Profile(context.Background())
	if err != nil {
		t.Fatalf("Profile() failed: %v", err)
	}
	if p.ID != "u-desk" || p.Role != model.RoleRegistrationTeam {
		t.Fatalf("profile = %+v", p)
	}

	// No token routes to 401, which the client names.
	anon := api.New(f.srv.URL, nil, time.Minute)
	if _, err := anon.Profile(context.Background()); err == nil {
		t.Fatalf("anonymous profile fetch succeeded")
	}
}

func TestBuildingCheckInFlow(t *testing.T) {
	f := newFixture(t)
	client := f.client("desk@symposium.test")
	orch := checkin.New(model.CheckInBuilding, client, nil)
	ctx := context.Background()

	// First presentation of the badge succeeds.
	resp, err := orch.HandleScan(ctx, "REG:asha")
	if err != nil {
		t.Fatalf("HandleScan() failed: %v", err)
	}
	if !resp.Success || resp.AlreadyCheckedIn {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.User == nil || resp.User.Name != "Asha" {
		t.Fatalf("user summary = %+v", resp.User)
	}
	orch.Reset()

	// The same badge again is the duplicate outcome, not an error.
	resp, err = orch.HandleScan(ctx, "REG:asha")
	if err != nil {
		t.Fatalf("rescan failed: %v", err)
	}
	if !resp.AlreadyCheckedIn {
		t.Fatalf("rescan resp = %+v, want alreadyCheckedIn", resp)
	}
	orch.Reset()

	// An unknown payload is a failed outcome with the backend's message.
	resp, err = orch.HandleScan(ctx, "REG:nobody")
	if err != nil {
		t.Fatalf("unknown scan failed: %v", err)
	}
	if resp.Success || resp.Message != "Invalid QR code" {
		t.Fatalf("unknown resp = %+v", resp)
	}
	if orch.State() != checkin.StateResult {
		t.Fatalf("state = %v, want result", orch.State())
	}

	snap := orch.Snapshot()
	want := checkin.Stats{Total: 3, Successful: 1, AlreadyCheckedIn: 1, Failed: 1}
	if snap.Stats != want {
		t.Fatalf("stats = %+v, want %+v", snap.Stats, want)
	}
}

func TestBuildingCheckInEnforcesRole(t *testing.T) {
	f := newFixture(t)
	// An event manager may run the session scanner but not the building one.
	client := f.client("mgr@symposium.test")

	resp := client.CheckIn(context.Background(), "REG:asha", model.CheckInBuilding, "")
	if resp.Success {
		t.Fatalf("under-privileged check-in succeeded: %+v", resp)
	}
	if resp.Message != "Insufficient role for building check-in" {
		t.Fatalf("message = %q", resp.Message)
	}

	// The badge owner stays un-checked-in.
	u, err := f.store.UserByID(context.Background(), "u-asha")
	if err != nil {
		t.Fatalf("user lookup: %v", err)
	}
	if u.CheckedIn {
		t.Fatalf("denied scan mutated attendance")
	}
}

func TestSessionCheckInFlow(t *testing.T) {
	f := newFixture(t)
	client := f.client("mgr@symposium.test")
	orch := checkin.New(model.CheckInSession, client, nil)
	ctx := context.Background()

	// No selected event: no backend call, no counters.
	if _, err := orch.HandleScan(ctx, "REG:asha"); err != checkin.ErrNoEventSelected {
		t.Fatalf("err = %v, want ErrNoEventSelected", err)
	}

	orch.SelectEvent(model.Event{ID: "e-talk", Title: "Keynote"})

	resp, err := orch.HandleScan(ctx, "REG:asha")
	if err != nil {
		t.Fatalf("HandleScan() failed: %v", err)
	}
	if !resp.Success || resp.Event == nil || resp.Event.Title != "Keynote" {
		t.Fatalf("resp = %+v", resp)
	}
	orch.Reset()

	resp, _ = orch.HandleScan(ctx, "REG:asha")
	if !resp.AlreadyCheckedIn {
		t.Fatalf("rescan resp = %+v, want alreadyCheckedIn", resp)
	}
	orch.Reset()

	// Attendance is tracked per event: a different event accepts the badge
	// afresh, and selecting it zeroes the session counters.
	orch.SelectEvent(model.Event{ID: "e-team", Title: "RoboWars"})
	if got := orch.Snapshot().Stats; got.Total != 0 {
		t.Fatalf("stats after event switch = %+v", got)
	}
	resp, _ = orch.HandleScan(ctx, "REG:asha")
	if !resp.Success || resp.AlreadyCheckedIn {
		t.Fatalf("fresh event resp = %+v", resp)
	}
}

func TestSessionCheckInRejectsDeskRole(t *testing.T) {
	f := newFixture(t)
	resp := f.client("desk@symposium.test").CheckIn(context.Background(), "REG:asha", model.CheckInSession, "e-talk")
	if resp.Success || resp.Message != "Insufficient role for session check-in" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestSuperadminPassesBothScanners(t *testing.T) {
	f := newFixture(t)
	client := f.client("admin@symposium.test")
	ctx := context.Background()

	if resp := client.CheckIn(ctx, "REG:asha", model.CheckInBuilding, ""); !resp.Success {
		t.Fatalf("building resp = %+v", resp)
	}
	if resp := client.CheckIn(ctx, "REG:ravi", model.CheckInSession, "e-talk"); !resp.Success {
		t.Fatalf("session resp = %+v", resp)
	}
}

func TestRegistrationFlow(t *testing.T) {
	f := newFixture(t)
	client := f.client("asha@nitdgp.ac.in")
	ctx := context.Background()

	reg, err := client.Register(ctx, model.RegistrationRequest{
		EventID: "e-talk", PhoneNumber: "9876543210", College: "NIT Durgapur",
	})
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if reg.QRCode == "" || reg.RegistrationStatus != model.RegStatusRegistered {
		t.Fatalf("registration = %+v", reg)
	}

	// Duplicate registration comes back with the message verbatim.
	_, err = client.Register(ctx, model.RegistrationRequest{
		EventID: "e-talk", PhoneNumber: "9876543210", College: "NIT Durgapur",
	})
	apiErr, ok := err.(*api.APIError)
	if !ok || apiErr.Message != "You are already registered for this event" {
		t.Fatalf("duplicate err = %v", err)
	}

	// Validation runs server-side too.
	_, err = client.Register(ctx, model.RegistrationRequest{EventID: "e-talk"})
	apiErr, ok = err.(*api.APIError)
	if !ok || apiErr.Message != "Phone number and college are required" {
		t.Fatalf("validation err = %v", err)
	}

	// Team events reject undersized teams against the event's own bounds.
	_, err = client.Register(ctx, model.RegistrationRequest{
		EventID: "e-team", IsTeamRegistration: true, TeamName: "Solo",
		TeamMembers: []model.TeamMember{{
			Name: "Asha", Email: "asha@nitdgp.ac.in", PhoneNumber: "9876543210",
			College: "NIT Durgapur", IsLeader: true,
		}},
	})
	apiErr, ok = err.(*api.APIError)
	if !ok || apiErr.Message != "Minimum 2 team members required" {
		t.Fatalf("team err = %v", err)
	}
}

func TestRegistrationCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	team := []model.TeamMember{
		{Name: "Asha", Email: "asha@nitdgp.ac.in", PhoneNumber: "9876543210", College: "NIT Durgapur", IsLeader: true},
		{Name: "Ravi", Email: "ravi@nitdgp.ac.in", PhoneNumber: "9876543211", College: "NIT Durgapur"},
	}
	if _, err := f.client("asha@nitdgp.ac.in").Register(ctx, model.RegistrationRequest{
		EventID: "e-team", IsTeamRegistration: true, TeamName: "Bit Benders", TeamMembers: team,
	}); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}

	// Capacity 1 is now exhausted for the next registrant.
	_, err := f.client("ravi@nitdgp.ac.in").Register(ctx, model.RegistrationRequest{
		EventID: "e-team", IsTeamRegistration: true, TeamName: "Latecomers", TeamMembers: team,
	})
	apiErr, ok := err.(*api.APIError)
	if !ok || apiErr.Message != "Event is full" {
		t.Fatalf("err = %v, want Event is full", err)
	}
}

func TestRegistrationTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.client("asha@nitdgp.ac.in").Register(ctx, model.RegistrationRequest{
		EventID: "e-talk", PhoneNumber: "9876543210", College: "NIT Durgapur",
	})
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	// An accepted registration leaves a rendered ticket behind.
	ticketPath := filepath.Join(f.ticketDir, "ticket-"+reg.ID+".png")
	buf, err := os.ReadFile(ticketPath)
	if err != nil {
		t.Fatalf("read rendered ticket: %v", err)
	}
	if !bytes.HasPrefix(buf, []byte("\x89PNG")) {
		t.Fatalf("rendered ticket is not a PNG")
	}

	// The owner can download the same ticket over the API.
	req, _ := http.NewRequest(http.MethodGet, f.srv.URL+"/api/registrations/"+reg.ID+"/ticket", nil)
	req.Header.Set("Authorization", "Bearer "+f.tokens["asha@nitdgp.ac.in"])
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("ticket fetch: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("status = %d, content-type = %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.HasPrefix(body, []byte("\x89PNG")) {
		t.Fatalf("downloaded ticket is not a PNG")
	}

	// Another user's token cannot fetch it.
	req, _ = http.NewRequest(http.MethodGet, f.srv.URL+"/api/registrations/"+reg.ID+"/ticket", nil)
	req.Header.Set("Authorization", "Bearer "+f.tokens["ravi@nitdgp.ac.in"])
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("foreign ticket fetch: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign fetch status = %d, want 404", resp2.StatusCode)
	}
}

func TestServerOfflineReachesTerminalFailure(t *testing.T) {
	f := newFixture(t)
	client := f.client("desk@symposium.test")
	orch := checkin.New(model.CheckInBuilding, client, nil)

	f.srv.Close() // backend gone mid-shift

	resp, err := orch.HandleScan(context.Background(), "REG:asha")
	if err != nil {
		t.Fatalf("HandleScan() failed: %v", err)
	}
	if resp.Success || resp.Message != "Server is offline. Please try again later." {
		t.Fatalf("resp = %+v", resp)
	}
	// The attempt still reaches a resettable terminal state and is counted.
	if orch.State() != checkin.StateResult {
		t.Fatalf("state = %v, want result", orch.State())
	}
	stats := orch.Snapshot().Stats
	if stats.Total != 1 || stats.Failed != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	orch.Reset()
	if orch.State() != checkin.StateIdle {
		t.Fatalf("reset did not return to idle")
	}
}
