// Package model holds the shared data types exchanged with the symposium
// backend API. The backend owns every mutation except where noted; this
// layer only reads, displays and validates.
package model

import "time"

// Role is the fixed set of platform roles. The role is assigned on first
// login and changed only by an admin action on the backend.
type Role string

const (
	RoleUser             Role = "user"
	RoleRegistrationTeam Role = "registration_team"
	RoleEventManager     Role = "event_manager"
	RoleSuperadmin       Role = "superadmin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleRegistrationTeam, RoleEventManager, RoleSuperadmin:
		return true
	}
	return false
}

// UserProfile is the authenticated user's record as returned by the backend.
// CheckedIn is mutated only by the backend check-in endpoint.
type UserProfile struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Picture     string     `json:"picture,omitempty"`
	Role        Role       `json:"role"`
	CheckedIn   bool       `json:"checkedIn"`
	CheckInTime *time.Time `json:"checkInTime,omitempty"`
	LastLogin   time.Time  `json:"lastLogin"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// EventType classifies an event.
type EventType string

const (
	EventWorkshop   EventType = "workshop"
	EventTalk       EventType = "talk"
	EventPanel      EventType = "panel"
	EventNetworking EventType = "networking"
)

// EventStatus is the event lifecycle state.
type EventStatus string

const (
	StatusUpcoming  EventStatus = "upcoming"
	StatusOngoing   EventStatus = "ongoing"
	StatusCompleted EventStatus = "completed"
	StatusCancelled EventStatus = "cancelled"
)

// TeamSize bounds the member count of a team event.
type TeamSize struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Event is a catalog entry. The client reads and displays it; creation and
// mutation happen through admin actions on the backend.
type Event struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Description     string      `json:"description,omitempty"`
	Date            string      `json:"date"`
	StartTime       string      `json:"startTime,omitempty"`
	EndTime         string      `json:"endTime,omitempty"`
	Venue           string      `json:"venue,omitempty"`
	Capacity        int         `json:"capacity"`
	RegisteredCount int         `json:"registeredCount"`
	EventType       EventType   `json:"eventType"`
	Status          EventStatus `json:"status"`
	IsTeamEvent     bool        `json:"isTeamEvent,omitempty"`
	TeamSize        *TeamSize   `json:"teamSize,omitempty"`
}

// Active reports whether the event should appear in the session check-in
// selector.
func (e Event) Active() bool {
	return e.Status == StatusUpcoming || e.Status == StatusOngoing
}

// TeamMember is one entry in a team registration. Exactly one member per
// team carries IsLeader.
type TeamMember struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	College     string `json:"college"`
	Department  string `json:"department,omitempty"`
	Year        string `json:"year,omitempty"`
	IsLeader    bool   `json:"isLeader"`
}

// RegistrationStatus tracks a registration through its lifecycle.
type RegistrationStatus string

const (
	RegStatusRegistered RegistrationStatus = "registered"
	RegStatusConfirmed  RegistrationStatus = "confirmed"
	RegStatusAttended   RegistrationStatus = "attended"
	RegStatusCancelled  RegistrationStatus = "cancelled"
)

// Registration links a user to an event. QRCode is the payload later
// presented at check-in.
type Registration struct {
	ID                 string             `json:"id"`
	EventID            string             `json:"eventId"`
	IsTeamRegistration bool               `json:"isTeamRegistration"`
	TeamName           string             `json:"teamName,omitempty"`
	TeamMembers        []TeamMember       `json:"teamMembers,omitempty"`
	PhoneNumber        string             `json:"phoneNumber,omitempty"`
	College            string             `json:"college,omitempty"`
	Department         string             `json:"department,omitempty"`
	Year               string             `json:"year,omitempty"`
	QRCode             string             `json:"qrCode"`
	RegistrationStatus RegistrationStatus `json:"registrationStatus"`
	CreatedAt          time.Time          `json:"createdAt"`
}

// RegistrationRequest is the submission payload for the registration form,
// either individual (PhoneNumber/College required) or team (TeamName and
// TeamMembers required).
type RegistrationRequest struct {
	EventID            string       `json:"eventId"`
	IsTeamRegistration bool         `json:"isTeamRegistration"`
	TeamName           string       `json:"teamName,omitempty"`
	TeamMembers        []TeamMember `json:"teamMembers,omitempty"`
	PhoneNumber        string       `json:"phoneNumber,omitempty"`
	College            string       `json:"college,omitempty"`
	Department         string       `json:"department,omitempty"`
	Year               string       `json:"year,omitempty"`
}

// CheckInType distinguishes building-entrance scans from per-session scans.
type CheckInType string

const (
	CheckInBuilding CheckInType = "building"
	CheckInSession  CheckInType = "session"
)

// UserSummary is the echoed attendee identity inside a check-in response.
type UserSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture,omitempty"`
}

// EventSummary is the echoed event inside a session check-in response.
type EventSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Venue string `json:"venue,omitempty"`
}

// CheckInResponse is the backend's answer to a single scan. A duplicate scan
// arrives either as Success with AlreadyCheckedIn set, or as a 409; the API
// client normalizes both so callers only look at these fields.
type CheckInResponse struct {
	Success          bool          `json:"success"`
	AlreadyCheckedIn bool          `json:"alreadyCheckedIn,omitempty"`
	Message          string        `json:"message"`
	User             *UserSummary  `json:"user,omitempty"`
	Event            *EventSummary `json:"event,omitempty"`
	Timestamp        *time.Time    `json:"timestamp,omitempty"`
}
