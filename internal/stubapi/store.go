// Package stubapi emulates the symposium backend's REST contract for local
// development and end-to-end tests. It honors the same obligations the real
// backend does: duplicate detection, role enforcement, verbatim validation
// messages.
package stubapi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"symposium/internal/model"
)

// ErrNotFound marks an unknown QR payload, user or event.
var ErrNotFound = errors.New("not found")

// Store holds the stub fixtures in sqlite.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the fixture database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open stub db: %w", err)
	}
	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			picture TEXT DEFAULT '',
			role TEXT NOT NULL DEFAULT 'user',
			checked_in INTEGER NOT NULL DEFAULT 0,
			check_in_time DATETIME,
			qr_code TEXT NOT NULL UNIQUE,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT DEFAULT '',
			date TEXT DEFAULT '',
			start_time TEXT DEFAULT '',
			end_time TEXT DEFAULT '',
			venue TEXT DEFAULT '',
			capacity INTEGER NOT NULL DEFAULT 0,
			registered_count INTEGER NOT NULL DEFAULT 0,
			event_type TEXT NOT NULL DEFAULT 'talk',
			status TEXT NOT NULL DEFAULT 'upcoming',
			is_team_event INTEGER NOT NULL DEFAULT 0,
			team_min INTEGER,
			team_max INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS registrations (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			event_id TEXT NOT NULL,
			is_team INTEGER NOT NULL DEFAULT 0,
			team_name TEXT DEFAULT '',
			phone TEXT DEFAULT '',
			college TEXT DEFAULT '',
			department TEXT DEFAULT '',
			year TEXT DEFAULT '',
			qr_code TEXT NOT NULL UNIQUE,
			status TEXT NOT NULL DEFAULT 'registered',
			created_at DATETIME NOT NULL,
			UNIQUE(user_id, event_id)
		)`,
		`CREATE TABLE IF NOT EXISTS session_attendance (
			event_id TEXT NOT NULL,
			qr_code TEXT NOT NULL,
			checked_at DATETIME NOT NULL,
			PRIMARY KEY (event_id, qr_code)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SeedUser inserts a user fixture. qr is the attendee's badge payload.
func (s *Store) SeedUser(ctx context.Context, u model.UserProfile, qr string) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, picture, role, checked_in, qr_code, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.Name, u.Email, u.Picture, string(u.Role), boolInt(u.CheckedIn), qr, time.Now().UTC())
	return err
}

// SeedEvent inserts an event fixture.
func (s *Store) SeedEvent(ctx context.Context, e model.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	var tmin, tmax any
	if e.TeamSize != nil {
		tmin, tmax = e.TeamSize.Min, e.TeamSize.Max
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, title, description, date, start_time, end_time, venue,
			capacity, registered_count, event_type, status, is_team_event, team_min, team_max)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Title, e.Description, e.Date, e.StartTime, e.EndTime, e.Venue,
		e.Capacity, e.RegisteredCount, string(e.EventType), string(e.Status),
		boolInt(e.IsTeamEvent), tmin, tmax)
	return err
}

// UserByEmail is the dev-login lookup.
func (s *Store) UserByEmail(ctx context.Context, email string) (model.UserProfile, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, name, email, picture, role, checked_in, check_in_time, created_at
		FROM users WHERE email = ?`, email))
}

// UserByID backs the profile endpoint.
func (s *Store) UserByID(ctx context.Context, id string) (model.UserProfile, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, name, email, picture, role, checked_in, check_in_time, created_at
		FROM users WHERE id = ?`, id))
}

func (s *Store) scanUser(row *sql.Row) (model.UserProfile, error) {
	var u model.UserProfile
	var role string
	var checked int
	var checkTime sql.NullTime
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Picture, &role, &checked, &checkTime, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.UserProfile{}, ErrNotFound
		}
		return model.UserProfile{}, err
	}
	u.Role = model.Role(role)
	u.CheckedIn = checked != 0
	if checkTime.Valid {
		t := checkTime.Time
		u.CheckInTime = &t
	}
	return u, nil
}

// Events lists the catalog.
func (s *Store) Events(ctx context.Context) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, date, start_time, end_time, venue,
			capacity, registered_count, event_type, status, is_team_event, team_min, team_max
		FROM events ORDER BY date, start_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		var e model.Event
		var etype, status string
		var isTeam int
		var tmin, tmax sql.NullInt64
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.StartTime, &e.EndTime,
			&e.Venue, &e.Capacity, &e.RegisteredCount, &etype, &status, &isTeam, &tmin, &tmax); err != nil {
			return nil, err
		}
		e.EventType = model.EventType(etype)
		e.Status = model.EventStatus(status)
		e.IsTeamEvent = isTeam != 0
		if tmin.Valid && tmax.Valid {
			e.TeamSize = &model.TeamSize{Min: int(tmin.Int64), Max: int(tmax.Int64)}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// EventByID fetches one event.
func (s *Store) EventByID(ctx context.Context, id string) (model.Event, error) {
	var e model.Event
	var etype, status string
	var isTeam int
	var tmin, tmax sql.NullInt64
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, date, start_time, end_time, venue,
			capacity, registered_count, event_type, status, is_team_event, team_min, team_max
		FROM events WHERE id = ?`, id)
	if err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.StartTime, &e.EndTime,
		&e.Venue, &e.Capacity, &e.RegisteredCount, &etype, &status, &isTeam, &tmin, &tmax); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Event{}, ErrNotFound
		}
		return model.Event{}, err
	}
	e.EventType = model.EventType(etype)
	e.Status = model.EventStatus(status)
	e.IsTeamEvent = isTeam != 0
	if tmin.Valid && tmax.Valid {
		e.TeamSize = &model.TeamSize{Min: int(tmin.Int64), Max: int(tmax.Int64)}
	}
	return e, nil
}

// BuildingCheckIn marks the badge's owner checked into the building. The
// second return reports a prior check-in.
func (s *Store) BuildingCheckIn(ctx context.Context, qr string) (model.UserProfile, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, picture, role, checked_in, check_in_time, created_at
		FROM users WHERE qr_code = ?`, qr)
	u, err := s.scanUser(row)
	if err != nil {
		return model.UserProfile{}, false, err
	}
	if u.CheckedIn {
		return u, true, nil
	}
	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx, `
		UPDATE users SET checked_in = 1, check_in_time = ? WHERE id = ?`, now, u.ID); err != nil {
		return model.UserProfile{}, false, err
	}
	u.CheckedIn = true
	u.CheckInTime = &now
	return u, false, nil
}

// SessionCheckIn records attendance of the badge's owner at one event.
func (s *Store) SessionCheckIn(ctx context.Context, eventID, qr string) (model.UserProfile, model.Event, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, picture, role, checked_in, check_in_time, created_at
		FROM users WHERE qr_code = ?`, qr)
	u, err := s.scanUser(row)
	if err != nil {
		return model.UserProfile{}, model.Event{}, false, err
	}
	ev, err := s.EventByID(ctx, eventID)
	if err != nil {
		return model.UserProfile{}, model.Event{}, false, err
	}

	var exists int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM session_attendance WHERE event_id = ? AND qr_code = ?`,
		eventID, qr).Scan(&exists); err != nil {
		return model.UserProfile{}, model.Event{}, false, err
	}
	if exists > 0 {
		return u, ev, true, nil
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO session_attendance (event_id, qr_code, checked_at) VALUES (?, ?, ?)`,
		eventID, qr, time.Now().UTC()); err != nil {
		return model.UserProfile{}, model.Event{}, false, err
	}
	return u, ev, false, nil
}

// CreateRegistration validates capacity and uniqueness, then stores the
// registration and returns it with a fresh QR payload.
func (s *Store) CreateRegistration(ctx context.Context, userID string, req model.RegistrationRequest) (model.Registration, error) {
	ev, err := s.EventByID(ctx, req.EventID)
	if err != nil {
		return model.Registration{}, err
	}
	if ev.Capacity > 0 && ev.RegisteredCount >= ev.Capacity {
		return model.Registration{}, errors.New("Event is full")
	}

	var dup int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM registrations WHERE user_id = ? AND event_id = ?`,
		userID, req.EventID).Scan(&dup); err != nil {
		return model.Registration{}, err
	}
	if dup > 0 {
		return model.Registration{}, errors.New("You are already registered for this event")
	}

	reg := model.Registration{
		ID:                 uuid.NewString(),
		EventID:            req.EventID,
		IsTeamRegistration: req.IsTeamRegistration,
		TeamName:           req.TeamName,
		TeamMembers:        req.TeamMembers,
		PhoneNumber:        req.PhoneNumber,
		College:            req.College,
		Department:         req.Department,
		Year:               req.Year,
		QRCode:             "REG:" + uuid.NewString(),
		RegistrationStatus: model.RegStatusRegistered,
		CreatedAt:          time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO registrations (id, user_id, event_id, is_team, team_name, phone, college, department, year, qr_code, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, reg.ID, userID, reg.EventID, boolInt(reg.IsTeamRegistration), reg.TeamName,
		reg.PhoneNumber, reg.College, reg.Department, reg.Year, reg.QRCode,
		string(reg.RegistrationStatus), reg.CreatedAt)
	if err != nil {
		return model.Registration{}, err
	}
	if _, err := s.db.ExecContext(ctx, `
		UPDATE events SET registered_count = registered_count + 1 WHERE id = ?`, req.EventID); err != nil {
		return model.Registration{}, err
	}
	return reg, nil
}

// RegistrationByID fetches one stored registration and its owner.
func (s *Store) RegistrationByID(ctx context.Context, id string) (model.Registration, string, error) {
	var reg model.Registration
	var userID, status string
	var isTeam int
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, event_id, is_team, team_name, phone, college, department, year, qr_code, status, created_at
		FROM registrations WHERE id = ?`, id)
	if err := row.Scan(&reg.ID, &userID, &reg.EventID, &isTeam, &reg.TeamName, &reg.PhoneNumber,
		&reg.College, &reg.Department, &reg.Year, &reg.QRCode, &status, &reg.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Registration{}, "", ErrNotFound
		}
		return model.Registration{}, "", err
	}
	reg.IsTeamRegistration = isTeam != 0
	reg.RegistrationStatus = model.RegistrationStatus(status)
	return reg, userID, nil
}

// Close closes the fixture database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
