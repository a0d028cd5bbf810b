// Package station wires one operator scanner station: authorizing the
// operator against the backend and driving the line-oriented command loop
// that feeds the selector and the check-in orchestrator.
package station

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"symposium/internal/api"
	"symposium/internal/model"
	"symposium/internal/rolegate"
)

// Credentials is the persisted operator session. Satisfied by *session.Store.
type Credentials interface {
	Token() (string, error)
	Invalidate() error
	SetCachedProfile(model.UserProfile) error
	CachedProfile() (*model.UserProfile, time.Time, error)
}

// Profiles fetches the operator's identity. Satisfied by *api.Client.
type Profiles interface {
	Profile(ctx context.Context) (model.UserProfile, error)
}

// Authorize fetches a fresh profile and runs the role gate for route. A 401
// from the profile fetch always clears stored credentials; a transport
// failure never does and only falls back to the cached profile for display.
// An operator without a stored token never reaches the backend at all.
func Authorize(ctx context.Context, route rolegate.Route, creds Credentials, backend Profiles, log zerolog.Logger) (model.UserProfile, error) {
	token, err := creds.Token()
	if err != nil {
		return model.UserProfile{}, err
	}
	if token == "" {
		return model.UserProfile{}, errors.New("not authenticated: set STATION_TOKEN to log this station in")
	}

	profile, err := backend.Profile(ctx)
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		_ = creds.Invalidate()
		return model.UserProfile{}, errors.New("session expired: log in again and set STATION_TOKEN")
	case errors.Is(err, api.ErrServerOffline):
		if cached, at, cerr := creds.CachedProfile(); cerr == nil && cached != nil {
			log.Warn().Str("operator", cached.Name).Time("cached_at", at).
				Msg("backend offline; cached identity shown for display only")
		}
		return model.UserProfile{}, errors.New("backend unreachable: scanner unavailable until the server is back")
	case err != nil:
		return model.UserProfile{}, err
	}

	_ = creds.SetCachedProfile(profile)

	switch rolegate.Evaluate(route, token, &profile) {
	case rolegate.DecisionLogin:
		_ = creds.Invalidate()
		return model.UserProfile{}, errors.New("session expired: log in again and set STATION_TOKEN")
	case rolegate.DecisionDenied:
		return model.UserProfile{}, errors.New(rolegate.DeniedMessage(route))
	}
	return profile, nil
}
