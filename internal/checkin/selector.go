package checkin

import (
	"context"

	"symposium/internal/model"
)

// Catalog lists the event catalog. Satisfied by *api.Client.
type Catalog interface {
	Events(ctx context.Context) ([]model.Event, error)
}

// ActiveEvents filters the catalog to events eligible for session check-in.
func ActiveEvents(events []model.Event) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if e.Active() {
			out = append(out, e)
		}
	}
	return out
}

// LoadActiveEvents fetches the catalog once and filters it. Called when the
// session scanner page mounts.
func LoadActiveEvents(ctx context.Context, catalog Catalog) ([]model.Event, error) {
	events, err := catalog.Events(ctx)
	if err != nil {
		return nil, err
	}
	return ActiveEvents(events), nil
}
