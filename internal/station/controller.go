package station

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/rs/zerolog"

	"symposium/internal/checkin"
	"symposium/internal/model"
)

// Catalog is the event listing the session selector draws from. Satisfied by
// *api.Client.
type Catalog interface {
	checkin.Catalog
	InvalidateEvents()
}

// Controller interprets the station's line-oriented input: decoded QR
// payloads, the selector's event numbers and the slash commands.
type Controller struct {
	mode    model.CheckInType
	orch    *checkin.Orchestrator
	catalog Catalog
	out     io.Writer
	log     zerolog.Logger

	active []model.Event
}

// NewController creates a controller writing operator feedback to out.
func NewController(mode model.CheckInType, orch *checkin.Orchestrator, catalog Catalog, out io.Writer, log zerolog.Logger) *Controller {
	return &Controller{
		mode:    mode,
		orch:    orch,
		catalog: catalog,
		out:     out,
		log:     log,
	}
}

// Init shows the first screen: the event selector in session mode, the ready
// prompt otherwise.
func (c *Controller) Init(ctx context.Context) error {
	if c.mode == model.CheckInSession {
		active, err := checkin.LoadActiveEvents(ctx, c.catalog)
		if err != nil {
			return fmt.Errorf("load events: %w", err)
		}
		c.active = active
		c.printSelector()
		return nil
	}
	fmt.Fprintln(c.out, "ready to scan")
	return nil
}

// HandleLine interprets one line from the scan source. In the session
// selector sub-view a bare number picks an event; "/next" is the explicit
// scan-next reset, "/event" returns to a freshly fetched selector. Everything
// else is a decoded QR payload.
func (c *Controller) HandleLine(ctx context.Context, line string) {
	switch {
	case line == "/next":
		c.orch.Reset()
		fmt.Fprintln(c.out, "ready to scan")
		return
	case line == "/stats":
		fmt.Fprintln(c.out, checkin.RenderStats(c.orch.Snapshot().Stats))
		return
	case line == "/event" && c.mode == model.CheckInSession:
		c.orch.ClearEvent()
		c.catalog.InvalidateEvents()
		active, err := checkin.LoadActiveEvents(ctx, c.catalog)
		if err != nil {
			fmt.Fprintln(c.out, "event list unavailable; keeping the previous one")
			c.log.Error().Err(err).Msg("event refetch failed")
		} else {
			c.active = active
		}
		c.printSelector()
		return
	}

	if c.mode == model.CheckInSession && c.orch.SelectedEvent() == nil {
		if idx, err := strconv.Atoi(line); err == nil && idx >= 1 && idx <= len(c.active) {
			ev := c.active[idx-1]
			c.orch.SelectEvent(ev)
			fmt.Fprintf(c.out, "scanning for %s (%s)\n", ev.Title, ev.Venue)
		} else {
			c.printSelector()
		}
		return
	}

	fmt.Fprint(c.out, checkin.RenderResult(nil, true))
	resp, err := c.orch.HandleScan(ctx, line)
	switch {
	case errors.Is(err, checkin.ErrScanIgnored):
		fmt.Fprintln(c.out, "previous result still on screen; send /next first")
		return
	case errors.Is(err, checkin.ErrNoEventSelected):
		c.printSelector()
		return
	case err != nil:
		return
	}

	fmt.Fprint(c.out, checkin.RenderResult(&resp, false))
	fmt.Fprintln(c.out, checkin.RenderStats(c.orch.Snapshot().Stats))
	c.log.Info().Str("outcome", string(checkin.ClassifyOutcome(resp))).Msg("scan resolved")
}

func (c *Controller) printSelector() {
	if len(c.active) == 0 {
		fmt.Fprintln(c.out, "no active events found")
		return
	}
	fmt.Fprintln(c.out, "select an event (send its number):")
	for i, ev := range c.active {
		fmt.Fprintf(c.out, "  %d. %s [%s] %s %s\n", i+1, ev.Title, ev.Status, ev.Date, ev.Venue)
	}
}
