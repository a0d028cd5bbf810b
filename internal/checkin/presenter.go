package checkin

import (
	"fmt"
	"strings"

	"symposium/internal/model"
)

// RenderResult renders one outcome for the operator terminal. It is a pure
// function of the result and the processing flag: while processing is set a
// distinct transient frame is shown regardless of any prior result, and each
// of the three outcomes gets a visually distinct frame. The reset
// affordance ("scan next") is part of every terminal frame.
func RenderResult(result *model.CheckInResponse, processing bool) string {
	if processing {
		return frame("...", "PROCESSING", "verifying code, hold steady")
	}
	if result == nil {
		return ""
	}

	switch ClassifyOutcome(*result) {
	case OutcomeSuccess:
		return frame("[OK]", "CHECKED IN", detail(result), resetHint)
	case OutcomeAlreadyCheckedIn:
		return frame("[!!]", "ALREADY CHECKED IN", detail(result), resetHint)
	default:
		return frame("[XX]", "CHECK-IN FAILED", detail(result), resetHint)
	}
}

const resetHint = "press enter to scan next"

func detail(r *model.CheckInResponse) string {
	var parts []string
	if r.User != nil {
		who := r.User.Name
		if r.User.Email != "" {
			who += " <" + r.User.Email + ">"
		}
		parts = append(parts, who)
	}
	if r.Event != nil {
		parts = append(parts, r.Event.Title)
	}
	if r.Message != "" {
		parts = append(parts, r.Message)
	}
	if r.Timestamp != nil {
		parts = append(parts, r.Timestamp.Format("15:04:05"))
	}
	return strings.Join(parts, " | ")
}

func frame(badge, title string, lines ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", badge, title)
	for _, l := range lines {
		if l != "" {
			fmt.Fprintf(&b, "    %s\n", l)
		}
	}
	return b.String()
}

// RenderStats renders the four session counters on one line.
func RenderStats(s Stats) string {
	return fmt.Sprintf("scans %d | ok %d | dup %d | failed %d",
		s.Total, s.Successful, s.AlreadyCheckedIn, s.Failed)
}
