// Package registration builds and validates event registration submissions
// before they reach the backend. The backend remains the authority; this is
// the same pre-flight validation the registration form performs.
package registration

import (
	"errors"
	"fmt"

	"symposium/internal/model"
)

// ValidateIndividual checks the required fields of an individual
// registration.
func ValidateIndividual(phoneNumber, college string) error {
	if phoneNumber == "" || college == "" {
		return errors.New("Phone number and college are required")
	}
	return nil
}

// ValidateTeam enforces the team invariants against the event's configured
// bounds: name present, member count within [min,max], every member with
// identity fields, and exactly one leader.
func ValidateTeam(event model.Event, teamName string, members []model.TeamMember) error {
	if teamName == "" {
		return errors.New("Team name is required")
	}
	min, max := 1, 1
	if event.TeamSize != nil {
		min, max = event.TeamSize.Min, event.TeamSize.Max
	}
	if len(members) < min {
		return fmt.Errorf("Minimum %d team members required", min)
	}
	if len(members) > max {
		return fmt.Errorf("Maximum %d team members allowed", max)
	}
	leaders := 0
	for _, m := range members {
		if m.Name == "" || m.Email == "" || m.PhoneNumber == "" || m.College == "" {
			return errors.New("All team members must have name, email, phone, and college")
		}
		if m.IsLeader {
			leaders++
		}
	}
	if leaders != 1 {
		return errors.New("Exactly one team member must be the leader")
	}
	return nil
}

// NewIndividualRequest validates and builds an individual submission.
func NewIndividualRequest(event model.Event, phoneNumber, college, department, year string) (model.RegistrationRequest, error) {
	if event.IsTeamEvent {
		return model.RegistrationRequest{}, fmt.Errorf("%s is a team event", event.Title)
	}
	if err := ValidateIndividual(phoneNumber, college); err != nil {
		return model.RegistrationRequest{}, err
	}
	return model.RegistrationRequest{
		EventID:     event.ID,
		PhoneNumber: phoneNumber,
		College:     college,
		Department:  department,
		Year:        year,
	}, nil
}

// NewTeamRequest validates and builds a team submission.
func NewTeamRequest(event model.Event, teamName string, members []model.TeamMember) (model.RegistrationRequest, error) {
	if !event.IsTeamEvent {
		return model.RegistrationRequest{}, fmt.Errorf("%s is not a team event", event.Title)
	}
	if err := ValidateTeam(event, teamName, members); err != nil {
		return model.RegistrationRequest{}, err
	}
	return model.RegistrationRequest{
		EventID:            event.ID,
		IsTeamRegistration: true,
		TeamName:           teamName,
		TeamMembers:        members,
	}, nil
}

// SetLeader marks exactly the member at index as leader, the form's
// "make leader" action.
func SetLeader(members []model.TeamMember, index int) []model.TeamMember {
	out := make([]model.TeamMember, len(members))
	for i, m := range members {
		m.IsLeader = i == index
		out[i] = m
	}
	return out
}
