package zone

import "fmt"

// PlanStatus represents the lifecycle state of a zone plan.
type PlanStatus string

const (
	StatusDraft    PlanStatus = "draft"
	StatusActive   PlanStatus = "active"
	StatusArchived PlanStatus = "archived"
)

// validTransitions defines the state machine for zone plan status transitions.
var validTransitions = map[PlanStatus][]PlanStatus{
	StatusDraft:    {StatusActive, StatusArchived},
	StatusActive:   {StatusArchived},
	StatusArchived: {},
}

// IsValid returns true if the status is a recognized plan status.
func (s PlanStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s PlanStatus) CanTransitionTo(target PlanStatus) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s PlanStatus) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// String returns the string representation of the status.
func (s PlanStatus) String() string {
	return string(s)
}

// ParsePlanStatus converts a string to a PlanStatus, returning an error if invalid.
func ParsePlanStatus(s string) (PlanStatus, error) {
	status := PlanStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid plan status: %s", s)
	}
	return status, nil
}
