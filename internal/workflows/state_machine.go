// internal/workflows/state_machine.go
package workflows

import "github.com/farmveda/agritrust-backend/internal/models"

// StateMachine enforces verification record status transitions.
type StateMachine struct {
	allowedTransitions map[models.RecordStatus][]models.RecordStatus
}

// NewStateMachine returns the state machine for the verification workflow.
// Approved and rejected are terminal: a product gets a fresh record for any
// re-verification instead of reopening an old one.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		allowedTransitions: map[models.RecordStatus][]models.RecordStatus{
			models.RecordStatusPending:    {models.RecordStatusInProgress},
			models.RecordStatusInProgress: {models.RecordStatusApproved, models.RecordStatusRejected, models.RecordStatusRequiresMoreInfo},
			// Back to pending once the farmer resubmits evidence, or rejected
			// if unresolved past the deadline.
			models.RecordStatusRequiresMoreInfo: {models.RecordStatusPending, models.RecordStatusRejected},
			models.RecordStatusApproved:         {},
			models.RecordStatusRejected:         {},
		},
	}
}

// CanTransition checks if a status transition is allowed.
func (sm *StateMachine) CanTransition(from, to models.RecordStatus) bool {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return false
	}
	for _, allowedTo := range allowed {
		if allowedTo == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the allowed next statuses for a given status.
func (sm *StateMachine) AllowedTransitions(from models.RecordStatus) []models.RecordStatus {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return []models.RecordStatus{}
	}
	return allowed
}
