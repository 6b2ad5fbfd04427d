// internal/workflows/state_machine_test.go
package workflows

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/farmveda/agritrust-backend/internal/models"
)

func TestStateMachineAllowedEdges(t *testing.T) {
	sm := NewStateMachine()

	allowed := [][2]models.RecordStatus{
		{models.RecordStatusPending, models.RecordStatusInProgress},
		{models.RecordStatusInProgress, models.RecordStatusApproved},
		{models.RecordStatusInProgress, models.RecordStatusRejected},
		{models.RecordStatusInProgress, models.RecordStatusRequiresMoreInfo},
		{models.RecordStatusRequiresMoreInfo, models.RecordStatusPending},
		{models.RecordStatusRequiresMoreInfo, models.RecordStatusRejected},
	}

	for _, edge := range allowed {
		assert.True(t, sm.CanTransition(edge[0], edge[1]), "expected %s -> %s to be allowed", edge[0], edge[1])
	}
}

func TestStateMachineTerminalStates(t *testing.T) {
	sm := NewStateMachine()

	statuses := []models.RecordStatus{
		models.RecordStatusPending,
		models.RecordStatusInProgress,
		models.RecordStatusApproved,
		models.RecordStatusRejected,
		models.RecordStatusRequiresMoreInfo,
	}

	for _, to := range statuses {
		assert.False(t, sm.CanTransition(models.RecordStatusApproved, to), "approved must be terminal, got edge to %s", to)
		assert.False(t, sm.CanTransition(models.RecordStatusRejected, to), "rejected must be terminal, got edge to %s", to)
	}

	assert.Empty(t, sm.AllowedTransitions(models.RecordStatusApproved))
	assert.Empty(t, sm.AllowedTransitions(models.RecordStatusRejected))
}

func TestStateMachineRejectsSkippedStates(t *testing.T) {
	sm := NewStateMachine()

	assert.False(t, sm.CanTransition(models.RecordStatusPending, models.RecordStatusApproved))
	assert.False(t, sm.CanTransition(models.RecordStatusPending, models.RecordStatusRejected))
	assert.False(t, sm.CanTransition(models.RecordStatusPending, models.RecordStatusRequiresMoreInfo))
	assert.False(t, sm.CanTransition(models.RecordStatusInProgress, models.RecordStatusPending))
	assert.False(t, sm.CanTransition(models.RecordStatusRequiresMoreInfo, models.RecordStatusApproved))
}

func TestStateMachineUnknownStatus(t *testing.T) {
	sm := NewStateMachine()

	assert.False(t, sm.CanTransition(models.RecordStatus("archived"), models.RecordStatusPending))
	assert.Empty(t, sm.AllowedTransitions(models.RecordStatus("archived")))
}
