// Package checkout implements the linear checkout flow.
package checkout

import (
	"sync"

	"github.com/sangkips/storefront-api/internal/domain/entity"
	"github.com/sangkips/storefront-api/internal/domain/enum"
)

// Machine tracks the current step and which steps have been completed.
// Steps run contact, address, shipping, payment; payment is terminal.
type Machine struct {
	mu        sync.RWMutex
	current   enum.CheckoutStepID
	completed map[enum.CheckoutStepID]bool
}

// NewMachine creates a new machine positioned at the contact step
func NewMachine() *Machine {
	return &Machine{
		current:   enum.CheckoutStepContact,
		completed: make(map[enum.CheckoutStepID]bool),
	}
}

// Current returns the active step
func (m *Machine) Current() enum.CheckoutStepID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Complete marks the current step completed and advances. Completing any
// other step is rejected.
func (m *Machine) Complete(step enum.CheckoutStepID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if step != m.current {
		return false
	}
	m.completed[step] = true
	m.current = step.Next()
	return true
}

// Back moves to the preceding step regardless of completion
func (m *Machine) Back() enum.CheckoutStepID {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.current.Prev()
	return m.current
}

// GoTo jumps to a completed step or the current one. Forward jumps to an
// unvisited step are no-ops and return false.
func (m *Machine) GoTo(step enum.CheckoutStepID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !step.Valid() {
		return false
	}
	if step != m.current && !m.completed[step] {
		return false
	}
	m.current = step
	return true
}

// Steps reports each step with its display status
func (m *Machine) Steps() []entity.CheckoutStep {
	m.mu.RLock()
	defer m.mu.RUnlock()
	steps := make([]entity.CheckoutStep, 0, len(enum.CheckoutSteps))
	for _, id := range enum.CheckoutSteps {
		status := enum.StepStatusUpcoming
		switch {
		case id == m.current:
			status = enum.StepStatusActive
		case m.completed[id]:
			status = enum.StepStatusCompleted
		}
		steps = append(steps, entity.CheckoutStep{ID: id, Label: id.Label(), Status: status})
	}
	return steps
}

// Reset returns to the contact step and forgets completion
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = enum.CheckoutStepContact
	m.completed = make(map[enum.CheckoutStepID]bool)
}
