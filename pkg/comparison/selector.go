// Package comparison implements the A/B run picker: two slots filled from a
// run list that may change between clicks, handed off as a consistent pair to
// the compare view.
package comparison

import (
	"errors"
	"sync"

	"github.com/flowdeck/flowdeck/pkg/models"
)

// SelectionTarget names the slot the next list click fills. While it is
// TargetNone a list click is plain navigation and must not be intercepted.
type SelectionTarget string

const (
	TargetNone SelectionTarget = ""
	TargetA    SelectionTarget = "a"
	TargetB    SelectionTarget = "b"
)

// Outcome reports what a list click did.
type Outcome string

const (
	// OutcomeApplied means the run was placed into a slot.
	OutcomeApplied Outcome = "applied"
	// OutcomeRejectedDuplicate means the run already occupies the other slot;
	// nothing changed and the caller should surface a warning.
	OutcomeRejectedDuplicate Outcome = "rejected_duplicate"
	// OutcomeNavigate means no slot is being picked; the click is a normal
	// open-detail navigation.
	OutcomeNavigate Outcome = "navigate"
)

// ErrSlotsIncomplete is returned by Compare before both slots are filled.
var ErrSlotsIncomplete = errors.New("both comparison slots must be filled")

// Selector is the picker state machine. Clicks are processed strictly in the
// order received; the mutex serializes them.
type Selector struct {
	mu     sync.Mutex
	open   bool
	target SelectionTarget
	slotA  *models.Run
	slotB  *models.Run
}

// NewSelector creates a closed picker with empty slots.
func NewSelector() *Selector {
	return &Selector{}
}

// IsOpen reports whether the picker is open.
func (s *Selector) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.open
}

// SelectionTarget returns the slot the next click fills, or TargetNone.
func (s *Selector) SelectionTarget() SelectionTarget {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.target
}

// SlotA returns the run currently held in slot A.
func (s *Selector) SlotA() *models.Run {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.slotA
}

// SlotB returns the run currently held in slot B.
func (s *Selector) SlotB() *models.Run {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.slotB
}

// ToggleOpen opens or closes the picker. Opening fresh starts with slot A;
// reopening with both slots already held goes straight to the armed display
// state without forcing re-selection. Closing preserves the slots.
func (s *Selector) ToggleOpen() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open {
		s.open = false
		s.target = TargetNone

		return
	}

	s.open = true

	switch {
	case s.slotA != nil && s.slotB != nil:
		s.target = TargetNone
	case s.slotA != nil:
		s.target = TargetB
	default:
		s.target = TargetA
	}
}

// SelectFromList handles a click on a run row. The outcome depends on the
// current selection target; with no target the click falls through to
// navigation untouched. A run can never occupy both slots, and each click
// lands on exactly one final target state.
func (s *Selector) SelectFromList(run *models.Run) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open || s.target == TargetNone {
		return OutcomeNavigate
	}

	switch s.target {
	case TargetA:
		if s.slotB != nil && s.slotB.ID == run.ID {
			return OutcomeRejectedDuplicate
		}

		s.slotA = run

		if s.slotB == nil {
			s.target = TargetB
		} else {
			s.target = TargetNone
		}
	case TargetB:
		if s.slotA != nil && s.slotA.ID == run.ID {
			return OutcomeRejectedDuplicate
		}

		s.slotB = run
		s.target = TargetNone
	}

	return OutcomeApplied
}

// SetSelectionTarget explicitly re-picks a slot. The other slot keeps its
// run. Ignored while the picker is closed.
func (s *Selector) SetSelectionTarget(target SelectionTarget) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return
	}

	s.target = target
}

// Compare returns the selected pair for the compare view. It is a pure read
// and fails before both slots are filled.
func (s *Selector) Compare() (*models.Run, *models.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.slotA == nil || s.slotB == nil {
		return nil, nil, ErrSlotsIncomplete
	}

	return s.slotA, s.slotB, nil
}

// Reset clears both slots and closes the picker.
func (s *Selector) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.open = false
	s.target = TargetNone
	s.slotA = nil
	s.slotB = nil
}

// HandleEscape routes a global cancel gesture. While the picker is open it
// behaves exactly like Reset and reports the gesture as consumed.
func (s *Selector) HandleEscape() bool {
	s.mu.Lock()
	open := s.open
	s.mu.Unlock()

	if !open {
		return false
	}

	s.Reset()

	return true
}
