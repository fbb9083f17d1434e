package signup

import (
	"errors"
	"fmt"
)

// Step is a state of the signup wizard.
type Step string

const (
	StepPAN      Step = "pan"
	StepOTP      Step = "otp"
	StepEmployee Step = "employee"
	StepAadhaar  Step = "aadhaar"
	StepBank     Step = "bank"
	StepMPIN     Step = "mpin"
	StepComplete Step = "complete"
)

// Steps lists the wizard states in order.
var Steps = []Step{StepPAN, StepOTP, StepEmployee, StepAadhaar, StepBank, StepMPIN, StepComplete}

var (
	ErrInvalidStep  = errors.New("action not allowed at the current signup step")
	ErrNotSkippable = errors.New("current signup step cannot be skipped")
	ErrCompleted    = errors.New("signup already completed")
)

var transitions = func() map[Step]Step {
	t := make(map[Step]Step, len(Steps)-1)
	for i := 0; i < len(Steps)-1; i++ {
		t[Steps[i]] = Steps[i+1]
	}
	return t
}()

var skippable = map[Step]bool{
	StepAadhaar: true,
	StepBank:    true,
}

func (s Step) Valid() bool {
	_, ok := transitions[s]
	return ok || s == StepComplete
}

// Index is the zero-based position of s, or -1.
func (s Step) Index() int {
	for i, st := range Steps {
		if st == s {
			return i
		}
	}
	return -1
}

func (s Step) Skippable() bool {
	return skippable[s]
}

// Expect returns an error unless current is want.
func Expect(current, want Step) error {
	if current == StepComplete {
		return ErrCompleted
	}
	if current != want {
		return fmt.Errorf("%w: at %s, not %s", ErrInvalidStep, current, want)
	}
	return nil
}

// Advance moves past a completed step. There are no backward edges.
func Advance(current, completed Step) (Step, error) {
	if err := Expect(current, completed); err != nil {
		return current, err
	}
	return transitions[current], nil
}

// Skip bypasses current when it has a skip edge.
func Skip(current Step) (Step, error) {
	if current == StepComplete {
		return current, ErrCompleted
	}
	if !current.Skippable() {
		return current, fmt.Errorf("%w: %s", ErrNotSkippable, current)
	}
	return transitions[current], nil
}
