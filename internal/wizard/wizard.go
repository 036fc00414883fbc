// Package wizard is a linear step machine with gated forward movement.
//
// A step's status is derived from the current index on every call and never
// stored, so it cannot disagree with the data behind it.
package wizard

// Status is a step's position relative to the current step.
type Status int

const (
	Pending Status = iota
	Current
	Completed
)

func (s Status) String() string {
	switch s {
	case Current:
		return "current"
	case Completed:
		return "completed"
	default:
		return "pending"
	}
}

// Step identifies one wizard page.
type Step struct {
	ID    string
	Title string
}

// Controller tracks the current step. It is not safe for concurrent use;
// callers serialize access the same way they serialize UI events.
type Controller struct {
	steps      []Step
	canAdvance func(index int) bool
	current    int
}

// New creates a controller positioned at step 0. canAdvance(i) reports
// whether the user may leave step i going forward.
func New(steps []Step, canAdvance func(index int) bool) *Controller {
	if canAdvance == nil {
		canAdvance = func(int) bool { return true }
	}
	return &Controller{steps: steps, canAdvance: canAdvance}
}

// Current returns the current step index.
func (c *Controller) Current() int { return c.current }

// CurrentStep returns the current step.
func (c *Controller) CurrentStep() Step { return c.steps[c.current] }

// Steps returns the step list.
func (c *Controller) Steps() []Step {
	out := make([]Step, len(c.steps))
	copy(out, c.steps)
	return out
}

// Len returns the number of steps.
func (c *Controller) Len() int { return len(c.steps) }

// IsLast reports whether the current step is the terminal one.
func (c *Controller) IsLast() bool { return c.current == len(c.steps)-1 }

// CanAdvance evaluates the gate of the current step.
func (c *Controller) CanAdvance() bool { return c.canAdvance(c.current) }

// Status returns the status of step i.
func (c *Controller) Status(i int) Status {
	switch {
	case i < c.current:
		return Completed
	case i == c.current:
		return Current
	default:
		return Pending
	}
}

// StepStatuses returns the status of every step.
func (c *Controller) StepStatuses() []Status {
	out := make([]Status, len(c.steps))
	for i := range c.steps {
		out[i] = c.Status(i)
	}
	return out
}

// Next moves one step forward if the current step's gate holds. The terminal
// step has no successor.
func (c *Controller) Next() bool {
	if c.IsLast() || !c.canAdvance(c.current) {
		return false
	}
	c.current++
	return true
}

// Previous moves one step back. It is refused only on the first step.
func (c *Controller) Previous() bool {
	if c.current == 0 {
		return false
	}
	c.current--
	return true
}

// GoTo jumps to step i. Backward jumps are always allowed. A forward jump
// requires the gate of every step it passes. Out-of-range or refused jumps
// leave the controller unchanged.
func (c *Controller) GoTo(i int) bool {
	if i < 0 || i >= len(c.steps) {
		return false
	}
	if i <= c.current {
		c.current = i
		return true
	}
	for s := c.current; s < i; s++ {
		if !c.canAdvance(s) {
			return false
		}
	}
	c.current = i
	return true
}

// Resume positions the controller for restored data: it walks forward from
// step 0 while gates hold, stopping at saved. It returns the step reached.
func (c *Controller) Resume(saved int) int {
	if saved >= len(c.steps) {
		saved = len(c.steps) - 1
	}
	c.current = 0
	for c.current < saved && c.canAdvance(c.current) {
		c.current++
	}
	return c.current
}
