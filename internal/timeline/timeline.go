// Package timeline derives the progress timeline shown for a tracked
// intervention from its status and sub-status. Pure, no I/O.
package timeline

import "github.com/tekfaso/urgelec/internal/models"

// Step names, in display order.
const (
	StepReceived      = "Received"
	StepAgentAssigned = "AgentAssigned"
	StepEnRoute       = "EnRoute"
	StepArrived       = "Arrived"
	StepCompleted     = "Completed"
)

type Step struct {
	Name      string
	Active    bool
	Completed bool
	// Note carries the "in progress..." marker on the current step while
	// the intervention is not terminal; empty everywhere else.
	Note string
}

// Steps maps an intervention onto the fixed five-step timeline. Flags are
// static membership tests on the canonical status, refined by sub-status
// for the en-route/arrived distinction. An unrecognized status leaves
// every step after Received inactive.
func Steps(in models.Intervention) []Step {
	status := models.NormalizeStatus(in.Status)
	sub := models.NormalizeSubStatus(in.SubStatus)
	terminal := models.Terminal(status)

	steps := []Step{
		{
			Name:      StepReceived,
			Active:    true,
			Completed: true,
		},
		{
			Name:      StepAgentAssigned,
			Active:    statusIn(status, models.StatusAccepted, models.StatusInProgress, models.StatusCompleted, models.StatusClosed),
			Completed: statusIn(status, models.StatusInProgress, models.StatusCompleted, models.StatusClosed),
		},
		{
			Name:      StepEnRoute,
			Active:    status == models.StatusInProgress || terminal,
			Completed: (status == models.StatusInProgress && sub == models.SubStatusArrived) || terminal,
		},
		{
			Name:      StepArrived,
			Active:    (status == models.StatusInProgress && sub == models.SubStatusArrived) || terminal,
			Completed: terminal,
		},
		{
			Name:      StepCompleted,
			Active:    terminal,
			Completed: terminal,
		},
	}

	if !terminal {
		steps[CurrentIndex(steps)].Note = "in progress..."
	}
	return steps
}

// CurrentIndex is the highest index whose Active flag is set, resolved by
// a left fold so ties land on the latest active step.
func CurrentIndex(steps []Step) int {
	idx := 0
	for i, s := range steps {
		if s.Active {
			idx = i
		}
	}
	return idx
}

func statusIn(status string, set ...string) bool {
	for _, s := range set {
		if status == s {
			return true
		}
	}
	return false
}
