package service

import (
	"fmt"

	"github.com/noah-isme/academy-scheduler/internal/models"
	appErrors "github.com/noah-isme/academy-scheduler/pkg/errors"
)

// TransitionPolicy decides which status changes a daily class accepts.
//
// PermissiveTransitions lets any status follow any other, which is how the
// academy has always operated. StrictTransitions enforces the lifecycle table
// below: taken, declined, refused and rescheduled are final, and a class can
// only go online from scheduled, trial or advance.
type TransitionPolicy int

const (
	PermissiveTransitions TransitionPolicy = iota
	StrictTransitions
)

var sideOutcomes = []models.ClassStatus{
	models.StatusAbsent, models.StatusLeave, models.StatusDeclined,
	models.StatusSuspended, models.StatusRescheduled, models.StatusRefused,
}

var strictTransitions = func() map[models.ClassStatus][]models.ClassStatus {
	fromPending := append([]models.ClassStatus{models.StatusRunning}, sideOutcomes...)
	fromRunning := append([]models.ClassStatus{models.StatusTaken}, sideOutcomes...)
	reinstate := []models.ClassStatus{models.StatusScheduled, models.StatusRescheduled}
	return map[models.ClassStatus][]models.ClassStatus{
		models.StatusScheduled: fromPending,
		models.StatusTrial:     fromPending,
		models.StatusAdvance:   fromPending,
		models.StatusRunning:   fromRunning,
		models.StatusAbsent:    reinstate,
		models.StatusLeave:     reinstate,
		models.StatusSuspended: reinstate,
	}
}()

// PolicyFor maps the strict flag from configuration to a policy.
func PolicyFor(strict bool) TransitionPolicy {
	if strict {
		return StrictTransitions
	}
	return PermissiveTransitions
}

// String implements fmt.Stringer.
func (p TransitionPolicy) String() string {
	if p == StrictTransitions {
		return "strict"
	}
	return "permissive"
}

// Validate returns nil when from may move to to.
func (p TransitionPolicy) Validate(from, to models.ClassStatus) error {
	if !to.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", to))
	}
	if p != StrictTransitions {
		return nil
	}
	for _, allowed := range strictTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("cannot change status from %s to %s", from, to))
}
