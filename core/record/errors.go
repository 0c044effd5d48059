package record

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrPackageNotFound = errors.New("quarter package not found")
	ErrPackageExists   = errors.New("a package already exists for this section and quarter")
)

// InvalidTransitionError reports a workflow action attempted from a state
// that has no edge for it.
type InvalidTransitionError struct {
	Status Status
	Action Action
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s a package in %q status", e.Action, e.Status)
}

// UnauthorizedTransitionError reports a valid workflow edge attempted by an
// actor who lacks the required role or relationship.
type UnauthorizedTransitionError struct {
	ActorID string
	Status  Status
	Action  Action
}

func (e *UnauthorizedTransitionError) Error() string {
	return fmt.Sprintf("user %q is not allowed to %s a package in %q status", e.ActorID, e.Action, e.Status)
}

// IsWorkflowError reports whether err is a transition rejection (as opposed
// to a lookup or storage failure).
func IsWorkflowError(err error) bool {
	switch errors.Cause(err).(type) {
	case *InvalidTransitionError, *UnauthorizedTransitionError:
		return true
	}
	return false
}
