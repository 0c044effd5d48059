package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var ErrScheduleNotFound = errors.New("schedule not found")

// InvalidIntervalError reports a window whose start does not precede its end.
type InvalidIntervalError struct {
	StartsAt time.Time
	EndsAt   time.Time
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("invalid interval: starts_at %s must be before ends_at %s",
		e.StartsAt.Format(time.RFC3339), e.EndsAt.Format(time.RFC3339))
}

// ConflictError rejects a write that would collide with existing schedules.
// It carries the full conflict list so callers can report every collision,
// not just the first.
type ConflictError struct {
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	dims := make([]string, 0, len(e.Conflicts))
	seen := make(map[Dimension]bool, 3)
	for _, c := range e.Conflicts {
		if !seen[c.Dimension] {
			seen[c.Dimension] = true
			dims = append(dims, string(c.Dimension))
		}
	}
	return fmt.Sprintf("schedule conflicts on %s (%d collision(s))", strings.Join(dims, ", "), len(e.Conflicts))
}

// IsConflict reports whether err is a schedule collision rejection.
func IsConflict(err error) bool {
	_, ok := errors.Cause(err).(*ConflictError)
	return ok
}
