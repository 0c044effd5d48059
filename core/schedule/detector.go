package schedule

import "time"

// Dimension names the resource a collision occurs on.
type Dimension string

const (
	DimensionTeacher Dimension = "teacher"
	DimensionSection Dimension = "section"
	DimensionRoom    Dimension = "room"
)

// Conflict pairs a colliding schedule with the dimension it collides on. The
// same schedule appears once per dimension it conflicts on.
type Conflict struct {
	Dimension Dimension `json:"dimension"`
	Schedule  Schedule  `json:"schedule"`
}

// Overlaps reports whether the half-open intervals [s1, e1) and [s2, e2)
// intersect. Back-to-back windows sharing an endpoint do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// Detect runs the candidate window against existing schedules and returns
// every collision, in input order, teacher then section then room per
// schedule. The schedule named by ExcludeID is skipped on all dimensions, so
// updating a schedule never conflicts with itself. The room dimension is
// only checked when the candidate names a room.
func Detect(c Candidate, existing []Schedule) []Conflict {
	var conflicts []Conflict
	for _, s := range existing {
		if c.ExcludeID != "" && s.ID == c.ExcludeID {
			continue
		}
		if !Overlaps(c.StartsAt, c.EndsAt, s.StartsAt, s.EndsAt) {
			continue
		}
		if s.TeacherID == c.TeacherID {
			conflicts = append(conflicts, Conflict{Dimension: DimensionTeacher, Schedule: s})
		}
		if s.SectionID == c.SectionID {
			conflicts = append(conflicts, Conflict{Dimension: DimensionSection, Schedule: s})
		}
		if c.Room != "" && s.Room == c.Room {
			conflicts = append(conflicts, Conflict{Dimension: DimensionRoom, Schedule: s})
		}
	}
	return conflicts
}
