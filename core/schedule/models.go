package schedule

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/rekodi/core"
)

// Schedule is a recurring class meeting: a teacher and a section bound to a
// time window, optionally in a room. Intervals are half-open [StartsAt, EndsAt).
type Schedule struct {
	ID         string    `json:"id"`
	TeacherID  string    `json:"teacher_id"`
	SectionID  string    `json:"section_id"`
	SubjectID  string    `json:"subject_id"`
	Quarter    int       `json:"quarter"`
	SchoolYear string    `json:"school_year"`
	Days       []string  `json:"days,omitempty"` // informational; not part of conflict checks
	StartsAt   time.Time `json:"starts_at"`      // UTC
	EndsAt     time.Time `json:"ends_at"`        // UTC
	Room       string    `json:"room,omitempty"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

// Candidate is a proposed window to check for collisions before it is
// persisted. ExcludeID skips a schedule's own row during an update.
type Candidate struct {
	TeacherID string    `json:"teacher_id" validate:"required,uuid4"`
	SectionID string    `json:"section_id" validate:"required,uuid4"`
	Room      string    `json:"room"`
	StartsAt  time.Time `json:"starts_at" validate:"required"`
	EndsAt    time.Time `json:"ends_at" validate:"required"`
	ExcludeID string    `json:"exclude_schedule_id"`
}

func (c *Candidate) Validate(validate *validator.Validate) error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if !c.StartsAt.Before(c.EndsAt) {
		return &InvalidIntervalError{StartsAt: c.StartsAt, EndsAt: c.EndsAt}
	}
	return nil
}

type NewSchedule struct {
	TeacherID  string    `json:"teacher_id" validate:"required,uuid4"`
	SectionID  string    `json:"section_id" validate:"required,uuid4"`
	SubjectID  string    `json:"subject_id" validate:"required,uuid4"`
	Quarter    int       `json:"quarter" validate:"required,quarter"`
	SchoolYear string    `json:"school_year" validate:"required"`
	Days       []string  `json:"days" validate:"omitempty,dive,oneof=mon tue wed thu fri sat sun"`
	StartsAt   time.Time `json:"starts_at" validate:"required"`
	EndsAt     time.Time `json:"ends_at" validate:"required"`
	Room       string    `json:"room"`
}

func (ns *NewSchedule) Validate(validate *validator.Validate) error {
	ns.SchoolYear = core.CleanString(ns.SchoolYear)
	ns.Room = core.CleanString(ns.Room)
	if err := validate.Struct(ns); err != nil {
		return err
	}
	if !ns.StartsAt.Before(ns.EndsAt) {
		return &InvalidIntervalError{StartsAt: ns.StartsAt, EndsAt: ns.EndsAt}
	}
	return nil
}

func (ns *NewSchedule) candidate() Candidate {
	return Candidate{
		TeacherID: ns.TeacherID,
		SectionID: ns.SectionID,
		Room:      ns.Room,
		StartsAt:  ns.StartsAt,
		EndsAt:    ns.EndsAt,
	}
}

type UpdateSchedule struct {
	TeacherID string     `json:"teacher_id" validate:"omitempty,uuid4"`
	SubjectID string     `json:"subject_id" validate:"omitempty,uuid4"`
	Days      []string   `json:"days" validate:"omitempty,dive,oneof=mon tue wed thu fri sat sun"`
	StartsAt  *time.Time `json:"starts_at"`
	EndsAt    *time.Time `json:"ends_at"`
	Room      *string    `json:"room"`
}

func (us *UpdateSchedule) Validate(validate *validator.Validate) error {
	if us.Room != nil {
		room := core.CleanString(*us.Room)
		us.Room = &room
	}
	return validate.Struct(us)
}

// merge applies us on top of orig and checks the resulting interval.
func (us *UpdateSchedule) merge(orig Schedule) (Schedule, error) {
	sched := orig
	if us.TeacherID != "" {
		sched.TeacherID = us.TeacherID
	}
	if us.SubjectID != "" {
		sched.SubjectID = us.SubjectID
	}
	if us.Days != nil {
		sched.Days = us.Days
	}
	if us.StartsAt != nil {
		sched.StartsAt = *us.StartsAt
	}
	if us.EndsAt != nil {
		sched.EndsAt = *us.EndsAt
	}
	if us.Room != nil {
		sched.Room = *us.Room
	}

	if !sched.StartsAt.Before(sched.EndsAt) {
		return Schedule{}, &InvalidIntervalError{StartsAt: sched.StartsAt, EndsAt: sched.EndsAt}
	}
	return sched, nil
}

type GetFilter struct {
	ID string
}

type QueryFilter struct {
	TeacherID  string `query:"teacher_id"`
	SectionID  string `query:"section_id"`
	Quarter    int    `query:"quarter"`
	SchoolYear string `query:"school_year"`
	Room       string `query:"room"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.TeacherID == "" && qf.SectionID == "" && qf.Quarter == 0 && qf.SchoolYear == "" && qf.Room == ""
}
