package school

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/rekodi/core"
)

// Section is a homeroom class for one school year. The adviser is a weak
// reference to the teacher currently reviewing the section's quarter records;
// it never owns the referenced user.
type Section struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	GradeLevel int       `json:"grade_level"`
	SchoolYear string    `json:"school_year"`
	AdviserID  string    `json:"adviser_id"`
	Version    int       `json:"version"` // optimistic lock counter
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

// NewSection contains information needed to create a new Section.
type NewSection struct {
	Name       string `json:"name" validate:"required"`
	GradeLevel int    `json:"grade_level" validate:"required,min=1,max=12"`
	SchoolYear string `json:"school_year" validate:"required"`
	AdviserID  string `json:"adviser_id" validate:"omitempty,uuid4"`
}

func (ns *NewSection) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.SchoolYear = core.CleanString(ns.SchoolYear)
	return validate.Struct(ns)
}

// UpdateSection defines what information may be provided to modify an
// existing Section. Version must match the stored row or the update is
// rejected with ErrConcurrentModification.
type UpdateSection struct {
	Name       string `json:"name"`
	GradeLevel int    `json:"grade_level" validate:"omitempty,min=1,max=12"`
	AdviserID  string `json:"adviser_id" validate:"omitempty,uuid4"`
	Version    int    `json:"version" validate:"min=0"`
}

func (us *UpdateSection) Validate(validate *validator.Validate) error {
	us.Name = core.CleanString(us.Name)
	return validate.Struct(us)
}

// GetFilter fetches a single Section by ID or by (Name, SchoolYear).
type GetFilter struct {
	ID         string
	Name       string
	SchoolYear string
}

type QueryFilter struct {
	Search     string `query:"search"`
	GradeLevel int    `query:"grade_level"`
	SchoolYear string `query:"school_year"`
	AdviserID  string `query:"adviser_id"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.GradeLevel == 0 && qf.SchoolYear == "" && qf.AdviserID == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
