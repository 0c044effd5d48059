package record

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/rekodi/core"
)

// Status is the lifecycle state of a QuarterPackage.
type Status string

const (
	StatusPending          Status = "pending"
	StatusSubmitted        Status = "submitted"
	StatusApproved         Status = "approved"
	StatusReturned         Status = "returned"
	StatusForwardedToAdmin Status = "forwarded_to_admin"
	StatusPublished        Status = "published"
)

// TeacherFacing aliases "returned" to "pending": a returned package is back
// in the teacher's hands for rework.
func (s Status) TeacherFacing() Status {
	if s == StatusReturned {
		return StatusPending
	}
	return s
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSubmitted, StatusApproved, StatusReturned, StatusForwardedToAdmin, StatusPublished:
		return true
	}
	return false
}

// Action is a workflow operation attempted on a QuarterPackage.
type Action string

const (
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReturn  Action = "return"
	ActionForward Action = "forward"
	ActionPublish Action = "publish"
)

// QuarterPackage bundles one section's grade/attendance/feedback records for
// one academic quarter; exactly one exists per (SectionID, Quarter).
type QuarterPackage struct {
	ID          string     `json:"id"`
	SectionID   string     `json:"section_id"`
	Quarter     int        `json:"quarter"`
	TeacherID   string     `json:"teacher_id"` // owning teacher
	Status      Status     `json:"status"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"` // UTC
	AdviserID   string     `json:"adviser_id,omitempty"`   // most recent acting adviser
	Remarks     string     `json:"remarks,omitempty"`      // set on return
	CreatedAt   time.Time  `json:"created_at"`             // UTC
	UpdatedAt   time.Time  `json:"updated_at"`             // UTC
}

// Approval is one immutable entry in a package's approval ledger.
// Rows are only ever appended, never updated or deleted.
type Approval struct {
	ID         string    `json:"id"`
	PackageID  string    `json:"package_id"`
	ApproverID string    `json:"approver_id"`
	Action     Action    `json:"action"` // approve | return
	Remarks    string    `json:"remarks,omitempty"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}

// SubmitPackage identifies the section-quarter a teacher is handing off.
type SubmitPackage struct {
	SectionID string `json:"section_id" validate:"required,uuid4"`
	Quarter   int    `json:"quarter" validate:"required,quarter"`
}

func (sp *SubmitPackage) Validate(validate *validator.Validate) error {
	return validate.Struct(sp)
}

// ReviewPackage carries a reviewer's remarks; required when returning.
type ReviewPackage struct {
	Remarks string `json:"remarks"`
}

func (rp *ReviewPackage) Validate(validate *validator.Validate, action Action) error {
	rp.Remarks = core.CleanString(rp.Remarks)
	if action == ActionReturn && rp.Remarks == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "remarks", Error: "remarks are required when returning a package"})
	}
	return validate.Struct(rp)
}

// GetFilter fetches a single QuarterPackage by ID or by (SectionID, Quarter).
type GetFilter struct {
	ID        string
	SectionID string
	Quarter   int
}

type QueryFilter struct {
	SectionID string `query:"section_id"`
	TeacherID string `query:"teacher_id"`
	Quarter   int    `query:"quarter"`
	Status    Status `query:"status"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.SectionID == "" && qf.TeacherID == "" && qf.Quarter == 0 && qf.Status == ""
}
