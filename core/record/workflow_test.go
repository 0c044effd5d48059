package record

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/rekodi/core/school"
	"github.com/trezcool/rekodi/core/user"
)

func TestTransition(t *testing.T) {
	teacher := user.User{ID: "t1", Roles: []string{user.RoleTeacher}}
	otherTeacher := user.User{ID: "t2", Roles: []string{user.RoleTeacher}}
	adviser := user.User{ID: "a1", Roles: []string{user.RoleTeacher}}
	principal := user.User{ID: "p1", Roles: []string{user.RoleAdminPrincipal}}
	student := user.User{ID: "s1", Roles: []string{user.RoleStudent}}

	sec := school.Section{ID: "sec1", AdviserID: adviser.ID}
	pkg := func(s Status) QuarterPackage {
		return QuarterPackage{ID: "pkg1", SectionID: sec.ID, Quarter: 1, TeacherID: teacher.ID, Status: s}
	}

	tests := []struct {
		name       string
		actor      user.User
		pkg        QuarterPackage
		action     Action
		wantStatus Status
		wantLedger bool
		wantErr    error
	}{
		{name: "owner submits pending", actor: teacher, pkg: pkg(StatusPending), action: ActionSubmit, wantStatus: StatusSubmitted},
		{name: "owner resubmits returned", actor: teacher, pkg: pkg(StatusReturned), action: ActionSubmit, wantStatus: StatusSubmitted},
		{name: "non-owner cannot submit", actor: otherTeacher, pkg: pkg(StatusPending), action: ActionSubmit,
			wantErr: &UnauthorizedTransitionError{ActorID: otherTeacher.ID, Status: StatusPending, Action: ActionSubmit}},
		{name: "student cannot submit", actor: student, pkg: pkg(StatusPending), action: ActionSubmit,
			wantErr: &UnauthorizedTransitionError{ActorID: student.ID, Status: StatusPending, Action: ActionSubmit}},
		{name: "cannot submit twice", actor: teacher, pkg: pkg(StatusSubmitted), action: ActionSubmit,
			wantErr: &InvalidTransitionError{Status: StatusSubmitted, Action: ActionSubmit}},

		{name: "adviser approves submitted", actor: adviser, pkg: pkg(StatusSubmitted), action: ActionApprove, wantStatus: StatusApproved, wantLedger: true},
		{name: "adviser returns submitted", actor: adviser, pkg: pkg(StatusSubmitted), action: ActionReturn, wantStatus: StatusReturned, wantLedger: true},
		{name: "owner cannot approve own package", actor: teacher, pkg: pkg(StatusSubmitted), action: ActionApprove,
			wantErr: &UnauthorizedTransitionError{ActorID: teacher.ID, Status: StatusSubmitted, Action: ActionApprove}},
		{name: "admin cannot approve before forward", actor: principal, pkg: pkg(StatusSubmitted), action: ActionApprove,
			wantErr: &UnauthorizedTransitionError{ActorID: principal.ID, Status: StatusSubmitted, Action: ActionApprove}},
		{name: "cannot approve pending", actor: adviser, pkg: pkg(StatusPending), action: ActionApprove,
			wantErr: &InvalidTransitionError{Status: StatusPending, Action: ActionApprove}},

		{name: "adviser forwards approved", actor: adviser, pkg: pkg(StatusApproved), action: ActionForward, wantStatus: StatusForwardedToAdmin},
		{name: "admin forwards approved", actor: principal, pkg: pkg(StatusApproved), action: ActionForward, wantStatus: StatusForwardedToAdmin},
		{name: "owner cannot forward", actor: teacher, pkg: pkg(StatusApproved), action: ActionForward,
			wantErr: &UnauthorizedTransitionError{ActorID: teacher.ID, Status: StatusApproved, Action: ActionForward}},
		{name: "cannot forward submitted", actor: adviser, pkg: pkg(StatusSubmitted), action: ActionForward,
			wantErr: &InvalidTransitionError{Status: StatusSubmitted, Action: ActionForward}},

		{name: "admin publishes forwarded", actor: principal, pkg: pkg(StatusForwardedToAdmin), action: ActionApprove, wantStatus: StatusPublished, wantLedger: true},
		{name: "admin returns forwarded", actor: principal, pkg: pkg(StatusForwardedToAdmin), action: ActionReturn, wantStatus: StatusReturned, wantLedger: true},
		{name: "adviser cannot publish", actor: adviser, pkg: pkg(StatusForwardedToAdmin), action: ActionApprove,
			wantErr: &UnauthorizedTransitionError{ActorID: adviser.ID, Status: StatusForwardedToAdmin, Action: ActionApprove}},

		{name: "published is terminal", actor: principal, pkg: pkg(StatusPublished), action: ActionReturn,
			wantErr: &InvalidTransitionError{Status: StatusPublished, Action: ActionReturn}},
		{name: "cannot resubmit published", actor: teacher, pkg: pkg(StatusPublished), action: ActionSubmit,
			wantErr: &InvalidTransitionError{Status: StatusPublished, Action: ActionSubmit}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ledger, err := Transition(tt.actor, sec, tt.pkg, tt.action)
			if tt.wantErr != nil {
				assert.EqualError(t, err, tt.wantErr.Error())
				assert.IsType(t, tt.wantErr, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got)
			assert.Equal(t, tt.wantLedger, ledger)
		})
	}
}

func TestStatusTeacherFacing(t *testing.T) {
	assert.Equal(t, StatusPending, StatusReturned.TeacherFacing())
	assert.Equal(t, StatusSubmitted, StatusSubmitted.TeacherFacing())
	assert.Equal(t, StatusPublished, StatusPublished.TeacherFacing())
}
