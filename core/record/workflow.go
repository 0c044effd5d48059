package record

import (
	"github.com/trezcool/rekodi/core/school"
	"github.com/trezcool/rekodi/core/user"
)

// gate decides whether actor may take an edge on pkg. The section is the
// package's own section, preloaded by the service.
type gate func(actor user.User, sec school.Section, pkg QuarterPackage) bool

type transitionKey struct {
	from   Status
	action Action
}

type transition struct {
	to      Status
	allowed gate
	// ledger edges append an Approval row atomically with the status change.
	ledger bool
}

func isOwner(actor user.User, _ school.Section, pkg QuarterPackage) bool {
	return actor.IsTeacher() && actor.ID == pkg.TeacherID
}

func isAdviser(actor user.User, sec school.Section, _ QuarterPackage) bool {
	return sec.AdviserID == actor.ID
}

func isAdviserOrAdmin(actor user.User, sec school.Section, pkg QuarterPackage) bool {
	return isAdviser(actor, sec, pkg) || actor.IsAdmin()
}

func isAdmin(actor user.User, _ school.Section, _ QuarterPackage) bool {
	return actor.IsAdmin()
}

// transitions is the whole workflow: every legal (state, action) edge and
// who may take it. Anything absent here is an invalid transition.
var transitions = map[transitionKey]transition{
	{StatusPending, ActionSubmit}:  {to: StatusSubmitted, allowed: isOwner},
	{StatusReturned, ActionSubmit}: {to: StatusSubmitted, allowed: isOwner},

	{StatusSubmitted, ActionApprove}: {to: StatusApproved, allowed: isAdviser, ledger: true},
	{StatusSubmitted, ActionReturn}:  {to: StatusReturned, allowed: isAdviser, ledger: true},

	{StatusApproved, ActionForward}: {to: StatusForwardedToAdmin, allowed: isAdviserOrAdmin},

	{StatusForwardedToAdmin, ActionApprove}: {to: StatusPublished, allowed: isAdmin, ledger: true},
	{StatusForwardedToAdmin, ActionReturn}:  {to: StatusReturned, allowed: isAdmin, ledger: true},
}

// Transition resolves the edge for (pkg.Status, action) and checks actor
// against its gate. It returns the resulting status and whether the edge
// records an Approval ledger entry.
func Transition(actor user.User, sec school.Section, pkg QuarterPackage, action Action) (Status, bool, error) {
	tr, ok := transitions[transitionKey{pkg.Status, action}]
	if !ok {
		return "", false, &InvalidTransitionError{Status: pkg.Status, Action: action}
	}
	if !tr.allowed(actor, sec, pkg) {
		return "", false, &UnauthorizedTransitionError{ActorID: actor.ID, Status: pkg.Status, Action: action}
	}
	return tr.to, tr.ledger, nil
}
