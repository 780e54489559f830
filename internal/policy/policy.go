// Package policy decides who may create, view and change a task.
//
// Every function here is pure: callers load the task and the users involved
// and pass snapshots in. A nil error means the operation is allowed; a denial
// is a domain error of kind ErrForbidden carrying a Reason.
package policy

import (
	"github.com/ohare93/delegate/internal/domain"
)

// Roles describes how an actor relates to a task
type Roles struct {
	Creator       bool // actor created the task
	Responsible   bool // actor is the assignee
	CreatorLeader bool // actor is the direct leader of the creator
}

// Any reports whether the actor holds at least one role
func (r Roles) Any() bool {
	return r.Creator || r.Responsible || r.CreatorLeader
}

// RolesOf computes the actor's roles. creator is the task creator's user
// record; when nil the creator's-leader role cannot hold.
func RolesOf(actorID int64, task *domain.Task, creator *domain.User) Roles {
	return Roles{
		Creator:       task.CreatorID == actorID,
		Responsible:   task.ResponsibleID == actorID,
		CreatorLeader: creator != nil && creator.ID == task.CreatorID && creator.IsLedBy(actorID),
	}
}

// AllowedFields returns the patch fields an actor with roles may set
func AllowedFields(r Roles) []string {
	switch {
	case r.Creator:
		return []string{
			domain.FieldDescription,
			domain.FieldDueDate,
			domain.FieldPriority,
			domain.FieldResponsibleID,
			domain.FieldStatus,
			domain.FieldTitle,
		}
	case r.Any():
		return []string{domain.FieldStatus}
	default:
		return nil
	}
}

// CanCreate allows assigning to responsible only when they report directly to
// the actor. A nil responsible (unknown user) is never a subordinate.
func CanCreate(actorID int64, responsible *domain.User) error {
	if !responsible.IsLedBy(actorID) {
		return domain.Denied(domain.ReasonNotSubordinate)
	}
	return nil
}

// CanView allows the creator, the responsible party and the creator's leader
func CanView(actorID int64, task *domain.Task, creator *domain.User) error {
	if !RolesOf(actorID, task, creator).Any() {
		return domain.Denied(domain.ReasonNoViewRights)
	}
	return nil
}

// CanUpdate checks a patch against the actor's roles. Non-creators may only
// change status. When the patch reassigns the task, newResponsible must be a
// direct subordinate of the acting user, not of the original creator.
func CanUpdate(actorID int64, task *domain.Task, creator *domain.User, patch domain.Patch, newResponsible *domain.User) error {
	roles := RolesOf(actorID, task, creator)
	if !roles.Any() {
		return domain.Denied(domain.ReasonNoEditRights)
	}
	if !roles.Creator && !patch.OnlyStatus() {
		return domain.Denied(domain.ReasonStatusOnly)
	}
	if patch.ResponsibleID != nil {
		if newResponsible == nil || newResponsible.ID != *patch.ResponsibleID {
			return domain.Denied(domain.ReasonNotSubordinate)
		}
		return CanCreate(actorID, newResponsible)
	}
	return nil
}
