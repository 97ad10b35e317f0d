// Package access decides whether an actor may perform an operation on a
// child's data. It knows nothing about HTTP or tokens; callers resolve
// the actor first and pass it in explicitly.
package access

import (
	"context"
	"fmt"

	"pennywise/internal/core"
)

// LinkStore answers the relationship questions the policy needs.
// *storage.SQLiteRepository satisfies it.
type LinkStore interface {
	IsParentLinked(ctx context.Context, parentID, childID int64) (bool, error)
	TeacherChildIDs(ctx context.Context, teacherID int64) ([]int64, error)
}

type Policy struct {
	links LinkStore
}

func NewPolicy(links LinkStore) *Policy {
	return &Policy{links: links}
}

// CanViewChild allows admins, the child itself, linked parents, and the
// child's teachers.
func (p *Policy) CanViewChild(ctx context.Context, actor core.Actor, childID int64) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.HasRole(core.RoleChild) && actor.ChildID == childID {
		return nil
	}
	if actor.HasRole(core.RoleParent) && actor.ParentID != 0 {
		linked, err := p.links.IsParentLinked(ctx, actor.ParentID, childID)
		if err != nil {
			return fmt.Errorf("check parent link: %w", err)
		}
		if linked {
			return nil
		}
	}
	if actor.HasRole(core.RoleTeacher) && actor.TeacherID != 0 {
		ok, err := p.teaches(ctx, actor.TeacherID, childID)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return core.ErrNotAuthorized
}

// CanSpendFor allows only the child itself (or an admin) to record,
// change, or delete spendings.
func (p *Policy) CanSpendFor(_ context.Context, actor core.Actor, childID int64) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.HasRole(core.RoleChild) && actor.ChildID == childID {
		return nil
	}
	return core.ErrNotAuthorized
}

// CanGrantTo allows admins and parents linked to the child to credit
// allowances.
func (p *Policy) CanGrantTo(ctx context.Context, actor core.Actor, childID int64) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.HasRole(core.RoleParent) && actor.ParentID != 0 {
		linked, err := p.links.IsParentLinked(ctx, actor.ParentID, childID)
		if err != nil {
			return fmt.Errorf("check parent link: %w", err)
		}
		if linked {
			return nil
		}
	}
	return core.ErrNotAuthorized
}

// CanManageGoalsFor covers creating goals and changing their status. The
// child owns its goals; linked parents approve or cancel them.
func (p *Policy) CanManageGoalsFor(ctx context.Context, actor core.Actor, childID int64) error {
	if actor.HasRole(core.RoleChild) && actor.ChildID == childID {
		return nil
	}
	return p.CanGrantTo(ctx, actor, childID)
}

// CanSendNoteTo allows linked parents and the child's teachers to send
// encouragement notes.
func (p *Policy) CanSendNoteTo(ctx context.Context, actor core.Actor, childID int64) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.HasRole(core.RoleParent) && actor.ParentID != 0 {
		linked, err := p.links.IsParentLinked(ctx, actor.ParentID, childID)
		if err != nil {
			return fmt.Errorf("check parent link: %w", err)
		}
		if linked {
			return nil
		}
	}
	if actor.HasRole(core.RoleTeacher) && actor.TeacherID != 0 {
		ok, err := p.teaches(ctx, actor.TeacherID, childID)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return core.ErrNotAuthorized
}

// CanViewFamilyReports gates the parent-wide summary and financial
// reports.
func (p *Policy) CanViewFamilyReports(_ context.Context, actor core.Actor) error {
	if actor.IsAdmin() || actor.HasRole(core.RoleParent) {
		return nil
	}
	return core.ErrNotAuthorized
}

// CanManageChallenges gates challenge creation; schools and admins run
// the challenge program.
func (p *Policy) CanManageChallenges(_ context.Context, actor core.Actor) error {
	if actor.IsAdmin() || actor.HasRole(core.RoleSchool) {
		return nil
	}
	return core.ErrNotAuthorized
}

func (p *Policy) teaches(ctx context.Context, teacherID, childID int64) (bool, error) {
	ids, err := p.links.TeacherChildIDs(ctx, teacherID)
	if err != nil {
		return false, fmt.Errorf("list teacher children: %w", err)
	}
	for _, id := range ids {
		if id == childID {
			return true, nil
		}
	}
	return false, nil
}
