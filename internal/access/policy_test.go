package access

import (
	"context"
	"errors"
	"testing"

	"pennywise/internal/core"
)

type fakeLinks struct {
	parentOf  map[int64][]int64 // parentID -> childIDs
	teacherOf map[int64][]int64 // teacherID -> childIDs
}

func (f *fakeLinks) IsParentLinked(_ context.Context, parentID, childID int64) (bool, error) {
	for _, id := range f.parentOf[parentID] {
		if id == childID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLinks) TeacherChildIDs(_ context.Context, teacherID int64) ([]int64, error) {
	return f.teacherOf[teacherID], nil
}

func testPolicy() *Policy {
	return NewPolicy(&fakeLinks{
		parentOf:  map[int64][]int64{10: {1, 2}},
		teacherOf: map[int64][]int64{20: {2, 3}},
	})
}

var (
	admin       = core.Actor{UserID: 100, Roles: []string{core.RoleAdmin}}
	childOne    = core.Actor{UserID: 101, Roles: []string{core.RoleChild}, ChildID: 1}
	parentTen   = core.Actor{UserID: 102, Roles: []string{core.RoleParent}, ParentID: 10}
	teacher     = core.Actor{UserID: 103, Roles: []string{core.RoleTeacher}, TeacherID: 20}
	schoolStaff = core.Actor{UserID: 104, Roles: []string{core.RoleSchool}}
)

func TestCanViewChild(t *testing.T) {
	p := testPolicy()
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   core.Actor
		childID int64
		allowed bool
	}{
		{"admin sees anyone", admin, 3, true},
		{"child sees itself", childOne, 1, true},
		{"child cannot see sibling", childOne, 2, false},
		{"linked parent", parentTen, 2, true},
		{"unlinked parent", parentTen, 3, false},
		{"teacher of child", teacher, 3, true},
		{"teacher of other class", teacher, 1, false},
		{"school staff has no child access", schoolStaff, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.CanViewChild(ctx, tt.actor, tt.childID)
			if tt.allowed && err != nil {
				t.Errorf("expected access, got %v", err)
			}
			if !tt.allowed && !errors.Is(err, core.ErrNotAuthorized) {
				t.Errorf("expected ErrNotAuthorized, got %v", err)
			}
		})
	}
}

func TestCanSpendFor(t *testing.T) {
	p := testPolicy()
	ctx := context.Background()

	if err := p.CanSpendFor(ctx, childOne, 1); err != nil {
		t.Errorf("child spending own money: %v", err)
	}
	if err := p.CanSpendFor(ctx, parentTen, 1); !errors.Is(err, core.ErrNotAuthorized) {
		t.Errorf("parents must not spend for children, got %v", err)
	}
	if err := p.CanSpendFor(ctx, admin, 1); err != nil {
		t.Errorf("admin override: %v", err)
	}
}

func TestCanGrantTo(t *testing.T) {
	p := testPolicy()
	ctx := context.Background()

	if err := p.CanGrantTo(ctx, parentTen, 1); err != nil {
		t.Errorf("linked parent granting: %v", err)
	}
	if err := p.CanGrantTo(ctx, parentTen, 3); !errors.Is(err, core.ErrNotAuthorized) {
		t.Errorf("unlinked parent, got %v", err)
	}
	if err := p.CanGrantTo(ctx, childOne, 1); !errors.Is(err, core.ErrNotAuthorized) {
		t.Errorf("children cannot grant to themselves, got %v", err)
	}
}

func TestCanManageGoalsFor(t *testing.T) {
	p := testPolicy()
	ctx := context.Background()

	if err := p.CanManageGoalsFor(ctx, childOne, 1); err != nil {
		t.Errorf("child manages own goals: %v", err)
	}
	if err := p.CanManageGoalsFor(ctx, parentTen, 1); err != nil {
		t.Errorf("linked parent approves goals: %v", err)
	}
	if err := p.CanManageGoalsFor(ctx, teacher, 3); !errors.Is(err, core.ErrNotAuthorized) {
		t.Errorf("teachers stay out of goals, got %v", err)
	}
}

func TestCanSendNoteTo(t *testing.T) {
	p := testPolicy()
	ctx := context.Background()

	if err := p.CanSendNoteTo(ctx, teacher, 2); err != nil {
		t.Errorf("teacher encouraging pupil: %v", err)
	}
	if err := p.CanSendNoteTo(ctx, parentTen, 1); err != nil {
		t.Errorf("parent encouraging child: %v", err)
	}
	if err := p.CanSendNoteTo(ctx, childOne, 2); !errors.Is(err, core.ErrNotAuthorized) {
		t.Errorf("children do not send notes, got %v", err)
	}
}

func TestReportAndChallengeGates(t *testing.T) {
	p := testPolicy()
	ctx := context.Background()

	if err := p.CanViewFamilyReports(ctx, parentTen); err != nil {
		t.Errorf("parent reports: %v", err)
	}
	if err := p.CanViewFamilyReports(ctx, childOne); !errors.Is(err, core.ErrNotAuthorized) {
		t.Errorf("child reports, got %v", err)
	}
	if err := p.CanManageChallenges(ctx, schoolStaff); err != nil {
		t.Errorf("school manages challenges: %v", err)
	}
	if err := p.CanManageChallenges(ctx, teacher); !errors.Is(err, core.ErrNotAuthorized) {
		t.Errorf("teacher managing challenges, got %v", err)
	}
}
