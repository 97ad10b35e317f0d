package core

// Role tags carried by a user account.
const (
	RoleAdmin   = "admin"
	RoleChild   = "child"
	RoleParent  = "parent"
	RoleTeacher = "teacher"
	RoleSchool  = "school"
)

// Actor is the already-authenticated caller of an operation. Resolution
// from a token to an Actor happens upstream; ledger and report operations
// take the actor explicitly instead of reading ambient session state.
type Actor struct {
	UserID int64
	Roles  []string

	// Profile row IDs, zero when the actor lacks the matching role.
	ChildID   int64
	ParentID  int64
	TeacherID int64
}

func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (a Actor) IsAdmin() bool { return a.HasRole(RoleAdmin) }
