package storage

import (
	"context"
	"fmt"
	"strings"

	"pennywise/internal/core"
)

// CreateUser inserts a user account. Duplicate emails map to
// core.ErrDuplicate.
func (r *SQLiteRepository) CreateUser(ctx context.Context, name, email string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (name, email, active) VALUES (?, ?, 1)`, name, email)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("user %s: %w", email, core.ErrDuplicate)
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	return res.LastInsertId()
}

// DeactivateUser flips the active flag. Accounts are never deleted so the
// ledger history stays intact.
func (r *SQLiteRepository) DeactivateUser(ctx context.Context, userID int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET active = 0 WHERE id = ?`, userID)
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// CreateRole inserts a role tag. Duplicate names map to core.ErrDuplicate.
func (r *SQLiteRepository) CreateRole(ctx context.Context, name, description string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO roles (name, description) VALUES (?, ?)`, name, description)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("role %s: %w", name, core.ErrDuplicate)
		}
		return 0, fmt.Errorf("create role: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) AssignRole(ctx context.Context, userID int64, roleName string) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_roles (user_id, role_id)
		 SELECT ?, id FROM roles WHERE name = ?`, userID, roleName)
	if err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Either the role name is unknown or the assignment already exists;
		// only the former is an error.
		var exists int
		err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM roles WHERE name = ?`, roleName).Scan(&exists)
		if err != nil {
			return fmt.Errorf("assign role: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("role %s: %w", roleName, core.ErrNotFound)
		}
	}
	return nil
}

func (r *SQLiteRepository) GetUserRoles(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.name FROM roles r
		 JOIN user_roles ur ON ur.role_id = r.id
		 WHERE ur.user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("get user roles: %w", err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, name)
	}
	return roles, rows.Err()
}

// CreateChild inserts a child profile with an optional starting balance.
func (r *SQLiteRepository) CreateChild(ctx context.Context, userID, classID int64, initialBalance core.Money) (int64, error) {
	var class any
	if classID != 0 {
		class = classID
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO children (user_id, class_id, total_balance_cents) VALUES (?, ?, ?)`,
		userID, class, initialBalance.Cents)
	if err != nil {
		return 0, fmt.Errorf("create child: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) CreateParent(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO parents (user_id) VALUES (?)`, userID)
	if err != nil {
		return 0, fmt.Errorf("create parent: %w", err)
	}
	return res.LastInsertId()
}

// LinkParentChild records the guardian relationship. Linking twice is a
// no-op.
func (r *SQLiteRepository) LinkParentChild(ctx context.Context, parentID, childID int64, primary bool) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO parent_child_links (parent_id, child_id, is_primary) VALUES (?, ?, ?)`,
		parentID, childID, boolToInt(primary))
	if err != nil {
		return fmt.Errorf("link parent and child: %w", err)
	}
	return nil
}

const childSelect = `
	SELECT c.id, c.user_id, COALESCE(c.class_id, 0), u.name, u.email, c.total_balance_cents
	FROM children c
	JOIN users u ON u.id = c.user_id`

func scanChild(row interface{ Scan(...any) error }) (core.Child, error) {
	var c core.Child
	err := row.Scan(&c.ID, &c.UserID, &c.ClassID, &c.Name, &c.Email, &c.Balance.Cents)
	return c, err
}

func (r *SQLiteRepository) GetChild(ctx context.Context, childID int64) (core.Child, error) {
	c, err := scanChild(r.db.QueryRowContext(ctx, childSelect+` WHERE c.id = ?`, childID))
	if err != nil {
		return core.Child{}, notFoundOr(err, "get child")
	}
	return c, nil
}

func (r *SQLiteRepository) GetChildByUserID(ctx context.Context, userID int64) (core.Child, error) {
	c, err := scanChild(r.db.QueryRowContext(ctx, childSelect+` WHERE c.user_id = ?`, userID))
	if err != nil {
		return core.Child{}, notFoundOr(err, "get child by user")
	}
	return c, nil
}

// ListActiveChildren returns children whose user account is active, for the
// periodic jobs.
func (r *SQLiteRepository) ListActiveChildren(ctx context.Context) ([]core.Child, error) {
	rows, err := r.db.QueryContext(ctx, childSelect+` WHERE u.active = 1 ORDER BY c.id`)
	if err != nil {
		return nil, fmt.Errorf("list active children: %w", err)
	}
	defer rows.Close()
	return collectChildren(rows)
}

// ListChildrenOfParent returns the children linked to a parent.
func (r *SQLiteRepository) ListChildrenOfParent(ctx context.Context, parentID int64) ([]core.Child, error) {
	rows, err := r.db.QueryContext(ctx, childSelect+`
		JOIN parent_child_links l ON l.child_id = c.id
		WHERE l.parent_id = ? ORDER BY c.id`, parentID)
	if err != nil {
		return nil, fmt.Errorf("list children of parent: %w", err)
	}
	defer rows.Close()
	return collectChildren(rows)
}

// ActiveParent pairs a parent row with its user account, for the weekly
// summary job.
type ActiveParent struct {
	ID     int64
	UserID int64
	Name   string
	Email  string
}

func (r *SQLiteRepository) ListActiveParents(ctx context.Context) ([]ActiveParent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.user_id, u.name, u.email
		 FROM parents p JOIN users u ON u.id = p.user_id
		 WHERE u.active = 1 ORDER BY p.id`)
	if err != nil {
		return nil, fmt.Errorf("list active parents: %w", err)
	}
	defer rows.Close()

	var parents []ActiveParent
	for rows.Next() {
		var p ActiveParent
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Email); err != nil {
			return nil, fmt.Errorf("scan parent: %w", err)
		}
		parents = append(parents, p)
	}
	return parents, rows.Err()
}

// IsParentLinked reports whether the parent is a guardian of the child.
func (r *SQLiteRepository) IsParentLinked(ctx context.Context, parentID, childID int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM parent_child_links WHERE parent_id = ? AND child_id = ?`,
		parentID, childID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check parent link: %w", err)
	}
	return n > 0, nil
}

// LinkedChildIDs returns the IDs of all children linked to a parent.
func (r *SQLiteRepository) LinkedChildIDs(ctx context.Context, parentID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT child_id FROM parent_child_links WHERE parent_id = ?`, parentID)
	if err != nil {
		return nil, fmt.Errorf("list linked child ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan child id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// TeacherChildIDs returns the IDs of children in the teacher's classes.
func (r *SQLiteRepository) TeacherChildIDs(ctx context.Context, teacherID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id FROM children c JOIN classes cl ON cl.id = c.class_id
		 WHERE cl.teacher_id = ?`, teacherID)
	if err != nil {
		return nil, fmt.Errorf("list teacher child ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan child id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func collectChildren(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]core.Child, error) {
	var children []core.Child
	for rows.Next() {
		c, err := scanChild(rows)
		if err != nil {
			return nil, fmt.Errorf("scan child: %w", err)
		}
		children = append(children, c)
	}
	return children, rows.Err()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
