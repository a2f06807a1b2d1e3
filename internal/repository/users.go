package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/credinica/loan-service/internal/models"
	"github.com/google/uuid"
)

const userSelect = `SELECT u.id, u.full_name, u.email, u.password_hash, u.phone, u.role, u.sucursal_id,
	s.name, u.active, u.supervisor_id, sup.full_name, u.must_change_password, u.created_at
	FROM users u
	LEFT JOIN sucursales s ON s.id = u.sucursal_id
	LEFT JOIN users sup ON sup.id = u.supervisor_id`

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Phone, &u.Role, &u.BranchID,
		&u.BranchName, &u.Active, &u.SupervisorID, &u.SupervisorName, &u.MustChangePassword, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now().UTC()
	_, err := r.exec(ctx, `INSERT INTO users (id, full_name, email, password_hash, phone, role, sucursal_id,
		active, supervisor_id, must_change_password, created_at) VALUES `+placeholders(1, 11),
		u.ID, u.FullName, u.Email, u.PasswordHash, u.Phone, u.Role, u.BranchID,
		u.Active, u.SupervisorID, u.MustChangePassword, u.CreatedAt)
	if err != nil {
		return wrap(err, "create user")
	}
	return nil
}

// UpdateUser writes the profile fields of a user. The password is not touched.
func (r *Repository) UpdateUser(ctx context.Context, u *models.User) error {
	res, err := r.exec(ctx, `UPDATE users SET full_name = ?, email = ?, phone = ?, role = ?, sucursal_id = ?,
		active = ?, supervisor_id = ? WHERE id = ?`,
		u.FullName, u.Email, u.Phone, u.Role, u.BranchID, u.Active, u.SupervisorID, u.ID)
	if err != nil {
		return wrap(err, "update user")
	}
	return affectedOne(res, "update user")
}

// SetPassword stores a new password hash and the must-change flag.
func (r *Repository) SetPassword(ctx context.Context, id, hash string, mustChange bool) error {
	res, err := r.exec(ctx, `UPDATE users SET password_hash = ?, must_change_password = ? WHERE id = ?`, hash, mustChange, id)
	if err != nil {
		return wrap(err, "set password")
	}
	return affectedOne(res, "set password")
}

// FindUserByID retrieves a user by id
func (r *Repository) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	u, err := scanUser(r.queryRow(ctx, userSelect+` WHERE u.id = ?`, id))
	if err != nil {
		return nil, wrap(err, "find user")
	}
	return u, nil
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.queryRow(ctx, userSelect+` WHERE LOWER(u.email) = LOWER(?)`, email))
	if err != nil {
		return nil, wrap(err, "find user")
	}
	return u, nil
}

// ListUsers returns all users ordered by name
func (r *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.query(ctx, userSelect+` ORDER BY u.full_name`)
	if err != nil {
		return nil, wrap(err, "list users")
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// DeleteUser removes a user
func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	res, err := r.exec(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return wrap(err, "delete user")
	}
	return affectedOne(res, "delete user")
}

// CountUsers returns the number of registered users
func (r *Repository) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := r.queryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, wrap(err, "count users")
	}
	return n, nil
}

// CreateBranch inserts a sucursal
func (r *Repository) CreateBranch(ctx context.Context, b *models.Branch) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if _, err := r.exec(ctx, `INSERT INTO sucursales (id, name) VALUES (?, ?)`, b.ID, b.Name); err != nil {
		return wrap(err, "create branch")
	}
	return nil
}

// ListBranches returns all sucursales ordered by name
func (r *Repository) ListBranches(ctx context.Context) ([]models.Branch, error) {
	rows, err := r.query(ctx, `SELECT id, name FROM sucursales ORDER BY name`)
	if err != nil {
		return nil, wrap(err, "list branches")
	}
	defer rows.Close()

	branches := []models.Branch{}
	for rows.Next() {
		var b models.Branch
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, fmt.Errorf("failed to scan branch: %w", err)
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}
