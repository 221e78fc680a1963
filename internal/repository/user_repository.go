package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/quantora/signals-backend/internal/model"
)

// UserRepo persists rows of the 'users' table. Role names are resolved
// through the 'roles' table; the default role for self-registration is
// "user".
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// RoleID looks up the numeric id for a role name.
func (r *UserRepo) RoleID(ctx context.Context, name string) (uint8, error) {
	var id uint8
	err := r.DB.QueryRowContext(ctx,
		"SELECT role_id FROM roles WHERE role_name=? LIMIT 1", name).Scan(&id)
	return id, err
}

// Create inserts a user with the given role and optional referring
// partner, returning the new id. The password must already be hashed.
func (r *UserRepo) Create(ctx context.Context, fullName, email, passwordHash string, roleID uint8, partnerID *uint64) (uint64, error) {
	return createUser(ctx, r.DB, fullName, email, passwordHash, roleID, partnerID)
}

// CreateTx is Create inside an existing transaction. The admin
// add-user flow uses it so the user insert and the subscription insert
// commit or roll back together.
func (r *UserRepo) CreateTx(ctx context.Context, tx *sql.Tx, fullName, email, passwordHash string, roleID uint8, partnerID *uint64) (uint64, error) {
	return createUser(ctx, tx, fullName, email, passwordHash, roleID, partnerID)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func createUser(ctx context.Context, db execer, fullName, email, passwordHash string, roleID uint8, partnerID *uint64) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := db.ExecContext(ctx,
		"INSERT INTO users (full_name, email, password_hash, role_id, partner_id) VALUES (?,?,?,?,?)",
		fullName, email, passwordHash, roleID, partnerID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// EmailExists reports whether any user row has the given email.
func (r *UserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE email=? LIMIT 1", email).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

const userColumns = `u.user_id, u.full_name, u.email, u.password_hash, u.role_id, r.role_name,
 u.partner_id, u.is_verified, u.avatar_url, u.serial_number, u.created_at, u.last_login_at`

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.RoleID, &u.RoleName,
		&u.PartnerID, &u.IsVerified, &u.AvatarURL, &u.SerialNumber, &u.CreatedAt, &u.LastLoginAt)
	return u, err
}

// GetByEmail fetches a user (with role name) by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users u JOIN roles r ON u.role_id=r.role_id WHERE u.email=? LIMIT 1",
		email))
}

// GetByID fetches a user (with role name) by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users u JOIN roles r ON u.role_id=r.role_id WHERE u.user_id=? LIMIT 1",
		id))
}

// MarkVerified flips is_verified after a successful registration OTP.
func (r *UserRepo) MarkVerified(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_verified=TRUE WHERE email=?", email)
	return err
}

// TouchLastLogin stamps last_login_at on a successful login.
func (r *UserRepo) TouchLastLogin(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET last_login_at=NOW() WHERE user_id=?", id)
	return err
}

// UpdatePassword replaces the password hash for the given email. Used by
// the forgot-password flow after the OTP has been verified.
func (r *UserRepo) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE email=?", passwordHash, email)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UserSummary is the trimmed projection used by the admin dashboard
// lists. The full row (hash included) never leaves the repository for
// list endpoints.
type UserSummary struct {
	ID        uint64    `json:"user_id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Recent returns the newest users, most recent first.
func (r *UserRepo) Recent(ctx context.Context, limit int) ([]UserSummary, error) {
	return r.page(ctx, limit, 0)
}

// Page returns one page of users ordered by creation time descending.
func (r *UserRepo) Page(ctx context.Context, limit, offset int) ([]UserSummary, error) {
	return r.page(ctx, limit, offset)
}

func (r *UserRepo) page(ctx context.Context, limit, offset int) ([]UserSummary, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT user_id, full_name, email, created_at FROM users ORDER BY created_at DESC LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]UserSummary, 0, limit)
	for rows.Next() {
		var u UserSummary
		if err := rows.Scan(&u.ID, &u.FullName, &u.Email, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Count returns the total number of users.
func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}
