package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/Q1zin/laundry-appointment-app/internal/model"
	"github.com/Q1zin/laundry-appointment-app/internal/utils"
)

// UserRepo provides persistence for the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,name,password_hash,email,full_name,room,contract,role,is_blocked,created_at"

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.PasswordHash, &u.Email, &u.FullName,
		&u.Room, &u.Contract, &u.Role, &u.IsBlocked, &u.CreatedAt)
	return u, err
}

// Create inserts a user and returns its ID. The password is hashed
// with bcrypt using the given cost before it touches the database.
func (r *UserRepo) Create(ctx context.Context, name, password, email, fullName, room, contract string, role model.Role, cost int) (uint64, error) {
	name = strings.TrimSpace(name)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, password_hash, email, full_name, room, contract, role) VALUES (?,?,?,?,?,?,?)",
		name, hash, email, fullName, room, contract, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrNameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByName fetches a user by login name.
func (r *UserRepo) GetByName(ctx context.Context, name string) (model.User, error) {
	name = strings.TrimSpace(name)
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE name=? LIMIT 1", name))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// GetForUpdateTx fetches a user by id with a row lock inside the given
// transaction. The reservation engine locks the user row first so that
// concurrent bookings by the same user serialize on the quota check.
func (r *UserRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.User, error) {
	return scanUser(tx.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1 FOR UPDATE", id))
}

// List returns all users ordered by creation time.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SetBlocked updates the is_blocked flag of a user.
func (r *UserRepo) SetBlocked(ctx context.Context, id uint64, blocked bool) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_blocked=? WHERE id=?", blocked, id)
	return err
}
