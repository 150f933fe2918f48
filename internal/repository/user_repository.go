package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/campuskeep/dormitory/internal/utils"
)

// User mirrors the 'users' table. Student accounts carry the student
// number of the profile they act for; manager accounts leave it empty.
type User struct {
	ID           uint64
	Username     string
	PasswordHash string
	Role         string // MANAGER | STUDENT
	StudentNo    *string
	IsActive     bool
	CreatedAt    string
	UpdatedAt    string
}

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrUsernameExists = errors.New("username already exists")

// Create inserts a user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, username, password, role, studentNo string, cost int) (uint64, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	var sn interface{}
	if studentNo != "" {
		sn = studentNo
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, role, student_no) VALUES (?,?,?,?)",
		username, hash, role, sn)
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "1062") || strings.Contains(msg, "unique") {
			return 0, ErrUsernameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches a user by normalized username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	var u User
	var sn sql.NullString
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,password_hash,role,student_no,is_active,created_at,updated_at FROM users WHERE username=? LIMIT 1",
		username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &sn, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if sn.Valid {
		v := sn.String
		u.StudentNo = &v
	}
	return u, err
}

// GetByID fetches a user by primary key.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (User, error) {
	var u User
	var sn sql.NullString
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,password_hash,role,student_no,is_active,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &sn, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if sn.Valid {
		v := sn.String
		u.StudentNo = &v
	}
	return u, err
}
