package shopdb

import (
	"context"
	"time"
)

const createUser = `INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`

// CreateUserParams はCreateUserの引数。
type CreateUserParams struct {
	Username     string
	PasswordHash string
}

// CreateUser はユーザーを作成し、採番されたIDを返す。
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createUser, arg.Username, arg.PasswordHash, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const getUserByID = `SELECT id, username, password_hash, created_at FROM users WHERE id = ?`

// GetUserByID はIDでユーザーを取得する。存在しない場合は sql.ErrNoRows を返す。
func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	var u User
	err := q.db.QueryRowContext(ctx, getUserByID, id).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

const getUserByUsername = `SELECT id, username, password_hash, created_at FROM users WHERE username = ?`

// GetUserByUsername はユーザー名でユーザーを取得する。存在しない場合は sql.ErrNoRows を返す。
func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := q.db.QueryRowContext(ctx, getUserByUsername, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	return u, err
}
