package db

import (
	"context"
	"database/sql"
)

const createUser = `-- name: CreateUser :execresult
INSERT INTO users (email, full_name, google_id, is_new_user)
VALUES (?, ?, ?, ?)
`

type CreateUserParams struct {
	Email     string
	FullName  string
	GoogleID  string
	IsNewUser bool
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (sql.Result, error) {
	return q.db.ExecContext(ctx, createUser,
		arg.Email,
		arg.FullName,
		arg.GoogleID,
		arg.IsNewUser,
	)
}

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT id, email, full_name, google_id, is_new_user, created_at
FROM users
WHERE email = ?
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByEmail, email)
	var i User
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.FullName,
		&i.GoogleID,
		&i.IsNewUser,
		&i.CreatedAt,
	)
	return i, err
}
