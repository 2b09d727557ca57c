package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-sql-driver/mysql"

	"github.com/gyeo009/lookback-Backend/internal/db"
)

// Accounts looks up and creates users.
type Accounts struct {
	querier db.Querier
}

// NewAccounts creates an Accounts repository.
func NewAccounts(querier db.Querier) *Accounts {
	return &Accounts{querier: querier}
}

// GetOrCreate returns the user with email, creating it when absent.
// An existing row is returned as stored; name and googleID are only used on insert.
// The bool reports whether this call created the row.
func (a *Accounts) GetOrCreate(ctx context.Context, email, name, googleID string) (*db.User, bool, error) {
	user, err := a.querier.GetUserByEmail(ctx, email)
	if err == nil {
		return &user, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to look up user: %w", err)
	}

	_, err = a.querier.CreateUser(ctx, db.CreateUserParams{
		Email:     email,
		FullName:  name,
		GoogleID:  googleID,
		IsNewUser: true,
	})
	if err != nil {
		if !isDuplicateKeyError(err) {
			return nil, false, fmt.Errorf("failed to create user: %w", err)
		}
		// a concurrent login inserted the same email first
		slog.InfoContext(ctx, "User created by a concurrent login")
		user, err = a.querier.GetUserByEmail(ctx, email)
		if err != nil {
			return nil, false, fmt.Errorf("failed to read existing user: %w", err)
		}
		return &user, false, nil
	}

	user, err = a.querier.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read created user: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", user.ID)
	return &user, true, nil
}

// isDuplicateKeyError checks if an error is a MySQL duplicate key error (1062).
func isDuplicateKeyError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}
