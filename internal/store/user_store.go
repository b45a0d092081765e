package store

import (
	"context"

	"github.com/jmoiron/sqlx"
	users "github.com/winterdragon/winterdragon/internal/user"
)

const (
	getUserQuery    = "SELECT id, username, created_at FROM users WHERE id = ?"
	upsertUserQuery = `
		INSERT INTO users (id, username) VALUES (:id, :username)
		ON CONFLICT (id) DO UPDATE SET username = excluded.username
	`
)

type UserStore struct {
	db *sqlx.DB
}

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetUser(ctx context.Context, id string) (*users.User, error) {
	var user users.User
	err := s.db.GetContext(ctx, &user, getUserQuery, id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpsertUser creates the user or refreshes the stored username.
func (s *UserStore) UpsertUser(ctx context.Context, tx *sqlx.Tx, user *users.User) error {
	_, err := tx.NamedExecContext(ctx, upsertUserQuery, user)
	return err
}
