package users

import "time"

// User is a chat platform account, keyed by its snowflake id.
type User struct {
	ID        string    `db:"id"`
	Username  string    `db:"username"`
	CreatedAt time.Time `db:"created_at"`
}
