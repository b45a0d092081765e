package bracket

import "time"

// Team is the unit that plays matches. Solo tournaments get one team per player.
type Team struct {
	ID           int64     `db:"id" json:"id"`
	TournamentID int64     `db:"tournament_id" json:"tournament_id"`
	Name         string    `db:"name" json:"name"`
	Wins         int       `db:"wins" json:"wins"`
	Losses       int       `db:"losses" json:"losses"`
	Draws        int       `db:"draws" json:"draws"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Player struct {
	ID           int64     `db:"id" json:"id"`
	TournamentID int64     `db:"tournament_id" json:"tournament_id"`
	UserID       string    `db:"user_id" json:"user_id"`
	Username     string    `db:"username" json:"username"`
	TeamID       *int64    `db:"team_id" json:"team_id,omitempty"`
	JoinedAt     time.Time `db:"joined_at" json:"joined_at"`
}

type Spectator struct {
	ID           int64     `db:"id" json:"id"`
	TournamentID int64     `db:"tournament_id" json:"tournament_id"`
	UserID       string    `db:"user_id" json:"user_id"`
	Username     string    `db:"username" json:"username"`
	JoinedAt     time.Time `db:"joined_at" json:"joined_at"`
}
