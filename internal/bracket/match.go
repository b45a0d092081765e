package bracket

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchCompleted MatchStatus = "completed"
)

type BracketSide string

const (
	WinnersSide BracketSide = "winners"
	LosersSide  BracketSide = "losers"
	FinalsSide  BracketSide = "finals"
)

const GrandFinal = "GRAND_FINAL"

const groupNotesPrefix = "FFA group: "

type Match struct {
	ID           int64 `db:"id" json:"id"`
	TournamentID int64 `db:"tournament_id" json:"tournament_id"`

	Team1ID int64 `db:"team1_id" json:"team1_id"`
	Team2ID int64 `db:"team2_id" json:"team2_id"`

	// Position in the tournament for reconstructing the view
	RoundNumber     int    `db:"round_number" json:"round_number"`
	MatchNumber     int    `db:"match_number" json:"match_number"`
	BracketPosition string `db:"bracket_position" json:"bracket_position"`

	WinnerTeamID *int64      `db:"winner_team_id" json:"winner_team_id,omitempty"`
	Team1Score   int         `db:"team1_score" json:"team1_score"`
	Team2Score   int         `db:"team2_score" json:"team2_score"`
	Status       MatchStatus `db:"status" json:"status"`
	Notes        *string     `db:"notes" json:"notes,omitempty"`

	ReportedBy  *string    `db:"reported_by" json:"reported_by,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// Resolved is true once a winner is known or a draw has been recorded.
func (m *Match) Resolved() bool {
	return m.WinnerTeamID != nil || m.Status == MatchCompleted
}

// IsDraw reports a completed match without a winner.
func (m *Match) IsDraw() bool {
	return m.Status == MatchCompleted && m.WinnerTeamID == nil
}

func (m *Match) IsWinner(teamID int64) bool {
	return m.WinnerTeamID != nil && *m.WinnerTeamID == teamID
}

// Loser returns the beaten side of a head-to-head match.
func (m *Match) Loser() (int64, bool) {
	if m.WinnerTeamID == nil {
		return 0, false
	}
	switch *m.WinnerTeamID {
	case m.Team1ID:
		return m.Team2ID, true
	case m.Team2ID:
		return m.Team1ID, true
	}
	return 0, false
}

func (m *Match) Side() BracketSide {
	switch {
	case m.BracketPosition == GrandFinal:
		return FinalsSide
	case strings.HasPrefix(m.BracketPosition, "LB_"):
		return LosersSide
	}
	return WinnersSide
}

// Participants lists every team in the match, including the full FFA group.
func (m *Match) Participants() []int64 {
	if ids := GroupTeamIDs(*m); len(ids) > 0 {
		return ids
	}
	return []int64{m.Team1ID, m.Team2ID}
}

func (m *Match) Involves(teamID int64) bool {
	for _, id := range m.Participants() {
		if id == teamID {
			return true
		}
	}
	return false
}

func groupNotes(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return groupNotesPrefix + strings.Join(parts, ",")
}

// GroupTeamIDs parses the member list stored in an FFA match's notes.
// Matches without group notes return nil.
func GroupTeamIDs(m Match) []int64 {
	if m.Notes == nil || !strings.HasPrefix(*m.Notes, groupNotesPrefix) {
		return nil
	}
	raw := strings.Split(strings.TrimPrefix(*m.Notes, groupNotesPrefix), ",")
	ids := make([]int64, 0, len(raw))
	for _, r := range raw {
		id, err := strconv.ParseInt(strings.TrimSpace(r), 10, 64)
		if err != nil {
			return nil
		}
		ids = append(ids, id)
	}
	return ids
}

func positionTag(prefix string, round, n int) string {
	return fmt.Sprintf("%sR%dM%d", prefix, round, n)
}
