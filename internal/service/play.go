package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/winterdragon/winterdragon/internal/bracket"
	"golang.org/x/sync/errgroup"
)

type TournamentData struct {
	Tournament *bracket.Tournament `json:"tournament"`
	Teams      []bracket.Team      `json:"teams"`
	Players    []bracket.Player    `json:"players"`
	Spectators []bracket.Spectator `json:"spectators"`
	Matches    []bracket.Match     `json:"matches"`
	Standings  []bracket.Team      `json:"standings"`
}

// NextMatch returns the first match still waiting for a result.
func (d *TournamentData) NextMatch() *bracket.Match {
	for i := range d.Matches {
		if !d.Matches[i].Resolved() {
			return &d.Matches[i]
		}
	}
	return nil
}

// ReportInput describes a match result. The winner is given either by team id or
// by team name; leaving both empty reports a draw.
type ReportInput struct {
	TournamentID int64
	MatchID      int64
	WinnerTeamID *int64
	WinnerName   string
	Team1Score   int
	Team2Score   int
	ReportedBy   string
}

type ReportOutcome struct {
	Match      bracket.Match
	NewMatches []bracket.Match
	Completed  bool
	Standings  []bracket.Team
}

type StartOutcome struct {
	Tournament *bracket.Tournament
	Teams      []bracket.Team
	Matches    []bracket.Match
}

// StartTournament builds the teams, generates round one and moves the tournament
// to in_progress.
func (s *Manager) StartTournament(ctx context.Context, guildID, name string) (*StartOutcome, error) {
	found, err := s.FindTournament(ctx, guildID, name)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(found.ID)
	defer unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournament, err := s.tournaments.GetTournamentTx(ctx, tx, found.ID)
	if err != nil {
		return nil, err
	}
	if tournament.Status == bracket.TournamentInProgress || !tournament.Status.CanTransitionTo(bracket.TournamentInProgress) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, tournament.Status, bracket.TournamentInProgress)
	}

	rng := s.newShuffler()
	strategy, err := bracket.NewStrategy(tournament.Format, tournament.ID, rng)
	if err != nil {
		return nil, err
	}

	players, err := s.participants.GetPlayersTx(ctx, tx, tournament.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load players: %w", err)
	}
	if len(players)%tournament.TeamSize != 0 {
		return nil, fmt.Errorf("%w: %d players, team size %d", ErrUnevenTeams, len(players), tournament.TeamSize)
	}
	if tournament.TeamSize > 1 {
		rng.Shuffle(len(players), func(i, j int) { players[i], players[j] = players[j], players[i] })
	}

	roster := buildTeams(tournament, players)
	if !strategy.ValidateTeamCount(len(roster)) {
		// Let the strategy produce its descriptive count error.
		_, err := strategy.GenerateMatches(roster)
		return nil, err
	}
	if err := s.tournaments.CreateTeams(ctx, tx, roster); err != nil {
		return nil, fmt.Errorf("failed to create teams: %w", err)
	}
	for i, p := range players {
		if err := s.participants.AssignTeamTx(ctx, tx, p.ID, roster[i/tournament.TeamSize].ID); err != nil {
			return nil, fmt.Errorf("failed to assign team: %w", err)
		}
	}

	matches, err := strategy.GenerateMatches(roster)
	if err != nil {
		return nil, err
	}
	if err := s.tournaments.CreateMatches(ctx, tx, matches); err != nil {
		return nil, fmt.Errorf("failed to create matches: %w", err)
	}
	if err := s.tournaments.UpdateTournamentStatusTx(ctx, tx, tournament.ID, bracket.TournamentInProgress); err != nil {
		return nil, fmt.Errorf("failed to update tournament status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	tournament.Status = bracket.TournamentInProgress
	s.logger.Info("tournament started", "tournament_id", tournament.ID, "teams", len(roster), "matches", len(matches))
	s.notify(tournament.ID, EventRoundGenerated, matches)
	return &StartOutcome{Tournament: tournament, Teams: roster, Matches: matches}, nil
}

// buildTeams gives every solo player a team named after them and otherwise chunks
// the players into numbered teams.
func buildTeams(tournament *bracket.Tournament, players []bracket.Player) []bracket.Team {
	teams := make([]bracket.Team, 0, len(players)/tournament.TeamSize)
	for i := 0; i+tournament.TeamSize <= len(players); i += tournament.TeamSize {
		name := players[i].Username
		if tournament.TeamSize > 1 {
			name = fmt.Sprintf("Team %d", len(teams)+1)
		}
		teams = append(teams, bracket.Team{TournamentID: tournament.ID, Name: name})
	}
	return teams
}

// ReportResult records a match result, updates the team counters and, once the
// round is finished, generates the next round or completes the tournament.
func (s *Manager) ReportResult(ctx context.Context, input ReportInput) (*ReportOutcome, error) {
	unlock := s.locks.Lock(input.TournamentID)
	defer unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournament, err := s.tournaments.GetTournamentTx(ctx, tx, input.TournamentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrTournamentNotFound, input.TournamentID)
	}
	if err != nil {
		return nil, err
	}
	if tournament.Status != bracket.TournamentInProgress {
		return nil, fmt.Errorf("%w: %s is %s", ErrTournamentNotActive, tournament.Name, tournament.Status)
	}

	match, err := s.tournaments.GetMatchTx(ctx, tx, input.MatchID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && match.TournamentID != tournament.ID) {
		return nil, fmt.Errorf("%w: id %d", ErrMatchNotFound, input.MatchID)
	}
	if err != nil {
		return nil, err
	}
	if match.Resolved() {
		return nil, fmt.Errorf("%w: %s", ErrMatchResolved, match.BracketPosition)
	}

	teams, err := s.tournaments.GetTeamsTx(ctx, tx, tournament.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}
	winnerID, err := resolveWinner(input, match, teams)
	if err != nil {
		return nil, err
	}
	if winnerID == nil && tournament.Format != bracket.RoundRobin {
		return nil, ErrDrawNotAllowed
	}
	if winnerID != nil && !match.Involves(*winnerID) {
		return nil, fmt.Errorf("%w: %s", ErrWinnerNotInMatch, match.BracketPosition)
	}
	if err := checkScores(match, winnerID, input.Team1Score, input.Team2Score); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	match.WinnerTeamID = winnerID
	match.Team1Score = input.Team1Score
	match.Team2Score = input.Team2Score
	match.Status = bracket.MatchCompleted
	if input.ReportedBy != "" {
		match.ReportedBy = &input.ReportedBy
	}
	match.CompletedAt = &now
	if err := s.tournaments.UpdateMatchResultTx(ctx, tx, match); err != nil {
		return nil, fmt.Errorf("failed to save result: %w", err)
	}
	if err := s.recordTeams(ctx, tx, match); err != nil {
		return nil, fmt.Errorf("failed to update team records: %w", err)
	}

	strategy, err := bracket.NewStrategy(tournament.Format, tournament.ID, s.newShuffler())
	if err != nil {
		return nil, err
	}
	matches, err := s.tournaments.GetMatchesTx(ctx, tx, tournament.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches: %w", err)
	}

	outcome := &ReportOutcome{Match: *match}
	next, err := strategy.AdvanceToNextRound(matches)
	switch {
	case errors.Is(err, bracket.ErrRoundIncomplete):
	case err != nil:
		return nil, fmt.Errorf("failed to advance round: %w", err)
	case len(next) > 0:
		if err := s.tournaments.CreateMatches(ctx, tx, next); err != nil {
			return nil, fmt.Errorf("failed to create matches: %w", err)
		}
		outcome.NewMatches = next
		matches = append(matches, next...)
	}

	if len(next) == 0 && strategy.IsTournamentComplete(teams, matches) {
		if err := s.tournaments.UpdateTournamentStatusTx(ctx, tx, tournament.ID, bracket.TournamentCompleted); err != nil {
			return nil, fmt.Errorf("failed to complete tournament: %w", err)
		}
		teams, err = s.tournaments.GetTeamsTx(ctx, tx, tournament.ID)
		if err != nil {
			return nil, err
		}
		outcome.Completed = true
		outcome.Standings = strategy.Standings(teams, matches)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("match reported",
		"tournament_id", tournament.ID,
		"match_id", match.ID,
		"position", match.BracketPosition,
		"draw", match.IsDraw(),
		"new_matches", len(outcome.NewMatches),
		"completed", outcome.Completed,
	)
	s.notify(tournament.ID, EventMatchReported, outcome.Match)
	if len(outcome.NewMatches) > 0 {
		s.notify(tournament.ID, EventRoundGenerated, outcome.NewMatches)
	}
	if outcome.Completed {
		s.notify(tournament.ID, EventTournamentCompleted, outcome.Standings)
		s.archive(ctx, tournament.ID)
	}
	return outcome, nil
}

// resolveWinner matches a winner name against the teams of this match.
func resolveWinner(input ReportInput, match *bracket.Match, teams []bracket.Team) (*int64, error) {
	if input.WinnerTeamID != nil {
		return input.WinnerTeamID, nil
	}
	name := strings.TrimSpace(input.WinnerName)
	if name == "" {
		return nil, nil
	}
	for _, t := range teams {
		if match.Involves(t.ID) && strings.EqualFold(t.Name, name) {
			id := t.ID
			return &id, nil
		}
	}
	return nil, fmt.Errorf("%w: no team named %q in %s", ErrWinnerNotInMatch, name, match.BracketPosition)
}

// checkScores rejects results whose scores contradict the outcome. A draw needs
// equal scores. A head-to-head winner needs the higher score unless no score was
// given at all. FFA groups carry no per-team scores.
func checkScores(match *bracket.Match, winnerID *int64, score1, score2 int) error {
	if score1 < 0 || score2 < 0 {
		return fmt.Errorf("%w: scores cannot be negative", ErrScoreMismatch)
	}
	if winnerID == nil {
		if score1 != score2 {
			return fmt.Errorf("%w: a draw needs equal scores, got %d-%d", ErrScoreMismatch, score1, score2)
		}
		return nil
	}
	if len(bracket.GroupTeamIDs(*match)) > 0 || (score1 == 0 && score2 == 0) {
		return nil
	}
	winnerScore, loserScore := score1, score2
	if *winnerID == match.Team2ID {
		winnerScore, loserScore = score2, score1
	}
	if winnerScore <= loserScore {
		return fmt.Errorf("%w: the winner must have the higher score, got %d-%d", ErrScoreMismatch, score1, score2)
	}
	return nil
}

// recordTeams bumps the win, loss and draw counters of everyone in the match. In an
// FFA group every member other than the winner takes a loss.
func (s *Manager) recordTeams(ctx context.Context, tx *sqlx.Tx, match *bracket.Match) error {
	for _, id := range match.Participants() {
		var err error
		switch {
		case match.WinnerTeamID == nil:
			err = s.tournaments.AddTeamRecordTx(ctx, tx, id, 0, 0, 1)
		case *match.WinnerTeamID == id:
			err = s.tournaments.AddTeamRecordTx(ctx, tx, id, 1, 0, 0)
		default:
			err = s.tournaments.AddTeamRecordTx(ctx, tx, id, 0, 1, 0)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Manager) Standings(ctx context.Context, tournamentID int64) ([]bracket.Team, error) {
	data, err := s.GetTournamentData(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	return data.Standings, nil
}

// GetTournamentData loads everything known about a tournament.
func (s *Manager) GetTournamentData(ctx context.Context, tournamentID int64) (*TournamentData, error) {
	data := &TournamentData{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tournament, err := s.tournaments.GetTournament(gctx, tournamentID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: id %d", ErrTournamentNotFound, tournamentID)
		}
		data.Tournament = tournament
		return err
	})
	g.Go(func() (err error) {
		data.Teams, err = s.tournaments.GetTeams(gctx, tournamentID)
		return err
	})
	g.Go(func() (err error) {
		data.Players, err = s.participants.GetPlayers(gctx, tournamentID)
		return err
	})
	g.Go(func() (err error) {
		data.Spectators, err = s.participants.GetSpectators(gctx, tournamentID)
		return err
	})
	g.Go(func() (err error) {
		data.Matches, err = s.tournaments.GetMatches(gctx, tournamentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	strategy, err := bracket.NewStrategy(data.Tournament.Format, tournamentID, nil)
	if err != nil {
		return nil, err
	}
	data.Standings = strategy.Standings(data.Teams, data.Matches)
	return data, nil
}

func (s *Manager) archive(ctx context.Context, tournamentID int64) {
	if s.archiver == nil {
		return
	}
	data, err := s.GetTournamentData(ctx, tournamentID)
	if err != nil {
		s.logger.Error("failed to load tournament for archive", "tournament_id", tournamentID, "error", err)
		return
	}
	if err := s.archiver.ArchiveTournament(ctx, tournamentID, data); err != nil {
		s.logger.Error("failed to archive tournament", "tournament_id", tournamentID, "error", err)
		return
	}
	s.logger.Info("tournament archived", "tournament_id", tournamentID)
}
