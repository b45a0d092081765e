package views

import (
	"fmt"
	"strings"

	"github.com/a-h/templ"
	"github.com/winterdragon/winterdragon/internal/bracket"
)

const liveScript = `<script>
(function () {
  var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + location.pathname + "/ws");
  ws.onmessage = function () { location.reload(); };
})();
</script>`

type bracketSection struct {
	Title  string
	Rounds []bracketRound
}

type bracketRound struct {
	Number int
	Lines  []string
}

// bracketSections lays the bracket out winners side first. Empty sides are left out.
func bracketSections(teams []bracket.Team, matches []bracket.Match) []bracketSection {
	bd := PrepareBracketData(teams, matches)
	sides := []struct {
		side   bracket.BracketSide
		rounds map[int][]bracket.Match
		nums   []int
	}{
		{bracket.WinnersSide, bd.WBRounds, bd.WBRoundNums},
		{bracket.LosersSide, bd.LBRounds, bd.LBRoundNums},
		{bracket.FinalsSide, bd.FinalRounds, bd.FinalRoundNums},
	}

	var sections []bracketSection
	for _, s := range sides {
		if len(s.nums) == 0 {
			continue
		}
		section := bracketSection{Title: sideTitle(s.side)}
		for _, n := range s.nums {
			round := bracketRound{Number: n}
			for _, m := range s.rounds[n] {
				round.Lines = append(round.Lines, matchSummary(bd, m))
			}
			section.Rounds = append(section.Rounds, round)
		}
		sections = append(sections, section)
	}
	return sections
}

func tournamentURL(id int64) templ.SafeURL {
	return templ.URL(fmt.Sprintf("/tournaments/%d", id))
}

func roundTitle(n int) string {
	return fmt.Sprintf("Round %d", n)
}

func standingLine(t bracket.Team) string {
	return fmt.Sprintf("%s (%d-%d-%d)", t.Name, t.Wins, t.Losses, t.Draws)
}

func statusLabel(s bracket.TournamentStatus) string {
	return s.Glyph() + " " + strings.ReplaceAll(string(s), "_", " ")
}

func sideTitle(side bracket.BracketSide) string {
	switch side {
	case bracket.LosersSide:
		return "Losers bracket"
	case bracket.FinalsSide:
		return "Grand final"
	}
	return "Rounds"
}

func matchSummary(bd BracketData, m bracket.Match) string {
	return fmt.Sprintf("#%d %s: %s (%s)", m.ID, m.BracketPosition, strings.Join(matchTeams(bd, m), " vs "), matchScore(m))
}

// matchTeams lists the match participants, marking the winner.
func matchTeams(d BracketData, m bracket.Match) []string {
	ids := m.Participants()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = d.TeamName(id)
		if m.IsWinner(id) {
			names[i] += " 🏆"
		}
	}
	return names
}

func matchScore(m bracket.Match) string {
	switch {
	case !m.Resolved():
		return "pending"
	case m.IsDraw():
		return fmt.Sprintf("draw %d-%d", m.Team1Score, m.Team2Score)
	case len(bracket.GroupTeamIDs(m)) > 0:
		return "done"
	}
	return fmt.Sprintf("%d-%d", m.Team1Score, m.Team2Score)
}
