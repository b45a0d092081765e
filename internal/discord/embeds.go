package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/winterdragon/winterdragon/internal/bracket"
	"github.com/winterdragon/winterdragon/internal/lobby"
	"github.com/winterdragon/winterdragon/internal/service"
	"github.com/winterdragon/winterdragon/internal/tictactoe"
	"github.com/winterdragon/winterdragon/internal/utils"
)

const (
	colorError   = 0xff0000
	colorInfo    = 0x3498db
	colorSuccess = 0x2ecc71
	colorWarning = 0xf1c40f
)

func errorEmbed(title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       colorError,
	}
}

func infoEmbed(title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       colorInfo,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

func tournamentEmbed(title string, t *bracket.Tournament) *discordgo.MessageEmbed {
	limit := "unlimited"
	if t.MaxPlayers != nil {
		limit = fmt.Sprintf("%d", *t.MaxPlayers)
	}
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: utils.OrZero(t.Description),
		Color:       colorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Name", Value: t.Name, Inline: true},
			{Name: "Format", Value: t.Format.Label(), Inline: true},
			{Name: "Status", Value: fmt.Sprintf("%s %s", t.Status.Glyph(), t.Status), Inline: true},
			{Name: "Team size", Value: fmt.Sprintf("%d", t.TeamSize), Inline: true},
			{Name: "Max players", Value: limit, Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Tournament #%d", t.ID)},
	}
}

func listEmbed(listings []service.TournamentListing) *discordgo.MessageEmbed {
	if len(listings) == 0 {
		return infoEmbed("Tournaments", "No tournaments yet. Create one with `/tournament create`.")
	}
	lines := make([]string, len(listings))
	for i, l := range listings {
		lines[i] = fmt.Sprintf("%s **%s** • %s • %s players", l.StatusGlyph, l.Tournament.Name, l.Tournament.Format.Label(), l.Capacity)
	}
	return infoEmbed("Tournaments", strings.Join(lines, "\n"))
}

func teamNamesByID(teams []bracket.Team) map[int64]string {
	names := make(map[int64]string, len(teams))
	for _, t := range teams {
		names[t.ID] = t.Name
	}
	return names
}

// matchLine renders one match, listing the whole group for FFA matches.
func matchLine(m bracket.Match, names map[int64]string) string {
	ids := m.Participants()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = names[id]
		if m.IsWinner(id) {
			parts[i] = "**" + parts[i] + "**"
		}
	}

	line := fmt.Sprintf("`#%d` %s: %s", m.ID, m.BracketPosition, strings.Join(parts, " vs "))
	switch {
	case m.IsDraw():
		line += fmt.Sprintf(" (draw %d-%d)", m.Team1Score, m.Team2Score)
	case m.Resolved() && len(ids) == 2:
		line += fmt.Sprintf(" (%d-%d)", m.Team1Score, m.Team2Score)
	}
	return line
}

func matchesField(name string, matches []bracket.Match, names map[int64]string) *discordgo.MessageEmbedField {
	lines := make([]string, len(matches))
	for i, m := range matches {
		lines[i] = matchLine(m, names)
	}
	return &discordgo.MessageEmbedField{Name: name, Value: truncate(strings.Join(lines, "\n"))}
}

func startEmbed(out *service.StartOutcome) *discordgo.MessageEmbed {
	embed := tournamentEmbed("Tournament started", out.Tournament)
	embed.Color = colorSuccess
	embed.Fields = append(embed.Fields, matchesField("Round 1", out.Matches, teamNamesByID(out.Teams)))
	return embed
}

func reportEmbed(data *service.TournamentData, out *service.ReportOutcome) *discordgo.MessageEmbed {
	names := teamNamesByID(data.Teams)
	embed := &discordgo.MessageEmbed{
		Title:       "Result recorded",
		Description: matchLine(out.Match, names),
		Color:       colorSuccess,
		Footer:      &discordgo.MessageEmbedFooter{Text: data.Tournament.Name},
	}
	if len(out.NewMatches) > 0 {
		embed.Fields = append(embed.Fields, matchesField(fmt.Sprintf("Round %d", out.NewMatches[0].RoundNumber), out.NewMatches, names))
	}
	if out.Completed {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "🏆 Final standings",
			Value: truncate(strings.Join(standingLines(data.Tournament.Format, out.Standings, data.Matches), "\n")),
		})
	}
	return embed
}

func standingsEmbed(data *service.TournamentData) *discordgo.MessageEmbed {
	embed := tournamentEmbed("Standings", data.Tournament)
	if len(data.Standings) == 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Standings", Value: "The tournament has not started yet."})
		return embed
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  "Standings",
		Value: truncate(strings.Join(standingLines(data.Tournament.Format, data.Standings, data.Matches), "\n")),
	})
	if next := data.NextMatch(); next != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Next match", Value: matchLine(*next, teamNamesByID(data.Teams))})
	}
	return embed
}

// standingLines shows the score each format ranks by next to the team record.
func standingLines(format bracket.Format, standings []bracket.Team, matches []bracket.Match) []string {
	var ffa map[int64]bracket.FFAScore
	if format == bracket.FreeForAll {
		ffa = bracket.Scores(matches)
	}

	lines := make([]string, len(standings))
	for i, t := range standings {
		record := fmt.Sprintf("%d-%d-%d", t.Wins, t.Losses, t.Draws)
		switch format {
		case bracket.RoundRobin:
			lines[i] = fmt.Sprintf("%d. %s • %d pts (%s)", i+1, t.Name, bracket.Points(t.ID, matches), record)
		case bracket.FreeForAll:
			lines[i] = fmt.Sprintf("%d. %s • %d pts", i+1, t.Name, ffa[t.ID].Points)
		default:
			lines[i] = fmt.Sprintf("%d. %s (%s)", i+1, t.Name, record)
		}
	}
	return lines
}

func lobbyEmbed(l *lobby.Lobby) *discordgo.MessageEmbed {
	players := l.Players()
	lines := make([]string, len(players))
	for i, p := range players {
		lines[i] = "• " + p.Name
		if p.ID == l.HostID {
			lines[i] += " (host)"
		}
	}
	return &discordgo.MessageEmbed{
		Title:       "Tic-tac-toe lobby",
		Description: strings.Join(lines, "\n"),
		Color:       colorWarning,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%d/%d players • expires %s", len(players), l.MaxPlayers, l.ExpiresAt.Format(time.Kitchen)),
		},
	}
}

func boardEmbed(session *tictactoe.Session) *discordgo.MessageEmbed {
	x, _ := session.Player(tictactoe.X)
	o, _ := session.Player(tictactoe.O)

	var status string
	color := colorInfo
	switch session.State() {
	case tictactoe.XWon:
		status, color = fmt.Sprintf("❌ %s wins!", x.Name), colorSuccess
	case tictactoe.OWon:
		status, color = fmt.Sprintf("⭕ %s wins!", o.Name), colorSuccess
	case tictactoe.Drawn:
		status, color = "It's a draw.", colorWarning
	default:
		turn := x
		if session.Turn() == tictactoe.O {
			turn = o
		}
		status = fmt.Sprintf("%s (%s) to move", turn.Name, session.Turn())
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("❌ %s vs ⭕ %s", x.Name, o.Name),
		Description: status,
		Color:       color,
	}
}

func statsEmbed(name string, stats *service.PlayerStats) *discordgo.MessageEmbed {
	r := stats.Record
	lines := make([]string, len(stats.Leaderboard))
	for i, e := range stats.Leaderboard {
		lines[i] = fmt.Sprintf("%d. <@%s> • %d wins", i+1, e.UserID, e.Wins)
	}
	leaderboard := "No games played yet."
	if len(lines) > 0 {
		leaderboard = strings.Join(lines, "\n")
	}

	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Tic-tac-toe stats for %s", name),
		Color: colorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Wins", Value: fmt.Sprintf("%d", r.Wins), Inline: true},
			{Name: "Losses", Value: fmt.Sprintf("%d", r.Losses), Inline: true},
			{Name: "Draws", Value: fmt.Sprintf("%d", r.Draws), Inline: true},
			{Name: "Leaderboard", Value: leaderboard},
		},
	}
}

// Discord rejects embed field values over 1024 characters.
func truncate(s string) string {
	const limit = 1024
	if len(s) <= limit {
		return s
	}
	cut := strings.LastIndex(s[:limit-4], "\n")
	if cut < 0 {
		cut = limit - 4
	}
	return s[:cut] + "\n…"
}
