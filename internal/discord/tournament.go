package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/winterdragon/winterdragon/internal/bracket"
	"github.com/winterdragon/winterdragon/internal/service"
	users "github.com/winterdragon/winterdragon/internal/user"
)

func (b *Bot) handleTournamentCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sub, opts := subcommandOf(i.ApplicationCommandData())

	switch sub {
	case "create":
		b.handleCreate(s, i, opts)
	case "open", "close", "cancel":
		b.handleTransition(s, i, sub, opts.getString("name"))
	case "join", "spectate":
		b.handleRegister(s, i, sub, opts.getString("name"))
	case "withdraw":
		b.handleWithdraw(s, i, opts.getString("name"))
	case "list":
		b.handleList(s, i)
	case "start":
		b.handleStart(s, i, opts.getString("name"))
	case "report":
		b.handleReport(s, i, opts)
	case "standings":
		b.handleStandings(s, i, opts.getString("name"))
	default:
		b.logger.Warn("unknown tournament subcommand", "subcommand", sub)
	}
}

// canManage allows the tournament creator and members with Manage Server.
func canManage(i *discordgo.InteractionCreate, t *bracket.Tournament) bool {
	if i.Member != nil && i.Member.Permissions&discordgo.PermissionManageGuild != 0 {
		return true
	}
	u := interactionUser(i)
	return u != nil && u.ID == t.CreatorID
}

func (b *Bot) handleCreate(s *discordgo.Session, i *discordgo.InteractionCreate, opts options) {
	ctx, cancel := b.context()
	defer cancel()

	format, err := bracket.ParseFormat(opts.getString("format"))
	if err != nil {
		b.sendError(s, i, "Could not create tournament", err)
		return
	}
	input := service.CreateTournamentInput{
		GuildID:     i.GuildID,
		CreatorID:   interactionUser(i).ID,
		Name:        opts.getString("name"),
		Description: opts.getString("description"),
		Format:      format,
		TeamSize:    1,
		Planned:     opts.getBool("planned"),
	}
	if n, ok := opts.getInt("max_players"); ok {
		input.MaxPlayers = &n
	}
	if n, ok := opts.getInt("team_size"); ok {
		input.TeamSize = n
	}

	t, err := b.manager.CreateTournament(ctx, input)
	if err != nil {
		b.sendError(s, i, "Could not create tournament", err)
		return
	}
	b.respond(s, i, tournamentEmbed("Tournament created", t), nil)
}

func (b *Bot) handleTransition(s *discordgo.Session, i *discordgo.InteractionCreate, action, name string) {
	ctx, cancel := b.context()
	defer cancel()

	t, err := b.manager.FindTournament(ctx, i.GuildID, name)
	if err != nil {
		b.sendError(s, i, "Could not update tournament", err)
		return
	}
	if !canManage(i, t) {
		b.sendError(s, i, "Could not update tournament", ErrNotOrganizer)
		return
	}

	var title string
	switch action {
	case "open":
		t, err = b.manager.OpenRegistration(ctx, i.GuildID, name)
		title = "Registration open"
	case "close":
		t, err = b.manager.CloseRegistration(ctx, i.GuildID, name)
		title = "Registration closed"
	case "cancel":
		t, err = b.manager.CancelTournament(ctx, i.GuildID, name)
		title = "Tournament cancelled"
	}
	if err != nil {
		b.sendError(s, i, "Could not update tournament", err)
		return
	}
	b.respond(s, i, tournamentEmbed(title, t), nil)
}

func (b *Bot) handleRegister(s *discordgo.Session, i *discordgo.InteractionCreate, as, name string) {
	ctx, cancel := b.context()
	defer cancel()

	user := users.User{ID: interactionUser(i).ID, Username: displayName(i)}
	var err error
	if as == "spectate" {
		_, err = b.manager.RegisterSpectator(ctx, i.GuildID, name, user)
	} else {
		_, err = b.manager.RegisterPlayer(ctx, i.GuildID, name, user)
	}
	if err != nil {
		b.sendError(s, i, "Could not register", err)
		return
	}

	role := "player"
	if as == "spectate" {
		role = "spectator"
	}
	b.respond(s, i, infoEmbed("Registered", fmt.Sprintf("%s joined **%s** as a %s.", user.Username, name, role)), nil)
}

func (b *Bot) handleWithdraw(s *discordgo.Session, i *discordgo.InteractionCreate, name string) {
	ctx, cancel := b.context()
	defer cancel()

	user := interactionUser(i)
	if err := b.manager.WithdrawPlayer(ctx, i.GuildID, name, user.ID); err != nil {
		b.sendError(s, i, "Could not withdraw", err)
		return
	}
	b.respond(s, i, infoEmbed("Withdrawn", fmt.Sprintf("%s left **%s**.", displayName(i), name)), nil)
}

func (b *Bot) handleList(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := b.context()
	defer cancel()

	listings, err := b.manager.ListTournaments(ctx, i.GuildID)
	if err != nil {
		b.sendError(s, i, "Could not list tournaments", err)
		return
	}
	b.respond(s, i, listEmbed(listings), nil)
}

func (b *Bot) handleStart(s *discordgo.Session, i *discordgo.InteractionCreate, name string) {
	ctx, cancel := b.context()
	defer cancel()

	t, err := b.manager.FindTournament(ctx, i.GuildID, name)
	if err != nil {
		b.sendError(s, i, "Could not start tournament", err)
		return
	}
	if !canManage(i, t) {
		b.sendError(s, i, "Could not start tournament", ErrNotOrganizer)
		return
	}

	out, err := b.manager.StartTournament(ctx, i.GuildID, name)
	if err != nil {
		b.sendError(s, i, "Could not start tournament", err)
		return
	}
	b.respond(s, i, startEmbed(out), nil)
}

func (b *Bot) handleReport(s *discordgo.Session, i *discordgo.InteractionCreate, opts options) {
	ctx, cancel := b.context()
	defer cancel()

	t, err := b.manager.FindTournament(ctx, i.GuildID, opts.getString("name"))
	if err != nil {
		b.sendError(s, i, "Could not report result", err)
		return
	}
	data, err := b.manager.GetTournamentData(ctx, t.ID)
	if err != nil {
		b.sendError(s, i, "Could not report result", err)
		return
	}

	user := interactionUser(i)
	if !canManage(i, t) && !isPlayer(data, user.ID) {
		b.sendError(s, i, "Could not report result", ErrNotPlayer)
		return
	}

	matchID, _ := opts.getInt("match")
	score1, _ := opts.getInt("score1")
	score2, _ := opts.getInt("score2")
	out, err := b.manager.ReportResult(ctx, service.ReportInput{
		TournamentID: t.ID,
		MatchID:      int64(matchID),
		WinnerName:   opts.getString("winner"),
		Team1Score:   score1,
		Team2Score:   score2,
		ReportedBy:   user.ID,
	})
	if err != nil {
		b.sendError(s, i, "Could not report result", err)
		return
	}
	b.respond(s, i, reportEmbed(data, out), nil)
}

func isPlayer(data *service.TournamentData, userID string) bool {
	for _, p := range data.Players {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

func (b *Bot) handleStandings(s *discordgo.Session, i *discordgo.InteractionCreate, name string) {
	ctx, cancel := b.context()
	defer cancel()

	t, err := b.manager.FindTournament(ctx, i.GuildID, name)
	if err != nil {
		b.sendError(s, i, "Could not load standings", err)
		return
	}
	data, err := b.manager.GetTournamentData(ctx, t.ID)
	if err != nil {
		b.sendError(s, i, "Could not load standings", err)
		return
	}
	b.respond(s, i, standingsEmbed(data), nil)
}
