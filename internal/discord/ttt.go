package discord

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/winterdragon/winterdragon/internal/lobby"
	"github.com/winterdragon/winterdragon/internal/tictactoe"
)

const leaderboardSize = 5

func (b *Bot) handleTicTacToeCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sub, opts := subcommandOf(i.ApplicationCommandData())

	switch sub {
	case "new":
		b.handleNewLobby(s, i)
	case "challenge":
		b.handleChallenge(s, i, opts)
	case "bot":
		b.handleBotGame(s, i)
	case "stats":
		b.handleStats(s, i, opts)
	default:
		b.logger.Warn("unknown ttt subcommand", "subcommand", sub)
	}
}

func (b *Bot) handleNewLobby(s *discordgo.Session, i *discordgo.InteractionCreate) {
	host := lobby.Player{ID: interactionUser(i).ID, Name: displayName(i)}
	l := lobby.New(tictactoe.GameName, host, 2, 2, b.lobbyTimeout, time.Now())
	b.lobbies.Add(l)

	b.logger.Info("lobby opened", "lobby_id", l.ID, "host_id", host.ID)
	b.respond(s, i, lobbyEmbed(l), lobbyComponents(l))
}

func (b *Bot) handleChallenge(s *discordgo.Session, i *discordgo.InteractionCreate, opts options) {
	opt, ok := opts["opponent"]
	if !ok {
		b.sendError(s, i, "Could not start game", ErrBadComponent)
		return
	}
	opponent := opt.UserValue(s)
	challenger := interactionUser(i)
	if opponent == nil || opponent.ID == challenger.ID {
		b.sendError(s, i, "Could not start game", ErrSelfChallenge)
		return
	}

	b.startGame(s, i, false,
		tictactoe.Participant{ID: challenger.ID, Name: displayName(i)},
		tictactoe.Participant{ID: opponent.ID, Name: opponent.Username, Bot: opponent.Bot},
	)
}

func (b *Bot) handleBotGame(s *discordgo.Session, i *discordgo.InteractionCreate) {
	me := s.State.User
	b.startGame(s, i, false,
		tictactoe.Participant{ID: interactionUser(i).ID, Name: displayName(i)},
		tictactoe.Participant{ID: me.ID, Name: me.Username, Bot: true},
	)
}

// startGame seats x and o in a new session and shows the board, either as a new
// message or in place of the message the interaction came from.
func (b *Bot) startGame(s *discordgo.Session, i *discordgo.InteractionCreate, replace bool, x, o tictactoe.Participant) {
	session := tictactoe.NewSession(uuid.New())
	for _, p := range []tictactoe.Participant{x, o} {
		if _, err := session.Seat(p); err != nil {
			b.sendError(s, i, "Could not start game", err)
			return
		}
	}
	if x.Bot {
		if _, err := session.BotMove(); err != nil {
			b.sendError(s, i, "Could not start game", err)
			return
		}
	}
	b.addSession(session)
	b.logger.Info("game started", "session_id", session.ID, "x", x.ID, "o", o.ID)

	embed := boardEmbed(session)
	components := boardComponents(session.ID, session.Board(), session.State().Terminal())
	if replace {
		b.update(s, i, embed, components)
		return
	}
	b.respond(s, i, embed, components)
}

func (b *Bot) handleStats(s *discordgo.Session, i *discordgo.InteractionCreate, opts options) {
	ctx, cancel := b.context()
	defer cancel()

	id, name := interactionUser(i).ID, displayName(i)
	if opt, ok := opts["user"]; ok {
		if u := opt.UserValue(s); u != nil {
			id, name = u.ID, u.Username
		}
	}

	stats, err := b.games.Stats(ctx, tictactoe.GameName, id, leaderboardSize)
	if err != nil {
		b.sendError(s, i, "Could not load stats", err)
		return
	}
	b.respond(s, i, statsEmbed(name, stats), nil)
}

func (b *Bot) handleLobbyButton(s *discordgo.Session, i *discordgo.InteractionCreate) {
	cid, err := parseComponentID(i.MessageComponentData().CustomID)
	if err != nil {
		b.sendError(s, i, "Lobby", err)
		return
	}
	player := lobby.Player{ID: interactionUser(i).ID, Name: displayName(i)}

	var (
		embed      *discordgo.MessageEmbed
		components []discordgo.MessageComponent
		started    []lobby.Player
	)
	err = b.lobbies.Do(cid.ID, func(l *lobby.Lobby, now time.Time) error {
		var err error
		switch cid.Action {
		case lobbyJoin:
			_, err = l.Join(player, now)
		case lobbyLeave:
			err = l.Leave(player.ID, now)
		case lobbyStart:
			started, err = l.Start(player.ID, now)
		default:
			err = fmt.Errorf("%w: action %q", ErrBadComponent, cid.Action)
		}
		if err != nil {
			return err
		}
		embed, components = lobbyEmbed(l), lobbyComponents(l)
		if l.Status == lobby.StatusClosed {
			embed, components = infoEmbed("Lobby closed", "Everyone left the lobby."), []discordgo.MessageComponent{}
		}
		return nil
	})
	if err != nil {
		b.sendError(s, i, "Lobby", err)
		return
	}

	if len(started) == 2 {
		b.startGame(s, i, true,
			tictactoe.Participant{ID: started[0].ID, Name: started[0].Name},
			tictactoe.Participant{ID: started[1].ID, Name: started[1].Name},
		)
		return
	}
	b.update(s, i, embed, components)
}

func (b *Bot) handleBoardButton(s *discordgo.Session, i *discordgo.InteractionCreate) {
	cid, err := parseComponentID(i.MessageComponentData().CustomID)
	if err != nil {
		b.sendError(s, i, "Invalid move", err)
		return
	}
	row, col, err := cid.cell()
	if err != nil {
		b.sendError(s, i, "Invalid move", err)
		return
	}
	session, ok := b.session(cid.ID)
	if !ok {
		b.sendError(s, i, "Invalid move", ErrUnknownGame)
		return
	}

	out, err := session.Move(interactionUser(i).ID, row, col)
	if err != nil {
		b.sendError(s, i, "Invalid move", err)
		return
	}

	if out.State.Terminal() {
		b.dropSession(session.ID)
		b.recordGame(session, out.Result)
	}
	b.update(s, i, boardEmbed(session), boardComponents(session.ID, session.Board(), out.State.Terminal()))
}

func (b *Bot) recordGame(session *tictactoe.Session, result *tictactoe.Result) {
	if result == nil {
		return
	}
	ctx, cancel := b.context()
	defer cancel()

	x, _ := session.Player(tictactoe.X)
	o, _ := session.Player(tictactoe.O)
	if err := b.games.RecordResult(ctx, result, x, o); err != nil {
		b.logger.Error("failed to record game result", "session_id", session.ID, "error", err)
	}
}
