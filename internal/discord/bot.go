package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/winterdragon/winterdragon/internal/lobby"
	"github.com/winterdragon/winterdragon/internal/service"
	"github.com/winterdragon/winterdragon/internal/tictactoe"
)

const handlerTimeout = 10 * time.Second

type handlerFunc func(s *discordgo.Session, i *discordgo.InteractionCreate)

// Bot is the Discord front end. Slash commands and button clicks are translated
// into calls on the tournament manager, the lobby registry and game sessions.
type Bot struct {
	Session           *discordgo.Session
	GuildID           string
	Commands          []*discordgo.ApplicationCommand
	CommandHandlers   map[string]handlerFunc
	ComponentHandlers map[string]handlerFunc

	manager      *service.Manager
	games        *service.GameService
	lobbies      *lobby.Registry
	lobbyTimeout time.Duration
	logger       *slog.Logger

	sessionsMu sync.Mutex
	sessions   map[uuid.UUID]*tictactoe.Session
}

type Deps struct {
	Manager      *service.Manager
	Games        *service.GameService
	Lobbies      *lobby.Registry
	LobbyTimeout time.Duration
	Logger       *slog.Logger
}

func NewBot(token, guildID string, deps Deps) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	bot := &Bot{
		Session:           session,
		GuildID:           guildID,
		CommandHandlers:   make(map[string]handlerFunc),
		ComponentHandlers: make(map[string]handlerFunc),
		manager:           deps.Manager,
		games:             deps.Games,
		lobbies:           deps.Lobbies,
		lobbyTimeout:      deps.LobbyTimeout,
		logger:            deps.Logger,
		sessions:          make(map[uuid.UUID]*tictactoe.Session),
	}

	bot.CommandHandlers["tournament"] = bot.handleTournamentCommand
	bot.CommandHandlers["ttt"] = bot.handleTicTacToeCommand
	bot.ComponentHandlers[lobbyPrefix] = bot.handleLobbyButton
	bot.ComponentHandlers[boardPrefix] = bot.handleBoardButton

	return bot, nil
}

// Start opens the gateway connection and registers the slash commands.
func (b *Bot) Start() error {
	b.Session.AddHandler(b.interactionHandler)
	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.logger.Info("connected to Discord", "user", r.User.Username, "guilds", len(r.Guilds))
	})

	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("error opening Discord session: %w", err)
	}

	registered, err := b.registerCommands()
	if err != nil {
		return fmt.Errorf("error registering commands: %w", err)
	}
	b.Commands = registered

	b.logger.Info("slash commands registered", "count", len(registered), "guild_id", b.GuildID)
	return nil
}

// Stop removes the registered commands and closes the session.
func (b *Bot) Stop() error {
	for _, cmd := range b.Commands {
		if err := b.Session.ApplicationCommandDelete(b.Session.State.User.ID, b.GuildID, cmd.ID); err != nil {
			b.logger.Warn("failed to remove command", "command", cmd.Name, "error", err)
		}
	}
	return b.Session.Close()
}

func (b *Bot) registerCommands() ([]*discordgo.ApplicationCommand, error) {
	registered := make([]*discordgo.ApplicationCommand, len(commands))

	for i, cmd := range commands {
		created, err := b.Session.ApplicationCommandCreate(b.Session.State.User.ID, b.GuildID, cmd)
		if err != nil {
			return nil, fmt.Errorf("error creating command '%s': %w", cmd.Name, err)
		}
		registered[i] = created
	}

	return registered, nil
}

func (b *Bot) interactionHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		if handler, ok := b.CommandHandlers[i.ApplicationCommandData().Name]; ok {
			handler(s, i)
		}
	case discordgo.InteractionMessageComponent:
		prefix, _, _ := strings.Cut(i.MessageComponentData().CustomID, ":")
		if handler, ok := b.ComponentHandlers[prefix]; ok {
			handler(s, i)
		}
	}
}

func (b *Bot) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), handlerTimeout)
}

// interactionUser returns the user behind an interaction in a guild or a DM.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func displayName(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.Nick != "" {
		return i.Member.Nick
	}
	if u := interactionUser(i); u != nil {
		if u.GlobalName != "" {
			return u.GlobalName
		}
		return u.Username
	}
	return ""
}

func (b *Bot) respond(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	})
	if err != nil {
		b.logger.Error("failed to respond to interaction", "error", err)
	}
}

// update replaces the message a button belongs to.
func (b *Bot) update(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	})
	if err != nil {
		b.logger.Error("failed to update interaction message", "error", err)
	}
}

// sendError replies with an ephemeral red embed. Errors that are not meant for
// users are logged and replaced by a generic message.
func (b *Bot) sendError(s *discordgo.Session, i *discordgo.InteractionCreate, title string, err error) {
	description, known := userMessage(err)
	if !known {
		b.logger.Error("interaction failed", "title", title, "error", err)
	}

	respErr := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{errorEmbed(title, description)},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
	if respErr != nil {
		b.logger.Error("failed to send error response", "error", respErr)
	}
}

func (b *Bot) addSession(session *tictactoe.Session) {
	b.sessionsMu.Lock()
	defer b.sessionsMu.Unlock()
	b.sessions[session.ID] = session
}

func (b *Bot) session(id uuid.UUID) (*tictactoe.Session, bool) {
	b.sessionsMu.Lock()
	defer b.sessionsMu.Unlock()
	session, ok := b.sessions[id]
	return session, ok
}

func (b *Bot) dropSession(id uuid.UUID) {
	b.sessionsMu.Lock()
	defer b.sessionsMu.Unlock()
	delete(b.sessions, id)
}
