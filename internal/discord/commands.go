package discord

import (
	"github.com/bwmarrin/discordgo"
	"github.com/winterdragon/winterdragon/internal/bracket"
)

func nameOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "name",
		Description: "Tournament name",
		Required:    true,
	}
}

func formatChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, len(bracket.Formats))
	for i, f := range bracket.Formats {
		choices[i] = &discordgo.ApplicationCommandOptionChoice{Name: f.Label(), Value: string(f)}
	}
	return choices
}

func subcommand(name, description string, options ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        name,
		Description: description,
		Options:     options,
	}
}

// Command definitions
var commands = []*discordgo.ApplicationCommand{
	{
		Name:        "tournament",
		Description: "Run tournaments in this server",
		Options: []*discordgo.ApplicationCommandOption{
			subcommand("create", "Create a tournament",
				nameOption(),
				&discordgo.ApplicationCommandOption{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "format",
					Description: "Bracket format",
					Required:    true,
					Choices:     formatChoices(),
				},
				&discordgo.ApplicationCommandOption{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "description",
					Description: "Short description",
				},
				&discordgo.ApplicationCommandOption{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "max_players",
					Description: "Player limit (default: unlimited)",
				},
				&discordgo.ApplicationCommandOption{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "team_size",
					Description: "Players per team (default: 1)",
				},
				&discordgo.ApplicationCommandOption{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "planned",
					Description: "Keep registration closed until /tournament open",
				},
			),
			subcommand("open", "Open registration", nameOption()),
			subcommand("close", "Close registration", nameOption()),
			subcommand("join", "Register as a player", nameOption()),
			subcommand("spectate", "Register as a spectator", nameOption()),
			subcommand("withdraw", "Withdraw before the tournament starts", nameOption()),
			subcommand("list", "List the tournaments of this server"),
			subcommand("start", "Build teams and generate the first round", nameOption()),
			subcommand("report", "Report a match result",
				nameOption(),
				&discordgo.ApplicationCommandOption{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "match",
					Description: "Match ID",
					Required:    true,
				},
				&discordgo.ApplicationCommandOption{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "winner",
					Description: "Winning team (leave empty for a draw)",
				},
				&discordgo.ApplicationCommandOption{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "score1",
					Description: "Score of the first team",
				},
				&discordgo.ApplicationCommandOption{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "score2",
					Description: "Score of the second team",
				},
			),
			subcommand("standings", "Show the standings", nameOption()),
			subcommand("cancel", "Cancel a tournament", nameOption()),
		},
	},
	{
		Name:        "ttt",
		Description: "Play tic-tac-toe",
		Options: []*discordgo.ApplicationCommandOption{
			subcommand("new", "Open a lobby anyone can join"),
			subcommand("challenge", "Challenge another member",
				&discordgo.ApplicationCommandOption{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "opponent",
					Description: "Who to play against",
					Required:    true,
				},
			),
			subcommand("bot", "Play against the bot"),
			subcommand("stats", "Show tic-tac-toe stats",
				&discordgo.ApplicationCommandOption{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "Whose stats to show (default: you)",
				},
			),
		},
	},
}

type options map[string]*discordgo.ApplicationCommandInteractionDataOption

func optionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) options {
	m := make(options, len(opts))
	for _, opt := range opts {
		m[opt.Name] = opt
	}
	return m
}

func (o options) getString(name string) string {
	if opt, ok := o[name]; ok {
		return opt.StringValue()
	}
	return ""
}

func (o options) getInt(name string) (int, bool) {
	if opt, ok := o[name]; ok {
		return int(opt.IntValue()), true
	}
	return 0, false
}

func (o options) getBool(name string) bool {
	if opt, ok := o[name]; ok {
		return opt.BoolValue()
	}
	return false
}

// subcommandOf splits a command interaction into its subcommand name and options.
func subcommandOf(data discordgo.ApplicationCommandInteractionData) (string, options) {
	if len(data.Options) == 0 {
		return "", options{}
	}
	sub := data.Options[0]
	return sub.Name, optionMap(sub.Options)
}
