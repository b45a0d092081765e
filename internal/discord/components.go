package discord

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/winterdragon/winterdragon/internal/lobby"
	"github.com/winterdragon/winterdragon/internal/tictactoe"
)

const (
	lobbyPrefix = "lobby"
	boardPrefix = "ttt"

	lobbyJoin  = "join"
	lobbyLeave = "leave"
	lobbyStart = "start"
)

// Custom ids look like "lobby:<uuid>:join" and "ttt:<uuid>:<cell>" where cell is
// 0-8 in row-major order.
func lobbyButtonID(id uuid.UUID, action string) string {
	return fmt.Sprintf("%s:%s:%s", lobbyPrefix, id, action)
}

func boardButtonID(id uuid.UUID, row, col int) string {
	return fmt.Sprintf("%s:%s:%d", boardPrefix, id, row*3+col)
}

type componentID struct {
	Prefix string
	ID     uuid.UUID
	Action string
}

func parseComponentID(customID string) (componentID, error) {
	parts := strings.Split(customID, ":")
	if len(parts) != 3 {
		return componentID{}, fmt.Errorf("%w: %q", ErrBadComponent, customID)
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return componentID{}, fmt.Errorf("%w: %q", ErrBadComponent, customID)
	}
	return componentID{Prefix: parts[0], ID: id, Action: parts[2]}, nil
}

// cell converts a board action back to row and column.
func (c componentID) cell() (int, int, error) {
	n, err := strconv.Atoi(c.Action)
	if err != nil || n < 0 || n > 8 {
		return 0, 0, fmt.Errorf("%w: cell %q", ErrBadComponent, c.Action)
	}
	return n / 3, n % 3, nil
}

func lobbyComponents(l *lobby.Lobby) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Join", Style: discordgo.SuccessButton, CustomID: lobbyButtonID(l.ID, lobbyJoin), Disabled: l.Full()},
				discordgo.Button{Label: "Leave", Style: discordgo.SecondaryButton, CustomID: lobbyButtonID(l.ID, lobbyLeave)},
				discordgo.Button{Label: "Start", Style: discordgo.PrimaryButton, CustomID: lobbyButtonID(l.ID, lobbyStart), Disabled: len(l.Players()) < l.MinPlayers},
			},
		},
	}
}

// boardComponents renders the board as a 3x3 grid of buttons. Taken cells and
// every cell of a finished game are disabled.
func boardComponents(id uuid.UUID, board tictactoe.Board, finished bool) []discordgo.MessageComponent {
	rows := make([]discordgo.MessageComponent, 0, 3)
	for r := 0; r < 3; r++ {
		buttons := make([]discordgo.MessageComponent, 0, 3)
		for c := 0; c < 3; c++ {
			mark := board[r][c]
			button := discordgo.Button{
				Label:    "\u200b",
				Style:    discordgo.SecondaryButton,
				CustomID: boardButtonID(id, r, c),
				Disabled: finished || mark != tictactoe.Empty,
			}
			switch mark {
			case tictactoe.X:
				button.Label, button.Style = "X", discordgo.DangerButton
			case tictactoe.O:
				button.Label, button.Style = "O", discordgo.PrimaryButton
			}
			buttons = append(buttons, button)
		}
		rows = append(rows, discordgo.ActionsRow{Components: buttons})
	}
	return rows
}
