package lobby

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry holds the open lobbies. Lobby values are only touched through Do, which
// runs under the registry lock.
type Registry struct {
	mu      sync.Mutex
	lobbies map[uuid.UUID]*Lobby
	now     func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		lobbies: make(map[uuid.UUID]*Lobby),
		now:     time.Now,
	}
}

func (r *Registry) Add(l *Lobby) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lobbies[l.ID] = l
}

// Do runs fn with exclusive access to the lobby. Lobbies that are no longer open
// after fn returns are dropped.
func (r *Registry) Do(id uuid.UUID, fn func(l *Lobby, now time.Time) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lobbies[id]
	if !ok {
		return ErrLobbyClosed
	}
	err := fn(l, r.now())
	if l.Status != StatusOpen {
		delete(r.lobbies, id)
	}
	return err
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lobbies)
}

// Sweep removes expired lobbies and returns them.
func (r *Registry) Sweep() []*Lobby {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var expired []*Lobby
	for id, l := range r.lobbies {
		if l.Expired(now) {
			l.Status = StatusClosed
			expired = append(expired, l)
			delete(r.lobbies, id)
		}
	}
	return expired
}

// RunJanitor sweeps on every tick until ctx is done.
func (r *Registry) RunJanitor(ctx context.Context, every time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, l := range r.Sweep() {
				logger.Info("lobby expired", "lobby_id", l.ID, "game", l.Game, "players", len(l.Players()))
			}
		}
	}
}
