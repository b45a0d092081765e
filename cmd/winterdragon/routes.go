package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/winterdragon/winterdragon/internal/httputil"
	"github.com/winterdragon/winterdragon/internal/live"
	"github.com/winterdragon/winterdragon/internal/middleware"
	"github.com/winterdragon/winterdragon/internal/service"
	"github.com/winterdragon/winterdragon/views"
)

// newRouter serves the read-only companion site for tournaments run through the bot.
func newRouter(manager *service.Manager, hub *live.Hub) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.With(middleware.RequireGuild).Get("/guilds/{guildID}/tournaments", func(w http.ResponseWriter, r *http.Request) {
		guildID, _ := middleware.GuildIDFromContext(r.Context())

		listings, err := manager.ListTournaments(r.Context(), guildID)
		if err != nil {
			httputil.InternalServerError(w, "Failed to list tournaments", err)
			return
		}
		if err := views.Render(w, r, views.TournamentList(guildID, listings)); err != nil {
			httputil.InternalServerError(w, "Failed to render tournaments", err)
		}
	})

	r.Get("/tournaments/{id}", func(w http.ResponseWriter, r *http.Request) {
		data, ok := loadTournament(w, r, manager)
		if !ok {
			return
		}
		if err := views.Render(w, r, views.TournamentView(data)); err != nil {
			httputil.InternalServerError(w, "Failed to render tournament", err)
		}
	})

	r.Get("/api/tournaments/{id}", func(w http.ResponseWriter, r *http.Request) {
		data, ok := loadTournament(w, r, manager)
		if !ok {
			return
		}
		httputil.WriteJSON(w, http.StatusOK, data)
	})

	r.Get("/tournaments/{id}/ws", hub.ServeWs)

	return r
}

func loadTournament(w http.ResponseWriter, r *http.Request, manager *service.Manager) (*service.TournamentData, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.BadRequest(w, "Invalid tournament ID", err)
		return nil, false
	}

	data, err := manager.GetTournamentData(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrTournamentNotFound) {
			httputil.NotFound(w, "Tournament not found", err)
			return nil, false
		}
		httputil.InternalServerError(w, "Failed to get tournament", err)
		return nil, false
	}
	return data, true
}
