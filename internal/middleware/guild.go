package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/winterdragon/winterdragon/internal/httputil"
)

type ContextKey string

const GuildIDKey ContextKey = "guildID"

// RequireGuild reads the {guildID} route parameter, rejects anything that is not a
// Discord snowflake and stores it in the request context.
func RequireGuild(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		guildID := chi.URLParam(r, "guildID")
		if !IsSnowflake(guildID) {
			httputil.BadRequest(w, "Invalid guild ID", nil)
			return
		}

		ctx := context.WithValue(r.Context(), GuildIDKey, guildID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GuildIDFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(GuildIDKey)
	if val == nil {
		return "", false
	}

	id, ok := val.(string)
	return id, ok
}

// IsSnowflake accepts the 17 to 20 digit ids Discord hands out.
func IsSnowflake(s string) bool {
	if len(s) < 17 || len(s) > 20 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
