package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"

	chatService "github.com/zhouzirui/travel-tavern/backend/internal/service/chat"
	"github.com/zhouzirui/travel-tavern/backend/pkg/utils"
)

type sessionKey struct{}

// SessionID returns the chat session bound to the request by Session.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// WithSessionID binds a session id to ctx.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// Session resolves the session cookie to a chat session, creating a new
// session (and cookie) when the cookie is missing or stale.
func Session(chatSvc *chatService.Service, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			id, err := lookupSession(r, chatSvc, cookieName)
			if err != nil {
				utils.RespondError(w, http.StatusInternalServerError, "session unavailable")
				return
			}
			if id != "" {
				next.ServeHTTP(w, r.WithContext(WithSessionID(ctx, id)))
				return
			}

			session, err := chatSvc.CreateSession(ctx)
			if err != nil {
				log.Printf("[session] create failed: %v", err)
				utils.RespondError(w, http.StatusInternalServerError, "session unavailable")
				return
			}

			http.SetCookie(w, &http.Cookie{
				Name:     cookieName,
				Value:    session.ID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			log.Printf("[session] created session=%s", session.ID)
			next.ServeHTTP(w, r.WithContext(WithSessionID(ctx, session.ID)))
		})
	}
}

// OptionalSession binds the session named by a valid cookie but never
// creates one. Requests without a live session reach next with an empty
// SessionID, and a stale cookie is cleared.
func OptionalSession(chatSvc *chatService.Service, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := lookupSession(r, chatSvc, cookieName)
			if err != nil {
				utils.RespondError(w, http.StatusInternalServerError, "session unavailable")
				return
			}
			if id == "" {
				if _, err := r.Cookie(cookieName); err == nil {
					http.SetCookie(w, &http.Cookie{Name: cookieName, Path: "/", MaxAge: -1, HttpOnly: true})
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), id)))
		})
	}
}

// lookupSession returns the live session named by the cookie, or "" when
// the cookie is missing or the session is gone.
func lookupSession(r *http.Request, chatSvc *chatService.Service, cookieName string) (string, error) {
	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return "", nil
	}

	_, err = chatSvc.GetSession(r.Context(), cookie.Value)
	switch {
	case err == nil:
		return cookie.Value, nil
	case errors.Is(err, chatService.ErrSessionNotFound):
		return "", nil
	default:
		log.Printf("[session] lookup failed: %v", err)
		return "", err
	}
}
