package middleware

// identity.go binds each request to a browser session.  The session id is a
// random UUID kept in an HttpOnly cookie; the workspace registry maps it to
// the session's screen state.  Helpers here are shared with the rate limiter.

import (
    "net/http"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/admission-portal/internal/workspace"
)

const (
    ctxSessionID = "session_id"
    ctxWorkspace = "workspace"
)

// SessionConfig controls the session cookie.
type SessionConfig struct {
    CookieName string
    TTL        time.Duration
    Secure     bool
}

// Session reads or issues the session cookie and attaches the session's
// workspace to the context.
func Session(cfg SessionConfig, reg *workspace.Registry) echo.MiddlewareFunc {
    name := cfg.CookieName
    if name == "" {
        name = "portal_session"
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            id := ""
            if ck, err := c.Cookie(name); err == nil {
                if u, err := uuid.Parse(ck.Value); err == nil {
                    id = u.String()
                }
            }
            if id == "" {
                id = uuid.NewString()
            }
            // Refresh the cookie on every request so its lifetime slides.
            c.SetCookie(&http.Cookie{
                Name:     name,
                Value:    id,
                Path:     "/",
                MaxAge:   int(cfg.TTL / time.Second),
                HttpOnly: true,
                Secure:   cfg.Secure,
                SameSite: http.SameSiteLaxMode,
            })
            c.Set(ctxSessionID, id)
            c.Set(ctxWorkspace, reg.Get(id))
            return next(c)
        }
    }
}

// WorkspaceOf returns the workspace attached by Session, or nil.
func WorkspaceOf(c echo.Context) *workspace.Workspace {
    ws, _ := c.Get(ctxWorkspace).(*workspace.Workspace)
    return ws
}

// sessionID returns the session id of the request, or "guest" when the
// Session middleware has not run.
func sessionID(c echo.Context) string {
    if v, ok := c.Get(ctxSessionID).(string); ok && v != "" {
        return v
    }
    return "guest"
}
