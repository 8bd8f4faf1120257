package middleware

import (
    "github.com/labstack/echo/v4"
)

// RequireSession sends anonymous browsers to the screen returned by to.
// It must run inside Session and Navigate, which writes the redirect.
func RequireSession(to func(c echo.Context) string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            ws := WorkspaceOf(c)
            if ws == nil {
                return next(c)
            }
            if !ws.Store.IsAuthenticated(c.Request().Context()) {
                Redirect(c, to(c))
                return nil
            }
            return next(c)
        }
    }
}
