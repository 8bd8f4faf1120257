package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/admission-portal/internal/nav"
)

const ctxMailbox = "nav_mailbox"

// Navigate gives each request its own navigation mailbox, carried in the
// request context, and turns a navigation recorded there into a 303 to the
// target screen.  Handlers that record one leave the response unwritten.
func Navigate() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            mb := &nav.Mailbox{}
            req := c.Request()
            c.SetRequest(req.WithContext(nav.WithMailbox(req.Context(), mb)))
            c.Set(ctxMailbox, mb)

            err := next(c)
            to, ok := mb.Take()
            if !ok || c.Response().Committed {
                return err
            }
            if err != nil {
                c.Logger().Debugf("[navigate] %s %s: %v", req.Method, req.URL.Path, err)
            }
            return c.Redirect(http.StatusSeeOther, to)
        }
    }
}

// Redirect records a navigation for the current request.
func Redirect(c echo.Context, path string) {
    nav.Request{}.Navigate(c.Request().Context(), path)
}

// PendingNavigation returns the navigation recorded for the current
// request, or "".
func PendingNavigation(c echo.Context) string {
    if mb, ok := c.Get(ctxMailbox).(*nav.Mailbox); ok {
        return mb.Peek()
    }
    return ""
}
