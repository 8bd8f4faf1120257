package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/admission-portal/internal/handler"
	"github.com/iliyamo/admission-portal/internal/middleware"
	"github.com/iliyamo/admission-portal/internal/workspace"
)

// Deps are the shared parts the portal routes are built from.  Cache and
// Limiter may be nil.
type Deps struct {
	Registry *workspace.Registry
	Session  middleware.SessionConfig
	Handler  *handler.PortalHandler
	Cache    echo.MiddlewareFunc
	Limiter  echo.MiddlewareFunc
}

// Routes is what route registration needs; *echo.Echo and *echo.Group
// both satisfy it.
type Routes interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// NewPortal builds the echo instance serving every portal screen.
func NewPortal(d Deps) *echo.Echo {
	if d.Cache == nil {
		d.Cache = passthrough
	}
	if d.Limiter == nil {
		d.Limiter = passthrough
	}
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())

	RegisterRoutes(e)

	// Screens run on the browser's workspace; the health check does not.
	screens := e.Group("", middleware.Session(d.Session, d.Registry), middleware.Navigate())
	RegisterBrowse(screens, d.Handler, d.Cache)
	RegisterAuth(screens, d.Handler, d.Limiter)
	RegisterApplication(screens, d.Handler)
	return e
}
