package router // package router defines how HTTP routes are registered for the portal

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/admission-portal/internal/handler"    // screen handlers
	"github.com/iliyamo/admission-portal/internal/middleware" // session guard
	"github.com/iliyamo/admission-portal/internal/nav"        // screen paths for redirects
)

// RegisterRoutes registers routes that need neither a session nor the
// remote service.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers login, signup, logout and token refresh.  limiter
// throttles credential submissions; pass a no-op middleware to disable it.
func RegisterAuth(e Routes, h *handler.PortalHandler, limiter echo.MiddlewareFunc) {
	e.GET("/login", h.LoginPage)
	e.POST("/login", h.Login, limiter)
	e.POST("/signup", h.Signup, limiter)
	e.POST("/logout", h.Logout)
	e.POST("/token/refresh", h.RefreshToken)
}

// RegisterBrowse registers the category screens.  cache stores the listing
// responses; the subcategory list sits behind the session guard so a cached
// entry is never served to an anonymous browser.
func RegisterBrowse(e Routes, h *handler.PortalHandler, cache echo.MiddlewareFunc) {
	e.GET("/", h.Home)
	e.GET("/categories", h.Categories, cache)
	e.GET("/categories/:id/view", h.ViewCategory)
	e.GET("/subcategories/:postId", h.Subcategories, requireLogin(), cache)
}

// requireLogin sends anonymous browsers to the login screen, keeping the
// category of a subcategory list as the deep link.
func requireLogin() echo.MiddlewareFunc {
	return middleware.RequireSession(func(c echo.Context) string {
		if id, ok := parseID(c.Param("postId")); ok {
			return nav.LoginFor(id)
		}
		return nav.Login
	})
}
