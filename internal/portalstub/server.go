// Package portalstub is an in-memory stand-in for the remote admissions API.
// It implements the endpoints the portal calls, with the same payload and
// error shapes, so the portal can be run and tested without the real
// service.  Nothing is persisted and no payment is settled.
package portalstub

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/admission-portal/internal/config"
	"github.com/iliyamo/admission-portal/internal/middleware"
)

// Server bundles the stub state and its settings.
type Server struct {
	cfg config.StubConfig
	st  *store
}

// New builds a stub server from seed data.
func New(cfg config.StubConfig, seed Seed) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("portalstub: jwt secret required")
	}
	if cfg.AccessTTLMin <= 0 {
		cfg.AccessTTLMin = 15
	}
	if cfg.RefreshTTLDays <= 0 {
		cfg.RefreshTTLDays = 7
	}
	if cfg.BcryptCost <= 0 {
		cfg.BcryptCost = 10
	}
	st, err := newStore(seed, cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, st: st}, nil
}

// Register mounts the API under /api.  Uploaded files are also served from
// /media/ at the root, where the URLs in application records point.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/media/*", s.getMedia)

	api := e.Group("/api")
	api.POST("/register/", s.registerUser)
	api.POST("/login/", s.login)
	api.POST("/token/refresh/", s.refreshToken)

	api.GET("/posts/", s.listPosts)
	api.GET("/posts/:id/", s.getPost)
	api.GET("/posts/:id/subcategories/", s.listSubcategories)
	api.GET("/subcategories/:id/", s.getSubcategory)
	api.GET("/seatplans/", s.listSeatPlans)
	api.GET("/media/*", s.getMedia)

	authed := api.Group("", middleware.JWTAuth(s.cfg.JWTSecret))
	authed.POST("/apply/", s.apply)
	authed.GET("/my-applications/", s.myApplications)
	authed.PUT("/update-application/:id/", s.updateApplication)
	authed.PATCH("/update-application/:id/", s.updateApplication)
	authed.GET("/admit-card/:id/", s.admitCard)
}

// Handler returns a ready echo instance serving the stub.
func (s *Server) Handler() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = jsonErrorHandler
	s.Register(e)
	return e
}

// jsonErrorHandler renders echo errors (404, 405, bind failures) as
// {"detail": ...} like the real service.
func jsonErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		msg = fmt.Sprint(he.Message)
	}
	if code == http.StatusNotFound {
		msg = "Not found."
	}
	_ = c.JSON(code, echo.Map{"detail": msg})
}
