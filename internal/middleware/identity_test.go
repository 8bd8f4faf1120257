package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/admission-portal/internal/gateway"
	"github.com/iliyamo/admission-portal/internal/nav"
	"github.com/iliyamo/admission-portal/internal/session"
	"github.com/iliyamo/admission-portal/internal/workspace"
)

func newEcho(t *testing.T) (*echo.Echo, *workspace.Registry) {
	t.Helper()
	tr, err := gateway.NewTransport(gateway.Config{BaseURL: "http://127.0.0.1:1/api", Timeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	reg := workspace.NewRegistry(tr, session.NewMemoryBackend(), time.Hour, time.Hour)
	e := echo.New()
	g := e.Group("", Session(SessionConfig{CookieName: "sid", TTL: time.Hour}, reg), Navigate())
	g.GET("/open", func(c echo.Context) error {
		return c.String(http.StatusOK, WorkspaceOf(c).Store.ID())
	})
	g.GET("/go", func(c echo.Context) error {
		Redirect(c, nav.Categories)
		return nil
	})
	g.GET("/private/:postId", func(c echo.Context) error {
		return c.String(http.StatusOK, "secret")
	}, RequireSession(func(c echo.Context) string { return nav.Login }))
	return e, reg
}

func serve(e *echo.Echo, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "sid" {
			return ck
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestSessionIssuesAndKeepsCookie(t *testing.T) {
	e, reg := newEcho(t)
	rec := serve(e, "/open")
	ck := sessionCookie(t, rec)
	if !ck.HttpOnly || ck.MaxAge != 3600 {
		t.Fatalf("unexpected cookie %+v", ck)
	}
	if _, err := uuid.Parse(ck.Value); err != nil {
		t.Fatalf("cookie is not a uuid: %q", ck.Value)
	}
	if rec.Body.String() != ck.Value {
		t.Fatalf("workspace bound to %q, cookie %q", rec.Body.String(), ck.Value)
	}

	again := serve(e, "/open", ck)
	if again.Body.String() != ck.Value {
		t.Fatalf("session not reused: %q", again.Body.String())
	}
	if reg.Len() != 1 {
		t.Fatalf("registry len = %d", reg.Len())
	}
}

func TestSessionReplacesForgedCookie(t *testing.T) {
	e, _ := newEcho(t)
	rec := serve(e, "/open", &http.Cookie{Name: "sid", Value: "../../etc"})
	ck := sessionCookie(t, rec)
	if ck.Value == "../../etc" {
		t.Fatal("forged id accepted")
	}
}

func TestNavigateWritesSeeOther(t *testing.T) {
	e, _ := newEcho(t)
	rec := serve(e, "/go")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != nav.Categories {
		t.Fatalf("got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestRequireSession(t *testing.T) {
	e, reg := newEcho(t)
	rec := serve(e, "/private/3")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != nav.Login {
		t.Fatalf("anonymous: got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	ck := sessionCookie(t, rec)
	if err := reg.Get(ck.Value).Store.Set(context.Background(), "opaque-token"); err != nil {
		t.Fatal(err)
	}
	rec = serve(e, "/private/3", ck)
	if rec.Code != http.StatusOK || rec.Body.String() != "secret" {
		t.Fatalf("authenticated: got %d %q", rec.Code, rec.Body.String())
	}
}

func TestSessionIDDefaultsToGuest(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if got := sessionID(c); got != "guest" {
		t.Fatalf("sessionID = %q", got)
	}
	if WorkspaceOf(c) != nil {
		t.Fatal("workspace without Session middleware")
	}
}

func TestOverlappingRequestsKeepTheirOwnNavigation(t *testing.T) {
	_, reg := newEcho(t)
	recorded := make(chan struct{})
	release := make(chan struct{})
	e := echo.New()
	g := e.Group("", Session(SessionConfig{CookieName: "sid", TTL: time.Hour}, reg), Navigate())
	g.GET("/stalled", func(c echo.Context) error {
		Redirect(c, nav.Login)
		close(recorded)
		<-release
		return nil
	})
	g.GET("/plain", func(c echo.Context) error {
		return c.String(http.StatusOK, "plain")
	})
	ck := sessionCookie(t, serve(e, "/plain"))

	stalled := make(chan *httptest.ResponseRecorder)
	go func() { stalled <- serve(e, "/stalled", ck) }()
	<-recorded

	if rec := serve(e, "/plain", ck); rec.Code != http.StatusOK || rec.Body.String() != "plain" {
		t.Fatalf("concurrent request took another request's navigation: %d %q", rec.Code, rec.Header().Get("Location"))
	}
	close(release)
	rec := <-stalled
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != nav.Login {
		t.Fatalf("stalled request lost its navigation: %d %q", rec.Code, rec.Header().Get("Location"))
	}
}
