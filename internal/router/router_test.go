package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/iliyamo/admission-portal/internal/admitcard"
	"github.com/iliyamo/admission-portal/internal/config"
	"github.com/iliyamo/admission-portal/internal/gateway"
	"github.com/iliyamo/admission-portal/internal/handler"
	"github.com/iliyamo/admission-portal/internal/middleware"
	"github.com/iliyamo/admission-portal/internal/portalstub"
	"github.com/iliyamo/admission-portal/internal/router"
	"github.com/iliyamo/admission-portal/internal/session"
	"github.com/iliyamo/admission-portal/internal/workspace"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")

type portal struct {
	t       *testing.T
	url     string
	client  *http.Client
	backend *session.MemoryBackend
}

func newPortal(t *testing.T) *portal {
	t.Helper()
	seed, err := portalstub.DefaultSeed()
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	stub, err := portalstub.New(config.StubConfig{JWTSecret: "e2e-secret", BcryptCost: 4}, seed)
	if err != nil {
		t.Fatalf("stub: %v", err)
	}
	remote := httptest.NewServer(stub.Handler())
	t.Cleanup(remote.Close)

	tr, err := gateway.NewTransport(gateway.Config{BaseURL: remote.URL + "/api", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("transport: %v", err)
	}
	backend := session.NewMemoryBackend()
	reg := workspace.NewRegistry(tr, backend, time.Hour, time.Hour)
	e := router.NewPortal(router.Deps{
		Registry: reg,
		Session:  middleware.SessionConfig{CookieName: "portal_session", TTL: time.Hour},
		Handler:  handler.NewPortalHandler(nil, admitcard.Renderer{MediaBase: remote.URL}),
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	jar, _ := cookiejar.New(nil)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &portal{t: t, url: srv.URL, client: client, backend: backend}
}

func (p *portal) do(req *http.Request) (*http.Response, []byte) {
	p.t.Helper()
	resp, err := p.client.Do(req)
	if err != nil {
		p.t.Fatalf("%s %s: %v", req.Method, req.URL, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, body
}

func (p *portal) get(path string) (*http.Response, []byte) {
	req, _ := http.NewRequest(http.MethodGet, p.url+path, nil)
	return p.do(req)
}

func (p *portal) postForm(path string, form url.Values) (*http.Response, []byte) {
	req, _ := http.NewRequest(http.MethodPost, p.url+path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return p.do(req)
}

func (p *portal) postMultipart(path string, fields map[string]string, files bool) (*http.Response, []byte) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	if files {
		for _, name := range []string{"photo", "signature"} {
			h := textproto.MIMEHeader{}
			h.Set("Content-Disposition", `form-data; name="`+name+`"; filename="`+name+`.png"`)
			h.Set("Content-Type", "image/png")
			part, _ := w.CreatePart(h)
			_, _ = part.Write(pngBytes)
		}
	}
	_ = w.Close()
	req, _ := http.NewRequest(http.MethodPost, p.url+path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return p.do(req)
}

func (p *portal) sessionID() string {
	u, _ := url.Parse(p.url)
	for _, ck := range p.client.Jar.Cookies(u) {
		if ck.Name == "portal_session" {
			return ck.Value
		}
	}
	return ""
}

func expectRedirect(t *testing.T, resp *http.Response, to string) {
	t.Helper()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303 to %s, got %d", to, resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != to {
		t.Fatalf("expected redirect to %s, got %s", to, loc)
	}
}

func decode(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
	return m
}

func applicantFields() map[string]string {
	return map[string]string{
		"student_name":      "Rahim Uddin",
		"dob":               "2014-03-02",
		"gender":            "Male",
		"student_class":     "6",
		"father_name":       "Karim Uddin",
		"mother_name":       "Amena Begum",
		"contact":           "01711111111",
		"email":             "rahim@example.com",
		"present_address":   "Mirpur, Dhaka",
		"permanent_address": "Sylhet",
	}
}

func login(p *portal, category string) *http.Response {
	path := "/login"
	if category != "" {
		path += "?categoryId=" + category
	}
	resp, _ := p.postForm(path, url.Values{"username": {"demo"}, "password": {"demo1234"}})
	return resp
}

func TestHealthHasNoSession(t *testing.T) {
	p := newPortal(t)
	resp, body := p.get("/healthz")
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Fatalf("unexpected health %d %q", resp.StatusCode, body)
	}
	if p.sessionID() != "" {
		t.Fatalf("health check must not issue a session cookie")
	}
}

func TestDeepLinkSurvivesLogin(t *testing.T) {
	p := newPortal(t)

	resp, body := p.get("/categories")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("categories: %d %s", resp.StatusCode, body)
	}
	if items := decode(t, body)["items"].([]any); len(items) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(items))
	}

	resp, _ = p.get("/categories/1/view")
	expectRedirect(t, resp, "/login?categoryId=1")
	resp, _ = p.get("/subcategories/1")
	expectRedirect(t, resp, "/login?categoryId=1")

	resp, body = p.postForm("/login", url.Values{"username": {"demo"}, "password": {"nope"}})
	if resp.StatusCode != http.StatusUnauthorized || !strings.Contains(string(body), "No active account") {
		t.Fatalf("expected login failure, got %d %s", resp.StatusCode, body)
	}

	expectRedirect(t, login(p, "1"), "/subcategories/1")
	resp, body = p.get("/subcategories/1")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"apply_url":"/apply/10"`) {
		t.Fatalf("unexpected subcategories %d %s", resp.StatusCode, body)
	}
}

func TestLoginWithoutCategoryGoesToList(t *testing.T) {
	p := newPortal(t)
	expectRedirect(t, login(p, ""), "/categories")
	resp, _ := p.postForm("/logout", nil)
	expectRedirect(t, resp, "/categories")
	resp, _ = p.get("/apply/10")
	expectRedirect(t, resp, "/login")
}

func TestFailedLoginKeepsSession(t *testing.T) {
	p := newPortal(t)
	expectRedirect(t, login(p, ""), "/categories")
	resp, _ := p.postForm("/login", url.Values{"username": {"demo"}, "password": {"wrong"}})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	resp, body := p.get("/subcategories/1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("session lost after failed login: %d %s", resp.StatusCode, body)
	}
}

func TestSignupMessages(t *testing.T) {
	p := newPortal(t)
	resp, body := p.postForm("/signup", url.Values{"username": {"x"}, "email": {"x@example.com"}, "password": {"abcd"}, "confirm_password": {"abce"}})
	if resp.StatusCode != http.StatusBadRequest || decode(t, body)["error"] != "Passwords don't match" {
		t.Fatalf("expected mismatch, got %d %s", resp.StatusCode, body)
	}
	resp, body = p.postForm("/signup", url.Values{"username": {"demo"}, "email": {"d2@example.com"}, "password": {"abcd"}, "confirm_password": {"abcd"}})
	if resp.StatusCode != http.StatusBadRequest || decode(t, body)["error"] != "Username already exists." {
		t.Fatalf("expected duplicate, got %d %s", resp.StatusCode, body)
	}
	resp, _ = p.postForm("/signup", url.Values{"username": {"newbie"}, "email": {"n@example.com"}, "password": {"abcd"}, "confirm_password": {"abcd"}})
	expectRedirect(t, resp, "/login")
}

func TestFullJourney(t *testing.T) {
	p := newPortal(t)
	expectRedirect(t, login(p, ""), "/categories")

	resp, body := p.get("/apply/10")
	if resp.StatusCode != http.StatusOK || decode(t, body)["state"] != "editing-new" {
		t.Fatalf("apply form: %d %s", resp.StatusCode, body)
	}

	bad := applicantFields()
	bad["contact"] = "123"
	resp, body = p.postMultipart("/apply/10", bad, false)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected local validation failure, got %d %s", resp.StatusCode, body)
	}
	errs := decode(t, body)["errors"].(map[string]any)
	if errs["contact"] == nil || errs["photo"] != "Photo is required" {
		t.Fatalf("unexpected errors %v", errs)
	}

	resp, body = p.postMultipart("/apply/10", applicantFields(), true)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: %d %s", resp.StatusCode, body)
	}
	if v := decode(t, body); v["state"] != "draft" || v["next"] != "/submitted/10" {
		t.Fatalf("unexpected create view %v", v)
	}

	resp, body = p.get("/submitted/10")
	if v := decode(t, body); resp.StatusCode != http.StatusOK || v["can_submit"] != true {
		t.Fatalf("resume: %d %v", resp.StatusCode, v)
	}
	resp, _ = p.postForm("/submitted/10/edit", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("edit: %d", resp.StatusCode)
	}
	resp, body = p.postForm("/submitted/10/save", url.Values{"reason": {"Near home"}})
	if v := decode(t, body); resp.StatusCode != http.StatusOK || v["state"] != "draft" || v["fields"].(map[string]any)["reason"] != "Near home" {
		t.Fatalf("save: %d %v", resp.StatusCode, v)
	}

	resp, _ = p.postForm("/submitted/10/submit", nil)
	expectRedirect(t, resp, "/payment/10")
	resp, body = p.postForm("/submitted/10/edit", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("edit after submit: %d %s", resp.StatusCode, body)
	}

	resp, body = p.get("/payment/10")
	sum := decode(t, body)["summary"].(map[string]any)
	if resp.StatusCode != http.StatusOK || sum["fee"] != "500.00" || sum["name"] != "Class Six" {
		t.Fatalf("payment: %d %v", resp.StatusCode, sum)
	}
	resp, _ = p.postForm("/payment/10/method", url.Values{"method": {"net-banking"}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("method: %d", resp.StatusCode)
	}
	resp, _ = p.postForm("/payment/10/confirm", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected confirm blocked without provider, got %d", resp.StatusCode)
	}
	resp, _ = p.postForm("/payment/10/mobile-banking", url.Values{"provider": {"bkash"}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("provider: %d", resp.StatusCode)
	}
	resp, _ = p.postForm("/payment/10/confirm", nil)
	expectRedirect(t, resp, "/admit-card/10")

	resp, body = p.get("/admit-card/10")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admit card: %d %s", resp.StatusCode, body)
	}
	html := string(body)
	for _, want := range []string{"R100", "Dhaka Residential Model College", "Room 201", "Rahim Uddin"} {
		if !strings.Contains(html, want) {
			t.Fatalf("admit card missing %q", want)
		}
	}
	resp, _ = p.get("/admit-card/10/export")
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "admit-card.html") {
		t.Fatalf("expected attachment disposition, got %q", cd)
	}
}

func TestExpiredTokenClearsSessionAndRedirects(t *testing.T) {
	p := newPortal(t)
	expectRedirect(t, login(p, ""), "/categories")
	id := p.sessionID()
	if id == "" {
		t.Fatalf("expected session cookie")
	}
	ctx := context.Background()
	if err := p.backend.Save(ctx, id, session.Record{Token: "revoked", ExpiresAt: time.Now().Add(time.Hour)}); err != nil {
		t.Fatalf("save: %v", err)
	}

	resp, _ := p.get("/submitted/10")
	expectRedirect(t, resp, "/login")
	if _, err := p.backend.Load(ctx, id); err == nil {
		t.Fatalf("expected session cleared after 401")
	}
}

func TestAdmitCardWithoutSession(t *testing.T) {
	p := newPortal(t)
	resp, body := p.get("/admit-card/10")
	if resp.StatusCode != http.StatusUnauthorized || decode(t, body)["error"] != admitcard.MsgUnauthorized {
		t.Fatalf("expected unauthorized message, got %d %s", resp.StatusCode, body)
	}
}
