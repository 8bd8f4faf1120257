package gateway

import (
	"context"
	"log"
	"net/http"

	"github.com/iliyamo/admission-portal/internal/nav"
)

// TokenSource is the part of the session store the gateway depends on.
type TokenSource interface {
	Get(ctx context.Context) string
	Clear(ctx context.Context) error
}

// BearerAuth attaches the session token, when there is one, as a bearer
// credential.  Without a token the request goes out unauthenticated.
type BearerAuth struct{ Tokens TokenSource }

func (b BearerAuth) Before(req *http.Request) error {
	if tok := b.Tokens.Get(req.Context()); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return nil
}

func (BearerAuth) After(*http.Request, *http.Response) error { return nil }

// SessionExpiry is the one place authentication failures are handled: any
// 401 clears the session and sends the user to the login screen, whatever
// call triggered it.  The failure still propagates to the caller.
type SessionExpiry struct {
	Tokens TokenSource
	Nav    nav.Navigator
}

func (SessionExpiry) Before(*http.Request) error { return nil }

func (s SessionExpiry) After(req *http.Request, resp *http.Response) error {
	if resp.StatusCode != http.StatusUnauthorized {
		return nil
	}
	if err := s.Tokens.Clear(context.WithoutCancel(req.Context())); err != nil {
		log.Printf("[gateway] clear session after 401 failed: %v", err)
	}
	s.Nav.Navigate(req.Context(), nav.Login)
	return nil
}

// ForSession builds the standard client for one browser session.
func (t *Transport) ForSession(tokens TokenSource, n nav.Navigator) *Client {
	return t.Client(BearerAuth{Tokens: tokens}, SessionExpiry{Tokens: tokens, Nav: n})
}
