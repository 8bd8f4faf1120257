package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/admission-portal/internal/admission"
	"github.com/iliyamo/admission-portal/internal/gateway"
	"github.com/iliyamo/admission-portal/internal/model"
	"github.com/iliyamo/admission-portal/internal/nav"
	"github.com/iliyamo/admission-portal/internal/session"
)

type fakeRemote struct {
	pair       model.TokenPair
	loginErr   error
	regErr     error
	registered []model.Registration
	refreshed  []string
}

func (f *fakeRemote) Login(ctx context.Context, creds model.Credentials) (model.TokenPair, error) {
	return f.pair, f.loginErr
}

func (f *fakeRemote) Register(ctx context.Context, reg model.Registration) error {
	f.registered = append(f.registered, reg)
	return f.regErr
}

func (f *fakeRemote) Refresh(ctx context.Context, refresh string) (model.TokenPair, error) {
	f.refreshed = append(f.refreshed, refresh)
	return model.TokenPair{Access: "access-2"}, nil
}

func newFlow(r *fakeRemote) (*Flow, *session.Store, *nav.Mailbox) {
	store := session.NewStore(session.NewMemoryBackend(), "sid", time.Hour)
	mb := &nav.Mailbox{}
	return New(r, store, mb), store, mb
}

func TestLoginNavigatesToPendingCategory(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		pending int64
		want    string
	}{
		{3, "/subcategories/3"},
		{0, "/categories"},
	}
	for _, tc := range cases {
		f, store, mb := newFlow(&fakeRemote{pair: model.TokenPair{Access: "tok", Refresh: "ref", Username: "rahim"}})
		if err := f.Login(ctx, model.Credentials{Username: "rahim", Password: "pw"}, tc.pending); err != nil {
			t.Fatalf("login: %v", err)
		}
		if got := store.Get(ctx); got != "tok" {
			t.Fatalf("token = %q", got)
		}
		if to, _ := mb.Take(); to != tc.want {
			t.Fatalf("pending %d: navigate %q, want %q", tc.pending, to, tc.want)
		}
	}
}

func TestLoginFailureMessages(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"detail", &gateway.APIError{Status: 401, Detail: "No active account found with the given credentials"}, "No active account found with the given credentials"},
		{"non field", &gateway.APIError{Status: 400, NonField: []string{"Bad", "input."}}, "Bad input."},
		{"bare status", &gateway.APIError{Status: 500}, MsgLoginFailed},
		{"network", gateway.ErrNetwork, MsgNetwork},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, store, mb := newFlow(&fakeRemote{loginErr: tc.err})
			_ = store.Set(context.Background(), "existing")
			err := f.Login(context.Background(), model.Credentials{}, 0)
			if got := Message(err, ""); got != tc.want {
				t.Fatalf("message = %q, want %q", got, tc.want)
			}
			if !errors.Is(err, tc.err) {
				t.Fatalf("cause lost: %v", err)
			}
			if store.Get(context.Background()) != "existing" {
				t.Fatal("failed login cleared the session")
			}
			if mb.Peek() != "" {
				t.Fatal("failed login navigated")
			}
		})
	}
}

func TestSignupLocalValidation(t *testing.T) {
	r := &fakeRemote{}
	f, _, _ := newFlow(r)
	ctx := context.Background()

	err := f.Signup(ctx, model.Registration{Username: "a", Email: "a@b.co", Password: "x"}, "y")
	if Message(err, "") != MsgPasswordMismatch {
		t.Fatalf("got %v", err)
	}
	err = f.Signup(ctx, model.Registration{Username: "a", Email: "nope", Password: "x"}, "x")
	if Message(err, "") != MsgInvalidEmail {
		t.Fatalf("got %v", err)
	}
	if len(r.registered) != 0 {
		t.Fatal("invalid signup reached the remote")
	}
}

func TestSignupEmailMatchesApplicationForm(t *testing.T) {
	for _, email := range []string{"rahim@example.com", "a.b@c.co", "no-at-sign", "two@@example.com", "space @example.com", "user@host"} {
		r := &fakeRemote{}
		f, _, _ := newFlow(r)
		err := f.Signup(context.Background(), model.Registration{Username: "a", Email: email, Password: "x"}, "x")
		accepted := Message(err, "") != MsgInvalidEmail
		if accepted != admission.ValidEmail(email) {
			t.Fatalf("%q: signup accepted=%v, application form accepts=%v", email, accepted, admission.ValidEmail(email))
		}
	}
}

func TestSignupErrorPriority(t *testing.T) {
	r := &fakeRemote{regErr: &gateway.APIError{Status: 400, Fields: map[string][]string{
		"password": {"too short"},
		"username": {"taken"},
	}}}
	f, _, _ := newFlow(r)
	err := f.Signup(context.Background(), model.Registration{Username: "a", Email: "a@b.co", Password: "x"}, "x")
	if got := Message(err, ""); got != "taken" {
		t.Fatalf("message = %q", got)
	}

	r.regErr = &gateway.APIError{Status: 400, Detail: "Username already exists"}
	err = f.Signup(context.Background(), model.Registration{Username: "a", Email: "a@b.co", Password: "x"}, "x")
	if got := Message(err, ""); got != "Username already exists" {
		t.Fatalf("message = %q", got)
	}

	r.regErr = &gateway.APIError{Status: 500}
	err = f.Signup(context.Background(), model.Registration{Username: "a", Email: "a@b.co", Password: "x"}, "x")
	if got := Message(err, ""); got != MsgSignupFailed {
		t.Fatalf("message = %q", got)
	}
}

func TestSignupSuccessDoesNotAuthenticate(t *testing.T) {
	f, store, mb := newFlow(&fakeRemote{})
	if err := f.Signup(context.Background(), model.Registration{Username: "a", Email: "a@b.co", Password: "x"}, "x"); err != nil {
		t.Fatal(err)
	}
	if store.IsAuthenticated(context.Background()) {
		t.Fatal("signup authenticated the session")
	}
	if to, _ := mb.Take(); to != nav.Login {
		t.Fatalf("navigate = %q", to)
	}
}

func TestLogoutAndRefresh(t *testing.T) {
	r := &fakeRemote{}
	f, store, mb := newFlow(r)
	ctx := context.Background()

	if err := f.Refresh(ctx); !errors.Is(err, ErrNoRefreshToken) {
		t.Fatalf("refresh without token: %v", err)
	}
	_ = store.SetPair(ctx, model.TokenPair{Access: "access-1", Refresh: "ref-1", Username: "rahim"})
	if err := f.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	rec, _ := store.Record(ctx)
	if rec.Token != "access-2" || rec.Refresh != "ref-1" || rec.Username != "rahim" {
		t.Fatalf("record = %+v", rec)
	}
	if len(r.refreshed) != 1 || r.refreshed[0] != "ref-1" {
		t.Fatalf("refreshed = %v", r.refreshed)
	}

	if err := f.Logout(ctx); err != nil {
		t.Fatal(err)
	}
	if store.IsAuthenticated(ctx) {
		t.Fatal("logout kept token")
	}
	if to, _ := mb.Take(); to != nav.Categories {
		t.Fatalf("navigate = %q", to)
	}
}
