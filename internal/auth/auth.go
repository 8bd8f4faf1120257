// Package auth implements login, signup, logout and token refresh against
// the remote service, writing the result into the browser's session.
package auth

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/iliyamo/admission-portal/internal/admission"
	"github.com/iliyamo/admission-portal/internal/gateway"
	"github.com/iliyamo/admission-portal/internal/model"
	"github.com/iliyamo/admission-portal/internal/nav"
	"github.com/iliyamo/admission-portal/internal/session"
)

// Messages shown to the user.
const (
	MsgLoginFailed      = "Login failed"
	MsgSignupFailed     = "Signup failed"
	MsgPasswordMismatch = "Passwords don't match"
	MsgInvalidEmail     = "Please enter a valid email address"
	MsgNetwork          = "Network error. Please check your connection and try again."
)

// ErrNoRefreshToken is returned by Refresh when the session holds no
// refresh token.
var ErrNoRefreshToken = errors.New("auth: no refresh token in session")

// Error is a failure with a user-facing message.  Err is the underlying
// cause, nil for local validation failures.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

// Message extracts the user-facing text from err, or fallback.
func Message(err error, fallback string) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return fallback
}

// Remote is the remote auth API.  *repository.AuthRepo satisfies it.
type Remote interface {
	Login(ctx context.Context, creds model.Credentials) (model.TokenPair, error)
	Register(ctx context.Context, reg model.Registration) error
	Refresh(ctx context.Context, refresh string) (model.TokenPair, error)
}

// Tokens is the session handle the flow writes to.  *session.Store
// satisfies it.
type Tokens interface {
	SetPair(ctx context.Context, pair model.TokenPair) error
	Record(ctx context.Context) (session.Record, bool)
	Clear(ctx context.Context) error
}

// Flow runs the authentication screens of one browser session.
type Flow struct {
	remote Remote
	tokens Tokens
	nav    nav.Navigator
}

func New(remote Remote, tokens Tokens, n nav.Navigator) *Flow {
	return &Flow{remote: remote, tokens: tokens, nav: n}
}

// Login exchanges credentials for a token and stores it.  On success it
// navigates to the subcategories of pendingCategory when one was captured
// (non-zero), otherwise to the category list.  A failed login leaves any
// existing session untouched.
func (f *Flow) Login(ctx context.Context, creds model.Credentials, pendingCategory int64) error {
	pair, err := f.remote.Login(ctx, creds)
	if err != nil {
		return &Error{Message: loginMessage(err), Err: err}
	}
	if pair.Access == "" {
		return &Error{Message: MsgLoginFailed}
	}
	if err := f.tokens.SetPair(ctx, pair); err != nil {
		log.Printf("[auth] store token for %s: %v", creds.Username, err)
		return &Error{Message: MsgLoginFailed, Err: err}
	}
	log.Printf("[auth] login ok user=%s", pair.Username)
	if pendingCategory > 0 {
		f.nav.Navigate(ctx, nav.Subcategories(pendingCategory))
	} else {
		f.nav.Navigate(ctx, nav.Categories)
	}
	return nil
}

// Signup validates the form locally, then registers the account.  Success
// navigates to the login screen; it does not authenticate.
func (f *Flow) Signup(ctx context.Context, reg model.Registration, confirm string) error {
	if reg.Password != confirm {
		return &Error{Message: MsgPasswordMismatch}
	}
	if !admission.ValidEmail(reg.Email) {
		return &Error{Message: MsgInvalidEmail}
	}
	if err := f.remote.Register(ctx, reg); err != nil {
		return &Error{Message: signupMessage(err), Err: err}
	}
	log.Printf("[auth] registered user=%s", reg.Username)
	f.nav.Navigate(ctx, nav.Login)
	return nil
}

// Logout clears the session and returns to the category list.
func (f *Flow) Logout(ctx context.Context) error {
	if err := f.tokens.Clear(ctx); err != nil {
		return err
	}
	f.nav.Navigate(ctx, nav.Categories)
	return nil
}

// Refresh replaces the access token using the stored refresh token.
func (f *Flow) Refresh(ctx context.Context) error {
	rec, ok := f.tokens.Record(ctx)
	if !ok || rec.Refresh == "" {
		return ErrNoRefreshToken
	}
	pair, err := f.remote.Refresh(ctx, rec.Refresh)
	if err != nil {
		return err
	}
	if pair.Access == "" {
		return ErrNoRefreshToken
	}
	return f.tokens.SetPair(ctx, pair)
}

func loginMessage(err error) string {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		if len(apiErr.NonField) > 0 {
			return strings.Join(apiErr.NonField, " ")
		}
		return MsgLoginFailed
	}
	if errors.Is(err, gateway.ErrNetwork) {
		return MsgNetwork
	}
	return MsgLoginFailed
}

// signupMessage picks the first server message in priority order email,
// username, password, then any general error.
func signupMessage(err error) string {
	var apiErr *gateway.APIError
	if !errors.As(err, &apiErr) {
		if errors.Is(err, gateway.ErrNetwork) {
			return MsgNetwork
		}
		return MsgSignupFailed
	}
	for _, field := range []string{"email", "username", "password"} {
		if msg := apiErr.First(field); msg != "" {
			return msg
		}
	}
	if apiErr.Detail != "" {
		return apiErr.Detail
	}
	return MsgSignupFailed
}
