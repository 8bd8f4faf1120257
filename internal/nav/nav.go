// Package nav names the screens of the admission portal and carries pending
// navigations from the flows that decide them to the HTTP layer that
// performs them.
package nav

import (
	"context"
	"net/url"
	"strconv"
	"sync"
)

// Fixed screen paths.
const (
	Home       = "/"
	Login      = "/login"
	Signup     = "/signup"
	Categories = "/categories"
)

// Subcategories is the subcategory list of a category.
func Subcategories(categoryID int64) string {
	return "/subcategories/" + strconv.FormatInt(categoryID, 10)
}

// LoginFor is the login screen with a captured deep link: after a successful
// login the user lands on the subcategories of categoryID.
func LoginFor(categoryID int64) string {
	return Login + "?" + url.Values{"categoryId": {strconv.FormatInt(categoryID, 10)}}.Encode()
}

// Apply is the new application form for a subcategory.
func Apply(subcategoryID int64) string { return "/apply/" + strconv.FormatInt(subcategoryID, 10) }

// Submitted is the saved application view for a subcategory.
func Submitted(subcategoryID int64) string {
	return "/submitted/" + strconv.FormatInt(subcategoryID, 10)
}

// Payment is the payment step for a subcategory.
func Payment(subcategoryID int64) string { return "/payment/" + strconv.FormatInt(subcategoryID, 10) }

// AdmitCard is the admit card document for a subcategory.
func AdmitCard(subcategoryID int64) string {
	return "/admit-card/" + strconv.FormatInt(subcategoryID, 10)
}

// Navigator moves the user to another screen.  ctx is the context of the
// request the navigation answers.
type Navigator interface {
	Navigate(ctx context.Context, path string)
}

// Mailbox is a Navigator that remembers the last requested path until the
// HTTP layer takes it.  It is safe for concurrent use.
type Mailbox struct {
	mu     sync.Mutex
	target string
}

// Navigate records path as the pending navigation, replacing any earlier one.
func (m *Mailbox) Navigate(_ context.Context, path string) {
	m.mu.Lock()
	m.target = path
	m.mu.Unlock()
}

// Take returns the pending navigation and clears it.
func (m *Mailbox) Take() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.target
	m.target = ""
	return t, t != ""
}

// Peek returns the pending navigation without clearing it.
func (m *Mailbox) Peek() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.target
}

type mailboxKey struct{}

// WithMailbox returns a context whose navigations land in m.
func WithMailbox(ctx context.Context, m *Mailbox) context.Context {
	return context.WithValue(ctx, mailboxKey{}, m)
}

// MailboxFrom returns the mailbox carried by ctx, or nil.
func MailboxFrom(ctx context.Context) *Mailbox {
	m, _ := ctx.Value(mailboxKey{}).(*Mailbox)
	return m
}

// Request is a Navigator that records into the mailbox of the request
// carried by ctx.  Each request answers only its own navigations, however
// many requests of one browser are in flight.  Without a mailbox the
// navigation is dropped.
type Request struct{}

func (Request) Navigate(ctx context.Context, path string) {
	if m := MailboxFrom(ctx); m != nil {
		m.Navigate(ctx, path)
	}
}
