// Package workspace keeps the screen state of each browser session between
// requests: its session handle, gateway client and the form controllers
// and payment steps it has open.  Navigations are not kept here; they
// belong to the request that caused them.
package workspace

import (
	"sync"
	"time"

	"github.com/iliyamo/admission-portal/internal/admission"
	"github.com/iliyamo/admission-portal/internal/admitcard"
	"github.com/iliyamo/admission-portal/internal/auth"
	"github.com/iliyamo/admission-portal/internal/browse"
	"github.com/iliyamo/admission-portal/internal/gateway"
	"github.com/iliyamo/admission-portal/internal/nav"
	"github.com/iliyamo/admission-portal/internal/payment"
	"github.com/iliyamo/admission-portal/internal/repository"
	"github.com/iliyamo/admission-portal/internal/session"
)

// Screen distinguishes the two form screens of a subcategory.
type Screen string

const (
	ScreenApply     Screen = "apply"
	ScreenSubmitted Screen = "submitted"
)

type formKey struct {
	screen Screen
	sub    int64
}

// Workspace is the state of one browser session.
type Workspace struct {
	Store  *session.Store
	Client *gateway.Client

	Categories   *repository.CategoryRepo
	Applications *repository.ApplicationRepo
	Auth         *auth.Flow
	Browse       *browse.Browser
	AdmitCards   *admitcard.Viewer

	mu       sync.Mutex
	forms    map[formKey]*admission.Controller
	payments map[int64]*payment.Step
	lastSeen time.Time
}

func newWorkspace(t *gateway.Transport, store *session.Store) *Workspace {
	var n nav.Request
	client := t.ForSession(store, n)
	w := &Workspace{
		Store:        store,
		Client:       client,
		Categories:   repository.NewCategoryRepo(client),
		Applications: repository.NewApplicationRepo(client),
		forms:        map[formKey]*admission.Controller{},
		payments:     map[int64]*payment.Step{},
	}
	// Credential endpoints go out without the session interceptors: a
	// rejected login is a wrong password, not an expired session.
	w.Auth = auth.New(repository.NewAuthRepo(t.Client()), store, n)
	w.Browse = browse.New(w.Categories, store, n)
	w.AdmitCards = admitcard.NewViewer(repository.NewAdmitCardRepo(client), repository.NewSeatPlanRepo(client), store)
	return w
}

// OpenForm starts a fresh controller for a screen, closing the one it
// replaces so that its late responses are dropped.
func (w *Workspace) OpenForm(screen Screen, sub int64) *admission.Controller {
	c := admission.New(w.Applications, nav.Request{}, sub)
	w.mu.Lock()
	old := w.forms[formKey{screen, sub}]
	w.forms[formKey{screen, sub}] = c
	w.mu.Unlock()
	if old != nil {
		old.Close()
	}
	return c
}

// Form returns the open controller for a screen, if any.
func (w *Workspace) Form(screen Screen, sub int64) (*admission.Controller, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.forms[formKey{screen, sub}]
	return c, ok
}

// OpenPayment starts a fresh payment step for a subcategory.
func (w *Workspace) OpenPayment(sub int64) *payment.Step {
	s := payment.New(w.Categories, nav.Request{}, sub)
	w.mu.Lock()
	w.payments[sub] = s
	w.mu.Unlock()
	return s
}

// Payment returns the payment step for a subcategory, opening one when none
// exists.
func (w *Workspace) Payment(sub int64) *payment.Step {
	w.mu.Lock()
	s, ok := w.payments[sub]
	w.mu.Unlock()
	if ok {
		return s
	}
	return w.OpenPayment(sub)
}

// Close closes every open form.
func (w *Workspace) Close() {
	w.mu.Lock()
	forms := w.forms
	w.forms = map[formKey]*admission.Controller{}
	w.payments = map[int64]*payment.Step{}
	w.mu.Unlock()
	for _, c := range forms {
		c.Close()
	}
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

func (w *Workspace) idleSince() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen
}
