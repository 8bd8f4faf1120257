package admission

import (
	"context"
	"errors"
	"fmt"
	"log"
	"maps"
	"sort"
	"strings"
	"sync"

	"github.com/iliyamo/admission-portal/internal/gateway"
	"github.com/iliyamo/admission-portal/internal/model"
	"github.com/iliyamo/admission-portal/internal/nav"
)

// NetworkErrorMessage is shown when a request failed without a readable
// error payload.
const NetworkErrorMessage = "Network error. Please check your connection and try again."

// LoadErrorMessage is shown when the user's application could not be fetched.
const LoadErrorMessage = "Failed to fetch application"

// Applications is the remote storage the controller talks to.
// *repository.ApplicationRepo satisfies it.
type Applications interface {
	Create(ctx context.Context, in model.NewApplication) (model.Application, error)
	Mine(ctx context.Context) ([]model.Application, error)
	Update(ctx context.Context, id int64, fields model.TextFields) (model.Application, error)
	Patch(ctx context.Context, id int64, changes map[string]any) (model.Application, error)
}

// Controller holds the form state for one subcategory on one screen.  All
// methods are safe for concurrent use.  Requests run without the lock held;
// a response that arrives after Close, or after a newer request started, is
// dropped and the call returns ErrClosed.
type Controller struct {
	mu            sync.Mutex
	apps          Applications
	nav           nav.Navigator
	subcategoryID int64

	state     State
	fields    model.TextFields
	photo     *model.Attachment
	signature *model.Attachment
	record    *model.Application
	errs      FieldErrors
	formErr   string
	busy      bool
	closed    bool
	gen       uint64
}

// New returns a controller in StateEmpty for subcategoryID.
func New(apps Applications, n nav.Navigator, subcategoryID int64) *Controller {
	return &Controller{apps: apps, nav: n, subcategoryID: subcategoryID, errs: FieldErrors{}}
}

func (c *Controller) SubcategoryID() int64 { return c.subcategoryID }

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Fields returns the values currently shown in the form.
func (c *Controller) Fields() model.TextFields {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fields
}

// Record returns the last application returned by the remote service.
func (c *Controller) Record() (model.Application, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.record == nil {
		return model.Application{}, false
	}
	return *c.record, true
}

// Errors returns a copy of the per-field messages.
func (c *Controller) Errors() FieldErrors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.errs)
}

// FormError returns the form-level message, if any.
func (c *Controller) FormError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.formErr
}

// HasAttachment reports whether a photo or signature has been accepted.
func (c *Controller) HasAttachment(field string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if field == model.FieldSignature {
		return c.signature != nil
	}
	return c.photo != nil
}

// CanEdit reports whether the edit control should be offered.
func (c *Controller) CanEdit() bool { return c.State() == StateDraft }

// CanSubmit reports whether the final submit control should be offered.
func (c *Controller) CanSubmit() bool { return c.State() == StateDraft }

// CanProceed reports whether the proceed-to-payment control should be offered.
func (c *Controller) CanProceed() bool { return c.State() == StateFinalized }

// Close marks the screen as left.  Responses still in flight are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.gen++
	c.mu.Unlock()
}

// Begin starts a new, empty application form.
func (c *Controller) Begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := check(c.state, ActionBegin); err != nil {
		return err
	}
	c.state = StateEditingNew
	c.fields = model.TextFields{}
	c.photo, c.signature, c.record = nil, nil, nil
	c.errs = FieldErrors{}
	c.formErr = ""
	return nil
}

// SetField changes one text field and clears its error.
func (c *Controller) SetField(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.Editable() {
		if c.state == StateFinalized {
			return ErrSubmitted
		}
		return ErrTransition
	}
	if !c.fields.Set(name, value) {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	delete(c.errs, name)
	return nil
}

// Attach accepts a photo or signature for a new application.  The file is
// checked immediately; a rejected file leaves any earlier one in place and
// returns ErrInvalid with the message recorded under field.
func (c *Controller) Attach(field string, a model.Attachment) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateEditingNew {
		if c.state == StateFinalized {
			return ErrSubmitted
		}
		return ErrTransition
	}
	if field != model.FieldPhoto && field != model.FieldSignature {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	if msg := ValidateAttachment(field, &a); msg != "" {
		c.errs[field] = msg
		return ErrInvalid
	}
	a.ContentType = SniffImageType(a.Data)
	if field == model.FieldPhoto {
		c.photo = &a
	} else {
		c.signature = &a
	}
	delete(c.errs, field)
	return nil
}

// Validate runs the create-form checks and records the result.
func (c *Controller) Validate() FieldErrors {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = Validate(c.fields, c.photo, c.signature)
	return maps.Clone(c.errs)
}

// Create validates the new form and, if clean, uploads it.  Invalid input
// never reaches the network.
func (c *Controller) Create(ctx context.Context) error {
	c.mu.Lock()
	if err := check(c.state, ActionCreate); err != nil {
		c.mu.Unlock()
		return err
	}
	c.formErr = ""
	if errs := Validate(c.fields, c.photo, c.signature); len(errs) > 0 {
		c.errs = errs
		c.mu.Unlock()
		return ErrInvalid
	}
	c.errs = FieldErrors{}
	c.state = StateSubmitting
	in := model.NewApplication{
		SubcategoryID: c.subcategoryID,
		Fields:        c.fields,
		Photo:         c.photo,
		Signature:     c.signature,
	}
	g := c.begin()
	c.mu.Unlock()

	app, err := c.apps.Create(ctx, in)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.current(g) {
		return ErrClosed
	}
	c.busy = false
	if err != nil {
		c.state = StateEditingNew
		c.applyRemoteError(err)
		return err
	}
	log.Printf("[admission] created application id=%d subcategory=%d", app.ID, c.subcategoryID)
	c.photo, c.signature = nil, nil
	c.adopt(app)
	return nil
}

// Load fetches the user's application.  The first record returned is the
// one shown; an empty list moves to StateNotFound.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	if err := check(c.state, ActionLoad); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	g := c.begin()
	c.mu.Unlock()

	list, err := c.apps.Mine(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.current(g) {
		return ErrClosed
	}
	c.busy = false
	if err != nil {
		c.formErr = LoadErrorMessage
		return err
	}
	c.formErr = ""
	if len(list) == 0 {
		c.state = StateNotFound
		c.record = nil
		c.fields = model.TextFields{}
		return nil
	}
	c.adopt(list[0])
	return nil
}

// Edit switches a draft into editing.
func (c *Controller) Edit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.guardRecord(ActionEdit); err != nil {
		return err
	}
	c.state = StateEditingDraft
	return nil
}

// Cancel abandons draft edits and restores the saved values.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := check(c.state, ActionCancel); err != nil {
		return err
	}
	if c.record != nil {
		c.fields = c.record.TextFields
	}
	c.errs = FieldErrors{}
	c.formErr = ""
	c.state = StateDraft
	return nil
}

// Save writes the edited text fields back.  Attachments are never resent.
func (c *Controller) Save(ctx context.Context) error {
	c.mu.Lock()
	if err := c.guardRecord(ActionSave); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	id, fields := c.record.ID, c.fields
	c.formErr = ""
	g := c.begin()
	c.mu.Unlock()

	app, err := c.apps.Update(ctx, id, fields)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.current(g) {
		return ErrClosed
	}
	c.busy = false
	if err != nil {
		c.applyRemoteError(err)
		return err
	}
	c.adopt(c.merge(app))
	return nil
}

// Submit finalizes a draft and moves on to the payment step for the same
// subcategory.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if err := c.guardRecord(ActionSubmit); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	id := c.record.ID
	c.formErr = ""
	g := c.begin()
	c.mu.Unlock()

	app, err := c.apps.Patch(ctx, id, map[string]any{"is_submit": true, "is_active": true})

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.current(g) {
		return ErrClosed
	}
	c.busy = false
	if err != nil {
		c.applyRemoteError(err)
		return err
	}
	app = c.merge(app)
	app.IsSubmit, app.IsActive = true, true
	c.adopt(app)
	log.Printf("[admission] submitted application id=%d", id)
	c.nav.Navigate(ctx, nav.Payment(c.paymentSubcategory()))
	return nil
}

// ProceedToPayment navigates to the payment step of a finalized application.
func (c *Controller) ProceedToPayment(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := check(c.state, ActionProceed); err != nil {
		return err
	}
	c.nav.Navigate(ctx, nav.Payment(c.paymentSubcategory()))
	return nil
}

func (c *Controller) guardRecord(a Action) error {
	if err := check(c.state, a); err != nil {
		return err
	}
	if c.record == nil {
		return ErrTransition
	}
	if c.record.IsSubmit {
		return ErrSubmitted
	}
	return nil
}

// begin marks a request in flight and returns its generation.
func (c *Controller) begin() uint64 {
	c.busy = true
	c.gen++
	return c.gen
}

func (c *Controller) current(g uint64) bool {
	return !c.closed && c.gen == g
}

// merge fills a sparse update response from the last known record.
func (c *Controller) merge(app model.Application) model.Application {
	if c.record == nil {
		return app
	}
	if app.ID == 0 {
		prev := *c.record
		prev.TextFields = c.fields
		prev.IsSubmit = prev.IsSubmit || app.IsSubmit
		return prev
	}
	if app.TextFields == (model.TextFields{}) {
		app.TextFields = c.fields
	}
	if app.Photo == "" {
		app.Photo = c.record.Photo
	}
	if app.Signature == "" {
		app.Signature = c.record.Signature
	}
	if app.SubcategoryID == 0 {
		app.SubcategoryID = c.record.SubcategoryID
	}
	return app
}

func (c *Controller) adopt(app model.Application) {
	c.record = &app
	c.fields = app.TextFields
	c.errs = FieldErrors{}
	if app.IsSubmit {
		c.state = StateFinalized
	} else {
		c.state = StateDraft
	}
}

func (c *Controller) paymentSubcategory() int64 {
	if c.record != nil && c.record.SubcategoryID != 0 {
		return c.record.SubcategoryID
	}
	return c.subcategoryID
}

// applyRemoteError turns a failed request into form messages.
// non_field_errors become the form-level message; other keys are merged into
// the per-field messages.  Anything without a readable payload is reported as
// a network error.
func (c *Controller) applyRemoteError(err error) {
	var apiErr *gateway.APIError
	if !errors.As(err, &apiErr) || !apiErr.Structured() {
		c.formErr = NetworkErrorMessage
		return
	}
	if len(apiErr.NonField) > 0 {
		c.formErr = strings.Join(apiErr.NonField, " ")
	} else if apiErr.Detail != "" {
		c.formErr = apiErr.Detail
	}
	keys := make([]string, 0, len(apiErr.Fields))
	for k := range apiErr.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c.errs[k] = strings.Join(apiErr.Fields[k], ", ")
	}
}
