// Package admission drives the admission form screen: creating a new
// application, resuming a draft, editing it and finalizing it.
package admission

import "errors"

// State is where the form screen currently stands.
type State int

const (
	StateEmpty        State = iota // nothing loaded yet
	StateEditingNew                // filling in a new application
	StateSubmitting                // create request in flight
	StateDraft                     // saved, read-only view, not yet final
	StateEditingDraft              // editing a saved draft
	StateFinalized                 // is_submit set; terminal
	StateNotFound                  // the user has no application
)

var stateNames = [...]string{
	StateEmpty:        "empty",
	StateEditingNew:   "editing-new",
	StateSubmitting:   "submitting",
	StateDraft:        "draft",
	StateEditingDraft: "editing-draft",
	StateFinalized:    "finalized",
	StateNotFound:     "not-found",
}

func (s State) String() string {
	if int(s) < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Editable reports whether field changes are accepted in s.
func (s State) Editable() bool { return s == StateEditingNew || s == StateEditingDraft }

var (
	// ErrTransition is returned when an action does not apply to the
	// current state.
	ErrTransition = errors.New("admission: action not allowed in current state")
	// ErrSubmitted is returned for any edit attempted on a finalized
	// application.
	ErrSubmitted = errors.New("admission: application already submitted")
	// ErrInvalid means local validation failed and nothing was sent.
	ErrInvalid = errors.New("admission: form has errors")
	// ErrBusy means another request for this form is still in flight.
	ErrBusy = errors.New("admission: request in progress")
	// ErrClosed means the screen was left before the response arrived; the
	// response was discarded.
	ErrClosed = errors.New("admission: screen closed")
	// ErrUnknownField is returned by SetField for names outside the form.
	ErrUnknownField = errors.New("admission: unknown field")
)

// Action is a user-triggered operation on the form screen.
type Action string

const (
	ActionBegin   Action = "begin"
	ActionCreate  Action = "create"
	ActionLoad    Action = "load"
	ActionEdit    Action = "edit"
	ActionSave    Action = "save"
	ActionCancel  Action = "cancel"
	ActionSubmit  Action = "submit"
	ActionProceed Action = "proceed"
)

// allowed maps each action to the states it may start from.
var allowed = map[Action][]State{
	ActionBegin:   {StateEmpty, StateNotFound},
	ActionCreate:  {StateEditingNew},
	ActionLoad:    {StateEmpty, StateDraft, StateFinalized, StateNotFound},
	ActionEdit:    {StateDraft},
	ActionSave:    {StateEditingDraft},
	ActionCancel:  {StateEditingDraft},
	ActionSubmit:  {StateDraft},
	ActionProceed: {StateFinalized},
}

// check returns nil when a may run from s.  Edits on a finalized form report
// ErrSubmitted rather than the generic transition error.
func check(s State, a Action) error {
	for _, ok := range allowed[a] {
		if s == ok {
			return nil
		}
	}
	if s == StateFinalized {
		switch a {
		case ActionEdit, ActionSave, ActionSubmit, ActionCancel:
			return ErrSubmitted
		}
	}
	return ErrTransition
}
