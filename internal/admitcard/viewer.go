// Package admitcard loads an issued admit card with its seat plan and renders
// it as a printable document.
package admitcard

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/iliyamo/admission-portal/internal/model"
)

// Messages shown in place of the card.
const (
	MsgUnauthorized = "Unauthorized or invalid subcategory."
	MsgNotFound     = "Admit card not found or unauthorized."
)

var (
	ErrUnauthorized = errors.New("admitcard: no session or invalid subcategory")
	ErrNotFound     = errors.New("admitcard: not found or unauthorized")
)

// Message returns the text to show for an error returned by Load.
func Message(err error) string {
	if errors.Is(err, ErrUnauthorized) {
		return MsgUnauthorized
	}
	return MsgNotFound
}

// Cards fetches admit cards.  *repository.AdmitCardRepo satisfies it.
type Cards interface {
	Get(ctx context.Context, subcategoryID int64) (model.AdmitCard, error)
}

// SeatPlans looks up seat plans.  *repository.SeatPlanRepo satisfies it.
type SeatPlans interface {
	ByRoll(ctx context.Context, roll string) ([]model.SeatPlan, error)
}

// Session reports whether the browser holds a token.
type Session interface {
	IsAuthenticated(ctx context.Context) bool
}

// View is a loaded card.  Seat is nil when no seat plan matched.
type View struct {
	SubcategoryID int64
	Card          model.AdmitCard
	Seat          *model.SeatPlan
}

type Viewer struct {
	cards   Cards
	seats   SeatPlans
	session Session
}

func NewViewer(cards Cards, seats SeatPlans, s Session) *Viewer {
	return &Viewer{cards: cards, seats: seats, session: s}
}

// Load fetches the card for a subcategory and, when a roll number has been
// assigned, the first seat plan for that roll.  Without a session token it
// fails with ErrUnauthorized and makes no request.
func (v *Viewer) Load(ctx context.Context, subcategoryID int64) (View, error) {
	if subcategoryID <= 0 || !v.session.IsAuthenticated(ctx) {
		return View{}, ErrUnauthorized
	}
	card, err := v.cards.Get(ctx, subcategoryID)
	if err != nil {
		log.Printf("[admitcard] fetch subcategory=%d: %v", subcategoryID, err)
		return View{}, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	view := View{SubcategoryID: subcategoryID, Card: card}
	if card.RollNumber == "" {
		return view, nil
	}
	plans, err := v.seats.ByRoll(ctx, card.RollNumber)
	if err != nil {
		log.Printf("[admitcard] seat plan roll=%s: %v", card.RollNumber, err)
		return View{}, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if len(plans) > 0 {
		seat := plans[0]
		view.Seat = &seat
	}
	return view, nil
}
