// Package payment holds the payment method selection shown before the admit
// card.  No settlement happens here; confirming simply moves on.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"

	"github.com/iliyamo/admission-portal/internal/model"
	"github.com/iliyamo/admission-portal/internal/nav"
)

// Method is a payment method.
type Method string

const (
	CreditCard Method = "credit-card"
	NetBanking Method = "net-banking"
)

// MobileBanking is the provider chosen under net banking.
type MobileBanking string

const (
	Bkash  MobileBanking = "bkash"
	Nagad  MobileBanking = "nagad"
	Rocket MobileBanking = "rocket"
)

// MobileBankingOptions lists the providers in display order.
var MobileBankingOptions = []MobileBanking{Bkash, Nagad, Rocket}

var (
	ErrUnknownMethod   = errors.New("payment: unknown method")
	ErrUnknownProvider = errors.New("payment: unknown mobile banking provider")
	ErrNeedsNetBanking = errors.New("payment: mobile banking requires net banking")
	ErrNotReady        = errors.New("payment: method not fully selected")
)

// ParseMethod validates a method name from a form.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case CreditCard, NetBanking:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// ParseMobileBanking validates a provider name from a form.
func ParseMobileBanking(s string) (MobileBanking, error) {
	for _, o := range MobileBankingOptions {
		if string(o) == s {
			return o, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProvider, s)
}

// Selection is the current choice.
type Selection struct {
	Method        Method        `json:"method"`
	MobileBanking MobileBanking `json:"mobile_banking,omitempty"`
}

// Ready reports whether the selection is complete enough to pay.
func (s Selection) Ready() bool {
	switch s.Method {
	case CreditCard:
		return true
	case NetBanking:
		return s.MobileBanking != ""
	}
	return false
}

// Fees reads the subcategory shown in the payment summary.
// *repository.CategoryRepo satisfies it.
type Fees interface {
	Subcategory(ctx context.Context, id int64) (model.Subcategory, error)
}

// Summary is what the payment screen shows above the method choice.
type Summary struct {
	SubcategoryID int64  `json:"subcategory_id"`
	Name          string `json:"name"`
	Fee           string `json:"fee"`
}

// Step is the payment screen of one subcategory.
type Step struct {
	mu            sync.Mutex
	fees          Fees
	nav           nav.Navigator
	subcategoryID int64
	sel           Selection
}

// New returns a step with credit card preselected.
func New(fees Fees, n nav.Navigator, subcategoryID int64) *Step {
	return &Step{fees: fees, nav: n, subcategoryID: subcategoryID, sel: Selection{Method: CreditCard}}
}

func (s *Step) SubcategoryID() int64 { return s.subcategoryID }

// Selection returns the current choice.
func (s *Step) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

// Ready reports whether "Make Payment" should be enabled.
func (s *Step) Ready() bool { return s.Selection().Ready() }

// SelectMethod changes the method.  Leaving net banking drops the provider.
func (s *Step) SelectMethod(m Method) error {
	if _, err := ParseMethod(string(m)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if m != NetBanking {
		s.sel.MobileBanking = ""
	}
	s.sel.Method = m
	return nil
}

// SetOnlineBanking is the online banking toggle: on selects net banking,
// off returns to credit card.
func (s *Step) SetOnlineBanking(on bool) {
	if on {
		_ = s.SelectMethod(NetBanking)
		return
	}
	_ = s.SelectMethod(CreditCard)
}

// SelectMobileBanking picks the provider.  Net banking must be selected.
func (s *Step) SelectMobileBanking(o MobileBanking) error {
	if _, err := ParseMobileBanking(string(o)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sel.Method != NetBanking {
		return ErrNeedsNetBanking
	}
	s.sel.MobileBanking = o
	return nil
}

// Confirm moves on to the admit card of the same subcategory.
func (s *Step) Confirm(ctx context.Context) (Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sel.Ready() {
		return s.sel, ErrNotReady
	}
	log.Printf("[payment] confirmed subcategory=%d method=%s %s", s.subcategoryID, s.sel.Method, s.sel.MobileBanking)
	s.nav.Navigate(ctx, nav.AdmitCard(s.subcategoryID))
	return s.sel, nil
}

// Summary fetches the subcategory name and fee.  A missing fee reads "N/A".
func (s *Step) Summary(ctx context.Context) (Summary, error) {
	sub, err := s.fees.Subcategory(ctx, s.subcategoryID)
	if err != nil {
		return Summary{SubcategoryID: s.subcategoryID, Fee: "N/A"}, fmt.Errorf("load fee: %w", err)
	}
	return Summary{SubcategoryID: s.subcategoryID, Name: sub.Name, Fee: FormatFee(sub.ApplicationFee)}, nil
}

// FormatFee renders an application fee with two decimals, or "N/A".
func FormatFee(fee *float64) string {
	if fee == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*fee, 'f', 2, 64)
}
