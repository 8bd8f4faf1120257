package nav

import (
	"context"
	"testing"
)

func TestPaths(t *testing.T) {
	cases := map[string]string{
		Subcategories(7): "/subcategories/7",
		LoginFor(7):      "/login?categoryId=7",
		Apply(3):         "/apply/3",
		Submitted(3):     "/submitted/3",
		Payment(3):       "/payment/3",
		AdmitCard(3):     "/admit-card/3",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("expected %s, got %s", want, got)
		}
	}
}

func TestMailboxTakeClears(t *testing.T) {
	var m Mailbox
	if _, ok := m.Take(); ok {
		t.Fatalf("expected empty mailbox")
	}
	m.Navigate(context.Background(), Categories)
	m.Navigate(context.Background(), Login)
	if m.Peek() != Login {
		t.Fatalf("expected last navigation to win, got %q", m.Peek())
	}
	target, ok := m.Take()
	if !ok || target != Login {
		t.Fatalf("expected %s, got %q", Login, target)
	}
	if _, ok := m.Take(); ok {
		t.Fatalf("expected mailbox to be drained")
	}
}

func TestRequestNavigatorIsPerRequest(t *testing.T) {
	var first, second Mailbox
	a := WithMailbox(context.Background(), &first)
	b := WithMailbox(context.Background(), &second)

	var n Navigator = Request{}
	n.Navigate(a, Login)
	n.Navigate(b, Payment(4))

	if got, _ := first.Take(); got != Login {
		t.Fatalf("first request got %q", got)
	}
	if got, _ := second.Take(); got != Payment(4) {
		t.Fatalf("second request got %q", got)
	}
}

func TestRequestNavigatorWithoutMailbox(t *testing.T) {
	Request{}.Navigate(context.Background(), Login)
	if MailboxFrom(context.Background()) != nil {
		t.Fatal("background context carries a mailbox")
	}
}
