package admitcard

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/iliyamo/admission-portal/internal/model"
)

type fakeCards struct {
	card  model.AdmitCard
	err   error
	calls int
}

func (f *fakeCards) Get(ctx context.Context, id int64) (model.AdmitCard, error) {
	f.calls++
	return f.card, f.err
}

type fakeSeats struct {
	plans []model.SeatPlan
	rolls []string
}

func (f *fakeSeats) ByRoll(ctx context.Context, roll string) ([]model.SeatPlan, error) {
	f.rolls = append(f.rolls, roll)
	return f.plans, nil
}

type authFlag bool

func (a authFlag) IsAuthenticated(context.Context) bool { return bool(a) }

func card(roll string) model.AdmitCard {
	return model.AdmitCard{
		StudentName:     "Rahim Uddin",
		FatherName:      "Karim Uddin",
		MotherName:      "Amina Begum",
		Gender:          "Male",
		DOB:             "2010-01-02",
		StudentClass:    "6",
		ApplicantNumber: "483920",
		RollNumber:      roll,
		SubcategoryName: "Morning",
		PostTitle:       "Class Six Admission",
		Photo:           "/media/photos/p.png",
	}
}

func fixedRenderer() Renderer {
	return Renderer{
		MediaBase: "http://api.local/api",
		Now:       func() time.Time { return time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC) },
	}
}

func TestLoadWithoutSessionSkipsNetwork(t *testing.T) {
	cards := &fakeCards{}
	v := NewViewer(cards, &fakeSeats{}, authFlag(false))
	_, err := v.Load(context.Background(), 3)
	if !errors.Is(err, ErrUnauthorized) || Message(err) != MsgUnauthorized {
		t.Fatalf("err = %v", err)
	}
	if cards.calls != 0 {
		t.Fatalf("network called %d times", cards.calls)
	}
}

func TestLoadFailure(t *testing.T) {
	v := NewViewer(&fakeCards{err: errors.New("404")}, &fakeSeats{}, authFlag(true))
	_, err := v.Load(context.Background(), 3)
	if !errors.Is(err, ErrNotFound) || Message(err) != MsgNotFound {
		t.Fatalf("err = %v", err)
	}
}

func TestSeatPlanRendered(t *testing.T) {
	seats := &fakeSeats{plans: []model.SeatPlan{
		{Roll: "R100", ExamCenter: "Hall A", Building: "Block B", Floor: "2", RoomNo: "201", ExamDateTime: "2026-11-20T10:00:00Z"},
		{Roll: "R100", ExamCenter: "Other", Building: "X", Floor: "9", RoomNo: "999"},
	}}
	v := NewViewer(&fakeCards{card: card("R100")}, seats, authFlag(true))
	view, err := v.Load(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(seats.rolls) != 1 || seats.rolls[0] != "R100" {
		t.Fatalf("rolls = %v", seats.rolls)
	}
	if view.Seat == nil || view.Seat.ExamCenter != "Hall A" {
		t.Fatalf("seat = %+v", view.Seat)
	}
	out, err := fixedRenderer().Render(view)
	if err != nil {
		t.Fatal(err)
	}
	doc := string(out)
	for _, want := range []string{
		"<strong>Exam Center:</strong> Hall A, Block B, Floor 2, Room 201",
		"Exam Date &amp; Time:</strong> 20 Nov 2026, 10:00 AM",
		"<strong>Roll No:</strong> R100",
		"width: 794px; height: 1123px",
		`src="http://api.local/api/media/photos/p.png"`,
		"Date: 01 Oct 2026",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q", want)
		}
	}
	if strings.Contains(doc, "Other") {
		t.Error("second seat plan rendered")
	}
}

func TestEmptySeatPlanOmitsFields(t *testing.T) {
	v := NewViewer(&fakeCards{card: card("R100")}, &fakeSeats{}, authFlag(true))
	view, err := v.Load(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	out, err := fixedRenderer().Render(view)
	if err != nil {
		t.Fatal(err)
	}
	doc := string(out)
	if strings.Contains(doc, "Exam Center") || strings.Contains(doc, "Exam Venue") {
		t.Fatal("seat fields rendered without a seat plan")
	}
	if !strings.Contains(doc, "<strong>Name:</strong> Rahim Uddin") {
		t.Fatal("card fields missing")
	}
}

func TestNoRollSkipsSeatLookup(t *testing.T) {
	seats := &fakeSeats{}
	v := NewViewer(&fakeCards{card: card("")}, seats, authFlag(true))
	view, err := v.Load(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(seats.rolls) != 0 {
		t.Fatal("seat plan looked up without a roll number")
	}
	out, _ := fixedRenderer().Render(view)
	if !strings.Contains(string(out), "Not assigned yet") {
		t.Fatal("missing roll placeholder")
	}
}

func TestRenderEscapesServerText(t *testing.T) {
	c := card("")
	c.StudentName = "<script>alert(1)</script> *bold*"
	out, err := fixedRenderer().Render(View{Card: c})
	if err != nil {
		t.Fatal(err)
	}
	doc := string(out)
	if strings.Contains(doc, "<script>") || strings.Contains(doc, "<em>bold</em>") {
		t.Fatalf("unescaped content: %s", doc)
	}
}
