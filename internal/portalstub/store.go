package portalstub

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/admission-portal/internal/model"
	"github.com/iliyamo/admission-portal/internal/utils"
)

var (
	errUserExists     = errors.New("Username already exists.")
	errNotOwned       = errors.New("Application not found or not owned by the user.")
	errAlreadyFinal   = errors.New("This application has already been submitted. No further edits allowed.")
	errAlreadyApplied = errors.New("You have already applied for this subcategory.")
	errInvalid        = errors.New("invalid fields")
)

type user struct {
	ID       int64
	Username string
	Email    string
	Hash     string
}

type refresh struct {
	UserID int64
	Exp    time.Time
}

type application struct {
	model.Application
	OwnerID int64
}

type subcategory struct {
	model.Subcategory
	rollPrefix string
	nextRoll   int
}

// store is the in-memory state of the stub.  One mutex guards everything.
type store struct {
	mu        sync.Mutex
	users     map[string]*user // by username
	refresh   map[string]refresh
	posts     []model.Category
	subs      map[int64]*subcategory
	seatPlans []model.SeatPlan
	apps      map[int64]*application
	media     map[string]media
	nextUser  int64
	nextApp   int64
	applicant map[string]bool
}

type media struct {
	ContentType string
	Data        []byte
}

func newStore(seed Seed, bcryptCost int) (*store, error) {
	s := &store{
		users:     map[string]*user{},
		refresh:   map[string]refresh{},
		subs:      map[int64]*subcategory{},
		apps:      map[int64]*application{},
		media:     map[string]media{},
		applicant: map[string]bool{},
	}
	for _, u := range seed.Users {
		if _, err := s.addUser(u.Username, u.Email, u.Password, bcryptCost); err != nil {
			return nil, fmt.Errorf("seed user %s: %w", u.Username, err)
		}
	}
	for _, p := range seed.Posts {
		s.posts = append(s.posts, model.Category{
			ID:          p.ID,
			Title:       p.Title,
			Category:    p.Category,
			Description: p.Description,
			CreatedAt:   p.CreatedAt,
		})
		for _, sc := range p.Subcategories {
			s.subs[sc.ID] = &subcategory{
				Subcategory: model.Subcategory{
					ID:             sc.ID,
					Post:           p.ID,
					CustomID:       sc.CustomID,
					Name:           sc.Name,
					Description:    sc.Description,
					Deadline:       sc.Deadline,
					ApplicationFee: sc.ApplicationFee,
				},
				rollPrefix: sc.RollPrefix,
				nextRoll:   sc.RollStart,
			}
		}
	}
	for i, sp := range seed.SeatPlans {
		s.seatPlans = append(s.seatPlans, model.SeatPlan{
			ID:           int64(i + 1),
			PostCode:     sp.PostCode,
			PostName:     sp.PostName,
			ExamCenter:   sp.ExamCenter,
			Building:     sp.Building,
			Floor:        sp.Floor,
			RoomNo:       sp.RoomNo,
			ExamDateTime: sp.ExamDateTime,
			Roll:         sp.Roll,
		})
	}
	return s, nil
}

func (s *store) addUser(username, email, password string, cost int) (*user, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return nil, errUserExists
	}
	s.nextUser++
	u := &user{ID: s.nextUser, Username: username, Email: email, Hash: hash}
	s.users[username] = u
	return u, nil
}

func (s *store) userByName(username string) (*user, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	return u, ok
}

func (s *store) userByID(id int64) (*user, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, true
		}
	}
	return nil, false
}

func (s *store) saveRefresh(raw string, userID int64, exp time.Time) {
	s.mu.Lock()
	s.refresh[utils.HashRefreshRaw(raw)] = refresh{UserID: userID, Exp: exp}
	s.mu.Unlock()
}

func (s *store) lookupRefresh(raw string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.refresh[utils.HashRefreshRaw(raw)]
	if !ok || time.Now().After(r.Exp) {
		return 0, false
	}
	return r.UserID, true
}

func (s *store) categories() []model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Category(nil), s.posts...)
}

func (s *store) subcategoriesOf(postID int64) []model.Subcategory {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Subcategory{}
	for _, sc := range s.subs {
		if sc.Post == postID {
			out = append(out, sc.Subcategory)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *store) subcategory(id int64) (model.Subcategory, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.subs[id]
	if !ok {
		return model.Subcategory{}, false
	}
	return sc.Subcategory, true
}

func (s *store) postTitle(id int64) string {
	for _, p := range s.posts {
		if p.ID == id {
			return p.Title
		}
	}
	return ""
}

func (s *store) seatPlansFor(roll string) []model.SeatPlan {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.SeatPlan{}
	for _, sp := range s.seatPlans {
		if roll == "" || sp.Roll == roll {
			out = append(out, sp)
		}
	}
	return out
}

func (s *store) putMedia(dir, filename, contentType string, data []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := fmt.Sprintf("/media/%s/%d_%s", dir, len(s.media)+1, sanitize(filename))
	s.media[name] = media{ContentType: contentType, Data: data}
	return name
}

func (s *store) getMedia(path string) (media, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.media[path]
	return m, ok
}

// createApplication stores a new, unsubmitted application for owner.
func (s *store) createApplication(owner int64, app model.Application) (model.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.apps {
		if a.OwnerID == owner && a.SubcategoryID == app.SubcategoryID {
			return model.Application{}, errAlreadyApplied
		}
	}
	s.nextApp++
	now := time.Now().UTC()
	app.ID = s.nextApp
	app.ApplicantNumber = s.applicantNumber()
	app.IsSubmit = false
	app.CreatedAt, app.UpdatedAt = &now, &now
	s.apps[app.ID] = &application{Application: app, OwnerID: owner}
	return app, nil
}

// applicantNumber returns an unused six-digit number.  Callers hold mu.
func (s *store) applicantNumber() string {
	for {
		n, err := rand.Int(rand.Reader, big.NewInt(999999))
		if err != nil {
			panic(err)
		}
		num := fmt.Sprintf("%06d", n.Int64()+1)
		if !s.applicant[num] {
			s.applicant[num] = true
			return num
		}
	}
}

func (s *store) applicationsOf(owner int64) []model.Application {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Application{}
	for _, a := range s.apps {
		if a.OwnerID == owner {
			out = append(out, a.Application)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// updateApplication applies fn to an owned, unsubmitted application.  When
// the update submits it, a roll number is assigned if the subcategory has a
// roll series.
func (s *store) updateApplication(owner, id int64, fn func(*model.Application) error) (model.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.apps[id]
	if !ok || a.OwnerID != owner {
		return model.Application{}, errNotOwned
	}
	if a.IsSubmit {
		return model.Application{}, errAlreadyFinal
	}
	next := a.Application
	if err := fn(&next); err != nil {
		return model.Application{}, err
	}
	now := time.Now().UTC()
	next.UpdatedAt = &now
	if next.IsSubmit && next.RollNumber == "" {
		if sc, ok := s.subs[next.SubcategoryID]; ok && sc.rollPrefix != "" {
			next.RollNumber = fmt.Sprintf("%s%d", sc.rollPrefix, sc.nextRoll)
			sc.nextRoll++
		}
	}
	a.Application = next
	return next, nil
}

// admitCard builds the card of owner's application in a subcategory.
func (s *store) admitCard(owner, subID int64) (model.AdmitCard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.apps {
		if a.OwnerID != owner || a.SubcategoryID != subID {
			continue
		}
		card := model.AdmitCard{
			StudentName:     a.StudentName,
			FatherName:      a.FatherName,
			MotherName:      a.MotherName,
			Gender:          a.Gender,
			DOB:             a.DOB,
			StudentClass:    a.StudentClass,
			ApplicantNumber: a.ApplicantNumber,
			RollNumber:      a.RollNumber,
			Photo:           a.Photo,
			Signature:       a.Signature,
		}
		if sc, ok := s.subs[subID]; ok {
			card.SubcategoryName = sc.Name
			card.PostTitle = s.postTitle(sc.Post)
		}
		return card, true
	}
	return model.AdmitCard{}, false
}

func sanitize(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	if name == "" {
		return "upload"
	}
	return name
}
