package portalstub

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// Seed is the initial data of a stub server.
type Seed struct {
	Users     []SeedUser     `yaml:"users"`
	Posts     []SeedPost     `yaml:"posts"`
	SeatPlans []SeedSeatPlan `yaml:"seat_plans"`
}

type SeedUser struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type SeedPost struct {
	ID            int64             `yaml:"id"`
	Title         string            `yaml:"title"`
	Category      string            `yaml:"category"`
	Description   string            `yaml:"description"`
	CreatedAt     time.Time         `yaml:"created_at"`
	Subcategories []SeedSubcategory `yaml:"subcategories"`
}

// SeedSubcategory describes a subcategory.  When RollPrefix is set, submitted
// applications are given rolls RollPrefix+RollStart, RollPrefix+RollStart+1
// and so on.
type SeedSubcategory struct {
	ID             int64    `yaml:"id"`
	CustomID       string   `yaml:"custom_id"`
	Name           string   `yaml:"name"`
	Description    string   `yaml:"description"`
	Deadline       string   `yaml:"deadline"`
	ApplicationFee *float64 `yaml:"application_fee"`
	RollPrefix     string   `yaml:"roll_prefix"`
	RollStart      int      `yaml:"roll_start"`
}

type SeedSeatPlan struct {
	PostCode     string `yaml:"post_code"`
	PostName     string `yaml:"post_name"`
	ExamCenter   string `yaml:"exam_center"`
	Building     string `yaml:"building"`
	Floor        string `yaml:"floor"`
	RoomNo       string `yaml:"room_no"`
	ExamDateTime string `yaml:"exam_date_time"`
	Roll         string `yaml:"roll"`
}

// DefaultSeed returns the built-in demo data.
func DefaultSeed() (Seed, error) {
	return parseSeed(defaultSeed)
}

// LoadSeed reads seed data from a YAML file.
func LoadSeed(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, err
	}
	return parseSeed(data)
}

func parseSeed(data []byte) (Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Seed{}, fmt.Errorf("parse seed: %w", err)
	}
	ids := map[int64]bool{}
	for _, p := range s.Posts {
		for _, sub := range p.Subcategories {
			if ids[sub.ID] {
				return Seed{}, fmt.Errorf("parse seed: duplicate subcategory id %d", sub.ID)
			}
			ids[sub.ID] = true
		}
	}
	return s, nil
}
