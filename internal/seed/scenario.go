package seed

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"socialnest/internal/models"

	"gopkg.in/yaml.v3"
)

// Scenario is a hand-written data set, loaded from YAML. Users are referenced
// by username everywhere else in the file.
type Scenario struct {
	Users []ScenarioUser `yaml:"users"`
}

type ScenarioUser struct {
	Username string         `yaml:"username"`
	Email    string         `yaml:"email"`
	Password string         `yaml:"password"`
	Bio      string         `yaml:"bio"`
	Follows  []string       `yaml:"follows"`
	Posts    []ScenarioPost `yaml:"posts"`
}

type ScenarioPost struct {
	Caption  string            `yaml:"caption"`
	Image    string            `yaml:"image"`
	Age      time.Duration     `yaml:"age"`
	Likes    []string          `yaml:"likes"`
	Comments []ScenarioComment `yaml:"comments"`
}

type ScenarioComment struct {
	User string `yaml:"user"`
	Text string `yaml:"text"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(raw)
}

// ParseScenario decodes YAML and checks that every reference resolves.
func ParseScenario(raw []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate reports duplicate usernames and references to unknown users.
func (sc *Scenario) Validate() error {
	known := make(map[string]bool, len(sc.Users))
	for _, u := range sc.Users {
		name := strings.TrimSpace(u.Username)
		if name == "" {
			return fmt.Errorf("scenario: user without username")
		}
		if known[name] {
			return fmt.Errorf("scenario: duplicate user %q", name)
		}
		known[name] = true
	}
	check := func(owner, ref string) error {
		if !known[ref] {
			return fmt.Errorf("scenario: %s references unknown user %q", owner, ref)
		}
		return nil
	}
	for _, u := range sc.Users {
		for _, f := range u.Follows {
			if f == u.Username {
				return fmt.Errorf("scenario: %s follows themselves", u.Username)
			}
			if err := check(u.Username, f); err != nil {
				return err
			}
		}
		for _, p := range u.Posts {
			for _, l := range p.Likes {
				if err := check(u.Username, l); err != nil {
					return err
				}
			}
			for _, c := range p.Comments {
				if err := check(u.Username, c.User); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// ApplyScenario creates every user first so follows, likes and comments can
// point at any of them.
func (s *Seeder) ApplyScenario(ctx context.Context, sc *Scenario) (*Summary, error) {
	f := s.factory
	summary := &Summary{}
	byName := make(map[string]*models.User, len(sc.Users))

	for _, su := range sc.Users {
		user, err := f.CreateUser(ctx, func(u *models.User) {
			u.Username = su.Username
			u.Email = su.Email
			if u.Email == "" {
				u.Email = strings.ToLower(su.Username) + "@example.com"
			}
			if su.Password != "" {
				u.Password = su.Password
			}
			if su.Bio != "" {
				u.Bio = su.Bio
			}
		})
		if err != nil {
			return nil, err
		}
		byName[su.Username] = user
		summary.Users++
	}

	now := time.Now().UTC()
	for _, su := range sc.Users {
		owner := byName[su.Username]
		for _, name := range su.Follows {
			created, err := f.Follow(ctx, owner, byName[name])
			if err != nil {
				return nil, err
			}
			if created {
				summary.Follows++
			}
		}
		for _, sp := range su.Posts {
			post, err := f.CreatePost(ctx, owner, func(p *models.Post) {
				p.Caption = sp.Caption
				p.ImageURL = sp.Image
				p.CreatedAt = now.Add(-sp.Age)
			})
			if err != nil {
				return nil, err
			}
			summary.Posts++
			for _, name := range sp.Likes {
				created, err := f.Like(ctx, post, byName[name])
				if err != nil {
					return nil, err
				}
				if created {
					summary.Likes++
				}
			}
			for _, c := range sp.Comments {
				if _, err := f.CreateComment(ctx, post, byName[c.User], c.Text); err != nil {
					return nil, err
				}
				summary.Comments++
			}
		}
	}
	return summary, nil
}
