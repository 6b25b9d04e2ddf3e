package seed

import (
	"context"
	"fmt"
	"log"

	"socialnest/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers        int
	PostsPerUser    int
	FollowsPerUser  int
	LikesPerPost    int
	CommentsPerPost int
	MaxDays         int
	ShouldClean     bool
	SkipBcrypt      bool
	Password        string
	RandSeed        int64
	ScenarioFile    string
}

// DefaultOptions is the preset used by `socialctl seed` without flags.
func DefaultOptions() Options {
	return Options{
		NumUsers:        20,
		PostsPerUser:    3,
		FollowsPerUser:  5,
		LikesPerPost:    4,
		CommentsPerPost: 2,
		MaxDays:         30,
	}
}

// Summary counts what a seeding run created.
type Summary struct {
	Users    int
	Follows  int
	Posts    int
	Likes    int
	Comments int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d users, %d follows, %d posts, %d likes, %d comments",
		s.Users, s.Follows, s.Posts, s.Likes, s.Comments)
}

// Seeder runs presets and scenarios against one database.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder creates a seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, opts: opts, factory: NewFactory(db, opts)}
}

// Factory exposes the underlying factory for tests and ad-hoc tooling.
func (s *Seeder) Factory() *Factory {
	return s.factory
}

// Seed populates the database with test data. A scenario file, when set,
// replaces the random preset.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Summary, error) {
	seeder := NewSeeder(db, opts)

	if opts.ShouldClean {
		if err := seeder.Clean(ctx); err != nil {
			return nil, fmt.Errorf("clean: %w", err)
		}
	}

	if opts.ScenarioFile != "" {
		scenario, err := LoadScenario(opts.ScenarioFile)
		if err != nil {
			return nil, err
		}
		log.Printf("🌱 Applying scenario %s (%d users)...", opts.ScenarioFile, len(scenario.Users))
		summary, err := seeder.ApplyScenario(ctx, scenario)
		if err != nil {
			return nil, err
		}
		log.Printf("🎉 Scenario applied: %s", summary)
		return summary, nil
	}

	log.Printf("🌱 Starting database seeding with %d users...", opts.NumUsers)
	summary, err := seeder.Random(ctx)
	if err != nil {
		return nil, err
	}
	log.Printf("🎉 Database seeding completed: %s", summary)
	return summary, nil
}

// Clean removes every row the seeder can create, children first.
func (s *Seeder) Clean(ctx context.Context) error {
	log.Println("🗑️  Clearing existing data...")
	tx := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []any{&models.Comment{}, &models.Like{}, &models.Post{}, &models.Follow{}, &models.User{}} {
		if err := tx.Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

// Random creates users with posts, then wires follows, likes and comments
// between them using the counts in Options.
func (s *Seeder) Random(ctx context.Context) (*Summary, error) {
	users, err := s.SeedSocialMesh(ctx, s.opts.NumUsers)
	if err != nil {
		return nil, err
	}
	summary := &Summary{Users: len(users)}
	var edges int64
	if err := s.db.WithContext(ctx).Model(&models.Follow{}).Count(&edges).Error; err != nil {
		return nil, err
	}
	summary.Follows = int(edges)
	log.Printf("✓ %d users created, %d follows", summary.Users, summary.Follows)

	f := s.factory
	for _, user := range users {
		for i := 0; i < s.opts.PostsPerUser; i++ {
			post, err := f.CreatePost(ctx, user)
			if err != nil {
				return nil, err
			}
			summary.Posts++

			for _, liker := range f.pick(users, 0, s.opts.LikesPerPost) {
				created, err := f.Like(ctx, post, liker)
				if err != nil {
					return nil, fmt.Errorf("like post %d: %w", post.ID, err)
				}
				if created {
					summary.Likes++
				}
			}
			for _, author := range f.pick(users, 0, s.opts.CommentsPerPost) {
				if _, err := f.CreateComment(ctx, post, author, ""); err != nil {
					return nil, err
				}
				summary.Comments++
			}
		}
	}
	log.Printf("✓ %d posts, %d likes, %d comments created", summary.Posts, summary.Likes, summary.Comments)
	return summary, nil
}

// SeedSocialMesh creates n users and has each follow up to FollowsPerUser others.
func (s *Seeder) SeedSocialMesh(ctx context.Context, n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		user, err := s.factory.CreateUser(ctx)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	for _, follower := range users {
		for _, followee := range s.factory.pick(users, follower.ID, s.opts.FollowsPerUser) {
			if _, err := s.factory.Follow(ctx, follower, followee); err != nil {
				return nil, fmt.Errorf("follow %s -> %s: %w", follower.Username, followee.Username, err)
			}
		}
	}
	return users, nil
}
