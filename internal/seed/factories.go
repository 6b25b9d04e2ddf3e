// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"socialnest/internal/models"
	"socialnest/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the plaintext password of every generated account.
const DefaultPassword = "Password123!"

// Factory builds domain entities and persists them through the repositories.
// It is a thin helper used by Seed, scenarios and tests.
type Factory struct {
	opts     Options
	faker    *gofakeit.Faker
	rng      *rand.Rand
	users    repository.UserRepository
	follows  repository.FollowRepository
	posts    repository.PostRepository
	comments repository.CommentRepository

	passwordHash string
	seq          int
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		opts:  opts,
		faker: gofakeit.New(seed),
		//nolint:gosec // Weak random number generator is fine for seeding
		rng:      rand.New(rand.NewSource(seed)),
		users:    repository.NewUserRepository(db),
		follows:  repository.NewFollowRepository(db),
		posts:    repository.NewPostRepository(db),
		comments: repository.NewCommentRepository(db),
	}
}

// hash returns the stored form of a password. The default password is hashed once.
func (f *Factory) hash(password string) (string, error) {
	if f.opts.SkipBcrypt {
		return "seed$" + password, nil
	}
	if password == f.password() && f.passwordHash != "" {
		return f.passwordHash, nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	if password == f.password() {
		f.passwordHash = string(hashed)
	}
	return string(hashed), nil
}

func (f *Factory) password() string {
	if f.opts.Password != "" {
		return f.opts.Password
	}
	return DefaultPassword
}

// username derives a unique handle that satisfies the username rules.
func (f *Factory) username() string {
	f.seq++
	base := strings.ToLower(f.faker.Username())
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '.':
			return r
		}
		return -1
	}, base)
	suffix := fmt.Sprintf("_%d", f.seq)
	if len(base)+len(suffix) > 30 {
		base = base[:30-len(suffix)]
	}
	if base == "" {
		base = "user"
	}
	return base + suffix
}

// CreateUser persists a generated user. Overrides run before the password is hashed.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	username := f.username()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: f.password(),
		Bio:      f.faker.Sentence(8),
		Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", username),
	}
	for _, override := range overrides {
		override(user)
	}
	hashed, err := f.hash(user.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password for %s: %w", user.Username, err)
	}
	user.Password = hashed
	if err := f.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return user, nil
}

// BuildPost constructs a post owned by user but does not persist it.
// CreatedAt is spread over the last MaxDays days.
func (f *Factory) BuildPost(user *models.User, overrides ...func(*models.Post)) *models.Post {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 30
	}
	back := time.Duration(f.rng.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute
	post := &models.Post{
		Caption:   f.faker.Sentence(f.rng.Intn(12) + 3),
		UserID:    user.ID,
		CreatedAt: time.Now().UTC().Add(-back),
	}
	if f.rng.Intn(3) > 0 {
		post.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID())
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePost builds and persists a post.
func (f *Factory) CreatePost(ctx context.Context, user *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(user, overrides...)
	if err := f.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post for %s: %w", user.Username, err)
	}
	return post, nil
}

// Follow makes follower follow followee. Self edges are skipped.
func (f *Factory) Follow(ctx context.Context, follower, followee *models.User) (bool, error) {
	if follower.ID == followee.ID {
		return false, nil
	}
	return f.follows.Follow(ctx, follower.ID, followee.ID)
}

// Like adds user to the post's likers.
func (f *Factory) Like(ctx context.Context, post *models.Post, user *models.User) (bool, error) {
	return f.posts.Like(ctx, post.ID, user.ID)
}

// CreateComment persists a comment by user on post. An empty text is generated.
func (f *Factory) CreateComment(ctx context.Context, post *models.Post, user *models.User, text string) (*models.Comment, error) {
	if text == "" {
		text = f.faker.Sentence(f.rng.Intn(8) + 2)
	}
	comment := &models.Comment{PostID: post.ID, UserID: user.ID, Text: text}
	if err := f.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment on post %d: %w", post.ID, err)
	}
	return comment, nil
}

// pick returns up to n distinct users other than exclude, in random order.
func (f *Factory) pick(users []*models.User, exclude uint, n int) []*models.User {
	out := make([]*models.User, 0, n)
	for _, i := range f.rng.Perm(len(users)) {
		if len(out) == n {
			break
		}
		if users[i].ID == exclude {
			continue
		}
		out = append(out, users[i])
	}
	return out
}
