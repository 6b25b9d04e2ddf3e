package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"socialnest/internal/database"
	"socialnest/internal/models"
	"socialnest/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

func count(t *testing.T, db *gorm.DB, model any) int {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return int(n)
}

const sampleScenario = `
users:
  - username: alice
    bio: first
    follows: [bob]
    posts:
      - caption: hello from alice
        age: 2h
        likes: [bob, carol]
        comments:
          - user: carol
            text: welcome
  - username: bob
    email: bob@example.org
    posts:
      - caption: bob's photo
        image: https://example.com/b.png
        age: 1h
  - username: carol
    follows: [alice, bob]
`

func TestFactory_CreateUser(t *testing.T) {
	db := openDB(t)
	f := NewFactory(db, Options{RandSeed: 7})
	ctx := context.Background()

	user, err := f.CreateUser(ctx)
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	assert.NoError(t, validation.ValidateUsername(user.Username))
	assert.Equal(t, user.Username+"@example.com", user.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(DefaultPassword)))

	other, err := f.CreateUser(ctx, func(u *models.User) { u.Bio = "custom" })
	require.NoError(t, err)
	assert.NotEqual(t, user.Username, other.Username)
	assert.Equal(t, "custom", other.Bio)
	// the default password hash is computed once
	assert.Equal(t, user.Password, other.Password)
}

func TestFactory_BuildPost_SpreadsTimestamps(t *testing.T) {
	f := NewFactory(openDB(t), Options{MaxDays: 3, SkipBcrypt: true})
	user := &models.User{ID: 1}

	for i := 0; i < 20; i++ {
		p := f.BuildPost(user)
		assert.Equal(t, uint(1), p.UserID)
		assert.NotEmpty(t, p.Caption)
		assert.True(t, p.CreatedAt.Before(time.Now().UTC().Add(time.Second)))
		assert.True(t, time.Since(p.CreatedAt) < 4*24*time.Hour, "created_at too old: %v", p.CreatedAt)
	}

	p := f.BuildPost(user, func(p *models.Post) { p.Caption = "fixed" })
	assert.Equal(t, "fixed", p.Caption)
}

func TestFactory_FollowSkipsSelf(t *testing.T) {
	db := openDB(t)
	f := NewFactory(db, Options{SkipBcrypt: true})
	ctx := context.Background()
	u, err := f.CreateUser(ctx)
	require.NoError(t, err)

	created, err := f.Follow(ctx, u, u)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Zero(t, count(t, db, &models.Follow{}))
}

func TestSeed_Random(t *testing.T) {
	db := openDB(t)
	opts := Options{
		NumUsers:        6,
		PostsPerUser:    2,
		FollowsPerUser:  3,
		LikesPerPost:    2,
		CommentsPerPost: 1,
		SkipBcrypt:      true,
		RandSeed:        42,
	}

	summary, err := Seed(context.Background(), db, opts)
	require.NoError(t, err)

	assert.Equal(t, 6, summary.Users)
	assert.Equal(t, 18, summary.Follows)
	assert.Equal(t, 12, summary.Posts)
	assert.Equal(t, 24, summary.Likes)
	assert.Equal(t, 12, summary.Comments)

	assert.Equal(t, 6, count(t, db, &models.User{}))
	assert.Equal(t, 18, count(t, db, &models.Follow{}))
	assert.Equal(t, 12, count(t, db, &models.Post{}))
	assert.Equal(t, 24, count(t, db, &models.Like{}))
	assert.Equal(t, 12, count(t, db, &models.Comment{}))

	var selfEdges int64
	require.NoError(t, db.Model(&models.Follow{}).Where("follower_id = followee_id").Count(&selfEdges).Error)
	assert.Zero(t, selfEdges)
}

func TestSeed_CleanRemovesPreviousRun(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	opts := Options{NumUsers: 3, PostsPerUser: 1, FollowsPerUser: 1, SkipBcrypt: true}

	_, err := Seed(ctx, db, opts)
	require.NoError(t, err)

	opts.ShouldClean = true
	opts.NumUsers = 2
	_, err = Seed(ctx, db, opts)
	require.NoError(t, err)

	assert.Equal(t, 2, count(t, db, &models.User{}))
	assert.Equal(t, 2, count(t, db, &models.Post{}))
}

func TestParseScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(sampleScenario))
	require.NoError(t, err)
	require.Len(t, sc.Users, 3)
	assert.Equal(t, 2*time.Hour, sc.Users[0].Posts[0].Age)
	assert.Equal(t, []string{"bob", "carol"}, sc.Users[0].Posts[0].Likes)

	tests := []struct {
		name string
		yaml string
	}{
		{"duplicate user", "users:\n  - username: a\n  - username: a\n"},
		{"unknown follow", "users:\n  - username: a\n    follows: [ghost]\n"},
		{"self follow", "users:\n  - username: a\n    follows: [a]\n"},
		{"unknown liker", "users:\n  - username: a\n    posts:\n      - caption: x\n        likes: [ghost]\n"},
		{"unknown commenter", "users:\n  - username: a\n    posts:\n      - caption: x\n        comments:\n          - user: ghost\n            text: hi\n"},
		{"missing username", "users:\n  - bio: nobody\n"},
		{"not yaml", "users: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestSeed_ScenarioFile(t *testing.T) {
	db := openDB(t)
	path := filepath.Join(t.TempDir(), "scenario.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleScenario), 0o600))

	summary, err := Seed(context.Background(), db, Options{ScenarioFile: path, SkipBcrypt: true})
	require.NoError(t, err)
	assert.Equal(t, Summary{Users: 3, Follows: 3, Posts: 2, Likes: 2, Comments: 1}, *summary)

	var bob models.User
	require.NoError(t, db.Where("username = ?", "bob").First(&bob).Error)
	assert.Equal(t, "bob@example.org", bob.Email)

	var posts []models.Post
	require.NoError(t, db.Order("created_at DESC").Find(&posts).Error)
	require.Len(t, posts, 2)
	assert.Equal(t, "bob's photo", posts[0].Caption)
	assert.Equal(t, "https://example.com/b.png", posts[0].ImageURL)
	assert.Equal(t, "hello from alice", posts[1].Caption)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
