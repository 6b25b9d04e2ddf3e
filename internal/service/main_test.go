package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"socialnest/internal/cache"
	"socialnest/internal/database"
	"socialnest/internal/media"
	"socialnest/internal/models"
	"socialnest/internal/repository"
	"socialnest/internal/token"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires every service against an in-memory SQLite database and miniredis.
type testEnv struct {
	db       *gorm.DB
	redis    *miniredis.Miniredis
	store    *memoryStore
	tokens   *token.Service
	users    repository.UserRepository
	follows  repository.FollowRepository
	posts    repository.PostRepository
	comments repository.CommentRepository

	auth     *AuthService
	follow   *FollowService
	feed     *FeedService
	post     *PostService
	comment  *CommentService
	profiles *ProfileService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Discard,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	env := &testEnv{
		db:       db,
		redis:    mr,
		store:    &memoryStore{objects: map[string][]byte{}},
		users:    repository.NewUserRepository(db),
		follows:  repository.NewFollowRepository(db),
		posts:    repository.NewPostRepository(db),
		comments: repository.NewCommentRepository(db),
		tokens: token.NewService(token.Options{
			AccessSecret:  "access-secret-for-tests",
			RefreshSecret: "refresh-secret-for-tests",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
		}),
	}
	mediaSvc := media.NewService(env.store, 1)

	env.auth = NewAuthService(env.users, env.tokens, cache.NewDenylist(rdb))
	env.auth.bcryptCost = bcrypt.MinCost
	env.follow = NewFollowService(env.users, env.follows)
	env.feed = NewFeedService(env.users, env.follows, env.posts, env.comments)
	env.post = NewPostService(env.users, env.posts, env.comments, mediaSvc)
	env.comment = NewCommentService(env.users, env.posts, env.comments)
	env.profiles = NewProfileService(env.users, env.follows, env.posts, mediaSvc)
	return env
}

// register creates an account with a valid password and returns it.
func (e *testEnv) register(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := e.auth.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	return u
}

// postAt inserts a post with a fixed timestamp so ordering is deterministic.
func (e *testEnv) postAt(t *testing.T, owner uint, caption string, at time.Time) models.Post {
	t.Helper()
	p := models.Post{UserID: owner, Caption: caption, CreatedAt: at, UpdatedAt: at}
	require.NoError(t, e.db.Create(&p).Error)
	return p
}

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func (m *memoryStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.objects[key] = data
	return "/media/" + key, nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func requireKind(t *testing.T, err error, kind models.ErrorKind) *models.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, kind, appErr.Kind, "unexpected kind for %v", err)
	return appErr
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code, fmt.Sprintf("error: %v", err))
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	requireCode(t, err, models.CodeValidation)
}
