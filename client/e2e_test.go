//go:build integration

package client

import (
	"context"
	"fmt"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"socialnest/internal/bootstrap"
	"socialnest/internal/cache"
	"socialnest/internal/config"
	"socialnest/internal/database"
	"socialnest/internal/media"
	"socialnest/internal/models"
	"socialnest/internal/server"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func e2eConfig(t *testing.T) *config.Config {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping end-to-end session test")
	}
	u, err := url.Parse(dsn)
	require.NoError(t, err)
	password, _ := u.User.Password()
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	return &config.Config{
		Port:               "0",
		Env:                "test",
		DBHost:             u.Hostname(),
		DBPort:             port,
		DBUser:             u.User.Username(),
		DBPassword:         password,
		DBName:             strings.TrimPrefix(u.Path, "/"),
		DBSSLMode:          "disable",
		DBSchemaMode:       database.SchemaModeSQL,
		RedisURL:           os.Getenv("REDIS_URL"),
		AccessTokenSecret:  "access-secret-for-end-to-end-tests",
		RefreshTokenSecret: "refresh-secret-for-end-to-end-tests",
		AccessTokenExpiry:  "2s",
		RefreshTokenExpiry: "1h",
		MediaBaseURL:       "/media",
		MediaMaxUploadMB:   1,
	}
}

func startAPI(t *testing.T) string {
	t.Helper()
	cfg := e2eConfig(t)
	ctx := context.Background()

	db, err := database.Connect(cfg)
	require.NoError(t, err)
	require.NoError(t, bootstrap.Prepare(ctx, db, cfg, bootstrap.Options{ApplySchema: true}))

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = cache.NewClient(cfg.RedisURL)
		require.NoError(t, err)
	}

	store, err := media.NewLocalStore(t.TempDir(), cfg.MediaBaseURL)
	require.NoError(t, err)
	srv, err := server.NewServerWithDeps(cfg, db, rdb, store)
	require.NoError(t, err)

	httpSrv := httptest.NewServer(adaptor.FiberApp(srv.App()))
	t.Cleanup(func() {
		httpSrv.Close()
		_ = srv.Shutdown(context.Background())
	})
	return httpSrv.URL + "/api"
}

func signUp(t *testing.T, base, name string) *Client {
	t.Helper()
	c, err := New(base)
	require.NoError(t, err)
	ctx := context.Background()
	email := name + "@example.com"
	_, err = c.Session().Register(ctx, name, email, "password123")
	require.NoError(t, err)
	_, err = c.Session().Login(ctx, email, "password123")
	require.NoError(t, err)
	return c
}

func TestEndToEnd_SessionLifecycle(t *testing.T) {
	base := startAPI(t)
	ctx := context.Background()
	suffix := time.Now().UnixNano() % 1_000_000
	alice := signUp(t, base, fmt.Sprintf("alice_%d", suffix))
	bob := signUp(t, base, fmt.Sprintf("bob_%d", suffix))
	bobID := bob.Session().User().ID

	require.NoError(t, alice.Follow(ctx, bobID))
	assert.True(t, IsCode(alice.Follow(ctx, bobID), models.CodeAlreadyFollowing))

	post, err := bob.CreatePost(ctx, "hello from bob")
	require.NoError(t, err)

	page, err := alice.Feed(ctx, FeedNews, "", 10)
	require.NoError(t, err)
	require.NotEmpty(t, page.Posts)
	assert.Equal(t, post.ID, page.Posts[0].ID)

	likes, err := alice.Like(ctx, post.ID)
	require.NoError(t, err)
	assert.Contains(t, likes, alice.Session().User().ID)

	comment, err := alice.Comment(ctx, post.ID, "nice")
	require.NoError(t, err)
	assert.True(t, IsCode(bob.DeleteComment(ctx, post.ID, comment.ID), models.CodeForbidden))

	// the access token lapses; the next call refreshes transparently
	time.Sleep(3 * time.Second)
	profile, err := alice.Profile(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, profile.Following, 1)
	got, err := alice.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, got.Comments, 1)

	require.NoError(t, alice.Session().Logout(ctx))
	_, err = alice.Session().Me(ctx)
	assert.ErrorIs(t, err, ErrSessionExpired)
}
