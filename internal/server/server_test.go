package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"socialnest/internal/config"
	"socialnest/internal/database"
	"socialnest/internal/media"
	"socialnest/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testServer struct {
	*Server
	app   *fiber.App
	redis *miniredis.Miniredis
}

func testConfig() *config.Config {
	return &config.Config{
		Port:               "0",
		Env:                "test",
		AccessTokenSecret:  "access-secret-for-server-tests",
		RefreshTokenSecret: "refresh-secret-for-server-tests",
		AccessTokenExpiry:  "15m",
		RefreshTokenExpiry: "7d",
		MediaBaseURL:       "/media",
		MediaMaxUploadMB:   1,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
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

	store, err := media.NewLocalStore(t.TempDir(), cfg.MediaBaseURL)
	require.NoError(t, err)

	s, err := NewServerWithDeps(cfg, db, rdb, store)
	require.NoError(t, err)
	return &testServer{Server: s, app: s.App(), redis: mr}
}

type request struct {
	method  string
	path    string
	body    any
	token   string
	cookies []*http.Cookie
}

func (ts *testServer) do(t *testing.T, r request) *http.Response {
	t.Helper()
	var body io.Reader
	if r.body != nil {
		raw, err := json.Marshal(r.body)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(r.method, r.path, body)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	for _, c := range r.cookies {
		req.AddCookie(c)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

type session struct {
	user    models.User
	access  string
	refresh string
	cookies []*http.Cookie
}

// signUp registers and logs in a user through the HTTP API.
func (ts *testServer) signUp(t *testing.T, username string) session {
	t.Helper()
	email := username + "@example.com"
	resp := ts.do(t, request{method: http.MethodPost, path: "/api/auth/register", body: map[string]string{
		"username": username, "email": email, "password": "password123",
	}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ts.do(t, request{method: http.MethodPost, path: "/api/auth/login", body: map[string]string{
		"email": email, "password": "password123",
	}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[loginResponse](t, resp)
	return session{user: *out.User, access: out.AccessToken, refresh: out.RefreshToken, cookies: resp.Cookies()}
}

func cookieNamed(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x * 20), B: uint8(y * 20), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartBody(t *testing.T, fields map[string]string, fileField string, file []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, "upload.png")
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestHealthChecks(t *testing.T) {
	ts := newTestServer(t, testConfig())

	resp := ts.do(t, request{method: http.MethodGet, path: "/health/live"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, request{method: http.MethodGet, path: "/health/ready"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "healthy", checks["database"])
	assert.Equal(t, "healthy", checks["redis"])

	ts.redis.SetError("LOADING")
	resp = ts.do(t, request{method: http.MethodGet, path: "/health/ready"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestUserRouteWorks(t *testing.T) {
	ts := newTestServer(t, testConfig())
	resp := ts.do(t, request{method: http.MethodGet, path: "/api/users/"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "User route works!", decode[map[string]string](t, resp)["message"])
}

func TestHumanizeParam(t *testing.T) {
	tests := map[string]string{
		"id":        "ID",
		"userId":    "user ID",
		"commentId": "comment ID",
		"slug":      "slug",
	}
	for in, want := range tests {
		assert.Equal(t, want, humanizeParam(in), in)
	}
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer  abc "))
	assert.Empty(t, bearerToken("Basic abc"))
	assert.Empty(t, bearerToken("abc"))
}

func TestErrorHandler_KeepsFiberStatus(t *testing.T) {
	ts := newTestServer(t, testConfig())
	resp := ts.do(t, request{method: http.MethodGet, path: "/does-not-exist"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInvalidRouteID(t *testing.T) {
	ts := newTestServer(t, testConfig())
	s := ts.signUp(t, "alice")

	resp := ts.do(t, request{method: http.MethodPost, path: "/api/users/abc/follow", token: s.access})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid ID", decode[models.ErrorResponse](t, resp).Error)
}

func TestMediaServedLocally(t *testing.T) {
	ts := newTestServer(t, testConfig())
	s := ts.signUp(t, "alice")

	body, contentType := multipartBody(t, nil, "avatar", pngBytes(t))
	req := httptest.NewRequest(http.MethodPost, "/api/profile/upload-avatar", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+s.access)
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[struct {
		User models.User `json:"user"`
	}](t, resp)
	require.True(t, strings.HasPrefix(out.User.Avatar, "/media/avatars/"))

	img := ts.do(t, request{method: http.MethodGet, path: out.User.Avatar})
	assert.Equal(t, http.StatusOK, img.StatusCode)
}
