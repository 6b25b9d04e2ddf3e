package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"socialnest/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (ts *testServer) createPost(t *testing.T, s session, caption string) models.PostView {
	t.Helper()
	resp := ts.do(t, request{method: http.MethodPost, path: "/api/posts/create", token: s.access, body: map[string]string{"caption": caption}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[models.PostView](t, resp)
}

func TestCreatePost_JSONAndMultipart(t *testing.T) {
	ts := newTestServer(t, testConfig())
	s := ts.signUp(t, "alice")

	post := ts.createPost(t, s, "hello world")
	assert.Equal(t, "hello world", post.Caption)
	assert.Equal(t, models.UserSummary{ID: s.user.ID, Username: "alice"}, post.User)
	assert.NotNil(t, post.Likes)

	body, contentType := multipartBody(t, map[string]string{"caption": "with image"}, "image", pngBytes(t))
	req := httptest.NewRequest(http.MethodPost, "/api/posts/create", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+s.access)
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	withImage := decode[models.PostView](t, resp)
	assert.True(t, strings.HasPrefix(withImage.Image, "/media/posts/"))

	resp = ts.do(t, request{method: http.MethodPost, path: "/api/posts/create", token: s.access, body: map[string]string{"caption": "  "}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, request{method: http.MethodPost, path: "/api/posts/create", body: map[string]string{"caption": "anon"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreatePost_MultipartUploadErrors(t *testing.T) {
	ts := newTestServer(t, testConfig())
	s := ts.signUp(t, "alice")

	send := func(body io.Reader, contentType string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/api/posts/create", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+s.access)
		resp, err := ts.app.Test(req, -1)
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	// no file part: a caption-only post
	body, contentType := multipartBody(t, map[string]string{"caption": "text only"}, "", nil)
	resp := send(body, contentType)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Empty(t, decode[models.PostView](t, resp).Image)

	// truncated body
	body, contentType = multipartBody(t, map[string]string{"caption": "cut off"}, "image", pngBytes(t))
	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	resp = send(bytes.NewReader(raw[:len(raw)/2]), contentType)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid multipart form", decode[models.ErrorResponse](t, resp).Error)
}

func TestPostAuthorizationScenario(t *testing.T) {
	ts := newTestServer(t, testConfig())
	alice := ts.signUp(t, "alice")
	bob := ts.signUp(t, "bob")
	post := ts.createPost(t, alice, "mine")
	path := fmt.Sprintf("/api/posts/%d", post.ID)

	resp := ts.do(t, request{method: http.MethodPut, path: path, token: bob.access, body: map[string]string{"caption": "x"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = ts.do(t, request{method: http.MethodDelete, path: path, token: bob.access})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.do(t, request{method: http.MethodPut, path: path, token: alice.access, body: map[string]string{"caption": "edited"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "edited", decode[models.PostView](t, resp).Caption)

	resp = ts.do(t, request{method: http.MethodDelete, path: path, token: alice.access})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = ts.do(t, request{method: http.MethodGet, path: path})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = ts.do(t, request{method: http.MethodDelete, path: path, token: alice.access})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLikeUnlike(t *testing.T) {
	ts := newTestServer(t, testConfig())
	alice := ts.signUp(t, "alice")
	bob := ts.signUp(t, "bob")
	post := ts.createPost(t, alice, "like me")
	like := fmt.Sprintf("/api/posts/%d/like", post.ID)
	unlike := fmt.Sprintf("/api/posts/%d/unlike", post.ID)

	resp := ts.do(t, request{method: http.MethodPost, path: like, token: bob.access})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[struct {
		Likes []uint `json:"likes"`
	}](t, resp)
	assert.Equal(t, []uint{bob.user.ID}, out.Likes)

	resp = ts.do(t, request{method: http.MethodPost, path: like, token: bob.access})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, models.CodeAlreadyLiked, decode[models.ErrorResponse](t, resp).Code)

	for i := 0; i < 2; i++ {
		resp = ts.do(t, request{method: http.MethodPost, path: unlike, token: bob.access})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp = ts.do(t, request{method: http.MethodPost, path: "/api/posts/999/like", token: bob.access})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCommentOwnershipScenario(t *testing.T) {
	ts := newTestServer(t, testConfig())
	alice := ts.signUp(t, "alice")
	bob := ts.signUp(t, "bob")
	post := ts.createPost(t, alice, "discuss")

	resp := ts.do(t, request{method: http.MethodPost, path: fmt.Sprintf("/api/posts/%d/comment", post.ID), token: bob.access, body: map[string]string{"text": "first!"}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	comment := decode[models.CommentView](t, resp)
	assert.Equal(t, "bob", comment.User.Username)

	resp = ts.do(t, request{method: http.MethodPost, path: fmt.Sprintf("/api/posts/%d/comment", post.ID), token: bob.access, body: map[string]string{"text": ""}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	path := fmt.Sprintf("/api/posts/comments/%d", comment.ID)
	resp = ts.do(t, request{method: http.MethodDelete, path: path, token: alice.access})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	other := ts.createPost(t, bob, "elsewhere")
	resp = ts.do(t, request{method: http.MethodDelete, path: fmt.Sprintf("%s?postId=%d", path, other.ID), token: bob.access})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = ts.do(t, request{method: http.MethodDelete, path: path + "?postId=abc", token: bob.access})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, request{method: http.MethodDelete, path: fmt.Sprintf("%s?postId=%d", path, post.ID), token: bob.access})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = ts.do(t, request{method: http.MethodDelete, path: path, token: bob.access})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFeeds(t *testing.T) {
	ts := newTestServer(t, testConfig())
	a := ts.signUp(t, "anna")
	b := ts.signUp(t, "ben")
	c := ts.signUp(t, "cleo")
	ts.createPost(t, a, "p1")
	ts.createPost(t, b, "p2")
	ts.createPost(t, c, "p3")

	resp := ts.do(t, request{method: http.MethodPost, path: fmt.Sprintf("/api/users/%d/follow", b.user.ID), token: a.access})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	captionsOf := func(page models.FeedPage) []string {
		out := []string{}
		for _, p := range page.Posts {
			out = append(out, p.Caption)
		}
		return out
	}

	resp = ts.do(t, request{method: http.MethodGet, path: "/api/posts/newsfeed", token: a.access})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"p2", "p1"}, captionsOf(decode[models.FeedPage](t, resp)))

	resp = ts.do(t, request{method: http.MethodGet, path: "/api/posts/explore", token: a.access})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"p3", "p2"}, captionsOf(decode[models.FeedPage](t, resp)))

	resp = ts.do(t, request{method: http.MethodGet, path: "/api/posts?limit=2"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	first := decode[models.FeedPage](t, resp)
	assert.Equal(t, []string{"p3", "p2"}, captionsOf(first))
	require.NotEmpty(t, first.NextCursor)

	resp = ts.do(t, request{method: http.MethodGet, path: "/api/posts?limit=2&cursor=" + first.NextCursor})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	second := decode[models.FeedPage](t, resp)
	assert.Equal(t, []string{"p1"}, captionsOf(second))
	assert.Empty(t, second.NextCursor)

	resp = ts.do(t, request{method: http.MethodGet, path: "/api/posts?cursor=bogus!"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, request{method: http.MethodGet, path: "/api/posts/newsfeed"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
