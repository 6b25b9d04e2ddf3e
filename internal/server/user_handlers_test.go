package server

import (
	"fmt"
	"net/http"
	"testing"

	"socialnest/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowEndpoints(t *testing.T) {
	ts := newTestServer(t, testConfig())
	alice := ts.signUp(t, "alice")
	bob := ts.signUp(t, "bob")
	follow := fmt.Sprintf("/api/users/%d/follow", bob.user.ID)
	unfollow := fmt.Sprintf("/api/users/%d/unfollow", bob.user.ID)

	resp := ts.do(t, request{method: http.MethodPost, path: follow, token: alice.access})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, request{method: http.MethodPost, path: follow, token: alice.access})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, models.CodeAlreadyFollowing, decode[models.ErrorResponse](t, resp).Code)

	resp = ts.do(t, request{method: http.MethodPost, path: fmt.Sprintf("/api/users/%d/follow", alice.user.ID), token: alice.access})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.do(t, request{method: http.MethodPost, path: "/api/users/999/follow", token: alice.access})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = ts.do(t, request{method: http.MethodGet, path: "/api/profile/me", token: bob.access})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decode[models.Profile](t, resp)
	require.Len(t, profile.Followers, 1)
	assert.Equal(t, "alice", profile.Followers[0].Username)

	for i := 0; i < 2; i++ {
		resp = ts.do(t, request{method: http.MethodPost, path: unfollow, token: alice.access})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp = ts.do(t, request{method: http.MethodGet, path: fmt.Sprintf("/api/profile/%d", bob.user.ID), token: alice.access})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[models.Profile](t, resp).Followers)
}

func TestSearchAndLookup(t *testing.T) {
	ts := newTestServer(t, testConfig())
	alice := ts.signUp(t, "alice")
	ts.signUp(t, "malik")

	resp := ts.do(t, request{method: http.MethodGet, path: "/api/users/search?query=LI", token: alice.access})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.UserSummary](t, resp), 2)

	resp = ts.do(t, request{method: http.MethodGet, path: "/api/users/search?query=", token: alice.access})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, request{method: http.MethodGet, path: "/api/users/username/malik", token: alice.access})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "malik", decode[models.Profile](t, resp).Username)

	resp = ts.do(t, request{method: http.MethodGet, path: "/api/users/username/ghost", token: alice.access})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProfileUpdates(t *testing.T) {
	ts := newTestServer(t, testConfig())
	alice := ts.signUp(t, "alice")
	ts.signUp(t, "bob")

	resp := ts.do(t, request{method: http.MethodPut, path: "/api/profile/me", token: alice.access, body: map[string]string{"bio": "hi there"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[struct {
		User models.User `json:"user"`
	}](t, resp)
	assert.Equal(t, "hi there", updated.User.Bio)

	resp = ts.do(t, request{method: http.MethodPut, path: "/api/profile/editProfile", token: alice.access, body: map[string]string{"username": "alice_w"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	edited := decode[models.User](t, resp)
	assert.Equal(t, "alice_w", edited.Username)
	assert.Equal(t, "hi there", edited.Bio)

	resp = ts.do(t, request{method: http.MethodPut, path: "/api/profile/editProfile", token: alice.access, body: map[string]string{"username": "bob"}})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = ts.do(t, request{method: http.MethodPost, path: "/api/profile/upload-cover", token: alice.access})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
