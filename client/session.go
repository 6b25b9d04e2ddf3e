package client

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"socialnest/internal/models"
)

// Session is the client-side view of a login: the current user and token pair.
// It is safe for concurrent use.
type Session struct {
	client *Client

	mu           sync.RWMutex
	user         *models.User
	access       string
	refreshToken string

	// refreshMu serializes rotations so concurrent 401s spend the refresh token once.
	refreshMu sync.Mutex
}

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type loginResponse struct {
	User *models.User `json:"user"`
	tokenPair
}

// User returns a copy of the logged-in user, or nil.
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// AccessTokenPresent reports whether the session holds an access token.
func (s *Session) AccessTokenPresent() bool {
	return s.accessToken() != ""
}

func (s *Session) accessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

func (s *Session) set(user *models.User, pair tokenPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user != nil {
		s.user = user
	}
	s.access = pair.AccessToken
	s.refreshToken = pair.RefreshToken
}

func (s *Session) clear() {
	s.mu.Lock()
	s.user = nil
	s.access = ""
	s.refreshToken = ""
	s.mu.Unlock()
	s.client.expireCookies()
}

// post sends an auth request without the 401 retry of Client.Do.
func (s *Session) post(ctx context.Context, path string, body, out any) error {
	req, err := s.client.NewRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	resp, err := s.client.send(req, s.accessToken())
	if err != nil {
		return err
	}
	return decode(resp, out)
}

// Register creates an account. It does not log in.
func (s *Session) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	var out struct {
		User *models.User `json:"user"`
	}
	body := map[string]string{"username": username, "email": email, "password": password}
	if err := s.post(ctx, "/auth/register", body, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Login replaces the session with a fresh token pair for email.
func (s *Session) Login(ctx context.Context, email, password string) (*models.User, error) {
	var out loginResponse
	body := map[string]string{"email": email, "password": password}
	if err := s.post(ctx, "/auth/login", body, &out); err != nil {
		return nil, err
	}
	s.set(out.User, out.tokenPair)
	return s.User(), nil
}

// Refresh rotates the token pair. A rejected refresh clears the session and
// returns ErrSessionExpired; transport errors leave the session untouched.
func (s *Session) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	return s.rotate(ctx)
}

// refreshAfter rotates unless another caller already replaced stale.
func (s *Session) refreshAfter(ctx context.Context, stale string) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	if current := s.accessToken(); current != "" && current != stale {
		return nil
	}
	return s.rotate(ctx)
}

func (s *Session) rotate(ctx context.Context) error {
	s.mu.RLock()
	raw := s.refreshToken
	s.mu.RUnlock()
	if raw == "" {
		s.clear()
		return ErrSessionExpired
	}

	var out tokenPair
	err := s.post(ctx, "/auth/refresh", tokenPair{RefreshToken: raw}, &out)
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		s.clear()
		return ErrSessionExpired
	case err != nil:
		return err
	}
	s.set(nil, out)
	return nil
}

// Logout revokes the session server-side and clears it locally either way.
func (s *Session) Logout(ctx context.Context) error {
	if !s.AccessTokenPresent() {
		s.clear()
		return nil
	}
	err := s.client.call(ctx, http.MethodPost, "/auth/logout", nil, nil)
	s.clear()
	if errors.Is(err, ErrSessionExpired) {
		return nil
	}
	return err
}

// Me reloads the current user from the API.
func (s *Session) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := s.client.call(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	return s.User(), nil
}
