// Package token mints and verifies the access and refresh JWTs that make up a session.
package token

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"socialnest/internal/config"
	"socialnest/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultIssuer   = "socialnest-api"
	DefaultAudience = "socialnest-app"
)

// Options configure a Service. Access and refresh secrets must differ.
type Options struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Audience      string
}

// AccessClaims identify the account for the lifetime of an access token.
type AccessClaims struct {
	UserID   uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// RefreshClaims carry only the account id.
type RefreshClaims struct {
	UserID uint `json:"id"`
	jwt.RegisteredClaims
}

// Pair is a freshly minted access and refresh token.
type Pair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

type Service struct {
	opts Options
	now  func() time.Time
}

func NewService(opts Options) *Service {
	if opts.Issuer == "" {
		opts.Issuer = DefaultIssuer
	}
	if opts.Audience == "" {
		opts.Audience = DefaultAudience
	}
	return &Service{opts: opts, now: time.Now}
}

// FromConfig builds a Service from validated application config.
func FromConfig(cfg *config.Config) *Service {
	return NewService(Options{
		AccessSecret:  cfg.AccessTokenSecret,
		RefreshSecret: cfg.RefreshTokenSecret,
		AccessTTL:     cfg.AccessTTL(),
		RefreshTTL:    cfg.RefreshTTL(),
	})
}

// WithClock returns a copy of s that reads time from now.
func (s *Service) WithClock(now func() time.Time) *Service {
	cp := *s
	cp.now = now
	return &cp
}

func (s *Service) AccessTTL() time.Duration  { return s.opts.AccessTTL }
func (s *Service) RefreshTTL() time.Duration { return s.opts.RefreshTTL }

func (s *Service) registered(userID uint, ttl time.Duration) jwt.RegisteredClaims {
	now := s.now()
	return jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Issuer:    s.opts.Issuer,
		Audience:  jwt.ClaimStrings{s.opts.Audience},
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}
}

// IssuePair signs a new access and refresh token for u.
func (s *Service) IssuePair(u *models.User) (*Pair, error) {
	if u == nil || u.ID == 0 {
		return nil, errors.New("token: user without id")
	}

	access := AccessClaims{
		UserID:           u.ID,
		Username:         u.Username,
		Email:            u.Email,
		RegisteredClaims: s.registered(u.ID, s.opts.AccessTTL),
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, access).SignedString([]byte(s.opts.AccessSecret))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh := RefreshClaims{
		UserID:           u.ID,
		RegisteredClaims: s.registered(u.ID, s.opts.RefreshTTL),
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refresh).SignedString([]byte(s.opts.RefreshSecret))
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &Pair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  access.ExpiresAt.Time,
		RefreshExpiresAt: refresh.ExpiresAt.Time,
	}, nil
}

func (s *Service) parserOptions() []jwt.ParserOption {
	return []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.opts.Issuer),
		jwt.WithAudience(s.opts.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	}
}

// VerifyAccess checks signature, method, issuer, audience and expiry of an access token.
func (s *Service) VerifyAccess(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := s.parse(raw, claims, s.opts.AccessSecret); err != nil {
		return nil, err
	}
	if err := checkSubject(claims.UserID, claims.Subject); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefresh is VerifyAccess for refresh tokens. The caller still has to compare
// the token against the stored hash.
func (s *Service) VerifyRefresh(raw string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := s.parse(raw, claims, s.opts.RefreshSecret); err != nil {
		return nil, err
	}
	if err := checkSubject(claims.UserID, claims.Subject); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *Service) parse(raw string, claims jwt.Claims, secret string) error {
	if raw == "" {
		return models.NewInvalidTokenError(errors.New("empty token"))
	}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, s.parserOptions()...)
	if err != nil {
		return models.NewInvalidTokenError(err)
	}
	return nil
}

func checkSubject(id uint, sub string) error {
	if id == 0 || sub != strconv.FormatUint(uint64(id), 10) {
		return models.NewInvalidTokenError(errors.New("subject does not match id claim"))
	}
	return nil
}

// Hash returns the hex SHA-256 of a token, the form refresh tokens are stored in.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
