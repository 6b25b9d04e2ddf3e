// Package service holds the business rules. Handlers call services; services call repositories.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"socialnest/internal/cache"
	"socialnest/internal/middleware"
	"socialnest/internal/models"
	"socialnest/internal/observability"
	"socialnest/internal/repository"
	"socialnest/internal/token"
	"socialnest/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	userRepo   repository.UserRepository
	tokens     *token.Service
	denylist   *cache.Denylist
	bcryptCost int
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

// Session is the result of a successful login.
type Session struct {
	User   *models.User
	Tokens *token.Pair
}

func NewAuthService(userRepo repository.UserRepository, tokens *token.Service, denylist *cache.Denylist) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		tokens:     tokens,
		denylist:   denylist,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// Tokens exposes the token service, e.g. for cookie lifetimes.
func (s *AuthService) Tokens() *token.Service {
	return s.tokens
}

func recordAuth(event string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	middleware.AuthEvents.WithLabelValues(event, outcome).Inc()
}

// Register creates an account. Username and email must both be unused.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (user *models.User, err error) {
	defer func() { recordAuth("register", err) }()

	username := strings.TrimSpace(in.Username)
	if username == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, models.NewValidationError("Username, email and password are required")
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	email, err := validation.NormalizeEmail(in.Email)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		existing, err = s.userRepo.GetByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
	}
	if existing != nil {
		return nil, models.NewConflictError(models.CodeUserExists, "User already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, models.NewValidationError(err.Error())
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user = &models.User{
		Username: username,
		Email:    email,
		Password: string(hashed),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	user.Password = ""
	return user, nil
}

// Login checks credentials and starts a new session, replacing any previous refresh token.
// Unknown email and wrong password fail identically.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (sess *Session, err error) {
	defer func() { recordAuth("login", err) }()

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, models.NewValidationError("Email and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewInvalidCredentialsError()
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)) != nil {
		return nil, models.NewInvalidCredentialsError()
	}

	pair, err := s.IssueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	user.Password = ""
	user.RefreshTokenHash = ""
	return &Session{User: user, Tokens: pair}, nil
}

// IssueTokenPair mints a pair for user and stores the refresh token hash, overwriting any prior one.
func (s *AuthService) IssueTokenPair(ctx context.Context, user *models.User) (*token.Pair, error) {
	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.userRepo.SetRefreshTokenHash(ctx, user.ID, token.Hash(pair.RefreshToken)); err != nil {
		return nil, err
	}
	return pair, nil
}

// Refresh rotates a refresh token. The presented token must be the one currently stored;
// a concurrent rotation with the same token loses the compare-and-swap.
func (s *AuthService) Refresh(ctx context.Context, raw string) (pair *token.Pair, err error) {
	ctx, finish := observability.StartSpan(ctx, "AuthService", "Refresh")
	defer func() {
		recordAuth("refresh", err)
		finish(err)
	}()

	if raw == "" {
		return nil, models.NewUnauthenticatedError("Refresh token is required")
	}
	claims, err := s.tokens.VerifyRefresh(raw)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if models.IsKind(err, models.KindNotFound) {
			return nil, models.NewRefreshTokenMismatchError()
		}
		return nil, err
	}

	presented := token.Hash(raw)
	if user.RefreshTokenHash == "" || user.RefreshTokenHash != presented {
		return nil, models.NewRefreshTokenMismatchError()
	}

	pair, err = s.tokens.IssuePair(user)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	swapped, err := s.userRepo.SwapRefreshTokenHash(ctx, user.ID, presented, token.Hash(pair.RefreshToken))
	if err != nil {
		return nil, err
	}
	if !swapped {
		return nil, models.NewRefreshTokenMismatchError()
	}
	return pair, nil
}

// Logout revokes the stored refresh token and denylists the access token until it expires.
// A Redis outage does not fail the logout; the refresh token is gone either way.
func (s *AuthService) Logout(ctx context.Context, userID uint, access *token.AccessClaims) (err error) {
	defer func() { recordAuth("logout", err) }()

	if err := s.userRepo.SetRefreshTokenHash(ctx, userID, ""); err != nil {
		return err
	}
	if access != nil && access.ExpiresAt != nil {
		if err := s.denylist.Revoke(ctx, access.ID, access.ExpiresAt.Time); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to denylist access token", slog.String("error", err.Error()))
		}
	}
	return nil
}

// Authenticate resolves an access token to its account. Every failure is reported as
// the same unauthenticated error.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*models.User, *token.AccessClaims, error) {
	notAuthorized := models.NewUnauthenticatedError("Not authorized")

	if raw == "" {
		return nil, nil, notAuthorized
	}
	claims, err := s.tokens.VerifyAccess(raw)
	if err != nil {
		return nil, nil, notAuthorized
	}

	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		// Fail open: the token is still signed and unexpired.
		middleware.Logger.WarnContext(ctx, "denylist lookup failed", slog.String("error", err.Error()))
	}
	if revoked {
		return nil, nil, notAuthorized
	}

	user, err := s.userRepo.GetPublicByID(ctx, claims.UserID)
	if err != nil {
		if models.IsKind(err, models.KindNotFound) {
			return nil, nil, notAuthorized
		}
		return nil, nil, err
	}
	return user, claims, nil
}

// CurrentUser returns the account without credentials.
func (s *AuthService) CurrentUser(ctx context.Context, userID uint) (*models.User, error) {
	return s.userRepo.GetPublicByID(ctx, userID)
}
