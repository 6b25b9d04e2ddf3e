package repository

import (
	"context"
	"errors"
	"strings"

	"socialnest/internal/models"

	"gorm.io/gorm"
)

// privateUserColumns never leave the credential store through public lookups.
var privateUserColumns = []string{"password", "refresh_token_hash"}

// UserRepository defines persistence operations for users and their stored refresh token.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetPublicByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Create(ctx context.Context, user *models.User) error
	UpdateFields(ctx context.Context, id uint, fields map[string]any) error
	Search(ctx context.Context, query string, limit int) ([]models.User, error)
	Summaries(ctx context.Context, ids []uint) (map[uint]models.UserSummary, error)
	SetRefreshTokenHash(ctx context.Context, id uint, hash string) error
	SwapRefreshTokenHash(ctx context.Context, id uint, oldHash, newHash string) (bool, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// GetByID loads the full record, credentials included. Only the auth flow should use it.
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, lookupError(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) GetPublicByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Omit(privateUserColumns...).First(&user, id).Error; err != nil {
		return nil, lookupError(err, "User", id)
	}
	return &user, nil
}

// GetByEmail returns nil, nil when no account uses email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetByUsername returns nil, nil when no account uses username.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Omit(privateUserColumns...).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError(models.CodeUserExists, "User already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// UpdateFields writes only the given columns. A taken username surfaces as USER_EXISTS.
func (r *userRepository) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		if isUniqueConstraintError(res.Error) {
			return models.NewConflictError(models.CodeUserExists, "Username already taken")
		}
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	return nil
}

// Search matches usernames containing query, ignoring case.
func (r *userRepository) Search(ctx context.Context, query string, limit int) ([]models.User, error) {
	var users []models.User
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	if err := r.db.WithContext(ctx).
		Select("id", "username", "avatar").
		Where("LOWER(username) LIKE ? ESCAPE '\\'", pattern).
		Order("username ASC").
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Summaries loads display fields for ids. Missing ids are absent from the map.
func (r *userRepository) Summaries(ctx context.Context, ids []uint) (map[uint]models.UserSummary, error) {
	out := make(map[uint]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := r.db.WithContext(ctx).Select("id", "username", "avatar").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range users {
		out[users[i].ID] = users[i].Summary()
	}
	return out, nil
}

// SetRefreshTokenHash overwrites the stored refresh token. An empty hash revokes it.
func (r *userRepository) SetRefreshTokenHash(ctx context.Context, id uint, hash string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("refresh_token_hash", hash)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	return nil
}

// SwapRefreshTokenHash replaces oldHash with newHash only if oldHash is still stored.
// It reports false when another rotation or a logout got there first.
func (r *userRepository) SwapRefreshTokenHash(ctx context.Context, id uint, oldHash, newHash string) (bool, error) {
	if oldHash == "" {
		return false, nil
	}
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND refresh_token_hash = ?", id, oldHash).
		Update("refresh_token_hash", newHash)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected == 1, nil
}
