package repository

import (
	"context"

	"socialnest/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository stores the follow graph as one row per edge.
type FollowRepository interface {
	Follow(ctx context.Context, followerID, followeeID uint) (bool, error)
	Unfollow(ctx context.Context, followerID, followeeID uint) error
	IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error)
	FollowingIDs(ctx context.Context, userID uint) ([]uint, error)
	Followers(ctx context.Context, userID uint) ([]models.UserSummary, error)
	Following(ctx context.Context, userID uint) ([]models.UserSummary, error)
}

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

// Follow inserts the edge and reports whether it was new. An existing edge is
// left untouched, so concurrent calls create it exactly once.
func (r *followRepository) Follow(ctx context.Context, followerID, followeeID uint) (bool, error) {
	edge := models.Follow{FollowerID: followerID, FolloweeID: followeeID}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&edge)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Unfollow deletes the edge. Deleting a missing edge is not an error.
func (r *followRepository) Unfollow(ctx context.Context, followerID, followeeID uint) error {
	if err := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&models.Follow{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *followRepository) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *followRepository) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Order("created_at ASC").
		Pluck("followee_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *followRepository) Followers(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	return r.edgeUsers(ctx, "follows.follower_id", "follows.followee_id = ?", userID)
}

func (r *followRepository) Following(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	return r.edgeUsers(ctx, "follows.followee_id", "follows.follower_id = ?", userID)
}

// edgeUsers joins the far end of each edge onto users, oldest edge first.
func (r *followRepository) edgeUsers(ctx context.Context, joinCol, where string, userID uint) ([]models.UserSummary, error) {
	out := []models.UserSummary{}
	if err := r.db.WithContext(ctx).
		Table("follows").
		Select("users.id, users.username, users.avatar").
		Joins("JOIN users ON users.id = "+joinCol).
		Where(where, userID).
		Order("follows.created_at ASC, users.id ASC").
		Scan(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}
