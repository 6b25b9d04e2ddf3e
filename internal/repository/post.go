package repository

import (
	"context"

	"socialnest/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FeedFilter narrows a post listing. Zero values mean no restriction.
type FeedFilter struct {
	OwnerIDs       []uint
	ExcludeOwnerID uint
}

// PostRepository defines the interface for post and like storage.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	UpdateCaption(ctx context.Context, id uint, caption string) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter FeedFilter, after *models.FeedCursor, limit int) ([]models.Post, error)
	ListByUser(ctx context.Context, userID uint, limit int) ([]models.Post, error)
	Like(ctx context.Context, postID, userID uint) (bool, error)
	Unlike(ctx context.Context, postID, userID uint) error
	LikerIDs(ctx context.Context, postID uint) ([]uint, error)
	LikesByPosts(ctx context.Context, postIDs []uint) (map[uint][]uint, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, lookupError(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) UpdateCaption(ctx context.Context, id uint, caption string) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Update("caption", caption)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

// Delete removes the post with its likes and comments in one transaction.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post", id)
		}
		return nil
	})
	if err != nil {
		if models.IsKind(err, models.KindNotFound) {
			return err
		}
		return models.NewInternalError(err)
	}
	return nil
}

// List returns up to limit posts newest first, strictly after the cursor when one is given.
func (r *postRepository) List(ctx context.Context, filter FeedFilter, after *models.FeedCursor, limit int) ([]models.Post, error) {
	q := r.db.WithContext(ctx).Model(&models.Post{})
	if filter.OwnerIDs != nil {
		if len(filter.OwnerIDs) == 0 {
			return []models.Post{}, nil
		}
		q = q.Where("user_id IN ?", filter.OwnerIDs)
	}
	if filter.ExcludeOwnerID != 0 {
		q = q.Where("user_id <> ?", filter.ExcludeOwnerID)
	}
	if after != nil {
		q = q.Where("(created_at < ? OR (created_at = ? AND id < ?))", after.CreatedAt, after.CreatedAt, after.ID)
	}

	posts := []models.Post{}
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]models.Post, error) {
	posts := []models.Post{}
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// Like adds userID to the post's likers and reports whether it was new.
func (r *postRepository) Like(ctx context.Context, postID, userID uint) (bool, error) {
	like := models.Like{PostID: postID, UserID: userID}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&like)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Unlike removes userID from the post's likers. Missing likes are ignored.
func (r *postRepository) Unlike(ctx context.Context, postID, userID uint) error {
	if err := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&models.Like{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// LikerIDs lists likers in the order they liked.
func (r *postRepository) LikerIDs(ctx context.Context, postID uint) ([]uint, error) {
	ids := []uint{}
	if err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("post_id = ?", postID).
		Order("created_at ASC").Order("id ASC").
		Pluck("user_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *postRepository) LikesByPosts(ctx context.Context, postIDs []uint) (map[uint][]uint, error) {
	out := make(map[uint][]uint, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	var likes []models.Like
	if err := r.db.WithContext(ctx).
		Select("post_id", "user_id").
		Where("post_id IN ?", postIDs).
		Order("created_at ASC").Order("id ASC").
		Find(&likes).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, l := range likes {
		out[l.PostID] = append(out[l.PostID], l.UserID)
	}
	return out, nil
}
