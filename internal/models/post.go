package models

import "time"

// Post is the stored content unit. It references its owner by id only;
// handlers return PostView, which always carries the populated owner.
type Post struct {
	ID        uint      `gorm:"primaryKey;index:idx_posts_created_id,priority:2" json:"id"`
	Caption   string    `gorm:"type:text" json:"caption"`
	ImageURL  string    `json:"image"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	CreatedAt time.Time `gorm:"index:idx_posts_created_id,priority:1" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Like records that UserID likes PostID. The unique index gives set semantics.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post" json:"userId"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post;index" json:"postId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Comment belongs to exactly one post and is removed with it.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"postId"`
	UserID    uint      `gorm:"not null" json:"userId"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}
