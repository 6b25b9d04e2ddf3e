// Package models defines persisted entities, read views and application errors.
package models

import "time"

// User is an account and a node of the follow graph.
type User struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Username         string    `gorm:"uniqueIndex;size:30;not null" json:"username"`
	Email            string    `gorm:"uniqueIndex;size:254;not null" json:"email"`
	Password         string    `gorm:"not null" json:"-"`
	Bio              string    `gorm:"type:text" json:"bio"`
	Avatar           string    `json:"avatar"`
	CoverImage       string    `json:"coverImage"`
	RefreshTokenHash string    `gorm:"size:64" json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Summary returns the display fields attached to posts, comments and follow lists.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}

// Follow is one edge of the follow graph: FollowerID follows FolloweeID.
// The same row backs both the follower's following list and the followee's followers list.
type Follow struct {
	FollowerID uint      `gorm:"primaryKey;autoIncrement:false" json:"followerId"`
	FolloweeID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"followeeId"`
	CreatedAt  time.Time `json:"createdAt"`
}
