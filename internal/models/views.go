package models

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// UserSummary is the populated form of a user reference.
type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// CommentView is a comment with its author populated.
type CommentView struct {
	ID        uint        `json:"id"`
	PostID    uint        `json:"postId"`
	Text      string      `json:"text"`
	User      UserSummary `json:"user"`
	CreatedAt time.Time   `json:"createdAt"`
}

// PostView is a post with its owner, likes and comments populated.
type PostView struct {
	ID        uint          `json:"id"`
	Caption   string        `json:"caption"`
	Image     string        `json:"image"`
	User      UserSummary   `json:"user"`
	Likes     []uint        `json:"likes"`
	Comments  []CommentView `json:"comments"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// PostSummary is the subset of a post listed on a profile.
type PostSummary struct {
	ID        uint      `json:"id"`
	Caption   string    `json:"caption"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile is a user with posts and both sides of the follow graph populated.
type Profile struct {
	ID         uint          `json:"id"`
	Username   string        `json:"username"`
	Email      string        `json:"email"`
	Bio        string        `json:"bio"`
	Avatar     string        `json:"avatar"`
	CoverImage string        `json:"coverImage"`
	Posts      []PostSummary `json:"posts"`
	Followers  []UserSummary `json:"followers"`
	Following  []UserSummary `json:"following"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// FeedCursor marks the last post of a page. The next page starts strictly after it
// in (created_at DESC, id DESC) order.
type FeedCursor struct {
	CreatedAt time.Time
	ID        uint
}

// CursorAfter returns the cursor that resumes after p.
func CursorAfter(p *Post) *FeedCursor {
	return &FeedCursor{CreatedAt: p.CreatedAt, ID: p.ID}
}

// Encode renders the cursor as an opaque URL-safe token.
func (c FeedCursor) Encode() string {
	raw := strconv.FormatInt(c.CreatedAt.UnixNano(), 10) + ":" + strconv.FormatUint(uint64(c.ID), 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeFeedCursor parses a token produced by Encode.
func DecodeFeedCursor(token string) (*FeedCursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	nanos, id, ok := strings.Cut(string(raw), ":")
	if !ok {
		return nil, fmt.Errorf("malformed cursor")
	}
	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("cursor timestamp: %w", err)
	}
	i, err := strconv.ParseUint(id, 10, 64)
	if err != nil || i == 0 {
		return nil, fmt.Errorf("cursor id: invalid")
	}
	return &FeedCursor{CreatedAt: time.Unix(0, n).UTC(), ID: uint(i)}, nil
}

// FeedPage is one page of a feed. NextCursor is empty on the last page.
type FeedPage struct {
	Posts      []PostView `json:"posts"`
	NextCursor string     `json:"nextCursor,omitempty"`
}
