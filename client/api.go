package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"socialnest/internal/models"
)

// Feed names accepted by Client.Feed.
const (
	FeedAll     = "all"
	FeedNews    = "newsfeed"
	FeedExplore = "explore"
)

var feedPaths = map[string]string{
	FeedAll:     "/posts",
	FeedNews:    "/posts/newsfeed",
	FeedExplore: "/posts/explore",
}

// Feed fetches one page. An empty cursor starts from the newest post.
func (c *Client) Feed(ctx context.Context, feed, cursor string, limit int) (*models.FeedPage, error) {
	path, ok := feedPaths[feed]
	if !ok {
		return nil, fmt.Errorf("client: unknown feed %q", feed)
	}
	q := url.Values{}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var page models.FeedPage
	if err := c.call(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) Follow(ctx context.Context, userID uint) error {
	return c.call(ctx, http.MethodPost, fmt.Sprintf("/users/%d/follow", userID), nil, nil)
}

func (c *Client) Unfollow(ctx context.Context, userID uint) error {
	return c.call(ctx, http.MethodPost, fmt.Sprintf("/users/%d/unfollow", userID), nil, nil)
}

// Profile loads a user's profile. A zero id loads the session user's own.
func (c *Client) Profile(ctx context.Context, userID uint) (*models.Profile, error) {
	path := "/profile/me"
	if userID != 0 {
		path = fmt.Sprintf("/profile/%d", userID)
	}
	var profile models.Profile
	if err := c.call(ctx, http.MethodGet, path, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// CreatePost publishes a text post.
func (c *Client) CreatePost(ctx context.Context, caption string) (*models.PostView, error) {
	var post models.PostView
	if err := c.call(ctx, http.MethodPost, "/posts/create", map[string]string{"caption": caption}, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) GetPost(ctx context.Context, postID uint) (*models.PostView, error) {
	var post models.PostView
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/posts/%d", postID), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) UpdatePost(ctx context.Context, postID uint, caption string) (*models.PostView, error) {
	var post models.PostView
	path := fmt.Sprintf("/posts/%d", postID)
	if err := c.call(ctx, http.MethodPut, path, map[string]string{"caption": caption}, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) DeletePost(ctx context.Context, postID uint) error {
	return c.call(ctx, http.MethodDelete, fmt.Sprintf("/posts/%d", postID), nil, nil)
}

// Like returns the post's likers after the call.
func (c *Client) Like(ctx context.Context, postID uint) ([]uint, error) {
	return c.likeCall(ctx, postID, "like")
}

// Unlike returns the post's likers after the call.
func (c *Client) Unlike(ctx context.Context, postID uint) ([]uint, error) {
	return c.likeCall(ctx, postID, "unlike")
}

func (c *Client) likeCall(ctx context.Context, postID uint, action string) ([]uint, error) {
	var out struct {
		Likes []uint `json:"likes"`
	}
	if err := c.call(ctx, http.MethodPost, fmt.Sprintf("/posts/%d/%s", postID, action), nil, &out); err != nil {
		return nil, err
	}
	return out.Likes, nil
}

func (c *Client) Comment(ctx context.Context, postID uint, text string) (*models.CommentView, error) {
	var comment models.CommentView
	path := fmt.Sprintf("/posts/%d/comment", postID)
	if err := c.call(ctx, http.MethodPost, path, map[string]string{"text": text}, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteComment removes a comment. A non-zero postID also checks the comment belongs to it.
func (c *Client) DeleteComment(ctx context.Context, postID, commentID uint) error {
	path := fmt.Sprintf("/posts/comments/%d", commentID)
	if postID != 0 {
		path += "?postId=" + strconv.FormatUint(uint64(postID), 10)
	}
	return c.call(ctx, http.MethodDelete, path, nil, nil)
}
