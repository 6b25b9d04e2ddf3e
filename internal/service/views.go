package service

import (
	"context"

	"socialnest/internal/models"
	"socialnest/internal/repository"
)

// postViews populates stored posts with their owners, likes and comments.
// Each call issues a fixed number of queries regardless of how many posts it gets.
type postViews struct {
	userRepo    repository.UserRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
}

func (v postViews) build(ctx context.Context, posts []models.Post) ([]models.PostView, error) {
	views := make([]models.PostView, 0, len(posts))
	if len(posts) == 0 {
		return views, nil
	}

	postIDs := make([]uint, 0, len(posts))
	userIDs := make([]uint, 0, len(posts))
	for i := range posts {
		postIDs = append(postIDs, posts[i].ID)
		userIDs = append(userIDs, posts[i].UserID)
	}

	likes, err := v.postRepo.LikesByPosts(ctx, postIDs)
	if err != nil {
		return nil, err
	}
	comments, err := v.commentRepo.ListByPosts(ctx, postIDs)
	if err != nil {
		return nil, err
	}
	for _, list := range comments {
		for i := range list {
			userIDs = append(userIDs, list[i].UserID)
		}
	}

	users, err := v.userRepo.Summaries(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	for i := range posts {
		p := &posts[i]
		view := models.PostView{
			ID:        p.ID,
			Caption:   p.Caption,
			Image:     p.ImageURL,
			User:      summaryOf(users, p.UserID),
			Likes:     likes[p.ID],
			Comments:  make([]models.CommentView, 0, len(comments[p.ID])),
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
		}
		if view.Likes == nil {
			view.Likes = []uint{}
		}
		for _, c := range comments[p.ID] {
			view.Comments = append(view.Comments, commentView(c, summaryOf(users, c.UserID)))
		}
		views = append(views, view)
	}
	return views, nil
}

func (v postViews) one(ctx context.Context, post *models.Post) (*models.PostView, error) {
	views, err := v.build(ctx, []models.Post{*post})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func summaryOf(users map[uint]models.UserSummary, id uint) models.UserSummary {
	if s, ok := users[id]; ok {
		return s
	}
	return models.UserSummary{ID: id}
}

func commentView(c models.Comment, author models.UserSummary) models.CommentView {
	return models.CommentView{
		ID:        c.ID,
		PostID:    c.PostID,
		Text:      c.Text,
		User:      author,
		CreatedAt: c.CreatedAt,
	}
}
