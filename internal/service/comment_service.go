package service

import (
	"context"

	"socialnest/internal/models"
	"socialnest/internal/repository"
	"socialnest/internal/validation"
)

type CommentService struct {
	userRepo    repository.UserRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
}

func NewCommentService(
	userRepo repository.UserRepository,
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
) *CommentService {
	return &CommentService{userRepo: userRepo, postRepo: postRepo, commentRepo: commentRepo}
}

// AddComment appends a comment by actorID and returns it with the author populated.
func (s *CommentService) AddComment(ctx context.Context, postID, actorID uint, text string) (*models.CommentView, error) {
	text, err := validation.ValidateText("Comment", text, validation.MaxCommentLength)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if text == "" {
		return nil, models.NewValidationError("Comment text is required")
	}
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	comment := &models.Comment{PostID: postID, UserID: actorID, Text: text}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	users, err := s.userRepo.Summaries(ctx, []uint{actorID})
	if err != nil {
		return nil, err
	}
	view := commentView(*comment, summaryOf(users, actorID))
	return &view, nil
}

// DeleteComment removes a comment written by actorID. postID is optional; when set,
// the comment must belong to that post.
func (s *CommentService) DeleteComment(ctx context.Context, postID *uint, commentID, actorID uint) error {
	if postID != nil {
		if _, err := s.postRepo.GetByID(ctx, *postID); err != nil {
			return err
		}
	}
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if postID != nil && comment.PostID != *postID {
		return models.NewNotFoundError("Comment", commentID)
	}
	if comment.UserID != actorID {
		return models.NewForbiddenError("You can only delete your own comments")
	}
	return s.commentRepo.Delete(ctx, commentID)
}
