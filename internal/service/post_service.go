package service

import (
	"context"

	"socialnest/internal/media"
	"socialnest/internal/models"
	"socialnest/internal/repository"
	"socialnest/internal/validation"
)

type PostService struct {
	postRepo repository.PostRepository
	media    *media.Service
	views    postViews
}

type CreatePostInput struct {
	Caption string
	Image   *media.UploadInput
}

func NewPostService(
	userRepo repository.UserRepository,
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	mediaSvc *media.Service,
) *PostService {
	return &PostService{
		postRepo: postRepo,
		media:    mediaSvc,
		views:    postViews{userRepo: userRepo, postRepo: postRepo, commentRepo: commentRepo},
	}
}

// CreatePost stores a post owned by actorID. A post needs a caption, an image or both.
func (s *PostService) CreatePost(ctx context.Context, actorID uint, in CreatePostInput) (*models.PostView, error) {
	caption, err := validation.ValidateText("Caption", in.Caption, validation.MaxCaptionLength)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	hasImage := in.Image != nil && len(in.Image.Content) > 0
	if caption == "" && !hasImage {
		return nil, models.NewValidationError("Post must have a caption or an image")
	}

	post := &models.Post{Caption: caption, UserID: actorID}
	if hasImage {
		if s.media == nil {
			return nil, models.NewValidationError("Image uploads are not enabled")
		}
		url, err := s.media.Upload(ctx, media.KindPost, *in.Image)
		if err != nil {
			return nil, err
		}
		post.ImageURL = url
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.views.one(ctx, post)
}

func (s *PostService) GetPost(ctx context.Context, postID uint) (*models.PostView, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	return s.views.one(ctx, post)
}

// ownedPost loads a post and checks that actorID owns it.
func (s *PostService) ownedPost(ctx context.Context, postID, actorID uint, action string) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != actorID {
		return nil, models.NewForbiddenError("You can only " + action + " your own posts")
	}
	return post, nil
}

// UpdatePost replaces the caption. Clearing it is allowed only when the post has an image.
func (s *PostService) UpdatePost(ctx context.Context, postID, actorID uint, caption string) (*models.PostView, error) {
	post, err := s.ownedPost(ctx, postID, actorID, "edit")
	if err != nil {
		return nil, err
	}
	caption, err = validation.ValidateText("Caption", caption, validation.MaxCaptionLength)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if caption == "" && post.ImageURL == "" {
		return nil, models.NewValidationError("Post must have a caption or an image")
	}

	if err := s.postRepo.UpdateCaption(ctx, post.ID, caption); err != nil {
		return nil, err
	}
	updated, err := s.postRepo.GetByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	return s.views.one(ctx, updated)
}

// DeletePost removes the post with its likes and comments.
func (s *PostService) DeletePost(ctx context.Context, postID, actorID uint) error {
	post, err := s.ownedPost(ctx, postID, actorID, "delete")
	if err != nil {
		return err
	}
	return s.postRepo.Delete(ctx, post.ID)
}

// LikePost adds actorID to the post's likes and returns the updated list.
func (s *PostService) LikePost(ctx context.Context, postID, actorID uint) ([]uint, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	added, err := s.postRepo.Like(ctx, postID, actorID)
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, models.NewConflictError(models.CodeAlreadyLiked, "You have already liked this post")
	}
	return s.postRepo.LikerIDs(ctx, postID)
}

// UnlikePost removes actorID from the post's likes. Unliking twice is fine.
func (s *PostService) UnlikePost(ctx context.Context, postID, actorID uint) ([]uint, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	if err := s.postRepo.Unlike(ctx, postID, actorID); err != nil {
		return nil, err
	}
	return s.postRepo.LikerIDs(ctx, postID)
}
