package service

import (
	"context"
	"strings"

	"socialnest/internal/media"
	"socialnest/internal/models"
	"socialnest/internal/repository"
	"socialnest/internal/validation"
)

const (
	profilePostLimit = 100
	searchLimit      = 20
)

type ProfileService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	postRepo   repository.PostRepository
	media      *media.Service
}

// UpdateProfileInput changes only the fields that are non-nil.
type UpdateProfileInput struct {
	Bio        *string
	Avatar     *string
	CoverImage *string
}

// EditProfileInput keeps the stored value for any empty field.
type EditProfileInput struct {
	Username   string
	Bio        string
	Avatar     string
	CoverImage string
}

func NewProfileService(
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	postRepo repository.PostRepository,
	mediaSvc *media.Service,
) *ProfileService {
	return &ProfileService{
		userRepo:   userRepo,
		followRepo: followRepo,
		postRepo:   postRepo,
		media:      mediaSvc,
	}
}

// GetProfile returns a user with recent posts and both follow lists populated.
func (s *ProfileService) GetProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	user, err := s.userRepo.GetPublicByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.profileOf(ctx, user)
}

func (s *ProfileService) GetProfileByUsername(ctx context.Context, username string) (*models.Profile, error) {
	username = strings.TrimSpace(username)
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	return s.profileOf(ctx, user)
}

func (s *ProfileService) profileOf(ctx context.Context, user *models.User) (*models.Profile, error) {
	posts, err := s.postRepo.ListByUser(ctx, user.ID, profilePostLimit)
	if err != nil {
		return nil, err
	}
	followers, err := s.followRepo.Followers(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	following, err := s.followRepo.Following(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	profile := &models.Profile{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		Bio:        user.Bio,
		Avatar:     user.Avatar,
		CoverImage: user.CoverImage,
		Posts:      make([]models.PostSummary, 0, len(posts)),
		Followers:  followers,
		Following:  following,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	}
	for _, p := range posts {
		profile.Posts = append(profile.Posts, models.PostSummary{
			ID:        p.ID,
			Caption:   p.Caption,
			Image:     p.ImageURL,
			CreatedAt: p.CreatedAt,
		})
	}
	if profile.Followers == nil {
		profile.Followers = []models.UserSummary{}
	}
	if profile.Following == nil {
		profile.Following = []models.UserSummary{}
	}
	return profile, nil
}

// UpdateProfile applies the present fields and returns the stored user.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*models.User, error) {
	fields := map[string]any{}
	if in.Bio != nil {
		bio, err := validation.ValidateText("Bio", *in.Bio, validation.MaxBioLength)
		if err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		fields["bio"] = bio
	}
	if in.Avatar != nil {
		fields["avatar"] = strings.TrimSpace(*in.Avatar)
	}
	if in.CoverImage != nil {
		fields["cover_image"] = strings.TrimSpace(*in.CoverImage)
	}
	return s.apply(ctx, userID, fields)
}

// EditProfile is the lenient variant: blank values leave the stored ones untouched.
func (s *ProfileService) EditProfile(ctx context.Context, userID uint, in EditProfileInput) (*models.User, error) {
	fields := map[string]any{}
	if username := strings.TrimSpace(in.Username); username != "" {
		if err := validation.ValidateUsername(username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		existing, err := s.userRepo.GetByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != userID {
			return nil, models.NewConflictError(models.CodeUserExists, "Username already taken")
		}
		fields["username"] = username
	}
	if strings.TrimSpace(in.Bio) != "" {
		bio, err := validation.ValidateText("Bio", in.Bio, validation.MaxBioLength)
		if err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		fields["bio"] = bio
	}
	if avatar := strings.TrimSpace(in.Avatar); avatar != "" {
		fields["avatar"] = avatar
	}
	if cover := strings.TrimSpace(in.CoverImage); cover != "" {
		fields["cover_image"] = cover
	}
	return s.apply(ctx, userID, fields)
}

// UploadAvatar stores a new avatar image and points the profile at it.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID uint, in media.UploadInput) (*models.User, error) {
	return s.upload(ctx, userID, media.KindAvatar, "avatar", in)
}

func (s *ProfileService) UploadCover(ctx context.Context, userID uint, in media.UploadInput) (*models.User, error) {
	return s.upload(ctx, userID, media.KindCover, "cover_image", in)
}

func (s *ProfileService) upload(ctx context.Context, userID uint, kind media.Kind, column string, in media.UploadInput) (*models.User, error) {
	if s.media == nil {
		return nil, models.NewValidationError("Image uploads are not enabled")
	}
	if ok, err := s.userRepo.Exists(ctx, userID); err != nil {
		return nil, err
	} else if !ok {
		return nil, models.NewNotFoundError("User", userID)
	}
	url, err := s.media.Upload(ctx, kind, in)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, userID, map[string]any{column: url})
}

func (s *ProfileService) apply(ctx context.Context, userID uint, fields map[string]any) (*models.User, error) {
	if len(fields) > 0 {
		if err := s.userRepo.UpdateFields(ctx, userID, fields); err != nil {
			return nil, err
		}
	}
	return s.userRepo.GetPublicByID(ctx, userID)
}

// SearchUsers finds users whose username contains query, ignoring case.
func (s *ProfileService) SearchUsers(ctx context.Context, query string) ([]models.UserSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	users, err := s.userRepo.Search(ctx, query, searchLimit)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out, nil
}
