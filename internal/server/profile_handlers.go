package server

import (
	"context"

	"socialnest/internal/media"
	"socialnest/internal/models"
	"socialnest/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/profile/me
// @Summary Own profile
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Profile
// @Router /profile/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	profile, err := s.profileService.GetProfile(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// GetUserProfile handles GET /api/profile/:userId
// @Summary Profile by id
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Success 200 {object} models.Profile
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{userId} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	profile, err := s.profileService.GetProfile(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// UpdateMyProfile handles PUT /api/profile/me. Only fields present in the body change.
// @Summary Update profile
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{bio=string,avatar=string,coverImage=string} true "Fields to change"
// @Success 200 {object} object{message=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Router /profile/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		Bio        *string `json:"bio"`
		Avatar     *string `json:"avatar"`
		CoverImage *string `json:"coverImage"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	user, err := s.profileService.UpdateProfile(c.UserContext(), currentUserID(c), service.UpdateProfileInput{
		Bio:        req.Bio,
		Avatar:     req.Avatar,
		CoverImage: req.CoverImage,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Profile updated successfully", "user": user})
}

// EditProfile handles PUT /api/profile/editProfile. Empty fields keep their stored value.
// @Summary Edit profile
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{username=string,bio=string,avatar=string,coverImage=string} true "Profile fields"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /profile/editProfile [put]
func (s *Server) EditProfile(c *fiber.Ctx) error {
	var req struct {
		Username   string `json:"username"`
		Bio        string `json:"bio"`
		Avatar     string `json:"avatar"`
		CoverImage string `json:"coverImage"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	user, err := s.profileService.EditProfile(c.UserContext(), currentUserID(c), service.EditProfileInput{
		Username:   req.Username,
		Bio:        req.Bio,
		Avatar:     req.Avatar,
		CoverImage: req.CoverImage,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UploadAvatar handles POST /api/profile/upload-avatar
// @Summary Upload avatar
// @Tags profile
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param avatar formData file true "Image"
// @Success 200 {object} object{message=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Router /profile/upload-avatar [post]
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	return s.handleProfileUpload(c, "avatar", "Avatar uploaded successfully", s.profileService.UploadAvatar)
}

// UploadCover handles POST /api/profile/upload-cover
// @Summary Upload cover image
// @Tags profile
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param coverImage formData file true "Image"
// @Success 200 {object} object{message=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Router /profile/upload-cover [post]
func (s *Server) UploadCover(c *fiber.Ctx) error {
	return s.handleProfileUpload(c, "coverImage", "Cover image uploaded successfully", s.profileService.UploadCover)
}

type profileUploader func(ctx context.Context, userID uint, in media.UploadInput) (*models.User, error)

func (s *Server) handleProfileUpload(c *fiber.Ctx, field, message string, upload profileUploader) error {
	in, err := readUpload(c, field, s.maxUploadBytes())
	if err != nil {
		return respondError(c, err)
	}
	if in == nil {
		return respondError(c, models.NewValidationError("No file uploaded"))
	}

	user, err := upload(c.UserContext(), currentUserID(c), *in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": message, "user": user})
}

func (s *Server) maxUploadBytes() int64 {
	mb := s.config.MediaMaxUploadMB
	if mb <= 0 {
		mb = media.DefaultMaxUploadSizeMB
	}
	return int64(mb) * 1024 * 1024
}
