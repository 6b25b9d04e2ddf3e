package server

import (
	"github.com/gofiber/fiber/v2"
)

// UserRouteWorks handles GET /api/users
func (s *Server) UserRouteWorks(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "User route works!"})
}

// SearchUsers handles GET /api/users/search?query=...
// @Summary Search users
// @Description Case-insensitive substring match on username
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param query query string true "Search text"
// @Success 200 {array} models.UserSummary
// @Failure 400 {object} models.ErrorResponse
// @Router /users/search [get]
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	users, err := s.profileService.SearchUsers(c.UserContext(), c.Query("query"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// GetUserByUsername handles GET /api/users/username/:username
// @Summary Profile by username
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Success 200 {object} models.Profile
// @Failure 404 {object} models.ErrorResponse
// @Router /users/username/{username} [get]
func (s *Server) GetUserByUsername(c *fiber.Ctx) error {
	profile, err := s.profileService.GetProfileByUsername(c.UserContext(), c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// FollowUser handles POST /api/users/:id/follow
// @Summary Follow a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /users/{id}/follow [post]
func (s *Server) FollowUser(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.followService.Follow(c.UserContext(), currentUserID(c), targetID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User followed successfully"})
}

// UnfollowUser handles POST /api/users/:id/unfollow
// @Summary Unfollow a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id}/unfollow [post]
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.followService.Unfollow(c.UserContext(), currentUserID(c), targetID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User unfollowed successfully"})
}
