package server

import (
	"socialnest/internal/models"
	"socialnest/internal/service"

	"github.com/gofiber/fiber/v2"
)

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type loginResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// Register handles POST /api/auth/register
// @Summary Register
// @Description Create a new account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,email=string,password=string} true "Registration"
// @Success 201 {object} object{message=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	user, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    user,
	})
}

// Login handles POST /api/auth/login
// @Summary Login
// @Description Authenticate and receive an access and refresh token, also set as cookies
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Credentials"
// @Success 200 {object} loginResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	sess, err := s.authService.Login(c.UserContext(), service.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return respondError(c, err)
	}

	s.setSessionCookies(c, sess.Tokens)
	return c.JSON(loginResponse{
		User:         sess.User,
		AccessToken:  sess.Tokens.AccessToken,
		RefreshToken: sess.Tokens.RefreshToken,
	})
}

// Refresh handles POST /api/auth/refresh
// @Summary Rotate tokens
// @Description Exchange the current refresh token (cookie or body) for a new pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{refreshToken=string} false "Refresh token when not sent as a cookie"
// @Success 200 {object} tokenResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/refresh [post]
func (s *Server) Refresh(c *fiber.Ctx) error {
	raw := c.Cookies(refreshCookie)
	if raw == "" {
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return respondError(c, models.NewValidationError("Invalid request body"))
			}
		}
		raw = req.RefreshToken
	}

	pair, err := s.authService.Refresh(c.UserContext(), raw)
	if err != nil {
		return respondError(c, err)
	}

	s.setSessionCookies(c, pair)
	return c.JSON(tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// Logout handles POST /api/auth/logout
// @Summary Logout
// @Description Revoke the refresh token and the presented access token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{message=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.authService.Logout(c.UserContext(), currentUserID(c), currentClaims(c)); err != nil {
		return respondError(c, err)
	}
	s.clearSessionCookies(c)
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

// Me handles GET /api/auth/me
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/me [get]
func (s *Server) Me(c *fiber.Ctx) error {
	user, err := s.authService.CurrentUser(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// Protected handles GET /api/auth/protected
// @Summary Session probe
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{message=string,user=models.User}
// @Router /auth/protected [get]
func (s *Server) Protected(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "You have access to this protected route",
		"user":    c.Locals("user"),
	})
}
