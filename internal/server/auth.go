package server

import (
	"strings"
	"time"

	"socialnest/internal/middleware"
	"socialnest/internal/models"
	"socialnest/internal/token"

	"github.com/gofiber/fiber/v2"
)

const (
	accessCookie  = "accessToken"
	refreshCookie = "refreshToken"
)

// AuthRequired resolves the access token from the accessToken cookie or the
// Authorization header. Every rejection carries the same 401 body.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Cookies(accessCookie)
		if raw == "" {
			raw = bearerToken(c.Get(fiber.HeaderAuthorization))
		}

		user, claims, err := s.authService.Authenticate(c.UserContext(), raw)
		if err != nil {
			if models.IsKind(err, models.KindUnauthenticated) {
				return respondError(c, models.NewUnauthenticatedError("Not authorized"))
			}
			return respondError(c, err)
		}

		c.Locals("userID", user.ID)
		c.Locals("user", user)
		c.Locals("claims", claims)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), user.ID))
		return c.Next()
	}
}

func bearerToken(header string) string {
	scheme, raw, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(raw)
}

func (s *Server) sameSite() string {
	if s.config.IsProduction() {
		return fiber.CookieSameSiteNoneMode
	}
	return fiber.CookieSameSiteLaxMode
}

func (s *Server) sessionCookie(name, value string, ttl time.Duration) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   s.config.CookieDomain,
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: s.sameSite(),
	}
}

func (s *Server) setSessionCookies(c *fiber.Ctx, pair *token.Pair) {
	c.Cookie(s.sessionCookie(accessCookie, pair.AccessToken, time.Until(pair.AccessExpiresAt)))
	c.Cookie(s.sessionCookie(refreshCookie, pair.RefreshToken, time.Until(pair.RefreshExpiresAt)))
}

func (s *Server) clearSessionCookies(c *fiber.Ctx) {
	for _, name := range []string{accessCookie, refreshCookie} {
		cookie := s.sessionCookie(name, "", 0)
		cookie.MaxAge = 0
		cookie.Expires = time.Unix(0, 0)
		c.Cookie(cookie)
	}
}
