package server

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"unicode"

	"socialnest/internal/media"
	"socialnest/internal/middleware"
	"socialnest/internal/models"
	"socialnest/internal/service"
	"socialnest/internal/token"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// respondError writes err as JSON and logs internal failures with their cause.
func respondError(c *fiber.Ctx, err error) error {
	appErr := models.AsAppError(err)
	if appErr.Kind == models.KindInternal {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, appErr)
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = respondError(c, models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID", "commentId" -> "comment ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}

// currentUserID returns the id AuthRequired stored for this request.
func currentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}

func currentClaims(c *fiber.Ctx) *token.AccessClaims {
	claims, _ := c.Locals("claims").(*token.AccessClaims)
	return claims
}

func pageRequest(c *fiber.Ctx) service.PageRequest {
	return service.PageRequest{
		Limit:  c.QueryInt("limit", 0),
		Cursor: c.Query("cursor"),
	}
}

// readUpload loads a multipart file field. It returns nil, nil when the field
// is absent and a validation error when the form itself cannot be parsed.
func readUpload(c *fiber.Ctx, field string, maxBytes int64) (*media.UploadInput, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, fasthttp.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewValidationError("Invalid multipart form")
	}
	if fh == nil {
		return nil, nil
	}
	if fh.Size > maxBytes {
		return nil, models.NewValidationError("File too large")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, models.NewValidationError("Could not read uploaded file")
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, models.NewValidationError("Could not read uploaded file")
	}
	return &media.UploadInput{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}
