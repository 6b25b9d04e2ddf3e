// Package media validates uploaded images, normalizes them to WebP and hands them
// to a Store. Keys are content addressed, so re-uploading the same image is free.
package media

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"mime"
	"net/http"
	"strings"

	"socialnest/internal/models"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultMaxUploadSizeMB = 10
	MaxDimension           = 2048
	WebPQuality            = 80
	contentTypeWebP        = "image/webp"
)

// Kind groups stored objects by what they are used for.
type Kind string

const (
	KindPost   Kind = "posts"
	KindAvatar Kind = "avatars"
	KindCover  Kind = "covers"
)

// Store persists an encoded object and returns the public URL it is served from.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type UploadInput struct {
	Filename    string
	ContentType string
	Content     []byte
}

type Service struct {
	store              Store
	maxUploadSizeBytes int64
}

func NewService(store Store, maxUploadSizeMB int) *Service {
	if maxUploadSizeMB <= 0 {
		maxUploadSizeMB = DefaultMaxUploadSizeMB
	}
	return &Service{
		store:              store,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// MaxUploadSizeBytes is the largest accepted upload.
func (s *Service) MaxUploadSizeBytes() int64 {
	return s.maxUploadSizeBytes
}

// Upload validates and re-encodes an image, stores it under kind and returns its URL.
func (s *Service) Upload(ctx context.Context, kind Kind, in UploadInput) (string, error) {
	if len(in.Content) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	detected := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detected) {
		return "", models.NewValidationError("Invalid image type")
	}
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, detected) {
		return "", models.NewValidationError("Image content type mismatch")
	}

	encoded, err := Normalize(in.Content)
	if err != nil {
		return "", models.NewValidationError("Invalid image file")
	}

	url, err := s.store.Put(ctx, ObjectKey(kind, encoded), encoded, contentTypeWebP)
	if err != nil {
		return "", models.NewInternalError(fmt.Errorf("store %s image: %w", kind, err))
	}
	return url, nil
}

// Normalize decodes an image, fits it inside MaxDimension and encodes it as WebP.
func Normalize(content []byte) ([]byte, error) {
	decoded, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	return encodeWebP(resizeToFit(decoded, MaxDimension, MaxDimension), WebPQuality)
}

// ObjectKey is <kind>/<sha256 of the encoded bytes>.webp.
func ObjectKey(kind Kind, encoded []byte) string {
	sum := sha256.Sum256(encoded)
	return string(kind) + "/" + hex.EncodeToString(sum[:]) + ".webp"
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	return p == d || (p == "image/jpg" && d == "image/jpeg")
}
