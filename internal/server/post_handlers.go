package server

import (
	"strconv"

	"socialnest/internal/models"
	"socialnest/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/posts
// @Summary All posts
// @Description Every post, newest first, one cursor page at a time
// @Tags posts
// @Produce json
// @Param limit query int false "Page size (default 20, max 100)"
// @Param cursor query string false "Opaque cursor from nextCursor"
// @Success 200 {object} models.FeedPage
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page, err := s.feedService.AllPosts(c.UserContext(), pageRequest(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// NewsFeed handles GET /api/posts/newsfeed
// @Summary News feed
// @Description Posts by the caller and the accounts they follow
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (default 20, max 100)"
// @Param cursor query string false "Opaque cursor from nextCursor"
// @Success 200 {object} models.FeedPage
// @Router /posts/newsfeed [get]
func (s *Server) NewsFeed(c *fiber.Ctx) error {
	page, err := s.feedService.NewsFeed(c.UserContext(), currentUserID(c), pageRequest(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// ExploreFeed handles GET /api/posts/explore
// @Summary Explore feed
// @Description Posts by everyone except the caller
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (default 20, max 100)"
// @Param cursor query string false "Opaque cursor from nextCursor"
// @Success 200 {object} models.FeedPage
// @Router /posts/explore [get]
func (s *Server) ExploreFeed(c *fiber.Ctx) error {
	page, err := s.feedService.ExploreFeed(c.UserContext(), currentUserID(c), pageRequest(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// GetPost handles GET /api/posts/:id
// @Summary Single post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.PostView
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPost(c.UserContext(), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/posts/create. Accepts JSON or multipart with an optional image file.
// @Summary Create post
// @Tags posts
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param caption formData string false "Caption"
// @Param image formData file false "Image"
// @Success 201 {object} models.PostView
// @Failure 400 {object} models.ErrorResponse
// @Router /posts/create [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var in service.CreatePostInput
	if isMultipart(c) {
		in.Caption = c.FormValue("caption")
		img, err := readUpload(c, "image", s.maxUploadBytes())
		if err != nil {
			return respondError(c, err)
		}
		in.Image = img
	} else {
		var req struct {
			Caption string `json:"caption"`
		}
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, models.NewValidationError("Invalid request body"))
		}
		in.Caption = req.Caption
	}

	post, err := s.postService.CreatePost(c.UserContext(), currentUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
// @Summary Edit caption
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{caption=string} true "New caption"
// @Success 200 {object} models.PostView
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Caption string `json:"caption"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.UpdatePost(c.UserContext(), postID, currentUserID(c), req.Caption)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.DeletePost(c.UserContext(), postID, currentUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted successfully"})
}

// LikePost handles POST /api/posts/:id/like
// @Summary Like post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} object{message=string,likes=[]int}
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /posts/{id}/like [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	likes, err := s.postService.LikePost(c.UserContext(), postID, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post liked", "likes": likes})
}

// UnlikePost handles POST /api/posts/:id/unlike
// @Summary Unlike post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} object{message=string,likes=[]int}
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/unlike [post]
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	likes, err := s.postService.UnlikePost(c.UserContext(), postID, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post unliked", "likes": likes})
}

// AddComment handles POST /api/posts/:id/comment
// @Summary Comment on post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{text=string} true "Comment"
// @Success 201 {object} models.CommentView
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comment [post]
func (s *Server) AddComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.AddComment(c.UserContext(), postID, currentUserID(c), req.Text)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// DeleteComment handles DELETE /api/posts/comments/:commentId
// @Summary Delete comment
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param commentId path int true "Comment ID"
// @Param postId query int false "Post the comment must belong to"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/comments/{commentId} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}
	var postID *uint
	if raw := c.Query("postId"); raw != "" {
		id, convErr := strconv.ParseUint(raw, 10, 32)
		if convErr != nil || id == 0 {
			return respondError(c, models.NewValidationError("Invalid postId"))
		}
		pid := uint(id)
		postID = &pid
	}
	if err := s.commentService.DeleteComment(c.UserContext(), postID, commentID, currentUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Comment deleted successfully"})
}
