package service

import (
	"context"

	"socialnest/internal/middleware"
	"socialnest/internal/models"
	"socialnest/internal/observability"
	"socialnest/internal/repository"
)

const (
	DefaultFeedLimit = 20
	MaxFeedLimit     = 100
)

// Feed names, also used as metric labels.
const (
	FeedAll     = "all"
	FeedNews    = "newsfeed"
	FeedExplore = "explore"
)

// PageRequest selects one page of a feed. An empty Cursor starts at the newest post.
type PageRequest struct {
	Limit  int
	Cursor string
}

func (r PageRequest) normalize() (int, *models.FeedCursor, error) {
	limit := r.Limit
	switch {
	case limit <= 0:
		limit = DefaultFeedLimit
	case limit > MaxFeedLimit:
		limit = MaxFeedLimit
	}
	if r.Cursor == "" {
		return limit, nil, nil
	}
	cursor, err := models.DecodeFeedCursor(r.Cursor)
	if err != nil {
		return 0, nil, models.NewValidationError("Invalid cursor")
	}
	return limit, cursor, nil
}

type FeedService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	postRepo   repository.PostRepository
	views      postViews
}

func NewFeedService(
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
) *FeedService {
	return &FeedService{
		userRepo:   userRepo,
		followRepo: followRepo,
		postRepo:   postRepo,
		views:      postViews{userRepo: userRepo, postRepo: postRepo, commentRepo: commentRepo},
	}
}

// AllPosts pages through every post, newest first.
func (s *FeedService) AllPosts(ctx context.Context, req PageRequest) (*models.FeedPage, error) {
	return s.page(ctx, FeedAll, repository.FeedFilter{}, req)
}

// NewsFeed pages through posts by the actor and everyone the actor follows.
func (s *FeedService) NewsFeed(ctx context.Context, actorID uint, req PageRequest) (*models.FeedPage, error) {
	filter, err := s.newsFilter(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return s.page(ctx, FeedNews, filter, req)
}

// ExploreFeed pages through posts by everyone except the actor.
func (s *FeedService) ExploreFeed(ctx context.Context, actorID uint, req PageRequest) (*models.FeedPage, error) {
	return s.page(ctx, FeedExplore, repository.FeedFilter{ExcludeOwnerID: actorID}, req)
}

func (s *FeedService) newsFilter(ctx context.Context, actorID uint) (repository.FeedFilter, error) {
	ok, err := s.userRepo.Exists(ctx, actorID)
	if err != nil {
		return repository.FeedFilter{}, err
	}
	if !ok {
		return repository.FeedFilter{}, models.NewNotFoundError("User", actorID)
	}
	following, err := s.followRepo.FollowingIDs(ctx, actorID)
	if err != nil {
		return repository.FeedFilter{}, err
	}
	return repository.FeedFilter{OwnerIDs: append(following, actorID)}, nil
}

func (s *FeedService) page(ctx context.Context, feed string, filter repository.FeedFilter, req PageRequest) (page *models.FeedPage, err error) {
	ctx, finish := observability.StartSpan(ctx, "FeedService", feed)
	defer func() { finish(err) }()

	limit, after, err := req.normalize()
	if err != nil {
		return nil, err
	}

	// One extra row tells us whether another page exists.
	posts, err := s.postRepo.List(ctx, filter, after, limit+1)
	if err != nil {
		return nil, err
	}
	next := ""
	if len(posts) > limit {
		posts = posts[:limit]
		next = models.CursorAfter(&posts[limit-1]).Encode()
	}

	views, err := s.views.build(ctx, posts)
	if err != nil {
		return nil, err
	}
	middleware.FeedPageSize.WithLabelValues(feed).Observe(float64(len(views)))
	return &models.FeedPage{Posts: views, NextCursor: next}, nil
}

// Pager walks a feed page by page. Pages are fetched only when Next is called,
// and a new Pager can resume from any cursor it has emitted.
type Pager struct {
	fetch  func(ctx context.Context, req PageRequest) (*models.FeedPage, error)
	limit  int
	cursor string
	done   bool
}

// Pager returns a lazy iterator over feed for actorID (ignored for FeedAll).
func (s *FeedService) Pager(feed string, actorID uint, start PageRequest) (*Pager, error) {
	p := &Pager{limit: start.Limit, cursor: start.Cursor}
	switch feed {
	case FeedAll:
		p.fetch = s.AllPosts
	case FeedNews:
		p.fetch = func(ctx context.Context, req PageRequest) (*models.FeedPage, error) {
			return s.NewsFeed(ctx, actorID, req)
		}
	case FeedExplore:
		p.fetch = func(ctx context.Context, req PageRequest) (*models.FeedPage, error) {
			return s.ExploreFeed(ctx, actorID, req)
		}
	default:
		return nil, models.NewValidationError("Unknown feed")
	}
	return p, nil
}

// Next fetches the following page. It returns nil, nil once the feed is exhausted.
func (p *Pager) Next(ctx context.Context) (*models.FeedPage, error) {
	if p.done {
		return nil, nil
	}
	page, err := p.fetch(ctx, PageRequest{Limit: p.limit, Cursor: p.cursor})
	if err != nil {
		return nil, err
	}
	p.cursor = page.NextCursor
	p.done = page.NextCursor == ""
	return page, nil
}

// Done reports whether the last page has been returned.
func (p *Pager) Done() bool {
	return p.done
}

// Cursor is the position the next call to Next resumes from.
func (p *Pager) Cursor() string {
	return p.cursor
}
