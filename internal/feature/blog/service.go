// Package blog publishes posts, counts their views and collects comments.
package blog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"event-portal/internal/domain"
)

// slugRetries is how many suffixed slugs are tried after the plain one.
const slugRetries = 3

var viewIncrements = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "post_view_increments_total",
	Help: "Successful post view count increments",
})

func init() { prometheus.MustRegister(viewIncrements) }

type Service struct {
	posts    domain.PostRepository
	comments domain.CommentRepository
	log      *zap.Logger

	lists  singleflight.Group
	suffix func() string
}

func NewService(store *domain.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		posts:    store.Posts,
		comments: store.Comments,
		log:      log.Named("blog"),
		suffix:   randomSuffix,
	}
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}

// CreatePost stores in with a slug derived from its title (or from the slug
// it carries). A taken slug is retried with a short random suffix.
func (s *Service) CreatePost(ctx context.Context, in *domain.Post) (*domain.Post, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	base := domain.Slugify(in.Slug)
	if base == "" {
		base = domain.Slugify(in.Title)
	}
	if base == "" {
		return nil, domain.Invalid("title", "title must contain at least one letter or digit")
	}

	slug := base
	for attempt := 0; ; attempt++ {
		p := *in
		p.Slug = slug
		created, err := s.posts.Create(ctx, &p)
		if err == nil {
			if attempt > 0 {
				s.log.Info("slug taken, used suffix", zap.String("base", base), zap.String("slug", slug))
			}
			return created, nil
		}
		if !errors.Is(err, domain.ErrConflict) || attempt == slugRetries {
			return nil, err
		}
		slug = base + "-" + s.suffix()
	}
}

// ListPosts returns every post newest first. Concurrent callers share one
// backend read; the returned slice must not be modified.
func (s *Service) ListPosts(ctx context.Context) ([]*domain.Post, error) {
	v, err, _ := s.lists.Do("posts", func() (any, error) {
		return s.posts.List(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	return v.([]*domain.Post), nil
}

func (s *Service) GetPostBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, domain.Invalid("slug", "slug is required")
	}
	return s.posts.GetBySlug(ctx, slug)
}

func (s *Service) UpdatePost(ctx context.Context, id string, p domain.Patch) (*domain.Post, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.Invalid("id", "id is required")
	}
	if len(p) == 0 {
		return nil, domain.Invalid("updates", "nothing to update")
	}
	return s.posts.Update(ctx, id, p)
}

type DeleteResult struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// DeletePost removes the post and its comments. A missing id is reported
// as deleted=false, not as an error.
func (s *Service) DeletePost(ctx context.Context, id string) (DeleteResult, error) {
	if strings.TrimSpace(id) == "" {
		return DeleteResult{}, domain.Invalid("id", "id is required")
	}
	ok, err := s.posts.Delete(ctx, id)
	if err != nil {
		return DeleteResult{}, err
	}
	if ok {
		s.log.Info("post deleted", zap.String("id", id))
	}
	return DeleteResult{ID: id, Deleted: ok}, nil
}

// IncrementViewCount bumps the counter and returns the new value. Callers
// are expected not to wait on it; duplicates are tolerated.
func (s *Service) IncrementViewCount(ctx context.Context, postID string) (int64, error) {
	if strings.TrimSpace(postID) == "" {
		return 0, domain.Invalid("post_id", "post id is required")
	}
	n, err := s.posts.IncrementViews(ctx, postID)
	if err != nil {
		return 0, err
	}
	viewIncrements.Inc()
	return n, nil
}

// CreateComment attaches a comment to an existing post.
func (s *Service) CreateComment(ctx context.Context, postID, author, text string) (*domain.Comment, error) {
	c := &domain.Comment{
		PostID:     strings.TrimSpace(postID),
		AuthorName: strings.TrimSpace(author),
		Comment:    strings.TrimSpace(text),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.posts.GetByID(ctx, c.PostID); err != nil {
		return nil, err
	}
	return s.comments.Create(ctx, c)
}

func (s *Service) ListComments(ctx context.Context, postID string) ([]*domain.Comment, error) {
	if strings.TrimSpace(postID) == "" {
		return nil, domain.Invalid("post_id", "post id is required")
	}
	return s.comments.ListByPost(ctx, postID)
}
