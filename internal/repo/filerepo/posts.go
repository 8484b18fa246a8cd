package filerepo

import (
	"cmp"
	"context"
	"slices"
	"time"

	"event-portal/internal/domain"
	"event-portal/pkg/utils"
)

// postRecord is the at-rest shape: tags are a single comma separated string
// and the view counter lives in the record.
type postRecord struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Excerpt   string    `json:"excerpt"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	Date      time.Time `json:"date"`
	Image     string    `json:"image,omitempty"`
	AIHint    string    `json:"ai_hint,omitempty"`
	Tags      string    `json:"tags"`
	ViewCount int64     `json:"view_count"`
}

func toRecord(p *domain.Post) postRecord {
	return postRecord{
		ID: p.ID, Slug: p.Slug, Title: p.Title, Excerpt: p.Excerpt, Content: p.Content,
		Author: p.Author, Date: p.Date, Image: p.Image, AIHint: p.AIHint,
		Tags: domain.JoinTags(p.Tags), ViewCount: p.ViewCount,
	}
}

func (r postRecord) post() *domain.Post {
	return &domain.Post{
		ID: r.ID, Slug: r.Slug, Title: r.Title, Excerpt: r.Excerpt, Content: r.Content,
		Author: r.Author, Date: r.Date, Image: r.Image, AIHint: r.AIHint,
		Tags: domain.SplitTags(r.Tags), ViewCount: r.ViewCount,
	}
}

// Lock order is posts before comments.
type posts struct {
	c        *collection[postRecord]
	comments *collection[domain.Comment]
}

func (r *posts) Create(ctx context.Context, p *domain.Post) (*domain.Post, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Slug == "" {
		p.Slug = domain.Slugify(p.Title)
	}
	p.ID, p.Date, p.ViewCount = utils.NewID(), utils.Now(), 0
	p.Tags = domain.CleanTags(p.Tags)
	err := r.c.mutate(ctx, func(items []postRecord) ([]postRecord, bool, error) {
		for _, it := range items {
			if it.Slug == p.Slug {
				return nil, false, domain.Conflict("post", p.Slug, "slug already exists")
			}
		}
		return append(items, toRecord(p)), true, nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *posts) List(ctx context.Context) ([]*domain.Post, error) {
	items, err := r.c.read(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Post, 0, len(items))
	for _, it := range items {
		out = append(out, it.post())
	}
	slices.SortFunc(out, func(a, b *domain.Post) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

func (r *posts) find(ctx context.Context, key string, match func(postRecord) bool) (*domain.Post, error) {
	items, err := r.c.read(ctx)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if match(it) {
			return it.post(), nil
		}
	}
	return nil, domain.NotFound("post", key)
}

func (r *posts) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	return r.find(ctx, id, func(it postRecord) bool { return it.ID == id })
}

func (r *posts) GetBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	return r.find(ctx, slug, func(it postRecord) bool { return it.Slug == slug })
}

func (r *posts) Update(ctx context.Context, id string, patch domain.Patch) (*domain.Post, error) {
	var updated *domain.Post
	err := r.c.mutate(ctx, func(items []postRecord) ([]postRecord, bool, error) {
		i := slices.IndexFunc(items, func(it postRecord) bool { return it.ID == id })
		if i < 0 {
			return nil, false, domain.NotFound("post", id)
		}
		p := items[i].post()
		if err := p.Apply(patch); err != nil {
			return nil, false, err
		}
		items[i] = toRecord(p)
		updated = p
		return items, true, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the comments first so a failure never leaves orphans behind
// a deleted post.
func (r *posts) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, domain.Unavailable("delete post", err)
	}
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	items, err := r.c.load()
	if err != nil {
		return false, err
	}
	i := slices.IndexFunc(items, func(it postRecord) bool { return it.ID == id })
	if i < 0 {
		return false, nil
	}
	err = r.comments.mutate(ctx, func(cs []domain.Comment) ([]domain.Comment, bool, error) {
		n := len(cs)
		cs = slices.DeleteFunc(cs, func(c domain.Comment) bool { return c.PostID == id })
		return cs, len(cs) != n, nil
	})
	if err != nil {
		return false, err
	}
	if err := r.c.save(slices.Delete(items, i, i+1)); err != nil {
		return false, err
	}
	return true, nil
}

func (r *posts) IncrementViews(ctx context.Context, id string) (int64, error) {
	var views int64
	err := r.c.mutate(ctx, func(items []postRecord) ([]postRecord, bool, error) {
		i := slices.IndexFunc(items, func(it postRecord) bool { return it.ID == id })
		if i < 0 {
			return nil, false, domain.NotFound("post", id)
		}
		items[i].ViewCount++
		views = items[i].ViewCount
		return items, true, nil
	})
	return views, err
}

type commentRepo struct {
	c *collection[domain.Comment]
}

func (r *commentRepo) Create(ctx context.Context, c *domain.Comment) (*domain.Comment, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.ID, c.SubmittedAt = utils.NewID(), utils.Now()
	err := r.c.mutate(ctx, func(items []domain.Comment) ([]domain.Comment, bool, error) {
		return append(items, *c), true, nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *commentRepo) ListByPost(ctx context.Context, postID string) ([]*domain.Comment, error) {
	items, err := r.c.read(ctx)
	if err != nil {
		return nil, err
	}
	out := []*domain.Comment{}
	for i := range items {
		if items[i].PostID == postID {
			out = append(out, &items[i])
		}
	}
	slices.SortFunc(out, func(a, b *domain.Comment) int {
		if c := b.SubmittedAt.Compare(a.SubmittedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}
