package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"event-portal/internal/domain"
	"event-portal/pkg/utils"
)

const kindPost = "post"

// postDoc is the stored form; tags are joined and views live in a counter key.
type postDoc struct {
	ID      string    `json:"id"`
	Slug    string    `json:"slug"`
	Title   string    `json:"title"`
	Excerpt string    `json:"excerpt"`
	Content string    `json:"content"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
	Image   string    `json:"image,omitempty"`
	AIHint  string    `json:"ai_hint,omitempty"`
	Tags    string    `json:"tags"`
}

func toDoc(p *domain.Post) postDoc {
	return postDoc{
		ID: p.ID, Slug: p.Slug, Title: p.Title, Excerpt: p.Excerpt, Content: p.Content,
		Author: p.Author, Date: p.Date, Image: p.Image, AIHint: p.AIHint, Tags: domain.JoinTags(p.Tags),
	}
}

func (d *postDoc) post(views int64) *domain.Post {
	return &domain.Post{
		ID: d.ID, Slug: d.Slug, Title: d.Title, Excerpt: d.Excerpt, Content: d.Content,
		Author: d.Author, Date: d.Date, Image: d.Image, AIHint: d.AIHint,
		Tags: domain.SplitTags(d.Tags), ViewCount: views,
	}
}

type posts struct{ *base }

func (r *posts) Create(ctx context.Context, p *domain.Post) (*domain.Post, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Slug == "" {
		p.Slug = domain.Slugify(p.Title)
	}
	p.ID, p.Date, p.ViewCount = utils.NewID(), utils.Now(), 0
	p.Tags = domain.CleanTags(p.Tags)
	raw, err := json.Marshal(toDoc(p))
	if err != nil {
		return nil, domain.Storage("encode post", err)
	}
	ctx, cancel := r.ctx(ctx)
	defer cancel()
	slugKey := r.k.slug(p.Slug)
	err = r.watch(ctx, "create post", kindPost, p.Slug, func(tx *redis.Tx) error {
		taken, err := tx.Exists(ctx, slugKey).Result()
		if err != nil {
			return err
		}
		if taken > 0 {
			return domain.Conflict(kindPost, p.Slug, "slug already exists")
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, slugKey, p.ID, 0)
			pipe.Set(ctx, r.k.doc(kindPost, p.ID), raw, 0)
			pipe.Set(ctx, r.k.views(p.ID), 0, 0)
			pipe.ZAdd(ctx, r.k.index(kindPost), redis.Z{Score: score(p.Date), Member: p.ID})
			return nil
		})
		return err
	}, slugKey)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *posts) views(ctx context.Context, ids []string) (map[string]int64, error) {
	out := make(map[string]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.k.views(id)
	}
	vals, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, translate("read views", err)
	}
	for i, v := range vals {
		if s, ok := v.(string); ok {
			n, _ := strconv.ParseInt(s, 10, 64)
			out[ids[i]] = n
		}
	}
	return out, nil
}

func (r *posts) List(ctx context.Context) ([]*domain.Post, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()
	ids, err := r.rdb.ZRevRange(ctx, r.k.index(kindPost), 0, -1).Result()
	if err != nil {
		return nil, translate("list posts", err)
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.k.doc(kindPost, id)
	}
	docs, err := mget[postDoc](ctx, r.rdb, "list posts", keys)
	if err != nil {
		return nil, err
	}
	counts, err := r.views(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Post, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.post(counts[d.ID]))
	}
	return out, nil
}

func (r *posts) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()
	return r.get(ctx, id)
}

func (r *posts) get(ctx context.Context, id string) (*domain.Post, error) {
	d, err := getDoc[postDoc](ctx, r.rdb, "get post", kindPost, id, r.k.doc(kindPost, id))
	if err != nil {
		return nil, err
	}
	counts, err := r.views(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	return d.post(counts[id]), nil
}

func (r *posts) GetBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()
	id, err := r.rdb.Get(ctx, r.k.slug(slug)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.NotFound(kindPost, slug)
	}
	if err != nil {
		return nil, translate("get post by slug", err)
	}
	p, err := r.get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound(kindPost, slug)
	}
	return p, err
}

func (r *posts) Update(ctx context.Context, id string, patch domain.Patch) (*domain.Post, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()
	key := r.k.doc(kindPost, id)
	var out *domain.Post
	err := r.watch(ctx, "update post", kindPost, id, func(tx *redis.Tx) error {
		d, err := getDoc[postDoc](ctx, tx, "update post", kindPost, id, key)
		if err != nil {
			return err
		}
		p := d.post(0)
		if err := p.Apply(patch); err != nil {
			return err
		}
		raw, err := json.Marshal(toDoc(p))
		if err != nil {
			return domain.Storage("encode post", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, 0)
			return nil
		})
		out = p
		return err
	}, key)
	if err != nil {
		return nil, err
	}
	counts, err := r.views(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	out.ViewCount = counts[id]
	return out, nil
}

// Delete watches the comment index too, so a comment added mid-delete forces
// a retry instead of becoming an orphan.
func (r *posts) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()
	key, commentsKey := r.k.doc(kindPost, id), r.k.comments(id)
	deleted := false
	err := r.watch(ctx, "delete post", kindPost, id, func(tx *redis.Tx) error {
		d, err := getDoc[postDoc](ctx, tx, "delete post", kindPost, id, key)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		commentIDs, err := tx.ZRange(ctx, commentsKey, 0, -1).Result()
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, cid := range commentIDs {
				pipe.Del(ctx, r.k.doc(kindComment, cid))
			}
			pipe.Del(ctx, commentsKey, r.k.views(id), key)
			pipe.Del(ctx, r.k.slug(d.Slug))
			pipe.ZRem(ctx, r.k.index(kindPost), id)
			return nil
		})
		deleted = err == nil
		return err
	}, key, commentsKey)
	return deleted, err
}

// IncrementViews bumps the counter only while the post document still exists.
func (r *posts) IncrementViews(ctx context.Context, id string) (int64, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()
	key := r.k.doc(kindPost, id)
	var incr *redis.IntCmd
	err := r.watch(ctx, "increment views", kindPost, id, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.NotFound(kindPost, id)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, r.k.views(id))
			return nil
		})
		return err
	}, key)
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

const kindComment = "comment"

type comments struct{ *base }

func (r *comments) Create(ctx context.Context, c *domain.Comment) (*domain.Comment, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.ID, c.SubmittedAt = utils.NewID(), utils.Now()
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, domain.Storage("encode comment", err)
	}
	ctx, cancel := r.ctx(ctx)
	defer cancel()
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.k.doc(kindComment, c.ID), raw, 0)
		pipe.ZAdd(ctx, r.k.comments(c.PostID), redis.Z{Score: score(c.SubmittedAt), Member: c.ID})
		return nil
	})
	if err != nil {
		return nil, translate("create comment", err)
	}
	return c, nil
}

func (r *comments) ListByPost(ctx context.Context, postID string) ([]*domain.Comment, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()
	ids, err := r.rdb.ZRevRange(ctx, r.k.comments(postID), 0, -1).Result()
	if err != nil {
		return nil, translate("list comments", err)
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.k.doc(kindComment, id)
	}
	return mget[domain.Comment](ctx, r.rdb, "list comments", keys)
}
