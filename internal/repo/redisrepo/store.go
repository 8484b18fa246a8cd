// Package redisrepo keeps every entity as a JSON document in redis.
//
// Keys, under a configurable prefix:
//
//	<p>:<kind>:doc:<id>          document
//	<p>:<kind>s                  sorted set of ids by creation time
//	<p>:<kind>:email:<email>     set of submission ids per normalized email
//	<p>:post:slug:<slug>         post id
//	<p>:post:views:<id>          view counter
//	<p>:post:comments:<id>       sorted set of comment ids
//
// Documents live under their own doc segment, so a caller supplied id can
// never name one of the index keys.
//
// Multi-key writes run in WATCH/MULTI transactions and are retried a few
// times before surfacing a ConflictError.
package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"event-portal/internal/domain"
)

const maxTxRetries = 5

type keys struct{ prefix string }

func (k keys) doc(kind, id string) string      { return k.prefix + ":" + kind + ":doc:" + id }
func (k keys) index(kind string) string        { return k.prefix + ":" + kind + "s" }
func (k keys) email(kind, email string) string { return k.prefix + ":" + kind + ":email:" + email }
func (k keys) slug(slug string) string         { return k.prefix + ":post:slug:" + slug }
func (k keys) views(postID string) string      { return k.prefix + ":post:views:" + postID }
func (k keys) comments(postID string) string   { return k.prefix + ":post:comments:" + postID }

type base struct {
	rdb     redis.UniversalClient
	k       keys
	timeout time.Duration
}

func (b *base) ctx(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, b.timeout)
}

// watch runs fn under WATCH keys, retrying when another client touched them.
func (b *base) watch(ctx context.Context, op, entity, id string, fn func(*redis.Tx) error, watched ...string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := b.rdb.Watch(ctx, fn, watched...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return translate(op, err)
	}
	return domain.Conflict(entity, id, "concurrent modification, retry later")
}

type reader interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
}

// mget loads documents by key, skipping ones deleted in the meantime.
func mget[T any](ctx context.Context, c reader, op string, docKeys []string) ([]*T, error) {
	out := make([]*T, 0, len(docKeys))
	if len(docKeys) == 0 {
		return out, nil
	}
	vals, err := c.MGet(ctx, docKeys...).Result()
	if err != nil {
		return nil, translate(op, err)
	}
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		item := new(T)
		if err := json.Unmarshal([]byte(s), item); err != nil {
			return nil, domain.Storage(op, err)
		}
		out = append(out, item)
	}
	return out, nil
}

func getDoc[T any](ctx context.Context, c reader, op, entity, id, key string) (*T, error) {
	raw, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.NotFound(entity, id)
	}
	if err != nil {
		return nil, translate(op, err)
	}
	item := new(T)
	if err := json.Unmarshal(raw, item); err != nil {
		return nil, domain.Storage(op, err)
	}
	return item, nil
}

func score(t time.Time) float64 { return float64(t.UnixMicro()) }

func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrStorage):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled), errors.Is(err, redis.ErrClosed):
		return domain.Unavailable(op, err)
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return domain.Unavailable(op, err)
	}
	return domain.Storage(op, err)
}

// New builds a store on rdb. A positive timeout bounds every operation.
func New(rdb redis.UniversalClient, prefix string, timeout time.Duration) *domain.Store {
	b := &base{rdb: rdb, k: keys{prefix: prefix}, timeout: timeout}
	return &domain.Store{
		Registrations: &submissions[domain.Registration, *domain.Registration]{base: b, kind: string(domain.KindRegistration)},
		Showcases:     &submissions[domain.Showcase, *domain.Showcase]{base: b, kind: string(domain.KindShowcase)},
		Posts:         &posts{base: b},
		Comments:      &comments{base: b},
		Close:         rdb.Close,
	}
}
