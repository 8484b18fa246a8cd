package redisrepo

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"slices"

	"github.com/redis/go-redis/v9"

	"event-portal/internal/domain"
	"event-portal/pkg/utils"
)

type submissions[T any, S domain.Record[T]] struct {
	*base
	kind string
}

func (r *submissions[T, S]) docKeys(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = r.k.doc(r.kind, id)
	}
	return out
}

func (r *submissions[T, S]) emailKey(s S) string {
	return r.k.email(r.kind, domain.NormalizeEmail(s.ContactEmail()))
}

func (r *submissions[T, S]) Create(ctx context.Context, s S) (S, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	s.Stamp(utils.NewID(), utils.Now())
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, domain.Storage("encode "+r.kind, err)
	}
	ctx, cancel := r.ctx(ctx)
	defer cancel()
	_, err = r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.k.doc(r.kind, s.SubmissionID()), raw, 0)
		p.ZAdd(ctx, r.k.index(r.kind), redis.Z{Score: score(s.SubmittedOn()), Member: s.SubmissionID()})
		p.SAdd(ctx, r.emailKey(s), s.SubmissionID())
		return nil
	})
	if err != nil {
		return nil, translate("create "+r.kind, err)
	}
	return s, nil
}

func (r *submissions[T, S]) load(ctx context.Context, c reader, op string, ids []string) ([]S, error) {
	items, err := mget[T](ctx, c, op, r.docKeys(ids))
	if err != nil {
		return nil, err
	}
	out := make([]S, 0, len(items))
	for _, it := range items {
		out = append(out, S(it))
	}
	return out, nil
}

func (r *submissions[T, S]) List(ctx context.Context) ([]S, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()
	ids, err := r.rdb.ZRevRange(ctx, r.k.index(r.kind), 0, -1).Result()
	if err != nil {
		return nil, translate("list "+r.kind, err)
	}
	return r.load(ctx, r.rdb, "list "+r.kind, ids)
}

func (r *submissions[T, S]) GetByID(ctx context.Context, id string) (S, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()
	item, err := getDoc[T](ctx, r.rdb, "get "+r.kind, r.kind, id, r.k.doc(r.kind, id))
	if err != nil {
		return nil, err
	}
	return S(item), nil
}

func (r *submissions[T, S]) FindByEmail(ctx context.Context, email string) ([]S, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()
	email = domain.NormalizeEmail(email)
	ids, err := r.rdb.SMembers(ctx, r.k.email(r.kind, email)).Result()
	if err != nil {
		return nil, translate("find "+r.kind+" by email", err)
	}
	found, err := r.load(ctx, r.rdb, "find "+r.kind+" by email", ids)
	if err != nil {
		return nil, err
	}
	found = slices.DeleteFunc(found, func(s S) bool { return domain.NormalizeEmail(s.ContactEmail()) != email })
	slices.SortFunc(found, func(a, b S) int {
		if c := b.SubmittedOn().Compare(a.SubmittedOn()); c != 0 {
			return c
		}
		return cmp.Compare(b.SubmissionID(), a.SubmissionID())
	})
	return found, nil
}

func (r *submissions[T, S]) Update(ctx context.Context, id string, p domain.Patch, guards ...domain.Guard) (S, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()
	key := r.k.doc(r.kind, id)
	var out S
	err := r.watch(ctx, "update "+r.kind, r.kind, id, func(tx *redis.Tx) error {
		cur, err := getDoc[T](ctx, tx, "update "+r.kind, r.kind, id, key)
		if err != nil {
			return err
		}
		if err := domain.CheckGuards(S(cur).PaymentState(), guards); err != nil {
			return err
		}
		oldEmail := r.emailKey(S(cur))
		next := *cur
		s := S(&next)
		if err := s.Apply(p); err != nil {
			return err
		}
		raw, err := json.Marshal(s)
		if err != nil {
			return domain.Storage("encode "+r.kind, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, 0)
			if newEmail := r.emailKey(s); newEmail != oldEmail {
				pipe.SRem(ctx, oldEmail, id)
				pipe.SAdd(ctx, newEmail, id)
			}
			return nil
		})
		out = s
		return err
	}, key)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetStatus rewrites every existing document in one MULTI so readers never
// see half a batch.
func (r *submissions[T, S]) SetStatus(ctx context.Context, ids []string, st domain.Status) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ctx, cancel := r.ctx(ctx)
	defer cancel()
	keys := r.docKeys(ids)
	n := 0
	err := r.watch(ctx, "set "+r.kind+" status", r.kind, "", func(tx *redis.Tx) error {
		found, err := r.load(ctx, tx, "set "+r.kind+" status", ids)
		if err != nil {
			return err
		}
		n = len(found)
		if n == 0 {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, s := range found {
				s.SetStatus(st)
				raw, err := json.Marshal(s)
				if err != nil {
					return domain.Storage("encode "+r.kind, err)
				}
				pipe.Set(ctx, r.k.doc(r.kind, s.SubmissionID()), raw, 0)
			}
			return nil
		})
		return err
	}, keys...)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (r *submissions[T, S]) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()
	key := r.k.doc(r.kind, id)
	deleted := false
	err := r.watch(ctx, "delete "+r.kind, r.kind, id, func(tx *redis.Tx) error {
		cur, err := getDoc[T](ctx, tx, "delete "+r.kind, r.kind, id, key)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.ZRem(ctx, r.k.index(r.kind), id)
			pipe.SRem(ctx, r.emailKey(S(cur)), id)
			return nil
		})
		deleted = err == nil
		return err
	}, key)
	return deleted, err
}
