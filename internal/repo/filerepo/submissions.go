package filerepo

import (
	"cmp"
	"context"
	"slices"

	"event-portal/internal/domain"
	"event-portal/pkg/utils"
)

type submissions[T any, S domain.Record[T]] struct {
	c      *collection[T]
	entity string
}

func newSubmissions[T any, S domain.Record[T]](dir, file, entity string) *submissions[T, S] {
	return &submissions[T, S]{c: newCollection[T](dir, file), entity: entity}
}

func newestFirst[T any, S domain.Record[T]](a, b S) int {
	if c := b.SubmittedOn().Compare(a.SubmittedOn()); c != 0 {
		return c
	}
	return cmp.Compare(b.SubmissionID(), a.SubmissionID())
}

func (r *submissions[T, S]) Create(ctx context.Context, s S) (S, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	s.Stamp(utils.NewID(), utils.Now())
	err := r.c.mutate(ctx, func(items []T) ([]T, bool, error) {
		return append(items, *s), true, nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *submissions[T, S]) List(ctx context.Context) ([]S, error) {
	items, err := r.c.read(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]S, 0, len(items))
	for i := range items {
		out = append(out, S(&items[i]))
	}
	slices.SortFunc(out, newestFirst[T, S])
	return out, nil
}

func (r *submissions[T, S]) GetByID(ctx context.Context, id string) (S, error) {
	items, err := r.c.read(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if s := S(&items[i]); s.SubmissionID() == id {
			return s, nil
		}
	}
	return nil, domain.NotFound(r.entity, id)
}

func (r *submissions[T, S]) FindByEmail(ctx context.Context, email string) ([]S, error) {
	items, err := r.c.read(ctx)
	if err != nil {
		return nil, err
	}
	email = domain.NormalizeEmail(email)
	var out []S
	for i := range items {
		if s := S(&items[i]); domain.NormalizeEmail(s.ContactEmail()) == email {
			out = append(out, s)
		}
	}
	slices.SortFunc(out, newestFirst[T, S])
	return out, nil
}

func (r *submissions[T, S]) Update(ctx context.Context, id string, p domain.Patch, guards ...domain.Guard) (S, error) {
	var updated S
	err := r.c.mutate(ctx, func(items []T) ([]T, bool, error) {
		for i := range items {
			cur := S(&items[i])
			if cur.SubmissionID() != id {
				continue
			}
			if err := domain.CheckGuards(cur.PaymentState(), guards); err != nil {
				return nil, false, err
			}
			next := items[i]
			if err := S(&next).Apply(p); err != nil {
				return nil, false, err
			}
			items[i] = next
			updated = S(&next)
			return items, true, nil
		}
		return nil, false, domain.NotFound(r.entity, id)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *submissions[T, S]) SetStatus(ctx context.Context, ids []string, st domain.Status) (int, error) {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	n := 0
	err := r.c.mutate(ctx, func(items []T) ([]T, bool, error) {
		for i := range items {
			s := S(&items[i])
			if _, ok := want[s.SubmissionID()]; ok {
				s.SetStatus(st)
				n++
			}
		}
		return items, n > 0, nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (r *submissions[T, S]) Delete(ctx context.Context, id string) (bool, error) {
	deleted := false
	err := r.c.mutate(ctx, func(items []T) ([]T, bool, error) {
		kept := slices.DeleteFunc(items, func(it T) bool { return S(&it).SubmissionID() == id })
		deleted = len(kept) != len(items)
		return kept, deleted, nil
	})
	return deleted, err
}
