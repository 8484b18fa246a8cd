package redisrepo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-portal/internal/domain"
)

func newStore(t *testing.T) (*domain.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, "test", 2*time.Second), mr
}

func showcase(email string) *domain.Showcase {
	return &domain.Showcase{
		ProjectName:    "Gopher Tracker",
		Tagline:        "Tracks gophers in real time",
		Description:    "A small service that tracks gophers across the field in real time.",
		Technologies:   "Go, Redis",
		PresenterName:  "Sam",
		PresenterEmail: email,
	}
}

func TestShowcaseLifecycle(t *testing.T) {
	st, mr := newStore(t)
	ctx := context.Background()

	s, err := st.Showcases.Create(ctx, showcase("Sam@Example.com"))
	require.NoError(t, err)
	assert.Equal(t, domain.KindShowcase, s.Type)
	assert.True(t, mr.Exists("test:showcase:doc:"+s.ID))

	found, err := st.Showcases.FindByEmail(ctx, "sam@example.com")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, s.ID, found[0].ID)

	updated, err := st.Showcases.Update(ctx, s.ID, domain.Patch{"presenterEmail": "new@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", updated.PresenterEmail)

	found, err = st.Showcases.FindByEmail(ctx, "sam@example.com")
	require.NoError(t, err)
	assert.Empty(t, found, "old email index cleared")
	found, err = st.Showcases.FindByEmail(ctx, "NEW@example.com")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	ok, err := st.Showcases.Delete(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = st.Showcases.Delete(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = st.Showcases.GetByID(ctx, s.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetStatusSkipsUnknown(t *testing.T) {
	st, _ := newStore(t)
	ctx := context.Background()
	a, err := st.Showcases.Create(ctx, showcase("a@example.com"))
	require.NoError(t, err)
	b, err := st.Showcases.Create(ctx, showcase("b@example.com"))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		n, err := st.Showcases.SetStatus(ctx, []string{a.ID, b.ID, "ghost"}, domain.StatusPaymentPending)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	}

	all, err := st.Showcases.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, b.ID, all[0].ID, "newest first")
	for _, s := range all {
		assert.Equal(t, domain.StatusPaymentPending, s.Status)
	}
}

func TestUpdateMissingDoesNotCreate(t *testing.T) {
	st, mr := newStore(t)
	_, err := st.Showcases.Update(context.Background(), "does-not-exist", domain.Patch{"status": "paid"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, mr.Exists("test:showcase:doc:does-not-exist"))
}

func TestIDsCannotReachIndexKeys(t *testing.T) {
	st, mr := newStore(t)
	ctx := context.Background()
	_, err := st.Showcases.Create(ctx, showcase("sam@example.com"))
	require.NoError(t, err)
	p, err := st.Posts.Create(ctx, &domain.Post{Title: "Hello World"})
	require.NoError(t, err)
	require.True(t, mr.Exists("test:showcase:email:sam@example.com"))
	require.True(t, mr.Exists("test:post:slug:hello-world"))

	_, err = st.Showcases.GetByID(ctx, "email:sam@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = st.Showcases.Update(ctx, "email:sam@example.com", domain.Patch{"tagline": "A brand new tagline"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	ok, err := st.Showcases.Delete(ctx, "email:sam@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	const slugID = "slug:hello-world"
	_, err = st.Posts.GetByID(ctx, slugID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = st.Posts.Update(ctx, slugID, domain.Patch{"title": "Other"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = st.Posts.IncrementViews(ctx, slugID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, mr.Exists("test:post:views:"+slugID), "no orphan counter")
	ok, err = st.Posts.Delete(ctx, slugID)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := mr.Get("test:post:slug:hello-world")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got, "index keys untouched")
	found, err := st.Showcases.FindByEmail(ctx, "sam@example.com")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestUpdateGuardRunsInsideWatch(t *testing.T) {
	st, _ := newStore(t)
	ctx := context.Background()
	s, err := st.Showcases.Create(ctx, showcase("sam@example.com"))
	require.NoError(t, err)
	_, err = st.Showcases.SetStatus(ctx, []string{s.ID}, domain.StatusPaid)
	require.NoError(t, err)

	_, err = st.Showcases.Update(ctx, s.ID, domain.Patch{"status": "awaiting_confirmation"},
		func(cur domain.Payment) error {
			if !cur.Status.CanAdvance(domain.StatusAwaitingConfirmation) {
				return domain.Conflict("showcase", s.ID, "cannot move backwards")
			}
			return nil
		})
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := st.Showcases.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, got.Status)
}

func TestPostSlugReservation(t *testing.T) {
	st, mr := newStore(t)
	ctx := context.Background()

	p, err := st.Posts.Create(ctx, &domain.Post{Title: "Go Tips", Tags: domain.Tags{"AI", "Web Dev"}})
	require.NoError(t, err)
	got, err := mr.Get("test:post:slug:go-tips")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got)

	_, err = st.Posts.Create(ctx, &domain.Post{Title: "go  tips"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	bySlug, err := st.Posts.GetBySlug(ctx, "go-tips")
	require.NoError(t, err)
	assert.Equal(t, domain.Tags{"AI", "Web Dev"}, bySlug.Tags)
	assert.Zero(t, bySlug.ViewCount)
}

func TestPostUpdateKeepsSlugAndViews(t *testing.T) {
	st, _ := newStore(t)
	ctx := context.Background()
	p, err := st.Posts.Create(ctx, &domain.Post{Title: "Original"})
	require.NoError(t, err)
	_, err = st.Posts.IncrementViews(ctx, p.ID)
	require.NoError(t, err)

	up, err := st.Posts.Update(ctx, p.ID, domain.Patch{"title": "Renamed", "tags": []any{"go"}})
	require.NoError(t, err)
	assert.Equal(t, "original", up.Slug)
	assert.Equal(t, "Renamed", up.Title)
	assert.Equal(t, int64(1), up.ViewCount)
	assert.Equal(t, domain.Tags{"go"}, up.Tags)
}

func TestDeletePostCascades(t *testing.T) {
	st, mr := newStore(t)
	ctx := context.Background()
	p, err := st.Posts.Create(ctx, &domain.Post{Title: "Short Lived"})
	require.NoError(t, err)
	var commentIDs []string
	for _, text := range []string{"first", "second"} {
		c, err := st.Comments.Create(ctx, &domain.Comment{PostID: p.ID, AuthorName: "Ana", Comment: text})
		require.NoError(t, err)
		commentIDs = append(commentIDs, c.ID)
	}

	listed, err := st.Comments.ListByPost(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, commentIDs[1], listed[0].ID, "newest first")

	ok, err := st.Posts.Delete(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	left, err := st.Comments.ListByPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
	for _, id := range commentIDs {
		assert.False(t, mr.Exists("test:comment:doc:"+id))
	}
	assert.False(t, mr.Exists("test:post:slug:short-lived"))

	_, err = st.Posts.IncrementViews(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, mr.Exists("test:post:views:"+p.ID))
}

func TestConcurrentIncrements(t *testing.T) {
	st, _ := newStore(t)
	ctx := context.Background()
	p, err := st.Posts.Create(ctx, &domain.Post{Title: "Busy"})
	require.NoError(t, err)

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = st.Posts.IncrementViews(ctx, p.ID)
		}()
	}
	wg.Wait()

	got, err := st.Posts.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, got.ViewCount, int64(1))
	assert.LessOrEqual(t, got.ViewCount, int64(n))
}

func TestServerDownIsUnavailable(t *testing.T) {
	st, mr := newStore(t)
	mr.Close()

	_, err := st.Posts.List(context.Background())
	var se *domain.StorageError
	require.ErrorAs(t, err, &se)
	assert.True(t, se.Unavailable)
}
