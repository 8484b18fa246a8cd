package filerepo

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-portal/internal/domain"
)

func newStore(t *testing.T) (*domain.Store, string) {
	t.Helper()
	dir := t.TempDir()
	st, err := Open(dir)
	require.NoError(t, err)
	return st, dir
}

func registration(email string) *domain.Registration {
	return &domain.Registration{
		FullName:            "Jane Doe",
		Email:               email,
		CompanyOrganization: "Acme",
		JobTitle:            "Engineer",
		YearsOfExperience:   3,
		Motivation:          "Learn Go",
	}
}

func TestEmptyCollections(t *testing.T) {
	st, _ := newStore(t)
	ctx := context.Background()

	regs, err := st.Registrations.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, regs)

	posts, err := st.Posts.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}

func TestSubmissionLifecycle(t *testing.T) {
	st, dir := newStore(t)
	ctx := context.Background()

	created, err := st.Registrations.Create(ctx, registration("Jane@Example.com"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, domain.KindRegistration, created.Type)
	assert.False(t, created.SubmittedAt.IsZero())

	got, err := st.Registrations.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, got.Email)

	found, err := st.Registrations.FindByEmail(ctx, "  JANE@example.com")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, created.ID, found[0].ID)

	n, err := st.Registrations.SetStatus(ctx, []string{created.ID, "ghost"}, domain.StatusPaymentPending)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	updated, err := st.Registrations.Update(ctx, created.ID, domain.Patch{
		"status": "awaiting_confirmation", "paymentMethod": "bank_transfer",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAwaitingConfirmation, updated.Status)
	assert.Equal(t, "Jane Doe", updated.FullName)

	raw, err := os.ReadFile(filepath.Join(dir, "registrations.json"))
	require.NoError(t, err)
	var docs []map[string]any
	require.NoError(t, json.Unmarshal(raw, &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "bank_transfer", docs[0]["paymentMethod"])

	ok, err := st.Registrations.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = st.Registrations.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateRejectsInvalid(t *testing.T) {
	st, dir := newStore(t)
	_, err := st.Showcases.Create(context.Background(), &domain.Showcase{ProjectName: "x"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, statErr := os.Stat(filepath.Join(dir, "showcases.json"))
	assert.True(t, os.IsNotExist(statErr), "nothing written")
}

func TestUpdateMissingID(t *testing.T) {
	st, _ := newStore(t)
	ctx := context.Background()

	_, err := st.Registrations.Update(ctx, "does-not-exist", domain.Patch{"status": "payment_pending"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	all, err := st.Registrations.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpdateInvalidPatchKeepsRecord(t *testing.T) {
	st, _ := newStore(t)
	ctx := context.Background()
	r, err := st.Registrations.Create(ctx, registration("a@b.co"))
	require.NoError(t, err)

	_, err = st.Registrations.Update(ctx, r.ID, domain.Patch{"email": "broken"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, err := st.Registrations.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@b.co", got.Email)
}

func TestUpdateGuardSeesStoredStatus(t *testing.T) {
	st, _ := newStore(t)
	ctx := context.Background()
	r, err := st.Registrations.Create(ctx, registration("a@b.co"))
	require.NoError(t, err)
	_, err = st.Registrations.SetStatus(ctx, []string{r.ID}, domain.StatusPaid)
	require.NoError(t, err)

	var seen domain.Status
	_, err = st.Registrations.Update(ctx, r.ID, domain.Patch{"status": "awaiting_confirmation"},
		func(cur domain.Payment) error {
			seen = cur.Status
			return domain.Conflict("registration", r.ID, "already paid")
		})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, domain.StatusPaid, seen)

	got, err := st.Registrations.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, got.Status)
}

func TestConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	st, _ := newStore(t)
	ctx := context.Background()
	var ids []string
	for i := 0; i < 8; i++ {
		r, err := st.Registrations.Create(ctx, registration("x@y.co"))
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := st.Registrations.Update(ctx, id, domain.Patch{"receiptNumber": "TX-" + id[:4]})
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	all, err := st.Registrations.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 8)
	for _, r := range all {
		assert.True(t, strings.HasPrefix(r.ReceiptNumber, "TX-"))
	}
}

func TestListNewestFirst(t *testing.T) {
	st, _ := newStore(t)
	ctx := context.Background()
	first, err := st.Registrations.Create(ctx, registration("a@b.co"))
	require.NoError(t, err)
	second, err := st.Registrations.Create(ctx, registration("a@b.co"))
	require.NoError(t, err)

	all, err := st.Registrations.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)
}

func TestPostTagsAtRest(t *testing.T) {
	st, dir := newStore(t)
	ctx := context.Background()

	p, err := st.Posts.Create(ctx, &domain.Post{Title: "Hello, World!", Tags: domain.Tags{"AI", " Web Dev "}})
	require.NoError(t, err)
	assert.Equal(t, "hello-world", p.Slug)
	assert.Equal(t, int64(0), p.ViewCount)

	raw, err := os.ReadFile(filepath.Join(dir, "posts.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"tags": "AI,Web Dev"`)

	got, err := st.Posts.GetBySlug(ctx, "hello-world")
	require.NoError(t, err)
	assert.Equal(t, domain.Tags{"AI", "Web Dev"}, got.Tags)

	_, err = st.Posts.GetBySlug(ctx, "hello")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = st.Posts.Create(ctx, &domain.Post{Title: "Hello World"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestDeletePostCascades(t *testing.T) {
	st, _ := newStore(t)
	ctx := context.Background()
	p, err := st.Posts.Create(ctx, &domain.Post{Title: "Doomed"})
	require.NoError(t, err)
	other, err := st.Posts.Create(ctx, &domain.Post{Title: "Survivor"})
	require.NoError(t, err)

	for _, text := range []string{"one", "two"} {
		_, err := st.Comments.Create(ctx, &domain.Comment{PostID: p.ID, AuthorName: "a", Comment: text})
		require.NoError(t, err)
	}
	_, err = st.Comments.Create(ctx, &domain.Comment{PostID: other.ID, AuthorName: "a", Comment: "keep"})
	require.NoError(t, err)

	ok, err := st.Posts.Delete(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	left, err := st.Comments.ListByPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
	kept, err := st.Comments.ListByPost(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, kept, 1)

	ok, err = st.Posts.Delete(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConcurrentViewIncrements(t *testing.T) {
	st, _ := newStore(t)
	ctx := context.Background()
	p, err := st.Posts.Create(ctx, &domain.Post{Title: "Popular"})
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := st.Posts.IncrementViews(ctx, p.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := st.Posts.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), got.ViewCount)

	_, err = st.Posts.IncrementViews(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCanceledContextIsUnavailable(t *testing.T) {
	st, _ := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := st.Posts.List(ctx)
	var se *domain.StorageError
	require.ErrorAs(t, err, &se)
	assert.True(t, se.Unavailable)
}

func TestCorruptFileIsStorageError(t *testing.T) {
	st, dir := newStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "comments.json"), []byte("{not json"), 0o600))
	_, err := st.Comments.ListByPost(context.Background(), "p")
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}
