package gormrepo

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"event-portal/internal/domain"
)

func newMockStore(t *testing.T) (*domain.Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = sqlDB.Close()
	})
	return New(db, 0), mock
}

var registrationCols = []string{
	"id", "full_name", "email", "phone_number", "company_organization", "job_title",
	"years_of_experience", "what_do_you_hope_to_learn", "status", "payment_method",
	"receipt_number", "submitted_at",
}

func TestGetByIDNotFound(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT \* FROM "registrations" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(registrationCols))

	_, err := st.Registrations.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListErrorsAreStorageErrors(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		wantUnavailable bool
	}{
		{"query failure", errors.New(`ERROR: relation "showcases" does not exist`), false},
		{"connection refused", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st, mock := newMockStore(t)
			mock.ExpectQuery(`SELECT \* FROM "showcases" ORDER BY submitted_at DESC, id DESC`).
				WillReturnError(tc.err)

			_, err := st.Showcases.List(context.Background())
			require.ErrorIs(t, err, domain.ErrStorage)
			assert.NotErrorIs(t, err, domain.ErrNotFound)
			var se *domain.StorageError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tc.wantUnavailable, se.Unavailable)
		})
	}
}

func TestFindByEmailIsCaseInsensitive(t *testing.T) {
	st, mock := newMockStore(t)
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT \* FROM "registrations" WHERE LOWER\(email\) = \$1 ORDER BY submitted_at DESC, id DESC`).
		WithArgs("jane@example.com").
		WillReturnRows(sqlmock.NewRows(registrationCols).
			AddRow("r-2", "Jane", "Jane@Example.com", "", "Acme", "Dev", 2, "Go", "", "", "", at.Add(time.Hour)).
			AddRow("r-1", "Jane", "jane@example.com", "", "Acme", "Dev", 2, "Go", "", "", "", at))

	found, err := st.Registrations.FindByEmail(context.Background(), " Jane@Example.COM ")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "r-2", found[0].ID)
	assert.Equal(t, domain.KindRegistration, found[0].Type)
}

func TestUpdateMissingRollsBack(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "registrations" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(registrationCols))
	mock.ExpectRollback()

	_, err := st.Registrations.Update(context.Background(), "does-not-exist", domain.Patch{"status": "payment_pending"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateMergesAndWritesWholeRow(t *testing.T) {
	st, mock := newMockStore(t)
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "registrations" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(registrationCols).
			AddRow("r-1", "Jane", "jane@example.com", "", "Acme", "Dev", 2, "Go", "payment_pending", "", "", at))
	mock.ExpectExec(`UPDATE "registrations" SET .*"status"=.*WHERE "id" = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	r, err := st.Registrations.Update(context.Background(), "r-1", domain.Patch{
		"status": "awaiting_confirmation", "paymentMethod": "bank_branch",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAwaitingConfirmation, r.Status)
	assert.Equal(t, domain.BankBranch, r.PaymentMethod)
	assert.Equal(t, "Jane", r.FullName)
	assert.Equal(t, at, r.SubmittedAt)
}

func TestUpdateInvalidPatchRollsBack(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(registrationCols).
			AddRow("r-1", "Jane", "jane@example.com", "", "Acme", "Dev", 2, "Go", "", "", "", time.Now()))
	mock.ExpectRollback()

	_, err := st.Registrations.Update(context.Background(), "r-1", domain.Patch{"id": "r-2"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateGuardRejectsLockedRow(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "registrations" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(registrationCols).
			AddRow("r-1", "Jane", "jane@example.com", "", "Acme", "Dev", 2, "Go", "paid", "bank_branch", "RCPT-1", time.Now()))
	mock.ExpectRollback()

	_, err := st.Registrations.Update(context.Background(), "r-1", domain.Patch{"status": "awaiting_confirmation"},
		func(cur domain.Payment) error {
			if cur.Status.Terminal() {
				return domain.Conflict("registration", "r-1", "already paid")
			}
			return nil
		})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestSetStatusSingleStatement(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectExec(`UPDATE "showcases" SET "status"=\$1 WHERE id IN \(\$2,\$3\)`).
		WithArgs("payment_pending", "s-1", "ghost").
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := st.Showcases.SetStatus(context.Background(), []string{"s-1", "ghost"}, domain.StatusPaymentPending)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = st.Showcases.SetStatus(context.Background(), nil, domain.StatusPaymentPending)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDeleteSubmissionReportsMissing(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectExec(`DELETE FROM "registrations" WHERE id = \$1`).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := st.Registrations.Delete(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetPostBySlugJoinsViews(t *testing.T) {
	st, mock := newMockStore(t)
	cols := []string{"id", "slug", "title", "excerpt", "content", "author", "date", "image", "ai_hint", "tags", "view_count"}
	mock.ExpectQuery(`SELECT p\.\*, COALESCE\(pv\.view_count, 0\) AS view_count FROM posts AS p LEFT JOIN post_views pv ON pv\.post_id = p\.id WHERE p\.slug = \$1`).
		WithArgs("hello-world", 1).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("p-1", "hello-world", "Hello World", "", "<p>hi</p>", "Ana", time.Now(), "", "", "AI,Web Dev", 7))

	p, err := st.Posts.GetBySlug(context.Background(), "hello-world")
	require.NoError(t, err)
	assert.Equal(t, domain.Tags{"AI", "Web Dev"}, p.Tags)
	assert.Equal(t, int64(7), p.ViewCount)
}

func TestGetPostBySlugNotFound(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectQuery(`FROM posts AS p`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := st.Posts.GetBySlug(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreatePostDuplicateSlug(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "posts"`).
		WillReturnError(errors.New(`ERROR: duplicate key value violates unique constraint "idx_posts_slug" (SQLSTATE 23505)`))
	mock.ExpectRollback()

	_, err := st.Posts.Create(context.Background(), &domain.Post{Title: "Hello World"})
	var ce *domain.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "hello-world", ce.Key)
}

func TestCreatePostWritesZeroCounter(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "posts"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "post_views"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p, err := st.Posts.Create(context.Background(), &domain.Post{Title: "Fresh Post", Tags: domain.Tags{" go "}})
	require.NoError(t, err)
	assert.Equal(t, "fresh-post", p.Slug)
	assert.Equal(t, domain.Tags{"go"}, p.Tags)
	assert.Zero(t, p.ViewCount)
	assert.NotEmpty(t, p.ID)
}

func TestDeletePostCascadesInOneTransaction(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "comments" WHERE post_id = \$1`).WithArgs("p-1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM "post_views" WHERE post_id = \$1`).WithArgs("p-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "posts" WHERE id = \$1`).WithArgs("p-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ok, err := st.Posts.Delete(context.Background(), "p-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIncrementViewsMissingPost(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "id" FROM "posts" WHERE id = \$1 .*FOR SHARE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := st.Posts.IncrementViews(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListCommentsNewestFirst(t *testing.T) {
	st, mock := newMockStore(t)
	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT \* FROM "comments" WHERE post_id = \$1 ORDER BY submitted_at DESC, id DESC`).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "post_id", "author_name", "comment", "submitted_at"}).
			AddRow("c-2", "p-1", "Bo", "second", now).
			AddRow("c-1", "p-1", "Al", "first", now.Add(-time.Minute)))

	cs, err := st.Comments.ListByPost(context.Background(), "p-1")
	require.NoError(t, err)
	require.Len(t, cs, 2)
	assert.Equal(t, "c-2", cs[0].ID)
}

func TestCreateCommentValidates(t *testing.T) {
	st, _ := newMockStore(t)
	_, err := st.Comments.Create(context.Background(), &domain.Comment{PostID: "p-1", Comment: "hi"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
