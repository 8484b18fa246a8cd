package gormrepo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"event-portal/internal/domain"
	"event-portal/pkg/utils"
)

type posts struct {
	db      *gorm.DB
	timeout time.Duration
}

func (r *posts) withViews(db *gorm.DB) *gorm.DB {
	return db.Table("posts AS p").
		Select("p.*, COALESCE(pv.view_count, 0) AS view_count").
		Joins("LEFT JOIN post_views pv ON pv.post_id = p.id")
}

// Create inserts the post and its zero view counter together.
func (r *posts) Create(ctx context.Context, p *domain.Post) (*domain.Post, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Slug == "" {
		p.Slug = domain.Slugify(p.Title)
	}
	p.ID, p.Date, p.ViewCount = utils.NewID(), utils.Now(), 0
	p.Tags = domain.CleanTags(p.Tags)

	db, cancel := withTimeout(ctx, r.db, r.timeout)
	defer cancel()
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(postToRow(p)).Error; err != nil {
			return err
		}
		return tx.Create(&PostViewRow{PostID: p.ID}).Error
	})
	if err != nil {
		if isDupKey(err) {
			return nil, domain.Conflict("post", p.Slug, "slug already exists")
		}
		return nil, translate("create post", "post", p.ID, err)
	}
	return p, nil
}

func (r *posts) List(ctx context.Context) ([]*domain.Post, error) {
	db, cancel := withTimeout(ctx, r.db, r.timeout)
	defer cancel()
	var rows []postWithViews
	if err := r.withViews(db).Order("p.date DESC, p.id DESC").Scan(&rows).Error; err != nil {
		return nil, translate("list posts", "post", "", err)
	}
	out := make([]*domain.Post, 0, len(rows))
	for i := range rows {
		out = append(out, postFromRow(&rows[i].PostRow, rows[i].ViewCount))
	}
	return out, nil
}

func (r *posts) getBy(ctx context.Context, col, key string) (*domain.Post, error) {
	db, cancel := withTimeout(ctx, r.db, r.timeout)
	defer cancel()
	var rows []postWithViews
	if err := r.withViews(db).Where("p."+col+" = ?", key).Limit(1).Scan(&rows).Error; err != nil {
		return nil, translate("get post", "post", key, err)
	}
	if len(rows) == 0 {
		return nil, domain.NotFound("post", key)
	}
	return postFromRow(&rows[0].PostRow, rows[0].ViewCount), nil
}

func (r *posts) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	return r.getBy(ctx, "id", id)
}

func (r *posts) GetBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	return r.getBy(ctx, "slug", slug)
}

func (r *posts) Update(ctx context.Context, id string, patch domain.Patch) (*domain.Post, error) {
	db, cancel := withTimeout(ctx, r.db, r.timeout)
	defer cancel()
	var out *domain.Post
	err := db.Transaction(func(tx *gorm.DB) error {
		var row PostRow
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).Take(&row).Error; err != nil {
			return err
		}
		var views PostViewRow
		if err := tx.Where("post_id = ?", id).Take(&views).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		p := postFromRow(&row, views.ViewCount)
		if err := p.Apply(patch); err != nil {
			return err
		}
		next := postToRow(p)
		if err := tx.Model(next).Select("*").Updates(next).Error; err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, translate("update post", "post", id, err)
	}
	return out, nil
}

// Delete removes comments, the counter and the post in one transaction.
func (r *posts) Delete(ctx context.Context, id string) (bool, error) {
	db, cancel := withTimeout(ctx, r.db, r.timeout)
	defer cancel()
	deleted := false
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&CommentRow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&PostViewRow{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&PostRow{})
		deleted = res.RowsAffected > 0
		return res.Error
	})
	if err != nil {
		return false, translate("delete post", "post", id, err)
	}
	return deleted, nil
}

// IncrementViews holds a share lock on the post so a concurrent delete
// cannot leave a counter behind.
func (r *posts) IncrementViews(ctx context.Context, id string) (int64, error) {
	db, cancel := withTimeout(ctx, r.db, r.timeout)
	defer cancel()
	var views int64
	err := db.Transaction(func(tx *gorm.DB) error {
		var row PostRow
		if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).Select("id").Where("id = ?", id).Take(&row).Error; err != nil {
			return err
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}},
			DoUpdates: clause.Assignments(map[string]any{"view_count": gorm.Expr("post_views.view_count + 1")}),
		}).Create(&PostViewRow{PostID: id, ViewCount: 1}).Error
		if err != nil {
			return err
		}
		var counter PostViewRow
		if err := tx.Where("post_id = ?", id).Take(&counter).Error; err != nil {
			return err
		}
		views = counter.ViewCount
		return nil
	})
	if err != nil {
		return 0, translate("increment views", "post", id, err)
	}
	return views, nil
}

type comments struct {
	db      *gorm.DB
	timeout time.Duration
}

func (r *comments) Create(ctx context.Context, c *domain.Comment) (*domain.Comment, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.ID, c.SubmittedAt = utils.NewID(), utils.Now()
	db, cancel := withTimeout(ctx, r.db, r.timeout)
	defer cancel()
	row := &CommentRow{ID: c.ID, PostID: c.PostID, AuthorName: c.AuthorName, Comment: c.Comment, SubmittedAt: c.SubmittedAt}
	if err := db.Create(row).Error; err != nil {
		return nil, translate("create comment", "comment", c.ID, err)
	}
	return c, nil
}

func (r *comments) ListByPost(ctx context.Context, postID string) ([]*domain.Comment, error) {
	db, cancel := withTimeout(ctx, r.db, r.timeout)
	defer cancel()
	var rows []CommentRow
	if err := db.Where("post_id = ?", postID).Order(newestFirst).Find(&rows).Error; err != nil {
		return nil, translate("list comments", "comment", postID, err)
	}
	out := make([]*domain.Comment, 0, len(rows))
	for i := range rows {
		out = append(out, commentFromRow(&rows[i]))
	}
	return out, nil
}
