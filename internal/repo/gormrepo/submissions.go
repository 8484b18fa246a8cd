package gormrepo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"event-portal/internal/domain"
	"event-portal/pkg/utils"
)

// submissions serves one submission table. R is the row model; toRow and
// fromRow convert between it and the domain record.
type submissions[T any, S domain.Record[T], R any] struct {
	db       *gorm.DB
	timeout  time.Duration
	entity   string
	emailCol string
	toRow    func(S) *R
	fromRow  func(*R) S
}

const newestFirst = "submitted_at DESC, id DESC"

func (r *submissions[T, S, R]) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	return withTimeout(ctx, r.db, r.timeout)
}

func (r *submissions[T, S, R]) Create(ctx context.Context, s S) (S, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	s.Stamp(utils.NewID(), utils.Now())
	db, cancel := r.conn(ctx)
	defer cancel()
	if err := db.Create(r.toRow(s)).Error; err != nil {
		return nil, translate("create "+r.entity, r.entity, s.SubmissionID(), err)
	}
	return s, nil
}

func (r *submissions[T, S, R]) fromRows(rows []R) []S {
	out := make([]S, 0, len(rows))
	for i := range rows {
		out = append(out, r.fromRow(&rows[i]))
	}
	return out
}

func (r *submissions[T, S, R]) List(ctx context.Context) ([]S, error) {
	db, cancel := r.conn(ctx)
	defer cancel()
	var rows []R
	if err := db.Order(newestFirst).Find(&rows).Error; err != nil {
		return nil, translate("list "+r.entity, r.entity, "", err)
	}
	return r.fromRows(rows), nil
}

func (r *submissions[T, S, R]) GetByID(ctx context.Context, id string) (S, error) {
	db, cancel := r.conn(ctx)
	defer cancel()
	var row R
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, translate("get "+r.entity, r.entity, id, err)
	}
	return r.fromRow(&row), nil
}

func (r *submissions[T, S, R]) FindByEmail(ctx context.Context, email string) ([]S, error) {
	db, cancel := r.conn(ctx)
	defer cancel()
	var rows []R
	err := db.Where("LOWER("+r.emailCol+") = ?", domain.NormalizeEmail(email)).
		Order(newestFirst).Find(&rows).Error
	if err != nil {
		return nil, translate("find "+r.entity+" by email", r.entity, email, err)
	}
	return r.fromRows(rows), nil
}

// Update locks the row, checks the guards, merges the patch in memory and
// writes every column back in the same transaction.
func (r *submissions[T, S, R]) Update(ctx context.Context, id string, p domain.Patch, guards ...domain.Guard) (S, error) {
	db, cancel := r.conn(ctx)
	defer cancel()
	var out S
	err := db.Transaction(func(tx *gorm.DB) error {
		var row R
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).Take(&row).Error; err != nil {
			return err
		}
		s := r.fromRow(&row)
		if err := domain.CheckGuards(s.PaymentState(), guards); err != nil {
			return err
		}
		if err := s.Apply(p); err != nil {
			return err
		}
		next := r.toRow(s)
		if err := tx.Model(next).Select("*").Updates(next).Error; err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, translate("update "+r.entity, r.entity, id, err)
	}
	return out, nil
}

func (r *submissions[T, S, R]) SetStatus(ctx context.Context, ids []string, st domain.Status) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	db, cancel := r.conn(ctx)
	defer cancel()
	res := db.Model(new(R)).Where("id IN ?", ids).Update("status", string(st))
	if res.Error != nil {
		return 0, translate("set "+r.entity+" status", r.entity, "", res.Error)
	}
	return int(res.RowsAffected), nil
}

func (r *submissions[T, S, R]) Delete(ctx context.Context, id string) (bool, error) {
	db, cancel := r.conn(ctx)
	defer cancel()
	res := db.Where("id = ?", id).Delete(new(R))
	if res.Error != nil {
		return false, translate("delete "+r.entity, r.entity, id, res.Error)
	}
	return res.RowsAffected > 0, nil
}
