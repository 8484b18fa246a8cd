// Package gormrepo stores every collection in its own table through gorm.
package gormrepo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"event-portal/internal/domain"
)

// Migrate creates or updates every table the store uses.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&RegistrationRow{}, &ShowcaseRow{}, &PostRow{}, &PostViewRow{}, &CommentRow{})
}

// New wraps db. A positive timeout bounds every operation.
func New(db *gorm.DB, timeout time.Duration) *domain.Store {
	return &domain.Store{
		Registrations: &submissions[domain.Registration, *domain.Registration, RegistrationRow]{
			db: db, timeout: timeout, entity: "registration", emailCol: "email",
			toRow: registrationToRow, fromRow: registrationFromRow,
		},
		Showcases: &submissions[domain.Showcase, *domain.Showcase, ShowcaseRow]{
			db: db, timeout: timeout, entity: "showcase", emailCol: "presenter_email",
			toRow: showcaseToRow, fromRow: showcaseFromRow,
		},
		Posts:    &posts{db: db, timeout: timeout},
		Comments: &comments{db: db, timeout: timeout},
		Close: func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}

func withTimeout(ctx context.Context, db *gorm.DB, d time.Duration) (*gorm.DB, context.CancelFunc) {
	cancel := context.CancelFunc(func() {})
	if d > 0 {
		ctx, cancel = context.WithTimeout(ctx, d)
	}
	return db.WithContext(ctx), cancel
}
