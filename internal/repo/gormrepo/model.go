package gormrepo

import (
	"time"

	"event-portal/internal/domain"
)

type RegistrationRow struct {
	ID                  string    `gorm:"primaryKey;size:36"`
	FullName            string    `gorm:"size:191;not null"`
	Email               string    `gorm:"size:191;index;not null"`
	PhoneNumber         string    `gorm:"size:64"`
	CompanyOrganization string    `gorm:"size:191"`
	JobTitle            string    `gorm:"size:191"`
	YearsOfExperience   int       `gorm:"not null;default:0"`
	Motivation          string    `gorm:"column:what_do_you_hope_to_learn;type:text"`
	Status              string    `gorm:"size:32;index"`
	PaymentMethod       string    `gorm:"size:32"`
	ReceiptNumber       string    `gorm:"size:128"`
	SubmittedAt         time.Time `gorm:"index;not null"`
}

func (RegistrationRow) TableName() string { return "registrations" }

type ShowcaseRow struct {
	ID             string    `gorm:"primaryKey;size:36"`
	ProjectName    string    `gorm:"size:191;not null"`
	Tagline        string    `gorm:"size:191"`
	ProjectURL     string    `gorm:"column:project_url;size:512"`
	Description    string    `gorm:"type:text"`
	Technologies   string    `gorm:"size:512"`
	PresenterName  string    `gorm:"size:191"`
	PresenterEmail string    `gorm:"size:191;index;not null"`
	Status         string    `gorm:"size:32;index"`
	PaymentMethod  string    `gorm:"size:32"`
	ReceiptNumber  string    `gorm:"size:128"`
	SubmittedAt    time.Time `gorm:"index;not null"`
}

func (ShowcaseRow) TableName() string { return "showcases" }

type PostRow struct {
	ID      string    `gorm:"primaryKey;size:36"`
	Slug    string    `gorm:"size:191;uniqueIndex;not null"`
	Title   string    `gorm:"size:255;not null"`
	Excerpt string    `gorm:"type:text"`
	Content string    `gorm:"type:text"`
	Author  string    `gorm:"size:191"`
	Date    time.Time `gorm:"index;not null"`
	Image   string    `gorm:"size:512"`
	AIHint  string    `gorm:"column:ai_hint;size:255"`
	Tags    string    `gorm:"type:text"`
}

func (PostRow) TableName() string { return "posts" }

// PostViewRow keeps counters out of the posts table so increments never
// contend with edits.
type PostViewRow struct {
	PostID    string `gorm:"primaryKey;size:36"`
	ViewCount int64  `gorm:"not null;default:0"`
}

func (PostViewRow) TableName() string { return "post_views" }

type postWithViews struct {
	PostRow   `gorm:"embedded"`
	ViewCount int64
}

type CommentRow struct {
	ID          string    `gorm:"primaryKey;size:36"`
	PostID      string    `gorm:"size:36;index;not null"`
	AuthorName  string    `gorm:"size:191;not null"`
	Comment     string    `gorm:"type:text"`
	SubmittedAt time.Time `gorm:"index;not null"`
}

func (CommentRow) TableName() string { return "comments" }

func registrationToRow(r *domain.Registration) *RegistrationRow {
	return &RegistrationRow{
		ID: r.ID, FullName: r.FullName, Email: r.Email, PhoneNumber: r.PhoneNumber,
		CompanyOrganization: r.CompanyOrganization, JobTitle: r.JobTitle,
		YearsOfExperience: r.YearsOfExperience, Motivation: r.Motivation,
		Status: string(r.Status), PaymentMethod: string(r.PaymentMethod), ReceiptNumber: r.ReceiptNumber,
		SubmittedAt: r.SubmittedAt,
	}
}

func registrationFromRow(row *RegistrationRow) *domain.Registration {
	return &domain.Registration{
		ID: row.ID, Type: domain.KindRegistration, FullName: row.FullName, Email: row.Email,
		PhoneNumber: row.PhoneNumber, CompanyOrganization: row.CompanyOrganization,
		JobTitle: row.JobTitle, YearsOfExperience: row.YearsOfExperience, Motivation: row.Motivation,
		SubmittedAt: row.SubmittedAt.UTC(),
		Payment: domain.Payment{
			Status: domain.Status(row.Status), PaymentMethod: domain.PaymentMethod(row.PaymentMethod),
			ReceiptNumber: row.ReceiptNumber,
		},
	}
}

func showcaseToRow(s *domain.Showcase) *ShowcaseRow {
	return &ShowcaseRow{
		ID: s.ID, ProjectName: s.ProjectName, Tagline: s.Tagline, ProjectURL: s.ProjectURL,
		Description: s.Description, Technologies: s.Technologies,
		PresenterName: s.PresenterName, PresenterEmail: s.PresenterEmail,
		Status: string(s.Status), PaymentMethod: string(s.PaymentMethod), ReceiptNumber: s.ReceiptNumber,
		SubmittedAt: s.SubmittedAt,
	}
}

func showcaseFromRow(row *ShowcaseRow) *domain.Showcase {
	return &domain.Showcase{
		ID: row.ID, Type: domain.KindShowcase, ProjectName: row.ProjectName, Tagline: row.Tagline,
		ProjectURL: row.ProjectURL, Description: row.Description, Technologies: row.Technologies,
		PresenterName: row.PresenterName, PresenterEmail: row.PresenterEmail,
		SubmittedAt: row.SubmittedAt.UTC(),
		Payment: domain.Payment{
			Status: domain.Status(row.Status), PaymentMethod: domain.PaymentMethod(row.PaymentMethod),
			ReceiptNumber: row.ReceiptNumber,
		},
	}
}

func postToRow(p *domain.Post) *PostRow {
	return &PostRow{
		ID: p.ID, Slug: p.Slug, Title: p.Title, Excerpt: p.Excerpt, Content: p.Content,
		Author: p.Author, Date: p.Date, Image: p.Image, AIHint: p.AIHint, Tags: domain.JoinTags(p.Tags),
	}
}

func postFromRow(row *PostRow, views int64) *domain.Post {
	return &domain.Post{
		ID: row.ID, Slug: row.Slug, Title: row.Title, Excerpt: row.Excerpt, Content: row.Content,
		Author: row.Author, Date: row.Date.UTC(), Image: row.Image, AIHint: row.AIHint,
		Tags: domain.SplitTags(row.Tags), ViewCount: views,
	}
}

func commentFromRow(row *CommentRow) *domain.Comment {
	return &domain.Comment{
		ID: row.ID, PostID: row.PostID, AuthorName: row.AuthorName, Comment: row.Comment,
		SubmittedAt: row.SubmittedAt.UTC(),
	}
}
