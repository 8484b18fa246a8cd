package domain

import "context"

// SubmissionRepository is the storage contract shared by both submission
// collections. Create assigns ID, Type and SubmittedAt. List is newest first.
// Update replaces the stored record with the merged one in a single write.
// Guards see the stored payment state inside the same atomic section as the
// write; the first error aborts the update and is returned as is.
// SetStatus force-sets the status of every matching id in one pass and
// returns how many records it touched; unknown ids are skipped.
type SubmissionRepository[S Submission] interface {
	Create(ctx context.Context, s S) (S, error)
	List(ctx context.Context) ([]S, error)
	GetByID(ctx context.Context, id string) (S, error)
	FindByEmail(ctx context.Context, email string) ([]S, error)
	Update(ctx context.Context, id string, p Patch, guards ...Guard) (S, error)
	SetStatus(ctx context.Context, ids []string, status Status) (int, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Guard is a precondition on the stored payment state of a submission.
type Guard func(cur Payment) error

// CheckGuards runs gs in order against cur.
func CheckGuards(cur Payment, gs []Guard) error {
	for _, g := range gs {
		if err := g(cur); err != nil {
			return err
		}
	}
	return nil
}

type (
	RegistrationRepository = SubmissionRepository[*Registration]
	ShowcaseRepository     = SubmissionRepository[*Showcase]
)

// PostRepository owns posts and their view counters. Create derives the slug
// from the title when none is given and fails with ConflictError when the slug
// is taken. Delete cascades to the post's comments.
type PostRepository interface {
	Create(ctx context.Context, p *Post) (*Post, error)
	List(ctx context.Context) ([]*Post, error)
	GetByID(ctx context.Context, id string) (*Post, error)
	GetBySlug(ctx context.Context, slug string) (*Post, error)
	Update(ctx context.Context, id string, p Patch) (*Post, error)
	Delete(ctx context.Context, id string) (bool, error)
	IncrementViews(ctx context.Context, id string) (int64, error)
}

type CommentRepository interface {
	Create(ctx context.Context, c *Comment) (*Comment, error)
	ListByPost(ctx context.Context, postID string) ([]*Comment, error)
}

// Store bundles the repositories of one backend.
type Store struct {
	Registrations RegistrationRepository
	Showcases     ShowcaseRepository
	Posts         PostRepository
	Comments      CommentRepository
	Close         func() error
}
