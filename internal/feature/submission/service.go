// Package submission owns the registration and showcase lifecycle: union
// lookups across both collections and the payment state machine.
package submission

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"event-portal/internal/core/mail"
	"event-portal/internal/domain"
)

// Collection names as used by the admin listing.
const (
	CollectionRegistrations = "registrations"
	CollectionShowcases     = "showcases"
)

const notifyTimeout = 15 * time.Second

// Bank is the payment information shown to payers.
type Bank struct {
	Amount             string `json:"amount,omitempty"`
	Currency           string `json:"currency,omitempty"`
	BankName           string `json:"bankName,omitempty"`
	AccountName        string `json:"accountName,omitempty"`
	AccountNumber      string `json:"accountNumber,omitempty"`
	BranchInstructions string `json:"branchInstructions,omitempty"`
}

type Service struct {
	regs   domain.RegistrationRepository
	shows  domain.ShowcaseRepository
	mailer mail.Mailer
	bank   Bank
	log    *zap.Logger

	wg sync.WaitGroup
}

func NewService(store *domain.Store, m mail.Mailer, bank Bank, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		regs:   store.Registrations,
		shows:  store.Showcases,
		mailer: m,
		bank:   bank,
		log:    log.Named("submission"),
	}
}

// Wait blocks until queued notifications have been sent.
func (s *Service) Wait() { s.wg.Wait() }

// Create decodes body according to its "type" field and stores it. New
// submissions always start without payment state.
func (s *Service) Create(ctx context.Context, body []byte) (domain.Submission, error) {
	var head struct {
		Type domain.Kind `json:"type"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		return nil, domain.Invalid("", "malformed JSON body")
	}
	if !head.Type.Valid() {
		return nil, domain.Invalid("type", `type must be "registration" or "showcase"`)
	}
	if head.Type == domain.KindShowcase {
		return create(ctx, s.shows, body)
	}
	return create(ctx, s.regs, body)
}

func create[T any, S domain.Record[T]](ctx context.Context, repo domain.SubmissionRepository[S], body []byte) (domain.Submission, error) {
	rec := S(new(T))
	if err := json.Unmarshal(body, rec); err != nil {
		var te *json.UnmarshalTypeError
		if errors.As(err, &te) {
			return nil, domain.Invalid(te.Field, "wrong type, expected "+te.Type.String())
		}
		return nil, domain.Invalid("", "malformed JSON body")
	}
	if rec.PaymentState() != (domain.Payment{}) {
		return nil, domain.Invalid("status", "payment fields are set by the payment flow")
	}
	created, err := repo.Create(ctx, rec)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service) Registrations(ctx context.Context) ([]*domain.Registration, error) {
	return s.regs.List(ctx)
}

func (s *Service) Showcases(ctx context.Context) ([]*domain.Showcase, error) {
	return s.shows.List(ctx)
}

// All merges both collections newest first.
func (s *Service) All(ctx context.Context) ([]domain.Submission, error) {
	var (
		regs  []*domain.Registration
		shows []*domain.Showcase
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { regs, err = s.regs.List(gctx); return })
	g.Go(func() (err error) { shows, err = s.shows.List(gctx); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make([]domain.Submission, 0, len(regs)+len(shows))
	for _, r := range regs {
		out = append(out, r)
	}
	for _, sc := range shows {
		out = append(out, sc)
	}
	slices.SortStableFunc(out, newestFirst)
	return out, nil
}

// FindByID looks in registrations first, then showcases.
func (s *Service) FindByID(ctx context.Context, id string) (domain.Submission, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.Invalid("id", "id is required")
	}
	r, err := s.regs.GetByID(ctx, id)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	sc, err := s.shows.GetByID(ctx, id)
	if err == nil {
		return sc, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return nil, domain.NotFound("submission", id)
}

// FindByEmail matches the normalized address against registration emails and
// showcase presenter emails. When several match the newest wins.
func (s *Service) FindByEmail(ctx context.Context, email string) (domain.Submission, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, domain.Invalid("email", "email is required")
	}
	regs, err := s.regs.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	shows, err := s.shows.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	var best domain.Submission
	for _, r := range regs {
		best = newest(best, r)
	}
	for _, sc := range shows {
		best = newest(best, sc)
	}
	if best == nil {
		return nil, domain.NotFound("submission", email)
	}
	return best, nil
}

func newestFirst(a, b domain.Submission) int {
	if c := b.SubmittedOn().Compare(a.SubmittedOn()); c != 0 {
		return c
	}
	return strings.Compare(b.SubmissionID(), a.SubmissionID())
}

func newest(cur, cand domain.Submission) domain.Submission {
	if cur == nil || newestFirst(cand, cur) < 0 {
		return cand
	}
	return cur
}

// update routes a patch to the collection that owns sub.
func (s *Service) update(ctx context.Context, sub domain.Submission, p domain.Patch, guards ...domain.Guard) (domain.Submission, error) {
	switch sub.Kind() {
	case domain.KindRegistration:
		return s.regs.Update(ctx, sub.SubmissionID(), p, guards...)
	default:
		return s.shows.Update(ctx, sub.SubmissionID(), p, guards...)
	}
}

// UpdateSubmission is the admin's general partial update. An empty kind
// resolves the collection by id.
func (s *Service) UpdateSubmission(ctx context.Context, kind domain.Kind, id string, p domain.Patch) (domain.Submission, error) {
	if len(p) == 0 {
		return nil, domain.Invalid("updates", "nothing to update")
	}
	switch kind {
	case domain.KindRegistration:
		return s.regs.Update(ctx, id, p)
	case domain.KindShowcase:
		return s.shows.Update(ctx, id, p)
	case "":
		sub, err := s.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return s.update(ctx, sub, p)
	}
	return nil, domain.Invalid("type", `type must be "registration" or "showcase"`)
}
