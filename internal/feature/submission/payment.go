package submission

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"event-portal/internal/core/mail"
	"event-portal/internal/domain"
)

var transitions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "submission_status_transitions_total",
		Help: "Submissions moved into a payment status",
	}, []string{"status"},
)

func init() { prometheus.MustRegister(transitions) }

// BulkResult is the outcome of a bulk status change.
type BulkResult struct {
	UpdatedCount int      `json:"updatedCount"`
	RequestedIDs []string `json:"requestedIds"`
}

// MarkPending force-sets payment_pending on every listed id in both
// collections, whatever their current status. Unknown ids are skipped.
func (s *Service) MarkPending(ctx context.Context, ids []string) (BulkResult, error) {
	clean := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" && !slices.Contains(clean, id) {
			clean = append(clean, id)
		}
	}
	if len(clean) == 0 {
		return BulkResult{}, domain.Invalid("ids", "at least one id is required")
	}

	var nRegs, nShows int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		nRegs, err = s.regs.SetStatus(gctx, clean, domain.StatusPaymentPending)
		return
	})
	g.Go(func() (err error) {
		nShows, err = s.shows.SetStatus(gctx, clean, domain.StatusPaymentPending)
		return
	})
	if err := g.Wait(); err != nil {
		return BulkResult{}, err
	}

	n := nRegs + nShows
	transitions.WithLabelValues(domain.StatusPaymentPending.String()).Add(float64(n))
	s.log.Info("marked payment pending", zap.Int("requested", len(clean)), zap.Int("updated", n))
	return BulkResult{UpdatedCount: n, RequestedIDs: clean}, nil
}

// Fields a payer may send along with a status update.
var payerFields = []string{"status", "paymentMethod", "receiptNumber"}

// UpdateStatus is the payer driven transition. It merges status and details
// in one write, never moves backwards and never reaches paid. Only status,
// paymentMethod and receiptNumber are accepted; any other detail key fails
// validation, and admins change the remaining fields with UpdateSubmission.
// The transition is checked against the stored status inside the write, so a
// concurrent confirmation cannot be undone.
func (s *Service) UpdateStatus(ctx context.Context, id string, updates domain.Patch) (domain.Submission, error) {
	raw, ok := updates["status"].(string)
	if !ok {
		return nil, domain.Invalid("status", "status is required")
	}
	next := domain.Status(raw)
	switch {
	case next == domain.StatusPaid:
		return nil, domain.Invalid("status", "payments are confirmed by an administrator")
	case next == domain.StatusNew || !next.Valid():
		return nil, domain.Invalid("status", "unknown status "+raw)
	}
	for _, k := range updates.Keys() {
		if !slices.Contains(payerFields, k) {
			return nil, domain.Invalid(k, "field cannot be updated here")
		}
	}

	cur, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var from domain.Status
	updated, err := s.update(ctx, cur, updates, func(p domain.Payment) error {
		from = p.Status
		if !from.CanAdvance(next) {
			return domain.Conflict("submission", id, fmt.Sprintf("cannot move from %s to %s", from, next))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if from != next {
		transitions.WithLabelValues(next.String()).Inc()
	}
	if next == domain.StatusAwaitingConfirmation {
		s.notify(updated, mail.TemplatePaymentReceived)
	}
	return updated, nil
}

// ConfirmPayment is the admin transition to paid. Confirming a paid
// submission is a no-op.
func (s *Service) ConfirmPayment(ctx context.Context, id string) (domain.Submission, error) {
	cur, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.PaymentState().Status.Terminal() {
		return cur, nil
	}
	var wasPaid bool
	updated, err := s.update(ctx, cur, domain.Patch{"status": string(domain.StatusPaid)}, func(p domain.Payment) error {
		if !p.Status.CanConfirm() {
			return domain.Conflict("submission", id, fmt.Sprintf("cannot confirm a submission in status %s", p.Status))
		}
		wasPaid = p.Status.Terminal()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if wasPaid {
		return updated, nil
	}
	transitions.WithLabelValues(domain.StatusPaid.String()).Inc()
	s.notify(updated, mail.TemplatePaymentConfirmed)
	return updated, nil
}

// PaymentView tells the payer where they are in the flow.
type PaymentView struct {
	ID            string               `json:"id"`
	Type          domain.Kind          `json:"type"`
	Name          string               `json:"name"`
	Status        string               `json:"status"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod,omitempty"`
	ReceiptNumber string               `json:"receiptNumber,omitempty"`
	NextStep      domain.Step          `json:"nextStep"`
	Bank          Bank                 `json:"bank"`
}

func (s *Service) PaymentDetails(ctx context.Context, id string) (PaymentView, error) {
	sub, err := s.FindByID(ctx, id)
	if err != nil {
		return PaymentView{}, err
	}
	p := sub.PaymentState()
	return PaymentView{
		ID:            sub.SubmissionID(),
		Type:          sub.Kind(),
		Name:          sub.ContactName(),
		Status:        p.Status.String(),
		PaymentMethod: p.PaymentMethod,
		ReceiptNumber: p.ReceiptNumber,
		NextStep:      domain.NextStep(p),
		Bank:          s.bank,
	}, nil
}

type notice struct {
	Name    string
	ID      string
	Method  string
	Receipt string
}

// notify sends tmpl to the submission's contact in the background. Failures
// are logged only.
func (s *Service) notify(sub domain.Submission, tmpl string) {
	if s.mailer == nil {
		return
	}
	p := sub.PaymentState()
	data := notice{
		Name:    sub.ContactName(),
		ID:      sub.SubmissionID(),
		Method:  strings.ReplaceAll(string(p.PaymentMethod), "_", " "),
		Receipt: p.ReceiptNumber,
	}
	to := sub.ContactEmail()
	log := s.log.With(zap.String("id", data.ID), zap.String("template", tmpl))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		msg, err := mail.Render(tmpl, data)
		if err != nil {
			log.Error("render notification", zap.Error(err))
			return
		}
		msg.To = to
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.mailer.Send(ctx, msg); err != nil {
			log.Warn("send notification", zap.Error(err))
			return
		}
		log.Debug("notification sent")
	}()
}
