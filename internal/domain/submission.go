package domain

import (
	"strings"
	"time"
)

// Kind is the discriminant stored in the "type" field of every submission.
type Kind string

const (
	KindRegistration Kind = "registration"
	KindShowcase     Kind = "showcase"
)

func (k Kind) Valid() bool { return k == KindRegistration || k == KindShowcase }

type PaymentMethod string

const (
	BankTransfer PaymentMethod = "bank_transfer"
	BankBranch   PaymentMethod = "bank_branch"
)

// Payment is the state-machine view shared by both submission variants.
type Payment struct {
	Status        Status        `json:"status,omitempty" validate:"omitempty,oneof=payment_pending awaiting_confirmation paid"`
	PaymentMethod PaymentMethod `json:"paymentMethod,omitempty" validate:"omitempty,oneof=bank_transfer bank_branch"`
	ReceiptNumber string        `json:"receiptNumber,omitempty" validate:"omitempty,min=4"`
}

// Submission is implemented by *Registration and *Showcase.
type Submission interface {
	Kind() Kind
	SubmissionID() string
	ContactName() string
	ContactEmail() string
	SubmittedOn() time.Time
	PaymentState() Payment
}

// Record is the pointer type of a concrete submission, which lets generic
// storage code allocate, stamp and mutate it.
type Record[T any] interface {
	*T
	Submission
	Validate() error
	Apply(p Patch) error
	Stamp(id string, at time.Time)
	SetStatus(st Status)
}

type Registration struct {
	ID                  string    `json:"id"`
	Type                Kind      `json:"type"`
	FullName            string    `json:"full_name" validate:"notblank"`
	Email               string    `json:"email" validate:"required,email"`
	PhoneNumber         string    `json:"phone_number,omitempty"`
	CompanyOrganization string    `json:"company_organization" validate:"notblank"`
	JobTitle            string    `json:"job_title" validate:"notblank"`
	YearsOfExperience   int       `json:"years_of_experience" validate:"gte=0"`
	Motivation          string    `json:"what_do_you_hope_to_learn_" validate:"notblank"`
	SubmittedAt         time.Time `json:"submittedAt"`
	Payment
}

func (r *Registration) Kind() Kind             { return KindRegistration }
func (r *Registration) SubmissionID() string   { return r.ID }
func (r *Registration) ContactName() string    { return r.FullName }
func (r *Registration) ContactEmail() string   { return r.Email }
func (r *Registration) SubmittedOn() time.Time { return r.SubmittedAt }
func (r *Registration) PaymentState() Payment  { return r.Payment }
func (r *Registration) SetStatus(st Status)    { r.Status = st }

// Stamp sets the server owned fields.
func (r *Registration) Stamp(id string, at time.Time) {
	r.ID, r.Type, r.SubmittedAt = id, KindRegistration, at
}

func (r *Registration) Validate() error { return check(r) }

type Showcase struct {
	ID             string    `json:"id"`
	Type           Kind      `json:"type"`
	ProjectName    string    `json:"projectName" validate:"notblank,min=3"`
	Tagline        string    `json:"tagline" validate:"min=10,max=100"`
	ProjectURL     string    `json:"projectUrl,omitempty" validate:"omitempty,url"`
	Description    string    `json:"description" validate:"min=50"`
	Technologies   string    `json:"technologies" validate:"min=3"`
	PresenterName  string    `json:"presenterName" validate:"notblank,min=2"`
	PresenterEmail string    `json:"presenterEmail" validate:"required,email"`
	SubmittedAt    time.Time `json:"submittedAt"`
	Payment
}

func (s *Showcase) Kind() Kind             { return KindShowcase }
func (s *Showcase) SubmissionID() string   { return s.ID }
func (s *Showcase) ContactName() string    { return s.PresenterName }
func (s *Showcase) ContactEmail() string   { return s.PresenterEmail }
func (s *Showcase) SubmittedOn() time.Time { return s.SubmittedAt }
func (s *Showcase) PaymentState() Payment  { return s.Payment }
func (s *Showcase) SetStatus(st Status)    { s.Status = st }

func (s *Showcase) Stamp(id string, at time.Time) {
	s.ID, s.Type, s.SubmittedAt = id, KindShowcase, at
}

func (s *Showcase) Validate() error { return check(s) }

// NormalizeEmail is the comparison form used by every email lookup.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }
