package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Patch is a shallow set of JSON field updates. A nil value clears an
// optional field.
type Patch map[string]any

// Keys returns the patched field names in a stable order.
func (p Patch) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// With returns a copy of p with k set to v.
func (p Patch) With(k string, v any) Patch {
	out := make(Patch, len(p)+1)
	for key, val := range p {
		out[key] = val
	}
	out[k] = v
	return out
}

var (
	registrationFields = fieldSet(
		"full_name", "email", "phone_number", "company_organization", "job_title",
		"years_of_experience", "what_do_you_hope_to_learn_",
		"status", "paymentMethod", "receiptNumber",
	)
	showcaseFields = fieldSet(
		"projectName", "tagline", "projectUrl", "description", "technologies",
		"presenterName", "presenterEmail",
		"status", "paymentMethod", "receiptNumber",
	)
	postFields = fieldSet("title", "excerpt", "content", "author", "image", "ai_hint", "tags")
)

func fieldSet(names ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

func (r *Registration) Apply(p Patch) error {
	next, err := merge(r, p, registrationFields)
	if err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*r = *next
	return nil
}

func (s *Showcase) Apply(p Patch) error {
	next, err := merge(s, p, showcaseFields)
	if err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*s = *next
	return nil
}

// Apply merges p into the post. The slug is never rederived so links stay stable.
func (post *Post) Apply(p Patch) error {
	next, err := merge(post, p, postFields)
	if err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	next.Tags = CleanTags(next.Tags)
	*post = *next
	return nil
}

// merge round-trips cur through its JSON form so field names and types follow
// the wire contract. Identity fields (id, type, timestamps, slug) are not in
// any allowed set and therefore immutable.
func merge[T any](cur *T, p Patch, allowed map[string]struct{}) (*T, error) {
	raw, err := json.Marshal(cur)
	if err != nil {
		return nil, fmt.Errorf("encode current record: %w", err)
	}
	doc := map[string]any{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode current record: %w", err)
	}
	for _, k := range p.Keys() {
		if _, ok := allowed[k]; !ok {
			return nil, Invalid(k, "field cannot be updated")
		}
		if p[k] == nil {
			delete(doc, k)
			continue
		}
		doc[k] = p[k]
	}
	raw, err = json.Marshal(doc)
	if err != nil {
		return nil, Invalid("", "patch is not serializable: "+err.Error())
	}
	next := new(T)
	if err := json.Unmarshal(raw, next); err != nil {
		var te *json.UnmarshalTypeError
		if errors.As(err, &te) {
			return nil, Invalid(te.Field, "wrong type, expected "+te.Type.String())
		}
		if errors.Is(err, ErrValidation) {
			return nil, err
		}
		return nil, Invalid("", err.Error())
	}
	return next, nil
}
