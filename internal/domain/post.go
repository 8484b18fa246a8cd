package domain

import (
	"encoding/json"
	"strings"
	"time"
)

type Post struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title" validate:"notblank"`
	Excerpt   string    `json:"excerpt"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	Date      time.Time `json:"date"`
	Image     string    `json:"image,omitempty"`
	AIHint    string    `json:"ai_hint,omitempty"`
	Tags      Tags      `json:"tags"`
	ViewCount int64     `json:"view_count"`
}

// Validate only insists on a title; every other field may be empty.
func (p *Post) Validate() error {
	if err := check(p); err != nil {
		return err
	}
	if Slugify(p.Title) == "" && p.Slug == "" {
		return Invalid("title", "title must contain at least one letter or digit")
	}
	return nil
}

type Comment struct {
	ID          string    `json:"id"`
	PostID      string    `json:"post_id" validate:"notblank"`
	AuthorName  string    `json:"author_name" validate:"notblank"`
	Comment     string    `json:"comment" validate:"notblank"`
	SubmittedAt time.Time `json:"submittedAt"`
}

func (c *Comment) Validate() error { return check(c) }

// Tags is always encoded as a JSON array but also accepts the comma separated
// string the blog editor submits.
type Tags []string

func (t *Tags) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*t = CleanTags(list)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return Invalid("tags", "tags must be a list or a comma separated string")
	}
	*t = SplitTags(s)
	return nil
}

func (t Tags) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t))
}

// JoinTags is the at-rest form of a tag list.
func JoinTags(tags []string) string {
	return strings.Join(CleanTags(tags), ",")
}

// SplitTags turns the stored comma string back into trimmed tags.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	return CleanTags(strings.Split(s, ","))
}

// CleanTags trims every tag and drops empties. Commas inside a tag cannot be
// represented at rest, so they are replaced by spaces.
func CleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(strings.ReplaceAll(t, ",", " "))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
