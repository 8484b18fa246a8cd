package domain

import "strings"

// Slugify lower-cases the title, drops everything except ASCII letters,
// digits, spaces and hyphens, collapses runs of spaces/hyphens into a single
// hyphen and trims hyphens from both ends.
func Slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	pendingSep := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '\t' || r == '\n' || r == '\r':
			pendingSep = true
		}
	}
	return b.String()
}
