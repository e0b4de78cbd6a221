package contacts

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when no source knows the name.
var ErrNotFound = errors.New("contact not found")

// Source labels where a contact came from.
const (
	SourceFile      = "file"
	SourcePersonal  = "personal"
	SourceOther     = "other"
	SourceDirectory = "directory"
)

// Contact is a person with at least a name or an email.
type Contact struct {
	Name   string `yaml:"name" json:"name"`
	Email  string `yaml:"email" json:"email"`
	Phone  string `yaml:"phone,omitempty" json:"phone,omitempty"`
	Source string `yaml:"-" json:"source,omitempty"`
}

// Finder searches one contact source.
type Finder interface {
	Search(ctx context.Context, query string, limit int) ([]Contact, error)
}

// Resolver asks its finders in order and returns the best match of the
// first finder that has one.
type Resolver struct {
	finders []Finder
}

// NewResolver skips nil finders.
func NewResolver(finders ...Finder) *Resolver {
	r := &Resolver{}
	for _, f := range finders {
		if f != nil {
			r.finders = append(r.finders, f)
		}
	}
	return r
}

// Lookup returns the contact whose name best matches name. Only contacts
// with an email are considered. Errors from a finder are remembered and
// returned only if no later finder succeeds.
func (r *Resolver) Lookup(ctx context.Context, name string) (Contact, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Contact{}, fmt.Errorf("%w: empty name", ErrNotFound)
	}

	var firstErr error
	for _, f := range r.finders {
		found, err := f.Search(ctx, name, 10)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if c, ok := bestMatch(found, name); ok {
			return c, nil
		}
	}
	if firstErr != nil {
		return Contact{}, fmt.Errorf("contact lookup failed: %w", firstErr)
	}
	return Contact{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// bestMatch prefers an exact (case-insensitive) name, then a name that
// starts with the query, then the first candidate.
func bestMatch(candidates []Contact, name string) (Contact, bool) {
	var withEmail []Contact
	for _, c := range candidates {
		if c.Email != "" {
			withEmail = append(withEmail, c)
		}
	}
	if len(withEmail) == 0 {
		return Contact{}, false
	}
	lower := strings.ToLower(name)
	for _, c := range withEmail {
		if strings.ToLower(c.Name) == lower {
			return c, true
		}
	}
	for _, c := range withEmail {
		if strings.HasPrefix(strings.ToLower(c.Name), lower) {
			return c, true
		}
	}
	return withEmail[0], true
}

// matches reports whether every word of query appears in the contact's
// name or email.
func matches(c Contact, query string) bool {
	hay := strings.ToLower(c.Name + " " + c.Email)
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if !strings.Contains(hay, w) {
			return false
		}
	}
	return true
}
