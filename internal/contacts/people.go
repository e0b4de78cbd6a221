package contacts

import (
	"context"
	"fmt"
	"strings"

	people "google.golang.org/api/people/v1"
	"google.golang.org/api/option"
)

const readMask = "names,emailAddresses,phoneNumbers"

// PeopleClient searches the Google People API.
type PeopleClient struct {
	svc *people.Service
	// maxOtherPages bounds the scan of "other contacts", which the API
	// can only list, not search.
	maxOtherPages int
}

// NewPeopleClient creates a People client. Pass option.WithHTTPClient with an
// authorized client.
func NewPeopleClient(ctx context.Context, opts ...option.ClientOption) (*PeopleClient, error) {
	svc, err := people.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create People service: %w", err)
	}
	return &PeopleClient{svc: svc, maxOtherPages: 10}, nil
}

// Search looks through personal contacts, other contacts and the domain
// directory, deduplicated by email. A source that fails is skipped; the
// call only fails when every source does.
func (c *PeopleClient) Search(ctx context.Context, query string, limit int) ([]Contact, error) {
	if limit <= 0 {
		limit = 10
	}
	query = strings.TrimSpace(query)

	var (
		out      []Contact
		seen     = make(map[string]bool)
		failures []error
	)
	add := func(p *people.Person, source string) {
		contact, ok := fromPerson(p, source)
		if !ok || contact.Email == "" || seen[strings.ToLower(contact.Email)] {
			return
		}
		seen[strings.ToLower(contact.Email)] = true
		out = append(out, contact)
	}

	resp, err := c.svc.People.SearchContacts().
		Context(ctx).
		Query(query).
		ReadMask(readMask).
		PageSize(int64(limit * 2)).
		Do()
	if err != nil {
		failures = append(failures, fmt.Errorf("personal contacts: %w", err))
	} else {
		for _, r := range resp.Results {
			add(r.Person, SourcePersonal)
		}
	}

	if err := c.scanOtherContacts(ctx, query, limit, add); err != nil {
		failures = append(failures, fmt.Errorf("other contacts: %w", err))
	}

	// Only Workspace accounts have a directory; consumer accounts get an
	// error here.
	dir, err := c.svc.People.SearchDirectoryPeople().
		Context(ctx).
		Query(query).
		ReadMask(readMask).
		Sources("DIRECTORY_SOURCE_TYPE_DOMAIN_PROFILE", "DIRECTORY_SOURCE_TYPE_DOMAIN_CONTACT").
		PageSize(int64(limit * 2)).
		Do()
	if err != nil {
		failures = append(failures, fmt.Errorf("directory: %w", err))
	} else {
		for _, p := range dir.People {
			add(p, SourceDirectory)
		}
	}

	if len(failures) == 3 {
		return nil, failures[0]
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *PeopleClient) scanOtherContacts(ctx context.Context, query string, limit int, add func(*people.Person, string)) error {
	pageToken := ""
	found := 0
	for page := 0; page < c.maxOtherPages; page++ {
		call := c.svc.OtherContacts.List().Context(ctx).ReadMask(readMask).PageSize(100)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return err
		}
		for _, p := range resp.OtherContacts {
			if contact, ok := fromPerson(p, SourceOther); ok && matches(contact, query) {
				add(p, SourceOther)
				found++
			}
		}
		pageToken = resp.NextPageToken
		if pageToken == "" || found >= limit {
			return nil
		}
	}
	return nil
}

func fromPerson(p *people.Person, source string) (Contact, bool) {
	if p == nil {
		return Contact{}, false
	}
	c := Contact{Source: source}
	if len(p.Names) > 0 {
		c.Name = p.Names[0].DisplayName
	}
	if len(p.EmailAddresses) > 0 {
		c.Email = p.EmailAddresses[0].Value
	}
	if len(p.PhoneNumbers) > 0 {
		c.Phone = p.PhoneNumbers[0].Value
	}
	if c.Name == "" && c.Email == "" {
		return Contact{}, false
	}
	return c, true
}
