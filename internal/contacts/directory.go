package contacts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Directory is a contact list loaded from a YAML file:
//
//	contacts:
//	  - name: Anuj Sharma
//	    email: anuj@example.com
type Directory struct {
	Contacts []Contact `yaml:"contacts"`
}

// LoadDirectory reads path. An empty path or a missing file yields an empty
// directory, since the file is optional.
func LoadDirectory(path string) (*Directory, error) {
	if path == "" {
		return &Directory{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Directory{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read contacts file: %w", err)
	}
	return ParseDirectory(data)
}

// ParseDirectory decodes a YAML contact list and validates each entry.
func ParseDirectory(data []byte) (*Directory, error) {
	var d Directory
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse contacts file: %w", err)
	}
	for i := range d.Contacts {
		c := &d.Contacts[i]
		c.Name = strings.TrimSpace(c.Name)
		c.Email = strings.TrimSpace(c.Email)
		if c.Name == "" || !strings.Contains(c.Email, "@") {
			return nil, fmt.Errorf("contacts file entry %d needs a name and a valid email", i+1)
		}
		c.Source = SourceFile
	}
	return &d, nil
}

// Search returns the entries matching every word of query.
func (d *Directory) Search(ctx context.Context, query string, limit int) ([]Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []Contact
	for _, c := range d.Contacts {
		if matches(c, query) {
			out = append(out, c)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// Len returns the number of entries.
func (d *Directory) Len() int {
	return len(d.Contacts)
}
