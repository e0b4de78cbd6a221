package contacts

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
contacts:
  - name: Anuj Sharma
    email: anuj@example.com
  - name: Anna Berg
    email: " anna@example.org "
    phone: "+46 70 000 00 00"
  - name: Bob
    email: bob@example.net
`

func TestParseDirectory(t *testing.T) {
	d, err := ParseDirectory([]byte(sampleYAML))
	require.NoError(t, err)
	require.Equal(t, 3, d.Len())
	assert.Equal(t, "anna@example.org", d.Contacts[1].Email)
	assert.Equal(t, SourceFile, d.Contacts[0].Source)
}

func TestParseDirectory_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not yaml", "contacts: [oops"},
		{"missing email", "contacts:\n  - name: Anuj\n"},
		{"missing name", "contacts:\n  - email: a@b.c\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDirectory([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadDirectory(t *testing.T) {
	d, err := LoadDirectory("")
	require.NoError(t, err)
	assert.Zero(t, d.Len())

	d, err = LoadDirectory(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Zero(t, d.Len())

	path := filepath.Join(t.TempDir(), "contacts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))
	d, err = LoadDirectory(path)
	require.NoError(t, err)
	assert.Equal(t, 3, d.Len())
}

func TestDirectory_Search(t *testing.T) {
	d, err := ParseDirectory([]byte(sampleYAML))
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		query string
		limit int
		want  []string
	}{
		{"anuj", 0, []string{"anuj@example.com"}},
		{"an", 0, []string{"anuj@example.com", "anna@example.org"}},
		{"an", 1, []string{"anuj@example.com"}},
		{"anna berg", 0, []string{"anna@example.org"}},
		{"example.net", 0, []string{"bob@example.net"}},
		{"carol", 0, nil},
		{"   ", 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := d.Search(ctx, tt.query, tt.limit)
			require.NoError(t, err)
			var emails []string
			for _, c := range got {
				emails = append(emails, c.Email)
			}
			assert.Equal(t, tt.want, emails)
		})
	}
}
