package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/teemow/calagent/internal/google"
)

func newTokenServer(t *testing.T, gotCode *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		*gotCode = r.PostForm.Get("code")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"ya29.test","refresh_token":"1//refresh","token_type":"Bearer","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testFlow(t *testing.T, srv *httptest.Server, input string) (authFlow, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return authFlow{
		conf: &oauth2.Config{
			ClientID:     "client",
			ClientSecret: "secret",
			RedirectURL:  google.DefaultRedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:   srv.URL + "/auth",
				TokenURL:  srv.URL + "/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		store:   google.NewFileTokenProvider(t.TempDir()),
		account: "work",
		state:   "state-123",
		in:      strings.NewReader(input),
		out:     &out,
	}, &out
}

func TestAuthFlow_RedirectURL(t *testing.T) {
	var code string
	srv := newTokenServer(t, &code)
	flow, out := testFlow(t, srv, "http://localhost:3000/callback?state=state-123&code=4/abc\n")

	require.NoError(t, flow.run(context.Background()))

	assert.Equal(t, "4/abc", code)
	assert.Contains(t, out.String(), srv.URL+"/auth?")
	assert.Contains(t, out.String(), "state=state-123")
	assert.Contains(t, out.String(), "access_type=offline")
	assert.Contains(t, out.String(), "Access token [token:9 chars] saved to")
	assert.NotContains(t, out.String(), "ya29.test")

	tok, err := flow.store.GetTokenForAccount(context.Background(), "work")
	require.NoError(t, err)
	assert.Equal(t, "ya29.test", tok.AccessToken)
	assert.Equal(t, "1//refresh", tok.RefreshToken)

	path, err := flow.store.TokenPath("work")
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestAuthFlow_BareCodeWithoutNewline(t *testing.T) {
	var code string
	srv := newTokenServer(t, &code)
	flow, _ := testFlow(t, srv, "  4/bare  ")

	require.NoError(t, flow.run(context.Background()))
	assert.Equal(t, "4/bare", code)
}

func TestAuthFlow_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "state mismatch", input: "http://localhost:3000/callback?state=other&code=4/abc\n"},
		{name: "denied", input: "http://localhost:3000/callback?error=access_denied\n"},
		{name: "empty", input: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var code string
			srv := newTokenServer(t, &code)
			flow, _ := testFlow(t, srv, tt.input)

			assert.Error(t, flow.run(context.Background()))
			assert.Empty(t, code, "no exchange happens")
			assert.False(t, flow.store.HasTokenForAccount("work"))
		})
	}
}

func TestNewState(t *testing.T) {
	a, err := newState()
	require.NoError(t, err)
	b, err := newState()
	require.NoError(t, err)
	assert.Len(t, a, 22)
	assert.NotEqual(t, a, b)
}
