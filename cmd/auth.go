package cmd

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/teemow/calagent/internal/config"
	"github.com/teemow/calagent/internal/google"
	"github.com/teemow/calagent/internal/logging"
)

func newAuthCmd() *cobra.Command {
	var (
		account  string
		tokenDir string
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to your Google Calendar and contacts",
		Long: `Run the OAuth consent flow for Google Calendar and People.

Open the printed URL, grant access, then paste either the authorization code
or the full address the browser was redirected to. The token is cached in
the user cache directory and refreshed automatically afterwards.

Requires GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			if err := cfg.GoogleOAuth.Validate(); err != nil {
				return err
			}
			state, err := newState()
			if err != nil {
				return err
			}
			if tokenDir == "" {
				tokenDir = google.DefaultTokenDir()
			}
			flow := authFlow{
				conf:    cfg.GoogleOAuth.Config(),
				store:   google.NewFileTokenProvider(tokenDir),
				account: account,
				state:   state,
				in:      cmd.InOrStdin(),
				out:     cmd.OutOrStdout(),
			}
			return flow.run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&account, "account", google.DefaultAccount, "Name to store the token under")
	cmd.Flags().StringVar(&tokenDir, "token-dir", "", "Directory for cached tokens (default: user cache dir)")

	return cmd
}

type authFlow struct {
	conf    *oauth2.Config
	store   *google.FileTokenProvider
	account string
	state   string
	in      io.Reader
	out     io.Writer
}

func (f authFlow) run(ctx context.Context) error {
	fmt.Fprintf(f.out, "Open this URL in your browser and grant access:\n\n  %s\n\n", google.AuthURL(f.conf, f.state))
	fmt.Fprint(f.out, "Paste the authorization code or the redirect URL: ")

	line, err := bufio.NewReader(f.in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return fmt.Errorf("failed to read authorization code: %w", err)
	}
	code, err := google.ExtractCode(line, f.state)
	if err != nil {
		return err
	}
	tok, err := google.Exchange(ctx, f.conf, code)
	if err != nil {
		return err
	}
	if err := f.store.SaveToken(f.account, tok); err != nil {
		return err
	}

	path, _ := f.store.TokenPath(f.account)
	fmt.Fprintf(f.out, "\nAccess token %s saved to %s\n", logging.SanitizeToken(tok.AccessToken), path)
	if tok.RefreshToken == "" {
		fmt.Fprintln(os.Stderr, "Warning: Google returned no refresh token; you will need to run auth again when it expires.")
	}
	return nil
}

func newState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
