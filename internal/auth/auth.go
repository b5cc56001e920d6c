package auth

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

// Scopes needed to list calendars and insert events.
var Scopes = []string{calendar.CalendarScope}

// OAuthConfig reads the installed-app client secret at credentialsPath.
func OAuthConfig(credentialsPath string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read client secret %s: %w", credentialsPath, err)
	}
	cfg, err := google.ConfigFromJSON(b, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse client secret %s: %w", credentialsPath, err)
	}
	return cfg, nil
}

// Client returns an HTTP client authorized with the cached token.
func Client(ctx context.Context, credentialsPath, tokenPath string) (*http.Client, error) {
	cfg, err := OAuthConfig(credentialsPath)
	if err != nil {
		return nil, err
	}
	tok, err := TokenFromFile(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("token not found, run 'lookout login' first: %w", err)
	}
	return cfg.Client(ctx, tok), nil
}

// Login runs the out-of-band code flow: it prints the consent URL to out,
// reads the authorization code from in and stores the token at tokenPath.
func Login(ctx context.Context, credentialsPath, tokenPath string, in io.Reader, out io.Writer) error {
	cfg, err := OAuthConfig(credentialsPath)
	if err != nil {
		return err
	}

	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "Go to the following link in your browser:\n%v\n", authURL)
	fmt.Fprintln(out, "Enter the authorization code:")

	code, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && code == "" {
		return fmt.Errorf("read authorization code: %w", err)
	}

	tok, err := cfg.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}
	if err := SaveToken(tokenPath, tok); err != nil {
		return err
	}
	fmt.Fprintf(out, "Authentication successful! Token saved to %s\n", tokenPath)
	return nil
}

func TokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("decode token %s: %w", path, err)
	}
	return tok, nil
}

// SaveToken writes tok to path with 0600 permissions.
func SaveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("cache oauth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(tok)
}
