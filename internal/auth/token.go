// Package auth holds the Google OAuth token shared by the scheduler
// commands. `serve` completes authorization and writes the token file; the
// other commands and long-running processes read it.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// ErrTokenNotSet indicates no OAuth token is available.
var ErrTokenNotSet = errors.New("no token defined")

const stateTTL = 5 * time.Minute

// Token is safe for concurrent use.
type Token struct {
	cfg    *oauth2.Config
	path   string
	states *stateStore
	logger *zap.Logger

	mu      sync.Mutex
	current *oauth2.Token
	// changed is set when current differs from what the file holds.
	changed bool
}

// NewToken creates a Token, loading path when it exists. An empty path keeps
// the token in memory only.
func NewToken(cfg *oauth2.Config, path string, logger *zap.Logger) (*Token, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Token{
		cfg:    cfg,
		path:   path,
		states: newStateStore(stateTTL, time.Now),
		logger: logger,
	}

	tok, err := readTokenFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Info("token file missing, it will be written after authorization", zap.String("path", path))
	case err != nil:
		return nil, err
	default:
		t.current = tok
	}
	return t, nil
}

// Authorized reports whether a usable token is available.
func (t *Token) Authorized() bool {
	_, err := t.OAuthToken()
	return err == nil
}

// RedirectURL returns the Google consent URL carrying a fresh state.
func (t *Token) RedirectURL() (string, error) {
	state, err := t.states.issue()
	if err != nil {
		return "", fmt.Errorf("states.issue failed: %w", err)
	}
	// Forced consent makes Google return a refresh token on every sign-in.
	return t.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// AuthorizeCode exchanges an authorization code for a token after checking
// state.
func (t *Token) AuthorizeCode(ctx context.Context, code string, state string) error {
	if !t.states.consume(state) {
		return errors.New("invalid or expired state parameter")
	}

	tok, err := t.cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("cfg.Exchange failed: %w", err)
	}

	t.mu.Lock()
	t.current, t.changed = tok, true
	t.mu.Unlock()

	t.logger.Info("oauth code exchanged", zap.Time("expiry", tok.Expiry))
	return nil
}

// OAuthToken returns the current token, refreshing it when expired. Without
// a token in memory the file is read again, since another process may have
// completed authorization in the meantime.
func (t *Token) OAuthToken() (*oauth2.Token, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		tok, err := readTokenFile(t.path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			t.logger.Warn("token file unreadable", zap.String("path", t.path), zap.Error(err))
		}
		if tok == nil {
			return nil, ErrTokenNotSet
		}
		t.logger.Info("token loaded from file", zap.String("path", t.path))
		t.current = tok
	}

	if t.current.Valid() || t.current.RefreshToken == "" {
		return t.current, nil
	}

	fresh, err := t.cfg.TokenSource(context.Background(), t.current).Token()
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}
	t.current, t.changed = fresh, true
	t.logger.Debug("oauth token refreshed", zap.Time("expiry", fresh.Expiry))

	return fresh, nil
}

// Persist writes the token when this process obtained or refreshed it, so a
// process that only read the file never overwrites a newer one.
func (t *Token) Persist() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.path == "" || t.current == nil || !t.changed {
		return nil
	}
	if err := writeTokenFile(t.path, t.current); err != nil {
		return err
	}
	t.changed = false
	return nil
}

func readTokenFile(path string) (*oauth2.Token, error) {
	if path == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile failed: %w", err)
	}
	tok := &oauth2.Token{}
	if err := json.Unmarshal(raw, tok); err != nil {
		return nil, fmt.Errorf("json.Unmarshal failed: %w", err)
	}
	return tok, nil
}

// writeTokenFile replaces path through a rename so readers never see a
// partial file.
func writeTokenFile(path string, tok *oauth2.Token) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("os.MkdirAll failed: %w", err)
	}

	f, err := os.CreateTemp(dir, ".token-*.json")
	if err != nil {
		return fmt.Errorf("os.CreateTemp failed: %w", err)
	}
	defer func() { _ = os.Remove(f.Name()) }()

	if err := json.NewEncoder(f).Encode(tok); err != nil {
		_ = f.Close()
		return fmt.Errorf("json.NewEncoder.Encode failed: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("f.Close failed: %w", err)
	}
	if err := os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("os.Rename failed: %w", err)
	}
	return nil
}
