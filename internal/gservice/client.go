package gservice

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/hal9000y/gmail-scheduler/internal/auth"
)

func httpClient(ctx context.Context, cfg *oauth2.Config, tok *auth.Token) (*http.Client, error) {
	t, err := tok.OAuthToken()
	if err != nil {
		return nil, fmt.Errorf("tok.OAuthToken failed: %w", err)
	}
	return cfg.Client(ctx, t), nil
}
