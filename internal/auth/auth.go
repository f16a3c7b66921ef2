package auth

import (
	"context"
	"sync"

	"golang.org/x/oauth2"
)

type LoginOptions struct {
	Params FlowParams
	Store  CredentialStore

	BeforeLogin func(authURL string) (bool, error)
	AfterLogin  func(tok *oauth2.Token) error
}

func Login(ctx context.Context, opts LoginOptions) error {
	tok, err := Authorize(ctx, AuthorizeOptions{
		Params:          opts.Params,
		BeforeAuthorize: opts.BeforeLogin,
	})
	if err != nil {
		return err
	}

	if err := opts.Store.Save(tok); err != nil {
		return err
	}

	if opts.AfterLogin == nil {
		return nil
	}

	return opts.AfterLogin(tok)
}

func Logout(store CredentialStore) error {
	return store.Delete()
}

// TokenSource returns a token source backed by the stored credentials.
// Refreshed tokens are written back to the store.
func TokenSource(ctx context.Context, params FlowParams, store CredentialStore) (oauth2.TokenSource, error) {
	tok, err := store.Load()
	if err != nil {
		return nil, err
	}

	base := params.OAuthConfig("").TokenSource(ctx, tok)
	return &persistingTokenSource{
		base:  oauth2.ReuseTokenSource(tok, base),
		store: store,
		last:  tok,
	}, nil
}

type persistingTokenSource struct {
	base  oauth2.TokenSource
	store CredentialStore

	mu   sync.Mutex
	last *oauth2.Token
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last == nil || tok.AccessToken != s.last.AccessToken {
		// the provider may omit the refresh token on refresh
		if tok.RefreshToken == "" && s.last != nil {
			tok.RefreshToken = s.last.RefreshToken
		}
		if err := s.store.Save(tok); err != nil {
			return nil, err
		}
		s.last = tok
	}

	return tok, nil
}
