package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/admobkit/admob/internal/log"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

type FlowParams struct {
	ClientID     string
	ClientSecret string
	Scopes       []string
	AuthURL      string
	TokenURL     string
	Port         int
	Timeout      time.Duration
	Logger       *log.Logger
}

func (p FlowParams) Validate() error {
	var result error

	if _, err := url.ParseRequestURI(p.AuthURL); err != nil {
		result = errors.Join(result, fmt.Errorf("invalid authorization endpoint: %s", p.AuthURL))
	}

	if _, err := url.ParseRequestURI(p.TokenURL); err != nil {
		result = errors.Join(result, fmt.Errorf("invalid token endpoint: %s", p.TokenURL))
	}

	if p.ClientID == "" {
		result = errors.Join(result, errors.New("client ID is required"))
	}

	if len(p.Scopes) == 0 {
		result = errors.Join(result, errors.New("at least one scope is required"))
	}

	if p.Port < 0 || p.Port > 65535 {
		result = errors.Join(result, fmt.Errorf("invalid callback port: %d", p.Port))
	}

	return result
}

// OAuthConfig returns the oauth2 configuration for the given redirect URI.
func (p FlowParams) OAuthConfig(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		Scopes:       p.Scopes,
		RedirectURL:  redirectURL,
		Endpoint: oauth2.Endpoint{
			AuthURL:  p.AuthURL,
			TokenURL: p.TokenURL,
		},
	}
}

// AuthorizationRequest describes one authentication attempt.
type AuthorizationRequest struct {
	AuthorizationEndpoint string
	ClientID              string
	RedirectURI           string
	Scopes                []string
	State                 string
}

// InitFlow generates the state token and binds the callback listener so port
// conflicts surface before the user is sent to the browser.
func InitFlow(params FlowParams) (*Flow, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	logger := params.Logger
	if logger == nil {
		logger = log.NewTextLogger()
	}
	logger = logger.With("attempt", uuid.NewString())

	state, err := NewState()
	if err != nil {
		return nil, fmt.Errorf("generating state token: %w", err)
	}

	listener, err := Bind(ListenerOptions{
		Port:    params.Port,
		Timeout: params.Timeout,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	return &Flow{
		listener: listener,
		params:   params,
		logger:   logger,
		request: AuthorizationRequest{
			AuthorizationEndpoint: params.AuthURL,
			ClientID:              params.ClientID,
			RedirectURI:           listener.URL(),
			Scopes:                append([]string(nil), params.Scopes...),
			State:                 state,
		},
	}, nil
}

type Flow struct {
	listener *Listener
	params   FlowParams
	request  AuthorizationRequest
	logger   *log.Logger
}

func (f *Flow) Done() error {
	return f.listener.Close()
}

func (f *Flow) Request() AuthorizationRequest {
	return f.request
}

func (f *Flow) BrowserURL() string {
	return f.conf().AuthCodeURL(
		f.request.State,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)
}

// WaitForToken waits for the redirect and exchanges the code.
func (f *Flow) WaitForToken(ctx context.Context) (*oauth2.Token, error) {
	result, err := f.listener.Accept(ctx, f.request.State)
	if err != nil {
		return nil, &AuthorizationError{Err: err}
	}

	f.logger.Debug("exchanging authorization code")
	tok, err := f.conf().Exchange(ctx, result.Code)
	if err != nil {
		return nil, &TokenExchangeError{Err: err}
	}

	return tok, nil
}

func (f *Flow) conf() *oauth2.Config {
	return f.params.OAuthConfig(f.request.RedirectURI)
}

type AuthorizeOptions struct {
	Params FlowParams

	// BeforeAuthorize presents the authorization URL to the user. Returning
	// false aborts the attempt with ErrCancelled.
	BeforeAuthorize func(authURL string) (bool, error)
}

// Authorize runs one interactive authorization-code exchange. Any failure
// aborts the attempt; a retry needs a new call, which uses a new state token.
func Authorize(ctx context.Context, opts AuthorizeOptions) (*oauth2.Token, error) {
	flow, err := InitFlow(opts.Params)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = flow.Done()
	}()

	if opts.BeforeAuthorize != nil {
		con, err := opts.BeforeAuthorize(flow.BrowserURL())
		if err != nil {
			return nil, err
		}
		if !con {
			return nil, ErrCancelled
		}
	}

	return flow.WaitForToken(ctx)
}
