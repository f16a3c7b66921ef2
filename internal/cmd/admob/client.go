package admob

import (
	"context"
	"errors"
	"fmt"

	svc "github.com/admobkit/admob/internal/admob"
	"github.com/admobkit/admob/internal/api"
	"github.com/admobkit/admob/internal/auth"
	"github.com/admobkit/admob/internal/config"
	"github.com/admobkit/admob/internal/log"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func credentialStore(cfg *config.Config) auth.CredentialStore {
	if cfg.CredentialStore == config.CredentialStoreFile {
		return &auth.FileStore{Path: config.CredentialsFile()}
	}

	return auth.NewKeyringStore(cfg.OAuth.ClientID)
}

func flowParams(cfg *config.Config, logger *log.Logger) auth.FlowParams {
	return auth.FlowParams{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		Scopes:       cfg.OAuth.Scopes,
		AuthURL:      cfg.OAuth.AuthURL,
		TokenURL:     cfg.OAuth.TokenURL,
		Port:         cfg.OAuth.CallbackPort(),
		Timeout:      cfg.OAuth.Timeout(),
		Logger:       logger,
	}
}

type clients struct {
	cfg   *config.Config
	admob *svc.Service
	drive *api.Client
}

// newClients builds API clients authorized with the stored credentials.
func newClients(ctx context.Context) (*clients, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger := log.NewTextLogger()
	ts, err := auth.TokenSource(ctx, flowParams(cfg, logger), credentialStore(cfg))
	if err != nil {
		return nil, err
	}

	apiCli, err := api.NewClient(cfg.APIEndpoint, ts, logger.WithGroup("api"))
	if err != nil {
		return nil, err
	}

	driveCli, err := api.NewClient(cfg.DriveEndpoint, ts, logger.WithGroup("drive"))
	if err != nil {
		return nil, err
	}

	return &clients{
		cfg:   cfg,
		admob: svc.NewService(apiCli),
		drive: driveCli,
	}, nil
}

var errNoPublisher = errors.New("no publisher ID, pass --publisher or set ADMOB_PUBLISHER_ID")

// publisherID resolves the account to query: --publisher, then the config,
// then the only account the credentials can see.
func (c *clients) publisherID(ctx context.Context) (string, error) {
	if flagPublisherID != "" {
		return flagPublisherID, nil
	}
	if c.cfg.PublisherID != "" {
		return c.cfg.PublisherID, nil
	}

	accounts, err := c.admob.ListAccounts(ctx)
	if err != nil {
		return "", err
	}
	if len(accounts) != 1 {
		return "", errNoPublisher
	}

	return accounts[0].PublisherID, nil
}
