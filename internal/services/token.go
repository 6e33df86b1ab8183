package services

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/showlist/internal/models"
	"github.com/desertthunder/showlist/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const spotifyTokenURL = "https://accounts.spotify.com/api/token"

// CredentialSource hands out a bearer credential for each outgoing request.
type CredentialSource interface {
	Token(ctx context.Context) (models.Credential, error)
}

// TokenManagerOpts configures a [TokenManager]. Zero values select production defaults.
type TokenManagerOpts struct {
	TokenURL   string
	HTTPClient *http.Client
	Timeout    time.Duration // bounds each exchange, default 15s
	Store      TokenStore
	Logger     *log.Logger
	Now        func() time.Time
}

// TokenManager obtains and caches an app-level access token using the client-credentials grant.
//
// The mutex is held across the exchange so concurrent callers wait for a single refresh
// instead of racing to request their own.
type TokenManager struct {
	config     *clientcredentials.Config
	httpClient *http.Client
	timeout    time.Duration
	store      TokenStore
	logger     *log.Logger
	now        func() time.Time

	mu sync.Mutex
}

// NewTokenManager creates a [TokenManager] for the given application credentials.
func NewTokenManager(clientID, clientSecret string, opts TokenManagerOpts) (*TokenManager, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("%w: client_id and client_secret are required", shared.ErrMissingCredentials)
	}
	if opts.TokenURL == "" {
		opts.TokenURL = spotifyTokenURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Store == nil {
		opts.Store = NewMemoryTokenStore()
	}
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &TokenManager{
		config: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     opts.TokenURL,
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		httpClient: opts.HTTPClient,
		timeout:    opts.Timeout,
		store:      opts.Store,
		logger:     opts.Logger,
		now:        opts.Now,
	}, nil
}

// Token returns the cached credential while it is valid and exchanges a new one otherwise.
//
// Failures are wrapped in [shared.ErrAuthFailed] and never retried here.
func (m *TokenManager) Token(ctx context.Context) (models.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cred, ok, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Warn("token store read failed, requesting a new token", "error", err)
	} else if ok && cred.Valid(m.now()) {
		return cred, nil
	}

	cred, err = m.exchange(ctx)
	if err != nil {
		return models.Credential{}, err
	}

	if err := m.store.Save(ctx, cred); err != nil {
		m.logger.Warn("token store write failed", "error", err)
	}
	m.logger.Debug("obtained spotify access token", "expires", cred.Expiry)
	return cred, nil
}

func (m *TokenManager) exchange(ctx context.Context) (models.Credential, error) {
	issued := m.now()

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
	tok, err := m.config.Token(ctx)
	if err != nil {
		return models.Credential{}, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	cred := models.Credential{AccessToken: tok.AccessToken}
	switch {
	case tok.ExpiresIn > 0:
		cred.Expiry = issued.Add(time.Duration(tok.ExpiresIn) * time.Second)
	case !tok.Expiry.IsZero():
		cred.Expiry = tok.Expiry
	}
	return cred, nil
}
