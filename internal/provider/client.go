package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	httpclient "github.com/appleboy/go-httpclient"
	"golang.org/x/oauth2"
)

// Default Discord endpoints. Any OAuth provider with a form-encoded token
// exchange and a bearer-token identity endpoint can be configured instead.
const (
	discordAuthorizeURL = "https://discord.com/oauth2/authorize"
	discordTokenURL     = "https://discord.com/api/v10/oauth2/token"
	discordIdentityURL  = "https://discord.com/api/users/@me"
)

const defaultTimeout = 15 * time.Second

// Identity is the user record returned by the provider's current-user
// endpoint. It is consumed during approval and never persisted as-is.
type Identity struct {
	ID         string  `json:"id"`
	Username   string  `json:"username"`
	GlobalName *string `json:"global_name"`
	Avatar     *string `json:"avatar"`
}

// Config contains the credentials and endpoints for one OAuth provider.
type Config struct {
	Name         string // authentication method recorded on approval
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthorizeURL string
	TokenURL     string
	IdentityURL  string
	Scopes       []string
	Timeout      time.Duration // per-call deadline
}

// Client performs the credentialed token exchange and identity fetch against
// the provider. Every call acquires the shared gate for its full duration.
type Client struct {
	name        string
	oauth       *oauth2.Config
	identityURL string
	httpClient  *http.Client
	gate        Gate
	timeout     time.Duration
}

// New creates a provider client. Empty endpoint fields fall back to Discord.
func New(cfg Config, gate Gate) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("provider client id and secret are required")
	}
	if cfg.AuthorizeURL == "" {
		cfg.AuthorizeURL = discordAuthorizeURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = discordTokenURL
	}
	if cfg.IdentityURL == "" {
		cfg.IdentityURL = discordIdentityURL
	}
	if cfg.Name == "" {
		cfg.Name = "discord"
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{"identify"}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if gate == nil {
		gate = NewGate()
	}

	client, err := httpclient.NewClient(
		httpclient.WithTimeout(cfg.Timeout),
		httpclient.WithTransport(newTransport()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider HTTP client: %w", err)
	}

	return &Client{
		name: cfg.Name,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthorizeURL,
				TokenURL: cfg.TokenURL,
			},
		},
		identityURL: cfg.IdentityURL,
		httpClient:  client,
		gate:        gate,
		timeout:     cfg.Timeout,
	}, nil
}

// newTransport creates a transport with a connection pool sized for a single
// upstream host.
func newTransport() *http.Transport {
	return &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
}

// Name returns the authentication method name recorded on approval.
func (c *Client) Name() string {
	return c.name
}

// AuthCodeURL returns the provider authorize URL carrying the given state.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// ExchangeCode converts an authorization code into an access token via the
// provider's token endpoint.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	if err := c.gate.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	defer c.gate.Release()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// Route the exchange through the gated client.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, mapExchangeError(err)
	}
	return token, nil
}

// mapExchangeError translates oauth2 exchange failures into the provider
// error taxonomy. The token endpoint signals failure with a structured
// {"code": <int>} payload; anything else is a transport or decode failure.
func mapExchangeError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		var apiErr APIError
		if json.Unmarshal(retrieveErr.Body, &apiErr) == nil && apiErr.Code != 0 {
			return &apiErr
		}
		return fmt.Errorf("%w: token endpoint status %d", ErrDecode, statusCode(retrieveErr))
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return fmt.Errorf("%w: %v", ErrDecode, err)
}

func statusCode(err *oauth2.RetrieveError) int {
	if err.Response == nil {
		return 0
	}
	return err.Response.StatusCode
}

// FetchIdentity resolves an access token into the provider identity via the
// current-user endpoint.
func (c *Client) FetchIdentity(ctx context.Context, accessToken string) (*Identity, error) {
	if err := c.gate.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	defer c.gate.Release()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.identityURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	// Discriminate on status before decoding either schema.
	if resp.StatusCode != http.StatusOK {
		var apiErr APIError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Code != 0 {
			return nil, &apiErr
		}
		return nil, fmt.Errorf("%w: identity endpoint status %d", ErrDecode, resp.StatusCode)
	}

	var identity Identity
	if err := json.Unmarshal(body, &identity); err != nil || identity.ID == "" {
		return nil, fmt.Errorf("%w: identity payload", ErrDecode)
	}

	return &identity, nil
}
