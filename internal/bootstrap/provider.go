package bootstrap

import (
	"fmt"
	"log"

	"github.com/RengaN02/api.ss13.org/internal/config"
	"github.com/RengaN02/api.ss13.org/internal/provider"
)

// initializeProvider creates the gated identity provider client. The single
// shared gate lives here: every outbound call in the process goes through it.
func initializeProvider(cfg *config.Config) (*provider.Client, error) {
	client, err := provider.New(provider.Config{
		Name:         cfg.ProviderName,
		ClientID:     cfg.ProviderClientID,
		ClientSecret: cfg.ProviderClientSecret,
		RedirectURL:  cfg.ProviderRedirectURL,
		AuthorizeURL: cfg.ProviderAuthorizeURL,
		TokenURL:     cfg.ProviderTokenURL,
		IdentityURL:  cfg.ProviderIdentityURL,
		Scopes:       cfg.ProviderScopes,
		Timeout:      cfg.ProviderTimeout,
	}, provider.NewGate())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize provider client: %w", err)
	}

	log.Printf("Identity provider configured: name=%s redirect=%s",
		cfg.ProviderName, cfg.ProviderRedirectURL)
	return client, nil
}
