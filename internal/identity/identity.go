package identity

import (
	"context"
	"fmt"
	"sync"

	"vestry/internal/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/oauth2/microsoft"
)

// MicrosoftProvider acquires app-only access tokens from Microsoft Entra via
// the client-credentials flow. An incomplete configuration is "not signed
// in", never an error: cloud sync simply stays off.
type MicrosoftProvider struct {
	cfg config.IdentityConfig

	mu     sync.Mutex
	source oauth2.TokenSource
}

func NewMicrosoftProvider(cfg config.IdentityConfig) *MicrosoftProvider {
	return &MicrosoftProvider{cfg: cfg}
}

// SignedIn reports whether the provider has everything it needs to mint
// tokens. It does not verify the credentials against the identity service.
func (p *MicrosoftProvider) SignedIn() bool {
	return p.cfg.TenantID != "" && p.cfg.ClientID != "" && p.cfg.ClientSecret != ""
}

// Token returns a current bearer token, reusing the cached one until expiry.
func (p *MicrosoftProvider) Token(ctx context.Context) (string, error) {
	if !p.SignedIn() {
		return "", fmt.Errorf("microsoft identity is not configured")
	}

	p.mu.Lock()
	if p.source == nil {
		scopes := p.cfg.Scopes
		if len(scopes) == 0 {
			scopes = []string{"https://graph.microsoft.com/.default"}
		}
		cc := &clientcredentials.Config{
			ClientID:     p.cfg.ClientID,
			ClientSecret: p.cfg.ClientSecret,
			TokenURL:     microsoft.AzureADEndpoint(p.cfg.TenantID).TokenURL,
			Scopes:       scopes,
		}
		p.source = cc.TokenSource(context.Background())
	}
	source := p.source
	p.mu.Unlock()

	token, err := source.Token()
	if err != nil {
		return "", fmt.Errorf("acquire microsoft token: %w", err)
	}
	return token.AccessToken, nil
}

// StaticCredentials wraps a fixed token, used for backends authenticated by
// an API key rather than an identity service, and in tests.
type StaticCredentials struct {
	Value string
}

func (s StaticCredentials) SignedIn() bool { return s.Value != "" }

func (s StaticCredentials) Token(ctx context.Context) (string, error) {
	if s.Value == "" {
		return "", fmt.Errorf("no credential configured")
	}
	return s.Value, nil
}
