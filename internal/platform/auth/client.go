package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// HTTPClient returns a client that authenticates every request according to
// cfg. base supplies the transport and timeout; nil means http.DefaultClient.
//
// In oidc mode the token endpoint is discovered from the issuer unless
// OIDCTokenURL is set, and tokens are fetched with the client-credentials
// grant and refreshed as they expire.
func HTTPClient(ctx context.Context, cfg Config, base *http.Client) (*http.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if base == nil {
		base = http.DefaultClient
	}

	switch cfg.Mode {
	case ModeStatic:
		return &http.Client{
			Transport: &headerTransport{
				base:   transportOf(base),
				header: "Authorization",
				value:  cfg.StaticHeader,
			},
			Timeout: base.Timeout,
		}, nil
	case ModeOIDC:
		tokenURL, err := resolveTokenURL(ctx, cfg, base)
		if err != nil {
			return nil, err
		}
		cc := clientcredentials.Config{
			ClientID:     cfg.OIDCClientID,
			ClientSecret: cfg.OIDCClientSecret,
			TokenURL:     tokenURL,
			Scopes:       cfg.OIDCScopes,
		}
		tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		return &http.Client{
			Transport: &oauth2.Transport{
				Source: oauth2.ReuseTokenSource(nil, cc.TokenSource(tokenCtx)),
				Base:   transportOf(base),
			},
			Timeout: base.Timeout,
		}, nil
	default:
		return base, nil
	}
}

func resolveTokenURL(ctx context.Context, cfg Config, base *http.Client) (string, error) {
	if tokenURL := strings.TrimSpace(cfg.OIDCTokenURL); tokenURL != "" {
		return tokenURL, nil
	}
	provider, err := oidc.NewProvider(oidc.ClientContext(ctx, base), cfg.OIDCIssuerURL)
	if err != nil {
		return "", fmt.Errorf("oidc provider: %w", err)
	}
	tokenURL := provider.Endpoint().TokenURL
	if tokenURL == "" {
		return "", fmt.Errorf("oidc provider %s has no token endpoint", cfg.OIDCIssuerURL)
	}
	return tokenURL, nil
}

func transportOf(c *http.Client) http.RoundTripper {
	if c != nil && c.Transport != nil {
		return c.Transport
	}
	return http.DefaultTransport
}

type headerTransport struct {
	base   http.RoundTripper
	header string
	value  string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set(t.header, t.value)
	return t.base.RoundTrip(clone)
}
