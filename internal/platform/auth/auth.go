package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/m-rossini/balance-category-pipeline/internal/platform/env"
)

// Mode selects how outbound requests to the classification service are
// authenticated.
type Mode string

const (
	ModeNone   Mode = "none"
	ModeStatic Mode = "static"
	ModeOIDC   Mode = "oidc"
)

type Config struct {
	Mode Mode

	// StaticHeader is sent verbatim as the Authorization header in static mode.
	StaticHeader string

	OIDCIssuerURL    string
	OIDCTokenURL     string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCScopes       []string
}

func ConfigFromEnv() (Config, error) {
	apiKey := env.String("AI_SERVICE_API_KEY", "")
	def := ModeNone
	if strings.TrimSpace(apiKey) != "" {
		def = ModeStatic
	}
	modeRaw := strings.ToLower(strings.TrimSpace(env.FirstString(string(def), "PIPELINE_CLASSIFIER_AUTH_MODE")))
	var mode Mode
	switch modeRaw {
	case string(ModeNone):
		mode = ModeNone
	case string(ModeStatic):
		mode = ModeStatic
	case string(ModeOIDC):
		mode = ModeOIDC
	default:
		return Config{}, fmt.Errorf("PIPELINE_CLASSIFIER_AUTH_MODE must be one of: none, static, oidc (got %q)", modeRaw)
	}

	cfg := Config{
		Mode:             mode,
		StaticHeader:     apiKey,
		OIDCIssuerURL:    env.String("PIPELINE_CLASSIFIER_OIDC_ISSUER_URL", ""),
		OIDCTokenURL:     env.String("PIPELINE_CLASSIFIER_OIDC_TOKEN_URL", ""),
		OIDCClientID:     env.String("PIPELINE_CLASSIFIER_OIDC_CLIENT_ID", ""),
		OIDCClientSecret: env.String("PIPELINE_CLASSIFIER_OIDC_CLIENT_SECRET", ""),
		OIDCScopes:       parseScopes(env.String("PIPELINE_CLASSIFIER_OIDC_SCOPES", "")),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Mode {
	case ModeNone:
	case ModeStatic:
		if strings.TrimSpace(c.StaticHeader) == "" {
			return errors.New("AI_SERVICE_API_KEY is required when PIPELINE_CLASSIFIER_AUTH_MODE=static")
		}
	case ModeOIDC:
		if strings.TrimSpace(c.OIDCIssuerURL) == "" && strings.TrimSpace(c.OIDCTokenURL) == "" {
			return errors.New("PIPELINE_CLASSIFIER_OIDC_ISSUER_URL or PIPELINE_CLASSIFIER_OIDC_TOKEN_URL is required when PIPELINE_CLASSIFIER_AUTH_MODE=oidc")
		}
		if strings.TrimSpace(c.OIDCClientID) == "" {
			return errors.New("PIPELINE_CLASSIFIER_OIDC_CLIENT_ID is required when PIPELINE_CLASSIFIER_AUTH_MODE=oidc")
		}
		if strings.TrimSpace(c.OIDCClientSecret) == "" {
			return errors.New("PIPELINE_CLASSIFIER_OIDC_CLIENT_SECRET is required when PIPELINE_CLASSIFIER_AUTH_MODE=oidc")
		}
	default:
		return fmt.Errorf("unsupported auth mode: %q", c.Mode)
	}
	return nil
}

func parseScopes(value string) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) == 0 {
		return nil
	}
	return fields
}
