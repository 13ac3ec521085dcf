package pipeline

import (
	"strings"

	"i14yimport/internal/config"
)

// BearerToken adds the "Bearer " scheme when a raw token was supplied.
func BearerToken(token string) string {
	token = strings.TrimSpace(token)
	if token == "" || strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return token
	}
	return "Bearer " + token
}

func CredentialsFromConfig(cfg config.Config) Credentials {
	return Credentials{
		APIToken:            BearerToken(cfg.APIToken),
		OrganizationID:      strings.TrimSpace(cfg.OrganizationID),
		PublisherIdentifier: strings.TrimSpace(cfg.PublisherIdentifier),
	}
}
