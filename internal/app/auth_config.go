package app

import (
	"github.com/casedesk/casedesk/internal/auth"
)

// JWTServiceConfig converts the loaded settings into an auth.JWTConfig,
// applying the package default TTL when unset.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	ttl := c.JWT.TTL
	if ttl <= 0 {
		ttl = auth.DefaultAccessTokenTTL
	}
	return auth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         c.JWT.Issuer,
		AccessTokenTTL: ttl,
	}
}
