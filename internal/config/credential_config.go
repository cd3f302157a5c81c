package config

import "time"

type Credentials struct {
	RequestTimeout     time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT" env-default:"10s"`
	AccessTokenExpiry  time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"1h"`
	RefreshTokenExpiry time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" env-default:"168h"`
	StorageKey         string        `yaml:"storage_key" env:"STORAGE_KEY"`
	RolesCacheTTL      time.Duration `yaml:"roles_cache_ttl" env:"ROLES_CACHE_TTL" env-default:"5m"`
}

var _ CredentialConfig = Credentials{}

func (c Credentials) GetRequestTimeout() time.Duration {
	return c.RequestTimeout
}

func (c Credentials) GetDefaultAccessTokenExpiry() time.Duration {
	return c.AccessTokenExpiry
}

func (c Credentials) GetDefaultRefreshTokenExpiry() time.Duration {
	return c.RefreshTokenExpiry // 7 days unless overridden
}

// GetStorageKey returns the base64 key used to seal credentials at rest.
// Empty disables sealing.
func (c Credentials) GetStorageKey() string {
	return c.StorageKey
}

func (c Credentials) GetRolesCacheTTL() time.Duration {
	return c.RolesCacheTTL
}
