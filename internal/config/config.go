package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const configPathEnvVar = "CONFIG_PATH"

type Config interface {
	EnvConfig
	CredentialConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetAPIBaseURL() string
	GetEnv() string
	IsDev() bool
}

type CredentialConfig interface {
	GetRequestTimeout() time.Duration
	GetDefaultAccessTokenExpiry() time.Duration
	GetDefaultRefreshTokenExpiry() time.Duration
	GetStorageKey() string
	GetRolesCacheTTL() time.Duration
}

type mainConfig struct {
	EnvVars     `yaml:"env"`
	Credentials `yaml:"credentials"`
	Security    `yaml:"security"`
}

// New loads the configuration from the environment, overlaid on the YAML
// file named by CONFIG_PATH when it is set.
func New() (Config, error) {
	return Load(GetEnv(configPathEnvVar, ""))
}

// MustLoad panics when the configuration cannot be read.
func MustLoad() Config {
	c, err := New()
	if err != nil {
		panic(err)
	}
	return c
}

func Load(path string) (Config, error) {
	var c mainConfig

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("[config Load] config file %q stat failed: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &c); err != nil {
			return nil, fmt.Errorf("[config Load] failed to read config: %w", err)
		}
	}

	if err := cleanenv.ReadEnv(&c); err != nil {
		return nil, fmt.Errorf("[config Load] failed to read env: %w", err)
	}
	return c, nil
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
