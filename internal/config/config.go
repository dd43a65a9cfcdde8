package config

import (
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const envFileVar = "ENV_FILE"

type Config interface {
	EnvConfig
	CorsConfig
	TokenConfig
	SecurityConfig
	StorageConfig
	MailConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	IsProduction() bool
	GetLogLevel() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Tokens
	Security
	Storage
	Mail
}

// New loads an optional .env file and then reads the process environment
func New() (Config, error) {
	envFile := GetEnv(envFileVar, ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrapf(err, "[config New] load %s", envFile)
	}
	return parse(env.Options{})
}

// FromEnvironment builds a Config from the given variables only, ignoring the process environment
func FromEnvironment(environment map[string]string) (Config, error) {
	return parse(env.Options{Environment: environment})
}

func parse(opts env.Options) (Config, error) {
	var c mainConfig
	if err := env.ParseWithOptions(&c, opts); err != nil {
		return nil, errors.Wrap(err, "[config parse]")
	}
	c.Cors.allowed = newAllowedOrigins(c.Cors.Origins)
	if err := c.Tokens.validate(); err != nil {
		return nil, err
	}
	if err := c.Security.validate(); err != nil {
		return nil, err
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
