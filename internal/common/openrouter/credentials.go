package openrouter

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// APIKeyEnv is the environment variable read by EnvCredentials.
const APIKeyEnv = "OPENROUTER_API_KEY"

// CredentialProvider yields the API key. An empty key with a nil error means
// no key is configured.
type CredentialProvider interface {
	APIKey() (string, error)
}

// EnvCredentials reads OPENROUTER_API_KEY from the process environment.
type EnvCredentials struct{}

func (EnvCredentials) APIKey() (string, error) {
	return strings.TrimSpace(os.Getenv(APIKeyEnv)), nil
}

// DotEnvCredentials reads the key from a .env file without mutating the
// process environment.
type DotEnvCredentials struct {
	Path string
}

func (d DotEnvCredentials) APIKey() (string, error) {
	if d.Path == "" {
		return "", nil
	}
	values, err := godotenv.Read(d.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading credential file %s: %w", d.Path, err)
	}
	return strings.TrimSpace(values[APIKeyEnv]), nil
}

// StaticCredentials returns a fixed key, typically from config.
type StaticCredentials string

func (s StaticCredentials) APIKey() (string, error) {
	return strings.TrimSpace(string(s)), nil
}

// ChainCredentials returns the first non-empty key. A provider error stops
// the chain.
type ChainCredentials []CredentialProvider

func (c ChainCredentials) APIKey() (string, error) {
	for _, p := range c {
		if p == nil {
			continue
		}
		key, err := p.APIKey()
		if err != nil {
			return "", err
		}
		if key != "" {
			return key, nil
		}
	}
	return "", nil
}

// DefaultCredentials checks the configured key, then the environment, then
// the credential file.
func DefaultCredentials(configured, credentialFile string) CredentialProvider {
	return ChainCredentials{
		StaticCredentials(configured),
		EnvCredentials{},
		DotEnvCredentials{Path: credentialFile},
	}
}
