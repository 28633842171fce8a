package llm

import (
	"fmt"
	"os"
	"strings"

	"taskflow/internal/domain"
)

// SecretGetter returns a secret by name (e.g. "groq_api_key"). Used to
// resolve API keys without baking them into config files.
type SecretGetter func(name string) (string, error)

// EnvSecrets resolves secrets from the environment: "groq_api_key" becomes
// GROQ_API_KEY.
func EnvSecrets(name string) (string, error) {
	key := strings.ToUpper(name)
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("environment variable %s is not set", key)
	}
	return val, nil
}

// NewProvider returns an LLMProvider for the given agents config.
// Provider may be "groq", "openai", "ollama", or "local". Empty provider
// defaults to "local". getSecret resolves API keys for groq/openai.
func NewProvider(agents *domain.AgentsConfig, getSecret SecretGetter) (domain.LLMProvider, error) {
	if agents == nil {
		return NewLocalProvider(""), nil
	}
	if getSecret == nil {
		getSecret = EnvSecrets
	}
	provider := agents.Provider
	if provider == "" {
		provider = "local"
	}
	switch provider {
	case "local":
		return NewLocalProvider(""), nil
	case "groq":
		key, err := getSecret("groq_api_key")
		if err != nil {
			return nil, fmt.Errorf("groq: %w", err)
		}
		return NewGroqProvider(key, agents.DefaultModel), nil
	case "openai":
		key, err := getSecret("openai_api_key")
		if err != nil {
			return nil, fmt.Errorf("openai: %w", err)
		}
		return NewOpenAIProvider(key, agents.DefaultModel), nil
	case "ollama":
		return NewOllamaProvider(agents.DefaultModel), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q (use: groq, openai, ollama, local)", provider)
	}
}
