package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Env      string
	LogLevel string

	// Completion provider
	LLMProvider         string
	LLMFallbackProvider string
	OpenAIAPIKey        string
	OpenAIModel         string
	OpenAIBaseURL       string
	BedrockModelID      string
	GeminiAPIKey        string
	GeminiModel         string
	SystemPrompt        string

	// Booking
	BookingFunctionName string
	Timezone            string

	// Call policy
	LLMTimeout     time.Duration
	BookingTimeout time.Duration
	RetryBackoff   time.Duration

	// AWS
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	// AWSEndpointServices lists the clients the endpoint override applies to.
	AWSEndpointServices []string

	MetricsPushgatewayURL string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		LLMProvider:         strings.ToLower(strings.TrimSpace(getEnv("LLM_PROVIDER", "openai"))),
		LLMFallbackProvider: strings.ToLower(strings.TrimSpace(getEnv("LLM_FALLBACK_PROVIDER", ""))),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:         getEnv("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", ""),
		BedrockModelID:      getEnv("BEDROCK_MODEL_ID", ""),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		SystemPrompt:        getEnv("SYSTEM_PROMPT", ""),

		BookingFunctionName: getEnv("BOOKING_FUNCTION_NAME", "setAppointment"),
		Timezone:            getEnv("ASSISTANT_TIMEZONE", "America/Santo_Domingo"),

		LLMTimeout:     getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),
		BookingTimeout: getEnvAsDuration("BOOKING_TIMEOUT", 10*time.Second),
		RetryBackoff:   getEnvAsDuration("RETRY_BACKOFF", 500*time.Millisecond),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		AWSEndpointServices: getEnvAsList("AWS_ENDPOINT_SERVICES", []string{"lambda", "bedrock-runtime"}),

		MetricsPushgatewayURL: getEnv("METRICS_PUSHGATEWAY_URL", ""),
	}
}

// Validate reports configuration that would only fail later, at the first invocation.
func (c *Config) Validate() error {
	var errs []error
	for _, provider := range []string{c.LLMProvider, c.LLMFallbackProvider} {
		switch provider {
		case "":
		case "openai":
			if strings.TrimSpace(c.OpenAIAPIKey) == "" {
				errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai provider"))
			}
		case "bedrock":
			if strings.TrimSpace(c.BedrockModelID) == "" {
				errs = append(errs, errors.New("BEDROCK_MODEL_ID is required for the bedrock provider"))
			}
		case "gemini":
			if strings.TrimSpace(c.GeminiAPIKey) == "" {
				errs = append(errs, errors.New("GEMINI_API_KEY is required for the gemini provider"))
			}
		default:
			errs = append(errs, fmt.Errorf("unsupported LLM provider %q", provider))
		}
	}
	if c.LLMProvider == "" {
		errs = append(errs, errors.New("LLM_PROVIDER is required"))
	}
	if c.LLMFallbackProvider != "" && c.LLMFallbackProvider == c.LLMProvider {
		errs = append(errs, errors.New("LLM_FALLBACK_PROVIDER must differ from LLM_PROVIDER"))
	}
	if strings.TrimSpace(c.BookingFunctionName) == "" {
		errs = append(errs, errors.New("BOOKING_FUNCTION_NAME is required"))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid ASSISTANT_TIMEZONE %q: %w", c.Timezone, err))
	}
	return errors.Join(errs...)
}

// Location returns the time zone appointments are interpreted in, falling back to UTC.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var values []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			values = append(values, part)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
