package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// ProviderTimeout bounds every single external call.
	ProviderTimeout time.Duration
	// RequestTimeout bounds a whole assessment.
	RequestTimeout   time.Duration
	PlacesCandidates int

	MapboxToken      string
	GoogleMapsAPIKey string
	HowLoudAPIKey    string
	OpenWeatherKey   string

	LightPollutionAPIKey  string
	LightPollutionPageURL string
	NightSkyBrowser       bool

	GeminiAPIKey     string
	GeminiModel      string
	RecapMaxTokens   int32
	RecapTemperature float32

	// Result publication is disabled when KafkaBrokers is empty.
	KafkaBrokers     []string
	KafkaResultTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	providerTimeout, err := parseDuration("PROVIDER_TIMEOUT", "8s")
	if err != nil {
		return nil, err
	}
	requestTimeout, err := parseDuration("REQUEST_TIMEOUT", "45s")
	if err != nil {
		return nil, err
	}
	if requestTimeout < providerTimeout {
		return nil, errors.New("REQUEST_TIMEOUT must not be shorter than PROVIDER_TIMEOUT")
	}

	candidates, err := strconv.Atoi(sharedcfg.EnvOrDefault("PLACES_CANDIDATES", "10"))
	if err != nil || candidates < 1 || candidates > 24 {
		return nil, errors.New("invalid PLACES_CANDIDATES: must be between 1 and 24")
	}

	maxTokens, err := strconv.ParseInt(sharedcfg.EnvOrDefault("RECAP_MAX_TOKENS", "220"), 10, 32)
	if err != nil || maxTokens <= 0 {
		return nil, errors.New("invalid RECAP_MAX_TOKENS")
	}
	temperature, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("RECAP_TEMPERATURE", "0.6"), 32)
	if err != nil || temperature < 0 || temperature > 2 {
		return nil, errors.New("invalid RECAP_TEMPERATURE")
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ProviderTimeout:  providerTimeout,
		RequestTimeout:   requestTimeout,
		PlacesCandidates: candidates,

		MapboxToken:      os.Getenv("MAPBOX_TOKEN"),
		GoogleMapsAPIKey: os.Getenv("GOOGLE_MAPS_API_KEY"),
		HowLoudAPIKey:    os.Getenv("HOWLOUD_API_KEY"),
		OpenWeatherKey:   os.Getenv("OPENWEATHER_API_KEY"),

		LightPollutionAPIKey:  os.Getenv("LIGHTPOLLUTION_API_KEY"),
		LightPollutionPageURL: sharedcfg.EnvOrDefault("LIGHTPOLLUTION_PAGE_URL", "https://www.lightpollutionmap.info"),
		NightSkyBrowser:       os.Getenv("NIGHTSKY_BROWSER") == "true",

		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      sharedcfg.EnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		RecapMaxTokens:   int32(maxTokens),
		RecapTemperature: float32(temperature),

		KafkaResultTopic: sharedcfg.EnvOrDefault("KAFKA_RESULT_TOPIC", "listing-assessments"),
	}

	if raw := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); raw != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(raw)
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaResultTopic == "" {
		return nil, errors.New("KAFKA_RESULT_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// PublishResults reports whether finished assessments go to Kafka.
func (c *Config) PublishResults() bool {
	return len(c.KafkaBrokers) > 0
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
