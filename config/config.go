package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

// ErrMissingSecret is returned when a required secret is not set in the environment.
var ErrMissingSecret = errors.New("required secret not set")

type Config struct {
	Mode   string `mapstructure:"mode"`
	Server struct {
		HTTPPort       string        `mapstructure:"HTTPPort"`
		Timeout        time.Duration `mapstructure:"HTTPTimeout"`
		MetricsPort    string        `mapstructure:"metricsPort"`
		AllowedOrigins []string      `mapstructure:"allowedOrigins"`
	} `mapstructure:"server"`
	Session   SessionConfig   `mapstructure:"session"`
	Geocoder  GeocoderConfig  `mapstructure:"geocoder"`
	Router    RouterConfig    `mapstructure:"router"`
	Weather   WeatherConfig   `mapstructure:"weather"`
	Itinerary ItineraryConfig `mapstructure:"itinerary"`
	Planner   struct {
		ParallelLookups bool `mapstructure:"parallelLookups"`
	} `mapstructure:"planner"`
}

type SessionConfig struct {
	// SecretKey signs session cookies. Bound from SESSION_SECRET_KEY.
	SecretKey       string        `mapstructure:"secretKey"`
	Store           string        `mapstructure:"store"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanupInterval"`
	CookieName      string        `mapstructure:"cookieName"`
	SecureCookie    bool          `mapstructure:"secureCookie"`
	Redis           struct {
		Addr      string `mapstructure:"addr"`
		Password  string `mapstructure:"password"`
		DB        int    `mapstructure:"db"`
		KeyPrefix string `mapstructure:"keyPrefix"`
	} `mapstructure:"redis"`
}

type GeocoderConfig struct {
	BaseURL   string        `mapstructure:"baseURL"`
	UserAgent string        `mapstructure:"userAgent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type RouterConfig struct {
	BaseURL string        `mapstructure:"baseURL"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type WeatherConfig struct {
	// APIKey is optional; weather is skipped when it is empty. Bound from WEATHER_API_KEY.
	APIKey  string        `mapstructure:"apiKey"`
	BaseURL string        `mapstructure:"baseURL"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ItineraryConfig struct {
	Provider     string        `mapstructure:"provider"`
	OllamaURL    string        `mapstructure:"ollamaURL"`
	Model        string        `mapstructure:"model"`
	GeminiModel  string        `mapstructure:"geminiModel"`
	GeminiAPIKey string        `mapstructure:"geminiAPIKey"`
	Temperature  float64       `mapstructure:"temperature"`
	TopP         float64       `mapstructure:"topP"`
	MaxTokens    int           `mapstructure:"maxTokens"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

func InitConfig() (Config, error) {
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")
	v.AddConfigPath("/usr/local/bin")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	cfg, err := load(v)
	if err != nil {
		return Config{}, err
	}
	fmt.Println("Successfully loaded app configs...")
	return cfg, nil
}

// load binds environment overrides, unmarshals and validates.
func load(v *viper.Viper) (Config, error) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindings := map[string]string{
		"session.secretKey":      "SESSION_SECRET_KEY",
		"weather.apiKey":         "WEATHER_API_KEY",
		"itinerary.geminiAPIKey": "GOOGLE_GEMINI_API_KEY",
		"itinerary.ollamaURL":    "OLLAMA_URL",
		"session.redis.addr":     "REDIS_ADDR",
		"server.HTTPPort":        "PORT",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if strings.TrimSpace(cfg.Session.SecretKey) == "" {
		return Config{}, fmt.Errorf("%w: SESSION_SECRET_KEY", ErrMissingSecret)
	}
	return cfg, nil
}
