package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL     string
	Port            string
	IsProduction    bool
	RunMigrations   bool
	KafkaBrokers    []string
	KafkaTopic      string
	QuoteAPIURL     string
	SettingCacheTTL time.Duration
	RateLimitRPS    int
}

// LoadConfig loads configuration from environment variables.
// It looks for a .env file first.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.AutomaticEnv()
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("RUN_MIGRATIONS", true)
	viper.SetDefault("KAFKA_TOPIC", "settlement.order-events")
	viper.SetDefault("SETTING_CACHE_TTL", "60s")
	viper.SetDefault("RATE_LIMIT_RPS", 50)

	dbURL := viper.GetString("PGSQL_URL")
	if dbURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	ttl := viper.GetDuration("SETTING_CACHE_TTL")
	if ttl <= 0 {
		log.Printf("Warning: Invalid value for SETTING_CACHE_TTL ('%s'). Defaulting to 60s.\n", viper.GetString("SETTING_CACHE_TTL"))
		ttl = 60 * time.Second
	}

	return &Config{
		DatabaseURL:     dbURL,
		Port:            viper.GetString("PORT"),
		IsProduction:    viper.GetBool("IS_PRODUCTION"),
		RunMigrations:   viper.GetBool("RUN_MIGRATIONS"),
		KafkaBrokers:    viper.GetStringSlice("KAFKA_BROKERS"),
		KafkaTopic:      viper.GetString("KAFKA_TOPIC"),
		QuoteAPIURL:     viper.GetString("QUOTE_API_URL"),
		SettingCacheTTL: ttl,
		RateLimitRPS:    viper.GetInt("RATE_LIMIT_RPS"),
	}, nil
}
