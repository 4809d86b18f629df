// internal/config/config.go
package config

import (
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Weather  WeatherConfig
	Trends   TrendsConfig
	RefData  RefDataConfig
	Jobs     JobsConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled            bool
	RedisURL           string
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	ForecastTTLSeconds int
	RefDataTTLSeconds  int
}

type WeatherConfig struct {
	TimeoutSeconds  int
	Locations       []string
	DefaultLocation string
	MinDelayMillis  int
	MaxRetries      int
}

type TrendsConfig struct {
	Endpoint       string
	Geo            string
	Timeframe      string
	TimeoutSeconds int
	MinDelayMillis int
	MaxRetries     int
}

type RefDataConfig struct {
	Endpoint    string
	AccessKey   string
	SecretKey   string
	Bucket      string
	Region      string
	UseSSL      bool
	Version     string
	LocalDir    string
}

type JobsConfig struct {
	ForecastSKUCap      int
	AlertSKUCap         int
	AccuracyRecordCap   int
	RetryAttempts       int
	RetryBaseDelayMins  int
	ForecastHorizonDays int
	AlertHorizonDays    int
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "forecast")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_FORECAST_TTL_SECONDS", 21600)
		viper.SetDefault("CACHE_REFDATA_TTL_SECONDS", 86400)
		viper.SetDefault("WEATHER_TIMEOUT_SECONDS", 15)
		viper.SetDefault("WEATHER_LOCATIONS", []string{
			"Mumbai", "Delhi", "Bangalore", "Chennai",
			"Kolkata", "Hyderabad", "Pune", "Ahmedabad",
		})
		viper.SetDefault("WEATHER_DEFAULT_LOCATION", "Mumbai")
		viper.SetDefault("WEATHER_MIN_DELAY_MILLIS", 1000)
		viper.SetDefault("WEATHER_MAX_RETRIES", 3)
		viper.SetDefault("TRENDS_ENDPOINT", "")
		viper.SetDefault("TRENDS_GEO", "IN")
		viper.SetDefault("TRENDS_TIMEFRAME", "today 3-m")
		viper.SetDefault("TRENDS_TIMEOUT_SECONDS", 20)
		viper.SetDefault("TRENDS_MIN_DELAY_MILLIS", 3000)
		viper.SetDefault("TRENDS_MAX_RETRIES", 3)
		viper.SetDefault("REFDATA_ENDPOINT", "")
		viper.SetDefault("REFDATA_ACCESS_KEY", "")
		viper.SetDefault("REFDATA_SECRET_KEY", "")
		viper.SetDefault("REFDATA_BUCKET", "")
		viper.SetDefault("REFDATA_REGION", "")
		viper.SetDefault("REFDATA_USE_SSL", true)
		viper.SetDefault("REFDATA_VERSION", "v1")
		viper.SetDefault("REFDATA_LOCAL_DIR", "./data/static")
		viper.SetDefault("JOBS_FORECAST_SKU_CAP", 1000)
		viper.SetDefault("JOBS_ALERT_SKU_CAP", 500)
		viper.SetDefault("JOBS_ACCURACY_RECORD_CAP", 1000)
		viper.SetDefault("JOBS_RETRY_ATTEMPTS", 3)
		viper.SetDefault("JOBS_RETRY_BASE_DELAY_MINS", 10)
		viper.SetDefault("JOBS_FORECAST_HORIZON_DAYS", 30)
		viper.SetDefault("JOBS_ALERT_HORIZON_DAYS", 14)

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:            viper.GetBool("CACHE_ENABLED"),
				RedisURL:           viper.GetString("REDIS_URL"),
				RedisHost:          viper.GetString("REDIS_HOST"),
				RedisPort:          viper.GetString("REDIS_PORT"),
				RedisPassword:      viper.GetString("REDIS_PASSWORD"),
				RedisDB:            viper.GetInt("REDIS_DB"),
				ForecastTTLSeconds: viper.GetInt("CACHE_FORECAST_TTL_SECONDS"),
				RefDataTTLSeconds:  viper.GetInt("CACHE_REFDATA_TTL_SECONDS"),
			},
			Weather: WeatherConfig{
				TimeoutSeconds:  viper.GetInt("WEATHER_TIMEOUT_SECONDS"),
				Locations:       splitList(viper.GetStringSlice("WEATHER_LOCATIONS")),
				DefaultLocation: viper.GetString("WEATHER_DEFAULT_LOCATION"),
				MinDelayMillis:  viper.GetInt("WEATHER_MIN_DELAY_MILLIS"),
				MaxRetries:      viper.GetInt("WEATHER_MAX_RETRIES"),
			},
			Trends: TrendsConfig{
				Endpoint:       viper.GetString("TRENDS_ENDPOINT"),
				Geo:            viper.GetString("TRENDS_GEO"),
				Timeframe:      viper.GetString("TRENDS_TIMEFRAME"),
				TimeoutSeconds: viper.GetInt("TRENDS_TIMEOUT_SECONDS"),
				MinDelayMillis: viper.GetInt("TRENDS_MIN_DELAY_MILLIS"),
				MaxRetries:     viper.GetInt("TRENDS_MAX_RETRIES"),
			},
			RefData: RefDataConfig{
				Endpoint:  viper.GetString("REFDATA_ENDPOINT"),
				AccessKey: viper.GetString("REFDATA_ACCESS_KEY"),
				SecretKey: viper.GetString("REFDATA_SECRET_KEY"),
				Bucket:    viper.GetString("REFDATA_BUCKET"),
				Region:    viper.GetString("REFDATA_REGION"),
				UseSSL:    viper.GetBool("REFDATA_USE_SSL"),
				Version:   viper.GetString("REFDATA_VERSION"),
				LocalDir:  viper.GetString("REFDATA_LOCAL_DIR"),
			},
			Jobs: JobsConfig{
				ForecastSKUCap:      viper.GetInt("JOBS_FORECAST_SKU_CAP"),
				AlertSKUCap:         viper.GetInt("JOBS_ALERT_SKU_CAP"),
				AccuracyRecordCap:   viper.GetInt("JOBS_ACCURACY_RECORD_CAP"),
				RetryAttempts:       viper.GetInt("JOBS_RETRY_ATTEMPTS"),
				RetryBaseDelayMins:  viper.GetInt("JOBS_RETRY_BASE_DELAY_MINS"),
				ForecastHorizonDays: viper.GetInt("JOBS_FORECAST_HORIZON_DAYS"),
				AlertHorizonDays:    viper.GetInt("JOBS_ALERT_HORIZON_DAYS"),
			},
		}
	})

	return instance
}

// splitList flattens comma-separated entries that arrive through a single
// environment variable value.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
