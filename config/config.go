package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration (chat history store).
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisHistoryDB int    `mapstructure:"REDIS_HISTORY_DB"`

	// Gemini (conversational agent).
	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel  string `mapstructure:"GEMINI_MODEL"`

	// Upstream business APIs.
	InformacionURL string `mapstructure:"API_INFORMACION_URL"`
	AgendarURL     string `mapstructure:"API_AGENDAR_REUNION_URL"`
	CalendarioURL  string `mapstructure:"API_CALENDARIO_URL"`
	PreguntasURL   string `mapstructure:"API_PREGUNTAS_URL"`

	// Timeouts, in seconds.
	APITimeoutSecs  int `mapstructure:"API_TIMEOUT_SECONDS"`
	ChatTimeoutSecs int `mapstructure:"CHAT_TIMEOUT_SECONDS"`

	// Cache and history TTLs, in minutes.
	ScheduleCacheTTLMin int `mapstructure:"SCHEDULE_CACHE_TTL_MINUTES"`
	ContextCacheTTLMin  int `mapstructure:"CONTEXT_CACHE_TTL_MINUTES"`
	AgentCacheTTLMin    int `mapstructure:"AGENT_CACHE_TTL_MINUTES"`
	HistoryTTLMin       int `mapstructure:"HISTORY_TTL_MINUTES"`

	// Resilience knobs.
	HTTPRetryAttempts int `mapstructure:"HTTP_RETRY_ATTEMPTS"`
	BreakerThreshold  int `mapstructure:"BREAKER_THRESHOLD"`
	BreakerWindowMin  int `mapstructure:"BREAKER_WINDOW_MINUTES"`

	// Timezone for all date/time validation (tenant-facing).
	Timezone string `mapstructure:"TIMEZONE"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8003")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_HISTORY_DB", 2)
	viper.SetDefault("GEMINI_MODEL", "models/gemini-1.5-pro")
	viper.SetDefault("API_INFORMACION_URL", "https://api.maravia.pe/servicio/ws_informacion_ia.php")
	viper.SetDefault("API_AGENDAR_REUNION_URL", "https://api.maravia.pe/servicio/ws_agendar_reunion.php")
	viper.SetDefault("API_CALENDARIO_URL", "https://api.maravia.pe/servicio/ws_calendario.php")
	viper.SetDefault("API_PREGUNTAS_URL", "https://api.maravia.pe/servicio/ws_preguntas_frecuentes.php")
	viper.SetDefault("API_TIMEOUT_SECONDS", 10)
	viper.SetDefault("CHAT_TIMEOUT_SECONDS", 90)
	viper.SetDefault("SCHEDULE_CACHE_TTL_MINUTES", 5)
	viper.SetDefault("CONTEXT_CACHE_TTL_MINUTES", 60)
	viper.SetDefault("AGENT_CACHE_TTL_MINUTES", 60)
	viper.SetDefault("HISTORY_TTL_MINUTES", 30)
	viper.SetDefault("HTTP_RETRY_ATTEMPTS", 3)
	viper.SetDefault("BREAKER_THRESHOLD", 3)
	viper.SetDefault("BREAKER_WINDOW_MINUTES", 5)
	viper.SetDefault("TIMEZONE", "America/Lima")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

// APITimeout returns the per-call upstream timeout.
func APITimeout() time.Duration {
	return time.Duration(AppConfig.APITimeoutSecs) * time.Second
}

// ChatTimeout bounds one whole conversational turn.
func ChatTimeout() time.Duration {
	return time.Duration(AppConfig.ChatTimeoutSecs) * time.Second
}

// GetEnv returns the application environment.
func GetEnv() string {
	return AppConfig.Env
}

// IsProduction checks if the environment is production.
func IsProduction() bool {
	return GetEnv() == "production"
}
