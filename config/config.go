package config

import (
	"os"
	"strings"
	"time"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/utils"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port               string        `mapstructure:"port"`
		GinMode            string        `mapstructure:"gin_mode"`
		CorsAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
		ExposeErrors       bool          `mapstructure:"expose_errors"`
		RateLimitPerSecond float64       `mapstructure:"rate_limit_per_second"`
		RateLimitBurst     int           `mapstructure:"rate_limit_burst"`
		ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	Database struct {
		Driver   string `mapstructure:"driver"`
		DSN      string `mapstructure:"dsn"`
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
	} `mapstructure:"database"`

	JWT struct {
		Secret          string `mapstructure:"secret"`
		ExpirationHours int    `mapstructure:"expiration_hours"`
		Issuer          string `mapstructure:"issuer"`
	} `mapstructure:"jwt"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	NATS struct {
		URL           string `mapstructure:"url"`
		SubjectPrefix string `mapstructure:"subject_prefix"`
	} `mapstructure:"nats"`

	POS struct {
		BaseURL string `mapstructure:"base_url"`
		APIKey  string `mapstructure:"api_key"`
	} `mapstructure:"pos"`

	Storage struct {
		Endpoint      string `mapstructure:"endpoint"`
		Region        string `mapstructure:"region"`
		Bucket        string `mapstructure:"bucket"`
		AccessKey     string `mapstructure:"access_key"`
		SecretKey     string `mapstructure:"secret_key"`
		PublicBaseURL string `mapstructure:"public_base_url"`
		Prefix        string `mapstructure:"prefix"`
	} `mapstructure:"storage"`

	Reservation struct {
		StrictTableLookup bool `mapstructure:"strict_table_lookup"`
		FallbackTableID   uint `mapstructure:"fallback_table_id"`
	} `mapstructure:"reservation"`

	Refill struct {
		DefaultDuration time.Duration `mapstructure:"default_duration"`
		MinDuration     time.Duration `mapstructure:"min_duration"`
		ExpiryDelay     time.Duration `mapstructure:"expiry_delay"`
	} `mapstructure:"refill"`

	Seed struct {
		Tables        int    `mapstructure:"tables"`
		AdminEmail    string `mapstructure:"admin_email"`
		AdminPassword string `mapstructure:"admin_password"`
	} `mapstructure:"seed"`

	Telemetry struct {
		ServiceName string `mapstructure:"service_name"`
	} `mapstructure:"telemetry"`
}

// Load membaca .env, configs/config.yaml (opsional) dan environment variable.
// Binary tetap jalan tanpa file config sama sekali.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Debug("No .env file found")
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(envOr("CONFIG_FILE", "configs/config.yaml"))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		utils.InfoLogger.Info("No config file found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		utils.ErrorLogger.Fatalf("config unmarshal error: %v", err)
	}

	// Nama env lama tetap didukung
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		cfg.Server.GinMode = mode
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWT.Secret = secret
	}
	if !v.IsSet("server.expose_errors") {
		cfg.Server.ExposeErrors = cfg.Server.GinMode != "release"
	}

	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.gin_mode", "debug")
	v.SetDefault("server.cors_allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})
	v.SetDefault("server.rate_limit_per_second", 20)
	v.SetDefault("server.rate_limit_burst", 40)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.user", "root")
	v.SetDefault("database.name", "restaurant_db")
	v.SetDefault("jwt.expiration_hours", 24)
	v.SetDefault("jwt.issuer", "RestaurantWebApp")
	v.SetDefault("nats.subject_prefix", "restaurant")
	v.SetDefault("storage.region", "auto")
	v.SetDefault("storage.prefix", "reservations/proofs")
	v.SetDefault("reservation.strict_table_lookup", false)
	v.SetDefault("reservation.fallback_table_id", 1)
	v.SetDefault("refill.default_duration", 2*time.Hour)
	v.SetDefault("refill.min_duration", time.Minute)
	v.SetDefault("refill.expiry_delay", time.Second)
	v.SetDefault("seed.tables", 0)
	v.SetDefault("telemetry.service_name", "restaurant-backend")

	// AutomaticEnv hanya bekerja untuk key yang dikenal viper
	for _, key := range []string{
		"database.dsn", "database.password",
		"jwt.secret",
		"redis.addr", "redis.password", "redis.db",
		"nats.url",
		"pos.base_url", "pos.api_key",
		"storage.endpoint", "storage.bucket", "storage.access_key", "storage.secret_key", "storage.public_base_url",
		"seed.admin_email", "seed.admin_password",
	} {
		_ = v.BindEnv(key)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
