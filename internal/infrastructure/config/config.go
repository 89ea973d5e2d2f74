package config

import (
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full application configuration
type Config struct {
	App       AppConfig
	Otel      OtelConfig
	Postgres  PostgresConfig
	Sqlite    SqliteConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Discovery DiscoveryConfig
}

// AppConfig holds HTTP and store selection settings
type AppConfig struct {
	Port string
	// StoreDriver selects the repository backend: memory, postgres or sqlite
	StoreDriver string
	// LogBodies controls whether request/response bodies are logged
	LogBodies bool
	// AutoMigrate creates or updates tables on startup for the SQL drivers
	AutoMigrate bool
	BcryptCost  int

	// StatsIntervalSecs is how often connection pool stats are sampled
	StatsIntervalSecs int
}

// OtelConfig holds the configuration for OTel SDK
type OtelConfig struct {
	Enabled          bool
	ServiceName      string
	ServiceVersion   string
	ServiceNamespace string
	Protocol         string
	Endpoint         string
	Insecure         bool
	Username         string
	Password         string
	// LogVerbosity controls the verbosity of logs (0 = minimal, 1 = standard, 2 = verbose)
	LogVerbosity int
	// LogOutput is stdout, stderr or otel (exporter only)
	LogOutput string
	// LogFormat is text or json
	LogFormat          string
	TracerName         string
	MeterName          string
	MaxQueueSize       int
	BatchTimeoutSecs   int
	ExportTimeoutSecs  int
	ExportIntervalSecs int
}

// PostgresConfig holds the database connection settings
type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // minutes
	ConnMaxIdleTime int // minutes
}

// SqliteConfig holds the local database file location
type SqliteConfig struct {
	Path string
}

// RedisConfig holds the relationship cache settings
type RedisConfig struct {
	Enabled      bool
	Addr         string
	Password     string
	DB           int
	MaxRetries   int
	DialTimeout  int // seconds
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	PoolSize     int
	MinIdleConns int
	MaxConnAge   int // minutes
	PoolTimeout  int // seconds
	IdleTimeout  int // minutes
	// LikesTTL is how long a user's like edges stay cached, in seconds
	LikesTTL int
}

// KafkaConfig holds the domain event settings
type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	Topic         string
	ConsumerGroup string
	ConnIdleTime  int // seconds
	DialTimeout   int // seconds
}

// DiscoveryConfig holds the paging defaults of the discovery query
type DiscoveryConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

// LoadConfig reads configuration from an optional .env file and the environment
func LoadConfig() Config {
	v := viper.New()
	v.SetConfigFile(filepath.Join(".", ".env"))
	v.SetConfigType("env")

	// A missing .env is fine; environment variables and defaults still apply.
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	setDefaults(v)

	return Config{
		App: AppConfig{
			Port:        v.GetString("APP_PORT"),
			StoreDriver: strings.ToLower(v.GetString("STORE_DRIVER")),
			LogBodies:   !v.GetBool("DISABLE_BODY_LOGGING"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
			BcryptCost:  v.GetInt("BCRYPT_COST"),

			StatsIntervalSecs: v.GetInt("STATS_INTERVAL_SECS"),
		},
		Otel: OtelConfig{
			Enabled:            v.GetBool("OTEL_ENABLED"),
			ServiceName:        v.GetString("OTEL_SERVICE_NAME"),
			ServiceVersion:     v.GetString("OTEL_SERVICE_VERSION"),
			ServiceNamespace:   v.GetString("OTEL_SERVICE_NAMESPACE"),
			Protocol:           v.GetString("OTEL_EXPORTER_OTLP_PROTOCOL"),
			Endpoint:           v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			Insecure:           v.GetBool("OTEL_EXPORTER_OTLP_INSECURE"),
			Username:           v.GetString("OTEL_EXPORTER_OTLP_USERNAME"),
			Password:           v.GetString("OTEL_EXPORTER_OTLP_PASSWORD"),
			LogVerbosity:       v.GetInt("OTEL_LOG_VERBOSITY"),
			LogOutput:          v.GetString("LOG_OUTPUT"),
			LogFormat:          v.GetString("LOG_FORMAT"),
			TracerName:         v.GetString("OTEL_TRACER_NAME"),
			MeterName:          v.GetString("OTEL_METER_NAME"),
			MaxQueueSize:       v.GetInt("OTEL_MAX_QUEUE_SIZE"),
			BatchTimeoutSecs:   v.GetInt("OTEL_BATCH_TIMEOUT_SECS"),
			ExportTimeoutSecs:  v.GetInt("OTEL_EXPORT_TIMEOUT_SECS"),
			ExportIntervalSecs: v.GetInt("OTEL_EXPORT_INTERVAL_SECS"),
		},
		Postgres: PostgresConfig{
			DSN:             v.GetString("POSTGRES_DSN"),
			MaxOpenConns:    v.GetInt("POSTGRES_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("POSTGRES_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetInt("POSTGRES_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime: v.GetInt("POSTGRES_CONN_MAX_IDLE_TIME"),
		},
		Sqlite: SqliteConfig{
			Path: v.GetString("SQLITE_PATH"),
		},
		Redis: RedisConfig{
			Enabled:      v.GetBool("REDIS_ENABLED"),
			Addr:         v.GetString("REDIS_ADDR"),
			Password:     v.GetString("REDIS_PASSWORD"),
			DB:           v.GetInt("REDIS_DB"),
			MaxRetries:   v.GetInt("REDIS_MAX_RETRIES"),
			DialTimeout:  v.GetInt("REDIS_DIAL_TIMEOUT"),
			ReadTimeout:  v.GetInt("REDIS_READ_TIMEOUT"),
			WriteTimeout: v.GetInt("REDIS_WRITE_TIMEOUT"),
			PoolSize:     v.GetInt("REDIS_POOL_SIZE"),
			MinIdleConns: v.GetInt("REDIS_MIN_IDLE_CONNS"),
			MaxConnAge:   v.GetInt("REDIS_MAX_CONN_AGE"),
			PoolTimeout:  v.GetInt("REDIS_POOL_TIMEOUT"),
			IdleTimeout:  v.GetInt("REDIS_IDLE_TIMEOUT"),
			LikesTTL:     v.GetInt("REDIS_LIKES_TTL"),
		},
		Kafka: KafkaConfig{
			Enabled:       v.GetBool("KAFKA_ENABLED"),
			Brokers:       splitList(v.GetString("KAFKA_BROKERS")),
			Topic:         v.GetString("KAFKA_TOPIC"),
			ConsumerGroup: v.GetString("KAFKA_CONSUMER_GROUP"),
			ConnIdleTime:  v.GetInt("KAFKA_CONN_IDLE_TIME"),
			DialTimeout:   v.GetInt("KAFKA_DIAL_TIMEOUT"),
		},
		Discovery: DiscoveryConfig{
			DefaultPageSize: v.GetInt("DISCOVERY_DEFAULT_PAGE_SIZE"),
			MaxPageSize:     v.GetInt("DISCOVERY_MAX_PAGE_SIZE"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("STORE_DRIVER", "memory")
	v.SetDefault("DISABLE_BODY_LOGGING", false)
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("STATS_INTERVAL_SECS", 15)

	v.SetDefault("OTEL_ENABLED", true)
	v.SetDefault("OTEL_SERVICE_NAME", "dating-api")
	v.SetDefault("OTEL_SERVICE_VERSION", "v0.1.0")
	v.SetDefault("OTEL_SERVICE_NAMESPACE", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_PROTOCOL", "http")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", true)
	v.SetDefault("OTEL_LOG_VERBOSITY", 1)
	v.SetDefault("LOG_OUTPUT", "stdout")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("OTEL_TRACER_NAME", "dating-api-tracer")
	v.SetDefault("OTEL_METER_NAME", "dating-api-meter")
	v.SetDefault("OTEL_MAX_QUEUE_SIZE", 2048)
	v.SetDefault("OTEL_BATCH_TIMEOUT_SECS", 5)
	v.SetDefault("OTEL_EXPORT_TIMEOUT_SECS", 30)
	v.SetDefault("OTEL_EXPORT_INTERVAL_SECS", 1)

	v.SetDefault("POSTGRES_DSN", "host=localhost user=postgres password=postgres dbname=dating port=5432 sslmode=disable")
	v.SetDefault("POSTGRES_MAX_OPEN_CONNS", 25)
	v.SetDefault("POSTGRES_MAX_IDLE_CONNS", 5)
	v.SetDefault("POSTGRES_CONN_MAX_LIFETIME", 30)
	v.SetDefault("POSTGRES_CONN_MAX_IDLE_TIME", 5)
	v.SetDefault("SQLITE_PATH", "dating.db")

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_MAX_RETRIES", 3)
	v.SetDefault("REDIS_DIAL_TIMEOUT", 5)
	v.SetDefault("REDIS_READ_TIMEOUT", 3)
	v.SetDefault("REDIS_WRITE_TIMEOUT", 3)
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 2)
	v.SetDefault("REDIS_MAX_CONN_AGE", 30)
	v.SetDefault("REDIS_POOL_TIMEOUT", 4)
	v.SetDefault("REDIS_IDLE_TIMEOUT", 5)
	v.SetDefault("REDIS_LIKES_TTL", 300)

	v.SetDefault("KAFKA_ENABLED", false)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_TOPIC", "dating.events")
	v.SetDefault("KAFKA_CONSUMER_GROUP", "dating-api-cache")
	v.SetDefault("KAFKA_CONN_IDLE_TIME", 60)
	v.SetDefault("KAFKA_DIAL_TIMEOUT", 10)

	v.SetDefault("DISCOVERY_DEFAULT_PAGE_SIZE", 10)
	v.SetDefault("DISCOVERY_MAX_PAGE_SIZE", 50)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
