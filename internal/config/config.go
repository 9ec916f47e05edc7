package config

import (
	"time"

	pkgconfig "github.com/weiawesome/wes-io-live/post-service/pkg/config"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	UserCache UserCacheConfig `mapstructure:"user_cache"`
	Kafka     KafkaConfig
	Publisher PublisherConfig
	Auth      AuthConfig
	Gate      GateConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	FilePath        string `mapstructure:"file_path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// UserCacheConfig selects the backend of the valid-user cache.
type UserCacheConfig struct {
	Driver   string `mapstructure:"driver"` // "database" or "redis"
	RedisKey string `mapstructure:"redis_key"`
}

type KafkaConfig struct {
	Brokers         string        `mapstructure:"brokers"`
	UserEventsTopic string        `mapstructure:"user_events_topic"`
	GroupID         string        `mapstructure:"group_id"`
	PostEventsTopic string        `mapstructure:"post_events_topic"`
	Partitions      int           `mapstructure:"partitions"`
	ConnectAttempts int           `mapstructure:"connect_attempts"`
	ConnectBackoff  time.Duration `mapstructure:"connect_backoff"`
	AutoOffsetReset string        `mapstructure:"auto_offset_reset"`
	PollTimeout     time.Duration `mapstructure:"poll_timeout"`
}

type PublisherConfig struct {
	Driver       string `mapstructure:"driver"` // "kafka", "redis" or "noop"
	BufferSize   int    `mapstructure:"buffer_size"`
	RedisChannel string `mapstructure:"redis_channel"`
}

type AuthConfig struct {
	JWTSecret     string `mapstructure:"jwt_secret"`
	PublicKeyFile string `mapstructure:"public_key_file"`
	Issuer        string `mapstructure:"issuer"`
}

type GateConfig struct {
	Coalesce bool `mapstructure:"coalesce"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8096)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "post_service")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.file_path", "./data/post.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("user_cache.driver", "database")
	v.SetDefault("user_cache.redis_key", "post:valid_users")
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.user_events_topic", "user-events")
	v.SetDefault("kafka.group_id", "post-service")
	v.SetDefault("kafka.post_events_topic", "post-events")
	v.SetDefault("kafka.partitions", 4)
	v.SetDefault("kafka.connect_attempts", 5)
	v.SetDefault("kafka.connect_backoff", "1s")
	v.SetDefault("kafka.auto_offset_reset", "earliest")
	v.SetDefault("kafka.poll_timeout", "100ms")
	v.SetDefault("publisher.driver", "kafka")
	v.SetDefault("publisher.buffer_size", 1024)
	v.SetDefault("publisher.redis_channel", "post-events")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("gate.coalesce", true)
	v.SetDefault("log.level", "info")

	// Bind environment variables
	if err := pkgconfig.BindEnvs(v, map[string]string{
		"server.port":                "PORT",
		"server.shutdown_timeout":    "SHUTDOWN_TIMEOUT",
		"database.driver":            "DB_DRIVER",
		"database.host":              "DB_HOST",
		"database.port":              "DB_PORT",
		"database.user":              "DB_USER",
		"database.password":          "DB_PASSWORD",
		"database.dbname":            "DB_NAME",
		"database.sslmode":           "DB_SSLMODE",
		"database.file_path":         "DB_FILE_PATH",
		"database.max_idle_conns":    "DB_MAX_IDLE_CONNS",
		"database.max_open_conns":    "DB_MAX_OPEN_CONNS",
		"database.conn_max_lifetime": "DB_CONN_MAX_LIFETIME",
		"database.log_level":         "DB_LOG_LEVEL",
		"redis.address":              "REDIS_ADDRESS",
		"redis.password":             "REDIS_PASSWORD",
		"redis.db":                   "REDIS_DB",
		"user_cache.driver":          "USER_CACHE_DRIVER",
		"user_cache.redis_key":       "USER_CACHE_REDIS_KEY",
		"kafka.brokers":              "KAFKA_BROKERS",
		"kafka.user_events_topic":    "KAFKA_USER_EVENTS_TOPIC",
		"kafka.group_id":             "KAFKA_GROUP_ID",
		"kafka.post_events_topic":    "KAFKA_POST_EVENTS_TOPIC",
		"kafka.partitions":           "KAFKA_PARTITIONS",
		"kafka.connect_attempts":     "KAFKA_CONNECT_ATTEMPTS",
		"kafka.connect_backoff":      "KAFKA_CONNECT_BACKOFF",
		"kafka.auto_offset_reset":    "KAFKA_AUTO_OFFSET_RESET",
		"publisher.driver":           "PUBLISHER_DRIVER",
		"publisher.buffer_size":      "PUBLISHER_BUFFER_SIZE",
		"publisher.redis_channel":    "PUBLISHER_REDIS_CHANNEL",
		"auth.jwt_secret":            "JWT_SECRET",
		"auth.public_key_file":       "JWT_PUBLIC_KEY_FILE",
		"auth.issuer":                "JWT_ISSUER",
		"gate.coalesce":              "GATE_COALESCE",
		"log.level":                  "LOG_LEVEL",
	}); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
