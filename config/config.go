package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type AppConfig struct {
	App struct {
		Name string `mapstructure:"NAME"`
		Port string `mapstructure:"PORT"`
	}

	DATABASE struct {
		Postgres struct {
			DSN string `mapstructure:"URL"`
		}
		Redis struct {
			Addr     string `mapstructure:"ADDR"`
			Password string `mapstructure:"PASSWORD"`
			DB       int    `mapstructure:"DB"`
		}
		Mongo struct {
			Url      string `mapstructure:"URL"`
			Database string `mapstructure:"DATABASE"`
		}
	}

	JWT struct {
		PublicKeyPath string `mapstructure:"PUBLIC_KEY_PATH"`
	}

	CLOUDINARY struct {
		URL    string `mapstructure:"URL"`
		Folder string `mapstructure:"FOLDER"`
	}

	WEBSOCKET struct {
		MaxConnections   int      `mapstructure:"MAX_CONNECTIONS"`
		ConnectionsPerIP int      `mapstructure:"CONNECTIONS_PER_IP"`
		EventsPerSecond  float64  `mapstructure:"EVENTS_PER_SECOND"`
		EventBurst       int      `mapstructure:"EVENT_BURST"`
		AllowedOrigins   []string `mapstructure:"ALLOWED_ORIGINS"`
	}

	WORKER struct {
		Count             int           `mapstructure:"COUNT"`
		DLQRetryInterval  time.Duration `mapstructure:"DLQ_RETRY_INTERVAL"`
		DLQMaxRetry       int           `mapstructure:"DLQ_MAX_RETRY"`
		NotificationTTL   time.Duration `mapstructure:"NOTIFICATION_TTL"`
		RetentionSchedule string        `mapstructure:"RETENTION_SCHEDULE"`
	}

	MAILTRAP struct {
		SMTPHost string `mapstructure:"SMTP_HOST"`
		SMTPPort int    `mapstructure:"SMTP_PORT"`
		Username string `mapstructure:"USERNAME"`
		Password string `mapstructure:"PASSWORD"`
		From     string `mapstructure:"FROM"`
	}
}

var Conf *AppConfig

func setDefaults() {
	viper.SetDefault("app.name", "social-chat")
	viper.SetDefault("app.port", ":8080")
	viper.SetDefault("database.redis.addr", "localhost:6379")
	viper.SetDefault("database.redis.password", "")
	viper.SetDefault("database.redis.db", 0)
	viper.SetDefault("database.postgres.url", "")
	viper.SetDefault("database.mongo.url", "")
	viper.SetDefault("database.mongo.database", "chat_collection")
	viper.SetDefault("jwt.public_key_path", "public.pem")
	viper.SetDefault("cloudinary.url", "")
	viper.SetDefault("cloudinary.folder", "social_chat_media")
	viper.SetDefault("websocket.max_connections", 10000)
	viper.SetDefault("websocket.connections_per_ip", 20)
	viper.SetDefault("websocket.events_per_second", 10)
	viper.SetDefault("websocket.event_burst", 20)
	viper.SetDefault("websocket.allowed_origins", []string{})
	viper.SetDefault("worker.count", 5)
	viper.SetDefault("worker.dlq_retry_interval", "30s")
	viper.SetDefault("worker.dlq_max_retry", 5)
	viper.SetDefault("worker.notification_ttl", "720h")
	viper.SetDefault("worker.retention_schedule", "@daily")
	viper.SetDefault("mailtrap.smtp_host", "")
	viper.SetDefault("mailtrap.smtp_port", 587)
	viper.SetDefault("mailtrap.username", "")
	viper.SetDefault("mailtrap.password", "")
	viper.SetDefault("mailtrap.from", "")
}

// LoadConfig reads application.yaml from the given directories (the working
// directory when none are given). A .env file in the working directory is
// loaded first so its values reach viper through the CHATAPP_ prefix.
func LoadConfig(paths ...string) error {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using process environment")
	}

	viper.SetConfigName("application")
	viper.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		viper.AddConfigPath(p)
	}

	viper.SetEnvPrefix("CHATAPP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		log.Warn().Msg("application.yaml not found, using defaults and environment")
	}

	var config AppConfig
	if err := viper.Unmarshal(&config); err != nil {
		return fmt.Errorf("error unmarshalling config: %w", err)
	}

	Conf = &config
	log.Info().Msg("configuration loaded...")
	return nil
}
