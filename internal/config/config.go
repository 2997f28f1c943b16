package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"toolEaseRt/internal/modules/realtime/domain"
)

const (
	FeedDriverKafka = "kafka"
	FeedDriverNATS  = "nats"
	FeedDriverNone  = "none"
)

type Config struct {
	Server   ServerConfig
	Logging  LoggingConfig
	Feed     FeedConfig
	Pipeline PipelineConfig
	Security SecurityConfig
	Replay   ReplayConfig
	Topics   []domain.TopicRoute
	Roles    []string
}

type ServerConfig struct {
	Port string
}

type LoggingConfig struct {
	Level     string
	Format    string
	Directory string
}

type FeedConfig struct {
	Driver string
	Kafka  KafkaConfig
	NATS   NATSConfig
}

type KafkaConfig struct {
	Brokers []string
	GroupID string
}

type NATSConfig struct {
	URL string
}

type PipelineConfig struct {
	HistoryCapacity   int
	RoleQueueCapacity int
	IdleInterval      time.Duration
	Keepalive         time.Duration
}

type SecurityConfig struct {
	// PublishJWTSecret enables bearer auth on the publish endpoint when set.
	PublishJWTSecret string
}

type ReplayConfig struct {
	DataDir string
	Delay   time.Duration
	Loop    bool
}

// topicsFile is the TOML layout of TOPICS_FILE:
//
//	[[topics]]
//	name = "toolease/owner/revenue"
//	key  = "revenue"
//	file = "owner_revenue.csv"
type topicsFile struct {
	Topics []domain.TopicRoute `toml:"topics"`
	Roles  []string            `toml:"roles"`
}

// Load reads configuration from the environment. Call godotenv first to honour a .env file.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{Port: getEnv("PORT", "8080")},
		Logging: LoggingConfig{
			Level:     getEnv("LOG_LEVEL", "info"),
			Format:    getEnv("LOG_FORMAT", "text"),
			Directory: getEnv("LOG_DIR", "./logs"),
		},
		Feed: FeedConfig{
			Driver: strings.ToLower(getEnv("FEED_DRIVER", FeedDriverKafka)),
			Kafka: KafkaConfig{
				Brokers: splitList(firstNonEmpty(os.Getenv("KAFKA_BROKERS"), os.Getenv("KAFKA_BROKER"))),
				GroupID: getEnv("KAFKA_GROUP_ID", "toolease-dashboard"),
			},
			NATS: NATSConfig{URL: getEnv("NATS_URL", "nats://127.0.0.1:4222")},
		},
		Security: SecurityConfig{PublishJWTSecret: strings.TrimSpace(os.Getenv("PUBLISH_JWT_SECRET"))},
		Roles:    splitList(os.Getenv("ROLES")),
	}

	var err error
	if cfg.Pipeline.HistoryCapacity, err = getInt("HISTORY_CAPACITY", 1000); err != nil {
		return nil, err
	}
	if cfg.Pipeline.RoleQueueCapacity, err = getInt("ROLE_QUEUE_CAPACITY", 1000); err != nil {
		return nil, err
	}
	if cfg.Pipeline.IdleInterval, err = getDuration("STREAM_IDLE_INTERVAL", time.Second); err != nil {
		return nil, err
	}
	if cfg.Pipeline.Keepalive, err = getDuration("STREAM_KEEPALIVE", 15*time.Second); err != nil {
		return nil, err
	}
	cfg.Replay.DataDir = getEnv("REPLAY_DATA_DIR", "./static/data")
	if cfg.Replay.Delay, err = getDuration("REPLAY_DELAY", 800*time.Millisecond); err != nil {
		return nil, err
	}
	cfg.Replay.Loop = strings.EqualFold(os.Getenv("REPLAY_LOOP"), "true")

	if err := cfg.loadTopics(); err != nil {
		return nil, err
	}
	if len(cfg.Roles) == 0 {
		cfg.Roles = domain.DefaultRoles()
	}

	// Without brokers and without an explicit driver the server runs HTTP-only.
	if strings.TrimSpace(os.Getenv("FEED_DRIVER")) == "" && len(cfg.Feed.Kafka.Brokers) == 0 {
		cfg.Feed.Driver = FeedDriverNone
	}

	switch cfg.Feed.Driver {
	case FeedDriverKafka, FeedDriverNATS, FeedDriverNone:
	default:
		return nil, fmt.Errorf("FEED_DRIVER %q: expected kafka, nats or none", cfg.Feed.Driver)
	}
	return cfg, nil
}

// TopicTable builds the demultiplexing table from the configured routes.
func (c *Config) TopicTable() (*domain.TopicTable, error) {
	return domain.NewTopicTable(c.Topics)
}

func (c *Config) loadTopics() error {
	if path := strings.TrimSpace(os.Getenv("TOPICS_FILE")); path != "" {
		var file topicsFile
		if _, err := toml.DecodeFile(path, &file); err != nil {
			return fmt.Errorf("topics file %s: %w", path, err)
		}
		c.Topics = file.Topics
		if len(c.Roles) == 0 {
			c.Roles = file.Roles
		}
	}
	if raw := strings.TrimSpace(os.Getenv("TOPIC_MAP")); raw != "" {
		routes, err := domain.ParseTopicMap(raw)
		if err != nil {
			return fmt.Errorf("TOPIC_MAP: %w", err)
		}
		c.Topics = append(c.Topics, routes...)
	}
	if len(c.Topics) == 0 {
		c.Topics = domain.DefaultTopicRoutes()
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s=%q: expected a positive integer", key, raw)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s=%q: expected a positive duration", key, raw)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
