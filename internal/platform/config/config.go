package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

const (
	VoteStoreMemory   = "memory"
	VoteStorePostgres = "postgres"
	VoteStoreSQLite   = "sqlite"
	VoteStoreRedis    = "redis"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName      string
	HTTPPort         string
	VoteStore        string
	PostgresDSN      string
	SQLitePath       string
	RedisURL         string
	KafkaBrokers     []string
	KafkaTopicPrefix string
	VoterTokenSecret string
	BootstrapAPIKey  string

	DuplicateVotePolicy           string
	ResultsGrouping               string
	EnableVoting                  bool
	ShowResults                   bool
	AllowAnonymousVoting          bool
	SingleAnswerOptionPerQuestion bool
	EnableVotingOutboxRelay       bool
}

// fileConfig is the optional YAML layer named by CONFIG_FILE. Environment
// variables win over values read from it.
type fileConfig struct {
	ServiceName      string   `yaml:"service_name"`
	HTTPPort         string   `yaml:"http_port"`
	VoteStore        string   `yaml:"vote_store"`
	PostgresDSN      string   `yaml:"postgres_dsn"`
	SQLitePath       string   `yaml:"sqlite_path"`
	RedisURL         string   `yaml:"redis_url"`
	KafkaBrokers     []string `yaml:"kafka_brokers"`
	KafkaTopicPrefix string   `yaml:"kafka_topic_prefix"`
	VoterTokenSecret string   `yaml:"voter_token_secret"`
	BootstrapAPIKey  string   `yaml:"bootstrap_api_key"`

	Voting struct {
		DuplicatePolicy               string `yaml:"duplicate_policy"`
		ResultsGrouping               string `yaml:"results_grouping"`
		Enabled                       *bool  `yaml:"enabled"`
		ShowResults                   *bool  `yaml:"show_results"`
		AllowAnonymous                *bool  `yaml:"allow_anonymous"`
		SingleAnswerOptionPerQuestion *bool  `yaml:"single_answer_option_per_question"`
		OutboxRelay                   *bool  `yaml:"outbox_relay"`
	} `yaml:"voting"`
}

func Load() (Config, error) {
	var file fileConfig
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	brokers := splitList(os.Getenv("KAFKA_BROKERS"))
	if len(brokers) == 0 {
		brokers = file.KafkaBrokers
	}

	cfg := Config{
		ServiceName:      envString("SERVICE_NAME", file.ServiceName, "pollster"),
		HTTPPort:         envString("HTTP_PORT", file.HTTPPort, "8080"),
		VoteStore:        strings.ToLower(envString("VOTE_STORE", file.VoteStore, "")),
		PostgresDSN:      envString("POSTGRES_DSN", file.PostgresDSN, ""),
		SQLitePath:       envString("SQLITE_PATH", file.SQLitePath, "pollster.db"),
		RedisURL:         envString("REDIS_URL", file.RedisURL, ""),
		KafkaBrokers:     brokers,
		KafkaTopicPrefix: envString("KAFKA_TOPIC_PREFIX", file.KafkaTopicPrefix, ""),
		VoterTokenSecret: envString("VOTER_TOKEN_SECRET", file.VoterTokenSecret, ""),
		BootstrapAPIKey:  envString("BOOTSTRAP_API_KEY", file.BootstrapAPIKey, ""),

		DuplicateVotePolicy:           envString("DUPLICATE_VOTE_POLICY", file.Voting.DuplicatePolicy, "single"),
		ResultsGrouping:               envString("RESULTS_GROUPING", file.Voting.ResultsGrouping, "answer_option"),
		EnableVoting:                  envBool("ENABLE_VOTING", fileBool(file.Voting.Enabled, true)),
		ShowResults:                   envBool("SHOW_RESULTS", fileBool(file.Voting.ShowResults, true)),
		AllowAnonymousVoting:          envBool("ALLOW_ANONYMOUS_VOTING", fileBool(file.Voting.AllowAnonymous, false)),
		SingleAnswerOptionPerQuestion: envBool("SINGLE_ANSWER_OPTION_PER_QUESTION", fileBool(file.Voting.SingleAnswerOptionPerQuestion, false)),
		EnableVotingOutboxRelay:       envBool("ENABLE_VOTING_OUTBOX_RELAY", fileBool(file.Voting.OutboxRelay, true)),
	}
	if cfg.VoteStore == "" {
		cfg.VoteStore = VoteStoreMemory
		if cfg.PostgresDSN != "" {
			cfg.VoteStore = VoteStorePostgres
		}
	}
	switch cfg.VoteStore {
	case VoteStoreMemory, VoteStorePostgres, VoteStoreSQLite, VoteStoreRedis:
	default:
		return Config{}, fmt.Errorf("unsupported VOTE_STORE %q", cfg.VoteStore)
	}
	return cfg, nil
}

func envString(name string, fromFile string, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(name)); value != "" {
		return value
	}
	if value := strings.TrimSpace(fromFile); value != "" {
		return value
	}
	return fallback
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func fileBool(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}

func splitList(raw string) []string {
	var items []string
	for _, value := range strings.Split(raw, ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}
