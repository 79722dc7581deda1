// Package config loads the demo configuration from a YAML file plus
// environment overrides. A .env file in the working directory is picked
// up first, then ${VAR} and ${VAR:-default} references inside the YAML
// are expanded before parsing.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration shared by all demo subcommands.
type Config struct {
	Bedrock   BedrockConfig   `yaml:"bedrock"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Memory    MemoryConfig    `yaml:"memory"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Web       WebConfig       `yaml:"web"`
	Browser   BrowserConfig   `yaml:"browser"`
	MCP       MCPConfig       `yaml:"mcp"`
	Guardrail GuardrailConfig `yaml:"guardrail"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// BedrockConfig names the hosted model and region the demos talk to.
type BedrockConfig struct {
	ModelID     string  `yaml:"modelId"`
	Region      string  `yaml:"region"`
	Profile     string  `yaml:"profile,omitempty"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"maxTokens"`
}

// KnowledgeConfig points at the Bedrock knowledge base used for
// long-term memory.
type KnowledgeConfig struct {
	KnowledgeBaseID string  `yaml:"knowledgeBaseId"`
	DataSourceID    string  `yaml:"dataSourceId"`
	Bucket          string  `yaml:"bucket"`
	Prefix          string  `yaml:"prefix"`
	MinScore        float64 `yaml:"minScore"`
	MaxResults      int     `yaml:"maxResults"`
}

// MemoryConfig selects the conversation store backend.
type MemoryConfig struct {
	Backend  string `yaml:"backend"` // "memory" | "redis" | "sqlite" | "kb"
	RedisURL string `yaml:"redisUrl,omitempty"`
	DBPath   string `yaml:"dbPath,omitempty"`
	MaxTurns int    `yaml:"maxTurns"`
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID string `yaml:"chatId,omitempty"`
}

type WebConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// BrowserConfig controls the chromedp sessions behind the research
// demos.
type BrowserConfig struct {
	Headless   bool   `yaml:"headless"`
	ProfileDir string `yaml:"profileDir,omitempty"`
	OutputDir  string `yaml:"outputDir"`
}

// MCPConfig describes the stdio tool server to launch.
type MCPConfig struct {
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
}

type GuardrailConfig struct {
	GuardrailID string `yaml:"guardrailId,omitempty"`
	Version     string `yaml:"version,omitempty"`
	Trace       bool   `yaml:"trace"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`      // "debug" | "info" | "warn" | "error"
	Structured bool   `yaml:"structured"` // JSON records when true
	Tracing    bool   `yaml:"tracing"`    // console span export
}

// Defaults returns a config with sensible demo defaults.
func Defaults() *Config {
	return &Config{
		Bedrock: BedrockConfig{
			ModelID:     "us.amazon.nova-lite-v1:0",
			Region:      "us-east-1",
			Temperature: 0.3,
			MaxTokens:   4096,
		},
		Knowledge: KnowledgeConfig{
			Prefix:     "memories/",
			MinScore:   0.4,
			MaxResults: 9,
		},
		Memory: MemoryConfig{
			Backend:  "memory",
			RedisURL: "redis://localhost:6379/0",
			DBPath:   "agentware.db",
			MaxTurns: 50,
		},
		Web: WebConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Browser: BrowserConfig{
			Headless:  true,
			OutputDir: "research",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the config file at path, expanding environment references.
// A missing file is not an error: defaults plus environment overrides
// are returned so the demos run with no setup beyond credentials.
func Load(path string) (*Config, error) {
	// Missing .env is fine; real environment still applies.
	_ = godotenv.Load()

	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(expandPath(path))
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else {
			expanded := ExpandEnvVars(string(data))
			if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides lets the most commonly varied settings be set from
// the environment without a config file.
func applyEnvOverrides(cfg *Config) {
	set := func(dst *string, keys ...string) {
		for _, key := range keys {
			if v := os.Getenv(key); v != "" {
				*dst = v
				return
			}
		}
	}
	set(&cfg.Bedrock.ModelID, "AGENTWARE_MODEL_ID")
	set(&cfg.Bedrock.Region, "AWS_REGION", "AWS_DEFAULT_REGION")
	set(&cfg.Bedrock.Profile, "AWS_PROFILE")
	set(&cfg.Knowledge.KnowledgeBaseID, "KNOWLEDGE_BASE_ID")
	set(&cfg.Knowledge.DataSourceID, "KNOWLEDGE_BASE_DATA_SOURCE_ID")
	set(&cfg.Knowledge.Bucket, "KNOWLEDGE_BASE_BUCKET")
	set(&cfg.Memory.RedisURL, "REDIS_URL")
	set(&cfg.Telegram.Token, "TELEGRAM_BOT_TOKEN")
	set(&cfg.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	set(&cfg.Guardrail.GuardrailID, "BEDROCK_GUARDRAIL_ID")
	set(&cfg.Guardrail.Version, "BEDROCK_GUARDRAIL_VERSION")
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		name := groups[1]
		def := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			def = groups[2]
		}
		val, exists := os.LookupEnv(name)
		if !exists || val == "" {
			if hasDefault {
				return def
			}
			return match
		}
		return val
	})
}

// Validate checks that the config has usable values.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Bedrock.ModelID == "" {
		errs = append(errs, "bedrock.modelId must not be empty")
	}
	if cfg.Bedrock.Temperature < 0 || cfg.Bedrock.Temperature > 1 {
		errs = append(errs, "bedrock.temperature must be between 0 and 1")
	}
	if cfg.Bedrock.MaxTokens < 1 {
		errs = append(errs, "bedrock.maxTokens must be >= 1")
	}
	switch cfg.Memory.Backend {
	case "memory", "redis", "sqlite", "kb":
	default:
		errs = append(errs, "memory.backend must be one of: memory, redis, sqlite, kb")
	}
	if cfg.Web.Port < 0 || cfg.Web.Port > 65535 {
		errs = append(errs, "web.port must be between 0 and 65535")
	}
	if cfg.Knowledge.MinScore < 0 || cfg.Knowledge.MinScore > 1 {
		errs = append(errs, "knowledge.minScore must be between 0 and 1")
	}
	switch cfg.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, "logging.level must be one of: debug, info, warn, error")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
