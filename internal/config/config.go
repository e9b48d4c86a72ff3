// Package config loads the engine configuration. The Config value is built
// once at startup and treated as read-only from then on; components receive
// it (or a sub-section) through their constructors.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so config values can be written as "30s"
// or "5m". Bare integers are taken as seconds.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw interface{}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	case int:
		*d = Duration(time.Duration(v) * time.Second)
	default:
		return fmt.Errorf("invalid duration value %v", raw)
	}
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Config represents the full engine configuration.
type Config struct {
	Platform    PlatformConfig    `yaml:"platform"`
	Database    DatabaseConfig    `yaml:"database"`
	LLM         LLMConfig         `yaml:"llm"`
	Server      ServerConfig      `yaml:"server"`
	Engine      EngineConfig      `yaml:"engine"`
	Coordinator CoordinatorConfig `yaml:"coordinator"`
	Timing      TimingConfig      `yaml:"timing"`
	Decision    DecisionConfig    `yaml:"decision"`
	Quality     QualityConfig     `yaml:"quality"`
	Memory      MemoryConfig      `yaml:"memory"`
}

// PlatformConfig describes the content platform the agents act on.
type PlatformConfig struct {
	BaseURL     string   `yaml:"base_url"`
	AdminAPIKey string   `yaml:"admin_api_key"`
	Timeout     Duration `yaml:"timeout"`
}

// DatabaseConfig selects the persistence backend. Driver is "sqlite3" or
// "postgres"; DSN is the file path for sqlite and the connection string
// for postgres.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// LLMConfig configures text generation.
type LLMConfig struct {
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// ServerConfig configures the operator API and metrics servers.
type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	AdminToken  string `yaml:"admin_token"`
}

// EngineConfig holds the lifecycle control-loop tuning.
type EngineConfig struct {
	CycleInterval         Duration `yaml:"cycle_interval"`
	MaxManagedAgents      int      `yaml:"max_managed_agents"`
	MinManagedAgents      int      `yaml:"min_managed_agents"`
	DailyCreationCap      int      `yaml:"daily_creation_cap"`
	CreationsPerCycle     int      `yaml:"creations_per_cycle"`
	MinCreationPriority   int      `yaml:"min_creation_priority"`
	RetirementThreshold   float64  `yaml:"retirement_threshold"`
	OptimizationThreshold float64  `yaml:"optimization_threshold"`
	EvaluationWindowDays  int      `yaml:"evaluation_window_days"`
	DecisionLogCap        int      `yaml:"decision_log_cap"`
	DecisionWorkers       int      `yaml:"decision_workers"`
}

// CoordinatorConfig holds anti-herding and scheduling limits.
type CoordinatorConfig struct {
	MaxResponsesPerContent int      `yaml:"max_responses_per_content"`
	MaxActionsPerAgent     int      `yaml:"max_actions_per_agent"`
	MaxSelectedForContent  int      `yaml:"max_selected_for_content"`
	MaxSelectedForResponse int      `yaml:"max_selected_for_response"`
	SelectionChance        float64  `yaml:"selection_chance"`
	ExecutionRate          float64  `yaml:"execution_rate"`
	InteractionWindow      Duration `yaml:"interaction_window"`
}

// TimingConfig bounds the human-scale delays.
type TimingConfig struct {
	MinDelay        Duration `yaml:"min_delay"`
	MinReadingDelay Duration `yaml:"min_reading_delay"`
	MaxReadingDelay Duration `yaml:"max_reading_delay"`
}

// DecisionConfig names the weighted-lottery multipliers. The defaults
// encode the intended priority ordering: pending replies dominate
// everything, first comments beat votes, engagement beats cold starts.
type DecisionConfig struct {
	PendingReplyBoost     float64 `yaml:"pending_reply_boost"`
	FirstCommentBoost     float64 `yaml:"first_comment_boost"`
	SoloFirstCommentBoost float64 `yaml:"solo_first_comment_boost"`
	PostVoteBoost         float64 `yaml:"post_vote_boost"`
	EngagedCommentVote    float64 `yaml:"engaged_comment_vote_boost"`
	CommentVoteBoost      float64 `yaml:"comment_vote_boost"`
	EngagedReplyBoost     float64 `yaml:"engaged_reply_boost"`
	ReplyBoost            float64 `yaml:"reply_boost"`
	CreateWithFocalBoost  float64 `yaml:"create_with_focal_boost"`
	CreateWithoutFocal    float64 `yaml:"create_without_focal_boost"`
}

// QualityConfig tunes the quality gate.
type QualityConfig struct {
	MinAcceptableScore  float64 `yaml:"min_acceptable_score"`
	RepetitionThreshold float64 `yaml:"repetition_threshold"`
	RecentOutputs       int     `yaml:"recent_outputs"`
}

// MemoryConfig tunes retention.
type MemoryConfig struct {
	RetentionDays  int     `yaml:"retention_days"`
	KeepImportance float64 `yaml:"keep_importance"`
	RecallLimit    int     `yaml:"recall_limit"`
}

// Default returns the tuned defaults the engine ships with.
func Default() *Config {
	return &Config{
		Platform: PlatformConfig{
			BaseURL: "http://localhost:8000/api",
			Timeout: Duration(30 * time.Second),
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "botfarm.db",
		},
		LLM: LLMConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.8,
			MaxTokens:   400,
		},
		Server: ServerConfig{
			Port:        8080,
			MetricsPort: 9090,
		},
		Engine: EngineConfig{
			CycleInterval:         Duration(5 * time.Minute),
			MaxManagedAgents:      100,
			MinManagedAgents:      10,
			DailyCreationCap:      10,
			CreationsPerCycle:     3,
			MinCreationPriority:   6,
			RetirementThreshold:   0.3,
			OptimizationThreshold: 0.6,
			EvaluationWindowDays:  7,
			DecisionLogCap:        1000,
			DecisionWorkers:       8,
		},
		Coordinator: CoordinatorConfig{
			MaxResponsesPerContent: 2,
			MaxActionsPerAgent:     3,
			MaxSelectedForContent:  2,
			MaxSelectedForResponse: 1,
			SelectionChance:        0.7,
			ExecutionRate:          0.85,
			InteractionWindow:      Duration(time.Hour),
		},
		Timing: TimingConfig{
			MinDelay:        Duration(5 * time.Second),
			MinReadingDelay: Duration(30 * time.Second),
			MaxReadingDelay: Duration(5 * time.Minute),
		},
		Decision: DecisionConfig{
			PendingReplyBoost:     1000,
			FirstCommentBoost:     600,
			SoloFirstCommentBoost: 800,
			PostVoteBoost:         150,
			EngagedCommentVote:    400,
			CommentVoteBoost:      200,
			EngagedReplyBoost:     800,
			ReplyBoost:            300,
			CreateWithFocalBoost:  10,
			CreateWithoutFocal:    300,
		},
		Quality: QualityConfig{
			MinAcceptableScore:  0.4,
			RepetitionThreshold: 0.8,
			RecentOutputs:       10,
		},
		Memory: MemoryConfig{
			RetentionDays:  30,
			KeepImportance: 0.7,
			RecallLimit:    10,
		},
	}
}

// Load reads a YAML config file over the defaults. A missing file is an
// error; partial files are fine, unset fields keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Engine.MaxManagedAgents < c.Engine.MinManagedAgents {
		return fmt.Errorf("max_managed_agents (%d) below min_managed_agents (%d)",
			c.Engine.MaxManagedAgents, c.Engine.MinManagedAgents)
	}
	if c.Coordinator.ExecutionRate < 0 || c.Coordinator.ExecutionRate > 1 {
		return fmt.Errorf("execution_rate must be in [0,1], got %v", c.Coordinator.ExecutionRate)
	}
	if c.Coordinator.SelectionChance < 0 || c.Coordinator.SelectionChance > 1 {
		return fmt.Errorf("selection_chance must be in [0,1], got %v", c.Coordinator.SelectionChance)
	}
	if c.Timing.MinReadingDelay > c.Timing.MaxReadingDelay {
		return fmt.Errorf("min_reading_delay exceeds max_reading_delay")
	}
	if c.Engine.DecisionWorkers <= 0 {
		return fmt.Errorf("decision_workers must be positive")
	}
	return nil
}
