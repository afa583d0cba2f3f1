package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied to any field left empty
const (
	DefaultModel      = "gpt-4o-mini"
	DefaultTracePath  = "agent_trace_log.jsonl"
	DefaultSession    = "default"
	DefaultCollection = "rag_demo"
	DefaultRAGPath    = "data/rag.db"
	DefaultTopK       = 3
	DefaultTimeout    = 60 * time.Second
)

// Config represents the complete agentplan configuration
type Config struct {
	LLM    LLMConfig    `yaml:"llm"`
	Trace  TraceConfig  `yaml:"trace"`
	Memory MemoryConfig `yaml:"memory"`
	RAG    RAGConfig    `yaml:"rag"`
	MCP    MCPConfig    `yaml:"mcp"`
	Hooks  HooksConfig  `yaml:"hooks"`
}

// LLMConfig selects the chat and embedding models
type LLMConfig struct {
	APIKey         string        `yaml:"api_key"`  // Supports ${VAR}
	BaseURL        string        `yaml:"base_url"` // OpenAI-compatible endpoint
	Model          string        `yaml:"model"`
	EmbeddingModel string        `yaml:"embedding_model"`
	Temperature    float32       `yaml:"temperature"`
	MaxTokens      int           `yaml:"max_tokens"`
	Timeout        time.Duration `yaml:"timeout"` // Bounds each planner call
}

// TraceConfig controls the step trace
type TraceConfig struct {
	// Path of the JSONL trace file; "-" disables the file
	Path string `yaml:"path"`
	// Echo prints every entry at debug level
	Echo bool `yaml:"echo"`
}

// MemoryConfig controls memory persistence
type MemoryConfig struct {
	// Path of the BadgerDB directory; empty keeps memory in process only
	Path    string `yaml:"path"`
	Session string `yaml:"session"`
}

// RAGConfig controls the retrieval backend
type RAGConfig struct {
	Disabled   bool   `yaml:"disabled"`
	DBPath     string `yaml:"db_path"`
	Collection string `yaml:"collection"`
	TopK       int    `yaml:"top_k"`
}

// HooksConfig contains hook-related settings
type HooksConfig struct {
	// ToolConfirm enables user confirmation before specified tools
	ToolConfirm []string `yaml:"tool_confirm"`
}

// MCPConfig contains MCP-specific settings
type MCPConfig struct {
	Servers []MCPServerConfig `yaml:"servers"`
}

// MCPServerConfig defines a single MCP server
type MCPServerConfig struct {
	Name      string            `yaml:"name"`      // Unique server identifier
	Transport string            `yaml:"transport"` // "stdio" (only supported initially)
	Command   string            `yaml:"command"`   // Executable to run
	Args      []string          `yaml:"args"`      // Command arguments
	Env       map[string]string `yaml:"env"`       // Environment variables with ${VAR} support
	Disabled  bool              `yaml:"disabled"`  // Skip this server if true
}

// Default returns a config with every default filled in
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// Load reads and parses the YAML config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	cfg.LLM.APIKey = ExpandEnv(cfg.LLM.APIKey)
	cfg.LLM.BaseURL = ExpandEnv(cfg.LLM.BaseURL)
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads config with fallback to default locations
// Checks: ./agentplan.yaml, ./configs/agentplan.yaml,
// ~/.config/agentplan/agentplan.yaml, /etc/agentplan/agentplan.yaml
func LoadWithDefaults() (*Config, error) {
	locations := []string{
		"./agentplan.yaml",
		"./configs/agentplan.yaml",
	}

	if home, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(home, ".config", "agentplan", "agentplan.yaml"))
	}

	locations = append(locations, "/etc/agentplan/agentplan.yaml")

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return Load(loc)
		}
	}

	// No config found - defaults only (not an error)
	return Default(), nil
}

// ApplyDefaults fills empty fields. The API key falls back to
// OPENAI_API_KEY and the base URL to OPENAI_API_BASE_URL.
func (c *Config) ApplyDefaults() {
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = os.Getenv("OPENAI_API_BASE_URL")
	}
	if c.LLM.Model == "" {
		c.LLM.Model = DefaultModel
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = DefaultTimeout
	}
	if c.Trace.Path == "" {
		c.Trace.Path = DefaultTracePath
	}
	if c.Memory.Session == "" {
		c.Memory.Session = DefaultSession
	}
	if c.RAG.DBPath == "" {
		c.RAG.DBPath = DefaultRAGPath
	}
	if c.RAG.Collection == "" {
		c.RAG.Collection = DefaultCollection
	}
	if c.RAG.TopK == 0 {
		c.RAG.TopK = DefaultTopK
	}
}

// Validate checks config correctness
func (c *Config) Validate() error {
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2, got %v", c.LLM.Temperature)
	}
	if c.LLM.MaxTokens < 0 {
		return errors.New("llm.max_tokens cannot be negative")
	}
	if c.LLM.Timeout < 0 {
		return errors.New("llm.timeout cannot be negative")
	}
	if c.RAG.TopK < 0 {
		return errors.New("rag.top_k cannot be negative")
	}
	if err := validateName("memory.session", c.Memory.Session); err != nil {
		return err
	}

	// Check for duplicate server names
	names := make(map[string]bool)
	for i, server := range c.MCP.Servers {
		if server.Name == "" {
			return fmt.Errorf("server #%d: name cannot be empty", i+1)
		}

		if names[server.Name] {
			return fmt.Errorf("duplicate server name: %s", server.Name)
		}
		names[server.Name] = true

		if err := server.Validate(); err != nil {
			return fmt.Errorf("server %s: %w", server.Name, err)
		}
	}

	return nil
}

// RequireAPIKey reports a missing key with a hint on how to set one
func (c *Config) RequireAPIKey() error {
	if c.LLM.APIKey == "" {
		return errors.New("OpenAI API key required (set OPENAI_API_KEY, llm.api_key or use --api-key)")
	}
	return nil
}

// Validate checks a single server config
func (s *MCPServerConfig) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	// Server names prefix tool names, so they follow tool naming rules
	if err := validateName("server name", s.Name); err != nil {
		return err
	}

	if s.Transport == "" {
		return fmt.Errorf("transport is required")
	}

	if s.Transport != "stdio" {
		return fmt.Errorf("unsupported transport: %s (only 'stdio' is supported)", s.Transport)
	}

	if s.Command == "" {
		return fmt.Errorf("command is required")
	}

	return nil
}

// validateName allows ^[a-zA-Z0-9_-]+$
func validateName(field, name string) error {
	for _, ch := range name {
		if !((ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '_' || ch == '-') {
			return fmt.Errorf("%s '%s' contains invalid character '%c' (only alphanumeric, underscore, and hyphen allowed)", field, name, ch)
		}
	}
	return nil
}
