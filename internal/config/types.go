// Package config provides configuration management for the datachat CLI.
// Settings are layered: built-in defaults, then a YAML config file, then
// DATACHAT_-prefixed environment variables, then command-line flags.
package config

// Default values applied before any other configuration source.
const (
	DefaultFormat      = "table"
	DefaultModel       = "gpt-4o-mini"
	DefaultBaseURL     = "https://api.openai.com"
	DefaultHistoryFile = ".datachat_history"
)

// LLMConfig holds connection settings for the text-generation service.
type LLMConfig struct {
	BaseURL        string  `koanf:"base_url"`
	APIKey         string  `koanf:"api_key"`
	Model          string  `koanf:"model"`
	Temperature    float64 `koanf:"temperature"`
	TimeoutSeconds int     `koanf:"timeout_seconds"`
}

// Demo describes one curated demo dataset: the artifact to upload, a
// dataset context narrative, and pre-written example questions that seed
// the question cache without a generation request.
type Demo struct {
	Title     string   `koanf:"title"`
	Body      string   `koanf:"body"`
	File      string   `koanf:"file"`
	Context   string   `koanf:"context"`
	Questions []string `koanf:"questions"`
}

// Config holds all CLI configuration options.
type Config struct {
	// Database is the session database path; empty means in-memory.
	Database string `koanf:"database"`
	// Context is the free-text dataset narrative embedded in prompts.
	Context string `koanf:"context"`
	// Format is the result output format: table, json, csv, md.
	Format      string    `koanf:"format"`
	Verbose     bool      `koanf:"verbose"`
	HistoryFile string    `koanf:"history_file"`
	LLM         LLMConfig `koanf:"llm"`
	Demos       []Demo    `koanf:"demos"`
}
