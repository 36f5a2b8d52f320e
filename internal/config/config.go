// Package config loads brandguard settings from the environment, optionally
// layered over a TOML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// FileEnvVar names the environment variable pointing at an optional TOML config file.
const FileEnvVar = "BRANDGUARD_CONFIG_FILE"

// Config holds all configuration for the brandguard server and CLI.
type Config struct {
	Server    ServerConfig
	Audit     AuditConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Knowledge KnowledgeConfig
	AI        AIConfig
	Media     MediaConfig
}

type ServerConfig struct {
	Port     int
	Env      string
	LogLevel string
}

// AuditConfig controls job admission and retention.
type AuditConfig struct {
	RetentionTTL      time.Duration
	MaxConcurrentJobs int
	RetrievalTopK     int
	DownloadsDir      string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationsDir   string
}

type RedisConfig struct {
	URL               string
	RetrievalCacheTTL time.Duration
	RateLimitPerMin   int
}

// KnowledgeConfig describes the regulatory rule corpus and how it is indexed.
type KnowledgeConfig struct {
	Dir           string
	IngestOnStart bool
	MinScore      float64
	ChunkSize     int
	ChunkOverlap  int
}

type AIConfig struct {
	Provider         string
	InferenceTimeout time.Duration
	Generation       GenerationConfig
	Ollama           OllamaConfig
	VLLM             VLLMConfig
	OpenAI           OpenAIConfig
	Anthropic        AnthropicConfig
}

// GenerationConfig holds sampling settings shared by every provider.
type GenerationConfig struct {
	Temperature float64
	MaxTokens   int
}

type OllamaConfig struct {
	BaseURL string
	Model   string
}

type VLLMConfig struct {
	BaseURL string
	Model   string
}

type OpenAIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

type AnthropicConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// MediaConfig points at the external tools used to fetch and read videos.
type MediaConfig struct {
	YtDlpBinary       string
	FFmpegBinary      string
	WhisperBinary     string
	WhisperModel      string
	WhisperLanguage   string
	TesseractBinary   string
	TesseractLang     string
	OCRSampleInterval time.Duration
	OCRFrameWidth     int
	OCRMaxFrames      int
}

var validProviders = map[string]bool{
	"ollama":    true,
	"vllm":      true,
	"openai":    true,
	"anthropic": true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Load reads configuration and returns a validated Config. Environment
// variables win over values from the file named by BRANDGUARD_CONFIG_FILE.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	file, err := readFile(os.Getenv(FileEnvVar))
	if err != nil {
		return nil, err
	}
	e := source{file: file}

	cfg := &Config{
		Server: ServerConfig{
			Port:     e.envInt("BRANDGUARD_PORT", 8080),
			Env:      e.envString("BRANDGUARD_ENV", "development"),
			LogLevel: strings.ToLower(e.envString("LOG_LEVEL", "info")),
		},
		Audit: AuditConfig{
			RetentionTTL:      e.envDurationSecs("AUDIT_RETENTION_TTL_SECS", time.Hour),
			MaxConcurrentJobs: e.envInt("AUDIT_MAX_CONCURRENT_JOBS", 2),
			RetrievalTopK:     e.envInt("AUDIT_RETRIEVAL_TOP_K", 3),
			DownloadsDir:      e.envString("AUDIT_DOWNLOADS_DIR", "downloads"),
		},
		Database: DatabaseConfig{
			URL:             e.envString("DATABASE_URL", ""),
			MaxOpenConns:    e.envInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    e.envInt("DATABASE_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: e.envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
			MigrationsDir:   e.envString("DATABASE_MIGRATIONS_DIR", "migrations"),
		},
		Redis: RedisConfig{
			URL:               e.envString("REDIS_URL", ""),
			RetrievalCacheTTL: e.envDuration("RETRIEVAL_CACHE_TTL", 10*time.Minute),
			RateLimitPerMin:   e.envInt("RATE_LIMIT_PER_MIN", 30),
		},
		Knowledge: KnowledgeConfig{
			Dir:           e.envString("KNOWLEDGE_BASE_DIR", "knowledge_base"),
			IngestOnStart: e.envBool("KB_INGEST_ON_START", true),
			MinScore:      e.envFloat("KB_MIN_SCORE", 0.01),
			ChunkSize:     e.envInt("KB_CHUNK_SIZE", 1000),
			ChunkOverlap:  e.envInt("KB_CHUNK_OVERLAP", 200),
		},
		AI: AIConfig{
			Provider:         e.envString("AI_PROVIDER", "ollama"),
			InferenceTimeout: e.envDurationSecs("AI_INFERENCE_TIMEOUT_SECS", 300*time.Second),
			Generation: GenerationConfig{
				Temperature: e.envFloat("AI_TEMPERATURE", 0.1),
				MaxTokens:   e.envInt("AI_MAX_TOKENS", 3072),
			},
			Ollama: OllamaConfig{
				BaseURL: e.envString("OLLAMA_BASE_URL", "http://localhost:11434"),
				Model:   e.envString("OLLAMA_MODEL", "mistral"),
			},
			VLLM: VLLMConfig{
				BaseURL: e.envString("VLLM_BASE_URL", "http://localhost:8000"),
				Model:   e.envString("VLLM_MODEL", ""),
			},
			OpenAI: OpenAIConfig{
				BaseURL: e.envString("OPENAI_BASE_URL", "https://api.openai.com/v1"),
				APIKey:  e.envString("OPENAI_API_KEY", ""),
				Model:   e.envString("OPENAI_MODEL", "gpt-4o-mini"),
			},
			Anthropic: AnthropicConfig{
				BaseURL: e.envString("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
				APIKey:  e.envString("ANTHROPIC_API_KEY", ""),
				Model:   e.envString("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
			},
		},
		Media: MediaConfig{
			YtDlpBinary:       e.envString("YTDLP_BINARY", "yt-dlp"),
			FFmpegBinary:      e.envString("FFMPEG_BINARY", "ffmpeg"),
			WhisperBinary:     e.envString("WHISPER_BINARY", "whisper"),
			WhisperModel:      e.envString("WHISPER_MODEL", "tiny"),
			WhisperLanguage:   e.envString("WHISPER_LANGUAGE", "en"),
			TesseractBinary:   e.envString("TESSERACT_BINARY", "tesseract"),
			TesseractLang:     e.envString("TESSERACT_LANG", "eng"),
			OCRSampleInterval: e.envDurationSecs("OCR_SAMPLE_INTERVAL_SECS", 10*time.Second),
			OCRFrameWidth:     e.envInt("OCR_FRAME_WIDTH", 640),
			OCRMaxFrames:      e.envInt("OCR_MAX_FRAMES", 12),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if !validLogLevels[c.Server.LogLevel] {
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", c.Server.LogLevel)
	}

	if c.Audit.MaxConcurrentJobs < 1 {
		return fmt.Errorf("AUDIT_MAX_CONCURRENT_JOBS must be at least 1, got %d", c.Audit.MaxConcurrentJobs)
	}
	if c.Audit.RetentionTTL <= 0 {
		return fmt.Errorf("AUDIT_RETENTION_TTL_SECS must be positive")
	}
	if c.Audit.RetrievalTopK < 1 {
		return fmt.Errorf("AUDIT_RETRIEVAL_TOP_K must be at least 1, got %d", c.Audit.RetrievalTopK)
	}

	if c.Knowledge.ChunkSize < 1 {
		return fmt.Errorf("KB_CHUNK_SIZE must be at least 1, got %d", c.Knowledge.ChunkSize)
	}
	if c.Knowledge.ChunkOverlap < 0 || c.Knowledge.ChunkOverlap >= c.Knowledge.ChunkSize {
		return fmt.Errorf("KB_CHUNK_OVERLAP must be in [0, KB_CHUNK_SIZE), got %d", c.Knowledge.ChunkOverlap)
	}
	if c.Knowledge.MinScore < 0 || c.Knowledge.MinScore > 1 {
		return fmt.Errorf("KB_MIN_SCORE must be in [0, 1], got %v", c.Knowledge.MinScore)
	}

	if !validProviders[c.AI.Provider] {
		return fmt.Errorf("AI_PROVIDER must be one of ollama, vllm, openai, anthropic; got %q", c.AI.Provider)
	}
	if c.AI.InferenceTimeout <= 0 {
		return fmt.Errorf("AI_INFERENCE_TIMEOUT_SECS must be positive")
	}

	for key, u := range map[string]string{
		"OLLAMA_BASE_URL":    c.AI.Ollama.BaseURL,
		"VLLM_BASE_URL":      c.AI.VLLM.BaseURL,
		"OPENAI_BASE_URL":    c.AI.OpenAI.BaseURL,
		"ANTHROPIC_BASE_URL": c.AI.Anthropic.BaseURL,
	} {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("%s must start with http:// or https://, got %q", key, u)
		}
	}

	if c.AI.Provider == "vllm" && c.AI.VLLM.Model == "" {
		return fmt.Errorf("VLLM_MODEL is required when AI_PROVIDER is vllm")
	}
	if c.AI.Provider == "openai" && c.AI.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when AI_PROVIDER is openai")
	}
	if c.AI.Provider == "anthropic" && c.AI.Anthropic.APIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required when AI_PROVIDER is anthropic")
	}

	if c.Media.OCRSampleInterval <= 0 || c.Media.OCRFrameWidth < 1 || c.Media.OCRMaxFrames < 1 {
		return fmt.Errorf("OCR_SAMPLE_INTERVAL_SECS, OCR_FRAME_WIDTH and OCR_MAX_FRAMES must be positive")
	}

	return nil
}

// readFile parses a flat TOML file whose keys mirror the environment variable names.
func readFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", FileEnvVar, err)
	}
	var raw map[string]any
	if err := toml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[strings.ToUpper(k)] = fmt.Sprint(v)
	}
	return out, nil
}

// source resolves keys from the process environment, then the config file.
type source struct {
	file map[string]string
}

func (e source) lookup(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return e.file[key]
}

func (e source) envString(key, defaultVal string) string {
	if v := e.lookup(key); v != "" {
		return v
	}
	return defaultVal
}

func (e source) envInt(key string, defaultVal int) int {
	v := e.lookup(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func (e source) envFloat(key string, defaultVal float64) float64 {
	v := e.lookup(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func (e source) envBool(key string, defaultVal bool) bool {
	v := e.lookup(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func (e source) envDuration(key string, defaultVal time.Duration) time.Duration {
	v := e.lookup(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func (e source) envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := e.lookup(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
