package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"docqa/internal/domain"

	"github.com/joho/godotenv"
)

// Search types accepted by Retrieval.SearchType.
const (
	SearchSimilarity = "similarity"
	SearchMMR        = "mmr"
)

// Completion providers accepted by Completion.Provider.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Config is the full set of tunables. Components receive the section they
// need by value.
type Config struct {
	OllamaURL  string
	Embedding  Embedding
	Completion Completion
	Chunking   Chunking
	Retrieval  Retrieval
	Index      Index
	LogLevel   string

	// loadErr holds malformed dotenv or environment values seen by Load.
	loadErr error
}

type Embedding struct {
	Model     string
	BatchSize int
	Timeout   time.Duration
}

type Completion struct {
	Provider    string
	Model       string
	VisionModel string
	// BaseURL and APIKey are only used by the openai provider. An empty
	// BaseURL targets Ollama's OpenAI-compatible endpoint.
	BaseURL     string
	APIKey      string
	Temperature float64
	TopK        int
	TopP        float64
	Timeout     time.Duration
}

type Chunking struct {
	Size    int
	Overlap int
}

type Retrieval struct {
	SearchType string
	K          int
	FetchK     int
	Lambda     float64
}

type Index struct {
	Dir string
}

// DBPath is the sqlite file holding the persisted index.
func (i Index) DBPath() string { return filepath.Join(i.Dir, "index.db") }

// OverviewPath is where the generated document overview is written.
func (i Index) OverviewPath() string { return filepath.Join(i.Dir, "overview.md") }

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		OllamaURL: "http://localhost:11434",
		Embedding: Embedding{
			Model:     "nomic-embed-text",
			BatchSize: 32,
			Timeout:   60 * time.Second,
		},
		Completion: Completion{
			Provider:    ProviderOllama,
			Model:       "qwen3:14b",
			VisionModel: "qwen2.5vl:7b",
			Temperature: 0.3,
			TopK:        50,
			TopP:        0.9,
			Timeout:     120 * time.Second,
		},
		Chunking: Chunking{
			Size:    1000,
			Overlap: 200,
		},
		Retrieval: Retrieval{
			SearchType: SearchMMR,
			K:          5,
			FetchK:     20,
			Lambda:     0.5,
		},
		Index:    Index{Dir: ".docqa"},
		LogLevel: "info",
	}
}

// Load returns Default overlaid with values from the given dotenv files
// (".env" when none are given) and then the process environment. Missing
// dotenv files are ignored. The process environment is not modified.
// Values that fail to parse keep their default and are reported by
// Validate.
func Load(files ...string) Config {
	env := newLookup(files...)
	cfg := Default()

	cfg.OllamaURL = env.getEnv("DOCQA_OLLAMA_URL", cfg.OllamaURL)
	cfg.LogLevel = env.getEnv("DOCQA_LOG_LEVEL", cfg.LogLevel)

	cfg.Embedding.Model = env.getEnv("DOCQA_EMBED_MODEL", cfg.Embedding.Model)
	cfg.Embedding.BatchSize = env.getEnvInt("DOCQA_EMBED_BATCH_SIZE", cfg.Embedding.BatchSize)
	cfg.Embedding.Timeout = env.getEnvDuration("DOCQA_EMBED_TIMEOUT", cfg.Embedding.Timeout)

	cfg.Completion.Provider = env.getEnv("DOCQA_PROVIDER", cfg.Completion.Provider)
	cfg.Completion.Model = env.getEnv("DOCQA_CHAT_MODEL", cfg.Completion.Model)
	cfg.Completion.VisionModel = env.getEnv("DOCQA_VISION_MODEL", cfg.Completion.VisionModel)
	cfg.Completion.BaseURL = env.getEnv("OPENAI_BASE_URL", cfg.Completion.BaseURL)
	cfg.Completion.APIKey = env.getEnv("OPENAI_API_KEY", cfg.Completion.APIKey)
	cfg.Completion.Temperature = env.getEnvFloat("DOCQA_TEMPERATURE", cfg.Completion.Temperature)
	cfg.Completion.TopK = env.getEnvInt("DOCQA_TOP_K", cfg.Completion.TopK)
	cfg.Completion.TopP = env.getEnvFloat("DOCQA_TOP_P", cfg.Completion.TopP)
	cfg.Completion.Timeout = env.getEnvDuration("DOCQA_COMPLETION_TIMEOUT", cfg.Completion.Timeout)

	cfg.Chunking.Size = env.getEnvInt("DOCQA_CHUNK_SIZE", cfg.Chunking.Size)
	cfg.Chunking.Overlap = env.getEnvInt("DOCQA_CHUNK_OVERLAP", cfg.Chunking.Overlap)

	cfg.Retrieval.SearchType = env.getEnv("DOCQA_SEARCH_TYPE", cfg.Retrieval.SearchType)
	cfg.Retrieval.K = env.getEnvInt("DOCQA_K", cfg.Retrieval.K)
	cfg.Retrieval.FetchK = env.getEnvInt("DOCQA_FETCH_K", cfg.Retrieval.FetchK)
	cfg.Retrieval.Lambda = env.getEnvFloat("DOCQA_MMR_LAMBDA", cfg.Retrieval.Lambda)

	cfg.Index.Dir = env.getEnv("DOCQA_INDEX_DIR", cfg.Index.Dir)

	cfg.loadErr = errors.Join(env.errs...)
	return cfg
}

// Validate reports the first out-of-range value, wrapped in
// domain.ErrInvalidConfiguration.
func (c Config) Validate() error {
	if c.loadErr != nil {
		return c.loadErr
	}
	if err := c.Chunking.Validate(); err != nil {
		return err
	}
	switch {
	case c.OllamaURL == "":
		return invalid("ollama URL is empty")
	case c.Embedding.Model == "":
		return invalid("embedding model is empty")
	case c.Embedding.BatchSize <= 0:
		return invalid("embedding batch size must be positive, got %d", c.Embedding.BatchSize)
	case c.Embedding.Timeout <= 0 || c.Completion.Timeout <= 0:
		return invalid("timeouts must be positive")
	case c.Completion.Provider != ProviderOllama && c.Completion.Provider != ProviderOpenAI:
		return invalid("unknown completion provider %q", c.Completion.Provider)
	case c.Completion.Model == "":
		return invalid("chat model is empty")
	case c.Completion.TopP < 0 || c.Completion.TopP > 1:
		return invalid("top_p must be in [0, 1], got %g", c.Completion.TopP)
	case c.Retrieval.K < 1:
		return invalid("k must be at least 1, got %d", c.Retrieval.K)
	case c.Retrieval.SearchType != SearchSimilarity && c.Retrieval.SearchType != SearchMMR:
		return invalid("unknown search type %q", c.Retrieval.SearchType)
	case c.Retrieval.Lambda < 0 || c.Retrieval.Lambda > 1:
		return invalid("mmr lambda must be in [0, 1], got %g", c.Retrieval.Lambda)
	case c.Index.Dir == "":
		return invalid("index directory is empty")
	}
	return nil
}

// Validate checks the sliding window parameters.
func (c Chunking) Validate() error {
	if c.Size <= 0 {
		return invalid("chunk size must be positive, got %d", c.Size)
	}
	if c.Overlap < 0 {
		return invalid("chunk overlap must not be negative, got %d", c.Overlap)
	}
	if c.Overlap >= c.Size {
		return invalid("chunk overlap (%d) must be smaller than chunk size (%d)", c.Overlap, c.Size)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}

type lookup struct {
	dotenv map[string]string
	errs   []error
}

func newLookup(files ...string) *lookup {
	dotenv, err := godotenv.Read(files...)
	if err != nil {
		dotenv = nil
	}
	return &lookup{dotenv: dotenv}
}

func (l *lookup) get(key string) (string, bool) {
	if v := os.Getenv(key); v != "" {
		return v, true
	}
	v, ok := l.dotenv[key]
	return v, ok && v != ""
}

func (l *lookup) malformed(key, value, want string) {
	l.errs = append(l.errs, invalid("%s=%q is not %s", key, value, want))
}

func (l *lookup) getEnv(key, def string) string {
	if v, ok := l.get(key); ok {
		return v
	}
	return def
}

func (l *lookup) getEnvInt(key string, def int) int {
	v, ok := l.get(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		l.malformed(key, v, "an integer")
		return def
	}
	return n
}

func (l *lookup) getEnvFloat(key string, def float64) float64 {
	v, ok := l.get(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		l.malformed(key, v, "a number")
		return def
	}
	return f
}

// getEnvDuration accepts Go durations ("90s") or a bare number of seconds.
func (l *lookup) getEnvDuration(key string, def time.Duration) time.Duration {
	v, ok := l.get(key)
	if !ok {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	l.malformed(key, v, "a duration")
	return def
}
