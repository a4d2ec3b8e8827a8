package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"voicerag/types"
)

type Config struct {
	ServerAddr  string `validate:"required"`
	UploadDir   string `validate:"required"`
	CORSOrigins string
	BodyLimitMB int `validate:"gt=0"`

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=json console"`

	ChunkSize    int `validate:"gt=0"`
	ChunkOverlap int `validate:"gte=0,ltfield=ChunkSize"`
	TopK         int `validate:"gt=0"`

	EmbeddingProvider string `validate:"oneof=openai ollama gemini"`
	EmbeddingModel    string `validate:"required"`
	EmbeddingDim      int    `validate:"gt=0"`
	LLMProvider       string `validate:"oneof=openai ollama gemini"`
	LLMModel          string `validate:"required"`
	HTTPTimeout       time.Duration

	OpenAIKey     string
	OpenAIBaseURL string `validate:"required,url"`
	GeminiKey     string
	OllamaURL     string `validate:"required,url"`

	TranscribeModel string
	TTSModel        string
	TTSVoice        string

	VectorStore string `validate:"oneof=postgres memory"`
	PGHost      string
	PGPort      int
	PGUser      string
	PGPass      string
	PGDBName    string
	PGTable     string `validate:"required"`

	EmbedCacheSize int `validate:"gte=0"`
	EmbedCacheTTL  time.Duration

	Loader       types.LoaderConfig
	PDFCropTop   float64 `validate:"gte=0"`
	PDFCropBot   float64 `validate:"gte=0"`
	OTLPEndpoint string
	ServiceName  string

	MetricInterval time.Duration `validate:"gt=0"`
}

type modelDefaults struct {
	embedModel string
	embedDim   int
	llmModel   string
}

// providerDefaults fills model names and the embedding size when only the
// provider is set. An unknown provider gets none and fails validation.
var providerDefaults = map[string]modelDefaults{
	"openai": {embedModel: "text-embedding-3-small", embedDim: 1536, llmModel: "gpt-4o"},
	"ollama": {embedModel: "nomic-embed-text", embedDim: 768, llmModel: "llama3.1"},
	"gemini": {embedModel: "text-embedding-004", embedDim: 768, llmModel: "gemini-2.0-flash"},
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	p := &parser{}
	embedProvider := getEnv("EMBEDDING_PROVIDER", "openai")
	llmProvider := getEnv("LLM_PROVIDER", "openai")
	embedDefaults := providerDefaults[embedProvider]

	cfg := &Config{
		ServerAddr:  getEnv("SERVER_ADDR", ":8000"),
		UploadDir:   getEnv("UPLOAD_DIR", "uploads"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		BodyLimitMB: p.int("BODY_LIMIT_MB", 50),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		ChunkSize:    p.int("CHUNK_SIZE", 500),
		ChunkOverlap: p.int("CHUNK_OVERLAP", 50),
		TopK:         p.int("TOP_K", 5),

		EmbeddingProvider: embedProvider,
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", embedDefaults.embedModel),
		EmbeddingDim:      p.int("EMBEDDING_DIM", embedDefaults.embedDim),
		LLMProvider:       llmProvider,
		LLMModel:          getEnv("LLM_MODEL", providerDefaults[llmProvider].llmModel),
		HTTPTimeout:       p.duration("HTTP_TIMEOUT", 60*time.Second),

		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		GeminiKey:     os.Getenv("GEMINI_API_KEY"),
		OllamaURL:     getEnv("OLLAMA_URL", "http://localhost:11434"),

		TranscribeModel: getEnv("TRANSCRIBE_MODEL", "whisper-1"),
		TTSModel:        getEnv("TTS_MODEL", "gpt-4o-mini-tts"),
		TTSVoice:        getEnv("TTS_VOICE", "alloy"),

		VectorStore: getEnv("VECTOR_STORE", "postgres"),
		PGHost:      getEnv("PG_HOST", "localhost"),
		PGPort:      p.int("PG_PORT", 5432),
		PGUser:      os.Getenv("PG_USER"),
		PGPass:      os.Getenv("PG_PASS"),
		PGDBName:    os.Getenv("PG_DB_NAME"),
		PGTable:     getEnv("PG_TABLE", "records"),

		EmbedCacheSize: p.int("EMBED_CACHE_SIZE", 256),
		EmbedCacheTTL:  p.duration("EMBED_CACHE_TTL", 10*time.Minute),

		Loader: types.LoaderConfig{
			SettleTime: p.duration("LOADER_SETTLE_TIME", 5*time.Second),
			SourceDir:  getEnv("LOADER_SOURCE_DIR", "inbox"),
			ArchiveDir: getEnv("LOADER_ARCHIVE_DIR", "archive"),
			BadDir:     getEnv("LOADER_BAD_DIR", "bad"),
		},
		PDFCropTop:   p.float("PDF_CROP_TOP", 0),
		PDFCropBot:   p.float("PDF_CROP_BOTTOM", 0),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName:  getEnv("OTEL_SERVICE_NAME", "voicerag"),

		MetricInterval: p.duration("OTEL_METRIC_INTERVAL", 30*time.Second),
	}
	if p.err != nil {
		return nil, p.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		errs := types.ValidationErrors(err)
		if _, ok := errs["ChunkOverlap"]; ok {
			return fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", types.ErrInvalidChunkConfig, c.ChunkOverlap, c.ChunkSize)
		}
		return fmt.Errorf("invalid config: %v", errs)
	}
	return nil
}

func (c *Config) ChunkConfig() types.ChunkConfig {
	return types.ChunkConfig{ChunkSize: c.ChunkSize, ChunkOverlap: c.ChunkOverlap}
}

func (c *Config) PostgresConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.PGHost, c.PGPort, c.PGUser, c.PGPass, c.PGDBName)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// parser keeps the first conversion error so FromEnv reports a bad key once.
type parser struct {
	err error
}

func (p *parser) int(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid %s=%q: %w", key, v, err)
	}
	return n
}

func (p *parser) float(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid %s=%q: %w", key, v, err)
	}
	return f
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid %s=%q: %w", key, v, err)
	}
	return d
}
