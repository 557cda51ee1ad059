package model

// Config is the complete application configuration
type Config struct {
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Extraction ExtractionConfig `yaml:"extraction" mapstructure:"extraction"`
	Hyde       HydeConfig       `yaml:"hyde" mapstructure:"hyde"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Scoring    ScoringConfig    `yaml:"scoring" mapstructure:"scoring"`
	Citation   CitationConfig   `yaml:"citation" mapstructure:"citation"`
	Corpus     CorpusConfig     `yaml:"corpus" mapstructure:"corpus"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
}

// LLMConfig configures the inference endpoint client
type LLMConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"` // openai, ollama
	Model             string  `yaml:"model" mapstructure:"model"`
	EmbeddingModel    string  `yaml:"embedding_model" mapstructure:"embedding_model"`
	APIKey            string  `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL           string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout           int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens         int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature       float32 `yaml:"temperature" mapstructure:"temperature"`
	MaxRetries        int     `yaml:"max_retries" mapstructure:"max_retries"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
	HTTPProxy         string  `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string  `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// ExtractionConfig bounds statement extraction
type ExtractionConfig struct {
	MaxStatements     int  `yaml:"max_statements" mapstructure:"max_statements"`
	RequireStatements bool `yaml:"require_statements" mapstructure:"require_statements"` // Zero statements fails the run
}

// HydeConfig bounds hypothetical-evidence generation
type HydeConfig struct {
	NumDocs     int `yaml:"num_docs" mapstructure:"num_docs"`
	MaxKeywords int `yaml:"max_keywords" mapstructure:"max_keywords"`
}

// SearchConfig tunes retrieval and rank fusion
type SearchConfig struct {
	MaxPerStrategy int  `yaml:"max_per_strategy" mapstructure:"max_per_strategy"`
	FusionK        int  `yaml:"fusion_k" mapstructure:"fusion_k"`                   // RRF constant, standard value 60
	StopOnFirstHit bool `yaml:"stop_on_first_hit" mapstructure:"stop_on_first_hit"` // Optional short-circuit, off by default
}

// ScoringConfig tunes relevance scoring
type ScoringConfig struct {
	Threshold      float64 `yaml:"threshold" mapstructure:"threshold"`               // Minimum score to survive, default 3.0
	EarlyStopCount int     `yaml:"early_stop_count" mapstructure:"early_stop_count"` // Qualifying hits before stopping, 0 disables
}

// CitationConfig tunes citation extraction and synthesis
type CitationConfig struct {
	MinScore          float64 `yaml:"min_score" mapstructure:"min_score"` // Minimum score for citation extraction
	MaxAuthors        int     `yaml:"max_authors" mapstructure:"max_authors"`
	FallbackCitations int     `yaml:"fallback_citations" mapstructure:"fallback_citations"` // Citations in the templated fallback summary
}

// CorpusConfig locates the literature corpus database
type CorpusConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// StoreConfig locates the audit-trail database
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// CacheConfig configures the embedding cache
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir        string `yaml:"dir,omitempty" mapstructure:"dir"`
	TTLMinutes int    `yaml:"ttl_minutes" mapstructure:"ttl_minutes"`
}

// OutputConfig controls report output
type OutputConfig struct {
	Dir     string `yaml:"dir" mapstructure:"dir"`
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:          "openai",
			Model:             "gpt-4o-mini",
			EmbeddingModel:    "text-embedding-3-small",
			Timeout:           60,
			MaxTokens:         1000,
			Temperature:       0.3,
			MaxRetries:        3,
			RequestsPerSecond: 2,
			Burst:             5,
		},
		Extraction: ExtractionConfig{
			MaxStatements:     5,
			RequireStatements: true,
		},
		Hyde: HydeConfig{
			NumDocs:     3,
			MaxKeywords: 8,
		},
		Search: SearchConfig{
			MaxPerStrategy: 20,
			FusionK:        60,
		},
		Scoring: ScoringConfig{
			Threshold:      3.0,
			EarlyStopCount: 5,
		},
		Citation: CitationConfig{
			MinScore:          3.0,
			MaxAuthors:        3,
			FallbackCitations: 3,
		},
		Corpus: CorpusConfig{Path: "corpus.db"},
		Store:  StoreConfig{Path: "refute.db"},
		Cache: CacheConfig{
			Enabled:    true,
			TTLMinutes: 24 * 60,
		},
		Output: OutputConfig{Dir: "reports"},
	}
}
