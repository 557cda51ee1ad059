package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/refutelab/refute/internal/cache"
	"github.com/refutelab/refute/internal/corpus"
	"github.com/refutelab/refute/internal/llm"
	"github.com/refutelab/refute/internal/model"
	"github.com/refutelab/refute/internal/store"
)

// loadStoreConfig merges defaults and the config file. It does not
// require LLM credentials; commands that only touch the databases use it.
func loadStoreConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	if viper.ConfigFileUsed() != "" {
		if err := viper.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.Output.Verbose = cfg.Output.Verbose || verbose
	return cfg, nil
}

// loadConfig additionally resolves LLM credentials from the environment
func loadConfig() (*model.Config, error) {
	cfg, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}

	// API keys come from the environment, never the config file
	switch cfg.LLM.Provider {
	case "openai":
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			cfg.LLM.APIKey = key
		}
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "ollama":
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	}

	return cfg, nil
}

// buildProvider assembles the decorated LLM client the pipeline uses
func buildProvider(cfg *model.Config) (llm.Provider, error) {
	var c cache.Cache
	if cfg.Cache.Enabled {
		ttl := time.Duration(cfg.Cache.TTLMinutes) * time.Minute
		if cfg.Cache.Dir != "" {
			c = cache.NewDiskCache(cfg.Cache.Dir, ttl)
		} else {
			c = cache.NewMemoryCache(ttl, 10*time.Minute)
		}
	}

	provider, err := llm.NewClient(llm.ConfigFromModel(cfg.LLM), c)
	if err != nil {
		return nil, fmt.Errorf("initializing LLM provider: %w", err)
	}

	return provider, nil
}

// openCorpus opens the literature corpus database
func openCorpus(cfg *model.Config) (*corpus.SQLiteStore, error) {
	if _, err := os.Stat(cfg.Corpus.Path); err != nil {
		return nil, fmt.Errorf("corpus database not found at %s (load one with 'refute corpus load')", cfg.Corpus.Path)
	}

	corpusStore, err := corpus.OpenSQLite(cfg.Corpus.Path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus: %w", err)
	}

	return corpusStore, nil
}

// openStore opens the audit-trail database
func openStore(cfg *model.Config) (*store.Store, error) {
	auditStore, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("opening result store: %w", err)
	}
	return auditStore, nil
}
