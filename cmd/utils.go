package cmd

import (
	"fmt"

	"github.com/nagara-network/metaquery/pkg/chain"
	"github.com/nagara-network/metaquery/pkg/config"
	"github.com/nagara-network/metaquery/pkg/query"
	"github.com/nagara-network/metaquery/pkg/search"
)

// loadValidConfig loads the configuration and checks it can serve queries.
func loadValidConfig(configPath string) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildSearcher creates the configured search backend. The returned close
// function releases it.
func buildSearcher(cfg *config.Config) (search.Searcher, func() error, error) {
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		idx, err := search.OpenSQLiteIndex(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening local index: %w", err)
		}
		return idx, idx.Close, nil
	case config.BackendMeilisearch:
		ms, err := search.NewMeiliSearcher(cfg.Store.URL, cfg.Store.Key, cfg.Store.Timeout.Duration)
		if err != nil {
			return nil, nil, err
		}
		return ms, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// buildService wires the query service from configuration.
func buildService(cfg *config.Config) (*query.Service, func() error, error) {
	searcher, closeSearcher, err := buildSearcher(cfg)
	if err != nil {
		return nil, nil, err
	}

	var dialer query.Dialer
	if cfg.Chain.Enabled {
		dialer = query.NewChainDialer(chain.NewClient(chain.Options{
			Pallet:      cfg.Chain.Pallet,
			StorageItem: cfg.Chain.StorageItem,
			DialTimeout: cfg.Chain.DialTimeout.Duration,
		}))
	}

	return query.NewService(cfg, searcher, dialer), closeSearcher, nil
}
