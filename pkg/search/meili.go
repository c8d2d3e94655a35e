package search

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/meilisearch/meilisearch-go"
	"github.com/nagara-network/metaquery/pkg/log"
	"github.com/nagara-network/metaquery/pkg/metadata"
)

// MeiliSearcher queries a Meilisearch server.
type MeiliSearcher struct {
	client *meilisearch.Client
	host   string
	log    *log.Logger
}

// NewMeiliSearcher builds a client for host authenticated with apiKey.
func NewMeiliSearcher(host, apiKey string, timeout time.Duration) (*MeiliSearcher, error) {
	u, err := url.Parse(host)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid store url %q", ErrStoreConnectionBroken, host)
	}

	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:    host,
		APIKey:  apiKey,
		Timeout: timeout,
	})

	return &MeiliSearcher{
		client: client,
		host:   u.Redacted(),
		log:    log.ForService("search"),
	}, nil
}

func (m *MeiliSearcher) Search(ctx context.Context, index, query string) ([]metadata.OffchainRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreConnectionBroken, err)
	}

	start := time.Now()
	resp, err := m.client.Index(index).Search(query, &meilisearch.SearchRequest{})
	if err != nil {
		return nil, fmt.Errorf("%w: searching %s: %w", ErrStoreConnectionBroken, index, err)
	}

	records := make([]metadata.OffchainRecord, 0, len(resp.Hits))
	for i, hit := range resp.Hits {
		rec, err := decodeHit(hit)
		if err != nil {
			return nil, fmt.Errorf("hit %d of %s: %w", i, index, err)
		}
		records = append(records, rec)
	}

	m.log.Debugf("%s/%s %q: %d hits in %s", m.host, index, query, len(records), time.Since(start))
	return records, nil
}
