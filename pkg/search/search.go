// Package search looks up off-chain file documents by free-text query.
//
// Two backends are provided: MeiliSearcher talks to a Meilisearch server and
// SQLiteIndex keeps a local FTS5 index for development and offline use. Both
// report every failure as ErrStoreConnectionBroken so callers can treat the
// search store as a single dependency.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nagara-network/metaquery/pkg/metadata"
	"golang.org/x/text/unicode/norm"
)

const (
	DefaultMainnetIndex = "mainnet_files"
	DefaultTestnetIndex = "testnet_files"
)

// ErrStoreConnectionBroken is returned when the search store cannot be
// reached, queried, or its answer cannot be decoded.
var ErrStoreConnectionBroken = errors.New("connection to internal database is broken")

// Searcher runs a free-text query against one index and returns the hits in
// relevance order.
type Searcher interface {
	Search(ctx context.Context, index, query string) ([]metadata.OffchainRecord, error)
}

// NormalizeQuery trims the term and converts it to Unicode NFC so composed
// and decomposed input match the same documents.
func NormalizeQuery(q string) string {
	return norm.NFC.String(strings.TrimSpace(q))
}

// decodeHit converts one loosely typed hit into a record.
func decodeHit(hit any) (metadata.OffchainRecord, error) {
	var rec metadata.OffchainRecord

	raw, ok := hit.(json.RawMessage)
	if !ok {
		var err error
		raw, err = json.Marshal(hit)
		if err != nil {
			return rec, fmt.Errorf("%w: encoding hit: %w", ErrStoreConnectionBroken, err)
		}
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, fmt.Errorf("%w: decoding hit: %w", ErrStoreConnectionBroken, err)
	}
	return rec, nil
}
