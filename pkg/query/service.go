// Package query answers file searches: it queries the search index and, when
// chain enrichment is enabled, reconciles every hit with its on-chain entry.
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/nagara-network/metaquery/pkg/chain"
	"github.com/nagara-network/metaquery/pkg/config"
	"github.com/nagara-network/metaquery/pkg/log"
	"github.com/nagara-network/metaquery/pkg/metadata"
	"github.com/nagara-network/metaquery/pkg/search"
	"golang.org/x/sync/errgroup"
)

// Session is an open chain connection.
type Session interface {
	metadata.Fetcher
	Close() error
}

// Dialer opens chain sessions.
type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Session, error)
}

type chainDialer struct {
	client *chain.Client
}

func (d chainDialer) Dial(ctx context.Context, endpoint string) (Session, error) {
	s, err := d.client.Dial(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewChainDialer adapts a chain client to Dialer.
func NewChainDialer(c *chain.Client) Dialer {
	return chainDialer{client: c}
}

// Service runs file queries. It holds no per-request state and is safe for
// concurrent use.
type Service struct {
	cfg      *config.Config
	searcher search.Searcher
	dialer   Dialer
	log      *log.Logger
}

// NewService wires a service. dialer may be nil when chain enrichment is
// disabled in cfg.
func NewService(cfg *config.Config, searcher search.Searcher, dialer Dialer) *Service {
	return &Service{
		cfg:      cfg,
		searcher: searcher,
		dialer:   dialer,
		log:      log.ForService("query"),
	}
}

// Files returns the records matching term on the selected network, in search
// hit order. Any failure aborts the whole query.
func (s *Service) Files(ctx context.Context, term string, mainnet bool) ([]metadata.NormalizedRecord, error) {
	start := time.Now()
	index := s.cfg.Store.Index(mainnet)
	term = search.NormalizeQuery(term)

	hits, err := s.searcher.Search(ctx, index, term)
	if err != nil {
		return nil, err
	}
	s.log.Debugf("%s %q: %d hits", index, term, len(hits))

	if len(hits) == 0 {
		return []metadata.NormalizedRecord{}, nil
	}

	var out []metadata.NormalizedRecord
	if s.cfg.Chain.Enabled {
		out, err = s.enrich(ctx, hits, s.cfg.Chain.Endpoint(mainnet))
	} else {
		out, err = passthrough(hits)
	}
	if err != nil {
		return nil, err
	}

	s.log.Debugf("%s %q: %d records in %s", index, term, len(out), time.Since(start))
	return out, nil
}

func passthrough(hits []metadata.OffchainRecord) ([]metadata.NormalizedRecord, error) {
	out := make([]metadata.NormalizedRecord, 0, len(hits))
	for _, hit := range hits {
		rec, err := metadata.FromOffchain(hit)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// enrich opens one session for the whole request and reconciles each hit.
func (s *Service) enrich(ctx context.Context, hits []metadata.OffchainRecord, endpoint string) ([]metadata.NormalizedRecord, error) {
	if s.dialer == nil {
		return nil, fmt.Errorf("%w: no chain dialer configured", chain.ErrTransport)
	}

	sess, err := s.dialer.Dial(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			s.log.Warnf("closing chain session: %v", err)
		}
	}()

	if s.cfg.Chain.ConcurrentFetch {
		return reconcileConcurrent(ctx, sess, hits, s.cfg.Chain.FetchConcurrency)
	}
	return reconcileSequential(ctx, sess, hits)
}

func reconcileSequential(ctx context.Context, f metadata.Fetcher, hits []metadata.OffchainRecord) ([]metadata.NormalizedRecord, error) {
	out := make([]metadata.NormalizedRecord, 0, len(hits))
	for _, hit := range hits {
		rec, err := metadata.Reconcile(ctx, hit, f)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// reconcileConcurrent fetches up to limit entries at once. Results are stored
// by hit position so the output order matches the input.
func reconcileConcurrent(ctx context.Context, f metadata.Fetcher, hits []metadata.OffchainRecord, limit int) ([]metadata.NormalizedRecord, error) {
	out := make([]metadata.NormalizedRecord, len(hits))
	if limit < 1 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, hit := range hits {
		g.Go(func() error {
			rec, err := metadata.Reconcile(gctx, hit, f)
			if err != nil {
				return err
			}
			out[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
