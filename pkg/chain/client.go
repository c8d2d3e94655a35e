// Package chain reads file metadata entries from a Substrate-style node
// over JSON-RPC.
package chain

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nagara-network/metaquery/pkg/identity"
	"github.com/nagara-network/metaquery/pkg/log"
	"github.com/nagara-network/metaquery/pkg/metadata"
)

var (
	// ErrTransport covers session establishment and RPC failures.
	ErrTransport = errors.New("chain transport error")

	// ErrDecode means a storage value did not match the expected layout.
	ErrDecode = errors.New("chain decode error")
)

const (
	DefaultPallet      = "FileSystem"
	DefaultStorageItem = "Metadata"
	DefaultDialTimeout = 15 * time.Second
)

// Options configures where file metadata lives in chain storage.
type Options struct {
	Pallet      string
	StorageItem string
	DialTimeout time.Duration
}

func (o *Options) setDefaults() {
	if o.Pallet == "" {
		o.Pallet = DefaultPallet
	}
	if o.StorageItem == "" {
		o.StorageItem = DefaultStorageItem
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = DefaultDialTimeout
	}
}

// Client opens sessions against chain endpoints.
type Client struct {
	opts   Options
	prefix []byte
}

func NewClient(opts Options) *Client {
	opts.setDefaults()
	return &Client{
		opts:   opts,
		prefix: StoragePrefix(opts.Pallet, opts.StorageItem),
	}
}

// Dial opens a session. ws:// and http:// endpoints are plaintext, wss://
// and https:// are TLS.
func (c *Client) Dial(ctx context.Context, endpoint string) (*Session, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid endpoint %q: %w", ErrTransport, endpoint, err)
	}

	var t transport
	switch strings.ToLower(u.Scheme) {
	case "ws", "wss":
		t, err = dialWS(ctx, endpoint, c.opts.DialTimeout)
		if err != nil {
			return nil, err
		}
	case "http", "https":
		t = newHTTPTransport(endpoint, c.opts.DialTimeout)
	default:
		return nil, fmt.Errorf("%w: unsupported endpoint scheme %q", ErrTransport, u.Scheme)
	}

	return &Session{
		endpoint: u.Redacted(),
		secure:   IsSecure(endpoint),
		t:        t,
		prefix:   c.prefix,
		log:      log.ForService("chain"),
	}, nil
}

// IsSecure reports whether endpoint uses an encrypted transport.
func IsSecure(endpoint string) bool {
	e := strings.ToLower(endpoint)
	return strings.HasPrefix(e, "wss://") || strings.HasPrefix(e, "https://")
}

// Session is one connection to a node. All reads within a session use the
// finalized head observed by its first read.
type Session struct {
	endpoint string
	secure   bool
	t        transport
	prefix   []byte
	log      *log.Logger

	mu   sync.Mutex
	head string
}

func (s *Session) Endpoint() string { return s.endpoint }
func (s *Session) Secure() bool     { return s.secure }

// FinalizedHead returns the block hash all reads of this session are pinned to.
func (s *Session) FinalizedHead(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.head != "" {
		return s.head, nil
	}

	raw, err := s.t.call(ctx, "chain_getFinalizedHead", nil)
	if err != nil {
		return "", err
	}
	var head string
	if err := json.Unmarshal(raw, &head); err != nil || head == "" {
		return "", fmt.Errorf("%w: chain_getFinalizedHead: unexpected result %s", ErrTransport, raw)
	}
	s.head = head
	s.log.Debugf("%s finalized head %s", s.endpoint, head)
	return head, nil
}

// FetchFile reads the metadata entry stored under id.
func (s *Session) FetchFile(ctx context.Context, id identity.AccountID) (metadata.OnchainRecord, bool, error) {
	head, err := s.FinalizedHead(ctx)
	if err != nil {
		return metadata.OnchainRecord{}, false, err
	}

	key := "0x" + hex.EncodeToString(StorageKey(s.prefix, id))
	raw, err := s.t.call(ctx, "state_getStorage", []any{key, head})
	if err != nil {
		return metadata.OnchainRecord{}, false, err
	}

	var value *string
	if err := json.Unmarshal(raw, &value); err != nil {
		return metadata.OnchainRecord{}, false, fmt.Errorf("%w: state_getStorage: unexpected result %s", ErrTransport, raw)
	}
	if value == nil {
		s.log.Debugf("no entry for %s", id)
		return metadata.OnchainRecord{}, false, nil
	}

	data, err := hex.DecodeString(strings.TrimPrefix(*value, "0x"))
	if err != nil {
		return metadata.OnchainRecord{}, false, fmt.Errorf("%w: storage value for %s: %w", ErrDecode, id, err)
	}

	rec, err := decodeFileRecord(data)
	if err != nil {
		return metadata.OnchainRecord{}, false, fmt.Errorf("decoding entry for %s: %w", id, err)
	}
	return rec, true, nil
}

func (s *Session) Close() error {
	return s.t.close()
}
