package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// httpTransport posts one JSON-RPC request per call.
type httpTransport struct {
	endpoint string
	client   *http.Client
	nextID   atomic.Uint64
}

func newHTTPTransport(endpoint string, timeout time.Duration) *httpTransport {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	return &httpTransport{
		endpoint: endpoint,
		client:   &http.Client{Transport: tr, Timeout: timeout},
	}
}

func (t *httpTransport) call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	id := t.nextID.Add(1)
	body, err := json.Marshal(newRequest(id, method, params))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: encoding request: %w", ErrTransport, method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTransport, method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTransport, method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %s: unexpected status %s", ErrTransport, method, resp.Status)
	}

	var out rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %s: decoding response: %w", ErrTransport, method, err)
	}
	if out.ID == nil || *out.ID != id {
		return nil, fmt.Errorf("%w: %s: response id mismatch", ErrTransport, method)
	}
	return out.unwrap(method)
}

func (t *httpTransport) close() error {
	t.client.CloseIdleConnections()
	return nil
}
