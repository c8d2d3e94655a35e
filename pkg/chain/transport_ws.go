package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// wsTransport runs JSON-RPC over one websocket connection. Calls are
// serialized; notifications and replies to other ids are skipped.
type wsTransport struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	nextID uint64
}

func dialWS(ctx context.Context, endpoint string, timeout time.Duration) (*wsTransport, error) {
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: timeout,
	}

	conn, _, err := dialer.DialContext(dialCtx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: websocket dial %s: %w", ErrTransport, endpoint, err)
	}
	return &wsTransport{conn: conn}, nil
}

func (t *wsTransport) call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTransport, method, err)
	}

	// zero deadline when ctx has none
	deadline, _ := ctx.Deadline()
	_ = t.conn.SetWriteDeadline(deadline)
	_ = t.conn.SetReadDeadline(deadline)

	// unblock a pending read when the request is cancelled
	stop := context.AfterFunc(ctx, func() {
		_ = t.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	t.nextID++
	id := t.nextID
	if err := t.conn.WriteJSON(newRequest(id, method, params)); err != nil {
		return nil, fmt.Errorf("%w: %s: write: %w", ErrTransport, method, err)
	}

	for {
		var resp rpcResponse
		if err := t.conn.ReadJSON(&resp); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			return nil, fmt.Errorf("%w: %s: read: %w", ErrTransport, method, err)
		}
		if resp.ID == nil || *resp.ID != id {
			continue
		}
		return resp.unwrap(method)
	}
}

func (t *wsTransport) close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return t.conn.Close()
}
