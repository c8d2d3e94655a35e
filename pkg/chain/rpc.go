package chain

import (
	"context"
	"encoding/json"
	"fmt"
)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *uint64         `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

// transport carries JSON-RPC calls to a node.
type transport interface {
	call(ctx context.Context, method string, params []any) (json.RawMessage, error)
	close() error
}

func newRequest(id uint64, method string, params []any) rpcRequest {
	if params == nil {
		params = []any{}
	}
	return rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}
}

func (r *rpcResponse) unwrap(method string) (json.RawMessage, error) {
	if r.Error != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTransport, method, r.Error)
	}
	return r.Result, nil
}
