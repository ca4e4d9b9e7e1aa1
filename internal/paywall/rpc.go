package paywall

import (
	"context"
	"encoding/json"
	"errors"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// rpcRequest is a JSON-RPC 2.0 request carrying a channel method call.
type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// rpcResponse is a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError is the error object in a JSON-RPC 2.0 response.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ServeRPC decodes one JSON-RPC request, runs it through Handle and returns
// the encoded response.
func (b *Bridge) ServeRPC(ctx context.Context, body []byte) []byte {
	var req rpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return encode(rpcResponse{Error: &rpcError{Code: CodeParseError, Message: "parse error"}})
	}
	resp := rpcResponse{ID: req.ID}
	if req.JSONRPC != "2.0" || req.Method == "" {
		resp.Error = &rpcError{Code: CodeInvalidRequest, Message: "invalid request"}
		return encode(resp)
	}

	result, err := b.Handle(ctx, MethodCall{Method: req.Method, Arguments: req.Params})
	switch {
	case errors.Is(err, ErrNotImplemented):
		resp.Error = &rpcError{Code: CodeMethodNotFound, Message: err.Error()}
	case errors.Is(err, ErrInvalidParams):
		resp.Error = &rpcError{Code: CodeInvalidParams, Message: err.Error()}
	case err != nil:
		b.log.Error("paywall call failed", "method", req.Method, "error", err)
		resp.Error = &rpcError{Code: CodeInternalError, Message: err.Error()}
	default:
		resp.Result = result
	}
	return encode(resp)
}

func encode(resp rpcResponse) []byte {
	resp.JSONRPC = "2.0"
	if len(resp.ID) == 0 {
		resp.ID = json.RawMessage("null")
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return []byte(`{"jsonrpc":"2.0","id":null,"error":{"code":-32603,"message":"encoding response"}}`)
	}
	return data
}
