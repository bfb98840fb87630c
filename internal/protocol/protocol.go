// Package protocol implements the JSON-RPC envelope surface: request
// parsing, method classification, dispatch to the registry/binder/invoker
// pipeline, and translation of every failure into a structured wire error.
package protocol

import "encoding/json"

// MethodListTools is the catalog snapshot method.
const MethodListTools = "tools/list"

// MethodCallTool is the canonical tool invocation method.
const MethodCallTool = "tools/call"

// Standard JSON-RPC 2.0 error codes, plus the server-error code used for
// faults raised by the invoked handler itself.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeServerError    = -32000
)

// Request represents a JSON-RPC 2.0 request message.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"` // number, string, or null; absent for notifications
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification returns true if this is a JSON-RPC notification. Only an
// absent id marks a notification; an explicit null id still gets a response.
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0
}

// Response represents a JSON-RPC 2.0 response message. Result and Error
// are mutually exclusive; exactly one is present on the wire.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"-"`
	Error   *RPCError       `json:"error,omitempty"`
}

// MarshalJSON emits exactly one of result or error. A successful nil
// result still serializes as "result": null so the envelope stays valid.
func (r Response) MarshalJSON() ([]byte, error) {
	id := r.ID
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	if r.Error != nil {
		return json.Marshal(struct {
			JSONRPC string          `json:"jsonrpc"`
			ID      json.RawMessage `json:"id"`
			Error   *RPCError       `json:"error"`
		}{r.JSONRPC, id, r.Error})
	}
	return json.Marshal(struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Result  any             `json:"result"`
	}{r.JSONRPC, id, r.Result})
}

// RPCError represents a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// newResponse creates a successful JSON-RPC response.
func newResponse(id json.RawMessage, result any) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}
}

// newErrorResponse creates an error JSON-RPC response.
func newErrorResponse(id json.RawMessage, code int, message string) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &RPCError{Code: code, Message: message},
	}
}

// extractID recovers the request id from the raw payload independently of
// full parsing, so a malformed-body response can still echo a valid id.
// Returns nil (rendered as null) when no id can be recovered.
func extractID(raw []byte) json.RawMessage {
	var probe struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil
	}
	return probe.ID
}
