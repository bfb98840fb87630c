package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/grparry/MCPInvoke-sub000/internal/binder"
	"github.com/grparry/MCPInvoke-sub000/internal/common"
	"github.com/grparry/MCPInvoke-sub000/internal/invoker"
	"github.com/grparry/MCPInvoke-sub000/internal/registry"
	"github.com/grparry/MCPInvoke-sub000/internal/schema"
)

// Dispatcher routes one envelope at a time through the registry, binder,
// and invoker, translating every failure into a structured wire error.
// It holds no per-request state; concurrent requests are independent.
type Dispatcher struct {
	registry    *registry.Registry
	binder      *binder.Binder
	invoker     *invoker.Invoker
	wrapContent bool
	logger      *common.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithTextContent wraps successful results in a canonical content-block
// envelope ({type:"text", text: payload}) for transport profiles that
// require it.
func WithTextContent(enabled bool) DispatcherOption {
	return func(d *Dispatcher) { d.wrapContent = enabled }
}

// WithLogger sets the dispatcher's logger.
func WithLogger(logger *common.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = logger }
}

// NewDispatcher creates a Dispatcher over the given pipeline components.
func NewDispatcher(reg *registry.Registry, b *binder.Binder, inv *invoker.Invoker, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry: reg,
		binder:   b,
		invoker:  inv,
		logger:   common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// toolsCallParams is the canonical tools/call parameter shape.
type toolsCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// listResult is the tools/list result shape.
type listResult struct {
	Tools []mcp.Tool `json:"tools"`
}

// HandleMessage processes one raw envelope and returns the response, or
// nil for notifications. Every branch is terminal: malformed input,
// unknown tools, binding failures, and handler faults all produce a
// well-formed error response.
func (d *Dispatcher) HandleMessage(ctx context.Context, raw []byte) *Response {
	id := extractID(raw)

	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return newErrorResponse(id, CodeParseError, fmt.Sprintf("parse error: %v", err))
	}
	if req.Method == "" {
		return newErrorResponse(id, CodeInvalidRequest, "request has no method")
	}

	var resp *Response
	switch req.Method {
	case MethodListTools:
		resp = d.listTools(req.ID)
	case MethodCallTool:
		name, args, errResp := d.parseCallParams(req)
		if errResp != nil {
			resp = errResp
		} else {
			resp = d.callTool(ctx, req.ID, name, args)
		}
	default:
		// Legacy direct-call shape: the method string is the tool name
		// and params (if present) is the argument bag.
		resp = d.callTool(ctx, req.ID, req.Method, argumentBag(req.Params))
	}

	if req.IsNotification() {
		return nil
	}
	return resp
}

// parseCallParams extracts the tool name and argument bag from a
// tools/call request. A missing or empty name is a caller error; a
// missing or malformed arguments object defaults to an empty bag.
func (d *Dispatcher) parseCallParams(req Request) (string, map[string]any, *Response) {
	var params toolsCallParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return "", nil, newErrorResponse(req.ID, CodeInvalidParams, fmt.Sprintf("invalid tools/call params: %v", err))
		}
	}
	if params.Name == "" {
		return "", nil, newErrorResponse(req.ID, CodeInvalidParams, "tools/call requires params.name")
	}
	return params.Name, argumentBag(params.Arguments), nil
}

// argumentBag decodes an opaque params value into a flat argument map,
// defaulting to an empty bag when absent or not an object.
func argumentBag(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil || args == nil {
		return map[string]any{}
	}
	return args
}

// listTools produces the catalog snapshot for every registered tool.
func (d *Dispatcher) listTools(id json.RawMessage) *Response {
	descriptors := d.registry.List()
	tools := make([]mcp.Tool, 0, len(descriptors))
	for _, desc := range descriptors {
		params := make([]*schema.Parameter, 0, len(desc.Schema))
		for _, p := range desc.Schema {
			params = append(params, p)
		}
		tools = append(tools, schema.BuildTool(desc.Name, desc.Description, params))
	}
	return newResponse(id, listResult{Tools: tools})
}

// callTool runs the lookup -> bind -> invoke pipeline for one tool call.
func (d *Dispatcher) callTool(ctx context.Context, id json.RawMessage, name string, args map[string]any) *Response {
	desc, ok := d.registry.Lookup(name)
	if !ok {
		return newErrorResponse(id, CodeMethodNotFound, fmt.Sprintf("tool %q not found", name))
	}

	bound, err := d.binder.Bind(desc.Method.Params(), desc.Schema, args)
	if err != nil {
		return d.bindingError(id, name, err)
	}

	result, err := d.invoker.Invoke(ctx, desc, bound)
	if err != nil {
		return d.invocationError(id, name, err)
	}

	return newResponse(id, d.wrapResult(result))
}

// bindingError maps binder failures onto the protocol error taxonomy:
// missing required arguments and type mismatches are caller errors;
// schema defects and anything else are internal.
func (d *Dispatcher) bindingError(id json.RawMessage, name string, err error) *Response {
	var missing *binder.MissingParamError
	if errors.As(err, &missing) {
		d.logger.Debug().Str("tool", name).Str("error", err.Error()).Msg("binding rejected: missing required parameter")
		return newErrorResponse(id, CodeInvalidParams, err.Error())
	}

	var mismatch *binder.TypeMismatchError
	if errors.As(err, &mismatch) {
		d.logger.Debug().Str("tool", name).Str("error", err.Error()).Msg("binding rejected: type mismatch")
		return newErrorResponse(id, CodeInvalidParams, err.Error())
	}

	d.logger.Error().Str("tool", name).Str("error", err.Error()).Msg("binding failed: server-side defect")
	return newErrorResponse(id, CodeInternalError, err.Error())
}

// invocationError maps invoker failures: handler-raised faults carry the
// server-error code with the underlying message; plumbing failures are
// internal.
func (d *Dispatcher) invocationError(id json.RawMessage, name string, err error) *Response {
	var fault *invoker.HandlerError
	if errors.As(err, &fault) {
		d.logger.Warn().Str("tool", name).Str("error", fault.Err.Error()).Msg("tool handler fault")
		return newErrorResponse(id, CodeServerError, fault.Err.Error())
	}

	d.logger.Error().Str("tool", name).Str("error", err.Error()).Msg("invocation failed")
	return newErrorResponse(id, CodeInternalError, err.Error())
}

// wrapResult optionally re-wraps the handler's value in a canonical
// content-block envelope. Strings pass through as the text payload;
// other values are JSON-encoded.
func (d *Dispatcher) wrapResult(v any) any {
	if !d.wrapContent {
		return v
	}
	return mcp.NewToolResultText(stringifyResult(v))
}

// stringifyResult renders a result value as the content-block text payload.
func stringifyResult(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		out, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(out)
	}
}
