package protocol

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/grparry/MCPInvoke-sub000/internal/common"
)

// Handler is the HTTP handler for the MCP endpoint: one POST body is one
// JSON-RPC envelope.
type Handler struct {
	dispatcher *Dispatcher
	logger     *common.Logger
}

// NewHandler creates the HTTP handler over a dispatcher.
func NewHandler(dispatcher *Dispatcher, logger *common.Logger) *Handler {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Handler{dispatcher: dispatcher, logger: logger}
}

// ServeHTTP reads the envelope, dispatches it, and writes the response.
// Notifications are acknowledged with 202 Accepted and an empty body.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	logger := h.logger.WithCorrelationId(uuid.New().String())

	start := time.Now()
	resp := h.dispatcher.HandleMessage(r.Context(), body)
	durationMs := time.Since(start).Milliseconds()

	if resp == nil {
		logger.Debug().Int64("duration_ms", durationMs).Msg("notification processed")
		w.WriteHeader(http.StatusAccepted)
		return
	}

	if resp.Error != nil {
		logger.Warn().Int("code", resp.Error.Code).Str("message", resp.Error.Message).Int64("duration_ms", durationMs).Msg("request failed")
	} else {
		logger.Debug().Int64("duration_ms", durationMs).Msg("request handled")
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error().Str("error", err.Error()).Msg("failed to write response")
	}
}
