package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/grparry/MCPInvoke-sub000/internal/common"
)

// maxCatalogSize is the maximum allowed size for a catalog response (1MB).
const maxCatalogSize = 1 << 20

// defaultCatalogPath is the conventional catalog endpoint path.
const defaultCatalogPath = "/api/mcp/tools"

// HTTPProvider fetches the tool catalog from a remote HTTP endpoint.
type HTTPProvider struct {
	serverURL  string
	path       string
	httpClient *http.Client
	logger     *common.Logger
}

// NewHTTPProvider creates a catalog provider targeting the given server URL.
func NewHTTPProvider(serverURL string, logger *common.Logger) *HTTPProvider {
	return &HTTPProvider{
		serverURL: serverURL,
		path:      defaultCatalogPath,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// WithPath overrides the catalog endpoint path.
func (p *HTTPProvider) WithPath(path string) *HTTPProvider {
	p.path = path
	return p
}

// ListTools fetches and parses the remote catalog.
func (p *HTTPProvider) ListTools(ctx context.Context) ([]Entry, error) {
	p.logger.Debug().Str("url", p.serverURL+p.path).Msg("fetching tool catalog")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.serverURL+p.path, nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		p.logger.Error().Str("url", p.serverURL+p.path).Int64("duration_ms", duration.Milliseconds()).Str("error", err.Error()).Msg("catalog request failed")
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog response: %w", err)
	}
	if len(body) > maxCatalogSize {
		return nil, fmt.Errorf("catalog response too large: %d bytes (max %d)", len(body), maxCatalogSize)
	}

	p.logger.Debug().Int("status", resp.StatusCode).Int64("duration_ms", duration.Milliseconds()).Msg("catalog response")

	if resp.StatusCode >= 400 {
		return nil, parseErrorResponse(resp.StatusCode, body)
	}

	var entries []Entry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse tool catalog: %w", err)
	}
	return entries, nil
}

// parseErrorResponse extracts a meaningful error message from an HTTP error response.
func parseErrorResponse(statusCode int, body []byte) error {
	var errResp struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		return fmt.Errorf("%s", errResp.Error)
	}
	return fmt.Errorf("catalog server returned %d: %s", statusCode, string(body))
}
