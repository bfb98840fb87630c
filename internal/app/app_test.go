package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grparry/MCPInvoke-sub000/internal/catalog"
	"github.com/grparry/MCPInvoke-sub000/internal/common"
	"github.com/grparry/MCPInvoke-sub000/internal/config"
	"github.com/grparry/MCPInvoke-sub000/internal/schema"
)

// GreeterService is the catalog-driven test handler.
type GreeterService struct{}

func (g *GreeterService) Greet(ctx context.Context, name string) (string, error) {
	return fmt.Sprintf("hello %s", name), nil
}

func testConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Catalog.URL = ""
	cfg.Catalog.Path = ""
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := New(cfg, common.NewSilentLogger())
	if err != nil {
		t.Fatalf("app.New failed: %v", err)
	}
	return a
}

func TestNew_RegistersBuiltinVersionTool(t *testing.T) {
	a := newTestApp(t, testConfig())

	d, ok := a.Registry.Lookup("get_version")
	if !ok {
		t.Fatal("expected built-in get_version tool")
	}

	result, err := a.Invoker.Invoke(context.Background(), d, []any{})
	if err != nil {
		t.Fatalf("get_version invocation failed: %v", err)
	}
	info, ok := result.(map[string]string)
	if !ok {
		t.Fatalf("expected map payload, got %T", result)
	}
	if info["version"] == "" {
		t.Error("expected version in payload")
	}
}

func TestApp_EndToEndDispatchThroughMCPHandler(t *testing.T) {
	a := newTestApp(t, testConfig())

	if err := a.RegisterHandler("GreeterService", &GreeterService{}); err != nil {
		t.Fatalf("RegisterHandler failed: %v", err)
	}
	count := a.Registry.ImportCatalog([]catalog.Entry{
		{
			Name:        "greet",
			Description: "Say hello",
			Handler:     "GreeterService",
			Method:      "Greet",
			Params: []*schema.Parameter{
				{Name: "name", Type: schema.TypeString, Required: true},
			},
		},
	})
	if count != 1 {
		t.Fatalf("expected 1 imported tool, got %d", count)
	}

	raw := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"greet","arguments":{"name":"world"}}}`
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(raw))
	rec := httptest.NewRecorder()
	a.MCPHandler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var decoded struct {
		Result struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"result"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if decoded.Error != nil {
		t.Fatalf("unexpected error: %+v", decoded.Error)
	}
	if len(decoded.Result.Content) != 1 || decoded.Result.Content[0].Text != "hello world" {
		t.Errorf("unexpected content: %+v", decoded.Result.Content)
	}
}

func TestImportCatalog_FromFileProvider(t *testing.T) {
	content := `tools:
  - name: greet
    handler: GreeterService
    method: Greet
    params:
      - name: name
        type: string
        required: true
`
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}

	cfg := testConfig()
	cfg.Catalog.Path = path
	cfg.Catalog.Retries = 1

	a := newTestApp(t, cfg)

	// The handler identity is registered after startup; re-import picks
	// the entry up.
	if _, ok := a.Registry.Lookup("greet"); ok {
		t.Fatal("entry must be skipped while its handler is unregistered")
	}

	if err := a.RegisterHandler("GreeterService", &GreeterService{}); err != nil {
		t.Fatalf("RegisterHandler failed: %v", err)
	}
	a.ImportCatalog()

	if _, ok := a.Registry.Lookup("greet"); !ok {
		t.Error("expected greet after re-import")
	}
}

func TestCatalogProvider_Selection(t *testing.T) {
	cfg := testConfig()
	a := newTestApp(t, cfg)

	if p := a.catalogProvider(); p != nil {
		t.Errorf("expected no provider without configuration, got %T", p)
	}

	a.Config.Catalog.Path = "/tmp/catalog.yaml"
	if _, ok := a.catalogProvider().(*catalog.FileProvider); !ok {
		t.Error("expected file provider for path configuration")
	}

	// URL wins over path.
	a.Config.Catalog.URL = "http://localhost:5000"
	if _, ok := a.catalogProvider().(*catalog.HTTPProvider); !ok {
		t.Error("expected HTTP provider when URL is set")
	}
}
