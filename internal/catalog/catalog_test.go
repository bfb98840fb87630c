package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grparry/MCPInvoke-sub000/internal/common"
	"github.com/grparry/MCPInvoke-sub000/internal/schema"
)

func TestValidateEntry(t *testing.T) {
	tests := []struct {
		name    string
		entry   Entry
		wantErr bool
	}{
		{"valid", Entry{Name: "t", Handler: "H", Method: "M"}, false},
		{"emptyName", Entry{Handler: "H", Method: "M"}, true},
		{"emptyHandler", Entry{Name: "t", Method: "M"}, true},
		{"emptyMethod", Entry{Name: "t", Handler: "H"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntry(tt.entry)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEntry() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_SkipsInvalidAndDuplicates(t *testing.T) {
	entries := []Entry{
		{Name: "a", Handler: "H", Method: "M"},
		{Name: "", Handler: "H", Method: "M"},
		{Name: "a", Handler: "H", Method: "M"},
		{Name: "b", Handler: "H", Method: "M"},
	}

	valid := Validate(entries, common.NewSilentLogger())
	if len(valid) != 2 {
		t.Fatalf("expected 2 valid entries, got %d", len(valid))
	}
	if valid[0].Name != "a" || valid[1].Name != "b" {
		t.Errorf("unexpected surviving entries: %v", valid)
	}
}

func TestFileProvider_ListTools(t *testing.T) {
	content := `tools:
  - name: get_user_orders
    description: List orders for a user
    handler: OrderService
    method: GetUserOrders
    params:
      - name: orgId
        type: integer
        required: true
      - name: pageSize
        type: integer
        default: 10
  - name: ping
    handler: OrderService
    method: Ping
`
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write catalog file: %v", err)
	}

	entries, err := NewFileProvider(path).ListTools(context.Background())
	if err != nil {
		t.Fatalf("ListTools failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	orders := entries[0]
	if orders.Name != "get_user_orders" || orders.Handler != "OrderService" {
		t.Errorf("unexpected first entry: %+v", orders)
	}
	if len(orders.Params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(orders.Params))
	}
	if orders.Params[0].Type != schema.TypeInteger || !orders.Params[0].Required {
		t.Errorf("unexpected orgId param: %+v", orders.Params[0])
	}
	if orders.Params[1].Default != 10 {
		t.Errorf("expected pageSize default 10, got %v", orders.Params[1].Default)
	}
}

func TestFileProvider_MissingFile(t *testing.T) {
	_, err := NewFileProvider(filepath.Join(t.TempDir(), "absent.yaml")).ListTools(context.Background())
	if err == nil {
		t.Fatal("expected error for missing catalog file")
	}
}

func TestFileProvider_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte("tools: [unclosed"), 0o644); err != nil {
		t.Fatalf("failed to write catalog file: %v", err)
	}

	_, err := NewFileProvider(path).ListTools(context.Background())
	if err == nil {
		t.Fatal("expected error for malformed catalog file")
	}
}

func TestHTTPProvider_ListTools(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/mcp/tools" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"name":"get_user_orders","handler":"OrderService","method":"GetUserOrders",
			 "params":[{"name":"orgId","type":"integer","required":true}]}
		]`))
	}))
	defer srv.Close()

	entries, err := NewHTTPProvider(srv.URL, common.NewSilentLogger()).ListTools(context.Background())
	if err != nil {
		t.Fatalf("ListTools failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Name != "get_user_orders" || len(entries[0].Params) != 1 {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
}

func TestHTTPProvider_CustomPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/custom/tools" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	provider := NewHTTPProvider(srv.URL, common.NewSilentLogger()).WithPath("/custom/tools")
	entries, err := provider.ListTools(context.Background())
	if err != nil {
		t.Fatalf("ListTools failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty catalog, got %d entries", len(entries))
	}
}

func TestHTTPProvider_ErrorResponseMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"catalog backend offline"}`))
	}))
	defer srv.Close()

	_, err := NewHTTPProvider(srv.URL, common.NewSilentLogger()).ListTools(context.Background())
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if err.Error() != "catalog backend offline" {
		t.Errorf("expected extracted error message, got %q", err.Error())
	}
}

func TestHTTPProvider_RejectsOversizedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[" + strings.Repeat(" ", maxCatalogSize+10) + "]"))
	}))
	defer srv.Close()

	_, err := NewHTTPProvider(srv.URL, common.NewSilentLogger()).ListTools(context.Background())
	if err == nil {
		t.Fatal("expected error for oversized catalog response")
	}
	if !strings.Contains(err.Error(), "too large") {
		t.Errorf("expected size error, got %q", err.Error())
	}
}

func TestHTTPProvider_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	_, err := NewHTTPProvider(srv.URL, common.NewSilentLogger()).ListTools(context.Background())
	if err == nil {
		t.Fatal("expected error for non-array catalog body")
	}
}
