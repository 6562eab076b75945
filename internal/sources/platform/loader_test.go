package platform

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoaderLoad(t *testing.T) {
	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "platform.yaml")

	yamlContent := `---
websiteDomains:
  - name: amorelink.com
    zoneId: Z0000000000000000001
adminDomains:
  - name: admin-amorelink.net
    zoneId: Z0000000000000000002
siteBundles:
  -
    - id: "001"
      name: amorelink
legacySources: []
`

	err := os.WriteFile(yamlPath, []byte(yamlContent), 0o644)
	if err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}

	loader := NewLoader(yamlPath)
	file, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(file.WebsiteDomains) != 1 || len(file.AdminDomains) != 1 {
		t.Fatalf("Load() domains = %d website, %d admin, want 1 and 1", len(file.WebsiteDomains), len(file.AdminDomains))
	}
	if file.SiteBundles[0][0].Name != "amorelink" {
		t.Errorf("first site = %q, want amorelink", file.SiteBundles[0][0].Name)
	}
	if loader.Source() != yamlPath {
		t.Errorf("Source() = %q, want %q", loader.Source(), yamlPath)
	}
}

func TestLoaderLoadEmbedded(t *testing.T) {
	loader := NewLoader("")
	file, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(file.WebsiteDomains) != 28 {
		t.Errorf("website domains = %d, want 28", len(file.WebsiteDomains))
	}
	if len(file.AdminDomains) != 16 {
		t.Errorf("admin domains = %d, want 16", len(file.AdminDomains))
	}
	if loader.Source() != "embedded" {
		t.Errorf("Source() = %q, want embedded", loader.Source())
	}
}

func TestLoaderLoadFileNotFound(t *testing.T) {
	loader := NewLoader("/nonexistent/path/platform.yaml")
	_, err := loader.Load()
	if err == nil {
		t.Error("Load() with non-existent file should return error")
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty document", input: ""},
		{name: "unknown key", input: "websiteDomain:\n  - name: a.com\n"},
		{name: "wrong shape", input: "siteBundles: 3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.input)); err == nil {
				t.Errorf("Parse(%q) should fail", tt.input)
			}
		})
	}
}
