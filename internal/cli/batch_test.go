package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subjects.yaml")
	content := `
- subject: Acme Corp
  sources: acme.yaml
- subject: Globex
  sources: globex.yaml
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := readManifest(path)
	if err != nil {
		t.Fatalf("readManifest failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Subject != "Acme Corp" || entries[0].Sources != "acme.yaml" {
		t.Errorf("first entry wrong: %+v", entries[0])
	}
}

func TestReadManifest_Invalid(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := readManifest(empty); err == nil {
		t.Error("empty manifest must error")
	}

	missing := filepath.Join(dir, "missing-subject.yaml")
	if err := os.WriteFile(missing, []byte("- sources: a.yaml\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := readManifest(missing); err == nil {
		t.Error("entry without subject must error")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Acme Corp", "acme-corp"},
		{"a/b:c", "a_b_c"},
		{"  ", "subject"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
