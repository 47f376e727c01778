package utils_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/couponlens/internal/utils"
)

func TestSafeWriteFileCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "out.json")
	if err := utils.SafeWriteFile(path, []byte("{}")); err != nil {
		t.Fatalf("SafeWriteFile: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil || string(b) != "{}" {
		t.Fatalf("read back = %q, %v", b, err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestPrettyYAML(t *testing.T) {
	b, err := utils.PrettyYAML(map[string]any{"rate": 0.57, "groups": []string{"a"}})
	if err != nil {
		t.Fatalf("PrettyYAML: %v", err)
	}
	out := string(b)
	if !strings.Contains(out, "rate: 0.57") || !strings.Contains(out, "groups:\n  - a") {
		t.Fatalf("unexpected yaml:\n%s", out)
	}
}

func TestFindRoot(t *testing.T) {
	root := t.TempDir()
	deep := filepath.Join(root, "charts", "png")
	if err := utils.EnsureDir(deep); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "project.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write marker: %v", err)
	}
	got, err := utils.FindRoot(deep, "project.json")
	if err != nil {
		t.Fatalf("FindRoot: %v", err)
	}
	if got != root {
		t.Fatalf("root = %q, want %q", got, root)
	}
	if _, err := utils.FindRoot(deep, "missing.json"); err == nil {
		t.Fatalf("expected error for missing marker")
	}
}
