package safeio

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCleanUserPath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		hasError bool
	}{
		{"package name", "apj", "apj", false},
		{"nested output", "./build/arxiv/paper.tex", "build/arxiv/paper.tex", false},
		{"absolute path", "/tmp/paper.tex", "/tmp/paper.tex", false},
		{"dotted name", "paper.v2.final.tex", "paper.v2.final.tex", false},
		{"empty path", "", ".", false},
		{"traversal", "../../etc/passwd", "", true},
		{"traversal in middle", "build/../../outside", "", true},
		{"parent directory", "..", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := CleanUserPath(tt.input)
			if tt.hasError {
				if err == nil {
					t.Errorf("CleanUserPath(%q) expected error but got none", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("CleanUserPath(%q) unexpected error: %v", tt.input, err)
			}
			if result != tt.expected {
				t.Errorf("CleanUserPath(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestContainedPath(t *testing.T) {
	base := filepath.Join("project", "build")

	got, err := ContainedPath(base, "apj")
	if err != nil {
		t.Fatalf("ContainedPath() unexpected error: %v", err)
	}
	if want := filepath.Join(base, "apj"); got != want {
		t.Errorf("ContainedPath() = %q, expected %q", got, want)
	}

	for _, bad := range []string{"", ".", "../apj", "/abs/apj"} {
		if _, err := ContainedPath(base, bad); err == nil {
			t.Errorf("ContainedPath(%q) expected error", bad)
		}
	}
}

func TestWriteFilePreservePerms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preprint.json")

	if err := WriteFilePreservePerms(path, []byte("{}")); err != nil {
		t.Fatalf("WriteFilePreservePerms() failed: %v", err)
	}
	st, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if st.Mode().Perm() != 0o644 {
		t.Errorf("new file mode = %v, expected 0644", st.Mode().Perm())
	}

	if err := os.Chmod(path, 0o600); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	if err := WriteFilePreservePerms(path, []byte(`{"master": "ms.tex"}`)); err != nil {
		t.Fatalf("WriteFilePreservePerms() failed: %v", err)
	}
	st, err = os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if st.Mode().Perm() != 0o600 {
		t.Errorf("rewritten file mode = %v, expected 0600", st.Mode().Perm())
	}
	content, _ := os.ReadFile(path)
	if string(content) != `{"master": "ms.tex"}` {
		t.Errorf("content = %q", content)
	}
}

func TestWriteFilePreservePermsError(t *testing.T) {
	err := WriteFilePreservePerms(filepath.Join(t.TempDir(), "missing", "dir", "file.tex"), []byte("x"))
	if err == nil {
		t.Error("WriteFilePreservePerms() should fail for non-existent directory")
	}
}
