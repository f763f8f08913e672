package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("with explicit path", func(t *testing.T) {
		dir, err := New("/tmp/test-versemill")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dir.Path() != "/tmp/test-versemill" {
			t.Errorf("expected path /tmp/test-versemill, got %s", dir.Path())
		}
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		dir, err := New("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, DefaultDirName)
		if dir.Path() != expected {
			t.Errorf("expected path %s, got %s", expected, dir.Path())
		}
	})
}

func TestDir_Paths(t *testing.T) {
	dir, _ := New("/tmp/test-versemill")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"ConfigPath", dir.ConfigPath(), "/tmp/test-versemill/config.yaml"},
		{"DatabasePath", dir.DatabasePath(), "/tmp/test-versemill/versemill.db"},
		{"PostgresDataPath", dir.PostgresDataPath(), "/tmp/test-versemill/postgres"},
		{"ExportsDir", dir.ExportsDir(), "/tmp/test-versemill/exports"},
		{"ExportPath", dir.ExportPath("SLK", "json"), "/tmp/test-versemill/exports/slk.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, tt.got)
			}
		})
	}
}

func TestDir_EnsureExists(t *testing.T) {
	root := filepath.Join(t.TempDir(), "versemill-test")

	dir, err := New(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dir.Exists() {
		t.Error("directory should not exist yet")
	}

	if err := dir.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}

	if !dir.Exists() {
		t.Error("directory should exist after EnsureExists")
	}
	if _, err := os.Stat(dir.ExportsDir()); err != nil {
		t.Errorf("exports directory should exist: %v", err)
	}
	if dir.ConfigExists() {
		t.Error("config should not exist yet")
	}

	if err := dir.EnsurePostgresDataDir(); err != nil {
		t.Fatalf("EnsurePostgresDataDir failed: %v", err)
	}
	info, err := os.Stat(dir.PostgresDataPath())
	if err != nil {
		t.Fatalf("postgres dir should exist: %v", err)
	}
	if !info.IsDir() {
		t.Error("postgres data path should be a directory")
	}
}
