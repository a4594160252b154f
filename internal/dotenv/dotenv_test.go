package dotenv

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseLine(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		key  string
		val  string
		ok   bool
	}{
		{"plain", "KEY=value", "KEY", "value", true},
		{"spaces", "  KEY = value ", "KEY", "value", true},
		{"export prefix", "export KEY=value", "KEY", "value", true},
		{"double quoted", `KEY="hello world"`, "KEY", "hello world", true},
		{"single quoted", "KEY='hello'", "KEY", "hello", true},
		{"empty value", "KEY=", "KEY", "", true},
		{"comment", "# KEY=value", "", "", false},
		{"blank", "   ", "", "", false},
		{"no equals", "KEY", "", "", false},
		{"empty key", "=value", "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key, val, ok := parseLine(tc.in)
			if key != tc.key || val != tc.val || ok != tc.ok {
				t.Fatalf("parseLine(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tc.in, key, val, ok, tc.key, tc.val, tc.ok)
			}
		})
	}
}

func TestLoadFile_MissingFileIsNoop(t *testing.T) {
	t.Parallel()
	if err := LoadFile(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("LoadFile missing file error: %v", err)
	}
}

func TestLoadFile_PreservesExistingEnv(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), ".env")
	content := "FROM_FILE=loaded\nEXISTING=from_file\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	t.Setenv("EXISTING", "already_set")
	t.Setenv("FROM_FILE", "")
	os.Unsetenv("FROM_FILE")

	if err := LoadFile(envPath); err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if got := os.Getenv("FROM_FILE"); got != "loaded" {
		t.Fatalf("FROM_FILE=%q, want %q", got, "loaded")
	}
	if got := os.Getenv("EXISTING"); got != "already_set" {
		t.Fatalf("EXISTING=%q, want existing value preserved", got)
	}
}
