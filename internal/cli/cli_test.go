package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dendro/pkg/errors"
	"github.com/matzehuels/dendro/pkg/pipeline"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	c := New(&bytes.Buffer{}, log.InfoLevel)
	root := c.RootCommand()

	want := []string{"build", "score", "render", "cache", "completion"}
	for _, name := range want {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command missing subcommand %q", name)
		}
	}
	if !root.SilenceUsage {
		t.Error("usage should be silenced on errors")
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{in: "", want: []string{pipeline.FormatJSON}},
		{in: "svg", want: []string{"svg"}},
		{in: "json,svg,png", want: []string{"json", "svg", "png"}},
	}
	for _, tt := range tests {
		got := parseFormats(tt.in)
		if len(got) != len(tt.want) {
			t.Fatalf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
			}
		}
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	artifacts := map[string][]byte{
		"json": []byte(`{}`),
		"dot":  []byte("graph G {}\n"),
	}

	// Multiple formats: extension per format next to the input
	input := filepath.Join(dir, "matrix.tsv")
	if err := writeArtifacts(artifacts, []string{"json", "dot"}, input, ""); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"matrix.json", "matrix.dot"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}

	// Single format with explicit output: exact path
	out := filepath.Join(dir, "tree-output.json")
	if err := writeArtifacts(artifacts, []string{"json"}, input, out); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("missing artifact at explicit path: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("Valid", func(t *testing.T) {
		path := filepath.Join(dir, "config.toml")
		content := `
[search]
jobs = 8
iters = 5000

[delegate]
path = "/usr/local/bin/solver"
args = ["--threads", "4"]

[cache]
backend = "redis"
redis_addr = "localhost:6379"
redis_db = 2
`
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Search.Jobs != 8 || cfg.Search.Iters != 5000 {
			t.Errorf("search config = %+v", cfg.Search)
		}
		if cfg.Delegate.Path != "/usr/local/bin/solver" || len(cfg.Delegate.Args) != 2 {
			t.Errorf("delegate config = %+v", cfg.Delegate)
		}
		if cfg.Cache.Backend != CacheBackendRedis || cfg.Cache.RedisAddr != "localhost:6379" || cfg.Cache.RedisDB != 2 {
			t.Errorf("cache config = %+v", cfg.Cache)
		}
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(dir, "nope.toml"))
		if !errors.Is(err, errors.ErrCodeFileNotFound) {
			t.Fatalf("error = %v, want FILE_NOT_FOUND", err)
		}
	})

	t.Run("Malformed", func(t *testing.T) {
		path := filepath.Join(dir, "bad.toml")
		if err := os.WriteFile(path, []byte("[search\njobs="), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Fatalf("error = %v, want INVALID_FORMAT", err)
		}
	})

	t.Run("UnknownBackend", func(t *testing.T) {
		path := filepath.Join(dir, "backend.toml")
		if err := os.WriteFile(path, []byte("[cache]\nbackend = \"memcached\"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); !errors.Is(err, errors.ErrCodeInvalidOptions) {
			t.Fatalf("error = %v, want INVALID_OPTIONS", err)
		}
	})
}
