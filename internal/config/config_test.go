package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Server.Host != DefaultHost {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, DefaultHost)
	}
	if cfg.Paths.Projects != DefaultProjectsDir {
		t.Errorf("Paths.Projects = %q, want %q", cfg.Paths.Projects, DefaultProjectsDir)
	}
	if cfg.Export.Mode != "snapshot" {
		t.Errorf("Export.Mode = %q, want snapshot", cfg.Export.Mode)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)

	content := `{
  "name": "dashboard",
  "server": {"port": 8080},
  "data": {
    "connectors": [{"id": "main", "driver": "sqlite3", "dsn": "app.db"}],
    "queries": [{"id": "q1", "name": "Q1", "connectorId": "main", "sql": "SELECT 1"}]
  },
  "export": {"mode": "live", "endpoint": "https://data.example.com"}
}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Name != "dashboard" {
		t.Errorf("Name = %q", cfg.Name)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	// Defaults fill the rest.
	if cfg.Server.Host != DefaultHost {
		t.Errorf("Server.Host = %q, want default", cfg.Server.Host)
	}
	if len(cfg.Data.Connectors) != 1 || cfg.Data.Connectors[0].ID != "main" {
		t.Errorf("Connectors = %+v", cfg.Data.Connectors)
	}
	if len(cfg.Data.Queries) != 1 || cfg.Data.Queries[0].ConnectorID != "main" {
		t.Errorf("Queries = %+v", cfg.Data.Queries)
	}
	if cfg.Export.Mode != "live" {
		t.Errorf("Export.Mode = %q", cfg.Export.Mode)
	}
	if cfg.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", cfg.Dir(), dir)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), ConfigFileName))
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "E141") {
		t.Errorf("error = %v, want E141", err)
	}
}

func TestLoadFileInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	os.WriteFile(path, []byte("{not json"), 0644)

	_, err := LoadFile(path)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "E120") {
		t.Errorf("error = %v, want E120", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)

	cfg := New()
	cfg.Name = "saved"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if loaded.Name != "saved" {
		t.Errorf("Name = %q", loaded.Name)
	}
}

func TestValidate(t *testing.T) {
	cfg := New()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}

	cfg.Server.Port = 99999
	if err := cfg.Validate(); err == nil {
		t.Error("out-of-range port should fail validation")
	}

	cfg = New()
	cfg.Export.Mode = "streaming"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown export mode should fail validation")
	}
}

func TestAddress(t *testing.T) {
	cfg := New()
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 9000

	if got := cfg.Address(); got != "0.0.0.0:9000" {
		t.Errorf("Address() = %q", got)
	}
	if got := cfg.URL(); got != "http://0.0.0.0:9000" {
		t.Errorf("URL() = %q", got)
	}
}

func TestPathsResolveAgainstConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	os.WriteFile(path, []byte("{}"), 0644)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.ProjectsPath(); got != filepath.Join(dir, DefaultProjectsDir) {
		t.Errorf("ProjectsPath() = %q", got)
	}
	if got := cfg.ExportsPath(); got != filepath.Join(dir, DefaultExportDir) {
		t.Errorf("ExportsPath() = %q", got)
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	os.WriteFile(filepath.Join(root, ConfigFileName), []byte("{}"), 0644)
	nested := filepath.Join(root, "a", "b")
	os.MkdirAll(nested, 0755)

	got, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatalf("FindProjectRoot: %v", err)
	}
	// Resolve symlinks before comparing; temp dirs may be linked.
	want, _ := filepath.EvalSymlinks(root)
	gotResolved, _ := filepath.EvalSymlinks(got)
	if gotResolved != want {
		t.Errorf("FindProjectRoot = %q, want %q", got, want)
	}
}

func TestFindProjectRootMissing(t *testing.T) {
	if _, err := FindProjectRoot(t.TempDir()); err == nil {
		t.Fatal("expected an error")
	}
}
