package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string   `yaml:"name"`
	Roots []string `yaml:"roots"`
	Port  int      `yaml:"port"`
}

func (s *sample) Validate() error {
	if s.Port == 0 {
		return errors.New("port is required")
	}
	return nil
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("WIKIGRAPH_TEST_ROOT", "/srv/vault")
	path := writeConfig(t, "name: test\nport: 9000\nroots:\n  - ${WIKIGRAPH_TEST_ROOT}\n")

	var cfg sample
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9000 || cfg.Name != "test" {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.Roots) != 1 || cfg.Roots[0] != "/srv/vault" {
		t.Errorf("roots = %v, want [/srv/vault]", cfg.Roots)
	}
}

func TestLoad_KeepsDefaults(t *testing.T) {
	path := writeConfig(t, "port: 1\n")
	cfg := sample{Name: "default"}
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "default" {
		t.Errorf("name = %q, want default kept", cfg.Name)
	}
}

func TestLoad_ValidationError(t *testing.T) {
	path := writeConfig(t, "name: x\n")
	var cfg sample
	err := Load(path, &cfg)
	if err == nil || !strings.Contains(err.Error(), "port is required") {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var cfg sample
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &cfg); err == nil {
		t.Fatal("missing file should fail")
	}
}

func TestLoadIfExists(t *testing.T) {
	var cfg sample
	ok, err := LoadIfExists(filepath.Join(t.TempDir(), "nope.yaml"), &cfg)
	if err != nil || ok {
		t.Fatalf("missing file: ok=%v err=%v", ok, err)
	}

	ok, err = LoadIfExists(writeConfig(t, "port: 8080\n"), &cfg)
	if err != nil || !ok {
		t.Fatalf("present file: ok=%v err=%v", ok, err)
	}
	if cfg.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Port)
	}
}

func TestLoadWithDefaults_FallsBack(t *testing.T) {
	fallback := writeConfig(t, "port: 7000\n")
	var cfg sample
	if err := LoadWithDefaults(filepath.Join(t.TempDir(), "nope.yaml"), fallback, &cfg); err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if cfg.Port != 7000 {
		t.Errorf("port = %d, want 7000", cfg.Port)
	}
}
