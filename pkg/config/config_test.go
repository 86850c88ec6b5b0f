package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

func (s *sample) Validate() error {
	if s.Count < 0 {
		return errors.New("count must not be negative")
	}
	return nil
}

func TestLoad_ExpandsEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	t.Setenv("SAMPLE_NAME", "doclife")
	if err := os.WriteFile(path, []byte("name: ${SAMPLE_NAME}\ncount: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var s sample
	if err := Load(path, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "doclife" || s.Count != 2 {
		t.Errorf("got %+v", s)
	}
}

func TestLoad_ValidationError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(path, []byte("count: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var s sample
	if err := Load(path, &s); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadOptional_MissingFileKeepsDefaults(t *testing.T) {
	s := sample{Name: "default", Count: 1}
	found, err := LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), &s)
	if err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if found {
		t.Error("found should be false for a missing file")
	}
	if s.Name != "default" || s.Count != 1 {
		t.Errorf("defaults changed: %+v", s)
	}
}

func TestLoadOptional_MissingFileStillValidates(t *testing.T) {
	s := sample{Count: -5}
	if _, err := LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), &s); err == nil {
		t.Fatal("defaults should still be validated")
	}
}
