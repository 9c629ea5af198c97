package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(Config{BasePath: t.TempDir()})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func TestSaveReport(t *testing.T) {
	s := newTestStorage(t)

	path, err := s.SaveReport([]byte(`{"id":"run-1"}`), "thermo-tumbler")
	if err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}

	now := time.Now()
	expectedDir := filepath.Join("reports",
		fmt.Sprintf("%04d", now.Year()), fmt.Sprintf("%02d", int(now.Month())))
	if filepath.Dir(path) != expectedDir {
		t.Errorf("report dir = %q, want %q", filepath.Dir(path), expectedDir)
	}
	if filepath.Base(path) != "thermo-tumbler.json" {
		t.Errorf("report file = %q, want thermo-tumbler.json", filepath.Base(path))
	}

	data, err := s.ReadReport(path)
	if err != nil {
		t.Fatalf("ReadReport failed: %v", err)
	}
	if string(data) != `{"id":"run-1"}` {
		t.Errorf("round trip mismatch: %q", data)
	}
}

func TestSaveReportCollision(t *testing.T) {
	s := newTestStorage(t)

	first, err := s.SaveReport([]byte("a"), "tumbler")
	if err != nil {
		t.Fatalf("first SaveReport failed: %v", err)
	}
	second, err := s.SaveReport([]byte("b"), "tumbler")
	if err != nil {
		t.Fatalf("second SaveReport failed: %v", err)
	}

	if first == second {
		t.Fatalf("collision should produce a new path, both were %q", first)
	}
	if !strings.HasSuffix(second, "tumbler-1.json") {
		t.Errorf("second path = %q, want a -1 suffix", second)
	}

	data, err := s.ReadReport(first)
	if err != nil || string(data) != "a" {
		t.Errorf("first report = (%q, %v), want original content", data, err)
	}
}

func TestReadReportPathEscape(t *testing.T) {
	s := newTestStorage(t)

	if _, err := s.ReadReport("../outside.json"); err == nil {
		t.Error("expected error for path escaping the storage root")
	}
	if _, err := s.ReadReport("../../etc/passwd"); err == nil {
		t.Error("expected error for deep path escape")
	}
}

func TestReadReportMissing(t *testing.T) {
	s := newTestStorage(t)

	if _, err := s.ReadReport("reports/2026/01/nope.json"); err == nil {
		t.Error("expected error for missing report")
	}
}

func TestNewCreatesBaseDir(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "storage")

	if _, err := New(Config{BasePath: base}); err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := os.Stat(base); err != nil {
		t.Errorf("base directory should exist: %v", err)
	}
}
