// Package storage exports analysis reports as JSON documents, to the local
// filesystem or to S3-compatible object storage.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config contains storage configuration
type Config struct {
	BasePath string // Base directory for all stored reports
}

// DefaultConfig returns default storage configuration
func DefaultConfig() Config {
	return Config{
		BasePath: "./storage",
	}
}

// Storage handles filesystem report storage
type Storage struct {
	config Config
}

// New creates a new Storage instance
func New(config Config) (*Storage, error) {
	if err := os.MkdirAll(config.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base storage directory: %w", err)
	}
	return &Storage{config: config}, nil
}

// SaveReport writes a JSON report under reports/YYYY/MM/slug.json, suffixing
// the filename when it would collide with an existing report. Returns the
// path relative to the base storage directory.
func (s *Storage) SaveReport(data []byte, slug string) (string, error) {
	now := time.Now()
	dirPath := filepath.Join(s.config.BasePath, "reports",
		fmt.Sprintf("%04d", now.Year()), fmt.Sprintf("%02d", int(now.Month())))

	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	filename := slug + ".json"
	filePath := filepath.Join(dirPath, filename)

	counter := 1
	for fileExists(filePath) {
		filename = fmt.Sprintf("%s-%d.json", slug, counter)
		filePath = filepath.Join(dirPath, filename)
		counter++
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	relPath, err := filepath.Rel(s.config.BasePath, filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve report path: %w", err)
	}
	return relPath, nil
}

// ReadReport reads a report by its relative path
func (s *Storage) ReadReport(relPath string) ([]byte, error) {
	// Resolve and verify the path stays under the base directory
	fullPath := filepath.Join(s.config.BasePath, relPath)
	absBase, err := filepath.Abs(s.config.BasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base path: %w", err)
	}
	absFull, err := filepath.Abs(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve report path: %w", err)
	}
	rel, err := filepath.Rel(absBase, absFull)
	if err != nil || rel == ".." || filepath.IsAbs(rel) || len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator) {
		return nil, fmt.Errorf("report path escapes storage directory")
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}
	return data, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
