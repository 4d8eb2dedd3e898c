package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/adi0900/RegLex-AI/models"
)

// LocalStore implements DocumentStore on the local filesystem, mirroring
// the blob layout of the S3 backend. Intended for development and tests.
type LocalStore struct {
	basePath string
}

// NewLocalStore creates a filesystem-backed document store.
func NewLocalStore(basePath string) (*LocalStore, error) {
	// Create base directory if it doesn't exist
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStore{
		basePath: basePath,
	}, nil
}

// UpsertMetadata overwrites the metadata blob for a document.
func (s *LocalStore) UpsertMetadata(ctx context.Context, documentID string, metadata models.DocumentMetadata) error {
	return s.writeJSON(metadataKey(documentID), enrichMetadata(documentID, metadata))
}

// UpsertResults overwrites the results blob for a document.
func (s *LocalStore) UpsertResults(ctx context.Context, documentID string, report *models.ComplianceReport) error {
	return s.writeJSON(resultsKey(documentID), report)
}

// GetMetadata retrieves a document's metadata; absent ids return false.
func (s *LocalStore) GetMetadata(ctx context.Context, documentID string) (models.DocumentMetadata, bool, error) {
	var metadata models.DocumentMetadata
	found, err := s.readJSON(metadataKey(documentID), &metadata)
	if err != nil || !found {
		return nil, false, err
	}
	return metadata, true, nil
}

// GetResults retrieves a document's compliance report; absent ids return false.
func (s *LocalStore) GetResults(ctx context.Context, documentID string) (*models.ComplianceReport, bool, error) {
	var report models.ComplianceReport
	found, err := s.readJSON(resultsKey(documentID), &report)
	if err != nil || !found {
		return nil, false, err
	}
	return &report, true, nil
}

// ListDocumentIDs lists the document directories, sorted by id. Document
// ids embed a timestamp, so the listing is roughly chronological.
func (s *LocalStore) ListDocumentIDs(ctx context.Context, limit int) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.basePath, "documents"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		ids = append(ids, entry.Name())
	}
	sort.Strings(ids)

	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// UploadOriginal stores the raw source document.
func (s *LocalStore) UploadOriginal(ctx context.Context, documentID string, filename string, data io.Reader) error {
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(originalKey(documentID, filename)))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, data); err != nil {
		os.Remove(fullPath) // Clean up on error
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// DeleteDocument removes every blob stored for the document.
func (s *LocalStore) DeleteDocument(ctx context.Context, documentID string) error {
	dir := filepath.Join(s.basePath, "documents", documentID)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", documentID, err)
	}
	return nil
}

func (s *LocalStore) writeJSON(key string, value interface{}) error {
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *LocalStore) readJSON(key string, out interface{}) (bool, error) {
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(key))

	data, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}
