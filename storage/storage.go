package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/adi0900/RegLex-AI/models"
)

// DocumentStore persists per-document metadata and compliance results,
// keyed strictly by document ID. Upserts are idempotent overwrites. The
// Get methods report absence through their bool return: a missing id is a
// normal outcome, not an error.
type DocumentStore interface {
	UpsertMetadata(ctx context.Context, documentID string, metadata models.DocumentMetadata) error
	UpsertResults(ctx context.Context, documentID string, report *models.ComplianceReport) error
	GetMetadata(ctx context.Context, documentID string) (models.DocumentMetadata, bool, error)
	GetResults(ctx context.Context, documentID string) (*models.ComplianceReport, bool, error)
	ListDocumentIDs(ctx context.Context, limit int) ([]string, error)

	// UploadOriginal stores the raw source document blob.
	UploadOriginal(ctx context.Context, documentID string, filename string, data io.Reader) error
	// DeleteDocument removes every blob stored for the document.
	DeleteDocument(ctx context.Context, documentID string) error
}

// StoreType represents the storage backend type.
type StoreType string

const (
	StoreTypeLocal StoreType = "local"
	StoreTypeS3    StoreType = "s3"
)

// StoreConfig holds configuration for document storage.
type StoreConfig struct {
	Type         StoreType
	LocalPath    string // For local storage
	S3Bucket     string // For S3 storage
	S3Region     string // For S3 storage
	AWSAccessKey string
	AWSSecretKey string
}

// NewStore creates a document store based on configuration.
func NewStore(cfg StoreConfig) (DocumentStore, error) {
	switch cfg.Type {
	case StoreTypeLocal:
		return NewLocalStore(cfg.LocalPath)
	case StoreTypeS3:
		return NewS3Store(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// NewStoreFromEnv creates a document store from environment variables.
func NewStoreFromEnv() (DocumentStore, error) {
	storeType := os.Getenv("STORAGE_TYPE")
	if storeType == "" {
		storeType = "local" // Default to local for development
	}

	switch StoreType(storeType) {
	case StoreTypeLocal:
		localPath := os.Getenv("STORAGE_LOCAL_PATH")
		if localPath == "" {
			localPath = "./storage/documents"
		}
		return NewLocalStore(localPath)

	case StoreTypeS3:
		cfg := StoreConfig{
			Type:         StoreTypeS3,
			S3Bucket:     os.Getenv("AWS_S3_BUCKET"),
			S3Region:     os.Getenv("AWS_REGION"),
			AWSAccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			AWSSecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		}
		if cfg.S3Region == "" {
			cfg.S3Region = "us-east-1" // Default region
		}
		if cfg.S3Bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET environment variable is required for S3 storage")
		}
		return NewS3Store(cfg)

	default:
		return nil, fmt.Errorf("unknown storage type: %s", storeType)
	}
}

// Blobs for one document live under a shared prefix:
// documents/{id}/{metadata.json|results.json|original.*}
func metadataKey(documentID string) string {
	return "documents/" + documentID + "/metadata.json"
}

func resultsKey(documentID string) string {
	return "documents/" + documentID + "/results.json"
}

func originalKey(documentID, filename string) string {
	ext := "pdf"
	for i := len(filename) - 1; i >= 0; i-- {
		if filename[i] == '.' {
			ext = filename[i+1:]
			break
		}
	}
	return "documents/" + documentID + "/original." + ext
}

// enrichMetadata stamps storage details onto the metadata before upsert.
func enrichMetadata(documentID string, metadata models.DocumentMetadata) models.DocumentMetadata {
	enriched := make(models.DocumentMetadata, len(metadata)+2)
	for k, v := range metadata {
		enriched[k] = v
	}
	enriched["document_id"] = documentID
	enriched["stored_at"] = time.Now().UTC().Format(time.RFC3339)
	return enriched
}
