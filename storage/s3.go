package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/adi0900/RegLex-AI/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Store implements DocumentStore over an S3 bucket.
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store creates a new S3-backed document store.
func NewS3Store(cfg StoreConfig) (*S3Store, error) {
	ctx := context.Background()

	var awsCfg aws.Config
	var err error

	// Load AWS config
	if cfg.AWSAccessKey != "" && cfg.AWSSecretKey != "" {
		// Use explicit credentials
		awsCfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.S3Region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AWSAccessKey,
				cfg.AWSSecretKey,
				"",
			)),
		)
	} else {
		// Use default credentials (from environment, IAM role, etc.)
		awsCfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.S3Region),
		)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Store{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.S3Bucket,
	}, nil
}

// UpsertMetadata overwrites the metadata blob for a document.
func (s *S3Store) UpsertMetadata(ctx context.Context, documentID string, metadata models.DocumentMetadata) error {
	return s.putJSON(ctx, metadataKey(documentID), enrichMetadata(documentID, metadata))
}

// UpsertResults overwrites the results blob for a document.
func (s *S3Store) UpsertResults(ctx context.Context, documentID string, report *models.ComplianceReport) error {
	return s.putJSON(ctx, resultsKey(documentID), report)
}

// GetMetadata retrieves a document's metadata; absent ids return false.
func (s *S3Store) GetMetadata(ctx context.Context, documentID string) (models.DocumentMetadata, bool, error) {
	var metadata models.DocumentMetadata
	found, err := s.getJSON(ctx, metadataKey(documentID), &metadata)
	if err != nil || !found {
		return nil, false, err
	}
	return metadata, true, nil
}

// GetResults retrieves a document's compliance report; absent ids return false.
func (s *S3Store) GetResults(ctx context.Context, documentID string) (*models.ComplianceReport, bool, error) {
	var report models.ComplianceReport
	found, err := s.getJSON(ctx, resultsKey(documentID), &report)
	if err != nil || !found {
		return nil, false, err
	}
	return &report, true, nil
}

// ListDocumentIDs lists document ids under the documents/ prefix.
func (s *S3Store) ListDocumentIDs(ctx context.Context, limit int) ([]string, error) {
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String("documents/"),
		Delimiter: aws.String("/"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	ids := make([]string, 0, len(out.CommonPrefixes))
	for _, prefix := range out.CommonPrefixes {
		if prefix.Prefix == nil {
			continue
		}
		// "documents/doc_123/" -> "doc_123"
		id := strings.TrimSuffix(strings.TrimPrefix(*prefix.Prefix, "documents/"), "/")
		if id == "" {
			continue
		}
		ids = append(ids, id)
		if limit > 0 && len(ids) >= limit {
			break
		}
	}
	return ids, nil
}

// UploadOriginal stores the raw source document.
func (s *S3Store) UploadOriginal(ctx context.Context, documentID string, filename string, data io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(originalKey(documentID, filename)),
		Body:        data,
		ContentType: aws.String(contentTypeFor(filename)),
	})
	if err != nil {
		return fmt.Errorf("failed to upload original for %s: %w", documentID, err)
	}
	return nil
}

// DeleteDocument removes every blob under the document's prefix.
func (s *S3Store) DeleteDocument(ctx context.Context, documentID string) error {
	prefix := "documents/" + documentID + "/"
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return fmt.Errorf("failed to list blobs for %s: %w", documentID, err)
	}

	for _, obj := range out.Contents {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    obj.Key,
		})
		if err != nil {
			return fmt.Errorf("failed to delete %s: %w", aws.ToString(obj.Key), err)
		}
	}
	return nil
}

func (s *S3Store) putJSON(ctx context.Context, key string, value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) getJSON(ctx context.Context, key string, out interface{}) (bool, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return false, nil
		}
		return false, fmt.Errorf("failed to download %s: %w", key, err)
	}
	defer result.Body.Close()

	if err := json.NewDecoder(result.Body).Decode(out); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// contentTypeFor determines content type from filename.
func contentTypeFor(filename string) string {
	switch {
	case strings.HasSuffix(strings.ToLower(filename), ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(strings.ToLower(filename), ".txt"):
		return "text/plain"
	case strings.HasSuffix(strings.ToLower(filename), ".json"):
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
