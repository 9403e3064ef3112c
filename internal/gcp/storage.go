package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"
)

// StorageClient wraps the GCS client with the single bucket the gateway
// writes to.
type StorageClient struct {
	client *storage.Client
	bucket string
	logger logrus.FieldLogger
}

// NewStorageClient creates a GCS client bound to the given bucket.
func NewStorageClient(ctx context.Context, bucket string, logger logrus.FieldLogger) (*StorageClient, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket name must be provided to create a storage client")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &StorageClient{client: client, bucket: bucket, logger: logger}, nil
}

// Upload writes the content to a new object only if no object with that name
// exists, and returns its gs:// URI. Object names carry a timestamp suffix,
// so a precondition failure means two uploads of the same file collided in
// the same second and the caller should treat it as a storage error.
func (s *StorageClient) Upload(ctx context.Context, objectName string, content io.Reader, contentType string) (string, error) {
	obj := s.client.Bucket(s.bucket).Object(objectName)
	writer := obj.If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := io.Copy(writer, content); err != nil {
		_ = writer.Close()
		s.logger.WithError(err).WithField("object", objectName).Error("failed to copy content to GCS object")
		return "", fmt.Errorf("failed to write to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == 412 {
			s.logger.WithField("object", objectName).Warn("object already exists")
			return "", fmt.Errorf("object %s already exists: %w", objectName, err)
		}
		s.logger.WithError(err).WithField("object", objectName).Error("failed to close GCS writer")
		return "", fmt.Errorf("failed to finalize GCS write: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", s.bucket, objectName), nil
}

// Close releases the underlying client.
func (s *StorageClient) Close() error {
	return s.client.Close()
}
