// Package gcs implements the blob store on Google Cloud Storage through the
// JSON API.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gstorage "google.golang.org/api/storage/v1"

	"expenseit/internal/blob"
)

type Client struct {
	svc    *gstorage.Service
	bucket string
}

var _ blob.Store = (*Client)(nil)

// NewFromEnv creates a GCS-backed store using environment variables.
// Required: GCS_BUCKET. Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	bucket := strings.TrimSpace(os.Getenv("GCS_BUCKET"))
	if bucket == "" {
		return nil, errors.New("missing GCS_BUCKET")
	}

	credentialsJSON, err := credentialsFromEnv()
	if err != nil {
		return nil, err
	}

	svc, err := gstorage.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gstorage.DevstorageReadWriteScope))
	if err != nil {
		return nil, fmt.Errorf("create storage service: %w", err)
	}

	return &Client{svc: svc, bucket: bucket}, nil
}

func credentialsFromEnv() ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); inline != "" {
		return []byte(inline), nil
	}
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if file == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	credentialsJSON, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return credentialsJSON, nil
}

// Upload writes the object and returns its public download URL. Re-uploading
// the same key overwrites the previous object.
func (c *Client) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	obj := &gstorage.Object{Name: key, ContentType: contentType}
	inserted, err := c.svc.Objects.Insert(c.bucket, obj).
		Media(r).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("insert object %s: %w", key, err)
	}

	downloadURL := inserted.MediaLink
	if downloadURL == "" {
		downloadURL = fmt.Sprintf("https://storage.googleapis.com/%s/%s",
			c.bucket, url.PathEscape(key))
	}

	slog.InfoContext(ctx, "Uploaded object to GCS",
		"bucket", c.bucket, "key", key, "size", inserted.Size)
	return downloadURL, nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	if err := c.svc.Objects.Delete(c.bucket, key).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}
