package blob

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"
	gstorage "google.golang.org/api/storage/v1"

	"nomadledger/internal/gcloud"
	"nomadledger/internal/store"
)

// GCSStore uploads receipts to a Google Cloud Storage bucket.
type GCSStore struct {
	svc    *gstorage.Service
	bucket string
	now    func() time.Time
}

// NewGCSStore authenticates with the service account resolved by gcloud.
func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New("missing GCS bucket")
	}
	opts, err := gcloud.ClientOptions(ctx, gstorage.DevstorageReadWriteScope)
	if err != nil {
		return nil, err
	}
	svc, err := gstorage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage service: %w", err)
	}
	return &GCSStore{svc: svc, bucket: bucket, now: time.Now}, nil
}

func (s *GCSStore) UploadReceipt(ctx context.Context, file store.ReceiptFile, ownerID string) (string, error) {
	if s.svc == nil {
		return "", errors.New("storage service not initialized")
	}
	name := ObjectName(ownerID, s.now(), file.Name)
	obj := &gstorage.Object{Name: name, ContentType: file.ContentType}
	var mediaOpts []googleapi.MediaOption
	if file.ContentType != "" {
		mediaOpts = append(mediaOpts, googleapi.ContentType(file.ContentType))
	}
	_, err := s.svc.Objects.Insert(s.bucket, obj).
		Media(file.Body, mediaOpts...).
		Context(ctx).
		Do()
	if err != nil {
		return "", mapGCSError(err)
	}
	slog.InfoContext(ctx, "Receipt uploaded", "bucket", s.bucket, "object", name, "size", file.Size)
	return s.PublicURL(name), nil
}

// PublicURL is the download URL of an object in the bucket.
func (s *GCSStore) PublicURL(name string) string {
	return "https://storage.googleapis.com/" + s.bucket + "/" + escapePath(name)
}

func mapGCSError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", store.ErrPermissionDenied, gerr.Message)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", store.ErrUploadTimeout, err)
	}
	return fmt.Errorf("upload receipt: %w", err)
}
