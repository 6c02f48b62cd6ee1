// Package blob stores receipt images and hands back the URL they are served
// from.
package blob

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"nomadledger/internal/store"
)

// ObjectName builds receipts/<owner>/<epochms>_<filename>.
func ObjectName(ownerID string, at time.Time, filename string) string {
	return path.Join("receipts", ownerID, fmt.Sprintf("%d_%s", at.UnixMilli(), sanitizeFilename(filename)))
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if out == "" {
		return "receipt"
	}
	return out
}

type timeoutUploader struct {
	next    store.ReceiptUploader
	timeout time.Duration
}

// WithTimeout bounds every upload of next by d. An upload still running at
// the deadline is abandoned and reported as store.ErrUploadTimeout.
func WithTimeout(next store.ReceiptUploader, d time.Duration) store.ReceiptUploader {
	if d <= 0 {
		return next
	}
	return &timeoutUploader{next: next, timeout: d}
}

func (t *timeoutUploader) UploadReceipt(ctx context.Context, file store.ReceiptFile, ownerID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type result struct {
		url string
		err error
	}
	done := make(chan result, 1)
	go func() {
		url, err := t.next.UploadReceipt(ctx, file, ownerID)
		done <- result{url, err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", store.ErrUploadTimeout, r.err)
		}
		return r.url, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", store.ErrUploadTimeout
		}
		return "", ctx.Err()
	}
}
