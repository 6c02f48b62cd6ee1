package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nomadledger/internal/blob"
	"nomadledger/internal/core"
	"nomadledger/internal/log"
	"nomadledger/internal/metrics"
	"nomadledger/internal/store"
)

var (
	// ErrReceiptTimeout means the upload did not finish in time. The caller may
	// resubmit with SkipReceipt to save the expense without a receipt.
	ErrReceiptTimeout    = errors.New("o upload do comprovante demorou demais")
	ErrReceiptPermission = errors.New("sem permissão para enviar o comprovante")
	ErrReceiptUpload     = errors.New("falha ao enviar o comprovante")
	ErrReceiptTooLarge   = errors.New("comprovante maior que o limite permitido")
	ErrReceiptNotImage   = errors.New("o comprovante deve ser uma imagem")
	ErrSaveFailed        = errors.New("falha ao salvar dados")
)

// Publisher announces new expenses to the sync pipeline.
type Publisher interface {
	PublishExpenseCreated(ctx context.Context, expenseID, ownerID string) error
}

// Invalidator drops cached data of one owner.
type Invalidator interface {
	Invalidate(ownerID string)
}

type SubmitRequest struct {
	Expense     core.Expense
	Receipt     *store.ReceiptFile
	SkipReceipt bool
}

// ExpenseService orchestrates expense submission across the receipt store,
// the document store and the sync queue.
type ExpenseService struct {
	submitter       store.ExpenseSubmitter
	receipts        store.ReceiptUploader
	publisher       Publisher
	invalidator     Invalidator
	logger          *log.StructuredLogger
	metrics         *metrics.Metrics
	maxReceiptBytes int64
	now             func() time.Time
}

type ExpenseServiceOptions struct {
	Receipts        store.ReceiptUploader
	UploadTimeout   time.Duration
	MaxReceiptBytes int64
	Publisher       Publisher
	Invalidator     Invalidator
	Logger          *log.Logger
	Metrics         *metrics.Metrics
}

func NewExpenseService(submitter store.ExpenseSubmitter, opts ExpenseServiceOptions) *ExpenseService {
	receipts := opts.Receipts
	if receipts != nil && opts.UploadTimeout > 0 {
		receipts = blob.WithTimeout(receipts, opts.UploadTimeout)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	return &ExpenseService{
		submitter:       submitter,
		receipts:        receipts,
		publisher:       opts.Publisher,
		invalidator:     opts.Invalidator,
		logger:          log.NewStructuredLogger(logger),
		metrics:         opts.Metrics,
		maxReceiptBytes: opts.MaxReceiptBytes,
		now:             time.Now,
	}
}

// Submit validates the expense, uploads the receipt when present and saves the
// record. Nothing is saved when the upload fails unless the request asks to
// skip the receipt.
func (s *ExpenseService) Submit(ctx context.Context, req SubmitRequest) (core.Expense, error) {
	e := req.Expense
	e.Description = strings.TrimSpace(e.Description)
	e.ReceiptURL = ""
	if err := e.Validate(); err != nil {
		s.metrics.ExpenseSubmitted(metrics.StatusInvalid)
		return core.Expense{}, err
	}

	if req.Receipt != nil && !req.SkipReceipt {
		url, err := s.uploadReceipt(ctx, *req.Receipt, e.OwnerID)
		if err != nil {
			s.metrics.ExpenseSubmitted(metrics.StatusError)
			return core.Expense{}, err
		}
		e.ReceiptURL = url
	}

	if e.CreatedAt == 0 {
		e.CreatedAt = s.now().UnixMilli()
	}
	id, err := s.submitter.SubmitExpense(ctx, e)
	if err != nil {
		s.metrics.ExpenseSubmitted(metrics.StatusError)
		s.logger.LogError(ctx, "Failed to save expense", err, log.ComponentExpense, log.OpCreate,
			log.NewFields().WithOwner(e.OwnerID))
		return core.Expense{}, fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	e.ID = id

	if s.invalidator != nil {
		s.invalidator.Invalidate(e.OwnerID)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishExpenseCreated(ctx, e.ID, e.OwnerID); err != nil {
			// The expense is saved; the worker's pending scan picks it up later.
			s.logger.LogError(ctx, "Failed to publish expense created message", err,
				log.ComponentAMQP, log.OpSync, log.NewFields().WithOwner(e.OwnerID))
		}
	}

	s.metrics.ExpenseSubmitted(metrics.StatusOK)
	s.logger.LogExpenseCreated(ctx, e)
	return e, nil
}

func (s *ExpenseService) uploadReceipt(ctx context.Context, file store.ReceiptFile, ownerID string) (string, error) {
	if !strings.HasPrefix(file.ContentType, "image/") {
		return "", ErrReceiptNotImage
	}
	if s.maxReceiptBytes > 0 && file.Size > s.maxReceiptBytes {
		return "", ErrReceiptTooLarge
	}
	if s.receipts == nil {
		return "", fmt.Errorf("%w: receipt storage not configured", ErrReceiptUpload)
	}

	start := time.Now()
	url, err := s.receipts.UploadReceipt(ctx, file, ownerID)
	took := time.Since(start)
	switch {
	case err == nil:
		s.metrics.ReceiptUpload(metrics.StatusOK, took)
		return url, nil
	case errors.Is(err, store.ErrUploadTimeout):
		s.metrics.ReceiptUpload(metrics.StatusTimeout, took)
		return "", ErrReceiptTimeout
	case errors.Is(err, store.ErrPermissionDenied):
		s.metrics.ReceiptUpload(metrics.StatusDenied, took)
		return "", ErrReceiptPermission
	default:
		s.metrics.ReceiptUpload(metrics.StatusError, took)
		s.logger.LogError(ctx, "Receipt upload failed", err, log.ComponentReceipts, log.OpUpload,
			log.NewFields().WithOwner(ownerID))
		return "", fmt.Errorf("%w: %v", ErrReceiptUpload, err)
	}
}
