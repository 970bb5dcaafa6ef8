// Package ingest coordinates the receipt ingestion pipeline: upload the
// captured image, submit it for analysis, poll, parse, persist, notify.
// Each attempt is a strict sequential state machine; a scan session runs its
// pages as independent concurrent attempts.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"expenseit/internal/blob"
	"expenseit/internal/core"
	"expenseit/internal/docintel"
)

// State of one ingestion attempt.
type State string

const (
	StateUploading  State = "uploading"
	StateSubmitting State = "submitting"
	StatePolling    State = "polling"
	StateParsing    State = "parsing"
	StatePersisting State = "persisting"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Analyzer is the long-running-operation client: submit once, poll to a
// three-way outcome.
type Analyzer interface {
	Submit(ctx context.Context, documentURL string) (operationLocation string, err error)
	Poll(ctx context.Context, operationLocation string) (*docintel.AnalyzeResult, error)
}

// Persister writes a receipt and its items as one atomic unit.
type Persister interface {
	CreateReceiptWithItems(ctx context.Context, receipt core.Receipt, items []core.ReceiptItem) (int64, error)
}

// Notifier is told when the receipt collection changed. Implementations must
// not fail the pipeline; delivery is best effort.
type Notifier interface {
	ReceiptCreated(ctx context.Context, receiptID int64)
}

// Page is one captured image of a scan session.
type Page struct {
	Name        string
	ContentType string
	Data        io.Reader
}

// PageResult reports the outcome of one ingestion attempt.
type PageResult struct {
	Page      string
	State     State
	ReceiptID int64
	Err       error
	// Reason is the human-readable failure message, empty on success.
	Reason string
}

// Orchestrator drives ingestion attempts. Construct with New; all
// collaborators are injected, there is no ambient global handle.
type Orchestrator struct {
	blobs    blob.Store
	analyzer Analyzer
	store    Persister
	notifier Notifier

	maxConcurrent int
	now           func() time.Time
}

type Option func(*Orchestrator)

// WithConcurrency caps how many pages of a session run at once.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxConcurrent = n
		}
	}
}

// WithClock injects the time source used for default receipt dates.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func New(blobs blob.Store, analyzer Analyzer, store Persister, notifier Notifier, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		blobs:         blobs,
		analyzer:      analyzer,
		store:         store,
		notifier:      notifier,
		maxConcurrent: 3,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ProcessSession ingests every page of a scan session. Pages run
// concurrently up to the configured cap; one page failing never aborts its
// siblings, so the group context is deliberately not used to cancel them.
// Results are returned in page order.
func (o *Orchestrator) ProcessSession(ctx context.Context, pages []Page) []PageResult {
	results := make([]PageResult, len(pages))

	g := new(errgroup.Group)
	g.SetLimit(o.maxConcurrent)
	for i, page := range pages {
		g.Go(func() error {
			results[i] = o.IngestImage(ctx, page)
			return nil
		})
	}
	g.Wait()

	return results
}

// IngestImage runs one full ingestion attempt for a captured image. On any
// failure the uploaded object is removed and nothing is persisted; the
// returned result carries the typed error and a short human-readable reason.
func (o *Orchestrator) IngestImage(ctx context.Context, page Page) PageResult {
	res := PageResult{Page: page.Name}

	// The random key doubles as the attempt's idempotency token: a retry
	// reuses it, so a duplicate upload overwrites instead of orphaning.
	key := "receipts/" + uuid.NewString()

	res.State = StateUploading
	downloadURL, err := o.blobs.Upload(ctx, key, page.Data, page.ContentType)
	if err != nil {
		return o.fail(ctx, res, fmt.Errorf("%w: %v", ErrUpload, err))
	}

	id, err := o.ingestUploaded(ctx, &res, key, downloadURL)
	if err != nil {
		// Nothing references the uploaded object anymore; remove it so
		// a failed attempt leaves no orphan behind. Cleanup must run
		// even when ctx was cancelled mid-attempt.
		cleanupCtx := context.WithoutCancel(ctx)
		if derr := o.blobs.Delete(cleanupCtx, key); derr != nil {
			slog.WarnContext(ctx, "Failed to clean up uploaded image",
				"key", key, "error", derr)
		}
		return o.fail(ctx, res, err)
	}

	res.State = StateDone
	res.ReceiptID = id
	return res
}

// IngestURL runs the pipeline for an image that already lives at a reachable
// URL (the scan-worker path). The object is not ours, so there is no upload
// and no cleanup.
func (o *Orchestrator) IngestURL(ctx context.Context, documentURL string) PageResult {
	res := PageResult{Page: documentURL}
	id, err := o.ingestUploaded(ctx, &res, "", documentURL)
	if err != nil {
		return o.fail(ctx, res, err)
	}
	res.State = StateDone
	res.ReceiptID = id
	return res
}

func (o *Orchestrator) ingestUploaded(ctx context.Context, res *PageResult, key, downloadURL string) (int64, error) {
	res.State = StateSubmitting
	operationLocation, err := o.analyzer.Submit(ctx, downloadURL)
	if err != nil {
		return 0, err
	}

	res.State = StatePolling
	analyzeResult, err := o.analyzer.Poll(ctx, operationLocation)
	if err != nil {
		return 0, err
	}

	res.State = StateParsing
	receipt, items, err := docintel.ParseReceipt(analyzeResult, o.now())
	if err != nil {
		return 0, err
	}
	receipt.ImageURL = downloadURL

	res.State = StatePersisting
	id, err := o.store.CreateReceiptWithItems(ctx, *receipt, items)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	slog.InfoContext(ctx, "Receipt ingested",
		"receipt_id", id,
		"merchant", receipt.MerchantName,
		"total_cents", receipt.TotalPrice.Cents,
		"items", len(items),
		"key", key)

	if o.notifier != nil {
		o.notifier.ReceiptCreated(ctx, id)
	}
	return id, nil
}

func (o *Orchestrator) fail(ctx context.Context, res PageResult, err error) PageResult {
	res.State = StateFailed
	res.Err = err
	res.Reason = FailureReason(err)
	slog.ErrorContext(ctx, "Receipt ingestion failed",
		"page", res.Page,
		"reason", res.Reason,
		"error", err)
	return res
}
