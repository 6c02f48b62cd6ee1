package services

import (
	"bytes"
	"context"
	"time"

	"nomadledger/internal/cache"
	"nomadledger/internal/core"
	"nomadledger/internal/log"
	"nomadledger/internal/metrics"
	"nomadledger/internal/report"
	"nomadledger/internal/store"
)

// ReportTitle heads every PDF export.
const ReportTitle = "Relatório de Despesas"

// View is what the dashboard renders for one owner and range.
type View struct {
	All      []core.Expense
	Filtered []core.Expense
	Overview core.Overview
	Bounds   core.DateBounds
}

// Export is a finished report artifact.
type Export struct {
	Filename    string
	ContentType string
	Body        []byte
	Rows        int
}

// Ledger reads an owner's expenses through a short-lived cache and derives
// the filtered views and exports from them.
type Ledger struct {
	loader  store.ExpenseLoader
	cache   *cache.LRUCache[[]core.Expense]
	logger  *log.Logger
	slog    *log.StructuredLogger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewLedger builds a ledger. A nil cache disables caching.
func NewLedger(loader store.ExpenseLoader, c *cache.LRUCache[[]core.Expense], logger *log.Logger, m *metrics.Metrics) *Ledger {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentLedger)
	return &Ledger{
		loader:  loader,
		cache:   c,
		logger:  logger,
		slog:    log.NewStructuredLogger(logger),
		metrics: m,
		now:     time.Now,
	}
}

// Load returns every expense of the owner, newest first. Store failures are
// logged and yield an empty list.
func (l *Ledger) Load(ctx context.Context, ownerID string) []core.Expense {
	if l.cache != nil {
		if cached, ok := l.cache.Get(ownerID); ok {
			return cached
		}
	}

	expenses, err := l.loader.LoadExpenses(ctx, ownerID)
	if err != nil {
		l.metrics.ExpenseLoadFailed()
		l.slog.LogError(ctx, "Failed to load expenses", err, log.ComponentLedger, log.OpList,
			log.NewFields().WithOwner(ownerID))
		return []core.Expense{}
	}
	core.SortNewestFirst(expenses)
	if l.cache != nil {
		l.cache.Set(ownerID, expenses)
	}
	return expenses
}

// Invalidate drops the cached list of the owner.
func (l *Ledger) Invalidate(ownerID string) {
	if l.cache != nil {
		l.cache.Delete(ownerID)
	}
}

func (l *Ledger) View(ctx context.Context, ownerID string, b core.DateBounds) View {
	all := l.Load(ctx, ownerID)
	filtered := core.FilterByDate(all, b)
	return View{
		All:      all,
		Filtered: filtered,
		Overview: core.Summarize(filtered),
		Bounds:   b,
	}
}

// Export renders the owner's expenses inside b. The artifact is built in
// memory so a failed render never yields a partial file.
func (l *Ledger) Export(ctx context.Context, ownerID, ownerLabel string, b core.DateBounds, f report.Format) (Export, error) {
	expenses := core.FilterByDate(l.Load(ctx, ownerID), b)
	if len(expenses) == 0 {
		l.metrics.ReportGenerated(string(f), metrics.StatusEmpty, 0)
		return Export{}, report.ErrNoExpenses
	}

	if ownerLabel == "" {
		ownerLabel = ownerID
	}
	meta := report.Meta{
		Title:       ReportTitle,
		Owner:       ownerLabel,
		Bounds:      b,
		GeneratedAt: l.now(),
	}
	var buf bytes.Buffer
	if err := report.Render(f, &buf, meta, expenses); err != nil {
		l.metrics.ReportGenerated(string(f), metrics.StatusError, 0)
		l.slog.LogError(ctx, "Failed to render report", err, log.ComponentReport, log.OpExport,
			log.NewFields().WithOwner(ownerID).WithRange(b))
		return Export{}, err
	}

	l.metrics.ReportGenerated(string(f), metrics.StatusOK, len(expenses))
	l.slog.LogReportGenerated(ctx, ownerID, string(f), b, len(expenses))
	return Export{
		Filename:    report.Filename(b, f),
		ContentType: f.ContentType(),
		Body:        buf.Bytes(),
		Rows:        len(expenses),
	}, nil
}

// CacheStats reports the expense cache counters; ok is false when caching
// is disabled.
func (l *Ledger) CacheStats() (stats cache.Stats, ok bool) {
	if l.cache == nil {
		return cache.Stats{}, false
	}
	return l.cache.Stats(), true
}
