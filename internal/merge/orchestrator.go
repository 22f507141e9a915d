// Package merge coordinates the worklog store with the rewrite collaborator:
// merging new entries into the document and producing date-ranged reports.
package merge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/faizmokh/worklog/internal/backup"
	"github.com/faizmokh/worklog/internal/logbook"
)

// DefaultTimeout bounds a single rewrite call.
const DefaultTimeout = 30 * time.Second

// ErrNoEntries is returned when a merge is requested with nothing to add.
var ErrNoEntries = errors.New("no entries to merge")

// Rewriter turns a system and user prompt into text.
type Rewriter interface {
	Rewrite(ctx context.Context, system, user string) (string, error)
}

// readier is implemented by rewriters that can report missing credentials
// without a round trip.
type readier interface {
	Ready() error
}

// MergeResult describes a completed merge.
type MergeResult struct {
	RequestID string
	Entries   []string
	Snapshot  backup.Snapshot
	Content   string
}

// Orchestrator owns the merge and report policies.
type Orchestrator struct {
	store    *logbook.Store
	rewriter Rewriter
	now      func() time.Time
	timeout  time.Duration
	logger   *slog.Logger
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithClock replaces the source of "today" used in merge prompts.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithTimeout bounds each rewrite call.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithLogger sets the logger used for request records.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New constructs an Orchestrator over store and rewriter.
func New(store *logbook.Store, rewriter Rewriter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		rewriter: rewriter,
		now:      time.Now,
		timeout:  DefaultTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Merge snapshots the worklog and replaces it with the rewriter's merge of
// entries into the current content. The snapshot is taken even if the
// rewrite fails, in which case the document is left untouched.
func (o *Orchestrator) Merge(ctx context.Context, entries []string) (MergeResult, error) {
	cleaned := cleanEntries(entries)
	if len(cleaned) == 0 {
		return MergeResult{}, ErrNoEntries
	}
	if err := o.ready(); err != nil {
		return MergeResult{}, err
	}

	result := MergeResult{RequestID: ulid.Make().String(), Entries: cleaned}
	logger := o.logger.With("request_id", result.RequestID, "op", "merge")
	logger.Info("merge started", "entries", len(cleaned))

	snap, err := o.store.Update(ctx, func(current string) (string, error) {
		updated, err := o.rewrite(ctx, mergeSystemPrompt, mergeUserPrompt(current, cleaned, o.now()))
		if err != nil {
			return "", err
		}
		if lost := droppedAllHeaders(current, updated); lost > 0 {
			logger.Warn("rewrite dropped every existing header", "headers", lost)
		}
		result.Content = updated
		return updated, nil
	})
	result.Snapshot = snap
	if err != nil {
		logger.Error("merge failed", "backup", snap.Name, "err", err)
		return result, fmt.Errorf("merge entries: %w", err)
	}

	logger.Info("merge stored", "backup", snap.Name, "bytes", len(result.Content))
	return result, nil
}

// Report filters the worklog to r and asks the rewriter for a report in the
// given style. Styles match exactly; anything else gets the summary prompt.
// Nothing is written.
func (o *Orchestrator) Report(ctx context.Context, r logbook.DateRange, style string) (string, error) {
	if style == "" {
		style = StyleSummary
	}
	if err := o.ready(); err != nil {
		return "", err
	}

	logger := o.logger.With("request_id", ulid.Make().String(), "op", "report", "style", style)

	doc, err := o.store.Read(ctx)
	if err != nil {
		return "", err
	}
	filtered, err := logbook.Extract(doc, r)
	if err != nil {
		return "", err
	}

	logger.Info("report started", "from", r.Start.Format("2006-01-02"), "to", r.End.Format("2006-01-02"))
	report, err := o.rewrite(ctx, reportSystemPrompt(style), reportUserPrompt(style, r, filtered))
	if err != nil {
		logger.Error("report failed", "err", err)
		return "", fmt.Errorf("generate report: %w", err)
	}
	return report, nil
}

func (o *Orchestrator) ready() error {
	if o.rewriter == nil {
		return errors.New("no rewriter configured")
	}
	if r, ok := o.rewriter.(readier); ok {
		return r.Ready()
	}
	return nil
}

func (o *Orchestrator) rewrite(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return o.rewriter.Rewrite(ctx, system, user)
}

func cleanEntries(entries []string) []string {
	var cleaned []string
	for _, entry := range entries {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		cleaned = append(cleaned, entry)
	}
	return cleaned
}

// droppedAllHeaders returns the number of headers in before when none of
// them survive in after, and zero otherwise.
func droppedAllHeaders(before, after string) int {
	_, prior := logbook.SplitSections(before)
	if len(prior) == 0 {
		return 0
	}
	_, next := logbook.SplitSections(after)
	kept := make(map[string]struct{}, len(next))
	for _, section := range next {
		kept[strings.TrimSpace(section.Header)] = struct{}{}
	}
	for _, section := range prior {
		if _, ok := kept[strings.TrimSpace(section.Header)]; ok {
			return 0
		}
	}
	return len(prior)
}
