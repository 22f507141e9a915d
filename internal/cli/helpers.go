package cli

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/faizmokh/worklog/internal/backup"
	"github.com/faizmokh/worklog/internal/config"
	"github.com/faizmokh/worklog/internal/files"
	"github.com/faizmokh/worklog/internal/logbook"
	"github.com/faizmokh/worklog/internal/merge"
)

// environment carries what every command needs. Fields left nil are resolved
// from flags and configuration on first use.
type environment struct {
	homeFlag string
	verbose  bool

	manager  *files.Manager
	cfg      *config.Config
	logger   *slog.Logger
	rewriter merge.Rewriter
	now      func() time.Time
}

func (e *environment) init(cmd *cobra.Command) error {
	if e.manager == nil {
		manager, err := files.NewManager(e.homeFlag)
		if err != nil {
			return err
		}
		e.manager = manager
	}
	if e.cfg == nil {
		cfg, err := config.Load(e.manager.BasePath())
		if err != nil {
			return err
		}
		e.cfg = cfg
	}
	if e.logger == nil {
		e.logger = e.cfg.Logger(cmd.ErrOrStderr(), e.verbose)
	}
	if e.now == nil {
		e.now = time.Now
	}
	return nil
}

func (e *environment) store() *logbook.Store {
	return logbook.NewStore(e.manager, backup.NewLedger(e.manager.BackupDir()))
}

func (e *environment) orchestrator() *merge.Orchestrator {
	rewriter := e.rewriter
	if rewriter == nil {
		rewriter = e.cfg.Client()
	}
	return merge.New(e.store(), rewriter,
		merge.WithClock(e.now),
		merge.WithTimeout(e.cfg.Timeout),
		merge.WithLogger(e.logger),
	)
}

// resolveRange applies defaults to the --from/--to flags: the start of the
// current year and today.
func resolveRange(fromFlag, toFlag string, now time.Time) (logbook.DateRange, error) {
	if fromFlag == "" {
		fromFlag = fmt.Sprintf("%04d-01-01", now.Year())
	}
	if toFlag == "" {
		toFlag = now.Format("2006-01-02")
	}

	r, err := logbook.ParseDateRange(fromFlag, toFlag)
	if err != nil {
		return logbook.DateRange{}, err
	}
	if err := r.Validate(); err != nil {
		return logbook.DateRange{}, fmt.Errorf("%s..%s: %w", fromFlag, toFlag, err)
	}
	return r, nil
}

func addRangeFlags(cmd *cobra.Command, fromFlag, toFlag *string) {
	cmd.Flags().StringVar(fromFlag, "from", "", "First day in YYYY-MM-DD (default: January 1 of this year)")
	cmd.Flags().StringVar(toFlag, "to", "", "Last day in YYYY-MM-DD (default: today)")
}

// readEntries returns one entry per non-blank line, as written.
func readEntries(r io.Reader) ([]string, error) {
	var entries []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		entries = append(entries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}
	return entries, nil
}

func plural(count int, singular, many string) string {
	if count == 1 {
		return singular
	}
	return many
}

func humanSize(size int64) string {
	switch {
	case size < 1024:
		return fmt.Sprintf("%d B", size)
	case size < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
	}
}
