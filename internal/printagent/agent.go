// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package printagent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/tomtom215/liveshop/internal/label"
	"github.com/tomtom215/liveshop/internal/logging"
	"github.com/tomtom215/liveshop/internal/metrics"
	"github.com/tomtom215/liveshop/internal/models"
)

// Archive and spool subdirectories of the work directory.
const (
	spoolDir   = "spool"
	printedDir = "printed"
	errorsDir  = "errors"

	archiveTimeLayout = "20060102_150405"
)

var (
	// ErrNoPrinter means no configured alias is installed in the spooler.
	ErrNoPrinter = errors.New("label printer not found")
	// ErrSubmitFailed means every spool command failed.
	ErrSubmitFailed = errors.New("all spool commands failed")
	// ErrEmptyProgram rejects a job without a label program.
	ErrEmptyProgram = errors.New("program is required")
)

// Options configures an Agent.
type Options struct {
	Aliases       []string
	ListCommand   string
	Commands      []string
	WorkDir       string
	RatePerSecond float64
	Burst         int

	Runner  Runner
	Journal *Journal
	Now     func() time.Time
}

// Agent discovers the printer and submits raw label programs to the spooler.
type Agent struct {
	opts    Options
	limiter *rate.Limiter

	// mu serialises submissions to the single printer.
	mu sync.Mutex
}

// SubmitError carries the failure response for a job that reached the
// spooler stage.
type SubmitError struct {
	Err      error
	Response models.PrintResponse
}

func (e *SubmitError) Error() string { return e.Err.Error() }
func (e *SubmitError) Unwrap() error { return e.Err }

// New creates the agent and its archive directories.
func New(opts Options) (*Agent, error) {
	if opts.Runner == nil {
		opts.Runner = ExecRunner{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 4
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	for _, dir := range []string{spoolDir, printedDir, errorsDir} {
		if err := os.MkdirAll(filepath.Join(opts.WorkDir, dir), 0o750); err != nil {
			return nil, fmt.Errorf("create %s directory: %w", dir, err)
		}
	}
	return &Agent{
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.Burst),
	}, nil
}

// Status runs discovery.
func (a *Agent) Status(ctx context.Context) models.PrinterStatus {
	return a.discover(ctx)
}

// Jobs lists journal records newest first. Without a journal it is empty.
func (a *Agent) Jobs(limit int) ([]models.PrintJobRecord, error) {
	if a.opts.Journal == nil {
		return []models.PrintJobRecord{}, nil
	}
	return a.opts.Journal.Recent(limit)
}

// TestPrint submits the built-in test label.
func (a *Agent) TestPrint(ctx context.Context) (*models.PrintResponse, error) {
	return a.Print(ctx, models.PrintRequest{
		Program:        string(label.TestProgram(a.opts.Now())),
		CustomerNumber: "TEST000",
		Price:          "0,00",
		OrderID:        "test",
	})
}

// Print submits one job. The job moves received → submitting → submitted or
// failed; the spool file ends up in printed/ or errors/. A failed job returns
// a *SubmitError whose response lists the attempted commands.
func (a *Agent) Print(ctx context.Context, req models.PrintRequest) (*models.PrintResponse, error) {
	if strings.TrimSpace(req.Program) == "" {
		return nil, ErrEmptyProgram
	}

	now := a.opts.Now()
	rec := models.PrintJobRecord{
		ID:             uuid.Must(uuid.NewV7()).String(),
		OrderID:        req.OrderID,
		CustomerNumber: req.CustomerNumber,
		Price:          req.Price,
		State:          models.JobReceived,
		ReceivedAt:     now,
		UpdatedAt:      now,
	}
	log := logging.Ctx(ctx).With().Str("job_id", rec.ID).Str("order_id", req.OrderID).Logger()
	a.record(rec)

	if err := a.limiter.Wait(ctx); err != nil {
		return a.fail(rec, "", "", nil, fmt.Errorf("throttled: %w", err))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	spoolPath := filepath.Join(a.opts.WorkDir, spoolDir, rec.ID+".zpl")
	if err := os.WriteFile(spoolPath, []byte(req.Program), 0o600); err != nil {
		return a.fail(rec, "", "", nil, fmt.Errorf("write spool file: %w", err))
	}

	st := a.discover(ctx)
	if st.PrinterName == "" {
		log.Warn().Str("detail", st.Message).Msg("no label printer in spooler")
		return a.fail(rec, spoolPath, a.firstAlias(), nil, fmt.Errorf("%w: %s", ErrNoPrinter, st.Message))
	}
	printer := st.PrinterName

	rec.State = models.JobSubmitting
	rec.Printer = printer
	rec.UpdatedAt = a.opts.Now()
	a.record(rec)

	var attempted []string
	for _, tmpl := range a.opts.Commands {
		argv := expandCommand(tmpl, printer, spoolPath)
		if len(argv) == 0 {
			continue
		}
		attempted = append(attempted, strings.Join(argv, " "))
		if _, err := a.opts.Runner.Run(ctx, argv[0], argv[1:]...); err != nil {
			log.Debug().Err(err).Str("command", argv[0]).Msg("spool command failed")
			continue
		}

		archived := a.archive(spoolPath, printedDir, req.OrderID)
		rec.State = models.JobSubmitted
		rec.Method = argv[0]
		rec.ArchivePath = archived
		rec.UpdatedAt = a.opts.Now()
		a.record(rec)

		metrics.SpoolSubmissions.WithLabelValues("submitted").Inc()
		log.Info().Str("printer", printer).Str("method", argv[0]).Msg("label submitted")
		return &models.PrintResponse{
			Success: true,
			Method:  argv[0],
			Message: fmt.Sprintf("label sent to %s via %s", printer, argv[0]),
			Printer: printer,
		}, nil
	}

	log.Warn().Str("printer", printer).Strs("attempted", attempted).Msg("label submission failed")
	return a.fail(rec, spoolPath, printer, attempted, ErrSubmitFailed)
}

// fail archives the spool file to errors/, journals the failure and builds
// the failure response.
func (a *Agent) fail(rec models.PrintJobRecord, spoolPath, printer string, attempted []string, cause error) (*models.PrintResponse, error) {
	archived := ""
	if spoolPath != "" {
		archived = a.archive(spoolPath, errorsDir, rec.OrderID)
	}
	metrics.SpoolSubmissions.WithLabelValues(failureResult(cause)).Inc()
	rec.State = models.JobFailed
	rec.Error = cause.Error()
	rec.ArchivePath = archived
	rec.UpdatedAt = a.opts.Now()
	a.record(rec)

	resp := models.PrintResponse{
		Success:   false,
		Message:   cause.Error(),
		Printer:   printer,
		Attempted: attempted,
	}
	if printer != "" && archived != "" {
		resp.Hint = fmt.Sprintf("manual: lp -d %s -o raw %s", printer, archived)
	}
	return &resp, &SubmitError{Err: cause, Response: resp}
}

func failureResult(err error) string {
	switch {
	case errors.Is(err, ErrNoPrinter):
		return "no_printer"
	case errors.Is(err, ErrSubmitFailed):
		return "failed"
	default:
		return "error"
	}
}

func (a *Agent) firstAlias() string {
	if len(a.opts.Aliases) == 0 {
		return ""
	}
	return a.opts.Aliases[0]
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// archive moves the spool file to dir and returns the new path. On a rename
// failure the spool path is returned so the file can still be found.
func (a *Agent) archive(spoolPath, dir, orderID string) string {
	id := unsafeName.ReplaceAllString(orderID, "_")
	if id == "" {
		id = "unknown"
	}
	name := fmt.Sprintf("label_%s_%s.zpl", a.opts.Now().Format(archiveTimeLayout), id)
	dst := filepath.Join(a.opts.WorkDir, dir, name)
	if _, err := os.Stat(dst); err == nil {
		dst = strings.TrimSuffix(dst, ".zpl") + "_" + filepath.Base(strings.TrimSuffix(spoolPath, ".zpl")) + ".zpl"
	}
	if err := os.Rename(spoolPath, dst); err != nil {
		logging.Warn().Err(err).Str("file", spoolPath).Msg("failed to archive label file")
		return spoolPath
	}
	return dst
}

func (a *Agent) record(rec models.PrintJobRecord) {
	if a.opts.Journal == nil {
		return
	}
	if err := a.opts.Journal.Put(rec); err != nil {
		logging.Warn().Err(err).Str("job_id", rec.ID).Msg("failed to journal print job")
	}
}
