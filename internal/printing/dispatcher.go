// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package printing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/liveshop/internal/label"
	"github.com/tomtom215/liveshop/internal/logging"
	"github.com/tomtom215/liveshop/internal/metrics"
	"github.com/tomtom215/liveshop/internal/models"
)

// labelJobsTopic is the in-process topic between Dispatch and the handler.
const labelJobsTopic = "label.jobs"

// Outcome is the terminal result of a label job.
type Outcome string

const (
	OutcomePrinted          Outcome = "printed"
	OutcomePrintFailed      Outcome = "print-failed"
	OutcomeAgentUnreachable Outcome = "agent-unreachable"
)

// Result describes how a label job ended.
type Result struct {
	OrderID        string        `json:"order_id"`
	CustomerNumber string        `json:"customer_number"`
	Outcome        Outcome       `json:"outcome"`
	Attempts       int           `json:"attempts"`
	Printer        string        `json:"printer,omitempty"`
	Message        string        `json:"message"`
	FinishedAt     time.Time     `json:"finished_at"`
	Elapsed        time.Duration `json:"elapsed_ns"`
}

// Agent is the part of *Client the dispatcher needs.
type Agent interface {
	Print(ctx context.Context, req models.PrintRequest) (*models.PrintResponse, error)
	TestPrint(ctx context.Context) (*models.PrintResponse, error)
	Status(ctx context.Context) (*models.PrinterStatus, error)
}

// RetryConfig bounds the attempts for one job.
type RetryConfig struct {
	Attempts       int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// Budget caps the whole job, attempts and waits included.
	Budget time.Duration
}

// DefaultRetryConfig is 3 attempts, 250ms doubling to at most 2s, 5s total.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts:       3,
		InitialBackoff: 250 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		Budget:         5 * time.Second,
	}
}

// Dispatcher hands label jobs to the print agent without blocking callers.
//
// Jobs travel over an in-process watermill channel into a router handler.
// The router's Retry middleware re-runs failed attempts with exponential
// backoff; an outer middleware records the terminal outcome and always acks,
// so nothing is redelivered after the budget is spent. Jobs in flight when
// the process stops are lost.
type Dispatcher struct {
	agent  Agent
	retry  RetryConfig
	pubsub *gochannel.GoChannel
	logger watermill.LoggerAdapter
	now    func() time.Time

	mu        sync.RWMutex
	loc       *time.Location
	router    *message.Router
	last      *Result
	listeners []func(Result)
}

// NewDispatcher creates a dispatcher. Call Run before Dispatch.
func NewDispatcher(agent Agent, retry RetryConfig) *Dispatcher {
	def := DefaultRetryConfig()
	if retry.Attempts <= 0 {
		retry.Attempts = def.Attempts
	}
	if retry.InitialBackoff <= 0 {
		retry.InitialBackoff = def.InitialBackoff
	}
	if retry.MaxBackoff <= 0 {
		retry.MaxBackoff = def.MaxBackoff
	}
	if retry.Budget <= 0 {
		retry.Budget = def.Budget
	}

	logger := logging.NewWatermillLogger()
	return &Dispatcher{
		agent: agent,
		retry: retry,
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 256,
		}, logger),
		logger: logger,
		now:    time.Now,
		loc:    time.Local,
	}
}

// SetLocation sets the zone label timestamps are printed in. Jobs carry
// UTC instants; the paper label shows the operator's wall clock.
func (d *Dispatcher) SetLocation(loc *time.Location) {
	if loc == nil {
		return
	}
	d.mu.Lock()
	d.loc = loc
	d.mu.Unlock()
}

// Location returns the zone label timestamps are printed in.
func (d *Dispatcher) Location() *time.Location {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loc
}

// OnOutcome registers a callback invoked once per finished job.
func (d *Dispatcher) OnOutcome(fn func(Result)) {
	d.mu.Lock()
	d.listeners = append(d.listeners, fn)
	d.mu.Unlock()
}

// Run builds a fresh router and processes jobs until ctx is done. It is the
// dispatcher's suture service body, so a restart gets a new router.
func (d *Dispatcher) Run(ctx context.Context) error {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: d.retry.Budget + time.Second}, d.logger)
	if err != nil {
		return fmt.Errorf("create watermill router: %w", err)
	}

	retry := middleware.Retry{
		MaxRetries:      d.retry.Attempts - 1,
		InitialInterval: d.retry.InitialBackoff,
		MaxInterval:     d.retry.MaxBackoff,
		Multiplier:      2,
		MaxElapsedTime:  d.retry.Budget,
		Logger:          d.logger,
	}

	// Outer to inner: outcome, retry, recoverer.
	router.AddMiddleware(d.outcomeMiddleware, retry.Middleware, middleware.Recoverer)
	router.AddConsumerHandler("print-label", labelJobsTopic, d.pubsub, d.handle)

	d.mu.Lock()
	d.router = router
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.router = nil
		d.mu.Unlock()
	}()

	return router.Run(ctx)
}

// Running is closed once the router accepts jobs. It returns nil before Run.
func (d *Dispatcher) Running() <-chan struct{} {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.router == nil {
		return nil
	}
	return d.router.Running()
}

func (d *Dispatcher) isRunning() bool {
	ch := d.Running()
	if ch == nil {
		return false
	}
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// Dispatch enqueues a label job and returns immediately. The outcome is
// reported through metrics, logs, LastOutcome and OnOutcome callbacks.
func (d *Dispatcher) Dispatch(job models.LabelJob) {
	metrics.PrintJobsDispatched.Inc()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = d.now()
	}

	if !d.isRunning() {
		d.finish(job, d.now(), 0, OutcomeAgentUnreachable, "", "dispatcher not running")
		return
	}

	payload, err := json.Marshal(job)
	if err != nil {
		d.finish(job, d.now(), 0, OutcomePrintFailed, "", "encode job: "+err.Error())
		return
	}
	msg := message.NewMessage(uuid.Must(uuid.NewV7()).String(), payload)
	msg.Metadata.Set("order_id", job.OrderID)
	msg.Metadata.Set("dispatched_at", d.now().Format(time.RFC3339Nano))

	if err := d.pubsub.Publish(labelJobsTopic, msg); err != nil {
		d.finish(job, d.now(), 0, OutcomeAgentUnreachable, "", "enqueue: "+err.Error())
	}
}

type attemptsKey struct{}

// jobState travels in the message context across retries.
type jobState struct {
	attempts int
	resp     *models.PrintResponse
}

// outcomeMiddleware bounds the job by the budget, classifies the final error
// and acks the message.
func (d *Dispatcher) outcomeMiddleware(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		started := d.now()
		if ts, err := time.Parse(time.RFC3339Nano, msg.Metadata.Get("dispatched_at")); err == nil {
			started = ts
		}

		state := &jobState{}
		ctx, cancel := context.WithTimeout(msg.Context(), d.retry.Budget)
		defer cancel()
		ctx = context.WithValue(ctx, attemptsKey{}, state)
		ctx = logging.ContextWithJobID(ctx, msg.UUID)
		msg.SetContext(ctx)

		var job models.LabelJob
		if err := json.Unmarshal(msg.Payload, &job); err != nil {
			d.finish(job, started, 0, OutcomePrintFailed, "", "decode job: "+err.Error())
			return nil, nil
		}

		_, err := h(msg)
		switch {
		case err == nil:
			printer, text := "", "printed"
			if state.resp != nil {
				printer, text = state.resp.Printer, state.resp.Message
			}
			d.finish(job, started, state.attempts, OutcomePrinted, printer, text)
		case isPrintFailed(err):
			d.finish(job, started, state.attempts, OutcomePrintFailed, "", err.Error())
		default:
			d.finish(job, started, state.attempts, OutcomeAgentUnreachable, "", err.Error())
		}
		return nil, nil
	}
}

func isPrintFailed(err error) bool {
	var pf *PrintFailedError
	return errors.As(err, &pf)
}

// handle is one attempt: render the label and post it to the agent.
func (d *Dispatcher) handle(msg *message.Message) error {
	ctx := msg.Context()
	state, _ := ctx.Value(attemptsKey{}).(*jobState)
	if state != nil {
		state.attempts++
	}

	var job models.LabelJob
	if err := json.Unmarshal(msg.Payload, &job); err != nil {
		return fmt.Errorf("decode job: %w", err)
	}

	program := label.Program(job.CustomerNumber, job.Price, job.CreatedAt.In(d.Location()))
	resp, err := d.agent.Print(ctx, models.PrintRequest{
		Program:        string(program),
		CustomerNumber: job.CustomerNumber,
		Price:          job.Price,
		OrderID:        job.OrderID,
	})
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Str("order_id", job.OrderID).Int("attempt", attemptNumber(state)).
			Msg("label print attempt failed")
		return err
	}
	if state != nil {
		state.resp = resp
	}
	return nil
}

func attemptNumber(s *jobState) int {
	if s == nil {
		return 0
	}
	return s.attempts
}

func (d *Dispatcher) finish(job models.LabelJob, started time.Time, attempts int, outcome Outcome, printer, text string) {
	res := Result{
		OrderID:        job.OrderID,
		CustomerNumber: job.CustomerNumber,
		Outcome:        outcome,
		Attempts:       attempts,
		Printer:        printer,
		Message:        text,
		FinishedAt:     d.now(),
	}
	res.Elapsed = res.FinishedAt.Sub(started)
	metrics.RecordPrintOutcome(string(outcome), res.Elapsed)

	ev := logging.Info()
	if outcome != OutcomePrinted {
		ev = logging.Warn()
	}
	ev.Str("order_id", job.OrderID).
		Str("outcome", string(outcome)).
		Int("attempts", attempts).
		Dur("elapsed", res.Elapsed).
		Str("detail", text).
		Msg("label job finished")

	d.mu.Lock()
	d.last = &res
	listeners := append([]func(Result){}, d.listeners...)
	d.mu.Unlock()

	for _, fn := range listeners {
		fn(res)
	}
}

// LastOutcome returns the most recent finished job, or nil.
func (d *Dispatcher) LastOutcome() *Result {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.last == nil {
		return nil
	}
	r := *d.last
	return &r
}

// PrintNow renders and prints a label synchronously, without retries.
func (d *Dispatcher) PrintNow(ctx context.Context, customerNumber, price, orderID string) (*models.PrintResponse, error) {
	program := label.Program(customerNumber, price, d.now().In(d.Location()))
	return d.agent.Print(ctx, models.PrintRequest{
		Program:        string(program),
		CustomerNumber: customerNumber,
		Price:          price,
		OrderID:        orderID,
	})
}

// TestPrint asks the agent for its built-in test label.
func (d *Dispatcher) TestPrint(ctx context.Context) (*models.PrintResponse, error) {
	return d.agent.TestPrint(ctx)
}

// Status reports the agent's printer status. An unreachable agent yields
// the offline state rather than an error.
func (d *Dispatcher) Status(ctx context.Context) models.PrinterStatus {
	st, err := d.agent.Status(ctx)
	if err != nil {
		return models.PrinterStatus{
			Status:  models.PrinterOffline,
			Message: "print agent unreachable: " + err.Error(),
		}
	}
	return *st
}

// Close releases the in-process channel.
func (d *Dispatcher) Close() error {
	return d.pubsub.Close()
}
