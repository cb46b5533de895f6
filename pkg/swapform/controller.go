// Package swapform holds the state of one swap form session: the entered
// fields, the derived exchange rate, validation errors and the submit
// workflow.
//
// Status transitions:
//
//	Idle -> Submitting          Submit with a valid form
//	Submitting -> Succeeded     settlement succeeded
//	Submitting -> Failed        settlement failed
//	Succeeded -> Idle           dismiss delay elapsed, Dismiss, or a user edit
//	Failed -> Idle              next user edit
package swapform

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"token-swap/pkg/logger"
	"token-swap/pkg/settlement"
	"token-swap/pkg/types"
)

// Status is the submit workflow state
type Status string

const (
	StatusIdle       Status = "idle"
	StatusSubmitting Status = "submitting"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

// DefaultDismissAfter is how long a success stays displayed
const DefaultDismissAfter = 3 * time.Second

// Snapshot is a consistent copy of the controller state
type Snapshot struct {
	Fields       Fields              `json:"fields"`
	ExchangeRate *float64            `json:"exchangeRate,omitempty"`
	Errors       ValidationErrors    `json:"errors,omitempty"`
	Status       Status              `json:"status"`
	SubmissionID string              `json:"submissionId,omitempty"`
	Receipt      *settlement.Receipt `json:"receipt,omitempty"`
}

// Controller owns the form state for the lifetime of one session
type Controller struct {
	settler      settlement.Settler
	log          *zap.Logger
	dismissAfter time.Duration
	onChange     func(Snapshot)

	mu           sync.Mutex
	fields       Fields
	tokens       []types.Token
	rate         float64
	hasRate      bool
	errs         ValidationErrors
	status       Status
	submissionID string
	receipt      *settlement.Receipt
	dismissTimer *time.Timer
}

// Option configures a Controller
type Option func(*Controller)

// WithDismissAfter sets the success auto-dismiss delay
func WithDismissAfter(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.dismissAfter = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(log *zap.Logger) Option {
	return func(c *Controller) {
		c.log = logger.OrNop(log)
	}
}

// WithOnChange registers a callback invoked after every status change.
// It runs without the controller lock held.
func WithOnChange(fn func(Snapshot)) Option {
	return func(c *Controller) {
		c.onChange = fn
	}
}

// NewController creates a form over the given token universe
func NewController(tokens []types.Token, settler settlement.Settler, opts ...Option) *Controller {
	c := &Controller{
		settler:      settler,
		log:          zap.NewNop(),
		dismissAfter: DefaultDismissAfter,
		tokens:       tokens,
		errs:         ValidationErrors{},
		status:       StatusIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetCatalog replaces the selectable tokens and re-derives the rate
func (c *Controller) SetCatalog(tokens []types.Token) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tokens = tokens
	c.recomputeLocked(true)
}

// UpdateField sets a field, clears that field's error and leaves a finished
// Succeeded or Failed status. No validation happens here.
func (c *Controller) UpdateField(field Field, value string) error {
	c.mu.Lock()

	switch field {
	case FieldFromCurrency:
		c.fields.FromCurrency = value
	case FieldToCurrency:
		c.fields.ToCurrency = value
	case FieldFromAmount:
		c.fields.FromAmount = value
	case FieldToAmount:
		c.fields.ToAmount = value
	default:
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	delete(c.errs, field)
	changed := c.leaveOutcomeLocked()
	if field != FieldToAmount {
		c.recomputeLocked(true)
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if changed {
		c.notify(snap)
	}
	return nil
}

// SwapDirection exchanges the currencies and the amounts together and clears
// all errors. The swapped amounts are already consistent with each other, so
// only the rate is re-derived; calling it twice restores the original fields.
func (c *Controller) SwapDirection() {
	c.mu.Lock()

	f := c.fields
	c.fields = Fields{
		FromCurrency: f.ToCurrency,
		ToCurrency:   f.FromCurrency,
		FromAmount:   f.ToAmount,
		ToAmount:     f.FromAmount,
	}
	c.errs = ValidationErrors{}
	changed := c.leaveOutcomeLocked()
	c.recomputeLocked(false)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if changed {
		c.notify(snap)
	}
}

// Validate runs every rule against the current fields, stores the result as
// the displayed errors and returns a copy.
func (c *Controller) Validate() ValidationErrors {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.errs = Validate(c.fields)
	return c.errs.Clone()
}

// Submit validates the form and runs the settlement. It blocks until the
// settlement completes. A call made while another submission is running
// returns ErrSubmitInFlight and changes nothing. Invalid forms return
// ValidationErrors; failed settlements return *SettlementError.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()

	if c.status == StatusSubmitting {
		c.mu.Unlock()
		return ErrSubmitInFlight
	}

	if errs := Validate(c.fields); len(errs) > 0 {
		c.errs = errs
		c.mu.Unlock()
		return errs.Clone()
	}

	c.stopDismissLocked()
	c.status = StatusSubmitting
	c.errs = ValidationErrors{}
	c.receipt = nil
	c.submissionID = uuid.NewString()
	id := c.submissionID

	req := types.SwapRequest{
		SubmissionID: id,
		FromCurrency: c.fields.FromCurrency,
		ToCurrency:   c.fields.ToCurrency,
		FromAmount:   c.fields.FromAmount,
		ToAmount:     c.fields.ToAmount,
		Rate:         c.rate,
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	c.log.Info("submitting swap",
		zap.String("submission_id", id),
		zap.String("from", req.FromCurrency),
		zap.String("to", req.ToCurrency),
		zap.String("amount", req.FromAmount))

	receipt, err := c.settler.Settle(ctx, req)

	c.mu.Lock()
	if err != nil {
		c.status = StatusFailed
		c.errs[FieldGeneral] = failureMessage(err)
		snap = c.snapshotLocked()
		c.mu.Unlock()

		c.log.Warn("swap failed", zap.String("submission_id", id), zap.Error(err))
		c.notify(snap)
		return &SettlementError{Err: err}
	}

	c.status = StatusSucceeded
	c.receipt = receipt
	c.dismissTimer = time.AfterFunc(c.dismissAfter, func() { c.autoDismiss(id) })
	snap = c.snapshotLocked()
	c.mu.Unlock()

	c.log.Info("swap succeeded", zap.String("submission_id", id))
	c.notify(snap)
	return nil
}

// Dismiss hides a success before the auto-dismiss delay
func (c *Controller) Dismiss() {
	c.mu.Lock()
	if c.status != StatusSucceeded {
		c.mu.Unlock()
		return
	}
	c.stopDismissLocked()
	c.status = StatusIdle
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Status returns the current workflow status
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Close stops the pending auto-dismiss timer, if any
func (c *Controller) Close() {
	c.mu.Lock()
	c.stopDismissLocked()
	c.mu.Unlock()
}

func (c *Controller) autoDismiss(id string) {
	c.mu.Lock()
	if c.status != StatusSucceeded || c.submissionID != id {
		c.mu.Unlock()
		return
	}
	c.status = StatusIdle
	c.dismissTimer = nil
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// leaveOutcomeLocked moves Succeeded or Failed back to Idle on user action.
// The settlement message goes with the Failed status.
func (c *Controller) leaveOutcomeLocked() bool {
	switch c.status {
	case StatusSucceeded:
		c.stopDismissLocked()
		c.status = StatusIdle
		return true
	case StatusFailed:
		delete(c.errs, FieldGeneral)
		c.status = StatusIdle
		return true
	}
	return false
}

// recomputeLocked re-derives the rate and, when withAmount is set, the
// to-amount. Values are left untouched if they cannot be derived.
func (c *Controller) recomputeLocked(withAmount bool) {
	if !withAmount {
		if rate, ok := pairRate(c.fields, c.tokens); ok {
			c.rate, c.hasRate = rate, true
		}
		return
	}

	rate, toAmount, ok := DeriveRate(c.fields, c.tokens)
	if !ok {
		return
	}
	c.rate, c.hasRate = rate, true
	c.fields.ToAmount = toAmount
}

func (c *Controller) stopDismissLocked() {
	if c.dismissTimer != nil {
		c.dismissTimer.Stop()
		c.dismissTimer = nil
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		Fields:       c.fields,
		Errors:       c.errs.Clone(),
		Status:       c.status,
		SubmissionID: c.submissionID,
		Receipt:      c.receipt,
	}
	if c.hasRate {
		rate := c.rate
		snap.ExchangeRate = &rate
	}
	return snap
}

func (c *Controller) notify(snap Snapshot) {
	if c.onChange != nil {
		c.onChange(snap)
	}
}

func failureMessage(err error) string {
	if errors.Is(err, settlement.ErrRejected) {
		return MsgSwapFailed
	}
	return MsgNetworkError
}
