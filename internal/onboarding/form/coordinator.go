package form

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"onboarding-workers/internal/common/logger"
	"onboarding-workers/internal/common/metrics"
)

var (
	// ErrFormInvalid is matched by every *InvalidError returned from Submit.
	ErrFormInvalid = stderrors.New("form has invalid fields")

	ErrSubmitInProgress = stderrors.New("submit already in progress")
	ErrClosed           = stderrors.New("form closed")
)

// InvalidError lists the visible message of every invalid field at submit time.
type InvalidError struct {
	Fields map[Field]string

	// Transient is set when the corporation number failed only because the lookup failed.
	Transient bool
}

func (e *InvalidError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range Fields {
		if msg, ok := e.Fields[f]; ok {
			parts = append(parts, fmt.Sprintf("%s: %s", f, msg))
		}
	}
	return fmt.Sprintf("%s (%s)", ErrFormInvalid.Error(), strings.Join(parts, "; "))
}

func (e *InvalidError) Unwrap() error { return ErrFormInvalid }

// Retryable reports whether the only problem is a failed corporation number lookup.
func (e *InvalidError) Retryable() bool {
	return e.Transient && len(e.Fields) == 1
}

// SubmitFunc receives a copy of the validated record. Its error is returned from Submit as is.
type SubmitFunc func(ctx context.Context, record UserRecord) error

type Options struct {
	// Debounce delays the corporation number lookup after a change. Zero starts it at once.
	Debounce time.Duration

	// LookupTimeout bounds each lookup. Zero leaves it to the checker.
	LookupTimeout time.Duration

	Logger logger.Logger
}

type fieldState struct {
	touched    bool
	checked    bool
	validating bool
	outcome    Outcome
}

// lookup is one corporation number check.
type lookup struct {
	token uint64
	value string
	timer *time.Timer
}

// Coordinator owns the field state of one user step. It is safe for concurrent use; the
// render hook and the submit callback are always called without the lock held.
type Coordinator struct {
	validator *Validator
	opts      Options
	logger    logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	record     UserRecord
	fields     map[Field]*fieldState
	token      uint64
	pending    *lookup
	submitting bool
	closed     bool
	version    uint64
	listeners  []func(Snapshot)

	// changed is closed and replaced on every state transition.
	changed chan struct{}
}

func NewCoordinator(validator *Validator, opts Options) *Coordinator {
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())

	fields := make(map[Field]*fieldState, len(Fields))
	for _, f := range Fields {
		fields[f] = &fieldState{outcome: validOutcome()}
	}

	return &Coordinator{
		validator: validator,
		opts:      opts,
		logger:    opts.Logger,
		ctx:       ctx,
		cancel:    cancel,
		fields:    fields,
		changed:   make(chan struct{}),
	}
}

// OnChange registers a render hook called after every state transition.
// Snapshots carry a Version; hooks may see them out of order and should keep the newest.
func (c *Coordinator) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Change records a new value for field, marks it touched and revalidates it.
func (c *Coordinator) Change(field Field, value string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	fs, ok := c.fields[field]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("unknown field %q", field)
	}

	c.record.Set(field, value)
	fs.touched = true
	c.revalidateLocked(field)
	snap, listeners := c.transitionLocked()
	c.mu.Unlock()

	c.notify(listeners, snap)
	return nil
}

// Blur marks field touched so its error becomes visible.
func (c *Coordinator) Blur(field Field) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	fs, ok := c.fields[field]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("unknown field %q", field)
	}

	fs.touched = true
	if !fs.checked && !fs.validating {
		c.revalidateLocked(field)
	}
	snap, listeners := c.transitionLocked()
	c.mu.Unlock()

	c.notify(listeners, snap)
	return nil
}

// Submit validates every field, waits for an outstanding lookup and, when all fields are
// valid, calls fn once with a copy of the record.
func (c *Coordinator) Submit(ctx context.Context, fn SubmitFunc) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.submitting {
		c.mu.Unlock()
		return ErrSubmitInProgress
	}
	c.submitting = true
	for _, f := range Fields {
		fs := c.fields[f]
		fs.touched = true
		if !fs.checked && !fs.validating {
			c.revalidateLocked(f)
		}
	}
	snap, listeners := c.transitionLocked()
	c.mu.Unlock()
	c.notify(listeners, snap)

	defer c.endSubmit()

	var (
		record  UserRecord
		invalid *InvalidError
	)
	for {
		if err := c.Settle(ctx); err != nil {
			return err
		}

		c.mu.Lock()
		if c.pending != nil {
			// A change started a new lookup after Settle returned.
			c.mu.Unlock()
			continue
		}
		record = c.record
		invalid = c.collectErrorsLocked()
		c.mu.Unlock()
		break
	}

	if invalid != nil {
		return invalid
	}
	return fn(ctx, record)
}

func (c *Coordinator) endSubmit() {
	c.mu.Lock()
	c.submitting = false
	snap, listeners := c.transitionLocked()
	c.mu.Unlock()
	c.notify(listeners, snap)
}

// Settle blocks until no corporation number lookup is outstanding. A change that supersedes
// the lookup ends the wait as soon as it is applied.
func (c *Coordinator) Settle(ctx context.Context) error {
	for {
		c.mu.Lock()
		p, changed := c.pending, c.changed
		c.mu.Unlock()
		if p == nil {
			return nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		case <-c.ctx.Done():
			return ErrClosed
		}
	}
}

// Close cancels an outstanding lookup. Later calls return ErrClosed.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if p := c.pending; p != nil && p.timer != nil {
		p.timer.Stop()
	}
	c.pending = nil
	c.cancel()
}

// Record returns a copy of the current values.
func (c *Coordinator) Record() UserRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record
}

func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// revalidateLocked runs the local rules for field and, for a locally valid corporation
// number, schedules a lookup. Any earlier lookup becomes stale.
func (c *Coordinator) revalidateLocked(field Field) {
	fs := c.fields[field]
	value := c.record.Get(field)

	if field != FieldCorporationNumber {
		fs.outcome = Validate(field, value)
		fs.checked = true
		return
	}

	c.token++
	if p := c.pending; p != nil && p.timer != nil {
		p.timer.Stop()
	}
	c.pending = nil

	local := Validate(field, value)
	if !local.Valid {
		fs.outcome = local
		fs.checked = true
		fs.validating = false
		return
	}

	fs.outcome = validOutcome()
	fs.checked = false
	fs.validating = true

	l := &lookup{token: c.token, value: value}
	c.pending = l
	if c.opts.Debounce > 0 {
		l.timer = time.AfterFunc(c.opts.Debounce, func() { c.runLookup(l) })
		return
	}
	go c.runLookup(l)
}

func (c *Coordinator) runLookup(l *lookup) {
	ctx := c.ctx
	if c.opts.LookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.LookupTimeout)
		defer cancel()
	}

	c.logger.Debug("Starting corporation number lookup", map[string]interface{}{
		"corporationNumber": l.value,
		"token":             l.token,
	})
	outcome := c.validator.lookup(ctx, l.value)

	c.mu.Lock()
	if c.closed || l.token != c.token {
		current := c.token
		c.mu.Unlock()
		metrics.StaleLookupsDropped.Inc()
		c.logger.Debug("Dropping stale corporation number result", map[string]interface{}{
			"corporationNumber": l.value,
			"token":             l.token,
			"currentToken":      current,
		})
		return
	}

	fs := c.fields[FieldCorporationNumber]
	fs.outcome = outcome
	fs.checked = true
	fs.validating = false
	c.pending = nil
	snap, listeners := c.transitionLocked()
	c.mu.Unlock()

	c.notify(listeners, snap)
}

func (c *Coordinator) collectErrorsLocked() *InvalidError {
	var invalid *InvalidError
	for _, f := range Fields {
		fs := c.fields[f]
		if fs.outcome.Valid {
			continue
		}
		if invalid == nil {
			invalid = &InvalidError{Fields: map[Field]string{}}
		}
		invalid.Fields[f] = fs.outcome.Message
		invalid.Transient = invalid.Transient || fs.outcome.Transient
	}
	return invalid
}

func (c *Coordinator) transitionLocked() (Snapshot, []func(Snapshot)) {
	c.version++
	close(c.changed)
	c.changed = make(chan struct{})
	listeners := make([]func(Snapshot), len(c.listeners))
	copy(listeners, c.listeners)
	return c.snapshotLocked(), listeners
}

func (c *Coordinator) notify(listeners []func(Snapshot), snap Snapshot) {
	for _, fn := range listeners {
		fn(snap)
	}
}
