package console

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"orderconsole/internal/fieldstore"
)

const defaultQueueSize = 64

// Dispatcher runs actions against the order API. Every field store access
// happens on the goroutine executing Run, so responses are reconciled one
// at a time in arrival order. There is no per-action lock: overlapping
// triggers of the same action race and the last response wins.
type Dispatcher struct {
	store      fieldstore.Store
	builder    RequestBuilder
	reconciler *Reconciler
	client     Doer
	logger     *log.Entry

	queue    chan task
	stopped  chan struct{}
	stopOnce sync.Once
	inflight sync.WaitGroup

	// Held for reading while posting and for writing once Run has stopped,
	// so nothing lands in the queue after it has been drained.
	postMu sync.RWMutex
	closed bool
}

// task is a unit of loop work. abort runs instead of run when the loop
// stops before reaching it.
type task struct {
	run   func()
	abort func()
}

// NewDispatcher creates a Dispatcher. Run must be started for triggered
// actions to make progress.
func NewDispatcher(store fieldstore.Store, client Doer, reconciler *Reconciler, logger *log.Entry) *Dispatcher {
	if logger == nil {
		logger = log.WithField("component", "console")
	}
	return &Dispatcher{
		store:      store,
		reconciler: reconciler,
		client:     client,
		logger:     logger,
		queue:      make(chan task, defaultQueueSize),
		stopped:    make(chan struct{}),
	}
}

// Run executes queued work until ctx is done. Work still queued at that
// point is aborted with ErrStopped.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer d.stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-d.queue:
			t.run()
		}
	}
}

func (d *Dispatcher) stop() {
	d.stopOnce.Do(func() { close(d.stopped) })

	d.postMu.Lock()
	d.closed = true
	d.postMu.Unlock()

	for {
		select {
		case t := <-d.queue:
			if t.abort != nil {
				t.abort()
			}
		default:
			return
		}
	}
}

// Pending tracks one triggered action until it is reconciled.
type Pending struct {
	Action Action

	done    chan struct{}
	once    sync.Once
	outcome Outcome
	banner  string
	release func()
}

func newPending(action Action) *Pending {
	return &Pending{Action: action, done: make(chan struct{})}
}

func (p *Pending) finish(outcome Outcome) {
	p.once.Do(func() {
		p.outcome = outcome
		close(p.done)
		if p.release != nil {
			p.release()
		}
	})
}

// Done is closed once the action has been reconciled.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Outcome returns the request outcome. Valid after Done is closed.
func (p *Pending) Outcome() Outcome {
	<-p.done
	return p.outcome
}

// Banner returns the status this action left on the form. Valid after Done
// is closed; empty when the action was never reconciled.
func (p *Pending) Banner() string {
	<-p.done
	return p.banner
}

// Wait blocks until the action is reconciled or ctx is done.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Trigger starts action and returns without waiting for the response.
func (d *Dispatcher) Trigger(ctx context.Context, action Action) (*Pending, error) {
	action, err := ParseAction(string(action))
	if err != nil {
		return nil, err
	}
	p := newPending(action)
	d.inflight.Add(1)
	p.release = d.inflight.Done
	err = d.post(ctx, task{
		run:   func() { d.start(ctx, p) },
		abort: func() { p.finish(Outcome{Err: ErrStopped}) },
	})
	if err != nil {
		p.finish(Outcome{Err: err})
		return nil, err
	}
	return p, nil
}

// Do triggers action and waits for its reconciliation.
func (d *Dispatcher) Do(ctx context.Context, action Action) (Outcome, error) {
	p, err := d.Trigger(ctx, action)
	if err != nil {
		return Outcome{}, err
	}
	if err := p.Wait(ctx); err != nil {
		return Outcome{}, err
	}
	return p.Outcome(), nil
}

// Update runs fn against the store on the loop goroutine and waits for it.
func (d *Dispatcher) Update(ctx context.Context, fn func(fieldstore.Store)) error {
	done := make(chan struct{})
	if err := d.post(ctx, task{run: func() {
		defer close(done)
		fn(d.store)
	}}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-d.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitIdle blocks until every triggered action has been reconciled.
func (d *Dispatcher) WaitIdle(ctx context.Context) error {
	idle := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(idle)
	}()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// start runs on the loop: clear the banner, build, then issue the request.
func (d *Dispatcher) start(ctx context.Context, p *Pending) {
	if p.Action == ActionClear {
		d.reconciler.Clear()
		p.finish(Outcome{})
		return
	}

	d.store.ShowStatus("")
	req, err := d.builder.Build(p.Action, d.store)
	if err != nil {
		d.logger.WithError(err).WithField("action", p.Action).Error("failed to build request")
		d.reconciler.Apply(p.Action, Outcome{Err: err})
		p.banner = d.reconciler.banner
		p.finish(Outcome{Err: err})
		return
	}

	go d.issue(ctx, req, p)
}

// issue performs the request off the loop.
func (d *Dispatcher) issue(ctx context.Context, req Request, p *Pending) {
	entry := d.logger.WithFields(log.Fields{
		"action": req.Action,
		"method": req.Method,
		"path":   req.Path,
	})
	started := time.Now()
	resp, err := d.client.Do(ctx, req)
	outcome := Outcome{Response: resp, Err: err}

	if err != nil {
		entry.WithError(err).Warn("request failed")
	} else {
		entry.WithFields(log.Fields{
			"status":   resp.StatusCode,
			"duration": time.Since(started),
		}).Debug("response received")
	}

	// The completion is delivered even when ctx is already done, so a
	// valid response is never dropped while the loop is alive.
	postErr := d.post(context.Background(), task{
		run: func() {
			d.reconciler.Apply(req.Action, outcome)
			p.banner = d.reconciler.banner
			p.finish(outcome)
		},
		abort: func() {
			p.finish(Outcome{Response: resp, Err: errors.Join(err, ErrStopped)})
		},
	})
	if postErr != nil {
		entry.WithError(postErr).Warn("response discarded")
		p.finish(Outcome{Response: resp, Err: errors.Join(err, postErr)})
	}
}

func (d *Dispatcher) post(ctx context.Context, t task) error {
	d.postMu.RLock()
	defer d.postMu.RUnlock()
	if d.closed {
		return ErrStopped
	}
	select {
	case <-d.stopped:
		return ErrStopped
	default:
	}
	select {
	case d.queue <- t:
		return nil
	case <-d.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
