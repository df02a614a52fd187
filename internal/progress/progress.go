// Package progress reconciles a coarse, polled server progress value with a
// smooth client-side counter.
package progress

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultPollInterval = time.Second
	DefaultTickInterval = 30 * time.Millisecond
)

// Status is one server progress report.
type Status struct {
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

// StatusSource returns the current server progress.
type StatusSource interface {
	Status(ctx context.Context) (Status, error)
}

// StatusFunc adapts a function to StatusSource.
type StatusFunc func(ctx context.Context) (Status, error)

// Status calls f.
func (f StatusFunc) Status(ctx context.Context) (Status, error) { return f(ctx) }

// State is a snapshot of the reconciler.
type State struct {
	// Displayed is the animated value. It never decreases within a run and
	// never exceeds Target.
	Displayed int
	// Target is the latest server progress.
	Target  int
	Message string
	// Polling is true while the status endpoint is being polled.
	Polling bool
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithPollInterval sets the delay between status polls.
func WithPollInterval(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

// WithTickInterval sets the delay between animation steps.
func WithTickInterval(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.tickInterval = d
		}
	}
}

// WithLogger sets the logger used for poll failures.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.log = l
		}
	}
}

// WithOnChange registers a callback invoked with a snapshot after every
// change. Snapshots are delivered one at a time in the order the changes
// happened; one that would arrive after a newer snapshot is dropped. The
// callback runs on the reconciler's goroutines, must not block and must not
// call Start, Finish or Stop.
func WithOnChange(fn func(State)) Option {
	return func(r *Reconciler) { r.onChange = fn }
}

// Reconciler runs at most one poll task and one animation task per run.
// Starting a new run cancels both tasks of the previous one, and a stale task
// can never write to the new run's state.
type Reconciler struct {
	src          StatusSource
	pollInterval time.Duration
	tickInterval time.Duration
	log          *slog.Logger
	onChange     func(State)

	mu        sync.Mutex
	state     State
	seq       uint64
	run       uint64
	runCtx    context.Context
	cancelRun context.CancelFunc
	finished  chan struct{}
	ticking   bool
	wg        sync.WaitGroup

	// emitMu serialises delivery; delivered is the newest seq handed to
	// onChange.
	emitMu    sync.Mutex
	delivered uint64
}

// New returns an idle Reconciler polling src.
func New(src StatusSource, opts ...Option) *Reconciler {
	r := &Reconciler{
		src:          src,
		pollInterval: DefaultPollInterval,
		tickInterval: DefaultTickInterval,
		log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// State returns the current snapshot.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start begins a new run: any previous tasks are cancelled, the state is
// reset to zero and polling starts immediately. It returns the run number.
func (r *Reconciler) Start(ctx context.Context) uint64 {
	r.mu.Lock()
	r.cancelLocked()
	r.run++
	run := r.run
	r.state = State{Polling: true}
	r.runCtx, r.cancelRun = context.WithCancel(ctx)
	r.finished = make(chan struct{})
	r.wg.Add(1)
	go r.poll(r.runCtx, r.finished, run)
	snap, seq := r.snapshotLocked()
	r.mu.Unlock()

	r.log.Debug("progress run started", "run", run)
	r.emit(snap, seq)
	return run
}

// OnChange replaces the change callback. It has the same contract as
// WithOnChange.
func (r *Reconciler) OnChange(fn func(State)) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

// Finish marks the submission as resolved. No further polls are scheduled;
// a poll already in flight completes and its result is discarded. The
// animation is left to catch up with the last target.
func (r *Reconciler) Finish() {
	r.mu.Lock()
	if r.finished != nil {
		close(r.finished)
		r.finished = nil
	}
	changed := r.state.Polling
	r.state.Polling = false
	snap, seq := r.snapshotLocked()
	r.mu.Unlock()
	if changed {
		r.emit(snap, seq)
	}
}

// Stop cancels every task and waits for them to exit.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	r.cancelLocked()
	r.state.Polling = false
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Reconciler) cancelLocked() {
	if r.cancelRun != nil {
		r.cancelRun()
		r.cancelRun = nil
	}
	if r.finished != nil {
		close(r.finished)
		r.finished = nil
	}
	r.ticking = false
}

func (r *Reconciler) poll(ctx context.Context, finished <-chan struct{}, run uint64) {
	defer r.wg.Done()
	t := time.NewTicker(r.pollInterval)
	defer t.Stop()
	for {
		st, err := r.src.Status(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			r.log.Warn("status poll failed", "run", run, "err", err)
		} else if done := r.apply(run, st); done {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-finished:
			return
		case <-t.C:
		}
	}
}

// apply records a poll result and reports whether polling should stop.
func (r *Reconciler) apply(run uint64, st Status) bool {
	p := clamp(st.Progress, 0, 100)
	r.mu.Lock()
	if run != r.run || !r.state.Polling {
		r.mu.Unlock()
		return true
	}
	if p > r.state.Target {
		r.state.Target = p
	}
	r.state.Message = st.Message
	done := p >= 100
	if done {
		r.state.Polling = false
	}
	r.ensureTickLocked(run)
	snap, seq := r.snapshotLocked()
	r.mu.Unlock()

	r.log.Debug("status", "run", run, "progress", st.Progress, "message", st.Message)
	r.emit(snap, seq)
	return done
}

func (r *Reconciler) ensureTickLocked(run uint64) {
	if r.ticking || r.state.Displayed >= r.state.Target || r.runCtx == nil {
		return
	}
	r.ticking = true
	r.wg.Add(1)
	go r.tick(r.runCtx, run)
}

func (r *Reconciler) tick(ctx context.Context, run uint64) {
	defer r.wg.Done()
	t := time.NewTicker(r.tickInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		r.mu.Lock()
		if run != r.run {
			r.mu.Unlock()
			return
		}
		if r.state.Displayed >= r.state.Target {
			r.ticking = false
			r.mu.Unlock()
			return
		}
		r.state.Displayed++
		snap, seq := r.snapshotLocked()
		r.mu.Unlock()
		r.emit(snap, seq)
	}
}

// snapshotLocked numbers the current state. r.mu must be held.
func (r *Reconciler) snapshotLocked() (State, uint64) {
	r.seq++
	return r.state, r.seq
}

func (r *Reconciler) emit(s State, seq uint64) {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()
	if seq <= r.delivered {
		return
	}
	r.delivered = seq
	r.mu.Lock()
	fn := r.onChange
	r.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
