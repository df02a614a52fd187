package progress

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type fakeSource struct {
	mu       sync.Mutex
	progress int
	message  string
	failures int
	calls    int
}

func (f *fakeSource) Status(ctx context.Context) (Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return Status{}, errors.New("connection refused")
	}
	return Status{Progress: f.progress, Message: f.message}, nil
}

func (f *fakeSource) set(p int, msg string) {
	f.mu.Lock()
	f.progress, f.message = p, msg
	f.mu.Unlock()
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// recorder checks every emitted snapshot for bounded progress.
type recorder struct {
	mu  sync.Mutex
	n   int
	bad []string
}

func (rec *recorder) observe(s State) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.n++
	if s.Displayed > s.Target {
		rec.bad = append(rec.bad, "displayed above target")
	}
}

func (rec *recorder) problems() []string {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return append([]string(nil), rec.bad...)
}

func newTestReconciler(t *testing.T, src StatusSource, opts ...Option) *Reconciler {
	t.Helper()
	opts = append([]Option{WithPollInterval(5 * time.Millisecond), WithTickInterval(time.Millisecond)}, opts...)
	r := New(src, opts...)
	t.Cleanup(r.Stop)
	return r
}

func TestAnimationConvergesToTarget(t *testing.T) {
	src := &fakeSource{progress: 40, message: "Creating mask..."}
	rec := &recorder{}
	r := newTestReconciler(t, src, WithOnChange(rec.observe))

	r.Start(context.Background())
	prev := 0
	monotonic := func(want int) func() bool {
		return func() bool {
			d := r.State().Displayed
			if d < prev {
				t.Fatalf("displayed decreased from %d to %d", prev, d)
			}
			prev = d
			return d == want
		}
	}
	waitFor(t, "displayed to reach 40", monotonic(40))

	src.set(85, "Merging patches...")
	waitFor(t, "displayed to reach 85", monotonic(85))

	st := r.State()
	if st.Target != 85 || st.Message != "Merging patches..." || !st.Polling {
		t.Fatalf("unexpected state %+v", st)
	}
	rec.mu.Lock()
	n := rec.n
	rec.mu.Unlock()
	if n == 0 {
		t.Fatal("no change notifications")
	}
	if p := rec.problems(); len(p) > 0 {
		t.Fatalf("invariant violations: %v", p)
	}
}

func TestTargetNeverDecreases(t *testing.T) {
	src := &fakeSource{progress: 60}
	r := newTestReconciler(t, src)
	r.Start(context.Background())
	waitFor(t, "target 60", func() bool { return r.State().Target == 60 })

	src.set(20, "late report")
	waitFor(t, "message update", func() bool { return r.State().Message == "late report" })
	if st := r.State(); st.Target != 60 {
		t.Fatalf("target dropped to %d", st.Target)
	}
}

func TestStopsPollingAtCompletion(t *testing.T) {
	src := &fakeSource{progress: 100, message: "Done"}
	r := newTestReconciler(t, src)
	r.Start(context.Background())
	waitFor(t, "displayed to reach 100", func() bool { return r.State().Displayed == 100 })
	if r.State().Polling {
		t.Fatal("polling still flagged after 100")
	}
	calls := src.callCount()
	time.Sleep(30 * time.Millisecond)
	if got := src.callCount(); got != calls {
		t.Fatalf("status polled %d more times after completion", got-calls)
	}
}

func TestPollFailureIsNotFatal(t *testing.T) {
	src := &fakeSource{progress: 30, failures: 3}
	r := newTestReconciler(t, src)
	r.Start(context.Background())
	waitFor(t, "recovery after failures", func() bool { return r.State().Displayed == 30 })
	if src.callCount() < 4 {
		t.Fatalf("expected polling to continue through failures, got %d calls", src.callCount())
	}
}

func TestFinishStopsPolling(t *testing.T) {
	src := &fakeSource{progress: 20}
	r := newTestReconciler(t, src)
	r.Start(context.Background())
	waitFor(t, "first poll", func() bool { return r.State().Target == 20 })

	r.Finish()
	if r.State().Polling {
		t.Fatal("Finish left polling set")
	}
	calls := src.callCount()
	time.Sleep(30 * time.Millisecond)
	if got := src.callCount(); got > calls+1 {
		t.Fatalf("polling continued after Finish: %d -> %d", calls, got)
	}
	waitFor(t, "animation to settle", func() bool { return r.State().Displayed == 20 })
}

func TestStartResetsRun(t *testing.T) {
	src := &fakeSource{progress: 100}
	r := newTestReconciler(t, src, WithTickInterval(5*time.Millisecond))
	r.Start(context.Background())
	waitFor(t, "animation to be under way", func() bool { return r.State().Displayed > 3 })

	src.set(0, "")
	r.Start(context.Background())
	if st := r.State(); st.Displayed != 0 || st.Target != 0 || !st.Polling {
		t.Fatalf("new run did not reset: %+v", st)
	}
	time.Sleep(40 * time.Millisecond)
	if st := r.State(); st.Displayed != 0 {
		t.Fatalf("stale animation advanced the new run to %d", st.Displayed)
	}
}

func TestSingleAnimationTask(t *testing.T) {
	const tick = 20 * time.Millisecond
	src := &fakeSource{progress: 5}
	r := newTestReconciler(t, src, WithTickInterval(tick), WithPollInterval(2*time.Millisecond))
	began := time.Now()
	r.Start(context.Background())
	waitFor(t, "target 5", func() bool { return r.State().Target == 5 })
	for _, p := range []int{20, 40, 100} {
		src.set(p, "")
		waitFor(t, "target update", func() bool { return r.State().Target == p })
	}
	time.Sleep(10 * tick)
	// One task advances at most one step per tick; a second task would
	// double the rate.
	limit := int(time.Since(began)/tick) + 2
	if d := r.State().Displayed; d > limit {
		t.Fatalf("displayed %d after %v, more than one animation task running", d, time.Since(began))
	}
}

// slowStatusLog delays the "status" debug record so the poll goroutine's
// delivery lags behind the animation.
type slowStatusLog struct{}

func (slowStatusLog) Enabled(context.Context, slog.Level) bool { return true }
func (slowStatusLog) Handle(_ context.Context, rec slog.Record) error {
	if rec.Message == "status" {
		time.Sleep(5 * time.Millisecond)
	}
	return nil
}
func (h slowStatusLog) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h slowStatusLog) WithGroup(string) slog.Handler      { return h }

type sequence struct {
	mu     sync.Mutex
	states []State
}

func (q *sequence) observe(s State) {
	q.mu.Lock()
	q.states = append(q.states, s)
	q.mu.Unlock()
}

func (q *sequence) all() []State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]State(nil), q.states...)
}

func TestOnChangeDeliveredInOrder(t *testing.T) {
	src := &fakeSource{progress: 50}
	seq := &sequence{}
	r := newTestReconciler(t, src,
		WithTickInterval(100*time.Microsecond),
		WithLogger(slog.New(slowStatusLog{})),
		WithOnChange(seq.observe))
	r.Start(context.Background())
	waitFor(t, "displayed to reach 50", func() bool {
		got := seq.all()
		return len(got) > 0 && got[len(got)-1].Displayed == 50
	})

	got := seq.all()
	for i := 1; i < len(got); i++ {
		if got[i].Displayed < got[i-1].Displayed {
			t.Fatalf("delivery %d went %d -> %d", i, got[i-1].Displayed, got[i].Displayed)
		}
		if got[i].Displayed > got[i].Target {
			t.Fatalf("delivery %d has displayed %d above target %d", i, got[i].Displayed, got[i].Target)
		}
	}
}

func TestNewRunResetIsNotOvertaken(t *testing.T) {
	src := &fakeSource{progress: 100}
	seq := &sequence{}
	r := newTestReconciler(t, src,
		WithTickInterval(100*time.Microsecond),
		WithLogger(slog.New(slowStatusLog{})),
		WithOnChange(seq.observe))
	r.Start(context.Background())
	waitFor(t, "animation under way", func() bool { return r.State().Displayed > 10 })

	src.set(0, "")
	r.Start(context.Background())
	mark := len(seq.all())
	time.Sleep(20 * time.Millisecond)
	for _, s := range seq.all()[mark:] {
		if s.Displayed != 0 || s.Target != 0 {
			t.Fatalf("stale snapshot %+v delivered after reset", s)
		}
	}
	if got := seq.all(); got[mark-1] != (State{Polling: true}) {
		t.Fatalf("reset delivered as %+v", got[mark-1])
	}
}

func TestFinishLetsInFlightPollComplete(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	aborted := make(chan error, 1)
	var once sync.Once
	src := StatusFunc(func(ctx context.Context) (Status, error) {
		first := false
		once.Do(func() { first = true })
		if !first {
			return Status{Progress: 10}, nil
		}
		close(entered)
		select {
		case <-release:
			aborted <- nil
		case <-ctx.Done():
			aborted <- ctx.Err()
		}
		return Status{Progress: 70, Message: "late"}, nil
	})
	r := newTestReconciler(t, src)
	r.Start(context.Background())
	<-entered

	r.Finish()
	close(release)
	if err := <-aborted; err != nil {
		t.Fatalf("in-flight poll aborted: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if st := r.State(); st.Target != 0 || st.Message == "late" || st.Polling {
		t.Fatalf("late result applied after Finish: %+v", st)
	}
}

func TestStopWaitsForTasks(t *testing.T) {
	src := &fakeSource{progress: 50}
	r := New(src, WithPollInterval(time.Millisecond), WithTickInterval(time.Millisecond))
	r.Start(context.Background())
	waitFor(t, "some progress", func() bool { return r.State().Displayed > 0 })
	r.Stop()
	before := r.State()
	time.Sleep(10 * time.Millisecond)
	if after := r.State(); after != before {
		t.Fatalf("state changed after Stop: %+v -> %+v", before, after)
	}
}
