package watcher

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/wordmd/internal/apperr"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// recorder collects callback events.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) callback(ev Event) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *recorder) has(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.events {
		if ev.Path == path {
			return true
		}
	}
	return false
}

func startWatcher(t *testing.T, root string, cb Callback, opts ...Option) *Watcher {
	t.Helper()
	opts = append([]Option{WithLogger(testLogger())}, opts...)
	w, err := New(root, cb, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(w.Stop)
	time.Sleep(50 * time.Millisecond)
	return w
}

func TestDebouncer(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d := debouncer{window: 500 * time.Millisecond}

	steps := []struct {
		at   time.Duration
		want bool
	}{
		{0, true},
		{100 * time.Millisecond, false},
		{300 * time.Millisecond, false},
		{499 * time.Millisecond, false},
		{500 * time.Millisecond, true},
		{600 * time.Millisecond, false},
		{2 * time.Second, true},
	}
	for _, s := range steps {
		if got := d.accept(t0.Add(s.at)); got != s.want {
			t.Errorf("accept(+%v) = %v, want %v", s.at, got, s.want)
		}
	}
}

func TestDebouncer_SuppressedEventsDoNotExtendWindow(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d := debouncer{window: 500 * time.Millisecond}

	accepted := 0
	// A continuous stream every 100ms for 1.2s is accepted once per window.
	for i := 0; i <= 12; i++ {
		if d.accept(t0.Add(time.Duration(i) * 100 * time.Millisecond)) {
			accepted++
		}
	}
	if accepted != 3 {
		t.Errorf("accepted = %d, want 3", accepted)
	}
}

func TestRelevantFiltersNoise(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, dir, rec.callback, WithWindow(50*time.Millisecond))

	for _, name := range []string{".document.md.swp", "~lock.md", "backup.TMP"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	time.Sleep(300 * time.Millisecond)
	if n := rec.count(); n != 0 {
		t.Fatalf("noise produced %d callbacks", n)
	}

	if err := os.WriteFile(filepath.Join(dir, "document.md"), []byte("# hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	eventually(t, 2*time.Second, 20*time.Millisecond, func() bool {
		return rec.has("document.md")
	}, "expected a callback for document.md")
}

func TestWatcher_BurstYieldsOneCallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "document.md")
	rec := &recorder{}
	startWatcher(t, dir, rec.callback, WithWindow(300*time.Millisecond))

	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte{byte('a' + i)}, 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(50 * time.Millisecond)
	}

	eventually(t, 2*time.Second, 20*time.Millisecond, func() bool {
		return rec.count() >= 1
	}, "expected one callback")
	time.Sleep(400 * time.Millisecond)
	if n := rec.count(); n != 1 {
		t.Errorf("callbacks = %d, want 1", n)
	}
}

func TestWatcher_SpacedWritesEachNotify(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "document.md")
	rec := &recorder{}
	startWatcher(t, dir, rec.callback, WithWindow(100*time.Millisecond))

	for i := 0; i < 2; i++ {
		if err := os.WriteFile(path, []byte{byte('a' + i)}, 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(400 * time.Millisecond)
	}

	eventually(t, 2*time.Second, 20*time.Millisecond, func() bool {
		return rec.count() == 2
	}, "expected one callback per spaced write")
}

func TestWatcher_CallbackObservesLastWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "document.md")

	var (
		mu   sync.Mutex
		seen []string
	)
	startWatcher(t, dir, func(Event) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		mu.Lock()
		seen = append(seen, string(data))
		mu.Unlock()
		return nil
	})

	for _, v := range []string{"one", "two", "three"} {
		if err := os.WriteFile(path, []byte(v), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(50 * time.Millisecond)
	}

	eventually(t, 3*time.Second, 20*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 1
	}, "expected exactly one callback")

	mu.Lock()
	defer mu.Unlock()
	if len(seen) == 1 && seen[0] != "three" {
		t.Errorf("callback saw %q, want %q", seen[0], "three")
	}
}

func TestWatcher_NewDirWatched(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, dir, rec.callback, WithWindow(50*time.Millisecond))

	images := filepath.Join(dir, "images")
	if err := os.Mkdir(images, 0o755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(images, "a.png"), []byte{0x89}, 0o644); err != nil {
		t.Fatal(err)
	}
	eventually(t, 2*time.Second, 20*time.Millisecond, func() bool {
		return rec.has("images/a.png")
	}, "file in new subdir not reported")
}

func TestWatcher_StopCancelsPendingDelivery(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	w := startWatcher(t, dir, rec.callback, WithWindow(300*time.Millisecond))

	if err := os.WriteFile(filepath.Join(dir, "document.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	w.Stop()
	w.Stop()

	time.Sleep(500 * time.Millisecond)
	if n := rec.count(); n != 0 {
		t.Errorf("callbacks after Stop = %d, want 0", n)
	}
}

func TestWatcher_CallbackFailuresRecovered(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "document.md")

	var (
		mu    sync.Mutex
		calls int
	)
	startWatcher(t, dir, func(Event) error {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		switch n {
		case 1:
			panic("boom")
		case 2:
			return errors.New("embed failed")
		}
		return nil
	}, WithWindow(50*time.Millisecond))

	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte{byte('a' + i)}, 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(250 * time.Millisecond)
	}

	eventually(t, 2*time.Second, 20*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 3
	}, "watcher should keep delivering after a panic and an error")
}

func TestWatcher_FakeClockTimestamps(t *testing.T) {
	dir := t.TempDir()
	fixed := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := &recorder{}
	startWatcher(t, dir, rec.callback,
		WithWindow(50*time.Millisecond),
		WithClock(func() time.Time { return fixed }))

	if err := os.WriteFile(filepath.Join(dir, "document.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	eventually(t, 2*time.Second, 20*time.Millisecond, func() bool {
		return rec.count() == 1
	}, "expected a callback")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.events) > 0 && !rec.events[0].At.Equal(fixed) {
		t.Errorf("event time = %v, want %v", rec.events[0].At, fixed)
	}
}

func TestNew_MissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), nil)
	var we *apperr.WatcherError
	if !errors.As(err, &we) {
		t.Fatalf("expected WatcherError, got %v", err)
	}
}
