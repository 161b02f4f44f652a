package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/matzehuels/garmushka/pkg/errors"
	"github.com/matzehuels/garmushka/pkg/observability"
)

// flakyStore fails the first n Get calls.
type flakyStore struct {
	*MemoryStore
	fails     int
	retryable bool
	calls     int
}

func (f *flakyStore) Get(ctx context.Context, id string) (*Session, error) {
	f.calls++
	if f.calls <= f.fails {
		err := fmt.Errorf("connection reset")
		if f.retryable {
			return nil, Retryable(err)
		}
		return nil, err
	}
	return f.MemoryStore.Get(ctx, id)
}

var fastBackoff = Backoff{Attempts: 3, Delay: time.Millisecond}

func TestWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		fails     int
		retryable bool
		wantCalls int
		wantErr   bool
	}{
		{"succeeds first time", 0, true, 1, false},
		{"recovers after transient failures", 2, true, 3, false},
		{"gives up after attempts", 5, true, 3, true},
		{"does not retry permanent errors", 1, false, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			mem := NewMemoryStore()
			sess := New(samplePayload(t, "plan.png"), 0)
			if err := mem.Set(ctx, sess); err != nil {
				t.Fatal(err)
			}
			f := &flakyStore{MemoryStore: mem, fails: tt.fails, retryable: tt.retryable}

			_, err := WithRetry(f, fastBackoff).Get(ctx, sess.ID)
			if (err != nil) != tt.wantErr {
				t.Errorf("Get() error = %v, wantErr %v", err, tt.wantErr)
			}
			if f.calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", f.calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryNotFoundIsPermanent(t *testing.T) {
	f := &flakyStore{MemoryStore: NewMemoryStore()}
	_, err := WithRetry(f, fastBackoff).Get(context.Background(), "missing")
	if !IsNotFound(err) || f.calls != 1 {
		t.Errorf("Get() error = %v after %d calls", err, f.calls)
	}
}

func TestRetryHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := RetryWithBackoff(ctx, Backoff{Attempts: 3, Delay: time.Hour}, func() error {
		calls++
		return Retryable(fmt.Errorf("down"))
	})
	if err != context.Canceled || calls != 1 {
		t.Errorf("RetryWithBackoff() = %v after %d calls", err, calls)
	}
}

type sessionRecorder struct {
	observability.NoopSessionHooks
	saves, loads, deletes int
	lastBackend           string
	lastSize              int
}

func (r *sessionRecorder) OnSave(_ context.Context, backend, _ string, size int, _ time.Duration, _ error) {
	r.saves++
	r.lastBackend = backend
	r.lastSize = size
}

func (r *sessionRecorder) OnLoad(context.Context, string, string, time.Duration, error) { r.loads++ }
func (r *sessionRecorder) OnDelete(context.Context, string, string, error)              { r.deletes++ }

func TestInstrument(t *testing.T) {
	rec := &sessionRecorder{}
	observability.SetSessionHooks(rec)
	defer observability.Reset()

	ctx := context.Background()
	s := Instrument(NewMemoryStore(), "memory")
	sess := New(samplePayload(t, "plan.png"), 0)
	if err := s.Set(ctx, sess); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, sess.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, sess.ID); err != nil {
		t.Fatal(err)
	}
	if rec.saves != 1 || rec.loads != 1 || rec.deletes != 1 {
		t.Errorf("hooks = %+v", rec)
	}
	if rec.lastBackend != "memory" || rec.lastSize == 0 {
		t.Errorf("OnSave backend=%q size=%d", rec.lastBackend, rec.lastSize)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), configSession("cassandra", ""))
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Open() error = %v, want INVALID_CONFIG", err)
	}
}

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(context.Background(), configSession("file", dir))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	testStore(t, s)
}
