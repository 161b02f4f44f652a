package observability

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	e := NoopEngineHooks{}
	e.OnShapeFinalized("polygon", "id-1")
	e.OnCalibrated(50)
	e.OnUndo(true, 3)
	e.OnRejected("commit_calibration", "INVALID_CALIBRATION_INPUT")

	s := NoopSessionHooks{}
	s.OnSave(ctx, "file", "abc", 1024, time.Millisecond, nil)
	s.OnLoad(ctx, "redis", "abc", time.Millisecond, errors.New("miss"))
	s.OnDelete(ctx, "mongo", "abc", nil)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "/sessions")
	h.OnResponse(ctx, "GET", "/sessions", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := Engine().(NoopEngineHooks); !ok {
		t.Error("Engine() should return NoopEngineHooks by default")
	}
	if _, ok := Session().(NoopSessionHooks); !ok {
		t.Error("Session() should return NoopSessionHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customEngine := &testEngineHooks{}
	SetEngineHooks(customEngine)
	if Engine() != customEngine {
		t.Error("SetEngineHooks should set custom hooks")
	}

	customSession := &testSessionHooks{}
	SetSessionHooks(customSession)
	if Session() != customSession {
		t.Error("SetSessionHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// nil is ignored
	SetEngineHooks(nil)
	if Engine() != customEngine {
		t.Error("SetEngineHooks(nil) should keep the current hooks")
	}

	Reset()
	if _, ok := Engine().(NoopEngineHooks); !ok {
		t.Error("Reset() should restore NoopEngineHooks")
	}
}

func TestConcurrentAccess(t *testing.T) {
	Reset()
	defer Reset()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetEngineHooks(&testEngineHooks{})
		}()
		go func() {
			defer wg.Done()
			Engine().OnCalibrated(1)
		}()
	}
	wg.Wait()
}

type testEngineHooks struct {
	mu        sync.Mutex
	finalized int
}

func (h *testEngineHooks) OnShapeFinalized(string, string) {
	h.mu.Lock()
	h.finalized++
	h.mu.Unlock()
}
func (h *testEngineHooks) OnCalibrated(float64)      {}
func (h *testEngineHooks) OnUndo(bool, int)          {}
func (h *testEngineHooks) OnRejected(string, string) {}

type testSessionHooks struct{}

func (testSessionHooks) OnSave(context.Context, string, string, int, time.Duration, error) {}
func (testSessionHooks) OnLoad(context.Context, string, string, time.Duration, error)      {}
func (testSessionHooks) OnDelete(context.Context, string, string, error)                   {}

type testHTTPHooks struct{}

func (testHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (testHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}
