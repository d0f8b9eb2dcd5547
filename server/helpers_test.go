package server

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"paddlebattle/codec"
	"paddlebattle/engine"
	"paddlebattle/game"
)

// fakeHandle 包装参考引擎，记录每次调用并统计并发度
type fakeHandle struct {
	engine.Handle

	mu    sync.Mutex
	calls [][]uint32
	ticks []uint32

	reply func(n uint32, in []uint32) ([]byte, error)
	delay time.Duration

	inflight    int32
	maxInflight int32
}

func newFakeHandle(t *testing.T) *fakeHandle {
	t.Helper()
	h, err := engine.NewReference(codec.FormatBinary).NewState()
	if err != nil {
		t.Fatalf("reference engine: %v", err)
	}
	return &fakeHandle{Handle: h}
}

func (f *fakeHandle) TickAndReturnState(n uint32, in []uint32) ([]byte, error) {
	cur := atomic.AddInt32(&f.inflight, 1)
	defer atomic.AddInt32(&f.inflight, -1)
	for {
		m := atomic.LoadInt32(&f.maxInflight)
		if cur <= m || atomic.CompareAndSwapInt32(&f.maxInflight, m, cur) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.calls = append(f.calls, append([]uint32(nil), in...))
	f.ticks = append(f.ticks, n)
	f.mu.Unlock()

	if f.reply != nil {
		return f.reply(n, in)
	}
	return f.Handle.TickAndReturnState(n, in)
}

func (f *fakeHandle) Calls() [][]uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]uint32(nil), f.calls...)
}

func (f *fakeHandle) asEngine() engine.Engine {
	return engine.Func(func() (engine.Handle, error) { return f, nil })
}

func testOptions() Options {
	o := DefaultOptions()
	o.FPS = 1000
	o.PollInterval = time.Millisecond
	return o
}

func newTestSession(t *testing.T, f *fakeHandle, opts Options) *Session {
	t.Helper()
	s, err := NewSession("test", f.asEngine(), opts)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

// recordingSink 记录收到的帧与停止原因
type recordingSink struct {
	mu     sync.Mutex
	frames []*game.GameState
	halts  []error
}

func (r *recordingSink) Frame(_ SessionID, s *game.GameState) {
	r.mu.Lock()
	r.frames = append(r.frames, s)
	r.mu.Unlock()
}

func (r *recordingSink) Halted(_ SessionID, err error) {
	r.mu.Lock()
	r.halts = append(r.halts, err)
	r.mu.Unlock()
}

func (r *recordingSink) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames), len(r.halts)
}
