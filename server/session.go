package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"paddlebattle/codec"
	"paddlebattle/engine"
	"paddlebattle/game"
	"paddlebattle/input"
	"paddlebattle/logging"
)

var (
	// ErrHalted 一次 step 失败后会话永久停止
	ErrHalted = errors.New("session halted")
	// ErrReplayFinished 回放输入耗尽，正常结束
	ErrReplayFinished = errors.New("replay finished")
	// ErrAlreadyStarted 回放只能在第一次 step 之前安装
	ErrAlreadyStarted = errors.New("session already started")
)

// SessionID 会话唯一标识（uuid）
type SessionID string

// Options 会话参数
type Options struct {
	Format       codec.Format
	Encoding     FrameEncoding
	FPS          int
	TicksPerLoop int
	PollInterval time.Duration
}

func DefaultOptions() Options {
	return Options{
		Format:       codec.FormatBinary,
		Encoding:     FrameJSON,
		FPS:          60,
		TicksPerLoop: 1,
		PollInterval: 4 * time.Millisecond,
	}
}

// Sink 接收会话产出的每一帧状态；websocket 观众与终端前端都实现它
type Sink interface {
	Frame(id SessionID, s *game.GameState)
	Halted(id SessionID, reason error)
}

// Session 一局对战：持有引擎句柄，串行 step，原子发布当前状态
type Session struct {
	ID SessionID

	handle     engine.Handle
	format     codec.Format
	encoding   FrameEncoding
	maxX, maxY uint32
	poll       time.Duration

	keys    *input.KeyState
	limiter *FrameLimiter
	metrics *SessionMetrics

	// stepMu 保证同一时刻只有一次 build-call-decode
	stepMu  sync.Mutex
	batcher input.Batcher
	replay  *input.Replay
	started bool
	haltErr error

	current atomic.Pointer[game.GameState]

	sinkMu sync.RWMutex
	sinks  map[string]Sink

	startOnce sync.Once
	doneOnce  sync.Once
	done      chan struct{}
}

// NewSession 创建引擎状态并校验协议常量；不匹配时直接失败
func NewSession(id SessionID, eng engine.Engine, opts Options) (*Session, error) {
	h, err := eng.NewState()
	if err != nil {
		return nil, fmt.Errorf("new engine state: %w", err)
	}
	if err := engine.CheckProtocol(h); err != nil {
		return nil, err
	}

	b := input.Batcher{
		ChunkSize:     int(h.TickInputChunkSize()),
		TicksPerInput: int(h.TicksPerInput()),
		TicksPerLoop:  opts.TicksPerLoop,
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("batcher: %w", err)
	}
	if opts.FPS <= 0 {
		return nil, fmt.Errorf("fps %d must be positive", opts.FPS)
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultOptions().PollInterval
	}

	s := &Session{
		ID:       id,
		handle:   h,
		format:   opts.Format,
		encoding: opts.Encoding,
		maxX:     h.MaxX(),
		maxY:     h.MaxY(),
		poll:     opts.PollInterval,
		keys:     input.NewKeyState(),
		limiter:  NewFrameLimiter(time.Second / time.Duration(opts.FPS)),
		metrics:  &SessionMetrics{},
		batcher:  b,
		sinks:    make(map[string]Sink),
		done:     make(chan struct{}),
	}
	logging.Log.Infow("session created", "session", id, "format", opts.Format,
		"max_x", s.maxX, "max_y", s.maxY, "ticks_per_loop", b.TicksPerLoop)
	return s, nil
}

func (s *Session) Keys() *input.KeyState    { return s.keys }
func (s *Session) Metrics() *SessionMetrics { return s.metrics }
func (s *Session) Limiter() *FrameLimiter   { return s.limiter }
func (s *Session) Bounds() (uint32, uint32) { return s.maxX, s.maxY }
func (s *Session) Encoding() FrameEncoding  { return s.encoding }
func (s *Session) Current() *game.GameState { return s.current.Load() }
func (s *Session) Done() <-chan struct{}    { return s.done }

// Err 会话停止的原因；仍在运行时为 nil
func (s *Session) Err() error {
	s.stepMu.Lock()
	defer s.stepMu.Unlock()
	return s.haltErr
}

// Started 是否已经执行过 step
func (s *Session) Started() bool {
	s.stepMu.Lock()
	defer s.stepMu.Unlock()
	return s.started
}

// LoadReplay 解析并安装回放；解析失败时会话保持未开始状态
func (s *Session) LoadReplay(data []byte) (int, error) {
	codes, err := input.ParseReplay(data)
	if err != nil {
		return 0, err
	}
	return len(codes), s.SetReplay(codes)
}

func (s *Session) SetReplay(codes []uint32) error {
	for i, c := range codes {
		if !input.ValidCode(c) {
			return fmt.Errorf("%w: code %d at index %d", input.ErrMalformedReplay, c, i)
		}
	}
	s.stepMu.Lock()
	defer s.stepMu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}
	if s.haltErr != nil {
		return s.haltErr
	}
	s.replay = input.NewReplay(codes)
	logging.Log.Infow("replay installed", "session", s.ID, "codes", len(codes))
	return nil
}

// TicksPerLoop 当前每次 step 推进的 tick 数
func (s *Session) TicksPerLoop() int {
	s.stepMu.Lock()
	defer s.stepMu.Unlock()
	return s.batcher.TicksPerLoop
}

func (s *Session) SetTicksPerLoop(n int) error {
	s.stepMu.Lock()
	defer s.stepMu.Unlock()
	b := s.batcher
	b.TicksPerLoop = n
	if err := b.Validate(); err != nil {
		return err
	}
	s.batcher = b
	return nil
}

// Step 执行一次：组装输入 → 调用引擎 → 解码校验 → 发布。
// 任何失败都会让会话永久停止，之后的调用直接返回停止原因。
func (s *Session) Step() (*game.GameState, error) {
	s.stepMu.Lock()
	defer s.stepMu.Unlock()

	if s.haltErr != nil {
		return nil, s.haltErr
	}

	var buf []uint32
	if s.replay != nil {
		code, ok := s.replay.Next()
		if !ok {
			s.haltErr = ErrReplayFinished
			return nil, s.haltErr
		}
		buf = s.batcher.BuildReplay(code)
	} else {
		buf = s.batcher.Build(s.keys.Snapshot())
	}

	start := time.Now()
	s.started = true
	raw, err := s.handle.TickAndReturnState(uint32(s.batcher.TicksPerLoop), buf)
	if err != nil {
		return nil, s.halt(fmt.Errorf("engine step: %w", err))
	}
	st, err := codec.Decode(s.format, raw)
	if err != nil {
		s.metrics.IncDecodeFailures()
		return nil, s.halt(fmt.Errorf("decode snapshot: %w", err))
	}
	if err := st.CheckBounds(s.maxX, s.maxY); err != nil {
		s.metrics.IncBoundsViolations()
		logging.Log.Warnw("state outside world bounds", "session", s.ID, "tick", st.Ticks, "err", err)
	}

	s.current.Store(st)
	s.metrics.AddStep(time.Since(start).Nanoseconds(), len(buf))
	return st, nil
}

func (s *Session) halt(err error) error {
	s.haltErr = fmt.Errorf("%w: %w", ErrHalted, err)
	logging.Log.Errorw("session halted", "session", s.ID, "err", err)
	return s.haltErr
}

// Attach 注册一个帧接收者，返回注销函数。已停止的会话会立即收到停止通知。
func (s *Session) Attach(key string, sink Sink) (detach func()) {
	s.sinkMu.Lock()
	s.sinks[key] = sink
	s.sinkMu.Unlock()

	if st := s.Current(); st != nil {
		sink.Frame(s.ID, st)
	}
	if err := s.Err(); err != nil {
		sink.Halted(s.ID, err)
	}
	return func() {
		s.sinkMu.Lock()
		delete(s.sinks, key)
		s.sinkMu.Unlock()
	}
}

func (s *Session) snapshotSinks() []Sink {
	s.sinkMu.RLock()
	defer s.sinkMu.RUnlock()
	out := make([]Sink, 0, len(s.sinks))
	for _, k := range s.sinks {
		out = append(out, k)
	}
	return out
}

func (s *Session) broadcast(st *game.GameState) {
	for _, k := range s.snapshotSinks() {
		k.Frame(s.ID, st)
	}
}

func (s *Session) broadcastHalt(err error) {
	for _, k := range s.snapshotSinks() {
		k.Halted(s.ID, err)
	}
}

// Start 在后台启动循环，只生效一次
func (s *Session) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		go func() {
			err := s.Run(ctx)
			switch {
			case errors.Is(err, ErrReplayFinished):
				logging.Log.Infow("replay finished", "session", s.ID, "steps", s.metrics.Steps())
			case errors.Is(err, context.Canceled):
				logging.Log.Infow("session stopped", "session", s.ID)
			default:
				logging.Log.Errorw("session loop ended", "session", s.ID, "err", err)
			}
		}()
	})
}
