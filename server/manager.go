package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"paddlebattle/engine"
	"paddlebattle/game"
)

// ErrUnknownSession 查询的会话不存在
var ErrUnknownSession = errors.New("unknown session")

// EngineFactory 按双方武器选择构造引擎
type EngineFactory func(left, right game.GunType) engine.Engine

// SessionManager 管理多个会话的生命周期
type SessionManager struct {
	ctx     context.Context
	factory EngineFactory
	opts    Options

	mu        sync.RWMutex
	sessions  map[SessionID]*Session
	defaultID SessionID
}

// NewSessionManager ctx 结束时所有会话循环随之退出
func NewSessionManager(ctx context.Context, factory EngineFactory, opts Options) *SessionManager {
	return &SessionManager{
		ctx:      ctx,
		factory:  factory,
		opts:     opts,
		sessions: make(map[SessionID]*Session),
	}
}

// Create 新建会话（尚未运行）；第一个创建的会话成为默认会话
func (m *SessionManager) Create(left, right game.GunType) (*Session, error) {
	if !left.Valid() || !right.Valid() {
		return nil, fmt.Errorf("invalid gun selection %d/%d", left, right)
	}
	id := SessionID(uuid.NewString())
	s, err := NewSession(id, m.factory(left, right), m.opts)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = s
	if m.defaultID == "" {
		m.defaultID = id
	}
	return s, nil
}

func (m *SessionManager) Get(id SessionID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Default 默认会话，没有时返回 nil
func (m *SessionManager) Default() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[m.defaultID]
}

// Len 当前会话数
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Lookup 从 ?session= 取会话，缺省为默认会话
func (m *SessionManager) Lookup(r *http.Request) (*Session, error) {
	id := r.URL.Query().Get("session")
	if id == "" {
		if s := m.Default(); s != nil {
			return s, nil
		}
		return nil, ErrUnknownSession
	}
	s, ok := m.Get(SessionID(id))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return s, nil
}

// Start 启动会话循环（幂等）
func (m *SessionManager) Start(s *Session) {
	s.Start(m.ctx)
}
