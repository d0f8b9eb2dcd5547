package server

import (
	"context"
	"sync"
	"time"
)

// FrameLimiter 帧率节流：不足一帧预算时跳过，否则把余数吸收到下一帧的期限里
type FrameLimiter struct {
	mu     sync.Mutex
	budget time.Duration
	last   time.Time
}

func NewFrameLimiter(budget time.Duration) *FrameLimiter {
	return &FrameLimiter{budget: budget}
}

// Due 报告 now 时刻是否应执行一帧；第一次调用总是执行
func (l *FrameLimiter) Due(now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.last.IsZero() {
		l.last = now
		return true
	}
	elapsed := now.Sub(l.last)
	if elapsed < l.budget {
		return false
	}
	if l.budget > 0 {
		l.last = now.Add(-(elapsed % l.budget))
	} else {
		l.last = now
	}
	return true
}

func (l *FrameLimiter) Budget() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.budget
}

func (l *FrameLimiter) SetBudget(d time.Duration) {
	l.mu.Lock()
	l.budget = d
	l.mu.Unlock()
}

// Run 会话主循环：轮询节流器 → Step → 广播。
// 回放耗尽、step 失败或 ctx 取消时返回。
func (s *Session) Run(ctx context.Context) error {
	defer s.doneOnce.Do(func() { close(s.done) })

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if !s.limiter.Due(now) {
				s.metrics.IncFramesSkipped()
				continue
			}
			st, err := s.Step()
			if err != nil {
				s.broadcastHalt(err)
				return err
			}
			s.broadcast(st)
		}
	}
}
