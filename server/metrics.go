package server

import (
	"sync/atomic"
)

// SessionMetrics 会话运行期的关键计数（用于监控与调试）
type SessionMetrics struct {
	steps            int64 // 成功的 step 次数
	framesSkipped    int64 // 帧预算未到而跳过的轮询
	decodeFailures   int64
	codesSent        int64 // 发给引擎的输入槽位总数（含填充）
	boundsViolations int64
	framesDropped    int64 // 观众发送队列满而丢弃的帧
	totalStepNs      int64
}

func (m *SessionMetrics) IncFramesSkipped()    { atomic.AddInt64(&m.framesSkipped, 1) }
func (m *SessionMetrics) IncDecodeFailures()   { atomic.AddInt64(&m.decodeFailures, 1) }
func (m *SessionMetrics) IncBoundsViolations() { atomic.AddInt64(&m.boundsViolations, 1) }
func (m *SessionMetrics) IncFramesDropped()    { atomic.AddInt64(&m.framesDropped, 1) }
func (m *SessionMetrics) Steps() int64         { return atomic.LoadInt64(&m.steps) }

func (m *SessionMetrics) AddStep(ns int64, codes int) {
	atomic.AddInt64(&m.steps, 1)
	atomic.AddInt64(&m.totalStepNs, ns)
	atomic.AddInt64(&m.codesSent, int64(codes))
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *SessionMetrics) Snapshot() map[string]any {
	steps := atomic.LoadInt64(&m.steps)
	total := atomic.LoadInt64(&m.totalStepNs)
	var avgMs float64
	if steps > 0 {
		avgMs = float64(total) / float64(steps) / 1e6
	}
	return map[string]any{
		"steps":             steps,
		"frames_skipped":    atomic.LoadInt64(&m.framesSkipped),
		"decode_failures":   atomic.LoadInt64(&m.decodeFailures),
		"codes_sent":        atomic.LoadInt64(&m.codesSent),
		"bounds_violations": atomic.LoadInt64(&m.boundsViolations),
		"frames_dropped":    atomic.LoadInt64(&m.framesDropped),
		"avg_step_ms":       avgMs,
	}
}
