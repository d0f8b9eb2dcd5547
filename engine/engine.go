package engine

import (
	"errors"
	"fmt"

	"paddlebattle/input"
)

// Handle 一局模拟（对应引擎 new_state 返回的句柄）。
// 引擎不可重入：同一个 Handle 同一时刻只允许一个 TickAndReturnState 调用。
type Handle interface {
	MaxX() uint32
	MaxY() uint32
	TicksPerInput() uint32
	TickInputChunkSize() uint32
	// TickAndReturnState 推进 numTicks 个 tick，消费扁平输入缓冲，返回最后一个 tick 后的快照
	TickAndReturnState(numTicks uint32, input []uint32) ([]byte, error)
}

// Engine 创建新的模拟
type Engine interface {
	NewState() (Handle, error)
}

// Func 让普通函数满足 Engine
type Func func() (Handle, error)

func (f Func) NewState() (Handle, error) { return f() }

var (
	// ErrProtocolMismatch 引擎与客户端编译期常量不一致（版本错配），启动即失败
	ErrProtocolMismatch = errors.New("engine protocol mismatch")

	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidInputLength = errors.New("invalid input length")
	ErrNoInput            = errors.New("no input")
)

// CheckProtocol 校验引擎上报的协议常量与客户端一致
func CheckProtocol(h Handle) error {
	if got := h.TicksPerInput(); got != input.TicksPerInput {
		return fmt.Errorf("%w: ticks per input %d, client expects %d", ErrProtocolMismatch, got, input.TicksPerInput)
	}
	if got := h.TickInputChunkSize(); got != input.ChunkSize {
		return fmt.Errorf("%w: input chunk size %d, client expects %d", ErrProtocolMismatch, got, input.ChunkSize)
	}
	return nil
}
