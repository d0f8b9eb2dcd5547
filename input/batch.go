package input

import (
	"fmt"

	"go.uber.org/multierr"
)

const (
	// TicksPerInput 引擎每隔多少 tick 读取一次输入
	TicksPerInput = 5
	// ChunkSize 每次读取输入时的固定槽位数
	ChunkSize = 10
)

// Chunk 把输入码右侧补齐 NoOp 到 size 个槽位；
// 同时触发的码超过 size 时丢弃优先级最低的部分，保证长度恰好为 size
func Chunk(codes []uint32, size int) []uint32 {
	out := make([]uint32, size)
	n := copy(out, codes)
	for i := n; i < size; i++ {
		out[i] = NoOp
	}
	return out
}

// InputsNeeded 一次 step 需要多少个输入块：ceil(ticksPerLoop/ticksPerInput)，至少 1
func InputsNeeded(ticksPerLoop, ticksPerInput int) int {
	if ticksPerInput <= 0 {
		return 1
	}
	n := ticksPerLoop / ticksPerInput
	if ticksPerLoop%ticksPerInput > 0 {
		n++
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Batcher 组装一次 step 调用所需的扁平输入缓冲
type Batcher struct {
	ChunkSize     int
	TicksPerInput int
	TicksPerLoop  int
}

// DefaultBatcher 每帧推进 1 个 tick
func DefaultBatcher() Batcher {
	return Batcher{ChunkSize: ChunkSize, TicksPerInput: TicksPerInput, TicksPerLoop: 1}
}

func (b Batcher) Validate() error {
	var err error
	if b.ChunkSize <= 0 {
		err = multierr.Append(err, fmt.Errorf("chunk size must be > 0, got %d", b.ChunkSize))
	}
	if b.TicksPerInput <= 0 {
		err = multierr.Append(err, fmt.Errorf("ticks per input must be > 0, got %d", b.TicksPerInput))
	}
	if b.TicksPerLoop <= 0 {
		err = multierr.Append(err, fmt.Errorf("ticks per loop must be > 0, got %d", b.TicksPerLoop))
	}
	return err
}

// Chunks 本次 step 要复制的输入块个数
func (b Batcher) Chunks() int {
	return InputsNeeded(b.TicksPerLoop, b.TicksPerInput)
}

// Build 由按键快照生成缓冲：同一个输入块复制 Chunks() 次后拼接
func (b Batcher) Build(ks KeySet) []uint32 {
	return b.repeat(Chunk(Codes(ks), b.ChunkSize))
}

// BuildReplay 回放模式：每块只有一条录制的输入码，其余补 NoOp
func (b Batcher) BuildReplay(code uint32) []uint32 {
	return b.repeat(Chunk([]uint32{code}, b.ChunkSize))
}

func (b Batcher) repeat(chunk []uint32) []uint32 {
	n := b.Chunks()
	out := make([]uint32, 0, n*len(chunk))
	for i := 0; i < n; i++ {
		out = append(out, chunk...)
	}
	return out
}
