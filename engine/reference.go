package engine

import (
	"sync"

	"paddlebattle/codec"
	"paddlebattle/game"
	"paddlebattle/input"
)

// Reference 进程内的确定性参考引擎，作为演示后端和测试替身
type Reference struct {
	format        codec.Format
	leftGun       game.GunType
	rightGun      game.GunType
	ticksPerInput uint32
	chunkSize     uint32
	maxX, maxY    uint32
}

type Option func(*Reference)

// WithGuns 选择左右两侧主射手的武器
func WithGuns(left, right game.GunType) Option {
	return func(r *Reference) {
		r.leftGun = left
		r.rightGun = right
	}
}

// WithProtocol 覆盖引擎上报的协议常量，模拟不同版本的引擎构建
func WithProtocol(ticksPerInput, chunkSize uint32) Option {
	return func(r *Reference) {
		if ticksPerInput > 0 {
			r.ticksPerInput = ticksPerInput
		}
		if chunkSize > 0 {
			r.chunkSize = chunkSize
		}
	}
}

func NewReference(format codec.Format, opts ...Option) *Reference {
	r := &Reference{
		format:        format,
		leftGun:       game.SMG,
		rightGun:      game.Bazooka,
		ticksPerInput: input.TicksPerInput,
		chunkSize:     input.ChunkSize,
		maxX:          WorldMaxX,
		maxY:          WorldMaxY,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Reference) NewState() (Handle, error) {
	return &refHandle{
		ref:   *r,
		world: newWorld(r.maxX, r.maxY, r.leftGun, r.rightGun),
	}, nil
}

type refHandle struct {
	ref Reference

	mu    sync.Mutex
	world *world
}

func (h *refHandle) MaxX() uint32               { return h.ref.maxX }
func (h *refHandle) MaxY() uint32               { return h.ref.maxY }
func (h *refHandle) TicksPerInput() uint32      { return h.ref.ticksPerInput }
func (h *refHandle) TickInputChunkSize() uint32 { return h.ref.chunkSize }

func (h *refHandle) TickAndReturnState(numTicks uint32, buf []uint32) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.world.advance(numTicks, h.ref.ticksPerInput, h.ref.chunkSize, buf); err != nil {
		return nil, err
	}
	return codec.Encode(h.ref.format, h.world.snapshot())
}
