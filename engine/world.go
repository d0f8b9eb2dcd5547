package engine

import (
	"fmt"
	"math"

	"paddlebattle/game"
	"paddlebattle/input"
)

type bearing int

const (
	northEast bearing = iota
	northWest
)

// world 参考引擎的可变世界，所有运算为整数且确定
type world struct {
	maxX, maxY uint32

	left, right           game.Raft
	leftShots, rightShots []game.Projectile
	tick                  uint32
}

func newWorld(maxX, maxY uint32, leftGun, rightGun game.GunType) *world {
	w := &world{maxX: maxX, maxY: maxY}

	w.left = newRaft(maxX/10, maxY/4, "#FF0000")
	w.left.RaftFighters = []game.RaftFighter{
		newFighter(&w.left, 4, leftGun),
	}

	w.right = newRaft(maxX-defaultRaftWidth, maxY/4, "#0000FF")
	w.right.RaftFighters = []game.RaftFighter{
		newFighter(&w.right, 1, rightGun),
		newFighter(&w.right, 2, game.SMG),
	}
	return w
}

func newRaft(x, y uint32, color string) game.Raft {
	return game.Raft{
		Entity:     game.Entity{Position: game.Position{X: x, Y: y}, IsActive: true},
		Width:      defaultRaftWidth,
		Height:     defaultRaftHeight,
		MaxHealth:  defaultRaftHealth,
		CurrHealth: defaultRaftHealth,
		Style:      game.Style{Color: color},
	}
}

// newFighter 站在木筏宽度的 fifths/5 处、高度 4/5 处
func newFighter(r *game.Raft, fifths uint32, gun game.GunType) game.RaftFighter {
	return game.RaftFighter{
		Entity: game.Entity{
			Position: game.Position{
				X: r.Entity.Position.X + r.Width*fifths/5,
				Y: r.Entity.Position.Y + r.Height*4/5,
			},
			IsActive: true,
		},
		Width:      defaultFighterWidth,
		Height:     defaultFighterHeight,
		Gun:        gun,
		CurrHealth: defaultRaftHealth,
		MaxHealth:  defaultRaftHealth,
		Style:      gunStyle(gun),
	}
}

// checkInput 在推进之前整体校验输入，出错时世界保持不变
func (w *world) checkInput(numTicks, ticksPerInput, chunkSize uint32, buf []uint32) error {
	want := int((numTicks+ticksPerInput-1)/ticksPerInput) * int(chunkSize)
	if len(buf) != want {
		return fmt.Errorf("%w: received %d, expected %d for ticks %d..%d",
			ErrInvalidInputLength, len(buf), want, w.tick, w.tick+numTicks)
	}
	for i, c := range buf {
		if !input.ValidCode(c) {
			return fmt.Errorf("%w: code %d at index %d", ErrInvalidInput, c, i)
		}
	}
	return nil
}

func (w *world) advance(numTicks, ticksPerInput, chunkSize uint32, buf []uint32) error {
	if err := w.checkInput(numTicks, ticksPerInput, chunkSize, buf); err != nil {
		return err
	}
	next := 0
	for i := uint32(0); i < numTicks; i++ {
		if w.tick%ticksPerInput == 0 {
			if next+int(chunkSize) > len(buf) {
				return fmt.Errorf("%w: tick %d", ErrNoInput, w.tick)
			}
			w.handleInput(buf[next : next+int(chunkSize)])
			next += int(chunkSize)
		}
		w.step()
	}
	return nil
}

func (w *world) handleInput(chunk []uint32) {
	for _, c := range chunk {
		switch c {
		case input.CodeMoveLeftRaftRight:
			w.left.Entity.Velocity.VX = velocityGainNormal
		case input.CodeMoveLeftRaftLeft:
			w.left.Entity.Velocity.VX = -velocityGainNormal
		case input.CodeMoveLeftRaftUp:
			w.left.Entity.Velocity.VY = -velocityGainNormal
		case input.CodeMoveLeftRaftDown:
			w.left.Entity.Velocity.VY = velocityGainNormal
		case input.CodeBoostLeftRaft:
			w.left.Entity.Velocity.VX = velocityGainBoost
		case input.CodeMoveRightRaftRight:
			w.right.Entity.Velocity.VX = velocityGainNormal
		case input.CodeMoveRightRaftLeft:
			w.right.Entity.Velocity.VX = -velocityGainNormal
		case input.CodeMoveRightRaftUp:
			w.right.Entity.Velocity.VY = -velocityGainNormal
		case input.CodeMoveRightRaftDown:
			w.right.Entity.Velocity.VY = velocityGainNormal
		case input.CodeBoostRightRaft:
			w.right.Entity.Velocity.VX = -velocityGainBoost
		}
		// 射击与加弹丸由开火节奏驱动，NoOp 无动作
	}
}

func (w *world) step() {
	w.updateRaft(&w.left)
	w.updateRaft(&w.right)
	w.updateFighters(&w.left, &w.leftShots, northEast)
	w.updateFighters(&w.right, &w.rightShots, northWest)
	w.leftShots = w.updateProjectiles(w.leftShots, &w.right)
	w.rightShots = w.updateProjectiles(w.rightShots, &w.left)
	w.tick++
}

func (w *world) updateRaft(r *game.Raft) {
	prev := r.Entity
	prevFighters := make([]game.Position, len(r.RaftFighters))
	for i := range r.RaftFighters {
		prevFighters[i] = r.RaftFighters[i].Entity.Position
	}

	move(&r.Entity.Position, r.Entity.Velocity)
	for i := range r.RaftFighters {
		move(&r.RaftFighters[i].Entity.Position, r.Entity.Velocity)
	}
	if w.tick%raftDecayEvery == 0 {
		r.Entity.Velocity.VX /= 2
		r.Entity.Velocity.VY /= 2
	}

	if !w.within(r.Entity.Position.X, r.Entity.Position.Y, r.Width, r.Height) {
		r.Entity = prev
		for i := range r.RaftFighters {
			r.RaftFighters[i].Entity.Position = prevFighters[i]
		}
	}
}

func (w *world) updateFighters(r *game.Raft, shots *[]game.Projectile, b bearing) {
	if !r.Entity.IsActive {
		return
	}
	kept := r.RaftFighters[:0]
	for _, f := range r.RaftFighters {
		if f.Entity.IsActive && w.tick%fireRate(f.Gun) == 0 {
			*shots = append(*shots, fire(f, b))
		}
		if f.Entity.IsActive {
			kept = append(kept, f)
		}
	}
	r.RaftFighters = kept
}

func fire(f game.RaftFighter, b bearing) game.Projectile {
	radius, speed := gunBallistics(f.Gun)
	v := game.Velocity{VX: speed, VY: -speed}
	if b == northWest {
		v.VX = -speed
	}
	return game.Projectile{
		Entity: game.Entity{Position: f.Entity.Position, Velocity: v, IsActive: true},
		Radius: radius,
		Style:  gunStyle(f.Gun),
	}
}

func (w *world) updateProjectiles(shots []game.Projectile, target *game.Raft) []game.Projectile {
	wobble := sineTable[w.tick%uint32(len(sineTable))] * sineAmplitude / 1000
	kept := shots[:0]
	for _, p := range shots {
		p.Entity.Position.X = addSigned(p.Entity.Position.X, p.Entity.Velocity.VX)
		p.Entity.Position.Y = addSigned(p.Entity.Position.Y, wobble)
		if w.tick%projectileDecayEvery == 0 {
			switch {
			case p.Entity.Velocity.VX > 0:
				p.Entity.Velocity.VX--
			case p.Entity.Velocity.VX < 0:
				p.Entity.Velocity.VX++
			}
		}

		px, py := subSat(p.Entity.Position.X, p.Radius), subSat(p.Entity.Position.Y, p.Radius)
		pw, ph := p.Radius, p.Radius*2
		for i := range target.RaftFighters {
			f := &target.RaftFighters[i]
			if overlaps(px, py, pw, ph, f.Entity.Position.X, f.Entity.Position.Y, f.Width, f.Height) {
				f.CurrHealth = damage(f.CurrHealth, f.MaxHealth, p.Radius)
				if f.CurrHealth == 0 {
					f.Entity.IsActive = false
				}
				p.Entity.IsActive = false
			}
		}
		if overlaps(px, py, pw, ph, target.Entity.Position.X, target.Entity.Position.Y, target.Width, target.Height) {
			target.CurrHealth = damage(target.CurrHealth, target.MaxHealth, p.Radius)
			if target.CurrHealth == 0 {
				target.Entity.IsActive = false
			}
			p.Entity.IsActive = false
		}
		if !w.within(px, py, pw, ph) {
			p.Entity.IsActive = false
		}
		if p.Entity.IsActive {
			kept = append(kept, p)
		}
	}
	return kept
}

// damage 伤害随剩余血量比例放大：radius * (max / curr)
func damage(curr, maxHealth, radius uint32) uint32 {
	if curr == 0 {
		return 0
	}
	dmg := uint64(radius) * uint64(maxHealth/curr)
	if dmg >= uint64(curr) {
		return 0
	}
	return curr - uint32(dmg)
}

func (w *world) within(x, y, width, height uint32) bool {
	return x > 0 && y > 0 &&
		uint64(x)+uint64(width) <= uint64(w.maxX) &&
		uint64(y)+uint64(height) <= uint64(w.maxY)
}

func overlaps(x1, y1, w1, h1, x2, y2, w2, h2 uint32) bool {
	return uint64(x1) < uint64(x2)+uint64(w2) && uint64(x1)+uint64(w1) > uint64(x2) &&
		uint64(y1) < uint64(y2)+uint64(h2) && uint64(y1)+uint64(h1) > uint64(y2)
}

func move(p *game.Position, v game.Velocity) {
	p.X = addSigned(p.X, v.VX)
	p.Y = addSigned(p.Y, v.VY)
}

func addSigned(u uint32, d int32) uint32 {
	v := int64(u) + int64(d)
	switch {
	case v < 0:
		return 0
	case v > math.MaxUint32:
		return math.MaxUint32
	}
	return uint32(v)
}

func subSat(a, b uint32) uint32 {
	if b >= a {
		return 0
	}
	return a - b
}

// snapshot 深拷贝当前世界为二进制形态的 GameState
func (w *world) snapshot() *game.GameState {
	s := &game.GameState{
		RaftLeft:         cloneRaft(w.left),
		RaftRight:        cloneRaft(w.right),
		LeftProjectiles:  append([]game.Projectile{}, w.leftShots...),
		RightProjectiles: append([]game.Projectile{}, w.rightShots...),
		Ticks:            w.tick,
	}
	return s
}

func cloneRaft(r game.Raft) game.Raft {
	r.RaftFighters = append([]game.RaftFighter{}, r.RaftFighters...)
	return r
}
