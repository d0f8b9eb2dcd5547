package engine

import (
	"testing"

	"paddlebattle/game"
)

func TestBoundsRollback(t *testing.T) {
	w := newWorld(WorldMaxX, WorldMaxY, game.SMG, game.Bazooka)
	w.tick = 1
	w.left.Entity.Position.X = 3
	w.left.Entity.Velocity.VX = -5
	fx := w.left.RaftFighters[0].Entity.Position.X

	w.updateRaft(&w.left)

	if w.left.Entity.Position.X != 3 || w.left.Entity.Velocity.VX != -5 {
		t.Fatalf("raft not rolled back: %+v", w.left.Entity)
	}
	if w.left.RaftFighters[0].Entity.Position.X != fx {
		t.Fatalf("fighter not rolled back")
	}
}

func TestProjectileHitsRaft(t *testing.T) {
	w := newWorld(WorldMaxX, WorldMaxY, game.SMG, game.Bazooka)
	w.tick = 1
	shots := []game.Projectile{{
		Entity: game.Entity{Position: game.Position{X: 7600, Y: 2700}, IsActive: true},
		Radius: 100,
	}}

	kept := w.updateProjectiles(shots, &w.right)

	if len(kept) != 0 {
		t.Fatalf("projectile should be retired on hit")
	}
	if w.right.CurrHealth != 9900 || !w.right.Entity.IsActive {
		t.Fatalf("right raft %d active=%v", w.right.CurrHealth, w.right.Entity.IsActive)
	}
}

func TestFighterRetired(t *testing.T) {
	w := newWorld(WorldMaxX, WorldMaxY, game.SMG, game.Bazooka)
	w.tick = 1
	w.right.RaftFighters[0].CurrHealth = 1
	shots := []game.Projectile{{
		Entity: game.Entity{Position: game.Position{X: 8100, Y: 3330}, IsActive: true},
		Radius: 100,
	}}

	w.updateProjectiles(shots, &w.right)
	if f := w.right.RaftFighters[0]; f.CurrHealth != 0 || f.Entity.IsActive {
		t.Fatalf("fighter %+v", f)
	}

	var fired []game.Projectile
	w.updateFighters(&w.right, &fired, northWest)
	if len(w.right.RaftFighters) != 1 || w.right.RaftFighters[0].Gun != game.SMG {
		t.Fatalf("inactive fighter should be removed: %+v", w.right.RaftFighters)
	}
	if len(fired) != 0 {
		t.Fatalf("nothing fires on tick 1")
	}
}

func TestProjectileLeavesWorld(t *testing.T) {
	w := newWorld(WorldMaxX, WorldMaxY, game.SMG, game.Bazooka)
	w.tick = 1
	shots := []game.Projectile{{
		Entity: game.Entity{Position: game.Position{X: 50, Y: 5000}, Velocity: game.Velocity{VX: -10}, IsActive: true},
		Radius: 100,
	}}
	if kept := w.updateProjectiles(shots, &w.right); len(kept) != 0 {
		t.Fatalf("projectile outside the world should be retired")
	}
}

func TestDamage(t *testing.T) {
	cases := []struct{ curr, max, radius, want uint32 }{
		{10000, 10000, 100, 9900},
		{5000, 10000, 100, 4800},
		{100, 10000, 100, 0},
		{0, 10000, 100, 0},
	}
	for _, tc := range cases {
		if got := damage(tc.curr, tc.max, tc.radius); got != tc.want {
			t.Fatalf("damage(%d,%d,%d) = %d, want %d", tc.curr, tc.max, tc.radius, got, tc.want)
		}
	}
}

func TestAddSigned(t *testing.T) {
	if addSigned(3, -5) != 0 {
		t.Fatalf("underflow should saturate")
	}
	if addSigned(^uint32(0)-1, 5) != ^uint32(0) {
		t.Fatalf("overflow should saturate")
	}
}
