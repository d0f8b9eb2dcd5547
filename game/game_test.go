package game

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestGunTypeIndexOrder(t *testing.T) {
	want := []string{"Bazooka", "SMG", "FlameThrower", "StraightShooter"}
	for i, name := range want {
		g, err := GunTypeFromIndex(uint64(i))
		if err != nil {
			t.Fatalf("index %d: %v", i, err)
		}
		if g.String() != name {
			t.Fatalf("index %d = %s, want %s", i, g, name)
		}
		p, err := ParseGunType(name)
		if err != nil || p != g {
			t.Fatalf("ParseGunType(%q) = %v, %v", name, p, err)
		}
	}
	if _, err := GunTypeFromIndex(4); err == nil {
		t.Fatalf("expected error for index 4")
	}
	if _, err := ParseGunType("bazooka"); err == nil {
		t.Fatalf("expected case-sensitive parse to fail")
	}
}

func TestGunTypeJSONUsesName(t *testing.T) {
	b, err := json.Marshal(RaftFighter{Gun: FlameThrower})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"gun":"FlameThrower"`) {
		t.Fatalf("gun not encoded by name: %s", b)
	}
	var f RaftFighter
	if err := json.Unmarshal([]byte(`{"gun":"SMG"}`), &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if f.Gun != SMG {
		t.Fatalf("gun = %v, want SMG", f.Gun)
	}
	if err := json.Unmarshal([]byte(`{"gun":"Laser"}`), &f); err == nil {
		t.Fatalf("expected unknown gun to fail")
	}
}

func TestSplitAndAllProjectiles(t *testing.T) {
	s := &GameState{
		LeftProjectiles:  []Projectile{{Radius: 1}},
		RightProjectiles: []Projectile{{Radius: 2}, {Radius: 3}},
	}
	if !s.Split() {
		t.Fatalf("expected split state")
	}
	if got := len(s.AllProjectiles()); got != 3 {
		t.Fatalf("AllProjectiles len = %d, want 3", got)
	}

	text := &GameState{Projectiles: []Projectile{}}
	if text.Split() {
		t.Fatalf("combined list should not report split")
	}
}

func TestCheckBounds(t *testing.T) {
	s := &GameState{
		RaftLeft: Raft{Entity: Entity{Position: Position{X: 10, Y: 10}}},
		RaftRight: Raft{
			Entity:       Entity{Position: Position{X: 20, Y: 20}},
			RaftFighters: []RaftFighter{{Entity: Entity{Position: Position{X: 30, Y: 30}}}},
		},
	}
	if err := s.CheckBounds(100, 100); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	err := s.CheckBounds(25, 100)
	if err == nil || !strings.Contains(err.Error(), "raft_right.raft_fighters[0]") {
		t.Fatalf("expected fighter violation, got %v", err)
	}
}
