package codec

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"

	"paddlebattle/game"
)

func entity(x, y uint32, vx, vy int32, active bool) game.Entity {
	return game.Entity{
		Position: game.Position{X: x, Y: y},
		Velocity: game.Velocity{VX: vx, VY: vy},
		IsActive: active,
	}
}

func sampleState() *game.GameState {
	return &game.GameState{
		RaftLeft: game.Raft{
			Entity:     entity(1000, 2500, 5, 0, true),
			Width:      2500,
			Height:     1000,
			MaxHealth:  10000,
			CurrHealth: 9500,
			RaftFighters: []game.RaftFighter{{
				Entity:     entity(3000, 3300, 5, 0, true),
				Width:      250,
				Height:     100,
				Gun:        game.SMG,
				CurrHealth: 10000,
				MaxHealth:  10000,
				Style:      game.Style{Color: "#00FF00"},
			}},
			Style: game.Style{Color: "#FF0000"},
		},
		RaftRight: game.Raft{
			Entity:     entity(7500, 2500, -50, -5, true),
			Width:      2500,
			Height:     1000,
			MaxHealth:  10000,
			CurrHealth: 10000,
			RaftFighters: []game.RaftFighter{
				{Entity: entity(8000, 3300, 0, 0, true), Width: 250, Height: 100, Gun: game.Bazooka, CurrHealth: 1, MaxHealth: 10000, Style: game.Style{Color: "#FF0000"}},
				{Entity: entity(8500, 3300, 0, 0, false), Width: 250, Height: 100, Gun: game.StraightShooter, CurrHealth: 0, MaxHealth: 10000, Style: game.Style{Color: "#0000FF"}},
			},
			Style: game.Style{Color: "#0000FF"},
		},
		LeftProjectiles: []game.Projectile{
			{Entity: entity(3010, 3200, 10, -10, true), Radius: 100, Style: game.Style{Color: "#00FF00"}},
		},
		RightProjectiles: []game.Projectile{
			{Entity: entity(0, 0, -5, -5, false), Radius: 200, Style: game.Style{Color: "rgb(255, 0, 0)"}},
		},
		Ticks: 42,
	}
}

// generic 把编码结果转为可修改的通用树，便于构造坏数据
func generic(t *testing.T, b []byte) map[interface{}]interface{} {
	t.Helper()
	var v interface{}
	if err := cbor.Unmarshal(b, &v); err != nil {
		t.Fatalf("generic unmarshal: %v", err)
	}
	return v.(map[interface{}]interface{})
}

func child(m map[interface{}]interface{}, keys ...uint64) map[interface{}]interface{} {
	for _, k := range keys {
		m = m[k].(map[interface{}]interface{})
	}
	return m
}

func reencode(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := cbor.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestBinaryRoundTrip(t *testing.T) {
	want := sampleState()
	b, err := EncodeBinary(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(FormatBinary, b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
	if got.Ticks != 42 {
		t.Fatalf("ticks = %d, want 42", got.Ticks)
	}
	if got.RaftRight.RaftFighters[1].Entity.IsActive {
		t.Fatalf("inactive flag lost")
	}
}

func TestBinaryEmptyListsRoundTrip(t *testing.T) {
	s := sampleState()
	s.LeftProjectiles = []game.Projectile{}
	s.RightProjectiles = []game.Projectile{}
	s.RaftLeft.RaftFighters = []game.RaftFighter{}
	b, err := EncodeBinary(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeBinary(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, s) {
		t.Fatalf("empty lists not preserved: %+v", got)
	}
}

func TestBinaryWireLayout(t *testing.T) {
	b, err := EncodeBinary(sampleState())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	top := generic(t, b)
	if len(top) != 5 || top[uint64(4)] != uint64(42) {
		t.Fatalf("unexpected top level %v", top)
	}
	fighter := child(top, 1)[uint64(5)].([]interface{})[0].(map[interface{}]interface{})
	gun := fighter[uint64(3)].([]interface{})
	if len(gun) != 1 || gun[0] != uint64(game.Bazooka) {
		t.Fatalf("gun encoded as %v, want [0]", gun)
	}
	if fighter[uint64(4)] != uint64(1) || fighter[uint64(5)] != uint64(10000) {
		t.Fatalf("fighter health keys swapped: %v", fighter)
	}
	raft := child(top, 0)
	if raft[uint64(3)] != uint64(10000) || raft[uint64(4)] != uint64(9500) {
		t.Fatalf("raft health keys swapped: %v", raft)
	}
}

func TestBinaryRejectsBadSnapshots(t *testing.T) {
	good, err := EncodeBinary(sampleState())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	cases := []struct {
		name   string
		mutate func(top map[interface{}]interface{})
		path   string
		is     error
	}{
		{"string curr_health on raft", func(top map[interface{}]interface{}) {
			child(top, 0)[uint64(4)] = "ten"
		}, "raft_left.curr_health", nil},
		{"string curr_health on fighter", func(top map[interface{}]interface{}) {
			f := child(top, 1)[uint64(5)].([]interface{})[0].(map[interface{}]interface{})
			f[uint64(4)] = "full"
		}, "raft_right.raft_fighters[0].curr_health", nil},
		{"gun index out of range", func(top map[interface{}]interface{}) {
			f := child(top, 0)[uint64(5)].([]interface{})[0].(map[interface{}]interface{})
			f[uint64(3)] = []interface{}{uint64(4)}
		}, "raft_left.raft_fighters[0].gun", nil},
		{"gun not an array", func(top map[interface{}]interface{}) {
			f := child(top, 0)[uint64(5)].([]interface{})[0].(map[interface{}]interface{})
			f[uint64(3)] = uint64(1)
		}, "raft_left.raft_fighters[0].gun", nil},
		{"empty gun array", func(top map[interface{}]interface{}) {
			f := child(top, 0)[uint64(5)].([]interface{})[0].(map[interface{}]interface{})
			f[uint64(3)] = []interface{}{}
		}, "raft_left.raft_fighters[0].gun", nil},
		{"missing ticks", func(top map[interface{}]interface{}) {
			delete(top, uint64(4))
		}, "ticks", ErrMissingField},
		{"unknown key", func(top map[interface{}]interface{}) {
			child(top, 0, 0, 0)[uint64(2)] = uint64(7)
		}, "raft_left.entity.position", ErrUnknownField},
		{"null width", func(top map[interface{}]interface{}) {
			child(top, 0)[uint64(1)] = nil
		}, "raft_left.width", ErrNull},
		{"negative x", func(top map[interface{}]interface{}) {
			child(top, 0, 0, 0)[uint64(0)] = int64(-1)
		}, "raft_left.entity.position.x", nil},
		{"x overflows u32", func(top map[interface{}]interface{}) {
			child(top, 0, 0, 0)[uint64(0)] = uint64(1 << 33)
		}, "raft_left.entity.position.x", nil},
		{"int is_active", func(top map[interface{}]interface{}) {
			child(top, 1, 0)[uint64(2)] = uint64(1)
		}, "raft_right.entity.is_active", nil},
		{"projectiles not a list", func(top map[interface{}]interface{}) {
			top[uint64(2)] = map[interface{}]interface{}{}
		}, "left_projectiles", nil},
		{"numeric color", func(top map[interface{}]interface{}) {
			p := top[uint64(3)].([]interface{})[0].(map[interface{}]interface{})
			child(p, 2)[uint64(0)] = uint64(255)
		}, "right_projectiles[0].style.color", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			top := generic(t, good)
			tc.mutate(top)
			s, err := Decode(FormatBinary, reencode(t, top))
			if err == nil {
				t.Fatalf("expected error, got state %+v", s)
			}
			if s != nil {
				t.Fatalf("partial state returned alongside error")
			}
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("error %v is not a DecodeError", err)
			}
			if de.Path != tc.path {
				t.Fatalf("path = %q, want %q (%v)", de.Path, tc.path, err)
			}
			if tc.is != nil && !errors.Is(err, tc.is) {
				t.Fatalf("error %v is not %v", err, tc.is)
			}
		})
	}
}

func TestBinaryAcceptsEnumWithPayload(t *testing.T) {
	good, err := EncodeBinary(sampleState())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	top := generic(t, good)
	f := child(top, 0)[uint64(5)].([]interface{})[0].(map[interface{}]interface{})
	f[uint64(3)] = []interface{}{uint64(2), map[interface{}]interface{}{}}
	s, err := DecodeBinary(reencode(t, top))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.RaftLeft.RaftFighters[0].Gun != game.FlameThrower {
		t.Fatalf("gun = %v, want FlameThrower", s.RaftLeft.RaftFighters[0].Gun)
	}
}

func TestBinaryRejectsDuplicateAndTrailing(t *testing.T) {
	// {0: 1, 0: 2} 手工拼出的重复键
	dup := []byte{0xa2, 0x00, 0x01, 0x00, 0x02}
	if _, err := DecodeBinary(dup); err == nil {
		t.Fatalf("expected duplicate key error")
	}
	good, err := EncodeBinary(sampleState())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeBinary(append(good, 0x00)); err == nil {
		t.Fatalf("expected trailing data error")
	}
	if _, err := DecodeBinary(nil); err == nil {
		t.Fatalf("expected empty snapshot error")
	}
	if _, err := DecodeBinary(good[:len(good)/2]); err == nil {
		t.Fatalf("expected truncated snapshot error")
	}
}

func TestEncodeBinaryRejectsCombinedList(t *testing.T) {
	s := sampleState()
	s.Projectiles = s.AllProjectiles()
	s.LeftProjectiles, s.RightProjectiles = nil, nil
	if _, err := EncodeBinary(s); err == nil {
		t.Fatalf("expected combined list to be rejected")
	}
}

func TestTextRoundTrip(t *testing.T) {
	src := sampleState()
	b, err := EncodeText(src)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if strings.Contains(string(b), "left_projectiles") {
		t.Fatalf("text format must not split projectiles: %s", b)
	}
	got, err := Decode(FormatText, b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Split() || len(got.Projectiles) != 2 {
		t.Fatalf("expected combined list of 2, got %+v", got.Projectiles)
	}
	want := *src
	want.Projectiles = src.AllProjectiles()
	want.LeftProjectiles, want.RightProjectiles = nil, nil
	if !reflect.DeepEqual(got, &want) {
		t.Fatalf("text round trip mismatch:\n got %+v\nwant %+v", got, &want)
	}
}

func TestTextWithoutTicks(t *testing.T) {
	raft := `{"entity":{"position":{"x":1,"y":2},"velocity":{"vx":-1,"vy":0},"is_active":true},
		"width":10,"height":5,"max_health":100,"curr_health":90,
		"raft_fighters":[{"entity":{"position":{"x":3,"y":4},"velocity":{"vx":0,"vy":0},"is_active":false},
		"width":1,"height":1,"gun":"StraightShooter","curr_health":5,"max_health":5,"style":{"color":"#0F002F"}}],
		"style":{"color":"red"}}`
	doc := `{"raft_left":` + raft + `,"raft_right":` + raft + `,"projectiles":[]}`
	s, err := Decode(FormatText, []byte(doc))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Ticks != 0 || s.RaftLeft.CurrHealth != 90 || s.RaftRight.RaftFighters[0].Gun != game.StraightShooter {
		t.Fatalf("unexpected state %+v", s)
	}
	if s.RaftLeft.Entity.Velocity.VX != -1 {
		t.Fatalf("signed velocity lost")
	}

	bad := []struct{ name, doc, path string }{
		{"string health", strings.Replace(doc, `"curr_health":90`, `"curr_health":"90"`, 1), "raft_left.curr_health"},
		{"fraction", strings.Replace(doc, `"width":10`, `"width":10.5`, 1), "raft_left.width"},
		{"unknown gun", strings.Replace(doc, `"StraightShooter"`, `"Laser"`, 1), "raft_left.raft_fighters[0].gun"},
		{"missing projectiles", strings.Replace(doc, `,"projectiles":[]`, ``, 1), "projectiles"},
		{"extra field", strings.Replace(doc, `"projectiles":[]`, `"projectiles":[],"winner":"left"`, 1), ""},
		{"null style", strings.Replace(doc, `"style":{"color":"red"}`, `"style":null`, 1), "raft_left.style"},
	}
	for _, tc := range bad {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Decode(FormatText, []byte(tc.doc))
			if err == nil || s != nil {
				t.Fatalf("expected failure, got %+v, %v", s, err)
			}
			var de *DecodeError
			if !errors.As(err, &de) || de.Path != tc.path {
				t.Fatalf("error %v, want path %q", err, tc.path)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(nil); !errors.Is(err, ErrInvalid) {
		t.Fatalf("nil state err = %v", err)
	}
	s := sampleState()
	s.RaftLeft.RaftFighters[0].Gun = game.GunType(9)
	s.RaftRight.RaftFighters[0].Gun = game.GunType(7)
	s.Projectiles = []game.Projectile{{}}
	err := Validate(s)
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	for _, want := range []string{"raft_left.raft_fighters[0]", "raft_right.raft_fighters[0]", "combined"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %q", err, want)
		}
	}
	if _, err := EncodeBinary(s); err == nil {
		t.Fatalf("encoder accepted invalid state")
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"binary": FormatBinary, "CBOR": FormatBinary, " text ": FormatText, "json": FormatText} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := Decode(Format(9), nil); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}

func TestTextSchema(t *testing.T) {
	s := TextSchema()
	if s == nil || s.Title == "" {
		t.Fatalf("schema missing title")
	}
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	for _, want := range []string{"raft_left", "projectiles", "StraightShooter"} {
		if !strings.Contains(string(b), want) {
			t.Fatalf("schema missing %q", want)
		}
	}
}
