package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"paddlebattle/game"
)

func isNullJSON(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// jsonReader 与 cborReader 相同的读取方式，按字段名取值
type jsonReader struct {
	m    map[string]json.RawMessage
	path string
	err  error
}

func newJSONReader(raw json.RawMessage, path string, fields ...string) (*jsonReader, error) {
	if isNullJSON(raw) {
		return nil, decodeErr(path, ErrNull)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, decodeErr(path, err)
	}
	known := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		known[f] = struct{}{}
	}
	for k := range m {
		if _, ok := known[k]; !ok {
			return nil, decodeErr(path, fmt.Errorf("%w: %q", ErrUnknownField, k))
		}
	}
	return &jsonReader{m: m, path: path}, nil
}

func (r *jsonReader) raw(name string, required bool) (json.RawMessage, string, bool) {
	if r.err != nil {
		return nil, "", false
	}
	p := join(r.path, name)
	v, ok := r.m[name]
	if !ok && required {
		r.err = decodeErr(p, ErrMissingField)
	}
	return v, p, ok
}

func (r *jsonReader) decode(raw json.RawMessage, p string, dst any) {
	if isNullJSON(raw) {
		r.err = decodeErr(p, ErrNull)
		return
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		r.err = decodeErr(p, err)
	}
}

func (r *jsonReader) scalar(name string, dst any) {
	if raw, p, ok := r.raw(name, true); ok {
		r.decode(raw, p, dst)
	}
}

// optional 字段缺失时保持零值
func (r *jsonReader) optional(name string, dst any) {
	if raw, p, ok := r.raw(name, false); ok {
		r.decode(raw, p, dst)
	}
}

func jsonNested[T any](r *jsonReader, name string, dec func(json.RawMessage, string) (T, error), dst *T) {
	raw, p, ok := r.raw(name, true)
	if !ok {
		return
	}
	*dst, r.err = dec(raw, p)
}

func jsonList[T any](r *jsonReader, name string, dec func(json.RawMessage, string) (T, error), dst *[]T) {
	raw, p, ok := r.raw(name, true)
	if !ok {
		return
	}
	if isNullJSON(raw) {
		r.err = decodeErr(p, ErrNull)
		return
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		r.err = decodeErr(p, err)
		return
	}
	out := make([]T, 0, len(items))
	for i, item := range items {
		v, err := dec(item, index(p, i))
		if err != nil {
			r.err = err
			return
		}
		out = append(out, v)
	}
	*dst = out
}

// DecodeText 解码早期引擎的 JSON 快照：弹丸为合并列表，ticks 可缺省
func DecodeText(b []byte) (*game.GameState, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, decodeErr("", errors.New("empty snapshot"))
	}
	r, err := newJSONReader(b, "", "raft_left", "raft_right", "projectiles", "ticks")
	if err != nil {
		return nil, err
	}
	var s game.GameState
	jsonNested(r, "raft_left", decodeRaftJSON, &s.RaftLeft)
	jsonNested(r, "raft_right", decodeRaftJSON, &s.RaftRight)
	jsonList(r, "projectiles", decodeProjectileJSON, &s.Projectiles)
	r.optional("ticks", &s.Ticks)
	if r.err != nil {
		return nil, r.err
	}
	return &s, nil
}

func decodeRaftJSON(raw json.RawMessage, path string) (game.Raft, error) {
	var v game.Raft
	r, err := newJSONReader(raw, path, "entity", "width", "height", "max_health", "curr_health", "raft_fighters", "style")
	if err != nil {
		return v, err
	}
	jsonNested(r, "entity", decodeEntityJSON, &v.Entity)
	r.scalar("width", &v.Width)
	r.scalar("height", &v.Height)
	r.scalar("max_health", &v.MaxHealth)
	r.scalar("curr_health", &v.CurrHealth)
	jsonList(r, "raft_fighters", decodeFighterJSON, &v.RaftFighters)
	jsonNested(r, "style", decodeStyleJSON, &v.Style)
	return v, r.err
}

func decodeFighterJSON(raw json.RawMessage, path string) (game.RaftFighter, error) {
	var v game.RaftFighter
	r, err := newJSONReader(raw, path, "entity", "width", "height", "gun", "curr_health", "max_health", "style")
	if err != nil {
		return v, err
	}
	jsonNested(r, "entity", decodeEntityJSON, &v.Entity)
	r.scalar("width", &v.Width)
	r.scalar("height", &v.Height)
	jsonNested(r, "gun", decodeGunJSON, &v.Gun)
	r.scalar("curr_health", &v.CurrHealth)
	r.scalar("max_health", &v.MaxHealth)
	jsonNested(r, "style", decodeStyleJSON, &v.Style)
	return v, r.err
}

func decodeProjectileJSON(raw json.RawMessage, path string) (game.Projectile, error) {
	var v game.Projectile
	r, err := newJSONReader(raw, path, "entity", "radius", "style")
	if err != nil {
		return v, err
	}
	jsonNested(r, "entity", decodeEntityJSON, &v.Entity)
	r.scalar("radius", &v.Radius)
	jsonNested(r, "style", decodeStyleJSON, &v.Style)
	return v, r.err
}

func decodeEntityJSON(raw json.RawMessage, path string) (game.Entity, error) {
	var v game.Entity
	r, err := newJSONReader(raw, path, "position", "velocity", "is_active")
	if err != nil {
		return v, err
	}
	jsonNested(r, "position", decodePositionJSON, &v.Position)
	jsonNested(r, "velocity", decodeVelocityJSON, &v.Velocity)
	r.scalar("is_active", &v.IsActive)
	return v, r.err
}

func decodePositionJSON(raw json.RawMessage, path string) (game.Position, error) {
	var v game.Position
	r, err := newJSONReader(raw, path, "x", "y")
	if err != nil {
		return v, err
	}
	r.scalar("x", &v.X)
	r.scalar("y", &v.Y)
	return v, r.err
}

func decodeVelocityJSON(raw json.RawMessage, path string) (game.Velocity, error) {
	var v game.Velocity
	r, err := newJSONReader(raw, path, "vx", "vy")
	if err != nil {
		return v, err
	}
	r.scalar("vx", &v.VX)
	r.scalar("vy", &v.VY)
	return v, r.err
}

func decodeStyleJSON(raw json.RawMessage, path string) (game.Style, error) {
	var v game.Style
	r, err := newJSONReader(raw, path, "color")
	if err != nil {
		return v, err
	}
	r.scalar("color", &v.Color)
	return v, r.err
}

// decodeGunJSON 文本协议里枪械以名称出现
func decodeGunJSON(raw json.RawMessage, path string) (game.GunType, error) {
	if isNullJSON(raw) {
		return 0, decodeErr(path, ErrNull)
	}
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return 0, decodeErr(path, err)
	}
	g, err := game.ParseGunType(name)
	if err != nil {
		return 0, decodeErr(path, err)
	}
	return g, nil
}

// ---- 编码 ----

type textState struct {
	RaftLeft    textRaft         `json:"raft_left"`
	RaftRight   textRaft         `json:"raft_right"`
	Projectiles []textProjectile `json:"projectiles"`
	Ticks       uint32           `json:"ticks,omitempty"`
}

type textRaft struct {
	Entity       textEntity    `json:"entity"`
	Width        uint32        `json:"width"`
	Height       uint32        `json:"height"`
	MaxHealth    uint32        `json:"max_health"`
	CurrHealth   uint32        `json:"curr_health"`
	RaftFighters []textFighter `json:"raft_fighters"`
	Style        textStyle     `json:"style"`
}

type textFighter struct {
	Entity     textEntity `json:"entity"`
	Width      uint32     `json:"width"`
	Height     uint32     `json:"height"`
	Gun        string     `json:"gun" jsonschema:"enum=Bazooka,enum=SMG,enum=FlameThrower,enum=StraightShooter"`
	CurrHealth uint32     `json:"curr_health"`
	MaxHealth  uint32     `json:"max_health"`
	Style      textStyle  `json:"style"`
}

type textProjectile struct {
	Entity textEntity `json:"entity"`
	Radius uint32     `json:"radius"`
	Style  textStyle  `json:"style"`
}

type textEntity struct {
	Position textPosition `json:"position"`
	Velocity textVelocity `json:"velocity"`
	IsActive bool         `json:"is_active"`
}

type textPosition struct {
	X uint32 `json:"x"`
	Y uint32 `json:"y"`
}

type textVelocity struct {
	VX int32 `json:"vx"`
	VY int32 `json:"vy"`
}

type textStyle struct {
	Color string `json:"color"`
}

// EncodeText 文本协议编码：左右弹丸合并为一个列表
func EncodeText(s *game.GameState) ([]byte, error) {
	if err := Validate(s); err != nil {
		return nil, err
	}
	all := s.AllProjectiles()
	ps := make([]textProjectile, 0, len(all))
	for _, p := range all {
		ps = append(ps, textProjectile{Entity: toTextEntity(p.Entity), Radius: p.Radius, Style: textStyle{p.Style.Color}})
	}
	return json.Marshal(textState{
		RaftLeft:    toTextRaft(s.RaftLeft),
		RaftRight:   toTextRaft(s.RaftRight),
		Projectiles: ps,
		Ticks:       s.Ticks,
	})
}

func toTextEntity(e game.Entity) textEntity {
	return textEntity{
		Position: textPosition{X: e.Position.X, Y: e.Position.Y},
		Velocity: textVelocity{VX: e.Velocity.VX, VY: e.Velocity.VY},
		IsActive: e.IsActive,
	}
}

func toTextRaft(r game.Raft) textRaft {
	fighters := make([]textFighter, 0, len(r.RaftFighters))
	for _, f := range r.RaftFighters {
		fighters = append(fighters, textFighter{
			Entity:     toTextEntity(f.Entity),
			Width:      f.Width,
			Height:     f.Height,
			Gun:        f.Gun.String(),
			CurrHealth: f.CurrHealth,
			MaxHealth:  f.MaxHealth,
			Style:      textStyle{f.Style.Color},
		})
	}
	return textRaft{
		Entity:       toTextEntity(r.Entity),
		Width:        r.Width,
		Height:       r.Height,
		MaxHealth:    r.MaxHealth,
		CurrHealth:   r.CurrHealth,
		RaftFighters: fighters,
		Style:        textStyle{r.Style.Color},
	}
}
