package codec

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"paddlebattle/game"
)

var (
	decMode cbor.DecMode
	encMode cbor.EncMode
)

func init() {
	var err error
	// 重复键直接报错，避免同一字段被静默覆盖
	decMode, err = cbor.DecOptions{DupMapKey: cbor.DupMapKeyEnforcedAPF}.DecMode()
	if err != nil {
		panic(err)
	}
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
}

// cborMap 结构体在线上的形态：字段编号 -> 原始值
type cborMap map[uint64]cbor.RawMessage

func isNullCBOR(raw cbor.RawMessage) bool {
	return len(raw) == 1 && (raw[0] == 0xf6 || raw[0] == 0xf7)
}

// cborReader 按固定编号依次读取一个结构体的字段，遇到第一个错误即停止
type cborReader struct {
	m    cborMap
	path string
	err  error
}

// newCBORReader 解析整数键 map，并拒绝 [0,fields) 之外的编号
func newCBORReader(raw cbor.RawMessage, path string, fields int) (*cborReader, error) {
	if isNullCBOR(raw) {
		return nil, decodeErr(path, ErrNull)
	}
	var m cborMap
	if err := decMode.Unmarshal(raw, &m); err != nil {
		return nil, decodeErr(path, err)
	}
	for k := range m {
		if k >= uint64(fields) {
			return nil, decodeErr(path, fmt.Errorf("%w: key %d", ErrUnknownField, k))
		}
	}
	return &cborReader{m: m, path: path}, nil
}

func (r *cborReader) raw(key uint64, name string) (cbor.RawMessage, string, bool) {
	if r.err != nil {
		return nil, "", false
	}
	p := join(r.path, name)
	v, ok := r.m[key]
	if !ok {
		r.err = decodeErr(p, fmt.Errorf("%w (key %d)", ErrMissingField, key))
		return nil, p, false
	}
	return v, p, true
}

// scalar 读取整数/布尔/字符串字段；null 按类型错误处理
func (r *cborReader) scalar(key uint64, name string, dst any) {
	raw, p, ok := r.raw(key, name)
	if !ok {
		return
	}
	if isNullCBOR(raw) {
		r.err = decodeErr(p, ErrNull)
		return
	}
	if err := decMode.Unmarshal(raw, dst); err != nil {
		r.err = decodeErr(p, err)
	}
}

func cborNested[T any](r *cborReader, key uint64, name string, dec func(cbor.RawMessage, string) (T, error), dst *T) {
	raw, p, ok := r.raw(key, name)
	if !ok {
		return
	}
	*dst, r.err = dec(raw, p)
}

func cborList[T any](r *cborReader, key uint64, name string, dec func(cbor.RawMessage, string) (T, error), dst *[]T) {
	raw, p, ok := r.raw(key, name)
	if !ok {
		return
	}
	*dst, r.err = cborSeq(raw, p, dec)
}

func readCBORArray(raw cbor.RawMessage, path string) ([]cbor.RawMessage, error) {
	if isNullCBOR(raw) {
		return nil, decodeErr(path, ErrNull)
	}
	var items []cbor.RawMessage
	if err := decMode.Unmarshal(raw, &items); err != nil {
		return nil, decodeErr(path, err)
	}
	return items, nil
}

func cborSeq[T any](raw cbor.RawMessage, path string, dec func(cbor.RawMessage, string) (T, error)) ([]T, error) {
	items, err := readCBORArray(raw, path)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for i, item := range items {
		v, err := dec(item, index(path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// DecodeBinary 解码引擎的 CBOR 快照（顶层键 0..4）
func DecodeBinary(b []byte) (*game.GameState, error) {
	if len(b) == 0 {
		return nil, decodeErr("", errors.New("empty snapshot"))
	}
	r, err := newCBORReader(b, "", 5)
	if err != nil {
		return nil, err
	}
	var s game.GameState
	cborNested(r, 0, "raft_left", decodeRaftCBOR, &s.RaftLeft)
	cborNested(r, 1, "raft_right", decodeRaftCBOR, &s.RaftRight)
	cborList(r, 2, "left_projectiles", decodeProjectileCBOR, &s.LeftProjectiles)
	cborList(r, 3, "right_projectiles", decodeProjectileCBOR, &s.RightProjectiles)
	r.scalar(4, "ticks", &s.Ticks)
	if r.err != nil {
		return nil, r.err
	}
	return &s, nil
}

func decodeRaftCBOR(raw cbor.RawMessage, path string) (game.Raft, error) {
	var v game.Raft
	r, err := newCBORReader(raw, path, 7)
	if err != nil {
		return v, err
	}
	cborNested(r, 0, "entity", decodeEntityCBOR, &v.Entity)
	r.scalar(1, "width", &v.Width)
	r.scalar(2, "height", &v.Height)
	r.scalar(3, "max_health", &v.MaxHealth)
	r.scalar(4, "curr_health", &v.CurrHealth)
	cborList(r, 5, "raft_fighters", decodeFighterCBOR, &v.RaftFighters)
	cborNested(r, 6, "style", decodeStyleCBOR, &v.Style)
	return v, r.err
}

// 注意 RaftFighter 的血量字段顺序与 Raft 相反（curr 在前）
func decodeFighterCBOR(raw cbor.RawMessage, path string) (game.RaftFighter, error) {
	var v game.RaftFighter
	r, err := newCBORReader(raw, path, 7)
	if err != nil {
		return v, err
	}
	cborNested(r, 0, "entity", decodeEntityCBOR, &v.Entity)
	r.scalar(1, "width", &v.Width)
	r.scalar(2, "height", &v.Height)
	cborNested(r, 3, "gun", decodeGunCBOR, &v.Gun)
	r.scalar(4, "curr_health", &v.CurrHealth)
	r.scalar(5, "max_health", &v.MaxHealth)
	cborNested(r, 6, "style", decodeStyleCBOR, &v.Style)
	return v, r.err
}

func decodeProjectileCBOR(raw cbor.RawMessage, path string) (game.Projectile, error) {
	var v game.Projectile
	r, err := newCBORReader(raw, path, 3)
	if err != nil {
		return v, err
	}
	cborNested(r, 0, "entity", decodeEntityCBOR, &v.Entity)
	r.scalar(1, "radius", &v.Radius)
	cborNested(r, 2, "style", decodeStyleCBOR, &v.Style)
	return v, r.err
}

func decodeEntityCBOR(raw cbor.RawMessage, path string) (game.Entity, error) {
	var v game.Entity
	r, err := newCBORReader(raw, path, 3)
	if err != nil {
		return v, err
	}
	cborNested(r, 0, "position", decodePositionCBOR, &v.Position)
	cborNested(r, 1, "velocity", decodeVelocityCBOR, &v.Velocity)
	r.scalar(2, "is_active", &v.IsActive)
	return v, r.err
}

func decodePositionCBOR(raw cbor.RawMessage, path string) (game.Position, error) {
	var v game.Position
	r, err := newCBORReader(raw, path, 2)
	if err != nil {
		return v, err
	}
	r.scalar(0, "x", &v.X)
	r.scalar(1, "y", &v.Y)
	return v, r.err
}

func decodeVelocityCBOR(raw cbor.RawMessage, path string) (game.Velocity, error) {
	var v game.Velocity
	r, err := newCBORReader(raw, path, 2)
	if err != nil {
		return v, err
	}
	r.scalar(0, "vx", &v.VX)
	r.scalar(1, "vy", &v.VY)
	return v, r.err
}

func decodeStyleCBOR(raw cbor.RawMessage, path string) (game.Style, error) {
	var v game.Style
	r, err := newCBORReader(raw, path, 1)
	if err != nil {
		return v, err
	}
	r.scalar(0, "color", &v.Color)
	return v, r.err
}

// decodeGunCBOR 枚举编码为数组，首元素是下标；
// 引擎的派生编码可能在下标后附带空 map，这里只取首元素
func decodeGunCBOR(raw cbor.RawMessage, path string) (game.GunType, error) {
	items, err := readCBORArray(raw, path)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, decodeErr(path, errors.New("empty enum array"))
	}
	if isNullCBOR(items[0]) {
		return 0, decodeErr(path, ErrNull)
	}
	var idx uint64
	if err := decMode.Unmarshal(items[0], &idx); err != nil {
		return 0, decodeErr(path, err)
	}
	g, err := game.GunTypeFromIndex(idx)
	if err != nil {
		return 0, decodeErr(path, err)
	}
	return g, nil
}

// ---- 编码（引擎侧契约） ----

type wireState struct {
	RaftLeft         wireRaft         `cbor:"0,keyasint"`
	RaftRight        wireRaft         `cbor:"1,keyasint"`
	LeftProjectiles  []wireProjectile `cbor:"2,keyasint"`
	RightProjectiles []wireProjectile `cbor:"3,keyasint"`
	Ticks            uint32           `cbor:"4,keyasint"`
}

type wireRaft struct {
	Entity       wireEntity    `cbor:"0,keyasint"`
	Width        uint32        `cbor:"1,keyasint"`
	Height       uint32        `cbor:"2,keyasint"`
	MaxHealth    uint32        `cbor:"3,keyasint"`
	CurrHealth   uint32        `cbor:"4,keyasint"`
	RaftFighters []wireFighter `cbor:"5,keyasint"`
	Style        wireStyle     `cbor:"6,keyasint"`
}

type wireFighter struct {
	Entity     wireEntity `cbor:"0,keyasint"`
	Width      uint32     `cbor:"1,keyasint"`
	Height     uint32     `cbor:"2,keyasint"`
	Gun        wireGun    `cbor:"3,keyasint"`
	CurrHealth uint32     `cbor:"4,keyasint"`
	MaxHealth  uint32     `cbor:"5,keyasint"`
	Style      wireStyle  `cbor:"6,keyasint"`
}

type wireProjectile struct {
	Entity wireEntity `cbor:"0,keyasint"`
	Radius uint32     `cbor:"1,keyasint"`
	Style  wireStyle  `cbor:"2,keyasint"`
}

type wireEntity struct {
	Position wirePosition `cbor:"0,keyasint"`
	Velocity wireVelocity `cbor:"1,keyasint"`
	IsActive bool         `cbor:"2,keyasint"`
}

type wirePosition struct {
	X uint32 `cbor:"0,keyasint"`
	Y uint32 `cbor:"1,keyasint"`
}

type wireVelocity struct {
	VX int32 `cbor:"0,keyasint"`
	VY int32 `cbor:"1,keyasint"`
}

type wireStyle struct {
	Color string `cbor:"0,keyasint"`
}

// wireGun 编码成单元素数组 [index]
type wireGun game.GunType

func (g wireGun) MarshalCBOR() ([]byte, error) {
	return encMode.Marshal([]uint64{uint64(g)})
}

// EncodeBinary 按解码端相同的编号编码；只接受左右分列的弹丸形态
func EncodeBinary(s *game.GameState) ([]byte, error) {
	if err := Validate(s); err != nil {
		return nil, err
	}
	if !s.Split() {
		return nil, errors.New("encode binary: state carries a combined projectile list")
	}
	w := wireState{
		RaftLeft:         toWireRaft(s.RaftLeft),
		RaftRight:        toWireRaft(s.RaftRight),
		LeftProjectiles:  toWireProjectiles(s.LeftProjectiles),
		RightProjectiles: toWireProjectiles(s.RightProjectiles),
		Ticks:            s.Ticks,
	}
	return encMode.Marshal(w)
}

func toWireEntity(e game.Entity) wireEntity {
	return wireEntity{
		Position: wirePosition{X: e.Position.X, Y: e.Position.Y},
		Velocity: wireVelocity{VX: e.Velocity.VX, VY: e.Velocity.VY},
		IsActive: e.IsActive,
	}
}

func toWireRaft(r game.Raft) wireRaft {
	fighters := make([]wireFighter, 0, len(r.RaftFighters))
	for _, f := range r.RaftFighters {
		fighters = append(fighters, wireFighter{
			Entity:     toWireEntity(f.Entity),
			Width:      f.Width,
			Height:     f.Height,
			Gun:        wireGun(f.Gun),
			CurrHealth: f.CurrHealth,
			MaxHealth:  f.MaxHealth,
			Style:      wireStyle{Color: f.Style.Color},
		})
	}
	return wireRaft{
		Entity:       toWireEntity(r.Entity),
		Width:        r.Width,
		Height:       r.Height,
		MaxHealth:    r.MaxHealth,
		CurrHealth:   r.CurrHealth,
		RaftFighters: fighters,
		Style:        wireStyle{Color: r.Style.Color},
	}
}

func toWireProjectiles(ps []game.Projectile) []wireProjectile {
	out := make([]wireProjectile, 0, len(ps))
	for _, p := range ps {
		out = append(out, wireProjectile{
			Entity: toWireEntity(p.Entity),
			Radius: p.Radius,
			Style:  wireStyle{Color: p.Style.Color},
		})
	}
	return out
}
