package game

// Position 世界坐标（无符号），由引擎保证落在 (max_x, max_y) 范围内
type Position struct {
	X uint32 `json:"x" msgpack:"x"`
	Y uint32 `json:"y" msgpack:"y"`
}

// Velocity 速度分量（有符号），客户端仅展示不校验
type Velocity struct {
	VX int32 `json:"vx" msgpack:"vx"`
	VY int32 `json:"vy" msgpack:"vy"`
}

// Entity 所有实体的公共部分；IsActive=false 的实体仍需完整解码
type Entity struct {
	Position Position `json:"position" msgpack:"position"`
	Velocity Velocity `json:"velocity" msgpack:"velocity"`
	IsActive bool     `json:"is_active" msgpack:"is_active"`
}

// Style 纯展示用颜色（任意 CSS 颜色字符串）
type Style struct {
	Color string `json:"color" msgpack:"color"`
}

// RaftFighter 驻守在木筏上的战斗单位
type RaftFighter struct {
	Entity     Entity  `json:"entity" msgpack:"entity"`
	Width      uint32  `json:"width" msgpack:"width"`
	Height     uint32  `json:"height" msgpack:"height"`
	Gun        GunType `json:"gun" msgpack:"gun"`
	CurrHealth uint32  `json:"curr_health" msgpack:"curr_health"`
	MaxHealth  uint32  `json:"max_health" msgpack:"max_health"`
	Style      Style   `json:"style" msgpack:"style"`
}

// Raft 每一方的基地平台
type Raft struct {
	Entity       Entity        `json:"entity" msgpack:"entity"`
	Width        uint32        `json:"width" msgpack:"width"`
	Height       uint32        `json:"height" msgpack:"height"`
	MaxHealth    uint32        `json:"max_health" msgpack:"max_health"`
	CurrHealth   uint32        `json:"curr_health" msgpack:"curr_health"`
	RaftFighters []RaftFighter `json:"raft_fighters" msgpack:"raft_fighters"`
	Style        Style         `json:"style" msgpack:"style"`
}

type Projectile struct {
	Entity Entity `json:"entity" msgpack:"entity"`
	Radius uint32 `json:"radius" msgpack:"radius"`
	Style  Style  `json:"style" msgpack:"style"`
}

// GameState 引擎每次 step 返回的完整快照，整体替换上一帧（不做增量合并）
//
// 二进制协议填充 LeftProjectiles/RightProjectiles；
// 早期文本协议只有一个合并列表，填充 Projectiles。
type GameState struct {
	RaftLeft         Raft         `json:"raft_left" msgpack:"raft_left"`
	RaftRight        Raft         `json:"raft_right" msgpack:"raft_right"`
	LeftProjectiles  []Projectile `json:"left_projectiles,omitempty" msgpack:"left_projectiles,omitempty"`
	RightProjectiles []Projectile `json:"right_projectiles,omitempty" msgpack:"right_projectiles,omitempty"`
	Projectiles      []Projectile `json:"projectiles,omitempty" msgpack:"projectiles,omitempty"`
	Ticks            uint32       `json:"ticks" msgpack:"ticks"`
}

// Split 是否为左右分开的弹丸列表（二进制协议）
func (s *GameState) Split() bool {
	return s.Projectiles == nil
}

// AllProjectiles 返回全部弹丸，与协议形态无关
func (s *GameState) AllProjectiles() []Projectile {
	out := make([]Projectile, 0, len(s.LeftProjectiles)+len(s.RightProjectiles)+len(s.Projectiles))
	out = append(out, s.LeftProjectiles...)
	out = append(out, s.RightProjectiles...)
	out = append(out, s.Projectiles...)
	return out
}
