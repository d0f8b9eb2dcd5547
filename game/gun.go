package game

import "fmt"

// GunType 枪械类型，线上按固定顺序的下标编码
type GunType uint8

const (
	Bazooka GunType = iota
	SMG
	FlameThrower
	StraightShooter
)

// gunNames 下标即编码值，顺序不可调整
var gunNames = [...]string{"Bazooka", "SMG", "FlameThrower", "StraightShooter"}

// GunTypes 返回全部枪械类型（按编码顺序）
func GunTypes() []GunType {
	return []GunType{Bazooka, SMG, FlameThrower, StraightShooter}
}

func (g GunType) Valid() bool {
	return int(g) < len(gunNames)
}

func (g GunType) String() string {
	if !g.Valid() {
		return fmt.Sprintf("GunType(%d)", uint8(g))
	}
	return gunNames[g]
}

// GunTypeFromIndex 下标 -> 枪械类型，越界报错
func GunTypeFromIndex(i uint64) (GunType, error) {
	if i >= uint64(len(gunNames)) {
		return 0, fmt.Errorf("gun index %d out of range [0,%d)", i, len(gunNames))
	}
	return GunType(i), nil
}

// ParseGunType 名称 -> 枪械类型（区分大小写，与引擎一致）
func ParseGunType(name string) (GunType, error) {
	for i, n := range gunNames {
		if n == name {
			return GunType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown gun type %q", name)
}

func (g GunType) MarshalText() ([]byte, error) {
	if !g.Valid() {
		return nil, fmt.Errorf("invalid gun type %d", uint8(g))
	}
	return []byte(gunNames[g]), nil
}

func (g *GunType) UnmarshalText(b []byte) error {
	v, err := ParseGunType(string(b))
	if err != nil {
		return err
	}
	*g = v
	return nil
}
