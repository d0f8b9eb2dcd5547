package engine

import "paddlebattle/game"

const (
	WorldMaxX uint32 = 10_000
	WorldMaxY uint32 = 10_000

	velocityGainNormal int32 = 5
	velocityGainBoost  int32 = 50

	defaultRaftHealth   uint32 = 10_000
	defaultRaftWidth           = WorldMaxX / 4
	defaultRaftHeight          = WorldMaxY / 10
	defaultFighterWidth        = defaultRaftWidth / 10
	defaultFighterHeight       = defaultRaftHeight / 10

	defaultProjectileRadius = WorldMaxX / 50 / 2

	// 每隔多少 tick 速度衰减一次
	raftDecayEvery       = 20
	projectileDecayEvery = 50
)

// sineTable 弹丸纵向摆动，放大 1000 倍避免浮点
var sineTable = [8]int32{0, 707, 1000, 707, 0, -707, -1000, -707}

const sineAmplitude = 100

func fireRate(g game.GunType) uint32 {
	switch g {
	case game.SMG:
		return 20
	case game.Bazooka:
		return 500
	default:
		return 100
	}
}

func gunStyle(g game.GunType) game.Style {
	switch g {
	case game.Bazooka:
		return game.Style{Color: "#FF0000"}
	case game.SMG:
		return game.Style{Color: "#00FF00"}
	case game.FlameThrower:
		return game.Style{Color: "#FFA500"}
	default:
		return game.Style{Color: "#0000FF"}
	}
}

// gunBallistics 弹丸半径与初速
func gunBallistics(g game.GunType) (uint32, int32) {
	switch g {
	case game.Bazooka:
		return defaultProjectileRadius * 2, 5
	case game.SMG:
		return defaultProjectileRadius, 10
	case game.FlameThrower:
		return defaultProjectileRadius, 8
	default:
		return defaultProjectileRadius, 12
	}
}
