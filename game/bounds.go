package game

import "fmt"

// CheckBounds 检查所有实体坐标是否落在世界范围内。
// 只做提示用途：越界由引擎负责，客户端只记录。
func (s *GameState) CheckBounds(maxX, maxY uint32) error {
	check := func(what string, p Position) error {
		if p.X > maxX || p.Y > maxY {
			return fmt.Errorf("%s at (%d,%d) outside world (%d,%d)", what, p.X, p.Y, maxX, maxY)
		}
		return nil
	}
	for _, side := range []struct {
		name string
		raft *Raft
	}{{"raft_left", &s.RaftLeft}, {"raft_right", &s.RaftRight}} {
		if err := check(side.name, side.raft.Entity.Position); err != nil {
			return err
		}
		for i, f := range side.raft.RaftFighters {
			if err := check(fmt.Sprintf("%s.raft_fighters[%d]", side.name, i), f.Entity.Position); err != nil {
				return err
			}
		}
	}
	for i, p := range s.AllProjectiles() {
		if err := check(fmt.Sprintf("projectile[%d]", i), p.Entity.Position); err != nil {
			return err
		}
	}
	return nil
}
