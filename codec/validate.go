package codec

import (
	"fmt"

	"go.uber.org/multierr"

	"paddlebattle/game"
)

// Validate 解码后的整树校验：枚举取值、弹丸形态；收集全部问题一起返回
func Validate(s *game.GameState) error {
	if s == nil {
		return fmt.Errorf("%w: nil state", ErrInvalid)
	}
	var err error
	err = multierr.Append(err, validateRaft("raft_left", &s.RaftLeft))
	err = multierr.Append(err, validateRaft("raft_right", &s.RaftRight))
	if s.Projectiles != nil && (len(s.LeftProjectiles) > 0 || len(s.RightProjectiles) > 0) {
		err = multierr.Append(err, fmt.Errorf("%w: both combined and per-side projectile lists present", ErrInvalid))
	}
	return err
}

func validateRaft(path string, r *game.Raft) error {
	var err error
	for i, f := range r.RaftFighters {
		if !f.Gun.Valid() {
			err = multierr.Append(err, fmt.Errorf("%w: %s: gun %v", ErrInvalid, index(join(path, "raft_fighters"), i), f.Gun))
		}
	}
	return err
}
