package input

import "fmt"

// NoOp 空操作，同时也是补齐用的哨兵值（Escape 也映射到它）
const NoOp uint32 = 86

// 引擎侧的输入码
const (
	CodeShootLeftRaft      uint32 = 0 // 已废弃，引擎忽略
	CodeMoveLeftRaftRight  uint32 = 1
	CodeMoveLeftRaftLeft   uint32 = 2
	CodeShootRightRaft     uint32 = 3 // 已废弃，引擎忽略
	CodeMoveRightRaftRight uint32 = 4
	CodeMoveRightRaftLeft  uint32 = 5
	CodeAddProjectile      uint32 = 6 // 已废弃，引擎忽略
	CodeBoostLeftRaft      uint32 = 7
	CodeBoostRightRaft     uint32 = 8
	CodeMoveRightRaftUp    uint32 = 9
	CodeMoveRightRaftDown  uint32 = 10
	CodeMoveLeftRaftUp     uint32 = 11
	CodeMoveLeftRaftDown   uint32 = 12
)

var codeNames = map[uint32]string{
	CodeShootLeftRaft:      "shoot_left_raft",
	CodeMoveLeftRaftRight:  "move_left_raft_right",
	CodeMoveLeftRaftLeft:   "move_left_raft_left",
	CodeShootRightRaft:     "shoot_right_raft",
	CodeMoveRightRaftRight: "move_right_raft_right",
	CodeMoveRightRaftLeft:  "move_right_raft_left",
	CodeAddProjectile:      "add_projectile",
	CodeBoostLeftRaft:      "boost_left_raft",
	CodeBoostRightRaft:     "boost_right_raft",
	CodeMoveRightRaftUp:    "move_right_raft_up",
	CodeMoveRightRaftDown:  "move_right_raft_down",
	CodeMoveLeftRaftUp:     "move_left_raft_up",
	CodeMoveLeftRaftDown:   "move_left_raft_down",
	NoOp:                   "noop",
}

// ValidCode 引擎是否认识该输入码
func ValidCode(c uint32) bool {
	_, ok := codeNames[c]
	return ok
}

// CodeName 输入码的可读名称，用于日志
func CodeName(c uint32) string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return fmt.Sprintf("unknown(%d)", c)
}

// binding 一条映射规则：任意一个按键按下即产生 code
type binding struct {
	keys []Key
	code uint32
}

// bindings 顺序即优先级；ArrowDown 与小写 s 各出现两次，保持与引擎约定一致
var bindings = []binding{
	{[]Key{KeyS, KeyShiftS}, CodeShootLeftRaft},
	{[]Key{KeyD, KeyShiftD}, CodeMoveLeftRaftRight},
	{[]Key{KeyA, KeyShiftA}, CodeMoveLeftRaftLeft},
	{[]Key{KeyArrowDown}, CodeShootRightRaft},
	{[]Key{KeyArrowRight}, CodeMoveRightRaftRight},
	{[]Key{KeyArrowLeft}, CodeMoveRightRaftLeft},
	{[]Key{KeyP, KeyShiftP}, CodeAddProjectile},
	{[]Key{KeyZ, KeyShiftZ}, CodeBoostLeftRaft},
	{[]Key{KeySpace}, CodeBoostRightRaft},
	{[]Key{KeyArrowUp}, CodeMoveRightRaftUp},
	{[]Key{KeyArrowDown}, CodeMoveRightRaftDown},
	{[]Key{KeyW}, CodeMoveLeftRaftUp},
	{[]Key{KeyS}, CodeMoveLeftRaftDown},
	{[]Key{KeyEscape}, NoOp},
}

// Codes 按固定优先级把按键快照翻译成输入码（可同时触发多条）
func Codes(ks KeySet) []uint32 {
	var out []uint32
	for _, b := range bindings {
		for _, k := range b.keys {
			if ks.Has(k) {
				out = append(out, b.code)
				break
			}
		}
	}
	return out
}
