package input

import "sync"

// Key 键盘按键标识（与浏览器 KeyboardEvent.key 一致）
type Key string

const (
	KeyD          Key = "d"
	KeyShiftD     Key = "D"
	KeyA          Key = "a"
	KeyShiftA     Key = "A"
	KeyS          Key = "s"
	KeyShiftS     Key = "S"
	KeyW          Key = "w"
	KeyP          Key = "p"
	KeyShiftP     Key = "P"
	KeyZ          Key = "z"
	KeyShiftZ     Key = "Z"
	KeySpace      Key = " "
	KeyEscape     Key = "Escape"
	KeyArrowUp    Key = "ArrowUp"
	KeyArrowDown  Key = "ArrowDown"
	KeyArrowLeft  Key = "ArrowLeft"
	KeyArrowRight Key = "ArrowRight"
)

var allowed = map[Key]struct{}{
	KeyD: {}, KeyShiftD: {}, KeyA: {}, KeyShiftA: {}, KeyS: {}, KeyShiftS: {},
	KeyW: {}, KeyP: {}, KeyShiftP: {}, KeyZ: {}, KeyShiftZ: {}, KeySpace: {},
	KeyEscape: {}, KeyArrowUp: {}, KeyArrowDown: {}, KeyArrowLeft: {}, KeyArrowRight: {},
}

// Known 是否在允许的按键列表内
func Known(k Key) bool {
	_, ok := allowed[k]
	return ok
}

// KeySet 某一帧采样得到的按键快照（只读）
type KeySet struct {
	pressed map[Key]struct{}
}

// NewKeySet 由按键列表构造快照，未知按键被忽略
func NewKeySet(keys ...Key) KeySet {
	ks := KeySet{pressed: make(map[Key]struct{}, len(keys))}
	for _, k := range keys {
		if Known(k) {
			ks.pressed[k] = struct{}{}
		}
	}
	return ks
}

func (ks KeySet) Has(k Key) bool {
	_, ok := ks.pressed[k]
	return ok
}

func (ks KeySet) Len() int { return len(ks.pressed) }

// KeyState 当前按下的按键表，由输入端（WS/终端）写入，每帧 Snapshot 一次
type KeyState struct {
	mu      sync.Mutex
	pressed map[Key]struct{}
}

func NewKeyState() *KeyState {
	return &KeyState{pressed: make(map[Key]struct{})}
}

// Down 记录按下；未知按键返回 false
func (s *KeyState) Down(k Key) bool {
	if !Known(k) {
		return false
	}
	s.mu.Lock()
	s.pressed[k] = struct{}{}
	s.mu.Unlock()
	return true
}

// Up 记录抬起；未知按键返回 false
func (s *KeyState) Up(k Key) bool {
	if !Known(k) {
		return false
	}
	s.mu.Lock()
	delete(s.pressed, k)
	s.mu.Unlock()
	return true
}

func (s *KeyState) Reset() {
	s.mu.Lock()
	s.pressed = make(map[Key]struct{})
	s.mu.Unlock()
}

// Snapshot 拷贝出当前帧的只读快照
func (s *KeyState) Snapshot() KeySet {
	s.mu.Lock()
	defer s.mu.Unlock()
	ks := KeySet{pressed: make(map[Key]struct{}, len(s.pressed))}
	for k := range s.pressed {
		ks.pressed[k] = struct{}{}
	}
	return ks
}
