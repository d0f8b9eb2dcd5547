package input

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
)

// ErrMalformedReplay 回放数据不是数字数组
var ErrMalformedReplay = errors.New("malformed replay")

// ParseReplay 解析 JSON 数组形式的录制输入码，如 [0,5,4]
func ParseReplay(data []byte) ([]uint32, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var raw []json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReplay, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: expected a list of codes", ErrMalformedReplay)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after list", ErrMalformedReplay)
	}
	codes := make([]uint32, len(raw))
	for i, n := range raw {
		// 只接受非负整数字面量，字符串/小数/负数一律拒绝
		v, err := strconv.ParseUint(string(n), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: element %d (%s) is not a code", ErrMalformedReplay, i, n)
		}
		codes[i] = uint32(v)
	}
	return codes, nil
}

// Replay 按顺序逐个吐出录制的输入码，耗尽后不再恢复
type Replay struct {
	mu    sync.Mutex
	codes []uint32
	pos   int
}

func NewReplay(codes []uint32) *Replay {
	cp := make([]uint32, len(codes))
	copy(cp, codes)
	return &Replay{codes: cp}
}

// Next 取下一条输入码；耗尽返回 false
func (r *Replay) Next() (uint32, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pos >= len(r.codes) {
		return 0, false
	}
	c := r.codes[r.pos]
	r.pos++
	return c, true
}

func (r *Replay) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.codes) - r.pos
}

func (r *Replay) Done() bool { return r.Remaining() == 0 }

func (r *Replay) Len() int { return len(r.codes) }
