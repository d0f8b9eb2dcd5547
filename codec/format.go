package codec

import (
	"fmt"
	"strings"

	"paddlebattle/game"
)

// SchemaVersion 二进制字段顺序的版本号；引擎调整字段编号时必须同步递增
const SchemaVersion = 1

// Format 快照的线上格式
type Format int

const (
	// FormatBinary 整数键的 CBOR map（当前引擎）
	FormatBinary Format = iota
	// FormatText 带字段名的 JSON（早期引擎，弹丸只有一个合并列表）
	FormatText
)

func (f Format) String() string {
	switch f {
	case FormatBinary:
		return "binary"
	case FormatText:
		return "text"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat 支持 binary/cbor 与 text/json 两组别名
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "binary", "cbor":
		return FormatBinary, nil
	case "text", "json":
		return FormatText, nil
	default:
		return 0, fmt.Errorf("unknown wire format %q", s)
	}
}

// Decode 统一入口：按格式解码并校验，失败时绝不返回半成品
func Decode(f Format, b []byte) (*game.GameState, error) {
	var (
		s   *game.GameState
		err error
	)
	switch f {
	case FormatBinary:
		s, err = DecodeBinary(b)
	case FormatText:
		s, err = DecodeText(b)
	default:
		return nil, fmt.Errorf("decode: unsupported format %v", f)
	}
	if err != nil {
		return nil, err
	}
	if err := Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Encode 与 Decode 相反的编码契约（引擎侧字段顺序）
func Encode(f Format, s *game.GameState) ([]byte, error) {
	switch f {
	case FormatBinary:
		return EncodeBinary(s)
	case FormatText:
		return EncodeText(s)
	default:
		return nil, fmt.Errorf("encode: unsupported format %v", f)
	}
}
