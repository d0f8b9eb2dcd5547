package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"paddlebattle/codec"
	"paddlebattle/game"
)

const envPrefix = "PADDLE_"

// Config 进程配置。优先级：默认值 < .env < 环境变量 < 命令行
type Config struct {
	Addr          string
	Mode          string // web | tui
	Format        codec.Format
	FrameEncoding string // json | msgpack
	FPS           int
	TicksPerLoop  int
	PollInterval  time.Duration
	LogFile       string
	LogLevel      string
	LeftGun       game.GunType
	RightGun      game.GunType
	ReplayFile    string
}

func Default() Config {
	return Config{
		Addr:          ":8080",
		Mode:          "web",
		Format:        codec.FormatBinary,
		FrameEncoding: "json",
		FPS:           60,
		TicksPerLoop:  1,
		PollInterval:  4 * time.Millisecond,
		LogFile:       "paddle.log",
		LogLevel:      "info",
		LeftGun:       game.SMG,
		RightGun:      game.Bazooka,
	}
}

// FrameBudget 每帧的最小间隔
func (c Config) FrameBudget() time.Duration {
	if c.FPS <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.FPS)
}

func (c Config) Validate() error {
	var err error
	if c.Addr == "" && c.Mode == "web" {
		err = multierr.Append(err, errors.New("addr is required in web mode"))
	}
	if c.Mode != "web" && c.Mode != "tui" {
		err = multierr.Append(err, fmt.Errorf("mode %q: want web or tui", c.Mode))
	}
	if c.FrameEncoding != "json" && c.FrameEncoding != "msgpack" {
		err = multierr.Append(err, fmt.Errorf("frame encoding %q: want json or msgpack", c.FrameEncoding))
	}
	if c.FPS <= 0 || c.FPS > 1000 {
		err = multierr.Append(err, fmt.Errorf("fps %d out of range 1..1000", c.FPS))
	}
	if c.TicksPerLoop <= 0 {
		err = multierr.Append(err, fmt.Errorf("ticks per loop %d must be positive", c.TicksPerLoop))
	}
	if c.PollInterval <= 0 {
		err = multierr.Append(err, fmt.Errorf("poll interval %v must be positive", c.PollInterval))
	}
	if !c.LeftGun.Valid() || !c.RightGun.Valid() {
		err = multierr.Append(err, errors.New("invalid gun selection"))
	}
	return err
}

// Load 组装配置。envFile 不存在时忽略；args 不含程序名
func Load(envFile string, args []string) (Config, error) {
	cfg := Default()

	vars := map[string]string{}
	if envFile != "" {
		m, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("read %s: %w", envFile, err)
		}
		for k, v := range m {
			vars[k] = v
		}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, envPrefix) {
			vars[k] = v
		}
	}
	if err := cfg.applyEnv(vars); err != nil {
		return cfg, err
	}

	flags := cfg.flagSet()
	if err := flags.Parse(args); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(vars map[string]string) error {
	var err error
	for k, v := range vars {
		name, ok := strings.CutPrefix(k, envPrefix)
		if !ok {
			continue
		}
		err = multierr.Append(err, c.set(strings.ToLower(name), v))
	}
	return err
}

// set 按名字设置单个字段，环境变量与命令行共用
func (c *Config) set(name, v string) error {
	var err error
	switch name {
	case "addr":
		c.Addr = v
	case "mode":
		c.Mode = strings.ToLower(v)
	case "format":
		c.Format, err = codec.ParseFormat(v)
	case "frame_encoding":
		c.FrameEncoding = strings.ToLower(v)
	case "fps":
		c.FPS, err = strconv.Atoi(v)
	case "ticks_per_loop":
		c.TicksPerLoop, err = strconv.Atoi(v)
	case "poll_interval":
		c.PollInterval, err = time.ParseDuration(v)
	case "log_file":
		c.LogFile = v
	case "log_level":
		c.LogLevel = v
	case "left_gun":
		c.LeftGun, err = game.ParseGunType(v)
	case "right_gun":
		c.RightGun, err = game.ParseGunType(v)
	case "replay":
		c.ReplayFile = v
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s%s: %w", envPrefix, strings.ToUpper(name), err)
	}
	return nil
}

// setter 把 set 适配为 flag.Value
type setter struct {
	c    *Config
	name string
	cur  func() string
}

func (s setter) String() string {
	if s.c == nil {
		return ""
	}
	return s.cur()
}

func (s setter) Set(v string) error { return s.c.set(s.name, v) }

func (c *Config) flagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("paddlebattle", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	def := func(name, usage string, cur func() string) {
		fs.Var(setter{c: c, name: name, cur: cur}, strings.ReplaceAll(name, "_", "-"), usage)
	}
	def("addr", "listen address, e.g. :8080", func() string { return c.Addr })
	def("mode", "front-end: web or tui", func() string { return c.Mode })
	def("format", "engine snapshot format: binary or text", func() string { return c.Format.String() })
	def("frame_encoding", "websocket frame encoding: json or msgpack", func() string { return c.FrameEncoding })
	def("fps", "frame rate cap", func() string { return strconv.Itoa(c.FPS) })
	def("ticks_per_loop", "engine ticks per step", func() string { return strconv.Itoa(c.TicksPerLoop) })
	def("poll_interval", "frame limiter poll interval", func() string { return c.PollInterval.String() })
	def("log_file", "log file path, empty for stderr", func() string { return c.LogFile })
	def("log_level", "debug, info, warn or error", func() string { return c.LogLevel })
	def("left_gun", "left raft gun", func() string { return c.LeftGun.String() })
	def("right_gun", "right raft gun", func() string { return c.RightGun.String() })
	def("replay", "replay file (JSON array of input codes)", func() string { return c.ReplayFile })
	return fs
}
