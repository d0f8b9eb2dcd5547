package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"paddlebattle/codec"
	"paddlebattle/game"
)

func TestDefaultValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if c.FrameBudget() != time.Second/60 {
		t.Fatalf("budget = %v", c.FrameBudget())
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	body := "PADDLE_FPS=30\nPADDLE_MODE=tui\nPADDLE_LEFT_GUN=FlameThrower\nOTHER=1\n"
	if err := os.WriteFile(envFile, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PADDLE_FPS", "45")
	t.Setenv("PADDLE_FORMAT", "text")

	c, err := Load(envFile, []string{"-ticks-per-loop", "5", "-right-gun", "StraightShooter"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.FPS != 45 {
		t.Fatalf("env should override .env: fps %d", c.FPS)
	}
	if c.Mode != "tui" || c.LeftGun != game.FlameThrower {
		t.Fatalf(".env not applied: %+v", c)
	}
	if c.Format != codec.FormatText {
		t.Fatalf("format = %v", c.Format)
	}
	if c.TicksPerLoop != 5 || c.RightGun != game.StraightShooter {
		t.Fatalf("flags not applied: %+v", c)
	}
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("PADDLE_FPS", "45")
	c, err := Load("", []string{"-fps", "20"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.FPS != 20 {
		t.Fatalf("fps = %d", c.FPS)
	}
}

func TestLoadMissingEnvFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.env"), nil); err != nil {
		t.Fatalf("missing .env should be ignored: %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name string
		args []string
	}{
		{"bad fps", []string{"-fps", "fast"}},
		{"zero fps", []string{"-fps", "0"}},
		{"bad mode", []string{"-mode", "gui"}},
		{"bad gun", []string{"-left-gun", "Laser"}},
		{"bad format", []string{"-format", "xml"}},
		{"bad encoding", []string{"-frame-encoding", "protobuf"}},
		{"negative ticks", []string{"-ticks-per-loop", "-1"}},
		{"unknown flag", []string{"-speed", "3"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load("", tc.args); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestBadEnvValue(t *testing.T) {
	t.Setenv("PADDLE_TICKS_PER_LOOP", "many")
	if _, err := Load("", nil); err == nil {
		t.Fatalf("expected error for bad env value")
	}
}
