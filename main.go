package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paddlebattle/config"
	"paddlebattle/engine"
	"paddlebattle/game"
	"paddlebattle/logging"
	"paddlebattle/server"
	"paddlebattle/tui"
)

// Paddle Battle 入口：web 模式提供 WebSocket + 管理接口，tui 模式直接在终端对战
func main() {
	cfg, err := config.Load(".env", os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	if err := logging.Init(cfg.LogFile, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		logging.Log.Errorw("exit", "err", err)
		logging.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	enc, err := server.ParseFrameEncoding(cfg.FrameEncoding)
	if err != nil {
		return err
	}
	opts := server.Options{
		Format:       cfg.Format,
		Encoding:     enc,
		FPS:          cfg.FPS,
		TicksPerLoop: cfg.TicksPerLoop,
		PollInterval: cfg.PollInterval,
	}
	factory := func(left, right game.GunType) engine.Engine {
		return engine.NewReference(cfg.Format, engine.WithGuns(left, right))
	}
	m := server.NewSessionManager(ctx, factory, opts)

	// 默认会话，协议不匹配时在这里直接失败
	sess, err := m.Create(cfg.LeftGun, cfg.RightGun)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if cfg.ReplayFile != "" {
		data, err := os.ReadFile(cfg.ReplayFile)
		if err != nil {
			return fmt.Errorf("read replay: %w", err)
		}
		n, err := sess.LoadReplay(data)
		if err != nil {
			return fmt.Errorf("load replay %s: %w", cfg.ReplayFile, err)
		}
		logging.Log.Infow("replay loaded", "file", cfg.ReplayFile, "codes", n)
	}

	if cfg.Mode == "tui" {
		return runTUI(ctx, sess)
	}
	return runWeb(ctx, cfg.Addr, m)
}

func runTUI(ctx context.Context, sess *server.Session) error {
	surf, events, closeFn, err := tui.Open()
	if err != nil {
		return err
	}
	defer closeFn()
	return tui.Run(ctx, surf, events, sess)
}

func runWeb(ctx context.Context, addr string, m *server.SessionManager) error {
	mux := http.NewServeMux()
	m.Register(mux)
	// 将 / 映射到 web 目录的静态资源（画布客户端）
	mux.Handle("/", http.FileServer(http.Dir("web")))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		logging.Log.Infof("Paddle Battle listening on %s; open http://localhost%v/", addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 优雅退出（Ctrl+C）
	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}
	logging.Log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
