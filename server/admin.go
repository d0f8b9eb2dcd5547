package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"paddlebattle/codec"
	"paddlebattle/game"
	"paddlebattle/input"
	"paddlebattle/logging"
)

const maxReplayBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Register 挂载 WebSocket、管理与监控接口
func (m *SessionManager) Register(mux *http.ServeMux) {
	mux.HandleFunc("/ws", m.HandleWS)
	mux.HandleFunc("/admin/config", m.HandleAdminConfig)
	mux.HandleFunc("/admin/replay", m.HandleAdminReplay)
	mux.HandleFunc("/admin/session", m.HandleAdminSession)
	mux.HandleFunc("/admin/schema", HandleAdminSchema)
	mux.HandleFunc("/metrics", m.HandleMetrics)
}

// HandleAdminConfig 读取与热更新会话的帧率与每次 step 的 tick 数
// GET /admin/config?session=<id>  返回当前配置
// POST /admin/config?session=<id> 以 JSON 载荷更新部分字段
func (m *SessionManager) HandleAdminConfig(w http.ResponseWriter, r *http.Request) {
	sess, err := m.Lookup(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	type cfg struct {
		FPS          *int `json:"fps,omitempty"`
		TicksPerLoop *int `json:"ticksPerLoop,omitempty"`
	}

	switch r.Method {
	case http.MethodGet:
		fps := int(time.Second / sess.Limiter().Budget())
		tpl := sess.TicksPerLoop()
		writeJSON(w, http.StatusOK, cfg{FPS: &fps, TicksPerLoop: &tpl})
	case http.MethodPost:
		var body cfg
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if body.FPS != nil && (*body.FPS <= 0 || *body.FPS > 1000) {
			http.Error(w, "fps out of range", http.StatusBadRequest)
			return
		}
		if body.TicksPerLoop != nil {
			if err := sess.SetTicksPerLoop(*body.TicksPerLoop); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}
		if body.FPS != nil {
			sess.Limiter().SetBudget(time.Second / time.Duration(*body.FPS))
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		logging.Log.Infow("config updated", "session", sess.ID,
			"budget", sess.Limiter().Budget(), "ticks_per_loop", sess.TicksPerLoop())
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleAdminReplay 安装回放并启动会话
// POST /admin/replay?session=<id>  载荷为输入码 JSON 数组，如 [0,5,4]
func (m *SessionManager) HandleAdminReplay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sess, err := m.Lookup(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxReplayBody))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}
	n, err := sess.LoadReplay(body)
	switch {
	case errors.Is(err, input.ErrMalformedReplay):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	m.Start(sess)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "session": sess.ID, "codes": n})
}

// HandleAdminSession 新建会话，可选择双方武器
// POST /admin/session  {"leftGun":"SMG","rightGun":"Bazooka"}
func (m *SessionManager) HandleAdminSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body := struct {
		LeftGun  *game.GunType `json:"leftGun,omitempty"`
		RightGun *game.GunType `json:"rightGun,omitempty"`
	}{}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	left, right := game.SMG, game.Bazooka
	if body.LeftGun != nil {
		left = *body.LeftGun
	}
	if body.RightGun != nil {
		right = *body.RightGun
	}
	sess, err := m.Create(left, right)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"session": sess.ID, "leftGun": left, "rightGun": right})
}

// HandleAdminSchema 输出文本快照格式的 JSON Schema
func HandleAdminSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, codec.TextSchema())
}

// HandleMetrics 输出指定会话的运行指标
// GET /metrics?session=<id>
func (m *SessionManager) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	sess, err := m.Lookup(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	payload := map[string]any{
		"session":  sess.ID,
		"sessions": m.Len(),
		"started":  sess.Started(),
		"metrics":  sess.Metrics().Snapshot(),
	}
	if st := sess.Current(); st != nil {
		payload["tick"] = st.Ticks
	}
	if err := sess.Err(); err != nil {
		payload["halted"] = err.Error()
	}
	writeJSON(w, http.StatusOK, payload)
}
