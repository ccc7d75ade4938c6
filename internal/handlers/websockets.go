package handlers

import (
	"net/http"
	"strconv"
	"time"

	"water_tank/internal/display"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	defaultFlush     = 200 * time.Millisecond
	maxFlush         = 10 * time.Second
	maxFlushMilli    = 10_000
	maxPatchesPerMsg = 512
)

const (
	msgRows  = "rows"
	msgPatch = "patch"
)

// Envelope used for WebSocket messages.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// @Summary      Live board stream
// @Description  WebSocket. Sends {"type":"rows"} with the whole board, then {"type":"patch"} batches.
// @Description  A client that falls behind gets a fresh {"type":"rows"} frame.
// @Tags         dashboard
// @Param        interval     query  string  false  "Patch flush interval, e.g. 200ms"
// @Param        interval_ms  query  int     false  "Patch flush interval in ms"
// @Router       /ws [get]
func (h *Handler) wsBoard(c *gin.Context) {
	flush := h.parseInterval(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go h.startReader(conn, done)

	rows, patches := h.board.Watch()
	defer func() { h.board.Unwatch(patches) }()

	if err := writeEnvelope(conn, wsEnvelope{Type: msgRows, Data: rows}); err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed_initial", "err", err)
		}
		return
	}

	ticker := time.NewTicker(flush)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	var pending []display.Patch
	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case p, ok := <-patches:
			if !ok {
				// fell behind the board: drop the partial batch and start over
				pending = nil
				rows, patches = h.board.Watch()
				if err := writeEnvelope(conn, wsEnvelope{Type: msgRows, Data: rows}); err != nil {
					if h.log != nil {
						h.log.Infow("ws_write_failed_resync", "err", err)
					}
					return
				}
				if h.log != nil {
					h.log.Infow("ws_board_resync")
				}
				continue
			}
			pending = append(pending, p)
			if len(pending) < maxPatchesPerMsg {
				continue
			}
			if !h.flushPatches(conn, &pending) {
				return
			}
		case <-ticker.C:
			if !h.flushPatches(conn, &pending) {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		}
	}
}

// flushPatches writes the pending batch, if any, and resets it.
func (h *Handler) flushPatches(conn *websocket.Conn, pending *[]display.Patch) bool {
	if len(*pending) == 0 {
		return true
	}
	err := writeEnvelope(conn, wsEnvelope{Type: msgPatch, Data: *pending})
	*pending = nil
	if err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed", "err", err)
		}
		return false
	}
	return true
}

func writeEnvelope(conn *websocket.Conn, env wsEnvelope) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(env)
}

// parseInterval reads ?interval=200ms or ?interval_ms=200 with bounds.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxFlush {
			return d
		}
	}

	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 && v <= maxFlushMilli {
			return time.Duration(v) * time.Millisecond
		}
	}

	return defaultFlush
}

// startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
	}
}
