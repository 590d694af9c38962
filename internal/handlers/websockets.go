package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"parking_spot/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	defaultInterval  = 1 * time.Second
	maxInterval      = 10 * time.Second
	maxIntervalMilli = 10_000 // 10s in ms
)

// Envelope used for WebSocket messages.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// The dashboard may be served from another origin (mDNS name, IP), so any
// origin is accepted.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// @Summary      Live spot stream
// @Description  Upgrades to WebSocket and pushes {"type":"spots","data":[...]} whenever the list changes, checked every interval (?interval=2s or ?interval_ms=2000, max 10s).
// @Tags         spots
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	interval := h.parseInterval(c)

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

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	ctx := c.Request.Context()
	last, err := h.sendSpots(ctx, conn, "")
	if err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed_initial", "err", err)
		}
		return
	}

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case <-ticker.C:
			next, err := h.sendSpots(ctx, conn, last)
			if errors.Is(err, errListUnavailable) {
				if werr := writeEnvelope(conn, wsEnvelope{Type: "error", Error: errListSpots}); werr != nil {
					return
				}
				continue
			}
			if err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
			last = next
		}
	}
}

// parseInterval reads ?interval=2s or ?interval_ms=2000 with bounds, falling
// back to the configured push period.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	interval := h.wsInterval
	if interval <= 0 {
		interval = defaultInterval
	}

	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxInterval {
			return d
		}
	}

	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}

	return interval
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

var errListUnavailable = errors.New("spot list unavailable")

// sendSpots pushes the spot list when it differs from the fingerprint of
// the last push and returns the fingerprint now on the wire.
func (h *Handler) sendSpots(ctx context.Context, conn *websocket.Conn, last string) (string, error) {
	spots, err := h.services.Spots.List(ctx)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_list_spots_failed", "err", err)
		}
		return last, errListUnavailable
	}
	fp := spotsFingerprint(spots)
	if fp == last {
		return last, nil
	}
	if err := writeEnvelope(conn, wsEnvelope{Type: "spots", Data: spots}); err != nil {
		return last, err
	}
	return fp, nil
}

func writeEnvelope(conn *websocket.Conn, env wsEnvelope) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(env)
}

// spotsFingerprint changes whenever any spot is added or updated.
func spotsFingerprint(spots []models.SpotState) string {
	var b strings.Builder
	for _, s := range spots {
		b.WriteString(s.ID)
		b.WriteByte('|')
		b.WriteString(s.Status)
		b.WriteByte('|')
		b.WriteString(strconv.FormatInt(s.UpdatedAt.UnixNano(), 10))
		b.WriteByte(';')
	}
	// An empty garage still gets one push.
	return "n=" + strconv.Itoa(len(spots)) + ";" + b.String()
}
