// Package monitor exposes the receiver's rendered frames over a websocket and its health as JSON.
package monitor

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/callebjorkell/pixel-mesh/internal/neopixel"
	"github.com/gorilla/websocket"
	"github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"
)

// Status is what the receiver reports about itself.
type Status interface {
	HasData() bool
	State() string
}

type Server struct {
	mu        sync.RWMutex
	status    Status
	registry  metrics.Registry
	clients   map[*websocket.Conn]bool
	frameID   uint64
	startTime time.Time
	upgrader  websocket.Upgrader
}

type frameMessage struct {
	T          int64  `json:"t"`
	FrameID    uint64 `json:"frame_id"`
	Brightness uint8  `json:"brightness"`
	RGB        []byte `json:"rgb"`
}

func New(status Status, registry metrics.Registry) *Server {
	return &Server{
		status:    status,
		registry:  registry,
		clients:   map[*websocket.Conn]bool{},
		startTime: time.Now(),
		upgrader:  websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleFramesWS)
	mux.HandleFunc("/health", s.HandleHealth)
	return mux
}

func (s *Server) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug("Websocket upgrade failed: ", err)
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()
	log.Debugf("Frame monitor connected from %v", conn.RemoteAddr())

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := map[string]any{
		"frame_id": s.frameID,
		"uptime_s": time.Since(s.startTime).Seconds(),
		"clients":  len(s.clients),
		"has_data": s.status.HasData(),
		"state":    s.status.State(),
	}
	s.mu.RUnlock()

	if s.registry != nil {
		counters := map[string]any{}
		s.registry.Each(func(name string, m interface{}) {
			switch v := m.(type) {
			case metrics.Counter:
				counters[name] = v.Count()
			case metrics.Timer:
				counters[name] = map[string]any{
					"count":   v.Count(),
					"mean_ms": v.Mean() / float64(time.Millisecond),
					"max_ms":  float64(v.Max()) / float64(time.Millisecond),
				}
			}
		})
		resp["metrics"] = counters
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Broadcast sends a flushed frame to all connected clients. Colors are sent as RGB triplets with
// brightness already applied.
func (s *Server) Broadcast(f neopixel.Frame) {
	rgb := make([]byte, 0, len(f.Colors)*3)
	for _, c := range f.Colors {
		c = neopixel.WithBrightness(c, f.Brightness)
		rgb = append(rgb, byte(c>>16), byte(c>>8), byte(c))
	}

	s.mu.Lock()
	s.frameID++
	msg := frameMessage{T: time.Now().UnixNano(), FrameID: s.frameID, Brightness: f.Brightness, RGB: rgb}
	s.mu.Unlock()

	b, err := json.Marshal(msg)
	if err != nil {
		log.Warn("Unable to encode frame: ", err)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug("Unable to write frame: ", err)
		}
	}
}
