package sse

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kbukum/shadowkit/logger"
)

// Stream describes one SSE response.
type Stream struct {
	// Topic selects the live events.
	Topic string
	// Replay returns the events published so far, in Seq order. It is called
	// after the client has subscribed, so nothing falls between the replay
	// and the live events.
	Replay func() []Event
	// Follow keeps the stream open for live events after the replay.
	Follow bool
	// KeepAlive is the comment interval on idle streams; zero means 30s.
	KeepAlive time.Duration
}

type connectedEvent struct {
	ClientID string `json:"client_id"`
	Topic    string `json:"topic"`
}

// Serve writes s to w until the replay is done (Follow false), the client
// goes away, or the hub stops.
func Serve(hub *Hub, w http.ResponseWriter, r *http.Request, s Stream) {
	log := hub.log
	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Error("streaming not supported", logger.Fields("topic", s.Topic))
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// Long-lived streams must outlive the server's WriteTimeout.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		log.Debug("could not clear write deadline", logger.Fields("topic", s.Topic, logger.FieldError, err.Error()))
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	client := NewClient(s.Topic, 0)
	if s.Follow {
		hub.Register(client)
		defer hub.Unregister(client)
	}

	data, _ := json.Marshal(connectedEvent{ClientID: client.ID(), Topic: s.Topic})
	if _, err := (Event{Type: EventTypeConnected, Data: data}).WriteTo(w); err != nil {
		return
	}

	var last int64
	if s.Replay != nil {
		for _, e := range s.Replay() {
			if _, err := e.WriteTo(w); err != nil {
				return
			}
			last = max(last, e.Seq)
		}
	}
	flusher.Flush()
	if !s.Follow {
		return
	}

	interval := s.KeepAlive
	if interval <= 0 {
		interval = 30 * time.Second
	}
	keepAlive := time.NewTicker(interval)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			log.Debug("client disconnected", logger.Fields("client_id", client.ID()))
			return
		case e, ok := <-client.Events():
			if !ok {
				return
			}
			if e.Seq > 0 && e.Seq <= last {
				continue
			}
			if _, err := e.WriteTo(w); err != nil {
				return
			}
			last = max(last, e.Seq)
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
