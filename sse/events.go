package sse

import (
	"fmt"
	"io"
	"strings"
)

// EventTypeConnected is sent first on every stream.
const EventTypeConnected = "connected"

// Event is one server-sent event. Seq orders events within a topic and is
// written as the SSE id; zero means unsequenced.
type Event struct {
	Seq  int64
	Type string
	Data []byte
}

// WriteTo writes e in text/event-stream framing.
func (e Event) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	if e.Seq > 0 {
		fmt.Fprintf(&b, "id: %d\n", e.Seq)
	}
	if e.Type != "" {
		fmt.Fprintf(&b, "event: %s\n", e.Type)
	}
	for _, line := range strings.Split(string(e.Data), "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}
