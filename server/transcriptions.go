package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/shadowkit/errors"
	"github.com/kbukum/shadowkit/segment"
	"github.com/kbukum/shadowkit/sse"
	"github.com/kbukum/shadowkit/transcription"
	"github.com/kbukum/shadowkit/workspace"
)

// StartRequest is the body of POST /api/transcriptions.
type StartRequest struct {
	Path      string `json:"path" binding:"required"`
	ModelSize string `json:"model_size"`
	Language  string `json:"language"`
}

// RunStatus is the wire form of a run.
type RunStatus struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	ModelSize  string    `json:"model_size"`
	State      string    `json:"state"`
	Language   string    `json:"language,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
	Progress   int       `json:"progress"`
	Segments   int       `json:"segments"`
	StartedAt  time.Time `json:"started_at"`
	Error      string    `json:"error,omitempty"`
}

// SessionStatus is the reply to a session action.
type SessionStatus struct {
	SessionID    string `json:"session_id"`
	SegmentIndex int    `json:"segment_index"`
	Action       string `json:"action"`
	HasRecording bool   `json:"has_recording"`
}

func runStatus(r *segment.Run) RunStatus {
	lang, conf := r.Language()
	st := RunStatus{
		ID:         r.ID(),
		Path:       r.Request().Path,
		ModelSize:  string(r.Request().ModelSize),
		State:      r.State().String(),
		Language:   lang,
		Confidence: conf,
		Progress:   r.Progress(),
		Segments:   len(r.Segments()),
		StartedAt:  r.StartedAt(),
	}
	if err := r.Err(); err != nil {
		st.Error = errors.Message(err)
	}
	return st
}

type transcriptionHandlers struct {
	ws        *workspace.Workspace
	hub       *sse.Hub
	keepAlive time.Duration
}

// RegisterTranscriptions mounts the transcription API on /api/transcriptions.
func (s *Server) RegisterTranscriptions(ws *workspace.Workspace, hub *sse.Hub) {
	h := &transcriptionHandlers{ws: ws, hub: hub, keepAlive: s.config.KeepAlive}
	g := s.engine.Group("/api/transcriptions")
	g.POST("", h.start)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.DELETE("/:id", h.cancel)
	g.GET("/:id/segments", h.segments)
	g.GET("/:id/events", h.events)
	g.POST("/:id/segments/:index/:action", h.sessionAction)
}

func (h *transcriptionHandlers) start(c *gin.Context) {
	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, errors.InvalidInput("body", err.Error()))
		return
	}
	var size transcription.ModelSize
	if req.ModelSize != "" {
		parsed, err := transcription.ParseModelSize(req.ModelSize)
		if err != nil {
			RespondWithError(c, errors.InvalidInput("model_size", err.Error()))
			return
		}
		size = parsed
	}
	run, err := h.ws.StartRun(segment.Request{Path: req.Path, ModelSize: size, Language: req.Language})
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondAccepted(c, gin.H{"id": run.ID()})
}

func (h *transcriptionHandlers) list(c *gin.Context) {
	runs := h.ws.Runs()
	out := make([]RunStatus, len(runs))
	for i, r := range runs {
		out[i] = runStatus(r)
	}
	RespondOK(c, out)
}

func (h *transcriptionHandlers) get(c *gin.Context) {
	run, err := h.ws.Run(c.Param("id"))
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, runStatus(run))
}

func (h *transcriptionHandlers) cancel(c *gin.Context) {
	id := c.Param("id")
	if err := h.ws.CancelRun(id); err != nil {
		RespondWithError(c, err)
		return
	}
	RespondAccepted(c, gin.H{"id": id})
}

func (h *transcriptionHandlers) segments(c *gin.Context) {
	run, err := h.ws.Run(c.Param("id"))
	if err != nil {
		RespondWithError(c, err)
		return
	}
	segs := run.Segments()
	out := make([]workspace.Summary, len(segs))
	for i, s := range segs {
		out[i] = workspace.Summarize(s)
	}
	RespondOK(c, out)
}

// events streams the run's log, then live entries while the client stays.
// ?follow=false ends the stream after the replay.
func (h *transcriptionHandlers) events(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.ws.Run(id); err != nil {
		RespondWithError(c, err)
		return
	}
	sse.Serve(h.hub, c.Writer, c.Request, sse.Stream{
		Topic: workspace.Topic(id),
		Replay: func() []sse.Event {
			events, _ := h.ws.Replay(id)
			return events
		},
		Follow:    c.DefaultQuery("follow", "true") != "false",
		KeepAlive: h.keepAlive,
	})
}

func (h *transcriptionHandlers) sessionAction(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		RespondWithError(c, errors.InvalidInput("index", "segment index must be a non-negative integer"))
		return
	}
	s, err := h.ws.SessionAction(c.Param("id"), index, c.Param("action"))
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondAccepted(c, SessionStatus{
		SessionID:    s.ID(),
		SegmentIndex: index,
		Action:       s.Action().String(),
		HasRecording: s.Segment().HasRecording(),
	})
}
