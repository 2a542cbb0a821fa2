package api

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v3"

	"pecommunity/internal/realtime"
)

const heartbeatInterval = 20 * time.Second

// StreamHandler serves the realtime change feed as Server-Sent Events.
type StreamHandler struct {
	hub       *realtime.Hub
	heartbeat time.Duration
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(hub *realtime.Hub) *StreamHandler {
	return &StreamHandler{hub: hub, heartbeat: heartbeatInterval}
}

// Stream subscribes the current user and writes visible events until the
// client disconnects or the subscription is closed (logout, shutdown).
func (h *StreamHandler) Stream(c fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	sub := h.hub.Subscribe(realtime.Viewer{UserID: user.ID, Admin: user.IsAdmin()})

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer sub.Close()
		pump(sub, w, h.heartbeat)
	})
}

// pump copies events from sub to w. A failed flush means the client is gone.
func pump(sub *realtime.Subscription, w *bufio.Writer, heartbeat time.Duration) {
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	fmt.Fprint(w, "retry: 3000\n\n")
	if err := w.Flush(); err != nil {
		return
	}

	for {
		select {
		case <-sub.Done():
			return
		case e := <-sub.Events():
			if err := writeEvent(w, e); err != nil {
				return
			}
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
		}
		if err := w.Flush(); err != nil {
			return
		}
	}
}

// writeEvent writes e in SSE framing with the table as the event name.
func writeEvent(w io.Writer, e realtime.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", e.ID, e.Table, data)
	return err
}
