package handlers

import (
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"gifting-circle/internal/events"
)

// EventsHandler streams change notifications to clients over SSE so they can
// invalidate and re-fetch
type EventsHandler struct {
	hub *events.Hub
}

// NewEventsHandler creates a new EventsHandler
func NewEventsHandler(hub *events.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// Stream subscribes the client to change signals. An optional ?tables=
// query restricts delivery to a comma-separated list of table names.
func (h *EventsHandler) Stream(c *gin.Context) {
	var tables []string
	if raw := c.Query("tables"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tables = append(tables, t)
			}
		}
	}

	sub := h.hub.Subscribe(tables...)
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ctx := c.Request.Context()

	c.Stream(func(w io.Writer) bool {
		select {
		case table, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent("change", gin.H{"table": table})
			return true
		case <-ctx.Done():
			return false
		}
	})
}
