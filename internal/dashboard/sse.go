package dashboard

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/conclave-hq/conclave/internal/bus"
)

// heartbeatInterval keeps intermediate proxies from closing idle streams.
const heartbeatInterval = 15 * time.Second

// handleSSE streams a session room's notifications as server-sent events.
func handleSSE(hub *bus.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		sub := hub.Subscribe(bus.SessionRoom(c.Param("id")))
		defer hub.Unsubscribe(sub)

		writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
		c.Writer.Flush()

		ctx := c.Request.Context()
		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-heartbeat.C:
				writeSSE(c.Writer, "heartbeat", map[string]string{
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				})
				c.Writer.Flush()
			case n, ok := <-sub.C():
				if !ok {
					return
				}
				writeSSE(c.Writer, n.Event, n.Payload)
				c.Writer.Flush()
			}
		}
	}
}

// writeSSE writes a single SSE frame.
func writeSSE(w io.Writer, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		payload = []byte("{}")
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
}
