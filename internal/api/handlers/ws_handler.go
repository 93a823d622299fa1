package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/callscribe/callscribe/internal/models"
	"github.com/callscribe/callscribe/internal/services"
	"github.com/callscribe/callscribe/internal/utils"
)

// WSHandler streams pipeline progress events over a WebSocket. The
// orchestrator publishes one JSON event per stage to the conversation's redis
// channel; this handler forwards them and closes after a terminal event.
type WSHandler struct {
	pipeline services.PipelineService
	redis    *redis.Client
	upgrader websocket.Upgrader
}

func NewWSHandler(pipeline services.PipelineService, rdb *redis.Client) *WSHandler {
	return &WSHandler{
		pipeline: pipeline,
		redis:    rdb,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (h *WSHandler) ProgressWS(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	conversationID := c.Param("conversation_id")
	if conversationID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "WSHandler.ProgressWS", "missing conversation_id", nil))
		return
	}

	// initial snapshot doubles as the existence check
	snapshot, err := h.pipeline.Progress(c.Request.Context(), conversationID)
	if err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	if b, err := json.Marshal(snapshot); err == nil {
		_ = wc.writeText(b)
	}

	pubsub := h.redis.Subscribe(ctx, services.EventChannel(conversationID))
	defer pubsub.Close()

	// read pump: only there to notice the client going away
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, rerr := conn.ReadMessage(); rerr != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		default:
			m, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				return
			}
			if werr := wc.writeText([]byte(m.Payload)); werr != nil {
				return
			}
			if terminalEvent(m.Payload) {
				return
			}
		}
	}
}

func terminalEvent(payload string) bool {
	var evt struct {
		Status models.ConversationStatus `json:"status"`
	}
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		return false
	}
	return evt.Status == models.StatusCompleted || evt.Status == models.StatusFailed
}
