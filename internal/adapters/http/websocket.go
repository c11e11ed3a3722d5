package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/horizonmask/internal/core/domain"
	"github.com/samirrijal/horizonmask/internal/core/editor"
	"github.com/samirrijal/horizonmask/internal/pkg/metrics"
)

const (
	pingInterval = 30 * time.Second
	outboundSize = 32
)

var errSlowClient = errors.New("websocket client is not keeping up")

type outbound struct {
	kind int
	data []byte
}

type stateMessage struct {
	Type string `json:"type"`
	editor.State
}

type noticeMessage struct {
	Type string `json:"type"`
	editor.Notice
}

// wsSink queues session output for a single writer goroutine, so a slow
// client never blocks the session loop. A full queue fails the draw and the
// canvas stays dirty until the next tick.
type wsSink struct {
	out chan outbound
}

func newSink() *wsSink {
	return &wsSink{out: make(chan outbound, outboundSize)}
}

func (s *wsSink) send(kind int, data []byte) error {
	select {
	case s.out <- outbound{kind: kind, data: data}:
		return nil
	default:
		return errSlowClient
	}
}

func (s *wsSink) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.send(websocket.TextMessage, data)
}

func (s *wsSink) State(st editor.State) error {
	return s.writeJSON(stateMessage{Type: "state", State: st})
}

func (s *wsSink) Frame(png []byte) error {
	return s.send(websocket.BinaryMessage, png)
}

func (s *wsSink) Notice(n editor.Notice) error {
	return s.writeJSON(noticeMessage{Type: "notice", Notice: n})
}

// pump owns every write to c until done is closed or a write fails.
func (s *wsSink) pump(c *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case m := <-s.out:
			if err := c.WriteMessage(m.kind, m.data); err != nil {
				_ = c.Close()
				return
			}
		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.Close()
				return
			}
		case <-done:
			return
		}
	}
}

// gateway picks the sync gateway for a session kind. The pointing model is
// read-only.
func (deps *Dependencies) gateway(kind string) (editor.Gateway, bool) {
	switch kind {
	case KindHorizon:
		if deps.Horizon == nil {
			return nil, false
		}
		return editor.NewGateway(deps.Horizon.Points, func(ctx context.Context, points []domain.BoundaryPoint) error {
			_, err := deps.Horizon.Save(ctx, points)
			return err
		}), true
	case KindModel:
		if deps.Models == nil {
			return nil, false
		}
		return editor.LoadOnly(deps.Models.Points), true
	}
	return nil, false
}

// EditorUpgrade rejects unknown kinds before the connection is upgraded.
func EditorUpgrade(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		if _, ok := deps.gateway(c.Params("kind")); !ok {
			return errNotFound(c, "unknown editor: "+c.Params("kind"))
		}
		return c.Next()
	}
}

// EditorHandler runs one editor session per WebSocket connection.
// Clients send input events as JSON text messages, e.g.
// {"type":"pointer_down","x":200,"y":40} or {"type":"delete","index":2}.
// The server answers with state and notice text messages and PNG frames as
// binary messages.
func EditorHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		kind := c.Params("kind")
		log := slog.Default().With("remote", c.RemoteAddr().String(), "kind", kind)
		gw, ok := deps.gateway(kind)
		if !ok {
			return
		}

		opts := []editor.Option{editor.WithLogger(log)}
		if deps.Renderer != nil {
			opts = append(opts, editor.WithRenderer(deps.Renderer))
		}
		if deps.Hub != nil {
			opts = append(opts, editor.WithPositions(deps.Hub))
		}
		sink := newSink()
		session := editor.New(kind, deps.Editor, gw, sink, opts...)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			if err := session.Run(ctx); err != nil {
				log.Error("editor session stopped", "error", err)
			}
		}()
		remove := deps.Hub.add(kind, session, cancel)

		done := make(chan struct{})
		go sink.pump(c, done)

		// A session stopped by the hub closes the socket so the read loop
		// below returns.
		watched := make(chan struct{})
		go func() {
			defer close(watched)
			<-session.Done()
			_ = c.Close()
		}()

		metrics.ActiveWebSockets.Inc()
		log.Info("editor session opened")

		for {
			mt, msg, err := c.ReadMessage()
			if err != nil {
				break
			}
			if mt != websocket.TextMessage {
				continue
			}
			var ev editor.Event
			if err := json.Unmarshal(msg, &ev); err != nil {
				_ = sink.Notice(editor.Notice{Level: editor.LevelWarn, Message: "invalid JSON"})
				continue
			}
			if ev.Type == editor.Reload {
				// Reloads come from the broker, not from clients.
				continue
			}
			if err := session.Submit(ctx, ev); err != nil {
				break
			}
		}

		remove()
		cancel()
		<-session.Done()
		close(done)
		<-watched
		metrics.ActiveWebSockets.Dec()
		log.Info("editor session closed")
	}
}
