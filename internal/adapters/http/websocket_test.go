package http_test

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/valyala/fasthttp/fasthttputil"

	handler "github.com/samirrijal/horizonmask/internal/adapters/http"
	"github.com/samirrijal/horizonmask/internal/core/domain"
	"github.com/samirrijal/horizonmask/internal/core/editor"
)

type serverMessage struct {
	Type  string `json:"type"`
	Frame struct {
		Points []domain.BoundaryPoint `json:"points"`
	} `json:"frame"`
	Unsaved bool   `json:"unsaved"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

func dialEditor(t *testing.T, deps *handler.Dependencies, kind string) *websocket.Conn {
	t.Helper()
	app := setupApp(deps)
	ln := fasthttputil.NewInmemoryListener()
	go app.Listener(ln)
	t.Cleanup(func() { _ = app.Shutdown() })

	dialer := websocket.Dialer{
		NetDial:          func(_, _ string) (net.Conn, error) { return ln.Dial() },
		HandshakeTimeout: 2 * time.Second,
	}
	conn, _, err := dialer.Dial("ws://editor/ws/mask/"+kind, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readUntil(t *testing.T, conn *websocket.Conn, match func(serverMessage) bool) serverMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if mt != websocket.TextMessage {
			continue
		}
		var msg serverMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode %s: %v", data, err)
		}
		if match(msg) {
			return msg
		}
	}
}

func editorDeps(repo *mockHorizonRepo) *handler.Dependencies {
	return makeDeps(repo, func(d *handler.Dependencies) {
		d.Renderer = nil
		d.Editor = editor.Config{
			SaveDelay:    20 * time.Millisecond,
			TickInterval: 5 * time.Millisecond,
			PollInterval: time.Hour,
		}
	})
}

func TestEditorSession_AddIsSaved(t *testing.T) {
	repo := flatLimit(10)
	conn := dialEditor(t, editorDeps(repo), handler.KindHorizon)

	readUntil(t, conn, func(m serverMessage) bool {
		return m.Type == "state" && len(m.Frame.Points) == 2
	})

	if err := conn.WriteJSON(editor.Event{Type: editor.Add, Alt: 30, Az: 90}); err != nil {
		t.Fatal(err)
	}
	readUntil(t, conn, func(m serverMessage) bool {
		return m.Type == "state" && len(m.Frame.Points) == 3 && !m.Unsaved
	})

	if repo.replaceCount() != 1 {
		t.Fatalf("expected one save, got %d", repo.replaceCount())
	}
	stored, _ := repo.Get(context.Background())
	if len(stored) != 3 || stored[1] != (domain.BoundaryPoint{Alt: 30, Az: 90}) {
		t.Errorf("unexpected stored set %+v", stored)
	}
}

func TestEditorSession_BadInputIsNotice(t *testing.T) {
	conn := dialEditor(t, editorDeps(flatLimit(10)), handler.KindHorizon)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	msg := readUntil(t, conn, func(m serverMessage) bool { return m.Type == "notice" })
	if msg.Level != editor.LevelWarn || msg.Message != "invalid JSON" {
		t.Errorf("unexpected notice %+v", msg)
	}

	if err := conn.WriteJSON(editor.DeleteAt(9)); err != nil {
		t.Fatal(err)
	}
	readUntil(t, conn, func(m serverMessage) bool { return m.Type == "notice" })
}

func TestEditorSession_DeleteWithoutIndexKeepsPoints(t *testing.T) {
	repo := flatLimit(10)
	conn := dialEditor(t, editorDeps(repo), handler.KindHorizon)

	readUntil(t, conn, func(m serverMessage) bool { return m.Type == "state" && len(m.Frame.Points) == 2 })
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"delete"}`)); err != nil {
		t.Fatal(err)
	}
	msg := readUntil(t, conn, func(m serverMessage) bool { return m.Type == "notice" })
	if msg.Level != editor.LevelWarn || msg.Message != "delete needs an index" {
		t.Errorf("unexpected notice %+v", msg)
	}
	time.Sleep(100 * time.Millisecond)
	if repo.replaceCount() != 0 {
		t.Error("a delete without an index must not change the stored set")
	}
}

func TestEditorSession_ModelIsReadOnly(t *testing.T) {
	repo := flatLimit(10)
	conn := dialEditor(t, editorDeps(repo), handler.KindModel)

	readUntil(t, conn, func(m serverMessage) bool { return m.Type == "state" })
	if err := conn.WriteJSON(editor.Event{Type: editor.Add, Alt: 30, Az: 90}); err != nil {
		t.Fatal(err)
	}
	readUntil(t, conn, func(m serverMessage) bool {
		return m.Type == "state" && len(m.Frame.Points) == 2 && !m.Unsaved
	})
	if repo.replaceCount() != 0 {
		t.Error("pointing model edits must never reach the horizon store")
	}
}
