package server_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/voxmed/voxmed/internal/app"
	"github.com/voxmed/voxmed/internal/segment"
)

func TestDictationSocket(t *testing.T) {
	t.Parallel()

	h, a := newTestHandler(t, app.Deps{})
	if _, err := a.CreateSession(context.Background(), "s1"); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	ts := httptest.NewServer(h)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/sessions/s1"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ev, err := json.Marshal(segment.Event{Text: "bazo normal punto", IsFinal: true, Timestamp: 1})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, ev); err != nil {
		t.Fatalf("Write: %v", err)
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	var upd app.Update
	if err := json.Unmarshal(data, &upd); err != nil {
		t.Fatalf("unmarshal update %q: %v", data, err)
	}
	if !upd.Applied || upd.Doc.Text != "Bazo normal." {
		t.Errorf("update = %+v, want the processed dictation", upd)
	}

	// A malformed frame gets an error frame back; the socket stays open.
	if err := conn.Write(ctx, websocket.MessageText, []byte("{not json")); err != nil {
		t.Fatalf("Write malformed: %v", err)
	}
	_, data, err = conn.Read(ctx)
	if err != nil {
		t.Fatalf("Read error frame: %v", err)
	}
	var werr struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &werr); err != nil {
		t.Fatalf("unmarshal error frame %q: %v", data, err)
	}
	if !strings.Contains(werr.Error, "invalid event") {
		t.Errorf("error frame = %q, want an invalid event message", werr.Error)
	}

	// The connection survives: the next event still applies.
	ev, _ = json.Marshal(segment.Event{Text: "sin líquido libre punto", IsFinal: true, Timestamp: 2})
	if err := conn.Write(ctx, websocket.MessageText, ev); err != nil {
		t.Fatalf("Write second event: %v", err)
	}
	if _, data, err = conn.Read(ctx); err != nil {
		t.Fatalf("Read second update: %v", err)
	}
	if err := json.Unmarshal(data, &upd); err != nil {
		t.Fatalf("unmarshal second update %q: %v", data, err)
	}
	if upd.Doc.Text != "Bazo normal. Sin líquido libre." {
		t.Errorf("Text = %q, want both sentences", upd.Doc.Text)
	}
}

func TestDictationSocket_UnknownSession(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler(t, app.Deps{})
	ts := httptest.NewServer(h)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/sessions/desconocida"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err == nil {
		conn.Close(websocket.StatusNormalClosure, "")
		t.Fatal("Dial = nil error, want upgrade rejected for unknown session")
	}
}
