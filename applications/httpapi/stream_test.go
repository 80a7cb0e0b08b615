package httpapi

import (
	"encoding/json"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/globalprime/inventory-platform/domain/position"
	"github.com/globalprime/inventory-platform/infrastructure/hotlog"
	"github.com/globalprime/inventory-platform/infrastructure/testutil"
)

// TestStreamDeltasDeliversPublishedDelta exercises the websocket upgrade
// end to end: NewHTTPTestServer is required here because a
// httptest.ResponseRecorder doesn't implement the Hijacker a real upgrade
// needs, so the handler can only be driven over a real listening socket.
func TestStreamDeltasDeliversPublishedDelta(t *testing.T) {
	log := hotlog.New("httpapi-stream-test", io.Discard)
	hub := NewDeltaHub(log)
	h := NewHandler(nil, nil, nil, NewMemoryLocateRepository(), nil, hub, log)

	srv := testutil.NewHTTPTestServer(t, NewRouter(h))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream/deltas"
	u, err := url.Parse(wsURL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Give the handler a moment to register the subscriber before publishing.
	time.Sleep(10 * time.Millisecond)

	want := position.Delta{Book: "BOOK1", SecurityID: "SEC1", Sequence: 1}
	hub.Publish(want)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}

	var got position.Delta
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("unmarshal delta: %v", err)
	}
	if got.Book != want.Book || got.SecurityID != want.SecurityID || got.Sequence != want.Sequence {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}
