package colorsync

import (
	"context"
	"testing"

	"github.com/dshills/huestorm/internal/config"
	"github.com/dshills/huestorm/internal/highlight"
	"github.com/dshills/huestorm/internal/protocol"
)

// fakeClient records issued requests and hands their reply callbacks to
// the test, which plays the transport by invoking them.
type fakeClient struct {
	id        ClientID
	connected bool
	supports  bool
	accept    bool

	lastID    RequestID
	requests  []fakeRequest
	cancelled []RequestID
}

type fakeRequest struct {
	uri   protocol.DocumentURI
	id    RequestID
	reply ReplyFunc
}

func newFakeClient(id string) *fakeClient {
	return &fakeClient{id: ClientID(id), connected: true, supports: true, accept: true}
}

func (f *fakeClient) ID() ClientID                            { return f.id }
func (f *fakeClient) Connected() bool                         { return f.connected }
func (f *fakeClient) SupportsColor(protocol.DocumentURI) bool { return f.supports }
func (f *fakeClient) CancelRequest(id RequestID)              { f.cancelled = append(f.cancelled, id) }

func (f *fakeClient) RequestColors(uri protocol.DocumentURI, reply ReplyFunc) (RequestID, bool) {
	if !f.accept {
		return 0, false
	}
	f.lastID++
	f.requests = append(f.requests, fakeRequest{uri: uri, id: f.lastID, reply: reply})
	return f.lastID, true
}

func (f *fakeClient) last() fakeRequest {
	return f.requests[len(f.requests)-1]
}

// respond plays a successful transport completion for a recorded request.
func (r fakeRequest) respond(infos ...protocol.ColorInformation) {
	r.reply(r.id, nil, infos)
}

// fakeHost tracks which documents are open and captures watch hooks so
// tests can fire edit/detach events.
type fakeHost struct {
	closed map[protocol.DocumentURI]bool
	hooks  map[protocol.DocumentURI]WatchHooks
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		closed: make(map[protocol.DocumentURI]bool),
		hooks:  make(map[protocol.DocumentURI]WatchHooks),
	}
}

func (h *fakeHost) IsOpen(uri protocol.DocumentURI) bool         { return !h.closed[uri] }
func (h *fakeHost) Watch(uri protocol.DocumentURI, w WatchHooks) { h.hooks[uri] = w }

const docA = protocol.DocumentURI("file:///a.go")

func newTestService(t *testing.T, opts ...Option) (*Service, *fakeHost) {
	t.Helper()

	host := newFakeHost()
	svc := New(host, highlight.NewRegistry(config.HighlightBackground), opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })

	return svc, host
}

func infoAt(line, start, end int, c protocol.Color) protocol.ColorInformation {
	return protocol.ColorInformation{
		Range: protocol.Range{
			Start: protocol.Position{Line: line, Character: start},
			End:   protocol.Position{Line: line, Character: end},
		},
		Color: c,
	}
}

func redInfo() protocol.ColorInformation {
	return infoAt(2, 0, 5, protocol.Color{Red: 1, Alpha: 1})
}

func protocolGreen() protocol.Color {
	return protocol.Color{Green: 1, Alpha: 1}
}

// notify records observer invocations.
type notify struct {
	client  ClientID
	entries []CacheEntry
}

func recorder(calls *[]notify) Observer {
	return func(client ClientID, entries []CacheEntry) {
		*calls = append(*calls, notify{client: client, entries: entries})
	}
}
