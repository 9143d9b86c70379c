package colorsync

import (
	"github.com/dshills/huestorm/internal/highlight"
	"github.com/dshills/huestorm/internal/protocol"
)

// ClientID identifies a connected language-analysis client.
type ClientID string

// RequestID is an opaque token identifying one outstanding request at a
// client transport. It is used purely for identity comparison.
type RequestID int64

// CacheEntry is one cached color annotation: its source range, its value,
// and the deduplicated style descriptor resolved for it.
type CacheEntry struct {
	Range protocol.Range
	Color highlight.RGB
	Alpha float64
	Style highlight.Style
}

// Observer receives cache updates for one document. An accepted response
// delivers the client's new, non-empty entry slice; a client disconnect
// delivers exactly one call with nil entries (the tombstone).
type Observer func(client ClientID, entries []CacheEntry)

// Client is a connected analysis client capable of answering color
// queries. Implementations live at the transport layer.
type Client interface {
	// ID returns the client's stable identifier.
	ID() ClientID

	// Connected reports whether the client can currently take requests.
	Connected() bool

	// SupportsColor reports whether the client serves the color-query
	// capability for the document.
	SupportsColor(uri protocol.DocumentURI) bool

	// RequestColors issues an asynchronous color query. When the transport
	// accepts the request it returns (id, true) and invokes reply at most
	// once later, from any goroutine, with that id. When it rejects, it
	// returns (0, false) and reply is never invoked.
	RequestColors(uri protocol.DocumentURI, reply ReplyFunc) (RequestID, bool)

	// CancelRequest cancels an outstanding request at the transport.
	// Best-effort: an in-flight response may still arrive afterwards.
	CancelRequest(id RequestID)
}

// ReplyFunc delivers the outcome of a color query.
type ReplyFunc func(id RequestID, err error, infos []protocol.ColorInformation)

// DocumentHost is the editor-side attach primitive: it answers whether a
// document is open and delivers its edit/close events.
type DocumentHost interface {
	// IsOpen reports whether the document is in a valid, open state.
	IsOpen(uri protocol.DocumentURI) bool

	// Watch registers hooks for the document's edit and detach events.
	// Hooks must be invoked asynchronously, never from inside Watch.
	Watch(uri protocol.DocumentURI, hooks WatchHooks)
}

// WatchHooks are the callbacks a DocumentHost invokes for one document.
type WatchHooks struct {
	OnEdit   func(changed protocol.Range)
	OnDetach func()
}

// StyleSource resolves a color triple to a deduplicated style descriptor.
// *highlight.Registry satisfies it.
type StyleSource interface {
	Ensure(c highlight.RGB) highlight.Style
}

// documentState holds everything the core tracks for one attached
// document. It is owned exclusively by the service loop.
type documentState struct {
	uri      protocol.DocumentURI
	cached   map[ClientID][]CacheEntry
	active   map[ClientID]RequestID
	observer Observer
}

func newDocumentState(uri protocol.DocumentURI) *documentState {
	return &documentState{
		uri:    uri,
		cached: make(map[ClientID][]CacheEntry),
		active: make(map[ClientID]RequestID),
	}
}
