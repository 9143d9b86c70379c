package colorsync

import (
	"github.com/dshills/huestorm/internal/highlight"
	"github.com/dshills/huestorm/internal/protocol"
)

// issueRequest sends one color query to a client, cancelling and replacing
// any request already outstanding for the (document, client) pair. On
// transport rejection nothing is recorded; the next explicit update
// retries. Runs on the loop.
func (s *Service) issueRequest(st *documentState, c Client) {
	if !c.Connected() {
		return
	}

	cid := c.ID()
	if prev, ok := st.active[cid]; ok {
		c.CancelRequest(prev)
		delete(st.active, cid)
	}

	uri := st.uri
	id, accepted := c.RequestColors(uri, func(id RequestID, err error, infos []protocol.ColorInformation) {
		s.deliver(uri, cid, id, err, infos)
	})
	if !accepted {
		s.logger.Debug("color request rejected by %s for %s", cid, uri)
		return
	}

	st.active[cid] = id
}

// deliver posts a completed response to the control loop. Invoked by
// transports from their own goroutines.
func (s *Service) deliver(uri protocol.DocumentURI, cid ClientID, id RequestID, err error, infos []protocol.ColorInformation) {
	s.do(func() { s.accept(uri, cid, id, err, infos) })
}

// accept validates a response against the recorded request identity and,
// when it matches and carries a usable payload, replaces the client's
// cache for the document. Runs on the loop.
func (s *Service) accept(uri protocol.DocumentURI, cid ClientID, id RequestID, err error, infos []protocol.ColorInformation) {
	if !s.enabled {
		return
	}

	st := s.docs[uri]
	if st == nil {
		return
	}

	cur, ok := st.active[cid]
	if !ok || cur != id {
		// Superseded by a later request or by detach. Expected under
		// rapid edits, not a failure.
		s.logger.Debug("stale color response from %s for %s dropped", cid, uri)
		return
	}
	delete(st.active, cid)

	if err != nil {
		s.logger.Debug("color response error from %s for %s: %v", cid, uri, err)
		return
	}
	if len(infos) == 0 {
		return
	}

	entries := make([]CacheEntry, 0, len(infos))
	for _, info := range infos {
		rgb := highlight.FromProtocol(info.Color)
		entries = append(entries, CacheEntry{
			Range: info.Range,
			Color: rgb,
			Alpha: info.Color.Alpha,
			Style: s.styles.Ensure(rgb),
		})
	}

	st.cached[cid] = entries
	if st.observer != nil {
		st.observer(cid, entries)
	}
}

// cancelAll cancels every outstanding request for the document at its
// transport (when still connected) and clears the bookkeeping. Runs on
// the loop.
func (s *Service) cancelAll(st *documentState) {
	for cid, id := range st.active {
		if c, ok := s.clients[cid]; ok && c.Connected() {
			c.CancelRequest(id)
		}
	}
	st.active = make(map[ClientID]RequestID)
}

// dropClient removes one client from one document: cancel, tombstone,
// forget. Runs on the loop.
func (s *Service) dropClient(st *documentState, cid ClientID, c Client) {
	if id, ok := st.active[cid]; ok {
		if c != nil && c.Connected() {
			c.CancelRequest(id)
		}
		delete(st.active, cid)
	}

	if st.observer != nil {
		st.observer(cid, nil)
	}
	delete(st.cached, cid)
}
