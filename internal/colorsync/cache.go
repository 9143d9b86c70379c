package colorsync

import (
	"github.com/dshills/huestorm/internal/highlight"
	"github.com/dshills/huestorm/internal/protocol"
)

// CachedInfo returns the cached color annotations for a document, keyed by
// client, or an empty map when the document is not attached. The returned
// structure is the live cache: callers must treat it as immutable, and the
// service may replace entry slices on any later call.
func (s *Service) CachedInfo(uri protocol.DocumentURI) map[ClientID][]CacheEntry {
	var out map[ClientID][]CacheEntry
	s.do(func() {
		if st := s.docs[uri]; st != nil {
			out = st.cached
		}
	})
	if out == nil {
		out = map[ClientID][]CacheEntry{}
	}
	return out
}

// PickResult is the annotation found under a cursor position. Columns are
// 1-indexed; EndColumn is inclusive.
type PickResult struct {
	StartColumn int
	EndColumn   int
	Color       highlight.RGB
	Alpha       float64
	Style       highlight.Style
}

// Pick returns the first cached entry containing the cursor position, or
// ok=false when none does. When multiple clients report overlapping
// ranges, which one wins is unspecified.
func (s *Service) Pick(uri protocol.DocumentURI, pos protocol.Position) (PickResult, bool) {
	var (
		out   PickResult
		found bool
	)
	s.do(func() {
		st := s.docs[uri]
		if st == nil {
			return
		}
		for _, entries := range st.cached {
			for _, e := range entries {
				if !e.Range.Contains(pos) {
					continue
				}
				out = PickResult{
					StartColumn: e.Range.Start.Character + 1,
					EndColumn:   e.Range.End.Character,
					Color:       e.Color,
					Alpha:       e.Alpha,
					Style:       e.Style,
				}
				found = true
				return
			}
		}
	})
	return out, found
}
