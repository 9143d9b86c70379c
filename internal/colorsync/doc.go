// Package colorsync coordinates color-annotation requests between
// language-analysis clients and a per-document, in-memory cache.
//
// The Service owns one state record per attached document. Lifecycle
// events (attach, detach, edit, client connect/disconnect) trigger a full
// fan-out re-request to every capable client; at most one request per
// (document, client) pair is outstanding at any time, and issuing a new
// one cancels and replaces the old. Responses are matched against the
// recorded request identity: a response whose identity has been superseded
// is dropped, which is the sole mechanism giving "last request wins"
// semantics.
//
// All state is owned by a single control-loop goroutine. Public entry
// points and transport completion callbacks post closures to the loop and
// wait for them to execute, so no operation ever observes another
// mid-mutation. Observer callbacks run on the loop and must not call back
// into the Service.
//
// Failures never cross the public surface: a rejected request, an error
// response, or a stale response all degrade to "cache not updated".
// Queries return the last-known-good snapshot, possibly stale but never
// inconsistent.
package colorsync
