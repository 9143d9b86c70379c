// Package protocol defines the wire and value types of the color-query
// protocol: positions, ranges, RGBA colors, and the request/response
// payloads of textDocument/documentColor. Coordinates are 0-indexed and
// ranges are end-exclusive, matching the LSP text-position convention.
package protocol

import (
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
)

// DocumentURI identifies a text document, typically as a file:// URI.
type DocumentURI string

// Position in a text document expressed as zero-based line and character
// offsets. Character offsets are measured in UTF-16 code units.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a half-open span [Start, End) in a text document.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Contains reports whether pos falls inside the range.
//
// The character bounds are checked unconditionally: a position (L, C) is
// contained iff Start.Line <= L, End.Line >= L, Start.Character <= C and
// End.Character > C. Color ranges are single-line in practice; callers must
// not rely on multi-line containment beyond this test.
func (r Range) Contains(pos Position) bool {
	if r.Start.Line > pos.Line || r.End.Line < pos.Line {
		return false
	}
	return r.Start.Character <= pos.Character && r.End.Character > pos.Character
}

// Color is an RGBA color with components in the range [0, 1], as reported
// on the wire by analysis clients.
type Color struct {
	Red   float64 `json:"red"`
	Green float64 `json:"green"`
	Blue  float64 `json:"blue"`
	Alpha float64 `json:"alpha"`
}

// ColorInformation is one reported color literal: its source range and value.
type ColorInformation struct {
	Range Range `json:"range"`
	Color Color `json:"color"`
}

// TextDocumentIdentifier identifies a text document in request params.
type TextDocumentIdentifier struct {
	URI DocumentURI `json:"uri"`
}

// DocumentColorParams are the parameters of a textDocument/documentColor
// request.
type DocumentColorParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// MethodDocumentColor is the color-query request method.
const MethodDocumentColor = "textDocument/documentColor"

// FilePathToURI converts a file system path to a file:// URI.
func FilePathToURI(path string) DocumentURI {
	path = filepath.ToSlash(path)

	// Windows drive letters need a leading slash: file:///C:/...
	if runtime.GOOS == "windows" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	u := url.URL{Scheme: "file", Path: path}
	return DocumentURI(u.String())
}

// URIToFilePath converts a file:// URI back to a file system path.
// Non-file URIs are returned unchanged.
func URIToFilePath(uri DocumentURI) string {
	u, err := url.Parse(string(uri))
	if err != nil || u.Scheme != "file" {
		return string(uri)
	}

	path := u.Path
	if runtime.GOOS == "windows" {
		path = strings.TrimPrefix(path, "/")
		path = filepath.FromSlash(path)
	}
	return path
}
