package protocol

import (
	"encoding/json"
	"runtime"
	"testing"
)

func TestRange_Contains(t *testing.T) {
	rng := Range{
		Start: Position{Line: 2, Character: 0},
		End:   Position{Line: 2, Character: 5},
	}

	tests := []struct {
		name string
		pos  Position
		want bool
	}{
		{"inside", Position{Line: 2, Character: 3}, true},
		{"at start", Position{Line: 2, Character: 0}, true},
		{"last contained character", Position{Line: 2, Character: 4}, true},
		{"end is exclusive", Position{Line: 2, Character: 5}, false},
		{"line before", Position{Line: 1, Character: 3}, false},
		{"line after", Position{Line: 3, Character: 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rng.Contains(tt.pos); got != tt.want {
				t.Errorf("Contains(%+v) = %v, want %v", tt.pos, got, tt.want)
			}
		})
	}
}

func TestRange_Contains_EmptyRange(t *testing.T) {
	rng := Range{
		Start: Position{Line: 1, Character: 4},
		End:   Position{Line: 1, Character: 4},
	}
	if rng.Contains(Position{Line: 1, Character: 4}) {
		t.Error("empty range should contain nothing")
	}
}

func TestColorInformation_Unmarshal(t *testing.T) {
	data := []byte(`{
		"range": {"start": {"line": 3, "character": 10}, "end": {"line": 3, "character": 17}},
		"color": {"red": 1, "green": 0.5, "blue": 0, "alpha": 1}
	}`)

	var info ColorInformation
	if err := json.Unmarshal(data, &info); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if info.Range.Start.Line != 3 || info.Range.Start.Character != 10 {
		t.Errorf("unexpected start: %+v", info.Range.Start)
	}
	if info.Range.End.Character != 17 {
		t.Errorf("unexpected end: %+v", info.Range.End)
	}
	if info.Color.Red != 1 || info.Color.Green != 0.5 || info.Color.Blue != 0 {
		t.Errorf("unexpected color: %+v", info.Color)
	}
}

func TestDocumentColorParams_Marshal(t *testing.T) {
	params := DocumentColorParams{
		TextDocument: TextDocumentIdentifier{URI: "file:///tmp/main.go"},
	}

	data, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `{"textDocument":{"uri":"file:///tmp/main.go"}}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}

func TestURIRoundTrip(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix paths")
	}

	path := "/home/user/project/main.go"
	uri := FilePathToURI(path)
	if uri != "file:///home/user/project/main.go" {
		t.Errorf("unexpected URI: %s", uri)
	}

	if got := URIToFilePath(uri); got != path {
		t.Errorf("round trip: got %s, want %s", got, path)
	}
}

func TestURIToFilePath_NonFileURI(t *testing.T) {
	if got := URIToFilePath("untitled:Untitled-1"); got != "untitled:Untitled-1" {
		t.Errorf("non-file URI should pass through, got %s", got)
	}
}
