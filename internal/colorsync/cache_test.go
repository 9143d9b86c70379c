package colorsync

import (
	"testing"

	"github.com/dshills/huestorm/internal/highlight"
	"github.com/dshills/huestorm/internal/protocol"
)

func TestService_Pick(t *testing.T) {
	svc, _ := newTestService(t)
	c := newFakeClient("srv")
	svc.RegisterClient(c)
	svc.Attach(docA)

	// One cached entry: range [(2,0), (2,5)), red, alpha 1.0.
	c.last().respond(redInfo())

	got, ok := svc.Pick(docA, protocol.Position{Line: 2, Character: 3})
	if !ok {
		t.Fatal("expected a hit inside the range")
	}
	if got.StartColumn != 1 || got.EndColumn != 5 {
		t.Errorf("columns = (%d, %d), want (1, 5)", got.StartColumn, got.EndColumn)
	}
	if got.Color != (highlight.RGB{R: 255}) {
		t.Errorf("color = %+v, want pure red", got.Color)
	}
	if got.Alpha != 1.0 {
		t.Errorf("alpha = %v, want 1.0", got.Alpha)
	}

	if _, ok := svc.Pick(docA, protocol.Position{Line: 2, Character: 5}); ok {
		t.Error("end position is exclusive; expected no hit")
	}
	if _, ok := svc.Pick(docA, protocol.Position{Line: 3, Character: 0}); ok {
		t.Error("next line is outside the range; expected no hit")
	}
}

func TestService_PickSecondEntry(t *testing.T) {
	svc, _ := newTestService(t)
	c := newFakeClient("srv")
	svc.RegisterClient(c)
	svc.Attach(docA)

	c.last().respond(
		infoAt(0, 0, 4, protocol.Color{Red: 1, Alpha: 1}),
		infoAt(0, 10, 17, protocolGreen()),
	)

	got, ok := svc.Pick(docA, protocol.Position{Line: 0, Character: 12})
	if !ok {
		t.Fatal("expected a hit in the second entry")
	}
	if got.StartColumn != 11 || got.EndColumn != 17 {
		t.Errorf("columns = (%d, %d), want (11, 17)", got.StartColumn, got.EndColumn)
	}
	if got.Color != (highlight.RGB{G: 255}) {
		t.Errorf("color = %+v, want pure green", got.Color)
	}
}

func TestService_PickUnattached(t *testing.T) {
	svc, _ := newTestService(t)

	if _, ok := svc.Pick("file:///nope.go", protocol.Position{}); ok {
		t.Error("unattached document should yield no hit")
	}
}

func TestService_CachedInfoUnattached(t *testing.T) {
	svc, _ := newTestService(t)

	got := svc.CachedInfo("file:///nope.go")
	if got == nil {
		t.Fatal("expected an empty map, not nil")
	}
	if len(got) != 0 {
		t.Errorf("expected empty map, got %v", got)
	}
}

func TestService_CacheEntryStyleDeduplicated(t *testing.T) {
	svc, _ := newTestService(t)
	c := newFakeClient("srv")
	svc.RegisterClient(c)
	svc.Attach(docA)

	// Two ranges with the identical color share one descriptor.
	c.last().respond(
		infoAt(0, 0, 4, protocol.Color{Red: 1, Alpha: 1}),
		infoAt(5, 2, 6, protocol.Color{Red: 1, Alpha: 0.5}),
	)

	entries := svc.CachedInfo(docA)[c.id]
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Style != entries[1].Style {
		t.Error("identical triples must resolve to the same style descriptor")
	}
	if entries[0].Alpha == entries[1].Alpha {
		t.Error("alpha is carried per entry, not part of the style key")
	}
}
