package keyboard

import (
	"strings"
	"testing"
)

func TestMoveWrapsInBothAxes(t *testing.T) {
	e := New("", false)
	e.Move(-1, -1)
	if e.Row != Rows-1 || e.Col != Cols-1 {
		t.Fatalf("expected wrap to bottom-right, got %d,%d", e.Row, e.Col)
	}
	if e.Key() != KeyConfirm {
		t.Fatalf("expected OK under cursor, got %q", e.Key())
	}
	e.Move(1, 1)
	if e.Row != 0 || e.Col != 0 {
		t.Fatalf("expected wrap to origin, got %d,%d", e.Row, e.Col)
	}
}

func TestTypeShiftDeleteConfirm(t *testing.T) {
	e := New("", false)
	// "h" is row 1 col 5 on the lower layer.
	e.Move(1, 5)
	if got := e.Press(); got != Typed {
		t.Fatalf("expected Typed, got %v", got)
	}
	// Shift to upper, type "I" at row 0 col 7.
	e.Row, e.Col = 2, 0
	if got := e.Press(); got != Shifted {
		t.Fatalf("expected Shifted, got %v", got)
	}
	if e.Layer != LayerUpper {
		t.Fatalf("expected upper layer, got %v", e.Layer)
	}
	e.Row, e.Col = 0, 7
	e.Press()
	if e.Buffer != "hI" {
		t.Fatalf("expected hI, got %q", e.Buffer)
	}
	e.Row, e.Col = 1, 9
	if got := e.Press(); got != Deleted {
		t.Fatalf("expected Deleted, got %v", got)
	}
	if e.Buffer != "h" {
		t.Fatalf("expected h after backspace, got %q", e.Buffer)
	}
	e.Row, e.Col = 2, 9
	if got := e.Press(); got != Confirmed {
		t.Fatalf("expected Confirmed, got %v", got)
	}
	if e.Buffer != "h" {
		t.Fatalf("confirm must not mutate buffer, got %q", e.Buffer)
	}
}

func TestLayersCycleThroughSymbols(t *testing.T) {
	e := New("", false)
	e.Row, e.Col = 2, 0
	e.Press()
	e.Press()
	if e.Layer != LayerSymbols {
		t.Fatalf("expected symbols layer, got %v", e.Layer)
	}
	// Literal "#" on the symbols layer.
	e.Row, e.Col = 1, 2
	if got := e.Press(); got != Typed || e.Buffer != "#" {
		t.Fatalf("expected literal #, got %v %q", got, e.Buffer)
	}
	e.Row, e.Col = 2, 0
	e.Press()
	if e.Layer != LayerLower {
		t.Fatalf("expected wrap to lower layer, got %v", e.Layer)
	}
}

func TestBufferLimitAndBackspaceOnEmpty(t *testing.T) {
	e := New(strings.Repeat("a", DefaultMaxLen), false)
	if got := e.Press(); got != Full {
		t.Fatalf("expected Full, got %v", got)
	}
	e = New("", false)
	e.Row, e.Col = 1, 9
	if got := e.Press(); got != Empty {
		t.Fatalf("expected Empty, got %v", got)
	}
}

func TestMaskedDisplayKeepsTail(t *testing.T) {
	e := New("secret", true)
	if got := e.Display(4); got != "****" {
		t.Fatalf("expected masked tail, got %q", got)
	}
	e.Masked = false
	if got := e.Display(3); got != "ret" {
		t.Fatalf("expected tail ret, got %q", got)
	}
}

func TestGridLinesMarkCursor(t *testing.T) {
	e := New("", false)
	lines := e.GridLines()
	if len(lines) != Rows {
		t.Fatalf("expected %d lines, got %d", Rows, len(lines))
	}
	if !strings.HasPrefix(lines[0], "[q]") {
		t.Fatalf("expected cursor on q, got %q", lines[0])
	}
}

func TestCompactLinesFitTwentyColumns(t *testing.T) {
	e := New("", false)
	e.Row, e.Col = 2, 9
	lines := e.CompactLines()
	for i, line := range lines {
		if n := len([]rune(line)); n != 2*Cols {
			t.Fatalf("expected row %d to be %d runes, got %d (%q)", i, 2*Cols, n, line)
		}
	}
	if !strings.HasSuffix(lines[2], ">✓") {
		t.Fatalf("expected cursor on confirm, got %q", lines[2])
	}
}
