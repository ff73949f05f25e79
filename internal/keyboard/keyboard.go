package keyboard

import (
	"strings"
	"unicode/utf8"
)

const (
	Rows = 3
	Cols = 10

	DefaultMaxLen = 100

	KeyBackspace = "<"
	KeyShift     = "#"
	KeyConfirm   = "OK"
)

type Layer int

const (
	LayerLower Layer = iota
	LayerUpper
	LayerSymbols
)

func (l Layer) String() string {
	switch l {
	case LayerUpper:
		return "ABC"
	case LayerSymbols:
		return "123"
	default:
		return "abc"
	}
}

var layouts = [3][Rows][Cols]string{
	{
		{"q", "w", "e", "r", "t", "y", "u", "i", "o", "p"},
		{"a", "s", "d", "f", "g", "h", "j", "k", "l", KeyBackspace},
		{KeyShift, "z", "x", "c", "v", "b", "n", "m", " ", KeyConfirm},
	},
	{
		{"Q", "W", "E", "R", "T", "Y", "U", "I", "O", "P"},
		{"A", "S", "D", "F", "G", "H", "J", "K", "L", KeyBackspace},
		{KeyShift, "Z", "X", "C", "V", "B", "N", "M", ".", KeyConfirm},
	},
	{
		{"1", "2", "3", "4", "5", "6", "7", "8", "9", "0"},
		{"!", "@", "#", "$", "%", "^", "&", "*", "(", ")"},
		{KeyShift, "-", "_", "=", "+", "[", "]", "?", ".", KeyConfirm},
	},
}

type Result int

const (
	Typed Result = iota
	Deleted
	Shifted
	Confirmed
	Full
	Empty
)

// Entry is a text-entry session over the on-screen grid.
type Entry struct {
	Layer  Layer
	Row    int
	Col    int
	Buffer string
	Masked bool
	MaxLen int
}

func New(initial string, masked bool) *Entry {
	e := &Entry{Masked: masked, MaxLen: DefaultMaxLen}
	e.Buffer = clip(initial, e.MaxLen)
	return e
}

func (e *Entry) Key() string {
	return layouts[e.Layer][e.Row][e.Col]
}

func KeyAt(layer Layer, row, col int) string {
	if layer < LayerLower || layer > LayerSymbols || row < 0 || row >= Rows || col < 0 || col >= Cols {
		return ""
	}
	return layouts[layer][row][col]
}

func (e *Entry) Move(dRow, dCol int) {
	e.Row = wrap(e.Row+dRow, Rows)
	e.Col = wrap(e.Col+dCol, Cols)
}

// Press activates the cell under the cursor. Only the bottom-left cell
// cycles layers; the "#" on the symbols layer types a literal.
func (e *Entry) Press() Result {
	k := e.Key()
	switch {
	case e.Row == Rows-1 && e.Col == Cols-1:
		return Confirmed
	case e.Row == Rows-1 && e.Col == 0:
		e.Layer = (e.Layer + 1) % 3
		return Shifted
	case k == KeyBackspace:
		if e.Buffer == "" {
			return Empty
		}
		_, size := utf8.DecodeLastRuneInString(e.Buffer)
		e.Buffer = e.Buffer[:len(e.Buffer)-size]
		return Deleted
	}
	limit := e.MaxLen
	if limit <= 0 {
		limit = DefaultMaxLen
	}
	if utf8.RuneCountInString(e.Buffer) >= limit {
		return Full
	}
	e.Buffer += k
	return Typed
}

// Display renders the buffer for a display of width columns, keeping the
// tail visible.
func (e *Entry) Display(width int) string {
	s := e.Buffer
	if e.Masked {
		s = strings.Repeat("*", utf8.RuneCountInString(s))
	}
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) > width {
		r = r[len(r)-width:]
	}
	return string(r)
}

// GridLines returns the current layer with the cursor cell bracketed.
func (e *Entry) GridLines() []string {
	out := make([]string, 0, Rows)
	for row := 0; row < Rows; row++ {
		var b strings.Builder
		for col := 0; col < Cols; col++ {
			label := layouts[e.Layer][row][col]
			if label == " " {
				label = "_"
			}
			if row == e.Row && col == e.Col {
				b.WriteString("[" + label + "]")
			} else {
				b.WriteString(" " + label + " ")
			}
		}
		out = append(out, strings.TrimRight(b.String(), " "))
	}
	return out
}

// CompactLines fits the grid in two columns per cell: a one-character
// label preceded by ">" at the cursor. Confirm shows as a check mark.
func (e *Entry) CompactLines() []string {
	out := make([]string, 0, Rows)
	for row := 0; row < Rows; row++ {
		var b strings.Builder
		for col := 0; col < Cols; col++ {
			label := layouts[e.Layer][row][col]
			switch label {
			case " ":
				label = "_"
			case KeyConfirm:
				label = "✓"
			}
			if row == e.Row && col == e.Col {
				b.WriteString(">")
			} else {
				b.WriteString(" ")
			}
			b.WriteString(label)
		}
		out = append(out, b.String())
	}
	return out
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
