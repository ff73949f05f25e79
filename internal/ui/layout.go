package ui

// The simulated display holds DisplayCols x DisplayRows characters.
const (
	DisplayCols = 21
	DisplayRows = 8
)

type LayoutMode int

const (
	LayoutFull LayoutMode = iota
	LayoutCompact
	LayoutTooSmall
)

// DetermineLayoutMode picks how much chrome fits around the display panel.
func DetermineLayoutMode(cols, rows int) LayoutMode {
	panelW, panelH := DisplayCols+2, DisplayRows+2
	if cols < panelW || rows < panelH+2 {
		return LayoutTooSmall
	}
	if cols >= panelW+16 && rows >= panelH+5 {
		return LayoutFull
	}
	return LayoutCompact
}
