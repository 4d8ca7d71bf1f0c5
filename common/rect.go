package common

// IntRect is an integer rectangle with exclusive Right and Bottom edges.
type IntRect struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

func NewIntRect(left, top, right, bottom int) IntRect {
	return IntRect{Left: left, Top: top, Right: right, Bottom: bottom}
}

func (r IntRect) Width() int {
	return r.Right - r.Left
}

func (r IntRect) Height() int {
	return r.Bottom - r.Top
}

func (r IntRect) Area() int {
	return r.Width() * r.Height()
}

// IsEmpty reports whether the rectangle covers no texels.
func (r IntRect) IsEmpty() bool {
	return r.Right <= r.Left || r.Bottom <= r.Top
}

// Overlaps reports whether two rectangles share at least one texel.
func (r IntRect) Overlaps(other IntRect) bool {
	return r.Left < other.Right && other.Left < r.Right && r.Top < other.Bottom && other.Top < r.Bottom
}

// Contains reports whether other lies fully within r.
func (r IntRect) Contains(other IntRect) bool {
	return other.Left >= r.Left && other.Top >= r.Top && other.Right <= r.Right && other.Bottom <= r.Bottom
}
