// Package shadow manages shadow map atlases: rectangle allocation inside them and the per-frame
// shadow views, caster lists and batch queues that render into them.
package shadow

import (
	"github.com/Carmen-Shannon/oxy-vis/common"
)

// AreaAllocator packs rectangles into a fixed area. It keeps the maximal free rectangles left
// after each allocation and always picks the smallest free rectangle that fits, ties going to the
// topmost, then leftmost one, so the same sequence of requests always yields the same placement.
type AreaAllocator struct {
	width  int
	height int
	free   []common.IntRect
	used   int
}

// NewAreaAllocator creates an allocator for a width x height area.
func NewAreaAllocator(width, height int) *AreaAllocator {
	a := &AreaAllocator{}
	a.Reset(width, height)
	return a
}

// Reset releases every allocation and resizes the area.
//
// Parameters:
//   - width: the area width, values below 0 become 0
//   - height: the area height, values below 0 become 0
func (a *AreaAllocator) Reset(width, height int) {
	a.width = max(width, 0)
	a.height = max(height, 0)
	a.free = a.free[:0]
	a.used = 0
	if a.width > 0 && a.height > 0 {
		a.free = append(a.free, common.NewIntRect(0, 0, a.width, a.height))
	}
}

// Allocate reserves a width x height rectangle.
//
// Parameters:
//   - width: the requested width
//   - height: the requested height
//
// Returns:
//   - common.IntRect: the reserved rectangle
//   - bool: false if the size is not positive or no free space fits it
func (a *AreaAllocator) Allocate(width, height int) (common.IntRect, bool) {
	if width <= 0 || height <= 0 {
		return common.IntRect{}, false
	}

	best := -1
	for i, r := range a.free {
		if r.Width() < width || r.Height() < height {
			continue
		}
		if best < 0 || better(r, a.free[best]) {
			best = i
		}
	}
	if best < 0 {
		return common.IntRect{}, false
	}

	origin := a.free[best]
	reserved := common.NewIntRect(origin.Left, origin.Top, origin.Left+width, origin.Top+height)

	// Carve the reserved rectangle out of every free rectangle it overlaps.
	next := make([]common.IntRect, 0, len(a.free)+4)
	for _, r := range a.free {
		if !r.Overlaps(reserved) {
			next = append(next, r)
			continue
		}
		if reserved.Left > r.Left {
			next = append(next, common.NewIntRect(r.Left, r.Top, reserved.Left, r.Bottom))
		}
		if reserved.Right < r.Right {
			next = append(next, common.NewIntRect(reserved.Right, r.Top, r.Right, r.Bottom))
		}
		if reserved.Top > r.Top {
			next = append(next, common.NewIntRect(r.Left, r.Top, r.Right, reserved.Top))
		}
		if reserved.Bottom < r.Bottom {
			next = append(next, common.NewIntRect(r.Left, reserved.Bottom, r.Right, r.Bottom))
		}
	}
	a.free = removeContained(next)
	a.used += width * height
	return reserved, true
}

func better(r, current common.IntRect) bool {
	if r.Area() != current.Area() {
		return r.Area() < current.Area()
	}
	if r.Top != current.Top {
		return r.Top < current.Top
	}
	return r.Left < current.Left
}

// removeContained drops free rectangles that lie inside another one, keeping the first of
// identical duplicates.
func removeContained(rects []common.IntRect) []common.IntRect {
	out := rects[:0]
	for i, r := range rects {
		contained := false
		for j, other := range rects {
			if i == j || !other.Contains(r) {
				continue
			}
			if other != r || j < i {
				contained = true
				break
			}
		}
		if !contained {
			out = append(out, r)
		}
	}
	return out
}

func (a *AreaAllocator) Width() int {
	return a.width
}

func (a *AreaAllocator) Height() int {
	return a.height
}

// UsedArea returns the total area handed out since the last Reset.
func (a *AreaAllocator) UsedArea() int {
	return a.used
}

// FreeRects returns a copy of the current maximal free rectangles.
func (a *AreaAllocator) FreeRects() []common.IntRect {
	out := make([]common.IntRect, len(a.free))
	copy(out, a.free)
	return out
}
