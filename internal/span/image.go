package span

// minDragSize is the threshold, in percentage points, below which a drag on
// the image canvas counts as a click rather than a region selection.
const minDragSize = 1.0

// defaultPinSize is the side length of the square created for a click.
const defaultPinSize = 5.0

// NormalizeRegion turns raw drag coordinates (percentages of the rendered
// image box) into a stored region. A near-zero drag becomes a fixed 5x5
// square centered on the click point so a plain click still produces a
// usable pin. All bounds are clamped to [0, 100].
func NormalizeRegion(x, y, width, height float64) (nx, ny, nw, nh float64) {
	if width < minDragSize && height < minDragSize {
		x -= defaultPinSize / 2
		y -= defaultPinSize / 2
		width = defaultPinSize
		height = defaultPinSize
	}
	if width < 0 {
		x += width
		width = -width
	}
	if height < 0 {
		y += height
		height = -height
	}
	x = clampPercent(x)
	y = clampPercent(y)
	if x+width > 100 {
		width = 100 - x
	}
	if y+height > 100 {
		height = 100 - y
	}
	return x, y, width, height
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
