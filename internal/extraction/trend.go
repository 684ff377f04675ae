package extraction

// trend tracks the intensities visited by a walk away from a heat source.
//
// The walk is decreasing while fewer than window values have been seen. After
// that it is decreasing only if the value window-1 steps back is strictly
// hotter than the newest one.
type trend struct {
	window int
	values []uint8
}

func newTrend(window int, start uint8) *trend {
	t := &trend{window: window, values: make([]uint8, 0, 2*window)}
	t.values = append(t.values, start)
	return t
}

// push records v and reports whether the walk is still decreasing.
func (t *trend) push(v uint8) bool {
	t.values = append(t.values, v)
	n := len(t.values)
	if n < t.window {
		return true
	}
	decreasing := t.values[n-t.window] > v
	if n >= 2*t.window {
		t.values = append(t.values[:0], t.values[n-t.window+1:]...)
	}
	return decreasing
}
