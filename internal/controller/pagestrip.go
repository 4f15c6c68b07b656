package controller

// Page strip compression for the pagination widget: when the page count
// exceeds the visible window, distant pages collapse into ellipsis
// markers while the first page, the last page and a window around the
// current page stay visible.

// Visible window sizes per viewport.
const (
	WideWindow   = 5
	NarrowWindow = 3
)

// PageRef is one cell of the rendered page strip. Ellipsis cells carry
// Index -1.
type PageRef struct {
	Index    int
	Ellipsis bool
}

// PageStrip builds the strip for a zero-based current page. When total
// fits inside the window every page is listed; otherwise the first page,
// the last page and a window centered on current are kept, and each gap
// of two or more pages collapses into a single ellipsis. A gap of exactly
// one page is shown directly since an ellipsis would not be shorter.
func PageStrip(current, total, window int) []PageRef {
	if total <= 0 || window < 1 {
		return nil
	}
	if current < 0 {
		current = 0
	}
	if current >= total {
		current = total - 1
	}
	if total <= window {
		out := make([]PageRef, 0, total)
		for i := 0; i < total; i++ {
			out = append(out, PageRef{Index: i})
		}
		return out
	}

	start := current - window/2
	if start < 0 {
		start = 0
	}
	if start > total-window {
		start = total - window
	}
	end := start + window - 1

	out := make([]PageRef, 0, window+4)
	out = append(out, PageRef{Index: 0})
	switch {
	case start == 1:
		// no gap
	case start == 2:
		out = append(out, PageRef{Index: 1})
	case start > 2:
		out = append(out, PageRef{Index: -1, Ellipsis: true})
	}
	for i := start; i <= end; i++ {
		if i == 0 || i == total-1 {
			continue
		}
		out = append(out, PageRef{Index: i})
	}
	switch {
	case end == total-2:
		// no gap
	case end == total-3:
		out = append(out, PageRef{Index: total - 2})
	case end < total-3:
		out = append(out, PageRef{Index: -1, Ellipsis: true})
	}
	out = append(out, PageRef{Index: total - 1})
	return out
}
