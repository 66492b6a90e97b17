package reactor

import "container/heap"

// timerHeap is a min-heap ordered by expiry then sequence, the Go
// re-expression of annety's TimerList (a std::set<Entry> keyed on
// (Time, Timer*)): container/heap gives the same "always know the
// earliest" property a sorted associative container does, at lower
// constant cost for this package's access pattern (peek-min, pop-min,
// arbitrary erase by sequence). No third-party ordered-set library in
// the retrieved pack offers container/heap's exact shape, so this one
// part of the timer stack stays on the standard library (see DESIGN.md).
type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].expires.Equal(h[j].expires) {
		return h[i].seq < h[j].seq
	}
	return h[i].expires.Before(h[j].expires)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*timer)
	t.heapIndex = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.heapIndex = -1
	*h = old[:n-1]
	return t
}

func (h *timerHeap) push(t *timer) { heap.Push(h, t) }

func (h *timerHeap) popMin() *timer { return heap.Pop(h).(*timer) }

func (h timerHeap) peekMin() *timer {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}

func (h *timerHeap) removeBySeq(seq uint64) bool {
	for i, t := range *h {
		if t.seq == seq {
			heap.Remove(h, i)
			return true
		}
	}
	return false
}
