// Package heaplist implements the bounded max-heap used both as the
// per-vertex candidate set during NN-Descent and as the per-thread result
// buffer at query time (spec.md §4.1). Three parallel slices back every row
// so the sift inner loop only ever touches the keys stream.
//
// Grounded on the other_examples maxheap reference: a packed
// indices/distances/flags triple addressed as a binary heap, with a linear
// duplicate scan on push (K is small) instead of an auxiliary set.
package heaplist

import "math"

// None is the sentinel id for an empty slot: the smallest representable
// int32, never a valid point id.
const None int32 = math.MinInt32

// HeapList is H independent max-heaps of fixed capacity K, stored as
// parallel row-major arrays.
type HeapList struct {
	indices []int32
	keys    []float32
	flags   []uint8
	h, k    int
}

// New creates a HeapList of h rows, each capacity k, with every slot set to
// (None, +Inf, flag=1) per spec.md §3's lifecycle rule for a freshly
// created graph.
func New(h, k int) *HeapList {
	hl := &HeapList{
		indices: make([]int32, h*k),
		keys:    make([]float32, h*k),
		flags:   make([]uint8, h*k),
		h:       h,
		k:       k,
	}
	for i := range hl.indices {
		hl.indices[i] = None
		hl.keys[i] = float32(math.Inf(1))
		hl.flags[i] = 1
	}

	return hl
}

// Rows returns H.
func (hl *HeapList) Rows() int { return hl.h }

// K returns the per-row capacity.
func (hl *HeapList) K() int { return hl.k }

func (hl *HeapList) offset(i int) int { return i * hl.k }

// Indices returns the raw index slice for row i, ordered by current heap
// layout (not sorted). Callers must not retain it past the next mutation.
func (hl *HeapList) Indices(i int) []int32 {
	o := hl.offset(i)
	return hl.indices[o : o+hl.k]
}

// Keys returns the raw key slice for row i.
func (hl *HeapList) Keys(i int) []float32 {
	o := hl.offset(i)
	return hl.keys[o : o+hl.k]
}

// Flags returns the raw flag slice for row i.
func (hl *HeapList) Flags(i int) []uint8 {
	o := hl.offset(i)
	return hl.flags[o : o+hl.k]
}

// Max returns keys[i][0], the current maximum key in row i.
func (hl *HeapList) Max(i int) float32 {
	return hl.keys[hl.offset(i)]
}

// Size returns the count of non-None entries in row i.
func (hl *HeapList) Size(i int) int {
	o := hl.offset(i)
	n := 0
	for c := 0; c < hl.k; c++ {
		if hl.indices[o+c] != None {
			n++
		}
	}

	return n
}

// Contains reports whether idx already occupies a slot in row i.
func (hl *HeapList) Contains(i int, idx int32) bool {
	o := hl.offset(i)
	for c := 0; c < hl.k; c++ {
		if hl.indices[o+c] == idx {
			return true
		}
	}

	return false
}

// CheckedPush attempts to insert (idx, key, flag) into row i. It rejects
// when key >= the current max (spec.md §9: "reject on equality"), rejects
// duplicate idx via a linear scan, and otherwise replaces the root and
// sifts down. Returns true iff the row changed.
func (hl *HeapList) CheckedPush(i int, idx int32, key float32, flag uint8) bool {
	o := hl.offset(i)

	if key >= hl.keys[o] {
		return false
	}

	for c := 0; c < hl.k; c++ {
		if hl.indices[o+c] == idx {
			return false
		}
	}

	hl.indices[o] = idx
	hl.keys[o] = key
	hl.flags[o] = flag
	hl.siftDownBounded(i, 0, hl.k)

	return true
}

// siftDownBounded restores heap order in row i starting at position root,
// restricted to [0, limit) — heapSortRow shrinks limit as it extracts the
// max into the sorted suffix.
func (hl *HeapList) siftDownBounded(i, root, limit int) {
	o := hl.offset(i)

	for {
		left := 2*root + 1
		right := 2*root + 2
		largest := root

		if left < limit && hl.keys[o+left] > hl.keys[o+largest] {
			largest = left
		}
		if right < limit && hl.keys[o+right] > hl.keys[o+largest] {
			largest = right
		}
		if largest == root {
			return
		}

		hl.swap(o, root, largest)
		root = largest
	}
}

func (hl *HeapList) swap(o, a, b int) {
	hl.indices[o+a], hl.indices[o+b] = hl.indices[o+b], hl.indices[o+a]
	hl.keys[o+a], hl.keys[o+b] = hl.keys[o+b], hl.keys[o+a]
	hl.flags[o+a], hl.flags[o+b] = hl.flags[o+b], hl.flags[o+a]
}

// HeapSort heapsorts every row in place to ascending key order. Called once,
// after the correction pass, per spec.md §4.1.
func (hl *HeapList) HeapSort() {
	for i := 0; i < hl.h; i++ {
		hl.heapSortRow(i)
	}
}

func (hl *HeapList) heapSortRow(i int) {
	o := hl.offset(i)
	for end := hl.k - 1; end > 0; end-- {
		hl.swap(o, 0, end)
		hl.siftDownBounded(i, 0, end)
	}
}

// RetireFlags sets every slot's flag to 0 (old). Called in each NN-Descent
// round after candidate sampling and before the local join, so only that
// join's successful pushes carry flag=1 into the next round (spec.md §4.3
// step 4).
func (hl *HeapList) RetireFlags() {
	for i := range hl.flags {
		hl.flags[i] = 0
	}
}

// ApplyCorrection maps every non-None key in the list through fn. Used for
// the metric's correction pass before the final HeapSort.
func (hl *HeapList) ApplyCorrection(fn func(float32) float32) {
	for i, idx := range hl.indices {
		if idx != None {
			hl.keys[i] = fn(hl.keys[i])
		}
	}
}
