package generators

import "math/bits"

// UsageTracker is a fixed-size presence bitmap recording which candidate
// values have been emitted at least once. A zero UsageTracker has no slots.
type UsageTracker struct {
	words []uint64
	size  int
}

// NewUsageTracker returns a tracker with n slots.
func NewUsageTracker(n int) *UsageTracker {
	u := &UsageTracker{}
	u.Allocate(n)
	return u
}

// Allocate discards previous state and sizes the tracker to n slots.
func (u *UsageTracker) Allocate(n int) {
	if n < 0 {
		n = 0
	}
	u.size = n
	u.words = make([]uint64, (n+63)/64)
}

// Size is the number of slots.
func (u *UsageTracker) Size() int { return u.size }

// Mark records slot i as used. Out of range slots are ignored.
func (u *UsageTracker) Mark(i int) {
	if i < 0 || i >= u.size {
		return
	}
	u.words[i/64] |= 1 << (uint(i) % 64)
}

// IsMarked reports whether slot i has been used.
func (u *UsageTracker) IsMarked(i int) bool {
	if i < 0 || i >= u.size {
		return false
	}
	return u.words[i/64]&(1<<(uint(i)%64)) != 0
}

// Count returns the number of used slots.
func (u *UsageTracker) Count() int {
	n := 0
	for _, w := range u.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Complete reports whether every slot has been used. An empty tracker is
// trivially complete.
func (u *UsageTracker) Complete() bool { return u.Count() == u.size }

// Unmarked lists the slots never used, in ascending order.
func (u *UsageTracker) Unmarked() []int {
	var out []int
	for i := 0; i < u.size; i++ {
		if !u.IsMarked(i) {
			out = append(out, i)
		}
	}
	return out
}

// Clear unmarks every slot.
func (u *UsageTracker) Clear() { clear(u.words) }
