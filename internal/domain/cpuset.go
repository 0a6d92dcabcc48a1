// Package domain holds the shared power-domain types.
// Pure data, no infrastructure dependency.
package domain

import (
	"fmt"
	"strings"
)

// CpuSet is a bitmask of CPU ids. The zero value is the empty set.
type CpuSet struct {
	words []uint64
}

// NewCpuSet returns a set containing the given CPUs.
func NewCpuSet(cpus ...int) CpuSet {
	var s CpuSet
	for _, c := range cpus {
		s.Set(c)
	}
	return s
}

// Set adds a CPU to the set. Adding a present CPU is a no-op.
func (s *CpuSet) Set(cpu int) {
	if cpu < 0 {
		return
	}
	word := cpu / 64
	for len(s.words) <= word {
		s.words = append(s.words, 0)
	}
	s.words[word] |= 1 << (uint(cpu) % 64)
}

// Contains reports whether the CPU is in the set.
func (s CpuSet) Contains(cpu int) bool {
	word := cpu / 64
	if cpu < 0 || word >= len(s.words) {
		return false
	}
	return s.words[word]&(1<<(uint(cpu)%64)) != 0
}

// Count returns the number of CPUs in the set.
func (s CpuSet) Count() int {
	n := 0
	for _, w := range s.words {
		for ; w != 0; w &= w - 1 {
			n++
		}
	}
	return n
}

// List returns the CPU ids in ascending order.
func (s CpuSet) List() []int {
	out := make([]int, 0, s.Count())
	for i, w := range s.words {
		for b := 0; b < 64; b++ {
			if w&(1<<uint(b)) != 0 {
				out = append(out, i*64+b)
			}
		}
	}
	return out
}

// ForEach calls fn for every CPU in ascending order. It performs no
// allocation, so it is safe on the idle-entry fast path.
func (s CpuSet) ForEach(fn func(cpu int)) {
	for i, w := range s.words {
		for b := 0; b < 64; b++ {
			if w&(1<<uint(b)) != 0 {
				fn(i*64 + b)
			}
		}
	}
}

// Mask64 returns the low 64 CPUs as a firmware-style bitmask.
func (s CpuSet) Mask64() uint64 {
	if len(s.words) == 0 {
		return 0
	}
	return s.words[0]
}

// Clone returns an independent copy of the set.
func (s CpuSet) Clone() CpuSet {
	words := make([]uint64, len(s.words))
	copy(words, s.words)
	return CpuSet{words: words}
}

// Equal reports whether both sets contain the same CPUs.
func (s CpuSet) Equal(o CpuSet) bool {
	long, short := s.words, o.words
	if len(short) > len(long) {
		long, short = short, long
	}
	for i, w := range long {
		if i < len(short) {
			if w != short[i] {
				return false
			}
		} else if w != 0 {
			return false
		}
	}
	return true
}

// String renders the set as a comma-separated CPU list, e.g. "0,1,4".
func (s CpuSet) String() string {
	parts := make([]string, 0, s.Count())
	for _, c := range s.List() {
		parts = append(parts, fmt.Sprintf("%d", c))
	}
	return strings.Join(parts, ",")
}
