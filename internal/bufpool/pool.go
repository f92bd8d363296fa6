// Package bufpool lends zeroed scratch buffers to the EVR and packet
// encoders. Encoders fill a scratch buffer, copy out the used prefix with
// CopyOut and hand the buffer back with Put, so generated bodies never alias
// pooled memory.
package bufpool

import "sync"

// Scratch classes. Small holds header-only and invalid-ID bodies, Medium a
// fatal body with a stack and a few arguments, MaxPacket the largest CCSDS
// packet the packet layer can emit.
const (
	Small     = 64
	Medium    = 1024
	MaxPacket = 6 + 0x10000
)

var classes = [...]int{Small, Medium, MaxPacket}

var pools [len(classes)]sync.Pool

func init() {
	for i, n := range classes {
		pools[i].New = func() any {
			b := make([]byte, n)
			return &b
		}
	}
}

// class returns the index of the smallest class holding size bytes, or -1.
func class(size int) int {
	for i, n := range classes {
		if size <= n {
			return i
		}
	}
	return -1
}

// Get returns a zeroed buffer of length size. Its capacity is the class
// size; requests beyond MaxPacket are allocated directly and never pooled.
func Get(size int) []byte {
	if size <= 0 {
		return nil
	}
	i := class(size)
	if i < 0 {
		return make([]byte, size)
	}
	return (*pools[i].Get().(*[]byte))[:size]
}

// Put zeroes buf and returns it to its class. Buffers whose capacity is not
// a class size are dropped.
func Put(buf []byte) {
	if buf == nil {
		return
	}
	i := class(cap(buf))
	if i < 0 || classes[i] != cap(buf) {
		return
	}
	full := buf[:cap(buf)]
	clear(full)
	pools[i].Put(&full)
}

// CopyOut returns a fresh copy of the first n bytes of buf.
func CopyOut(buf []byte, n int) []byte {
	if n <= 0 {
		return []byte{}
	}
	out := make([]byte, n)
	copy(out, buf[:n])
	return out
}
