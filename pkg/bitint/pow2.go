/*
Package bitint provides the power-of-2 arithmetic used for hardware-style
FIFOs, where read and write pointers wrap with a mask instead of a modulo.

Design Principles:
- Zero Allocations: All operations use stack memory only
- Predictable Performance: O(1) constant time operations
- Real-Time Safe: No locks, syscalls, or blocking operations

Usage:

	// Wrap a free-running pointer into a 32-slot FIFO
	slot := bitint.Wrap(ptr, 32)

	// Entries queued between the reader and the writer
	queued := bitint.Distance(wr, rd, 32)

----------------------------------------------------------------------

What this code does:

	Both helpers rely on depth being a power of 2, so depth-1 is a
	run of low bits and x & (depth-1) equals x mod depth, even for
	a negative x:

	- For depth 32, wr 2, rd 30:
	  wr-rd = -28 (two's complement ...100100)
	  -28 & 31 = 4 (binary 000100)
	  the writer is 4 slots ahead, having wrapped past the end
*/
package bitint

// Wrap maps a free-running pointer onto a FIFO of depth slots.
// depth must be a power of 2.
func Wrap(ptr, depth int) int {
	return ptr & (depth - 1)
}

// Distance returns how many slots a writer at wr is ahead of a reader at rd in
// a FIFO of depth slots, with both pointers already wrapped.
func Distance(wr, rd, depth int) int {
	return (wr - rd) & (depth - 1)
}
