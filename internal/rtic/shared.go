// SPDX-License-Identifier: MIT
package rtic

import "fmt"

// Shared is a resource accessible from every context whose priority does not
// exceed its ceiling. The ceiling must be the highest priority of any task
// that locks it.
type Shared[T any] struct {
	k       *Kernel
	ceiling Priority
	v       T
}

// NewShared places v under the kernel's ceiling protocol.
func NewShared[T any](k *Kernel, ceiling Priority, v T) *Shared[T] {
	if ceiling > MaxPriority {
		panic(fmt.Sprintf("rtic: ceiling %d above MaxPriority", ceiling))
	}
	return &Shared[T]{k: k, ceiling: ceiling, v: v}
}

// Ceiling returns the resource ceiling.
func (s *Shared[T]) Ceiling() Priority { return s.ceiling }

// Lock runs fn with exclusive access to the resource, at the ceiling
// priority. Locking from a context above the ceiling is a programming error
// and panics. Lock is not reentrant; fn must not retain the pointer.
func (s *Shared[T]) Lock(cx Context, fn func(*T)) {
	if cx.prio > s.ceiling {
		panic(fmt.Sprintf("rtic: priority %d locks resource with ceiling %d", cx.prio, s.ceiling))
	}

	s.k.raise(cx.prio, s.ceiling)
	defer s.k.lower(s.ceiling)

	fn(&s.v)
}
