// Package flow checks try statements for catch blocks that can never run
// and for checked exceptions nobody handles.
package flow

import "math/bits"

// FlowInfo is what is known at a point of a method body: which locals are
// definitely assigned, and whether the point can be reached at all.
type FlowInfo struct {
	inits       []uint64
	unreachable bool
}

// DeadEnd is the flow after a statement that never completes normally.
func DeadEnd() FlowInfo {
	return FlowInfo{unreachable: true}
}

func (f FlowInfo) IsReachable() bool { return !f.unreachable }

func (f FlowInfo) Copy() FlowInfo {
	return FlowInfo{inits: append([]uint64(nil), f.inits...), unreachable: f.unreachable}
}

// Assign marks local i as definitely assigned.
func (f FlowInfo) Assign(i int) FlowInfo {
	out := f.Copy()
	word := i / 64
	for len(out.inits) <= word {
		out.inits = append(out.inits, 0)
	}
	out.inits[word] |= 1 << (i % 64)
	return out
}

func (f FlowInfo) IsDefinitelyAssigned(i int) bool {
	if f.unreachable {
		return true
	}
	word := i / 64
	return word < len(f.inits) && f.inits[word]&(1<<(i%64)) != 0
}

// AssignedCount returns the number of definitely assigned locals.
func (f FlowInfo) AssignedCount() int {
	n := 0
	for _, w := range f.inits {
		n += bits.OnesCount64(w)
	}
	return n
}

// MergedWith joins two paths: a local stays assigned only if it is
// assigned on both. A dead path contributes nothing.
func (f FlowInfo) MergedWith(other FlowInfo) FlowInfo {
	if f.unreachable {
		return other.Copy()
	}
	if other.unreachable {
		return f.Copy()
	}
	n := min(len(f.inits), len(other.inits))
	out := FlowInfo{inits: make([]uint64, n)}
	for i := 0; i < n; i++ {
		out.inits[i] = f.inits[i] & other.inits[i]
	}
	return out
}

// AddInitializationsFrom adds the assignments of a path that always runs
// after this one, such as a finally block.
func (f FlowInfo) AddInitializationsFrom(other FlowInfo) FlowInfo {
	out := f.Copy()
	if other.unreachable {
		return out
	}
	for len(out.inits) < len(other.inits) {
		out.inits = append(out.inits, 0)
	}
	for i, w := range other.inits {
		out.inits[i] |= w
	}
	return out
}
