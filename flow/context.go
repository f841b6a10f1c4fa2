package flow

import (
	"fmt"

	"github.com/dhamidi/namenv/problem"
)

// ExceptionHandlingFlowContext tracks the exception types handled by one
// try statement, or declared thrown by one method. isReached records that
// some reachable site raises a handled type; isNeeded records that the
// site was not already caught by an earlier, broader handler.
type ExceptionHandlingFlowContext struct {
	Parent *ExceptionHandlingFlowContext
	// Escaping is set on the context of a try statement whose finally block
	// never completes normally: nothing propagates past it.
	Escaping bool
	IsMethod bool

	handled    []string
	catchBlock []int
	hierarchy  TypeHierarchy

	isReached []uint32
	isNeeded  []uint32

	initsOnExceptions []FlowInfo
	initsOnReturn     FlowInfo
	unhandled         []string
}

// NewExceptionHandlingFlowContext creates the context of a try statement.
// handled lists every caught type in source order; catchBlock[i] is the
// index of the catch clause handling handled[i]. A nil catchBlock maps
// each type to its own clause. Unchecked types are reached from the start,
// and so are Throwable and Exception unless strict is set.
func NewExceptionHandlingFlowContext(parent *ExceptionHandlingFlowContext, handled []string, catchBlock []int, flowInfo FlowInfo, h TypeHierarchy, strict bool) *ExceptionHandlingFlowContext {
	if catchBlock == nil {
		catchBlock = make([]int, len(handled))
		for i := range catchBlock {
			catchBlock[i] = i
		}
	}
	blocks := 0
	for _, b := range catchBlock {
		blocks = max(blocks, b+1)
	}
	size := (len(handled) + 31) / 32
	c := &ExceptionHandlingFlowContext{
		Parent:            parent,
		handled:           handled,
		catchBlock:        catchBlock,
		hierarchy:         h,
		isReached:         make([]uint32, size),
		isNeeded:          make([]uint32, size),
		initsOnExceptions: make([]FlowInfo, blocks),
		initsOnReturn:     DeadEnd(),
	}
	for i := range c.initsOnExceptions {
		c.initsOnExceptions[i] = DeadEnd()
	}
	for i, t := range handled {
		if c.isUncheckedCatch(t, strict) {
			c.isReached[i/32] |= 1 << (i % 32)
			c.initsOnExceptions[catchBlock[i]] = flowInfo.Copy()
		}
	}
	copy(c.isNeeded, c.isReached)
	return c
}

// NewMethodContext creates the outermost context of a method declaring the
// given thrown exceptions.
func NewMethodContext(throws []string, h TypeHierarchy, strict bool) *ExceptionHandlingFlowContext {
	c := NewExceptionHandlingFlowContext(nil, throws, nil, FlowInfo{}, h, strict)
	c.IsMethod = true
	return c
}

func (c *ExceptionHandlingFlowContext) isUncheckedCatch(t string, strict bool) bool {
	if !strict && (t == Throwable || t == Exception) {
		return true
	}
	return IsUnchecked(c.hierarchy, t)
}

func (c *ExceptionHandlingFlowContext) Handled() []string { return c.handled }

func (c *ExceptionHandlingFlowContext) IsReached(i int) bool {
	return c.isReached[i/32]&(1<<(i%32)) != 0
}

func (c *ExceptionHandlingFlowContext) IsNeeded(i int) bool {
	return c.isNeeded[i/32]&(1<<(i%32)) != 0
}

// RecordHandlingException notes that handled type i is raised with the
// given flow. The type is needed unless an earlier handler of this context
// already caught the exception.
func (c *ExceptionHandlingFlowContext) RecordHandlingException(i int, flowInfo FlowInfo, wasAlreadyDefinitelyCaught bool) {
	cacheIndex, bitMask := i/32, uint32(1)<<(i%32)
	if !wasAlreadyDefinitelyCaught {
		c.isNeeded[cacheIndex] |= bitMask
	}
	c.isReached[cacheIndex] |= bitMask

	block := c.catchBlock[i]
	if c.initsOnExceptions[block].IsReachable() {
		c.initsOnExceptions[block] = c.initsOnExceptions[block].MergedWith(flowInfo)
	} else {
		c.initsOnExceptions[block] = flowInfo.Copy()
	}
}

// handle offers a raised exception to the handlers of this context and
// reports whether one of them definitely catches it. A later handler whose
// type is covered by the catching one is recorded as reached but not
// needed.
func (c *ExceptionHandlingFlowContext) handle(raised string, flowInfo FlowInfo) bool {
	caughtBy := ""
	for i, t := range c.handled {
		state := compareTypes(c.hierarchy, raised, t)
		if caughtBy != "" {
			if state == equalOrMoreSpecific && IsSubtype(c.hierarchy, t, caughtBy) {
				c.RecordHandlingException(i, flowInfo, true)
			}
			continue
		}
		switch state {
		case equalOrMoreSpecific:
			c.RecordHandlingException(i, flowInfo, false)
			caughtBy = t
		case moreGeneric:
			c.RecordHandlingException(i, flowInfo, false)
		}
	}
	return caughtBy != ""
}

// RecordReturnFrom merges the flow of a return statement inside this
// context: the first return is copied, later ones are merged.
func (c *ExceptionHandlingFlowContext) RecordReturnFrom(flowInfo FlowInfo) {
	if !flowInfo.IsReachable() {
		return
	}
	if c.initsOnReturn.IsReachable() {
		c.initsOnReturn = c.initsOnReturn.MergedWith(flowInfo)
	} else {
		c.initsOnReturn = flowInfo.Copy()
	}
}

// InitsOnException is the flow at entry of catch clause block.
func (c *ExceptionHandlingFlowContext) InitsOnException(block int) FlowInfo {
	return c.initsOnExceptions[block].Copy()
}

func (c *ExceptionHandlingFlowContext) InitsOnReturn() FlowInfo {
	return c.initsOnReturn.Copy()
}

func (c *ExceptionHandlingFlowContext) mergeUnhandledException(t string) {
	c.unhandled = append(c.unhandled, t)
}

// ComplainIfUnusedExceptionHandlers reports handled types never raised in
// the try body as unreachable, and those always caught earlier as hidden.
// lines gives the source line of each catch clause.
func (c *ExceptionHandlingFlowContext) ComplainIfUnusedExceptionHandlers(r problem.Reporter, subject string, lines []int) {
	for i, t := range c.handled {
		line := 0
		if b := c.catchBlock[i]; b < len(lines) {
			line = lines[b]
		}
		switch {
		case !c.IsReached(i):
			r.Report(problem.Diagnostic{
				ID:       problem.UnreachableCatchBlock,
				Severity: problem.Error,
				Message:  fmt.Sprintf("unreachable catch block for %s, it is never thrown from the try statement body", t),
				Subject:  subject,
				Line:     line,
			})
		case !c.IsNeeded(i):
			r.Report(problem.Diagnostic{
				ID:       problem.HiddenCatchBlock,
				Severity: problem.Warning,
				Message:  fmt.Sprintf("unreachable catch block for %s, it is already handled by a previous catch block", t),
				Subject:  subject,
				Line:     line,
			})
		}
	}
}

// ComplainIfUnusedDeclaredExceptions reports declared thrown types of a
// method that nothing in its body raises.
func (c *ExceptionHandlingFlowContext) ComplainIfUnusedDeclaredExceptions(r problem.Reporter, subject string, line int) {
	for i, t := range c.handled {
		if c.IsReached(i) {
			continue
		}
		r.Report(problem.Diagnostic{
			ID:       problem.UnusedDeclaredThrownException,
			Severity: problem.Warning,
			Message:  fmt.Sprintf("the declared exception %s is not actually thrown", t),
			Subject:  subject,
			Line:     line,
		})
	}
}
