package flow

import (
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/namenv/problem"
)

var log = commonlog.GetLogger("namenv.flow")

// Checker analyses methods for unreachable and hidden catch blocks, unused
// declared exceptions and unhandled checked exceptions.
type Checker struct {
	Hierarchy TypeHierarchy
	// Strict stops treating catch blocks for Throwable and Exception as
	// always reachable.
	Strict   bool
	Reporter problem.Reporter

	subject string
	locals  map[string]int
}

func NewChecker(h TypeHierarchy, r problem.Reporter) *Checker {
	if h == nil {
		h = BuiltinHierarchy
	}
	if r == nil {
		r = problem.Discard
	}
	return &Checker{Hierarchy: h, Reporter: r}
}

// Result is what the checker learned about one method.
type Result struct {
	// Exit is the flow at the end of the body.
	Exit FlowInfo
	// OnReturn merges the flow of every return statement.
	OnReturn FlowInfo
	// Unhandled lists checked exceptions neither caught nor declared.
	Unhandled []string
}

// CheckMethod analyses one method and reports its diagnostics.
func (c *Checker) CheckMethod(m *Method) Result {
	c.subject = m.Name
	c.locals = map[string]int{}
	log.Debugf("checking %s", m.Name)

	ctx := NewMethodContext(m.Throws, c.Hierarchy, c.Strict)
	exit := c.statements(m.Body, ctx, FlowInfo{})
	ctx.ComplainIfUnusedDeclaredExceptions(c.Reporter, m.Name, m.Line)
	return Result{Exit: exit, OnReturn: ctx.InitsOnReturn(), Unhandled: ctx.unhandled}
}

// Local returns the index the checker assigned to a local, -1 if unseen.
func (c *Checker) Local(name string) int {
	if i, ok := c.locals[name]; ok {
		return i
	}
	return -1
}

func (c *Checker) local(name string) int {
	if i, ok := c.locals[name]; ok {
		return i
	}
	i := len(c.locals)
	c.locals[name] = i
	return i
}

func (c *Checker) statements(body []Statement, ctx *ExceptionHandlingFlowContext, flowInfo FlowInfo) FlowInfo {
	for _, s := range body {
		flowInfo = c.statement(s, ctx, flowInfo)
	}
	return flowInfo
}

func (c *Checker) statement(s Statement, ctx *ExceptionHandlingFlowContext, flowInfo FlowInfo) FlowInfo {
	switch p := s.(type) {
	case *Throw:
		s = *p
	case *Invoke:
		s = *p
	case *Assign:
		s = *p
	case *Return:
		s = *p
	case *Try:
		s = *p
	case *Block:
		s = *p
	}
	switch s := s.(type) {
	case Throw:
		c.raise(s.Type, s.Line, ctx, flowInfo)
		return DeadEnd()
	case Invoke:
		for _, t := range s.Throws {
			c.raise(t, s.Line, ctx, flowInfo)
		}
		return flowInfo
	case Assign:
		if !flowInfo.IsReachable() {
			return flowInfo
		}
		return flowInfo.Assign(c.local(s.Var))
	case Return:
		for traversed := ctx; traversed != nil; traversed = traversed.Parent {
			traversed.RecordReturnFrom(flowInfo)
		}
		return DeadEnd()
	case Block:
		return c.statements(s.Body, ctx, flowInfo)
	case Try:
		return c.try(s, ctx, flowInfo)
	}
	panic(fmt.Sprintf("flow: unexpected statement %T", s))
}

func (c *Checker) try(s Try, ctx *ExceptionHandlingFlowContext, flowInfo FlowInfo) FlowInfo {
	// the finally block runs on every path; a finally that never completes
	// normally swallows whatever the try or its catches raise
	var finallyInfo FlowInfo
	outer := ctx
	if s.Finally != nil {
		finallyInfo = c.statements(s.Finally, ctx, flowInfo.Copy())
		if !finallyInfo.IsReachable() {
			outer = &ExceptionHandlingFlowContext{Parent: ctx, Escaping: true, initsOnReturn: DeadEnd()}
		}
	}

	var handled []string
	var catchBlock []int
	lines := make([]int, len(s.Catches))
	for i, catch := range s.Catches {
		lines[i] = catch.Line
		for _, t := range catch.Types {
			handled = append(handled, t)
			catchBlock = append(catchBlock, i)
		}
	}
	handling := NewExceptionHandlingFlowContext(outer, handled, catchBlock, flowInfo, c.Hierarchy, c.Strict)

	merged := c.statements(s.Body, handling, flowInfo.Copy())
	for i, catch := range s.Catches {
		catchInfo := c.statements(catch.Body, outer, handling.InitsOnException(i))
		merged = merged.MergedWith(catchInfo)
	}
	handling.ComplainIfUnusedExceptionHandlers(c.Reporter, c.subject, lines)

	if s.Finally == nil {
		return merged
	}
	if !finallyInfo.IsReachable() {
		return DeadEnd()
	}
	if !merged.IsReachable() {
		return merged
	}
	return merged.AddInitializationsFrom(finallyInfo)
}

// raise walks the contexts from the innermost outwards until a handler
// definitely catches t. Unchecked exceptions may leave the method.
func (c *Checker) raise(t string, line int, ctx *ExceptionHandlingFlowContext, flowInfo FlowInfo) {
	if !flowInfo.IsReachable() {
		return
	}
	var method *ExceptionHandlingFlowContext
	for traversed := ctx; traversed != nil; traversed = traversed.Parent {
		if traversed.Escaping {
			return
		}
		if traversed.handle(t, flowInfo) {
			return
		}
		if traversed.IsMethod {
			method = traversed
			break
		}
	}
	if IsUnchecked(c.Hierarchy, t) {
		return
	}
	if method != nil {
		method.mergeUnhandledException(t)
	}
	c.Reporter.Report(problem.Diagnostic{
		ID:       problem.UnhandledException,
		Severity: problem.Error,
		Message:  fmt.Sprintf("unhandled exception type %s", t),
		Subject:  c.subject,
		Line:     line,
	})
}
