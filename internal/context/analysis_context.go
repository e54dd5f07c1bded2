// Package context holds the per-file state of the metrics pass.
package context

// FrameKind tags one open brace block.
type FrameKind uint8

const (
	FrameOpaque FrameKind = iota
	FrameAnonymous
	FrameClass
	FrameFunction
)

func (k FrameKind) String() string {
	switch k {
	case FrameOpaque:
		return "opaque"
	case FrameAnonymous:
		return "anonymous"
	case FrameClass:
		return "class"
	case FrameFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Frame is one entry of the scope stack. Name is set for class and
// function frames only.
type Frame struct {
	Kind FrameKind
	Name string
}

func Opaque() Frame { return Frame{Kind: FrameOpaque} }
func Anonymous() Frame { return Frame{Kind: FrameAnonymous} }
func Class(name string) Frame { return Frame{Kind: FrameClass, Name: name} }
func Function(name string) Frame { return Frame{Kind: FrameFunction, Name: name} }

// AnalysisContext is created per file and mutated by the metrics pass.
type AnalysisContext struct {
	// Namespace is the innermost declared namespace, "" for global code.
	Namespace string

	Class     string
	HasClass  bool
	TestClass bool

	Function    string
	HasFunction bool
	// InMethod is set while inside a counted, non-test method.
	InMethod bool

	// LogicalLine is cleared by use/declare until the next ';'.
	LogicalLine bool

	// Pending labels the next '{'. Nil means the block is opaque.
	Pending *Frame
}

func NewAnalysisContext() *AnalysisContext {
	return &AnalysisContext{LogicalLine: true}
}

// Label sets the pending block label.
func (c *AnalysisContext) Label(f Frame) {
	c.Pending = &f
}

// Consume returns the pending label, or an opaque frame, and clears it.
func (c *AnalysisContext) Consume() Frame {
	if c.Pending == nil {
		return Opaque()
	}
	f := *c.Pending
	c.Pending = nil
	return f
}

func (c *AnalysisContext) EnterClass(name string, test bool) {
	c.Class, c.HasClass, c.TestClass = name, true, test
}

func (c *AnalysisContext) LeaveClass() {
	c.Class, c.HasClass, c.TestClass = "", false, false
}

func (c *AnalysisContext) EnterFunction(name string) {
	c.Function, c.HasFunction = name, true
}

func (c *AnalysisContext) LeaveFunction() {
	c.Function, c.HasFunction, c.InMethod = "", false, false
}

// CountsClassMetrics reports whether statements and branches are
// attributed to an open production class.
func (c *AnalysisContext) CountsClassMetrics() bool {
	return c.HasClass && !c.TestClass
}
