package models

import (
	"path/filepath"
	"sort"
)

// EventKind identifies one metric increment.
type EventKind uint8

const (
	EventFile EventKind = iota
	EventLines
	EventCommentLines
	EventLogicalLine
	EventFunctionLine
	EventComplexity

	EventClassReset
	EventClassStop
	EventClassComplexity
	EventClassLine
	EventClassMethod
	EventMethodStart
	EventMethodComplexity
	EventMethodLine
	EventMethodStop

	EventNamespace
	EventInterface
	EventTrait
	EventAbstractClass
	EventFinalClass
	EventNonFinalClass
	EventTestClass

	EventStaticMethod
	EventNonStaticMethod
	EventPublicMethod
	EventProtectedMethod
	EventPrivateMethod
	EventTestMethod
	EventNamedFunction
	EventAnonymousFunction

	EventGlobalConstant
	EventConstantName
	EventPublicClassConstant
	EventNonPublicClassConstant
	EventPossibleConstantAccess

	EventGlobalVariableAccess
	EventSuperGlobalVariableAccess
	EventStaticAttributeAccess
	EventNonStaticAttributeAccess
	EventStaticMethodCall
	EventNonStaticMethodCall
)

// Event is a single metric increment. N is used by line events, Name by
// file, namespace and constant events.
type Event struct {
	Kind EventKind
	N    int
	Name string
}

// Sink receives metric events.
type Sink interface {
	Apply(Event)
}

// Bag counts occurrences of names.
type Bag map[string]int

func (b Bag) Add(name string, n int) {
	b[name] += n
}

// Names returns the distinct names in sorted order.
func (b Bag) Names() []string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CounterSet holds every raw counter for one file or for a whole run.
// Counters only grow; the exported field set is the same at every
// aggregation level.
type CounterSet struct {
	Files        int `json:"files"`
	Directories  Bag `json:"directories"`
	Lines        int `json:"lines"`
	CommentLines int `json:"comment_lines"`
	LogicalLines int `json:"logical_lines"`

	FunctionLines    int   `json:"function_lines"`
	ClassLines       []int `json:"class_lines"`
	ClassComplexity  []int `json:"class_complexity"`
	MethodsPerClass  []int `json:"methods_per_class"`
	MethodLines      []int `json:"method_lines"`
	MethodComplexity []int `json:"method_complexity"`

	Complexity int `json:"complexity"`

	Namespaces      Bag `json:"namespaces"`
	Interfaces      int `json:"interfaces"`
	Traits          int `json:"traits"`
	AbstractClasses int `json:"abstract_classes"`
	FinalClasses    int `json:"final_classes"`
	NonFinalClasses int `json:"non_final_classes"`
	TestClasses     int `json:"test_classes"`

	StaticMethods      int `json:"static_methods"`
	NonStaticMethods   int `json:"non_static_methods"`
	PublicMethods      int `json:"public_methods"`
	ProtectedMethods   int `json:"protected_methods"`
	PrivateMethods     int `json:"private_methods"`
	TestMethods        int `json:"test_methods"`
	NamedFunctions     int `json:"named_functions"`
	AnonymousFunctions int `json:"anonymous_functions"`

	GlobalConstants          int `json:"global_constants"`
	ConstantNames            Bag `json:"constant_names"`
	PublicClassConstants     int `json:"public_class_constants"`
	NonPublicClassConstants  int `json:"non_public_class_constants"`
	PossibleConstantAccesses Bag `json:"possible_constant_accesses"`

	GlobalVariableAccesses      int `json:"global_variable_accesses"`
	SuperGlobalVariableAccesses int `json:"super_global_variable_accesses"`
	StaticAttributeAccesses     int `json:"static_attribute_accesses"`
	NonStaticAttributeAccesses  int `json:"non_static_attribute_accesses"`
	StaticMethodCalls           int `json:"static_method_calls"`
	NonStaticMethodCalls        int `json:"non_static_method_calls"`

	// open class and method accumulators
	classLines, classComplexity, classMethods int
	methodLines, methodComplexity             int
}

func NewCounterSet() *CounterSet {
	return &CounterSet{
		Directories:              make(Bag),
		Namespaces:               make(Bag),
		ConstantNames:            make(Bag),
		PossibleConstantAccesses: make(Bag),
		ClassLines:               make([]int, 0),
		ClassComplexity:          make([]int, 0),
		MethodsPerClass:          make([]int, 0),
		MethodLines:              make([]int, 0),
		MethodComplexity:         make([]int, 0),
	}
}

// Apply implements Sink.
func (c *CounterSet) Apply(e Event) {
	switch e.Kind {
	case EventFile:
		c.Files++
		c.Directories.Add(filepath.Dir(e.Name), 1)
	case EventLines:
		c.Lines += e.N
	case EventCommentLines:
		c.CommentLines += e.N
	case EventLogicalLine:
		c.LogicalLines++
	case EventFunctionLine:
		c.FunctionLines++
	case EventComplexity:
		c.Complexity++

	case EventClassReset:
		if c.classComplexity > 0 {
			c.ClassComplexity = append(c.ClassComplexity, c.classComplexity)
			c.ClassLines = append(c.ClassLines, c.classLines)
		}
		c.classComplexity, c.classLines, c.classMethods = 0, 0, 0
	case EventClassStop:
		c.MethodsPerClass = append(c.MethodsPerClass, c.classMethods)
	case EventClassComplexity:
		c.classComplexity++
	case EventClassLine:
		c.classLines++
	case EventClassMethod:
		c.classMethods++
	case EventMethodStart:
		c.methodComplexity, c.methodLines = 1, 0
	case EventMethodComplexity:
		c.methodComplexity++
	case EventMethodLine:
		c.methodLines++
	case EventMethodStop:
		c.MethodComplexity = append(c.MethodComplexity, c.methodComplexity)
		c.MethodLines = append(c.MethodLines, c.methodLines)

	case EventNamespace:
		c.Namespaces.Add(e.Name, 1)
	case EventInterface:
		c.Interfaces++
	case EventTrait:
		c.Traits++
	case EventAbstractClass:
		c.AbstractClasses++
	case EventFinalClass:
		c.FinalClasses++
	case EventNonFinalClass:
		c.NonFinalClasses++
	case EventTestClass:
		c.TestClasses++

	case EventStaticMethod:
		c.StaticMethods++
	case EventNonStaticMethod:
		c.NonStaticMethods++
	case EventPublicMethod:
		c.PublicMethods++
	case EventProtectedMethod:
		c.ProtectedMethods++
	case EventPrivateMethod:
		c.PrivateMethods++
	case EventTestMethod:
		c.TestMethods++
	case EventNamedFunction:
		c.NamedFunctions++
	case EventAnonymousFunction:
		c.AnonymousFunctions++

	case EventGlobalConstant:
		c.GlobalConstants++
	case EventConstantName:
		c.ConstantNames.Add(e.Name, 1)
	case EventPublicClassConstant:
		c.PublicClassConstants++
	case EventNonPublicClassConstant:
		c.NonPublicClassConstants++
	case EventPossibleConstantAccess:
		c.PossibleConstantAccesses.Add(e.Name, 1)

	case EventGlobalVariableAccess:
		c.GlobalVariableAccesses++
	case EventSuperGlobalVariableAccess:
		c.SuperGlobalVariableAccesses++
	case EventStaticAttributeAccess:
		c.StaticAttributeAccesses++
	case EventNonStaticAttributeAccess:
		c.NonStaticAttributeAccesses++
	case EventStaticMethodCall:
		c.StaticMethodCalls++
	case EventNonStaticMethodCall:
		c.NonStaticMethodCalls++
	}
}

// Add merges other into c. Open accumulators are not merged.
func (c *CounterSet) Add(other *CounterSet) {
	c.Files += other.Files
	c.Lines += other.Lines
	c.CommentLines += other.CommentLines
	c.LogicalLines += other.LogicalLines
	c.FunctionLines += other.FunctionLines
	c.Complexity += other.Complexity

	c.ClassLines = append(c.ClassLines, other.ClassLines...)
	c.ClassComplexity = append(c.ClassComplexity, other.ClassComplexity...)
	c.MethodsPerClass = append(c.MethodsPerClass, other.MethodsPerClass...)
	c.MethodLines = append(c.MethodLines, other.MethodLines...)
	c.MethodComplexity = append(c.MethodComplexity, other.MethodComplexity...)

	c.Interfaces += other.Interfaces
	c.Traits += other.Traits
	c.AbstractClasses += other.AbstractClasses
	c.FinalClasses += other.FinalClasses
	c.NonFinalClasses += other.NonFinalClasses
	c.TestClasses += other.TestClasses

	c.StaticMethods += other.StaticMethods
	c.NonStaticMethods += other.NonStaticMethods
	c.PublicMethods += other.PublicMethods
	c.ProtectedMethods += other.ProtectedMethods
	c.PrivateMethods += other.PrivateMethods
	c.TestMethods += other.TestMethods
	c.NamedFunctions += other.NamedFunctions
	c.AnonymousFunctions += other.AnonymousFunctions

	c.GlobalConstants += other.GlobalConstants
	c.PublicClassConstants += other.PublicClassConstants
	c.NonPublicClassConstants += other.NonPublicClassConstants

	c.GlobalVariableAccesses += other.GlobalVariableAccesses
	c.SuperGlobalVariableAccesses += other.SuperGlobalVariableAccesses
	c.StaticAttributeAccesses += other.StaticAttributeAccesses
	c.NonStaticAttributeAccesses += other.NonStaticAttributeAccesses
	c.StaticMethodCalls += other.StaticMethodCalls
	c.NonStaticMethodCalls += other.NonStaticMethodCalls

	for _, pair := range []struct{ dst, src Bag }{
		{c.Directories, other.Directories},
		{c.Namespaces, other.Namespaces},
		{c.ConstantNames, other.ConstantNames},
		{c.PossibleConstantAccesses, other.PossibleConstantAccesses},
	} {
		for name, n := range pair.src {
			pair.dst.Add(name, n)
		}
	}
}

// Classes is the number of concrete, abstract and final classes.
func (c *CounterSet) Classes() int {
	return c.AbstractClasses + c.FinalClasses + c.NonFinalClasses
}

// Methods is the number of counted (non-test) methods.
func (c *CounterSet) Methods() int {
	return c.StaticMethods + c.NonStaticMethods
}

// Functions is the number of named and anonymous functions.
func (c *CounterSet) Functions() int {
	return c.NamedFunctions + c.AnonymousFunctions
}
