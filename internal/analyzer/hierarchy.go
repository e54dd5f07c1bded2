package analyzer

import (
	"strings"
	"sync"

	"phpmetrics/internal/token"
)

// maxAncestry bounds parent-chain walks so cyclic data cannot hang.
const maxAncestry = 100

// ClassRecord is one indexed class declaration. Parent is "" when the
// class has no extends clause.
type ClassRecord struct {
	Name   string
	Parent string
}

// ClassHierarchy maps normalized class names to their declared parents.
// It is shared by every file of a run and safe for concurrent indexing;
// a duplicate name keeps the last record written.
type ClassHierarchy struct {
	mu      sync.RWMutex
	parents map[string]string
	bases   map[string]struct{}
}

func NewClassHierarchy(testBases []string) *ClassHierarchy {
	bases := make(map[string]struct{}, len(testBases))
	for _, base := range testBases {
		bases[normalizeBase(base)] = struct{}{}
	}
	return &ClassHierarchy{
		parents: make(map[string]string),
		bases:   bases,
	}
}

func normalizeBase(name string) string {
	return strings.TrimPrefix(strings.ToLower(name), `\`)
}

// Index records every class, interface and trait declared in tokens.
func (h *ClassHierarchy) Index(tokens []token.Token) {
	buf := token.NewBuffer(tokens)
	namespace := ""
	var records []ClassRecord

	for i := 0; i < buf.Len(); i++ {
		switch buf.KindAt(i) {
		case token.KindNamespace:
			if name, ok := namespaceName(buf, i); ok {
				namespace = name
			}
		case token.KindClass, token.KindInterface, token.KindTrait:
			if !isClassDeclaration(buf, i) {
				continue
			}
			name, end := className(buf, i, namespace)
			parent, _ := parentName(buf, end, namespace)
			records = append(records, ClassRecord{Name: name, Parent: parent})
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, rec := range records {
		h.parents[rec.Name] = rec.Parent
	}
}

// Record stores a single class record.
func (h *ClassHierarchy) Record(rec ClassRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.parents[rec.Name] = rec.Parent
}

func (h *ClassHierarchy) Lookup(name string) (ClassRecord, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	parent, ok := h.parents[name]
	return ClassRecord{Name: name, Parent: parent}, ok
}

func (h *ClassHierarchy) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.parents)
}

// IsTestClass walks the parent chain of name looking for a test base
// class. When the chain ends without a match the immediate parent is
// accepted if its name ends in "testcase".
func (h *ClassHierarchy) IsTestClass(name string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	immediate := h.parents[name]
	parent := immediate
	for hops := 0; parent != "" && hops < maxAncestry; hops++ {
		if _, ok := h.bases[normalizeBase(parent)]; ok {
			return true
		}
		key := strings.TrimPrefix(parent, `\`)
		next, ok := h.parents[key]
		if !ok || next == key || next == parent {
			break
		}
		parent = next
	}
	return strings.HasSuffix(immediate, "testcase")
}
