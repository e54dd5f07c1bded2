package analyzer

import (
	"strings"

	"phpmetrics/internal/token"
)

const invalidClassName = "invalid class name"

// qualifiedName joins the contiguous name parts starting at i and returns
// the joined text with the position of its last token.
func qualifiedName(buf *token.Buffer, i int) (string, int) {
	var b strings.Builder
	end := i
	for j := i; j < buf.Len() && buf.At(j).IsNamePart(); j++ {
		b.WriteString(buf.At(j).Text)
		end = j
	}
	return b.String(), end
}

// namespaceName reads the namespace declared by the keyword at i. A
// namespace block without a name yields "" and true; the relative name
// operator (namespace\foo) is not a declaration.
func namespaceName(buf *token.Buffer, i int) (string, bool) {
	next := buf.NextNonWhitespace(i)
	tok := buf.At(next)
	if next == i+1 && tok.Kind == token.KindNsSeparator {
		return "", false
	}
	if !tok.IsNamePart() || tok.Kind == token.KindNsSeparator {
		return "", true
	}
	name, _ := qualifiedName(buf, next)
	return name, true
}

// isClassDeclaration rejects Foo::class and new class.
func isClassDeclaration(buf *token.Buffer, i int) bool {
	switch buf.KindAt(buf.PrevNonWhitespace(i)) {
	case token.KindDoubleColon, token.KindNew:
		return false
	default:
		return true
	}
}

// className resolves the lower-cased, namespace-qualified name following
// the keyword at i and returns the position of its last token.
func className(buf *token.Buffer, i int, namespace string) (string, int) {
	next := buf.NextNonWhitespace(i)
	if next < 0 || !buf.At(next).IsNamePart() {
		return invalidClassName, i
	}
	name, end := qualifiedName(buf, next)
	if !strings.HasPrefix(name, `\`) && namespace != "" {
		name = namespace + `\` + name
	}
	return strings.ToLower(name), end
}

// parentName resolves an extends clause directly after a class name
// ending at end.
func parentName(buf *token.Buffer, end int, namespace string) (string, bool) {
	next := buf.NextNonWhitespace(end)
	if buf.KindAt(next) != token.KindExtends {
		return "", false
	}
	name, _ := className(buf, next, namespace)
	if name == invalidClassName {
		return "", false
	}
	return name, true
}
