package analyzer

import (
	"bytes"
	"strings"

	"phpmetrics/internal/context"
	"phpmetrics/internal/models"
	"phpmetrics/internal/token"
)

// MetricsExtractor walks a file's tokens once and raises metric events.
type MetricsExtractor struct {
	hierarchy    *ClassHierarchy
	superglobals map[string]struct{}
}

// NewMetricsExtractor returns an extractor. A nil hierarchy disables test
// class and test method detection.
func NewMetricsExtractor(hierarchy *ClassHierarchy, superglobals []string) *MetricsExtractor {
	set := make(map[string]struct{}, len(superglobals))
	for _, name := range superglobals {
		set[name] = struct{}{}
	}
	return &MetricsExtractor{hierarchy: hierarchy, superglobals: set}
}

// Extract raises every event for one file into sink.
func (m *MetricsExtractor) Extract(path string, src []byte, tokens []token.Token, sink models.Sink) {
	sink.Apply(models.Event{Kind: models.EventFile, Name: path})
	sink.Apply(models.Event{Kind: models.EventLines, N: bytes.Count(src, []byte{'\n'})})

	p := &pass{
		MetricsExtractor: m,
		buf:              token.NewBuffer(tokens),
		ctx:              context.NewAnalysisContext(),
		sink:             sink,
	}
	p.run()
}

// pass is the state of one file walk.
type pass struct {
	*MetricsExtractor
	buf   *token.Buffer
	ctx   *context.AnalysisContext
	scope ScopeTracker
	sink  models.Sink
}

func (p *pass) emit(kind models.EventKind) {
	p.sink.Apply(models.Event{Kind: kind})
}

func (p *pass) emitName(kind models.EventKind, name string) {
	p.sink.Apply(models.Event{Kind: kind, Name: name})
}

func (p *pass) run() {
	for i := 0; i < p.buf.Len(); i++ {
		tok := p.buf.At(i)
		switch tok.Kind {
		case token.KindSemicolon:
			p.statement()
		case token.KindQuestion:
			p.ternary()
		case token.KindOpenBrace:
			p.scope.EnterBlock(p.ctx.Consume())
		case token.KindCurlyOpen, token.KindDollarOpenCurly:
			p.scope.EnterBlock(context.Opaque())
		case token.KindCloseBrace:
			p.closeBlock()
		case token.KindNamespace:
			p.namespace(i)
		case token.KindClass, token.KindInterface, token.KindTrait:
			p.classDeclaration(i)
		case token.KindFunction:
			p.function(i)
		case token.KindComment, token.KindDocComment:
			lines := strings.Count(strings.TrimRight(tok.Text, "\n"), "\n") + 1
			p.sink.Apply(models.Event{Kind: models.EventCommentLines, N: lines})
		case token.KindConst:
			p.constant(i)
		case token.KindIdentifier:
			p.identifier(i)
		case token.KindDoubleColon, token.KindObjectOperator:
			p.member(i)
		case token.KindGlobal:
			p.emit(models.EventGlobalVariableAccess)
		case token.KindVariable:
			p.variable(tok.Text)
		case token.KindUse, token.KindDeclare:
			p.ctx.LogicalLine = false
		default:
			if tok.Kind.IsBranch() {
				p.branch()
			}
		}
	}
	p.finish()
}

func (p *pass) statement() {
	if p.ctx.LogicalLine {
		switch {
		case p.ctx.CountsClassMetrics():
			p.emit(models.EventClassLine)
			if p.ctx.HasFunction {
				p.emit(models.EventMethodLine)
			}
		case p.ctx.HasFunction:
			p.emit(models.EventFunctionLine)
		}
		p.emit(models.EventLogicalLine)
	}
	p.ctx.LogicalLine = true

	// a declaration without a body (abstract or interface method)
	if p.ctx.Pending != nil {
		if p.ctx.Consume().Kind == context.FrameFunction {
			p.closeFunction()
		}
	}
}

func (p *pass) ternary() {
	if p.ctx.TestClass {
		return
	}
	if p.ctx.HasClass {
		p.emit(models.EventClassComplexity)
		if p.ctx.InMethod {
			p.emit(models.EventMethodComplexity)
		}
	}
	p.emit(models.EventComplexity)
}

func (p *pass) branch() {
	if p.ctx.TestClass {
		return
	}
	if p.ctx.InMethod {
		p.emit(models.EventClassComplexity)
		p.emit(models.EventMethodComplexity)
	}
	p.emit(models.EventComplexity)
}

func (p *pass) closeBlock() {
	frame, ok := p.scope.CloseBlock()
	if !ok {
		return
	}
	switch frame.Kind {
	case context.FrameFunction:
		if p.ctx.HasFunction && frame.Name == p.ctx.Function {
			p.closeFunction()
		}
	case context.FrameClass:
		if p.ctx.HasClass && frame.Name == p.ctx.Class {
			p.closeClass()
		}
	case context.FrameAnonymous, context.FrameOpaque:
	}
}

func (p *pass) closeFunction() {
	if p.ctx.InMethod {
		p.emit(models.EventMethodStop)
	}
	p.ctx.LeaveFunction()
}

func (p *pass) closeClass() {
	if p.ctx.HasFunction {
		p.closeFunction()
	}
	p.ctx.LeaveClass()
	p.emit(models.EventClassStop)
	p.emit(models.EventClassReset)
}

// finish closes scopes left open by truncated input so the class and
// method accumulators never leak into the next file.
func (p *pass) finish() {
	switch {
	case p.ctx.HasClass:
		p.closeClass()
	case p.ctx.HasFunction:
		p.closeFunction()
	}
}

func (p *pass) namespace(i int) {
	name, ok := namespaceName(p.buf, i)
	if !ok {
		return
	}
	p.ctx.Namespace = name
	if name != "" {
		p.emitName(models.EventNamespace, name)
	}
	p.ctx.LogicalLine = false
}

func (p *pass) classDeclaration(i int) {
	if !isClassDeclaration(p.buf, i) {
		return
	}
	p.emit(models.EventClassReset)
	p.emit(models.EventClassComplexity)
	p.emit(models.EventComplexity)

	name, _ := className(p.buf, i, p.ctx.Namespace)
	p.ctx.Label(context.Class(name))

	test := false
	switch p.buf.KindAt(i) {
	case token.KindTrait:
		p.emit(models.EventTrait)
	case token.KindInterface:
		p.emit(models.EventInterface)
	default:
		if p.hierarchy != nil && p.hierarchy.IsTestClass(name) {
			test = true
			p.emit(models.EventTestClass)
			break
		}
		switch p.buf.KindAt(p.classModifier(i)) {
		case token.KindAbstract:
			p.emit(models.EventAbstractClass)
		case token.KindFinal:
			p.emit(models.EventFinalClass)
		default:
			p.emit(models.EventNonFinalClass)
		}
	}
	p.ctx.EnterClass(name, test)
}

// classModifier returns the position of the modifier before the class
// keyword at i, looking past readonly.
func (p *pass) classModifier(i int) int {
	prev := p.buf.PrevNonTrivia(i)
	for prev >= 0 && strings.EqualFold(p.buf.At(prev).Text, "readonly") {
		prev = p.buf.PrevNonTrivia(prev)
	}
	return prev
}

func (p *pass) function(i int) {
	if p.buf.KindAt(p.buf.PrevNonWhitespace(i)) == token.KindUse {
		return
	}

	next := p.buf.NextNonWhitespace(i)
	if p.buf.KindAt(next) == token.KindAmpersand {
		next = p.buf.NextNonWhitespace(next)
	}
	if p.buf.KindAt(next) != token.KindIdentifier {
		p.emit(models.EventAnonymousFunction)
		p.ctx.Label(context.Anonymous())
		return
	}

	name := p.buf.At(next).Text
	p.ctx.Label(context.Function(name))
	p.ctx.EnterFunction(name)
	if !p.ctx.HasClass {
		p.emit(models.EventNamedFunction)
		return
	}

	static, visibility := p.methodModifiers(i)
	if p.ctx.TestClass {
		if p.isTestMethod(name, visibility, static, i) {
			p.emit(models.EventTestMethod)
		}
		return
	}

	p.ctx.InMethod = true
	p.emit(models.EventMethodStart)
	p.emit(models.EventClassMethod)
	if static {
		p.emit(models.EventStaticMethod)
	} else {
		p.emit(models.EventNonStaticMethod)
	}
	switch visibility {
	case token.KindPrivate:
		p.emit(models.EventPrivateMethod)
	case token.KindProtected:
		p.emit(models.EventProtectedMethod)
	default:
		p.emit(models.EventPublicMethod)
	}
}

// methodModifiers scans back from the function keyword at i to the
// previous statement or block boundary.
func (p *pass) methodModifiers(i int) (static bool, visibility token.Kind) {
	visibility = token.KindPublic
	for j := i - 1; j >= 0; j-- {
		switch p.buf.KindAt(j) {
		case token.KindOpenBrace, token.KindCloseBrace, token.KindSemicolon:
			return static, visibility
		case token.KindPrivate:
			visibility = token.KindPrivate
		case token.KindProtected:
			visibility = token.KindProtected
		case token.KindStatic:
			static = true
		}
	}
	return static, visibility
}

func (p *pass) isTestMethod(name string, visibility token.Kind, static bool, i int) bool {
	if static || visibility != token.KindPublic {
		return false
	}
	if strings.HasPrefix(name, "test") {
		return true
	}
	for j := i; j >= 0; j-- {
		switch p.buf.KindAt(j) {
		case token.KindDocComment:
			doc := p.buf.At(j).Text
			return strings.Contains(doc, "@test") || strings.Contains(doc, "@scenario")
		case token.KindOpenBrace, token.KindCloseBrace:
			return false
		}
	}
	return false
}

func (p *pass) constant(i int) {
	prev := p.buf.PrevNonTrivia(i)
	for p.buf.KindAt(prev) == token.KindFinal {
		prev = p.buf.PrevNonTrivia(prev)
	}
	switch p.buf.KindAt(prev) {
	case token.KindUse:
	case token.KindPrivate, token.KindProtected:
		p.emit(models.EventNonPublicClassConstant)
	default:
		p.emit(models.EventPublicClassConstant)
	}
}

func (p *pass) identifier(i int) {
	text := p.buf.At(i).Text
	if strings.EqualFold(text, "define") && p.isGlobalCall(i) {
		p.emit(models.EventGlobalConstant)
		for j := i + 1; j < p.buf.Len() && p.buf.KindAt(j) != token.KindSemicolon; j++ {
			if p.buf.KindAt(j) == token.KindString {
				p.emitName(models.EventConstantName, unquote(p.buf.At(j).Text))
				return
			}
		}
		return
	}
	// segments of qualified names are not constant candidates
	if p.buf.KindAt(i-1) == token.KindNsSeparator || p.buf.KindAt(i+1) == token.KindNsSeparator {
		return
	}
	p.emitName(models.EventPossibleConstantAccess, text)
}

// isGlobalCall reports whether the word at i names a function in the
// global namespace: unqualified or fully qualified (\define), never a
// member or a segment of a longer name.
func (p *pass) isGlobalCall(i int) bool {
	if p.isMemberName(i) || p.buf.KindAt(i+1) == token.KindNsSeparator {
		return false
	}
	if p.buf.KindAt(i-1) == token.KindNsSeparator {
		return !p.buf.At(i - 2).IsNamePart()
	}
	return true
}

// isMemberName reports whether the word at i names a member or a
// declared function rather than a free call.
func (p *pass) isMemberName(i int) bool {
	switch p.buf.KindAt(p.buf.PrevNonWhitespace(i)) {
	case token.KindObjectOperator, token.KindDoubleColon, token.KindFunction:
		return true
	default:
		return false
	}
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func (p *pass) member(i int) {
	static := p.buf.KindAt(i) == token.KindDoubleColon
	n := p.buf.NextNonWhitespace(i)
	nn := p.buf.NextNonWhitespace(n)
	next := p.buf.At(n)
	callable := next.Kind == token.KindVariable ||
		(next.IsNamePart() && next.Kind != token.KindNsSeparator)

	switch {
	case n >= 0 && nn >= 0 && callable && p.buf.KindAt(nn) == token.KindOpenParen:
		if static {
			p.emit(models.EventStaticMethodCall)
		} else {
			p.emit(models.EventNonStaticMethodCall)
		}
	case static && next.Kind == token.KindVariable:
		p.emit(models.EventStaticAttributeAccess)
	case !static:
		p.emit(models.EventNonStaticAttributeAccess)
	}
}

func (p *pass) variable(name string) {
	if name == "$GLOBALS" {
		p.emit(models.EventGlobalVariableAccess)
		return
	}
	if _, ok := p.superglobals[name]; ok {
		p.emit(models.EventSuperGlobalVariableAccess)
	}
}
