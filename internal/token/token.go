package token

import "strings"

// Kind represents the type of a lexical token.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindWhitespace
	KindComment
	KindDocComment
	KindInlineHTML
	KindOpenTag
	KindCloseTag

	// Declarations and modifiers
	KindNamespace
	KindClass
	KindInterface
	KindTrait
	KindExtends
	KindImplements
	KindFunction
	KindUse
	KindDeclare
	KindGlobal
	KindStatic
	KindPublic
	KindProtected
	KindPrivate
	KindAbstract
	KindFinal
	KindConst
	KindNew

	// Branching
	KindIf
	KindElseIf
	KindFor
	KindForeach
	KindWhile
	KindCase
	KindCatch
	KindBooleanAnd // &&
	KindBooleanOr  // ||
	KindLogicalAnd // and
	KindLogicalOr  // or

	// Any other reserved word (return, echo, else, ...)
	KindKeyword

	KindIdentifier
	KindVariable
	KindString      // complete string literal
	KindStringPart  // literal text inside an interpolated string
	KindNumber
	KindDoubleColon // ::
	KindObjectOperator
	KindNsSeparator

	KindSemicolon
	KindOpenBrace
	KindCloseBrace
	KindOpenParen
	KindCloseParen
	KindQuestion
	KindAmpersand
	KindCurlyOpen       // {$ inside a string
	KindDollarOpenCurly // ${ inside a string
	KindOther           // any other operator or punctuation
)

var kindNames = map[Kind]string{
	KindInvalid:         "invalid",
	KindWhitespace:      "whitespace",
	KindComment:         "comment",
	KindDocComment:      "doc_comment",
	KindInlineHTML:      "inline_html",
	KindOpenTag:         "open_tag",
	KindCloseTag:        "close_tag",
	KindNamespace:       "namespace",
	KindClass:           "class",
	KindInterface:       "interface",
	KindTrait:           "trait",
	KindExtends:         "extends",
	KindImplements:      "implements",
	KindFunction:        "function",
	KindUse:             "use",
	KindDeclare:         "declare",
	KindGlobal:          "global",
	KindStatic:          "static",
	KindPublic:          "public",
	KindProtected:       "protected",
	KindPrivate:         "private",
	KindAbstract:        "abstract",
	KindFinal:           "final",
	KindConst:           "const",
	KindNew:             "new",
	KindIf:              "if",
	KindElseIf:          "elseif",
	KindFor:             "for",
	KindForeach:         "foreach",
	KindWhile:           "while",
	KindCase:            "case",
	KindCatch:           "catch",
	KindBooleanAnd:      "boolean_and",
	KindBooleanOr:       "boolean_or",
	KindLogicalAnd:      "logical_and",
	KindLogicalOr:       "logical_or",
	KindKeyword:         "keyword",
	KindIdentifier:      "identifier",
	KindVariable:        "variable",
	KindString:          "string",
	KindStringPart:      "string_part",
	KindNumber:          "number",
	KindDoubleColon:     "double_colon",
	KindObjectOperator:  "object_operator",
	KindNsSeparator:     "ns_separator",
	KindSemicolon:       "semicolon",
	KindOpenBrace:       "open_brace",
	KindCloseBrace:      "close_brace",
	KindOpenParen:       "open_paren",
	KindCloseParen:      "close_paren",
	KindQuestion:        "question",
	KindAmpersand:       "ampersand",
	KindCurlyOpen:       "curly_open",
	KindDollarOpenCurly: "dollar_open_curly",
	KindOther:           "other",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsBranch reports whether the kind adds a decision point.
func (k Kind) IsBranch() bool {
	switch k {
	case KindIf, KindElseIf, KindFor, KindForeach, KindWhile, KindCase, KindCatch,
		KindBooleanAnd, KindBooleanOr, KindLogicalAnd, KindLogicalOr:
		return true
	default:
		return false
	}
}

// IsTrivia reports whether the kind carries no syntax (whitespace and comments).
func (k Kind) IsTrivia() bool {
	return k == KindWhitespace || k == KindComment || k == KindDocComment
}

// Token is one lexical unit. Line is 1-based and points at the token start.
type Token struct {
	Kind Kind
	Text string
	Line uint32
}

func (t Token) String() string {
	return t.Kind.String() + "(" + t.Text + ")"
}

// IsNamePart reports whether t can appear inside a possibly qualified
// class or namespace name. Reserved words count since PHP allows many of
// them as name segments.
func (t Token) IsNamePart() bool {
	switch {
	case t.Kind == KindNsSeparator, t.Kind == KindIdentifier, t.Kind == KindKeyword:
		return true
	case t.Kind >= KindNamespace && t.Kind <= KindLogicalOr && t.Text != "":
		c := t.Text[0]
		return c == '_' || c >= 0x80 || (c|0x20 >= 'a' && c|0x20 <= 'z')
	default:
		return false
	}
}

var keywords = map[string]Kind{
	"namespace":  KindNamespace,
	"class":      KindClass,
	"interface":  KindInterface,
	"trait":      KindTrait,
	"extends":    KindExtends,
	"implements": KindImplements,
	"function":   KindFunction,
	"use":        KindUse,
	"declare":    KindDeclare,
	"global":     KindGlobal,
	"static":     KindStatic,
	"public":     KindPublic,
	"protected":  KindProtected,
	"private":    KindPrivate,
	"abstract":   KindAbstract,
	"final":      KindFinal,
	"const":      KindConst,
	"new":        KindNew,
	"if":         KindIf,
	"elseif":     KindElseIf,
	"for":        KindFor,
	"foreach":    KindForeach,
	"while":      KindWhile,
	"case":       KindCase,
	"catch":      KindCatch,
	"and":        KindLogicalAnd,
	"or":         KindLogicalOr,
}

// Remaining reserved words; the analysis only needs to know they are not identifiers.
var reserved = []string{
	"array", "as", "break", "callable", "clone", "continue", "default", "die", "do",
	"echo", "else", "empty", "enddeclare", "endfor", "endforeach", "endif", "endswitch",
	"endwhile", "eval", "exit", "finally", "fn", "goto", "include", "include_once",
	"instanceof", "insteadof", "isset", "list", "match", "print", "require",
	"require_once", "return", "switch", "throw", "try", "unset", "var", "xor", "yield",
}

func init() {
	for _, word := range reserved {
		keywords[word] = KindKeyword
	}
}

// LookupWord classifies a bare word: a reserved word yields its keyword kind,
// anything else is an identifier. Matching is case-insensitive.
func LookupWord(word string) Kind {
	if kind, ok := keywords[strings.ToLower(word)]; ok {
		return kind
	}
	return KindIdentifier
}

var punctuation = map[string]Kind{
	";":   KindSemicolon,
	"{":   KindOpenBrace,
	"}":   KindCloseBrace,
	"(":   KindOpenParen,
	")":   KindCloseParen,
	"?":   KindQuestion,
	"&":   KindAmpersand,
	"::":  KindDoubleColon,
	"->":  KindObjectOperator,
	"?->": KindObjectOperator,
	"\\":  KindNsSeparator,
	"&&":  KindBooleanAnd,
	"||":  KindBooleanOr,
	"{$":  KindCurlyOpen,
	"${":  KindDollarOpenCurly,
}

// LookupSymbol classifies operator and punctuation text.
func LookupSymbol(symbol string) Kind {
	if kind, ok := punctuation[symbol]; ok {
		return kind
	}
	return KindOther
}
