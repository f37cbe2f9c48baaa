package token

// EquivClassID names one of the byte equivalence classes this package
// collapses the 256-byte input alphabet into — the external lexer DFA's
// first stage, matching the original's documented approach of classifying
// bytes before indexing a transition table.
type EquivClassID uint8

const (
	ClassOther EquivClassID = iota
	ClassDigit
	ClassAlpha
	ClassUnderscore
	ClassWhitespace
	ClassQuote
	ClassDQuote
	ClassSingleCharPunct // one of ( ) { } [ ] , ; :
	ClassOperatorChar    // one of = | & ^ < > + - * / !

	numClasses
)

// EquivClass is the 256-entry byte→class table.
var EquivClass [256]EquivClassID

func init() {
	for b := 0; b < 256; b++ {
		switch {
		case b >= '0' && b <= '9':
			EquivClass[b] = ClassDigit
		case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z':
			EquivClass[b] = ClassAlpha
		case b == '_':
			EquivClass[b] = ClassUnderscore
		case b == ' ', b == '\t', b == '\n', b == '\r':
			EquivClass[b] = ClassWhitespace
		case b == '\'':
			EquivClass[b] = ClassQuote
		case b == '"':
			EquivClass[b] = ClassDQuote
		default:
			EquivClass[b] = ClassOther
		}
	}
	for _, c := range "(){}[],;:" {
		EquivClass[c] = ClassSingleCharPunct
	}
	for _, c := range "=|&^<>+-*/!" {
		EquivClass[c] = ClassOperatorChar
	}
}

// Lexer DFA states this table's two rows represent: Start sees the first
// byte of a token; AfterOperator has just consumed one operator byte and is
// deciding whether a second byte extends it into a compound operator.
const (
	StateStart = iota
	StateAfterOperator

	numStates
)

// Transition is the compact state×class table spec.md §6.1 asks for: given
// a lexer state and the current byte's class, the Kind a lone byte of that
// class stands for (KindError where the class alone doesn't resolve to a
// single token, e.g. ClassAlpha/ClassDigit, which need the external scanner
// to keep consuming before a Kind is known). Sized to this package's
// representative token set rather than the original's full ~46k-entry
// table.
var Transition = buildTransition()

func buildTransition() [][]Kind {
	t := make([][]Kind, numStates)
	for i := range t {
		t[i] = make([]Kind, numClasses)
		for j := range t[i] {
			t[i][j] = KindError
		}
	}
	t[StateStart][ClassSingleCharPunct] = KindError // resolved per-byte, see singleCharPunct
	t[StateStart][ClassOperatorChar] = KindError     // resolved per-byte, see operatorStart
	t[StateStart][ClassWhitespace] = KindError       // consumed, produces no token
	return t
}

// singleCharPunct names the Kind each one-byte punctuation class member
// stands for — a class-only table can resolve these directly since no two
// members of ClassSingleCharPunct ever combine.
var singleCharPunct = map[byte]Kind{
	'(': KindLParen, ')': KindRParen,
	'{': KindLBrace, '}': KindRBrace,
	'[': KindLBracket, ']': KindRBracket,
	',': KindComma, ';': KindSemicolon, ':': KindColon,
}

// operatorStart names the Kind a lone operator byte stands for absent a
// second character extending it.
var operatorStart = map[byte]Kind{
	'=': KindAssign,
	'|': KindBitwiseOr,
	'&': KindBitwiseAnd,
	'^': KindBitwiseXor,
	'<': KindLt,
	'>': KindGt,
	'+': KindPlus,
	'-': KindMinus,
	'*': KindAsterisk,
	'/': KindFSlash,
}

// operatorExtend names the two-character token an operator byte plus its
// follower forms, when one exists (==, !=, <=, >=, <<, >>, &&, ||). This
// needs the actual byte pair, not just the class, which is why it sits
// beside Transition rather than inside it — ClassOperatorChar lumps bytes
// together that only some pairs of actually combine.
var operatorExtend = map[[2]byte]Kind{
	{'=', '='}: KindEq,
	{'!', '='}: KindNotEq,
	{'<', '='}: KindLte,
	{'>', '='}: KindGte,
	{'<', '<'}: KindLShift,
	{'>', '>'}: KindRShift,
	{'&', '&'}: KindLogicalAnd,
	{'|', '|'}: KindLogicalOr,
}

// ClassifyOperator resolves a punctuation or operator byte (with optional
// lookahead) to its Kind from the byte-level maps above; it does not read
// Transition, whose entries for these classes are KindError. Returns false
// for a byte this representative table doesn't cover (identifiers, digits,
// quotes — left to the external scanner).
func ClassifyOperator(b byte, next byte, hasNext bool) (Kind, bool) {
	if hasNext {
		if k, ok := operatorExtend[[2]byte{b, next}]; ok {
			return k, true
		}
	}
	if k, ok := singleCharPunct[b]; ok {
		return k, true
	}
	if k, ok := operatorStart[b]; ok {
		return k, true
	}
	return KindError, false
}
