package token

type TokenType string

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	// Identifiers + literals
	IDENT  = "IDENT"  // add, counter, x, y, ...
	INT    = "INT"    // 1343456
	FLOAT  = "FLOAT"  // 3.14
	STRING = "STRING" // "foobar"
	CHAR   = "CHAR"   // 'a'
	LABEL  = "LABEL"  // 'outer

	// Operators
	ASSIGN   = "="
	PLUS     = "+"
	MINUS    = "-"
	BANG     = "!"
	ASTERISK = "*"
	SLASH    = "/"
	PERCENT  = "%"
	QUESTION = "?"

	LT    = "<"
	LT_EQ = "<="
	GT    = ">"
	GT_EQ = ">="

	EQ     = "=="
	NOT_EQ = "!="

	LOGICAL_AND = "&&"
	LOGICAL_OR  = "||"

	ROCKET = "=>"

	RANGE           = ".."
	RANGE_INCLUSIVE = "..="

	// Delimiters
	PERIOD    = "."
	COMMA     = ","
	SEMICOLON = ";"
	COLON     = ":"

	LPAREN   = "("
	RPAREN   = ")"
	LBRACE   = "{"
	RBRACE   = "}"
	LBRACKET = "["
	RBRACKET = "]"

	UNDERSCORE = "_"

	// Keywords
	LET      = "LET"
	MUT      = "MUT"
	FUNCTION = "FUNCTION"
	TRUE     = "TRUE"
	FALSE    = "FALSE"
	IF       = "IF"
	ELSE     = "ELSE"
	MATCH    = "MATCH"
	FOR      = "FOR"
	IN       = "IN"
	WHILE    = "WHILE"
	LOOP     = "LOOP"
	BREAK    = "BREAK"
	CONTINUE = "CONTINUE"
	RETURN   = "RETURN"
	THROW    = "THROW"
	TRY      = "TRY"
	CATCH    = "CATCH"
	CLASS    = "CLASS"
	ACTOR    = "ACTOR"
	RECEIVE  = "RECEIVE"
	SPAWN    = "SPAWN"
	ENUM     = "ENUM"
)

type Token struct {
	Type     TokenType
	Literal  string
	Position int // the src index of the token
}

var keywords = map[string]TokenType{
	"let":      LET,
	"mut":      MUT,
	"fn":       FUNCTION,
	"true":     TRUE,
	"false":    FALSE,
	"if":       IF,
	"else":     ELSE,
	"match":    MATCH,
	"for":      FOR,
	"in":       IN,
	"while":    WHILE,
	"loop":     LOOP,
	"break":    BREAK,
	"continue": CONTINUE,
	"return":   RETURN,
	"throw":    THROW,
	"try":      TRY,
	"catch":    CATCH,
	"class":    CLASS,
	"actor":    ACTOR,
	"receive":  RECEIVE,
	"spawn":    SPAWN,
	"enum":     ENUM,
}

// LookupIdent distinguishes keywords from plain identifiers. A bare `_` is
// the wildcard used in patterns.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	if ident == "_" {
		return UNDERSCORE
	}
	return IDENT
}
