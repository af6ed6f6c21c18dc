package ast

import (
	"bytes"
	"rill/internal/token"
	"strings"
)

// The base Node interface
type Node interface {
	TokenLiteral() string
	String() string
}

type Statement interface {
	Node
	statementNode()
}

type Expression interface {
	Node
	expressionNode()
}

// MatchPattern is implemented by every pattern node usable in `match` arms,
// `let` destructuring, catch clauses and actor receive arms.
type MatchPattern interface {
	Node
	patternNode()
}

type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	var out bytes.Buffer
	for _, s := range p.Statements {
		out.WriteString(s.String())
	}
	return out.String()
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

type LetStatement struct {
	Token   token.Token // the token.LET token
	Mutable bool        // let mut
	Pattern MatchPattern
	Value   Expression
}

func (ls *LetStatement) statementNode()       {}
func (ls *LetStatement) TokenLiteral() string { return ls.Token.Literal }
func (ls *LetStatement) String() string {
	var out bytes.Buffer
	out.WriteString("let ")
	if ls.Mutable {
		out.WriteString("mut ")
	}
	out.WriteString(ls.Pattern.String())
	if ls.Value != nil {
		out.WriteString(" = ")
		out.WriteString(ls.Value.String())
	}
	out.WriteString(";")
	return out.String()
}

type ReturnStatement struct {
	Token       token.Token // the token.RETURN token
	ReturnValue Expression  // nil for a bare `return`
}

func (rs *ReturnStatement) statementNode()       {}
func (rs *ReturnStatement) TokenLiteral() string { return rs.Token.Literal }
func (rs *ReturnStatement) String() string {
	var out bytes.Buffer
	out.WriteString("return")
	if rs.ReturnValue != nil {
		out.WriteString(" ")
		out.WriteString(rs.ReturnValue.String())
	}
	out.WriteString(";")
	return out.String()
}

type BreakStatement struct {
	Token token.Token
	Label string     // "" targets the innermost loop
	Value Expression // nil breaks with Unit
}

func (bs *BreakStatement) statementNode()       {}
func (bs *BreakStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BreakStatement) String() string {
	var out bytes.Buffer
	out.WriteString("break")
	if bs.Label != "" {
		out.WriteString(" '" + bs.Label)
	}
	if bs.Value != nil {
		out.WriteString(" ")
		out.WriteString(bs.Value.String())
	}
	out.WriteString(";")
	return out.String()
}

type ContinueStatement struct {
	Token token.Token
	Label string
}

func (cs *ContinueStatement) statementNode()       {}
func (cs *ContinueStatement) TokenLiteral() string { return cs.Token.Literal }
func (cs *ContinueStatement) String() string {
	if cs.Label != "" {
		return "continue '" + cs.Label + ";"
	}
	return "continue;"
}

type ThrowStatement struct {
	Token token.Token
	Value Expression
}

func (ts *ThrowStatement) statementNode()       {}
func (ts *ThrowStatement) TokenLiteral() string { return ts.Token.Literal }
func (ts *ThrowStatement) String() string {
	return "throw " + ts.Value.String() + ";"
}

type ExpressionStatement struct {
	Token      token.Token // the first token of the expression
	Expression Expression
}

func (es *ExpressionStatement) statementNode()       {}
func (es *ExpressionStatement) TokenLiteral() string { return es.Token.Literal }
func (es *ExpressionStatement) String() string {
	if es.Expression != nil {
		return es.Expression.String()
	}
	return ""
}

// FunctionDeclaration is `fn name(params) { body }` at statement level.
// It binds an immutable closure under Name.
type FunctionDeclaration struct {
	Token    token.Token // the token.FUNCTION token
	Name     *Identifier
	Function *FunctionLiteral
}

func (fd *FunctionDeclaration) statementNode()       {}
func (fd *FunctionDeclaration) TokenLiteral() string { return fd.Token.Literal }
func (fd *FunctionDeclaration) String() string {
	var out bytes.Buffer
	out.WriteString("fn ")
	out.WriteString(fd.Name.String())
	out.WriteString(fd.Function.signatureString())
	out.WriteString(" ")
	out.WriteString(fd.Function.Body.String())
	return out.String()
}

// ClassDeclaration declares a reference-semantic class: an optional `init`
// constructor plus a method table shared by every instance.
type ClassDeclaration struct {
	Token   token.Token // the token.CLASS token
	Name    *Identifier
	Init    *FunctionLiteral // nil when the class has no constructor
	Methods []*FunctionDeclaration
}

func (cd *ClassDeclaration) statementNode()       {}
func (cd *ClassDeclaration) TokenLiteral() string { return cd.Token.Literal }
func (cd *ClassDeclaration) String() string {
	var out bytes.Buffer
	out.WriteString("class ")
	out.WriteString(cd.Name.String())
	out.WriteString(" { ")
	if cd.Init != nil {
		out.WriteString("init")
		out.WriteString(cd.Init.signatureString())
		out.WriteString(" ")
		out.WriteString(cd.Init.Body.String())
		out.WriteString(" ")
	}
	for _, m := range cd.Methods {
		out.WriteString(m.String())
		out.WriteString(" ")
	}
	out.WriteString("}")
	return out.String()
}

// ActorDeclaration declares an actor: constructor state plus receive arms
// matched against incoming messages one at a time.
type ActorDeclaration struct {
	Token   token.Token // the token.ACTOR token
	Name    *Identifier
	Init    *FunctionLiteral
	Methods []*FunctionDeclaration
	Receive []*MatchArm
}

func (ad *ActorDeclaration) statementNode()       {}
func (ad *ActorDeclaration) TokenLiteral() string { return ad.Token.Literal }
func (ad *ActorDeclaration) String() string {
	var out bytes.Buffer
	out.WriteString("actor ")
	out.WriteString(ad.Name.String())
	out.WriteString(" { ")
	if ad.Init != nil {
		out.WriteString("init")
		out.WriteString(ad.Init.signatureString())
		out.WriteString(" ")
		out.WriteString(ad.Init.Body.String())
		out.WriteString(" ")
	}
	out.WriteString("receive { ")
	for _, arm := range ad.Receive {
		out.WriteString(arm.String())
		out.WriteString(" ")
	}
	out.WriteString("} }")
	return out.String()
}

// EnumDeclaration declares an enum type; each variant carries a fixed
// payload arity (0 for bare variants).
type EnumDeclaration struct {
	Token    token.Token // the token.ENUM token
	Name     *Identifier
	Variants []*EnumVariant
}

type EnumVariant struct {
	Name   *Identifier
	Params []*Identifier // payload slot names, may be empty
}

func (ed *EnumDeclaration) statementNode()       {}
func (ed *EnumDeclaration) TokenLiteral() string { return ed.Token.Literal }
func (ed *EnumDeclaration) String() string {
	var out bytes.Buffer
	out.WriteString("enum ")
	out.WriteString(ed.Name.String())
	out.WriteString(" { ")
	parts := []string{}
	for _, v := range ed.Variants {
		var b strings.Builder
		b.WriteString(v.Name.String())
		if len(v.Params) > 0 {
			names := []string{}
			for _, p := range v.Params {
				names = append(names, p.String())
			}
			b.WriteString("(" + strings.Join(names, ", ") + ")")
		}
		parts = append(parts, b.String())
	}
	out.WriteString(strings.Join(parts, ", "))
	out.WriteString(" }")
	return out.String()
}

type BlockStatement struct {
	Token      token.Token // the { token
	Statements []Statement
}

func (bs *BlockStatement) statementNode()       {}
func (bs *BlockStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BlockStatement) String() string {
	var out bytes.Buffer
	out.WriteString("{ ")
	for _, s := range bs.Statements {
		out.WriteString(s.String())
		out.WriteString(" ")
	}
	out.WriteString("}")
	return out.String()
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

type Identifier struct {
	Token token.Token // the token.IDENT token
	Value string
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) String() string       { return i.Value }

type IntegerLiteral struct {
	Token token.Token
	Value int64
}

func (il *IntegerLiteral) expressionNode()      {}
func (il *IntegerLiteral) TokenLiteral() string { return il.Token.Literal }
func (il *IntegerLiteral) String() string       { return il.Token.Literal }

type FloatLiteral struct {
	Token token.Token
	Value float64
}

func (fl *FloatLiteral) expressionNode()      {}
func (fl *FloatLiteral) TokenLiteral() string { return fl.Token.Literal }
func (fl *FloatLiteral) String() string       { return fl.Token.Literal }

type StringLiteral struct {
	Token token.Token
	Value string
}

func (sl *StringLiteral) expressionNode()      {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StringLiteral) String() string       { return "\"" + sl.Value + "\"" }

type CharLiteral struct {
	Token token.Token
	Value rune
}

func (cl *CharLiteral) expressionNode()      {}
func (cl *CharLiteral) TokenLiteral() string { return cl.Token.Literal }
func (cl *CharLiteral) String() string       { return "'" + string(cl.Value) + "'" }

type Boolean struct {
	Token token.Token
	Value bool
}

func (b *Boolean) expressionNode()      {}
func (b *Boolean) TokenLiteral() string { return b.Token.Literal }
func (b *Boolean) String() string       { return b.Token.Literal }

// UnitLiteral is `()`.
type UnitLiteral struct {
	Token token.Token
}

func (ul *UnitLiteral) expressionNode()      {}
func (ul *UnitLiteral) TokenLiteral() string { return ul.Token.Literal }
func (ul *UnitLiteral) String() string       { return "()" }

type PrefixExpression struct {
	Token    token.Token // the prefix token, e.g. !
	Operator string
	Right    Expression
}

func (pe *PrefixExpression) expressionNode()      {}
func (pe *PrefixExpression) TokenLiteral() string { return pe.Token.Literal }
func (pe *PrefixExpression) String() string {
	return "(" + pe.Operator + pe.Right.String() + ")"
}

type InfixExpression struct {
	Token    token.Token // the operator token, e.g. +
	Left     Expression
	Operator string
	Right    Expression
}

func (ie *InfixExpression) expressionNode()      {}
func (ie *InfixExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *InfixExpression) String() string {
	return "(" + ie.Left.String() + " " + ie.Operator + " " + ie.Right.String() + ")"
}

// AssignExpression covers `x = v`, `arr[i] = v` and `obj.f = v`.
// Assignment evaluates to the assigned value, enabling chains.
type AssignExpression struct {
	Token  token.Token // the = token
	Target Expression  // Identifier, IndexExpression or FieldAccess
	Value  Expression
}

func (ae *AssignExpression) expressionNode()      {}
func (ae *AssignExpression) TokenLiteral() string { return ae.Token.Literal }
func (ae *AssignExpression) String() string {
	return "(" + ae.Target.String() + " = " + ae.Value.String() + ")"
}

type RangeLiteral struct {
	Token     token.Token // the .. or ..= token
	Start     Expression
	End       Expression
	Inclusive bool
}

func (rl *RangeLiteral) expressionNode()      {}
func (rl *RangeLiteral) TokenLiteral() string { return rl.Token.Literal }
func (rl *RangeLiteral) String() string {
	op := ".."
	if rl.Inclusive {
		op = "..="
	}
	return "(" + rl.Start.String() + op + rl.End.String() + ")"
}

type IfExpression struct {
	Token       token.Token // the token.IF token
	Condition   Expression
	Consequence *BlockStatement
	Alternative Node // *BlockStatement or *IfExpression (else if), may be nil
}

func (ie *IfExpression) expressionNode()      {}
func (ie *IfExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *IfExpression) String() string {
	var out bytes.Buffer
	out.WriteString("if ")
	out.WriteString(ie.Condition.String())
	out.WriteString(" ")
	out.WriteString(ie.Consequence.String())
	if ie.Alternative != nil {
		out.WriteString(" else ")
		out.WriteString(ie.Alternative.String())
	}
	return out.String()
}

type WhileExpression struct {
	Token     token.Token // the token.WHILE token
	Label     string
	Condition Expression
	Body      *BlockStatement
}

func (we *WhileExpression) expressionNode()      {}
func (we *WhileExpression) TokenLiteral() string { return we.Token.Literal }
func (we *WhileExpression) String() string {
	var out bytes.Buffer
	if we.Label != "" {
		out.WriteString("'" + we.Label + ": ")
	}
	out.WriteString("while ")
	out.WriteString(we.Condition.String())
	out.WriteString(" ")
	out.WriteString(we.Body.String())
	return out.String()
}

type ForExpression struct {
	Token    token.Token // the token.FOR token
	Label    string
	Binding  MatchPattern // loop variable (pattern, so `for (k, v) in ...` works)
	Iterable Expression
	Body     *BlockStatement
}

func (fe *ForExpression) expressionNode()      {}
func (fe *ForExpression) TokenLiteral() string { return fe.Token.Literal }
func (fe *ForExpression) String() string {
	var out bytes.Buffer
	if fe.Label != "" {
		out.WriteString("'" + fe.Label + ": ")
	}
	out.WriteString("for ")
	out.WriteString(fe.Binding.String())
	out.WriteString(" in ")
	out.WriteString(fe.Iterable.String())
	out.WriteString(" ")
	out.WriteString(fe.Body.String())
	return out.String()
}

type LoopExpression struct {
	Token token.Token // the token.LOOP token
	Label string
	Body  *BlockStatement
}

func (le *LoopExpression) expressionNode()      {}
func (le *LoopExpression) TokenLiteral() string { return le.Token.Literal }
func (le *LoopExpression) String() string {
	var out bytes.Buffer
	if le.Label != "" {
		out.WriteString("'" + le.Label + ": ")
	}
	out.WriteString("loop ")
	out.WriteString(le.Body.String())
	return out.String()
}

type FunctionLiteral struct {
	Token      token.Token // the token.FUNCTION token
	Parameters []*Identifier
	Body       *BlockStatement
}

func (fl *FunctionLiteral) expressionNode()      {}
func (fl *FunctionLiteral) TokenLiteral() string { return fl.Token.Literal }
func (fl *FunctionLiteral) signatureString() string {
	params := []string{}
	for _, p := range fl.Parameters {
		params = append(params, p.String())
	}
	return "(" + strings.Join(params, ", ") + ")"
}
func (fl *FunctionLiteral) String() string {
	return "fn" + fl.signatureString() + " " + fl.Body.String()
}

type CallExpression struct {
	Token     token.Token // the ( token
	Function  Expression  // Identifier, FunctionLiteral or FieldAccess
	Arguments []Expression
}

func (ce *CallExpression) expressionNode()      {}
func (ce *CallExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *CallExpression) String() string {
	args := []string{}
	for _, a := range ce.Arguments {
		args = append(args, a.String())
	}
	return ce.Function.String() + "(" + strings.Join(args, ", ") + ")"
}

// FieldAccess is `obj.field`; in call position the evaluator treats it as a
// method invocation on the receiver.
type FieldAccess struct {
	Token  token.Token // the . token
	Object Expression
	Field  *Identifier
}

func (fa *FieldAccess) expressionNode()      {}
func (fa *FieldAccess) TokenLiteral() string { return fa.Token.Literal }
func (fa *FieldAccess) String() string {
	return "(" + fa.Object.String() + "." + fa.Field.String() + ")"
}

type ArrayLiteral struct {
	Token    token.Token // the [ token
	Elements []Expression
}

func (al *ArrayLiteral) expressionNode()      {}
func (al *ArrayLiteral) TokenLiteral() string { return al.Token.Literal }
func (al *ArrayLiteral) String() string {
	elements := []string{}
	for _, el := range al.Elements {
		elements = append(elements, el.String())
	}
	return "[" + strings.Join(elements, ", ") + "]"
}

// TupleLiteral is `(a, b, ...)` with arity >= 2; `(a)` is grouping and `()`
// is the unit literal.
type TupleLiteral struct {
	Token    token.Token // the ( token
	Elements []Expression
}

func (tl *TupleLiteral) expressionNode()      {}
func (tl *TupleLiteral) TokenLiteral() string { return tl.Token.Literal }
func (tl *TupleLiteral) String() string {
	elements := []string{}
	for _, el := range tl.Elements {
		elements = append(elements, el.String())
	}
	return "(" + strings.Join(elements, ", ") + ")"
}

type MapLiteral struct {
	Token token.Token // the { token
	Keys  []Expression
	Vals  []Expression
}

func (ml *MapLiteral) expressionNode()      {}
func (ml *MapLiteral) TokenLiteral() string { return ml.Token.Literal }
func (ml *MapLiteral) String() string {
	pairs := []string{}
	for i := range ml.Keys {
		pairs = append(pairs, ml.Keys[i].String()+": "+ml.Vals[i].String())
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

type IndexExpression struct {
	Token token.Token // the [ token
	Left  Expression
	Index Expression
}

func (ie *IndexExpression) expressionNode()      {}
func (ie *IndexExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *IndexExpression) String() string {
	return "(" + ie.Left.String() + "[" + ie.Index.String() + "])"
}

type MatchExpression struct {
	Token   token.Token // the token.MATCH token
	Subject Expression
	Arms    []*MatchArm
}

type MatchArm struct {
	Pattern MatchPattern
	Guard   Expression // nil when the arm has no guard
	Body    Node       // an Expression, or a *BlockStatement for block arms
}

func (ma *MatchArm) String() string {
	var out bytes.Buffer
	out.WriteString(ma.Pattern.String())
	if ma.Guard != nil {
		out.WriteString(" if ")
		out.WriteString(ma.Guard.String())
	}
	out.WriteString(" => ")
	out.WriteString(ma.Body.String())
	return out.String()
}

func (me *MatchExpression) expressionNode()      {}
func (me *MatchExpression) TokenLiteral() string { return me.Token.Literal }
func (me *MatchExpression) String() string {
	var out bytes.Buffer
	out.WriteString("match ")
	out.WriteString(me.Subject.String())
	out.WriteString(" { ")
	for _, arm := range me.Arms {
		out.WriteString(arm.String())
		out.WriteString(", ")
	}
	out.WriteString("}")
	return out.String()
}

type TryCatchExpression struct {
	Token        token.Token // the token.TRY token
	TryBlock     *BlockStatement
	CatchPattern MatchPattern
	CatchBlock   *BlockStatement
}

func (tc *TryCatchExpression) expressionNode()      {}
func (tc *TryCatchExpression) TokenLiteral() string { return tc.Token.Literal }
func (tc *TryCatchExpression) String() string {
	var out bytes.Buffer
	out.WriteString("try ")
	out.WriteString(tc.TryBlock.String())
	out.WriteString(" catch ")
	out.WriteString(tc.CatchPattern.String())
	out.WriteString(" ")
	out.WriteString(tc.CatchBlock.String())
	return out.String()
}

// SpawnExpression is `spawn Actor(args)`.
type SpawnExpression struct {
	Token token.Token // the token.SPAWN token
	Call  *CallExpression
}

func (se *SpawnExpression) expressionNode()      {}
func (se *SpawnExpression) TokenLiteral() string { return se.Token.Literal }
func (se *SpawnExpression) String() string {
	return "spawn " + se.Call.String()
}

// SendExpression is the fire-and-forget `ref ! msg`.
type SendExpression struct {
	Token   token.Token // the ! token
	Target  Expression
	Message Expression
}

func (se *SendExpression) expressionNode()      {}
func (se *SendExpression) TokenLiteral() string { return se.Token.Literal }
func (se *SendExpression) String() string {
	return "(" + se.Target.String() + " ! " + se.Message.String() + ")"
}

// AskExpression is the blocking request/response `ref ? msg`.
type AskExpression struct {
	Token   token.Token // the ? token
	Target  Expression
	Message Expression
}

func (ae *AskExpression) expressionNode()      {}
func (ae *AskExpression) TokenLiteral() string { return ae.Token.Literal }
func (ae *AskExpression) String() string {
	return "(" + ae.Target.String() + " ? " + ae.Message.String() + ")"
}

// ---------------------------------------------------------------------------
// Patterns
// ---------------------------------------------------------------------------

type WildcardPattern struct {
	Token token.Token // the _ token
}

func (wp *WildcardPattern) patternNode()         {}
func (wp *WildcardPattern) TokenLiteral() string { return wp.Token.Literal }
func (wp *WildcardPattern) String() string       { return "_" }

// LiteralPattern wraps a literal expression compared structurally.
type LiteralPattern struct {
	Token token.Token
	Value Expression
}

func (lp *LiteralPattern) patternNode()         {}
func (lp *LiteralPattern) TokenLiteral() string { return lp.Token.Literal }
func (lp *LiteralPattern) String() string       { return lp.Value.String() }

// IdentifierPattern binds the matched value to a name.
type IdentifierPattern struct {
	Token token.Token
	Value *Identifier
}

func (ip *IdentifierPattern) patternNode()         {}
func (ip *IdentifierPattern) TokenLiteral() string { return ip.Token.Literal }
func (ip *IdentifierPattern) String() string       { return ip.Value.String() }

// RestPattern is `..name` (or bare `..`) inside an array pattern.
type RestPattern struct {
	Token token.Token // the .. token
	Name  *Identifier // nil for an anonymous rest
}

func (rp *RestPattern) patternNode()         {}
func (rp *RestPattern) TokenLiteral() string { return rp.Token.Literal }
func (rp *RestPattern) String() string {
	if rp.Name != nil {
		return ".." + rp.Name.String()
	}
	return ".."
}

type TuplePattern struct {
	Token    token.Token // the ( token
	Elements []MatchPattern
}

func (tp *TuplePattern) patternNode()         {}
func (tp *TuplePattern) TokenLiteral() string { return tp.Token.Literal }
func (tp *TuplePattern) String() string {
	parts := []string{}
	for _, p := range tp.Elements {
		parts = append(parts, p.String())
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

type ArrayPattern struct {
	Token    token.Token // the [ token
	Elements []MatchPattern
}

func (ap *ArrayPattern) patternNode()         {}
func (ap *ArrayPattern) TokenLiteral() string { return ap.Token.Literal }
func (ap *ArrayPattern) String() string {
	parts := []string{}
	for _, p := range ap.Elements {
		parts = append(parts, p.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// RangePattern matches when the value falls inside the range; bounds are
// literal expressions. `1..=5` is inclusive, `1..5` excludes the end.
type RangePattern struct {
	Token     token.Token
	Start     Expression
	End       Expression
	Inclusive bool
}

func (rp *RangePattern) patternNode()         {}
func (rp *RangePattern) TokenLiteral() string { return rp.Token.Literal }
func (rp *RangePattern) String() string {
	op := ".."
	if rp.Inclusive {
		op = "..="
	}
	return rp.Start.String() + op + rp.End.String()
}

// VariantPattern matches an enum variant by name and destructures its
// payload positionally: `Some(x)`, `None`.
type VariantPattern struct {
	Token    token.Token
	Name     *Identifier
	Elements []MatchPattern
}

func (vp *VariantPattern) patternNode()         {}
func (vp *VariantPattern) TokenLiteral() string { return vp.Token.Literal }
func (vp *VariantPattern) String() string {
	if len(vp.Elements) == 0 {
		return vp.Name.String()
	}
	parts := []string{}
	for _, p := range vp.Elements {
		parts = append(parts, p.String())
	}
	return vp.Name.String() + "(" + strings.Join(parts, ", ") + ")"
}

// StructPattern destructures class instances and maps by field name:
// `Point { x, y }` or `{ status, body }`.
type StructPattern struct {
	Token  token.Token
	Name   *Identifier // nil for an anonymous map pattern
	Fields []*FieldPattern
}

type FieldPattern struct {
	Name    *Identifier
	Pattern MatchPattern // nil shorthand binds the field under its own name
}

func (sp *StructPattern) patternNode()         {}
func (sp *StructPattern) TokenLiteral() string { return sp.Token.Literal }
func (sp *StructPattern) String() string {
	var out bytes.Buffer
	if sp.Name != nil {
		out.WriteString(sp.Name.String())
		out.WriteString(" ")
	}
	parts := []string{}
	for _, f := range sp.Fields {
		if f.Pattern != nil {
			parts = append(parts, f.Name.String()+": "+f.Pattern.String())
		} else {
			parts = append(parts, f.Name.String())
		}
	}
	out.WriteString("{ " + strings.Join(parts, ", ") + " }")
	return out.String()
}
